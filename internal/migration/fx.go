package migration

import (
	"github.com/ngoinfo/copilot/internal/config"
	fundingdomain "github.com/ngoinfo/copilot/internal/funding/domain"
	idemdomain "github.com/ngoinfo/copilot/internal/idempotency/domain"
	profiledomain "github.com/ngoinfo/copilot/internal/profile/domain"
	proposaldomain "github.com/ngoinfo/copilot/internal/proposal/domain"
	"github.com/ngoinfo/copilot/internal/seed"
	usagedomain "github.com/ngoinfo/copilot/internal/usage/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			// sqlite has no versioned migrations; the schema is derived from
			// the models directly.
			if err := conn.AutoMigrate(
				&profiledomain.NGOProfile{},
				&fundingdomain.FundingOpportunity{},
				&proposaldomain.Proposal{},
				&usagedomain.UsageRecord{},
				&idemdomain.IdempotencyRecord{},
			); err != nil {
				return err
			}
		}

		if cfg.IsProduction() {
			return nil
		}
		return seed.EnsureSampleOpportunities(conn)
	}),
)

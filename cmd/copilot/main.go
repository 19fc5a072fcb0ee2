package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/ngoinfo/copilot/internal/auth"
	"github.com/ngoinfo/copilot/internal/clock"
	"github.com/ngoinfo/copilot/internal/config"
	"github.com/ngoinfo/copilot/internal/export"
	"github.com/ngoinfo/copilot/internal/funding"
	"github.com/ngoinfo/copilot/internal/generator"
	"github.com/ngoinfo/copilot/internal/idempotency"
	"github.com/ngoinfo/copilot/internal/migration"
	"github.com/ngoinfo/copilot/internal/observability"
	"github.com/ngoinfo/copilot/internal/profile"
	"github.com/ngoinfo/copilot/internal/proposal"
	"github.com/ngoinfo/copilot/internal/ratelimit"
	"github.com/ngoinfo/copilot/internal/scheduler"
	"github.com/ngoinfo/copilot/internal/server"
	"github.com/ngoinfo/copilot/internal/usage"
	"github.com/ngoinfo/copilot/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,

		auth.Module,
		ratelimit.Module,
		generator.Module,

		usage.Module,
		idempotency.Module,
		profile.Module,
		funding.Module,
		proposal.Module,
		export.Module,

		migration.Module,
		scheduler.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}

package funding

import (
	"github.com/ngoinfo/copilot/internal/cache"
	fundingdomain "github.com/ngoinfo/copilot/internal/funding/domain"
	"github.com/ngoinfo/copilot/internal/funding/repository"
	"github.com/ngoinfo/copilot/internal/funding/service"
	"go.uber.org/fx"
)

var Module = fx.Module("funding.service",
	fx.Provide(
		cache.NewTTLCache[int64, *fundingdomain.FundingOpportunity],
		repository.Provide,
		service.NewService,
	),
)

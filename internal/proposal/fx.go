package proposal

import (
	"github.com/ngoinfo/copilot/internal/proposal/repository"
	"github.com/ngoinfo/copilot/internal/proposal/service"
	"go.uber.org/fx"
)

var Module = fx.Module("proposal.service",
	fx.Provide(
		repository.Provide,
		service.NewService,
	),
)

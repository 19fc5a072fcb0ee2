package usage

import (
	"github.com/ngoinfo/copilot/internal/usage/repository"
	"github.com/ngoinfo/copilot/internal/usage/service"
	"go.uber.org/fx"
)

var Module = fx.Module("usage.service",
	fx.Provide(
		repository.Provide,
		service.NewService,
	),
)

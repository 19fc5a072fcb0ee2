package profile

import (
	"github.com/ngoinfo/copilot/internal/profile/repository"
	"github.com/ngoinfo/copilot/internal/profile/service"
	"go.uber.org/fx"
)

var Module = fx.Module("profile.service",
	fx.Provide(
		repository.Provide,
		service.NewService,
	),
)

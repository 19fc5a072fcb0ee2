package idempotency

import (
	"github.com/ngoinfo/copilot/internal/idempotency/repository"
	"github.com/ngoinfo/copilot/internal/idempotency/service"
	"go.uber.org/fx"
)

var Module = fx.Module("idempotency.service",
	fx.Provide(
		repository.Provide,
		service.NewService,
	),
)

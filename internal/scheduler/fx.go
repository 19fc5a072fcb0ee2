package scheduler

import (
	"context"

	appconfig "github.com/ngoinfo/copilot/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("scheduler",
	fx.Provide(ProvideConfig),
	fx.Provide(New),
	fx.Invoke(Run),
)

// ProvideConfig derives the scheduler config from application config.
func ProvideConfig(cfg appconfig.Config) Config {
	return Config{
		RunInterval: cfg.CleanupInterval,
	}
}

// Run starts the scheduler loop on application start and stops it on
// shutdown.
func Run(lc fx.Lifecycle, sched *Scheduler) {
	loopCtx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go sched.RunForever(loopCtx)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}

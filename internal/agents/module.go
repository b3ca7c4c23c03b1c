package agents

import (
	"context"

	"github.com/go-core-fx/logger"
	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module(
		"agents",
		logger.WithNamedLogger("agents"),
		fx.Provide(NewRegistry),
		fx.Provide(NewDispatcher),
		fx.Provide(NewListener, fx.Private),
		fx.Invoke(func(listener *Listener, lifecycle fx.Lifecycle) {
			lifecycle.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					return listener.Start(ctx)
				},
				OnStop: func(ctx context.Context) error {
					return listener.Stop(ctx)
				},
			})
		}),
	)
}

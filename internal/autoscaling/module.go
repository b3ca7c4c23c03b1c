package autoscaling

import (
	"context"

	"github.com/go-core-fx/logger"
	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module(
		"autoscaling",
		logger.WithNamedLogger("autoscaling"),
		fx.Provide(NewRepository, fx.Private),
		fx.Provide(NewService),
		fx.Provide(NewEvaluator, fx.Private),
		fx.Invoke(func(evaluator *Evaluator, lifecycle fx.Lifecycle) {
			lifecycle.Append(fx.Hook{
				OnStart: func(context.Context) error {
					evaluator.Start()
					return nil
				},
				OnStop: func(context.Context) error {
					evaluator.Stop()
					return nil
				},
			})
		}),
	)
}

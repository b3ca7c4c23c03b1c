package queue

import (
	"context"
	"fmt"

	"github.com/go-core-fx/logger"
	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module(
		"queue",
		logger.WithNamedLogger("queue"),
		fx.Provide(NewRedisQueue, fx.Private),
		fx.Provide(func(q *RedisQueue) Queue { return q }),
		fx.Invoke(func(q *RedisQueue, lifecycle fx.Lifecycle) {
			lifecycle.Append(fx.Hook{
				OnStop: func(_ context.Context) error {
					if err := q.Close(); err != nil {
						return fmt.Errorf("failed to close queue client: %w", err)
					}
					return nil
				},
			})
		}),
	)
}

package badgerfx

import (
	"context"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/go-core-fx/logger"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func Module() fx.Option {
	return fx.Module(
		"badgerfx",
		logger.WithNamedLogger("badgerfx"),
		fx.Provide(newLogger, fx.Private),
		fx.Provide(New),
		fx.Invoke(func(config Config, db *badger.DB, logger *zap.Logger, lifecycle fx.Lifecycle) {
			done := make(chan struct{})
			lifecycle.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					if config.GCInterval > 0 && !config.InMemory {
						go runGC(db, config.GCInterval, logger, done)
					}
					return nil
				},
				OnStop: func(_ context.Context) error {
					close(done)
					if err := db.Close(); err != nil {
						return fmt.Errorf("failed to close BadgerDB: %w", err)
					}
					return nil
				},
			})
		}),
	)
}

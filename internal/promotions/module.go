package promotions

import (
	"github.com/go-core-fx/logger"
	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module(
		"promotions",
		logger.WithNamedLogger("promotions"),
		fx.Provide(NewRepository, fx.Private),
		fx.Provide(NewService),
	)
}

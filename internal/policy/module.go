package policy

import (
	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module(
		"policy",
		fx.Provide(fx.Annotate(NewAllowAll, fx.As(new(Engine)))),
	)
}

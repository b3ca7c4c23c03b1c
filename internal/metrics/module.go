package metrics

import (
	"github.com/syntra/syntra/internal/agents"
	"github.com/syntra/syntra/internal/autoscaling"
	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module(
		"metrics",
		fx.Provide(
			NewStore,
			func(s *Store) agents.MetricSink { return s },
			func(s *Store) autoscaling.MetricSource { return s },
		),
	)
}

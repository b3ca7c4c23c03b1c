package deployments

import (
	"github.com/go-core-fx/logger"
	"github.com/syntra/syntra/internal/agents"
	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module(
		"deployments",
		logger.WithNamedLogger("deployments"),
		fx.Provide(NewRepository, fx.Private),
		fx.Provide(NewService),
		fx.Provide(func(s *Service) agents.DeploymentReporter { return s }),
	)
}

package internal

import (
	"context"

	"github.com/capcom6/go-infra-fx/validator"
	"github.com/go-core-fx/fiberfx"
	"github.com/go-core-fx/healthfx"
	"github.com/go-core-fx/logger"
	"github.com/syntra/syntra/internal/agents"
	"github.com/syntra/syntra/internal/autoscaling"
	"github.com/syntra/syntra/internal/config"
	"github.com/syntra/syntra/internal/deployments"
	"github.com/syntra/syntra/internal/environments"
	"github.com/syntra/syntra/internal/metrics"
	"github.com/syntra/syntra/internal/policy"
	"github.com/syntra/syntra/internal/promotions"
	"github.com/syntra/syntra/internal/queue"
	"github.com/syntra/syntra/internal/rollback"
	"github.com/syntra/syntra/internal/server"
	"github.com/syntra/syntra/internal/services"
	"github.com/syntra/syntra/pkg/badgerfx"
	"github.com/syntra/syntra/pkg/openapifx"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func Run() {
	fx.New(
		// CORE MODULES
		logger.Module(),
		logger.WithFxDefaultLogger(),
		badgerfx.Module(),
		healthfx.Module(),
		fiberfx.Module(),
		validator.Module,
		openapifx.Module(),
		//
		// APP MODULES
		config.Module(),
		server.Module(),
		policy.Module(),
		queue.Module(),
		//
		// BUSINESS MODULES
		fx.Provide(func() healthfx.Version { return healthfx.Version{Version: "0.1.0", ReleaseID: 1} }),
		agents.Module(),
		metrics.Module(),
		services.Module(),
		environments.Module(),
		deployments.Module(),
		rollback.Module(),
		promotions.Module(),
		autoscaling.Module(),
		//
		// LIFECYCLE MANAGEMENT
		fx.Invoke(func(lc fx.Lifecycle, logger *zap.Logger) {
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					logger.Info("🚀 Syntra control plane starting up")
					return nil
				},
				OnStop: func(_ context.Context) error {
					logger.Info("🛑 Syntra control plane shutting down gracefully")
					return nil
				},
			})
		}),
	).Run()
}

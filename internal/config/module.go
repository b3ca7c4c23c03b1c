package config

import (
	"github.com/go-core-fx/fiberfx"
	"github.com/syntra/syntra/internal/agents"
	"github.com/syntra/syntra/internal/autoscaling"
	"github.com/syntra/syntra/internal/metrics"
	"github.com/syntra/syntra/internal/queue"
	"github.com/syntra/syntra/pkg/badgerfx"
	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module(
		"config",
		fx.Provide(New),
		fx.Provide(func(cfg Config) fiberfx.Config {
			return fiberfx.Config{
				Address:     cfg.HTTP.Address,
				ProxyHeader: cfg.HTTP.ProxyHeader,
				Proxies:     cfg.HTTP.Proxies,
			}
		}),
		fx.Provide(func(cfg Config) badgerfx.Config {
			return badgerfx.Config{
				Dir:        cfg.Storage.DataDir,
				InMemory:   cfg.Storage.InMemory,
				GCInterval: cfg.Storage.GCInterval,
			}
		}),
		fx.Provide(func(cfg Config) agents.Config {
			return agents.Config{
				Address:          cfg.Agents.Address,
				Path:             cfg.Agents.Path,
				WriteTimeout:     cfg.Agents.WriteTimeout,
				HeartbeatTimeout: cfg.Agents.HeartbeatTimeout,
			}
		}),
		fx.Provide(func(cfg Config) queue.Config {
			return queue.Config{
				RedisAddress:  cfg.Queue.RedisAddress,
				RedisPassword: cfg.Queue.RedisPassword,
				RedisDB:       cfg.Queue.RedisDB,
				Key:           cfg.Queue.Key,
			}
		}),
		fx.Provide(func(cfg Config) autoscaling.Config {
			return autoscaling.Config{
				Enabled:  cfg.Autoscaler.Enabled,
				Interval: cfg.Autoscaler.Interval,
			}
		}),
		fx.Provide(func(cfg Config) metrics.Config {
			return metrics.Config{
				WindowSize: cfg.Metrics.WindowSize,
			}
		}),
	)
}

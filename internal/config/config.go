package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-core-fx/config"
)

type http struct {
	Address     string   `koanf:"address"`
	ProxyHeader string   `koanf:"proxy_header"`
	Proxies     []string `koanf:"proxies"`
}

type storageConfig struct {
	DataDir    string        `koanf:"data_dir"`
	InMemory   bool          `koanf:"in_memory"`
	GCInterval time.Duration `koanf:"gc_interval"`
}

type agentsConfig struct {
	// Address the agent websocket listener binds to. Runs on its own
	// listener, separate from the API server.
	Address          string        `koanf:"address"`
	Path             string        `koanf:"path"`
	WriteTimeout     time.Duration `koanf:"write_timeout"`
	HeartbeatTimeout time.Duration `koanf:"heartbeat_timeout"`
}

type queueConfig struct {
	RedisAddress  string `koanf:"redis_address"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`
	Key           string `koanf:"key"`
}

type autoscalerConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Interval time.Duration `koanf:"interval"`
}

type metricsConfig struct {
	// Samples retained per service/metric pair for autoscaling evaluation.
	WindowSize int `koanf:"window_size"`
}

type Config struct {
	HTTP http `koanf:"http"`

	Storage    storageConfig    `koanf:"storage"`
	Agents     agentsConfig     `koanf:"agents"`
	Queue      queueConfig      `koanf:"queue"`
	Autoscaler autoscalerConfig `koanf:"autoscaler"`
	Metrics    metricsConfig    `koanf:"metrics"`
}

func Default() Config {
	//nolint:exhaustruct,mnd //default values
	return Config{
		HTTP: http{
			Address:     "127.0.0.1:3000",
			ProxyHeader: "X-Forwarded-For",
			Proxies:     []string{},
		},

		Storage: storageConfig{
			DataDir:    "./data",
			GCInterval: 10 * time.Minute,
		},

		Agents: agentsConfig{
			Address:          "127.0.0.1:3001",
			Path:             "/agents/ws",
			WriteTimeout:     10 * time.Second,
			HeartbeatTimeout: 90 * time.Second,
		},

		Queue: queueConfig{
			RedisAddress: "127.0.0.1:6379",
			Key:          "syntra:jobs",
		},

		Autoscaler: autoscalerConfig{
			Enabled:  true,
			Interval: 30 * time.Second,
		},

		Metrics: metricsConfig{
			WindowSize: 360,
		},
	}
}

func New() (Config, error) {
	cfg := Default()

	options := []config.Option{}
	if yamlPath := os.Getenv("CONFIG_PATH"); yamlPath != "" {
		options = append(options, config.WithLocalYAML(yamlPath))
	}

	if err := config.Load(&cfg, options...); err != nil {
		return Config{}, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

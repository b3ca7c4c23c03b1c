package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Config struct {
	RedisAddress  string
	RedisPassword string
	RedisDB       int
	Key           string
}

// RedisQueue pushes jobs onto a Redis list consumed by the worker fleet.
type RedisQueue struct {
	client *redis.Client
	key    string

	logger *zap.Logger
}

func NewRedisQueue(config Config, logger *zap.Logger) *RedisQueue {
	client := redis.NewClient(&redis.Options{
		Addr:     config.RedisAddress,
		Password: config.RedisPassword,
		DB:       config.RedisDB,
	})

	return &RedisQueue{
		client: client,
		key:    config.Key,

		logger: logger,
	}
}

func (q *RedisQueue) Enqueue(ctx context.Context, job Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	if err := q.client.LPush(ctx, q.key, data).Err(); err != nil {
		q.logger.Error("failed to enqueue job",
			zap.String("job_id", job.ID.String()),
			zap.String("type", string(job.Type)),
			zap.Error(err),
		)
		return fmt.Errorf("failed to enqueue job: %w", err)
	}

	q.logger.Debug("job enqueued",
		zap.String("job_id", job.ID.String()),
		zap.String("type", string(job.Type)),
	)
	return nil
}

func (q *RedisQueue) Close() error {
	return q.client.Close()
}

var _ Queue = (*RedisQueue)(nil)

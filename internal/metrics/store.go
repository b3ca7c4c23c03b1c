// Package metrics keeps a sliding in-memory window of agent-reported
// metric samples per service. It feeds the autoscaler; the durable
// metric pipeline is a separate system.
package metrics

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/syntra/syntra/internal/agents"
	"github.com/syntra/syntra/internal/autoscaling"
)

var (
	_ agents.MetricSink        = (*Store)(nil)
	_ autoscaling.MetricSource = (*Store)(nil)
)

type Config struct {
	// Samples retained per service/metric pair.
	WindowSize int
}

type seriesKey struct {
	serviceID uuid.UUID
	metric    string
}

// Store is a bounded ring buffer per service/metric pair. Safe for
// concurrent writers (agent sessions) and readers (evaluator cycles).
type Store struct {
	mu     sync.RWMutex
	series map[seriesKey][]autoscaling.Sample

	windowSize int
}

func NewStore(config Config) *Store {
	windowSize := config.WindowSize
	if windowSize < 1 {
		windowSize = 1
	}

	return &Store{
		series:     make(map[seriesKey][]autoscaling.Sample),
		windowSize: windowSize,
	}
}

// Record appends a sample, evicting the oldest once the window is full.
func (s *Store) Record(serviceID uuid.UUID, metric string, value float64, at time.Time) {
	key := seriesKey{serviceID: serviceID, metric: metric}

	s.mu.Lock()
	defer s.mu.Unlock()

	samples := append(s.series[key], autoscaling.Sample{Value: value, At: at})
	if len(samples) > s.windowSize {
		samples = samples[len(samples)-s.windowSize:]
	}
	s.series[key] = samples
}

// Samples returns the retained samples at or after since, oldest first.
func (s *Store) Samples(serviceID uuid.UUID, metric string, since time.Time) []autoscaling.Sample {
	key := seriesKey{serviceID: serviceID, metric: metric}

	s.mu.RLock()
	defer s.mu.RUnlock()

	retained := s.series[key]
	result := make([]autoscaling.Sample, 0, len(retained))
	for _, sample := range retained {
		if sample.At.Before(since) {
			continue
		}
		result = append(result, sample)
	}

	return result
}

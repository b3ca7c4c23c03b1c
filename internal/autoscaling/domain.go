package autoscaling

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/syntra/syntra/internal/services"
)

type Metric string

const (
	MetricCPUPercent     Metric = "cpu_percent"
	MetricMemoryPercent  Metric = "memory_percent"
	MetricRequestCount   Metric = "request_count"
	MetricResponseTimeMS Metric = "response_time_ms"
	MetricCustom         Metric = "custom"
)

func (m Metric) Valid() bool {
	switch m {
	case MetricCPUPercent, MetricMemoryPercent, MetricRequestCount, MetricResponseTimeMS, MetricCustom:
		return true
	default:
		return false
	}
}

type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// Platform-wide threshold bounds, matching the replica bounds in services.
const (
	MinThreshold float64 = 1
	MaxThreshold float64 = 100
)

// RuleDraft is a scaling policy attached to a service. Thresholds and
// replica bounds are fixed at creation/update time and never relaxed by
// the evaluator; the evaluator only stamps the last-action fields.
type RuleDraft struct {
	ServiceID        uuid.UUID `json:"service_id" validate:"required"`
	Name             string    `json:"name" validate:"required,max=128"`
	Metric           Metric    `json:"metric" validate:"required"`
	CustomMetricName string    `json:"custom_metric_name"`
	IsEnabled        bool      `json:"is_enabled"`

	ScaleUpThreshold float64       `json:"scale_up_threshold"`
	ScaleUpBy        int           `json:"scale_up_by"`
	ScaleUpCooldown  time.Duration `json:"scale_up_cooldown"`

	ScaleDownThreshold float64       `json:"scale_down_threshold"`
	ScaleDownBy        int           `json:"scale_down_by"`
	ScaleDownCooldown  time.Duration `json:"scale_down_cooldown"`

	MinReplicas int `json:"min_replicas"`
	MaxReplicas int `json:"max_replicas"`

	EvaluationPeriod     time.Duration `json:"evaluation_period"`
	EvaluationDataPoints int           `json:"evaluation_data_points"`

	LastScaleAction    *time.Time `json:"last_scale_action"`
	LastScaleDirection Direction  `json:"last_scale_direction"`
}

// Validate enforces the rule invariants. They hold at write time and are
// never re-checked by the evaluator.
func (d *RuleDraft) Validate() error {
	if !d.Metric.Valid() {
		return fmt.Errorf("%w: unknown metric %q", ErrValidation, d.Metric)
	}
	if d.Metric == MetricCustom && d.CustomMetricName == "" {
		return fmt.Errorf("%w: custom metric requires custom_metric_name", ErrValidation)
	}

	if d.ScaleUpThreshold < MinThreshold || d.ScaleUpThreshold > MaxThreshold ||
		d.ScaleDownThreshold < MinThreshold || d.ScaleDownThreshold > MaxThreshold {
		return fmt.Errorf(
			"%w: thresholds must be within [%g, %g]",
			ErrValidation, MinThreshold, MaxThreshold,
		)
	}
	if d.ScaleDownThreshold >= d.ScaleUpThreshold {
		return fmt.Errorf(
			"%w: scale_down_threshold (%g) must be below scale_up_threshold (%g)",
			ErrValidation, d.ScaleDownThreshold, d.ScaleUpThreshold,
		)
	}

	if d.MinReplicas > d.MaxReplicas {
		return fmt.Errorf(
			"%w: min_replicas (%d) must not exceed max_replicas (%d)",
			ErrValidation, d.MinReplicas, d.MaxReplicas,
		)
	}
	if d.MinReplicas < services.MinReplicas || d.MaxReplicas > services.MaxReplicas {
		return fmt.Errorf(
			"%w: replica bounds must be within [%d, %d]",
			ErrValidation, services.MinReplicas, services.MaxReplicas,
		)
	}

	if d.ScaleUpBy < 1 || d.ScaleDownBy < 1 {
		return fmt.Errorf("%w: scale_up_by and scale_down_by must be positive", ErrValidation)
	}
	if d.ScaleUpBy > services.MaxReplicas || d.ScaleDownBy > services.MaxReplicas {
		return fmt.Errorf("%w: scale steps must not exceed %d", ErrValidation, services.MaxReplicas)
	}

	if d.EvaluationPeriod <= 0 {
		return fmt.Errorf("%w: evaluation_period must be positive", ErrValidation)
	}
	if d.EvaluationDataPoints < 1 {
		return fmt.Errorf("%w: evaluation_data_points must be positive", ErrValidation)
	}

	return nil
}

// MetricName resolves the sample stream the rule evaluates against.
func (d *RuleDraft) MetricName() string {
	if d.Metric == MetricCustom {
		return d.CustomMetricName
	}

	return string(d.Metric)
}

type Rule struct {
	RuleDraft

	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

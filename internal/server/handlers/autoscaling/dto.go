package autoscaling

import (
	"time"

	"github.com/google/uuid"
)

// RuleRequest represents the request payload for creating or updating a
// rule. Cooldowns and the evaluation period are seconds.
type RuleRequest struct {
	ServiceID        uuid.UUID `json:"service_id"         validate:"required"`
	Name             string    `json:"name"               validate:"required,min=1,max=128"`
	Metric           string    `json:"metric"             validate:"required,oneof=cpu_percent memory_percent request_count response_time_ms custom"`
	CustomMetricName string    `json:"custom_metric_name" validate:"omitempty,max=128"`
	IsEnabled        bool      `json:"is_enabled"`

	ScaleUpThreshold float64 `json:"scale_up_threshold"`
	ScaleUpBy        int     `json:"scale_up_by"`
	ScaleUpCooldown  int     `json:"scale_up_cooldown"`

	ScaleDownThreshold float64 `json:"scale_down_threshold"`
	ScaleDownBy        int     `json:"scale_down_by"`
	ScaleDownCooldown  int     `json:"scale_down_cooldown"`

	MinReplicas int `json:"min_replicas"`
	MaxReplicas int `json:"max_replicas"`

	EvaluationPeriod     int `json:"evaluation_period"`
	EvaluationDataPoints int `json:"evaluation_data_points"`
}

// RuleResponse represents the response payload for a rule.
type RuleResponse struct {
	RuleRequest

	ID                 uuid.UUID  `json:"id"`
	LastScaleAction    *time.Time `json:"last_scale_action,omitempty"`
	LastScaleDirection string     `json:"last_scale_direction,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

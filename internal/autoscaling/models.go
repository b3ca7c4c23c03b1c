package autoscaling

import (
	"time"

	"github.com/google/uuid"
	"github.com/syntra/syntra/internal/storage"
)

type ruleModel struct {
	storage.BaseEntity

	ServiceID        uuid.UUID `json:"service_id"`
	Name             string    `json:"name"`
	Metric           Metric    `json:"metric"`
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

func newRuleModel(draft *RuleDraft) *ruleModel {
	if draft == nil {
		return nil
	}

	return &ruleModel{
		BaseEntity:           storage.NewBaseEntity(),
		ServiceID:            draft.ServiceID,
		Name:                 draft.Name,
		Metric:               draft.Metric,
		CustomMetricName:     draft.CustomMetricName,
		IsEnabled:            draft.IsEnabled,
		ScaleUpThreshold:     draft.ScaleUpThreshold,
		ScaleUpBy:            draft.ScaleUpBy,
		ScaleUpCooldown:      draft.ScaleUpCooldown,
		ScaleDownThreshold:   draft.ScaleDownThreshold,
		ScaleDownBy:          draft.ScaleDownBy,
		ScaleDownCooldown:    draft.ScaleDownCooldown,
		MinReplicas:          draft.MinReplicas,
		MaxReplicas:          draft.MaxReplicas,
		EvaluationPeriod:     draft.EvaluationPeriod,
		EvaluationDataPoints: draft.EvaluationDataPoints,
		LastScaleAction:      draft.LastScaleAction,
		LastScaleDirection:   draft.LastScaleDirection,
	}
}

func newRuleUpdateModel(source *ruleModel, draft *RuleDraft) *ruleModel {
	updated := newRuleModel(draft)
	updated.ID = source.ID
	updated.CreatedAt = source.CreatedAt
	updated.UpdatedAt = time.Now()

	return updated
}

func newRule(model *ruleModel) *Rule {
	if model == nil {
		return nil
	}

	return &Rule{
		RuleDraft: RuleDraft{
			ServiceID:            model.ServiceID,
			Name:                 model.Name,
			Metric:               model.Metric,
			CustomMetricName:     model.CustomMetricName,
			IsEnabled:            model.IsEnabled,
			ScaleUpThreshold:     model.ScaleUpThreshold,
			ScaleUpBy:            model.ScaleUpBy,
			ScaleUpCooldown:      model.ScaleUpCooldown,
			ScaleDownThreshold:   model.ScaleDownThreshold,
			ScaleDownBy:          model.ScaleDownBy,
			ScaleDownCooldown:    model.ScaleDownCooldown,
			MinReplicas:          model.MinReplicas,
			MaxReplicas:          model.MaxReplicas,
			EvaluationPeriod:     model.EvaluationPeriod,
			EvaluationDataPoints: model.EvaluationDataPoints,
			LastScaleAction:      model.LastScaleAction,
			LastScaleDirection:   model.LastScaleDirection,
		},
		ID:        model.ID,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

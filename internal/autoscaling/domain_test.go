package autoscaling

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func validDraft() RuleDraft {
	return RuleDraft{
		ServiceID:            uuid.Must(uuid.NewV7()),
		Name:                 "cpu-scale",
		Metric:               MetricCPUPercent,
		IsEnabled:            true,
		ScaleUpThreshold:     80,
		ScaleUpBy:            1,
		ScaleUpCooldown:      5 * time.Minute,
		ScaleDownThreshold:   20,
		ScaleDownBy:          1,
		ScaleDownCooldown:    10 * time.Minute,
		MinReplicas:          1,
		MaxReplicas:          5,
		EvaluationPeriod:     3 * time.Minute,
		EvaluationDataPoints: 3,
	}
}

func TestRuleDraft_Validate(t *testing.T) {
	draft := validDraft()
	if err := draft.Validate(); err != nil {
		t.Fatalf("valid draft rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*RuleDraft)
	}{
		{"thresholds equal", func(d *RuleDraft) { d.ScaleDownThreshold = d.ScaleUpThreshold }},
		{"thresholds inverted", func(d *RuleDraft) { d.ScaleDownThreshold = 90 }},
		{"negative scale down threshold", func(d *RuleDraft) { d.ScaleDownThreshold = -5 }},
		{"zero scale down threshold", func(d *RuleDraft) { d.ScaleDownThreshold = 0 }},
		{"scale up threshold above platform bound", func(d *RuleDraft) { d.ScaleUpThreshold = 150 }},
		{"min above max", func(d *RuleDraft) { d.MinReplicas = 6 }},
		{"min below platform bound", func(d *RuleDraft) { d.MinReplicas = 0 }},
		{"max above platform bound", func(d *RuleDraft) { d.MaxReplicas = 101 }},
		{"zero scale up step", func(d *RuleDraft) { d.ScaleUpBy = 0 }},
		{"negative scale down step", func(d *RuleDraft) { d.ScaleDownBy = -1 }},
		{"unknown metric", func(d *RuleDraft) { d.Metric = "disk_io" }},
		{"custom without name", func(d *RuleDraft) { d.Metric = MetricCustom; d.CustomMetricName = "" }},
		{"zero evaluation period", func(d *RuleDraft) { d.EvaluationPeriod = 0 }},
		{"zero data points", func(d *RuleDraft) { d.EvaluationDataPoints = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			draft := validDraft()
			tc.mutate(&draft)

			if err := draft.Validate(); !errors.Is(err, ErrValidation) {
				t.Errorf("error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestRuleDraft_MetricName(t *testing.T) {
	draft := validDraft()
	if got := draft.MetricName(); got != "cpu_percent" {
		t.Errorf("MetricName() = %q, want cpu_percent", got)
	}

	draft.Metric = MetricCustom
	draft.CustomMetricName = "queue_depth"
	if got := draft.MetricName(); got != "queue_depth" {
		t.Errorf("MetricName() = %q, want queue_depth", got)
	}
}

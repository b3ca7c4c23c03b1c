package autoscaling

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/samber/lo"
	"github.com/syntra/syntra/internal/agents"
	"github.com/syntra/syntra/internal/services"
	"go.uber.org/zap"
)

var evaluationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "syntra",
		Subsystem: "autoscaler",
		Name:      "evaluations_total",
		Help:      "Rule evaluations, by outcome.",
	},
	[]string{"outcome"},
)

const (
	outcomeScaledUp         = "scaled_up"
	outcomeScaledDown       = "scaled_down"
	outcomeNoAction         = "no_action"
	outcomeInsufficientData = "insufficient_data"
	outcomeCooldown         = "cooldown"
	outcomeDispatchFailed   = "dispatch_failed"
	outcomeError            = "error"
)

// Sample is one metric observation for a service.
type Sample struct {
	Value float64
	At    time.Time
}

// MetricSource serves recent samples for a service's metric stream.
type MetricSource interface {
	Samples(serviceID uuid.UUID, metric string, since time.Time) []Sample
}

type Config struct {
	Enabled  bool
	Interval time.Duration
}

// Evaluator periodically runs every enabled rule against its metric
// window and issues scale commands. Scale-up takes priority over
// scale-down within one cycle, and at most one direction fires per rule
// per cycle.
type Evaluator struct {
	config Config

	rules       *Repository
	servicesSvc *services.Manager
	dispatcher  *agents.Dispatcher
	source      MetricSource

	cancel context.CancelFunc
	done   sync.WaitGroup

	logger *zap.Logger
}

func NewEvaluator(
	config Config,
	rules *Repository,
	servicesSvc *services.Manager,
	dispatcher *agents.Dispatcher,
	source MetricSource,
	logger *zap.Logger,
) *Evaluator {
	return &Evaluator{
		config: config,

		rules:       rules,
		servicesSvc: servicesSvc,
		dispatcher:  dispatcher,
		source:      source,

		logger: logger,
	}
}

// Start launches the evaluation loop. No-op when disabled.
func (e *Evaluator) Start() {
	if !e.config.Enabled {
		e.logger.Info("autoscaler disabled")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel

	e.done.Add(1)
	go e.run(ctx)

	e.logger.Info("autoscaler started", zap.Duration("interval", e.config.Interval))
}

// Stop terminates the evaluation loop and waits for the current cycle.
func (e *Evaluator) Stop() {
	if e.cancel == nil {
		return
	}

	e.cancel()
	e.done.Wait()

	e.logger.Info("autoscaler stopped")
}

func (e *Evaluator) run(ctx context.Context) {
	defer e.done.Done()

	ticker := time.NewTicker(e.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.EvaluateAll(ctx)
		}
	}
}

// EvaluateAll runs one cycle over every enabled rule. Per-rule failures
// are logged and do not stop the cycle.
func (e *Evaluator) EvaluateAll(ctx context.Context) {
	rules, err := e.rules.ListEnabled(ctx)
	if err != nil {
		e.logger.Error("failed to list enabled rules", zap.Error(err))
		return
	}

	for i := range rules {
		rule := &rules[i]
		if err := e.evaluate(ctx, rule); err != nil {
			e.logger.Warn("rule evaluation failed",
				zap.String("rule_id", rule.ID.String()),
				zap.String("service_id", rule.ServiceID.String()),
				zap.Error(err),
			)
		}
	}
}

func (e *Evaluator) evaluate(ctx context.Context, rule *Rule) error {
	logger := e.logger.With(
		zap.String("rule_id", rule.ID.String()),
		zap.String("service_id", rule.ServiceID.String()),
		zap.String("metric", rule.MetricName()),
	)

	service, err := e.servicesSvc.Get(ctx, rule.ServiceID)
	if err != nil {
		evaluationsTotal.WithLabelValues(outcomeError).Inc()
		return fmt.Errorf("failed to get service: %w", err)
	}

	now := time.Now()
	samples := e.source.Samples(rule.ServiceID, rule.MetricName(), now.Add(-rule.EvaluationPeriod))
	if len(samples) < rule.EvaluationDataPoints {
		evaluationsTotal.WithLabelValues(outcomeInsufficientData).Inc()
		logger.Debug("insufficient samples",
			zap.Int("have", len(samples)),
			zap.Int("need", rule.EvaluationDataPoints),
		)
		return nil
	}

	value := mean(samples)
	direction, target := decide(rule, service.Replicas, value, now)
	if direction == "" {
		evaluationsTotal.WithLabelValues(outcomeNoAction).Inc()
		return nil
	}
	if target == service.Replicas {
		// Already at the bound the action would clamp to.
		evaluationsTotal.WithLabelValues(outcomeNoAction).Inc()
		return nil
	}

	logger = logger.With(
		zap.Float64("value", value),
		zap.String("direction", string(direction)),
		zap.Int("from", service.Replicas),
		zap.Int("to", target),
	)

	// The stamp lands before the dispatch and is not rolled back on a
	// dispatch failure, trading responsiveness for cooldown safety: a
	// flapping agent must not cause a scale storm.
	err = e.rules.Update(ctx, rule.ID, func(r *Rule) error {
		r.LastScaleAction = &now
		r.LastScaleDirection = direction
		return nil
	})
	if err != nil {
		evaluationsTotal.WithLabelValues(outcomeError).Inc()
		return fmt.Errorf("failed to stamp rule: %w", err)
	}

	if service.ServerID == nil {
		evaluationsTotal.WithLabelValues(outcomeDispatchFailed).Inc()
		logger.Warn("service has no assigned server, scale skipped")
		return nil
	}

	cmd := agents.NewCommand(agents.CommandScale, agents.ScalePayload{
		ServiceID: service.ID,
		Replicas:  target,
	})
	if dispErr := e.dispatcher.SendCommand(ctx, *service.ServerID, cmd); dispErr != nil {
		evaluationsTotal.WithLabelValues(outcomeDispatchFailed).Inc()
		logger.Warn("scale command dispatch failed", zap.Error(dispErr))
		return nil
	}

	if setErr := e.servicesSvc.SetReplicas(ctx, service.ID, target); setErr != nil {
		evaluationsTotal.WithLabelValues(outcomeError).Inc()
		return fmt.Errorf("failed to update service replicas: %w", setErr)
	}

	if direction == DirectionUp {
		evaluationsTotal.WithLabelValues(outcomeScaledUp).Inc()
	} else {
		evaluationsTotal.WithLabelValues(outcomeScaledDown).Inc()
	}
	logger.Info("service scaled")

	return nil
}

// decide picks at most one scaling direction and the clamped target
// replica count. An empty direction means no action this cycle.
func decide(rule *Rule, replicas int, value float64, now time.Time) (Direction, int) {
	if value >= rule.ScaleUpThreshold && replicas < rule.MaxReplicas {
		if !cooldownElapsed(rule, rule.ScaleUpCooldown, now) {
			evaluationsTotal.WithLabelValues(outcomeCooldown).Inc()
			return "", 0
		}

		return DirectionUp, min(replicas+rule.ScaleUpBy, rule.MaxReplicas)
	}

	if value <= rule.ScaleDownThreshold && replicas > rule.MinReplicas {
		if !cooldownElapsed(rule, rule.ScaleDownCooldown, now) {
			evaluationsTotal.WithLabelValues(outcomeCooldown).Inc()
			return "", 0
		}

		return DirectionDown, max(replicas-rule.ScaleDownBy, rule.MinReplicas)
	}

	return "", 0
}

func cooldownElapsed(rule *Rule, cooldown time.Duration, now time.Time) bool {
	if rule.LastScaleAction == nil {
		return true
	}

	return now.Sub(*rule.LastScaleAction) >= cooldown
}

// mean is the window reducer for every metric type. Mean smooths
// transient spikes across the window; a per-metric reducer (max, p95)
// can replace it if a metric's semantics demand it.
func mean(samples []Sample) float64 {
	sum := lo.SumBy(samples, func(s Sample) float64 { return s.Value })

	return sum / float64(len(samples))
}

// Package autoscaling manages per-service scaling rules and evaluates
// them against recent metric samples.
package autoscaling

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/syntra/syntra/internal/policy"
	"github.com/syntra/syntra/internal/services"
	"go.uber.org/zap"
)

// Service manages the rule lifecycle. Evaluation lives in Evaluator.
type Service struct {
	rules *Repository

	servicesSvc *services.Manager
	policy      policy.Engine

	logger *zap.Logger
}

func NewService(
	rules *Repository,
	servicesSvc *services.Manager,
	policyEngine policy.Engine,
	logger *zap.Logger,
) *Service {
	return &Service{
		rules: rules,

		servicesSvc: servicesSvc,
		policy:      policyEngine,

		logger: logger,
	}
}

// Create validates and stores a new rule.
func (s *Service) Create(ctx context.Context, draft RuleDraft, actor uuid.UUID) (*Rule, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	service, err := s.servicesSvc.Get(ctx, draft.ServiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get service: %w", err)
	}

	if err := s.authorize(ctx, actor, service.ProjectID); err != nil {
		return nil, err
	}

	// Last-action stamps belong to the evaluator.
	draft.LastScaleAction = nil
	draft.LastScaleDirection = ""

	rule, err := s.rules.Create(ctx, &draft)
	if err != nil {
		s.logger.Error("failed to create rule", zap.Error(err))
		return nil, err
	}

	s.logger.Info("rule created",
		zap.String("id", rule.ID.String()),
		zap.String("service_id", rule.ServiceID.String()),
		zap.String("metric", rule.MetricName()),
	)

	return rule, nil
}

// Get retrieves a rule by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Rule, error) {
	rule, err := s.rules.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to get rule", zap.String("id", id.String()), zap.Error(err))
		return nil, err
	}

	return rule, nil
}

// ListByService retrieves the rules of a service, newest first.
func (s *Service) ListByService(ctx context.Context, serviceID uuid.UUID) ([]Rule, error) {
	rules, err := s.rules.ListByService(ctx, serviceID)
	if err != nil {
		s.logger.Error("failed to list rules", zap.Error(err))
		return nil, err
	}

	return rules, nil
}

// Update replaces a rule's configuration. The evaluator's last-action
// stamps are preserved so an edit does not reset the cooldown.
func (s *Service) Update(ctx context.Context, id uuid.UUID, draft RuleDraft, actor uuid.UUID) (*Rule, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.rules.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	service, err := s.servicesSvc.Get(ctx, existing.ServiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get service: %w", err)
	}

	if err := s.authorize(ctx, actor, service.ProjectID); err != nil {
		return nil, err
	}

	err = s.rules.Update(ctx, id, func(rule *Rule) error {
		lastAction := rule.LastScaleAction
		lastDirection := rule.LastScaleDirection

		rule.RuleDraft = draft
		rule.ServiceID = existing.ServiceID
		rule.LastScaleAction = lastAction
		rule.LastScaleDirection = lastDirection

		return nil
	})
	if err != nil {
		s.logger.Error("failed to update rule", zap.String("id", id.String()), zap.Error(err))
		return nil, err
	}

	s.logger.Info("rule updated", zap.String("id", id.String()))

	return s.rules.GetByID(ctx, id)
}

// Delete removes a rule.
func (s *Service) Delete(ctx context.Context, id uuid.UUID, actor uuid.UUID) error {
	rule, err := s.rules.GetByID(ctx, id)
	if err != nil {
		return err
	}

	service, err := s.servicesSvc.Get(ctx, rule.ServiceID)
	if err != nil {
		return fmt.Errorf("failed to get service: %w", err)
	}

	if err := s.authorize(ctx, actor, service.ProjectID); err != nil {
		return err
	}

	if err := s.rules.Delete(ctx, id); err != nil {
		s.logger.Error("failed to delete rule", zap.String("id", id.String()), zap.Error(err))
		return err
	}

	s.logger.Info("rule deleted", zap.String("id", id.String()))

	return nil
}

func (s *Service) authorize(ctx context.Context, actor uuid.UUID, projectID uuid.UUID) error {
	if !s.policy.HasPermission(ctx, actor, projectID, policy.PermissionAutoscalingManage) {
		return fmt.Errorf("%w: %s", ErrNotAllowed, policy.PermissionAutoscalingManage)
	}

	return nil
}

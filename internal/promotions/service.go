// Package promotions copies a successful deployment's artifact from one
// environment to another, either immediately or behind an approval gate.
package promotions

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/syntra/syntra/internal/deployments"
	"github.com/syntra/syntra/internal/environments"
	"github.com/syntra/syntra/internal/policy"
	"github.com/syntra/syntra/internal/queue"
	"github.com/syntra/syntra/internal/services"
	"go.uber.org/zap"
)

type Service struct {
	promotions *Repository

	environmentsSvc *environments.Service
	deploymentsSvc  *deployments.Service
	servicesSvc     *services.Manager
	jobs            queue.Queue
	policy          policy.Engine

	logger *zap.Logger
}

func NewService(
	promotions *Repository,
	environmentsSvc *environments.Service,
	deploymentsSvc *deployments.Service,
	servicesSvc *services.Manager,
	jobs queue.Queue,
	policyEngine policy.Engine,
	logger *zap.Logger,
) *Service {
	return &Service{
		promotions: promotions,

		environmentsSvc: environmentsSvc,
		deploymentsSvc:  deploymentsSvc,
		servicesSvc:     servicesSvc,
		jobs:            jobs,
		policy:          policyEngine,

		logger: logger,
	}
}

// Get retrieves a promotion by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Promotion, error) {
	promotion, err := s.promotions.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to get promotion", zap.String("id", id.String()), zap.Error(err))
		return nil, err
	}

	return promotion, nil
}

// ListByProject retrieves the promotions of a project, newest first.
func (s *Service) ListByProject(ctx context.Context, projectID uuid.UUID) ([]Promotion, error) {
	promotions, err := s.promotions.ListByProject(ctx, projectID)
	if err != nil {
		s.logger.Error("failed to list promotions", zap.Error(err))
		return nil, err
	}

	return promotions, nil
}

// Promote moves the source deployment's artifact into the target
// environment. Promotion takes what is live in one environment to
// another: the source deployment must currently be some environment's
// active deployment. With an approval gate the returned promotion is
// pending and no deployment exists yet; otherwise the returned promotion
// is deployed and references the new deployment in its metadata. All
// preconditions are validated before any write.
func (s *Service) Promote(
	ctx context.Context,
	targetEnvironmentID uuid.UUID,
	sourceDeploymentID uuid.UUID,
	actor uuid.UUID,
) (*Promotion, error) {
	logger := s.logger.With(
		zap.String("target_environment_id", targetEnvironmentID.String()),
		zap.String("source_deployment_id", sourceDeploymentID.String()),
		zap.String("actor", actor.String()),
	)
	logger.Info("promoting deployment")

	target, err := s.environmentsSvc.Get(ctx, targetEnvironmentID)
	if err != nil {
		return nil, err
	}

	source, err := s.deploymentsSvc.Get(ctx, sourceDeploymentID)
	if err != nil {
		return nil, err
	}

	if target.IsLocked {
		return nil, fmt.Errorf("%w: %s (%s)", environments.ErrLocked, target.Name, target.LockedReason)
	}

	service, err := s.servicesSvc.Get(ctx, source.ServiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get service: %w", err)
	}
	if service.ProjectID != target.ProjectID {
		return nil, fmt.Errorf("%w: deployment %s, environment %s", ErrProjectMismatch, source.ID, target.ID)
	}

	if source.Status != deployments.StatusRunning && source.Status != deployments.StatusStopped {
		return nil, fmt.Errorf("%w: status %q", ErrNotPromotable, source.Status)
	}

	if !s.policy.HasPermission(ctx, actor, target.ProjectID, policy.PermissionPromotionsCreate) {
		return nil, fmt.Errorf("%w: %s", ErrNotAllowed, policy.PermissionPromotionsCreate)
	}

	sourceEnv, err := s.resolveSourceEnvironment(ctx, target.ProjectID, source.ID)
	if err != nil {
		return nil, err
	}

	metadata := map[string]string{
		MetadataFromEnvironment: sourceEnv.Name,
		MetadataToEnvironment:   target.Name,
		MetadataServiceName:     service.Name,
		MetadataImageTag:        source.DockerImageTag,
	}

	if target.RequiresApproval {
		promotion, crtErr := s.promotions.Create(ctx, &PromotionDraft{
			ProjectID:         target.ProjectID,
			FromEnvironmentID: sourceEnv.ID,
			ToEnvironmentID:   target.ID,
			DeploymentID:      source.ID,
			Status:            StatusPending,
			RequestedBy:       actor,
			Metadata:          metadata,
		})
		if crtErr != nil {
			return nil, crtErr
		}

		logger.Info("promotion pending approval", zap.String("id", promotion.ID.String()))
		return promotion, nil
	}

	return s.execute(ctx, logger, target, sourceEnv, source, service, actor, metadata)
}

// execute materializes an ungated promotion: new deployment, active
// pointer, deployed promotion record.
func (s *Service) execute(
	ctx context.Context,
	logger *zap.Logger,
	target *environments.Environment,
	sourceEnv *environments.Environment,
	source *deployments.Deployment,
	service *services.Service,
	actor uuid.UUID,
	metadata map[string]string,
) (*Promotion, error) {
	deployment, err := s.deploymentsSvc.Create(ctx, deployments.DeploymentDraft{
		ServiceID:        source.ServiceID,
		ServerID:         service.ServerID,
		DockerImageTag:   source.DockerImageTag,
		GitCommitSHA:     source.GitCommitSHA,
		GitCommitMessage: source.GitCommitMessage,
		GitCommitAuthor:  source.GitCommitAuthor,
		GitBranch:        source.GitBranch,
		TriggerType:      deployments.TriggerPromotion,
		TriggeredBy:      &actor,
		Status:           deployments.StatusPending,
	})
	if err != nil {
		return nil, err
	}

	logger = logger.With(zap.String("deployment_id", deployment.ID.String()))

	if setErr := s.environmentsSvc.SetActiveDeployment(ctx, target.ID, deployment.ID); setErr != nil {
		return nil, setErr
	}

	metadata[MetadataNewDeploymentID] = deployment.ID.String()
	now := time.Now()
	promotion, err := s.promotions.Create(ctx, &PromotionDraft{
		ProjectID:         target.ProjectID,
		FromEnvironmentID: sourceEnv.ID,
		ToEnvironmentID:   target.ID,
		DeploymentID:      source.ID,
		Status:            StatusDeployed,
		RequestedBy:       actor,
		DeployedAt:        &now,
		Metadata:          metadata,
	})
	if err != nil {
		return nil, err
	}

	// Hand execution to the queue. Best-effort past this point: the
	// promotion record stands even if the enqueue fails and retries are
	// an operator action.
	if enqErr := s.jobs.Enqueue(ctx, queue.NewDeployJob(deployment.ID)); enqErr != nil {
		logger.Error("failed to enqueue promotion deployment", zap.Error(enqErr))
	} else if advErr := s.deploymentsSvc.Advance(ctx, deployment.ID, deployments.StatusDeploying); advErr != nil {
		logger.Warn("failed to advance promotion deployment to deploying", zap.Error(advErr))
	}

	logger.Info("promotion deployed", zap.String("id", promotion.ID.String()))
	return promotion, nil
}

// resolveSourceEnvironment finds the environment whose active deployment
// is the promotion source. A deployment not currently live anywhere
// cannot be promoted.
func (s *Service) resolveSourceEnvironment(
	ctx context.Context,
	projectID uuid.UUID,
	deploymentID uuid.UUID,
) (*environments.Environment, error) {
	envs, err := s.environmentsSvc.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	for i := range envs {
		env := &envs[i]
		if env.ActiveDeploymentID != nil && *env.ActiveDeploymentID == deploymentID {
			return env, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrNotActive, deploymentID)
}

// Approve passes the gate on a pending promotion and resumes the waiting
// workflow run through the job queue. Terminal: a promotion cannot be
// approved twice.
func (s *Service) Approve(ctx context.Context, id uuid.UUID, actor uuid.UUID) (*Promotion, error) {
	logger := s.logger.With(zap.String("id", id.String()), zap.String("actor", actor.String()))
	logger.Info("approving promotion")

	promotion, err := s.promotions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.policy.HasPermission(ctx, actor, promotion.ProjectID, policy.PermissionPromotionsReview) {
		return nil, fmt.Errorf("%w: %s", ErrNotAllowed, policy.PermissionPromotionsReview)
	}

	err = s.promotions.Update(ctx, id, func(p *Promotion) error {
		if p.Status != StatusPending {
			return fmt.Errorf("%w: status %q", ErrNotPending, p.Status)
		}

		now := time.Now()
		p.Status = StatusApproved
		p.ApprovedBy = &actor
		p.ApprovedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Resumption of the gated workflow run is a collaborator concern;
	// a failed enqueue is logged and the approval stands.
	if enqErr := s.jobs.Enqueue(ctx, queue.NewPromotionJob(id)); enqErr != nil {
		logger.Error("failed to enqueue approved promotion", zap.Error(enqErr))
	}

	logger.Info("promotion approved")
	return s.Get(ctx, id)
}

// Reject refuses a pending promotion. No deployment is ever created for a
// rejected promotion. Terminal.
func (s *Service) Reject(ctx context.Context, id uuid.UUID, actor uuid.UUID, reason string) (*Promotion, error) {
	logger := s.logger.With(zap.String("id", id.String()), zap.String("actor", actor.String()))
	logger.Info("rejecting promotion", zap.String("reason", reason))

	promotion, err := s.promotions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.policy.HasPermission(ctx, actor, promotion.ProjectID, policy.PermissionPromotionsReview) {
		return nil, fmt.Errorf("%w: %s", ErrNotAllowed, policy.PermissionPromotionsReview)
	}

	err = s.promotions.Update(ctx, id, func(p *Promotion) error {
		if p.Status != StatusPending {
			return fmt.Errorf("%w: status %q", ErrNotPending, p.Status)
		}

		now := time.Now()
		p.Status = StatusRejected
		p.RejectedBy = &actor
		p.RejectedAt = &now
		p.RejectedReason = reason
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("promotion rejected")
	return s.Get(ctx, id)
}

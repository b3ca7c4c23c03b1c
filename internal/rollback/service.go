// Package rollback selects eligible prior deployments and materializes new
// deployment records that re-deploy a previous artifact.
package rollback

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/syntra/syntra/internal/agents"
	"github.com/syntra/syntra/internal/deployments"
	"github.com/syntra/syntra/internal/policy"
	"github.com/syntra/syntra/internal/queue"
	"github.com/syntra/syntra/internal/services"
	"go.uber.org/zap"
)

// candidateLimit bounds how far back the candidate list reaches.
const candidateLimit = 10

// Candidates is the current deployment together with the prior deployments
// it may be rolled back to.
type Candidates struct {
	Current    *deployments.Deployment
	Candidates []deployments.Deployment
}

// Result describes the deployment created by a rollback.
type Result struct {
	Deployment     *deployments.Deployment
	TargetID       uuid.UUID
	RollbackFromID *uuid.UUID
}

type Service struct {
	deploymentsSvc *deployments.Service
	servicesSvc    *services.Manager
	registry       *agents.Registry
	jobs           queue.Queue
	policy         policy.Engine

	logger *zap.Logger
}

func NewService(
	deploymentsSvc *deployments.Service,
	servicesSvc *services.Manager,
	registry *agents.Registry,
	jobs queue.Queue,
	policyEngine policy.Engine,
	logger *zap.Logger,
) *Service {
	return &Service{
		deploymentsSvc: deploymentsSvc,
		servicesSvc:    servicesSvc,
		registry:       registry,
		jobs:           jobs,
		policy:         policyEngine,

		logger: logger,
	}
}

// Candidates lists the most recent deployments of the same service that a
// deployment could be rolled back to: never the deployment itself, never
// one without an artifact tag, never one that did not succeed at least
// once. Newest first.
func (s *Service) Candidates(ctx context.Context, deploymentID uuid.UUID) (*Candidates, error) {
	current, err := s.deploymentsSvc.Get(ctx, deploymentID)
	if err != nil {
		return nil, err
	}

	history, err := s.deploymentsSvc.ListByService(ctx, current.ServiceID, candidateLimit+1)
	if err != nil {
		return nil, err
	}

	candidates := lo.Filter(history, func(d deployments.Deployment, _ int) bool {
		return d.ID != current.ID && d.DockerImageTag != "" && d.Succeeded()
	})
	if len(candidates) > candidateLimit {
		candidates = candidates[:candidateLimit]
	}

	return &Candidates{Current: current, Candidates: candidates}, nil
}

// Rollback creates and enqueues a new deployment that re-deploys the
// target's artifact. All preconditions are checked before any write.
func (s *Service) Rollback(ctx context.Context, targetID uuid.UUID, actor uuid.UUID) (*Result, error) {
	logger := s.logger.With(
		zap.String("target_id", targetID.String()),
		zap.String("actor", actor.String()),
	)
	logger.Info("rolling back to deployment")

	target, err := s.deploymentsSvc.Get(ctx, targetID)
	if err != nil {
		if errors.Is(err, deployments.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidTarget, targetID)
		}
		return nil, err
	}

	service, err := s.servicesSvc.Get(ctx, target.ServiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get service: %w", err)
	}

	if !s.policy.HasPermission(ctx, actor, service.ProjectID, policy.PermissionDeploymentsRollback) {
		return nil, fmt.Errorf("%w: project not accessible", ErrInvalidTarget)
	}
	if !target.Succeeded() {
		return nil, fmt.Errorf("%w: deployment never succeeded", ErrInvalidTarget)
	}
	if target.DockerImageTag == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoImage, targetID)
	}
	if service.ServerID == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoServer, service.ID)
	}
	if !s.registry.IsConnected(*service.ServerID) {
		return nil, fmt.Errorf("%w: %s", ErrServerOffline, *service.ServerID)
	}

	// The deployment being replaced, if the service currently runs one.
	var rollbackFromID *uuid.UUID
	running, err := s.deploymentsSvc.GetLatestByService(
		ctx,
		service.ID,
		func(d *deployments.Deployment) bool { return d.Status == deployments.StatusRunning },
	)
	if err != nil && !errors.Is(err, deployments.ErrNotFound) {
		return nil, err
	}
	if running != nil {
		rollbackFromID = &running.ID
	}

	deployment, err := s.deploymentsSvc.Create(ctx, deployments.DeploymentDraft{
		ServiceID:        service.ID,
		ServerID:         service.ServerID,
		DockerImageTag:   target.DockerImageTag,
		GitCommitSHA:     target.GitCommitSHA,
		GitCommitMessage: fmt.Sprintf("Rollback to %s", target.ShortSHA()),
		GitCommitAuthor:  target.GitCommitAuthor,
		GitBranch:        target.GitBranch,
		TriggerType:      deployments.TriggerRollback,
		TriggeredBy:      &actor,
		RollbackFromID:   rollbackFromID,
		Status:           deployments.StatusPending,
	})
	if err != nil {
		return nil, err
	}

	logger = logger.With(zap.String("deployment_id", deployment.ID.String()))

	if enqErr := s.jobs.Enqueue(ctx, queue.NewDeployJob(deployment.ID)); enqErr != nil {
		logger.Error("failed to enqueue rollback deployment", zap.Error(enqErr))
		if failErr := s.deploymentsSvc.Advance(ctx, deployment.ID, deployments.StatusFailed); failErr != nil {
			logger.Error("failed to mark rollback deployment failed", zap.Error(failErr))
		}
		return nil, fmt.Errorf("failed to enqueue rollback deployment: %w", enqErr)
	}

	// Execution is now the queue's responsibility; reflect that in the
	// record. Best-effort: an advance failure leaves the record pending
	// but the job still runs.
	if advErr := s.deploymentsSvc.Advance(ctx, deployment.ID, deployments.StatusDeploying); advErr != nil {
		logger.Warn("failed to advance rollback deployment to deploying", zap.Error(advErr))
	}

	deployment, err = s.deploymentsSvc.Get(ctx, deployment.ID)
	if err != nil {
		return nil, err
	}

	logger.Info("rollback deployment enqueued", zap.String("image", deployment.DockerImageTag))
	return &Result{
		Deployment:     deployment,
		TargetID:       targetID,
		RollbackFromID: rollbackFromID,
	}, nil
}

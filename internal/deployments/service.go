package deployments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/syntra/syntra/internal/agents"
	"github.com/syntra/syntra/internal/policy"
	"github.com/syntra/syntra/internal/queue"
	"github.com/syntra/syntra/internal/services"
	"go.uber.org/zap"
)

// Service owns the canonical deployment lifecycle. Every status change
// goes through here; preconditions are re-checked inside the storage
// transaction so concurrent writers resolve deterministically.
type Service struct {
	deployments *Repository

	servicesSvc *services.Manager
	registry    *agents.Registry
	dispatcher  *agents.Dispatcher
	policy      policy.Engine
	jobs        queue.Queue

	logger *zap.Logger
}

func NewService(
	deployments *Repository,
	servicesSvc *services.Manager,
	registry *agents.Registry,
	dispatcher *agents.Dispatcher,
	policyEngine policy.Engine,
	jobs queue.Queue,
	logger *zap.Logger,
) *Service {
	return &Service{
		deployments: deployments,

		servicesSvc: servicesSvc,
		registry:    registry,
		dispatcher:  dispatcher,
		policy:      policyEngine,
		jobs:        jobs,

		logger: logger,
	}
}

// Create creates a new deployment record in pending.
func (s *Service) Create(ctx context.Context, draft DeploymentDraft) (*Deployment, error) {
	s.logger.Info("creating deployment", zap.String("service_id", draft.ServiceID.String()))

	if _, err := s.servicesSvc.Get(ctx, draft.ServiceID); err != nil {
		s.logger.Error("failed to get service", zap.Error(err))
		return nil, fmt.Errorf("failed to get service: %w", err)
	}

	// Rollback and promotion deployments re-deploy an existing artifact;
	// they must carry the tag copied from their source.
	if (draft.TriggerType == TriggerRollback || draft.TriggerType == TriggerPromotion) && draft.DockerImageTag == "" {
		return nil, fmt.Errorf("%w: %s deployment requires a docker image tag", ErrValidation, draft.TriggerType)
	}

	if draft.Status == "" {
		draft.Status = StatusPending
	}

	deployment, err := s.deployments.Create(ctx, &draft)
	if err != nil {
		s.logger.Error("failed to create deployment", zap.Error(err))
		return nil, err
	}

	// Rollback and promotion orchestrators hand their deployments to the
	// queue themselves; a directly triggered deployment is enqueued here.
	// Enqueue is best-effort: on failure the record stays pending and the
	// trigger can be retried.
	if deployment.Status == StatusPending &&
		(draft.TriggerType == TriggerManual || draft.TriggerType == TriggerAuto) {
		if err := s.jobs.Enqueue(ctx, queue.NewDeployJob(deployment.ID)); err != nil {
			s.logger.Warn("failed to enqueue deploy job",
				zap.String("id", deployment.ID.String()), zap.Error(err))
		}
	}

	s.logger.Info("deployment created", zap.String("id", deployment.ID.String()))
	return deployment, nil
}

// Get retrieves a deployment by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Deployment, error) {
	deployment, err := s.deployments.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to get deployment", zap.String("id", id.String()), zap.Error(err))
		return nil, err
	}

	return deployment, nil
}

// ListByService retrieves the deployments of a service, newest first.
func (s *Service) ListByService(ctx context.Context, serviceID uuid.UUID, limit int) ([]Deployment, error) {
	deployments, err := s.deployments.ListByService(ctx, serviceID, limit)
	if err != nil {
		s.logger.Error("failed to list deployments", zap.Error(err))
		return nil, err
	}

	return deployments, nil
}

// GetLatestByService retrieves the most recent deployment of a service
// matching the predicate.
func (s *Service) GetLatestByService(
	ctx context.Context,
	serviceID uuid.UUID,
	predicate func(*Deployment) bool,
) (*Deployment, error) {
	return s.deployments.GetLatestByService(ctx, serviceID, predicate)
}

// CancelResult reports the outcome of a cancellation.
type CancelResult struct {
	Deployment     *Deployment
	PreviousStatus Status
}

// Cancel cancels a deployment that has not yet reached a terminal state.
// The agent is notified first, best-effort: a failed notification is
// logged and the deployment is still marked cancelled. The agent's own
// reconciliation loop closes the gap when the stop command never arrived.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, actor uuid.UUID) (*CancelResult, error) {
	logger := s.logger.With(zap.String("id", id.String()), zap.String("actor", actor.String()))
	logger.Info("cancelling deployment")

	deployment, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !deployment.Status.Cancellable() {
		return nil, fmt.Errorf("%w: cannot cancel deployment in status %q", ErrInvalidState, deployment.Status)
	}

	if err := s.authorize(ctx, actor, deployment.ServiceID, policy.PermissionDeploymentsCancel); err != nil {
		return nil, err
	}

	s.notifyCancel(ctx, logger, deployment)

	previous := deployment.Status
	err = s.deployments.Update(ctx, id, func(d *Deployment) error {
		if !d.Status.Cancellable() {
			return fmt.Errorf("%w: cannot cancel deployment in status %q", ErrInvalidState, d.Status)
		}
		previous = d.Status
		d.Status = StatusCancelled
		return nil
	})
	if err != nil {
		logger.Error("failed to cancel deployment", zap.Error(err))
		return nil, err
	}

	deployment, err = s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	logger.Info("deployment cancelled", zap.String("previous_status", string(previous)))
	return &CancelResult{Deployment: deployment, PreviousStatus: previous}, nil
}

// notifyCancel tells the agent to abandon work on the deployment. Fails
// soft by design: cancellation is a state transition, not an execution
// interrupt.
func (s *Service) notifyCancel(ctx context.Context, logger *zap.Logger, deployment *Deployment) {
	if deployment.ServerID == nil {
		logger.Debug("no server assigned, skipping cancel notification")
		return
	}
	if !s.registry.IsConnected(*deployment.ServerID) {
		logger.Debug("agent not connected, skipping cancel notification")
		return
	}

	// A deploying artifact may already have a process to stop; earlier
	// phases only need the pipeline abandoned.
	var cmd agents.Command
	if deployment.Status == StatusDeploying {
		cmd = agents.NewCommand(agents.CommandStop, agents.StopPayload{DeploymentID: deployment.ID})
	} else {
		cmd = agents.NewCommand(agents.CommandCancelDeploy, agents.CancelDeployPayload{DeploymentID: deployment.ID})
	}

	if err := s.dispatcher.SendCommand(ctx, *deployment.ServerID, cmd); err != nil {
		logger.Warn("cancel notification failed, proceeding with cancellation", zap.Error(err))
	}
}

// Stop stops a running deployment by instructing the agent to stop its
// container.
func (s *Service) Stop(ctx context.Context, id uuid.UUID, actor uuid.UUID) (*Deployment, error) {
	logger := s.logger.With(zap.String("id", id.String()), zap.String("actor", actor.String()))
	logger.Info("stopping deployment")

	deployment, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if deployment.Status != StatusRunning {
		return nil, fmt.Errorf("%w: cannot stop deployment in status %q", ErrInvalidState, deployment.Status)
	}
	if deployment.ContainerID == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoContainer, id)
	}

	if err := s.authorize(ctx, actor, deployment.ServiceID, policy.PermissionDeploymentsStop); err != nil {
		return nil, err
	}

	if deployment.ServerID != nil && s.registry.IsConnected(*deployment.ServerID) {
		cmd := agents.NewCommand(agents.CommandStopContainer, agents.StopContainerPayload{
			ContainerID:  deployment.ContainerID,
			DeploymentID: deployment.ID,
		})
		if sendErr := s.dispatcher.SendCommand(ctx, *deployment.ServerID, cmd); sendErr != nil {
			logger.Warn("stop notification failed, proceeding with stop", zap.Error(sendErr))
		}
	} else {
		logger.Debug("agent not reachable, skipping stop notification")
	}

	err = s.deployments.Update(ctx, id, func(d *Deployment) error {
		if d.Status != StatusRunning {
			return fmt.Errorf("%w: cannot stop deployment in status %q", ErrInvalidState, d.Status)
		}
		d.Status = StatusStopped
		return nil
	})
	if err != nil {
		logger.Error("failed to stop deployment", zap.Error(err))
		return nil, err
	}

	logger.Info("deployment stopped")
	return s.Get(ctx, id)
}

// Advance moves a deployment along the lifecycle graph, stamping phase
// timestamps. The transition is validated against the current record
// inside the write transaction.
func (s *Service) Advance(ctx context.Context, id uuid.UUID, next Status) error {
	err := s.deployments.Update(ctx, id, func(d *Deployment) error {
		if !d.Status.CanTransition(next) {
			return fmt.Errorf("%w: cannot move from %q to %q", ErrInvalidState, d.Status, next)
		}

		now := time.Now()
		switch next {
		case StatusBuilding:
			d.BuildStartedAt = &now
		case StatusDeploying:
			if d.BuildStartedAt != nil && d.BuildFinishedAt == nil {
				d.BuildFinishedAt = &now
			}
			d.DeployStartedAt = &now
		case StatusRunning:
			d.DeployFinishedAt = &now
		}

		d.Status = next
		return nil
	})
	if err != nil {
		s.logger.Error("failed to advance deployment",
			zap.String("id", id.String()),
			zap.String("next", string(next)),
			zap.Error(err),
		)
		return err
	}

	s.logger.Info("deployment advanced",
		zap.String("id", id.String()),
		zap.String("status", string(next)),
	)
	return nil
}

// TaskCompleted applies a deploy task result reported by an agent. A late
// result for a deployment that was cancelled in the meantime is dropped:
// the record keeps its terminal status and the agent reconciles on its
// own.
func (s *Service) TaskCompleted(ctx context.Context, deploymentID uuid.UUID, result agents.TaskResult) error {
	logger := s.logger.With(zap.String("id", deploymentID.String()))

	next := StatusRunning
	if !result.Success {
		next = StatusFailed
	}

	err := s.deployments.Update(ctx, deploymentID, func(d *Deployment) error {
		if !d.Status.CanTransition(next) {
			return fmt.Errorf("%w: cannot move from %q to %q", ErrInvalidState, d.Status, next)
		}

		if result.ContainerID != "" {
			d.ContainerID = result.ContainerID
		}
		if next == StatusRunning {
			now := time.Now()
			d.DeployFinishedAt = &now
		}
		d.Status = next
		return nil
	})
	if errors.Is(err, ErrInvalidState) {
		logger.Info("dropping stale task result", zap.Bool("success", result.Success), zap.Error(err))
		return nil
	}
	if err != nil {
		return err
	}

	if !result.Success && result.Error != "" {
		logger.Warn("deployment failed on agent", zap.String("agent_error", result.Error))
	} else {
		logger.Info("deployment running")
	}

	return nil
}

// ContainerStatusChanged applies a container phase report from an agent.
func (s *Service) ContainerStatusChanged(ctx context.Context, deploymentID uuid.UUID, containerID, status string) error {
	var next Status
	switch status {
	case "building":
		next = StatusBuilding
	case "deploying", "starting":
		next = StatusDeploying
	case "running":
		next = StatusRunning
	case "exited", "stopped":
		next = StatusStopped
	default:
		s.logger.Debug("ignoring container status",
			zap.String("id", deploymentID.String()),
			zap.String("status", status),
		)
		return nil
	}

	err := s.deployments.Update(ctx, deploymentID, func(d *Deployment) error {
		if !d.Status.CanTransition(next) {
			return fmt.Errorf("%w: cannot move from %q to %q", ErrInvalidState, d.Status, next)
		}

		if containerID != "" {
			d.ContainerID = containerID
		}

		now := time.Now()
		switch next {
		case StatusBuilding:
			d.BuildStartedAt = &now
		case StatusDeploying:
			if d.BuildStartedAt != nil && d.BuildFinishedAt == nil {
				d.BuildFinishedAt = &now
			}
			d.DeployStartedAt = &now
		case StatusRunning:
			d.DeployFinishedAt = &now
		}

		d.Status = next
		return nil
	})
	if errors.Is(err, ErrInvalidState) {
		s.logger.Info("dropping stale container status",
			zap.String("id", deploymentID.String()),
			zap.String("status", status),
		)
		return nil
	}

	return err
}

func (s *Service) authorize(ctx context.Context, actor uuid.UUID, serviceID uuid.UUID, permission string) error {
	service, err := s.servicesSvc.Get(ctx, serviceID)
	if err != nil {
		return fmt.Errorf("failed to get service: %w", err)
	}

	if !s.policy.HasPermission(ctx, actor, service.ProjectID, permission) {
		return fmt.Errorf("%w: %s", ErrNotAllowed, permission)
	}

	return nil
}

var _ agents.DeploymentReporter = (*Service)(nil)

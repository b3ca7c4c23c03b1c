package environments

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service struct {
	environments *Repository

	logger *zap.Logger
}

func NewService(environments *Repository, logger *zap.Logger) *Service {
	return &Service{
		environments: environments,
		logger:       logger,
	}
}

// Create registers a new environment. Project setup drives this.
func (s *Service) Create(ctx context.Context, draft EnvironmentDraft) (*Environment, error) {
	s.logger.Info("creating environment",
		zap.String("project_id", draft.ProjectID.String()),
		zap.String("name", draft.Name),
	)

	environment, err := s.environments.Create(ctx, &draft)
	if err != nil {
		s.logger.Error("failed to create environment", zap.Error(err))
		return nil, err
	}

	s.logger.Info("environment created", zap.String("id", environment.ID.String()))
	return environment, nil
}

// Get retrieves an environment by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Environment, error) {
	environment, err := s.environments.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to get environment", zap.String("id", id.String()), zap.Error(err))
		return nil, err
	}

	return environment, nil
}

// ListByProject retrieves the environments of a project.
func (s *Service) ListByProject(ctx context.Context, projectID uuid.UUID) ([]Environment, error) {
	environments, err := s.environments.ListByProject(ctx, projectID)
	if err != nil {
		s.logger.Error("failed to list environments", zap.Error(err))
		return nil, err
	}

	return environments, nil
}

// SetActiveDeployment points the environment at the deployment now live in
// it. Only the promotion workflow calls this.
func (s *Service) SetActiveDeployment(ctx context.Context, id uuid.UUID, deploymentID uuid.UUID) error {
	err := s.environments.Update(ctx, id, func(environment *Environment) error {
		environment.ActiveDeploymentID = &deploymentID
		return nil
	})
	if err != nil {
		s.logger.Error("failed to set active deployment",
			zap.String("id", id.String()),
			zap.String("deployment_id", deploymentID.String()),
			zap.Error(err),
		)
		return err
	}

	s.logger.Info("environment active deployment updated",
		zap.String("id", id.String()),
		zap.String("deployment_id", deploymentID.String()),
	)
	return nil
}

// Lock prevents promotions into the environment until unlocked.
func (s *Service) Lock(ctx context.Context, id uuid.UUID, reason string) error {
	err := s.environments.Update(ctx, id, func(environment *Environment) error {
		environment.IsLocked = true
		environment.LockedReason = reason
		return nil
	})
	if err != nil {
		s.logger.Error("failed to lock environment", zap.String("id", id.String()), zap.Error(err))
		return err
	}

	s.logger.Info("environment locked", zap.String("id", id.String()), zap.String("reason", reason))
	return nil
}

// Unlock lifts the promotion lock.
func (s *Service) Unlock(ctx context.Context, id uuid.UUID) error {
	err := s.environments.Update(ctx, id, func(environment *Environment) error {
		environment.IsLocked = false
		environment.LockedReason = ""
		return nil
	})
	if err != nil {
		s.logger.Error("failed to unlock environment", zap.String("id", id.String()), zap.Error(err))
		return err
	}

	s.logger.Info("environment unlocked", zap.String("id", id.String()))
	return nil
}

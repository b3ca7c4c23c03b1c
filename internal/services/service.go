package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	MinReplicas = 1
	MaxReplicas = 100
)

type Manager struct {
	services *Repository

	logger *zap.Logger
}

func NewManager(services *Repository, logger *zap.Logger) *Manager {
	return &Manager{
		services: services,
		logger:   logger,
	}
}

// Create registers a new service record.
func (s *Manager) Create(ctx context.Context, draft ServiceDraft) (*Service, error) {
	s.logger.Info("creating service",
		zap.String("project_id", draft.ProjectID.String()),
		zap.String("name", draft.Name),
	)

	if draft.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if draft.Replicas < MinReplicas || draft.Replicas > MaxReplicas {
		return nil, fmt.Errorf("%w: replicas must be within [%d, %d]", ErrValidation, MinReplicas, MaxReplicas)
	}

	service, err := s.services.Create(ctx, &draft)
	if err != nil {
		s.logger.Error("failed to create service", zap.Error(err))
		return nil, err
	}

	s.logger.Info("service created", zap.String("id", service.ID.String()))
	return service, nil
}

// Get retrieves a service by ID.
func (s *Manager) Get(ctx context.Context, id uuid.UUID) (*Service, error) {
	service, err := s.services.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to get service", zap.String("id", id.String()), zap.Error(err))
		return nil, err
	}

	return service, nil
}

// List retrieves all services.
func (s *Manager) List(ctx context.Context) ([]Service, error) {
	services, err := s.services.List(ctx)
	if err != nil {
		s.logger.Error("failed to list services", zap.Error(err))
		return nil, err
	}

	return services, nil
}

// ListByProject retrieves the services of a project.
func (s *Manager) ListByProject(ctx context.Context, projectID uuid.UUID) ([]Service, error) {
	services, err := s.services.ListByProject(ctx, projectID)
	if err != nil {
		s.logger.Error("failed to list services", zap.Error(err))
		return nil, err
	}

	return services, nil
}

// SetReplicas updates the current replica count, bounded by the platform
// limits.
func (s *Manager) SetReplicas(ctx context.Context, id uuid.UUID, replicas int) error {
	if replicas < MinReplicas || replicas > MaxReplicas {
		return fmt.Errorf("%w: replicas must be within [%d, %d]", ErrValidation, MinReplicas, MaxReplicas)
	}

	err := s.services.Update(ctx, id, func(service *Service) error {
		service.Replicas = replicas
		return nil
	})
	if err != nil {
		s.logger.Error("failed to set replicas", zap.String("id", id.String()), zap.Error(err))
		return err
	}

	s.logger.Info("service replicas updated",
		zap.String("id", id.String()),
		zap.Int("replicas", replicas),
	)
	return nil
}

// SetImage records the artifact currently deployed for the service.
func (s *Manager) SetImage(ctx context.Context, id uuid.UUID, image string) error {
	err := s.services.Update(ctx, id, func(service *Service) error {
		service.Image = image
		return nil
	})
	if err != nil {
		s.logger.Error("failed to set image", zap.String("id", id.String()), zap.Error(err))
		return err
	}

	return nil
}

// AssignServer places the service on a server.
func (s *Manager) AssignServer(ctx context.Context, id uuid.UUID, serverID uuid.UUID) error {
	err := s.services.Update(ctx, id, func(service *Service) error {
		service.ServerID = &serverID
		return nil
	})
	if err != nil {
		s.logger.Error("failed to assign server", zap.String("id", id.String()), zap.Error(err))
		return err
	}

	s.logger.Info("service assigned to server",
		zap.String("id", id.String()),
		zap.String("server_id", serverID.String()),
	)
	return nil
}

package services

import (
	"time"

	"github.com/google/uuid"
	"github.com/syntra/syntra/internal/storage"
)

// serviceModel represents a deployable service within a project.
type serviceModel struct {
	storage.BaseEntity

	// References
	ProjectID uuid.UUID  `json:"project_id"`
	ServerID  *uuid.UUID `json:"server_id"`

	// Basic Information
	Name string `json:"name"`

	// Runtime State
	Image    string `json:"image"`
	Replicas int    `json:"replicas"`
}

func newServiceModel(draft *ServiceDraft) *serviceModel {
	if draft == nil {
		return nil
	}

	return &serviceModel{
		BaseEntity: storage.NewBaseEntity(),
		ProjectID:  draft.ProjectID,
		ServerID:   draft.ServerID,
		Name:       draft.Name,
		Image:      draft.Image,
		Replicas:   draft.Replicas,
	}
}

func newServiceUpdateModel(source *serviceModel, draft *ServiceDraft) *serviceModel {
	updated := newServiceModel(draft)
	updated.ID = source.ID
	updated.CreatedAt = source.CreatedAt
	updated.UpdatedAt = time.Now()

	return updated
}

func newService(model *serviceModel) *Service {
	if model == nil {
		return nil
	}

	return &Service{
		ServiceDraft: ServiceDraft{
			ProjectID: model.ProjectID,
			ServerID:  model.ServerID,
			Name:      model.Name,
			Image:     model.Image,
			Replicas:  model.Replicas,
		},
		ID:        model.ID,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

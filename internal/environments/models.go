package environments

import (
	"time"

	"github.com/google/uuid"
	"github.com/syntra/syntra/internal/storage"
)

// environmentModel represents a named deployment target within a project.
type environmentModel struct {
	storage.BaseEntity

	// References
	ProjectID uuid.UUID `json:"project_id"`

	// Basic Information
	Name string `json:"name"`

	// State
	ActiveDeploymentID *uuid.UUID `json:"active_deployment_id"`
	IsLocked           bool       `json:"is_locked"`
	LockedReason       string     `json:"locked_reason"`
	RequiresApproval   bool       `json:"requires_approval"`
}

func newEnvironmentModel(draft *EnvironmentDraft) *environmentModel {
	if draft == nil {
		return nil
	}

	return &environmentModel{
		BaseEntity:         storage.NewBaseEntity(),
		ProjectID:          draft.ProjectID,
		Name:               draft.Name,
		ActiveDeploymentID: draft.ActiveDeploymentID,
		IsLocked:           draft.IsLocked,
		LockedReason:       draft.LockedReason,
		RequiresApproval:   draft.RequiresApproval,
	}
}

func newEnvironmentUpdateModel(source *environmentModel, draft *EnvironmentDraft) *environmentModel {
	updated := newEnvironmentModel(draft)
	updated.ID = source.ID
	updated.CreatedAt = source.CreatedAt
	updated.UpdatedAt = time.Now()

	return updated
}

func newEnvironment(model *environmentModel) *Environment {
	if model == nil {
		return nil
	}

	return &Environment{
		EnvironmentDraft: EnvironmentDraft{
			ProjectID:          model.ProjectID,
			Name:               model.Name,
			ActiveDeploymentID: model.ActiveDeploymentID,
			IsLocked:           model.IsLocked,
			LockedReason:       model.LockedReason,
			RequiresApproval:   model.RequiresApproval,
		},
		ID:        model.ID,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

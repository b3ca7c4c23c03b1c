package promotions

import (
	"time"

	"github.com/google/uuid"
	"github.com/syntra/syntra/internal/storage"
)

// promotionModel records a request to move a deployment's artifact between
// environments.
type promotionModel struct {
	storage.BaseEntity

	// References
	ProjectID         uuid.UUID `json:"project_id"`
	FromEnvironmentID uuid.UUID `json:"from_environment_id"`
	ToEnvironmentID   uuid.UUID `json:"to_environment_id"`
	DeploymentID      uuid.UUID `json:"deployment_id"`

	// Status
	Status Status `json:"status"`

	// Actors
	RequestedBy uuid.UUID  `json:"requested_by"`
	ApprovedBy  *uuid.UUID `json:"approved_by"`
	RejectedBy  *uuid.UUID `json:"rejected_by"`

	// Timestamps
	ApprovedAt *time.Time `json:"approved_at"`
	RejectedAt *time.Time `json:"rejected_at"`
	DeployedAt *time.Time `json:"deployed_at"`

	RejectedReason string `json:"rejected_reason"`

	Metadata map[string]string `json:"metadata"`
}

func newPromotionModel(draft *PromotionDraft) *promotionModel {
	if draft == nil {
		return nil
	}

	return &promotionModel{
		BaseEntity:        storage.NewBaseEntity(),
		ProjectID:         draft.ProjectID,
		FromEnvironmentID: draft.FromEnvironmentID,
		ToEnvironmentID:   draft.ToEnvironmentID,
		DeploymentID:      draft.DeploymentID,
		Status:            draft.Status,
		RequestedBy:       draft.RequestedBy,
		ApprovedBy:        draft.ApprovedBy,
		RejectedBy:        draft.RejectedBy,
		ApprovedAt:        draft.ApprovedAt,
		RejectedAt:        draft.RejectedAt,
		DeployedAt:        draft.DeployedAt,
		RejectedReason:    draft.RejectedReason,
		Metadata:          draft.Metadata,
	}
}

func newPromotionUpdateModel(source *promotionModel, draft *PromotionDraft) *promotionModel {
	updated := newPromotionModel(draft)
	updated.ID = source.ID
	updated.CreatedAt = source.CreatedAt
	updated.UpdatedAt = time.Now()

	return updated
}

func newPromotion(model *promotionModel) *Promotion {
	if model == nil {
		return nil
	}

	return &Promotion{
		PromotionDraft: PromotionDraft{
			ProjectID:         model.ProjectID,
			FromEnvironmentID: model.FromEnvironmentID,
			ToEnvironmentID:   model.ToEnvironmentID,
			DeploymentID:      model.DeploymentID,
			Status:            model.Status,
			RequestedBy:       model.RequestedBy,
			ApprovedBy:        model.ApprovedBy,
			RejectedBy:        model.RejectedBy,
			ApprovedAt:        model.ApprovedAt,
			RejectedAt:        model.RejectedAt,
			DeployedAt:        model.DeployedAt,
			RejectedReason:    model.RejectedReason,
			Metadata:          model.Metadata,
		},
		ID:        model.ID,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

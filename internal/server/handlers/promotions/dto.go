package promotions

import (
	"time"

	"github.com/google/uuid"
)

// PromoteRequest represents the request payload for promoting a deployment.
type PromoteRequest struct {
	TargetEnvironmentID uuid.UUID `json:"target_environment_id" validate:"required"`
	SourceDeploymentID  uuid.UUID `json:"source_deployment_id"  validate:"required"`
}

// RejectRequest represents the request payload for rejecting a promotion.
type RejectRequest struct {
	Reason string `json:"reason" validate:"required,min=1,max=500"`
}

// PromotionResponse represents the response payload for a promotion.
type PromotionResponse struct {
	ID                uuid.UUID         `json:"id"`
	ProjectID         uuid.UUID         `json:"project_id"`
	FromEnvironmentID uuid.UUID         `json:"from_environment_id"`
	ToEnvironmentID   uuid.UUID         `json:"to_environment_id"`
	DeploymentID      uuid.UUID         `json:"deployment_id"`
	Status            string            `json:"status"`
	RequestedBy       uuid.UUID         `json:"requested_by"`
	ApprovedBy        *uuid.UUID        `json:"approved_by,omitempty"`
	RejectedBy        *uuid.UUID        `json:"rejected_by,omitempty"`
	ApprovedAt        *time.Time        `json:"approved_at,omitempty"`
	RejectedAt        *time.Time        `json:"rejected_at,omitempty"`
	DeployedAt        *time.Time        `json:"deployed_at,omitempty"`
	RejectedReason    string            `json:"rejected_reason,omitempty"`
	NewDeploymentID   string            `json:"new_deployment_id,omitempty"`
	Metadata          map[string]string `json:"metadata,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

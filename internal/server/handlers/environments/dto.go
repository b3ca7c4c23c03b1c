package environments

import (
	"time"

	"github.com/google/uuid"
)

// LockRequest represents the request payload for locking an environment.
type LockRequest struct {
	Reason string `json:"reason" validate:"required,min=1,max=500"`
}

// EnvironmentResponse represents the response payload for an environment.
type EnvironmentResponse struct {
	ID                 uuid.UUID  `json:"id"`
	ProjectID          uuid.UUID  `json:"project_id"`
	Name               string     `json:"name"`
	ActiveDeploymentID *uuid.UUID `json:"active_deployment_id,omitempty"`
	IsLocked           bool       `json:"is_locked"`
	LockedReason       string     `json:"locked_reason,omitempty"`
	RequiresApproval   bool       `json:"requires_approval"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

package environments

import (
	"time"

	"github.com/google/uuid"
)

type EnvironmentDraft struct {
	// References
	ProjectID uuid.UUID

	// Basic Information
	Name string

	// State
	ActiveDeploymentID *uuid.UUID // Deployment currently live in this environment
	IsLocked           bool
	LockedReason       string
	RequiresApproval   bool // Promotions into this environment need a human gate
}

type Environment struct {
	EnvironmentDraft

	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

package promotions

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending  Status = "pending"  // Waiting for an approval decision
	StatusApproved Status = "approved" // Gate passed, execution resumes async
	StatusRejected Status = "rejected" // Gate refused, no deployment created
	StatusDeployed Status = "deployed" // Artifact copied into the target environment
)

// Metadata keys denormalized onto promotion records for audit display.
const (
	MetadataFromEnvironment = "from_environment_name"
	MetadataToEnvironment   = "to_environment_name"
	MetadataServiceName     = "service_name"
	MetadataImageTag        = "docker_image_tag"
	MetadataNewDeploymentID = "new_deployment_id"
)

type PromotionDraft struct {
	// References
	ProjectID         uuid.UUID
	FromEnvironmentID uuid.UUID
	ToEnvironmentID   uuid.UUID
	DeploymentID      uuid.UUID // Source deployment being promoted

	// Status
	Status Status

	// Actors
	RequestedBy uuid.UUID
	ApprovedBy  *uuid.UUID
	RejectedBy  *uuid.UUID

	// Timestamps
	ApprovedAt *time.Time
	RejectedAt *time.Time
	DeployedAt *time.Time

	RejectedReason string

	// Denormalized names for audit display
	Metadata map[string]string
}

type Promotion struct {
	PromotionDraft

	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

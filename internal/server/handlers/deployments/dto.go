package deployments

import (
	"time"

	"github.com/google/uuid"
)

// CreateRequest represents the request payload for creating a deployment.
type CreateRequest struct {
	ServiceID        uuid.UUID `json:"service_id"         validate:"required"`
	DockerImageTag   string    `json:"docker_image_tag"   validate:"required,min=1,max=200"`
	GitCommitSHA     string    `json:"git_commit_sha"     validate:"omitempty,max=64"`
	GitCommitMessage string    `json:"git_commit_message" validate:"max=500"`
	GitCommitAuthor  string    `json:"git_commit_author"  validate:"max=200"`
	GitBranch        string    `json:"git_branch"         validate:"max=200"`
}

// DeploymentResponse represents the response payload for a deployment.
type DeploymentResponse struct {
	ID               uuid.UUID  `json:"id"`
	ServiceID        uuid.UUID  `json:"service_id"`
	ServerID         *uuid.UUID `json:"server_id,omitempty"`
	Status           string     `json:"status"`
	DockerImageTag   string     `json:"docker_image_tag"`
	ContainerID      string     `json:"container_id,omitempty"`
	GitCommitSHA     string     `json:"git_commit_sha,omitempty"`
	GitCommitMessage string     `json:"git_commit_message,omitempty"`
	GitCommitAuthor  string     `json:"git_commit_author,omitempty"`
	GitBranch        string     `json:"git_branch,omitempty"`
	TriggerType      string     `json:"trigger_type"`
	TriggeredBy      *uuid.UUID `json:"triggered_by,omitempty"`
	RollbackFromID   *uuid.UUID `json:"rollback_from_id,omitempty"`
	BuildStartedAt   *time.Time `json:"build_started_at,omitempty"`
	BuildFinishedAt  *time.Time `json:"build_finished_at,omitempty"`
	DeployStartedAt  *time.Time `json:"deploy_started_at,omitempty"`
	DeployFinishedAt *time.Time `json:"deploy_finished_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// CancelResponse reports a completed cancellation.
type CancelResponse struct {
	ID             uuid.UUID `json:"id"`
	Status         string    `json:"status"`
	PreviousStatus string    `json:"previous_status"`
}

// RollbackResponse reports the deployment created by a rollback.
type RollbackResponse struct {
	ID               uuid.UUID  `json:"id"`
	Status           string     `json:"status"`
	RollbackFromID   *uuid.UUID `json:"rollback_from_id,omitempty"`
	RollbackTargetID uuid.UUID  `json:"rollback_target_id"`
	DockerImageTag   string     `json:"docker_image_tag"`
}

// CandidatesResponse lists the deployments a deployment may roll back to.
type CandidatesResponse struct {
	CurrentDeployment  DeploymentResponse   `json:"current_deployment"`
	RollbackCandidates []DeploymentResponse `json:"rollback_candidates"`
}

package deployments

import (
	"time"

	"github.com/google/uuid"
	"github.com/syntra/syntra/internal/storage"
)

// deploymentModel represents one attempt to run an artifact on a server.
type deploymentModel struct {
	storage.BaseEntity

	// References
	ServiceID uuid.UUID  `json:"service_id"`
	ServerID  *uuid.UUID `json:"server_id"`

	// Artifact
	DockerImageTag string `json:"docker_image_tag"`
	ContainerID    string `json:"container_id"`

	// Commit Metadata
	GitCommitSHA     string `json:"git_commit_sha"`
	GitCommitMessage string `json:"git_commit_message"`
	GitCommitAuthor  string `json:"git_commit_author"`
	GitBranch        string `json:"git_branch"`

	// Trigger
	TriggerType    TriggerType `json:"trigger_type"`
	TriggeredBy    *uuid.UUID  `json:"triggered_by"`
	RollbackFromID *uuid.UUID  `json:"rollback_from_id"`

	// Status
	Status Status `json:"status"`

	// Timestamps
	BuildStartedAt   *time.Time `json:"build_started_at"`
	BuildFinishedAt  *time.Time `json:"build_finished_at"`
	DeployStartedAt  *time.Time `json:"deploy_started_at"`
	DeployFinishedAt *time.Time `json:"deploy_finished_at"`
}

func newDeploymentModel(draft *DeploymentDraft) *deploymentModel {
	if draft == nil {
		return nil
	}

	return &deploymentModel{
		BaseEntity:       storage.NewBaseEntity(),
		ServiceID:        draft.ServiceID,
		ServerID:         draft.ServerID,
		DockerImageTag:   draft.DockerImageTag,
		ContainerID:      draft.ContainerID,
		GitCommitSHA:     draft.GitCommitSHA,
		GitCommitMessage: draft.GitCommitMessage,
		GitCommitAuthor:  draft.GitCommitAuthor,
		GitBranch:        draft.GitBranch,
		TriggerType:      draft.TriggerType,
		TriggeredBy:      draft.TriggeredBy,
		RollbackFromID:   draft.RollbackFromID,
		Status:           draft.Status,
		BuildStartedAt:   draft.BuildStartedAt,
		BuildFinishedAt:  draft.BuildFinishedAt,
		DeployStartedAt:  draft.DeployStartedAt,
		DeployFinishedAt: draft.DeployFinishedAt,
	}
}

func newDeploymentUpdateModel(source *deploymentModel, draft *DeploymentDraft) *deploymentModel {
	updated := newDeploymentModel(draft)
	updated.ID = source.ID
	updated.CreatedAt = source.CreatedAt
	updated.UpdatedAt = time.Now()

	return updated
}

func newDeployment(model *deploymentModel) *Deployment {
	if model == nil {
		return nil
	}

	return &Deployment{
		DeploymentDraft: DeploymentDraft{
			ServiceID:        model.ServiceID,
			ServerID:         model.ServerID,
			DockerImageTag:   model.DockerImageTag,
			ContainerID:      model.ContainerID,
			GitCommitSHA:     model.GitCommitSHA,
			GitCommitMessage: model.GitCommitMessage,
			GitCommitAuthor:  model.GitCommitAuthor,
			GitBranch:        model.GitBranch,
			TriggerType:      model.TriggerType,
			TriggeredBy:      model.TriggeredBy,
			RollbackFromID:   model.RollbackFromID,
			Status:           model.Status,
			BuildStartedAt:   model.BuildStartedAt,
			BuildFinishedAt:  model.BuildFinishedAt,
			DeployStartedAt:  model.DeployStartedAt,
			DeployFinishedAt: model.DeployFinishedAt,
		},
		ID:        model.ID,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

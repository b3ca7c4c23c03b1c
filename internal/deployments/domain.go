package deployments

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending   Status = "pending"   // Created, not yet picked up
	StatusBuilding  Status = "building"  // Artifact build in progress
	StatusDeploying Status = "deploying" // Artifact handed to the agent
	StatusRunning   Status = "running"   // Live on the assigned server
	StatusFailed    Status = "failed"    // Build or deploy failed
	StatusCancelled Status = "cancelled" // Cancelled before reaching running
	StatusStopped   Status = "stopped"   // Stopped after running
)

// transitions is the lifecycle graph. Status changes are monotonic: once a
// terminal status is reached the record never moves again; a service runs
// again only through a new deployment record.
var transitions = map[Status][]Status{
	StatusPending:   {StatusBuilding, StatusDeploying, StatusCancelled, StatusFailed},
	StatusBuilding:  {StatusDeploying, StatusCancelled, StatusFailed},
	StatusDeploying: {StatusRunning, StatusCancelled, StatusFailed},
	StatusRunning:   {StatusStopped},
}

// CanTransition reports whether the lifecycle graph allows moving from s
// to next.
func (s Status) CanTransition(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status is final.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusFailed, StatusCancelled, StatusStopped:
		return true
	default:
		return false
	}
}

// Cancellable reports whether a deployment in this status may be
// cancelled.
func (s Status) Cancellable() bool {
	switch s {
	case StatusPending, StatusBuilding, StatusDeploying:
		return true
	default:
		return false
	}
}

type TriggerType string

const (
	TriggerManual    TriggerType = "manual"
	TriggerAuto      TriggerType = "auto"
	TriggerRollback  TriggerType = "rollback"
	TriggerPromotion TriggerType = "promotion"
)

type DeploymentDraft struct {
	// References
	ServiceID uuid.UUID
	ServerID  *uuid.UUID // Nil until the deployment is placed

	// Artifact
	DockerImageTag string
	ContainerID    string // Reported by the agent once the container runs

	// Commit Metadata
	GitCommitSHA     string
	GitCommitMessage string
	GitCommitAuthor  string
	GitBranch        string

	// Trigger
	TriggerType    TriggerType
	TriggeredBy    *uuid.UUID // Nil for system-triggered deployments
	RollbackFromID *uuid.UUID // Deployment that was live when a rollback was issued

	// Status
	Status Status

	// Timestamps
	BuildStartedAt   *time.Time
	BuildFinishedAt  *time.Time
	DeployStartedAt  *time.Time
	DeployFinishedAt *time.Time
}

type Deployment struct {
	DeploymentDraft

	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Succeeded reports whether the deployment reached a terminal-success
// state at least once.
func (d *Deployment) Succeeded() bool {
	return d.Status == StatusRunning || d.Status == StatusStopped || d.DeployFinishedAt != nil
}

// ShortSHA returns an abbreviated commit SHA, falling back to the record
// id when no commit is known.
func (d *Deployment) ShortSHA() string {
	if len(d.GitCommitSHA) >= 7 {
		return d.GitCommitSHA[:7]
	}
	if d.GitCommitSHA != "" {
		return d.GitCommitSHA
	}
	return d.ID.String()[:8]
}

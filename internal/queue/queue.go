// Package queue exposes the enqueue side of the async job queue. Workers
// that execute the jobs (building images, driving agents through a deploy)
// are a separate collaborator; the control plane only hands work over.
package queue

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type JobType string

const (
	JobTypeDeploy    JobType = "deploy"
	JobTypePromotion JobType = "promotion"
)

// Job is the unit of asynchronous work. Enqueue success means "accepted
// for execution", never "completed".
type Job struct {
	ID           uuid.UUID  `json:"id"`
	Type         JobType    `json:"type"`
	DeploymentID *uuid.UUID `json:"deployment_id,omitempty"`
	PromotionID  *uuid.UUID `json:"promotion_id,omitempty"`
	EnqueuedAt   time.Time  `json:"enqueued_at"`
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
}

// NewDeployJob builds a job that executes the given deployment.
func NewDeployJob(deploymentID uuid.UUID) Job {
	return Job{
		ID:           uuid.Must(uuid.NewV7()),
		Type:         JobTypeDeploy,
		DeploymentID: &deploymentID,
		EnqueuedAt:   time.Now(),
	}
}

// NewPromotionJob builds a job that resumes a gated promotion after
// approval.
func NewPromotionJob(promotionID uuid.UUID) Job {
	return Job{
		ID:          uuid.Must(uuid.NewV7()),
		Type:        JobTypePromotion,
		PromotionID: &promotionID,
		EnqueuedAt:  time.Now(),
	}
}

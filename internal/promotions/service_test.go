package promotions

import (
	"context"
	"errors"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/syntra/syntra/internal/agents"
	"github.com/syntra/syntra/internal/deployments"
	"github.com/syntra/syntra/internal/environments"
	"github.com/syntra/syntra/internal/policy"
	"github.com/syntra/syntra/internal/queue"
	"github.com/syntra/syntra/internal/services"
	"go.uber.org/zap/zaptest"
)

type fakeQueue struct {
	jobs []queue.Job
}

func (q *fakeQueue) Enqueue(_ context.Context, job queue.Job) error {
	q.jobs = append(q.jobs, job)
	return nil
}

type fixture struct {
	svc             *Service
	deploymentsSvc  *deployments.Service
	environmentsSvc *environments.Service
	servicesSvc     *services.Manager
	jobs            *fakeQueue

	projectID uuid.UUID
	serviceID uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	logger := zaptest.NewLogger(t)
	projectID := uuid.Must(uuid.NewV7())

	servicesSvc := services.NewManager(services.NewRepository(db), logger)
	service, err := servicesSvc.Create(context.Background(), services.ServiceDraft{
		ProjectID: projectID,
		Name:      "api",
		Replicas:  1,
	})
	if err != nil {
		t.Fatal(err)
	}

	registry := agents.NewRegistry(logger)
	deploymentsSvc := deployments.NewService(
		deployments.NewRepository(db),
		servicesSvc,
		registry,
		agents.NewDispatcher(registry, logger),
		policy.NewAllowAll(),
		&fakeQueue{},
		logger,
	)
	environmentsSvc := environments.NewService(environments.NewRepository(db), logger)

	jobs := &fakeQueue{}
	svc := NewService(
		NewRepository(db),
		environmentsSvc,
		deploymentsSvc,
		servicesSvc,
		jobs,
		policy.NewAllowAll(),
		logger,
	)

	return &fixture{
		svc:             svc,
		deploymentsSvc:  deploymentsSvc,
		environmentsSvc: environmentsSvc,
		servicesSvc:     servicesSvc,
		jobs:            jobs,

		projectID: projectID,
		serviceID: service.ID,
	}
}

// setup creates a running deployment, a staging environment where it is
// active, and a production environment to promote into.
func (f *fixture) setup(t *testing.T, requiresApproval bool) (source *deployments.Deployment, target *environments.Environment) {
	t.Helper()
	ctx := context.Background()

	source, err := f.deploymentsSvc.Create(ctx, deployments.DeploymentDraft{
		ServiceID:      f.serviceID,
		DockerImageTag: "v1.0.0",
		GitCommitSHA:   "0123456789abcdef",
		TriggerType:    deployments.TriggerManual,
		Status:         deployments.StatusRunning,
	})
	if err != nil {
		t.Fatal(err)
	}

	_, err = f.environmentsSvc.Create(ctx, environments.EnvironmentDraft{
		ProjectID:          f.projectID,
		Name:               "staging",
		ActiveDeploymentID: &source.ID,
	})
	if err != nil {
		t.Fatal(err)
	}

	target, err = f.environmentsSvc.Create(ctx, environments.EnvironmentDraft{
		ProjectID:        f.projectID,
		Name:             "production",
		RequiresApproval: requiresApproval,
	})
	if err != nil {
		t.Fatal(err)
	}

	return source, target
}

func TestService_Promote_Immediate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := uuid.Must(uuid.NewV7())

	source, target := f.setup(t, false)

	promotion, err := f.svc.Promote(ctx, target.ID, source.ID, actor)
	if err != nil {
		t.Fatalf("Promote failed: %v", err)
	}

	if promotion.Status != StatusDeployed {
		t.Errorf("status = %s, want %s", promotion.Status, StatusDeployed)
	}
	if promotion.DeployedAt == nil {
		t.Error("deployed_at not stamped")
	}
	if promotion.Metadata[MetadataFromEnvironment] != "staging" {
		t.Errorf("from environment = %q, want staging", promotion.Metadata[MetadataFromEnvironment])
	}
	if promotion.Metadata[MetadataToEnvironment] != "production" {
		t.Errorf("to environment = %q, want production", promotion.Metadata[MetadataToEnvironment])
	}

	newID, err := uuid.Parse(promotion.Metadata[MetadataNewDeploymentID])
	if err != nil {
		t.Fatalf("metadata new_deployment_id is not a uuid: %v", err)
	}

	// The new deployment carries the source's artifact, trigger promotion.
	created, err := f.deploymentsSvc.Get(ctx, newID)
	if err != nil {
		t.Fatal(err)
	}
	if created.DockerImageTag != "v1.0.0" {
		t.Errorf("image = %s, want v1.0.0", created.DockerImageTag)
	}
	if created.TriggerType != deployments.TriggerPromotion {
		t.Errorf("trigger = %s, want %s", created.TriggerType, deployments.TriggerPromotion)
	}

	// The target environment now points at the new deployment.
	gotTarget, err := f.environmentsSvc.Get(ctx, target.ID)
	if err != nil {
		t.Fatal(err)
	}
	if gotTarget.ActiveDeploymentID == nil || *gotTarget.ActiveDeploymentID != newID {
		t.Errorf("active deployment = %v, want %s", gotTarget.ActiveDeploymentID, newID)
	}

	if len(f.jobs.jobs) != 1 || f.jobs.jobs[0].Type != queue.JobTypeDeploy {
		t.Errorf("expected one deploy job, got %+v", f.jobs.jobs)
	}
}

func TestService_Promote_Gated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := uuid.Must(uuid.NewV7())

	source, target := f.setup(t, true)

	promotion, err := f.svc.Promote(ctx, target.ID, source.ID, actor)
	if err != nil {
		t.Fatalf("Promote failed: %v", err)
	}

	if promotion.Status != StatusPending {
		t.Errorf("status = %s, want %s", promotion.Status, StatusPending)
	}

	// No deployment is created synchronously behind an approval gate.
	history, err := f.deploymentsSvc.ListByService(ctx, f.serviceID, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 1 {
		t.Errorf("got %d deployments, want 1 (the source only)", len(history))
	}
	if len(f.jobs.jobs) != 0 {
		t.Errorf("got %d jobs, want 0", len(f.jobs.jobs))
	}
}

func TestService_Promote_Locked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := uuid.Must(uuid.NewV7())

	source, target := f.setup(t, true)
	if err := f.environmentsSvc.Lock(ctx, target.ID, "release freeze"); err != nil {
		t.Fatal(err)
	}

	_, err := f.svc.Promote(ctx, target.ID, source.ID, actor)
	if !errors.Is(err, environments.ErrLocked) {
		t.Errorf("error = %v, want ErrLocked", err)
	}
}

func TestService_Promote_NotPromotable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := uuid.Must(uuid.NewV7())

	_, target := f.setup(t, false)

	pending, err := f.deploymentsSvc.Create(ctx, deployments.DeploymentDraft{
		ServiceID:      f.serviceID,
		DockerImageTag: "v2.0.0",
		TriggerType:    deployments.TriggerManual,
		Status:         deployments.StatusPending,
	})
	if err != nil {
		t.Fatal(err)
	}

	_, err = f.svc.Promote(ctx, target.ID, pending.ID, actor)
	if !errors.Is(err, ErrNotPromotable) {
		t.Errorf("error = %v, want ErrNotPromotable", err)
	}
}

func TestService_Promote_CrossProject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := uuid.Must(uuid.NewV7())

	source, _ := f.setup(t, false)

	foreign, err := f.environmentsSvc.Create(ctx, environments.EnvironmentDraft{
		ProjectID: uuid.Must(uuid.NewV7()),
		Name:      "other-production",
	})
	if err != nil {
		t.Fatal(err)
	}

	_, err = f.svc.Promote(ctx, foreign.ID, source.ID, actor)
	if !errors.Is(err, ErrProjectMismatch) {
		t.Errorf("error = %v, want ErrProjectMismatch", err)
	}
}

func TestService_Promote_NotActive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := uuid.Must(uuid.NewV7())

	_, target := f.setup(t, false)

	// Running, but no environment has it as active deployment.
	orphan, err := f.deploymentsSvc.Create(ctx, deployments.DeploymentDraft{
		ServiceID:      f.serviceID,
		DockerImageTag: "v3.0.0",
		TriggerType:    deployments.TriggerManual,
		Status:         deployments.StatusRunning,
	})
	if err != nil {
		t.Fatal(err)
	}

	_, err = f.svc.Promote(ctx, target.ID, orphan.ID, actor)
	if !errors.Is(err, ErrNotActive) {
		t.Errorf("error = %v, want ErrNotActive", err)
	}
}

func TestService_ApproveAndReject_Terminal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	requester := uuid.Must(uuid.NewV7())
	reviewer := uuid.Must(uuid.NewV7())

	source, target := f.setup(t, true)

	pending, err := f.svc.Promote(ctx, target.ID, source.ID, requester)
	if err != nil {
		t.Fatal(err)
	}

	approved, err := f.svc.Approve(ctx, pending.ID, reviewer)
	if err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	if approved.Status != StatusApproved {
		t.Errorf("status = %s, want %s", approved.Status, StatusApproved)
	}
	if approved.ApprovedBy == nil || *approved.ApprovedBy != reviewer {
		t.Errorf("approved_by = %v, want %s", approved.ApprovedBy, reviewer)
	}
	if approved.ApprovedAt == nil {
		t.Error("approved_at not stamped")
	}

	// Approval resumes the gated run through the queue.
	if len(f.jobs.jobs) != 1 || f.jobs.jobs[0].Type != queue.JobTypePromotion {
		t.Errorf("expected one promotion job, got %+v", f.jobs.jobs)
	}

	// Double approve is rejected, not a silent no-op.
	if _, err := f.svc.Approve(ctx, pending.ID, reviewer); !errors.Is(err, ErrNotPending) {
		t.Errorf("double approve: error = %v, want ErrNotPending", err)
	}
	// Rejecting an approved promotion is likewise refused.
	if _, err := f.svc.Reject(ctx, pending.ID, reviewer, "late"); !errors.Is(err, ErrNotPending) {
		t.Errorf("reject after approve: error = %v, want ErrNotPending", err)
	}
}

func TestService_Reject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	requester := uuid.Must(uuid.NewV7())
	reviewer := uuid.Must(uuid.NewV7())

	source, target := f.setup(t, true)

	pending, err := f.svc.Promote(ctx, target.ID, source.ID, requester)
	if err != nil {
		t.Fatal(err)
	}

	rejected, err := f.svc.Reject(ctx, pending.ID, reviewer, "not ready")
	if err != nil {
		t.Fatalf("Reject failed: %v", err)
	}
	if rejected.Status != StatusRejected {
		t.Errorf("status = %s, want %s", rejected.Status, StatusRejected)
	}
	if rejected.RejectedReason != "not ready" {
		t.Errorf("reason = %q, want %q", rejected.RejectedReason, "not ready")
	}

	// A rejected promotion leaves no deployment behind.
	history, err := f.deploymentsSvc.ListByService(ctx, f.serviceID, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 1 {
		t.Errorf("got %d deployments, want 1 (the source only)", len(history))
	}
}

func TestService_ListByProject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := uuid.Must(uuid.NewV7())

	source, target := f.setup(t, true)
	if _, err := f.svc.Promote(ctx, target.ID, source.ID, actor); err != nil {
		t.Fatal(err)
	}

	listed, err := f.svc.ListByProject(ctx, f.projectID)
	if err != nil {
		t.Fatal(err)
	}
	if len(listed) != 1 {
		t.Fatalf("got %d promotions, want 1", len(listed))
	}
	if listed[0].DeploymentID != source.ID {
		t.Errorf("deployment = %s, want %s", listed[0].DeploymentID, source.ID)
	}
}

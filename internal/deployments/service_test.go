package deployments

import (
	"context"
	"errors"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/syntra/syntra/internal/agents"
	"github.com/syntra/syntra/internal/policy"
	"github.com/syntra/syntra/internal/queue"
	"github.com/syntra/syntra/internal/services"
	"go.uber.org/zap/zaptest"
)

type fakeQueue struct {
	jobs []queue.Job
	err  error
}

func (q *fakeQueue) Enqueue(_ context.Context, job queue.Job) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

type fixture struct {
	svc       *Service
	serviceID uuid.UUID
	registry  *agents.Registry
	jobs      *fakeQueue
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	logger := zaptest.NewLogger(t)

	servicesSvc := services.NewManager(services.NewRepository(db), logger)
	service, err := servicesSvc.Create(context.Background(), services.ServiceDraft{
		ProjectID: uuid.Must(uuid.NewV7()),
		Name:      "api",
		Replicas:  1,
	})
	if err != nil {
		t.Fatal(err)
	}

	registry := agents.NewRegistry(logger)
	dispatcher := agents.NewDispatcher(registry, logger)

	jobs := &fakeQueue{}
	svc := NewService(
		NewRepository(db),
		servicesSvc,
		registry,
		dispatcher,
		policy.NewAllowAll(),
		jobs,
		logger,
	)

	return &fixture{svc: svc, serviceID: service.ID, registry: registry, jobs: jobs}
}

func (f *fixture) create(t *testing.T, status Status) *Deployment {
	t.Helper()

	deployment, err := f.svc.Create(context.Background(), DeploymentDraft{
		ServiceID:      f.serviceID,
		DockerImageTag: "v1.0.0",
		GitCommitSHA:   "0123456789abcdef",
		TriggerType:    TriggerManual,
		Status:         status,
	})
	if err != nil {
		t.Fatal(err)
	}

	return deployment
}

func TestService_Cancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := uuid.Must(uuid.NewV7())

	deployment := f.create(t, StatusBuilding)

	result, err := f.svc.Cancel(ctx, deployment.ID, actor)
	if err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}

	if result.Deployment.Status != StatusCancelled {
		t.Errorf("status = %s, want %s", result.Deployment.Status, StatusCancelled)
	}
	if result.PreviousStatus != StatusBuilding {
		t.Errorf("previous status = %s, want %s", result.PreviousStatus, StatusBuilding)
	}
}

func TestService_Cancel_InvalidState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := uuid.Must(uuid.NewV7())

	for _, status := range []Status{StatusRunning, StatusFailed, StatusCancelled, StatusStopped} {
		deployment := f.create(t, status)

		_, err := f.svc.Cancel(ctx, deployment.ID, actor)
		if !errors.Is(err, ErrInvalidState) {
			t.Errorf("Cancel(%s) error = %v, want ErrInvalidState", status, err)
		}

		// Re-invoking on a terminal record must report the conflict, never
		// silently succeed.
		got, getErr := f.svc.Get(ctx, deployment.ID)
		if getErr != nil {
			t.Fatal(getErr)
		}
		if got.Status != status {
			t.Errorf("status changed to %s after rejected cancel", got.Status)
		}
	}
}

func TestService_Cancel_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Cancel(context.Background(), uuid.Must(uuid.NewV7()), uuid.Must(uuid.NewV7()))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestService_Stop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := uuid.Must(uuid.NewV7())

	deployment := f.create(t, StatusDeploying)
	if err := f.svc.TaskCompleted(ctx, deployment.ID, agents.TaskResult{Success: true, ContainerID: "c-1"}); err != nil {
		t.Fatal(err)
	}

	stopped, err := f.svc.Stop(ctx, deployment.ID, actor)
	if err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if stopped.Status != StatusStopped {
		t.Errorf("status = %s, want %s", stopped.Status, StatusStopped)
	}
}

func TestService_Stop_RequiresRunning(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := uuid.Must(uuid.NewV7())

	deployment := f.create(t, StatusPending)

	_, err := f.svc.Stop(ctx, deployment.ID, actor)
	if !errors.Is(err, ErrInvalidState) {
		t.Errorf("error = %v, want ErrInvalidState", err)
	}
}

func TestService_Stop_RequiresContainer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := uuid.Must(uuid.NewV7())

	deployment := f.create(t, StatusDeploying)
	// Reaches running without the agent ever reporting a container.
	if err := f.svc.Advance(ctx, deployment.ID, StatusRunning); err != nil {
		t.Fatal(err)
	}

	_, err := f.svc.Stop(ctx, deployment.ID, actor)
	if !errors.Is(err, ErrNoContainer) {
		t.Errorf("error = %v, want ErrNoContainer", err)
	}
}

func TestService_Create_RollbackRequiresImageTag(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), DeploymentDraft{
		ServiceID:   f.serviceID,
		TriggerType: TriggerRollback,
	})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("error = %v, want ErrValidation", err)
	}
}

func TestService_Advance_StampsTimestamps(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	deployment := f.create(t, StatusPending)

	for _, next := range []Status{StatusBuilding, StatusDeploying, StatusRunning} {
		if err := f.svc.Advance(ctx, deployment.ID, next); err != nil {
			t.Fatalf("Advance(%s) failed: %v", next, err)
		}
	}

	got, err := f.svc.Get(ctx, deployment.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.BuildStartedAt == nil || got.BuildFinishedAt == nil {
		t.Error("build timestamps not stamped")
	}
	if got.DeployStartedAt == nil || got.DeployFinishedAt == nil {
		t.Error("deploy timestamps not stamped")
	}
}

func TestService_TaskCompleted_StaleResultDropped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := uuid.Must(uuid.NewV7())

	deployment := f.create(t, StatusDeploying)
	if _, err := f.svc.Cancel(ctx, deployment.ID, actor); err != nil {
		t.Fatal(err)
	}

	// The agent's success report arrives after the cancel landed.
	if err := f.svc.TaskCompleted(ctx, deployment.ID, agents.TaskResult{Success: true, ContainerID: "c-1"}); err != nil {
		t.Fatalf("stale task result should be dropped, got error: %v", err)
	}

	got, err := f.svc.Get(ctx, deployment.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != StatusCancelled {
		t.Errorf("status = %s, want %s", got.Status, StatusCancelled)
	}
}

func TestService_TaskCompleted_Failure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	deployment := f.create(t, StatusDeploying)

	if err := f.svc.TaskCompleted(ctx, deployment.ID, agents.TaskResult{Success: false, Error: "image pull failed"}); err != nil {
		t.Fatal(err)
	}

	got, err := f.svc.Get(ctx, deployment.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != StatusFailed {
		t.Errorf("status = %s, want %s", got.Status, StatusFailed)
	}
}

type denyAll struct{}

func (denyAll) HasPermission(context.Context, uuid.UUID, uuid.UUID, string) bool {
	return false
}

func TestService_Cancel_NotAllowed(t *testing.T) {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	logger := zaptest.NewLogger(t)
	ctx := context.Background()

	servicesSvc := services.NewManager(services.NewRepository(db), logger)
	service, err := servicesSvc.Create(ctx, services.ServiceDraft{
		ProjectID: uuid.Must(uuid.NewV7()),
		Name:      "api",
		Replicas:  1,
	})
	if err != nil {
		t.Fatal(err)
	}

	registry := agents.NewRegistry(logger)
	svc := NewService(
		NewRepository(db),
		servicesSvc,
		registry,
		agents.NewDispatcher(registry, logger),
		denyAll{},
		&fakeQueue{},
		logger,
	)

	deployment, err := svc.Create(ctx, DeploymentDraft{
		ServiceID:      service.ID,
		DockerImageTag: "v1.0.0",
		GitCommitSHA:   "0123456789abcdef",
		TriggerType:    TriggerManual,
		Status:         StatusBuilding,
	})
	if err != nil {
		t.Fatal(err)
	}

	_, err = svc.Cancel(ctx, deployment.ID, uuid.Must(uuid.NewV7()))
	if !errors.Is(err, ErrNotAllowed) {
		t.Errorf("Cancel error = %v, want ErrNotAllowed", err)
	}

	got, err := svc.Get(ctx, deployment.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != StatusBuilding {
		t.Errorf("status = %s, want unchanged %s", got.Status, StatusBuilding)
	}
}

func TestService_Create_EnqueuesDeployJob(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	deployment, err := f.svc.Create(ctx, DeploymentDraft{
		ServiceID:      f.serviceID,
		DockerImageTag: "v1.0.0",
		GitCommitSHA:   "0123456789abcdef",
		TriggerType:    TriggerManual,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if deployment.Status != StatusPending {
		t.Errorf("status = %s, want %s", deployment.Status, StatusPending)
	}
	if len(f.jobs.jobs) != 1 {
		t.Fatalf("got %d enqueued jobs, want 1", len(f.jobs.jobs))
	}
	job := f.jobs.jobs[0]
	if job.Type != queue.JobTypeDeploy {
		t.Errorf("job type = %s, want %s", job.Type, queue.JobTypeDeploy)
	}
	if job.DeploymentID == nil || *job.DeploymentID != deployment.ID {
		t.Errorf("job deployment id = %v, want %s", job.DeploymentID, deployment.ID)
	}

	// Rollback and promotion deployments are enqueued by their own
	// orchestrators, never twice.
	_, err = f.svc.Create(ctx, DeploymentDraft{
		ServiceID:      f.serviceID,
		DockerImageTag: "v1.0.0",
		GitCommitSHA:   "0123456789abcdef",
		TriggerType:    TriggerRollback,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if len(f.jobs.jobs) != 1 {
		t.Errorf("got %d enqueued jobs, want still 1", len(f.jobs.jobs))
	}
}

func TestService_Create_EnqueueFailureKeepsRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.jobs.err = errors.New("queue unavailable")

	deployment, err := f.svc.Create(ctx, DeploymentDraft{
		ServiceID:      f.serviceID,
		DockerImageTag: "v1.0.0",
		GitCommitSHA:   "0123456789abcdef",
		TriggerType:    TriggerManual,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := f.svc.Get(ctx, deployment.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != StatusPending {
		t.Errorf("status = %s, want %s", got.Status, StatusPending)
	}
}

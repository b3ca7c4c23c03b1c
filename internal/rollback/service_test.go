package rollback

import (
	"context"
	"errors"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/syntra/syntra/internal/agents"
	"github.com/syntra/syntra/internal/deployments"
	"github.com/syntra/syntra/internal/policy"
	"github.com/syntra/syntra/internal/queue"
	"github.com/syntra/syntra/internal/services"
	"go.uber.org/zap/zaptest"
)

type fakeSender struct{}

func (fakeSender) Send(agents.Command) error { return nil }
func (fakeSender) Close()                    {}

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
	svc            *Service
	deploymentsSvc *deployments.Service
	servicesSvc    *services.Manager
	registry       *agents.Registry
	jobs           *fakeQueue
	serviceID      uuid.UUID
	serverID       uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	logger := zaptest.NewLogger(t)
	serverID := uuid.Must(uuid.NewV7())

	servicesSvc := services.NewManager(services.NewRepository(db), logger)
	service, err := servicesSvc.Create(context.Background(), services.ServiceDraft{
		ProjectID: uuid.Must(uuid.NewV7()),
		ServerID:  &serverID,
		Name:      "api",
		Replicas:  1,
	})
	if err != nil {
		t.Fatal(err)
	}

	registry := agents.NewRegistry(logger)
	dispatcher := agents.NewDispatcher(registry, logger)
	deploymentsSvc := deployments.NewService(
		deployments.NewRepository(db),
		servicesSvc,
		registry,
		dispatcher,
		policy.NewAllowAll(),
		&fakeQueue{},
		logger,
	)

	jobs := &fakeQueue{}
	svc := NewService(deploymentsSvc, servicesSvc, registry, jobs, policy.NewAllowAll(), logger)

	return &fixture{
		svc:            svc,
		deploymentsSvc: deploymentsSvc,
		servicesSvc:    servicesSvc,
		registry:       registry,
		jobs:           jobs,
		serviceID:      service.ID,
		serverID:       serverID,
	}
}

func (f *fixture) createDeployment(t *testing.T, status deployments.Status, tag string) *deployments.Deployment {
	t.Helper()

	deployment, err := f.deploymentsSvc.Create(context.Background(), deployments.DeploymentDraft{
		ServiceID:      f.serviceID,
		ServerID:       &f.serverID,
		DockerImageTag: tag,
		GitCommitSHA:   "0123456789abcdef",
		TriggerType:    deployments.TriggerManual,
		Status:         status,
	})
	if err != nil {
		t.Fatal(err)
	}

	return deployment
}

func TestService_Candidates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	old := f.createDeployment(t, deployments.StatusStopped, "v1.0.0")
	untagged := f.createDeployment(t, deployments.StatusStopped, "")
	failed := f.createDeployment(t, deployments.StatusFailed, "v1.1.0")
	current := f.createDeployment(t, deployments.StatusRunning, "v2.0.0")

	candidates, err := f.svc.Candidates(ctx, current.ID)
	if err != nil {
		t.Fatalf("Candidates failed: %v", err)
	}

	if candidates.Current.ID != current.ID {
		t.Errorf("current = %s, want %s", candidates.Current.ID, current.ID)
	}
	if len(candidates.Candidates) != 1 {
		t.Fatalf("got %d candidates, want 1", len(candidates.Candidates))
	}
	if candidates.Candidates[0].ID != old.ID {
		t.Errorf("candidate = %s, want %s", candidates.Candidates[0].ID, old.ID)
	}

	for _, c := range candidates.Candidates {
		if c.ID == current.ID {
			t.Error("candidate list contains the current deployment")
		}
		if c.ID == untagged.ID {
			t.Error("candidate list contains a deployment without an artifact tag")
		}
		if c.ID == failed.ID {
			t.Error("candidate list contains a never-succeeded deployment")
		}
	}
}

func TestService_Rollback(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := uuid.Must(uuid.NewV7())

	target := f.createDeployment(t, deployments.StatusStopped, "v1.0.0")
	running := f.createDeployment(t, deployments.StatusRunning, "v2.0.0")

	f.registry.Connect(f.serverID, fakeSender{})

	result, err := f.svc.Rollback(ctx, target.ID, actor)
	if err != nil {
		t.Fatalf("Rollback failed: %v", err)
	}

	if result.TargetID != target.ID {
		t.Errorf("target = %s, want %s", result.TargetID, target.ID)
	}
	if result.RollbackFromID == nil || *result.RollbackFromID != running.ID {
		t.Errorf("rollback_from = %v, want %s", result.RollbackFromID, running.ID)
	}
	if result.Deployment.DockerImageTag != "v1.0.0" {
		t.Errorf("image = %s, want v1.0.0", result.Deployment.DockerImageTag)
	}
	if result.Deployment.TriggerType != deployments.TriggerRollback {
		t.Errorf("trigger = %s, want %s", result.Deployment.TriggerType, deployments.TriggerRollback)
	}
	if result.Deployment.Status != deployments.StatusDeploying {
		t.Errorf("status = %s, want %s", result.Deployment.Status, deployments.StatusDeploying)
	}
	if want := "Rollback to 0123456"; result.Deployment.GitCommitMessage != want {
		t.Errorf("message = %q, want %q", result.Deployment.GitCommitMessage, want)
	}

	if len(f.jobs.jobs) != 1 {
		t.Fatalf("got %d enqueued jobs, want 1", len(f.jobs.jobs))
	}
	job := f.jobs.jobs[0]
	if job.Type != queue.JobTypeDeploy {
		t.Errorf("job type = %s, want %s", job.Type, queue.JobTypeDeploy)
	}
	if job.DeploymentID == nil || *job.DeploymentID != result.Deployment.ID {
		t.Errorf("job deployment = %v, want %s", job.DeploymentID, result.Deployment.ID)
	}
}

func TestService_Rollback_ServerOffline(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := uuid.Must(uuid.NewV7())

	target := f.createDeployment(t, deployments.StatusStopped, "v1.0.0")

	// No agent connected for the server.
	_, err := f.svc.Rollback(ctx, target.ID, actor)
	if !errors.Is(err, ErrServerOffline) {
		t.Fatalf("error = %v, want ErrServerOffline", err)
	}

	// No deployment record may exist for the refused rollback.
	history, err := f.deploymentsSvc.ListByService(ctx, f.serviceID, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 1 {
		t.Errorf("got %d deployments, want 1", len(history))
	}
}

func TestService_Rollback_InvalidTarget(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := uuid.Must(uuid.NewV7())

	f.registry.Connect(f.serverID, fakeSender{})

	_, err := f.svc.Rollback(ctx, uuid.Must(uuid.NewV7()), actor)
	if !errors.Is(err, ErrInvalidTarget) {
		t.Errorf("unknown target: error = %v, want ErrInvalidTarget", err)
	}

	neverSucceeded := f.createDeployment(t, deployments.StatusFailed, "v1.0.0")
	_, err = f.svc.Rollback(ctx, neverSucceeded.ID, actor)
	if !errors.Is(err, ErrInvalidTarget) {
		t.Errorf("failed target: error = %v, want ErrInvalidTarget", err)
	}

	untagged := f.createDeployment(t, deployments.StatusStopped, "")
	_, err = f.svc.Rollback(ctx, untagged.ID, actor)
	if !errors.Is(err, ErrNoImage) {
		t.Errorf("untagged target: error = %v, want ErrNoImage", err)
	}
}

func TestService_Rollback_EnqueueFailureMarksFailed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := uuid.Must(uuid.NewV7())

	target := f.createDeployment(t, deployments.StatusStopped, "v1.0.0")
	f.registry.Connect(f.serverID, fakeSender{})
	f.jobs.err = errors.New("redis unavailable")

	_, err := f.svc.Rollback(ctx, target.ID, actor)
	if err == nil {
		t.Fatal("expected error when enqueue fails")
	}

	latest, err := f.deploymentsSvc.GetLatestByService(ctx, f.serviceID, nil)
	if err != nil {
		t.Fatal(err)
	}
	if latest.Status != deployments.StatusFailed {
		t.Errorf("status = %s, want %s", latest.Status, deployments.StatusFailed)
	}
}

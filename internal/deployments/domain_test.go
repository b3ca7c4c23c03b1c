package deployments

import (
	"testing"
	"time"
)

func TestStatus_CanTransition(t *testing.T) {
	cases := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusPending, StatusBuilding, true},
		{StatusPending, StatusDeploying, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusFailed, true},
		{StatusPending, StatusRunning, false},
		{StatusPending, StatusStopped, false},
		{StatusBuilding, StatusDeploying, true},
		{StatusBuilding, StatusCancelled, true},
		{StatusBuilding, StatusFailed, true},
		{StatusBuilding, StatusRunning, false},
		{StatusBuilding, StatusPending, false},
		{StatusDeploying, StatusRunning, true},
		{StatusDeploying, StatusCancelled, true},
		{StatusDeploying, StatusFailed, true},
		{StatusDeploying, StatusBuilding, false},
		{StatusRunning, StatusStopped, true},
		{StatusRunning, StatusCancelled, false},
		{StatusRunning, StatusFailed, false},
		{StatusFailed, StatusPending, false},
		{StatusCancelled, StatusBuilding, false},
		{StatusStopped, StatusRunning, false},
	}

	for _, tc := range cases {
		if got := tc.from.CanTransition(tc.to); got != tc.allowed {
			t.Errorf("CanTransition(%s -> %s) = %v, want %v", tc.from, tc.to, got, tc.allowed)
		}
	}
}

func TestStatus_Cancellable(t *testing.T) {
	cancellable := []Status{StatusPending, StatusBuilding, StatusDeploying}
	for _, s := range cancellable {
		if !s.Cancellable() {
			t.Errorf("%s should be cancellable", s)
		}
	}

	notCancellable := []Status{StatusRunning, StatusFailed, StatusCancelled, StatusStopped}
	for _, s := range notCancellable {
		if s.Cancellable() {
			t.Errorf("%s should not be cancellable", s)
		}
	}
}

func TestStatus_IsTerminal(t *testing.T) {
	terminal := []Status{StatusFailed, StatusCancelled, StatusStopped}
	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Errorf("%s should be terminal", s)
		}
	}

	nonTerminal := []Status{StatusPending, StatusBuilding, StatusDeploying, StatusRunning}
	for _, s := range nonTerminal {
		if s.IsTerminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestDeployment_Succeeded(t *testing.T) {
	now := time.Now()

	running := &Deployment{DeploymentDraft: DeploymentDraft{Status: StatusRunning}}
	if !running.Succeeded() {
		t.Error("running deployment should count as succeeded")
	}

	stopped := &Deployment{DeploymentDraft: DeploymentDraft{Status: StatusStopped}}
	if !stopped.Succeeded() {
		t.Error("stopped deployment should count as succeeded")
	}

	// Failed after having been live once.
	wasLive := &Deployment{DeploymentDraft: DeploymentDraft{Status: StatusFailed, DeployFinishedAt: &now}}
	if !wasLive.Succeeded() {
		t.Error("deployment with a deploy-finish time should count as succeeded")
	}

	neverLive := &Deployment{DeploymentDraft: DeploymentDraft{Status: StatusFailed}}
	if neverLive.Succeeded() {
		t.Error("failed deployment that never ran should not count as succeeded")
	}
}

func TestDeployment_ShortSHA(t *testing.T) {
	d := &Deployment{DeploymentDraft: DeploymentDraft{GitCommitSHA: "0123456789abcdef"}}
	if got := d.ShortSHA(); got != "0123456" {
		t.Errorf("ShortSHA() = %q, want %q", got, "0123456")
	}

	d = &Deployment{DeploymentDraft: DeploymentDraft{GitCommitSHA: "abc"}}
	if got := d.ShortSHA(); got != "abc" {
		t.Errorf("ShortSHA() = %q, want %q", got, "abc")
	}
}

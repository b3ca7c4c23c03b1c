package agents

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap/zaptest"
)

type fakeSender struct {
	mu     sync.Mutex
	sent   []Command
	closed bool
	err    error
}

func (s *fakeSender) Send(cmd Command) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, cmd)
	return nil
}

func (s *fakeSender) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func TestRegistry_ConnectDisconnect(t *testing.T) {
	registry := NewRegistry(zaptest.NewLogger(t))
	serverID := uuid.Must(uuid.NewV7())

	if registry.IsConnected(serverID) {
		t.Error("fresh registry reports a connection")
	}

	s := &fakeSender{}
	registry.Connect(serverID, s)
	if !registry.IsConnected(serverID) {
		t.Error("server not connected after Connect")
	}

	registry.Disconnect(serverID, s)
	if registry.IsConnected(serverID) {
		t.Error("server still connected after Disconnect")
	}
}

func TestRegistry_NewestConnectionWins(t *testing.T) {
	registry := NewRegistry(zaptest.NewLogger(t))
	serverID := uuid.Must(uuid.NewV7())

	old := &fakeSender{}
	registry.Connect(serverID, old)

	replacement := &fakeSender{}
	registry.Connect(serverID, replacement)

	if !old.closed {
		t.Error("replaced session was not closed")
	}

	// The stale session's own disconnect must not evict the replacement.
	registry.Disconnect(serverID, old)
	if !registry.IsConnected(serverID) {
		t.Error("stale disconnect evicted the current session")
	}
}

func TestRegistry_Connection(t *testing.T) {
	registry := NewRegistry(zaptest.NewLogger(t))
	serverID := uuid.Must(uuid.NewV7())

	conn := registry.Connection(serverID)
	if conn.Connected {
		t.Error("unknown server reported connected")
	}

	registry.Connect(serverID, &fakeSender{})
	registry.Touch(serverID)

	conn = registry.Connection(serverID)
	if !conn.Connected || conn.LastSeen.IsZero() {
		t.Errorf("connection = %+v, want connected with last-seen", conn)
	}

	if got := len(registry.Connections()); got != 1 {
		t.Errorf("got %d connections, want 1", got)
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	registry := NewRegistry(zaptest.NewLogger(t))
	serverID := uuid.Must(uuid.NewV7())

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s := &fakeSender{}
			registry.Connect(serverID, s)
			registry.IsConnected(serverID)
			registry.Touch(serverID)
			registry.Disconnect(serverID, s)
		}()
	}
	wg.Wait()
}

func TestDispatcher_SendCommand(t *testing.T) {
	logger := zaptest.NewLogger(t)
	registry := NewRegistry(logger)
	dispatcher := NewDispatcher(registry, logger)
	ctx := context.Background()

	serverID := uuid.Must(uuid.NewV7())
	cmd := NewCommand(CommandStop, StopPayload{DeploymentID: uuid.Must(uuid.NewV7())})

	// No session at all.
	err := dispatcher.SendCommand(ctx, serverID, cmd)
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("error = %v, want ErrNotConnected", err)
	}

	// Session present but the transport write fails.
	s := &fakeSender{err: errors.New("broken pipe")}
	registry.Connect(serverID, s)
	err = dispatcher.SendCommand(ctx, serverID, cmd)
	if !errors.Is(err, ErrTransportFailure) {
		t.Errorf("error = %v, want ErrTransportFailure", err)
	}
	if errors.Is(err, ErrNotConnected) {
		t.Error("transport failure must not report as not-connected")
	}

	// Healthy session.
	s.err = nil
	if err := dispatcher.SendCommand(ctx, serverID, cmd); err != nil {
		t.Fatalf("SendCommand failed: %v", err)
	}
	if len(s.sent) != 1 || s.sent[0].ID != cmd.ID {
		t.Errorf("sent = %+v, want the dispatched command", s.sent)
	}
}

func TestNewCommand(t *testing.T) {
	cmd := NewCommand(CommandScale, ScalePayload{Replicas: 3})

	if cmd.ID == uuid.Nil {
		t.Error("command has no id")
	}
	if cmd.Type != CommandScale {
		t.Errorf("type = %s, want %s", cmd.Type, CommandScale)
	}
	if cmd.Timestamp.IsZero() {
		t.Error("command has no timestamp")
	}
}

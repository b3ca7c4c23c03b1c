package agents

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var commandsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "syntra",
		Subsystem: "dispatcher",
		Name:      "commands_total",
		Help:      "Commands handed to agent transports, by type and outcome.",
	},
	[]string{"type", "outcome"},
)

// Dispatcher delivers typed commands to a specific agent. Delivery is
// fire-and-forget past the transport write: the dispatcher reports whether
// the command was handed to the transport, never whether the agent executed
// it. Retry is the caller's decision.
type Dispatcher struct {
	registry *Registry

	logger *zap.Logger
}

func NewDispatcher(registry *Registry, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		registry: registry,

		logger: logger,
	}
}

// SendCommand delivers a command to the server's agent. ErrNotConnected
// and ErrTransportFailure are distinct, reportable failure modes.
func (d *Dispatcher) SendCommand(_ context.Context, serverID uuid.UUID, cmd Command) error {
	s, ok := d.registry.senderFor(serverID)
	if !ok {
		commandsTotal.WithLabelValues(string(cmd.Type), "not_connected").Inc()
		return fmt.Errorf("%w: server %s", ErrNotConnected, serverID)
	}

	if err := s.Send(cmd); err != nil {
		commandsTotal.WithLabelValues(string(cmd.Type), "transport_failure").Inc()
		d.logger.Warn("command send failed",
			zap.String("server_id", serverID.String()),
			zap.String("command_id", cmd.ID.String()),
			zap.String("type", string(cmd.Type)),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %w", ErrTransportFailure, err)
	}

	commandsTotal.WithLabelValues(string(cmd.Type), "dispatched").Inc()
	d.logger.Debug("command dispatched",
		zap.String("server_id", serverID.String()),
		zap.String("command_id", cmd.ID.String()),
		zap.String("type", string(cmd.Type)),
	)
	return nil
}

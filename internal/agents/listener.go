package agents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type Config struct {
	// Address the agent listener binds to, separate from the API server.
	Address string
	Path    string

	WriteTimeout     time.Duration
	HeartbeatTimeout time.Duration
}

// Listener accepts agent websocket sessions on a dedicated HTTP listener
// and feeds inbound agent messages into the registry, the metric sink and
// the deployment reporter.
type Listener struct {
	config   Config
	registry *Registry
	sink     MetricSink
	reporter DeploymentReporter

	upgrader websocket.Upgrader
	server   *http.Server

	logger *zap.Logger
}

func NewListener(
	config Config,
	registry *Registry,
	sink MetricSink,
	reporter DeploymentReporter,
	logger *zap.Logger,
) *Listener {
	l := &Listener{
		config:   config,
		registry: registry,
		sink:     sink,
		reporter: reporter,

		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},

		logger: logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc(config.Path, l.handleWS)
	l.server = &http.Server{
		Addr:              config.Address,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return l
}

func (l *Listener) Start(_ context.Context) error {
	ln, err := net.Listen("tcp", l.config.Address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", l.config.Address, err)
	}

	l.logger.Info("agent listener started",
		zap.String("address", l.config.Address),
		zap.String("path", l.config.Path),
	)

	go func() {
		if serveErr := l.server.Serve(ln); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			l.logger.Error("agent listener stopped unexpectedly", zap.Error(serveErr))
		}
	}()

	return nil
}

func (l *Listener) Stop(ctx context.Context) error {
	if err := l.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down agent listener: %w", err)
	}
	return nil
}

func (l *Listener) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := l.upgrader.Upgrade(w, r, nil)
	if err != nil {
		l.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	go l.serveConn(conn)
}

// serveConn runs one agent session: handshake, register, then the read
// loop until the connection drops.
func (l *Listener) serveConn(conn *websocket.Conn) {
	register, err := l.readRegister(conn)
	if err != nil {
		l.logger.Warn("agent handshake failed", zap.Error(err))
		_ = conn.Close()
		return
	}

	serverID := register.ServerID
	logger := l.logger.With(
		zap.String("server_id", serverID.String()),
		zap.String("agent_id", register.AgentID),
	)
	logger.Info("agent registered",
		zap.String("version", register.Version),
		zap.String("hostname", register.Hostname),
		zap.Strings("capabilities", register.Capabilities),
	)

	sess := newSession(conn, l.config.WriteTimeout)
	l.registry.Connect(serverID, sess)
	defer l.registry.Disconnect(serverID, sess)

	for {
		if deadlineErr := conn.SetReadDeadline(time.Now().Add(l.config.HeartbeatTimeout)); deadlineErr != nil {
			logger.Warn("failed to set read deadline", zap.Error(deadlineErr))
			return
		}

		var msg Message
		if readErr := conn.ReadJSON(&msg); readErr != nil {
			if websocket.IsUnexpectedCloseError(readErr, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("agent session closed unexpectedly", zap.Error(readErr))
			} else {
				logger.Info("agent session closed")
			}
			return
		}

		l.registry.Touch(serverID)
		l.handleMessage(logger, msg)
	}
}

func (l *Listener) readRegister(conn *websocket.Conn) (*registerPayload, error) {
	if err := conn.SetReadDeadline(time.Now().Add(l.config.WriteTimeout)); err != nil {
		return nil, fmt.Errorf("failed to set handshake deadline: %w", err)
	}

	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadHandshake, err)
	}

	if msg.Type != messageRegister {
		return nil, fmt.Errorf("%w: expected %q message, got %q", ErrBadHandshake, messageRegister, msg.Type)
	}

	var register registerPayload
	if err := json.Unmarshal(msg.Payload, &register); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadHandshake, err)
	}

	return &register, nil
}

func (l *Listener) handleMessage(logger *zap.Logger, msg Message) {
	ctx := context.Background()

	switch msg.Type {
	case messageHeartbeat:
		// Touch already stamped last-seen; the payload is informational.
		var heartbeat heartbeatPayload
		if err := json.Unmarshal(msg.Payload, &heartbeat); err != nil {
			logger.Warn("malformed heartbeat", zap.Error(err))
			return
		}
		logger.Debug("heartbeat",
			zap.Uint32("container_count", heartbeat.ContainerCount),
			zap.Float64("cpu_usage", heartbeat.CPUUsage),
		)

	case messageMetrics:
		var report metricsPayload
		if err := json.Unmarshal(msg.Payload, &report); err != nil {
			logger.Warn("malformed metrics report", zap.Error(err))
			return
		}
		at := report.Timestamp
		if at.IsZero() {
			at = time.Now()
		}
		l.sink.Record(report.ServiceID, report.Metric, report.Value, at)

	case messageTaskResult:
		var result taskResultPayload
		if err := json.Unmarshal(msg.Payload, &result); err != nil {
			logger.Warn("malformed task result", zap.Error(err))
			return
		}
		if err := l.reporter.TaskCompleted(ctx, result.DeploymentID, TaskResult{
			Success:     result.Success,
			Error:       result.Error,
			ContainerID: result.ContainerID,
		}); err != nil {
			logger.Error("failed to apply task result",
				zap.String("deployment_id", result.DeploymentID.String()),
				zap.Error(err),
			)
		}

	case messageContainerStatus:
		var status containerStatusPayload
		if err := json.Unmarshal(msg.Payload, &status); err != nil {
			logger.Warn("malformed container status", zap.Error(err))
			return
		}
		if err := l.reporter.ContainerStatusChanged(ctx, status.DeploymentID, status.ContainerID, status.Status); err != nil {
			logger.Error("failed to apply container status",
				zap.String("deployment_id", status.DeploymentID.String()),
				zap.Error(err),
			)
		}

	case messageAck:
		var ack ackPayload
		if err := json.Unmarshal(msg.Payload, &ack); err != nil {
			logger.Warn("malformed ack", zap.Error(err))
			return
		}
		logger.Debug("command acknowledged", zap.String("command_id", ack.MessageID.String()))

	default:
		logger.Warn("unknown agent message type", zap.String("type", msg.Type))
	}
}

package agents

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Message is the envelope for messages sent by an agent to the control
// plane. The payload shape depends on the type tag.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

const (
	messageRegister        = "register"
	messageHeartbeat       = "heartbeat"
	messageMetrics         = "metrics"
	messageTaskResult      = "task_result"
	messageContainerStatus = "container_status"
	messageAck             = "ack"
)

type registerPayload struct {
	AgentID      string    `json:"agent_id"`
	ServerID     uuid.UUID `json:"server_id"`
	Version      string    `json:"version"`
	Hostname     string    `json:"hostname"`
	Capabilities []string  `json:"capabilities"`
	Timestamp    time.Time `json:"timestamp"`
}

type heartbeatPayload struct {
	AgentID        string    `json:"agent_id"`
	Timestamp      time.Time `json:"timestamp"`
	UptimeSecs     uint64    `json:"uptime_secs"`
	ContainerCount uint32    `json:"container_count"`
	CPUUsage       float64   `json:"cpu_usage"`
	MemoryUsage    float64   `json:"memory_usage"`
}

type metricsPayload struct {
	ServiceID uuid.UUID `json:"service_id"`
	Metric    string    `json:"metric"`
	Value     float64   `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

type taskResultPayload struct {
	DeploymentID uuid.UUID `json:"deployment_id"`
	Success      bool      `json:"success"`
	Error        string    `json:"error"`
	ContainerID  string    `json:"container_id"`
	DurationMs   uint64    `json:"duration_ms"`
	Timestamp    time.Time `json:"timestamp"`
}

type containerStatusPayload struct {
	DeploymentID uuid.UUID `json:"deployment_id"`
	ContainerID  string    `json:"container_id"`
	Status       string    `json:"status"`
	Timestamp    time.Time `json:"timestamp"`
}

type ackPayload struct {
	MessageID uuid.UUID `json:"message_id"`
	Timestamp time.Time `json:"timestamp"`
}

// TaskResult is the outcome of a deploy task reported by an agent.
type TaskResult struct {
	Success     bool
	Error       string
	ContainerID string
}

// DeploymentReporter receives command acknowledgements from agents and
// applies them to deployment records. Implemented by the deployment
// service; defined here to keep the transport free of domain imports.
type DeploymentReporter interface {
	TaskCompleted(ctx context.Context, deploymentID uuid.UUID, result TaskResult) error
	ContainerStatusChanged(ctx context.Context, deploymentID uuid.UUID, containerID, status string) error
}

// MetricSink receives metric samples reported by agents.
type MetricSink interface {
	Record(serviceID uuid.UUID, metric string, value float64, at time.Time)
}

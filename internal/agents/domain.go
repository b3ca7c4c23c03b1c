package agents

import (
	"time"

	"github.com/google/uuid"
)

type CommandType string

const (
	CommandStop          CommandType = "stop"
	CommandCancelDeploy  CommandType = "cancel_deploy"
	CommandStopContainer CommandType = "stop_container"
	CommandScale         CommandType = "scale"
)

// Command is the envelope delivered to an agent. The wire shape is stable:
// {id, type, timestamp, payload} with an ISO-8601 timestamp and a
// type-specific payload.
type Command struct {
	ID        uuid.UUID   `json:"id"`
	Type      CommandType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   any         `json:"payload"`
}

func NewCommand(commandType CommandType, payload any) Command {
	return Command{
		ID:        uuid.Must(uuid.NewV7()),
		Type:      commandType,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

type StopPayload struct {
	DeploymentID uuid.UUID `json:"deployment_id"`
}

type CancelDeployPayload struct {
	DeploymentID uuid.UUID `json:"deployment_id"`
}

type StopContainerPayload struct {
	ContainerID  string    `json:"container_id"`
	DeploymentID uuid.UUID `json:"deployment_id"`
}

type ScalePayload struct {
	ServiceID uuid.UUID `json:"service_id"`
	Replicas  int       `json:"replicas"`
}

// AgentConnection describes the liveness of one server's agent as seen by
// the registry.
type AgentConnection struct {
	ServerID  uuid.UUID `json:"server_id"`
	Connected bool      `json:"connected"`
	LastSeen  time.Time `json:"last_seen"`
}

package services

import (
	"time"

	"github.com/google/uuid"
)

// CreateRequest represents the request payload for creating a service.
type CreateRequest struct {
	ProjectID uuid.UUID  `json:"project_id" validate:"required"`
	ServerID  *uuid.UUID `json:"server_id,omitempty"`
	Name      string     `json:"name"       validate:"required,min=1,max=128"`
	Image     string     `json:"image"      validate:"max=200"`
	Replicas  int        `json:"replicas"   validate:"min=1,max=100"`
}

// ScaleRequest represents the request payload for changing replicas.
type ScaleRequest struct {
	Replicas int `json:"replicas" validate:"required,min=1,max=100"`
}

// AssignServerRequest represents the request payload for placing a
// service on a server.
type AssignServerRequest struct {
	ServerID uuid.UUID `json:"server_id" validate:"required"`
}

// ServiceResponse represents the response payload for a service.
type ServiceResponse struct {
	ID        uuid.UUID  `json:"id"`
	ProjectID uuid.UUID  `json:"project_id"`
	ServerID  *uuid.UUID `json:"server_id,omitempty"`
	Name      string     `json:"name"`
	Image     string     `json:"image,omitempty"`
	Replicas  int        `json:"replicas"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

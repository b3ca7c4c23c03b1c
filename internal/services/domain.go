package services

import (
	"time"

	"github.com/google/uuid"
)

type ServiceDraft struct {
	// References
	ProjectID uuid.UUID
	ServerID  *uuid.UUID // Nil until the service is placed on a server

	// Basic Information
	Name string

	// Runtime State
	Image    string // Currently deployed artifact tag
	Replicas int    // Current replica count
}

type Service struct {
	ServiceDraft

	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

package agents

import "errors"

var (
	ErrNotConnected     = errors.New("agent not connected")
	ErrTransportFailure = errors.New("agent transport failure")
	ErrBadHandshake     = errors.New("agent handshake failed")
)

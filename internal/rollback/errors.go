package rollback

import "errors"

var (
	ErrInvalidTarget = errors.New("invalid rollback target")
	ErrNoImage       = errors.New("rollback target has no docker image")
	ErrNoServer      = errors.New("service has no assigned server")
	ErrServerOffline = errors.New("server agent is offline")
)

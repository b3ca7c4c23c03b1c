package deployments

import "errors"

var (
	ErrNotFound     = errors.New("deployment not found")
	ErrInvalidState = errors.New("operation not allowed in current status")
	ErrNotAllowed   = errors.New("operation not allowed")
	ErrNoContainer  = errors.New("deployment has no container")
	ErrValidation   = errors.New("invalid deployment")
)

package autoscaling

import "errors"

var (
	ErrNotFound   = errors.New("rule not found")
	ErrValidation = errors.New("invalid rule")
	ErrNotAllowed = errors.New("operation not allowed")
)

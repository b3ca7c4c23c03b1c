package promotions

import "errors"

var (
	ErrNotFound        = errors.New("promotion not found")
	ErrNotPending      = errors.New("promotion is not pending")
	ErrNotPromotable   = errors.New("deployment is not promotable")
	ErrNotActive       = errors.New("deployment is not active in any environment")
	ErrProjectMismatch = errors.New("deployment does not belong to the environment's project")
	ErrNotAllowed      = errors.New("operation not allowed")
)

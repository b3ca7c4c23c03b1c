package environments

import "errors"

var (
	ErrNotFound = errors.New("environment not found")
	ErrLocked   = errors.New("environment is locked")
)

package lock

import "errors"

// Sentinel kinds for lock errors.
var (
	ErrLockTimeout  = errors.New("lock timeout")
	ErrInvalidScope = errors.New("invalid lock scope")
)

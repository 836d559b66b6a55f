package service

import "errors"

// Sentinel kinds for service errors. Callers classify with errors.Is.
var (
	ErrInvalidName        = errors.New("name required")
	ErrInvalidProblem     = errors.New("invalid problem number")
	ErrUnknownParticipant = errors.New("participant is not registered")
	ErrNotStarted         = errors.New("service not started")
)

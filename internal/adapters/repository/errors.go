package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrCorrupt      = errors.New("stored document is corrupt")
	ErrNotFound     = errors.New("participant has no results")
	ErrInvalidLimit = errors.New("invalid leaderboard limit")
)

// Package types contains common types used across the application
package types

import "time"

// Entry represents a leaderboard entry
type Entry struct {
	Rank         int       `json:"rank"`
	Name         string    `json:"name"`
	Score        int       `json:"score"`
	Solved       int       `json:"solved"`
	LastAccepted time.Time `json:"last_accepted"`
}

// Before reports whether e places above o: higher score first, then the
// earlier last acceptance, then name.
func (e Entry) Before(o Entry) bool {
	if e.Score != o.Score {
		return e.Score > o.Score
	}
	if !e.LastAccepted.Equal(o.LastAccepted) {
		return e.LastAccepted.Before(o.LastAccepted)
	}
	return e.Name < o.Name
}

// Stats summarises service state for /stats.
type Stats struct {
	Started            bool `json:"started"`
	Participants       int  `json:"participants"`
	Results            int  `json:"results"`
	DedupeSize         int  `json:"dedupe_size"`
	TelemetryQueueSize int  `json:"telemetry_queue_size"`
	TelemetryQueueCap  int  `json:"telemetry_queue_capacity"`
}

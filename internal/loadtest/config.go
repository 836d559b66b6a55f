// Package loadtest drives a running leaderboard server with concurrent
// registrations and submissions and checks the resulting standings.
package loadtest

import "time"

// Config holds configuration for the load test.
type Config struct {
	BaseURL        string        // Base URL of the service
	Participants   int           // Number of participants to register
	Problems       int           // Problems are drawn from 1..Problems
	DuplicateRatio float64       // Share of submissions replayed as duplicates
	ScoreTable     []int         // Expected rank to score table
	Workers        int           // Number of concurrent workers
	Timeout        time.Duration // HTTP request timeout
	TopN           int           // Number of leaderboard entries to fetch
	NamePrefix     string        // Prefix for generated participant names
	OutputFile     string        // Optional file for the generated plan
	LogFile        string        // Log file for test output
	Verbose        bool          // Enable verbose logging
}

// Submission is one planned POST /submit.
type Submission struct {
	Name    string `json:"name"`
	Problem int    `json:"problem"`
	// Replay marks a deliberate duplicate of an earlier submission.
	Replay bool `json:"replay,omitempty"`
}

// Plan is the generated workload.
type Plan struct {
	Names       []string     `json:"names"`
	Submissions []Submission `json:"submissions"`
}

// Stats holds test statistics.
type Stats struct {
	Registered          int
	RegisterFailed      int
	SubmissionsPlanned  int
	SubmissionsSent     int
	SubmissionsAccepted int
	SubmissionsRepeated int
	SubmissionsFailed   int
	ProblemsChecked     int
	LeaderboardEntries  int
	StartTime           time.Time
	EndTime             time.Time
	Duration            time.Duration
}

// Package model contains domain models passed between layers.
package model

import (
	"strconv"
	"time"
)

// Participant is a registered identity. Names are unique and case-sensitive.
type Participant struct {
	Name string
}

// SubmissionResult is the durable record of an accepted submission.
// Fields mirror the results document written by the store.
type SubmissionResult struct {
	Name      string    `json:"name"`
	Problem   int       `json:"problem"`
	Score     int       `json:"score"`
	Rank      int       `json:"rank"`
	Timestamp time.Time `json:"timestamp"`
}

// Key identifies the (name, problem) pair a result was recorded for.
func (r SubmissionResult) Key() ResultKey {
	return ResultKey{Name: r.Name, Problem: r.Problem}
}

// ResultKey is the idempotency key for submissions.
type ResultKey struct {
	Name    string
	Problem int
}

// String renders the key as "<problem>/<name>".
func (k ResultKey) String() string {
	return strconv.Itoa(k.Problem) + "/" + k.Name
}

// Status is the caller-visible outcome of an operation.
type Status string

// Operation statuses reported over the API.
const (
	StatusRegistered        Status = "registered"
	StatusAlreadyRegistered Status = "already_registered"
	StatusSubmitted         Status = "submitted"
	StatusAlreadySubmitted  Status = "already_submitted"
	StatusError             Status = "error"
	StatusSent              Status = "sent"
	StatusOK                Status = "ok"
)

// Package repository persists participants and submission results as
// whole-document snapshots.
package repository

import (
	"context"

	"github.com/okian/podium/internal/domain/model"
)

// Collection names used in logs and metrics.
const (
	CollectionParticipants = "participants"
	CollectionResults      = "results"
)

// Store loads and saves the two leaderboard collections.
//
// A collection that has never been saved loads as empty. Save replaces the
// whole collection. Store does not serialise read-modify-write cycles;
// callers hold the matching lock scope around them.
type Store interface {
	// LoadParticipants returns registered names in registration order.
	LoadParticipants(ctx context.Context) ([]string, error)
	// SaveParticipants replaces the participant collection.
	SaveParticipants(ctx context.Context, names []string) error

	// LoadResults returns accepted results in acceptance order.
	LoadResults(ctx context.Context) ([]model.SubmissionResult, error)
	// SaveResults replaces the results collection.
	SaveResults(ctx context.Context, results []model.SubmissionResult) error
}

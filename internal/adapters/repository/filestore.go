package repository

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/pkg/jsonfile"
	"github.com/okian/podium/pkg/metrics"
)

// FileStore keeps each collection in its own JSON document under dir.
type FileStore struct {
	dir              string
	participantsFile string
	resultsFile      string
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates a FileStore rooted at dir. The directory is created
// on first save.
func NewFileStore(dir string, opts ...Option) *FileStore {
	s := &FileStore{
		dir:              dir,
		participantsFile: DefaultParticipantsFile,
		resultsFile:      DefaultResultsFile,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Dir returns the data directory.
func (s *FileStore) Dir() string { return s.dir }

// ParticipantsPath returns the participants document path.
func (s *FileStore) ParticipantsPath() string { return filepath.Join(s.dir, s.participantsFile) }

// ResultsPath returns the results document path.
func (s *FileStore) ResultsPath() string { return filepath.Join(s.dir, s.resultsFile) }

// LoadParticipants implements Store.LoadParticipants.
func (s *FileStore) LoadParticipants(ctx context.Context) ([]string, error) {
	var names []string
	if err := s.load(ctx, CollectionParticipants, s.ParticipantsPath(), &names); err != nil {
		return nil, err
	}
	return names, nil
}

// SaveParticipants implements Store.SaveParticipants.
func (s *FileStore) SaveParticipants(ctx context.Context, names []string) error {
	if names == nil {
		names = []string{}
	}
	return s.save(ctx, CollectionParticipants, s.ParticipantsPath(), names)
}

// LoadResults implements Store.LoadResults.
func (s *FileStore) LoadResults(ctx context.Context) ([]model.SubmissionResult, error) {
	var results []model.SubmissionResult
	if err := s.load(ctx, CollectionResults, s.ResultsPath(), &results); err != nil {
		return nil, err
	}
	return results, nil
}

// SaveResults implements Store.SaveResults.
func (s *FileStore) SaveResults(ctx context.Context, results []model.SubmissionResult) error {
	if results == nil {
		results = []model.SubmissionResult{}
	}
	return s.save(ctx, CollectionResults, s.ResultsPath(), results)
}

func (s *FileStore) load(ctx context.Context, collection, path string, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	defer func() {
		metrics.RecordStoreLatency(collection, "load", float64(time.Since(start).Microseconds())/1000)
	}()

	if _, err := jsonfile.Read(path, v); err != nil {
		metrics.RecordStoreError(collection, "load")
		if errors.Is(err, jsonfile.ErrDecode) {
			return fmt.Errorf("%w: %s: %v", ErrCorrupt, collection, err)
		}
		return fmt.Errorf("load %s: %w", collection, err)
	}
	return nil
}

func (s *FileStore) save(ctx context.Context, collection, path string, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	defer func() {
		metrics.RecordStoreLatency(collection, "save", float64(time.Since(start).Microseconds())/1000)
	}()

	if err := jsonfile.WriteAtomic(path, v); err != nil {
		metrics.RecordStoreError(collection, "save")
		return fmt.Errorf("save %s: %w", collection, err)
	}
	return nil
}

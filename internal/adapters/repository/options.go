package repository

// Default document names inside the data directory.
const (
	DefaultParticipantsFile = "users.json"
	DefaultResultsFile      = "results.json"
)

// Option applies a configuration option to the FileStore.
type Option func(*FileStore)

// WithParticipantsFile overrides the participants document name.
func WithParticipantsFile(name string) Option {
	return func(s *FileStore) {
		if name != "" {
			s.participantsFile = name
		}
	}
}

// WithResultsFile overrides the results document name.
func WithResultsFile(name string) Option {
	return func(s *FileStore) {
		if name != "" {
			s.resultsFile = name
		}
	}
}

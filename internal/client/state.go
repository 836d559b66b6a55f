package client

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"

	"github.com/okian/podium/pkg/jsonfile"
)

// DefaultStateFile is the local progress file name.
const DefaultStateFile = "user_state.json"

// State is the participant's local progress.
type State struct {
	Name      string `json:"name,omitempty"`
	Completed []int  `json:"completed"`
}

// Registered reports whether a name has been recorded.
func (s State) Registered() bool { return s.Name != "" }

// Solved reports whether problem was already submitted from this machine.
func (s State) Solved(problem int) bool { return slices.Contains(s.Completed, problem) }

// StateStore persists State as a JSON document.
type StateStore struct {
	path string
}

// NewStateStore returns a store backed by path.
func NewStateStore(path string) *StateStore {
	return &StateStore{path: path}
}

// Path returns the backing file.
func (s *StateStore) Path() string { return s.path }

// Load reads the state. A missing file is an empty state.
func (s *StateStore) Load() (State, error) {
	var st State
	if _, err := jsonfile.Read(s.path, &st); err != nil {
		return State{}, fmt.Errorf("load state: %w", err)
	}
	if st.Completed == nil {
		st.Completed = []int{}
	}
	return st, nil
}

// Save replaces the state atomically.
func (s *StateStore) Save(st State) error {
	if st.Completed == nil {
		st.Completed = []int{}
	}
	if err := jsonfile.WriteAtomic(s.path, st); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

// MarkSolved records problem as completed.
func (s *StateStore) MarkSolved(problem int) error {
	st, err := s.Load()
	if err != nil {
		return err
	}
	if st.Solved(problem) {
		return nil
	}
	st.Completed = append(st.Completed, problem)
	return s.Save(st)
}

// Reset deletes the state file.
func (s *StateStore) Reset() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("reset state: %w", err)
	}
	return nil
}

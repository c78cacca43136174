// Package state persists the devenv state document.
//
// Every mutation is a read-modify-write of the whole file. There is no
// locking: concurrent writers race and the last write wins.
package state

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/devenv"
	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/system"
)

// Store reads and writes the state document at a fixed path.
type Store struct {
	path string
	fs   system.FileSystem
}

// NewStore creates a Store for path.
func NewStore(path string, fsys system.FileSystem) *Store {
	if fsys == nil {
		fsys = system.DefaultFS()
	}
	return &Store{path: path, fs: fsys}
}

// Path returns the state file location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the state document. A missing or blank file yields an empty
// document.
func (s *Store) Load() (*devenv.State, error) {
	data, err := s.fs.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return devenv.NewState(), nil
		}
		return nil, fmt.Errorf("failed to read devenv state %s: %w", s.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return devenv.NewState(), nil
	}

	var st devenv.State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("failed to parse devenv state %s: %w", s.path, err)
	}
	st.Normalize()
	return &st, nil
}

// Save writes the whole document, creating the parent directory.
func (s *Store) Save(st *devenv.State) error {
	if err := s.fs.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	st.Normalize()
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal devenv state: %w", err)
	}
	data = append(data, '\n')

	if err := s.fs.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write devenv state: %w", err)
	}
	return nil
}

// Update loads the document, applies fn, and saves the result. When fn
// reports no change the file is left untouched.
func (s *Store) Update(fn func(st *devenv.State) bool) (*devenv.State, error) {
	st, err := s.Load()
	if err != nil {
		return nil, err
	}
	if !fn(st) {
		return st, nil
	}
	if err := s.Save(st); err != nil {
		return nil, err
	}
	return st, nil
}

// Record returns the record stored under projectID.
func (s *Store) Record(projectID string) (devenv.Record, bool, error) {
	st, err := s.Load()
	if err != nil {
		return devenv.Record{}, false, err
	}
	rec, ok := st.Envs[projectID]
	return rec, ok, nil
}

// UpsertRecord stores rec under its ProjectID.
func (s *Store) UpsertRecord(rec devenv.Record) (*devenv.State, error) {
	return s.Update(func(st *devenv.State) bool {
		st.Envs[rec.ProjectID] = rec
		return true
	})
}

// RemoveRecord deletes the record stored under projectID.
func (s *Store) RemoveRecord(projectID string) (*devenv.State, error) {
	return s.Update(func(st *devenv.State) bool {
		if _, ok := st.Envs[projectID]; !ok {
			return false
		}
		delete(st.Envs, projectID)
		return true
	})
}

// MoveRecord stores rec under its ProjectID and drops oldKey in a single
// write. A route recorded under oldKey moves with it.
func (s *Store) MoveRecord(oldKey string, rec devenv.Record) (*devenv.State, error) {
	return s.Update(func(st *devenv.State) bool {
		if oldKey != rec.ProjectID {
			delete(st.Envs, oldKey)
			if route, ok := st.Routes[oldKey]; ok {
				delete(st.Routes, oldKey)
				route.ProjectID = rec.ProjectID
				st.Routes[rec.ProjectID] = route
			}
		}
		st.Envs[rec.ProjectID] = rec
		return true
	})
}

// UpsertRoute stores route under its ProjectID.
func (s *Store) UpsertRoute(route devenv.RouteRecord) (*devenv.State, error) {
	return s.Update(func(st *devenv.State) bool {
		st.Routes[route.ProjectID] = route
		return true
	})
}

// RemoveRoute deletes the route stored under projectID.
func (s *Store) RemoveRoute(projectID string) (*devenv.State, error) {
	return s.Update(func(st *devenv.State) bool {
		if _, ok := st.Routes[projectID]; !ok {
			return false
		}
		delete(st.Routes, projectID)
		return true
	})
}

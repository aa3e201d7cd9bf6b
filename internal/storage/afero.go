package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/spf13/afero"
)

// AferoStore writes each snapshot to {dir}/{id}.json on an afero filesystem.
// Use afero.NewOsFs in production and afero.NewMemMapFs in tests.
type AferoStore struct {
	fs  afero.Fs
	dir string
}

// NewAferoStore creates a new AferoStore.
func NewAferoStore(fsys afero.Fs, dir string) *AferoStore {
	return &AferoStore{fs: fsys, dir: dir}
}

func (s *AferoStore) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// Save writes the snapshot to a temporary file and renames it into place so
// readers never see a partial file.
func (s *AferoStore) Save(_ context.Context, snap Snapshot) error {
	if err := checkID(snap.ID); err != nil {
		return err
	}
	if err := s.fs.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	tmp := s.path(snap.ID) + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := s.fs.Rename(tmp, s.path(snap.ID)); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("failed to move snapshot into place: %w", err)
	}
	return nil
}

func (s *AferoStore) Load(_ context.Context, id string) (Snapshot, error) {
	if err := checkID(id); err != nil {
		return Snapshot{}, err
	}
	data, err := afero.ReadFile(s.fs, s.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return Snapshot{}, ErrNotFound
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("failed to decode snapshot %s: %w", id, err)
	}
	return snap, nil
}

// Delete removes the snapshot. Deleting a missing snapshot is not an error.
func (s *AferoStore) Delete(_ context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	err := s.fs.Remove(s.path(id))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

// Package storage persists game snapshots so a game survives a restart.
package storage

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/nfrund/planspiel/internal/game"
)

// ErrNotFound is returned by Load when no snapshot exists for an id.
var ErrNotFound = errors.New("snapshot not found")

// ErrInvalidID is returned for ids that cannot be used as file or record names.
var ErrInvalidID = errors.New("invalid snapshot id")

var validID = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// Snapshot is a saved game.
type Snapshot struct {
	ID      string         `json:"id"`
	SavedAt time.Time      `json:"savedAt"`
	State   game.GameState `json:"state"`
}

// Store defines the interface for a snapshot storage backend.
type Store interface {
	Save(ctx context.Context, snap Snapshot) error
	Load(ctx context.Context, id string) (Snapshot, error)
	Delete(ctx context.Context, id string) error
}

func checkID(id string) error {
	if !validID.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

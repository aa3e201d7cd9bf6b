package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/surrealdb/surrealdb.go"

	"github.com/nfrund/planspiel/internal/config"
)

// SnapshotTable is the SurrealDB table holding snapshots.
const SnapshotTable = "planspiel_snapshot"

// Executor defines the interface for executing database queries
type Executor interface {
	// QueryOne executes a query and decodes the first row into result. It
	// reports false when the query returned no rows.
	QueryOne(ctx context.Context, query string, params map[string]any, result any) (bool, error)

	// Execute runs a query that doesn't return rows
	Execute(ctx context.Context, query string, params map[string]any) error
}

// NewDB creates and configures a new SurrealDB connection.
func NewDB(ctx context.Context, cfg config.Provider) (*surrealdb.DB, error) {
	db, err := surrealdb.FromEndpointURLString(ctx, cfg.GetDBUrl())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to surrealdb: %w", err)
	}

	if cfg.GetDBUser() != "" {
		authData := &surrealdb.Auth{
			Username: cfg.GetDBUser(),
			Password: cfg.GetDBPass(),
		}
		if _, err = db.SignIn(ctx, authData); err != nil {
			db.Close(ctx)
			return nil, fmt.Errorf("failed to sign in: %w", err)
		}
	}

	if err = db.Use(ctx, cfg.GetDBNs(), cfg.GetDBDb()); err != nil {
		db.Close(ctx)
		return nil, fmt.Errorf("failed to use namespace/db: %w", err)
	}

	slog.Info("Successfully signed in to SurrealDB", "namespace", cfg.GetDBNs(), "database", cfg.GetDBDb())
	return db, nil
}

// NewExecutor creates a new executor instance
func NewExecutor(db *surrealdb.DB) Executor {
	return &executor{db: db}
}

type executor struct {
	db *surrealdb.DB
}

func (e *executor) QueryOne(ctx context.Context, query string, params map[string]any, result any) (bool, error) {
	queryResults, err := surrealdb.Query[[]any](ctx, e.db, query, params)
	if err != nil {
		return false, fmt.Errorf("query execution failed: %w", err)
	}
	if queryResults == nil || len(*queryResults) == 0 || len((*queryResults)[0].Result) == 0 {
		return false, nil
	}
	// Round-trip through JSON to decode into the caller's type.
	data, err := json.Marshal((*queryResults)[0].Result[0])
	if err != nil {
		return false, fmt.Errorf("failed to marshal query result: %w", err)
	}
	return true, json.Unmarshal(data, result)
}

func (e *executor) Execute(ctx context.Context, query string, params map[string]any) error {
	if _, err := surrealdb.Query[any](ctx, e.db, query, params); err != nil {
		return fmt.Errorf("query execution failed: %w", err)
	}
	return nil
}

// SurrealStore keeps snapshots in SurrealDB. The game state is stored as a
// JSON document string so that it round-trips exactly.
type SurrealStore struct {
	exec Executor
}

// NewSurrealStore creates a store over exec.
func NewSurrealStore(exec Executor) *SurrealStore {
	return &SurrealStore{exec: exec}
}

type snapshotRow struct {
	State   string `json:"state"`
	SavedAt string `json:"saved_at"`
}

func (s *SurrealStore) Save(ctx context.Context, snap Snapshot) error {
	if err := checkID(snap.ID); err != nil {
		return err
	}
	state, err := json.Marshal(snap.State)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	query := "UPSERT type::thing($tb, $id) CONTENT { state: $state, saved_at: $saved_at, round: $round }"
	params := map[string]any{
		"tb":       SnapshotTable,
		"id":       snap.ID,
		"state":    string(state),
		"saved_at": snap.SavedAt.UTC().Format(time.RFC3339Nano),
		"round":    snap.State.CurrentRound,
	}
	if err := s.exec.Execute(ctx, query, params); err != nil {
		return fmt.Errorf("failed to save snapshot %s: %w", snap.ID, err)
	}
	return nil
}

func (s *SurrealStore) Load(ctx context.Context, id string) (Snapshot, error) {
	if err := checkID(id); err != nil {
		return Snapshot{}, err
	}
	var row snapshotRow
	found, err := s.exec.QueryOne(ctx, "SELECT state, saved_at FROM type::thing($tb, $id)", map[string]any{
		"tb": SnapshotTable,
		"id": id,
	}, &row)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to load snapshot %s: %w", id, err)
	}
	if !found {
		return Snapshot{}, ErrNotFound
	}

	snap := Snapshot{ID: id}
	if err := json.Unmarshal([]byte(row.State), &snap.State); err != nil {
		return Snapshot{}, fmt.Errorf("failed to decode snapshot %s: %w", id, err)
	}
	snap.SavedAt, _ = time.Parse(time.RFC3339Nano, row.SavedAt)
	return snap, nil
}

func (s *SurrealStore) Delete(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	return s.exec.Execute(ctx, "DELETE type::thing($tb, $id)", map[string]any{
		"tb": SnapshotTable,
		"id": id,
	})
}

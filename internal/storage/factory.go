package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/afero"

	"github.com/nfrund/planspiel/internal/config"
)

// Open returns the store selected by SNAPSHOT_BACKEND and a function that
// releases its resources.
func Open(ctx context.Context, cfg config.Provider) (Store, func(context.Context), error) {
	noop := func(context.Context) {}

	switch cfg.GetSnapshotBackend() {
	case "", "memory":
		return NewMemoryStore(), noop, nil

	case "file":
		slog.Info("Using file snapshot store", "dir", cfg.GetSnapshotDir())
		return NewAferoStore(afero.NewOsFs(), cfg.GetSnapshotDir()), noop, nil

	case "surreal":
		db, err := NewDB(ctx, cfg)
		if err != nil {
			return nil, noop, err
		}
		return NewSurrealStore(NewExecutor(db)), func(ctx context.Context) { db.Close(ctx) }, nil

	default:
		return nil, noop, fmt.Errorf("unknown snapshot backend %q", cfg.GetSnapshotBackend())
	}
}

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/planspiel/internal/game"
)

func sampleSnapshot(t *testing.T) Snapshot {
	t.Helper()
	clock := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	e := game.New(game.WithSeed(3), game.WithClock(func() time.Time { return clock }))
	t.Cleanup(e.Close)

	require.NoError(t, e.StartGame([]game.PlayerInfo{{ID: "p1", Name: "Anna", Role: "Stadtwerke"}}))
	require.NoError(t, e.MakeInvestment("p1", game.Investment{ID: "solar_pv", Name: "Solar", Cost: 1200, Benefits: game.Benefits{CO2Reduction: 4}}))
	require.NoError(t, e.MakeForecast("p1", "base_case", json.RawMessage(`{"costs":1000}`)))

	return Snapshot{ID: "current", SavedAt: clock, State: e.State()}
}

func storeContract(t *testing.T, s Store) {
	ctx := context.Background()
	snap := sampleSnapshot(t)

	_, err := s.Load(ctx, "current")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Save(ctx, snap))
	got, err := s.Load(ctx, "current")
	require.NoError(t, err)
	assert.True(t, snap.SavedAt.Equal(got.SavedAt))
	if diff := cmp.Diff(snap.State, got.State); diff != "" {
		t.Errorf("state mismatch (-want +got):\n%s", diff)
	}

	// Later saves replace earlier ones.
	snap.State.CurrentRound = 4
	require.NoError(t, s.Save(ctx, snap))
	got, err = s.Load(ctx, "current")
	require.NoError(t, err)
	assert.Equal(t, 4, got.State.CurrentRound)

	require.NoError(t, s.Delete(ctx, "current"))
	_, err = s.Load(ctx, "current")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, s.Delete(ctx, "current"), "deleting twice is fine")

	assert.ErrorIs(t, s.Save(ctx, Snapshot{ID: "../escape"}), ErrInvalidID)
}

func TestMemoryStore(t *testing.T) {
	storeContract(t, NewMemoryStore())
}

func TestMemoryStore_IsolatesCallers(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	snap := sampleSnapshot(t)
	require.NoError(t, s.Save(ctx, snap))

	snap.State.Players[0].Budget = 1
	got, err := s.Load(ctx, "current")
	require.NoError(t, err)
	assert.Equal(t, game.StartingBudget-1200, got.State.Players[0].Budget)

	got.State.Players[0].Name = "changed"
	again, _ := s.Load(ctx, "current")
	assert.Equal(t, "Anna", again.State.Players[0].Name)
}

func TestAferoStore(t *testing.T) {
	storeContract(t, NewAferoStore(afero.NewMemMapFs(), "snapshots"))
}

func TestAferoStore_WritesJSONFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := NewAferoStore(fs, "data/snapshots")
	require.NoError(t, s.Save(context.Background(), sampleSnapshot(t)))

	ok, err := afero.Exists(fs, "data/snapshots/current.json")
	require.NoError(t, err)
	assert.True(t, ok)
	tmp, _ := afero.Exists(fs, "data/snapshots/current.json.tmp")
	assert.False(t, tmp)

	data, err := afero.ReadFile(fs, "data/snapshots/current.json")
	require.NoError(t, err)
	assert.Contains(t, string(data), `"currentRound":1`)
}

func TestAferoStore_CorruptFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "snaps/bad.json", []byte("{"), 0644))

	_, err := NewAferoStore(fs, "snaps").Load(context.Background(), "bad")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

// fakeExecutor emulates the three statements SurrealStore issues.
type fakeExecutor struct {
	rows    map[string]snapshotRow
	queries []string
	fail    error
}

func newFakeExecutor() *fakeExecutor {
	return &fakeExecutor{rows: map[string]snapshotRow{}}
}

func (f *fakeExecutor) QueryOne(_ context.Context, query string, params map[string]any, result any) (bool, error) {
	f.queries = append(f.queries, query)
	if f.fail != nil {
		return false, f.fail
	}
	row, ok := f.rows[params["id"].(string)]
	if !ok {
		return false, nil
	}
	data, _ := json.Marshal(row)
	return true, json.Unmarshal(data, result)
}

func (f *fakeExecutor) Execute(_ context.Context, query string, params map[string]any) error {
	f.queries = append(f.queries, query)
	if f.fail != nil {
		return f.fail
	}
	id := params["id"].(string)
	if params["state"] == nil {
		delete(f.rows, id)
		return nil
	}
	f.rows[id] = snapshotRow{State: params["state"].(string), SavedAt: params["saved_at"].(string)}
	return nil
}

func TestSurrealStore(t *testing.T) {
	exec := newFakeExecutor()
	storeContract(t, NewSurrealStore(exec))
	assert.Contains(t, exec.queries, "DELETE type::thing($tb, $id)")
}

func TestSurrealStore_WrapsExecutorErrors(t *testing.T) {
	exec := newFakeExecutor()
	exec.fail = errors.New("connection reset")
	s := NewSurrealStore(exec)

	err := s.Save(context.Background(), sampleSnapshot(t))
	assert.ErrorContains(t, err, "connection reset")

	_, err = s.Load(context.Background(), "current")
	assert.ErrorContains(t, err, "connection reset")
	assert.NotErrorIs(t, err, ErrNotFound)
}

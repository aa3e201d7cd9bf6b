package ui

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/planspiel/internal/catalog"
	"github.com/nfrund/planspiel/internal/game"
	"github.com/nfrund/planspiel/internal/schedule"
	"github.com/nfrund/planspiel/internal/storage"
)

var t0 = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

type recordedRejections struct {
	mu      sync.Mutex
	reasons []string
}

func (r *recordedRejections) RecordRejected(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reasons = append(r.reasons, reason)
}

type harness struct {
	ctrl       *Controller
	sched      *schedule.Manual
	store      *storage.MemoryStore
	rejections *recordedRejections
	changes    []string
}

func newHarness(t *testing.T, opts ...game.Option) *harness {
	t.Helper()
	h := &harness{
		sched:      schedule.NewManual(t0),
		store:      storage.NewMemoryStore(),
		rejections: &recordedRejections{},
	}
	h.ctrl = New(Dependencies{
		NewEngine: func() *game.Engine {
			base := []game.Option{
				game.WithScheduler(h.sched),
				game.WithSeed(11),
				game.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
			}
			return game.New(append(base, opts...)...)
		},
		Store:      h.store,
		Rejections: h.rejections,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	h.ctrl.OnChange(func(ch Change) { h.changes = append(h.changes, ch.Event) })
	t.Cleanup(h.ctrl.Close)
	return h
}

func (h *harness) start(t *testing.T, names ...string) []game.PlayerInfo {
	t.Helper()
	var infos []game.PlayerInfo
	for _, n := range names {
		info, err := h.ctrl.AddPlayer(n, "stadtwerke")
		require.NoError(t, err)
		infos = append(infos, info)
	}
	require.NoError(t, h.ctrl.StartGame())
	return infos
}

func TestStartGame_EmptyRosterIsRejected(t *testing.T) {
	h := newHarness(t)

	err := h.ctrl.StartGame()

	require.ErrorIs(t, err, ErrEmptyRoster)
	assert.Equal(t, MsgEmptyRoster, Message(err))
	v := h.ctrl.View()
	assert.Equal(t, MsgEmptyRoster, v.Notice)
	assert.Equal(t, StatusReady, v.Status)
	assert.False(t, v.Started)
	assert.Contains(t, h.changes, ChangeNotice)
}

func TestAddPlayer_Validation(t *testing.T) {
	h := newHarness(t)

	_, err := h.ctrl.AddPlayer("   ", "stadtplaner")
	assert.ErrorIs(t, err, ErrInvalidPlayer)

	_, err = h.ctrl.AddPlayer("Anna", "buergermeister")
	assert.ErrorIs(t, err, ErrUnknownRole)

	info, err := h.ctrl.AddPlayer(" Anna ", "klimaschutz")
	require.NoError(t, err)
	assert.Equal(t, "Anna", info.Name)
	assert.NotEmpty(t, info.ID)

	v := h.ctrl.View()
	require.Len(t, v.Roster, 1)
	assert.Equal(t, "Klimaschutz-Manager*in", RoleName(v.Roster[0].Role))

	require.NoError(t, h.ctrl.RemovePlayer(info.ID))
	assert.Empty(t, h.ctrl.View().Roster)
	assert.ErrorIs(t, h.ctrl.RemovePlayer(info.ID), game.ErrPlayerNotFound)
}

func TestStartGame_ShowsAnalysisAndSavesSnapshot(t *testing.T) {
	h := newHarness(t)
	infos := h.start(t, "Anna", "Ben")

	v := h.ctrl.View()
	assert.Equal(t, StatusRunning, v.Status)
	assert.True(t, v.Started)
	assert.Equal(t, game.PhaseAnalysis, v.Phase)
	assert.Equal(t, "Analysephase", v.PhaseName)
	assert.Equal(t, "Studieren Sie IST-Zustand und Trends (3-5 Min)", v.PhaseDescription)
	assert.Equal(t, phaseSummaries[game.PhaseAnalysis], v.Summary)
	assert.Equal(t, 1, v.Round)
	assert.Equal(t, 2024, v.Year)
	assert.Equal(t, t0.Add(300*time.Second), v.Deadline)
	require.NotNil(t, v.Analysis)
	assert.False(t, v.ShowInvestments)

	require.Len(t, v.Players, 2)
	assert.Equal(t, infos[0].ID, v.Players[0].PlayerID)
	assert.Equal(t, game.StartingBudget, v.Players[0].Budget)
	assert.Zero(t, v.Players[0].Invested)

	snap, err := h.store.Load(context.Background(), DefaultSnapshotID)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.State.CurrentRound)
	assert.Len(t, snap.State.Players, 2)

	_, err = h.ctrl.AddPlayer("Cem", "stadtplaner")
	assert.ErrorIs(t, err, ErrGameInProgress)
}

func TestTimer_CountdownAndPhaseChange(t *testing.T) {
	h := newHarness(t)
	h.start(t, "Anna")

	h.sched.Advance(60 * time.Second)
	v := h.ctrl.View()
	assert.Equal(t, 240*time.Second, v.Remaining(h.sched.Now()))
	assert.InDelta(t, 0.2, v.Progress(h.sched.Now()), 1e-9)

	h.sched.Advance(240 * time.Second)
	v = h.ctrl.View()
	assert.Equal(t, game.PhasePlanning, v.Phase)
	assert.True(t, v.ShowInvestments)
	assert.Len(t, v.Offers, 5)
	assert.Equal(t, game.ForecastScenarios, v.ForecastScenarios)
	assert.Equal(t, phaseSummaries[game.PhasePlanning], v.Summary)
}

func TestInvest_UpdatesDashboard(t *testing.T) {
	h := newHarness(t)
	infos := h.start(t, "Anna")
	require.NoError(t, h.ctrl.Skip())

	offers := h.ctrl.View().Offers
	require.NotEmpty(t, offers)
	require.NoError(t, h.ctrl.Invest(infos[0].ID, offers[0].ID))
	require.NoError(t, h.ctrl.Invest(infos[0].ID, offers[1].ID))

	d, ok := h.ctrl.View().Dashboard(infos[0].ID)
	require.True(t, ok)
	assert.Equal(t, 2, d.Investments)
	assert.Equal(t, offers[0].Cost+offers[1].Cost, d.Invested)
	assert.Equal(t, game.StartingBudget-d.Invested, d.Budget)
	assert.Equal(t, 10.0, d.CO2Reduction)
	assert.Equal(t, 2000.0, d.CostSavings)
	assert.Equal(t, 2, d.Resilience)
	assert.Empty(t, h.rejections.reasons)
}

func TestInvest_Rejections(t *testing.T) {
	expensive := catalog.Default()
	for i := range expensive.Technologies {
		if expensive.Technologies[i].ID == "heat_pump" {
			expensive.Technologies[i].Cost.Flat = 2_000_000
		}
	}
	h := newHarness(t, game.WithCatalog(catalog.NewSource(expensive)))
	infos := h.start(t, "Anna")
	require.NoError(t, h.ctrl.Skip())

	err := h.ctrl.Invest(infos[0].ID, "heat_pump")
	require.ErrorIs(t, err, game.ErrInsufficientBudget)
	assert.Equal(t, MsgInsufficientBudget, h.ctrl.View().Notice)

	err = h.ctrl.Invest(infos[0].ID, "fusion_reactor")
	require.ErrorIs(t, err, ErrUnknownOffer)

	err = h.ctrl.Invest("nobody", "solar_pv")
	require.ErrorIs(t, err, game.ErrPlayerNotFound)

	d, _ := h.ctrl.View().Dashboard(infos[0].ID)
	assert.Equal(t, game.StartingBudget, d.Budget)
	assert.Equal(t, []string{"insufficient_budget", "unknown_offer", "player_not_found"}, h.rejections.reasons)

	// The notice lasts until the next phase starts.
	require.NoError(t, h.ctrl.Skip())
	assert.Empty(t, h.ctrl.View().Notice)
}

func TestForecast(t *testing.T) {
	h := newHarness(t)
	infos := h.start(t, "Anna")

	require.NoError(t, h.ctrl.Forecast(infos[0].ID, "base_case", json.RawMessage(`{"co2":1}`)))
	require.NoError(t, h.ctrl.Forecast(infos[0].ID, "base_case", json.RawMessage(`{"co2":2}`)))
	assert.ErrorIs(t, h.ctrl.Forecast(infos[0].ID, "doom", nil), ErrUnknownScenario)
	assert.ErrorIs(t, h.ctrl.Forecast(infos[0].ID, "high_prices", json.RawMessage(`{`)), game.ErrInvalidForecast)

	p, ok := h.ctrl.State().Player(infos[0].ID)
	require.True(t, ok)
	assert.JSONEq(t, `{"co2":2}`, string(p.Forecasts["base_case"]))
}

func TestPhases_SummariesAndPanels(t *testing.T) {
	h := newHarness(t)
	h.start(t, "Anna")

	require.NoError(t, h.ctrl.Skip()) // planning
	require.NoError(t, h.ctrl.Skip()) // events
	v := h.ctrl.View()
	assert.True(t, v.ShowEvents)
	assert.True(t, v.ShowInvestments)
	assert.NotNil(t, v.Events)
	assert.Equal(t, phaseSummaries[game.PhaseEvents], v.Summary)

	require.NoError(t, h.ctrl.Skip()) // reality
	v = h.ctrl.View()
	require.NotNil(t, v.Reality)
	assert.Equal(t, "Die Realität weicht von Ihren Prognosen ab.", v.Summary)

	require.NoError(t, h.ctrl.Skip()) // evaluation
	v = h.ctrl.View()
	require.NotNil(t, v.Evaluation)
	assert.Equal(t, game.Lessons, v.Evaluation.Lessons)

	require.NoError(t, h.ctrl.Skip()) // round 2
	v = h.ctrl.View()
	assert.Equal(t, 1, v.LastRound)
	assert.Equal(t, 2, v.Round)
	assert.Equal(t, 2025, v.Year)
	assert.False(t, v.ShowEvents)
	assert.False(t, v.ShowInvestments)
	assert.Nil(t, v.Reality)

	snap, err := h.store.Load(context.Background(), DefaultSnapshotID)
	require.NoError(t, err)
	assert.Equal(t, 2, snap.State.CurrentRound)
	assert.Len(t, snap.State.RoundHistory, 1)
}

func TestGameEnd(t *testing.T) {
	h := newHarness(t, game.WithMaxRounds(1))
	h.start(t, "Anna")
	for range game.Phases {
		require.NoError(t, h.ctrl.Skip())
	}

	v := h.ctrl.View()
	assert.True(t, v.Ended)
	assert.Equal(t, StatusEnded, v.Status)
	assert.Equal(t, game.PhaseEnded, v.Phase)
	assert.Equal(t, MsgFinalResults, v.Summary)
	require.NotNil(t, v.Final)
	assert.True(t, v.Deadline.IsZero())
	assert.Contains(t, h.changes, string(game.EventGameEnded))

	assert.ErrorIs(t, h.ctrl.Skip(), game.ErrGameEnded)

	// A new game may be set up once the old one ended.
	_, err := h.ctrl.AddPlayer("Ben", "stadtplaner")
	assert.NoError(t, err)

	snap, err := h.store.Load(context.Background(), DefaultSnapshotID)
	require.NoError(t, err)
	assert.True(t, snap.State.Ended)
}

func TestReset_DiscardsGameAndSnapshot(t *testing.T) {
	var attached, detached int
	h := newHarness(t)
	h.ctrl.deps.Hooks = []Hook{func(*game.Engine) func() {
		attached++
		return func() { detached++ }
	}}

	h.start(t, "Anna")
	old := h.ctrl.Engine()

	require.NoError(t, h.ctrl.Reset(context.Background()))

	assert.NotSame(t, old, h.ctrl.Engine())
	assert.Equal(t, 1, attached)
	assert.Equal(t, 0, detached, "hooks added after New are attached on reset only")

	v := h.ctrl.View()
	assert.Equal(t, StatusReady, v.Status)
	assert.Empty(t, v.Roster)
	assert.Empty(t, v.Players)
	assert.Contains(t, h.changes, ChangeReset)

	_, err := h.store.Load(context.Background(), DefaultSnapshotID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.Zero(t, h.sched.Pending(), "old engine's timer is cancelled")

	require.NoError(t, h.ctrl.Reset(context.Background()))
	assert.Equal(t, 2, attached)
	assert.Equal(t, 1, detached)
}

func TestReset_IgnoresOldEngine(t *testing.T) {
	h := newHarness(t)
	h.start(t, "Anna")
	old := h.ctrl.Engine()
	require.NoError(t, h.ctrl.Reset(context.Background()))

	require.NoError(t, old.StartGame([]game.PlayerInfo{{ID: "ghost"}}))

	v := h.ctrl.View()
	assert.False(t, v.Started)
	assert.Empty(t, v.Players)
}

// stallingStore holds Delete until release is closed.
type stallingStore struct {
	*storage.MemoryStore
	entered chan struct{}
	release chan struct{}
}

func (s *stallingStore) Delete(ctx context.Context, id string) error {
	close(s.entered)
	<-s.release
	return s.MemoryStore.Delete(ctx, id)
}

func TestReset_EngineStaysUsableWhileSnapshotIsDeleted(t *testing.T) {
	sched := schedule.NewManual(t0)
	store := &stallingStore{
		MemoryStore: storage.NewMemoryStore(),
		entered:     make(chan struct{}),
		release:     make(chan struct{}),
	}
	ctrl := New(Dependencies{
		NewEngine: func() *game.Engine {
			return game.New(game.WithScheduler(sched), game.WithSeed(11),
				game.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
		},
		Store:  store,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	t.Cleanup(ctrl.Close)

	_, err := ctrl.AddPlayer("Anna", "stadtwerke")
	require.NoError(t, err)
	require.NoError(t, ctrl.StartGame())
	old := ctrl.Engine()

	done := make(chan error, 1)
	go func() { done <- ctrl.Reset(context.Background()) }()
	<-store.entered

	require.NotPanics(t, func() {
		assert.ErrorIs(t, ctrl.Skip(), game.ErrGameNotRunning)
		assert.Zero(t, ctrl.State().CurrentRound)
		assert.ErrorIs(t, ctrl.StartGame(), ErrEmptyRoster)
	})
	assert.NotSame(t, old, ctrl.Engine())

	close(store.release)
	require.NoError(t, <-done)
}

func TestRestore_ResumesStoredGame(t *testing.T) {
	h := newHarness(t)
	infos := h.start(t, "Anna")
	require.NoError(t, h.ctrl.Skip())
	require.NoError(t, h.ctrl.Invest(infos[0].ID, h.ctrl.View().Offers[0].ID))
	for range 4 {
		require.NoError(t, h.ctrl.Skip())
	}

	fresh := New(Dependencies{
		NewEngine: func() *game.Engine {
			return game.New(game.WithScheduler(h.sched), game.WithSeed(5))
		},
		Store:  h.store,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	t.Cleanup(fresh.Close)

	ok, err := fresh.Restore(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	v := fresh.View()
	assert.Equal(t, StatusRunning, v.Status)
	assert.Equal(t, 2, v.Round)
	assert.Equal(t, game.PhaseAnalysis, v.Phase)
	require.Len(t, v.Roster, 1)
	assert.Equal(t, infos[0].ID, v.Roster[0].ID)
	d, ok := v.Dashboard(infos[0].ID)
	require.True(t, ok)
	assert.Equal(t, 1, d.Investments)
}

func TestRestore_NoSnapshot(t *testing.T) {
	h := newHarness(t)
	ok, err := h.ctrl.Restore(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMessage(t *testing.T) {
	assert.Empty(t, Message(nil))
	assert.Equal(t, MsgInsufficientBudget, Message(game.ErrInsufficientBudget))
	assert.Equal(t, "Ein unerwarteter Fehler ist aufgetreten.", Message(assert.AnError))
}

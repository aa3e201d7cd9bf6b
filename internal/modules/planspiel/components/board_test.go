package components

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"maragu.dev/gomponents"

	"github.com/nfrund/planspiel/internal/game"
	"github.com/nfrund/planspiel/internal/schedule"
	"github.com/nfrund/planspiel/internal/storage"
	"github.com/nfrund/planspiel/internal/ui"
	"github.com/nfrund/planspiel/internal/view"
)

var now = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func render(t *testing.T, n gomponents.Node) string {
	t.Helper()
	var b strings.Builder
	require.NoError(t, n.Render(&b))
	return b.String()
}

func running() ui.View {
	return ui.View{
		Status:            ui.StatusRunning,
		Started:           true,
		Round:             2,
		MaxRounds:         10,
		Year:              2026,
		Phase:             game.PhasePlanning,
		PhaseName:         game.PhasePlanning.DisplayName(),
		Deadline:          now.Add(90 * time.Second),
		PhaseDuration:     game.PhasePlanning.Duration(),
		Roster:            []game.PlayerInfo{{ID: "p1", Name: "Anna", Role: "stadtwerke"}},
		ShowInvestments:   true,
		Offers:            []game.Investment{{ID: "heat_pump", Name: "Wärmepumpe", Cost: 15000}},
		ForecastScenarios: game.ForecastScenarios,
	}
}

func TestEventTitle(t *testing.T) {
	assert.Equal(t, "GAS CRISIS", EventTitle("gas_crisis"))
	assert.Equal(t, "HEATWAVE", EventTitle("heatwave"))
}

func TestStatus(t *testing.T) {
	out := render(t, Status(running(), false))
	assert.Contains(t, out, ui.StatusRunning)
	assert.Contains(t, out, "Runde 2 von 10 · Jahr 2026")
	assert.Contains(t, out, "bg-success")
	assert.NotContains(t, out, "hx-swap-oob")
}

func TestOOB_MarksEveryPanel(t *testing.T) {
	out := render(t, OOB(running(), now, AllPanels...))
	for _, id := range AllPanels {
		assert.Contains(t, out, `id="`+id+`"`)
	}
	assert.Equal(t, len(AllPanels), strings.Count(out, `hx-swap-oob="true"`))
}

func TestForecast_OnlyInAnalysisAndPlanning(t *testing.T) {
	v := running()
	assert.Contains(t, render(t, Forecast(v, false)), `hx-post="/game/forecast"`)

	v.Phase = game.PhaseEvents
	assert.Equal(t, `<div id="forecast-panel" class="d-none"></div>`, render(t, Forecast(v, false)))
}

func TestInvestments_OfferCards(t *testing.T) {
	out := render(t, Investments(running(), false))
	assert.Contains(t, out, "Wärmepumpe")
	assert.Contains(t, out, `hx-post="/game/invest"`)
	assert.Contains(t, out, "heat_pump")
}

func TestEvents_EmptyYear(t *testing.T) {
	v := running()
	v.ShowEvents = true
	assert.Contains(t, render(t, Events(v, false)), ui.MsgNoEvents)

	v.Events = []game.GameEvent{{Event: "gas_crisis", Description: "Gaspreise steigen"}}
	out := render(t, Events(v, false))
	assert.Contains(t, out, "GAS CRISIS")
	assert.NotContains(t, out, ui.MsgNoEvents)
}

func TestTimer_PollsWhileRunning(t *testing.T) {
	out := render(t, Timer(running(), now))
	assert.Contains(t, out, "1:30")
	assert.Contains(t, out, `hx-trigger="every 1s"`)

	idle := render(t, Timer(ui.View{}, now))
	assert.NotContains(t, idle, "hx-get")
}

func TestNotice(t *testing.T) {
	assert.Contains(t, render(t, Notice("Fehler", true)), "alert-danger")
	assert.NotContains(t, render(t, Notice("", false)), "alert")
	assert.Contains(t, render(t, Success("Gespeichert")), "alert-success")
}

func TestLayout(t *testing.T) {
	var b strings.Builder
	page := Layout("Spiel", view.AdaptGomponentToTempl(Board(running(), "p1", now)))
	require.NoError(t, page.Render(context.Background(), &b))
	out := b.String()
	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	assert.Contains(t, out, "<title>Spiel - Planspiel</title>")
	assert.Contains(t, out, `id="planspiel-board"`)
	assert.True(t, strings.HasSuffix(out, "</body></html>"))
	assert.Equal(t, "Planspiel", pageTitle(""))
}

func TestStatus_IdleShowsSummary(t *testing.T) {
	out := render(t, Status(ui.View{Status: ui.StatusReady, Summary: ui.MsgIdle}, false))
	assert.Contains(t, out, ui.MsgIdle)
	assert.NotContains(t, out, "Runde")
}

func TestResults_PartialPhaseData(t *testing.T) {
	tests := []struct {
		name string
		v    ui.View
		want string
	}{
		{"analysis only", ui.View{Started: true, Analysis: &game.AnalysisReady{CurrentYear: 2024}}, "Systemzustand 2024"},
		{"reality only", ui.View{Started: true, Reality: &game.RealityReady{}}, "Prognose vs. Realität"},
		{"evaluation only", ui.View{Started: true, Evaluation: &game.EvaluationReady{}}, "Auswertung"},
		{"final only", ui.View{Started: true, Ended: true, Final: &game.FinalResults{}}, "Kein Sieger"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out string
			require.NotPanics(t, func() { out = render(t, Results(tt.v, false)) })
			assert.Contains(t, out, tt.want)
		})
	}
}

func newController(t *testing.T, store storage.Store) (*ui.Controller, *schedule.Manual) {
	t.Helper()
	sched := schedule.NewManual(now)
	logger := slog.New(slog.DiscardHandler)
	ctrl := ui.New(ui.Dependencies{
		NewEngine: func() *game.Engine {
			return game.New(game.WithScheduler(sched), game.WithSeed(11), game.WithMaxRounds(2), game.WithLogger(logger))
		},
		Store:  store,
		Logger: logger,
	})
	t.Cleanup(ctrl.Close)
	return ctrl, sched
}

func TestBoard_RendersEveryPhaseOfAGame(t *testing.T) {
	ctrl, sched := newController(t, storage.NewMemoryStore())
	_, err := ctrl.AddPlayer("Anna", "stadtwerke")
	require.NoError(t, err)
	require.NoError(t, ctrl.StartGame())

	for !ctrl.View().Ended {
		v := ctrl.View()
		require.NotPanics(t, func() {
			render(t, Board(v, "", sched.Now()))
			render(t, OOB(v, sched.Now(), AllPanels...))
		}, "round %d phase %s", v.Round, v.Phase)
		require.NoError(t, ctrl.Skip())
	}

	out := render(t, Board(ctrl.View(), "", sched.Now()))
	assert.Contains(t, out, ui.MsgFinalResults)
}

func TestBoard_RestoredMidRound(t *testing.T) {
	first, _ := newController(t, storage.NewMemoryStore())
	_, err := first.AddPlayer("Anna", "stadtwerke")
	require.NoError(t, err)
	require.NoError(t, first.StartGame())
	for first.View().Phase != game.PhaseReality {
		require.NoError(t, first.Skip())
	}

	store := storage.NewMemoryStore()
	require.NoError(t, store.Save(context.Background(), storage.Snapshot{ID: ui.DefaultSnapshotID, State: first.State()}))

	restored, sched := newController(t, store)
	ok, err := restored.Restore(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	v := restored.View()
	require.Nil(t, v.Analysis, "analysis data is not part of a snapshot")
	var out string
	require.NotPanics(t, func() { out = render(t, Board(v, "", sched.Now())) })
	assert.Contains(t, out, "Prognose vs. Realität")
}

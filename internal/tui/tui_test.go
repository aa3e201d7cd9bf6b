package tui

import (
	"io"
	"log/slog"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/planspiel/internal/game"
	"github.com/nfrund/planspiel/internal/schedule"
	"github.com/nfrund/planspiel/internal/storage"
	"github.com/nfrund/planspiel/internal/ui"
)

func newModel(t *testing.T) (Model, *ui.Controller, *schedule.Manual) {
	t.Helper()
	sched := schedule.NewManual(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctrl := ui.New(ui.Dependencies{
		NewEngine: func() *game.Engine {
			return game.New(game.WithScheduler(sched), game.WithSeed(7), game.WithLogger(logger))
		},
		Store:  storage.NewMemoryStore(),
		Logger: logger,
	})
	t.Cleanup(ctrl.Close)
	return New(ctrl, sched.Now), ctrl, sched
}

func key(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

// press sends a key and runs the command it returns, feeding the result back.
func press(t *testing.T, m Model, k string) Model {
	t.Helper()
	next, cmd := m.Update(key(k))
	m = next.(Model)
	if cmd == nil {
		return m
	}
	msg := cmd()
	if _, ok := msg.(resultMsg); ok {
		next, _ = m.Update(msg)
		m = next.(Model)
	}
	return m
}

func TestModel_IdleView(t *testing.T) {
	m, _, _ := newModel(t)
	out := m.View()
	assert.Contains(t, out, ui.StatusReady)
	assert.Contains(t, out, ui.MsgEmptyRoster)
	assert.Contains(t, out, "q beenden")
}

func TestModel_StartWithoutPlayersShowsNotice(t *testing.T) {
	m, _, _ := newModel(t)
	m = press(t, m, "s")
	assert.Equal(t, ui.MsgEmptyRoster, m.notice)
}

func TestModel_PlayThroughPlanning(t *testing.T) {
	m, ctrl, sched := newModel(t)
	_, err := ctrl.AddPlayer("Anna", "stadtplaner")
	require.NoError(t, err)
	bert, err := ctrl.AddPlayer("Bert", "stadtwerke")
	require.NoError(t, err)

	m = press(t, m, "n")
	out := m.View()
	assert.Contains(t, out, ui.StatusRunning)
	assert.Contains(t, out, "Runde 1 von 10")
	assert.Contains(t, out, game.PhaseAnalysis.DisplayName())
	assert.Contains(t, out, "5:00")

	sched.Advance(game.PhaseAnalysis.Duration())
	next, _ := m.Update(tickMsg(sched.Now()))
	m = next.(Model)
	require.True(t, m.view.ShowInvestments)
	assert.Contains(t, m.View(), "Investitionsoptionen")

	m = press(t, m, "tab")
	assert.Equal(t, bert.ID, m.activePlayer())
	m = press(t, m, "2")
	assert.Empty(t, m.notice)

	d, ok := ctrl.View().Dashboard(bert.ID)
	require.True(t, ok)
	assert.Equal(t, 1, d.Investments)
	assert.Equal(t, ctrl.View().Offers[1].Cost, d.Invested)
	assert.Contains(t, m.View(), "▶")
}

func TestModel_InvestOutOfRangeIsIgnored(t *testing.T) {
	m, ctrl, _ := newModel(t)
	_, err := ctrl.AddPlayer("Anna", "stadtplaner")
	require.NoError(t, err)
	m = press(t, m, "s")

	_, cmd := m.Update(key("3"))
	assert.Nil(t, cmd, "no offers outside the planning phase")
}

func TestModel_Quit(t *testing.T) {
	m, _, _ := newModel(t)
	_, cmd := m.Update(key("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestProgressBar(t *testing.T) {
	assert.Equal(t, "░░░░", progressBar(0, 4))
	assert.Equal(t, "██░░", progressBar(0.5, 4))
	assert.Equal(t, "████", progressBar(1.5, 4))
}

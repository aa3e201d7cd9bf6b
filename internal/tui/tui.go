// Package tui is a terminal shell for the game built on bubbletea. It drives
// the same view controller as the web board.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/nfrund/planspiel/internal/format"
	"github.com/nfrund/planspiel/internal/ui"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	badgeStyle   = lipgloss.NewStyle().Padding(0, 1).Background(lipgloss.Color("8")).Foreground(lipgloss.Color("15"))
	runningStyle = badgeStyle.Background(lipgloss.Color("2"))
	endedStyle   = badgeStyle.Background(lipgloss.Color("0"))
	phaseStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	noticeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	eventStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	activeStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	boxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("8")).Padding(0, 1)
)

const maxOffers = 5

// Controller is the part of ui.Controller the terminal needs.
type Controller interface {
	View() ui.View
	StartGame() error
	Skip() error
	Invest(playerID, investmentID string) error
	OnChange(fn func(ui.Change)) (unsubscribe func())
}

type (
	changedMsg struct{}
	tickMsg    time.Time
	resultMsg  struct{ err error }
)

// Model is the bubbletea model of the game.
type Model struct {
	ctrl   Controller
	now    func() time.Time
	view   ui.View
	active int
	notice string
	width  int
}

// New creates a model over ctrl. A nil now uses time.Now.
func New(ctrl Controller, now func() time.Time) Model {
	if now == nil {
		now = time.Now
	}
	return Model{ctrl: ctrl, now: now, view: ctrl.View()}
}

// Run shows the game in the terminal until the user quits or ctx is done.
func Run(ctx context.Context, ctrl Controller, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	p := tea.NewProgram(New(ctrl, nil), opts...)
	unsubscribe := ctrl.OnChange(func(ui.Change) {
		// Changes may be reported from inside a command; never block it.
		go p.Send(changedMsg{})
	})
	defer unsubscribe()

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// act runs a controller call off the event loop.
func act(fn func() error) tea.Cmd {
	return func() tea.Msg { return resultMsg{err: fn()} }
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tickMsg:
		m.view = m.ctrl.View()
		return m, tick()

	case changedMsg:
		m.view = m.ctrl.View()
		return m, nil

	case resultMsg:
		m.notice = ui.Message(msg.err)
		m.view = m.ctrl.View()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "s":
		m.notice = ""
		return m, act(m.ctrl.StartGame)

	case "n":
		m.notice = ""
		if !m.view.Started || m.view.Ended {
			return m, act(m.ctrl.StartGame)
		}
		return m, act(m.ctrl.Skip)

	case "tab":
		if n := len(m.view.Roster); n > 0 {
			m.active = (m.active + 1) % n
		}
		return m, nil

	case "1", "2", "3", "4", "5":
		i := int(key[0] - '1')
		player := m.activePlayer()
		if player == "" || i >= len(m.view.Offers) {
			return m, nil
		}
		offer := m.view.Offers[i].ID
		m.notice = ""
		return m, act(func() error { return m.ctrl.Invest(player, offer) })
	}
	return m, nil
}

func (m Model) activePlayer() string {
	if len(m.view.Roster) == 0 {
		return ""
	}
	return m.view.Roster[m.active%len(m.view.Roster)].ID
}

func (m Model) View() string {
	v := m.view
	var b strings.Builder

	b.WriteString(titleStyle.Render("Energiesystem-Planspiel"))
	b.WriteString("  ")
	b.WriteString(statusBadge(v.Status))
	if v.Started {
		fmt.Fprintf(&b, "  Runde %d von %d · Jahr %d", min(v.Round, v.MaxRounds), v.MaxRounds, v.Year)
	}
	b.WriteString("\n\n")

	if v.Started && !v.Ended {
		now := m.now()
		fmt.Fprintf(&b, "%s  %s  %s\n", phaseStyle.Render(v.PhaseName), format.Countdown(v.Remaining(now)), progressBar(v.Progress(now), 20))
		b.WriteString(dimStyle.Render(v.PhaseDescription))
		b.WriteString("\n")
	}
	b.WriteString(v.Summary)
	b.WriteString("\n")
	if notice := firstNonEmpty(m.notice, v.Notice); notice != "" {
		b.WriteString(noticeStyle.Render(notice))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if len(v.Players) > 0 {
		b.WriteString(m.playersTable())
		b.WriteString("\n")
	} else if len(v.Roster) == 0 {
		b.WriteString(dimStyle.Render(ui.MsgEmptyRoster))
		b.WriteString("\n")
	}

	if v.ShowInvestments && len(v.Offers) > 0 {
		b.WriteString(boxStyle.Render(offers(v)))
		b.WriteString("\n")
	}
	if v.ShowEvents {
		b.WriteString(boxStyle.Render(events(v)))
		b.WriteString("\n")
	}
	if v.Final != nil {
		fmt.Fprintf(&b, "Gewinner: %s · Investitionen %s\n", strings.Join(names(v, v.Final.Winners), ", "), format.Euro(v.Final.TotalInvestments))
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render("s starten · n nächste Phase · 1-5 investieren · tab Spieler wechseln · q beenden"))
	return b.String()
}

func (m Model) playersTable() string {
	active := m.activePlayer()
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(dimStyle).
		Headers("", "Spieler", "Rolle", "Budget", "Investiert", "CO₂", "Einsparung", "Resilienz")
	for _, d := range m.view.Players {
		marker := ""
		if d.PlayerID == active {
			marker = activeStyle.Render("▶")
		}
		t.Row(marker, d.Name, d.RoleName, format.Euro(d.Budget), format.Euro(d.Invested),
			format.Percent(d.CO2Reduction), format.Euro(d.CostSavings), fmt.Sprintf("%d/10", d.Resilience))
	}
	return t.Render()
}

func offers(v ui.View) string {
	var b strings.Builder
	b.WriteString(phaseStyle.Render("Investitionsoptionen"))
	for i, inv := range v.Offers {
		if i == maxOffers {
			break
		}
		fmt.Fprintf(&b, "\n%d) %-28s %12s  Risiko: %s", i+1, inv.Name, format.Euro(inv.Cost), inv.Risks)
	}
	return b.String()
}

func events(v ui.View) string {
	var b strings.Builder
	b.WriteString(phaseStyle.Render("Ereignisse"))
	if len(v.Events) == 0 {
		b.WriteString("\n" + dimStyle.Render(ui.MsgNoEvents))
	}
	for _, ev := range v.Events {
		b.WriteString("\n" + eventStyle.Render(strings.ToUpper(strings.ReplaceAll(ev.Event, "_", " "))) + "  " + ev.Description)
	}
	return b.String()
}

func statusBadge(status string) string {
	switch status {
	case ui.StatusRunning:
		return runningStyle.Render(status)
	case ui.StatusEnded:
		return endedStyle.Render(status)
	default:
		return badgeStyle.Render(status)
	}
}

func progressBar(p float64, width int) string {
	filled := int(p * float64(width))
	filled = min(width, max(0, filled))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func names(v ui.View, ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		name := id
		if d, ok := v.Dashboard(id); ok {
			name = d.Name
		}
		out = append(out, name)
	}
	return out
}

func firstNonEmpty(s ...string) string {
	for _, v := range s {
		if v != "" {
			return v
		}
	}
	return ""
}

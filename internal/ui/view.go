package ui

import (
	"time"

	"github.com/nfrund/planspiel/internal/game"
)

// Status badges.
const (
	StatusReady   = "Bereit zum Start"
	StatusRunning = "Spiel läuft"
	StatusEnded   = "Spiel beendet"
)

// Messages shown to players.
const (
	MsgEmptyRoster        = "Bitte mindestens einen Spieler hinzufügen!"
	MsgInsufficientBudget = "Unzureichendes Budget für diese Investition!"
	MsgNoEvents           = "Keine besonderen Ereignisse in diesem Jahr."
	MsgFinalResults       = "Spiel beendet! Finale Ergebnisse werden angezeigt..."
	MsgIdle               = "Aktuelle Spielsituation und wichtige Kennzahlen werden hier angezeigt."
)

var phaseSummaries = map[game.Phase]string{
	game.PhaseAnalysis:   "Analysieren Sie die aktuelle Systemsituation und Trends.",
	game.PhasePlanning:   "Wählen Sie Ihre Investitionen und erstellen Sie Prognosen.",
	game.PhaseEvents:     "Unerwartete Ereignisse treten ein...",
	game.PhaseReality:    "Die Realität weicht von Ihren Prognosen ab.",
	game.PhaseEvaluation: "Bewerten Sie Ihre Performance und lernen Sie aus den Erfahrungen.",
}

// Role is a player role offered in the setup form.
type Role struct {
	Key  string
	Name string
}

// Roles lists the selectable roles in display order.
var Roles = []Role{
	{Key: "stadtplaner", Name: "Stadtplaner*in"},
	{Key: "stadtwerke", Name: "Stadtwerke-Manager*in"},
	{Key: "quartiersentwickler", Name: "Quartiersentwickler*in"},
	{Key: "klimaschutz", Name: "Klimaschutz-Manager*in"},
	{Key: "buergerinitiative", Name: "Bürgerinitiative"},
}

// RoleName returns the display name of a role key, or the key itself.
func RoleName(key string) string {
	for _, r := range Roles {
		if r.Key == key {
			return r.Name
		}
	}
	return key
}

func validRole(key string) bool {
	for _, r := range Roles {
		if r.Key == key {
			return true
		}
	}
	return false
}

// Dashboard is the per-player summary card.
type Dashboard struct {
	PlayerID    string
	Name        string
	Role        string
	RoleName    string
	Budget      float64
	Invested    float64
	Investments int
	// CO2Reduction is in percent.
	CO2Reduction float64
	CostSavings  float64
	// Resilience is a score out of 10.
	Resilience int
}

func dashboardFor(p game.Player) Dashboard {
	n := len(p.Investments)
	return Dashboard{
		PlayerID:     p.ID,
		Name:         p.Name,
		Role:         p.Role,
		RoleName:     RoleName(p.Role),
		Budget:       p.Budget,
		Invested:     p.Spent(),
		Investments:  n,
		CO2Reduction: float64(n * 5),
		CostSavings:  float64(n * 1000),
		Resilience:   min(10, n),
	}
}

// View is everything a shell needs to draw the game. It is a copy; changing
// it has no effect on the controller.
type View struct {
	Status  string
	Started bool
	Ended   bool

	Round     int
	MaxRounds int
	Year      int

	Phase            game.Phase
	PhaseName        string
	PhaseDescription string
	// PhaseDuration is the effective length of the current phase.
	PhaseDuration time.Duration
	Deadline      time.Time

	Summary string
	// Notice is the latest message for the players, e.g. a rejected
	// investment. It is cleared when the next phase starts.
	Notice string

	Roster  []game.PlayerInfo
	Players []Dashboard

	ShowInvestments bool
	Offers          []game.Investment

	ShowEvents bool
	Events     []game.GameEvent

	Analysis   *game.AnalysisReady
	Reality    *game.RealityReady
	Evaluation *game.EvaluationReady
	Final      *game.FinalResults

	ForecastScenarios []string
	LastRound         int
}

// Remaining returns the time left in the current phase at now.
func (v View) Remaining(now time.Time) time.Duration {
	if v.Deadline.IsZero() {
		return 0
	}
	return max(0, v.Deadline.Sub(now))
}

// Progress returns how much of the current phase has elapsed, from 0 to 1.
func (v View) Progress(now time.Time) float64 {
	if v.PhaseDuration <= 0 || v.Deadline.IsZero() {
		return 0
	}
	elapsed := v.PhaseDuration - v.Remaining(now)
	return min(1, max(0, float64(elapsed)/float64(v.PhaseDuration)))
}

// Dashboard returns the card of one player.
func (v View) Dashboard(playerID string) (Dashboard, bool) {
	for _, d := range v.Players {
		if d.PlayerID == playerID {
			return d, true
		}
	}
	return Dashboard{}, false
}

func (v View) clone() View {
	c := v
	c.Roster = append([]game.PlayerInfo(nil), v.Roster...)
	c.Players = append([]Dashboard(nil), v.Players...)
	c.Offers = append([]game.Investment(nil), v.Offers...)
	c.ForecastScenarios = append([]string(nil), v.ForecastScenarios...)
	c.Events = make([]game.GameEvent, len(v.Events))
	for i, ev := range v.Events {
		c.Events[i] = ev.Clone()
	}
	return c
}

func idleView() View {
	return View{
		Status:            StatusReady,
		Summary:           MsgIdle,
		Roster:            []game.PlayerInfo{},
		ForecastScenarios: append([]string(nil), game.ForecastScenarios...),
	}
}

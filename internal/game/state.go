package game

import (
	"bytes"
	"encoding/json"
	"maps"
	"slices"
	"time"
)

const (
	// StartingBudget is the budget every player receives at game start.
	StartingBudget = 1_000_000.0
	// StartYear is the simulated year of round 1.
	StartYear = 2024
	// DefaultMaxRounds is the number of rounds played before the game ends.
	DefaultMaxRounds = 10
)

// PlayerInfo identifies a player joining a game.
type PlayerInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// Benefits are the estimated yearly effects of an investment.
type Benefits struct {
	CO2Reduction          float64 `json:"co2_reduction"`
	CostSavings           float64 `json:"cost_savings"`
	ResilienceImprovement float64 `json:"resilience_improvement"`
}

// Investment is an offer a player can buy.
type Investment struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Cost        float64  `json:"cost"`
	Benefits    Benefits `json:"benefits"`
	Risks       string   `json:"risks"`
	Readiness   float64  `json:"readiness,omitempty"`
	Lifetime    int      `json:"lifetime,omitempty"`
}

// InvestmentRecord is an investment a player has made.
type InvestmentRecord struct {
	Investment
	Year      int `json:"year"`
	RoundMade int `json:"roundMade"`
}

// Performance collects one value per evaluated round.
type Performance struct {
	Costs      []float64 `json:"costs"`
	CO2        []float64 `json:"co2"`
	Resilience []float64 `json:"resilience"`
}

// Player is a participant and their bookkeeping.
type Player struct {
	ID            string                     `json:"id"`
	Name          string                     `json:"name"`
	Role          string                     `json:"role"`
	Budget        float64                    `json:"budget"`
	Investments   []InvestmentRecord         `json:"investments"`
	Forecasts     map[string]json.RawMessage `json:"forecasts"`
	ActualResults map[string]float64         `json:"actualResults"`
	Performance   Performance                `json:"performance"`
}

func newPlayer(info PlayerInfo) Player {
	return Player{
		ID:            info.ID,
		Name:          info.Name,
		Role:          info.Role,
		Budget:        StartingBudget,
		Investments:   []InvestmentRecord{},
		Forecasts:     map[string]json.RawMessage{},
		ActualResults: map[string]float64{},
		Performance: Performance{
			Costs:      []float64{},
			CO2:        []float64{},
			Resilience: []float64{},
		},
	}
}

// Spent returns the sum of all investment costs.
func (p Player) Spent() float64 {
	var sum float64
	for _, inv := range p.Investments {
		sum += inv.Cost
	}
	return sum
}

// Clone returns a deep copy.
func (p Player) Clone() Player {
	c := p
	c.Investments = slices.Clone(p.Investments)
	if c.Investments == nil {
		c.Investments = []InvestmentRecord{}
	}
	c.Forecasts = make(map[string]json.RawMessage, len(p.Forecasts))
	for k, v := range p.Forecasts {
		c.Forecasts[k] = bytes.Clone(v)
	}
	c.ActualResults = maps.Clone(p.ActualResults)
	if c.ActualResults == nil {
		c.ActualResults = map[string]float64{}
	}
	c.Performance = Performance{
		Costs:      cloneFloats(p.Performance.Costs),
		CO2:        cloneFloats(p.Performance.CO2),
		Resilience: cloneFloats(p.Performance.Resilience),
	}
	return c
}

// GameEvent is a stochastic yearly occurrence.
type GameEvent struct {
	Type        string             `json:"type"`
	Event       string             `json:"event"`
	Impact      string             `json:"impact"`
	Year        int                `json:"year"`
	Description string             `json:"description"`
	Effects     map[string]float64 `json:"effects"`
}

// Clone returns a deep copy.
func (e GameEvent) Clone() GameEvent {
	c := e
	c.Effects = maps.Clone(e.Effects)
	if c.Effects == nil {
		c.Effects = map[string]float64{}
	}
	return c
}

// RoundSnapshot is the frozen state of a completed round.
type RoundSnapshot struct {
	Round   int         `json:"round"`
	Year    int         `json:"year"`
	Players []Player    `json:"players"`
	Events  []GameEvent `json:"events"`
}

// Clone returns a deep copy.
func (s RoundSnapshot) Clone() RoundSnapshot {
	return RoundSnapshot{
		Round:   s.Round,
		Year:    s.Year,
		Players: clonePlayers(s.Players),
		Events:  cloneEvents(s.Events),
	}
}

// GameState is the complete state of a game.
type GameState struct {
	CurrentRound  int             `json:"currentRound"`
	CurrentPhase  Phase           `json:"currentPhase"`
	Year          int             `json:"year"`
	Players       []Player        `json:"players"`
	GlobalEvents  []GameEvent     `json:"globalEvents"`
	RoundHistory  []RoundSnapshot `json:"roundHistory"`
	MaxRounds     int             `json:"maxRounds"`
	Ended         bool            `json:"ended"`
	PhaseDeadline time.Time       `json:"phaseDeadline,omitzero"`
}

// Running reports whether a game has started and not yet ended.
func (s GameState) Running() bool {
	return s.CurrentRound >= 1 && !s.Ended
}

// Player returns the player with the given id.
func (s GameState) Player(id string) (Player, bool) {
	for _, p := range s.Players {
		if p.ID == id {
			return p, true
		}
	}
	return Player{}, false
}

// Clone returns a deep copy.
func (s GameState) Clone() GameState {
	c := s
	c.Players = clonePlayers(s.Players)
	c.GlobalEvents = cloneEvents(s.GlobalEvents)
	c.RoundHistory = cloneHistory(s.RoundHistory)
	return c
}

func clonePlayers(ps []Player) []Player {
	out := make([]Player, len(ps))
	for i, p := range ps {
		out[i] = p.Clone()
	}
	return out
}

func cloneEvents(es []GameEvent) []GameEvent {
	out := make([]GameEvent, len(es))
	for i, e := range es {
		out[i] = e.Clone()
	}
	return out
}

func cloneHistory(h []RoundSnapshot) []RoundSnapshot {
	out := make([]RoundSnapshot, len(h))
	for i, r := range h {
		out[i] = r.Clone()
	}
	return out
}

func cloneFloats(f []float64) []float64 {
	if f == nil {
		return []float64{}
	}
	return slices.Clone(f)
}

package game

import "context"

// SystemStateProvider supplies the municipal energy figures shown in the
// analysis phase. Implementations must return quickly; the engine calls it
// while holding its state lock.
type SystemStateProvider interface {
	SystemState() SystemState
}

// SystemStateFunc adapts a function to SystemStateProvider.
type SystemStateFunc func() SystemState

// SystemState implements SystemStateProvider.
func (f SystemStateFunc) SystemState() SystemState { return f() }

// RealityInput is what a reality model sees of the year being assessed.
type RealityInput struct {
	Year    int         `json:"year"`
	Round   int         `json:"round"`
	Events  []GameEvent `json:"events"`
	Players []Player    `json:"players"`
}

// RealityOutcome is the observed result of a year.
type RealityOutcome struct {
	Reality    Reality           `json:"reality"`
	Deviations []PlayerDeviation `json:"deviations"`
}

// RealityModel computes how a year actually turned out.
type RealityModel interface {
	Assess(ctx context.Context, in RealityInput) (RealityOutcome, error)
}

// NeutralReality reports no costs, emissions or deviations.
type NeutralReality struct{}

// Assess implements RealityModel.
func (NeutralReality) Assess(_ context.Context, in RealityInput) (RealityOutcome, error) {
	out := RealityOutcome{Deviations: make([]PlayerDeviation, 0, len(in.Players))}
	for _, p := range in.Players {
		out.Deviations = append(out.Deviations, PlayerDeviation{PlayerID: p.ID})
	}
	return out, nil
}

// alignDeviations returns one deviation per player in roster order. Players the
// model did not report on get zero deviations; unknown ids are dropped.
func alignDeviations(players []Player, devs []PlayerDeviation) []PlayerDeviation {
	byID := make(map[string]Deviation, len(devs))
	for _, d := range devs {
		if _, dup := byID[d.PlayerID]; !dup {
			byID[d.PlayerID] = d.Deviations
		}
	}
	out := make([]PlayerDeviation, 0, len(players))
	for _, p := range players {
		out = append(out, PlayerDeviation{PlayerID: p.ID, Deviations: byID[p.ID]})
	}
	return out
}

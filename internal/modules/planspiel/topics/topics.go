// Package topics declares the bus topics of the planspiel module. Every
// engine notification has a typed topic named planspiel.<eventName>.
package topics

import (
	"github.com/nfrund/planspiel/internal/game"
	"github.com/nfrund/planspiel/internal/pubsub"
)

var (
	GameStarted = pubsub.NewEvent[game.GameState]("planspiel.gameStarted", "A game was started or restored; carries the full game state")

	PhaseStarted = pubsub.NewEvent[game.PhaseStarted]("planspiel.phaseStarted", "A phase began, with its nominal duration and deadline")

	RoundCompleted = pubsub.NewEvent[game.RoundCompleted]("planspiel.roundCompleted", "A round was completed and stored in the history")

	GameEnded = pubsub.NewEvent[game.GameEnded]("planspiel.gameEnded", "The last round was completed; carries the final results")

	AnalysisPhaseReady = pubsub.NewEvent[game.AnalysisReady]("planspiel.analysisPhaseReady", "System state and trends for the analysis phase")

	PlanningPhaseReady = pubsub.NewEvent[game.PlanningReady]("planspiel.planningPhaseReady", "Investment offers, budgets and forecast scenarios for the planning phase")

	EventsPhaseReady = pubsub.NewEvent[game.EventsReady]("planspiel.eventsPhaseReady", "The events drawn for the current year")

	RealityPhaseReady = pubsub.NewEvent[game.RealityReady]("planspiel.realityPhaseReady", "Observed reality and per-player forecast deviations")

	EvaluationPhaseReady = pubsub.NewEvent[game.EvaluationReady]("planspiel.evaluationPhaseReady", "Scores, rankings and lessons of the evaluation phase")

	InvestmentMade = pubsub.NewEvent[game.InvestmentMade]("planspiel.investmentMade", "A player bought an investment")

	ForecastMade = pubsub.NewEvent[game.ForecastMade]("planspiel.forecastMade", "A player stored a forecast for a scenario")

	// Reset is published by the web module after the game was discarded.
	Reset = pubsub.NewEvent[ResetNotice]("planspiel.reset", "The game was reset; clients should reload")
)

// ResetNotice is the payload of Reset.
type ResetNotice struct {
	Reason string `json:"reason"`
}

var byEvent = map[game.EventName]string{
	game.EventGameStarted:          GameStarted.Name(),
	game.EventPhaseStarted:         PhaseStarted.Name(),
	game.EventRoundCompleted:       RoundCompleted.Name(),
	game.EventGameEnded:            GameEnded.Name(),
	game.EventAnalysisPhaseReady:   AnalysisPhaseReady.Name(),
	game.EventPlanningPhaseReady:   PlanningPhaseReady.Name(),
	game.EventEventsPhaseReady:     EventsPhaseReady.Name(),
	game.EventRealityPhaseReady:    RealityPhaseReady.Name(),
	game.EventEvaluationPhaseReady: EvaluationPhaseReady.Name(),
	game.EventInvestmentMade:       InvestmentMade.Name(),
	game.EventForecastMade:         ForecastMade.Name(),
}

// ForEvent returns the topic an engine notification is mirrored to.
func ForEvent(name game.EventName) (string, bool) {
	t, ok := byEvent[name]
	return t, ok
}

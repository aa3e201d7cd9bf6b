package game

import "errors"

var (
	// ErrPlayerNotFound is returned for an unknown player id.
	ErrPlayerNotFound = errors.New("player not found")
	// ErrInsufficientBudget is returned when an investment costs more than the
	// player's remaining budget.
	ErrInsufficientBudget = errors.New("insufficient budget")
	// ErrInvalidInvestment is returned for investments with a negative or
	// non-finite cost.
	ErrInvalidInvestment = errors.New("invalid investment")
	// ErrInvalidForecast is returned when a forecast is not valid JSON.
	ErrInvalidForecast = errors.New("invalid forecast")
	// ErrGameNotRunning is returned by operations that need a started game.
	ErrGameNotRunning = errors.New("game not running")
	// ErrGameEnded is returned once the game has reached its terminal state.
	ErrGameEnded = errors.New("game has ended")
	// ErrPhaseNotAllowed is returned when phase guards are enabled and an
	// operation is attempted outside the phases that permit it.
	ErrPhaseNotAllowed = errors.New("operation not allowed in current phase")
	// ErrUnknownPhase is returned for a phase name outside the round cycle.
	ErrUnknownPhase = errors.New("unknown phase")
)

package game

import (
	"encoding/json"
	"time"
)

// EventName identifies an engine notification.
type EventName string

const (
	EventGameStarted          EventName = "gameStarted"
	EventPhaseStarted         EventName = "phaseStarted"
	EventRoundCompleted       EventName = "roundCompleted"
	EventGameEnded            EventName = "gameEnded"
	EventAnalysisPhaseReady   EventName = "analysisPhaseReady"
	EventPlanningPhaseReady   EventName = "planningPhaseReady"
	EventEventsPhaseReady     EventName = "eventsPhaseReady"
	EventRealityPhaseReady    EventName = "realityPhaseReady"
	EventEvaluationPhaseReady EventName = "evaluationPhaseReady"
	EventInvestmentMade       EventName = "investmentMade"
	EventForecastMade         EventName = "forecastMade"
)

// EventNames lists every notification the engine emits.
var EventNames = []EventName{
	EventGameStarted,
	EventPhaseStarted,
	EventRoundCompleted,
	EventGameEnded,
	EventAnalysisPhaseReady,
	EventPlanningPhaseReady,
	EventEventsPhaseReady,
	EventRealityPhaseReady,
	EventEvaluationPhaseReady,
	EventInvestmentMade,
	EventForecastMade,
}

// PhaseStarted is emitted whenever a phase begins. Duration is the nominal
// length in seconds; Deadline is when the (possibly scaled) timer fires.
type PhaseStarted struct {
	Phase    Phase     `json:"phase"`
	Name     string    `json:"name"`
	Duration int       `json:"duration"`
	Round    int       `json:"round"`
	Year     int       `json:"year"`
	Deadline time.Time `json:"deadline"`
}

// SystemState summarises the municipal energy system.
type SystemState struct {
	TotalDemand    float64 `json:"totalDemand"`
	RenewableShare float64 `json:"renewableShare"`
	CO2Emissions   float64 `json:"co2Emissions"`
	Costs          float64 `json:"costs"`
}

// Trends is the qualitative outlook shown in the analysis phase.
type Trends struct {
	EnergyDemandTrend string `json:"energyDemandTrend"`
	RenewableTrend    string `json:"renewableTrend"`
	CostTrend         string `json:"costTrend"`
}

// AnalysisReady is the analysis phase data.
type AnalysisReady struct {
	CurrentYear int         `json:"currentYear"`
	SystemState SystemState `json:"systemState"`
	Trends      Trends      `json:"trends"`
}

// BudgetLine shows a player's remaining and spent budget.
type BudgetLine struct {
	PlayerID string  `json:"playerId"`
	Budget   float64 `json:"budget"`
	Spent    float64 `json:"spent"`
}

// PlanningReady is the planning phase data. Investments are drawn fresh for
// the phase and should be held by the receiver.
type PlanningReady struct {
	Investments       []Investment `json:"investments"`
	Budgets           []BudgetLine `json:"budgets"`
	ForecastScenarios []string     `json:"forecastScenarios"`
}

// EventsReady carries the events drawn for the year.
type EventsReady struct {
	Events []GameEvent `json:"events"`
}

// Reality is the observed outcome of a year.
type Reality struct {
	ActualCosts      float64 `json:"actualCosts"`
	ActualCO2        float64 `json:"actualCO2"`
	ActualResilience float64 `json:"actualResilience"`
}

// Deviation is the percentage difference between forecast and reality.
type Deviation struct {
	Costs      float64 `json:"costs"`
	CO2        float64 `json:"co2"`
	Resilience float64 `json:"resilience"`
}

// PlayerDeviation pairs a player with their deviation.
type PlayerDeviation struct {
	PlayerID   string    `json:"playerId"`
	Deviations Deviation `json:"deviations"`
}

// RealityReady is the reality phase data.
type RealityReady struct {
	Reality    Reality           `json:"reality"`
	Deviations []PlayerDeviation `json:"deviations"`
}

// Scores rate a player along the four evaluation dimensions.
type Scores struct {
	Economic   float64 `json:"economic"`
	Ecological float64 `json:"ecological"`
	Social     float64 `json:"social"`
	Resilience float64 `json:"resilience"`
}

// PlayerEvaluation pairs a player with their scores.
type PlayerEvaluation struct {
	PlayerID string `json:"playerId"`
	Scores   Scores `json:"scores"`
}

// Rankings list player ids from best to worst.
type Rankings struct {
	Overall    []string `json:"overall"`
	Economic   []string `json:"economic"`
	Ecological []string `json:"ecological"`
	Resilience []string `json:"resilience"`
}

// EvaluationReady is the evaluation phase data.
type EvaluationReady struct {
	Evaluation []PlayerEvaluation `json:"evaluation"`
	Rankings   Rankings           `json:"rankings"`
	Lessons    []string           `json:"lessons"`
}

// RoundCompleted is emitted after a round's snapshot is stored.
type RoundCompleted struct {
	Round   int             `json:"round"`
	History []RoundSnapshot `json:"history"`
}

// FinalResults aggregates the whole game.
type FinalResults struct {
	Winners          []string `json:"winners"`
	TotalInvestments float64  `json:"totalInvestments"`
	CO2Reduction     float64  `json:"co2Reduction"`
	CostSavings      float64  `json:"costSavings"`
}

// GameEnded is emitted once, when the last round completes.
type GameEnded struct {
	FinalResults FinalResults    `json:"finalResults"`
	History      []RoundSnapshot `json:"history"`
}

// InvestmentMade is emitted after a successful investment.
type InvestmentMade struct {
	PlayerID        string           `json:"playerId"`
	Investment      InvestmentRecord `json:"investment"`
	RemainingBudget float64          `json:"remainingBudget"`
}

// ForecastMade is emitted after a forecast is stored.
type ForecastMade struct {
	PlayerID string          `json:"playerId"`
	Scenario string          `json:"scenario"`
	Forecast json.RawMessage `json:"forecast"`
}

// Emission is an untyped view of any notification, used by bridges that
// forward every event (message bus, metrics).
type Emission struct {
	Name    EventName
	Payload any
}

// ForecastScenarios are the scenarios players can forecast.
var ForecastScenarios = []string{"base_case", "high_prices", "green_transition"}

// Lessons are shown at the end of every evaluation phase.
var Lessons = []string{
	"Diversifikation reduziert Risiken",
	"Langfristige Planung wichtig für Amortisation",
	"Unerwartete Ereignisse können Pläne durcheinander bringen",
}

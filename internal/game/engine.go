// Package game implements the round-based planning game: a five-phase state
// machine per simulated year, player budgets and investments, and the event
// and investment generators that feed it.
package game

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/nfrund/planspiel/internal/catalog"
	"github.com/nfrund/planspiel/internal/schedule"
)

// Engine owns a game's state and drives its phases. All methods are safe for
// concurrent use. Notifications are delivered synchronously before the
// triggering call returns, unless another goroutine is already delivering, in
// which case that goroutine delivers them in order.
type Engine struct {
	mu    sync.Mutex
	state GameState
	task  schedule.Task
	// token identifies the current phase; a timer armed for an earlier phase
	// compares unequal and is ignored.
	token uint64

	events         *EventManager
	investments    *InvestmentEngine
	scheduler      schedule.Scheduler
	now            func() time.Time
	timeScale      float64
	phaseGuards    bool
	maxRounds      int
	reality        RealityModel
	realityTimeout time.Duration
	system         SystemStateProvider
	logger         *slog.Logger

	signals Events
	disp    dispatcher
}

// New creates an engine. Without options it uses wall-clock timers, the
// default catalog and a time-seeded random source.
func New(opts ...Option) *Engine {
	o := options{
		timeScale:      1,
		maxRounds:      DefaultMaxRounds,
		realityTimeout: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.scheduler == nil {
		o.scheduler = schedule.NewReal()
	}
	if o.now == nil {
		if clock, ok := o.scheduler.(interface{ Now() time.Time }); ok {
			o.now = clock.Now
		} else {
			o.now = time.Now
		}
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.rng == nil {
		o.rng = NewRandom(o.seed)
	}
	if o.catalog == nil {
		o.catalog = catalog.NewSource(nil)
	}
	if o.events == nil {
		o.events = NewEventManager(o.catalog, o.rng)
	}
	if o.investments == nil {
		o.investments = NewInvestmentEngine(o.catalog, o.rng)
	}
	if o.reality == nil {
		o.reality = NeutralReality{}
	}
	if o.system == nil {
		o.system = SystemStateFunc(func() SystemState { return SystemState{} })
	}

	logger := o.logger.With("component", "game_engine")
	return &Engine{
		state:          GameState{MaxRounds: o.maxRounds},
		events:         o.events,
		investments:    o.investments,
		scheduler:      o.scheduler,
		now:            o.now,
		timeScale:      o.timeScale,
		phaseGuards:    o.phaseGuards,
		maxRounds:      o.maxRounds,
		reality:        o.reality,
		realityTimeout: o.realityTimeout,
		system:         o.system,
		logger:         logger,
		disp:           dispatcher{logger: logger},
	}
}

// Events returns the engine's notification signals.
func (e *Engine) Events() *Events {
	return &e.signals
}

// State returns a deep copy of the current state.
func (e *Engine) State() GameState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

// Player returns a copy of a single player.
func (e *Engine) Player(id string) (Player, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if i := e.playerIndex(id); i >= 0 {
		return e.state.Players[i].Clone(), true
	}
	return Player{}, false
}

// CurrentPhase returns the active phase.
func (e *Engine) CurrentPhase() Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.CurrentPhase
}

// PhaseGuards reports whether mutating operations are restricted by phase.
func (e *Engine) PhaseGuards() bool {
	return e.phaseGuards
}

// PhaseDuration returns the effective (scaled) duration of p.
func (e *Engine) PhaseDuration(p Phase) time.Duration {
	return e.scaled(p.Duration())
}

// StartGame begins a new game with fresh players, discarding any game in
// progress. An empty roster is accepted.
func (e *Engine) StartGame(players []PlayerInfo) error {
	return e.mutate(func() error {
		e.stopTimer()

		roster := make([]Player, 0, len(players))
		for _, info := range players {
			roster = append(roster, newPlayer(info))
		}
		e.state = GameState{
			CurrentRound: 1,
			Year:         StartYear,
			Players:      roster,
			GlobalEvents: []GameEvent{},
			RoundHistory: []RoundSnapshot{},
			MaxRounds:    e.maxRounds,
		}
		e.logger.Info("Game started", "players", len(roster), "max_rounds", e.maxRounds)

		e.startPhase(PhaseAnalysis, false)
		notify(&e.disp, &e.signals, &e.signals.GameStarted, EventGameStarted, e.state.Clone())
		return nil
	})
}

// StartPhase enters phase p of the current round directly.
func (e *Engine) StartPhase(p Phase) error {
	return e.mutate(func() error {
		if err := e.requireRunning(); err != nil {
			return err
		}
		if !p.Valid() {
			return fmt.Errorf("%w: %q", ErrUnknownPhase, p)
		}
		e.startPhase(p, false)
		return nil
	})
}

// SkipToNextPhase cancels the phase timer and completes the phase now.
func (e *Engine) SkipToNextPhase() error {
	return e.mutate(func() error {
		if err := e.requireRunning(); err != nil {
			return err
		}
		e.logger.Info("Phase skipped", "round", e.state.CurrentRound, "phase", e.state.CurrentPhase)
		e.stopTimer()
		return e.completePhase()
	})
}

// CompletePhase completes the active phase. Completing evaluation
// completes the round.
func (e *Engine) CompletePhase() error {
	return e.mutate(func() error {
		if err := e.requireRunning(); err != nil {
			return err
		}
		e.stopTimer()
		return e.completePhase()
	})
}

// CompleteRound stores the round snapshot and advances to the next year,
// ending the game after the last round.
func (e *Engine) CompleteRound() error {
	return e.mutate(func() error {
		if err := e.requireRunning(); err != nil {
			return err
		}
		return e.completeRound()
	})
}

// EndGame ends the game immediately. It fires gameEnded at most once.
func (e *Engine) EndGame() error {
	return e.mutate(func() error {
		if e.state.CurrentRound < 1 {
			return ErrGameNotRunning
		}
		return e.endGame()
	})
}

// MakeInvestment debits the player's budget and records the investment.
// It fails without changing state when the player is unknown or the cost
// exceeds the remaining budget.
func (e *Engine) MakeInvestment(playerID string, inv Investment) error {
	return e.mutate(func() error {
		if err := e.requireRunning(); err != nil {
			return err
		}
		if e.phaseGuards && e.state.CurrentPhase != PhasePlanning {
			return fmt.Errorf("%w: investments are only possible in the planning phase", ErrPhaseNotAllowed)
		}
		if inv.Cost < 0 || math.IsNaN(inv.Cost) || math.IsInf(inv.Cost, 0) {
			return fmt.Errorf("%w: cost %v", ErrInvalidInvestment, inv.Cost)
		}
		i := e.playerIndex(playerID)
		if i < 0 {
			e.logger.Debug("Investment for unknown player rejected", "player_id", playerID)
			return fmt.Errorf("%w: %s", ErrPlayerNotFound, playerID)
		}

		p := &e.state.Players[i]
		if inv.Cost > p.Budget {
			e.logger.Debug("Investment rejected", "player_id", playerID, "investment", inv.ID, "cost", inv.Cost, "budget", p.Budget)
			return fmt.Errorf("%w: cost %.0f exceeds budget %.0f", ErrInsufficientBudget, inv.Cost, p.Budget)
		}

		p.Budget -= inv.Cost
		rec := InvestmentRecord{
			Investment: inv,
			Year:       e.state.Year,
			RoundMade:  e.state.CurrentRound,
		}
		p.Investments = append(p.Investments, rec)
		e.logger.Info("Investment made", "player_id", playerID, "investment", inv.ID, "cost", inv.Cost, "remaining_budget", p.Budget)

		notify(&e.disp, &e.signals, &e.signals.InvestmentMade, EventInvestmentMade, InvestmentMade{
			PlayerID:        playerID,
			Investment:      rec,
			RemainingBudget: p.Budget,
		})
		return nil
	})
}

// MakeForecast stores the player's forecast for a scenario, replacing any
// earlier one. The forecast is opaque JSON; an empty value is stored as null.
func (e *Engine) MakeForecast(playerID, scenario string, forecast json.RawMessage) error {
	return e.mutate(func() error {
		if err := e.requireRunning(); err != nil {
			return err
		}
		if e.phaseGuards && e.state.CurrentPhase != PhaseAnalysis && e.state.CurrentPhase != PhasePlanning {
			return fmt.Errorf("%w: forecasts are only possible in the analysis and planning phases", ErrPhaseNotAllowed)
		}
		if len(bytes.TrimSpace(forecast)) == 0 {
			forecast = json.RawMessage("null")
		}
		if !json.Valid(forecast) {
			return ErrInvalidForecast
		}
		i := e.playerIndex(playerID)
		if i < 0 {
			e.logger.Debug("Forecast for unknown player ignored", "player_id", playerID)
			return fmt.Errorf("%w: %s", ErrPlayerNotFound, playerID)
		}

		stored := bytes.Clone(forecast)
		e.state.Players[i].Forecasts[scenario] = stored
		notify(&e.disp, &e.signals, &e.signals.ForecastMade, EventForecastMade, ForecastMade{
			PlayerID: playerID,
			Scenario: scenario,
			Forecast: bytes.Clone(stored),
		})
		return nil
	})
}

// Restore replaces the engine's state with a previously taken snapshot. A
// running game resumes in its stored phase with a fresh phase timer; the
// phase data is re-announced without drawing new events.
func (e *Engine) Restore(st GameState) error {
	if !st.Ended {
		if st.CurrentRound < 1 {
			return fmt.Errorf("%w: snapshot has no started game", ErrGameNotRunning)
		}
		if !st.CurrentPhase.Valid() {
			return fmt.Errorf("%w: %q", ErrUnknownPhase, st.CurrentPhase)
		}
	}
	return e.mutate(func() error {
		e.stopTimer()
		e.token++
		e.state = normalize(st.Clone(), e.maxRounds)
		e.logger.Info("Game restored", "round", e.state.CurrentRound, "phase", e.state.CurrentPhase, "ended", e.state.Ended)

		if !e.state.Ended {
			e.startPhase(e.state.CurrentPhase, true)
		}
		notify(&e.disp, &e.signals, &e.signals.GameStarted, EventGameStarted, e.state.Clone())
		return nil
	})
}

// Close cancels the pending phase timer. The state stays readable.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopTimer()
	e.token++
}

func (e *Engine) mutate(fn func() error) error {
	err := func() error {
		e.mu.Lock()
		defer e.mu.Unlock()
		return fn()
	}()
	e.disp.drain()
	return err
}

func (e *Engine) requireRunning() error {
	if e.state.Ended {
		return ErrGameEnded
	}
	if e.state.CurrentRound < 1 {
		return ErrGameNotRunning
	}
	return nil
}

func (e *Engine) playerIndex(id string) int {
	for i := range e.state.Players {
		if e.state.Players[i].ID == id {
			return i
		}
	}
	return -1
}

func (e *Engine) scaled(d time.Duration) time.Duration {
	return time.Duration(float64(d) * e.timeScale)
}

func (e *Engine) stopTimer() {
	if e.task != nil {
		e.task.Stop()
		e.task = nil
	}
}

// startPhase enters p, announces it and arms its timer. With replay set the
// phase data is re-announced from stored state where drawing it again would
// change the game.
func (e *Engine) startPhase(p Phase, replay bool) {
	e.stopTimer()
	e.token++
	token := e.token

	d := e.scaled(p.Duration())
	deadline := e.now().Add(d)
	e.state.CurrentPhase = p
	e.state.PhaseDeadline = deadline

	e.logger.Info("Phase started", "round", e.state.CurrentRound, "year", e.state.Year, "phase", p, "duration", d)
	notify(&e.disp, &e.signals, &e.signals.PhaseStarted, EventPhaseStarted, PhaseStarted{
		Phase:    p,
		Name:     p.DisplayName(),
		Duration: int(p.Duration() / time.Second),
		Round:    e.state.CurrentRound,
		Year:     e.state.Year,
		Deadline: deadline,
	})

	e.initPhase(p, replay)
	e.task = e.scheduler.AfterFunc(d, func() { e.onTimer(token) })
}

func (e *Engine) onTimer(token uint64) {
	_ = e.mutate(func() error {
		if token != e.token || !e.state.Running() {
			return nil
		}
		e.task = nil
		e.logger.Debug("Phase timer expired", "round", e.state.CurrentRound, "phase", e.state.CurrentPhase)
		return e.completePhase()
	})
}

func (e *Engine) completePhase() error {
	next, ok := e.state.CurrentPhase.Next()
	if !ok {
		return e.completeRound()
	}
	e.startPhase(next, false)
	return nil
}

func (e *Engine) completeRound() error {
	e.stopTimer()
	e.token++

	e.state.RoundHistory = append(e.state.RoundHistory, RoundSnapshot{
		Round:   e.state.CurrentRound,
		Year:    e.state.Year,
		Players: clonePlayers(e.state.Players),
		Events:  cloneEvents(e.state.GlobalEvents),
	})
	completed := e.state.CurrentRound
	e.state.CurrentRound++
	e.state.Year++
	e.state.GlobalEvents = []GameEvent{}
	e.logger.Info("Round completed", "round", completed, "next_year", e.state.Year)

	notify(&e.disp, &e.signals, &e.signals.RoundCompleted, EventRoundCompleted, RoundCompleted{
		Round:   completed,
		History: cloneHistory(e.state.RoundHistory),
	})

	if e.state.CurrentRound > e.state.MaxRounds {
		return e.endGame()
	}
	e.startPhase(PhaseAnalysis, false)
	return nil
}

func (e *Engine) endGame() error {
	if e.state.Ended {
		return ErrGameEnded
	}
	e.stopTimer()
	e.token++
	e.state.Ended = true
	e.state.CurrentPhase = PhaseEnded
	e.state.PhaseDeadline = time.Time{}

	results := finalResults(e.state.Players)
	e.logger.Info("Game ended", "rounds", len(e.state.RoundHistory), "winners", results.Winners, "total_investments", results.TotalInvestments)
	notify(&e.disp, &e.signals, &e.signals.GameEnded, EventGameEnded, GameEnded{
		FinalResults: results,
		History:      cloneHistory(e.state.RoundHistory),
	})
	return nil
}

func (e *Engine) initPhase(p Phase, replay bool) {
	switch p {
	case PhaseAnalysis:
		notify(&e.disp, &e.signals, &e.signals.AnalysisPhaseReady, EventAnalysisPhaseReady, AnalysisReady{
			CurrentYear: e.state.Year,
			SystemState: e.system.SystemState(),
			Trends: Trends{
				EnergyDemandTrend: "increasing",
				RenewableTrend:    "increasing",
				CostTrend:         "volatile",
			},
		})

	case PhasePlanning:
		budgets := make([]BudgetLine, 0, len(e.state.Players))
		for _, pl := range e.state.Players {
			budgets = append(budgets, BudgetLine{PlayerID: pl.ID, Budget: pl.Budget, Spent: pl.Spent()})
		}
		notify(&e.disp, &e.signals, &e.signals.PlanningPhaseReady, EventPlanningPhaseReady, PlanningReady{
			Investments:       e.investments.GetAvailableInvestments(e.state.Year),
			Budgets:           budgets,
			ForecastScenarios: append([]string(nil), ForecastScenarios...),
		})

	case PhaseEvents:
		if !replay {
			e.state.GlobalEvents = e.events.GenerateEvents(e.state.Year)
		}
		notify(&e.disp, &e.signals, &e.signals.EventsPhaseReady, EventEventsPhaseReady, EventsReady{
			Events: cloneEvents(e.state.GlobalEvents),
		})

	case PhaseReality:
		outcome := e.assessReality()
		for i := range e.state.Players {
			pl := &e.state.Players[i]
			dev := outcome.Deviations[i].Deviations
			pl.ActualResults = map[string]float64{
				"actualCosts":         outcome.Reality.ActualCosts,
				"actualCO2":           outcome.Reality.ActualCO2,
				"actualResilience":    outcome.Reality.ActualResilience,
				"costsDeviation":      dev.Costs,
				"co2Deviation":        dev.CO2,
				"resilienceDeviation": dev.Resilience,
			}
		}
		notify(&e.disp, &e.signals, &e.signals.RealityPhaseReady, EventRealityPhaseReady, RealityReady{
			Reality:    outcome.Reality,
			Deviations: outcome.Deviations,
		})

	case PhaseEvaluation:
		evals := evaluate(e.state.Players)
		if !replay {
			for i, ev := range evals {
				pl := &e.state.Players[i]
				pl.Performance.Costs = append(pl.Performance.Costs, pl.Spent())
				pl.Performance.CO2 = append(pl.Performance.CO2, ev.Scores.Ecological)
				pl.Performance.Resilience = append(pl.Performance.Resilience, ev.Scores.Resilience)
			}
		}
		notify(&e.disp, &e.signals, &e.signals.EvaluationPhaseReady, EventEvaluationPhaseReady, EvaluationReady{
			Evaluation: evals,
			Rankings:   rank(evals),
			Lessons:    append([]string(nil), Lessons...),
		})
	}
}

func (e *Engine) assessReality() RealityOutcome {
	in := RealityInput{
		Year:    e.state.Year,
		Round:   e.state.CurrentRound,
		Events:  cloneEvents(e.state.GlobalEvents),
		Players: clonePlayers(e.state.Players),
	}
	ctx, cancel := context.WithTimeout(context.Background(), e.realityTimeout)
	defer cancel()

	outcome, err := e.reality.Assess(ctx, in)
	if err != nil {
		e.logger.Warn("Reality model failed, using neutral outcome", "round", in.Round, "error", err)
		outcome, _ = NeutralReality{}.Assess(ctx, in)
	}
	outcome.Deviations = alignDeviations(e.state.Players, outcome.Deviations)
	return outcome
}

// normalize fills nil collections of a decoded snapshot so that clones and
// JSON output stay consistent.
func normalize(st GameState, maxRounds int) GameState {
	if st.MaxRounds == 0 {
		st.MaxRounds = maxRounds
	}
	if st.GlobalEvents == nil {
		st.GlobalEvents = []GameEvent{}
	}
	if st.RoundHistory == nil {
		st.RoundHistory = []RoundSnapshot{}
	}
	if st.Players == nil {
		st.Players = []Player{}
	}
	for i := range st.Players {
		if st.Players[i].Forecasts == nil {
			st.Players[i].Forecasts = map[string]json.RawMessage{}
		}
	}
	if st.Ended {
		st.CurrentPhase = PhaseEnded
	}
	return st
}

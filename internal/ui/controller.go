// Package ui is the view controller shared by the web and terminal shells.
// It owns the current engine, keeps a view model in step with the engine's
// notifications and turns player actions into engine calls.
package ui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nfrund/planspiel/internal/game"
	"github.com/nfrund/planspiel/internal/storage"
)

// DefaultSnapshotID is the snapshot slot of the shared game.
const DefaultSnapshotID = "current"

var (
	// ErrEmptyRoster is returned when a game is started without players.
	ErrEmptyRoster = errors.New("no players added")
	// ErrInvalidPlayer is returned for a player without a name.
	ErrInvalidPlayer = errors.New("player name is required")
	// ErrUnknownRole is returned for a role outside Roles.
	ErrUnknownRole = errors.New("unknown role")
	// ErrGameInProgress is returned when the roster is changed while a game runs.
	ErrGameInProgress = errors.New("game in progress")
	// ErrUnknownOffer is returned for an investment id that is not on offer.
	ErrUnknownOffer = errors.New("investment not on offer")
	// ErrUnknownScenario is returned for a forecast scenario outside
	// game.ForecastScenarios.
	ErrUnknownScenario = errors.New("unknown forecast scenario")
)

// Message returns the text to show a player for an error returned by the
// controller.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmptyRoster):
		return MsgEmptyRoster
	case errors.Is(err, game.ErrInsufficientBudget):
		return MsgInsufficientBudget
	case errors.Is(err, ErrInvalidPlayer):
		return "Bitte einen Spielernamen eingeben."
	case errors.Is(err, ErrUnknownRole):
		return "Unbekannte Rolle."
	case errors.Is(err, ErrGameInProgress):
		return "Das Spiel läuft bereits."
	case errors.Is(err, ErrUnknownOffer):
		return "Diese Investition ist nicht im Angebot."
	case errors.Is(err, ErrUnknownScenario), errors.Is(err, game.ErrInvalidForecast):
		return "Ungültige Prognose."
	case errors.Is(err, game.ErrPlayerNotFound):
		return "Unbekannte*r Spieler*in."
	case errors.Is(err, game.ErrGameEnded):
		return StatusEnded
	case errors.Is(err, game.ErrGameNotRunning):
		return "Das Spiel wurde noch nicht gestartet."
	case errors.Is(err, game.ErrPhaseNotAllowed):
		return "In dieser Phase nicht möglich."
	default:
		return "Ein unerwarteter Fehler ist aufgetreten."
	}
}

// reason is the metrics label of a rejected investment.
func reason(err error) string {
	switch {
	case errors.Is(err, game.ErrInsufficientBudget):
		return "insufficient_budget"
	case errors.Is(err, ErrUnknownOffer):
		return "unknown_offer"
	case errors.Is(err, game.ErrPlayerNotFound):
		return "player_not_found"
	case errors.Is(err, game.ErrPhaseNotAllowed):
		return "phase_not_allowed"
	case errors.Is(err, game.ErrGameEnded), errors.Is(err, game.ErrGameNotRunning):
		return "game_not_running"
	default:
		return "invalid"
	}
}

// EngineFactory creates a fresh engine. It is called at start-up and on
// every reset.
type EngineFactory func() *game.Engine

// Hook attaches something to an engine's signals and returns the function
// that detaches it again. Hooks are re-run for every new engine.
type Hook func(e *game.Engine) (detach func())

// Rejections records investments the engine refused.
type Rejections interface {
	RecordRejected(reason string)
}

// Change tells listeners what happened. Event is an engine event name, or
// one of the controller's own: "roster", "notice" and "reset".
type Change struct {
	Event string
}

// Controller change events that do not come from the engine.
const (
	ChangeRoster = "roster"
	ChangeNotice = "notice"
	ChangeReset  = "reset"
)

// Dependencies holds what the controller needs. Only NewEngine is required.
type Dependencies struct {
	NewEngine  EngineFactory
	Store      storage.Store
	SnapshotID string
	Hooks      []Hook
	Rejections Rejections
	Logger     *slog.Logger
	// SaveTimeout bounds a snapshot write.
	SaveTimeout time.Duration
}

// Controller is the game's view controller. All methods are safe for
// concurrent use. Engine calls are made without holding the controller's
// lock, so the engine's notifications can update the view synchronously.
type Controller struct {
	deps   Dependencies
	logger *slog.Logger

	mu       sync.RWMutex
	engine   *game.Engine
	detach   []func()
	view     View
	roster   []game.PlayerInfo
	gen      uint64
	nextID   int
	watchers map[int]func(Change)
}

// New creates a controller with a fresh engine.
func New(deps Dependencies) *Controller {
	if deps.NewEngine == nil {
		deps.NewEngine = func() *game.Engine { return game.New() }
	}
	if deps.Store == nil {
		deps.Store = storage.NewMemoryStore()
	}
	if deps.SnapshotID == "" {
		deps.SnapshotID = DefaultSnapshotID
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.SaveTimeout <= 0 {
		deps.SaveTimeout = 5 * time.Second
	}

	c := &Controller{
		deps:     deps,
		logger:   deps.Logger.With("component", "ui_controller"),
		view:     idleView(),
		roster:   []game.PlayerInfo{},
		watchers: map[int]func(Change){},
	}
	c.install(deps.NewEngine())
	return c
}

// Engine returns the current engine. The engine is replaced on Reset.
func (c *Controller) Engine() *game.Engine {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.engine
}

// View returns a copy of the current view model.
func (c *Controller) View() View {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v := c.view.clone()
	v.Roster = slices.Clone(c.roster)
	return v
}

// State returns the current game state.
func (c *Controller) State() game.GameState {
	return c.Engine().State()
}

// OnChange registers fn to be called after the view changed. fn runs on the
// goroutine that caused the change and must not block.
func (c *Controller) OnChange(fn func(Change)) (unsubscribe func()) {
	c.mu.Lock()
	c.nextID++
	id := c.nextID
	c.watchers[id] = fn
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.watchers, id)
		c.mu.Unlock()
	}
}

// AddPlayer adds a player to the roster of the next game.
func (c *Controller) AddPlayer(name, role string) (game.PlayerInfo, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return game.PlayerInfo{}, ErrInvalidPlayer
	}
	if !validRole(role) {
		return game.PlayerInfo{}, fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}

	c.mu.Lock()
	if c.view.Started && !c.view.Ended {
		c.mu.Unlock()
		return game.PlayerInfo{}, ErrGameInProgress
	}
	info := game.PlayerInfo{ID: "player_" + uuid.NewString(), Name: name, Role: role}
	c.roster = append(c.roster, info)
	c.mu.Unlock()

	c.logger.Info("Player added", "player_id", info.ID, "role", role)
	c.changed(ChangeRoster)
	return info, nil
}

// RemovePlayer removes a player from the roster of the next game.
func (c *Controller) RemovePlayer(id string) error {
	c.mu.Lock()
	if c.view.Started && !c.view.Ended {
		c.mu.Unlock()
		return ErrGameInProgress
	}
	i := slices.IndexFunc(c.roster, func(p game.PlayerInfo) bool { return p.ID == id })
	if i < 0 {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", game.ErrPlayerNotFound, id)
	}
	c.roster = slices.Delete(c.roster, i, i+1)
	c.mu.Unlock()

	c.changed(ChangeRoster)
	return nil
}

// StartGame starts a game with the current roster.
func (c *Controller) StartGame() error {
	c.mu.RLock()
	roster := slices.Clone(c.roster)
	engine := c.engine
	c.mu.RUnlock()

	if len(roster) == 0 {
		c.notice(MsgEmptyRoster)
		return ErrEmptyRoster
	}
	return engine.StartGame(roster)
}

// Skip completes the current phase now.
func (c *Controller) Skip() error {
	return c.Engine().SkipToNextPhase()
}

// Invest buys the offer with the given id for a player. The offer must be
// one of the investments announced for the current planning phase.
func (c *Controller) Invest(playerID, investmentID string) error {
	c.mu.RLock()
	engine := c.engine
	i := slices.IndexFunc(c.view.Offers, func(o game.Investment) bool { return o.ID == investmentID })
	var offer game.Investment
	if i >= 0 {
		offer = c.view.Offers[i]
	}
	c.mu.RUnlock()

	var err error
	if i < 0 {
		err = fmt.Errorf("%w: %s", ErrUnknownOffer, investmentID)
	} else {
		err = engine.MakeInvestment(playerID, offer)
	}
	if err != nil {
		if c.deps.Rejections != nil {
			c.deps.Rejections.RecordRejected(reason(err))
		}
		c.logger.Debug("Investment rejected", "player_id", playerID, "investment", investmentID, "error", err)
		c.notice(Message(err))
	}
	return err
}

// Forecast stores a player's forecast for one of the known scenarios.
func (c *Controller) Forecast(playerID, scenario string, forecast json.RawMessage) error {
	if !slices.Contains(game.ForecastScenarios, scenario) {
		return fmt.Errorf("%w: %q", ErrUnknownScenario, scenario)
	}
	return c.Engine().MakeForecast(playerID, scenario, forecast)
}

// Reset discards the current game, its snapshot and the roster, and starts
// over with a fresh engine.
func (c *Controller) Reset(ctx context.Context) error {
	next := c.deps.NewEngine()

	c.mu.Lock()
	c.gen++
	c.view = idleView()
	c.roster = []game.PlayerInfo{}
	c.mu.Unlock()

	// The fresh engine is current before the snapshot goes, so callers
	// racing the delete never see a missing engine.
	old, detach := c.install(next)
	for _, d := range detach {
		d()
	}
	if old != nil {
		old.Close()
	}

	var err error
	if derr := c.deps.Store.Delete(ctx, c.deps.SnapshotID); derr != nil {
		err = fmt.Errorf("delete snapshot: %w", derr)
	}
	c.logger.Info("Game reset")
	c.changed(ChangeReset)
	return err
}

// Restore resumes the stored game, if any. It reports whether a snapshot
// was found.
func (c *Controller) Restore(ctx context.Context) (bool, error) {
	snap, err := c.deps.Store.Load(ctx, c.deps.SnapshotID)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load snapshot: %w", err)
	}

	c.mu.Lock()
	c.roster = make([]game.PlayerInfo, 0, len(snap.State.Players))
	for _, p := range snap.State.Players {
		c.roster = append(c.roster, game.PlayerInfo{ID: p.ID, Name: p.Name, Role: p.Role})
	}
	engine := c.engine
	c.mu.Unlock()

	if err := engine.Restore(snap.State); err != nil {
		return false, fmt.Errorf("restore snapshot: %w", err)
	}
	c.logger.Info("Game restored from snapshot", "saved_at", snap.SavedAt, "round", snap.State.CurrentRound)
	return true, nil
}

// Close stops the current engine and detaches every hook.
func (c *Controller) Close() {
	c.mu.Lock()
	engine := c.engine
	detach := c.detach
	c.detach = nil
	c.gen++
	c.mu.Unlock()

	for _, d := range detach {
		d()
	}
	if engine != nil {
		engine.Close()
	}
}

// install subscribes the controller and the hooks to e and makes it current.
// It hands back the engine it replaced together with that engine's detach
// funcs.
func (c *Controller) install(e *game.Engine) (*game.Engine, []func()) {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.mu.Unlock()

	ev := e.Events()
	detach := []func(){
		ev.GameStarted.Subscribe(guard(c, gen, game.EventGameStarted, c.onGameStarted)),
		ev.PhaseStarted.Subscribe(guard(c, gen, game.EventPhaseStarted, c.onPhaseStarted)),
		ev.AnalysisPhaseReady.Subscribe(guard(c, gen, game.EventAnalysisPhaseReady, c.onAnalysis)),
		ev.PlanningPhaseReady.Subscribe(guard(c, gen, game.EventPlanningPhaseReady, c.onPlanning)),
		ev.EventsPhaseReady.Subscribe(guard(c, gen, game.EventEventsPhaseReady, c.onEvents)),
		ev.RealityPhaseReady.Subscribe(guard(c, gen, game.EventRealityPhaseReady, c.onReality)),
		ev.EvaluationPhaseReady.Subscribe(guard(c, gen, game.EventEvaluationPhaseReady, c.onEvaluation)),
		ev.InvestmentMade.Subscribe(guard(c, gen, game.EventInvestmentMade, c.onInvestment)),
		ev.ForecastMade.Subscribe(guard(c, gen, game.EventForecastMade, c.onForecast)),
		ev.RoundCompleted.Subscribe(guard(c, gen, game.EventRoundCompleted, c.onRoundCompleted)),
		ev.GameEnded.Subscribe(guard(c, gen, game.EventGameEnded, c.onGameEnded)),
	}
	for _, hook := range c.deps.Hooks {
		detach = append(detach, hook(e))
	}

	c.mu.Lock()
	old, oldDetach := c.engine, c.detach
	c.engine = e
	c.detach = detach
	c.mu.Unlock()
	return old, oldDetach
}

// guard drops notifications of an engine that has since been replaced and
// tells listeners once the view is updated.
func guard[T any](c *Controller, gen uint64, name game.EventName, fn func(*game.Engine, T)) func(T) {
	return func(v T) {
		c.mu.RLock()
		current := c.gen == gen
		engine := c.engine
		c.mu.RUnlock()
		if !current || engine == nil {
			return
		}
		fn(engine, v)
		c.changed(string(name))
	}
}

func (c *Controller) changed(event string) {
	c.mu.RLock()
	fns := make([]func(Change), 0, len(c.watchers))
	for _, fn := range c.watchers {
		fns = append(fns, fn)
	}
	c.mu.RUnlock()
	for _, fn := range fns {
		fn(Change{Event: event})
	}
}

func (c *Controller) notice(msg string) {
	c.mu.Lock()
	c.view.Notice = msg
	c.mu.Unlock()
	c.changed(ChangeNotice)
}

func (c *Controller) refreshPlayers(players []game.Player) {
	c.view.Players = make([]Dashboard, 0, len(players))
	for _, p := range players {
		c.view.Players = append(c.view.Players, dashboardFor(p))
	}
}

func (c *Controller) onGameStarted(_ *game.Engine, st game.GameState) {
	c.mu.Lock()
	c.view.Started = true
	c.view.Ended = st.Ended
	c.view.Status = StatusRunning
	if st.Ended {
		c.view.Status = StatusEnded
	}
	c.view.Round = st.CurrentRound
	c.view.MaxRounds = st.MaxRounds
	c.view.Year = st.Year
	c.view.LastRound = len(st.RoundHistory)
	c.view.Final = nil
	c.refreshPlayers(st.Players)
	c.mu.Unlock()

	c.save(st)
}

func (c *Controller) onPhaseStarted(e *game.Engine, p game.PhaseStarted) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view.Phase = p.Phase
	c.view.PhaseName = p.Name
	c.view.PhaseDescription = p.Phase.Description()
	c.view.PhaseDuration = e.PhaseDuration(p.Phase)
	c.view.Deadline = p.Deadline
	c.view.Round = p.Round
	c.view.Year = p.Year
	c.view.Notice = ""
}

func (c *Controller) onAnalysis(_ *game.Engine, a game.AnalysisReady) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view.ShowInvestments = false
	c.view.ShowEvents = false
	c.view.Offers = nil
	c.view.Events = nil
	c.view.Reality = nil
	c.view.Evaluation = nil
	c.view.Analysis = &a
	c.view.Summary = phaseSummaries[game.PhaseAnalysis]
}

func (c *Controller) onPlanning(_ *game.Engine, p game.PlanningReady) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view.ShowInvestments = true
	c.view.Offers = slices.Clone(p.Investments)
	if len(p.ForecastScenarios) > 0 {
		c.view.ForecastScenarios = slices.Clone(p.ForecastScenarios)
	}
	c.view.Summary = phaseSummaries[game.PhasePlanning]
}

func (c *Controller) onEvents(_ *game.Engine, ev game.EventsReady) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view.ShowEvents = true
	c.view.Events = make([]game.GameEvent, len(ev.Events))
	for i, e := range ev.Events {
		c.view.Events[i] = e.Clone()
	}
	c.view.Summary = phaseSummaries[game.PhaseEvents]
}

func (c *Controller) onReality(_ *game.Engine, r game.RealityReady) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view.Reality = &r
	c.view.Summary = phaseSummaries[game.PhaseReality]
}

func (c *Controller) onEvaluation(e *game.Engine, ev game.EvaluationReady) {
	st := e.State()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view.Evaluation = &ev
	c.view.Summary = phaseSummaries[game.PhaseEvaluation]
	c.refreshPlayers(st.Players)
}

func (c *Controller) onInvestment(e *game.Engine, _ game.InvestmentMade) {
	// The dashboard shows the engine's current numbers rather than the
	// payload, as later investments may already have been made.
	st := e.State()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refreshPlayers(st.Players)
}

func (c *Controller) onForecast(_ *game.Engine, f game.ForecastMade) {
	c.logger.Debug("Forecast made", "player_id", f.PlayerID, "scenario", f.Scenario)
}

func (c *Controller) onRoundCompleted(e *game.Engine, r game.RoundCompleted) {
	st := e.State()
	c.mu.Lock()
	c.view.LastRound = r.Round
	c.view.Round = st.CurrentRound
	c.view.Year = st.Year
	c.refreshPlayers(st.Players)
	c.mu.Unlock()

	c.logger.Info("Round completed", "round", r.Round)
	c.save(st)
}

func (c *Controller) onGameEnded(e *game.Engine, g game.GameEnded) {
	st := e.State()
	c.mu.Lock()
	c.view.Ended = true
	c.view.Status = StatusEnded
	c.view.Phase = game.PhaseEnded
	c.view.PhaseName = game.PhaseEnded.DisplayName()
	c.view.PhaseDescription = ""
	c.view.Deadline = time.Time{}
	c.view.ShowInvestments = false
	c.view.Offers = nil
	final := g.FinalResults
	c.view.Final = &final
	c.view.Summary = MsgFinalResults
	c.refreshPlayers(st.Players)
	c.mu.Unlock()

	c.save(st)
}

func (c *Controller) save(st game.GameState) {
	ctx, cancel := context.WithTimeout(context.Background(), c.deps.SaveTimeout)
	defer cancel()
	snap := storage.Snapshot{ID: c.deps.SnapshotID, SavedAt: time.Now().UTC(), State: st}
	if err := c.deps.Store.Save(ctx, snap); err != nil {
		c.logger.Error("Failed to save snapshot", "round", st.CurrentRound, "error", err)
	}
}

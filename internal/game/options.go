package game

import (
	"log/slog"
	"time"

	"github.com/nfrund/planspiel/internal/catalog"
	"github.com/nfrund/planspiel/internal/schedule"
)

type options struct {
	scheduler      schedule.Scheduler
	now            func() time.Time
	timeScale      float64
	phaseGuards    bool
	maxRounds      int
	logger         *slog.Logger
	rng            Random
	seed           uint64
	catalog        *catalog.Source
	events         *EventManager
	investments    *InvestmentEngine
	reality        RealityModel
	system         SystemStateProvider
	realityTimeout time.Duration
}

// Option configures an Engine.
type Option func(*options)

// WithScheduler sets the scheduler that arms phase timers.
func WithScheduler(s schedule.Scheduler) Option {
	return func(o *options) {
		if s != nil {
			o.scheduler = s
		}
	}
}

// WithClock sets the time source used for phase deadlines. Pair it with
// the clock of a manual scheduler.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithTimeScale multiplies every phase duration by scale. Non-positive
// values are ignored.
func WithTimeScale(scale float64) Option {
	return func(o *options) {
		if scale > 0 {
			o.timeScale = scale
		}
	}
}

// WithPhaseGuards restricts investments to the planning phase and forecasts
// to the analysis and planning phases.
func WithPhaseGuards(enabled bool) Option {
	return func(o *options) {
		o.phaseGuards = enabled
	}
}

// WithMaxRounds changes the number of rounds before the game ends.
func WithMaxRounds(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxRounds = n
		}
	}
}

// WithLogger sets the engine's logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithRandom sets the random source shared by the event and investment
// generators.
func WithRandom(r Random) Option {
	return func(o *options) {
		o.rng = r
	}
}

// WithSeed seeds the default random source for reproducible games.
func WithSeed(seed uint64) Option {
	return func(o *options) {
		o.seed = seed
	}
}

// WithCatalog sets the event and technology tables.
func WithCatalog(src *catalog.Source) Option {
	return func(o *options) {
		o.catalog = src
	}
}

// WithEventManager replaces the event generator.
func WithEventManager(m *EventManager) Option {
	return func(o *options) {
		o.events = m
	}
}

// WithInvestmentEngine replaces the investment generator.
func WithInvestmentEngine(ie *InvestmentEngine) Option {
	return func(o *options) {
		o.investments = ie
	}
}

// WithRealityModel sets the model that assesses each year in the reality
// phase.
func WithRealityModel(m RealityModel) Option {
	return func(o *options) {
		if m != nil {
			o.reality = m
		}
	}
}

// WithRealityTimeout bounds a single reality assessment.
func WithRealityTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.realityTimeout = d
		}
	}
}

// WithSystemState sets the provider of the analysis phase figures.
func WithSystemState(p SystemStateProvider) Option {
	return func(o *options) {
		if p != nil {
			o.system = p
		}
	}
}

// Package app wires the game services and the application modules.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/nfrund/planspiel/internal/catalog"
	"github.com/nfrund/planspiel/internal/config"
	"github.com/nfrund/planspiel/internal/districts"
	"github.com/nfrund/planspiel/internal/game"
	"github.com/nfrund/planspiel/internal/metrics"
	"github.com/nfrund/planspiel/internal/modules/planspiel"
	"github.com/nfrund/planspiel/internal/pubsub"
	"github.com/nfrund/planspiel/internal/schedule"
	"github.com/nfrund/planspiel/internal/script"
	"github.com/nfrund/planspiel/internal/storage"
	"github.com/nfrund/planspiel/internal/ui"
	"github.com/nfrund/planspiel/internal/watch"
)

// DistrictRefresh is how often district data is reloaded.
const DistrictRefresh = 15 * time.Minute

// Game holds the services shared by the web and the terminal shell.
type Game struct {
	Config     config.Provider
	Logger     *slog.Logger
	Catalog    *catalog.Source
	Store      storage.Store
	Bus        *pubsub.WatermillBridge
	Metrics    *metrics.Collector // nil when metrics are disabled
	Controller *ui.Controller

	closers []func(context.Context)
}

// NewGame builds the game services from cfg. Hot reloading and district
// refreshes run until ctx is done. A nil sched uses real timers.
func NewGame(ctx context.Context, cfg config.Provider, logger *slog.Logger, sched schedule.Scheduler) (*Game, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if sched == nil {
		sched = schedule.NewReal()
	}
	g := &Game{Config: cfg, Logger: logger}

	g.Catalog = catalog.NewSource(catalog.Default())
	if path := cfg.GetCatalogPath(); path != "" {
		if err := g.Catalog.ReloadFile(path); err != nil {
			return nil, fmt.Errorf("load catalog: %w", err)
		}
		err := watch.File(ctx, path, func(p string) {
			// Failures keep the previous tables and are logged by the source.
			_ = g.Catalog.ReloadFile(p)
		})
		if err != nil {
			return nil, err
		}
	}

	opts := []game.Option{
		game.WithScheduler(sched),
		game.WithCatalog(g.Catalog),
		game.WithTimeScale(cfg.GetPhaseTimeScale()),
		game.WithPhaseGuards(cfg.GetPhaseGuards()),
		game.WithSeed(cfg.GetRandomSeed()),
		game.WithLogger(logger),
	}

	if path := cfg.GetRealityScript(); path != "" {
		reality := script.NewRealityScript(logger)
		if err := reality.Watch(ctx, path); err != nil {
			return nil, fmt.Errorf("load reality script: %w", err)
		}
		opts = append(opts, game.WithRealityModel(reality))
	}

	if url := cfg.GetDistrictsAPIURL(); url != "" {
		provider := districts.NewProvider(districts.NewClient(url, &http.Client{Timeout: 10 * time.Second}), logger)
		go provider.Run(ctx, DistrictRefresh)
		opts = append(opts, game.WithSystemState(provider))
	}

	store, closeStore, err := storage.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open snapshot store: %w", err)
	}
	g.Store = store
	g.closers = append(g.closers, closeStore)

	tracing := pubsub.TracingConfigFrom(cfg)
	var busOpts []pubsub.BridgeOption
	if tracing.Enabled {
		tracer, shutdown, err := pubsub.SetupOTel(ctx, tracing)
		if err != nil {
			return nil, err
		}
		busOpts = append(busOpts, pubsub.WithTracer(tracer))
		g.closers = append(g.closers, func(context.Context) { shutdown() })
	}
	g.Bus = pubsub.NewWatermillBridge(logger, busOpts...)

	hooks := []ui.Hook{planspiel.Mirror(g.Bus, logger)}
	deps := ui.Dependencies{
		NewEngine: func() *game.Engine { return game.New(opts...) },
		Store:     g.Store,
		Logger:    logger,
	}
	if cfg.GetMetricsEnabled() {
		g.Metrics = metrics.New()
		hooks = append(hooks, func(e *game.Engine) func() { return g.Metrics.Attach(e.Events()) })
		deps.Rejections = g.Metrics
	}
	deps.Hooks = hooks
	g.Controller = ui.New(deps)
	return g, nil
}

// Close stops the controller and releases the store and the bus.
func (g *Game) Close(ctx context.Context) {
	g.Controller.Close()
	if err := g.Bus.Close(); err != nil {
		g.Logger.Warn("Failed to close message bus", "error", err)
	}
	for i := len(g.closers) - 1; i >= 0; i-- {
		g.closers[i](ctx)
	}
}

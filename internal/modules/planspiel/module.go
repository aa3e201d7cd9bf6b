// Package planspiel is the web shell of the game: the board page, its form
// actions, and the websocket fan-out of engine notifications.
package planspiel

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/nfrund/planspiel/internal/middleware"
	"github.com/nfrund/planspiel/internal/module"
	"github.com/nfrund/planspiel/internal/registry"
	"github.com/nfrund/planspiel/internal/ui"
	"github.com/nfrund/planspiel/internal/websocket"
)

// Module implements module.Module for the game.
type Module struct {
	module.BaseModule
	controller *ui.Controller
	now        func() time.Time
	logger     *slog.Logger

	// Requests per second and burst allowed on the action routes.
	actionRate  float64
	actionBurst int
}

// Options tunes the module. The services it works with come from the
// registry.
type Options struct {
	Now    func() time.Time
	Logger *slog.Logger

	ActionRate  float64
	ActionBurst int
}

// New creates the module.
func New(opts Options) *Module {
	m := &Module{
		now:         opts.Now,
		logger:      opts.Logger,
		actionRate:  opts.ActionRate,
		actionBurst: opts.ActionBurst,
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	if m.actionRate <= 0 {
		m.actionRate = 10
	}
	if m.actionBurst <= 0 {
		m.actionBurst = 20
	}
	return m
}

func (m *Module) Name() string {
	return "planspiel"
}

// Register looks up the game controller.
func (m *Module) Register(reg *registry.Registry) error {
	ctrl, ok := registry.Get(reg, registry.KeyController)
	if !ok || ctrl == nil {
		return fmt.Errorf("planspiel: no controller registered")
	}
	m.controller = ctrl
	return nil
}

// Boot starts the subscriber, mounts the routes and resumes a saved game.
func (m *Module) Boot(ctx context.Context, g *echo.Group, reg *registry.Registry) error {
	publisher := registry.MustGet(reg, registry.KeyPublisher)
	subscriber := registry.MustGet(reg, registry.KeySubscriber)
	renderer := registry.MustGet(reg, registry.KeyRenderer)
	// Without a bridge no socket routes are mounted.
	bridge, _ := registry.Get(reg, registry.KeyBridge)

	sub := NewSubscriber(subscriber, publisher, renderer, m.controller, m.now, m.logger)
	if err := sub.Start(ctx); err != nil {
		return err
	}

	m.logger.Info("Booting planspiel module: setting up routes")
	h := NewHandler(m.controller, renderer, publisher, m.now)

	g.GET("/", h.Page)
	g.GET("/game/state", h.State)
	g.GET("/game/timer", h.Timer)

	limit := middleware.RateLimiter(m.actionRate, m.actionBurst)
	g.POST("/players", h.AddPlayer, limit)
	g.POST("/players/remove", h.RemovePlayer, limit)
	g.POST("/session/player", h.SelectPlayer, limit)
	g.POST("/game/start", h.Start, limit)
	g.POST("/game/skip", h.Skip, limit)
	g.POST("/game/invest", h.Invest, limit)
	g.POST("/game/forecast", h.Forecast, limit)
	g.POST("/game/reset", h.Reset, limit)

	if bridge != nil {
		g.GET("/ws/html", bridge.Handler(websocket.ConnectionTypeHTML))
		g.GET("/ws/data", bridge.Handler(websocket.ConnectionTypeData))
	}

	restored, err := m.controller.Restore(ctx)
	if err != nil {
		m.logger.Error("Failed to restore saved game", "error", err)
	} else if restored {
		m.logger.Info("Resumed saved game", "round", m.controller.View().Round)
	}
	return nil
}

func (m *Module) Shutdown(ctx context.Context) error {
	m.logger.Info("Shutting down planspiel module")
	if m.controller != nil {
		m.controller.Close()
	}
	return nil
}

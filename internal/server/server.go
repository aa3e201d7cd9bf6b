// Package server assembles the HTTP server: echo with its middleware, the
// websocket bridge and the application modules.
package server

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/nfrund/planspiel/internal/app"
	"github.com/nfrund/planspiel/internal/config"
	"github.com/nfrund/planspiel/internal/handlers"
	"github.com/nfrund/planspiel/internal/middleware"
	"github.com/nfrund/planspiel/internal/module"
	"github.com/nfrund/planspiel/internal/modules/planspiel"
	"github.com/nfrund/planspiel/internal/pubsub"
	"github.com/nfrund/planspiel/internal/registry"
	"github.com/nfrund/planspiel/internal/rendering"
	"github.com/nfrund/planspiel/internal/topicmgr"
	"github.com/nfrund/planspiel/internal/view"
	"github.com/nfrund/planspiel/internal/websocket"
)

// Server holds the dependencies of the HTTP server.
type Server struct {
	E       *echo.Echo
	Cfg     config.Provider
	game    *app.Game
	bridge  *websocket.Bridge
	reg     *registry.Registry
	modules []module.Module
	logger  *slog.Logger
}

// New creates the server for g. Modules are booted by Boot or Start.
func New(cfg config.Provider, g *app.Game, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handlers.NewValidator()
	renderer := rendering.NewUniversalRenderer()
	e.Renderer = renderer
	setupErrorHandling(e)

	e.Use(echomw.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.Recover())

	store := sessions.NewCookieStore([]byte(cfg.GetSessionSecret()))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	e.Use(session.Middleware(store))

	if err := websocket.RegisterTopics(topicmgr.Default()); err != nil {
		logger.Error("Failed to register websocket topics", "error", err)
	}

	// Sockets are tied to the browser session that loaded the page.
	bridge := websocket.NewBridge(g.Bus, view.ExistingClientID, websocket.NewWhitelist(planspiel.ActionStateRequest), logger)

	reg := registry.New(cfg)
	registry.Set[pubsub.Publisher](reg, registry.KeyPublisher, g.Bus)
	registry.Set[pubsub.Subscriber](reg, registry.KeySubscriber, g.Bus)
	registry.Set[rendering.Renderer](reg, registry.KeyRenderer, renderer)
	registry.Set(reg, registry.KeyBridge, bridge)
	registry.Set(reg, registry.KeyController, g.Controller)

	s := &Server{
		E:       e,
		Cfg:     cfg,
		game:    g,
		bridge:  bridge,
		reg:     reg,
		modules: app.NewModules(logger),
		logger:  logger,
	}
	s.RegisterRoutes()
	return s
}

// Bridge returns the websocket bridge.
func (s *Server) Bridge() *websocket.Bridge {
	return s.bridge
}

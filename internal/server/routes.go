package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up the routes that belong to the server rather than
// to a module.
func (s *Server) RegisterRoutes() {
	s.E.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})
	if s.game.Metrics != nil {
		s.E.GET("/metrics", echo.WrapHandler(s.game.Metrics.Handler()))
	}
}

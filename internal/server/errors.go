package server

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/nfrund/planspiel/internal/handlers"
	"github.com/nfrund/planspiel/internal/middleware"
)

// setupErrorHandling installs the central error handler. echo.HTTPErrors
// keep their status; anything else is a 500 and is logged with a stack
// trace.
func setupErrorHandling(e *echo.Echo) {
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		message := http.StatusText(status)

		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
			if m, ok := he.Message.(string); ok {
				message = m
			}
			if status >= http.StatusInternalServerError {
				middleware.FromContext(c.Request().Context()).Error("HTTP error", "status", status, "error", err)
			}
		} else {
			slog.Error("Internal Server Error (Unhandled)",
				"error", err.Error(),
				"path", c.Request().URL.Path,
				"stack_trace", string(debug.Stack()),
			)
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		if c.Request().Header.Get("HX-Request") == "true" || acceptsHTML(c) {
			_ = c.String(status, message)
			return
		}
		_ = handlers.JSONError(c, status, codeFor(status), message)
	}
}

func acceptsHTML(c echo.Context) bool {
	return strings.HasPrefix(c.Request().Header.Get(echo.HeaderAccept), echo.MIMETextHTML)
}

func codeFor(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusTooManyRequests:
		return "rate_limited"
	default:
		if status >= http.StatusInternalServerError {
			return "internal"
		}
		return "error"
	}
}

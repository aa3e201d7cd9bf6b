// Package module defines the lifecycle contract of application features.
package module

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/nfrund/planspiel/internal/registry"
)

// Module is a self-contained application feature.
type Module interface {
	// Name returns a unique identifier for the module.
	Name() string

	// Register is called during startup to put the module's services into
	// the registry.
	Register(reg *registry.Registry) error

	// Boot is called after all modules have registered. Routes are mounted
	// on router and background work is started here.
	Boot(ctx context.Context, router *echo.Group, reg *registry.Registry) error

	// Shutdown is called during graceful shutdown.
	Shutdown(ctx context.Context) error
}

// BaseModule provides no-op Register, Boot and Shutdown methods.
type BaseModule struct{}

func (m *BaseModule) Register(reg *registry.Registry) error { return nil }
func (m *BaseModule) Boot(ctx context.Context, router *echo.Group, reg *registry.Registry) error {
	return nil
}
func (m *BaseModule) Shutdown(ctx context.Context) error {
	return nil
}

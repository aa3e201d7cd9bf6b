package app

import (
	"log/slog"

	"github.com/nfrund/planspiel/internal/module"
	"github.com/nfrund/planspiel/internal/modules/planspiel"
)

// NewModules returns the active modules of the application. Modules resolve
// the services they use from the registry.
func NewModules(logger *slog.Logger) []module.Module {
	return []module.Module{
		planspiel.New(planspiel.Options{Logger: logger}),
	}
}

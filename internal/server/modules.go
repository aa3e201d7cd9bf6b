package server

import (
	"context"
	"fmt"
)

// bootModules registers every module and then boots them on the root group.
func (s *Server) bootModules(ctx context.Context) error {
	for _, m := range s.modules {
		if err := m.Register(s.reg); err != nil {
			return fmt.Errorf("register module %s: %w", m.Name(), err)
		}
	}
	root := s.E.Group("")
	for _, m := range s.modules {
		s.logger.Info("Booting module", "module", m.Name())
		if err := m.Boot(ctx, root, s.reg); err != nil {
			return fmt.Errorf("boot module %s: %w", m.Name(), err)
		}
	}
	return nil
}

func (s *Server) shutdownModules(ctx context.Context) {
	for i := len(s.modules) - 1; i >= 0; i-- {
		m := s.modules[i]
		if err := m.Shutdown(ctx); err != nil {
			s.logger.Error("Module shutdown failed", "module", m.Name(), "error", err)
		}
	}
}

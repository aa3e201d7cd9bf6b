package server

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// ShutdownTimeout bounds the graceful shutdown.
const ShutdownTimeout = 10 * time.Second

// Boot starts the websocket bridge and boots the modules. The bridge runs
// until ctx is done.
func (s *Server) Boot(ctx context.Context) error {
	go s.bridge.Run(ctx)
	if err := s.bridge.Subscribe(ctx, s.game.Bus); err != nil {
		return err
	}
	return s.bootModules(ctx)
}

// Start boots the server and serves HTTP until ctx is done or an interrupt
// arrives, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := s.Boot(ctx); err != nil {
		return err
	}

	addr := s.Cfg.GetAppAddr()
	errCh := make(chan error, 1)
	go func() {
		if err := s.E.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	s.logger.Info("Server started", "addr", addr, "base_url", s.Cfg.GetAppBaseURL())

	select {
	case <-waitForShutdown(ctx):
	case err := <-errCh:
		return err
	}

	s.logger.Info("Shutting down server")
	shutdownCtx, done := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer done()

	err := s.E.Shutdown(shutdownCtx)
	s.shutdownModules(shutdownCtx)
	cancel()
	s.bridge.Wait()
	return err
}

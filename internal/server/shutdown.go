package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// waitForShutdown returns a channel that is closed when ctx is done or an
// interrupt or terminate signal is received.
func waitForShutdown(ctx context.Context) <-chan struct{} {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	done := make(chan struct{})
	go func() {
		<-ctx.Done()
		stop()
		close(done)
	}()
	return done
}

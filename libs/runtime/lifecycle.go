package runtime

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"
)

// SignalContext is cancelled on SIGINT or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// Step is one named part of a graceful shutdown.
type Step struct {
	Name string
	Stop func(context.Context) error
}

// Shutdown runs steps in order under a single deadline. A failing step is
// logged and the remaining steps still run. It returns the number of failures.
func Shutdown(logger *slog.Logger, timeout time.Duration, steps ...Step) int {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	failed := 0
	for _, s := range steps {
		if s.Stop == nil {
			continue
		}
		if err := s.Stop(ctx); err != nil {
			failed++
			logger.Error("shutdown step failed", "step", s.Name, "err", err)
			continue
		}
		logger.Info("stopped", "step", s.Name)
	}
	return failed
}

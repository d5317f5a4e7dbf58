package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"
)

const shutdownGrace = 10 * time.Second

// Closer releases a backend once the server has drained.
type Closer func(ctx context.Context) error

// Run serves srv until ctx is done or the listener fails. On the way out it drains
// in-flight requests, then runs closers in reverse order.
func Run(ctx context.Context, srv *http.Server, logger *slog.Logger, closers ...Closer) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		closeAll(context.Background(), logger, closers)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("shutting down", "cause", context.Cause(ctx))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	closeAll(shutdownCtx, logger, closers)
	if err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}

func closeAll(ctx context.Context, logger *slog.Logger, closers []Closer) {
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](ctx); err != nil {
			logger.Warn("close failed", "error", err)
		}
	}
}

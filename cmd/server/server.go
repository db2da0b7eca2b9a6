package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"
)

const shutdownGracePeriod = 10 * time.Second

// startHTTPServer serves the router until SIGINT/SIGTERM or a listener
// failure, then drains in-flight requests within shutdownGracePeriod and
// releases application resources. It blocks for the lifetime of the server.
func (app *application) startHTTPServer(ctx context.Context, router http.Handler) error {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", app.config.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	listenErr := make(chan error, 1)
	go func() {
		app.logger.Info("server listening", "port", app.config.Server.Port)
		listenErr <- server.ListenAndServe()
	}()

	select {
	case <-signalCtx.Done():
		app.logger.Info("shutdown signal received")
	case err := <-listenErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.cleanup()
			return fmt.Errorf("server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		app.logger.Error("graceful shutdown failed", "error", err)
		app.cleanup()
		return fmt.Errorf("server shutdown: %w", err)
	}

	app.cleanup()
	app.logger.Info("server stopped")
	return nil
}

// internal/api/api.go
// Provides the status HTTP server: health and Prometheus metrics for a running bot.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/erilali/showdown/internal/bot"
	"github.com/erilali/showdown/internal/logger"
)

const (
	version         = "1.0.0"
	shutdownTimeout = 5 * time.Second
)

// StatusSource reports bot state. *bot.Bot satisfies it.
type StatusSource interface {
	Status() bot.Status
}

// NewRouter builds the status routes. metricsHandler may be nil.
func NewRouter(src StatusSource, metricsHandler http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		status := src.Status()
		health := map[string]interface{}{
			"status":    "ok",
			"version":   version,
			"connected": status.Connected,
			"named":     status.Named,
			"username":  status.Username,
			"rooms":     status.Rooms,
			"relay":     status.Relay,
		}
		code := http.StatusOK
		if !status.Connected {
			health["status"] = "disconnected"
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(health)
	})
	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}
	return r
}

// StartServer serves handler on addr until ctx is cancelled, then shuts
// down gracefully.
func StartServer(ctx context.Context, addr string, handler http.Handler, log *logger.Logger) error {
	log = logger.OrNop(log)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Status server started at %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	log.Info("Status server stopped")
	return nil
}

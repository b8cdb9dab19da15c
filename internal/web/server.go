// Package web serves the catalog as a JSON HTTP API with Prometheus metrics.
package web

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/EightFlix/Error/internal/config"
	"github.com/EightFlix/Error/internal/logger"
	"github.com/EightFlix/Error/internal/ops"
)

// ShutdownTimeout bounds graceful shutdown.
const ShutdownTimeout = 5 * time.Second

// NewRouter builds the chi router for the catalog API.
func NewRouter(catalog *ops.Catalog, log *logger.Logger) http.Handler {
	if log == nil {
		log = logger.Default()
	}
	h := &Handlers{catalog: catalog, log: log.WithComponent("web")}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.log))
	r.Use(metrics)
	r.Use(middleware.Recoverer)
	r.Use(securityHeaders)

	r.Get("/health", h.HandleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/search", h.HandleSearch)
		r.Get("/page", h.HandlePage)

		r.Post("/files", h.HandleSave)
		r.Delete("/files", h.HandleDelete)
		r.Get("/files/{id}", h.HandleGet)
		r.Patch("/files/{id}/caption", h.HandleUpdateCaption)
		r.Patch("/files/{id}/quality", h.HandleUpdateQuality)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody("NOT_FOUND", "no such route", 404))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody("INVALID_REQUEST", "method not allowed", 405))
	})

	return r
}

// NewServer creates the HTTP server listening on cfg.HTTPAddr.
func NewServer(catalog *ops.Catalog, cfg *config.Config, log *logger.Logger) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(catalog, log),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
}

// Run starts the HTTP server and handles graceful shutdown on SIGINT/SIGTERM.
func Run(srv *http.Server, log *logger.Logger) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	log.Info("http server listening", "addr", srv.Addr)
	if strings.HasPrefix(srv.Addr, ":") || strings.Contains(srv.Addr, "0.0.0.0") || strings.Contains(srv.Addr, "[::]") {
		log.Warn("http server is bound to all interfaces", "addr", srv.Addr)
	}

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case sig := <-sigCh:
		log.Info("shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}

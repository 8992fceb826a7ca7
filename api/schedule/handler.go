// Package schedule exposes the generator and the optimizer over HTTP.
package schedule

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kilianp07/caresched/app"
	"github.com/kilianp07/caresched/core/generator"
	"github.com/kilianp07/caresched/core/logger"
	"github.com/kilianp07/caresched/core/optimizer"
	"github.com/kilianp07/caresched/infra/journal"
)

// DefaultMaxBodyBytes caps POST bodies when no limit is configured.
const DefaultMaxBodyBytes = 8 << 20

// Service is what the handler needs from the application.
type Service interface {
	Mode(name string) (optimizer.Mode, error)
	MaxBudget() time.Duration
	Optimize(ctx context.Context, snap optimizer.Snapshot, mode optimizer.Mode, budget time.Duration) (app.Result, error)
	Generate(ctx context.Context, overrides generator.Config) (*generator.Result, error)
	Runs(ctx context.Context, q journal.Query) ([]journal.Record, error)
}

// Options tunes the handler.
type Options struct {
	MaxBodyBytes int64
	// Metrics serves /metrics when set.
	Metrics http.Handler
	Logger  logger.Logger
}

// Handler serves the schedule API.
type Handler struct {
	svc     Service
	maxBody int64
	log     logger.Logger

	Mux *chi.Mux
}

// NewHandler creates a Handler with its routes registered.
func NewHandler(svc Service, opts Options) *Handler {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	h := &Handler{
		svc:     svc,
		maxBody: opts.MaxBodyBytes,
		log:     logger.OrNop(opts.Logger),
		Mux:     chi.NewRouter(),
	}
	h.registerRoutes(opts.Metrics)
	return h
}

// PromHandler is the default /metrics handler.
func PromHandler() http.Handler { return promhttp.Handler() }

func (h *Handler) registerRoutes(metrics http.Handler) {
	h.Mux.Use(h.requestLogger)
	h.Mux.Use(h.recoverer)

	h.Mux.Get("/healthz", h.Health)
	h.Mux.Route("/faker-schedule", func(r chi.Router) {
		r.Get("/", h.FakerSchedule)
	})
	h.Mux.Route("/optimize-schedule", func(r chi.Router) {
		r.Get("/", h.OptimizeQuery)
		r.Post("/", h.OptimizeBody)
	})
	h.Mux.Get("/runs", h.Runs)
	if metrics != nil {
		h.Mux.Handle("/metrics", metrics)
	}
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) { h.Mux.ServeHTTP(w, r) }

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// Package httpapi exposes the operational HTTP surface: liveness,
// Prometheus metrics and a read-only stats endpoint over the analytics
// aggregator.
package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Wyvern137/hackathon/internal/analytics"
	"github.com/Wyvern137/hackathon/internal/logging"
)

// Server wraps the HTTP listener and its routes.
type Server struct {
	http   *http.Server
	logger *slog.Logger
}

// Option configures the server.
type Option func(*Server)

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// New builds the server. A nil gatherer falls back to the default
// Prometheus registry.
func New(addr string, agg *analytics.Aggregator, gatherer prometheus.Gatherer, opts ...Option) *Server {
	s := &Server{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	r.Get("/v1/stats/{user}", s.handleStats(agg))

	s.http = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// statsResponse is the JSON shape of the stats endpoint.
type statsResponse struct {
	Owner           string         `json:"owner"`
	WindowDays      int            `json:"window_days"`
	Total           int            `json:"total"`
	Saved           int            `json:"saved"`
	ByKind          map[string]int `json:"by_kind"`
	TopStyle        string         `json:"top_style,omitempty"`
	TopHours        []int          `json:"top_hours"`
	Recommendations []string       `json:"recommendations"`
}

func (s *Server) handleStats(agg *analytics.Aggregator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner := chi.URLParam(r, "user")

		windowDays := 30
		if raw := r.URL.Query().Get("days"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 || n > 365 {
				http.Error(w, "days must be an integer between 0 and 365", http.StatusBadRequest)
				return
			}
			windowDays = n
		}

		report, err := agg.Report(r.Context(), owner, time.Duration(windowDays)*24*time.Hour)
		if err != nil {
			s.logger.Error("stats report failed", "owner", owner, "err", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		byKind := make(map[string]int, len(report.ByKind))
		for kind, count := range report.ByKind {
			byKind[string(kind)] = count
		}
		resp := statsResponse{
			Owner:           owner,
			WindowDays:      windowDays,
			Total:           report.Total,
			Saved:           report.Saved,
			ByKind:          byKind,
			TopStyle:        report.TopStyle,
			TopHours:        report.TopHours,
			Recommendations: report.Recommendations,
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			s.logger.Warn("stats encode failed", "err", err)
		}
	}
}

// Start begins serving and blocks until the listener stops.
func (s *Server) Start() error {
	s.logger.Info("http server listening", "addr", s.http.Addr)
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

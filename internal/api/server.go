// Package api serves the ledger, alias corrections and metrics over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/charleschow/lol-valuebets/internal/core/identity"
	"github.com/charleschow/lol-valuebets/internal/core/ledger"
	"github.com/charleschow/lol-valuebets/internal/core/pipeline"
	"github.com/charleschow/lol-valuebets/internal/telemetry"
)

// PassRunner triggers pipeline passes on demand.
type PassRunner interface {
	Collect(ctx context.Context) (pipeline.Report, error)
	Settle(ctx context.Context) (pipeline.Report, error)
}

type Deps struct {
	Ledger   *ledger.Ledger
	Aliases  identity.AliasStore
	Passes   PassRunner
	Registry *prometheus.Registry
	// WS, when set, is mounted at /ws.
	WS http.HandlerFunc
	// Ping reports storage health.
	Ping func(ctx context.Context) error
}

type Server struct {
	deps Deps
}

func New(deps Deps) *Server {
	return &Server{deps: deps}
}

// Router builds the HTTP routes.
func (s *Server) Router(origins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger)
	r.Use(chimiddleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.health)
	if s.deps.Registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.deps.Registry, promhttp.HandlerOpts{}))
	}
	if s.deps.WS != nil {
		r.Get("/ws", s.deps.WS)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(chimiddleware.Timeout(30 * time.Second))
			r.Get("/bets", s.listBets)
			r.Get("/bets/{id}", s.getBet)
			r.Get("/stats", s.stats)
			r.Get("/aliases", s.listAliases)
			r.Post("/aliases", s.upsertAlias)
		})
		// Passes can outlive the request timeout above.
		r.Post("/passes/{name}", s.runPass)
	})
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string, origins []string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(origins),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		telemetry.Plainf("api: listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		telemetry.Debugf("api: %s %s -> %d (%s)", r.Method, r.URL.Path, ww.Status(), time.Since(start).Round(time.Millisecond))
	})
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		telemetry.Warnf("api: encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, msg string, err error) {
	body := map[string]string{"error": msg}
	if err != nil {
		body["details"] = err.Error()
		if status >= 500 {
			telemetry.Warnf("api: %s: %v", msg, err)
		}
	}
	respondJSON(w, status, body)
}

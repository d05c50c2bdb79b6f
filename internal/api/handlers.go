package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/charleschow/lol-valuebets/internal/core/identity"
	"github.com/charleschow/lol-valuebets/internal/core/ledger"
	"github.com/charleschow/lol-valuebets/internal/core/pipeline"
)

const maxListLimit = 500

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if s.deps.Ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.deps.Ping(ctx); err != nil {
			respondError(w, http.StatusServiceUnavailable, "storage unhealthy", err)
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
	})
}

// listBets accepts status, league, since (RFC3339) and limit.
func (s *Server) listBets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := ledger.Filter{
		League: q.Get("league"),
		Limit:  100,
	}
	if v := q.Get("status"); v != "" {
		st, err := ledger.ParseStatus(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid status", err)
			return
		}
		f.Status = st
	}
	if v := q.Get("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid since", err)
			return
		}
		f.Since = t
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "invalid limit", err)
			return
		}
		f.Limit = min(n, maxListLimit)
	}

	bets, err := s.deps.Ledger.Store().List(r.Context(), f)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list bets", err)
		return
	}
	if bets == nil {
		bets = []ledger.Bet{}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"bets":  bets,
		"count": len(bets),
	})
}

func (s *Server) getBet(w http.ResponseWriter, r *http.Request) {
	b, err := s.deps.Ledger.Store().Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, ledger.ErrNotFound) {
		respondError(w, http.StatusNotFound, "bet not found", nil)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load bet", err)
		return
	}
	respondJSON(w, http.StatusOK, b)
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	st, err := s.deps.Ledger.Stats(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to compute stats", err)
		return
	}
	respondJSON(w, http.StatusOK, st)
}

func (s *Server) listAliases(w http.ResponseWriter, r *http.Request) {
	if s.deps.Aliases == nil {
		respondError(w, http.StatusNotImplemented, "alias store not configured", nil)
		return
	}
	aliases, version, err := s.deps.Aliases.Aliases(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list aliases", err)
		return
	}
	if aliases == nil {
		aliases = []identity.Alias{}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"aliases": aliases,
		"version": version,
	})
}

// upsertAlias records an operator correction. Source defaults to manual.
func (s *Server) upsertAlias(w http.ResponseWriter, r *http.Request) {
	if s.deps.Aliases == nil {
		respondError(w, http.StatusNotImplemented, "alias store not configured", nil)
		return
	}
	var a identity.Alias
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	a.Raw = strings.TrimSpace(a.Raw)
	a.Canonical = strings.TrimSpace(a.Canonical)
	if a.Raw == "" || a.Canonical == "" {
		respondError(w, http.StatusBadRequest, "raw and canonical are required", nil)
		return
	}
	if a.Kind != identity.KindTeam && a.Kind != identity.KindLeague {
		respondError(w, http.StatusBadRequest, "kind must be team or league", nil)
		return
	}
	if a.Source == "" {
		a.Source = identity.SourceManual
	}
	if a.Confidence == 0 {
		a.Confidence = 1
	}

	changed, err := s.deps.Aliases.UpsertAlias(r.Context(), a)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to save alias", err)
		return
	}
	_, version, err := s.deps.Aliases.Aliases(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to read alias version", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"alias":   a,
		"changed": changed,
		"version": version,
	})
}

func (s *Server) runPass(w http.ResponseWriter, r *http.Request) {
	if s.deps.Passes == nil {
		respondError(w, http.StatusNotImplemented, "pipeline not configured", nil)
		return
	}
	var (
		rep pipeline.Report
		err error
	)
	switch chi.URLParam(r, "name") {
	case pipeline.PassCollect:
		rep, err = s.deps.Passes.Collect(r.Context())
	case pipeline.PassSettle:
		rep, err = s.deps.Passes.Settle(r.Context())
	default:
		respondError(w, http.StatusNotFound, "unknown pass", nil)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "pass failed", err)
		return
	}
	respondJSON(w, http.StatusOK, passResponse{
		Pass:         rep.Pass,
		Summary:      rep.String(),
		Skipped:      rep.Skipped,
		AliasVersion: rep.AliasVersion,
		Created:      rep.Created,
		Settled:      rep.Settle.Settled(),
		Errors:       rep.ErrorStrings(),
	})
}

type passResponse struct {
	Pass         string   `json:"pass"`
	Summary      string   `json:"summary"`
	Skipped      bool     `json:"skipped"`
	AliasVersion int64    `json:"alias_version"`
	Created      int      `json:"created"`
	Settled      int      `json:"settled"`
	Errors       []string `json:"errors"`
}

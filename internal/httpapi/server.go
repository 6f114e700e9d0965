package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"bizgraph/internal/analytics"
	"bizgraph/internal/memory"
	"bizgraph/internal/observability"
	"bizgraph/internal/storage"
)

// Server is the ops surface: health, metrics and the audit tail. The bot
// itself talks to Telegram; nothing user-facing lives here.
type Server struct {
	addr     string
	sessions memory.Store
	recorder storage.Recorder
	log      zerolog.Logger
}

func New(addr string, sessions memory.Store, recorder storage.Recorder, log zerolog.Logger) *Server {
	return &Server{
		addr:     addr,
		sessions: sessions,
		recorder: recorder,
		log:      log.With().Str("component", "httpapi").Logger(),
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})
	r.Get("/v1/audit/recent", s.handleAuditRecent)
	r.Get("/v1/audit/stats", s.handleAuditStats)
	return r
}

// Run serves until the context is cancelled, then shuts down gracefully.
// An empty address disables the server.
func (s *Server) Run(ctx context.Context) error {
	if s.addr == "" {
		s.log.Info().Msg("ops server disabled")
		return nil
	}

	srv := &http.Server{Addr: s.addr, Handler: s.Router()}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.addr).Msg("🌐 ops server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{"status": "ok"}
	if n, err := s.sessions.SessionCount(r.Context()); err == nil {
		body["sessions"] = n
	}
	respondJSON(w, http.StatusOK, body)
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

const (
	auditDefaultLimit = 20
	auditMaxLimit     = 200
)

// handleAuditRecent returns the newest audit events, oldest first.
func (s *Server) handleAuditRecent(w http.ResponseWriter, r *http.Request) {
	if s.recorder == nil {
		respondError(w, http.StatusNotFound, "audit_disabled", "audit log is not configured")
		return
	}
	limit := auditDefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
			return
		}
		limit = n
	}
	if limit > auditMaxLimit {
		limit = auditMaxLimit
	}

	events, err := s.recorder.LoadTurns()
	if err != nil {
		s.log.Error().Err(err).Msg("failed to load audit events")
		respondError(w, http.StatusInternalServerError, "audit_unavailable", "could not read audit log")
		return
	}
	if len(events) > limit {
		events = events[len(events)-limit:]
	}
	respondJSON(w, http.StatusOK, map[string]any{"events": events, "count": len(events)})
}

// handleAuditStats aggregates one day of audit events. Defaults to today.
func (s *Server) handleAuditStats(w http.ResponseWriter, r *http.Request) {
	if s.recorder == nil {
		respondError(w, http.StatusNotFound, "audit_disabled", "audit log is not configured")
		return
	}
	day := time.Now().UTC()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}
		day = parsed
	}

	events, err := s.recorder.LoadTurns()
	if err != nil {
		s.log.Error().Err(err).Msg("failed to load audit events")
		respondError(w, http.StatusInternalServerError, "audit_unavailable", "could not read audit log")
		return
	}
	respondJSON(w, http.StatusOK, analytics.AnalyzeDailyEvents(events, day))
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}

// Package http exposes the triage API: report intake, candidate listing and
// decisions, a live event stream, and the operational endpoints.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/alert-triage/internal/domain"
	"github.com/couchcryptid/alert-triage/internal/observability"
	"github.com/couchcryptid/alert-triage/internal/pipeline"
	"github.com/couchcryptid/alert-triage/internal/store"
)

// Intake accepts validated reports into the pipeline.
type Intake interface {
	SubmitReport(ctx context.Context, payload domain.ReportPayload) (domain.Communication, error)
	Broadcaster() *pipeline.Broadcaster
	PublishDecision(ctx context.Context, cand domain.AlertCandidate)
}

// CandidateStore is the read/decide surface the API needs.
type CandidateStore interface {
	GetCommunication(ctx context.Context, id string) (domain.Communication, error)
	GetExtraction(ctx context.Context, communicationID string) (domain.Extraction, error)
	GetCandidate(ctx context.Context, id string) (domain.AlertCandidate, error)
	ListCandidates(ctx context.Context, status domain.CandidateStatus, sectorID string, limit int) ([]domain.AlertCandidate, error)
	DecideCandidate(ctx context.Context, id string, decision domain.Decision, verifier, note string) (domain.AlertCandidate, error)
}

// Server exposes the triage HTTP API plus health, readiness, and metrics.
type Server struct {
	httpServer *http.Server
	intake     Intake
	store      CandidateStore
	listLimit  int
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewServer wires the API routes onto a chi router.
func NewServer(
	addr string,
	intake Intake,
	st CandidateStore,
	ready sharedobs.ReadinessChecker,
	listLimit int,
	logger *slog.Logger,
	metrics *observability.Metrics,
) *Server {
	s := &Server{
		intake:    intake,
		store:     st,
		listLimit: listLimit,
		logger:    logger,
		metrics:   metrics,
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", sharedobs.LivenessHandler())
	r.Get("/readyz", sharedobs.ReadinessHandler(ready))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/reports", s.handleSubmitReport)
		r.Get("/communications/{id}", s.handleGetCommunication)
		r.Get("/candidates", s.handleListCandidates)
		r.Get("/candidates/{id}", s.handleGetCandidate)
		r.Post("/candidates/{id}/decision", s.handleDecide)
		r.Get("/events", s.handleEvents)
	})

	s.httpServer = &http.Server{
		Addr:        addr,
		Handler:     r,
		ReadTimeout: 10 * time.Second,
		// No WriteTimeout: /api/events holds connections open indefinitely.
		IdleTimeout: 60 * time.Second,
	}
	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleSubmitReport(w http.ResponseWriter, r *http.Request) {
	var payload domain.ReportPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	comm, err := s.intake.SubmitReport(r.Context(), payload)
	if err != nil {
		var verr domain.ValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusBadRequest, verr.Error())
			return
		}
		s.logger.Error("report intake failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to accept report")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"id":     comm.ID,
		"status": "queued",
	})
}

func (s *Server) handleGetCommunication(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	comm, err := s.store.GetCommunication(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "communication not found")
			return
		}
		s.logger.Error("load communication failed", "communication_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}

	resp := map[string]any{"communication": comm}
	if ext, err := s.store.GetExtraction(r.Context(), id); err == nil {
		resp["extraction"] = ext
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListCandidates(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	status := domain.CandidateStatus(q.Get("status"))
	switch status {
	case "":
		status = domain.StatusPending
	case domain.StatusPending, domain.StatusVerified, domain.StatusRejected:
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown status %q", status))
		return
	}

	limit := s.listLimit
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		if n < limit {
			limit = n
		}
	}

	cands, err := s.store.ListCandidates(r.Context(), status, q.Get("sector"), limit)
	if err != nil {
		s.logger.Error("list candidates failed", "error", err)
		writeError(w, http.StatusInternalServerError, "listing failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"candidates": cands, "count": len(cands)})
}

func (s *Server) handleGetCandidate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	cand, err := s.store.GetCandidate(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "candidate not found")
			return
		}
		s.logger.Error("load candidate failed", "candidate_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, cand)
}

type decisionRequest struct {
	Decision domain.Decision `json:"decision"`
	Verifier string          `json:"verifier"`
	Note     string          `json:"note"`
}

func (s *Server) handleDecide(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Decision != domain.DecisionVerify && req.Decision != domain.DecisionReject {
		writeError(w, http.StatusBadRequest, "decision must be VERIFY or REJECT")
		return
	}
	if req.Verifier == "" {
		writeError(w, http.StatusBadRequest, "verifier is required")
		return
	}

	cand, err := s.store.DecideCandidate(r.Context(), id, req.Decision, req.Verifier, req.Note)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "candidate not found")
		case errors.Is(err, store.ErrAlreadyDecided):
			writeError(w, http.StatusConflict, "candidate already decided")
		default:
			s.logger.Error("decision failed", "candidate_id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "decision failed")
		}
		return
	}

	s.metrics.Decisions.WithLabelValues(string(req.Decision)).Inc()
	s.intake.PublishDecision(r.Context(), cand)
	writeJSON(w, http.StatusOK, cand)
}

// handleEvents streams candidate and decision events over SSE. Only events
// occurring after the subscription are delivered; there is no replay.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	id, events := s.intake.Broadcaster().Subscribe()
	defer s.intake.Broadcaster().Unsubscribe(id)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, open := <-events:
			if !open {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				s.logger.Error("marshal event failed", "error", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data)
			flusher.Flush()
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

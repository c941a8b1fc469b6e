// Package server exposes the pipeline over HTTP: a trigger endpoint
// for push webhooks and manual starts, and run status lookup. It
// enforces the single-run rule at the edge by rejecting triggers with
// 409 while a run is in flight.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"conveyor/internal/core"
	"conveyor/internal/logging"
)

// Server wires the pipeline runner to an HTTP surface.
type Server struct {
	runner *core.Runner
	log    *logging.Logger

	mu   sync.Mutex
	runs map[string]*runRecord
}

type runRecord struct {
	State  core.RunState   `json:"state"`
	Error  string          `json:"error,omitempty"`
	Report *core.RunReport `json:"report,omitempty"`
}

// New creates a Server around runner.
func New(runner *core.Runner, log *logging.Logger) *Server {
	return &Server{
		runner: runner,
		log:    log,
		runs:   make(map[string]*runRecord),
	}
}

// Router builds the chi router for the server.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Post("/trigger", s.handleTrigger)
		r.Get("/runs/{id}", s.handleRunStatus)
	})
	return r
}

type triggerRequest struct {
	Cause       string            `json:"cause,omitempty"`
	PullRequest bool              `json:"pull_request,omitempty"`
	Params      map[string]string `json:"params,omitempty"`
}

type triggerResponse struct {
	ID    string `json:"id"`
	State string `json:"state"`
}

// handleTrigger starts a run for an inbound push event or a manual
// request. The body is optional; an empty body triggers a run with
// every parameter at its default.
func (s *Server) handleTrigger(w http.ResponseWriter, r *http.Request) {
	var req triggerRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid trigger body", http.StatusBadRequest)
			return
		}
	}
	if req.Cause == "" {
		req.Cause = "webhook"
	}

	if s.runner.Running() {
		http.Error(w, "a pipeline run is already in progress", http.StatusConflict)
		return
	}

	id := uuid.NewString()
	s.mu.Lock()
	s.runs[id] = &runRecord{State: core.StateRunning}
	s.mu.Unlock()

	trigger := core.Trigger{
		Cause:         req.Cause,
		IsPullRequest: req.PullRequest,
		Supplied:      req.Params,
	}

	go func() {
		report, err := s.runner.Run(context.Background(), trigger)

		s.mu.Lock()
		defer s.mu.Unlock()
		rec := s.runs[id]
		rec.State = core.StateDone
		if err != nil {
			rec.Error = err.Error()
			return
		}
		rec.Report = report
	}()

	s.log.Info("run triggered", "trigger_id", id, "cause", req.Cause)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(triggerResponse{ID: id, State: string(core.StateRunning)})
}

// handleRunStatus reports a triggered run: still running, finished
// with a report, or rejected with an error.
func (s *Server) handleRunStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	rec, ok := s.runs[id]
	s.mu.Unlock()
	if !ok {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rec)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("ok"))
}

// Package api exposes the review lifecycle and the audit/generate/plan
// pipeline over HTTP. Handlers translate lifecycle error codes to HTTP
// statuses; all other semantics live in the inner packages.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/pagelift/pagelift/internal/audit"
	"github.com/pagelift/pagelift/internal/facts"
	"github.com/pagelift/pagelift/internal/generator"
	"github.com/pagelift/pagelift/internal/llm"
	"github.com/pagelift/pagelift/internal/models"
	"github.com/pagelift/pagelift/internal/plan"
	"github.com/pagelift/pagelift/internal/review"
	"github.com/pagelift/pagelift/internal/session"
	"github.com/pagelift/pagelift/internal/store"
	"github.com/pagelift/pagelift/internal/vcs"
)

// Config carries the server's tunables.
type Config struct {
	// SessionTTL bounds how long a created session stays actionable.
	SessionTTL time.Duration
	// GitHubToken is the fallback write credential when a request carries
	// no X-GitHub-Token header. Never echoed back or persisted.
	GitHubToken string
	// Audit configures page fetching and include/exclude globs.
	Audit audit.Options
}

// Server provides the REST API handlers.
type Server struct {
	store     store.Store
	manager   *review.Manager
	apply     *review.Orchestrator
	auditor   *audit.Auditor
	validator *facts.Validator
	llm       *llm.Client
	token     string
	now       func() time.Time
}

// NewServer creates a new API server.
// The llmClient may be nil if no API key is configured.
func NewServer(st store.Store, vc vcs.Client, llmClient *llm.Client, cfg Config) (*Server, error) {
	validator, err := facts.NewValidator()
	if err != nil {
		return nil, err
	}
	return &Server{
		store:     st,
		manager:   review.NewManager(st, cfg.SessionTTL),
		apply:     review.NewOrchestrator(st, vc),
		auditor:   audit.New(cfg.Audit),
		validator: validator,
		llm:       llmClient,
		token:     cfg.GitHubToken,
		now:       time.Now,
	}, nil
}

// WithClock replaces the server's clock and propagates it to the lifecycle
// components. Tests only.
func (s *Server) WithClock(now func() time.Time) *Server {
	s.now = now
	s.manager.WithClock(now)
	s.apply.WithClock(now)
	return s
}

// Router returns an http.Handler for the API routes.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /review/create", s.createReview)
	mux.HandleFunc("GET /review", s.listReviews)
	mux.HandleFunc("GET /review/{id}", s.getReview)
	mux.HandleFunc("POST /review/{id}/approve", s.approveReview)
	mux.HandleFunc("POST /review/{id}/apply", s.applyReview)

	mux.HandleFunc("POST /audit", s.auditSite)
	mux.HandleFunc("GET /audit/runs", s.listAuditRuns)

	mux.HandleFunc("POST /generate", s.generateContent)
	mux.HandleFunc("POST /plan", s.buildPlan)

	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-GitHub-Token")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code session.ErrorCode, msg string) {
	writeJSON(w, status, map[string]string{"code": string(code), "error": msg})
}

// writeLifecycleError maps stable lifecycle codes to HTTP statuses. Anything
// that is not a LifecycleError is an internal failure.
func writeLifecycleError(w http.ResponseWriter, err error) {
	lerr, ok := err.(*session.LifecycleError)
	if !ok {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	status := http.StatusInternalServerError
	switch lerr.Code {
	case session.CodeValidation:
		status = http.StatusBadRequest
	case session.CodeNotFound:
		status = http.StatusNotFound
	case session.CodeExpired:
		status = http.StatusGone
	case session.CodeNotApproved, session.CodeAlreadyApplied:
		status = http.StatusConflict
	}
	writeError(w, status, lerr.Code, lerr.Message)
}

// --- Review sessions ---

type createReviewResponse struct {
	SessionID    string    `json:"sessionId"`
	Status       string    `json:"status"`
	ExpiresAt    time.Time `json:"expiresAt"`
	PlannedFiles int       `json:"plannedFiles"`
	NeedsReview  int       `json:"needsReview"`
}

func (s *Server) createReview(w http.ResponseWriter, r *http.Request) {
	var in models.PlanInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, session.CodeValidation, "invalid JSON")
		return
	}

	sess, err := s.manager.CreateSession(r.Context(), in)
	if err != nil {
		writeLifecycleError(w, err)
		return
	}
	slog.Info("review session created", "session_id", sess.SessionID, "site", sess.SiteURL, "files", len(sess.PlannedFiles))

	needsReview := 0
	for _, f := range sess.PlannedFiles {
		if f.HumanReviewRequired {
			needsReview++
		}
	}
	writeJSON(w, http.StatusCreated, createReviewResponse{
		SessionID:    sess.SessionID,
		Status:       string(sess.Status),
		ExpiresAt:    sess.ExpiresAt,
		PlannedFiles: len(sess.PlannedFiles),
		NeedsReview:  needsReview,
	})
}

type sessionView struct {
	*models.ReviewSession
	EffectiveStatus models.SessionStatus `json:"effectiveStatus"`
}

func (s *Server) viewOf(sess *models.ReviewSession) sessionView {
	return sessionView{
		ReviewSession:   sess,
		EffectiveStatus: session.EffectiveStatus(sess, s.now()),
	}
}

func (s *Server) getReview(w http.ResponseWriter, r *http.Request) {
	sess, err := s.manager.GetSession(r.Context(), r.PathValue("id"))
	if err != nil {
		writeLifecycleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.viewOf(sess))
}

func (s *Server) listReviews(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.manager.ListSessions(r.Context(), 100)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	views := make([]sessionView, 0, len(sessions))
	for _, sess := range sessions {
		views = append(views, s.viewOf(sess))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) approveReview(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	result, err := s.manager.Approve(r.Context(), id)
	if err != nil {
		writeLifecycleError(w, err)
		return
	}
	slog.Info("review session approved", "session_id", id, "previous", result.PreviousStatus)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) applyReview(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	token := r.Header.Get("X-GitHub-Token")
	if token == "" {
		token = s.token
	}
	if token == "" {
		writeError(w, http.StatusBadRequest, session.CodeValidation, "missing X-GitHub-Token header")
		return
	}

	result, err := s.apply.Apply(r.Context(), id, token)
	if err != nil {
		writeLifecycleError(w, err)
		return
	}
	slog.Info("review session applied", "session_id", id, "commits", len(result.CommitShas))
	writeJSON(w, http.StatusOK, result)
}

// --- Audit ---

type auditRequest struct {
	SiteURL string   `json:"siteUrl"`
	Paths   []string `json:"paths"`
}

func (s *Server) auditSite(w http.ResponseWriter, r *http.Request) {
	var req auditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, session.CodeValidation, "invalid JSON")
		return
	}
	if req.SiteURL == "" {
		writeError(w, http.StatusBadRequest, session.CodeValidation, "siteUrl is required")
		return
	}

	run, err := s.auditor.AuditSite(r.Context(), req.SiteURL, req.Paths)
	if err != nil {
		writeError(w, http.StatusBadGateway, "AUDIT_FAILED", err.Error())
		return
	}
	if err := s.store.CreateAuditRun(r.Context(), run); err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	slog.Info("audit run completed", "site", run.SiteURL, "score", run.Score, "pages", run.PagesCrawled)
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) listAuditRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.store.ListAuditRuns(r.Context(), r.URL.Query().Get("siteUrl"), 50)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

// --- Generation and planning ---

type generateRequest struct {
	Facts  json.RawMessage   `json:"facts"`
	Config *generator.Config `json:"config"`
}

func (s *Server) generateContent(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, session.CodeValidation, "invalid JSON")
		return
	}

	f, err := s.validator.Parse(req.Facts)
	if err != nil {
		writeError(w, http.StatusBadRequest, session.CodeValidation, err.Error())
		return
	}

	cfg := generator.DefaultConfig()
	if req.Config != nil {
		cfg = *req.Config
	}
	results := generator.NewPipeline(cfg).Generate(f)

	// Persisting produced artifacts is best-effort bookkeeping; generation
	// itself already succeeded.
	for _, res := range results {
		if res.Skipped {
			continue
		}
		payload, err := json.Marshal(res)
		if err != nil {
			continue
		}
		rec := &models.ContentRecord{
			SiteURL: f.SiteURL,
			Kind:    res.Kind,
			Payload: string(payload),
		}
		if err := s.store.CreateContentRecord(r.Context(), rec); err != nil {
			slog.Warn("persist content record", "kind", res.Kind, "error", err)
		}
	}

	writeJSON(w, http.StatusOK, results)
}

type planRequest struct {
	SiteURL    string            `json:"siteUrl"`
	TargetRepo models.TargetRepo `json:"targetRepo"`
	Changes    []plan.PageChange `json:"changes"`
}

func (s *Server) buildPlan(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, session.CodeValidation, "invalid JSON")
		return
	}

	in, err := plan.Build(req.SiteURL, req.TargetRepo, req.Changes)
	if err != nil {
		writeError(w, http.StatusBadRequest, session.CodeValidation, err.Error())
		return
	}

	// Annotate reviewer notes when an LLM is configured; a note failure
	// never blocks the plan.
	if s.llm != nil {
		for i, f := range in.PlannedFiles {
			notes, err := s.llm.ReviewNotes(r.Context(), f, in.DiffPreviews[i].Diff)
			if err == nil {
				in.PlannedFiles[i].ReviewNotes = notes
			}
		}
	}

	writeJSON(w, http.StatusOK, in)
}

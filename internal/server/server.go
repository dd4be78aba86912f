// Package server exposes the tracker over a JSON HTTP API. It is a thin
// boundary: all rules live in the session, admin, and storage layers.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/mmynk/tripledger/internal/admin"
	"github.com/mmynk/tripledger/internal/auth"
	"github.com/mmynk/tripledger/internal/middleware"
	"github.com/mmynk/tripledger/internal/models"
	"github.com/mmynk/tripledger/internal/scanner"
	"github.com/mmynk/tripledger/internal/session"
	"github.com/mmynk/tripledger/internal/storage"
)

// Server routes API requests to the session and admin layers.
type Server struct {
	store storage.Store
	admin *admin.Service
	authn *auth.AdminAuthenticator
	scan  *scanner.Client

	mu       sync.Mutex
	sessions map[string]*session.Session
}

// New creates a server over the given collaborators.
func New(store storage.Store, adminSvc *admin.Service, authn *auth.AdminAuthenticator, scan *scanner.Client) *Server {
	return &Server{
		store:    store,
		admin:    adminSvc,
		authn:    authn,
		scan:     scan,
		sessions: make(map[string]*session.Session),
	}
}

// Routes builds the full handler tree, admin endpoints behind the token
// guard.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /session", s.handleCreateSession)
	mux.HandleFunc("DELETE /session", s.handleDeleteSession)
	mux.HandleFunc("GET /projects", s.handleListProjects)
	mux.HandleFunc("POST /projects", s.handleCreateProject)
	mux.HandleFunc("PATCH /projects/{id}", s.handleUpdateProject)
	mux.HandleFunc("DELETE /projects/{id}", s.handleDeleteProject)
	mux.HandleFunc("POST /projects/{id}/select", s.handleSelectProject)

	mux.HandleFunc("GET /transactions", s.handleListTransactions)
	mux.HandleFunc("POST /transactions", s.handleCreateTransaction)
	mux.HandleFunc("PATCH /transactions/{id}", s.handleUpdateTransaction)
	mux.HandleFunc("DELETE /transactions/{id}", s.handleDeleteTransaction)
	mux.HandleFunc("GET /totals", s.handleTotals)

	mux.HandleFunc("GET /reports", s.handleListReports)
	mux.HandleFunc("POST /reports", s.handleCreateReport)
	mux.HandleFunc("PATCH /reports/{id}", s.handleUpdateReport)
	mux.HandleFunc("DELETE /reports/{id}", s.handleDeleteReport)

	mux.HandleFunc("POST /scan", s.handleScanReceipt)

	mux.HandleFunc("POST /admin/login", s.handleAdminLogin)

	adminMux := http.NewServeMux()
	adminMux.HandleFunc("GET /admin/all", s.handleAdminListAll)
	adminMux.HandleFunc("PATCH /admin/projects/{id}", s.handleAdminEditProject)
	adminMux.HandleFunc("DELETE /admin/projects/{id}", s.handleAdminDeleteProject)
	adminMux.HandleFunc("GET /admin/export", s.handleAdminExport)
	mux.Handle("/admin/", middleware.RequireAdmin(s.authn)(adminMux))

	return mux
}

// sessionFor resolves the caller's session from the X-Owner-Id header,
// creating one lazily so a returning owner keeps its scope.
func (s *Server) sessionFor(r *http.Request) (*session.Session, bool) {
	ownerID := r.Header.Get("X-Owner-Id")
	if ownerID == "" {
		return nil, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[ownerID]
	if !ok {
		sess = session.Resume(s.store, ownerID)
		s.sessions[ownerID] = sess
	}
	return sess, true
}

// evictSession removes a cached session and cancels its subscriptions.
func (s *Server) evictSession(ownerID string) bool {
	s.mu.Lock()
	sess, ok := s.sessions[ownerID]
	delete(s.sessions, ownerID)
	s.mu.Unlock()

	if ok {
		sess.Close()
	}
	return ok
}

// Close cancels every cached session's subscriptions. Called on shutdown.
func (s *Server) Close() {
	s.mu.Lock()
	sessions := make([]*session.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.sessions = make(map[string]*session.Session)
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.Close()
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeFailure maps domain errors onto HTTP statuses. A failed mutation has
// no partial effect to report: the response simply reflects that nothing
// changed.
func writeFailure(w http.ResponseWriter, err error) {
	var validation *models.ValidationError
	var cascade *admin.PartialCascadeFailure
	switch {
	case errors.As(err, &validation):
		writeError(w, http.StatusBadRequest, validation.Error())
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, storage.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, "store unavailable")
	case errors.Is(err, session.ErrNoActiveProject):
		writeError(w, http.StatusConflict, "no active project")
	case errors.As(err, &cascade):
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"error":      cascade.Error(),
			"project_id": cascade.ProjectID,
			"steps":      cascadeSteps(cascade),
		})
	default:
		slog.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

type cascadeStepBody struct {
	Kind  string `json:"kind"`
	ID    string `json:"id"`
	Error string `json:"error,omitempty"`
}

func cascadeSteps(f *admin.PartialCascadeFailure) []cascadeStepBody {
	steps := make([]cascadeStepBody, len(f.Steps))
	for i, step := range f.Steps {
		steps[i] = cascadeStepBody{Kind: step.Kind, ID: step.ID}
		if step.Err != nil {
			steps[i].Error = step.Err.Error()
		}
	}
	return steps
}

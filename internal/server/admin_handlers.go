package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mmynk/tripledger/internal/admin"
	"github.com/mmynk/tripledger/internal/auth"
	"github.com/mmynk/tripledger/internal/middleware"
	"github.com/mmynk/tripledger/internal/models"
)

func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, err := s.authn.Authenticate(body.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			slog.Warn("admin login rejected", "remote_addr", r.RemoteAddr)
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		writeFailure(w, err)
		return
	}

	slog.Info("admin login", "remote_addr", r.RemoteAddr)
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) handleAdminListAll(w http.ResponseWriter, r *http.Request) {
	inv, err := s.admin.ListAll(r.Context())
	if err != nil {
		writeFailure(w, err)
		return
	}

	projects := make([]projectBody, len(inv.Projects))
	for i, p := range inv.Projects {
		projects[i] = toProjectBody(p)
	}
	txns := make([]transactionBody, len(inv.Transactions))
	for i, t := range inv.Transactions {
		txns[i] = toTransactionBody(t)
	}
	reports := make([]reportBody, len(inv.Reports))
	for i, rep := range inv.Reports {
		reports[i] = toReportBody(rep)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"projects":     projects,
		"transactions": txns,
		"reports":      reports,
	})
}

func (s *Server) handleAdminEditProject(w http.ResponseWriter, r *http.Request) {
	var update models.ProjectUpdate
	if err := decodeProjectUpdate(r, &update); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.admin.EditProjectFields(r.Context(), r.PathValue("id"), update); err != nil {
		writeFailure(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAdminDeleteProject(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("id")
	slog.Info("admin cascade delete requested",
		"project_id", projectID, "role", middleware.GetRole(r.Context()))

	if err := s.admin.DeleteProjectByID(r.Context(), projectID); err != nil {
		writeFailure(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAdminExport(w http.ResponseWriter, r *http.Request) {
	rows, err := s.admin.ExportReceipts(r.Context())
	if err != nil {
		writeFailure(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", admin.ExportFilename(time.Now())))
	if err := admin.WriteCSV(w, rows); err != nil {
		slog.Error("failed to stream export", "error", err)
	}
}

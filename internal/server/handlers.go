package server

import (
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/mmynk/tripledger/internal/models"
	"github.com/mmynk/tripledger/internal/session"
)

// Wire shapes. Field names follow the original client payloads.

type projectBody struct {
	ID       string `json:"id"`
	Name     string `json:"projectName"`
	InCharge string `json:"inCharge"`
	Currency string `json:"currency"`
	Color    string `json:"color"`
}

func toProjectBody(p models.Project) projectBody {
	return projectBody{ID: p.ID, Name: p.Name, InCharge: p.InCharge, Currency: p.Currency, Color: p.Color}
}

type transactionBody struct {
	ID          string   `json:"id"`
	ProjectID   string   `json:"projectId"`
	Type        string   `json:"type"`
	Date        string   `json:"date"`
	Amount      float64  `json:"amount"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Receipts    []string `json:"receipts"`
	Timestamp   string   `json:"timestamp"`
}

func toTransactionBody(t models.Transaction) transactionBody {
	return transactionBody{
		ID: t.ID, ProjectID: t.ProjectID, Type: string(t.Type), Date: t.Date,
		Amount: t.Amount, Description: t.Description, Category: t.Category,
		Receipts: t.Receipts, Timestamp: t.Timestamp,
	}
}

type reportBody struct {
	ID           string   `json:"id"`
	ProjectID    string   `json:"projectId"`
	Date         string   `json:"date"`
	Participants string   `json:"participants"`
	WhatWeDid    string   `json:"whatWeDid"`
	SpecialNote  string   `json:"specialNote"`
	Photos       []string `json:"photos"`
	Timestamp    string   `json:"timestamp"`
}

func toReportBody(r models.DailyReport) reportBody {
	return reportBody{
		ID: r.ID, ProjectID: r.ProjectID, Date: r.Date, Participants: r.Participants,
		WhatWeDid: r.WhatWeDid, SpecialNote: r.SpecialNote, Photos: r.Photos, Timestamp: r.Timestamp,
	}
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess := session.New(s.store)

	s.mu.Lock()
	s.sessions[sess.OwnerID()] = sess
	s.mu.Unlock()

	slog.Info("session created", "owner_id", sess.OwnerID())
	writeJSON(w, http.StatusCreated, map[string]string{"ownerId": sess.OwnerID()})
}

// handleDeleteSession ends a session explicitly: its subscriptions are
// cancelled and its cached state released. The owner's records stay in the
// store; a later request with the same id resumes the scope fresh.
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	ownerID := r.Header.Get("X-Owner-Id")
	if ownerID == "" {
		writeError(w, http.StatusBadRequest, "missing X-Owner-Id")
		return
	}

	if s.evictSession(ownerID) {
		slog.Info("session closed", "owner_id", ownerID)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFor(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing X-Owner-Id")
		return
	}

	projects, err := sess.ListProjects(r.Context())
	if err != nil {
		writeFailure(w, err)
		return
	}

	out := make([]projectBody, len(projects))
	for i, p := range projects {
		out[i] = toProjectBody(p)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFor(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing X-Owner-Id")
		return
	}

	var body struct {
		Name     string `json:"projectName"`
		InCharge string `json:"inCharge"`
		Currency string `json:"currency"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	project, err := sess.CreateProject(r.Context(), body.Name, body.InCharge, body.Currency, body.Password)
	if err != nil {
		writeFailure(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toProjectBody(*project))
}

func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFor(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing X-Owner-Id")
		return
	}

	var update models.ProjectUpdate
	if err := decodeProjectUpdate(r, &update); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := sess.UpdateProject(r.Context(), r.PathValue("id"), update); err != nil {
		writeFailure(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFor(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing X-Owner-Id")
		return
	}

	if err := sess.DeleteProject(r.Context(), r.PathValue("id")); err != nil {
		writeFailure(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSelectProject(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFor(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing X-Owner-Id")
		return
	}

	var body struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	granted, err := sess.SelectProject(r.Context(), r.PathValue("id"), body.Password)
	if err != nil {
		writeFailure(w, err)
		return
	}
	if !granted {
		// Deliberately generic: no distinction between failure causes.
		writeError(w, http.StatusUnauthorized, "incorrect password")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"granted": true})
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFor(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing X-Owner-Id")
		return
	}
	if sess.ActiveProject() == nil {
		writeFailure(w, session.ErrNoActiveProject)
		return
	}

	txns := sess.Transactions()
	out := make([]transactionBody, len(txns))
	for i, t := range txns {
		out[i] = toTransactionBody(t)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFor(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing X-Owner-Id")
		return
	}

	var body transactionBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	txn := &models.Transaction{
		Type:        models.TransactionType(body.Type),
		Date:        body.Date,
		Amount:      body.Amount,
		Description: body.Description,
		Category:    body.Category,
		Receipts:    body.Receipts,
	}
	if err := sess.AddTransaction(r.Context(), txn); err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionBody(*txn))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFor(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing X-Owner-Id")
		return
	}

	var update models.TransactionUpdate
	if err := decodeTransactionUpdate(r, &update); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := sess.UpdateTransaction(r.Context(), r.PathValue("id"), update); err != nil {
		writeFailure(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFor(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing X-Owner-Id")
		return
	}

	if err := sess.DeleteTransaction(r.Context(), r.PathValue("id")); err != nil {
		writeFailure(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTotals(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFor(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing X-Owner-Id")
		return
	}
	if sess.ActiveProject() == nil {
		writeFailure(w, session.ErrNoActiveProject)
		return
	}

	totals := sess.Totals()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"income":  totals.Income,
		"expense": totals.Expense,
		"balance": totals.Balance,
		"state":   totals.State(),
	})
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFor(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing X-Owner-Id")
		return
	}
	if sess.ActiveProject() == nil {
		writeFailure(w, session.ErrNoActiveProject)
		return
	}

	reports := sess.Reports()
	out := make([]reportBody, len(reports))
	for i, rep := range reports {
		out[i] = toReportBody(rep)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateReport(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFor(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing X-Owner-Id")
		return
	}

	var body reportBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	report := &models.DailyReport{
		Date:         body.Date,
		Participants: body.Participants,
		WhatWeDid:    body.WhatWeDid,
		SpecialNote:  body.SpecialNote,
		Photos:       body.Photos,
	}
	if err := sess.AddReport(r.Context(), report); err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toReportBody(*report))
}

func (s *Server) handleUpdateReport(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFor(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing X-Owner-Id")
		return
	}

	var update models.DailyReportUpdate
	if err := decodeReportUpdate(r, &update); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := sess.UpdateReport(r.Context(), r.PathValue("id"), update); err != nil {
		writeFailure(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteReport(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFor(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing X-Owner-Id")
		return
	}

	if err := sess.DeleteReport(r.Context(), r.PathValue("id")); err != nil {
		writeFailure(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleScanReceipt(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Image    string `json:"image"` // base64
		MimeType string `json:"mimeType"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	image, err := base64.StdEncoding.DecodeString(body.Image)
	if err != nil {
		writeError(w, http.StatusBadRequest, "image must be base64")
		return
	}

	guess, err := s.scan.ScanReceipt(r.Context(), image, body.MimeType)
	if err != nil {
		// Best effort: a failed scan leaves the caller's fields untouched.
		slog.Warn("receipt scan failed", "error", err)
		writeError(w, http.StatusUnprocessableEntity, "scan failed")
		return
	}
	writeJSON(w, http.StatusOK, guess)
}

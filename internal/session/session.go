// Package session holds the per-user interaction state: the anonymous owner
// identity, the currently selected project, its password gate, and the live
// subscriptions feeding that project's transaction and report snapshots.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/mmynk/tripledger/internal/auth"
	"github.com/mmynk/tripledger/internal/calculator"
	"github.com/mmynk/tripledger/internal/models"
	"github.com/mmynk/tripledger/internal/storage"
)

// ErrNoActiveProject means a transaction or report operation was attempted
// before any project passed the password gate.
var ErrNoActiveProject = errors.New("no active project")

// Session is one user's interaction with the tracker. It is not persisted:
// the owner identity is minted once per session and stays stable for its
// duration, and project access granted by a password check lasts until the
// selection changes or the session closes.
//
// Snapshot callbacks arrive on store goroutines, so all mutable state is
// guarded by mu.
type Session struct {
	store   storage.Store
	ownerID string

	mu         sync.Mutex
	active     *models.Project
	generation int
	txnSub     storage.Subscription
	reportSub  storage.Subscription

	transactions []models.Transaction
	reports      []models.DailyReport
}

// New creates a session with a fresh anonymous owner identity.
func New(store storage.Store) *Session {
	return &Session{
		store:   store,
		ownerID: uuid.New().String(),
	}
}

// Resume creates a session bound to an existing owner identity, so a
// returning client keeps its scope.
func Resume(store storage.Store, ownerID string) *Session {
	if ownerID == "" {
		return New(store)
	}
	return &Session{store: store, ownerID: ownerID}
}

// OwnerID returns the identity all of this session's records are scoped
// under.
func (s *Session) OwnerID() string {
	return s.ownerID
}

// CreateProject persists a new project: the password is hashed once here and
// never re-derived, and the display color is picked from the fixed palette.
func (s *Session) CreateProject(ctx context.Context, name, inCharge, currency, password string) (*models.Project, error) {
	if password == "" {
		return nil, &models.ValidationError{Field: "password", Reason: "required"}
	}

	project := &models.Project{
		Name:         name,
		InCharge:     inCharge,
		Currency:     currency,
		PasswordHash: auth.HashPassword(password),
		Color:        models.RandomColor(),
	}
	if err := s.store.CreateProject(ctx, s.ownerID, project); err != nil {
		return nil, err
	}

	slog.Info("project created", "owner_id", s.ownerID, "project_id", project.ID)
	return project, nil
}

// ListProjects returns all of the session owner's projects.
func (s *Session) ListProjects(ctx context.Context) ([]models.Project, error) {
	return s.store.ListProjects(ctx, s.ownerID)
}

// UpdateProject edits a project's name, in-charge, or currency. The access
// credential is untouchable through this path.
func (s *Session) UpdateProject(ctx context.Context, id string, update models.ProjectUpdate) error {
	return s.store.UpdateProject(ctx, s.ownerID, id, update)
}

// DeleteProject removes one of the owner's projects. If it was the active
// project the selection is dropped.
func (s *Session) DeleteProject(ctx context.Context, id string) error {
	if err := s.store.DeleteProject(ctx, s.ownerID, id); err != nil {
		return err
	}

	s.mu.Lock()
	if s.active != nil && s.active.ID == id {
		s.dropSelectionLocked()
	}
	s.mu.Unlock()
	return nil
}

// SelectProject runs the password gate for a project. A wrong password
// returns (false, nil) and leaves the session state unchanged: it is an
// expected outcome, not an error. On success the previous project's
// subscriptions are cancelled before the new ones are established, and any
// stale snapshot still in flight is discarded by the generation check.
func (s *Session) SelectProject(ctx context.Context, projectID, password string) (bool, error) {
	projects, err := s.store.ListProjects(ctx, s.ownerID)
	if err != nil {
		return false, err
	}

	var project *models.Project
	for i := range projects {
		if projects[i].ID == projectID {
			project = &projects[i]
			break
		}
	}
	if project == nil {
		return false, storage.ErrNotFound
	}

	if !auth.VerifyPassword(password, project.PasswordHash) {
		slog.Debug("project access denied", "owner_id", s.ownerID, "project_id", projectID)
		return false, nil
	}

	s.mu.Lock()
	s.dropSelectionLocked()
	s.active = project
	s.generation++
	gen := s.generation
	s.mu.Unlock()

	// Subscriptions must outlive the call that established them: the caller's
	// context ends with its request, but delivery continues until the
	// selection changes or the session closes.
	subCtx := context.WithoutCancel(ctx)

	txnSub, err := s.store.SubscribeTransactions(subCtx, s.ownerID, projectID, func(txns []models.Transaction) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.generation != gen {
			return // snapshot from a previous selection
		}
		s.transactions = txns
	})
	if err != nil {
		return false, err
	}

	reportSub, err := s.store.SubscribeReports(subCtx, s.ownerID, projectID, func(reports []models.DailyReport) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.generation != gen {
			return
		}
		s.reports = reports
	})
	if err != nil {
		txnSub.Cancel()
		return false, err
	}

	s.mu.Lock()
	if s.generation != gen {
		// selection changed again while we were subscribing
		s.mu.Unlock()
		txnSub.Cancel()
		reportSub.Cancel()
		return false, nil
	}
	s.txnSub = txnSub
	s.reportSub = reportSub
	s.mu.Unlock()

	slog.Info("project access granted", "owner_id", s.ownerID, "project_id", projectID)
	return true, nil
}

// Deselect drops the active project and cancels its subscriptions.
func (s *Session) Deselect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropSelectionLocked()
}

// dropSelectionLocked cancels subscriptions and clears project state.
// Caller holds mu.
func (s *Session) dropSelectionLocked() {
	if s.txnSub != nil {
		s.txnSub.Cancel()
		s.txnSub = nil
	}
	if s.reportSub != nil {
		s.reportSub.Cancel()
		s.reportSub = nil
	}
	s.active = nil
	s.generation++
	s.transactions = nil
	s.reports = nil
}

// ActiveProject returns the authenticated project, or nil.
func (s *Session) ActiveProject() *models.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return nil
	}
	p := *s.active
	return &p
}

// activeProjectID returns the active project id or ErrNoActiveProject.
func (s *Session) activeProjectID() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return "", ErrNoActiveProject
	}
	return s.active.ID, nil
}

// AddTransaction records a transaction against the active project.
func (s *Session) AddTransaction(ctx context.Context, txn *models.Transaction) error {
	projectID, err := s.activeProjectID()
	if err != nil {
		return err
	}
	txn.ProjectID = projectID
	return s.store.CreateTransaction(ctx, s.ownerID, txn)
}

// UpdateTransaction edits a transaction of the active project.
func (s *Session) UpdateTransaction(ctx context.Context, id string, update models.TransactionUpdate) error {
	if _, err := s.activeProjectID(); err != nil {
		return err
	}
	return s.store.UpdateTransaction(ctx, s.ownerID, id, update)
}

// DeleteTransaction removes a transaction of the active project.
func (s *Session) DeleteTransaction(ctx context.Context, id string) error {
	if _, err := s.activeProjectID(); err != nil {
		return err
	}
	return s.store.DeleteTransaction(ctx, s.ownerID, id)
}

// AddReport records a daily report against the active project.
func (s *Session) AddReport(ctx context.Context, report *models.DailyReport) error {
	projectID, err := s.activeProjectID()
	if err != nil {
		return err
	}
	report.ProjectID = projectID
	return s.store.CreateReport(ctx, s.ownerID, report)
}

// UpdateReport edits a daily report of the active project.
func (s *Session) UpdateReport(ctx context.Context, id string, update models.DailyReportUpdate) error {
	if _, err := s.activeProjectID(); err != nil {
		return err
	}
	return s.store.UpdateReport(ctx, s.ownerID, id, update)
}

// DeleteReport removes a daily report of the active project.
func (s *Session) DeleteReport(ctx context.Context, id string) error {
	if _, err := s.activeProjectID(); err != nil {
		return err
	}
	return s.store.DeleteReport(ctx, s.ownerID, id)
}

// Transactions returns the latest delivered transaction snapshot for the
// active project. The slice reflects the most recent subscription delivery,
// which may trail the session's own unacknowledged writes.
func (s *Session) Transactions() []models.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Transaction, len(s.transactions))
	copy(out, s.transactions)
	return out
}

// Reports returns the latest delivered report snapshot for the active
// project.
func (s *Session) Reports() []models.DailyReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.DailyReport, len(s.reports))
	copy(out, s.reports)
	return out
}

// Totals recomputes income/expense/balance from the latest transaction
// snapshot.
func (s *Session) Totals() calculator.Totals {
	s.mu.Lock()
	txns := s.transactions
	s.mu.Unlock()
	return calculator.ComputeTotals(txns)
}

// Close drops the selection and cancels all subscriptions.
func (s *Session) Close() {
	s.Deselect()
}

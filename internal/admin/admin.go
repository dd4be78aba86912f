// Package admin is the cross-tenant surface: it holds no owner scope of its
// own and reads or mutates records across every owner identity in the store.
package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mmynk/tripledger/internal/models"
	"github.com/mmynk/tripledger/internal/storage"
)

// UnknownProject is rendered wherever a transaction or report references a
// project that no longer resolves, e.g. after a cascade that died partway.
const UnknownProject = "Unknown"

// Service implements the admin operations over the whole store.
type Service struct {
	store storage.Store
}

// NewService creates an admin service with the given storage backend.
func NewService(store storage.Store) *Service {
	return &Service{store: store}
}

// Inventory is everything in the store, across all owners.
type Inventory struct {
	Projects     []models.Project
	Transactions []models.Transaction
	Reports      []models.DailyReport
}

// ListAll enumerates every owner identity and gathers every project,
// transaction, and report under each. This is a full scan with no
// pagination; it is only viable at small fleet scale.
//
// Transactions and reports are listed per project, plus an orphan pass for
// records whose project is gone.
func (s *Service) ListAll(ctx context.Context) (*Inventory, error) {
	owners, err := s.store.ListOwners(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate owners: %w", err)
	}

	inv := &Inventory{}
	for _, owner := range owners {
		projects, err := s.store.ListProjects(ctx, owner)
		if err != nil {
			return nil, fmt.Errorf("failed to list projects for owner %s: %w", owner, err)
		}
		inv.Projects = append(inv.Projects, projects...)

		seen := make(map[string]bool)
		for _, p := range projects {
			if err := s.collectProject(ctx, inv, owner, p.ID); err != nil {
				return nil, err
			}
			seen[p.ID] = true
		}

		// Orphaned records reference deleted projects; they must still be
		// discoverable here.
		if err := s.collectOrphans(ctx, inv, owner, seen); err != nil {
			return nil, err
		}
	}

	return inv, nil
}

func (s *Service) collectProject(ctx context.Context, inv *Inventory, owner, projectID string) error {
	txns, err := s.store.ListTransactions(ctx, owner, projectID)
	if err != nil {
		return fmt.Errorf("failed to list transactions for owner %s: %w", owner, err)
	}
	inv.Transactions = append(inv.Transactions, txns...)

	reports, err := s.store.ListReports(ctx, owner, projectID)
	if err != nil {
		return fmt.Errorf("failed to list reports for owner %s: %w", owner, err)
	}
	inv.Reports = append(inv.Reports, reports...)
	return nil
}

func (s *Service) collectOrphans(ctx context.Context, inv *Inventory, owner string, seen map[string]bool) error {
	orphanProjects, err := s.orphanProjectIDs(ctx, owner, seen)
	if err != nil {
		return err
	}
	for _, projectID := range orphanProjects {
		if err := s.collectProject(ctx, inv, owner, projectID); err != nil {
			return err
		}
	}
	return nil
}

// orphanProjectIDs finds project ids referenced by the owner's transactions
// or reports but absent from seen.
func (s *Service) orphanProjectIDs(ctx context.Context, owner string, seen map[string]bool) ([]string, error) {
	refs, err := s.store.ListProjectRefs(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list project refs for owner %s: %w", owner, err)
	}

	var orphans []string
	for _, id := range refs {
		if !seen[id] {
			orphans = append(orphans, id)
		}
	}
	return orphans, nil
}

// CascadeStep records one deletion attempt inside a cascade.
type CascadeStep struct {
	// Kind is "project", "transaction", or "daily_report".
	Kind string

	// ID is the record the step targeted.
	ID string

	// Err is nil if the step committed.
	Err error
}

// PartialCascadeFailure reports a cascade that stopped short of all-or-
// nothing: the steps that committed stay committed, and the failed records
// remain in the store, discoverable by ListAll. Callers re-invoke the
// cascade or surface the inconsistency.
type PartialCascadeFailure struct {
	ProjectID string
	Steps     []CascadeStep
}

func (e *PartialCascadeFailure) Error() string {
	failed := 0
	for _, step := range e.Steps {
		if step.Err != nil {
			failed++
		}
	}
	return fmt.Sprintf("cascade delete of project %s incomplete: %d of %d steps failed",
		e.ProjectID, failed, len(e.Steps))
}

// DeleteProjectCascade deletes a project, then every transaction and daily
// report referencing it, in that order. The cascade is not transactional:
// each step commits independently, a failed step does not roll back earlier
// ones, and the cascade keeps going past failures so one unreachable record
// does not strand everything behind it. If any step failed the returned
// error is a *PartialCascadeFailure listing every step.
func (s *Service) DeleteProjectCascade(ctx context.Context, ownerID, projectID string) error {
	txns, err := s.store.ListTransactions(ctx, ownerID, projectID)
	if err != nil {
		return fmt.Errorf("failed to list transactions for cascade: %w", err)
	}
	reports, err := s.store.ListReports(ctx, ownerID, projectID)
	if err != nil {
		return fmt.Errorf("failed to list reports for cascade: %w", err)
	}

	var steps []CascadeStep
	steps = append(steps, CascadeStep{
		Kind: "project",
		ID:   projectID,
		Err:  ignoreNotFound(s.store.DeleteProject(ctx, ownerID, projectID)),
	})
	for _, t := range txns {
		steps = append(steps, CascadeStep{
			Kind: "transaction",
			ID:   t.ID,
			Err:  ignoreNotFound(s.store.DeleteTransaction(ctx, ownerID, t.ID)),
		})
	}
	for _, r := range reports {
		steps = append(steps, CascadeStep{
			Kind: "daily_report",
			ID:   r.ID,
			Err:  ignoreNotFound(s.store.DeleteReport(ctx, ownerID, r.ID)),
		})
	}

	for _, step := range steps {
		if step.Err != nil {
			slog.Error("cascade delete incomplete",
				"owner_id", ownerID, "project_id", projectID,
				"failed_kind", step.Kind, "failed_id", step.ID, "error", step.Err)
			return &PartialCascadeFailure{ProjectID: projectID, Steps: steps}
		}
	}

	slog.Info("project cascade deleted",
		"owner_id", ownerID, "project_id", projectID,
		"transactions", len(txns), "reports", len(reports))
	return nil
}

// ignoreNotFound treats a missing record as already deleted, which makes a
// re-invoked cascade converge instead of failing on its own prior progress.
func ignoreNotFound(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	return err
}

// EditProjectFields edits a project found by id alone. The admin has no
// fixed owner scope, so the project's recorded owner is resolved first and
// the update is delegated to the owner-scoped store path. The password hash
// is not an editable field.
func (s *Service) EditProjectFields(ctx context.Context, projectID string, update models.ProjectUpdate) error {
	ownerID, err := s.resolveOwner(ctx, projectID)
	if err != nil {
		return err
	}
	return s.store.UpdateProject(ctx, ownerID, projectID, update)
}

// DeleteProjectByID runs the cascade for a project found by id alone.
func (s *Service) DeleteProjectByID(ctx context.Context, projectID string) error {
	ownerID, err := s.resolveOwner(ctx, projectID)
	if err != nil {
		return err
	}
	return s.DeleteProjectCascade(ctx, ownerID, projectID)
}

// resolveOwner scans owners for the one holding projectID.
func (s *Service) resolveOwner(ctx context.Context, projectID string) (string, error) {
	owners, err := s.store.ListOwners(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to enumerate owners: %w", err)
	}

	for _, owner := range owners {
		projects, err := s.store.ListProjects(ctx, owner)
		if err != nil {
			return "", fmt.Errorf("failed to list projects for owner %s: %w", owner, err)
		}
		for _, p := range projects {
			if p.ID == projectID {
				return owner, nil
			}
		}
	}
	return "", storage.ErrNotFound
}

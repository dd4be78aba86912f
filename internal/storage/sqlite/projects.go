package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/mmynk/tripledger/internal/models"
	"github.com/mmynk/tripledger/internal/storage"
)

// CreateProject persists a new project under ownerID.
func (s *SQLiteStore) CreateProject(ctx context.Context, ownerID string, project *models.Project) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	project.OwnerID = ownerID
	if err := project.Validate(); err != nil {
		return err
	}

	if project.ID == "" {
		project.ID = uuid.New().String()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO projects (id, owner_id, name, in_charge, currency, password_hash, color)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		project.ID, project.OwnerID, project.Name, project.InCharge,
		project.Currency, project.PasswordHash, project.Color,
	)
	if err != nil {
		return fmt.Errorf("failed to insert project: %w", err)
	}

	s.notifier.publish(projectsTopic(ownerID))
	return nil
}

// ListProjects retrieves all of the owner's projects.
func (s *SQLiteStore) ListProjects(ctx context.Context, ownerID string) ([]models.Project, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, owner_id, name, in_charge, currency, password_hash, color
		 FROM projects WHERE owner_id = ? ORDER BY name`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []models.Project
	for rows.Next() {
		var p models.Project
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.Name, &p.InCharge,
			&p.Currency, &p.PasswordHash, &p.Color); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate projects: %w", err)
	}

	return projects, nil
}

// UpdateProject merges the supplied fields into an existing project.
// The password hash is not among the editable fields, so an edit can never
// alter the project's access credential.
func (s *SQLiteStore) UpdateProject(ctx context.Context, ownerID, id string, update models.ProjectUpdate) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := update.Validate(); err != nil {
		return err
	}

	if err := s.exists(ctx, "projects", ownerID, id); err != nil {
		return err
	}

	var sets []string
	var args []interface{}
	if update.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *update.Name)
	}
	if update.InCharge != nil {
		sets = append(sets, "in_charge = ?")
		args = append(args, *update.InCharge)
	}
	if update.Currency != nil {
		sets = append(sets, "currency = ?")
		args = append(args, *update.Currency)
	}
	if len(sets) == 0 {
		return nil
	}

	query := "UPDATE projects SET " + strings.Join(sets, ", ") + " WHERE owner_id = ? AND id = ?"
	if _, err := s.db.ExecContext(ctx, query, append(args, ownerID, id)...); err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}

	s.notifier.publish(projectsTopic(ownerID))
	return nil
}

// DeleteProject removes the project record. Dependent transactions and
// reports are left alone; the admin cascade handles those.
func (s *SQLiteStore) DeleteProject(ctx context.Context, ownerID, id string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := s.exists(ctx, "projects", ownerID, id); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM projects WHERE owner_id = ? AND id = ?", ownerID, id); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	s.notifier.publish(projectsTopic(ownerID))
	return nil
}

// SubscribeProjects delivers the owner's full project list on every change.
func (s *SQLiteStore) SubscribeProjects(ctx context.Context, ownerID string, fn storage.SnapshotFunc[models.Project]) (storage.Subscription, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	sub := s.notifier.subscribe(ctx, projectsTopic(ownerID), func() {
		projects, err := s.ListProjects(context.Background(), ownerID)
		if err != nil {
			slog.Warn("project snapshot query failed", "owner_id", ownerID, "error", err)
			return
		}
		fn(projects)
	})
	return sub, nil
}

// ListOwners enumerates every owner identity that has records in the store.
func (s *SQLiteStore) ListOwners(ctx context.Context) ([]string, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT owner_id FROM projects
		 UNION SELECT owner_id FROM transactions
		 UNION SELECT owner_id FROM daily_reports
		 ORDER BY owner_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list owners: %w", err)
	}
	defer rows.Close()

	var owners []string
	for rows.Next() {
		var owner string
		if err := rows.Scan(&owner); err != nil {
			return nil, fmt.Errorf("failed to scan owner: %w", err)
		}
		owners = append(owners, owner)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate owners: %w", err)
	}

	return owners, nil
}

// ListProjectRefs enumerates every project id referenced by the owner's
// transactions or reports, including references to projects that no longer
// exist.
func (s *SQLiteStore) ListProjectRefs(ctx context.Context, ownerID string) ([]string, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT project_id FROM transactions WHERE owner_id = ?
		 UNION SELECT project_id FROM daily_reports WHERE owner_id = ?
		 ORDER BY project_id`,
		ownerID, ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list project refs: %w", err)
	}
	defer rows.Close()

	var refs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan project ref: %w", err)
		}
		refs = append(refs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate project refs: %w", err)
	}

	return refs, nil
}

// exists reports ErrNotFound if the id is absent under the owner scope.
func (s *SQLiteStore) exists(ctx context.Context, table, ownerID, id string) error {
	var one int
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM "+table+" WHERE owner_id = ? AND id = ?", ownerID, id,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return storage.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to check %s existence: %w", table, err)
	}
	return nil
}

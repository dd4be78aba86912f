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

// CreateReport persists a new daily report under ownerID.
func (s *SQLiteStore) CreateReport(ctx context.Context, ownerID string, report *models.DailyReport) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	report.OwnerID = ownerID
	if err := report.Validate(); err != nil {
		return err
	}

	if report.ID == "" {
		report.ID = uuid.New().String()
	}
	if report.Timestamp == "" {
		report.Timestamp = now()
	}

	photos, err := encodeStringList(report.Photos)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO daily_reports (id, owner_id, project_id, date, participants, what_we_did, special_note, photos, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.ID, report.OwnerID, report.ProjectID, report.Date,
		report.Participants, report.WhatWeDid, report.SpecialNote, photos, report.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to insert report: %w", err)
	}

	s.notifier.publish(reportsTopic(ownerID, report.ProjectID))
	return nil
}

// ListReports retrieves the owner's daily reports for one project, newest
// date first.
func (s *SQLiteStore) ListReports(ctx context.Context, ownerID, projectID string) ([]models.DailyReport, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, owner_id, project_id, date, participants, what_we_did, special_note, photos, timestamp
		 FROM daily_reports WHERE owner_id = ? AND project_id = ? ORDER BY date DESC`,
		ownerID, projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	var reports []models.DailyReport
	for rows.Next() {
		var r models.DailyReport
		var photos string
		if err := rows.Scan(&r.ID, &r.OwnerID, &r.ProjectID, &r.Date,
			&r.Participants, &r.WhatWeDid, &r.SpecialNote, &photos, &r.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		r.Photos = decodeStringList(photos)
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reports: %w", err)
	}

	return reports, nil
}

// UpdateReport merges the supplied fields into an existing report.
func (s *SQLiteStore) UpdateReport(ctx context.Context, ownerID, id string, update models.DailyReportUpdate) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := s.exists(ctx, "daily_reports", ownerID, id); err != nil {
		return err
	}

	var sets []string
	var args []interface{}
	if update.Date != nil {
		sets = append(sets, "date = ?")
		args = append(args, *update.Date)
	}
	if update.Participants != nil {
		sets = append(sets, "participants = ?")
		args = append(args, *update.Participants)
	}
	if update.WhatWeDid != nil {
		sets = append(sets, "what_we_did = ?")
		args = append(args, *update.WhatWeDid)
	}
	if update.SpecialNote != nil {
		sets = append(sets, "special_note = ?")
		args = append(args, *update.SpecialNote)
	}
	if update.Photos != nil {
		if len(*update.Photos) > models.MaxReportPhotos {
			return &models.ValidationError{Field: "photos", Reason: "at most 10 photos"}
		}
		photos, err := encodeStringList(*update.Photos)
		if err != nil {
			return err
		}
		sets = append(sets, "photos = ?")
		args = append(args, photos)
	}
	if len(sets) == 0 {
		return nil
	}

	query := "UPDATE daily_reports SET " + strings.Join(sets, ", ") + " WHERE owner_id = ? AND id = ?"
	if _, err := s.db.ExecContext(ctx, query, append(args, ownerID, id)...); err != nil {
		return fmt.Errorf("failed to update report: %w", err)
	}

	s.notifyReport(ctx, ownerID, id)
	return nil
}

// DeleteReport removes a daily report.
func (s *SQLiteStore) DeleteReport(ctx context.Context, ownerID, id string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	projectID, err := s.reportProject(ctx, ownerID, id)
	if err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM daily_reports WHERE owner_id = ? AND id = ?", ownerID, id); err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}

	s.notifier.publish(reportsTopic(ownerID, projectID))
	return nil
}

// SubscribeReports delivers the owner's full report list for one project on
// every change.
func (s *SQLiteStore) SubscribeReports(ctx context.Context, ownerID, projectID string, fn storage.SnapshotFunc[models.DailyReport]) (storage.Subscription, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	sub := s.notifier.subscribe(ctx, reportsTopic(ownerID, projectID), func() {
		reports, err := s.ListReports(context.Background(), ownerID, projectID)
		if err != nil {
			slog.Warn("report snapshot query failed",
				"owner_id", ownerID, "project_id", projectID, "error", err)
			return
		}
		fn(reports)
	})
	return sub, nil
}

// reportProject looks up a report's parent project id.
func (s *SQLiteStore) reportProject(ctx context.Context, ownerID, id string) (string, error) {
	var projectID string
	err := s.db.QueryRowContext(ctx,
		"SELECT project_id FROM daily_reports WHERE owner_id = ? AND id = ?", ownerID, id,
	).Scan(&projectID)
	if err == sql.ErrNoRows {
		return "", storage.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve report project: %w", err)
	}
	return projectID, nil
}

// notifyReport publishes a change signal for the project scope the report
// belongs to.
func (s *SQLiteStore) notifyReport(ctx context.Context, ownerID, id string) {
	projectID, err := s.reportProject(ctx, ownerID, id)
	if err != nil {
		return
	}
	s.notifier.publish(reportsTopic(ownerID, projectID))
}

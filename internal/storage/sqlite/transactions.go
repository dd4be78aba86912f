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

// CreateTransaction persists a new transaction under ownerID.
func (s *SQLiteStore) CreateTransaction(ctx context.Context, ownerID string, txn *models.Transaction) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	txn.OwnerID = ownerID
	if err := txn.Validate(); err != nil {
		return err
	}

	if txn.ID == "" {
		txn.ID = uuid.New().String()
	}
	if txn.Timestamp == "" {
		txn.Timestamp = now()
	}

	receipts, err := encodeStringList(txn.Receipts)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO transactions (id, owner_id, project_id, type, date, amount, description, category, receipts, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		txn.ID, txn.OwnerID, txn.ProjectID, string(txn.Type), txn.Date,
		txn.Amount, txn.Description, txn.Category, receipts, txn.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	s.notifier.publish(transactionsTopic(ownerID, txn.ProjectID))
	return nil
}

// ListTransactions retrieves the owner's transactions for one project,
// newest date first.
func (s *SQLiteStore) ListTransactions(ctx context.Context, ownerID, projectID string) ([]models.Transaction, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, owner_id, project_id, type, date, amount, description, category, receipts, timestamp
		 FROM transactions WHERE owner_id = ? AND project_id = ? ORDER BY date DESC`,
		ownerID, projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var txns []models.Transaction
	for rows.Next() {
		var t models.Transaction
		var typ, receipts string
		if err := rows.Scan(&t.ID, &t.OwnerID, &t.ProjectID, &typ, &t.Date,
			&t.Amount, &t.Description, &t.Category, &receipts, &t.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		t.Type = models.TransactionType(typ)
		t.Receipts = decodeStringList(receipts)
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}

	return txns, nil
}

// UpdateTransaction merges the supplied fields into an existing transaction.
func (s *SQLiteStore) UpdateTransaction(ctx context.Context, ownerID, id string, update models.TransactionUpdate) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := s.exists(ctx, "transactions", ownerID, id); err != nil {
		return err
	}

	var sets []string
	var args []interface{}
	if update.Type != nil {
		sets = append(sets, "type = ?")
		args = append(args, string(*update.Type))
	}
	if update.Date != nil {
		sets = append(sets, "date = ?")
		args = append(args, *update.Date)
	}
	if update.Amount != nil {
		if *update.Amount < 0 {
			return &models.ValidationError{Field: "amount", Reason: "must be non-negative"}
		}
		sets = append(sets, "amount = ?")
		args = append(args, *update.Amount)
	}
	if update.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *update.Description)
	}
	if update.Category != nil {
		sets = append(sets, "category = ?")
		args = append(args, *update.Category)
	}
	if update.Receipts != nil {
		receipts, err := encodeStringList(*update.Receipts)
		if err != nil {
			return err
		}
		sets = append(sets, "receipts = ?")
		args = append(args, receipts)
	}
	if len(sets) == 0 {
		return nil
	}

	query := "UPDATE transactions SET " + strings.Join(sets, ", ") + " WHERE owner_id = ? AND id = ?"
	if _, err := s.db.ExecContext(ctx, query, append(args, ownerID, id)...); err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}

	s.notifyTransaction(ctx, ownerID, id)
	return nil
}

// DeleteTransaction removes a transaction.
func (s *SQLiteStore) DeleteTransaction(ctx context.Context, ownerID, id string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	// Resolve the parent project before the row disappears so the right
	// topic gets the signal.
	projectID, err := s.transactionProject(ctx, ownerID, id)
	if err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM transactions WHERE owner_id = ? AND id = ?", ownerID, id); err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}

	s.notifier.publish(transactionsTopic(ownerID, projectID))
	return nil
}

// SubscribeTransactions delivers the owner's full transaction list for one
// project on every change.
func (s *SQLiteStore) SubscribeTransactions(ctx context.Context, ownerID, projectID string, fn storage.SnapshotFunc[models.Transaction]) (storage.Subscription, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	sub := s.notifier.subscribe(ctx, transactionsTopic(ownerID, projectID), func() {
		txns, err := s.ListTransactions(context.Background(), ownerID, projectID)
		if err != nil {
			slog.Warn("transaction snapshot query failed",
				"owner_id", ownerID, "project_id", projectID, "error", err)
			return
		}
		fn(txns)
	})
	return sub, nil
}

// transactionProject looks up a transaction's parent project id.
func (s *SQLiteStore) transactionProject(ctx context.Context, ownerID, id string) (string, error) {
	var projectID string
	err := s.db.QueryRowContext(ctx,
		"SELECT project_id FROM transactions WHERE owner_id = ? AND id = ?", ownerID, id,
	).Scan(&projectID)
	if err == sql.ErrNoRows {
		return "", storage.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve transaction project: %w", err)
	}
	return projectID, nil
}

// notifyTransaction publishes a change signal for the project scope the
// transaction belongs to.
func (s *SQLiteStore) notifyTransaction(ctx context.Context, ownerID, id string) {
	projectID, err := s.transactionProject(ctx, ownerID, id)
	if err != nil {
		return
	}
	s.notifier.publish(transactionsTopic(ownerID, projectID))
}

package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mmynk/tripledger/internal/models"
	"github.com/mmynk/tripledger/internal/storage"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "tripledger-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testProject(name string) *models.Project {
	return &models.Project{
		Name:         name,
		InCharge:     "Alice",
		Currency:     "USD",
		PasswordHash: "deadbeef",
	}
}

func testTransaction(projectID string) *models.Transaction {
	return &models.Transaction{
		ProjectID:   projectID,
		Type:        models.TypeExpense,
		Date:        "2025-06-01T00:00:00Z",
		Amount:      42.50,
		Description: "Team lunch",
		Category:    "Food",
		Receipts:    []string{"receipt-1.jpg"},
	}
}

func testReport(projectID string) *models.DailyReport {
	return &models.DailyReport{
		ProjectID:    projectID,
		Date:         "2025-06-01T00:00:00Z",
		Participants: "Alice, Bob",
		WhatWeDid:    "Visited the market",
	}
}

func TestSQLiteStoreProjects(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("CreateProject generates ID", func(t *testing.T) {
		project := testProject("Summer Trip")
		if err := store.CreateProject(ctx, "owner-a", project); err != nil {
			t.Fatalf("CreateProject failed: %v", err)
		}
		if project.ID == "" {
			t.Error("Expected project ID to be generated")
		}
		if project.OwnerID != "owner-a" {
			t.Errorf("Expected owner owner-a, got %s", project.OwnerID)
		}
	})

	t.Run("CreateProject rejects missing fields", func(t *testing.T) {
		project := &models.Project{Name: "No password"}
		err := store.CreateProject(ctx, "owner-a", project)
		var validation *models.ValidationError
		if !errors.As(err, &validation) {
			t.Fatalf("Expected validation error, got %v", err)
		}
	})

	t.Run("ListProjects is scoped to the owner", func(t *testing.T) {
		if err := store.CreateProject(ctx, "owner-b", testProject("Other Trip")); err != nil {
			t.Fatalf("CreateProject failed: %v", err)
		}

		projects, err := store.ListProjects(ctx, "owner-a")
		if err != nil {
			t.Fatalf("ListProjects failed: %v", err)
		}
		for _, p := range projects {
			if p.OwnerID != "owner-a" {
				t.Errorf("Leaked project from owner %s", p.OwnerID)
			}
		}

		projects, err = store.ListProjects(ctx, "owner-nobody")
		if err != nil {
			t.Fatalf("ListProjects failed: %v", err)
		}
		if len(projects) != 0 {
			t.Errorf("Expected empty list for unknown owner, got %d", len(projects))
		}
	})

	t.Run("UpdateProject merges only supplied fields", func(t *testing.T) {
		project := testProject("Before")
		if err := store.CreateProject(ctx, "owner-a", project); err != nil {
			t.Fatalf("CreateProject failed: %v", err)
		}

		name := "After"
		if err := store.UpdateProject(ctx, "owner-a", project.ID, models.ProjectUpdate{Name: &name}); err != nil {
			t.Fatalf("UpdateProject failed: %v", err)
		}

		projects, err := store.ListProjects(ctx, "owner-a")
		if err != nil {
			t.Fatalf("ListProjects failed: %v", err)
		}
		var got *models.Project
		for i := range projects {
			if projects[i].ID == project.ID {
				got = &projects[i]
			}
		}
		if got == nil {
			t.Fatal("Updated project not found")
		}
		if got.Name != "After" {
			t.Errorf("Expected name After, got %s", got.Name)
		}
		if got.InCharge != "Alice" {
			t.Errorf("Untouched field changed: in_charge=%s", got.InCharge)
		}
		if got.PasswordHash != "deadbeef" {
			t.Errorf("Password hash must never change on update, got %s", got.PasswordHash)
		}
	})

	t.Run("UpdateProject scoped across owners", func(t *testing.T) {
		project := testProject("Mine")
		if err := store.CreateProject(ctx, "owner-a", project); err != nil {
			t.Fatalf("CreateProject failed: %v", err)
		}

		name := "Stolen"
		err := store.UpdateProject(ctx, "owner-b", project.ID, models.ProjectUpdate{Name: &name})
		if !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("Expected ErrNotFound across owner scopes, got %v", err)
		}
	})

	t.Run("DeleteProject twice reports not found", func(t *testing.T) {
		project := testProject("Doomed")
		if err := store.CreateProject(ctx, "owner-a", project); err != nil {
			t.Fatalf("CreateProject failed: %v", err)
		}

		if err := store.DeleteProject(ctx, "owner-a", project.ID); err != nil {
			t.Fatalf("DeleteProject failed: %v", err)
		}
		err := store.DeleteProject(ctx, "owner-a", project.ID)
		if !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("Expected ErrNotFound on second delete, got %v", err)
		}
	})
}

func TestSQLiteStoreTransactions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	project := testProject("Trip")
	if err := store.CreateProject(ctx, "owner-a", project); err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}

	t.Run("CreateTransaction sets ID and timestamp", func(t *testing.T) {
		txn := testTransaction(project.ID)
		if err := store.CreateTransaction(ctx, "owner-a", txn); err != nil {
			t.Fatalf("CreateTransaction failed: %v", err)
		}
		if txn.ID == "" {
			t.Error("Expected transaction ID to be generated")
		}
		if txn.Timestamp == "" {
			t.Error("Expected timestamp to be set")
		}
		if _, err := time.Parse(time.RFC3339, txn.Timestamp); err != nil {
			t.Errorf("Timestamp not RFC 3339: %s", txn.Timestamp)
		}
	})

	t.Run("CreateTransaction rejects bad category", func(t *testing.T) {
		txn := testTransaction(project.ID)
		txn.Type = models.TypeIncome
		txn.Category = "Food" // expense category on an income entry
		err := store.CreateTransaction(ctx, "owner-a", txn)
		var validation *models.ValidationError
		if !errors.As(err, &validation) {
			t.Fatalf("Expected validation error, got %v", err)
		}
	})

	t.Run("Receipts round-trip through storage", func(t *testing.T) {
		txn := testTransaction(project.ID)
		txn.Receipts = []string{"a.jpg", "b.jpg"}
		if err := store.CreateTransaction(ctx, "owner-a", txn); err != nil {
			t.Fatalf("CreateTransaction failed: %v", err)
		}

		txns, err := store.ListTransactions(ctx, "owner-a", project.ID)
		if err != nil {
			t.Fatalf("ListTransactions failed: %v", err)
		}
		var got *models.Transaction
		for i := range txns {
			if txns[i].ID == txn.ID {
				got = &txns[i]
			}
		}
		if got == nil {
			t.Fatal("Transaction not found after create")
		}
		if len(got.Receipts) != 2 || got.Receipts[0] != "a.jpg" {
			t.Errorf("Receipts did not round-trip: %v", got.Receipts)
		}
	})

	t.Run("Nil receipts come back as empty list", func(t *testing.T) {
		txn := testTransaction(project.ID)
		txn.Receipts = nil
		if err := store.CreateTransaction(ctx, "owner-a", txn); err != nil {
			t.Fatalf("CreateTransaction failed: %v", err)
		}

		txns, err := store.ListTransactions(ctx, "owner-a", project.ID)
		if err != nil {
			t.Fatalf("ListTransactions failed: %v", err)
		}
		for _, got := range txns {
			if got.ID == txn.ID && got.Receipts == nil {
				t.Error("Expected empty receipts slice, got nil")
			}
		}
	})

	t.Run("Malformed stored list degrades to empty", func(t *testing.T) {
		txn := testTransaction(project.ID)
		if err := store.CreateTransaction(ctx, "owner-a", txn); err != nil {
			t.Fatalf("CreateTransaction failed: %v", err)
		}
		if _, err := store.db.Exec("UPDATE transactions SET receipts = 'not json' WHERE id = ?", txn.ID); err != nil {
			t.Fatalf("Failed to corrupt row: %v", err)
		}

		txns, err := store.ListTransactions(ctx, "owner-a", project.ID)
		if err != nil {
			t.Fatalf("ListTransactions failed: %v", err)
		}
		for _, got := range txns {
			if got.ID == txn.ID && len(got.Receipts) != 0 {
				t.Errorf("Expected empty receipts for corrupt row, got %v", got.Receipts)
			}
		}
	})

	t.Run("UpdateTransaction merges supplied fields", func(t *testing.T) {
		txn := testTransaction(project.ID)
		if err := store.CreateTransaction(ctx, "owner-a", txn); err != nil {
			t.Fatalf("CreateTransaction failed: %v", err)
		}

		amount := 99.99
		desc := "Dinner"
		if err := store.UpdateTransaction(ctx, "owner-a", txn.ID, models.TransactionUpdate{
			Amount:      &amount,
			Description: &desc,
		}); err != nil {
			t.Fatalf("UpdateTransaction failed: %v", err)
		}

		txns, err := store.ListTransactions(ctx, "owner-a", project.ID)
		if err != nil {
			t.Fatalf("ListTransactions failed: %v", err)
		}
		for _, got := range txns {
			if got.ID != txn.ID {
				continue
			}
			if got.Amount != 99.99 || got.Description != "Dinner" {
				t.Errorf("Update not applied: amount=%v description=%s", got.Amount, got.Description)
			}
			if got.Category != "Food" {
				t.Errorf("Untouched field changed: category=%s", got.Category)
			}
		}
	})

	t.Run("UpdateTransaction rejects negative amount", func(t *testing.T) {
		txn := testTransaction(project.ID)
		if err := store.CreateTransaction(ctx, "owner-a", txn); err != nil {
			t.Fatalf("CreateTransaction failed: %v", err)
		}

		amount := -1.0
		err := store.UpdateTransaction(ctx, "owner-a", txn.ID, models.TransactionUpdate{Amount: &amount})
		var validation *models.ValidationError
		if !errors.As(err, &validation) {
			t.Fatalf("Expected validation error, got %v", err)
		}
	})

	t.Run("DeleteTransaction across owners not found", func(t *testing.T) {
		txn := testTransaction(project.ID)
		if err := store.CreateTransaction(ctx, "owner-a", txn); err != nil {
			t.Fatalf("CreateTransaction failed: %v", err)
		}
		err := store.DeleteTransaction(ctx, "owner-b", txn.ID)
		if !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("Expected ErrNotFound, got %v", err)
		}
	})
}

func TestSQLiteStoreReports(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	project := testProject("Trip")
	if err := store.CreateProject(ctx, "owner-a", project); err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}

	t.Run("CreateReport sets ID and timestamp", func(t *testing.T) {
		report := testReport(project.ID)
		if err := store.CreateReport(ctx, "owner-a", report); err != nil {
			t.Fatalf("CreateReport failed: %v", err)
		}
		if report.ID == "" || report.Timestamp == "" {
			t.Errorf("Expected ID and timestamp, got id=%q ts=%q", report.ID, report.Timestamp)
		}
	})

	t.Run("CreateReport caps photos", func(t *testing.T) {
		report := testReport(project.ID)
		report.Photos = make([]string, models.MaxReportPhotos+1)
		err := store.CreateReport(ctx, "owner-a", report)
		var validation *models.ValidationError
		if !errors.As(err, &validation) {
			t.Fatalf("Expected validation error, got %v", err)
		}
	})

	t.Run("UpdateReport merges supplied fields", func(t *testing.T) {
		report := testReport(project.ID)
		if err := store.CreateReport(ctx, "owner-a", report); err != nil {
			t.Fatalf("CreateReport failed: %v", err)
		}

		note := "Rain all day"
		if err := store.UpdateReport(ctx, "owner-a", report.ID, models.DailyReportUpdate{SpecialNote: &note}); err != nil {
			t.Fatalf("UpdateReport failed: %v", err)
		}

		reports, err := store.ListReports(ctx, "owner-a", project.ID)
		if err != nil {
			t.Fatalf("ListReports failed: %v", err)
		}
		for _, got := range reports {
			if got.ID != report.ID {
				continue
			}
			if got.SpecialNote != "Rain all day" {
				t.Errorf("Update not applied: special_note=%s", got.SpecialNote)
			}
			if got.Participants != "Alice, Bob" {
				t.Errorf("Untouched field changed: participants=%s", got.Participants)
			}
		}
	})
}

func TestSQLiteStoreAdminScans(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	projectA := testProject("A")
	if err := store.CreateProject(ctx, "owner-a", projectA); err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}
	projectB := testProject("B")
	if err := store.CreateProject(ctx, "owner-b", projectB); err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}
	if err := store.CreateTransaction(ctx, "owner-c", testTransaction("gone-project")); err != nil {
		t.Fatalf("CreateTransaction failed: %v", err)
	}

	t.Run("ListOwners covers all record tables", func(t *testing.T) {
		owners, err := store.ListOwners(ctx)
		if err != nil {
			t.Fatalf("ListOwners failed: %v", err)
		}
		seen := map[string]bool{}
		for _, o := range owners {
			seen[o] = true
		}
		for _, want := range []string{"owner-a", "owner-b", "owner-c"} {
			if !seen[want] {
				t.Errorf("Expected owner %s in %v", want, owners)
			}
		}
	})

	t.Run("ListProjectRefs surfaces orphan references", func(t *testing.T) {
		refs, err := store.ListProjectRefs(ctx, "owner-c")
		if err != nil {
			t.Fatalf("ListProjectRefs failed: %v", err)
		}
		if len(refs) != 1 || refs[0] != "gone-project" {
			t.Errorf("Expected [gone-project], got %v", refs)
		}
	})
}

func TestSQLiteStoreClosed(t *testing.T) {
	store := newTestStore(t)
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	err := store.CreateProject(context.Background(), "owner-a", testProject("Late"))
	if !errors.Is(err, storage.ErrUnavailable) {
		t.Fatalf("Expected ErrUnavailable after close, got %v", err)
	}
}

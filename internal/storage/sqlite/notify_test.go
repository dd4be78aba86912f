package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/mmynk/tripledger/internal/models"
)

// waitForSnapshot blocks until the channel yields a snapshot matching ok, or
// fails the test after a timeout.
func waitForSnapshot(t *testing.T, ch <-chan []models.Transaction, ok func([]models.Transaction) bool) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case snap := <-ch:
			if ok(snap) {
				return
			}
		case <-deadline:
			t.Fatal("Timed out waiting for snapshot")
		}
	}
}

func TestSubscriptions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	project := testProject("Trip")
	if err := store.CreateProject(ctx, "owner-a", project); err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}

	t.Run("Initial snapshot arrives without a mutation", func(t *testing.T) {
		snapshots := make(chan []models.Transaction, 8)
		sub, err := store.SubscribeTransactions(ctx, "owner-a", project.ID, func(txns []models.Transaction) {
			snapshots <- txns
		})
		if err != nil {
			t.Fatalf("SubscribeTransactions failed: %v", err)
		}
		defer sub.Cancel()

		waitForSnapshot(t, snapshots, func(txns []models.Transaction) bool {
			return len(txns) == 0
		})
	})

	t.Run("Mutation triggers a fresh snapshot", func(t *testing.T) {
		snapshots := make(chan []models.Transaction, 8)
		sub, err := store.SubscribeTransactions(ctx, "owner-a", project.ID, func(txns []models.Transaction) {
			snapshots <- txns
		})
		if err != nil {
			t.Fatalf("SubscribeTransactions failed: %v", err)
		}
		defer sub.Cancel()

		txn := testTransaction(project.ID)
		if err := store.CreateTransaction(ctx, "owner-a", txn); err != nil {
			t.Fatalf("CreateTransaction failed: %v", err)
		}

		waitForSnapshot(t, snapshots, func(txns []models.Transaction) bool {
			for _, got := range txns {
				if got.ID == txn.ID {
					return true
				}
			}
			return false
		})
	})

	t.Run("Snapshots are scoped to the subscribed project", func(t *testing.T) {
		other := testProject("Other")
		if err := store.CreateProject(ctx, "owner-a", other); err != nil {
			t.Fatalf("CreateProject failed: %v", err)
		}

		snapshots := make(chan []models.Transaction, 8)
		sub, err := store.SubscribeTransactions(ctx, "owner-a", other.ID, func(txns []models.Transaction) {
			snapshots <- txns
		})
		if err != nil {
			t.Fatalf("SubscribeTransactions failed: %v", err)
		}
		defer sub.Cancel()

		if err := store.CreateTransaction(ctx, "owner-a", testTransaction(other.ID)); err != nil {
			t.Fatalf("CreateTransaction failed: %v", err)
		}

		waitForSnapshot(t, snapshots, func(txns []models.Transaction) bool {
			for _, got := range txns {
				if got.ProjectID != other.ID {
					t.Errorf("Snapshot leaked transaction from project %s", got.ProjectID)
				}
			}
			return len(txns) == 1
		})
	})

	t.Run("Cancel stops delivery", func(t *testing.T) {
		snapshots := make(chan []models.Transaction, 8)
		sub, err := store.SubscribeTransactions(ctx, "owner-a", project.ID, func(txns []models.Transaction) {
			snapshots <- txns
		})
		if err != nil {
			t.Fatalf("SubscribeTransactions failed: %v", err)
		}

		// Drain the initial snapshot, then cancel. Cancel twice to confirm
		// idempotence.
		waitForSnapshot(t, snapshots, func([]models.Transaction) bool { return true })
		sub.Cancel()
		sub.Cancel()

		if err := store.CreateTransaction(ctx, "owner-a", testTransaction(project.ID)); err != nil {
			t.Fatalf("CreateTransaction failed: %v", err)
		}

		// Delivery is asynchronous, so give a stray snapshot time to land.
		select {
		case snap := <-snapshots:
			t.Errorf("Received snapshot after cancel: %d records", len(snap))
		case <-time.After(200 * time.Millisecond):
		}
	})

	t.Run("Context cancellation ends the subscription", func(t *testing.T) {
		subCtx, cancel := context.WithCancel(ctx)
		snapshots := make(chan []models.Transaction, 8)
		_, err := store.SubscribeTransactions(subCtx, "owner-a", project.ID, func(txns []models.Transaction) {
			snapshots <- txns
		})
		if err != nil {
			t.Fatalf("SubscribeTransactions failed: %v", err)
		}

		waitForSnapshot(t, snapshots, func([]models.Transaction) bool { return true })
		cancel()
		time.Sleep(100 * time.Millisecond)

		if err := store.CreateTransaction(ctx, "owner-a", testTransaction(project.ID)); err != nil {
			t.Fatalf("CreateTransaction failed: %v", err)
		}

		select {
		case snap := <-snapshots:
			t.Errorf("Received snapshot after context cancel: %d records", len(snap))
		case <-time.After(200 * time.Millisecond):
		}
	})

	t.Run("Project subscription sees renames", func(t *testing.T) {
		type snap struct{ names []string }
		snapshots := make(chan snap, 8)
		sub, err := store.SubscribeProjects(ctx, "owner-a", func(projects []models.Project) {
			names := make([]string, len(projects))
			for i, p := range projects {
				names[i] = p.Name
			}
			snapshots <- snap{names}
		})
		if err != nil {
			t.Fatalf("SubscribeProjects failed: %v", err)
		}
		defer sub.Cancel()

		name := "Renamed Trip"
		if err := store.UpdateProject(ctx, "owner-a", project.ID, models.ProjectUpdate{Name: &name}); err != nil {
			t.Fatalf("UpdateProject failed: %v", err)
		}

		deadline := time.After(2 * time.Second)
		for {
			select {
			case got := <-snapshots:
				for _, n := range got.names {
					if n == "Renamed Trip" {
						return
					}
				}
			case <-deadline:
				t.Fatal("Timed out waiting for renamed project snapshot")
			}
		}
	})
}

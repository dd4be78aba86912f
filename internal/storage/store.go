// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/tripledger/internal/models"
)

var (
	// ErrNotFound means the operation targeted an id that does not exist
	// within the addressed owner scope.
	ErrNotFound = errors.New("record not found")

	// ErrUnavailable means the backing store is not ready (not yet opened,
	// or already closed). The call had no effect.
	ErrUnavailable = errors.New("store unavailable")
)

// Subscription is a live query handle. Cancel stops delivery and releases
// resources; it is safe to call more than once.
type Subscription interface {
	Cancel()
}

// SnapshotFunc receives the full current result set for a subscribed scope
// whenever any record in that scope changes. Delivery is asynchronous and
// always-latest: a slow consumer sees fewer, newer snapshots, never a
// backlog. A snapshot is self-consistent but is not guaranteed to reflect
// the caller's own unacknowledged writes.
type SnapshotFunc[T any] func(records []T)

// Store defines the interface for owner-scoped entity storage.
// This abstraction allows swapping storage backends (SQLite, a hosted
// document DB, etc.) without changing the session or admin layers.
//
// Scoping rule for every method: records created under one owner identity
// are never visible under another. The admin layer crosses scopes only by
// iterating ListOwners.
type Store interface {
	// CreateProject persists a new project under ownerID, populating the
	// record's ID. Fails with a models.ValidationError before touching the
	// store if required fields are absent.
	CreateProject(ctx context.Context, ownerID string, project *models.Project) error

	// ListProjects retrieves all of the owner's projects.
	ListProjects(ctx context.Context, ownerID string) ([]models.Project, error)

	// UpdateProject merges the supplied fields into an existing project.
	// Fields not supplied are never touched; the password hash cannot be
	// supplied at all. Returns ErrNotFound if the id does not exist under
	// that owner scope.
	UpdateProject(ctx context.Context, ownerID, id string, update models.ProjectUpdate) error

	// DeleteProject removes the project record only; dependent transactions
	// and reports are the caller's concern (see admin cascade).
	// Returns ErrNotFound if absent. Repeated deletes report ErrNotFound
	// too, but the net effect is the same, so callers may treat it as a
	// no-op.
	DeleteProject(ctx context.Context, ownerID, id string) error

	// CreateTransaction persists a new transaction under ownerID, populating
	// ID and Timestamp.
	CreateTransaction(ctx context.Context, ownerID string, txn *models.Transaction) error

	// ListTransactions retrieves the owner's transactions for one project.
	ListTransactions(ctx context.Context, ownerID, projectID string) ([]models.Transaction, error)

	// UpdateTransaction merges the supplied fields into an existing
	// transaction. Returns ErrNotFound if absent under that owner scope.
	UpdateTransaction(ctx context.Context, ownerID, id string, update models.TransactionUpdate) error

	// DeleteTransaction removes a transaction. Returns ErrNotFound if absent.
	DeleteTransaction(ctx context.Context, ownerID, id string) error

	// CreateReport persists a new daily report under ownerID, populating ID
	// and Timestamp.
	CreateReport(ctx context.Context, ownerID string, report *models.DailyReport) error

	// ListReports retrieves the owner's daily reports for one project.
	ListReports(ctx context.Context, ownerID, projectID string) ([]models.DailyReport, error)

	// UpdateReport merges the supplied fields into an existing report.
	UpdateReport(ctx context.Context, ownerID, id string, update models.DailyReportUpdate) error

	// DeleteReport removes a daily report. Returns ErrNotFound if absent.
	DeleteReport(ctx context.Context, ownerID, id string) error

	// ListOwners enumerates every owner identity that has records in the
	// store. Full scan; only the admin layer uses it.
	ListOwners(ctx context.Context) ([]string, error)

	// ListProjectRefs enumerates every project id referenced by the owner's
	// transactions or reports, whether or not the project still exists.
	// Lets the admin scan surface records orphaned by a partial cascade.
	ListProjectRefs(ctx context.Context, ownerID string) ([]string, error)

	// SubscribeProjects delivers the owner's full project list on every
	// change to it.
	SubscribeProjects(ctx context.Context, ownerID string, fn SnapshotFunc[models.Project]) (Subscription, error)

	// SubscribeTransactions delivers the owner's full transaction list for
	// one project on every change to it.
	SubscribeTransactions(ctx context.Context, ownerID, projectID string, fn SnapshotFunc[models.Transaction]) (Subscription, error)

	// SubscribeReports delivers the owner's full report list for one project
	// on every change to it.
	SubscribeReports(ctx context.Context, ownerID, projectID string, fn SnapshotFunc[models.DailyReport]) (Subscription, error)

	// Close releases any resources held by the store. Operations after
	// Close fail with ErrUnavailable.
	Close() error
}

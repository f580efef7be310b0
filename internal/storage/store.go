// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/debtledger/internal/models"
)

// ErrNotFound is wrapped by every lookup that finds no row.
var ErrNotFound = errors.New("not found")

// Snapshot is everything the engine needs to compute a group's balances,
// read at a single point in time.
type Snapshot struct {
	Group    *models.Group
	Expenses []*models.Expense
	Payments []*models.Payment
}

// Stats counts stored records.
type Stats struct {
	Groups   int64
	Expenses int64
	Payments int64
}

// Store defines the interface for ledger storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
type Store interface {
	// CreateGroup persists a new group. ID and CreatedAt are filled in if empty.
	CreateGroup(ctx context.Context, group *models.Group) error

	// GetGroup retrieves a group and its roster.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// ListGroups retrieves all groups.
	ListGroups(ctx context.Context) ([]*models.Group, error)

	// UpdateGroup replaces a group's name, currency and roster.
	UpdateGroup(ctx context.Context, group *models.Group) error

	// DeleteGroup removes a group with its expenses and payments.
	DeleteGroup(ctx context.Context, groupID string) error

	// AddGroupMembers appends members to a roster, ignoring ones already present.
	AddGroupMembers(ctx context.Context, groupID string, members []string) error

	// CreateExpense persists a new expense. ID and CreatedAt are filled in if empty.
	CreateExpense(ctx context.Context, expense *models.Expense) error

	// GetExpense retrieves one expense.
	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)

	// UpdateExpense replaces an existing expense.
	UpdateExpense(ctx context.Context, expense *models.Expense) error

	// DeleteExpense removes an expense.
	DeleteExpense(ctx context.Context, expenseID string) error

	// ListExpenses returns a group's expenses, oldest first.
	ListExpenses(ctx context.Context, groupID string) ([]*models.Expense, error)

	// CreatePayment persists a new payment. ID and CreatedAt are filled in if empty.
	CreatePayment(ctx context.Context, payment *models.Payment) error

	// ListPayments returns a group's payments, oldest first.
	ListPayments(ctx context.Context, groupID string) ([]*models.Payment, error)

	// DeletePayment removes a payment.
	DeletePayment(ctx context.Context, paymentID string) error

	// Snapshot reads a group, its expenses and its payments in one read
	// transaction so that concurrent writers cannot interleave with it.
	Snapshot(ctx context.Context, groupID string) (*Snapshot, error)

	// Stats counts stored records.
	Stats(ctx context.Context) (Stats, error)

	// Close releases any resources held by the store.
	Close() error
}

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmynk/debtledger/internal/models"
	"github.com/mmynk/debtledger/internal/storage"
)

const expenseColumns = `id, group_id, kind, split_mode, description, amount, currency,
	debtor_id, creditor_id, payer_id, created_at`

// CreateExpense persists a new expense with its participants and contributions.
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.Expense) error {
	// Generate IDs if not set
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO expenses (`+expenseColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		expense.ID, expense.GroupID, expense.Kind, expense.SplitMode, expense.Description,
		expense.Amount, expense.Currency, expense.DebtorID, expense.CreditorID, expense.PayerID,
		expense.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	if err := insertExpenseChildren(ctx, tx, expense); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetExpense retrieves an expense by ID.
func (s *SQLiteStore) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	expense, err := scanExpense(s.db.QueryRowContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = ?`,
		expenseID,
	))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	if err := loadExpenseChildren(ctx, s.db, expense); err != nil {
		return nil, err
	}
	return expense, nil
}

// UpdateExpense replaces an existing expense. GroupID and CreatedAt are kept
// from the stored row.
func (s *SQLiteStore) UpdateExpense(ctx context.Context, expense *models.Expense) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE expenses SET kind = ?, split_mode = ?, description = ?, amount = ?, currency = ?,
			debtor_id = ?, creditor_id = ?, payer_id = ?
		 WHERE id = ?`,
		expense.Kind, expense.SplitMode, expense.Description, expense.Amount, expense.Currency,
		expense.DebtorID, expense.CreditorID, expense.PayerID, expense.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("expense %s: %w", expense.ID, storage.ErrNotFound)
	}

	for _, table := range []string{"expense_participants", "expense_contributions"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE expense_id = ?", expense.ID); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	if err := insertExpenseChildren(ctx, tx, expense); err != nil {
		return err
	}

	if err := tx.QueryRowContext(ctx,
		"SELECT group_id, created_at FROM expenses WHERE id = ?", expense.ID,
	).Scan(&expense.GroupID, &expense.CreatedAt); err != nil {
		return fmt.Errorf("failed to reload expense: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// DeleteExpense removes an expense by ID.
func (s *SQLiteStore) DeleteExpense(ctx context.Context, expenseID string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", expenseID)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	return nil
}

// ListExpenses returns all expenses of a group, oldest first.
func (s *SQLiteStore) ListExpenses(ctx context.Context, groupID string) ([]*models.Expense, error) {
	return listExpenses(ctx, s.db, groupID)
}

func listExpenses(ctx context.Context, q querier, groupID string) ([]*models.Expense, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE group_id = ? ORDER BY created_at, rowid`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}

	var expenses []*models.Expense
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, expense)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}

	// Children are loaded after the outer cursor is closed so a transaction
	// never has two open cursors.
	for _, expense := range expenses {
		if err := loadExpenseChildren(ctx, q, expense); err != nil {
			return nil, err
		}
	}
	return expenses, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (*models.Expense, error) {
	expense := &models.Expense{}
	err := row.Scan(
		&expense.ID, &expense.GroupID, &expense.Kind, &expense.SplitMode, &expense.Description,
		&expense.Amount, &expense.Currency, &expense.DebtorID, &expense.CreditorID, &expense.PayerID,
		&expense.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return expense, nil
}

func insertExpenseChildren(ctx context.Context, tx *sql.Tx, expense *models.Expense) error {
	for i, member := range expense.Participants {
		_, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO expense_participants (expense_id, member, position) VALUES (?, ?, ?)",
			expense.ID, member, i,
		)
		if err != nil {
			return fmt.Errorf("failed to insert participant: %w", err)
		}
	}

	for member, amount := range expense.Contributions {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO expense_contributions (expense_id, member, amount) VALUES (?, ?, ?)",
			expense.ID, member, amount,
		)
		if err != nil {
			return fmt.Errorf("failed to insert contribution: %w", err)
		}
	}
	return nil
}

func loadExpenseChildren(ctx context.Context, q querier, expense *models.Expense) error {
	rows, err := q.QueryContext(ctx,
		"SELECT member FROM expense_participants WHERE expense_id = ? ORDER BY position",
		expense.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get participants: %w", err)
	}
	for rows.Next() {
		var member string
		if err := rows.Scan(&member); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan participant: %w", err)
		}
		expense.Participants = append(expense.Participants, member)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate participants: %w", err)
	}

	rows, err = q.QueryContext(ctx,
		"SELECT member, amount FROM expense_contributions WHERE expense_id = ? ORDER BY member",
		expense.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get contributions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var member string
		var amount decimal.Decimal
		if err := rows.Scan(&member, &amount); err != nil {
			return fmt.Errorf("failed to scan contribution: %w", err)
		}
		if expense.Contributions == nil {
			expense.Contributions = make(map[string]decimal.Decimal)
		}
		expense.Contributions[member] = amount
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate contributions: %w", err)
	}
	return nil
}

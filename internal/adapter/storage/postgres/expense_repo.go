package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"splitledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ExpenseRepo implements ports.ExpenseRepository.
type ExpenseRepo struct {
	pool Pool
}

// NewExpenseRepo creates a new ExpenseRepo.
func NewExpenseRepo(pool Pool) *ExpenseRepo {
	return &ExpenseRepo{pool: pool}
}

const expenseColumns = `id, title, amount, expense_date, category, receipt_url, group_id, paid_by, split_type, split_between, split_details, created_at, updated_at`

// Create inserts a new expense. UNEQUAL split details are stored as jsonb;
// EQUAL expenses store NULL since shares are derived on read.
func (r *ExpenseRepo) Create(ctx context.Context, e *domain.Expense) error {
	details, err := marshalSplitDetails(e.SplitDetails)
	if err != nil {
		return err
	}

	query := `INSERT INTO expenses (id, title, amount, expense_date, category, receipt_url, group_id, paid_by, split_type, split_between, split_details, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err = r.pool.Exec(ctx, query,
		e.ID, e.Title, e.Amount, e.Date, e.Category,
		e.ReceiptURL, e.GroupID, e.PaidBy,
		e.SplitType, e.SplitBetween, details,
		e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}
	return nil
}

// GetByID fetches an expense by its UUID.
func (r *ExpenseRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE id = $1`

	e, err := scanExpenseRow(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get expense by id: %w", err)
	}
	return e, nil
}

// ListForUser returns expenses the user paid for or participates in,
// newest first. The predicate covers both roles so nothing is duplicated.
func (r *ExpenseRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]domain.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses
		WHERE paid_by = $1 OR $1 = ANY(split_between)
		ORDER BY expense_date DESC`

	return r.list(ctx, query, userID)
}

// ListByGroup returns all expenses scoped to a group, newest first.
func (r *ExpenseRepo) ListByGroup(ctx context.Context, groupID uuid.UUID) ([]domain.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses
		WHERE group_id = $1
		ORDER BY expense_date DESC`

	return r.list(ctx, query, groupID)
}

// Update updates an expense record.
func (r *ExpenseRepo) Update(ctx context.Context, e *domain.Expense) error {
	details, err := marshalSplitDetails(e.SplitDetails)
	if err != nil {
		return err
	}

	query := `UPDATE expenses
		SET title=$1, amount=$2, expense_date=$3, category=$4, receipt_url=$5, group_id=$6, paid_by=$7, split_type=$8, split_between=$9, split_details=$10, updated_at=NOW()
		WHERE id=$11`

	_, err = r.pool.Exec(ctx, query,
		e.Title, e.Amount, e.Date, e.Category,
		e.ReceiptURL, e.GroupID, e.PaidBy,
		e.SplitType, e.SplitBetween, details,
		e.ID,
	)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	return nil
}

// Delete removes an expense by id.
func (r *ExpenseRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return nil
}

// DeleteByGroup removes all expenses of a group inside the caller's
// transaction and returns the number deleted.
func (r *ExpenseRepo) DeleteByGroup(ctx context.Context, tx pgx.Tx, groupID uuid.UUID) (int64, error) {
	tag, err := tx.Exec(ctx, `DELETE FROM expenses WHERE group_id = $1`, groupID)
	if err != nil {
		return 0, fmt.Errorf("delete expenses by group: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *ExpenseRepo) list(ctx context.Context, query string, arg any) ([]domain.Expense, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []domain.Expense
	for rows.Next() {
		e, err := scanExpenseRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		expenses = append(expenses, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return expenses, nil
}

func scanExpenseRow(row pgx.Row) (*domain.Expense, error) {
	e := &domain.Expense{}
	var details []byte
	err := row.Scan(
		&e.ID, &e.Title, &e.Amount, &e.Date, &e.Category,
		&e.ReceiptURL, &e.GroupID, &e.PaidBy,
		&e.SplitType, &e.SplitBetween, &details,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(details) > 0 {
		if err := json.Unmarshal(details, &e.SplitDetails); err != nil {
			return nil, fmt.Errorf("decode split details: %w", err)
		}
	}
	return e, nil
}

func marshalSplitDetails(details []domain.SplitDetail) ([]byte, error) {
	if len(details) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(details)
	if err != nil {
		return nil, fmt.Errorf("encode split details: %w", err)
	}
	return data, nil
}

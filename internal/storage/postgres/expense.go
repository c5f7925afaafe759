package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/pharmacy-pos/internal/domain/expense"
)

const (
	expenseColumns = `id, datetime, orderid, quantity, name, price, totalprice`

	expenseFilter = `WHERE $1::text = ''
		OR LOWER(name) LIKE '%' || $1::text || '%'
		OR orderid LIKE '%' || $1::text || '%'`

	createExpenseSQL = `INSERT INTO expense (datetime, orderid, quantity, name, price, totalprice)
		VALUES ($1, nextval('expense_orderid_seq')::text, $2, $3, $4, $5)
		RETURNING id, orderid`

	getExpenseSQL = `SELECT ` + expenseColumns + ` FROM expense WHERE id = $1`

	updateExpenseSQL = `UPDATE expense SET
		datetime = $2, orderid = $3, quantity = $4, name = $5, price = $6, totalprice = $7
		WHERE id = $1`

	deleteExpenseSQL = `DELETE FROM expense WHERE id = $1`

	listExpensesSQL = `SELECT ` + expenseColumns + ` FROM expense ` + expenseFilter + `
		ORDER BY datetime DESC, id DESC
		LIMIT $2 OFFSET $3`

	countExpensesSQL = `SELECT COUNT(*) FROM expense ` + expenseFilter
)

var _ expense.Repository = (*ExpenseRepository)(nil)

// ExpenseRepository implements expense.Repository backed by PostgreSQL.
type ExpenseRepository struct {
	pool *pgxpool.Pool
}

// NewExpenseRepository returns an ExpenseRepository that uses the given pool.
func NewExpenseRepository(pool *pgxpool.Pool) *ExpenseRepository {
	return &ExpenseRepository{pool: pool}
}

// Create draws the order id from expense_orderid_seq within the insert.
func (r *ExpenseRepository) Create(ctx context.Context, e *expense.Expense) error {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, createExpenseSQL, e.DateTime, e.Quantity, e.Name, e.Price, e.TotalPrice).
			Scan(&e.ID, &e.OrderID)
	})
	if err != nil {
		return errors.Wrap(err, "insert expense")
	}
	return nil
}

func (r *ExpenseRepository) GetByID(ctx context.Context, id int64) (*expense.Expense, error) {
	rows, err := r.pool.Query(ctx, getExpenseSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get expense %d", id)
	}
	e, err := pgx.CollectExactlyOneRow(rows, scanExpense)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, expense.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get expense %d", id)
	}
	return &e, nil
}

func (r *ExpenseRepository) Update(ctx context.Context, e *expense.Expense) error {
	tag, err := r.pool.Exec(ctx, updateExpenseSQL,
		e.ID, e.DateTime, e.OrderID, e.Quantity, e.Name, e.Price, e.TotalPrice)
	if err != nil {
		return errors.Wrapf(err, "update expense %d", e.ID)
	}
	if tag.RowsAffected() == 0 {
		return expense.ErrNotFound
	}
	return nil
}

func (r *ExpenseRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, deleteExpenseSQL, id)
	if err != nil {
		return errors.Wrapf(err, "delete expense %d", id)
	}
	if tag.RowsAffected() == 0 {
		return expense.ErrNotFound
	}
	return nil
}

func (r *ExpenseRepository) List(ctx context.Context, search string, limit, offset int) ([]expense.Expense, error) {
	rows, err := r.pool.Query(ctx, listExpensesSQL, search, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "list expenses")
	}
	out, err := pgx.CollectRows(rows, scanExpense)
	if err != nil {
		return nil, errors.Wrap(err, "scan expenses")
	}
	return out, nil
}

func (r *ExpenseRepository) Count(ctx context.Context, search string) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, countExpensesSQL, search).Scan(&n); err != nil {
		return 0, errors.Wrap(err, "count expenses")
	}
	return n, nil
}

func scanExpense(row pgx.CollectableRow) (expense.Expense, error) {
	var e expense.Expense
	err := row.Scan(&e.ID, &e.DateTime, &e.OrderID, &e.Quantity, &e.Name, &e.Price, &e.TotalPrice)
	return e, err
}

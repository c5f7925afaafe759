package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/pharmacy-pos/internal/domain/report"
)

const (
	historyFilter = `WHERE $1::text = ''
		OR b.bill_id::text LIKE '%' || $1::text || '%'
		OR b.created_at::text LIKE '%' || $1::text || '%'
		OR LOWER(b.customer_name) LIKE '%' || $1::text || '%'`

	historySQL = `SELECT b.bill_id, b.customer_name, b.total_amount, b.created_at,
		COUNT(bi.bill_item_id) AS item_count
		FROM bills b
		LEFT JOIN bill_items bi ON bi.bill_id = b.bill_id
		` + historyFilter + `
		GROUP BY b.bill_id
		ORDER BY b.created_at DESC, b.bill_id DESC
		LIMIT $2 OFFSET $3`

	countHistorySQL = `SELECT COUNT(*) FROM bills b ` + historyFilter

	monthlySalesSQL = `SELECT EXTRACT(MONTH FROM created_at)::int AS month, SUM(total_amount)
		FROM bills
		WHERE EXTRACT(YEAR FROM created_at) = $1::int
		GROUP BY month
		ORDER BY month`

	monthlyExpensesSQL = `SELECT EXTRACT(MONTH FROM datetime)::int AS month, SUM(totalprice)
		FROM expense
		WHERE EXTRACT(YEAR FROM datetime) = $1::int
		GROUP BY month
		ORDER BY month`

	totalSalesSQL = `SELECT COALESCE(SUM(total_amount), 0) FROM bills`

	totalExpensesSQL = `SELECT COALESCE(SUM(totalprice), 0) FROM expense`

	billInfoSQL = `SELECT bill_id, customer_name, total_amount, discount, created_at
		FROM bills WHERE bill_id = $1`

	treatmentsSQL = `SELECT bi.stock_id, COALESCE(d.name, bi.service_name, ''), bi.quantity,
		COALESCE(s.unit_price, bi.custom_price, 0), bi.subtotal
		FROM bill_items bi
		LEFT JOIN stocks s ON s.stock_id = bi.stock_id
		LEFT JOIN drugs d ON d.drug_id = s.drug_id
		WHERE bi.bill_id = $1
		ORDER BY bi.stock_id ASC NULLS LAST, bi.bill_item_id`
)

var _ report.Repository = (*ReportRepository)(nil)

// ReportRepository implements report.Repository backed by PostgreSQL.
type ReportRepository struct {
	pool *pgxpool.Pool
}

// NewReportRepository returns a ReportRepository that uses the given pool.
func NewReportRepository(pool *pgxpool.Pool) *ReportRepository {
	return &ReportRepository{pool: pool}
}

// History expects search already lowercased.
func (r *ReportRepository) History(ctx context.Context, search string, limit, offset int) ([]report.BillSummary, error) {
	rows, err := r.pool.Query(ctx, historySQL, search, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "query history")
	}
	bills, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (report.BillSummary, error) {
		var b report.BillSummary
		err := row.Scan(&b.ID, &b.CustomerName, &b.Total, &b.CreatedAt, &b.ItemCount)
		return b, err
	})
	if err != nil {
		return nil, errors.Wrap(err, "scan history")
	}
	return bills, nil
}

func (r *ReportRepository) CountHistory(ctx context.Context, search string) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, countHistorySQL, search).Scan(&n); err != nil {
		return 0, errors.Wrap(err, "count history")
	}
	return n, nil
}

func (r *ReportRepository) MonthlySales(ctx context.Context, year int) ([]report.MonthAmount, error) {
	return r.monthly(ctx, monthlySalesSQL, year)
}

func (r *ReportRepository) MonthlyExpenses(ctx context.Context, year int) ([]report.MonthAmount, error) {
	return r.monthly(ctx, monthlyExpensesSQL, year)
}

func (r *ReportRepository) monthly(ctx context.Context, sql string, year int) ([]report.MonthAmount, error) {
	rows, err := r.pool.Query(ctx, sql, year)
	if err != nil {
		return nil, errors.Wrap(err, "query monthly")
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (report.MonthAmount, error) {
		var m report.MonthAmount
		err := row.Scan(&m.Month, &m.Amount)
		return m, err
	})
	if err != nil {
		return nil, errors.Wrap(err, "scan monthly")
	}
	return out, nil
}

func (r *ReportRepository) TotalSales(ctx context.Context) (decimal.Decimal, error) {
	return r.sum(ctx, totalSalesSQL)
}

func (r *ReportRepository) TotalExpenses(ctx context.Context) (decimal.Decimal, error) {
	return r.sum(ctx, totalExpensesSQL)
}

func (r *ReportRepository) sum(ctx context.Context, sql string) (decimal.Decimal, error) {
	var v decimal.Decimal
	if err := r.pool.QueryRow(ctx, sql).Scan(&v); err != nil {
		return decimal.Zero, errors.Wrap(err, "sum")
	}
	return v, nil
}

// BillInfo returns report.ErrBillNotFound when the bill does not exist.
func (r *ReportRepository) BillInfo(ctx context.Context, id int64) (*report.BillInfo, error) {
	var info report.BillInfo
	err := r.pool.QueryRow(ctx, billInfoSQL, id).
		Scan(&info.ID, &info.CustomerName, &info.Total, &info.Discount, &info.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, report.ErrBillNotFound
		}
		return nil, errors.Wrapf(err, "get bill %d", id)
	}

	rows, err := r.pool.Query(ctx, treatmentsSQL, id)
	if err != nil {
		return nil, errors.Wrap(err, "query treatments")
	}
	info.Treatments, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (report.Treatment, error) {
		var t report.Treatment
		err := row.Scan(&t.StockID, &t.Name, &t.Quantity, &t.UnitPrice, &t.Subtotal)
		return t, err
	})
	if err != nil {
		return nil, errors.Wrap(err, "scan treatments")
	}
	return &info, nil
}

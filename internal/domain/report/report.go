// Package report serves read-only aggregations over confirmed bills and
// expenses: the paged sales history, the yearly dashboard and bill details.
package report

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrBillNotFound is returned when a bill does not exist.
var ErrBillNotFound = errors.New("bill not found")

// BillSummary is one row of the sales history.
type BillSummary struct {
	ID           int64
	CustomerName string
	Total        decimal.Decimal
	CreatedAt    time.Time
	ItemCount    int
}

// HistoryPage is a page of the sales history.
type HistoryPage struct {
	Bills      []BillSummary
	TotalRows  int64
	TotalPages int
}

// MonthAmount is a summed amount for one calendar month (1-12).
type MonthAmount struct {
	Month  int
	Amount decimal.Decimal
}

// Month holds income, expense and profit for one calendar month.
type Month struct {
	Month   int
	Income  decimal.Decimal
	Expense decimal.Decimal
	Profit  decimal.Decimal
}

// Dashboard summarizes one year against all-time totals.
type Dashboard struct {
	Year                  int
	Months                []Month
	TotalSales            decimal.Decimal
	TotalExpenses         decimal.Decimal
	NetProfit             decimal.Decimal
	TotalSalesAllYears    decimal.Decimal
	TotalExpensesAllYears decimal.Decimal
	NetProfitAllYears     decimal.Decimal
}

// Treatment is a line of a bill as shown on the bill detail. StockID is nil
// for service lines.
type Treatment struct {
	StockID   *int64
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
	Subtotal  decimal.Decimal
}

// BillInfo is a bill with its treatment lines ordered by stock id.
type BillInfo struct {
	ID           int64
	CustomerName string
	Total        decimal.Decimal
	Discount     decimal.Decimal
	CreatedAt    time.Time
	Treatments   []Treatment
}

// Repository defines the aggregate queries backing reports.
type Repository interface {
	// History returns bills matching search, newest first. An empty search
	// matches every bill.
	History(ctx context.Context, search string, limit, offset int) ([]BillSummary, error)
	CountHistory(ctx context.Context, search string) (int64, error)
	MonthlySales(ctx context.Context, year int) ([]MonthAmount, error)
	MonthlyExpenses(ctx context.Context, year int) ([]MonthAmount, error)
	TotalSales(ctx context.Context) (decimal.Decimal, error)
	TotalExpenses(ctx context.Context) (decimal.Decimal, error)
	// BillInfo returns ErrBillNotFound when the bill does not exist.
	BillInfo(ctx context.Context, id int64) (*BillInfo, error)
}

// Package expense is the operating expense ledger. It is independent of
// billing and only meets it in the dashboard.
package expense

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/pharmacy-pos/internal/domain/validate"
)

// ErrNotFound is returned when an expense does not exist.
var ErrNotFound = errors.New("expense not found")

// Expense is one ledger row. OrderID is assigned by the store from a
// sequence and rendered as decimal text.
type Expense struct {
	ID         int64
	DateTime   time.Time
	OrderID    string
	Quantity   int
	Name       string
	Price      decimal.Decimal
	TotalPrice decimal.Decimal
}

// Validate checks the row before create or update.
func (e *Expense) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return validate.Required("name")
	}
	if e.Quantity <= 0 {
		return validate.Invalid("quantity", "must be greater than 0")
	}
	if err := validate.NonNegative("price", e.Price); err != nil {
		return err
	}
	return validate.NonNegative("totalprice", e.TotalPrice)
}

// Repository defines persistence operations for expenses.
type Repository interface {
	// Create inserts e and fills ID and OrderID.
	Create(ctx context.Context, e *Expense) error
	GetByID(ctx context.Context, id int64) (*Expense, error)
	Update(ctx context.Context, e *Expense) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, search string, limit, offset int) ([]Expense, error)
	Count(ctx context.Context, search string) (int64, error)
}

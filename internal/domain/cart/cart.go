// Package cart implements the pending cart and its confirmation into bills.
//
// Stock is reserved when a line is added: the lot amount drops inside the
// same transaction that inserts the pending line. Removing a line gives the
// quantity back. Confirmation never touches stock; it only attaches the
// pending lines of a cart to a new bill.
package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/pharmacy-pos/internal/domain/stock"
)

// DefaultID names the cart shared by clients that send no cart identifier.
const DefaultID = "default"

// Status is the lifecycle state of a bill item.
type Status string

const (
	// StatusPending marks a line that sits in a cart.
	StatusPending Status = "pending"
	// StatusConfirmed marks a line attached to a bill.
	StatusConfirmed Status = "confirmed"
)

var (
	// ErrEmptyItems is returned when an add request carries no lines.
	ErrEmptyItems = errors.New("items required")
	// ErrEmptyCart is returned when confirming a cart without pending lines.
	ErrEmptyCart = errors.New("no pending bill items found to confirm")
	// ErrItemNotFound is returned when a pending line does not exist in the cart.
	ErrItemNotFound = errors.New("bill item not found")
	// ErrBillNotFound is returned when a bill cannot be loaded.
	ErrBillNotFound = errors.New("bill not found")
	// ErrCartChanged is returned when pending lines changed between reading
	// and confirming them.
	ErrCartChanged = errors.New("cart changed during confirmation")
)

// InsufficientStockError indicates a lot holds fewer units than requested.
type InsufficientStockError struct {
	StockID   int64
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for id %d. Available: %d", e.StockID, e.Available)
}

// StockNotFoundError indicates a product line references an unknown lot.
type StockNotFoundError struct {
	StockID int64
}

func (e *StockNotFoundError) Error() string {
	return fmt.Sprintf("stock with id %d not found", e.StockID)
}

// Unwrap lets callers match stock.ErrNotFound.
func (e *StockNotFoundError) Unwrap() error {
	return stock.ErrNotFound
}

// InvalidDiscountError indicates a discount that yields a negative total.
type InvalidDiscountError struct {
	Discount decimal.Decimal
}

func (e *InvalidDiscountError) Error() string {
	return fmt.Sprintf("invalid discount %s: discounted amount cannot be negative", e.Discount.String())
}

// Item is a bill line. It is created pending, then either deleted or
// confirmed onto a bill; it is never edited in place.
type Item struct {
	ID          int64
	CartID      string
	StockID     *int64
	ServiceName string
	CustomPrice decimal.NullDecimal
	Quantity    int
	Subtotal    decimal.Decimal
	Status      Status
	BillID      *int64
	CreatedAt   time.Time

	// Filled from joins on read.
	DrugID    *int64
	Name      string
	UnitPrice decimal.Decimal
}

// IsService reports whether the line is a named service charge.
func (i *Item) IsService() bool {
	return i.StockID == nil
}

// Bill is an immutable sales record created by confirmation.
type Bill struct {
	ID           int64
	CustomerName string
	Total        decimal.Decimal
	Discount     decimal.Decimal
	CreatedAt    time.Time
	Items        []Item
}

// Removal describes a line removed from a cart. StockAmount holds the lot
// amount after restoration and is nil for service lines.
type Removal struct {
	Item        Item
	StockAmount *int
}

// Store runs cart operations against persistent storage.
type Store interface {
	// InTx runs fn in one transaction, committing when fn returns nil and
	// rolling back otherwise.
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	ListPending(ctx context.Context, cartID string) ([]Item, error)
	GetBill(ctx context.Context, id int64) (*Bill, error)
}

// Tx is the set of statements available inside a cart transaction.
type Tx interface {
	// LockStock returns the lot and locks it until the transaction ends.
	// It returns stock.ErrNotFound when the lot does not exist.
	LockStock(ctx context.Context, id int64) (*stock.Stock, error)
	// AdjustStock adds delta to the lot amount and returns the new amount.
	AdjustStock(ctx context.Context, id int64, delta int) (int, error)
	InsertItem(ctx context.Context, item *Item) error
	// PendingItems returns the pending lines of a cart, locked.
	PendingItems(ctx context.Context, cartID string) ([]Item, error)
	// GetPendingItem returns ErrItemNotFound when the line is absent.
	GetPendingItem(ctx context.Context, cartID string, id int64) (*Item, error)
	DeleteItem(ctx context.Context, id int64) error
	InsertBill(ctx context.Context, b *Bill) error
	// ConfirmItems attaches the given pending lines to a bill and returns
	// the number of lines updated.
	ConfirmItems(ctx context.Context, ids []int64, billID int64) (int64, error)
}

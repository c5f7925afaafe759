package stock

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/pharmacy-pos/internal/domain/validate"
)

var (
	// ErrNotFound is returned when a requested stock lot does not exist.
	ErrNotFound = errors.New("stock not found")
	// ErrDrugNotFound is returned when a lot references an unknown drug.
	ErrDrugNotFound = errors.New("drug not found")
)

// DefaultTopSellingLimit is used when no limit is requested.
const DefaultTopSellingLimit = 5

// Stock is a priced, dated lot of a drug. UnitPrice is a snapshot taken at
// lot creation and does not follow later drug price changes.
type Stock struct {
	ID        int64
	DrugID    int64
	Amount    int
	Expired   time.Time
	UnitPrice decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks lot fields before create or update.
func (s *Stock) Validate() error {
	if s.DrugID <= 0 {
		return validate.Required("drug_id")
	}
	if s.Amount < 0 {
		return validate.Invalid("amount", "must not be negative")
	}
	if s.Expired.IsZero() {
		return validate.Required("expired")
	}
	return validate.NonNegative("unit_price", s.UnitPrice)
}

// Detail is a lot joined with its drug.
type Detail struct {
	Stock
	DrugName  string
	DrugCode  string
	DrugType  string
	UnitType  string
	DrugPrice decimal.Decimal
}

// TopSelling aggregates confirmed sales of a single lot.
type TopSelling struct {
	StockID   int64
	DrugID    int64
	DrugName  string
	UnitPrice decimal.Decimal
	Amount    int
	Sold      int64
	Revenue   decimal.Decimal
}

// Repository defines persistence operations for stock lots.
type Repository interface {
	List(ctx context.Context) ([]Stock, error)
	Create(ctx context.Context, s *Stock) error
	Update(ctx context.Context, s *Stock) error
	ListByDrug(ctx context.Context, drugID int64) ([]Stock, error)
	GetDetail(ctx context.Context, id int64) (*Detail, error)
	TopSelling(ctx context.Context, limit int) ([]TopSelling, error)
}

package drug

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/pharmacy-pos/internal/domain/validate"
)

var (
	// ErrNotFound is returned when a requested drug does not exist.
	ErrNotFound = errors.New("drug not found")
	// ErrInUse is returned when deleting a drug that stock lots still reference.
	ErrInUse = errors.New("drug is referenced by stock")
)

// Drug is a catalog entry. Stock lots reference it but never own it.
type Drug struct {
	ID         int64
	Name       string
	Code       string
	Detail     string
	Usage      string
	SlangFood  string
	SideEffect string
	DrugType   string
	UnitType   string
	Price      decimal.Decimal
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Validate checks the fields required on create and update.
func (d *Drug) Validate() error {
	switch {
	case strings.TrimSpace(d.Name) == "":
		return validate.Required("name")
	case strings.TrimSpace(d.Code) == "":
		return validate.Required("code")
	case strings.TrimSpace(d.DrugType) == "":
		return validate.Required("drug_type")
	case strings.TrimSpace(d.UnitType) == "":
		return validate.Required("unit_type")
	}
	return validate.NonNegative("price", d.Price)
}

// Repository defines persistence operations for the drug catalog.
type Repository interface {
	List(ctx context.Context) ([]Drug, error)
	GetByID(ctx context.Context, id int64) (*Drug, error)
	Create(ctx context.Context, d *Drug) error
	Update(ctx context.Context, d *Drug) error
	Delete(ctx context.Context, id int64) (*Drug, error)
}

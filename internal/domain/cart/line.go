package cart

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/pharmacy-pos/internal/domain/validate"
)

// Line is a request to add one bill item to a cart. It is either a
// ProductLine or a ServiceLine.
type Line interface {
	Validate() error
	qty() int
}

// ProductLine sells units from a stock lot at the lot's unit price.
type ProductLine struct {
	StockID  int64
	Quantity int
}

// Validate checks the line before it enters a transaction.
func (l ProductLine) Validate() error {
	if l.StockID <= 0 {
		return validate.Required("stock_id")
	}
	if l.Quantity <= 0 {
		return validate.Invalid("quantity", "must be greater than 0")
	}
	return nil
}

func (l ProductLine) qty() int { return l.Quantity }

// ServiceLine is a named charge that holds no stock.
type ServiceLine struct {
	Name     string
	Price    decimal.Decimal
	Quantity int
}

// Validate checks the line before it enters a transaction.
func (l ServiceLine) Validate() error {
	if l.Name == "" {
		return validate.Required("service")
	}
	if l.Quantity <= 0 {
		return validate.Invalid("quantity", "must be greater than 0")
	}
	return validate.NonNegative("custom_price", l.Price)
}

func (l ServiceLine) qty() int { return l.Quantity }

// Subtotal returns price times quantity rounded to cents.
func Subtotal(price decimal.Decimal, quantity int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
}

// Total sums the subtotals of items.
func Total(items []Item) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal)
	}
	return total
}

var hundred = decimal.NewFromInt(100)

// ApplyDiscount reduces total by a percentage discount and rounds to cents.
// A negative discount or a negative result is rejected before rounding.
func ApplyDiscount(total, discount decimal.Decimal) (decimal.Decimal, error) {
	if discount.IsNegative() {
		return decimal.Zero, &InvalidDiscountError{Discount: discount}
	}
	discounted := total.Sub(total.Mul(discount).Div(hundred))
	if discounted.IsNegative() {
		return decimal.Zero, &InvalidDiscountError{Discount: discount}
	}
	return discounted.Round(2), nil
}

package cart

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/xenking/pharmacy-pos/internal/domain/stock"
)

// ConfirmRequest holds the input for confirming a cart.
type ConfirmRequest struct {
	Discount     decimal.Decimal
	CustomerName string
}

// Service runs the cart workflow: add, list, remove and confirm.
type Service struct {
	store Store
	now   func() time.Time

	itemsAdded     metric.Int64Counter
	billsConfirmed metric.Int64Counter
}

// Option configures a Service.
type Option func(*options)

type options struct {
	now    func() time.Time
	meters metric.MeterProvider
}

// WithClock overrides the clock used for bill timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithMeterProvider records cart counters on the given provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) { o.meters = mp }
}

// NewService creates a cart Service backed by store.
func NewService(store Store, opts ...Option) *Service {
	o := options{
		now:    time.Now,
		meters: noop.NewMeterProvider(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	meter := o.meters.Meter("github.com/xenking/pharmacy-pos/internal/domain/cart")
	itemsAdded, err := meter.Int64Counter("pharmacy.cart.items_added",
		metric.WithDescription("Bill items added to carts"))
	if err != nil {
		itemsAdded = noop.Int64Counter{}
	}
	billsConfirmed, err := meter.Int64Counter("pharmacy.bills.confirmed",
		metric.WithDescription("Carts confirmed into bills"))
	if err != nil {
		billsConfirmed = noop.Int64Counter{}
	}

	return &Service{
		store:          store,
		now:            o.now,
		itemsAdded:     itemsAdded,
		billsConfirmed: billsConfirmed,
	}
}

// NewCart issues a fresh cart identifier.
func (s *Service) NewCart() string {
	return uuid.NewString()
}

func cartOrDefault(id string) string {
	if id == "" {
		return DefaultID
	}
	return id
}

// Add reserves stock and inserts pending items for every line in one
// transaction. Any failing line rolls back the whole batch. It returns the
// pending items of the cart after the insert.
func (s *Service) Add(ctx context.Context, cartID string, lines []Line) ([]Item, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyItems
	}
	for _, l := range lines {
		if err := l.Validate(); err != nil {
			return nil, err
		}
	}
	cartID = cartOrDefault(cartID)

	err := s.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		for _, l := range lines {
			item, err := s.reserve(ctx, tx, cartID, l)
			if err != nil {
				return err
			}
			if err := tx.InsertItem(ctx, item); err != nil {
				return errors.Wrap(err, "insert item")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var units int64
	for _, l := range lines {
		units += int64(l.qty())
	}
	s.itemsAdded.Add(ctx, units)

	return s.Pending(ctx, cartID)
}

// reserve builds a pending item for l, decrementing stock for product lines.
func (s *Service) reserve(ctx context.Context, tx Tx, cartID string, l Line) (*Item, error) {
	item := &Item{
		CartID: cartID,
		Status: StatusPending,
	}

	switch l := l.(type) {
	case ProductLine:
		st, err := tx.LockStock(ctx, l.StockID)
		if errors.Is(err, stock.ErrNotFound) {
			return nil, &StockNotFoundError{StockID: l.StockID}
		}
		if err != nil {
			return nil, errors.Wrap(err, "lock stock")
		}
		if st.Amount < l.Quantity {
			return nil, &InsufficientStockError{
				StockID:   l.StockID,
				Available: st.Amount,
				Requested: l.Quantity,
			}
		}
		if _, err := tx.AdjustStock(ctx, l.StockID, -l.Quantity); err != nil {
			return nil, errors.Wrap(err, "decrement stock")
		}
		id := l.StockID
		item.StockID = &id
		item.Quantity = l.Quantity
		item.Subtotal = Subtotal(st.UnitPrice, l.Quantity)
	case ServiceLine:
		item.ServiceName = l.Name
		item.CustomPrice = decimal.NewNullDecimal(l.Price)
		item.Quantity = l.Quantity
		item.Subtotal = Subtotal(l.Price, l.Quantity)
	default:
		return nil, errors.Errorf("unknown line type %T", l)
	}
	return item, nil
}

// Pending lists the pending items of a cart in insertion order.
func (s *Service) Pending(ctx context.Context, cartID string) ([]Item, error) {
	items, err := s.store.ListPending(ctx, cartOrDefault(cartID))
	if err != nil {
		return nil, errors.Wrap(err, "list pending")
	}
	return items, nil
}

// Remove deletes a pending item and gives its quantity back to the lot.
func (s *Service) Remove(ctx context.Context, cartID string, itemID int64) (*Removal, error) {
	cartID = cartOrDefault(cartID)

	var removal Removal
	err := s.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		item, err := tx.GetPendingItem(ctx, cartID, itemID)
		if err != nil {
			return err
		}
		if err := tx.DeleteItem(ctx, item.ID); err != nil {
			return errors.Wrap(err, "delete item")
		}
		removal = Removal{Item: *item}
		if item.IsService() {
			return nil
		}
		amount, err := tx.AdjustStock(ctx, *item.StockID, item.Quantity)
		if err != nil {
			return errors.Wrap(err, "restore stock")
		}
		removal.StockAmount = &amount
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &removal, nil
}

// Confirm turns the pending items of a cart into a bill. Stock is not
// touched; it was reserved when the items were added.
func (s *Service) Confirm(ctx context.Context, cartID string, req ConfirmRequest) (*Bill, error) {
	cartID = cartOrDefault(cartID)

	var billID int64
	err := s.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		items, err := tx.PendingItems(ctx, cartID)
		if err != nil {
			return errors.Wrap(err, "read pending")
		}
		if len(items) == 0 {
			return ErrEmptyCart
		}

		// bills.discount keeps two places; the total must be reproducible from it.
		discount := req.Discount
		if !discount.IsNegative() {
			discount = discount.Round(2)
		}
		total, err := ApplyDiscount(Total(items), discount)
		if err != nil {
			return err
		}

		b := &Bill{
			CustomerName: req.CustomerName,
			Total:        total,
			Discount:     discount,
			CreatedAt:    s.now(),
		}
		if err := tx.InsertBill(ctx, b); err != nil {
			return errors.Wrap(err, "insert bill")
		}

		ids := make([]int64, len(items))
		for i, it := range items {
			ids[i] = it.ID
		}
		n, err := tx.ConfirmItems(ctx, ids, b.ID)
		if err != nil {
			return errors.Wrap(err, "confirm items")
		}
		if n != int64(len(ids)) {
			return ErrCartChanged
		}
		billID = b.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.billsConfirmed.Add(ctx, 1)

	b, err := s.store.GetBill(ctx, billID)
	if err != nil {
		return nil, errors.Wrap(err, "get bill")
	}
	return b, nil
}

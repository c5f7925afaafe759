package cart

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/pharmacy-pos/internal/domain/stock"
	"github.com/xenking/pharmacy-pos/internal/domain/validate"
)

var fixedNow = time.Date(2024, 3, 14, 10, 0, 0, 0, time.UTC)

func newTestService(store *memStore) *Service {
	return NewService(store, WithClock(func() time.Time { return fixedNow }))
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestAdd_EmptyItems(t *testing.T) {
	svc := newTestService(newMemStore())

	_, err := svc.Add(context.Background(), "", nil)
	require.ErrorIs(t, err, ErrEmptyItems)
}

func TestAdd_InvalidLine(t *testing.T) {
	store := newMemStore(lot(1, 5, "10.00"))
	svc := newTestService(store)

	_, err := svc.Add(context.Background(), "", []Line{
		ProductLine{StockID: 1, Quantity: 1},
		ProductLine{StockID: 1, Quantity: 0},
	})

	var vErr *validate.Error
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "quantity", vErr.Field)
	assert.Equal(t, 5, store.amount(1))
	assert.Empty(t, store.items)
}

func TestAdd_ProductLine(t *testing.T) {
	store := newMemStore(lot(1, 5, "10.00"))
	svc := newTestService(store)

	items, err := svc.Add(context.Background(), "", []Line{ProductLine{StockID: 1, Quantity: 2}})
	require.NoError(t, err)

	require.Len(t, items, 1)
	it := items[0]
	require.NotNil(t, it.StockID)
	assert.Equal(t, int64(1), *it.StockID)
	assert.Equal(t, DefaultID, it.CartID)
	assert.Equal(t, StatusPending, it.Status)
	assert.Nil(t, it.BillID)
	assert.True(t, dec("20.00").Equal(it.Subtotal), "subtotal %s", it.Subtotal)
	assert.True(t, dec("10.00").Equal(it.UnitPrice))
	assert.Equal(t, 3, store.amount(1))
}

func TestAdd_ServiceLine(t *testing.T) {
	store := newMemStore(lot(1, 5, "10.00"))
	svc := newTestService(store)

	items, err := svc.Add(context.Background(), "", []Line{
		ServiceLine{Name: "consultation", Price: dec("50.00"), Quantity: 1},
	})
	require.NoError(t, err)

	require.Len(t, items, 1)
	assert.Nil(t, items[0].StockID)
	assert.True(t, items[0].IsService())
	assert.Equal(t, "consultation", items[0].Name)
	assert.True(t, dec("50.00").Equal(items[0].Subtotal))
	assert.Equal(t, 5, store.amount(1))
}

func TestAdd_StockNotFound(t *testing.T) {
	store := newMemStore(lot(1, 5, "10.00"))
	svc := newTestService(store)

	_, err := svc.Add(context.Background(), "", []Line{
		ProductLine{StockID: 1, Quantity: 1},
		ProductLine{StockID: 42, Quantity: 1},
	})

	var nfErr *StockNotFoundError
	require.ErrorAs(t, err, &nfErr)
	assert.Equal(t, int64(42), nfErr.StockID)
	require.ErrorIs(t, err, stock.ErrNotFound)
	assert.Equal(t, 5, store.amount(1))
	assert.Empty(t, store.items)
}

func TestAdd_InsufficientStockRollsBackBatch(t *testing.T) {
	store := newMemStore(lot(1, 5, "10.00"), lot(2, 10, "3.50"))
	svc := newTestService(store)

	_, err := svc.Add(context.Background(), "", []Line{
		ProductLine{StockID: 2, Quantity: 4},
		ProductLine{StockID: 1, Quantity: 3},
		ProductLine{StockID: 1, Quantity: 3},
	})

	var isErr *InsufficientStockError
	require.ErrorAs(t, err, &isErr)
	assert.Equal(t, int64(1), isErr.StockID)
	assert.Equal(t, 2, isErr.Available)
	assert.Equal(t, 3, isErr.Requested)
	assert.Contains(t, err.Error(), "Available: 2")

	assert.Equal(t, 5, store.amount(1))
	assert.Equal(t, 10, store.amount(2))
	assert.Empty(t, store.items)
}

func TestAdd_SubtotalAndDecrement(t *testing.T) {
	tests := []struct {
		name     string
		price    string
		quantity int
		subtotal string
	}{
		{name: "single unit", price: "10.00", quantity: 1, subtotal: "10.00"},
		{name: "fractional price", price: "0.10", quantity: 3, subtotal: "0.30"},
		{name: "whole lot", price: "12.35", quantity: 7, subtotal: "86.45"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore(lot(1, 7, tt.price))
			svc := newTestService(store)

			items, err := svc.Add(context.Background(), "", []Line{ProductLine{StockID: 1, Quantity: tt.quantity}})
			require.NoError(t, err)
			require.Len(t, items, 1)
			assert.True(t, dec(tt.subtotal).Equal(items[0].Subtotal), "got %s", items[0].Subtotal)
			assert.Equal(t, 7-tt.quantity, store.amount(1))
		})
	}
}

func TestPending_IsolatedPerCart(t *testing.T) {
	store := newMemStore(lot(1, 10, "1.00"))
	svc := newTestService(store)
	ctx := context.Background()

	a := svc.NewCart()
	b := svc.NewCart()
	require.NotEqual(t, a, b)

	_, err := svc.Add(ctx, a, []Line{ProductLine{StockID: 1, Quantity: 1}})
	require.NoError(t, err)
	_, err = svc.Add(ctx, b, []Line{ProductLine{StockID: 1, Quantity: 2}, ProductLine{StockID: 1, Quantity: 3}})
	require.NoError(t, err)

	pa, err := svc.Pending(ctx, a)
	require.NoError(t, err)
	pb, err := svc.Pending(ctx, b)
	require.NoError(t, err)
	pd, err := svc.Pending(ctx, "")
	require.NoError(t, err)

	assert.Len(t, pa, 1)
	require.Len(t, pb, 2)
	assert.Less(t, pb[0].ID, pb[1].ID)
	assert.Empty(t, pd)
	assert.Equal(t, 4, store.amount(1))
}

func TestRemove_RestoresStock(t *testing.T) {
	store := newMemStore(lot(1, 5, "10.00"))
	svc := newTestService(store)
	ctx := context.Background()

	items, err := svc.Add(ctx, "", []Line{ProductLine{StockID: 1, Quantity: 2}})
	require.NoError(t, err)
	require.Equal(t, 3, store.amount(1))

	removal, err := svc.Remove(ctx, "", items[0].ID)
	require.NoError(t, err)
	assert.Equal(t, items[0].ID, removal.Item.ID)
	require.NotNil(t, removal.StockAmount)
	assert.Equal(t, 5, *removal.StockAmount)
	assert.Equal(t, 5, store.amount(1))

	pending, err := svc.Pending(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, pending)

	// Adding the same line again lands on the same amount as the first add.
	_, err = svc.Add(ctx, "", []Line{ProductLine{StockID: 1, Quantity: 2}})
	require.NoError(t, err)
	assert.Equal(t, 3, store.amount(1))
}

func TestRemove_ServiceLine(t *testing.T) {
	store := newMemStore(lot(1, 5, "10.00"))
	svc := newTestService(store)
	ctx := context.Background()

	items, err := svc.Add(ctx, "", []Line{ServiceLine{Name: "injection", Price: dec("15.00"), Quantity: 2}})
	require.NoError(t, err)

	removal, err := svc.Remove(ctx, "", items[0].ID)
	require.NoError(t, err)
	assert.Nil(t, removal.StockAmount)
	assert.Equal(t, 5, store.amount(1))
}

func TestRemove_NotFound(t *testing.T) {
	store := newMemStore(lot(1, 5, "10.00"))
	svc := newTestService(store)
	ctx := context.Background()

	items, err := svc.Add(ctx, "", []Line{ProductLine{StockID: 1, Quantity: 2}})
	require.NoError(t, err)

	_, err = svc.Remove(ctx, "", 999)
	require.ErrorIs(t, err, ErrItemNotFound)

	// An item of another cart is not visible.
	_, err = svc.Remove(ctx, "other", items[0].ID)
	require.ErrorIs(t, err, ErrItemNotFound)

	assert.Equal(t, 3, store.amount(1))
	assert.Len(t, store.items, 1)
}

func TestConfirm_EmptyCart(t *testing.T) {
	svc := newTestService(newMemStore())

	_, err := svc.Confirm(context.Background(), "", ConfirmRequest{})
	require.ErrorIs(t, err, ErrEmptyCart)
}

func TestConfirm_ProductAndService(t *testing.T) {
	store := newMemStore(lot(1, 5, "10.00"))
	svc := newTestService(store)
	ctx := context.Background()

	_, err := svc.Add(ctx, "", []Line{ProductLine{StockID: 1, Quantity: 2}})
	require.NoError(t, err)

	b, err := svc.Confirm(ctx, "", ConfirmRequest{Discount: dec("10"), CustomerName: "Alice"})
	require.NoError(t, err)

	assert.True(t, dec("18.00").Equal(b.Total), "total %s", b.Total)
	assert.True(t, dec("10").Equal(b.Discount))
	assert.Equal(t, "Alice", b.CustomerName)
	assert.Equal(t, fixedNow, b.CreatedAt)
	require.Len(t, b.Items, 1)
	assert.True(t, dec("20.00").Equal(b.Items[0].Subtotal))
	assert.Equal(t, StatusConfirmed, b.Items[0].Status)
	require.NotNil(t, b.Items[0].BillID)
	assert.Equal(t, b.ID, *b.Items[0].BillID)
	assert.Equal(t, 3, store.amount(1))

	pending, err := svc.Pending(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, pending)

	_, err = svc.Add(ctx, "", []Line{ServiceLine{Name: "consultation", Price: dec("50.00"), Quantity: 1}})
	require.NoError(t, err)

	b2, err := svc.Confirm(ctx, "", ConfirmRequest{})
	require.NoError(t, err)
	assert.True(t, dec("50.00").Equal(b2.Total))
	require.Len(t, b2.Items, 1)
	assert.Nil(t, b2.Items[0].StockID)
	assert.Equal(t, 3, store.amount(1))
}

func TestConfirm_Discounts(t *testing.T) {
	tests := []struct {
		name     string
		price    string
		discount string
		total    string
		wantErr  bool
	}{
		{name: "no discount", price: "12.34", discount: "0", total: "24.68"},
		{name: "full discount", price: "12.34", discount: "100", total: "0"},
		{name: "fractional rounding", price: "3.33", discount: "15", total: "5.66"},
		{name: "over one hundred", price: "10.00", discount: "101", wantErr: true},
		{name: "negative below a cent", price: "5.00", discount: "100.04", wantErr: true},
		{name: "tiny negative discount", price: "5.00", discount: "-0.001", wantErr: true},
		{name: "negative", price: "10.00", discount: "-5", wantErr: true},
		{name: "zero sum with discount", price: "0.00", discount: "50", total: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore(lot(1, 5, tt.price))
			svc := newTestService(store)
			ctx := context.Background()

			_, err := svc.Add(ctx, "", []Line{ProductLine{StockID: 1, Quantity: 2}})
			require.NoError(t, err)

			b, err := svc.Confirm(ctx, "", ConfirmRequest{Discount: dec(tt.discount)})
			if tt.wantErr {
				var idErr *InvalidDiscountError
				require.ErrorAs(t, err, &idErr)
				assert.Empty(t, store.bills)
				pending, err := svc.Pending(ctx, "")
				require.NoError(t, err)
				assert.Len(t, pending, 1)
				return
			}
			require.NoError(t, err)
			assert.True(t, dec(tt.total).Equal(b.Total), "total %s", b.Total)
		})
	}
}

func TestConfirm_DiscountStoredWithTwoPlaces(t *testing.T) {
	store := newMemStore(lot(1, 5, "100.00"))
	svc := newTestService(store)
	ctx := context.Background()

	_, err := svc.Add(ctx, "", []Line{ProductLine{StockID: 1, Quantity: 1}})
	require.NoError(t, err)

	b, err := svc.Confirm(ctx, "", ConfirmRequest{Discount: dec("12.345")})
	require.NoError(t, err)
	assert.True(t, dec("12.35").Equal(b.Discount), "discount %s", b.Discount)
	assert.True(t, dec("87.65").Equal(b.Total), "total %s", b.Total)

	want, err := ApplyDiscount(dec("100.00"), b.Discount)
	require.NoError(t, err)
	assert.True(t, want.Equal(b.Total))
}

func TestConfirm_OnlyOwnCart(t *testing.T) {
	store := newMemStore(lot(1, 10, "2.00"))
	svc := newTestService(store)
	ctx := context.Background()

	_, err := svc.Add(ctx, "a", []Line{ProductLine{StockID: 1, Quantity: 1}})
	require.NoError(t, err)
	_, err = svc.Add(ctx, "b", []Line{ProductLine{StockID: 1, Quantity: 4}})
	require.NoError(t, err)

	b, err := svc.Confirm(ctx, "a", ConfirmRequest{})
	require.NoError(t, err)
	assert.True(t, dec("2.00").Equal(b.Total))

	pending, err := svc.Pending(ctx, "b")
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestConfirm_InsertBillFailureLeavesCart(t *testing.T) {
	store := newMemStore(lot(1, 5, "10.00"))
	svc := newTestService(store)
	ctx := context.Background()

	_, err := svc.Add(ctx, "", []Line{ProductLine{StockID: 1, Quantity: 2}})
	require.NoError(t, err)

	storeErr := errors.New("connection reset")
	store.insertBillErr = storeErr

	_, err = svc.Confirm(ctx, "", ConfirmRequest{})
	require.ErrorIs(t, err, storeErr)

	pending, err := svc.Pending(ctx, "")
	require.NoError(t, err)
	assert.Len(t, pending, 1)
	assert.Equal(t, 3, store.amount(1))
}

func TestConfirm_CartChanged(t *testing.T) {
	store := newMemStore(lot(1, 5, "10.00"))
	svc := newTestService(store)
	ctx := context.Background()

	items, err := svc.Add(ctx, "", []Line{
		ProductLine{StockID: 1, Quantity: 1},
		ProductLine{StockID: 1, Quantity: 1},
	})
	require.NoError(t, err)

	// Another request confirms one of the lines first.
	store.beforeConfirm = func(s *memStore) {
		s.beforeConfirm = nil
		for i := range s.items {
			if s.items[i].ID == items[0].ID {
				s.items[i].Status = StatusConfirmed
			}
		}
	}

	_, err = svc.Confirm(ctx, "", ConfirmRequest{})
	require.ErrorIs(t, err, ErrCartChanged)
	assert.Empty(t, store.bills)
}

func TestApplyDiscount(t *testing.T) {
	got, err := ApplyDiscount(dec("20.00"), dec("10"))
	require.NoError(t, err)
	assert.True(t, dec("18.00").Equal(got))

	got, err = ApplyDiscount(decimal.Zero, dec("100"))
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	_, err = ApplyDiscount(dec("1.00"), dec("100.01"))
	var idErr *InvalidDiscountError
	require.ErrorAs(t, err, &idErr)
}

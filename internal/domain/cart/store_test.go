package cart

import (
	"context"
	"slices"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/pharmacy-pos/internal/domain/stock"
)

// memStore is an in-memory Store. InTx snapshots the state and restores it
// when fn fails, so rollback behaves like a database transaction.
type memStore struct {
	stocks   map[int64]*stock.Stock
	items    []Item
	bills    []Bill
	nextItem int64
	nextBill int64

	insertBillErr error
	// beforeConfirm runs inside ConfirmItems before rows are updated.
	beforeConfirm func(s *memStore)
}

func newMemStore(stocks ...stock.Stock) *memStore {
	m := &memStore{stocks: make(map[int64]*stock.Stock, len(stocks))}
	for i := range stocks {
		st := stocks[i]
		m.stocks[st.ID] = &st
	}
	return m
}

type memSnapshot struct {
	stocks   map[int64]stock.Stock
	items    []Item
	bills    []Bill
	nextItem int64
	nextBill int64
}

func (m *memStore) snapshot() memSnapshot {
	snap := memSnapshot{
		stocks:   make(map[int64]stock.Stock, len(m.stocks)),
		items:    slices.Clone(m.items),
		bills:    slices.Clone(m.bills),
		nextItem: m.nextItem,
		nextBill: m.nextBill,
	}
	for id, st := range m.stocks {
		snap.stocks[id] = *st
	}
	return snap
}

func (m *memStore) restore(snap memSnapshot) {
	m.stocks = make(map[int64]*stock.Stock, len(snap.stocks))
	for id, st := range snap.stocks {
		m.stocks[id] = &st
	}
	m.items = snap.items
	m.bills = snap.bills
	m.nextItem = snap.nextItem
	m.nextBill = snap.nextBill
}

func (m *memStore) InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	snap := m.snapshot()
	if err := fn(ctx, memTx{m}); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

func (m *memStore) decorate(it Item) Item {
	if it.StockID != nil {
		st := m.stocks[*it.StockID]
		it.UnitPrice = st.UnitPrice
		drugID := st.DrugID
		it.DrugID = &drugID
		it.Name = "drug"
	} else {
		it.Name = it.ServiceName
		it.UnitPrice = it.CustomPrice.Decimal
	}
	return it
}

func (m *memStore) ListPending(_ context.Context, cartID string) ([]Item, error) {
	var out []Item
	for _, it := range m.items {
		if it.CartID == cartID && it.Status == StatusPending {
			out = append(out, m.decorate(it))
		}
	}
	return out, nil
}

func (m *memStore) GetBill(_ context.Context, id int64) (*Bill, error) {
	for _, b := range m.bills {
		if b.ID != id {
			continue
		}
		for _, it := range m.items {
			if it.BillID != nil && *it.BillID == id {
				b.Items = append(b.Items, m.decorate(it))
			}
		}
		return &b, nil
	}
	return nil, ErrBillNotFound
}

func (m *memStore) amount(id int64) int {
	return m.stocks[id].Amount
}

type memTx struct {
	m *memStore
}

func (t memTx) LockStock(_ context.Context, id int64) (*stock.Stock, error) {
	st, ok := t.m.stocks[id]
	if !ok {
		return nil, stock.ErrNotFound
	}
	cp := *st
	return &cp, nil
}

func (t memTx) AdjustStock(_ context.Context, id int64, delta int) (int, error) {
	st, ok := t.m.stocks[id]
	if !ok {
		return 0, stock.ErrNotFound
	}
	if st.Amount+delta < 0 {
		return 0, errors.New("amount check violated")
	}
	st.Amount += delta
	return st.Amount, nil
}

func (t memTx) InsertItem(_ context.Context, item *Item) error {
	t.m.nextItem++
	item.ID = t.m.nextItem
	t.m.items = append(t.m.items, *item)
	return nil
}

func (t memTx) PendingItems(ctx context.Context, cartID string) ([]Item, error) {
	return t.m.ListPending(ctx, cartID)
}

func (t memTx) GetPendingItem(_ context.Context, cartID string, id int64) (*Item, error) {
	for _, it := range t.m.items {
		if it.ID == id && it.CartID == cartID && it.Status == StatusPending {
			return &it, nil
		}
	}
	return nil, ErrItemNotFound
}

func (t memTx) DeleteItem(_ context.Context, id int64) error {
	t.m.items = slices.DeleteFunc(t.m.items, func(it Item) bool { return it.ID == id })
	return nil
}

func (t memTx) InsertBill(_ context.Context, b *Bill) error {
	if t.m.insertBillErr != nil {
		return t.m.insertBillErr
	}
	t.m.nextBill++
	b.ID = t.m.nextBill
	t.m.bills = append(t.m.bills, *b)
	return nil
}

func (t memTx) ConfirmItems(_ context.Context, ids []int64, billID int64) (int64, error) {
	if t.m.beforeConfirm != nil {
		t.m.beforeConfirm(t.m)
	}
	var n int64
	for i := range t.m.items {
		it := &t.m.items[i]
		if it.Status != StatusPending || !slices.Contains(ids, it.ID) {
			continue
		}
		bid := billID
		it.Status = StatusConfirmed
		it.BillID = &bid
		n++
	}
	return n, nil
}

func lot(id int64, amount int, price string) stock.Stock {
	return stock.Stock{
		ID:        id,
		DrugID:    id,
		Amount:    amount,
		UnitPrice: decimal.RequireFromString(price),
	}
}

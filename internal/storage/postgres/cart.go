package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/pharmacy-pos/internal/domain/cart"
	"github.com/xenking/pharmacy-pos/internal/domain/stock"
)

const (
	itemSelect = `SELECT bi.bill_item_id, bi.cart_id, bi.stock_id, bi.service_name, bi.custom_price,
		bi.quantity, bi.subtotal, bi.status, bi.bill_id, bi.created_at,
		s.drug_id, COALESCE(d.name, bi.service_name, ''), COALESCE(s.unit_price, bi.custom_price)
		FROM bill_items bi
		LEFT JOIN stocks s ON s.stock_id = bi.stock_id
		LEFT JOIN drugs d ON d.drug_id = s.drug_id`

	listPendingSQL = itemSelect + `
		WHERE bi.cart_id = $1 AND bi.status = 'pending'
		ORDER BY bi.bill_item_id`

	lockPendingSQL = listPendingSQL + ` FOR UPDATE OF bi`

	getPendingItemSQL = itemSelect + `
		WHERE bi.cart_id = $1 AND bi.bill_item_id = $2 AND bi.status = 'pending'
		FOR UPDATE OF bi`

	billItemsSQL = itemSelect + `
		WHERE bi.bill_id = $1
		ORDER BY bi.bill_item_id`

	lockStockSQL = `SELECT ` + stockColumns + ` FROM stocks WHERE stock_id = $1 FOR UPDATE`

	adjustStockSQL = `UPDATE stocks SET amount = amount + $2, updated_at = now()
		WHERE stock_id = $1
		RETURNING amount`

	insertItemSQL = `INSERT INTO bill_items
		(cart_id, stock_id, service_name, custom_price, quantity, subtotal, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING bill_item_id, created_at`

	deleteItemSQL = `DELETE FROM bill_items WHERE bill_item_id = $1`

	insertBillSQL = `INSERT INTO bills (customer_name, total_amount, discount, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING bill_id`

	confirmItemsSQL = `UPDATE bill_items SET status = 'confirmed', bill_id = $2
		WHERE bill_item_id = ANY($1) AND status = 'pending'`

	getBillSQL = `SELECT bill_id, customer_name, total_amount, discount, created_at
		FROM bills WHERE bill_id = $1`
)

var _ cart.Store = (*CartStore)(nil)

// CartStore implements cart.Store backed by PostgreSQL.
type CartStore struct {
	pool *pgxpool.Pool
}

// NewCartStore returns a CartStore that uses the given pool.
func NewCartStore(pool *pgxpool.Pool) *CartStore {
	return &CartStore{pool: pool}
}

// InTx runs fn inside a single transaction on a dedicated connection.
func (s *CartStore) InTx(ctx context.Context, fn func(ctx context.Context, tx cart.Tx) error) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(ctx, cartTx{tx: tx})
	})
}

// ListPending returns the pending items of a cart without locking them.
func (s *CartStore) ListPending(ctx context.Context, cartID string) ([]cart.Item, error) {
	return queryItems(ctx, s.pool, listPendingSQL, cartID)
}

// GetBill returns a bill with its items.
func (s *CartStore) GetBill(ctx context.Context, id int64) (*cart.Bill, error) {
	var b cart.Bill
	err := s.pool.QueryRow(ctx, getBillSQL, id).
		Scan(&b.ID, &b.CustomerName, &b.Total, &b.Discount, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cart.ErrBillNotFound
		}
		return nil, errors.Wrapf(err, "get bill %d", id)
	}

	items, err := queryItems(ctx, s.pool, billItemsSQL, id)
	if err != nil {
		return nil, err
	}
	b.Items = items
	return &b, nil
}

type cartTx struct {
	tx pgx.Tx
}

func (t cartTx) LockStock(ctx context.Context, id int64) (*stock.Stock, error) {
	rows, err := t.tx.Query(ctx, lockStockSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "lock stock %d", id)
	}
	st, err := pgx.CollectExactlyOneRow(rows, scanStock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, stock.ErrNotFound
		}
		return nil, errors.Wrapf(err, "lock stock %d", id)
	}
	return &st, nil
}

func (t cartTx) AdjustStock(ctx context.Context, id int64, delta int) (int, error) {
	var amount int
	if err := t.tx.QueryRow(ctx, adjustStockSQL, id, delta).Scan(&amount); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, stock.ErrNotFound
		}
		return 0, errors.Wrapf(err, "adjust stock %d", id)
	}
	return amount, nil
}

func (t cartTx) InsertItem(ctx context.Context, item *cart.Item) error {
	var service *string
	if item.ServiceName != "" {
		service = &item.ServiceName
	}
	return t.tx.QueryRow(ctx, insertItemSQL,
		item.CartID, item.StockID, service, item.CustomPrice,
		item.Quantity, item.Subtotal, string(item.Status),
	).Scan(&item.ID, &item.CreatedAt)
}

func (t cartTx) PendingItems(ctx context.Context, cartID string) ([]cart.Item, error) {
	return queryItems(ctx, t.tx, lockPendingSQL, cartID)
}

func (t cartTx) GetPendingItem(ctx context.Context, cartID string, id int64) (*cart.Item, error) {
	items, err := queryItems(ctx, t.tx, getPendingItemSQL, cartID, id)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, cart.ErrItemNotFound
	}
	return &items[0], nil
}

func (t cartTx) DeleteItem(ctx context.Context, id int64) error {
	_, err := t.tx.Exec(ctx, deleteItemSQL, id)
	return err
}

func (t cartTx) InsertBill(ctx context.Context, b *cart.Bill) error {
	return t.tx.QueryRow(ctx, insertBillSQL, b.CustomerName, b.Total, b.Discount, b.CreatedAt).
		Scan(&b.ID)
}

func (t cartTx) ConfirmItems(ctx context.Context, ids []int64, billID int64) (int64, error) {
	tag, err := t.tx.Exec(ctx, confirmItemsSQL, ids, billID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// queryer is satisfied by both *pgxpool.Pool and pgx.Tx.
type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func queryItems(ctx context.Context, q queryer, sql string, args ...any) ([]cart.Item, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query bill items")
	}
	items, err := pgx.CollectRows(rows, scanItem)
	if err != nil {
		return nil, errors.Wrap(err, "scan bill items")
	}
	return items, nil
}

func scanItem(row pgx.CollectableRow) (cart.Item, error) {
	var (
		it        cart.Item
		service   *string
		status    string
		unitPrice decimal.NullDecimal
	)
	err := row.Scan(
		&it.ID, &it.CartID, &it.StockID, &service, &it.CustomPrice,
		&it.Quantity, &it.Subtotal, &status, &it.BillID, &it.CreatedAt,
		&it.DrugID, &it.Name, &unitPrice,
	)
	if service != nil {
		it.ServiceName = *service
	}
	it.Status = cart.Status(status)
	it.UnitPrice = unitPrice.Decimal
	return it, err
}

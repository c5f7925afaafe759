package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/pharmacy-pos/internal/domain/stock"
)

const (
	stockColumns = `stock_id, drug_id, amount, expired, unit_price, created_at, updated_at`

	listStocksSQL = `SELECT ` + stockColumns + ` FROM stocks ORDER BY stock_id`

	listStocksByDrugSQL = `SELECT ` + stockColumns + ` FROM stocks WHERE drug_id = $1 ORDER BY stock_id`

	createStockSQL = `INSERT INTO stocks (drug_id, amount, expired, unit_price)
		VALUES ($1, $2, $3, $4)
		RETURNING stock_id, created_at, updated_at`

	updateStockSQL = `UPDATE stocks SET
		drug_id = $2, amount = $3, expired = $4, unit_price = $5, updated_at = now()
		WHERE stock_id = $1
		RETURNING created_at, updated_at`

	getStockDetailSQL = `SELECT s.stock_id, s.drug_id, s.amount, s.expired, s.unit_price,
		s.created_at, s.updated_at, d.name, d.code, d.drug_type, d.unit_type, d.price
		FROM stocks s
		JOIN drugs d ON d.drug_id = s.drug_id
		WHERE s.stock_id = $1`

	topSellingSQL = `SELECT s.stock_id, s.drug_id, d.name, s.unit_price, s.amount,
		SUM(bi.quantity) AS sold, SUM(bi.subtotal) AS revenue
		FROM bill_items bi
		JOIN stocks s ON s.stock_id = bi.stock_id
		JOIN drugs d ON d.drug_id = s.drug_id
		WHERE bi.status = 'confirmed'
		GROUP BY s.stock_id, d.name
		ORDER BY sold DESC, s.stock_id
		LIMIT $1`
)

var _ stock.Repository = (*StockRepository)(nil)

// StockRepository implements stock.Repository backed by PostgreSQL.
type StockRepository struct {
	pool *pgxpool.Pool
}

// NewStockRepository returns a StockRepository that uses the given pool.
func NewStockRepository(pool *pgxpool.Pool) *StockRepository {
	return &StockRepository{pool: pool}
}

// List returns all lots ordered by id.
func (r *StockRepository) List(ctx context.Context) ([]stock.Stock, error) {
	return r.query(ctx, listStocksSQL)
}

// ListByDrug returns the lots of one drug ordered by id.
func (r *StockRepository) ListByDrug(ctx context.Context, drugID int64) ([]stock.Stock, error) {
	return r.query(ctx, listStocksByDrugSQL, drugID)
}

func (r *StockRepository) query(ctx context.Context, sql string, args ...any) ([]stock.Stock, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list stocks")
	}
	stocks, err := pgx.CollectRows(rows, scanStock)
	if err != nil {
		return nil, errors.Wrap(err, "scan stocks")
	}
	return stocks, nil
}

// Create inserts s and fills its id and timestamps. An unknown drug yields
// stock.ErrDrugNotFound.
func (r *StockRepository) Create(ctx context.Context, s *stock.Stock) error {
	err := r.pool.QueryRow(ctx, createStockSQL, s.DrugID, s.Amount, s.Expired, s.UnitPrice).
		Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return stock.ErrDrugNotFound
		}
		return errors.Wrap(err, "create stock")
	}
	return nil
}

// Update replaces every editable field of s.
func (r *StockRepository) Update(ctx context.Context, s *stock.Stock) error {
	err := r.pool.QueryRow(ctx, updateStockSQL, s.ID, s.DrugID, s.Amount, s.Expired, s.UnitPrice).
		Scan(&s.CreatedAt, &s.UpdatedAt)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return stock.ErrNotFound
	case isForeignKeyViolation(err):
		return stock.ErrDrugNotFound
	default:
		return errors.Wrapf(err, "update stock %d", s.ID)
	}
}

// GetDetail returns a lot joined with its drug.
func (r *StockRepository) GetDetail(ctx context.Context, id int64) (*stock.Detail, error) {
	var d stock.Detail
	err := r.pool.QueryRow(ctx, getStockDetailSQL, id).Scan(
		&d.ID, &d.DrugID, &d.Amount, &d.Expired, &d.UnitPrice, &d.CreatedAt, &d.UpdatedAt,
		&d.DrugName, &d.DrugCode, &d.DrugType, &d.UnitType, &d.DrugPrice,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, stock.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get stock detail %d", id)
	}
	return &d, nil
}

// TopSelling ranks lots by confirmed quantity sold.
func (r *StockRepository) TopSelling(ctx context.Context, limit int) ([]stock.TopSelling, error) {
	if limit < 1 {
		limit = stock.DefaultTopSellingLimit
	}
	rows, err := r.pool.Query(ctx, topSellingSQL, limit)
	if err != nil {
		return nil, errors.Wrap(err, "top selling")
	}
	top, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (stock.TopSelling, error) {
		var t stock.TopSelling
		err := row.Scan(&t.StockID, &t.DrugID, &t.DrugName, &t.UnitPrice, &t.Amount, &t.Sold, &t.Revenue)
		return t, err
	})
	if err != nil {
		return nil, errors.Wrap(err, "scan top selling")
	}
	return top, nil
}

func scanStock(row pgx.CollectableRow) (stock.Stock, error) {
	var s stock.Stock
	err := row.Scan(&s.ID, &s.DrugID, &s.Amount, &s.Expired, &s.UnitPrice, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

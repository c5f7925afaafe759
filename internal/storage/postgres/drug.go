package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/pharmacy-pos/internal/domain/drug"
	"github.com/xenking/pharmacy-pos/internal/domain/stock"
)

const (
	drugColumns = `drug_id, name, code, detail, usage, slang_food, side_effect,
		drug_type, unit_type, price, created_at, updated_at`

	listDrugsSQL = `SELECT ` + drugColumns + ` FROM drugs ORDER BY drug_id`

	getDrugSQL = `SELECT ` + drugColumns + ` FROM drugs WHERE drug_id = $1`

	createDrugSQL = `INSERT INTO drugs
		(name, code, detail, usage, slang_food, side_effect, drug_type, unit_type, price)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING drug_id, created_at, updated_at`

	updateDrugSQL = `UPDATE drugs SET
		name = $2, code = $3, detail = $4, usage = $5, slang_food = $6,
		side_effect = $7, drug_type = $8, unit_type = $9, price = $10, updated_at = now()
		WHERE drug_id = $1
		RETURNING created_at, updated_at`

	deleteDrugSQL = `DELETE FROM drugs WHERE drug_id = $1 RETURNING ` + drugColumns
)

var _ drug.Repository = (*DrugRepository)(nil)

// DrugRepository implements drug.Repository backed by PostgreSQL.
type DrugRepository struct {
	pool *pgxpool.Pool
}

// NewDrugRepository returns a DrugRepository that uses the given pool.
func NewDrugRepository(pool *pgxpool.Pool) *DrugRepository {
	return &DrugRepository{pool: pool}
}

// List returns all drugs ordered by id.
func (r *DrugRepository) List(ctx context.Context) ([]drug.Drug, error) {
	rows, err := r.pool.Query(ctx, listDrugsSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list drugs")
	}
	drugs, err := pgx.CollectRows(rows, scanDrug)
	if err != nil {
		return nil, errors.Wrap(err, "scan drugs")
	}
	return drugs, nil
}

// GetByID returns drug.ErrNotFound when no drug has the given id.
func (r *DrugRepository) GetByID(ctx context.Context, id int64) (*drug.Drug, error) {
	rows, err := r.pool.Query(ctx, getDrugSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get drug %d", id)
	}
	return collectDrug(rows, id)
}

// Create inserts d and fills its id and timestamps.
func (r *DrugRepository) Create(ctx context.Context, d *drug.Drug) error {
	err := r.pool.QueryRow(ctx, createDrugSQL,
		d.Name, d.Code, d.Detail, d.Usage, d.SlangFood, d.SideEffect,
		d.DrugType, d.UnitType, d.Price,
	).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return errors.Wrap(err, "create drug")
	}
	return nil
}

// CreateWithStocks inserts d and its stock lots in one transaction. Either
// the drug and every lot are stored or nothing is.
func (r *DrugRepository) CreateWithStocks(ctx context.Context, d *drug.Drug, lots []stock.Stock) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, createDrugSQL,
			d.Name, d.Code, d.Detail, d.Usage, d.SlangFood, d.SideEffect,
			d.DrugType, d.UnitType, d.Price,
		).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
		if err != nil {
			return errors.Wrap(err, "create drug")
		}
		for i := range lots {
			s := &lots[i]
			s.DrugID = d.ID
			err := tx.QueryRow(ctx, createStockSQL, s.DrugID, s.Amount, s.Expired, s.UnitPrice).
				Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
			if err != nil {
				return errors.Wrapf(err, "create stock %d", i)
			}
		}
		return nil
	})
}

// Update replaces every editable field of d.
func (r *DrugRepository) Update(ctx context.Context, d *drug.Drug) error {
	err := r.pool.QueryRow(ctx, updateDrugSQL, d.ID,
		d.Name, d.Code, d.Detail, d.Usage, d.SlangFood, d.SideEffect,
		d.DrugType, d.UnitType, d.Price,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return drug.ErrNotFound
		}
		return errors.Wrapf(err, "update drug %d", d.ID)
	}
	return nil
}

// Delete removes a drug and returns it. A drug still referenced by stock
// yields drug.ErrInUse.
func (r *DrugRepository) Delete(ctx context.Context, id int64) (*drug.Drug, error) {
	rows, err := r.pool.Query(ctx, deleteDrugSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "delete drug %d", id)
	}
	d, err := collectDrug(rows, id)
	if isForeignKeyViolation(err) {
		return nil, drug.ErrInUse
	}
	return d, err
}

func collectDrug(rows pgx.Rows, id int64) (*drug.Drug, error) {
	d, err := pgx.CollectExactlyOneRow(rows, scanDrug)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, drug.ErrNotFound
		}
		return nil, errors.Wrapf(err, "drug %d", id)
	}
	return &d, nil
}

func scanDrug(row pgx.CollectableRow) (drug.Drug, error) {
	var d drug.Drug
	err := row.Scan(
		&d.ID, &d.Name, &d.Code, &d.Detail, &d.Usage, &d.SlangFood, &d.SideEffect,
		&d.DrugType, &d.UnitType, &d.Price, &d.CreatedAt, &d.UpdatedAt,
	)
	return d, err
}

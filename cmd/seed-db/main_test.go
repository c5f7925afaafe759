package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/pharmacy-pos/internal/domain/drug"
	"github.com/xenking/pharmacy-pos/internal/domain/stock"
)

// memCatalog stores a drug and its lots only when every lot is accepted,
// mirroring the transactional repository.
type memCatalog struct {
	drugs   []drug.Drug
	stocks  []stock.Stock
	failLot bool
}

func (m *memCatalog) List(context.Context) ([]drug.Drug, error) { return m.drugs, nil }

func (m *memCatalog) CreateWithStocks(_ context.Context, d *drug.Drug, lots []stock.Stock) error {
	if m.failLot && len(lots) > 0 {
		return errors.New("insert stock: connection reset")
	}
	d.ID = int64(len(m.drugs) + 1)
	m.drugs = append(m.drugs, *d)
	for _, s := range lots {
		s.ID = int64(len(m.stocks) + 1)
		s.DrugID = d.ID
		m.stocks = append(m.stocks, s)
	}
	return nil
}

func TestReadCatalog_Gzip(t *testing.T) {
	raw, err := os.ReadFile("../../db/seed/catalog.json")
	require.NoError(t, err)

	var buf bytes.Buffer
	gz := pgzip.NewWriter(&buf)
	_, err = gz.Write(raw)
	require.NoError(t, err)
	require.NoError(t, gz.Close())

	path := filepath.Join(t.TempDir(), "catalog.json.gz")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))

	plain, err := readCatalog("../../db/seed/catalog.json")
	require.NoError(t, err)
	packed, err := readCatalog(path)
	require.NoError(t, err)
	assert.Equal(t, plain, packed)
	assert.NotEmpty(t, plain)
}

func TestSeed_Idempotent(t *testing.T) {
	catalog, err := readCatalog("../../db/seed/catalog.json")
	require.NoError(t, err)

	store := &memCatalog{}
	require.NoError(t, seed(context.Background(), store, catalog))
	require.Len(t, store.drugs, len(catalog))
	assert.Len(t, store.stocks, 4)
	assert.Equal(t, store.drugs[0].ID, store.stocks[0].DrugID)

	require.NoError(t, seed(context.Background(), store, catalog))
	assert.Len(t, store.drugs, len(catalog))
	assert.Len(t, store.stocks, 4)
}

func TestSeed_InvalidLot(t *testing.T) {
	catalog := []drugJSON{{
		Name: "X", Code: "X1", DrugType: "tablet", UnitType: "box",
		Stocks: []lotJSON{{Amount: 1, Expired: "next year"}},
	}}
	store := &memCatalog{}
	err := seed(context.Background(), store, catalog)
	require.Error(t, err)
	assert.Empty(t, store.drugs)
}

func TestSeed_FailedLotIsRetried(t *testing.T) {
	catalog, err := readCatalog("../../db/seed/catalog.json")
	require.NoError(t, err)

	store := &memCatalog{failLot: true}
	require.Error(t, seed(context.Background(), store, catalog))
	assert.Empty(t, store.drugs)

	store.failLot = false
	require.NoError(t, seed(context.Background(), store, catalog))
	assert.Len(t, store.drugs, len(catalog))
	assert.Len(t, store.stocks, 4)
}

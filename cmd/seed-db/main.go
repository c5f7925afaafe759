package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/joho/godotenv"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"

	"github.com/xenking/pharmacy-pos/internal/domain/drug"
	"github.com/xenking/pharmacy-pos/internal/domain/stock"
	"github.com/xenking/pharmacy-pos/internal/storage/postgres"
)

type lotJSON struct {
	Amount    int             `json:"amount"`
	Expired   string          `json:"expired"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type drugJSON struct {
	Name       string          `json:"name"`
	Code       string          `json:"code"`
	Detail     string          `json:"detail"`
	Usage      string          `json:"usage"`
	SlangFood  string          `json:"slang_food"`
	SideEffect string          `json:"side_effect"`
	DrugType   string          `json:"drug_type"`
	UnitType   string          `json:"unit_type"`
	Price      decimal.Decimal `json:"price"`
	Stocks     []lotJSON       `json:"stocks"`
}

func main() {
	var (
		databaseURL string
		catalogFile string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&catalogFile, "catalog-file", "db/seed/catalog.json", "path to catalog JSON file, optionally gzip-compressed (.gz)")
	flag.Parse()

	_ = godotenv.Load()
	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, catalogFile); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, catalogFile string) error {
	catalog, err := readCatalog(catalogFile)
	if err != nil {
		return errors.Wrap(err, "read catalog")
	}

	slog.Info("connecting to database")
	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")
	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	return seed(ctx, postgres.NewDrugRepository(pool), catalog)
}

func readCatalog(path string) ([]drugJSON, error) {
	slog.Info("reading catalog file", slog.String("path", path))

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open")
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrap(err, "gzip")
		}
		defer gz.Close()
		r = gz
	}

	var catalog []drugJSON
	if err := json.NewDecoder(r).Decode(&catalog); err != nil {
		return nil, errors.Wrap(err, "parse catalog JSON")
	}
	return catalog, nil
}

// catalogStore writes a drug and its lots atomically.
type catalogStore interface {
	List(ctx context.Context) ([]drug.Drug, error)
	CreateWithStocks(ctx context.Context, d *drug.Drug, lots []stock.Stock) error
}

// seed inserts drugs whose code is not in the catalog yet, together with
// their stock lots. Each drug is stored with its lots in one transaction, so
// a failed run leaves nothing behind and running it again is safe.
func seed(ctx context.Context, store catalogStore, catalog []drugJSON) error {
	existing, err := store.List(ctx)
	if err != nil {
		return errors.Wrap(err, "list drugs")
	}
	known := make(map[string]bool, len(existing))
	for _, d := range existing {
		known[d.Code] = true
	}

	for _, entry := range catalog {
		if known[entry.Code] {
			slog.Info("skipping existing drug", slog.String("code", entry.Code))
			continue
		}
		d := drug.Drug{
			Name:       entry.Name,
			Code:       entry.Code,
			Detail:     entry.Detail,
			Usage:      entry.Usage,
			SlangFood:  entry.SlangFood,
			SideEffect: entry.SideEffect,
			DrugType:   entry.DrugType,
			UnitType:   entry.UnitType,
			Price:      entry.Price,
		}
		if err := d.Validate(); err != nil {
			return errors.Wrapf(err, "drug %s", entry.Code)
		}

		lots := make([]stock.Stock, len(entry.Stocks))
		for i, lot := range entry.Stocks {
			expired, err := time.Parse("2006-01-02", lot.Expired)
			if err != nil {
				return errors.Wrapf(err, "drug %s: expired", entry.Code)
			}
			// CreateWithStocks replaces the placeholder drug id.
			lots[i] = stock.Stock{DrugID: 1, Amount: lot.Amount, Expired: expired, UnitPrice: lot.UnitPrice}
			if err := lots[i].Validate(); err != nil {
				return errors.Wrapf(err, "drug %s: stock", entry.Code)
			}
		}

		if err := store.CreateWithStocks(ctx, &d, lots); err != nil {
			return errors.Wrapf(err, "create drug %s", entry.Code)
		}
		known[d.Code] = true

		slog.Info("created drug",
			slog.String("code", d.Code),
			slog.String("name", d.Name),
			slog.Int("stocks", len(lots)),
		)
	}
	return nil
}

package report

import (
	"context"
	"sort"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/pharmacy-pos/internal/domain/paging"
	"github.com/xenking/pharmacy-pos/internal/domain/validate"
)

// Service builds reports from the Repository.
type Service struct {
	repo     Repository
	pageSize int
}

// NewService creates a report Service. A non-positive pageSize falls back
// to paging.DefaultSize.
func NewService(repo Repository, pageSize int) *Service {
	if pageSize < 1 {
		pageSize = paging.DefaultSize
	}
	return &Service{repo: repo, pageSize: pageSize}
}

// History returns one page of bills, newest first. The search term matches
// the bill id, the creation timestamp or the customer name, ignoring case.
func (s *Service) History(ctx context.Context, page int, search string) (*HistoryPage, error) {
	p := paging.New(page, s.pageSize)
	search = strings.ToLower(strings.TrimSpace(search))

	bills, err := s.repo.History(ctx, search, p.Size, p.Offset())
	if err != nil {
		return nil, errors.Wrap(err, "list history")
	}
	total, err := s.repo.CountHistory(ctx, search)
	if err != nil {
		return nil, errors.Wrap(err, "count history")
	}

	return &HistoryPage{
		Bills:      bills,
		TotalRows:  total,
		TotalPages: p.TotalPages(total),
	}, nil
}

// Dashboard reports monthly income, expense and profit for year along with
// yearly and all-time totals. Months with neither sales nor expenses are
// omitted; a year without data yields zero totals.
func (s *Service) Dashboard(ctx context.Context, year int) (*Dashboard, error) {
	if year < 1 || year > 9999 {
		return nil, validate.Invalid("year", "must be between 1 and 9999")
	}

	var (
		sales, expenses       []MonthAmount
		allSales, allExpenses decimal.Decimal
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if sales, err = s.repo.MonthlySales(ctx, year); err != nil {
			return errors.Wrap(err, "monthly sales")
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if expenses, err = s.repo.MonthlyExpenses(ctx, year); err != nil {
			return errors.Wrap(err, "monthly expenses")
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if allSales, err = s.repo.TotalSales(ctx); err != nil {
			return errors.Wrap(err, "total sales")
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if allExpenses, err = s.repo.TotalExpenses(ctx); err != nil {
			return errors.Wrap(err, "total expenses")
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	d := &Dashboard{
		Year:                  year,
		Months:                mergeMonths(sales, expenses),
		TotalSalesAllYears:    allSales,
		TotalExpensesAllYears: allExpenses,
		NetProfitAllYears:     allSales.Sub(allExpenses),
	}
	for _, m := range d.Months {
		d.TotalSales = d.TotalSales.Add(m.Income)
		d.TotalExpenses = d.TotalExpenses.Add(m.Expense)
	}
	d.NetProfit = d.TotalSales.Sub(d.TotalExpenses)
	return d, nil
}

func mergeMonths(sales, expenses []MonthAmount) []Month {
	byMonth := make(map[int]*Month, 12)
	get := func(month int) *Month {
		m, ok := byMonth[month]
		if !ok {
			m = &Month{Month: month}
			byMonth[month] = m
		}
		return m
	}
	for _, a := range sales {
		m := get(a.Month)
		m.Income = m.Income.Add(a.Amount)
	}
	for _, a := range expenses {
		m := get(a.Month)
		m.Expense = m.Expense.Add(a.Amount)
	}

	months := make([]Month, 0, len(byMonth))
	for _, m := range byMonth {
		m.Profit = m.Income.Sub(m.Expense)
		months = append(months, *m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Month < months[j].Month })
	return months
}

// BillInfo returns a bill with its treatment lines.
func (s *Service) BillInfo(ctx context.Context, id int64) (*BillInfo, error) {
	info, err := s.repo.BillInfo(ctx, id)
	if err != nil {
		if errors.Is(err, ErrBillNotFound) {
			return nil, err
		}
		return nil, errors.Wrap(err, "get bill info")
	}
	return info, nil
}

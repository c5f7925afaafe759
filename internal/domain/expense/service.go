package expense

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/pharmacy-pos/internal/domain/paging"
)

// Page is a page of expenses, newest first.
type Page struct {
	Expenses   []Expense
	TotalRows  int64
	TotalPages int
}

// Service wraps the Repository with defaults and paging.
type Service struct {
	repo     Repository
	pageSize int
	now      func() time.Time
}

// NewService creates an expense Service.
func NewService(repo Repository, pageSize int) *Service {
	if pageSize < 1 {
		pageSize = paging.DefaultSize
	}
	return &Service{repo: repo, pageSize: pageSize, now: time.Now}
}

// fill sets the defaults for omitted fields.
func (s *Service) fill(e *Expense) {
	if e.DateTime.IsZero() {
		e.DateTime = s.now()
	}
	if e.TotalPrice.IsZero() {
		e.TotalPrice = e.Price.Mul(decimal.NewFromInt(int64(e.Quantity))).Round(2)
	}
}

// Create records a new expense. The order id is always assigned by the store.
func (s *Service) Create(ctx context.Context, e *Expense) error {
	s.fill(e)
	if err := e.Validate(); err != nil {
		return err
	}
	e.OrderID = ""
	if err := s.repo.Create(ctx, e); err != nil {
		return errors.Wrap(err, "create expense")
	}
	return nil
}

// Get returns an expense by id.
func (s *Service) Get(ctx context.Context, id int64) (*Expense, error) {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, wrap(err, "get expense")
	}
	return e, nil
}

// Update replaces an expense. An empty order id keeps the stored one.
func (s *Service) Update(ctx context.Context, e *Expense) error {
	s.fill(e)
	if err := e.Validate(); err != nil {
		return err
	}
	if e.OrderID == "" {
		cur, err := s.repo.GetByID(ctx, e.ID)
		if err != nil {
			return wrap(err, "get expense")
		}
		e.OrderID = cur.OrderID
	}
	if err := s.repo.Update(ctx, e); err != nil {
		return wrap(err, "update expense")
	}
	return nil
}

// Delete removes an expense.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return wrap(err, "delete expense")
	}
	return nil
}

// List returns a page of expenses whose name or order id contains search.
func (s *Service) List(ctx context.Context, page int, search string) (*Page, error) {
	p := paging.New(page, s.pageSize)
	search = strings.ToLower(strings.TrimSpace(search))

	rows, err := s.repo.List(ctx, search, p.Size, p.Offset())
	if err != nil {
		return nil, errors.Wrap(err, "list expenses")
	}
	total, err := s.repo.Count(ctx, search)
	if err != nil {
		return nil, errors.Wrap(err, "count expenses")
	}
	return &Page{Expenses: rows, TotalRows: total, TotalPages: p.TotalPages(total)}, nil
}

func wrap(err error, msg string) error {
	if errors.Is(err, ErrNotFound) {
		return err
	}
	return errors.Wrap(err, msg)
}

// Package handler exposes the pharmacy services over HTTP/JSON with chi.
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xenking/pharmacy-pos/internal/domain/cart"
	"github.com/xenking/pharmacy-pos/internal/domain/drug"
	"github.com/xenking/pharmacy-pos/internal/domain/expense"
	"github.com/xenking/pharmacy-pos/internal/domain/report"
	"github.com/xenking/pharmacy-pos/internal/domain/stock"
)

// CartHeader selects the cart a bill request operates on.
const CartHeader = "X-Cart-ID"

// CartService is the cart workflow used by the bill endpoints.
type CartService interface {
	NewCart() string
	Add(ctx context.Context, cartID string, lines []cart.Line) ([]cart.Item, error)
	Pending(ctx context.Context, cartID string) ([]cart.Item, error)
	Remove(ctx context.Context, cartID string, itemID int64) (*cart.Removal, error)
	Confirm(ctx context.Context, cartID string, req cart.ConfirmRequest) (*cart.Bill, error)
}

// ReportService serves history, dashboard and bill details.
type ReportService interface {
	History(ctx context.Context, page int, search string) (*report.HistoryPage, error)
	Dashboard(ctx context.Context, year int) (*report.Dashboard, error)
	BillInfo(ctx context.Context, id int64) (*report.BillInfo, error)
}

// ExpenseService manages the expense ledger.
type ExpenseService interface {
	Create(ctx context.Context, e *expense.Expense) error
	Get(ctx context.Context, id int64) (*expense.Expense, error)
	Update(ctx context.Context, e *expense.Expense) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, page int, search string) (*expense.Page, error)
}

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// RequireCartSession rejects bill requests without a cart header instead
	// of falling back to the shared default cart.
	RequireCartSession bool
}

// Handler serves the REST API.
type Handler struct {
	drugs    drug.Repository
	stocks   stock.Repository
	carts    CartService
	reports  ReportService
	expenses ExpenseService

	requireCart bool
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	cfg Config,
	drugs drug.Repository,
	stocks stock.Repository,
	carts CartService,
	reports ReportService,
	expenses ExpenseService,
) *Handler {
	return &Handler{
		drugs:       drugs,
		stocks:      stocks,
		carts:       carts,
		reports:     reports,
		expenses:    expenses,
		requireCart: cfg.RequireCartSession,
	}
}

// RegisterRoutes mounts every endpoint on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/drugs", func(r chi.Router) {
		r.Get("/", h.listDrugs)
		r.Post("/", h.createDrug)
		r.Get("/{id}", h.getDrug)
		r.Put("/{id}", h.updateDrug)
		r.Delete("/{id}", h.deleteDrug)
	})

	r.Route("/stocks", func(r chi.Router) {
		r.Get("/", h.listStocks)
		r.Post("/", h.createStock)
		r.Put("/{id}", h.updateStock)
		r.Get("/drug/{drugID}", h.listStocksByDrug)
		r.Get("/drugs/{stockID}", h.getStockDetail)
		r.Get("/top-selling", h.topSelling)
	})

	r.Route("/bill", func(r chi.Router) {
		r.Post("/cart", h.newCart)
		r.Post("/create", h.addToCart)
		r.Get("/list", h.listCart)
		r.Delete("/remove/{id}", h.removeFromCart)
		r.Post("/confirm", h.confirmCart)
		r.Get("/history", h.history)
		r.Get("/dashboard/{year}", h.dashboard)
	})
	r.Get("/sell/info/{billID}", h.billInfo)

	r.Route("/expense", func(r chi.Router) {
		r.Get("/{page}", h.listExpenses)
		r.Get("/{page}/{searchQuery}", h.listExpenses)
		r.Get("/item/{id}", h.getExpense)
		r.Post("/create", h.createExpense)
		r.Put("/update/{id}", h.updateExpense)
		r.Delete("/remove/{id}", h.deleteExpense)
	})
}

// Router returns a chi router with every endpoint mounted under prefix. mws
// run inside the router, so they can see the matched route pattern.
func (h *Handler) Router(prefix string, mws ...func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(mws...)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	if prefix == "" || prefix == "/" {
		h.RegisterRoutes(r)
		return r
	}
	r.Route(prefix, h.RegisterRoutes)
	return r
}

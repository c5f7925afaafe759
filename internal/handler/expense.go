package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/xenking/pharmacy-pos/internal/domain/expense"
)

type expenseRequest struct {
	DateTime   *time.Time      `json:"datetime"`
	OrderID    string          `json:"orderid"`
	Quantity   int             `json:"quantity"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	TotalPrice decimal.Decimal `json:"totalprice"`
}

func (req expenseRequest) toDomain() *expense.Expense {
	e := &expense.Expense{
		OrderID:    req.OrderID,
		Quantity:   req.Quantity,
		Name:       req.Name,
		Price:      req.Price,
		TotalPrice: req.TotalPrice,
	}
	if req.DateTime != nil {
		e.DateTime = *req.DateTime
	}
	return e
}

type expenseResponse struct {
	ID         int64     `json:"id"`
	DateTime   time.Time `json:"datetime"`
	OrderID    string    `json:"orderid"`
	Quantity   int       `json:"quantity"`
	Name       string    `json:"name"`
	Price      string    `json:"price"`
	TotalPrice string    `json:"totalprice"`
}

func toExpenseResponse(e *expense.Expense) expenseResponse {
	return expenseResponse{
		ID:         e.ID,
		DateTime:   e.DateTime,
		OrderID:    e.OrderID,
		Quantity:   e.Quantity,
		Name:       e.Name,
		Price:      money(e.Price),
		TotalPrice: money(e.TotalPrice),
	}
}

type expensePageResponse struct {
	Expenses  []expenseResponse `json:"expenses"`
	TotalRows int64             `json:"totalRows"`
	TotalPage int               `json:"totalPage"`
}

func (h *Handler) listExpenses(w http.ResponseWriter, r *http.Request) {
	page, err := queryPage(chi.URLParam(r, "page"))
	if err != nil {
		fail(w, r, err)
		return
	}
	p, err := h.expenses.List(r.Context(), page, chi.URLParam(r, "searchQuery"))
	if err != nil {
		fail(w, r, err)
		return
	}
	resp := expensePageResponse{
		Expenses:  make([]expenseResponse, len(p.Expenses)),
		TotalRows: p.TotalRows,
		TotalPage: p.TotalPages,
	}
	for i := range p.Expenses {
		resp.Expenses[i] = toExpenseResponse(&p.Expenses[i])
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) getExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	e, err := h.expenses.Get(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toExpenseResponse(e))
}

func (h *Handler) createExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, r, err)
		return
	}
	e := req.toDomain()
	if err := h.expenses.Create(r.Context(), e); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toExpenseResponse(e))
}

func (h *Handler) updateExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	var req expenseRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, r, err)
		return
	}
	e := req.toDomain()
	e.ID = id
	if err := h.expenses.Update(r.Context(), e); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toExpenseResponse(e))
}

func (h *Handler) deleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := h.expenses.Delete(r.Context(), id); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Expense deleted successfully"})
}

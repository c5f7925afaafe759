package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/pharmacy-pos/internal/domain/cart"
	"github.com/xenking/pharmacy-pos/internal/domain/drug"
	"github.com/xenking/pharmacy-pos/internal/domain/expense"
	"github.com/xenking/pharmacy-pos/internal/domain/report"
	"github.com/xenking/pharmacy-pos/internal/domain/stock"
	"github.com/xenking/pharmacy-pos/internal/domain/validate"
)

const dateLayout = "2006-01-02"

type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// requestError is a malformed request detected before reaching a service.
type requestError struct {
	msg string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(msg string) error {
	return &requestError{msg: msg}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Code: status, Message: msg})
}

// fail maps err to a status code and writes the error body. Server errors
// are logged with the request-scoped logger; the message is passed through
// unchanged.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		zctx.From(r.Context()).Error("Request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	writeError(w, status, err.Error())
}

func statusOf(err error) int {
	var (
		reqErr     *requestError
		valErr     *validate.Error
		stockErr   *cart.InsufficientStockError
		discountEr *cart.InvalidDiscountError
	)
	switch {
	case errors.As(err, &reqErr), errors.As(err, &valErr):
		return http.StatusBadRequest
	case errors.As(err, &stockErr),
		errors.Is(err, cart.ErrEmptyCart),
		errors.Is(err, cart.ErrEmptyItems):
		return http.StatusBadRequest
	case errors.As(err, &discountEr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, drug.ErrNotFound),
		errors.Is(err, stock.ErrNotFound),
		errors.Is(err, stock.ErrDrugNotFound),
		errors.Is(err, cart.ErrItemNotFound),
		errors.Is(err, cart.ErrBillNotFound),
		errors.Is(err, report.ErrBillNotFound),
		errors.Is(err, expense.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, cart.ErrCartChanged),
		errors.Is(err, drug.ErrInUse):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return badRequest("invalid request body: " + err.Error())
	}
	return nil
}

// decodeOptionalJSON is decodeJSON that leaves v untouched on an empty body.
func decodeOptionalJSON(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err != nil && !errors.Is(err, io.EOF) {
		return badRequest("invalid request body: " + err.Error())
	}
	return nil
}

func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest("invalid " + name + ": " + raw)
	}
	return id, nil
}

// cartID returns the cart selected by CartHeader. An empty result selects
// the shared default cart.
func (h *Handler) cartID(r *http.Request) (string, error) {
	id := strings.TrimSpace(r.Header.Get(CartHeader))
	if id == "" && h.requireCart {
		return "", badRequest(CartHeader + " header is required")
	}
	if len(id) > 64 {
		return "", badRequest(CartHeader + " header is too long")
	}
	return id, nil
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func optionalMoney(d decimal.NullDecimal) *string {
	if !d.Valid {
		return nil
	}
	s := money(d.Decimal)
	return &s
}

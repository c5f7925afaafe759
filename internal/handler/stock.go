package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/pharmacy-pos/internal/domain/stock"
)

type stockRequest struct {
	DrugID    int64           `json:"drug_id"`
	Amount    int             `json:"amount"`
	Expired   string          `json:"expired"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

func (req stockRequest) toDomain() (*stock.Stock, error) {
	s := &stock.Stock{
		DrugID:    req.DrugID,
		Amount:    req.Amount,
		UnitPrice: req.UnitPrice,
	}
	if req.Expired != "" {
		expired, err := parseDate(req.Expired)
		if err != nil {
			return nil, badRequest("invalid expired: " + req.Expired)
		}
		s.Expired = expired
	}
	return s, nil
}

// parseDate accepts a plain date or an RFC 3339 timestamp.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

type stockResponse struct {
	ID        int64     `json:"stock_id"`
	DrugID    int64     `json:"drug_id"`
	Amount    int       `json:"amount"`
	Expired   string    `json:"expired"`
	UnitPrice string    `json:"unit_price"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toStockResponse(s *stock.Stock) stockResponse {
	return stockResponse{
		ID:        s.ID,
		DrugID:    s.DrugID,
		Amount:    s.Amount,
		Expired:   s.Expired.Format(dateLayout),
		UnitPrice: money(s.UnitPrice),
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

type stockDetailResponse struct {
	stockResponse
	DrugName  string `json:"drug_name"`
	Code      string `json:"code"`
	DrugType  string `json:"drug_type"`
	UnitType  string `json:"unit_type"`
	DrugPrice string `json:"price"`
}

type topSellingResponse struct {
	StockID   int64  `json:"stock_id"`
	DrugID    int64  `json:"drug_id"`
	DrugName  string `json:"drug_name"`
	UnitPrice string `json:"unit_price"`
	Amount    int    `json:"amount"`
	Sold      int64  `json:"total_sold"`
	Revenue   string `json:"total_revenue"`
}

func toStockList(stocks []stock.Stock) []stockResponse {
	resp := make([]stockResponse, len(stocks))
	for i := range stocks {
		resp[i] = toStockResponse(&stocks[i])
	}
	return resp
}

func (h *Handler) listStocks(w http.ResponseWriter, r *http.Request) {
	stocks, err := h.stocks.List(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toStockList(stocks))
}

func (h *Handler) createStock(w http.ResponseWriter, r *http.Request) {
	var req stockRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, r, err)
		return
	}
	s, err := req.toDomain()
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := s.Validate(); err != nil {
		fail(w, r, err)
		return
	}
	if err := h.stocks.Create(r.Context(), s); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toStockResponse(s))
}

func (h *Handler) updateStock(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	var req stockRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, r, err)
		return
	}
	s, err := req.toDomain()
	if err != nil {
		fail(w, r, err)
		return
	}
	s.ID = id
	if err := s.Validate(); err != nil {
		fail(w, r, err)
		return
	}
	if err := h.stocks.Update(r.Context(), s); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toStockResponse(s))
}

func (h *Handler) listStocksByDrug(w http.ResponseWriter, r *http.Request) {
	drugID, err := pathID(r, "drugID")
	if err != nil {
		fail(w, r, err)
		return
	}
	stocks, err := h.stocks.ListByDrug(r.Context(), drugID)
	if err != nil {
		fail(w, r, err)
		return
	}
	if len(stocks) == 0 {
		writeError(w, http.StatusNotFound, "no stocks found for this drug")
		return
	}
	writeJSON(w, http.StatusOK, toStockList(stocks))
}

func (h *Handler) getStockDetail(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "stockID")
	if err != nil {
		fail(w, r, err)
		return
	}
	d, err := h.stocks.GetDetail(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stockDetailResponse{
		stockResponse: toStockResponse(&d.Stock),
		DrugName:      d.DrugName,
		Code:          d.DrugCode,
		DrugType:      d.DrugType,
		UnitType:      d.UnitType,
		DrugPrice:     money(d.DrugPrice),
	})
}

func (h *Handler) topSelling(w http.ResponseWriter, r *http.Request) {
	limit := stock.DefaultTopSellingLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			fail(w, r, badRequest("invalid limit: "+v))
			return
		}
		limit = n
	}
	top, err := h.stocks.TopSelling(r.Context(), limit)
	if err != nil {
		fail(w, r, err)
		return
	}
	resp := make([]topSellingResponse, len(top))
	for i, t := range top {
		resp[i] = topSellingResponse{
			StockID:   t.StockID,
			DrugID:    t.DrugID,
			DrugName:  t.DrugName,
			UnitPrice: money(t.UnitPrice),
			Amount:    t.Amount,
			Sold:      t.Sold,
			Revenue:   money(t.Revenue),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

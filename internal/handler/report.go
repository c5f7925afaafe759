package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/xenking/pharmacy-pos/internal/domain/paging"
	"github.com/xenking/pharmacy-pos/internal/domain/report"
)

type billSummaryResponse struct {
	ID           int64     `json:"bill_id"`
	CustomerName string    `json:"customer_name"`
	Total        string    `json:"total_amount"`
	CreatedAt    time.Time `json:"created_at"`
	ItemCount    int       `json:"item_count"`
}

type historyResponse struct {
	Bills     []billSummaryResponse `json:"bills"`
	TotalRows int64                 `json:"totalRows"`
	TotalPage int                   `json:"totalPage"`
}

type monthResponse struct {
	Month   int    `json:"month"`
	Income  string `json:"income"`
	Expense string `json:"expense"`
	Profit  string `json:"profit"`
}

type dashboardResponse struct {
	Year                  int             `json:"year"`
	MonthlyData           []monthResponse `json:"monthlyData"`
	TotalSales            string          `json:"totalSales"`
	TotalExpenses         string          `json:"totalExpenses"`
	NetProfit             string          `json:"netProfit"`
	TotalSalesAllYears    string          `json:"totalSalesAllYears"`
	TotalExpensesAllYears string          `json:"totalExpensesAllYears"`
	NetProfitAllYears     string          `json:"netProfitAllYears"`
}

type treatmentResponse struct {
	StockID   *int64 `json:"stock_id"`
	DrugName  string `json:"drug_name"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	Subtotal  string `json:"subtotal"`
}

type billInfoResponse struct {
	ID           int64               `json:"bill_id"`
	CustomerName string              `json:"customer_name"`
	Total        string              `json:"total_amount"`
	Discount     string              `json:"discount"`
	CreatedAt    time.Time           `json:"created_at"`
	Treatments   []treatmentResponse `json:"treatments"`
}

// queryPage parses an optional 1-based page number.
func queryPage(raw string) (int, error) {
	if raw == "" {
		return 1, nil
	}
	page, err := strconv.Atoi(raw)
	if err != nil || page > paging.MaxNumber {
		return 0, badRequest("invalid page: " + raw)
	}
	return page, nil
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := queryPage(q.Get("page"))
	if err != nil {
		fail(w, r, err)
		return
	}
	hist, err := h.reports.History(r.Context(), page, q.Get("searchQuery"))
	if err != nil {
		fail(w, r, err)
		return
	}
	resp := historyResponse{
		Bills:     make([]billSummaryResponse, len(hist.Bills)),
		TotalRows: hist.TotalRows,
		TotalPage: hist.TotalPages,
	}
	for i, b := range hist.Bills {
		resp.Bills[i] = billSummaryResponse{
			ID:           b.ID,
			CustomerName: b.CustomerName,
			Total:        money(b.Total),
			CreatedAt:    b.CreatedAt,
			ItemCount:    b.ItemCount,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "year")
	year, err := strconv.Atoi(raw)
	if err != nil {
		fail(w, r, badRequest("invalid year: "+raw))
		return
	}
	d, err := h.reports.Dashboard(r.Context(), year)
	if err != nil {
		fail(w, r, err)
		return
	}
	resp := dashboardResponse{
		Year:                  d.Year,
		MonthlyData:           make([]monthResponse, len(d.Months)),
		TotalSales:            money(d.TotalSales),
		TotalExpenses:         money(d.TotalExpenses),
		NetProfit:             money(d.NetProfit),
		TotalSalesAllYears:    money(d.TotalSalesAllYears),
		TotalExpensesAllYears: money(d.TotalExpensesAllYears),
		NetProfitAllYears:     money(d.NetProfitAllYears),
	}
	for i, m := range d.Months {
		resp.MonthlyData[i] = monthResponse{
			Month:   m.Month,
			Income:  money(m.Income),
			Expense: money(m.Expense),
			Profit:  money(m.Profit),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) billInfo(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "billID")
	if err != nil {
		fail(w, r, err)
		return
	}
	info, err := h.reports.BillInfo(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBillInfoResponse(info))
}

func toBillInfoResponse(info *report.BillInfo) billInfoResponse {
	resp := billInfoResponse{
		ID:           info.ID,
		CustomerName: info.CustomerName,
		Total:        money(info.Total),
		Discount:     money(info.Discount),
		CreatedAt:    info.CreatedAt,
		Treatments:   make([]treatmentResponse, len(info.Treatments)),
	}
	for i, t := range info.Treatments {
		resp.Treatments[i] = treatmentResponse{
			StockID:   t.StockID,
			DrugName:  t.Name,
			Quantity:  t.Quantity,
			UnitPrice: money(t.UnitPrice),
			Subtotal:  money(t.Subtotal),
		}
	}
	return resp
}

package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/pharmacy-pos/internal/domain/cart"
	"github.com/xenking/pharmacy-pos/internal/domain/validate"
)

// lineRequest is a cart line as sent by clients. The presence of Service
// selects a service line; otherwise StockID selects a product line. A line
// carrying both is rejected.
type lineRequest struct {
	StockID     *int64           `json:"stock_id"`
	Quantity    int              `json:"quantity"`
	Service     *string          `json:"service"`
	CustomPrice *decimal.Decimal `json:"custom_price"`
	Price       *decimal.Decimal `json:"price"`
}

func (l lineRequest) toLine() (cart.Line, error) {
	if l.Service != nil {
		if l.StockID != nil {
			return nil, validate.Invalid("service", "cannot be combined with stock_id")
		}
		price := l.CustomPrice
		if price == nil {
			price = l.Price
		}
		if price == nil {
			return nil, validate.Required("custom_price")
		}
		return cart.ServiceLine{Name: *l.Service, Price: *price, Quantity: l.Quantity}, nil
	}
	if l.StockID == nil {
		return nil, validate.Required("stock_id")
	}
	return cart.ProductLine{StockID: *l.StockID, Quantity: l.Quantity}, nil
}

type addToCartRequest struct {
	Items []lineRequest `json:"items"`
}

type confirmRequest struct {
	Discount     decimal.Decimal `json:"discount"`
	CustomerName string          `json:"customer_name"`
}

type itemResponse struct {
	ID          int64   `json:"bill_item_id"`
	StockID     *int64  `json:"stock_id"`
	DrugID      *int64  `json:"drug_id"`
	DrugName    string  `json:"drug_name"`
	Service     *string `json:"service"`
	CustomPrice *string `json:"custom_price"`
	Quantity    int     `json:"quantity"`
	UnitPrice   string  `json:"unit_price"`
	Subtotal    string  `json:"subtotal"`
	Status      string  `json:"status"`
	BillID      *int64  `json:"bill_id"`
}

func toItemResponse(it *cart.Item) itemResponse {
	resp := itemResponse{
		ID:          it.ID,
		StockID:     it.StockID,
		DrugID:      it.DrugID,
		DrugName:    it.Name,
		CustomPrice: optionalMoney(it.CustomPrice),
		Quantity:    it.Quantity,
		UnitPrice:   money(it.UnitPrice),
		Subtotal:    money(it.Subtotal),
		Status:      string(it.Status),
		BillID:      it.BillID,
	}
	if it.IsService() {
		name := it.ServiceName
		resp.Service = &name
	}
	return resp
}

func toItemList(items []cart.Item) []itemResponse {
	resp := make([]itemResponse, len(items))
	for i := range items {
		resp[i] = toItemResponse(&items[i])
	}
	return resp
}

type itemsResponse struct {
	Message string         `json:"message"`
	Items   []itemResponse `json:"items"`
}

type removeResponse struct {
	Message     string       `json:"message"`
	Item        itemResponse `json:"item"`
	StockAmount *int         `json:"stock_amount"`
}

type billResponse struct {
	ID           int64          `json:"bill_id"`
	CustomerName string         `json:"customer_name"`
	Total        string         `json:"total_amount"`
	Discount     string         `json:"discount"`
	CreatedAt    time.Time      `json:"created_at"`
	Items        []itemResponse `json:"items"`
}

type confirmResponse struct {
	Message string       `json:"message"`
	Bill    billResponse `json:"bill"`
}

type newCartResponse struct {
	CartID string `json:"cart_id"`
}

func (h *Handler) newCart(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusCreated, newCartResponse{CartID: h.carts.NewCart()})
}

func (h *Handler) addToCart(w http.ResponseWriter, r *http.Request) {
	cartID, err := h.cartID(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	var req addToCartRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, r, err)
		return
	}
	lines := make([]cart.Line, len(req.Items))
	for i, it := range req.Items {
		if lines[i], err = it.toLine(); err != nil {
			fail(w, r, err)
			return
		}
	}

	items, err := h.carts.Add(r.Context(), cartID, lines)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, itemsResponse{
		Message: "Bill items added successfully",
		Items:   toItemList(items),
	})
}

func (h *Handler) listCart(w http.ResponseWriter, r *http.Request) {
	cartID, err := h.cartID(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	items, err := h.carts.Pending(r.Context(), cartID)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toItemList(items))
}

func (h *Handler) removeFromCart(w http.ResponseWriter, r *http.Request) {
	cartID, err := h.cartID(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	removal, err := h.carts.Remove(r.Context(), cartID, id)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, removeResponse{
		Message:     fmt.Sprintf("Bill item %d removed and stock updated", id),
		Item:        toItemResponse(&removal.Item),
		StockAmount: removal.StockAmount,
	})
}

func (h *Handler) confirmCart(w http.ResponseWriter, r *http.Request) {
	cartID, err := h.cartID(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	var req confirmRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		fail(w, r, err)
		return
	}
	b, err := h.carts.Confirm(r.Context(), cartID, cart.ConfirmRequest{
		Discount:     req.Discount,
		CustomerName: req.CustomerName,
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, confirmResponse{
		Message: "Bill confirmed successfully",
		Bill: billResponse{
			ID:           b.ID,
			CustomerName: b.CustomerName,
			Total:        money(b.Total),
			Discount:     money(b.Discount),
			CreatedAt:    b.CreatedAt,
			Items:        toItemList(b.Items),
		},
	})
}

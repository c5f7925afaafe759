package handler

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/pharmacy-pos/internal/domain/drug"
)

type drugRequest struct {
	Name       string          `json:"name"`
	Code       string          `json:"code"`
	Detail     string          `json:"detail"`
	Usage      string          `json:"usage"`
	SlangFood  string          `json:"slang_food"`
	SideEffect string          `json:"side_effect"`
	DrugType   string          `json:"drug_type"`
	UnitType   string          `json:"unit_type"`
	Price      decimal.Decimal `json:"price"`
}

func (req drugRequest) toDomain() *drug.Drug {
	return &drug.Drug{
		Name:       req.Name,
		Code:       req.Code,
		Detail:     req.Detail,
		Usage:      req.Usage,
		SlangFood:  req.SlangFood,
		SideEffect: req.SideEffect,
		DrugType:   req.DrugType,
		UnitType:   req.UnitType,
		Price:      req.Price,
	}
}

type drugResponse struct {
	ID         int64     `json:"drug_id"`
	Name       string    `json:"name"`
	Code       string    `json:"code"`
	Detail     string    `json:"detail"`
	Usage      string    `json:"usage"`
	SlangFood  string    `json:"slang_food"`
	SideEffect string    `json:"side_effect"`
	DrugType   string    `json:"drug_type"`
	UnitType   string    `json:"unit_type"`
	Price      string    `json:"price"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func toDrugResponse(d *drug.Drug) drugResponse {
	return drugResponse{
		ID:         d.ID,
		Name:       d.Name,
		Code:       d.Code,
		Detail:     d.Detail,
		Usage:      d.Usage,
		SlangFood:  d.SlangFood,
		SideEffect: d.SideEffect,
		DrugType:   d.DrugType,
		UnitType:   d.UnitType,
		Price:      money(d.Price),
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}

type deleteDrugResponse struct {
	Message string       `json:"message"`
	Drug    drugResponse `json:"drug"`
}

func (h *Handler) listDrugs(w http.ResponseWriter, r *http.Request) {
	drugs, err := h.drugs.List(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	resp := make([]drugResponse, len(drugs))
	for i := range drugs {
		resp[i] = toDrugResponse(&drugs[i])
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) getDrug(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	d, err := h.drugs.GetByID(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDrugResponse(d))
}

func (h *Handler) createDrug(w http.ResponseWriter, r *http.Request) {
	var req drugRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, r, err)
		return
	}
	d := req.toDomain()
	if err := d.Validate(); err != nil {
		fail(w, r, err)
		return
	}
	if err := h.drugs.Create(r.Context(), d); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toDrugResponse(d))
}

func (h *Handler) updateDrug(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	var req drugRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, r, err)
		return
	}
	d := req.toDomain()
	d.ID = id
	if err := d.Validate(); err != nil {
		fail(w, r, err)
		return
	}
	if err := h.drugs.Update(r.Context(), d); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDrugResponse(d))
}

func (h *Handler) deleteDrug(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	d, err := h.drugs.Delete(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, deleteDrugResponse{
		Message: "Drug deleted successfully",
		Drug:    toDrugResponse(d),
	})
}

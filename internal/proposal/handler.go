package proposal

import (
	"net/http"

	"github.com/KromaEnergia/speaker-booking/internal/utils"
)

type Handler struct {
	Service *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Service: svc}
}

// POST /proposals
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in CreateInput
	if err := utils.ReadJSON(r, &in); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	p, err := h.Service.Create(r.Context(), in)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, p)
}

// GET /proposals/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := utils.PathID(r)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	p, err := h.Service.Get(r.Context(), id)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, p)
}

// GET /deals/{id}/proposals
func (h *Handler) ListByDeal(w http.ResponseWriter, r *http.Request) {
	id, err := utils.PathID(r)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	list, err := h.Service.ListByDeal(r.Context(), id)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, list)
}

type statusRequest struct {
	Status Status `json:"status"`
}

// PATCH /proposals/{id}/status
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := utils.PathID(r)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	var req statusRequest
	if err := utils.ReadJSON(r, &req); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	p, err := h.Service.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, p)
}

package contract

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/KromaEnergia/speaker-booking/internal/apperr"
	"github.com/KromaEnergia/speaker-booking/internal/auth"
	"github.com/KromaEnergia/speaker-booking/internal/utils"
)

type Handler struct {
	Engine *Engine
}

func NewHandler(e *Engine) *Handler {
	return &Handler{Engine: e}
}

// POST /contracts
// With ?preview=true the rendered contract is returned and nothing is stored.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in CreateInput
	if err := utils.ReadJSON(r, &in); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	in.CreatedBy = auth.Actor(r.Context())

	if preview, _ := strconv.ParseBool(r.URL.Query().Get("preview")); preview {
		c, err := h.Engine.Preview(r.Context(), in)
		if err != nil {
			utils.WriteError(w, r, err)
			return
		}
		utils.WriteJSON(w, http.StatusOK, map[string]any{"preview": true, "contract": c, "content": c.Content})
		return
	}

	created, err := h.Engine.CreateFromDeal(r.Context(), in)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, created)
}

// GET /contracts
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := Filter{Status: Status(q.Get("status"))}
	if id, err := strconv.ParseUint(q.Get("deal_id"), 10, 64); err == nil {
		f.DealID = uint(id)
	}
	list, err := h.Engine.List(r.Context(), f)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, list)
}

// GET /contracts/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := utils.PathID(r)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	c, err := h.Engine.Get(r.Context(), id)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, c)
}

type statusRequest struct {
	Status Status `json:"status"`
}

// PUT /contracts/{id}
// Only the status can be changed here.
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
	if req.Status == "" {
		utils.WriteError(w, r, apperr.Validation("status is required"))
		return
	}
	res, err := h.Engine.UpdateStatus(r.Context(), id, req.Status, auth.Actor(r.Context()))
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, res)
}

// PATCH /contracts/{id}/terms
func (h *Handler) UpdateTerms(w http.ResponseWriter, r *http.Request) {
	id, err := utils.PathID(r)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	var t Terms
	if err := utils.ReadJSON(r, &t); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	c, err := h.Engine.UpdateDraftTerms(r.Context(), id, t, auth.Actor(r.Context()))
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, c)
}

// DELETE /contracts/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := utils.PathID(r)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	if err := h.Engine.Delete(r.Context(), id); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

var signerMessages = map[apperr.Kind]string{
	apperr.KindAuth:         "This signing link is invalid or has expired.",
	apperr.KindConflict:     "You have already signed this contract.",
	apperr.KindInvalidState: "This contract is not open for signature.",
	apperr.KindValidation:   "Please enter your full name and accept the terms.",
}

// GET /sign/{token}
func (h *Handler) SignerView(w http.ResponseWriter, r *http.Request) {
	v, err := h.Engine.ViewForToken(r.Context(), mux.Vars(r)["token"])
	if err != nil {
		utils.WritePublicError(w, r, err, signerMessages)
		return
	}
	utils.WriteJSON(w, http.StatusOK, v)
}

// POST /sign/{token}
func (h *Handler) Sign(w http.ResponseWriter, r *http.Request) {
	var in SignInput
	if err := utils.ReadJSON(r, &in); err != nil {
		utils.WritePublicError(w, r, err, signerMessages)
		return
	}
	in.IP = utils.ClientIP(r)
	res, err := h.Engine.Sign(r.Context(), mux.Vars(r)["token"], in)
	if err != nil {
		utils.WritePublicError(w, r, err, signerMessages)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "contract": res.View, "message": res.View.Message})
}

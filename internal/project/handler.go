package project

import (
	"context"
	"net/http"
	"strconv"

	"github.com/KromaEnergia/speaker-booking/internal/firmoffer"
	"github.com/KromaEnergia/speaker-booking/internal/utils"
)

// OfferReader loads the firm offer a project is built from.
type OfferReader interface {
	FindByID(ctx context.Context, id uint) (*firmoffer.FirmOffer, error)
}

type Handler struct {
	Repository   Repository
	Materializer *Materializer
	Offers       OfferReader
}

func NewHandler(repo Repository, mat *Materializer, offers OfferReader) *Handler {
	return &Handler{Repository: repo, Materializer: mat, Offers: offers}
}

// POST /firm-offers/{id}/project
// Recovers the project of a confirmed offer whose materialization failed after the
// speaker answered. Returns the existing project when there already is one.
func (h *Handler) FromFirmOffer(w http.ResponseWriter, r *http.Request) {
	id, err := utils.PathID(r)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	o, err := h.Offers.FindByID(r.Context(), id)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	p, err := h.Materializer.FromFirmOffer(r.Context(), o)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, p)
}

// GET /projects
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := Filter{Status: Status(q.Get("status"))}
	if id, err := strconv.ParseUint(q.Get("deal_id"), 10, 64); err == nil {
		f.DealID = uint(id)
	}
	list, err := h.Repository.List(r.Context(), f)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, list)
}

// GET /projects/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := utils.PathID(r)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	p, err := h.Repository.FindByID(r.Context(), id)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, p)
}

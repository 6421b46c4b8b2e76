package activity

import (
	"net/http"

	"github.com/KromaEnergia/speaker-booking/internal/utils"
)

type Handler struct {
	Repository Repository
}

func NewHandler(repo Repository) *Handler {
	return &Handler{Repository: repo}
}

// GET /deals/{id}/activities
func (h *Handler) ListByDeal(w http.ResponseWriter, r *http.Request) {
	id, err := utils.PathID(r)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	list, err := h.Repository.ListByDeal(r.Context(), id)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, list)
}

package firmoffer

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/KromaEnergia/speaker-booking/internal/apperr"
	"github.com/KromaEnergia/speaker-booking/internal/utils"
)

type Handler struct {
	Engine *Engine
}

func NewHandler(e *Engine) *Handler {
	return &Handler{Engine: e}
}

// POST /firm-offers
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in CreateInput
	if err := utils.ReadJSON(r, &in); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	created, err := h.Engine.Create(r.Context(), in)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, created)
}

// GET /firm-offers
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

// GET /firm-offers/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := utils.PathID(r)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	v, err := h.Engine.Get(r.Context(), id)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, v)
}

// PATCH /firm-offers/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := utils.PathID(r)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	var p Patch
	if err := utils.ReadJSON(r, &p); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	res, err := h.Engine.Update(r.Context(), id, p)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, res)
}

var speakerMessages = map[apperr.Kind]string{
	apperr.KindAuth:              "This link is invalid, or you tried to change something only the agency can edit.",
	apperr.KindInvalidState:      "This offer is not ready for your response yet.",
	apperr.KindInvalidTransition: "You have already responded to this offer.",
	apperr.KindNoOp:              "Nothing to save.",
	apperr.KindValidation:        "Please check your answer and try again.",
}

// GET /speaker/firm-offers/{token}
func (h *Handler) SpeakerView(w http.ResponseWriter, r *http.Request) {
	v, err := h.Engine.ViewForSpeaker(r.Context(), mux.Vars(r)["token"])
	if err != nil {
		utils.WritePublicError(w, r, err, speakerMessages)
		return
	}
	utils.WriteJSON(w, http.StatusOK, v)
}

// PATCH /speaker/firm-offers/{token}
func (h *Handler) SpeakerRespond(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 64<<10))
	if err != nil {
		utils.WritePublicError(w, r, apperr.Validation("unreadable body"), speakerMessages)
		return
	}
	sp, err := DecodeSpeakerPatch(body)
	if err != nil {
		utils.WritePublicError(w, r, err, speakerMessages)
		return
	}
	v, _, err := h.Engine.RespondAsSpeaker(r.Context(), mux.Vars(r)["token"], sp)
	if err != nil {
		utils.WritePublicError(w, r, err, speakerMessages)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "firm_offer": v, "message": v.Message})
}

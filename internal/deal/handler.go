package deal

import (
	"crypto/subtle"
	"net/http"
	"strconv"

	"github.com/KromaEnergia/speaker-booking/internal/auth"
	"github.com/KromaEnergia/speaker-booking/internal/utils"
)

// WebhookSecretHeader carries the shared secret of the external integration.
const WebhookSecretHeader = "X-Webhook-Secret"

type Handler struct {
	Service       *Service
	WebhookSecret string
}

func NewHandler(svc *Service, webhookSecret string) *Handler {
	return &Handler{Service: svc, WebhookSecret: webhookSecret}
}

// POST /inquiries
func (h *Handler) CreateInquiry(w http.ResponseWriter, r *http.Request) {
	var in Inquiry
	if err := utils.ReadJSON(r, &in); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	d, err := h.Service.CreateInquiry(r.Context(), in)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, map[string]any{"success": true, "deal_id": d.ID})
}

// POST /deals
// Webhook from the external relationship-management integration.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	got := r.Header.Get(WebhookSecretHeader)
	if h.WebhookSecret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(h.WebhookSecret)) != 1 {
		utils.WriteJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "error": "invalid webhook secret"})
		return
	}

	var p WebhookPayload
	if err := utils.ReadJSON(r, &p); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	res, err := h.Service.IngestWebhook(r.Context(), p)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "result": res})
}

// GET /deals
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := Filter{Status: Status(q.Get("status")), Priority: Priority(q.Get("priority"))}
	if l, err := strconv.Atoi(q.Get("limit")); err == nil {
		f.Limit = l
	}
	list, err := h.Service.List(r.Context(), f)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, list)
}

// GET /deals/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := utils.PathID(r)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	d, err := h.Service.Get(r.Context(), id)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, d)
}

// PATCH /deals/{id}/status
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := utils.PathID(r)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	var ch StatusChange
	if err := utils.ReadJSON(r, &ch); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	ch.Actor = auth.Actor(r.Context())
	d, err := h.Service.UpdateStatus(r.Context(), id, ch)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, d)
}

// PATCH /deals/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := utils.PathID(r)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	var in Details
	if err := utils.ReadJSON(r, &in); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	in.Actor = auth.Actor(r.Context())
	d, err := h.Service.UpdateDetails(r.Context(), id, in)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, d)
}

type noteRequest struct {
	Text string `json:"text"`
}

// POST /deals/{id}/notes
func (h *Handler) AddNote(w http.ResponseWriter, r *http.Request) {
	id, err := utils.PathID(r)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	var req noteRequest
	if err := utils.ReadJSON(r, &req); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	d, err := h.Service.AddNote(r.Context(), id, req.Text, auth.Actor(r.Context()))
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, d)
}

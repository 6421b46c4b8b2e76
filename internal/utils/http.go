package utils

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/hlog"

	"github.com/KromaEnergia/speaker-booking/internal/apperr"
)

const maxBodyBytes = 1 << 20

// RequestIDHeader is set by the request-id middleware and echoed in error bodies.
const RequestIDHeader = "X-Request-Id"

type errorBody struct {
	RequestID string    `json:"request_id,omitempty"`
	Error     errorInfo `json:"error"`
}

type errorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError turns an error into the structured failure response.
// Persistence causes are logged and never sent to the caller.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	status := apperr.HTTPStatus(kind)

	evt := hlog.FromRequest(r).Warn()
	if status >= http.StatusInternalServerError {
		evt = hlog.FromRequest(r).Error()
	}
	evt.Err(err).Str("code", string(kind)).Int("status", status).Msg("request failed")

	WriteJSON(w, status, errorBody{
		RequestID: w.Header().Get(RequestIDHeader),
		Error: errorInfo{
			Code:    string(kind),
			Message: apperr.PublicMessage(err),
		},
	})
}

// ReadJSON decodes a bounded request body into dst.
func ReadJSON(r *http.Request, dst any) error {
	body := io.LimitReader(r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Validation("request body is empty")
		}
		return apperr.Validation("invalid JSON: %v", err)
	}
	return nil
}

// PathID parses the {id} route variable.
func PathID(r *http.Request) (uint, error) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.Validation("invalid id %q", raw)
	}
	return uint(id), nil
}

// ClientIP prefers X-Forwarded-For set by the load balancer.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		ip, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(ip)
	}
	return r.RemoteAddr
}

// WritePublicError is WriteError for token holders: they get a plain sentence
// for the status page instead of an error code.
func WritePublicError(w http.ResponseWriter, r *http.Request, err error, messages map[apperr.Kind]string) {
	kind := apperr.KindOf(err)
	status := apperr.HTTPStatus(kind)
	hlog.FromRequest(r).Warn().Err(err).Str("code", string(kind)).Int("status", status).Msg("public request failed")

	msg, ok := messages[kind]
	if !ok {
		msg = "Something went wrong. Please try again later or contact us."
	}
	WriteJSON(w, status, map[string]any{"success": false, "message": msg})
}

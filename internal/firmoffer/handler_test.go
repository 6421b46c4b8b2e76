package firmoffer

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(h *Handler) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/speaker/firm-offers/{token}", h.SpeakerView).Methods(http.MethodGet)
	r.HandleFunc("/speaker/firm-offers/{token}", h.SpeakerRespond).Methods(http.MethodPatch)
	return r
}

func TestSpeakerLinkHandlers(t *testing.T) {
	f := newFixture(t)
	created := f.ready(t)
	sent := f.advance(t, created.Offer.ID, StatusSubmitted, StatusSentToSpeaker)
	path := strings.TrimPrefix(sent.ShareURL, "https://app.test")
	router := newRouter(NewHandler(f.engine))

	patch := func(body string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, path, bytes.NewBufferString(body)))
		return rec
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"can_respond":true`)
	assert.NotContains(t, rec.Body.String(), "speaker_token")

	rec = patch(`{"financial_details":{"speaker_fee":1}}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "only the agency can edit")

	rec = patch(`{"speaker_confirmed":true,"speaker_notes":"See you there"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"speaker_confirmed"`)

	rec = patch(`{"speaker_confirmed":false}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "already responded")

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/speaker/firm-offers/"+strings.Repeat("z", 40), nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	o, err := f.engine.Get(context.Background(), created.Offer.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusSpeakerConfirmed, o.Offer.Status)
	assert.Equal(t, "See you there", o.Offer.Confirmation.SpeakerNotes)
	assert.Len(t, f.projects.calls, 1)
}

package project

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KromaEnergia/speaker-booking/internal/deal"
	"github.com/KromaEnergia/speaker-booking/internal/firmoffer"
)

func TestFromFirmOfferRecoversMissingProject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := &deal.Deal{ClientName: "Ana", Status: deal.StatusWon}
	require.NoError(t, f.deals.Create(ctx, d))

	confirmed := &firmoffer.FirmOffer{DealID: d.ID, Status: firmoffer.StatusSpeakerConfirmed, SpeakerTokenHash: "x"}
	require.NoError(t, f.db.Create(confirmed).Error)
	pending := &firmoffer.FirmOffer{DealID: d.ID, Status: firmoffer.StatusSentToSpeaker, SpeakerTokenHash: "y"}
	require.NoError(t, f.db.Create(pending).Error)

	r := mux.NewRouter()
	h := NewHandler(f.repo, f.mat, firmoffer.NewRepository(f.db))
	r.HandleFunc("/firm-offers/{id}/project", h.FromFirmOffer).Methods(http.MethodPost)
	post := func(id uint) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		path := "/firm-offers/" + strconv.FormatUint(uint64(id), 10) + "/project"
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, nil))
		return rec
	}

	rec := post(confirmed.ID)
	require.Equal(t, http.StatusOK, rec.Code)
	var first Project
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&first))
	assert.Equal(t, confirmed.ID, first.FirmOfferID)
	assert.Equal(t, d.ID, first.DealID)

	rec = post(confirmed.ID)
	require.Equal(t, http.StatusOK, rec.Code)
	var second Project
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&second))
	assert.Equal(t, first.ID, second.ID)

	assert.Equal(t, http.StatusConflict, post(pending.ID).Code)
	assert.Equal(t, http.StatusNotFound, post(999).Code)

	list, err := f.repo.List(ctx, Filter{})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

package project

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/KromaEnergia/speaker-booking/internal/apperr"
	"github.com/KromaEnergia/speaker-booking/internal/contract"
	"github.com/KromaEnergia/speaker-booking/internal/deal"
	"github.com/KromaEnergia/speaker-booking/internal/firmoffer"
	"github.com/KromaEnergia/speaker-booking/internal/notification"
	"github.com/KromaEnergia/speaker-booking/internal/notification/notificationtest"
	"github.com/KromaEnergia/speaker-booking/internal/proposal"
	"github.com/KromaEnergia/speaker-booking/internal/token"
	"github.com/KromaEnergia/speaker-booking/internal/utils/db/dbtest"
)

type fixture struct {
	db     *gorm.DB
	repo   Repository
	mat    *Materializer
	offers *firmoffer.Engine
	deals  deal.Repository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	database := dbtest.Open(t, &deal.Deal{}, &proposal.Proposal{}, &contract.Contract{},
		&firmoffer.FirmOffer{}, &Project{})
	repo := NewRepository(database)
	mat := NewMaterializer(database, repo, zerolog.Nop())
	deals := deal.NewRepository(database)
	proposals := proposal.NewRepository(database)
	offers := firmoffer.NewEngine(database, firmoffer.NewRepository(database), deals, proposals,
		token.NewIssuer("test-link-key"),
		notification.NewDispatcher(&notificationtest.Recorder{}, "bookings@agency.test", "Agency", zerolog.Nop()),
		mat, "https://app.test", zerolog.Nop())
	return &fixture{db: database, repo: repo, mat: mat, offers: offers, deals: deals}
}

// confirmedOffer drives a firm offer from intake to the speaker's confirmation.
func (f *fixture) confirmedOffer(t *testing.T) (*deal.Deal, *firmoffer.UpdateResult) {
	t.Helper()
	ctx := context.Background()
	d := &deal.Deal{
		ClientName: "Ana Client", ClientEmail: "ana@client.test", ClientCompany: "ClientCo",
		EventTitle: "Annual Summit", DealValue: 20000, Status: deal.StatusWon,
	}
	require.NoError(t, f.deals.Create(ctx, d))
	require.NoError(t, proposal.NewRepository(f.db).Create(ctx, &proposal.Proposal{
		DealID: d.ID, SpeakerName: "Bo Speaker", SpeakerEmail: "bo@speaker.test",
		SpeakerFee: 15000, Status: proposal.StatusAccepted,
	}))

	created, err := f.offers.Create(ctx, firmoffer.CreateInput{
		Source: firmoffer.Source{DealID: d.ID},
		Fields: firmoffer.Intake{
			"session_title": "Future of Work",
			"event_date":    "2026-06-01",
			"venue":         "Centro de Congressos",
			"city":          "Lisbon",
			"country":       "Portugal",
		},
	})
	require.NoError(t, err)

	var sent *firmoffer.UpdateResult
	for _, s := range []firmoffer.Status{firmoffer.StatusSubmitted, firmoffer.StatusSentToSpeaker} {
		s := s
		sent, err = f.offers.Update(ctx, created.Offer.ID, firmoffer.Patch{Status: &s})
		require.NoError(t, err)
	}
	raw := strings.TrimPrefix(sent.ShareURL, "https://app.test/speaker/firm-offers/")

	yes := true
	_, res, err := f.offers.RespondAsSpeaker(ctx, raw, firmoffer.SpeakerPatch{SpeakerConfirmed: &yes})
	require.NoError(t, err)
	return d, res
}

func TestSpeakerConfirmationCreatesProject(t *testing.T) {
	f := newFixture(t)
	d, res := f.confirmedOffer(t)
	require.NotNil(t, res.ProjectID)

	p, err := f.repo.FindByID(context.Background(), *res.ProjectID)
	require.NoError(t, err)
	assert.Equal(t, res.Offer.ID, p.FirmOfferID)
	assert.Equal(t, d.ID, p.DealID)
	assert.Equal(t, "Annual Summit", p.Title)
	assert.Equal(t, "Centro de Congressos, Lisbon, Portugal", p.Location)
	assert.Equal(t, "Bo Speaker", p.SpeakerName)
	assert.Equal(t, StatusPlanning, p.Status)
	require.NotNil(t, p.EventDate)
	assert.Equal(t, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), p.EventDate.UTC())
	assert.Nil(t, p.ContractID)
}

func TestMaterializeIsIdempotent(t *testing.T) {
	f := newFixture(t)
	_, res := f.confirmedOffer(t)

	again, err := f.mat.FromFirmOffer(context.Background(), res.Offer)
	require.NoError(t, err)
	assert.Equal(t, *res.ProjectID, again.ID)

	list, err := f.repo.List(context.Background(), Filter{})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestMaterializeLinksExecutedContract(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := &deal.Deal{ClientName: "Ana", Status: deal.StatusWon}
	require.NoError(t, f.deals.Create(ctx, d))

	c := &contract.Contract{
		ContractNumber: "SPK-20260304-ABC123", DealID: d.ID, Status: contract.StatusFullyExecuted,
		AccessTokenHash: "a", ClientTokenHash: "b", SpeakerTokenHash: "c",
		ExpiresAt: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, f.db.Create(c).Error)

	o := &firmoffer.FirmOffer{DealID: d.ID, Status: firmoffer.StatusSpeakerConfirmed, SpeakerTokenHash: "x"}
	require.NoError(t, f.db.Create(o).Error)

	p, err := f.mat.FromFirmOffer(ctx, o)
	require.NoError(t, err)
	require.NotNil(t, p.ContractID)
	assert.Equal(t, c.ID, *p.ContractID)
	assert.Equal(t, "your event", p.Title)
}

func TestMaterializeRejectsUnconfirmedOffer(t *testing.T) {
	f := newFixture(t)
	o := &firmoffer.FirmOffer{ID: 9, DealID: 1, Status: firmoffer.StatusSentToSpeaker}

	_, err := f.mat.FromFirmOffer(context.Background(), o)
	require.ErrorIs(t, err, apperr.ErrInvalidState)

	_, err = f.repo.FindByID(context.Background(), 1)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

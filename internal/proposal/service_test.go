package proposal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KromaEnergia/speaker-booking/internal/apperr"
	"github.com/KromaEnergia/speaker-booking/internal/deal"
	"github.com/KromaEnergia/speaker-booking/internal/utils/db/dbtest"
)

type fakeDeals map[uint]*deal.Deal

func (f fakeDeals) Get(_ context.Context, id uint) (*deal.Deal, error) {
	d, ok := f[id]
	if !ok {
		return nil, apperr.NotFound("deal", id)
	}
	return d, nil
}

func newTestService(t *testing.T, deals fakeDeals) *Service {
	t.Helper()
	return NewService(NewRepository(dbtest.Open(t, &Proposal{})), deals)
}

func TestCreateDefaultsFromDeal(t *testing.T) {
	svc := newTestService(t, fakeDeals{1: {ID: 1, Status: deal.StatusProposal, EventTitle: "Summit", EventLocation: "Lisbon", EventType: "in_person"}})

	p, err := svc.Create(context.Background(), CreateInput{DealID: 1, SpeakerName: "Dr. Kim", SpeakerEmail: "KIM@talks.test", SpeakerFee: 15000})
	require.NoError(t, err)
	assert.Equal(t, "Summit", p.EventTitle)
	assert.Equal(t, "Lisbon", p.EventLocation)
	assert.Equal(t, "in_person", p.EventFormat)
	assert.Equal(t, "kim@talks.test", p.SpeakerEmail)
	assert.Equal(t, StatusDraft, p.Status)
}

func TestCreateRejectsLostDeal(t *testing.T) {
	svc := newTestService(t, fakeDeals{1: {ID: 1, Status: deal.StatusLost}})
	_, err := svc.Create(context.Background(), CreateInput{DealID: 1, SpeakerName: "Dr. Kim"})
	assert.ErrorIs(t, err, apperr.ErrInvalidState)

	_, err = svc.Create(context.Background(), CreateInput{DealID: 2, SpeakerName: "Dr. Kim"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestStatusTransitionsAndLatest(t *testing.T) {
	svc := newTestService(t, fakeDeals{1: {ID: 1, Status: deal.StatusNegotiation}})
	ctx := context.Background()

	first, err := svc.Create(ctx, CreateInput{DealID: 1, SpeakerName: "A"})
	require.NoError(t, err)
	second, err := svc.Create(ctx, CreateInput{DealID: 1, SpeakerName: "B"})
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, first.ID, StatusAccepted)
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, first.ID, StatusDraft)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)

	latest, err := svc.repo.LatestForDeal(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, first.ID, latest.ID, "accepted proposal wins over newer drafts")

	_, err = svc.UpdateStatus(ctx, first.ID, StatusRejected)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
	_, err = svc.UpdateStatus(ctx, second.ID, StatusRejected)
	require.NoError(t, err)

	_, err = svc.repo.LatestForDeal(ctx, 2)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

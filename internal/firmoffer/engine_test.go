package firmoffer

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/KromaEnergia/speaker-booking/internal/apperr"
	"github.com/KromaEnergia/speaker-booking/internal/deal"
	"github.com/KromaEnergia/speaker-booking/internal/notification"
	"github.com/KromaEnergia/speaker-booking/internal/notification/notificationtest"
	"github.com/KromaEnergia/speaker-booking/internal/proposal"
	"github.com/KromaEnergia/speaker-booking/internal/token"
	"github.com/KromaEnergia/speaker-booking/internal/utils/db/dbtest"
)

var testNow = time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)

type fakeProjects struct {
	calls []uint
}

func (f *fakeProjects) Materialize(_ context.Context, _ *gorm.DB, o *FirmOffer) (uint, error) {
	f.calls = append(f.calls, o.ID)
	return uint(100 + len(f.calls)), nil
}

type fixture struct {
	engine    *Engine
	db        *gorm.DB
	deals     deal.Repository
	proposals proposal.Repository
	mail      *notificationtest.Recorder
	projects  *fakeProjects
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	database := dbtest.Open(t, &deal.Deal{}, &proposal.Proposal{}, &FirmOffer{})
	f := &fixture{
		db:        database,
		deals:     deal.NewRepository(database),
		proposals: proposal.NewRepository(database),
		mail:      &notificationtest.Recorder{},
		projects:  &fakeProjects{},
	}
	f.engine = NewEngine(database, NewRepository(database), f.deals, f.proposals, token.NewIssuer("test-link-key"),
		notification.NewDispatcher(f.mail, "bookings@agency.test", "Agency", zerolog.Nop()),
		f.projects, "https://app.test", zerolog.Nop())
	f.engine.now = func() time.Time { return testNow }
	return f
}

func (f *fixture) seed(t *testing.T, withProposal bool) (*deal.Deal, *proposal.Proposal) {
	t.Helper()
	ctx := context.Background()
	eventDate := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	d := &deal.Deal{
		ClientName: "Ana Client", ClientEmail: "ana@client.test", ClientCompany: "ClientCo",
		EventTitle: "Annual Summit", EventDate: &eventDate, EventLocation: "Lisbon",
		EventType: "in_person", AttendeeCount: 400, DealValue: 20000,
		Status: deal.StatusWon, Priority: deal.PriorityHigh,
	}
	require.NoError(t, f.deals.Create(ctx, d))
	if !withProposal {
		return d, nil
	}
	p := &proposal.Proposal{
		DealID: d.ID, SpeakerName: "Bo Speaker", SpeakerEmail: "bo@speaker.test",
		SpeakerFee: 15000, EventTitle: "Annual Summit", Status: proposal.StatusAccepted,
	}
	require.NoError(t, f.proposals.Create(ctx, p))
	return d, p
}

// ready creates an offer with every section submission needs.
func (f *fixture) ready(t *testing.T) *Created {
	t.Helper()
	d, _ := f.seed(t, true)
	created, err := f.engine.Create(context.Background(), CreateInput{
		Source: Source{DealID: d.ID},
		Fields: Intake{"session_title": "Future of Work", "arrival_time": "08:30"},
	})
	require.NoError(t, err)
	return created
}

func status(s Status) *Status { return &s }

func (f *fixture) advance(t *testing.T, id uint, to ...Status) *UpdateResult {
	t.Helper()
	var res *UpdateResult
	for _, s := range to {
		var err error
		res, err = f.engine.Update(context.Background(), id, Patch{Status: status(s)})
		require.NoError(t, err, "move to %s", s)
	}
	return res
}

func TestCreateFromDealUsesProposalAndCoercesIntake(t *testing.T) {
	f := newFixture(t)
	d, p := f.seed(t, true)

	created, err := f.engine.Create(context.Background(), CreateInput{
		Source: Source{DealID: d.ID},
		Fields: Intake{
			"session_title":    "Future of Work",
			"duration_minutes": "45",
			"qa_session":       "yes",
			"hotel_nights":     "2",
			"flights_provided": true,
			"travel_budget":    "1,500",
			"event_date":       "06/02/2026",
			"event_format":     "Online",
			"favourite_color":  "blue",
		},
	})
	require.NoError(t, err)
	o := created.Offer

	assert.Equal(t, StatusDraft, o.Status)
	assert.Equal(t, p.ID, *o.ProposalID)
	require.NotNil(t, o.EventOverview)
	assert.Equal(t, "Annual Summit", o.EventOverview.EventName)
	assert.Equal(t, "2026-06-02", o.EventOverview.EventDate)
	assert.Equal(t, "virtual", o.EventOverview.EventType)
	assert.Equal(t, 400, o.EventOverview.ExpectedAttendance)
	require.NotNil(t, o.SpeakerProgram)
	assert.Equal(t, "Bo Speaker", o.SpeakerProgram.SpeakerName)
	assert.Equal(t, 45, o.SpeakerProgram.DurationMinutes)
	assert.True(t, o.SpeakerProgram.QAIncluded)
	assert.Equal(t, "keynote", o.SpeakerProgram.SessionFormat)
	require.NotNil(t, o.TravelAccommodation)
	assert.Equal(t, 2, o.TravelAccommodation.HotelNights)
	assert.True(t, o.TravelAccommodation.FlightsProvided)
	require.NotNil(t, o.FinancialDetails)
	assert.Equal(t, 15000.0, o.FinancialDetails.SpeakerFee)
	assert.Equal(t, 1500.0, o.FinancialDetails.TravelBudget)
	assert.Equal(t, "USD", o.FinancialDetails.Currency)
	assert.Nil(t, o.EventSchedule)

	assert.Len(t, created.SpeakerToken, token.DefaultLength)
	assert.Equal(t, "https://app.test/speaker/firm-offers/"+created.SpeakerToken, created.ShareURL)

	linked, err := f.deals.FindByID(context.Background(), d.ID)
	require.NoError(t, err)
	require.NotNil(t, linked.FirmOfferID)
	assert.Equal(t, o.ID, *linked.FirmOfferID)

	prop, err := f.proposals.FindByID(context.Background(), p.ID)
	require.NoError(t, err)
	require.NotNil(t, prop.FirmOfferID)
	assert.Equal(t, o.ID, *prop.FirmOfferID)
}

func TestCreateNeedsAProposal(t *testing.T) {
	f := newFixture(t)
	d, _ := f.seed(t, false)

	_, err := f.engine.Create(context.Background(), CreateInput{Source: Source{DealID: d.ID}})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = f.engine.Create(context.Background(), CreateInput{})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	var n int64
	require.NoError(t, f.db.Model(&FirmOffer{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestCreateRejectsBadIntakeValues(t *testing.T) {
	f := newFixture(t)
	_, p := f.seed(t, true)

	_, err := f.engine.Create(context.Background(), CreateInput{
		Source: Source{ProposalID: p.ID},
		Fields: Intake{"hotel_nights": "two"},
	})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.engine.Create(context.Background(), CreateInput{
		Source: Source{ProposalID: p.ID, DealID: p.DealID + 1},
	})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestEmptyUpdateIsNoOpAndChangesNothing(t *testing.T) {
	f := newFixture(t)
	created := f.ready(t)
	ctx := context.Background()

	before, err := f.engine.Get(ctx, created.Offer.ID)
	require.NoError(t, err)

	f.engine.now = func() time.Time { return testNow.Add(time.Hour) }
	_, err = f.engine.Update(ctx, created.Offer.ID, Patch{})
	assert.ErrorIs(t, err, apperr.ErrNoOp)

	after, err := f.engine.Get(ctx, created.Offer.ID)
	require.NoError(t, err)
	assert.Equal(t, before.Offer.Sections, after.Offer.Sections)
	assert.True(t, before.Offer.UpdatedAt.Equal(after.Offer.UpdatedAt))
	assert.Nil(t, after.Offer.SubmittedAt)
	assert.Nil(t, after.Offer.SentToSpeakerAt)
	assert.Nil(t, after.Offer.SpeakerResponseAt)

	_, err = f.engine.Update(ctx, 999, Patch{Status: status(StatusSubmitted)})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestSectionUpdateDoesNotClobberOthers(t *testing.T) {
	f := newFixture(t)
	created := f.ready(t)
	ctx := context.Background()

	res, err := f.engine.Update(ctx, created.Offer.ID, Patch{Sections: Sections{
		FinancialDetails: &FinancialDetails{SpeakerFee: 18000, Currency: "EUR"},
	}})
	require.NoError(t, err)
	assert.Equal(t, 18000.0, res.Offer.FinancialDetails.SpeakerFee)

	v, err := f.engine.Get(ctx, created.Offer.ID)
	require.NoError(t, err)
	require.NotNil(t, v.Offer.EventSchedule)
	assert.Equal(t, "08:30", v.Offer.EventSchedule.ArrivalTime)
	assert.Equal(t, "Future of Work", v.Offer.SpeakerProgram.SessionTitle)
	assert.Equal(t, "EUR", v.Offer.FinancialDetails.Currency)
	assert.Equal(t, StatusDraft, v.Offer.Status)
}

func TestSubmitStampsOnceAndIsIdempotent(t *testing.T) {
	f := newFixture(t)
	created := f.ready(t)
	ctx := context.Background()

	res := f.advance(t, created.Offer.ID, StatusSubmitted)
	require.NotNil(t, res.Offer.SubmittedAt)
	first := *res.Offer.SubmittedAt

	f.engine.now = func() time.Time { return testNow.Add(time.Hour) }
	res, err := f.engine.Update(ctx, created.Offer.ID, Patch{Status: status(StatusSubmitted)})
	require.NoError(t, err)
	assert.Equal(t, StatusSubmitted, res.Offer.Status)

	v, err := f.engine.Get(ctx, created.Offer.ID)
	require.NoError(t, err)
	require.NotNil(t, v.Offer.SubmittedAt)
	assert.True(t, first.Equal(*v.Offer.SubmittedAt))
}

func TestSubmitRequiresSections(t *testing.T) {
	f := newFixture(t)
	d, _ := f.seed(t, true)
	created, err := f.engine.Create(context.Background(), CreateInput{Source: Source{DealID: d.ID}})
	require.NoError(t, err)

	_, err = f.engine.Update(context.Background(), created.Offer.ID, Patch{Status: status(StatusSubmitted)})
	require.ErrorIs(t, err, apperr.ErrValidation)
	assert.Contains(t, err.Error(), "speaker_program.session_title")
}

func TestStatusCannotReverseOrSkip(t *testing.T) {
	f := newFixture(t)
	created := f.ready(t)
	ctx := context.Background()

	_, err := f.engine.Update(ctx, created.Offer.ID, Patch{Status: status(StatusSentToSpeaker)})
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)

	f.advance(t, created.Offer.ID, StatusSubmitted)
	_, err = f.engine.Update(ctx, created.Offer.ID, Patch{Status: status(StatusDraft)})
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)

	_, err = f.engine.Update(ctx, created.Offer.ID, Patch{SpeakerConfirmed: boolPtr(true)})
	assert.ErrorIs(t, err, apperr.ErrInvalidState)

	_, err = f.engine.Update(ctx, created.Offer.ID, Patch{Status: status("archived")})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestSendToSpeakerKeepsCreationLinkAndEmails(t *testing.T) {
	f := newFixture(t)
	created := f.ready(t)
	ctx := context.Background()

	res := f.advance(t, created.Offer.ID, StatusSubmitted, StatusSentToSpeaker)
	require.NotNil(t, res.Offer.SentToSpeakerAt)
	assert.Equal(t, created.ShareURL, res.ShareURL)
	require.Len(t, res.Notifications, 1)
	assert.True(t, res.Notifications[0].Delivered)

	v, err := f.engine.ViewForSpeaker(ctx, created.SpeakerToken)
	require.NoError(t, err)
	assert.True(t, v.CanRespond)

	msgs := f.mail.To("bo@speaker.test")
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Text, created.ShareURL)

	stored, err := f.engine.Get(ctx, created.Offer.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ShareURL, stored.ShareURL)

	_, err = f.engine.Update(ctx, created.Offer.ID, Patch{Sections: Sections{AdditionalInfo: &AdditionalInfo{DressCode: "black tie"}}})
	assert.ErrorIs(t, err, apperr.ErrInvalidState)

	_, answered, err := f.engine.RespondAsSpeaker(ctx, created.SpeakerToken, SpeakerPatch{SpeakerConfirmed: boolPtr(true)})
	require.NoError(t, err)
	assert.Equal(t, StatusSpeakerConfirmed, answered.Offer.Status)
}

func TestSpeakerTokenNeedsTheLinkKey(t *testing.T) {
	f := newFixture(t)
	created := f.ready(t)

	forged, err := token.NewIssuer("other-key").Derive(token.RoleSpeakerOffer, created.Offer.SpeakerTokenSeed)
	require.NoError(t, err)
	_, err = f.engine.ViewForSpeaker(context.Background(), forged)
	assert.ErrorIs(t, err, apperr.ErrAuth)
}

func boolPtr(b bool) *bool { return &b }

func TestSpeakerConfirmationMaterializesProject(t *testing.T) {
	f := newFixture(t)
	created := f.ready(t)
	ctx := context.Background()
	sent := f.advance(t, created.Offer.ID, StatusSubmitted, StatusSentToSpeaker)
	raw := sent.ShareURL[len("https://app.test/speaker/firm-offers/"):]

	v, err := f.engine.ViewForSpeaker(ctx, raw)
	require.NoError(t, err)
	assert.True(t, v.CanRespond)

	notes := "Need a lapel mic"
	v, res, err := f.engine.RespondAsSpeaker(ctx, raw, SpeakerPatch{SpeakerConfirmed: boolPtr(true), SpeakerNotes: &notes})
	require.NoError(t, err)
	assert.Equal(t, StatusSpeakerConfirmed, v.Status)
	assert.False(t, v.CanRespond)
	require.NotNil(t, res.ProjectID)
	assert.Equal(t, []uint{created.Offer.ID}, f.projects.calls)

	stored, err := f.engine.Get(ctx, created.Offer.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Offer.SpeakerResponseAt)
	require.NotNil(t, stored.Offer.Confirmation.SpeakerConfirmed)
	assert.True(t, *stored.Offer.Confirmation.SpeakerConfirmed)
	assert.Equal(t, notes, stored.Offer.Confirmation.SpeakerNotes)

	client := f.mail.To("ana@client.test")
	require.Len(t, client, 1)
	assert.Contains(t, client[0].Text, notes)

	_, _, err = f.engine.RespondAsSpeaker(ctx, raw, SpeakerPatch{SpeakerConfirmed: boolPtr(true)})
	require.NoError(t, err)
	assert.Len(t, f.projects.calls, 1)

	_, _, err = f.engine.RespondAsSpeaker(ctx, raw, SpeakerPatch{SpeakerConfirmed: boolPtr(false)})
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
}

func TestSpeakerDeclineIsExplicitStatus(t *testing.T) {
	f := newFixture(t)
	created := f.ready(t)
	f.advance(t, created.Offer.ID, StatusSubmitted, StatusSentToSpeaker)

	res, err := f.engine.Update(context.Background(), created.Offer.ID, Patch{Status: status(StatusDeclined)})
	require.NoError(t, err)
	assert.Equal(t, StatusDeclined, res.Offer.Status)
	require.NotNil(t, res.Offer.Confirmation.SpeakerConfirmed)
	assert.False(t, *res.Offer.Confirmation.SpeakerConfirmed)
	assert.NotNil(t, res.Offer.SpeakerResponseAt)
	assert.Nil(t, res.ProjectID)
	assert.Empty(t, f.projects.calls)

	_, err = f.engine.Update(context.Background(), created.Offer.ID,
		Patch{Status: status(StatusSpeakerConfirmed)})
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
}

func TestSpeakerCannotRespondBeforeSend(t *testing.T) {
	f := newFixture(t)
	created := f.ready(t)

	v, err := f.engine.ViewForSpeaker(context.Background(), created.SpeakerToken)
	require.NoError(t, err)
	assert.False(t, v.CanRespond)

	_, _, err = f.engine.RespondAsSpeaker(context.Background(), created.SpeakerToken, SpeakerPatch{SpeakerConfirmed: boolPtr(true)})
	assert.ErrorIs(t, err, apperr.ErrInvalidState)

	_, _, err = f.engine.RespondAsSpeaker(context.Background(), created.SpeakerToken, SpeakerPatch{})
	assert.ErrorIs(t, err, apperr.ErrNoOp)
}

func TestDecodeSpeakerPatchLimitsFields(t *testing.T) {
	_, err := DecodeSpeakerPatch([]byte(`{"speaker_notes":"hi","status":"submitted"}`))
	assert.ErrorIs(t, err, apperr.ErrAuth)

	_, err = DecodeSpeakerPatch([]byte(`{"financial_details":{"speaker_fee":1}}`))
	assert.ErrorIs(t, err, apperr.ErrAuth)

	p, err := DecodeSpeakerPatch([]byte(`{"speaker_notes":"hi","speaker_confirmed":false}`))
	require.NoError(t, err)
	require.NotNil(t, p.SpeakerConfirmed)
	assert.False(t, *p.SpeakerConfirmed)
	assert.Equal(t, "hi", *p.SpeakerNotes)
}

func TestGetIncludesProposalSummary(t *testing.T) {
	f := newFixture(t)
	created := f.ready(t)

	v, err := f.engine.Get(context.Background(), created.Offer.ID)
	require.NoError(t, err)
	require.NotNil(t, v.Proposal)
	assert.Equal(t, "Bo Speaker", v.Proposal.SpeakerName)
	assert.Equal(t, proposal.StatusAccepted, v.Proposal.Status)
}

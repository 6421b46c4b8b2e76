package notification_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KromaEnergia/speaker-booking/internal/notification"
	"github.com/KromaEnergia/speaker-booking/internal/notification/notificationtest"
)

func notice() notification.ContractNotice {
	return notification.ContractNotice{
		ContractID:     7,
		ContractNumber: "SPK-20260101-ABC123",
		EventTitle:     "Annual Summit",
		Client:         notification.Party{Name: "Ana", Email: "ana@client.test", URL: "https://x.test/sign/c"},
		Speaker:        notification.Party{Name: "Bo", Email: "bo@speaker.test", URL: "https://x.test/sign/s"},
	}
}

func TestContractSentEmailsBothParties(t *testing.T) {
	rec := &notificationtest.Recorder{}
	d := notification.NewDispatcher(rec, "bookings@agency.test", "Agency", zerolog.Nop())

	results := d.ContractSent(context.Background(), notice())
	require.Len(t, results, 2)
	for _, r := range results {
		assert.True(t, r.Delivered, r.Role)
	}

	client := rec.To("ana@client.test")
	require.Len(t, client, 1)
	assert.Contains(t, client[0].Text, "https://x.test/sign/c")
	assert.NotContains(t, client[0].Text, "https://x.test/sign/s")
	assert.Equal(t, "bookings@agency.test", client[0].From)
}

func TestFailuresAreReportedNotReturned(t *testing.T) {
	rec := &notificationtest.Recorder{Err: errors.New("provider down")}
	d := notification.NewDispatcher(rec, "from@x.test", "Agency", zerolog.Nop())

	results := d.ContractExecuted(context.Background(), notice())
	require.Len(t, results, 2)
	for _, r := range results {
		assert.False(t, r.Delivered)
		assert.Equal(t, "provider down", r.Error)
	}
}

func TestMissingAddressIsSkipped(t *testing.T) {
	rec := &notificationtest.Recorder{}
	d := notification.NewDispatcher(rec, "from@x.test", "Agency", zerolog.Nop())

	results := d.SpeakerResponded(context.Background(), notification.OfferNotice{
		OfferID: 1, EventTitle: "Gala", Speaker: notification.Party{Name: "Bo"}, Confirmed: true,
	})
	require.Len(t, results, 1)
	assert.False(t, results[0].Delivered)
	assert.Empty(t, rec.Sent())
}

func TestSpeakerResponseIncludesNotes(t *testing.T) {
	rec := &notificationtest.Recorder{}
	d := notification.NewDispatcher(rec, "from@x.test", "Agency", zerolog.Nop())

	d.SpeakerResponded(context.Background(), notification.OfferNotice{
		OfferID: 1, EventTitle: "Gala",
		Speaker: notification.Party{Name: "Bo"},
		Client:  notification.Party{Name: "Ana", Email: "ana@client.test"},
		Notes:   "Need a lapel mic",
	})
	msgs := rec.To("ana@client.test")
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Subject, "declined")
	assert.Contains(t, msgs[0].Text, "Need a lapel mic")
}

package notification

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Result reports the delivery outcome for one recipient. Callers surface it next to,
// never instead of, the outcome of the state change that triggered it.
type Result struct {
	Recipient string `json:"recipient"`
	Role      string `json:"role"`
	Delivered bool   `json:"delivered"`
	Error     string `json:"error,omitempty"`
}

// Party is someone a notice is addressed to.
type Party struct {
	Name  string
	Email string
	URL   string
}

// ContractNotice carries what contract emails need.
type ContractNotice struct {
	ContractID     uint
	ContractNumber string
	EventTitle     string
	Client         Party
	Speaker        Party
}

// OfferNotice carries what firm offer emails need.
type OfferNotice struct {
	OfferID    uint
	EventTitle string
	Speaker    Party
	Client     Party
	Confirmed  bool
	Notes      string
}

type Dispatcher struct {
	mailer Mailer
	from   string
	agency string
	log    zerolog.Logger
}

func NewDispatcher(mailer Mailer, from, agency string, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{mailer: mailer, from: from, agency: agency, log: log}
}

// ContractSent emails the signing links to both parties.
func (d *Dispatcher) ContractSent(ctx context.Context, n ContractNotice) []Result {
	subject := fmt.Sprintf("Contract %s ready for signature", n.ContractNumber)
	body := func(p Party) string {
		return fmt.Sprintf("Hello %s,\n\nThe contract for %q is ready for your signature.\n\nReview and sign: %s\n\n%s\n",
			p.Name, n.EventTitle, p.URL, d.agency)
	}
	return d.sendAll(ctx, "contract_id", n.ContractID,
		envelope{"client", n.Client, subject, body(n.Client)},
		envelope{"speaker", n.Speaker, subject, body(n.Speaker)},
	)
}

// ContractExecuted tells both parties every signature is in.
func (d *Dispatcher) ContractExecuted(ctx context.Context, n ContractNotice) []Result {
	subject := fmt.Sprintf("Contract %s fully executed", n.ContractNumber)
	body := func(p Party) string {
		return fmt.Sprintf("Hello %s,\n\nAll parties have signed the contract for %q. No further action is needed.\n\n%s\n",
			p.Name, n.EventTitle, d.agency)
	}
	return d.sendAll(ctx, "contract_id", n.ContractID,
		envelope{"client", n.Client, subject, body(n.Client)},
		envelope{"speaker", n.Speaker, subject, body(n.Speaker)},
	)
}

func (d *Dispatcher) OfferSentToSpeaker(ctx context.Context, n OfferNotice) []Result {
	subject := fmt.Sprintf("Firm offer: %s", n.EventTitle)
	body := fmt.Sprintf("Hello %s,\n\nA firm offer for %q is waiting for your confirmation.\n\nReview it here: %s\n\n%s\n",
		n.Speaker.Name, n.EventTitle, n.Speaker.URL, d.agency)
	return d.sendAll(ctx, "firm_offer_id", n.OfferID, envelope{"speaker", n.Speaker, subject, body})
}

func (d *Dispatcher) SpeakerResponded(ctx context.Context, n OfferNotice) []Result {
	verdict := "declined"
	if n.Confirmed {
		verdict = "confirmed"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n%s has %s the firm offer for %q.\n", n.Client.Name, n.Speaker.Name, verdict, n.EventTitle)
	if n.Notes != "" {
		fmt.Fprintf(&b, "\nSpeaker notes:\n%s\n", n.Notes)
	}
	fmt.Fprintf(&b, "\n%s\n", d.agency)
	subject := fmt.Sprintf("Speaker %s: %s", verdict, n.EventTitle)
	return d.sendAll(ctx, "firm_offer_id", n.OfferID, envelope{"client", n.Client, subject, b.String()})
}

type envelope struct {
	role    string
	to      Party
	subject string
	text    string
}

// sendAll delivers envelopes concurrently and returns results in input order.
func (d *Dispatcher) sendAll(ctx context.Context, entityKey string, entityID uint, envs ...envelope) []Result {
	results := make([]Result, len(envs))
	var g errgroup.Group
	for i, e := range envs {
		g.Go(func() error {
			results[i] = d.send(ctx, e.role, e.to, e.subject, e.text, entityKey, entityID)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (d *Dispatcher) send(ctx context.Context, role string, to Party, subject, text, entityKey string, entityID uint) Result {
	res := Result{Recipient: to.Email, Role: role}
	if to.Email == "" {
		res.Error = "no recipient address"
		d.log.Warn().Str("role", role).Uint(entityKey, entityID).Msg("notification skipped: missing email")
		return res
	}
	err := d.mailer.Send(ctx, Message{To: to.Email, ToName: to.Name, From: d.from, Subject: subject, Text: text})
	if err != nil {
		res.Error = err.Error()
		d.log.Warn().Err(err).
			Str("recipient", to.Email).
			Str("role", role).
			Uint(entityKey, entityID).
			Msg("notification failed")
		return res
	}
	res.Delivered = true
	return res
}

package firmoffer

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"strings"

	"gorm.io/gorm"

	"github.com/KromaEnergia/speaker-booking/internal/apperr"
	"github.com/KromaEnergia/speaker-booking/internal/token"
)

// SpeakerPatch is everything a speaker link may change.
type SpeakerPatch struct {
	SpeakerConfirmed *bool   `json:"speaker_confirmed"`
	SpeakerNotes     *string `json:"speaker_notes"`
}

var speakerFields = map[string]bool{"speaker_confirmed": true, "speaker_notes": true}

// DecodeSpeakerPatch parses a speaker request body and refuses any field outside
// the speaker's two.
func DecodeSpeakerPatch(body []byte) (SpeakerPatch, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return SpeakerPatch{}, apperr.Validation("invalid JSON: %v", err)
	}
	var denied []string
	for k := range raw {
		if !speakerFields[k] {
			denied = append(denied, k)
		}
	}
	if len(denied) > 0 {
		sort.Strings(denied)
		return SpeakerPatch{}, apperr.Auth("speaker links cannot change " + strings.Join(denied, ", "))
	}
	var p SpeakerPatch
	dec := json.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(&p); err != nil {
		return SpeakerPatch{}, apperr.Validation("invalid JSON: %v", err)
	}
	return p, nil
}

type SpeakerView struct {
	ID         uint   `json:"id"`
	Status     Status `json:"status"`
	EventTitle string `json:"event_title"`
	ClientName string `json:"client_name"`

	Sections
	Confirmation Confirmation `json:"confirmation"`
	CanRespond   bool         `json:"can_respond"`
	Message      string       `json:"message"`
}

func speakerView(o *FirmOffer) *SpeakerView {
	v := &SpeakerView{
		ID:           o.ID,
		Status:       o.Status,
		EventTitle:   o.EventTitle(),
		ClientName:   o.ClientName,
		Sections:     o.Sections,
		Confirmation: o.Confirmation,
		CanRespond:   o.Status == StatusSentToSpeaker,
	}
	switch o.Status {
	case StatusSentToSpeaker:
		v.Message = "Please review the offer and confirm or decline."
	case StatusSpeakerConfirmed:
		v.Message = "You have confirmed this offer. Thank you."
	case StatusDeclined:
		v.Message = "You have declined this offer."
	default:
		v.Message = "This offer is still being prepared."
	}
	return v
}

func (e *Engine) resolve(ctx context.Context, repo Repository, raw string) (*FirmOffer, error) {
	if !token.Valid(raw) {
		return nil, apperr.Auth("invalid or expired link")
	}
	return repo.FindByToken(ctx, raw)
}

func (e *Engine) ViewForSpeaker(ctx context.Context, raw string) (*SpeakerView, error) {
	o, err := e.resolve(ctx, e.repo, raw)
	if err != nil {
		return nil, err
	}
	return speakerView(o), nil
}

// RespondAsSpeaker applies a speaker's notes and answer through the same rules as Update.
func (e *Engine) RespondAsSpeaker(ctx context.Context, raw string, sp SpeakerPatch) (*SpeakerView, *UpdateResult, error) {
	if sp.SpeakerConfirmed == nil && sp.SpeakerNotes == nil {
		return nil, nil, apperr.NoOp("no fields to update")
	}

	var (
		out *FirmOffer
		fx  effects
	)
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		o, err := e.resolve(ctx, e.repo.WithDB(tx), raw)
		if err != nil {
			return err
		}
		if o.Status == StatusDraft || o.Status == StatusSubmitted {
			return apperr.InvalidState("firm offer has not been sent to the speaker")
		}
		fx, err = e.apply(ctx, tx, o, Patch{SpeakerConfirmed: sp.SpeakerConfirmed, SpeakerNotes: sp.SpeakerNotes})
		if err != nil {
			return err
		}
		out = o
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	res := e.afterCommit(ctx, out, fx)
	return speakerView(out), res, nil
}

package firmoffer

import (
	"time"

	"github.com/KromaEnergia/speaker-booking/internal/notification"
	"github.com/KromaEnergia/speaker-booking/internal/proposal"
)

type Status string

const (
	StatusDraft            Status = "draft"
	StatusSubmitted        Status = "submitted"
	StatusSentToSpeaker    Status = "sent_to_speaker"
	StatusSpeakerConfirmed Status = "speaker_confirmed"
	StatusDeclined         Status = "declined"
)

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusSubmitted, StatusSentToSpeaker, StatusSpeakerConfirmed, StatusDeclined:
		return true
	}
	return false
}

// Resolved reports whether the speaker has answered.
func (s Status) Resolved() bool {
	return s == StatusSpeakerConfirmed || s == StatusDeclined
}

// Editable reports whether intake sections may still change.
func (s Status) Editable() bool {
	return s == StatusDraft || s == StatusSubmitted
}

// FirmOffer is the structured logistics intake for a booked engagement.
type FirmOffer struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	DealID     uint   `gorm:"not null;index" json:"deal_id"`
	ProposalID *uint  `gorm:"index" json:"proposal_id,omitempty"`
	Status     Status `gorm:"size:20;not null;default:'draft';index" json:"status"`

	ClientName   string `gorm:"size:255" json:"client_name"`
	ClientEmail  string `gorm:"size:255" json:"client_email"`
	SpeakerName  string `gorm:"size:255" json:"speaker_name"`
	SpeakerEmail string `gorm:"size:255" json:"speaker_email"`

	Sections
	Confirmation Confirmation `gorm:"type:jsonb;serializer:json" json:"confirmation"`

	SpeakerTokenSeed string `gorm:"size:64;not null" json:"-"`
	SpeakerTokenHash string `gorm:"size:64;not null;uniqueIndex" json:"-"`

	SubmittedAt       *time.Time `json:"submitted_at,omitempty"`
	SentToSpeakerAt   *time.Time `json:"sent_to_speaker_at,omitempty"`
	SpeakerResponseAt *time.Time `json:"speaker_response_at,omitempty"`
}

func (FirmOffer) TableName() string { return "firm_offers" }

// EventTitle is the best available name for the event.
func (o *FirmOffer) EventTitle() string {
	if o.EventOverview != nil && o.EventOverview.EventName != "" {
		return o.EventOverview.EventName
	}
	return "your event"
}

// View is the admin read model: the offer plus its proposal's summary.
type View struct {
	Offer    *FirmOffer        `json:"firm_offer"`
	Proposal *proposal.Summary `json:"proposal,omitempty"`
	ShareURL string            `json:"share_url,omitempty"`
}

type Created struct {
	Offer        *FirmOffer `json:"firm_offer"`
	SpeakerToken string     `json:"speaker_access_token"`
	ShareURL     string     `json:"share_url"`
}

// UpdateResult reports a committed update. Notifications and ProjectID describe the
// side effects it triggered. ShareURL is set when the offer went to the speaker and is
// the same link Create returned.
type UpdateResult struct {
	Offer         *FirmOffer            `json:"firm_offer"`
	ShareURL      string                `json:"share_url,omitempty"`
	ProjectID     *uint                 `json:"project_id,omitempty"`
	Notifications []notification.Result `json:"notifications,omitempty"`
}

package proposal

import "time"

type Status string

const (
	StatusDraft    Status = "draft"
	StatusSent     Status = "sent"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusSent, StatusAccepted, StatusRejected:
		return true
	}
	return false
}

// Proposal is the speaker/event offer made to the client for a deal.
type Proposal struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	DealID       uint    `gorm:"not null;index" json:"deal_id"`
	SpeakerName  string  `gorm:"size:255;not null" json:"speaker_name"`
	SpeakerEmail string  `gorm:"size:255" json:"speaker_email"`
	SpeakerFee   float64 `gorm:"not null;default:0" json:"speaker_fee"`

	EventTitle    string     `gorm:"size:255" json:"event_title"`
	EventDate     *time.Time `json:"event_date,omitempty"`
	EventLocation string     `gorm:"size:255" json:"event_location"`
	EventFormat   string     `gorm:"size:50" json:"event_format"`

	Status      Status `gorm:"size:20;not null;default:'draft';index" json:"status"`
	FirmOfferID *uint  `json:"firm_offer_id,omitempty"`
}

func (Proposal) TableName() string { return "proposals" }

// Summary is the speaker/event digest shown next to a firm offer.
type Summary struct {
	ID            uint       `json:"id"`
	DealID        uint       `json:"deal_id"`
	SpeakerName   string     `json:"speaker_name"`
	SpeakerEmail  string     `json:"speaker_email"`
	EventTitle    string     `json:"event_title"`
	EventDate     *time.Time `json:"event_date,omitempty"`
	EventLocation string     `json:"event_location"`
	Status        Status     `json:"status"`
}

func (p Proposal) Summary() Summary {
	return Summary{
		ID:            p.ID,
		DealID:        p.DealID,
		SpeakerName:   p.SpeakerName,
		SpeakerEmail:  p.SpeakerEmail,
		EventTitle:    p.EventTitle,
		EventDate:     p.EventDate,
		EventLocation: p.EventLocation,
		Status:        p.Status,
	}
}

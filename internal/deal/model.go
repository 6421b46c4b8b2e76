package deal

import (
	"math"
	"time"
)

type Status string

const (
	StatusLead        Status = "lead"
	StatusQualified   Status = "qualified"
	StatusProposal    Status = "proposal"
	StatusNegotiation Status = "negotiation"
	StatusWon         Status = "won"
	StatusLost        Status = "lost"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (s Status) Valid() bool {
	switch s {
	case StatusLead, StatusQualified, StatusProposal, StatusNegotiation, StatusWon, StatusLost:
		return true
	}
	return false
}

// Terminal reports whether the deal can no longer move. Only lost is terminal.
func (s Status) Terminal() bool { return s == StatusLost }

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Deal is a sales-pipeline entity, from first inquiry to won or lost.
// Deals are never hard-deleted; they are marked lost.
type Deal struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ClientName        string `gorm:"size:255;not null" json:"client_name"`
	ClientEmail       string `gorm:"size:255;index" json:"client_email"`
	ClientCompany     string `gorm:"size:255" json:"client_company"`
	ClientPhone       string `gorm:"size:50" json:"client_phone,omitempty"`
	ExternalContactID string `gorm:"size:255;index" json:"external_contact_id,omitempty"`

	EventTitle    string     `gorm:"size:255" json:"event_title"`
	EventDate     *time.Time `json:"event_date,omitempty"`
	EventLocation string     `gorm:"size:255" json:"event_location"`
	EventType     string     `gorm:"size:50" json:"event_type"` // virtual | in_person | hybrid
	AttendeeCount int        `json:"attendee_count"`

	DealValue         float64 `gorm:"not null;default:0" json:"deal_value"`
	CommissionPercent float64 `gorm:"not null;default:0" json:"commission_percent"`
	CommissionAmount  float64 `gorm:"not null;default:0" json:"commission_amount"`
	BudgetMin         float64 `gorm:"not null;default:0" json:"budget_min"`
	BudgetMax         float64 `gorm:"not null;default:0" json:"budget_max"`

	Status   Status   `gorm:"size:20;not null;default:'lead';index" json:"status"`
	Priority Priority `gorm:"size:20;not null;default:'medium'" json:"priority"`

	Source      string     `gorm:"size:100" json:"source"`
	Notes       string     `gorm:"type:text" json:"notes"`
	LastContact *time.Time `json:"last_contact,omitempty"`
	FirmOfferID *uint      `json:"firm_offer_id,omitempty"`
}

func (Deal) TableName() string { return "deals" }

// RecomputeCommission derives the commission amount from value and percentage.
func (d *Deal) RecomputeCommission() {
	d.CommissionAmount = math.Round(d.DealValue*d.CommissionPercent) / 100
}

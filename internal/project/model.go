package project

import "time"

type Status string

const (
	StatusPlanning  Status = "planning"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Project is the operational record staff use to run a confirmed engagement.
type Project struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	FirmOfferID uint  `gorm:"not null;uniqueIndex" json:"firm_offer_id"`
	DealID      uint  `gorm:"not null;index" json:"deal_id"`
	ContractID  *uint `json:"contract_id,omitempty"`

	Title        string     `gorm:"size:255" json:"title"`
	EventDate    *time.Time `json:"event_date,omitempty"`
	Location     string     `gorm:"size:255" json:"location"`
	EventType    string     `gorm:"size:50" json:"event_type"`
	SpeakerName  string     `gorm:"size:255" json:"speaker_name"`
	SpeakerEmail string     `gorm:"size:255" json:"speaker_email"`
	ClientName   string     `gorm:"size:255" json:"client_name"`
	ClientEmail  string     `gorm:"size:255" json:"client_email"`
	Status       Status     `gorm:"size:20;not null;default:'planning'" json:"status"`
}

func (Project) TableName() string { return "projects" }

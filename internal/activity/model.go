package activity

import "time"

// Activity is an append-only history line on a deal.
// System entries come from status moves and webhook ingestion; others are staff notes.
type Activity struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	DealID    uint      `gorm:"not null;index" json:"deal_id"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	System    bool      `gorm:"not null;default:false" json:"system"`
	Actor     string    `gorm:"size:255" json:"actor,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

package contract

import (
	"time"

	"github.com/KromaEnergia/speaker-booking/internal/notification"
)

type Status string

const (
	StatusDraft           Status = "draft"
	StatusSent            Status = "sent"
	StatusPartiallySigned Status = "partially_signed"
	StatusFullyExecuted   Status = "fully_executed"
	StatusCancelled       Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusSent, StatusPartiallySigned, StatusFullyExecuted, StatusCancelled:
		return true
	}
	return false
}

func (s Status) Terminal() bool {
	return s == StatusFullyExecuted || s == StatusCancelled
}

// OpenForSignature reports whether signers may still record consent.
func (s Status) OpenForSignature() bool {
	return s == StatusSent || s == StatusPartiallySigned
}

// Contract is derived from a won deal. Event and financial fields are a snapshot
// taken at creation and only change while the contract is a draft.
type Contract struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ContractNumber string `gorm:"size:40;not null;uniqueIndex" json:"contract_number"`
	DealID         uint   `gorm:"not null;index" json:"deal_id"`
	Status         Status `gorm:"size:20;not null;default:'draft';index" json:"status"`

	ClientName        string `gorm:"size:255" json:"client_name"`
	ClientCompany     string `gorm:"size:255" json:"client_company"`
	ClientSignerName  string `gorm:"size:255" json:"client_signer_name"`
	ClientSignerEmail string `gorm:"size:255" json:"client_signer_email"`
	ClientSignerTitle string `gorm:"size:255" json:"client_signer_title,omitempty"`
	SpeakerName       string `gorm:"size:255" json:"speaker_name"`
	SpeakerEmail      string `gorm:"size:255" json:"speaker_email"`

	EventTitle    string     `gorm:"size:255" json:"event_title"`
	EventDate     *time.Time `json:"event_date,omitempty"`
	EventLocation string     `gorm:"size:255" json:"event_location"`
	EventType     string     `gorm:"size:50" json:"event_type"`
	AttendeeCount int        `json:"attendee_count"`

	SpeakerFee      float64 `gorm:"not null;default:0" json:"speaker_fee"`
	TotalAmount     float64 `gorm:"not null;default:0" json:"total_amount"`
	DepositPercent  float64 `gorm:"not null;default:50" json:"deposit_percent"`
	PaymentTerms    string  `gorm:"type:text" json:"payment_terms"`
	AdditionalTerms string  `gorm:"type:text" json:"additional_terms,omitempty"`
	Content         string  `gorm:"type:text" json:"content"`

	AccessTokenHash  string    `gorm:"size:64;not null;uniqueIndex" json:"-"`
	ClientTokenHash  string    `gorm:"size:64;not null;uniqueIndex" json:"-"`
	SpeakerTokenHash string    `gorm:"size:64;not null;uniqueIndex" json:"-"`
	ExpiresAt        time.Time `gorm:"not null" json:"expires_at"`

	SentAt          *time.Time `json:"sent_at,omitempty"`
	ClientSignedAt  *time.Time `json:"client_signed_at,omitempty"`
	ClientSignedBy  string     `gorm:"size:255" json:"client_signed_by,omitempty"`
	ClientSignedIP  string     `gorm:"size:64" json:"client_signed_ip,omitempty"`
	SpeakerSignedAt *time.Time `json:"speaker_signed_at,omitempty"`
	SpeakerSignedBy string     `gorm:"size:255" json:"speaker_signed_by,omitempty"`
	SpeakerSignedIP string     `gorm:"size:64" json:"speaker_signed_ip,omitempty"`
	ExecutedAt      *time.Time `json:"executed_at,omitempty"`
	CancelledAt     *time.Time `json:"cancelled_at,omitempty"`

	CreatedBy string `gorm:"size:255" json:"created_by,omitempty"`
	UpdatedBy string `gorm:"size:255" json:"updated_by,omitempty"`
}

func (Contract) TableName() string { return "contracts" }

// Signatures counts recorded party signatures.
func (c *Contract) Signatures() int {
	n := 0
	if c.ClientSignedAt != nil {
		n++
	}
	if c.SpeakerSignedAt != nil {
		n++
	}
	return n
}

// Tokens holds plaintext tokens. They exist only in responses to the call that issued them.
type Tokens struct {
	Access  string `json:"access_token,omitempty"`
	Client  string `json:"client_signing_token,omitempty"`
	Speaker string `json:"speaker_signing_token,omitempty"`
}

// Links are the signer URLs built from freshly issued tokens.
type Links struct {
	Preview string `json:"preview_url,omitempty"`
	Client  string `json:"client_signing_url,omitempty"`
	Speaker string `json:"speaker_signing_url,omitempty"`
}

type Created struct {
	Contract *Contract `json:"contract"`
	Tokens   Tokens    `json:"tokens"`
	Links    Links     `json:"links"`
}

// StatusResult reports a status change. Notifications describe email delivery separately
// from the change itself, which is already committed.
type StatusResult struct {
	Contract      *Contract             `json:"contract"`
	Tokens        *Tokens               `json:"tokens,omitempty"`
	Links         *Links                `json:"links,omitempty"`
	Notifications []notification.Result `json:"notifications,omitempty"`
}

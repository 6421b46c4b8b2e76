package firmoffer

import (
	"time"

	"github.com/KromaEnergia/speaker-booking/internal/apperr"
)

const dateLayout = "2006-01-02"

type EventOverview struct {
	EventName          string `json:"event_name"`
	EventDate          string `json:"event_date,omitempty"`
	EventType          string `json:"event_type,omitempty"`
	OrganizationName   string `json:"organization_name,omitempty"`
	Venue              string `json:"venue,omitempty"`
	City               string `json:"city,omitempty"`
	Country            string `json:"country,omitempty"`
	ExpectedAttendance int    `json:"expected_attendance,omitempty"`
	Audience           string `json:"audience,omitempty"`
}

func (s *EventOverview) validate() error {
	if s.EventDate != "" {
		if _, err := time.Parse(dateLayout, s.EventDate); err != nil {
			return apperr.Validation("event_overview.event_date must be YYYY-MM-DD")
		}
	}
	switch s.EventType {
	case "", "virtual", "in_person", "hybrid":
	default:
		return apperr.Validation("event_overview.event_type must be virtual, in_person or hybrid")
	}
	if s.ExpectedAttendance < 0 {
		return apperr.Validation("event_overview.expected_attendance cannot be negative")
	}
	return nil
}

type SpeakerProgram struct {
	SpeakerName     string `json:"speaker_name"`
	SessionTitle    string `json:"session_title"`
	SessionFormat   string `json:"session_format,omitempty"`
	DurationMinutes int    `json:"duration_minutes,omitempty"`
	QAIncluded      bool   `json:"qa_included"`
	Topics          string `json:"topics,omitempty"`
}

func (s *SpeakerProgram) validate() error {
	if s.DurationMinutes < 0 {
		return apperr.Validation("speaker_program.duration_minutes cannot be negative")
	}
	return nil
}

type EventSchedule struct {
	ArrivalTime  string `json:"arrival_time,omitempty"`
	SoundCheck   string `json:"sound_check,omitempty"`
	SessionStart string `json:"session_start,omitempty"`
	SessionEnd   string `json:"session_end,omitempty"`
	Notes        string `json:"notes,omitempty"`
}

type TechnicalRequirements struct {
	AVContact  string `json:"av_contact,omitempty"`
	Microphone string `json:"microphone,omitempty"`
	Projector  bool   `json:"projector"`
	Recording  bool   `json:"recording"`
	Livestream bool   `json:"livestream"`
	Platform   string `json:"platform,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

type TravelAccommodation struct {
	FlightsProvided bool   `json:"flights_provided"`
	FlightClass     string `json:"flight_class,omitempty"`
	HotelProvided   bool   `json:"hotel_provided"`
	HotelName       string `json:"hotel_name,omitempty"`
	HotelNights     int    `json:"hotel_nights,omitempty"`
	GroundTransport bool   `json:"ground_transport"`
	Notes           string `json:"notes,omitempty"`
}

func (s *TravelAccommodation) validate() error {
	if s.HotelNights < 0 {
		return apperr.Validation("travel_accommodation.hotel_nights cannot be negative")
	}
	return nil
}

type AdditionalInfo struct {
	DressCode          string `json:"dress_code,omitempty"`
	OnSiteContactName  string `json:"onsite_contact_name,omitempty"`
	OnSiteContactPhone string `json:"onsite_contact_phone,omitempty"`
	Notes              string `json:"notes,omitempty"`
}

type FinancialDetails struct {
	SpeakerFee     float64 `json:"speaker_fee"`
	Currency       string  `json:"currency"`
	TravelBudget   float64 `json:"travel_budget,omitempty"`
	DepositPercent float64 `json:"deposit_percent,omitempty"`
	PaymentTerms   string  `json:"payment_terms,omitempty"`
	InvoiceContact string  `json:"invoice_contact,omitempty"`
}

func (s *FinancialDetails) validate() error {
	switch {
	case s.SpeakerFee < 0:
		return apperr.Validation("financial_details.speaker_fee cannot be negative")
	case s.TravelBudget < 0:
		return apperr.Validation("financial_details.travel_budget cannot be negative")
	case s.DepositPercent < 0 || s.DepositPercent > 100:
		return apperr.Validation("financial_details.deposit_percent must be between 0 and 100")
	}
	return nil
}

// Confirmation is the speaker's answer.
type Confirmation struct {
	SpeakerConfirmed *bool      `json:"speaker_confirmed"`
	SpeakerNotes     string     `json:"speaker_notes,omitempty"`
	RespondedAt      *time.Time `json:"responded_at,omitempty"`
}

// Sections groups the seven intake sections. Nil means not filled in yet.
type Sections struct {
	EventOverview         *EventOverview         `gorm:"type:jsonb;serializer:json" json:"event_overview,omitempty"`
	SpeakerProgram        *SpeakerProgram        `gorm:"type:jsonb;serializer:json" json:"speaker_program,omitempty"`
	EventSchedule         *EventSchedule         `gorm:"type:jsonb;serializer:json" json:"event_schedule,omitempty"`
	TechnicalRequirements *TechnicalRequirements `gorm:"type:jsonb;serializer:json" json:"technical_requirements,omitempty"`
	TravelAccommodation   *TravelAccommodation   `gorm:"type:jsonb;serializer:json" json:"travel_accommodation,omitempty"`
	AdditionalInfo        *AdditionalInfo        `gorm:"type:jsonb;serializer:json" json:"additional_info,omitempty"`
	FinancialDetails      *FinancialDetails      `gorm:"type:jsonb;serializer:json" json:"financial_details,omitempty"`
}

// merge replaces every section present in p and returns the touched columns.
func (s *Sections) merge(p Sections) []string {
	var cols []string
	if p.EventOverview != nil {
		s.EventOverview, cols = p.EventOverview, append(cols, "event_overview")
	}
	if p.SpeakerProgram != nil {
		s.SpeakerProgram, cols = p.SpeakerProgram, append(cols, "speaker_program")
	}
	if p.EventSchedule != nil {
		s.EventSchedule, cols = p.EventSchedule, append(cols, "event_schedule")
	}
	if p.TechnicalRequirements != nil {
		s.TechnicalRequirements, cols = p.TechnicalRequirements, append(cols, "technical_requirements")
	}
	if p.TravelAccommodation != nil {
		s.TravelAccommodation, cols = p.TravelAccommodation, append(cols, "travel_accommodation")
	}
	if p.AdditionalInfo != nil {
		s.AdditionalInfo, cols = p.AdditionalInfo, append(cols, "additional_info")
	}
	if p.FinancialDetails != nil {
		s.FinancialDetails, cols = p.FinancialDetails, append(cols, "financial_details")
	}
	return cols
}

func (s *Sections) validate() error {
	if s.EventOverview != nil {
		if err := s.EventOverview.validate(); err != nil {
			return err
		}
	}
	if s.SpeakerProgram != nil {
		if err := s.SpeakerProgram.validate(); err != nil {
			return err
		}
	}
	if s.TravelAccommodation != nil {
		if err := s.TravelAccommodation.validate(); err != nil {
			return err
		}
	}
	if s.FinancialDetails != nil {
		if err := s.FinancialDetails.validate(); err != nil {
			return err
		}
	}
	return nil
}

// missingForSubmit lists what still blocks submission.
func (s *Sections) missingForSubmit() []string {
	var missing []string
	if s.EventOverview == nil || s.EventOverview.EventName == "" {
		missing = append(missing, "event_overview.event_name")
	}
	if s.SpeakerProgram == nil || s.SpeakerProgram.SessionTitle == "" {
		missing = append(missing, "speaker_program.session_title")
	}
	if s.FinancialDetails == nil || s.FinancialDetails.SpeakerFee <= 0 {
		missing = append(missing, "financial_details.speaker_fee")
	}
	return missing
}

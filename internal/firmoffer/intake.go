package firmoffer

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/KromaEnergia/speaker-booking/internal/apperr"
)

// Intake is the flat field map the intake form posts. Values may be strings,
// numbers or booleans; numeric and boolean strings are coerced.
type Intake map[string]any

type setter func(s *Sections, v any) error

var intakeFields = map[string]setter{
	"event_name":          overview(func(o *EventOverview, v any) error { return setString(&o.EventName, v) }),
	"event_title":         overview(func(o *EventOverview, v any) error { return setString(&o.EventName, v) }),
	"event_date":          overview(func(o *EventOverview, v any) error { return setDate(&o.EventDate, v) }),
	"event_type":          overview(func(o *EventOverview, v any) error { return setEventType(&o.EventType, v) }),
	"event_format":        overview(func(o *EventOverview, v any) error { return setEventType(&o.EventType, v) }),
	"organization_name":   overview(func(o *EventOverview, v any) error { return setString(&o.OrganizationName, v) }),
	"company":             overview(func(o *EventOverview, v any) error { return setString(&o.OrganizationName, v) }),
	"venue":               overview(func(o *EventOverview, v any) error { return setString(&o.Venue, v) }),
	"venue_name":          overview(func(o *EventOverview, v any) error { return setString(&o.Venue, v) }),
	"city":                overview(func(o *EventOverview, v any) error { return setString(&o.City, v) }),
	"country":             overview(func(o *EventOverview, v any) error { return setString(&o.Country, v) }),
	"expected_attendance": overview(func(o *EventOverview, v any) error { return setInt(&o.ExpectedAttendance, v) }),
	"attendee_count":      overview(func(o *EventOverview, v any) error { return setInt(&o.ExpectedAttendance, v) }),
	"audience":            overview(func(o *EventOverview, v any) error { return setString(&o.Audience, v) }),

	"speaker_name":       program(func(p *SpeakerProgram, v any) error { return setString(&p.SpeakerName, v) }),
	"session_title":      program(func(p *SpeakerProgram, v any) error { return setString(&p.SessionTitle, v) }),
	"presentation_title": program(func(p *SpeakerProgram, v any) error { return setString(&p.SessionTitle, v) }),
	"session_format":     program(func(p *SpeakerProgram, v any) error { return setString(&p.SessionFormat, v) }),
	"duration_minutes":   program(func(p *SpeakerProgram, v any) error { return setInt(&p.DurationMinutes, v) }),
	"session_duration":   program(func(p *SpeakerProgram, v any) error { return setInt(&p.DurationMinutes, v) }),
	"qa_included":        program(func(p *SpeakerProgram, v any) error { return setBool(&p.QAIncluded, v) }),
	"qa_session":         program(func(p *SpeakerProgram, v any) error { return setBool(&p.QAIncluded, v) }),
	"topics":             program(func(p *SpeakerProgram, v any) error { return setString(&p.Topics, v) }),

	"arrival_time":   schedule(func(s *EventSchedule, v any) error { return setString(&s.ArrivalTime, v) }),
	"sound_check":    schedule(func(s *EventSchedule, v any) error { return setString(&s.SoundCheck, v) }),
	"session_start":  schedule(func(s *EventSchedule, v any) error { return setString(&s.SessionStart, v) }),
	"start_time":     schedule(func(s *EventSchedule, v any) error { return setString(&s.SessionStart, v) }),
	"session_end":    schedule(func(s *EventSchedule, v any) error { return setString(&s.SessionEnd, v) }),
	"end_time":       schedule(func(s *EventSchedule, v any) error { return setString(&s.SessionEnd, v) }),
	"schedule_notes": schedule(func(s *EventSchedule, v any) error { return setString(&s.Notes, v) }),

	"av_contact":       technical(func(t *TechnicalRequirements, v any) error { return setString(&t.AVContact, v) }),
	"microphone":       technical(func(t *TechnicalRequirements, v any) error { return setString(&t.Microphone, v) }),
	"microphone_type":  technical(func(t *TechnicalRequirements, v any) error { return setString(&t.Microphone, v) }),
	"projector_needed": technical(func(t *TechnicalRequirements, v any) error { return setBool(&t.Projector, v) }),
	"recording":        technical(func(t *TechnicalRequirements, v any) error { return setBool(&t.Recording, v) }),
	"livestream":       technical(func(t *TechnicalRequirements, v any) error { return setBool(&t.Livestream, v) }),
	"platform":         technical(func(t *TechnicalRequirements, v any) error { return setString(&t.Platform, v) }),
	"technical_notes":  technical(func(t *TechnicalRequirements, v any) error { return setString(&t.Notes, v) }),

	"flights_provided": travel(func(t *TravelAccommodation, v any) error { return setBool(&t.FlightsProvided, v) }),
	"flight_class":     travel(func(t *TravelAccommodation, v any) error { return setString(&t.FlightClass, v) }),
	"hotel_provided":   travel(func(t *TravelAccommodation, v any) error { return setBool(&t.HotelProvided, v) }),
	"hotel_name":       travel(func(t *TravelAccommodation, v any) error { return setString(&t.HotelName, v) }),
	"hotel_nights":     travel(func(t *TravelAccommodation, v any) error { return setInt(&t.HotelNights, v) }),
	"ground_transport": travel(func(t *TravelAccommodation, v any) error { return setBool(&t.GroundTransport, v) }),
	"travel_notes":     travel(func(t *TravelAccommodation, v any) error { return setString(&t.Notes, v) }),

	"dress_code":           additional(func(a *AdditionalInfo, v any) error { return setString(&a.DressCode, v) }),
	"onsite_contact_name":  additional(func(a *AdditionalInfo, v any) error { return setString(&a.OnSiteContactName, v) }),
	"onsite_contact_phone": additional(func(a *AdditionalInfo, v any) error { return setString(&a.OnSiteContactPhone, v) }),
	"additional_notes":     additional(func(a *AdditionalInfo, v any) error { return setString(&a.Notes, v) }),

	"speaker_fee":     financial(func(f *FinancialDetails, v any) error { return setFloat(&f.SpeakerFee, v) }),
	"fee":             financial(func(f *FinancialDetails, v any) error { return setFloat(&f.SpeakerFee, v) }),
	"currency":        financial(func(f *FinancialDetails, v any) error { return setString(&f.Currency, v) }),
	"travel_budget":   financial(func(f *FinancialDetails, v any) error { return setFloat(&f.TravelBudget, v) }),
	"deposit_percent": financial(func(f *FinancialDetails, v any) error { return setFloat(&f.DepositPercent, v) }),
	"payment_terms":   financial(func(f *FinancialDetails, v any) error { return setString(&f.PaymentTerms, v) }),
	"invoice_contact": financial(func(f *FinancialDetails, v any) error { return setString(&f.InvoiceContact, v) }),
}

func overview(f func(*EventOverview, any) error) setter {
	return func(s *Sections, v any) error {
		if s.EventOverview == nil {
			s.EventOverview = &EventOverview{}
		}
		return f(s.EventOverview, v)
	}
}

func program(f func(*SpeakerProgram, any) error) setter {
	return func(s *Sections, v any) error {
		if s.SpeakerProgram == nil {
			s.SpeakerProgram = &SpeakerProgram{}
		}
		return f(s.SpeakerProgram, v)
	}
}

func schedule(f func(*EventSchedule, any) error) setter {
	return func(s *Sections, v any) error {
		if s.EventSchedule == nil {
			s.EventSchedule = &EventSchedule{}
		}
		return f(s.EventSchedule, v)
	}
}

func technical(f func(*TechnicalRequirements, any) error) setter {
	return func(s *Sections, v any) error {
		if s.TechnicalRequirements == nil {
			s.TechnicalRequirements = &TechnicalRequirements{}
		}
		return f(s.TechnicalRequirements, v)
	}
}

func travel(f func(*TravelAccommodation, any) error) setter {
	return func(s *Sections, v any) error {
		if s.TravelAccommodation == nil {
			s.TravelAccommodation = &TravelAccommodation{}
		}
		return f(s.TravelAccommodation, v)
	}
}

func additional(f func(*AdditionalInfo, any) error) setter {
	return func(s *Sections, v any) error {
		if s.AdditionalInfo == nil {
			s.AdditionalInfo = &AdditionalInfo{}
		}
		return f(s.AdditionalInfo, v)
	}
}

func financial(f func(*FinancialDetails, any) error) setter {
	return func(s *Sections, v any) error {
		if s.FinancialDetails == nil {
			s.FinancialDetails = &FinancialDetails{}
		}
		return f(s.FinancialDetails, v)
	}
}

// Apply writes the intake onto s, overriding whatever is already there. Empty values
// are skipped so defaults survive. Unknown keys are returned for logging.
func (in Intake) Apply(s *Sections) (unknown []string, err error) {
	keys := make([]string, 0, len(in))
	for k := range in {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := in[k]
		if isEmpty(v) {
			continue
		}
		set, ok := intakeFields[strings.ToLower(k)]
		if !ok {
			unknown = append(unknown, k)
			continue
		}
		if err := set(s, v); err != nil {
			return unknown, apperr.Validation("field %s: %v", k, err)
		}
	}
	return unknown, nil
}

// applyDefaults fills optional values the intake form leaves out.
func (s *Sections) applyDefaults() {
	if s.SpeakerProgram != nil {
		if s.SpeakerProgram.SessionFormat == "" {
			s.SpeakerProgram.SessionFormat = "keynote"
		}
		if s.SpeakerProgram.DurationMinutes == 0 {
			s.SpeakerProgram.DurationMinutes = 60
		}
	}
	if s.FinancialDetails != nil && s.FinancialDetails.Currency == "" {
		s.FinancialDetails.Currency = "USD"
	}
	if s.FinancialDetails != nil {
		s.FinancialDetails.Currency = strings.ToUpper(s.FinancialDetails.Currency)
	}
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	}
	return false
}

func setString(dst *string, v any) error {
	switch t := v.(type) {
	case string:
		*dst = strings.TrimSpace(t)
	case float64:
		*dst = strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		*dst = strconv.FormatBool(t)
	default:
		return fmt.Errorf("unsupported value %v", v)
	}
	return nil
}

func setInt(dst *int, v any) error {
	var f float64
	if err := setFloat(&f, v); err != nil {
		return err
	}
	if f != math.Trunc(f) {
		return fmt.Errorf("%v is not a whole number", v)
	}
	*dst = int(f)
	return nil
}

func setFloat(dst *float64, v any) error {
	switch t := v.(type) {
	case float64:
		*dst = t
	case int:
		*dst = float64(t)
	case string:
		clean := strings.NewReplacer(",", "", "$", "", " ", "").Replace(t)
		f, err := strconv.ParseFloat(clean, 64)
		if err != nil {
			return fmt.Errorf("%q is not a number", t)
		}
		*dst = f
	default:
		return fmt.Errorf("unsupported value %v", v)
	}
	return nil
}

func setBool(dst *bool, v any) error {
	switch t := v.(type) {
	case bool:
		*dst = t
	case float64:
		*dst = t != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "yes", "y", "1", "on":
			*dst = true
		case "false", "no", "n", "0", "off":
			*dst = false
		default:
			return fmt.Errorf("%q is not a yes/no value", t)
		}
	default:
		return fmt.Errorf("unsupported value %v", v)
	}
	return nil
}

func setDate(dst *string, v any) error {
	s, ok := v.(string)
	if !ok {
		return fmt.Errorf("unsupported value %v", v)
	}
	s = strings.TrimSpace(s)
	for _, layout := range []string{dateLayout, time.RFC3339, "01/02/2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			*dst = t.Format(dateLayout)
			return nil
		}
	}
	return fmt.Errorf("%q is not a date", s)
}

func setEventType(dst *string, v any) error {
	s, ok := v.(string)
	if !ok {
		return fmt.Errorf("unsupported value %v", v)
	}
	*dst = normalizeEventType(s)
	return nil
}

func normalizeEventType(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "virtual", "online", "remote":
		return "virtual"
	case "hybrid":
		return "hybrid"
	case "":
		return ""
	default:
		return "in_person"
	}
}

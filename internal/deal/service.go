package deal

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/KromaEnergia/speaker-booking/internal/activity"
	"github.com/KromaEnergia/speaker-booking/internal/apperr"
)

// Service owns pipeline moves on deals. Every move writes a note line and an activity row.
type Service struct {
	db         *gorm.DB
	deals      Repository
	activities activity.Repository
	log        zerolog.Logger
	now        func() time.Time
}

func NewService(db *gorm.DB, deals Repository, activities activity.Repository, log zerolog.Logger) *Service {
	return &Service{
		db:         db,
		deals:      deals,
		activities: activities,
		log:        log,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Inquiry is what the public website form sends.
type Inquiry struct {
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	Company       string     `json:"company"`
	Phone         string     `json:"phone"`
	EventTitle    string     `json:"event_title"`
	EventDate     *time.Time `json:"event_date"`
	EventLocation string     `json:"event_location"`
	EventType     string     `json:"event_type"`
	AttendeeCount int        `json:"attendee_count"`
	BudgetMin     float64    `json:"budget_min"`
	BudgetMax     float64    `json:"budget_max"`
	Message       string     `json:"message"`
}

// StatusChange is an admin pipeline move. Status may equal the current status to only
// change priority or record a note.
type StatusChange struct {
	Status   Status   `json:"status"`
	Priority Priority `json:"priority,omitempty"`
	Note     string   `json:"note,omitempty"`
	Actor    string   `json:"-"`
}

// CreateInquiry stores an inbound website inquiry as a new lead.
func (s *Service) CreateInquiry(ctx context.Context, in Inquiry) (*Deal, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, apperr.Validation("name is required")
	}
	if !strings.Contains(in.Email, "@") {
		return nil, apperr.Validation("a valid email is required")
	}
	if in.BudgetMax > 0 && in.BudgetMin > in.BudgetMax {
		return nil, apperr.Validation("budget_min cannot exceed budget_max")
	}

	now := s.now()
	d := &Deal{
		ClientName:    strings.TrimSpace(in.Name),
		ClientEmail:   NormalizeEmail(in.Email),
		ClientCompany: strings.TrimSpace(in.Company),
		ClientPhone:   strings.TrimSpace(in.Phone),
		EventTitle:    strings.TrimSpace(in.EventTitle),
		EventDate:     in.EventDate,
		EventLocation: strings.TrimSpace(in.EventLocation),
		EventType:     normalizeEventType(in.EventType),
		AttendeeCount: in.AttendeeCount,
		BudgetMin:     in.BudgetMin,
		BudgetMax:     in.BudgetMax,
		Status:        StatusLead,
		Priority:      PriorityMedium,
		Source:        "website",
		LastContact:   &now,
	}
	if msg := strings.TrimSpace(in.Message); msg != "" {
		d.Notes = s.noteLine("website inquiry", msg) + "\n"
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.deals.WithDB(tx).Create(ctx, d); err != nil {
			return err
		}
		return s.activities.WithDB(tx).Record(ctx, &activity.Activity{
			DealID: d.ID, Text: "deal created from website inquiry", System: true,
		})
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) Get(ctx context.Context, id uint) (*Deal, error) {
	return s.deals.FindByID(ctx, id)
}

func (s *Service) List(ctx context.Context, f Filter) ([]Deal, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, apperr.Validation("unknown status %q", f.Status)
	}
	if f.Priority != "" && !f.Priority.Valid() {
		return nil, apperr.Validation("unknown priority %q", f.Priority)
	}
	return s.deals.List(ctx, f)
}

// UpdateStatus moves a deal through the pipeline. A lost deal cannot be moved.
func (s *Service) UpdateStatus(ctx context.Context, id uint, ch StatusChange) (*Deal, error) {
	if !ch.Status.Valid() {
		return nil, apperr.Validation("unknown status %q", ch.Status)
	}
	if ch.Priority != "" && !ch.Priority.Valid() {
		return nil, apperr.Validation("unknown priority %q", ch.Priority)
	}

	var out *Deal
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		deals := s.deals.WithDB(tx)
		d, err := deals.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if d.Status.Terminal() {
			return apperr.InvalidState("deal %d is lost and cannot be changed", id)
		}

		now := s.now()
		fields := map[string]any{"status": ch.Status, "last_contact": now}
		if ch.Priority != "" {
			fields["priority"] = ch.Priority
		}
		if err := deals.Update(ctx, id, fields); err != nil {
			return err
		}

		text := fmt.Sprintf("status %s -> %s", d.Status, ch.Status)
		if ch.Priority != "" && ch.Priority != d.Priority {
			text += fmt.Sprintf(", priority %s -> %s", d.Priority, ch.Priority)
		}
		if n := strings.TrimSpace(ch.Note); n != "" {
			text += ": " + n
		}
		if err := deals.AppendNote(ctx, id, s.noteLine(ch.Actor, text)); err != nil {
			return err
		}
		if err := s.activities.WithDB(tx).Record(ctx, &activity.Activity{
			DealID: id, Text: text, System: true, Actor: ch.Actor,
		}); err != nil {
			return err
		}

		out, err = deals.FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// AddNote appends a staff note without moving the deal. Lost deals still accept notes.
func (s *Service) AddNote(ctx context.Context, id uint, text, actor string) (*Deal, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperr.Validation("note text is required")
	}

	var out *Deal
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		deals := s.deals.WithDB(tx)
		if err := deals.AppendNote(ctx, id, s.noteLine(actor, text)); err != nil {
			return err
		}
		if err := deals.Update(ctx, id, map[string]any{"last_contact": s.now()}); err != nil {
			return err
		}
		if err := s.activities.WithDB(tx).Record(ctx, &activity.Activity{
			DealID: id, Text: text, Actor: actor,
		}); err != nil {
			return err
		}
		var err error
		out, err = deals.FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Details is an admin edit of a deal's client, event and valuation fields.
// Nil fields are left untouched.
type Details struct {
	ClientName        *string    `json:"client_name,omitempty"`
	ClientEmail       *string    `json:"client_email,omitempty"`
	ClientCompany     *string    `json:"client_company,omitempty"`
	ClientPhone       *string    `json:"client_phone,omitempty"`
	EventTitle        *string    `json:"event_title,omitempty"`
	EventDate         *time.Time `json:"event_date,omitempty"`
	EventLocation     *string    `json:"event_location,omitempty"`
	EventType         *string    `json:"event_type,omitempty"`
	AttendeeCount     *int       `json:"attendee_count,omitempty"`
	DealValue         *float64   `json:"deal_value,omitempty"`
	CommissionPercent *float64   `json:"commission_percent,omitempty"`
	BudgetMin         *float64   `json:"budget_min,omitempty"`
	BudgetMax         *float64   `json:"budget_max,omitempty"`
	Actor             string     `json:"-"`
}

// apply copies the set fields onto d and returns the changed column names.
func (in Details) apply(d *Deal) ([]string, error) {
	var cols []string
	str := func(col string, dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
			cols = append(cols, col)
		}
	}
	num := func(col string, dst *float64, v *float64) error {
		if v == nil {
			return nil
		}
		if *v < 0 {
			return apperr.Validation("%s cannot be negative", col)
		}
		*dst = *v
		cols = append(cols, col)
		return nil
	}

	if in.ClientName != nil && strings.TrimSpace(*in.ClientName) == "" {
		return nil, apperr.Validation("client_name cannot be empty")
	}
	str("client_name", &d.ClientName, in.ClientName)
	if in.ClientEmail != nil {
		if !strings.Contains(*in.ClientEmail, "@") {
			return nil, apperr.Validation("a valid email is required")
		}
		d.ClientEmail = NormalizeEmail(*in.ClientEmail)
		cols = append(cols, "client_email")
	}
	str("client_company", &d.ClientCompany, in.ClientCompany)
	str("client_phone", &d.ClientPhone, in.ClientPhone)
	str("event_title", &d.EventTitle, in.EventTitle)
	str("event_location", &d.EventLocation, in.EventLocation)
	if in.EventDate != nil {
		d.EventDate = in.EventDate
		cols = append(cols, "event_date")
	}
	if in.EventType != nil {
		d.EventType = normalizeEventType(*in.EventType)
		cols = append(cols, "event_type")
	}
	if in.AttendeeCount != nil {
		if *in.AttendeeCount < 0 {
			return nil, apperr.Validation("attendee_count cannot be negative")
		}
		d.AttendeeCount = *in.AttendeeCount
		cols = append(cols, "attendee_count")
	}
	for _, f := range []struct {
		col string
		dst *float64
		v   *float64
	}{
		{"deal_value", &d.DealValue, in.DealValue},
		{"commission_percent", &d.CommissionPercent, in.CommissionPercent},
		{"budget_min", &d.BudgetMin, in.BudgetMin},
		{"budget_max", &d.BudgetMax, in.BudgetMax},
	} {
		if err := num(f.col, f.dst, f.v); err != nil {
			return nil, err
		}
	}
	if d.CommissionPercent > 100 {
		return nil, apperr.Validation("commission_percent must be between 0 and 100")
	}
	if d.BudgetMax > 0 && d.BudgetMin > d.BudgetMax {
		return nil, apperr.Validation("budget_min cannot exceed budget_max")
	}
	return cols, nil
}

// UpdateDetails edits client, event and valuation fields and recomputes the commission.
// Lost deals cannot be edited.
func (s *Service) UpdateDetails(ctx context.Context, id uint, in Details) (*Deal, error) {
	var out *Deal
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		deals := s.deals.WithDB(tx)
		d, err := deals.FindByID(ctx, id)
		if err != nil {
			return err
		}
		cols, err := in.apply(d)
		if err != nil {
			return err
		}
		if len(cols) == 0 {
			return apperr.NoOp("no fields to update")
		}
		if d.Status.Terminal() {
			return apperr.InvalidState("deal %d is lost and cannot be changed", id)
		}
		d.RecomputeCommission()

		fields := map[string]any{"commission_amount": d.CommissionAmount}
		for _, c := range cols {
			fields[c] = columnValue(d, c)
		}
		if err := deals.Update(ctx, id, fields); err != nil {
			return err
		}

		text := "updated " + strings.Join(cols, ", ")
		if err := deals.AppendNote(ctx, id, s.noteLine(in.Actor, text)); err != nil {
			return err
		}
		if err := s.activities.WithDB(tx).Record(ctx, &activity.Activity{
			DealID: id, Text: text, System: true, Actor: in.Actor,
		}); err != nil {
			return err
		}

		out, err = deals.FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func columnValue(d *Deal, col string) any {
	switch col {
	case "client_name":
		return d.ClientName
	case "client_email":
		return d.ClientEmail
	case "client_company":
		return d.ClientCompany
	case "client_phone":
		return d.ClientPhone
	case "event_title":
		return d.EventTitle
	case "event_date":
		return d.EventDate
	case "event_location":
		return d.EventLocation
	case "event_type":
		return d.EventType
	case "attendee_count":
		return d.AttendeeCount
	case "deal_value":
		return d.DealValue
	case "commission_percent":
		return d.CommissionPercent
	case "budget_min":
		return d.BudgetMin
	case "budget_max":
		return d.BudgetMax
	}
	return nil
}

func (s *Service) noteLine(actor, text string) string {
	stamp := s.now().Format("2006-01-02 15:04 MST")
	if actor == "" {
		return fmt.Sprintf("[%s] %s", stamp, text)
	}
	return fmt.Sprintf("[%s] (%s) %s", stamp, actor, text)
}

func normalizeEventType(t string) string {
	switch strings.ToLower(strings.TrimSpace(t)) {
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

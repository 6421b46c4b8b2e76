package proposal

import (
	"context"
	"strings"
	"time"

	"github.com/KromaEnergia/speaker-booking/internal/apperr"
	"github.com/KromaEnergia/speaker-booking/internal/deal"
)

// DealReader is the slice of the deal pipeline proposals need.
type DealReader interface {
	Get(ctx context.Context, id uint) (*deal.Deal, error)
}

var transitions = map[Status]map[Status]bool{
	StatusDraft:    {StatusSent: true, StatusAccepted: true, StatusRejected: true},
	StatusSent:     {StatusAccepted: true, StatusRejected: true},
	StatusAccepted: {},
	StatusRejected: {},
}

type Service struct {
	repo  Repository
	deals DealReader
}

func NewService(repo Repository, deals DealReader) *Service {
	return &Service{repo: repo, deals: deals}
}

type CreateInput struct {
	DealID        uint       `json:"deal_id"`
	SpeakerName   string     `json:"speaker_name"`
	SpeakerEmail  string     `json:"speaker_email"`
	SpeakerFee    float64    `json:"speaker_fee"`
	EventTitle    string     `json:"event_title"`
	EventDate     *time.Time `json:"event_date"`
	EventLocation string     `json:"event_location"`
	EventFormat   string     `json:"event_format"`
}

// Create records a proposal for a live deal. Event fields default to the deal's.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Proposal, error) {
	if in.DealID == 0 {
		return nil, apperr.Validation("deal_id is required")
	}
	if strings.TrimSpace(in.SpeakerName) == "" {
		return nil, apperr.Validation("speaker_name is required")
	}
	if in.SpeakerFee < 0 {
		return nil, apperr.Validation("speaker_fee cannot be negative")
	}
	d, err := s.deals.Get(ctx, in.DealID)
	if err != nil {
		return nil, err
	}
	if d.Status.Terminal() {
		return nil, apperr.InvalidState("deal %d is lost", d.ID)
	}

	p := &Proposal{
		DealID:        d.ID,
		SpeakerName:   strings.TrimSpace(in.SpeakerName),
		SpeakerEmail:  deal.NormalizeEmail(in.SpeakerEmail),
		SpeakerFee:    in.SpeakerFee,
		EventTitle:    orDefault(in.EventTitle, d.EventTitle),
		EventDate:     in.EventDate,
		EventLocation: orDefault(in.EventLocation, d.EventLocation),
		EventFormat:   orDefault(in.EventFormat, d.EventType),
		Status:        StatusDraft,
	}
	if p.EventDate == nil {
		p.EventDate = d.EventDate
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, id uint) (*Proposal, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *Service) ListByDeal(ctx context.Context, dealID uint) ([]Proposal, error) {
	return s.repo.ListByDeal(ctx, dealID)
}

func (s *Service) UpdateStatus(ctx context.Context, id uint, to Status) (*Proposal, error) {
	if !to.Valid() {
		return nil, apperr.Validation("unknown proposal status %q", to)
	}
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status == to {
		return p, nil
	}
	if !transitions[p.Status][to] {
		return nil, apperr.InvalidTransition(string(p.Status), string(to))
	}
	if err := s.repo.Update(ctx, id, map[string]any{"status": to}); err != nil {
		return nil, err
	}
	p.Status = to
	return p, nil
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v == "" {
		return def
	}
	return v
}

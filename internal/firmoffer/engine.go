package firmoffer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/KromaEnergia/speaker-booking/internal/apperr"
	"github.com/KromaEnergia/speaker-booking/internal/deal"
	"github.com/KromaEnergia/speaker-booking/internal/notification"
	"github.com/KromaEnergia/speaker-booking/internal/proposal"
	"github.com/KromaEnergia/speaker-booking/internal/token"
)

// ProjectMaterializer turns a confirmed offer into a downstream project.
// It runs inside the confirming transaction.
type ProjectMaterializer interface {
	Materialize(ctx context.Context, tx *gorm.DB, o *FirmOffer) (uint, error)
}

type Engine struct {
	db        *gorm.DB
	repo      Repository
	deals     deal.Repository
	proposals proposal.Repository
	issuer    *token.Issuer
	notifier  *notification.Dispatcher
	projects  ProjectMaterializer
	baseURL   string
	log       zerolog.Logger
	now       func() time.Time
}

func NewEngine(db *gorm.DB, repo Repository, deals deal.Repository, proposals proposal.Repository,
	issuer *token.Issuer, notifier *notification.Dispatcher, projects ProjectMaterializer,
	baseURL string, log zerolog.Logger) *Engine {
	return &Engine{
		db:        db,
		repo:      repo,
		deals:     deals,
		proposals: proposals,
		issuer:    issuer,
		notifier:  notifier,
		projects:  projects,
		baseURL:   baseURL,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Source names what the offer is created from. With only a deal, the deal's
// latest live proposal is used.
type Source struct {
	ProposalID uint `json:"proposal_id"`
	DealID     uint `json:"deal_id"`
}

type CreateInput struct {
	Source
	Fields Intake `json:"fields"`
}

func (e *Engine) shareURL(raw string) string {
	return e.baseURL + "/speaker/firm-offers/" + raw
}

// speakerToken recomputes the offer's speaker token from its stored seed.
func (e *Engine) speakerToken(o *FirmOffer) (string, error) {
	raw, err := e.issuer.Derive(token.RoleSpeakerOffer, o.SpeakerTokenSeed)
	if err != nil {
		return "", fmt.Errorf("derive speaker token: %w", err)
	}
	return raw, nil
}

// Create builds a draft offer from the intake fields and links it back to its deal and proposal.
func (e *Engine) Create(ctx context.Context, in CreateInput) (*Created, error) {
	if in.ProposalID == 0 && in.DealID == 0 {
		return nil, apperr.Validation("proposal_id or deal_id is required")
	}
	seed, err := e.issuer.Issue()
	if err != nil {
		return nil, fmt.Errorf("issue speaker token seed: %w", err)
	}
	raw, err := e.issuer.Derive(token.RoleSpeakerOffer, seed)
	if err != nil {
		return nil, fmt.Errorf("derive speaker token: %w", err)
	}

	var out *FirmOffer
	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		proposals, deals := e.proposals.WithDB(tx), e.deals.WithDB(tx)

		var (
			p   *proposal.Proposal
			err error
		)
		if in.ProposalID != 0 {
			if p, err = proposals.FindByID(ctx, in.ProposalID); err != nil {
				return err
			}
			if in.DealID != 0 && in.DealID != p.DealID {
				return apperr.Validation("proposal %d does not belong to deal %d", p.ID, in.DealID)
			}
		} else if p, err = proposals.LatestForDeal(ctx, in.DealID); err != nil {
			return err
		}
		if p.Status == proposal.StatusRejected {
			return apperr.InvalidState("proposal %d was rejected", p.ID)
		}

		d, err := deals.FindByID(ctx, p.DealID)
		if err != nil {
			return err
		}
		if d.Status.Terminal() {
			return apperr.InvalidState("deal %d is lost", d.ID)
		}

		o := &FirmOffer{
			DealID:           d.ID,
			ProposalID:       &p.ID,
			Status:           StatusDraft,
			ClientName:       d.ClientName,
			ClientEmail:      d.ClientEmail,
			SpeakerName:      p.SpeakerName,
			SpeakerEmail:     p.SpeakerEmail,
			Sections:         seedSections(d, p),
			SpeakerTokenSeed: seed,
			SpeakerTokenHash: token.Hash(raw),
		}
		unknown, err := in.Fields.Apply(&o.Sections)
		if err != nil {
			return err
		}
		if len(unknown) > 0 {
			e.log.Debug().Strs("fields", unknown).Msg("ignored unknown intake fields")
		}
		o.applyDefaults()
		if err := o.Sections.validate(); err != nil {
			return err
		}

		if err := e.repo.WithDB(tx).Create(ctx, o); err != nil {
			return err
		}
		if err := deals.Update(ctx, d.ID, map[string]any{"firm_offer_id": o.ID}); err != nil {
			return err
		}
		if err := proposals.Update(ctx, p.ID, map[string]any{"firm_offer_id": o.ID}); err != nil {
			return err
		}
		out = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.log.Info().Uint("firm_offer_id", out.ID).Uint("deal_id", out.DealID).Msg("firm offer created")
	return &Created{Offer: out, SpeakerToken: raw, ShareURL: e.shareURL(raw)}, nil
}

// seedSections prefills what the deal and proposal already know.
func seedSections(d *deal.Deal, p *proposal.Proposal) Sections {
	ov := &EventOverview{
		EventName:          orDefault(p.EventTitle, d.EventTitle),
		EventType:          normalizeEventType(orDefault(p.EventFormat, d.EventType)),
		OrganizationName:   d.ClientCompany,
		Venue:              orDefault(p.EventLocation, d.EventLocation),
		ExpectedAttendance: d.AttendeeCount,
	}
	date := p.EventDate
	if date == nil {
		date = d.EventDate
	}
	if date != nil {
		ov.EventDate = date.UTC().Format(dateLayout)
	}
	s := Sections{
		EventOverview:  ov,
		SpeakerProgram: &SpeakerProgram{SpeakerName: p.SpeakerName},
	}
	if p.SpeakerFee > 0 {
		s.FinancialDetails = &FinancialDetails{SpeakerFee: p.SpeakerFee}
	}
	return s
}

// Patch is a partial update. A present section replaces the stored one wholesale.
type Patch struct {
	Sections
	Status           *Status `json:"status,omitempty"`
	SpeakerConfirmed *bool   `json:"speaker_confirmed,omitempty"`
	SpeakerNotes     *string `json:"speaker_notes,omitempty"`
}

func (p Patch) empty() bool {
	s := p.Sections
	return p.Status == nil && p.SpeakerConfirmed == nil && p.SpeakerNotes == nil &&
		s.EventOverview == nil && s.SpeakerProgram == nil && s.EventSchedule == nil &&
		s.TechnicalRequirements == nil && s.TravelAccommodation == nil &&
		s.AdditionalInfo == nil && s.FinancialDetails == nil
}

var statusRank = map[Status]int{
	StatusDraft:            0,
	StatusSubmitted:        1,
	StatusSentToSpeaker:    2,
	StatusSpeakerConfirmed: 3,
	StatusDeclined:         3,
}

// effects records what a committed update must trigger afterwards.
type effects struct {
	sentToSpeaker bool
	speakerToken  string
	responded     bool
	projectID     *uint
}

// Update applies a partial patch. Sections merge first, then the status move, then the
// speaker's answer. Every stamp is set once and never cleared.
func (e *Engine) Update(ctx context.Context, id uint, p Patch) (*UpdateResult, error) {
	if p.empty() {
		return nil, apperr.NoOp("no fields to update")
	}
	if p.Status != nil && !p.Status.Valid() {
		return nil, apperr.Validation("unknown firm offer status %q", *p.Status)
	}
	if err := p.Sections.validate(); err != nil {
		return nil, err
	}

	var (
		out *FirmOffer
		fx  effects
	)
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := e.repo.WithDB(tx)
		o, err := repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		fx, err = e.apply(ctx, tx, o, p)
		if err != nil {
			return err
		}
		out = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return e.afterCommit(ctx, out, fx), nil
}

func (e *Engine) apply(ctx context.Context, tx *gorm.DB, o *FirmOffer, p Patch) (effects, error) {
	var fx effects
	before := o.Status
	now := e.now()

	cols := o.Sections.merge(p.Sections)
	if len(cols) > 0 && !before.Editable() {
		return fx, apperr.InvalidState("firm offer is %s, sections can no longer change", before)
	}

	if p.Status != nil && *p.Status != o.Status {
		to := *p.Status
		if statusRank[to] <= statusRank[o.Status] || o.Status.Resolved() {
			return fx, apperr.InvalidTransition(string(o.Status), string(to))
		}
		if statusRank[to] != statusRank[o.Status]+1 {
			return fx, apperr.InvalidTransition(string(o.Status), string(to))
		}
		switch to {
		case StatusSubmitted:
			if missing := o.missingForSubmit(); len(missing) > 0 {
				return fx, apperr.Validation("cannot submit, missing %s", strings.Join(missing, ", "))
			}
			o.SubmittedAt = &now
			cols = append(cols, "submitted_at")
		case StatusSentToSpeaker:
			if o.SpeakerEmail == "" {
				return fx, apperr.Validation("the proposal has no speaker email")
			}
			raw, err := e.speakerToken(o)
			if err != nil {
				return fx, err
			}
			o.SentToSpeakerAt = &now
			fx.sentToSpeaker, fx.speakerToken = true, raw
			cols = append(cols, "sent_to_speaker_at")
		case StatusSpeakerConfirmed, StatusDeclined:
			confirmed := to == StatusSpeakerConfirmed
			if p.SpeakerConfirmed != nil && *p.SpeakerConfirmed != confirmed {
				return fx, apperr.Validation("status %s contradicts speaker_confirmed", to)
			}
			p.SpeakerConfirmed = &confirmed
		}
		if to != StatusSpeakerConfirmed && to != StatusDeclined {
			o.Status = to
			cols = append(cols, "status")
		}
	}

	if p.SpeakerConfirmed != nil {
		answered, err := respond(o, *p.SpeakerConfirmed, now)
		if err != nil {
			return fx, err
		}
		if answered {
			fx.responded = true
			cols = append(cols, "status", "confirmation", "speaker_response_at")
		}
	}
	if p.SpeakerNotes != nil {
		o.Confirmation.SpeakerNotes = strings.TrimSpace(*p.SpeakerNotes)
		cols = append(cols, "confirmation")
	}

	if len(cols) == 0 {
		// only idempotent repeats
		return fx, nil
	}
	ok, err := e.repo.WithDB(tx).Save(ctx, o, before, dedupe(cols))
	if err != nil {
		return fx, err
	}
	if !ok {
		return fx, apperr.Conflict("firm offer %d changed concurrently, reload and retry", o.ID)
	}

	if fx.responded && o.Status == StatusSpeakerConfirmed && e.projects != nil {
		pid, err := e.projects.Materialize(ctx, tx, o)
		if err != nil {
			return fx, err
		}
		fx.projectID = &pid
	}
	return fx, nil
}

// respond records the speaker's answer. A repeat of the same answer is a no-op.
func respond(o *FirmOffer, confirmed bool, now time.Time) (bool, error) {
	target := StatusDeclined
	if confirmed {
		target = StatusSpeakerConfirmed
	}
	if o.Status.Resolved() {
		if o.Status == target {
			return false, nil
		}
		return false, apperr.InvalidTransition(string(o.Status), string(target))
	}
	if o.Status != StatusSentToSpeaker {
		return false, apperr.InvalidState("firm offer is %s, the speaker can only answer once it is sent", o.Status)
	}
	o.Status = target
	o.Confirmation.SpeakerConfirmed = &confirmed
	o.Confirmation.RespondedAt = &now
	o.SpeakerResponseAt = &now
	return true, nil
}

func (e *Engine) afterCommit(ctx context.Context, o *FirmOffer, fx effects) *UpdateResult {
	res := &UpdateResult{Offer: o, ProjectID: fx.projectID}
	if fx.sentToSpeaker {
		res.ShareURL = e.shareURL(fx.speakerToken)
		res.Notifications = append(res.Notifications, e.notifier.OfferSentToSpeaker(ctx, notification.OfferNotice{
			OfferID:    o.ID,
			EventTitle: o.EventTitle(),
			Speaker:    notification.Party{Name: o.SpeakerName, Email: o.SpeakerEmail, URL: res.ShareURL},
		})...)
	}
	if fx.responded {
		res.Notifications = append(res.Notifications, e.notifier.SpeakerResponded(ctx, notification.OfferNotice{
			OfferID:    o.ID,
			EventTitle: o.EventTitle(),
			Speaker:    notification.Party{Name: o.SpeakerName, Email: o.SpeakerEmail},
			Client:     notification.Party{Name: o.ClientName, Email: o.ClientEmail},
			Confirmed:  o.Status == StatusSpeakerConfirmed,
			Notes:      o.Confirmation.SpeakerNotes,
		})...)
		e.log.Info().Uint("firm_offer_id", o.ID).Str("status", string(o.Status)).Msg("speaker responded")
	}
	return res
}

func (e *Engine) Get(ctx context.Context, id uint) (*View, error) {
	o, err := e.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	raw, err := e.speakerToken(o)
	if err != nil {
		return nil, err
	}
	v := &View{Offer: o, ShareURL: e.shareURL(raw)}
	if o.ProposalID != nil {
		p, err := e.proposals.FindByID(ctx, *o.ProposalID)
		if err != nil && apperr.KindOf(err) != apperr.KindNotFound {
			return nil, err
		}
		if p != nil {
			s := p.Summary()
			v.Proposal = &s
		}
	}
	return v, nil
}

func (e *Engine) List(ctx context.Context, f Filter) ([]FirmOffer, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, apperr.Validation("unknown firm offer status %q", f.Status)
	}
	return e.repo.List(ctx, f)
}

func dedupe(cols []string) []string {
	seen := make(map[string]bool, len(cols))
	out := cols[:0]
	for _, c := range cols {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v == "" {
		return def
	}
	return v
}

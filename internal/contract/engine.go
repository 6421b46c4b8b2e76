package contract

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/KromaEnergia/speaker-booking/internal/apperr"
	"github.com/KromaEnergia/speaker-booking/internal/deal"
	"github.com/KromaEnergia/speaker-booking/internal/notification"
	"github.com/KromaEnergia/speaker-booking/internal/token"
)

const numberAttempts = 3

type Options struct {
	Prefix     string
	TTL        time.Duration
	BaseURL    string
	AgencyName string
}

// Engine derives contracts from won deals and runs them through signing.
type Engine struct {
	db       *gorm.DB
	repo     Repository
	deals    deal.Repository
	issuer   *token.Issuer
	notifier *notification.Dispatcher
	opts     Options
	log      zerolog.Logger
	now      func() time.Time
}

func NewEngine(db *gorm.DB, repo Repository, deals deal.Repository, issuer *token.Issuer,
	notifier *notification.Dispatcher, opts Options, log zerolog.Logger) *Engine {
	if opts.Prefix == "" {
		opts.Prefix = "SPK"
	}
	if opts.TTL <= 0 {
		opts.TTL = 90 * 24 * time.Hour
	}
	return &Engine{
		db:       db,
		repo:     repo,
		deals:    deals,
		issuer:   issuer,
		notifier: notifier,
		opts:     opts,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

type SpeakerInfo struct {
	Name  string   `json:"name"`
	Email string   `json:"email"`
	Fee   *float64 `json:"fee"`
}

type SignerInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Title string `json:"title"`
}

type CreateInput struct {
	DealID           uint         `json:"deal_id"`
	SpeakerInfo      *SpeakerInfo `json:"speaker_info"`
	ClientSignerInfo *SignerInfo  `json:"client_signer_info"`
	TotalAmount      *float64     `json:"total_amount"`
	DepositPercent   *float64     `json:"deposit_percent"`
	PaymentTerms     string       `json:"payment_terms"`
	AdditionalTerms  string       `json:"additional_terms"`
	CreatedBy        string       `json:"-"`
}

// CreateFromDeal builds a draft contract from a won deal and issues its three tokens.
// Nothing is written unless every precondition holds.
func (e *Engine) CreateFromDeal(ctx context.Context, in CreateInput) (*Created, error) {
	c, err := e.derive(ctx, in)
	if err != nil {
		return nil, err
	}

	toks, err := e.issuer.IssueSet(3)
	if err != nil {
		return nil, fmt.Errorf("issue contract tokens: %w", err)
	}
	tokens := Tokens{Access: toks[0], Client: toks[1], Speaker: toks[2]}
	c.AccessTokenHash = token.Hash(tokens.Access)
	c.ClientTokenHash = token.Hash(tokens.Client)
	c.SpeakerTokenHash = token.Hash(tokens.Speaker)
	c.ExpiresAt = c.CreatedAt.Add(e.opts.TTL)

	for attempt := 1; ; attempt++ {
		err = e.repo.Create(ctx, c)
		if err == nil {
			break
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) || attempt == numberAttempts {
			return nil, err
		}
		e.log.Warn().Str("contract_number", c.ContractNumber).Int("attempt", attempt).Msg("contract number collision, retrying")
		c.ID = 0
		c.ContractNumber = e.newNumber()
		if c.Content, err = GenerateContent(dataFrom(c, e.opts.AgencyName)); err != nil {
			return nil, err
		}
	}

	e.log.Info().Uint("contract_id", c.ID).Uint("deal_id", c.DealID).Str("contract_number", c.ContractNumber).Msg("contract created")
	return &Created{Contract: c, Tokens: tokens, Links: e.links(tokens)}, nil
}

// Preview renders what CreateFromDeal would produce without issuing tokens or writing anything.
func (e *Engine) Preview(ctx context.Context, in CreateInput) (*Contract, error) {
	return e.derive(ctx, in)
}

func (e *Engine) derive(ctx context.Context, in CreateInput) (*Contract, error) {
	if in.DealID == 0 {
		return nil, apperr.Validation("deal_id is required")
	}
	d, err := e.deals.FindByID(ctx, in.DealID)
	if err != nil {
		return nil, err
	}
	if d.Status != deal.StatusWon {
		return nil, apperr.InvalidState("deal %d is %s, only won deals can be contracted", d.ID, d.Status)
	}

	fee, total := d.DealValue, d.DealValue
	speaker := SpeakerInfo{}
	if in.SpeakerInfo != nil {
		speaker = *in.SpeakerInfo
		if speaker.Fee != nil {
			fee = *speaker.Fee
		}
	}
	if in.TotalAmount != nil {
		total = *in.TotalAmount
	}
	deposit := 50.0
	if in.DepositPercent != nil {
		deposit = *in.DepositPercent
	}
	if err := validateAmounts(fee, total, deposit); err != nil {
		return nil, err
	}

	signer := SignerInfo{Name: d.ClientName, Email: d.ClientEmail}
	if in.ClientSignerInfo != nil {
		signer.Name = orDefault(in.ClientSignerInfo.Name, signer.Name)
		signer.Email = orDefault(deal.NormalizeEmail(in.ClientSignerInfo.Email), signer.Email)
		signer.Title = strings.TrimSpace(in.ClientSignerInfo.Title)
	}

	now := e.now()
	c := &Contract{
		CreatedAt:         now,
		UpdatedAt:         now,
		ContractNumber:    e.newNumber(),
		DealID:            d.ID,
		Status:            StatusDraft,
		ClientName:        d.ClientName,
		ClientCompany:     d.ClientCompany,
		ClientSignerName:  signer.Name,
		ClientSignerEmail: signer.Email,
		ClientSignerTitle: signer.Title,
		SpeakerName:       strings.TrimSpace(speaker.Name),
		SpeakerEmail:      deal.NormalizeEmail(speaker.Email),
		EventTitle:        d.EventTitle,
		EventDate:         d.EventDate,
		EventLocation:     d.EventLocation,
		EventType:         d.EventType,
		AttendeeCount:     d.AttendeeCount,
		SpeakerFee:        fee,
		TotalAmount:       total,
		DepositPercent:    deposit,
		PaymentTerms:      strings.TrimSpace(in.PaymentTerms),
		AdditionalTerms:   strings.TrimSpace(in.AdditionalTerms),
		CreatedBy:         in.CreatedBy,
		UpdatedBy:         in.CreatedBy,
	}
	if c.Content, err = GenerateContent(dataFrom(c, e.opts.AgencyName)); err != nil {
		return nil, err
	}
	return c, nil
}

func validateAmounts(fee, total, deposit float64) error {
	switch {
	case fee < 0:
		return apperr.Validation("speaker fee cannot be negative")
	case total < 0:
		return apperr.Validation("total amount cannot be negative")
	case deposit < 0 || deposit > 100:
		return apperr.Validation("deposit percent must be between 0 and 100")
	}
	return nil
}

func (e *Engine) newNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("%s-%s-%s", e.opts.Prefix, e.now().Format("20060102"), suffix)
}

func (e *Engine) links(t Tokens) Links {
	l := Links{}
	if t.Access != "" {
		l.Preview = e.opts.BaseURL + "/sign/" + t.Access
	}
	if t.Client != "" {
		l.Client = e.opts.BaseURL + "/sign/" + t.Client
	}
	if t.Speaker != "" {
		l.Speaker = e.opts.BaseURL + "/sign/" + t.Speaker
	}
	return l
}

func (e *Engine) Get(ctx context.Context, id uint) (*Contract, error) {
	return e.repo.FindByID(ctx, id)
}

func (e *Engine) List(ctx context.Context, f Filter) ([]Contract, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, apperr.Validation("unknown contract status %q", f.Status)
	}
	return e.repo.List(ctx, f)
}

// UpdateStatus applies an admin status change. Moving into sent rotates the signing
// tokens and emails both parties after the change is committed.
func (e *Engine) UpdateStatus(ctx context.Context, id uint, to Status, updatedBy string) (*StatusResult, error) {
	if !to.Valid() {
		return nil, apperr.Validation("unknown contract status %q", to)
	}

	var (
		out    *Contract
		tokens *Tokens
	)
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := e.repo.WithDB(tx)
		c, err := repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if !canTransition(c.Status, to) {
			return apperr.InvalidTransition(string(c.Status), string(to))
		}
		if !signaturesAgree(c, to) {
			return apperr.InvalidState("contract %s has %d of 2 signatures, cannot be %s", c.ContractNumber, c.Signatures(), to)
		}

		now := e.now()
		fields := map[string]any{"status": to, "updated_by": updatedBy}
		switch to {
		case StatusSent:
			if !now.Before(c.ExpiresAt) {
				return apperr.InvalidState("contract %s expired on %s", c.ContractNumber, c.ExpiresAt.Format(time.DateOnly))
			}
			toks, err := e.issuer.IssueSet(2)
			if err != nil {
				return fmt.Errorf("rotate signing tokens: %w", err)
			}
			tokens = &Tokens{Client: toks[0], Speaker: toks[1]}
			fields["client_token_hash"] = token.Hash(tokens.Client)
			fields["speaker_token_hash"] = token.Hash(tokens.Speaker)
			fields["sent_at"] = now
		case StatusFullyExecuted:
			fields["executed_at"] = now
		case StatusCancelled:
			fields["cancelled_at"] = now
		}

		ok, err := repo.UpdateFrom(ctx, id, []Status{c.Status}, fields)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.Conflict("contract %d changed concurrently, reload and retry", id)
		}
		out, err = repo.FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.log.Info().Uint("contract_id", id).Str("status", string(to)).Str("updated_by", updatedBy).Msg("contract status changed")
	res := &StatusResult{Contract: out, Tokens: tokens}
	switch to {
	case StatusSent:
		links := e.links(*tokens)
		res.Links = &links
		res.Notifications = e.notifier.ContractSent(ctx, e.notice(out, links))
	case StatusFullyExecuted:
		res.Notifications = e.notifier.ContractExecuted(ctx, e.notice(out, Links{}))
	}
	return res, nil
}

func (e *Engine) notice(c *Contract, l Links) notification.ContractNotice {
	return notification.ContractNotice{
		ContractID:     c.ID,
		ContractNumber: c.ContractNumber,
		EventTitle:     c.EventTitle,
		Client:         notification.Party{Name: c.ClientSignerName, Email: c.ClientSignerEmail, URL: l.Client},
		Speaker:        notification.Party{Name: c.SpeakerName, Email: c.SpeakerEmail, URL: l.Speaker},
	}
}

// Terms are the draft-only editable fields. Nil means unchanged.
type Terms struct {
	SpeakerName     *string  `json:"speaker_name"`
	SpeakerEmail    *string  `json:"speaker_email"`
	SpeakerFee      *float64 `json:"speaker_fee"`
	TotalAmount     *float64 `json:"total_amount"`
	DepositPercent  *float64 `json:"deposit_percent"`
	PaymentTerms    *string  `json:"payment_terms"`
	AdditionalTerms *string  `json:"additional_terms"`
}

func (t Terms) empty() bool {
	return t.SpeakerName == nil && t.SpeakerEmail == nil && t.SpeakerFee == nil && t.TotalAmount == nil &&
		t.DepositPercent == nil && t.PaymentTerms == nil && t.AdditionalTerms == nil
}

// UpdateDraftTerms edits the financial snapshot and re-renders the body. Only drafts can change.
func (e *Engine) UpdateDraftTerms(ctx context.Context, id uint, t Terms, updatedBy string) (*Contract, error) {
	if t.empty() {
		return nil, apperr.NoOp("no contract terms to update")
	}

	var out *Contract
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := e.repo.WithDB(tx)
		c, err := repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if c.Status != StatusDraft {
			return apperr.InvalidState("contract %s is %s, terms are frozen once sent", c.ContractNumber, c.Status)
		}
		if t.SpeakerName != nil {
			c.SpeakerName = strings.TrimSpace(*t.SpeakerName)
		}
		if t.SpeakerEmail != nil {
			c.SpeakerEmail = deal.NormalizeEmail(*t.SpeakerEmail)
		}
		if t.SpeakerFee != nil {
			c.SpeakerFee = *t.SpeakerFee
		}
		if t.TotalAmount != nil {
			c.TotalAmount = *t.TotalAmount
		}
		if t.DepositPercent != nil {
			c.DepositPercent = *t.DepositPercent
		}
		if t.PaymentTerms != nil {
			c.PaymentTerms = strings.TrimSpace(*t.PaymentTerms)
		}
		if t.AdditionalTerms != nil {
			c.AdditionalTerms = strings.TrimSpace(*t.AdditionalTerms)
		}
		if err := validateAmounts(c.SpeakerFee, c.TotalAmount, c.DepositPercent); err != nil {
			return err
		}
		if c.Content, err = GenerateContent(dataFrom(c, e.opts.AgencyName)); err != nil {
			return err
		}

		ok, err := repo.UpdateFrom(ctx, id, []Status{StatusDraft}, map[string]any{
			"speaker_name":     c.SpeakerName,
			"speaker_email":    c.SpeakerEmail,
			"speaker_fee":      c.SpeakerFee,
			"total_amount":     c.TotalAmount,
			"deposit_percent":  c.DepositPercent,
			"payment_terms":    c.PaymentTerms,
			"additional_terms": c.AdditionalTerms,
			"content":          c.Content,
			"updated_by":       updatedBy,
		})
		if err != nil {
			return err
		}
		if !ok {
			return apperr.Conflict("contract %d changed concurrently, reload and retry", id)
		}
		out, err = repo.FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes the contract row outright.
func (e *Engine) Delete(ctx context.Context, id uint) error {
	if err := e.repo.Delete(ctx, id); err != nil {
		return err
	}
	e.log.Info().Uint("contract_id", id).Msg("contract deleted")
	return nil
}

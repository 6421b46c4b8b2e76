package contract

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/KromaEnergia/speaker-booking/internal/apperr"
	"github.com/KromaEnergia/speaker-booking/internal/notification"
	"github.com/KromaEnergia/speaker-booking/internal/token"
)

// SignerView is what a token holder sees. It never carries token material.
type SignerView struct {
	ContractNumber string     `json:"contract_number"`
	Role           token.Role `json:"role"`
	Status         Status     `json:"status"`
	EventTitle     string     `json:"event_title"`
	EventDate      *time.Time `json:"event_date,omitempty"`
	SignerName     string     `json:"signer_name"`
	Content        string     `json:"content"`
	ClientSigned   bool       `json:"client_signed"`
	SpeakerSigned  bool       `json:"speaker_signed"`
	CanSign        bool       `json:"can_sign"`
	ExpiresAt      time.Time  `json:"expires_at"`
	Message        string     `json:"message"`
}

type SignInput struct {
	Name   string `json:"name"`
	Accept bool   `json:"accept"`
	IP     string `json:"-"`
}

type SignResult struct {
	View          SignerView            `json:"contract"`
	Notifications []notification.Result `json:"-"`
}

// resolve is the single token lookup every signer operation starts with.
func (e *Engine) resolve(ctx context.Context, repo Repository, raw string) (*Contract, token.Role, error) {
	if !token.Valid(raw) {
		return nil, "", apperr.Auth("invalid or expired link")
	}
	c, role, err := repo.FindByToken(ctx, raw)
	if err != nil {
		return nil, "", err
	}
	if !e.now().Before(c.ExpiresAt) {
		return nil, "", apperr.Auth("this link has expired")
	}
	return c, role, nil
}

func (e *Engine) ViewForToken(ctx context.Context, raw string) (*SignerView, error) {
	c, role, err := e.resolve(ctx, e.repo, raw)
	if err != nil {
		return nil, err
	}
	v := signerView(c, role)
	return &v, nil
}

// Sign records the token holder's consent. Status is derived from the persisted
// signatures inside the same transaction, so concurrent signers converge on fully_executed.
func (e *Engine) Sign(ctx context.Context, raw string, in SignInput) (*SignResult, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, apperr.Validation("signer name is required")
	}
	if !in.Accept {
		return nil, apperr.Validation("the terms must be accepted to sign")
	}

	var (
		out    *Contract
		role   token.Role
		before Status
	)
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := e.repo.WithDB(tx)
		c, r, err := e.resolve(ctx, repo, raw)
		if err != nil {
			return err
		}
		role, before = r, c.Status
		if role == token.RoleAdminPreview {
			return apperr.Auth("this link is for preview only")
		}
		if signedBy(c, role) {
			return apperr.Conflict("already signed")
		}
		if !c.Status.OpenForSignature() {
			return apperr.InvalidState("contract is %s and not open for signature", c.Status)
		}

		now := e.now()
		ok, err := repo.RecordSignature(ctx, c.ID, role, in.Name, in.IP, now)
		if err != nil {
			return err
		}
		if !ok {
			latest, err := repo.FindByID(ctx, c.ID)
			if err != nil {
				return err
			}
			if signedBy(latest, role) {
				return apperr.Conflict("already signed")
			}
			return apperr.InvalidState("contract is %s and not open for signature", latest.Status)
		}
		if err := repo.RecomputeStatus(ctx, c.ID, now); err != nil {
			return err
		}
		out, err = repo.FindByID(ctx, c.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.log.Info().Uint("contract_id", out.ID).Str("role", string(role)).Str("status", string(out.Status)).Msg("contract signed")
	res := &SignResult{View: signerView(out, role)}
	if out.Status == StatusFullyExecuted && before != StatusFullyExecuted {
		res.Notifications = e.notifier.ContractExecuted(ctx, e.notice(out, Links{}))
	}
	return res, nil
}

func signedBy(c *Contract, role token.Role) bool {
	switch role {
	case token.RoleClient:
		return c.ClientSignedAt != nil
	case token.RoleSpeaker:
		return c.SpeakerSignedAt != nil
	}
	return false
}

func signerView(c *Contract, role token.Role) SignerView {
	v := SignerView{
		ContractNumber: c.ContractNumber,
		Role:           role,
		Status:         c.Status,
		EventTitle:     c.EventTitle,
		EventDate:      c.EventDate,
		Content:        c.Content,
		ClientSigned:   c.ClientSignedAt != nil,
		SpeakerSigned:  c.SpeakerSignedAt != nil,
		ExpiresAt:      c.ExpiresAt,
	}
	switch role {
	case token.RoleClient:
		v.SignerName = c.ClientSignerName
	case token.RoleSpeaker:
		v.SignerName = c.SpeakerName
	}
	v.CanSign = role != token.RoleAdminPreview && c.Status.OpenForSignature() && !signedBy(c, role)
	v.Message = statusMessage(c, role)
	return v
}

func statusMessage(c *Contract, role token.Role) string {
	switch {
	case c.Status == StatusCancelled:
		return "This contract has been cancelled."
	case c.Status == StatusFullyExecuted:
		return "This contract has been signed by all parties."
	case role == token.RoleAdminPreview:
		return "Preview only."
	case signedBy(c, role):
		return "You have already signed. Waiting for the other party."
	case c.Status == StatusDraft:
		return "This contract is not ready for signature yet."
	default:
		return "Please review and sign the contract."
	}
}

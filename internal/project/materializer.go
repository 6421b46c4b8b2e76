package project

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/KromaEnergia/speaker-booking/internal/apperr"
	"github.com/KromaEnergia/speaker-booking/internal/contract"
	"github.com/KromaEnergia/speaker-booking/internal/firmoffer"
)

// Materializer creates at most one project per confirmed firm offer.
type Materializer struct {
	db   *gorm.DB
	repo Repository
	log  zerolog.Logger
}

func NewMaterializer(db *gorm.DB, repo Repository, log zerolog.Logger) *Materializer {
	return &Materializer{db: db, repo: repo, log: log}
}

// FromFirmOffer materializes outside any caller transaction.
func (m *Materializer) FromFirmOffer(ctx context.Context, o *firmoffer.FirmOffer) (*Project, error) {
	var out *Project
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		out, err = m.materialize(ctx, tx, o)
		return err
	})
	return out, err
}

// Materialize runs inside tx. Repeated calls for the same offer return the same project.
func (m *Materializer) Materialize(ctx context.Context, tx *gorm.DB, o *firmoffer.FirmOffer) (uint, error) {
	p, err := m.materialize(ctx, tx, o)
	if err != nil {
		return 0, err
	}
	return p.ID, nil
}

func (m *Materializer) materialize(ctx context.Context, tx *gorm.DB, o *firmoffer.FirmOffer) (*Project, error) {
	if o.Status != firmoffer.StatusSpeakerConfirmed {
		return nil, apperr.InvalidState("firm offer %d is %s, only confirmed offers become projects", o.ID, o.Status)
	}

	p := &Project{
		FirmOfferID:  o.ID,
		DealID:       o.DealID,
		Title:        o.EventTitle(),
		SpeakerName:  o.SpeakerName,
		SpeakerEmail: o.SpeakerEmail,
		ClientName:   o.ClientName,
		ClientEmail:  o.ClientEmail,
		Status:       StatusPlanning,
	}
	if ov := o.EventOverview; ov != nil {
		p.Location = joinNonEmpty(ov.Venue, ov.City, ov.Country)
		p.EventType = ov.EventType
		if t, err := time.Parse("2006-01-02", ov.EventDate); err == nil {
			p.EventDate = &t
		}
	}

	cid, err := executedContract(ctx, tx, o.DealID)
	if err != nil {
		return nil, err
	}
	p.ContractID = cid

	stored, err := m.repo.WithDB(tx).CreateIfAbsent(ctx, p)
	if err != nil {
		return nil, err
	}
	m.log.Info().Uint("project_id", stored.ID).Uint("firm_offer_id", o.ID).Msg("project materialized")
	return stored, nil
}

// executedContract finds the deal's most recent fully executed contract, if any.
func executedContract(ctx context.Context, tx *gorm.DB, dealID uint) (*uint, error) {
	var c contract.Contract
	err := tx.WithContext(ctx).Select("id").
		Where("deal_id = ? AND status = ?", dealID, contract.StatusFullyExecuted).
		Order("id DESC").First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Persistence("find executed contract", err)
	}
	return &c.ID, nil
}

func joinNonEmpty(parts ...string) string {
	out := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out != "" {
			out += ", "
		}
		out += p
	}
	return out
}

package contract

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/KromaEnergia/speaker-booking/internal/apperr"
	"github.com/KromaEnergia/speaker-booking/internal/token"
)

type Filter struct {
	Status Status
	DealID uint
}

type Repository interface {
	Create(ctx context.Context, c *Contract) error
	FindByID(ctx context.Context, id uint) (*Contract, error)
	FindByToken(ctx context.Context, raw string) (*Contract, token.Role, error)
	List(ctx context.Context, f Filter) ([]Contract, error)
	// UpdateFrom applies fields only if the contract is still in one of the given statuses.
	UpdateFrom(ctx context.Context, id uint, from []Status, fields map[string]any) (bool, error)
	RecordSignature(ctx context.Context, id uint, role token.Role, name, ip string, at time.Time) (bool, error)
	RecomputeStatus(ctx context.Context, id uint, at time.Time) error
	Delete(ctx context.Context, id uint) error
	WithDB(db *gorm.DB) Repository
}

type repositoryImpl struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithDB(db *gorm.DB) Repository {
	if db == nil {
		db = r.db
	}
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) Create(ctx context.Context, c *Contract) error {
	if err := r.db.WithContext(ctx).Create(c).Error; err != nil {
		return apperr.Persistence("insert contract", err)
	}
	return nil
}

func (r *repositoryImpl) FindByID(ctx context.Context, id uint) (*Contract, error) {
	var c Contract
	if err := r.db.WithContext(ctx).First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("contract", id)
		}
		return nil, apperr.Persistence("load contract", err)
	}
	return &c, nil
}

// FindByToken resolves a plaintext token to its contract and role in a single read.
func (r *repositoryImpl) FindByToken(ctx context.Context, raw string) (*Contract, token.Role, error) {
	h := token.Hash(raw)
	var c Contract
	err := r.db.WithContext(ctx).
		Where("access_token_hash = ? OR client_token_hash = ? OR speaker_token_hash = ?", h, h, h).
		First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", apperr.Auth("invalid or expired link")
		}
		return nil, "", apperr.Persistence("load contract by token", err)
	}
	switch {
	case token.Equal(c.ClientTokenHash, h):
		return &c, token.RoleClient, nil
	case token.Equal(c.SpeakerTokenHash, h):
		return &c, token.RoleSpeaker, nil
	default:
		return &c, token.RoleAdminPreview, nil
	}
}

func (r *repositoryImpl) List(ctx context.Context, f Filter) ([]Contract, error) {
	q := r.db.WithContext(ctx).Order("created_at DESC, id DESC")
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.DealID != 0 {
		q = q.Where("deal_id = ?", f.DealID)
	}
	var list []Contract
	if err := q.Find(&list).Error; err != nil {
		return nil, apperr.Persistence("list contracts", err)
	}
	return list, nil
}

func (r *repositoryImpl) UpdateFrom(ctx context.Context, id uint, from []Status, fields map[string]any) (bool, error) {
	res := r.db.WithContext(ctx).Model(&Contract{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(fields)
	if res.Error != nil {
		return false, apperr.Persistence("update contract", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// RecordSignature stamps one party's signature if the contract is open and that party has not signed.
func (r *repositoryImpl) RecordSignature(ctx context.Context, id uint, role token.Role, name, ip string, at time.Time) (bool, error) {
	prefix := "client"
	if role == token.RoleSpeaker {
		prefix = "speaker"
	}
	res := r.db.WithContext(ctx).Model(&Contract{}).
		Where("id = ? AND status IN ? AND "+prefix+"_signed_at IS NULL", id,
			[]Status{StatusSent, StatusPartiallySigned}).
		Updates(map[string]any{
			prefix + "_signed_at": at,
			prefix + "_signed_by": name,
			prefix + "_signed_ip": ip,
			"updated_at":          at,
		})
	if res.Error != nil {
		return false, apperr.Persistence("record signature", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// RecomputeStatus derives status from the persisted signature columns.
func (r *repositoryImpl) RecomputeStatus(ctx context.Context, id uint, at time.Time) error {
	err := r.db.WithContext(ctx).Model(&Contract{}).
		Where("id = ? AND status IN ?", id, []Status{StatusSent, StatusPartiallySigned}).
		Updates(map[string]any{
			"executed_at": gorm.Expr(executedAtSQL, at),
			"status":      gorm.Expr(derivedStatusSQL),
		}).Error
	if err != nil {
		return apperr.Persistence("recompute contract status", err)
	}
	return nil
}

func (r *repositoryImpl) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&Contract{}, id)
	if res.Error != nil {
		return apperr.Persistence("delete contract", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("contract", id)
	}
	return nil
}

package proposal

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/KromaEnergia/speaker-booking/internal/apperr"
)

type Repository interface {
	Create(ctx context.Context, p *Proposal) error
	FindByID(ctx context.Context, id uint) (*Proposal, error)
	ListByDeal(ctx context.Context, dealID uint) ([]Proposal, error)
	LatestForDeal(ctx context.Context, dealID uint) (*Proposal, error)
	Update(ctx context.Context, id uint, fields map[string]any) error
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

func (r *repositoryImpl) Create(ctx context.Context, p *Proposal) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return apperr.Persistence("insert proposal", err)
	}
	return nil
}

func (r *repositoryImpl) FindByID(ctx context.Context, id uint) (*Proposal, error) {
	var p Proposal
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("proposal", id)
		}
		return nil, apperr.Persistence("load proposal", err)
	}
	return &p, nil
}

func (r *repositoryImpl) ListByDeal(ctx context.Context, dealID uint) ([]Proposal, error) {
	var list []Proposal
	if err := r.db.WithContext(ctx).Where("deal_id = ?", dealID).Order("id ASC").Find(&list).Error; err != nil {
		return nil, apperr.Persistence("list proposals", err)
	}
	return list, nil
}

// LatestForDeal prefers the newest accepted proposal, then the newest of any status.
func (r *repositoryImpl) LatestForDeal(ctx context.Context, dealID uint) (*Proposal, error) {
	var list []Proposal
	err := r.db.WithContext(ctx).
		Where("deal_id = ? AND status <> ?", dealID, StatusRejected).
		Order("CASE WHEN status = 'accepted' THEN 0 ELSE 1 END, id DESC").
		Limit(1).
		Find(&list).Error
	if err != nil {
		return nil, apperr.Persistence("find proposal for deal", err)
	}
	if len(list) == 0 {
		return nil, apperr.NotFound("proposal for deal", dealID)
	}
	return &list[0], nil
}

func (r *repositoryImpl) Update(ctx context.Context, id uint, fields map[string]any) error {
	res := r.db.WithContext(ctx).Model(&Proposal{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return apperr.Persistence("update proposal", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("proposal", id)
	}
	return nil
}

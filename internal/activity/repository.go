package activity

import (
	"context"

	"gorm.io/gorm"

	"github.com/KromaEnergia/speaker-booking/internal/apperr"
)

type Repository interface {
	Record(ctx context.Context, a *Activity) error
	ListByDeal(ctx context.Context, dealID uint) ([]Activity, error)
	WithDB(db *gorm.DB) Repository
}

type repositoryImpl struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

// WithDB returns a copy bound to db (usually a transaction).
func (r *repositoryImpl) WithDB(db *gorm.DB) Repository {
	if db == nil {
		db = r.db
	}
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) Record(ctx context.Context, a *Activity) error {
	if err := r.db.WithContext(ctx).Create(a).Error; err != nil {
		return apperr.Persistence("record activity", err)
	}
	return nil
}

func (r *repositoryImpl) ListByDeal(ctx context.Context, dealID uint) ([]Activity, error) {
	var list []Activity
	err := r.db.WithContext(ctx).
		Where("deal_id = ?", dealID).
		Order("created_at ASC, id ASC").
		Find(&list).Error
	if err != nil {
		return nil, apperr.Persistence("list activities", err)
	}
	return list, nil
}

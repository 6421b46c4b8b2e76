package firmoffer

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/KromaEnergia/speaker-booking/internal/apperr"
	"github.com/KromaEnergia/speaker-booking/internal/token"
)

type Filter struct {
	Status Status
	DealID uint
}

type Repository interface {
	Create(ctx context.Context, o *FirmOffer) error
	FindByID(ctx context.Context, id uint) (*FirmOffer, error)
	FindByToken(ctx context.Context, raw string) (*FirmOffer, error)
	List(ctx context.Context, f Filter) ([]FirmOffer, error)
	// Save writes cols from o if the stored status still equals expected.
	Save(ctx context.Context, o *FirmOffer, expected Status, cols []string) (bool, error)
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

func (r *repositoryImpl) Create(ctx context.Context, o *FirmOffer) error {
	if err := r.db.WithContext(ctx).Create(o).Error; err != nil {
		return apperr.Persistence("insert firm offer", err)
	}
	return nil
}

func (r *repositoryImpl) FindByID(ctx context.Context, id uint) (*FirmOffer, error) {
	var o FirmOffer
	if err := r.db.WithContext(ctx).First(&o, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("firm offer", id)
		}
		return nil, apperr.Persistence("load firm offer", err)
	}
	return &o, nil
}

func (r *repositoryImpl) FindByToken(ctx context.Context, raw string) (*FirmOffer, error) {
	var o FirmOffer
	err := r.db.WithContext(ctx).Where("speaker_token_hash = ?", token.Hash(raw)).First(&o).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Auth("invalid or expired link")
		}
		return nil, apperr.Persistence("load firm offer by token", err)
	}
	return &o, nil
}

func (r *repositoryImpl) List(ctx context.Context, f Filter) ([]FirmOffer, error) {
	q := r.db.WithContext(ctx).Order("created_at DESC, id DESC")
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.DealID != 0 {
		q = q.Where("deal_id = ?", f.DealID)
	}
	var list []FirmOffer
	if err := q.Find(&list).Error; err != nil {
		return nil, apperr.Persistence("list firm offers", err)
	}
	return list, nil
}

func (r *repositoryImpl) Save(ctx context.Context, o *FirmOffer, expected Status, cols []string) (bool, error) {
	res := r.db.WithContext(ctx).Model(o).
		Where("status = ?", expected).
		Select(append(cols, "updated_at")).
		Updates(o)
	if res.Error != nil {
		return false, apperr.Persistence("update firm offer", res.Error)
	}
	return res.RowsAffected == 1, nil
}

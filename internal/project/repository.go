package project

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/KromaEnergia/speaker-booking/internal/apperr"
)

type Filter struct {
	Status Status
	DealID uint
}

type Repository interface {
	// CreateIfAbsent inserts p unless a project already exists for its firm offer,
	// and returns whichever row is stored.
	CreateIfAbsent(ctx context.Context, p *Project) (*Project, error)
	FindByID(ctx context.Context, id uint) (*Project, error)
	List(ctx context.Context, f Filter) ([]Project, error)
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

func (r *repositoryImpl) CreateIfAbsent(ctx context.Context, p *Project) (*Project, error) {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "firm_offer_id"}}, DoNothing: true}).
		Create(p).Error
	if err != nil {
		return nil, apperr.Persistence("insert project", err)
	}
	var stored Project
	if err := r.db.WithContext(ctx).Where("firm_offer_id = ?", p.FirmOfferID).First(&stored).Error; err != nil {
		return nil, apperr.Persistence("load project", err)
	}
	return &stored, nil
}

func (r *repositoryImpl) FindByID(ctx context.Context, id uint) (*Project, error) {
	var p Project
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("project", id)
		}
		return nil, apperr.Persistence("load project", err)
	}
	return &p, nil
}

func (r *repositoryImpl) List(ctx context.Context, f Filter) ([]Project, error) {
	q := r.db.WithContext(ctx).Order("created_at DESC, id DESC")
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.DealID != 0 {
		q = q.Where("deal_id = ?", f.DealID)
	}
	var list []Project
	if err := q.Find(&list).Error; err != nil {
		return nil, apperr.Persistence("list projects", err)
	}
	return list, nil
}

package deal

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/KromaEnergia/speaker-booking/internal/apperr"
)

// Filter narrows List results. Zero values are ignored.
type Filter struct {
	Status   Status
	Priority Priority
	Limit    int
}

type Repository interface {
	Create(ctx context.Context, d *Deal) error
	FindByID(ctx context.Context, id uint) (*Deal, error)
	List(ctx context.Context, f Filter) ([]Deal, error)
	FindByExternalID(ctx context.Context, externalID string) (*Deal, error)
	FindByEmail(ctx context.Context, email string) (*Deal, error)
	FindByNameAndCompany(ctx context.Context, name, company string) (*Deal, error)
	Update(ctx context.Context, id uint, fields map[string]any) error
	AppendNote(ctx context.Context, id uint, line string) error
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

func (r *repositoryImpl) Create(ctx context.Context, d *Deal) error {
	if err := r.db.WithContext(ctx).Create(d).Error; err != nil {
		return apperr.Persistence("insert deal", err)
	}
	return nil
}

func (r *repositoryImpl) FindByID(ctx context.Context, id uint) (*Deal, error) {
	var d Deal
	if err := r.db.WithContext(ctx).First(&d, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("deal", id)
		}
		return nil, apperr.Persistence("load deal", err)
	}
	return &d, nil
}

func (r *repositoryImpl) List(ctx context.Context, f Filter) ([]Deal, error) {
	q := r.db.WithContext(ctx).Order("updated_at DESC, id DESC")
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Priority != "" {
		q = q.Where("priority = ?", f.Priority)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	var list []Deal
	if err := q.Find(&list).Error; err != nil {
		return nil, apperr.Persistence("list deals", err)
	}
	return list, nil
}

// first returns the newest deal matching the query, or (nil, nil).
func (r *repositoryImpl) first(ctx context.Context, op string, query string, args ...any) (*Deal, error) {
	var list []Deal
	err := r.db.WithContext(ctx).Where(query, args...).Order("id DESC").Limit(1).Find(&list).Error
	if err != nil {
		return nil, apperr.Persistence(op, err)
	}
	if len(list) == 0 {
		return nil, nil
	}
	return &list[0], nil
}

func (r *repositoryImpl) FindByExternalID(ctx context.Context, externalID string) (*Deal, error) {
	if strings.TrimSpace(externalID) == "" {
		return nil, nil
	}
	return r.first(ctx, "find deal by external id", "external_contact_id = ?", externalID)
}

func (r *repositoryImpl) FindByEmail(ctx context.Context, email string) (*Deal, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, nil
	}
	return r.first(ctx, "find deal by email", "LOWER(client_email) = ?", email)
}

// FindByNameAndCompany is the fuzzy fallback: exact name (case-insensitive) and a company
// that contains, or is contained in, the given one.
func (r *repositoryImpl) FindByNameAndCompany(ctx context.Context, name, company string) (*Deal, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	company = strings.ToLower(strings.TrimSpace(company))
	if name == "" || company == "" {
		return nil, nil
	}

	var candidates []Deal
	err := r.db.WithContext(ctx).
		Where("LOWER(client_name) = ?", name).
		Order("id DESC").
		Find(&candidates).Error
	if err != nil {
		return nil, apperr.Persistence("find deal by name", err)
	}
	for i := range candidates {
		c := strings.ToLower(strings.TrimSpace(candidates[i].ClientCompany))
		if c == "" {
			continue
		}
		if strings.Contains(c, company) || strings.Contains(company, c) {
			return &candidates[i], nil
		}
	}
	return nil, nil
}

func (r *repositoryImpl) Update(ctx context.Context, id uint, fields map[string]any) error {
	res := r.db.WithContext(ctx).Model(&Deal{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return apperr.Persistence("update deal", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("deal", id)
	}
	return nil
}

// AppendNote concatenates in SQL so concurrent writers never drop each other's lines.
func (r *repositoryImpl) AppendNote(ctx context.Context, id uint, line string) error {
	res := r.db.WithContext(ctx).Model(&Deal{}).Where("id = ?", id).
		Update("notes", gorm.Expr("COALESCE(notes, '') || ?", line+"\n"))
	if res.Error != nil {
		return apperr.Persistence("append deal note", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("deal", id)
	}
	return nil
}

// NormalizeEmail lowercases and trims an address for comparison.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

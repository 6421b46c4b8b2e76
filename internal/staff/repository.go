package staff

import (
	"strings"

	"gorm.io/gorm"
)

type Repository interface {
	FindByEmail(db *gorm.DB, email string) (*Staff, error)
	FindByID(db *gorm.DB, id uint) (*Staff, error)
	Save(db *gorm.DB, s *Staff) error
}

type repositoryImpl struct{}

func NewRepository() Repository {
	return &repositoryImpl{}
}

func (r *repositoryImpl) FindByEmail(db *gorm.DB, email string) (*Staff, error) {
	var s Staff
	if err := db.Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *repositoryImpl) FindByID(db *gorm.DB, id uint) (*Staff, error) {
	var s Staff
	if err := db.First(&s, id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *repositoryImpl) Save(db *gorm.DB, s *Staff) error {
	s.Email = strings.ToLower(strings.TrimSpace(s.Email))
	return db.Save(s).Error
}

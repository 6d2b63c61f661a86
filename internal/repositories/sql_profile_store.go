package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"postbox/internal/models"
)

type SQLProfileStore struct {
	DB *gorm.DB
}

func (s *SQLProfileStore) Save(ctx context.Context, p *models.Profile) error {
	return s.DB.WithContext(ctx).Save(p).Error
}

func (s *SQLProfileStore) Get(ctx context.Context, uuid string) (*models.Profile, error) {
	var p models.Profile
	err := s.DB.WithContext(ctx).First(&p, "uuid = ?", uuid).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *SQLProfileStore) Ping(ctx context.Context) error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/athenajq/lunchline/internal/apikey/domain"
)

type gormRepository struct{}

// Provide builds the gorm-backed API key repository.
func Provide() domain.Repository {
	return gormRepository{}
}

func (gormRepository) Insert(ctx context.Context, db *gorm.DB, key *domain.APIKey) error {
	return db.WithContext(ctx).Create(key).Error
}

func (gormRepository) Update(ctx context.Context, db *gorm.DB, key *domain.APIKey) error {
	return db.WithContext(ctx).Save(key).Error
}

func (gormRepository) FindByID(ctx context.Context, db *gorm.DB, orgID, keyID snowflake.ID) (*domain.APIKey, error) {
	var key domain.APIKey
	err := db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, keyID).
		First(&key).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &key, nil
}

func (gormRepository) List(ctx context.Context, db *gorm.DB, orgID snowflake.ID) ([]domain.APIKey, error) {
	var keys []domain.APIKey
	err := db.WithContext(ctx).
		Where("org_id = ?", orgID).
		Order("created_at DESC").
		Find(&keys).Error
	if err != nil {
		return nil, err
	}
	return keys, nil
}

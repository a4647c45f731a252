package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/athenajq/lunchline/internal/scheduleconfig/domain"
)

type gormRepository struct{}

// Provide builds the gorm-backed schedule config repository.
func Provide() domain.Repository {
	return gormRepository{}
}

func (gormRepository) FindActive(ctx context.Context, db *gorm.DB, orgID snowflake.ID) (*domain.ScheduleConfig, error) {
	var cfg domain.ScheduleConfig
	err := db.WithContext(ctx).
		Where("org_id = ? AND active = ?", orgID, true).
		Order("created_at DESC").
		First(&cfg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cfg, nil
}

// Replace retires any active config for the organization and inserts the new
// one in a single transaction.
func (gormRepository) Replace(ctx context.Context, db *gorm.DB, cfg *domain.ScheduleConfig) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&domain.ScheduleConfig{}).
			Where("org_id = ? AND active = ?", cfg.OrgID, true).
			Update("active", false).Error; err != nil {
			return err
		}
		return tx.Create(cfg).Error
	})
}

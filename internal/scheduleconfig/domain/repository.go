package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	FindActive(ctx context.Context, db *gorm.DB, orgID snowflake.ID) (*ScheduleConfig, error)
	Replace(ctx context.Context, db *gorm.DB, cfg *ScheduleConfig) error
}

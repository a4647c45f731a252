package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	FindBySlug(ctx context.Context, db *gorm.DB, slug string) (*Organization, error)
	FindMember(ctx context.Context, db *gorm.DB, orgID, userID snowflake.ID) (*OrganizationMember, error)
}

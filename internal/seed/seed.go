package seed

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	apikeydomain "github.com/athenajq/lunchline/internal/apikey/domain"
	organizationdomain "github.com/athenajq/lunchline/internal/organization/domain"
	scheduledomain "github.com/athenajq/lunchline/internal/schedule/domain"
	scheduleconfigdomain "github.com/athenajq/lunchline/internal/scheduleconfig/domain"
)

const (
	defaultOrgName = "Main"
	defaultOrgSlug = "main"
	defaultOwnerID = snowflake.ID(1)
)

// EnsureMainOrg seeds the default organization and its owner membership for
// startup bootstrap.
func EnsureMainOrg(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		org, err := ensureMainOrgTx(ctx, tx, node)
		if err != nil {
			return err
		}
		return ensureOwnerTx(ctx, tx, node, org.ID)
	})
}

// SeedDemoSchedule installs a weekday lunch calendar and an initial API key
// for the default organization. The key plaintext is logged once.
func SeedDemoSchedule(db *gorm.DB, log *zap.Logger) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		org, err := ensureMainOrgTx(ctx, tx, node)
		if err != nil {
			return err
		}
		if err := ensureDemoConfigTx(ctx, tx, node, org.ID); err != nil {
			return err
		}
		return ensureBootstrapKeyTx(ctx, tx, node, org.ID, log)
	})
}

func ensureMainOrgTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node) (organizationdomain.Organization, error) {
	var org organizationdomain.Organization
	err := tx.WithContext(ctx).Where("slug = ?", defaultOrgSlug).First(&org).Error
	if err == nil {
		return org, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return org, err
	}
	now := time.Now().UTC()
	org = organizationdomain.Organization{
		ID:        node.Generate(),
		Name:      defaultOrgName,
		Slug:      defaultOrgSlug,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tx.WithContext(ctx).Create(&org).Error; err != nil {
		return org, err
	}
	return org, nil
}

func ensureOwnerTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, orgID snowflake.ID) error {
	var member organizationdomain.OrganizationMember
	err := tx.WithContext(ctx).
		Where("org_id = ? AND user_id = ?", orgID, defaultOwnerID).
		First(&member).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	member = organizationdomain.OrganizationMember{
		ID:         node.Generate(),
		OrgID:      orgID,
		UserID:     defaultOwnerID,
		Role:       organizationdomain.RoleOwner,
		Attributes: datatypes.JSONMap{},
		CreatedAt:  time.Now().UTC(),
	}
	return tx.WithContext(ctx).Create(&member).Error
}

func ensureDemoConfigTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, orgID snowflake.ID) error {
	var count int64
	if err := tx.WithContext(ctx).
		Raw(`SELECT COUNT(*) FROM schedule_configs WHERE org_id = ? AND active = ?`, orgID, true).
		Scan(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	weekdays := scheduledomain.Weekdays{
		time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday,
	}
	orderRule, err := json.Marshal(scheduledomain.OrderScheduleConfig{
		ScheduleType: scheduledomain.ScheduleTypeDaily,
		Recurrence:   scheduledomain.RecurrenceRule{Weekdays: weekdays},
		Cutoff:       scheduledomain.CutoffRule{TimeOfDay: "10:00", Timezone: "UTC"},
	})
	if err != nil {
		return err
	}
	lunchRule, err := json.Marshal(scheduledomain.LunchScheduleConfig{
		Timezone: "UTC",
		Weekdays: weekdays,
	})
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	cfg := scheduleconfigdomain.ScheduleConfig{
		ID:        node.Generate(),
		OrgID:     orgID,
		OrderRule: orderRule,
		LunchRule: lunchRule,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return tx.WithContext(ctx).Create(&cfg).Error
}

func ensureBootstrapKeyTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, orgID snowflake.ID, log *zap.Logger) error {
	var count int64
	if err := tx.WithContext(ctx).
		Raw(`SELECT COUNT(*) FROM api_keys WHERE org_id = ? AND is_active = ?`, orgID, true).
		Scan(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	plain, hash, err := apikeydomain.GenerateAPIKey()
	if err != nil {
		return err
	}
	key := apikeydomain.APIKey{
		ID:        node.Generate(),
		OrgID:     orgID,
		Name:      "bootstrap",
		KeyHash:   hash,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(&key).Error; err != nil {
		return err
	}
	if log != nil {
		log.Info("bootstrap api key created, store it now",
			zap.String("org_id", orgID.String()),
			zap.String("api_key", plain),
		)
	}
	return nil
}

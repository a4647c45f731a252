package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"

	scheduledomain "github.com/athenajq/lunchline/internal/schedule/domain"
)

// ScheduleConfig is the organization's persisted scheduling configuration:
// the ordering calendar and the lunch-day calendar, stored as JSON rules.
// Configs are immutable once written; changing the schedule inserts a new
// row and retires the old one.
type ScheduleConfig struct {
	ID        snowflake.ID   `gorm:"primaryKey"`
	OrgID     snowflake.ID   `gorm:"not null;index"`
	OrderRule datatypes.JSON `gorm:"type:jsonb;not null"`
	LunchRule datatypes.JSON `gorm:"type:jsonb;not null"`
	Active    bool           `gorm:"not null;default:true"`
	CreatedAt time.Time      `gorm:"not null"`
	UpdatedAt time.Time      `gorm:"not null"`
}

// TableName sets the database table name.
func (ScheduleConfig) TableName() string { return "schedule_configs" }

// DecodedConfig is a ScheduleConfig with both rules parsed and validated,
// ready for the scheduling engine.
type DecodedConfig struct {
	ID    snowflake.ID
	OrgID snowflake.ID
	Order scheduledomain.OrderScheduleConfig
	Lunch scheduledomain.LunchScheduleConfig
}

// Decode parses and validates the stored rules.
func (c ScheduleConfig) Decode() (DecodedConfig, error) {
	decoded := DecodedConfig{ID: c.ID, OrgID: c.OrgID}
	if err := json.Unmarshal(c.OrderRule, &decoded.Order); err != nil {
		return DecodedConfig{}, fmt.Errorf("%w: order rule: %v", scheduledomain.ErrMalformedConfig, err)
	}
	if err := json.Unmarshal(c.LunchRule, &decoded.Lunch); err != nil {
		return DecodedConfig{}, fmt.Errorf("%w: lunch rule: %v", scheduledomain.ErrMalformedConfig, err)
	}
	if err := scheduledomain.ValidateOrderSchedule(decoded.Order); err != nil {
		return DecodedConfig{}, err
	}
	if err := scheduledomain.ValidateLunchSchedule(decoded.Lunch); err != nil {
		return DecodedConfig{}, err
	}
	return decoded, nil
}

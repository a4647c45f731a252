package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"

	scheduledomain "github.com/athenajq/lunchline/internal/schedule/domain"
)

type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusCancelled Status = "CANCELLED"
	StatusArchived  Status = "ARCHIVED"
)

// Order is a member's lunch order for one schedule group. Dates holds the
// group's day list as ISO strings; Selection is an opaque per-day payload.
type Order struct {
	ID             snowflake.ID      `gorm:"column:id;primaryKey" json:"id"`
	OrgID          snowflake.ID      `gorm:"column:org_id" json:"org_id"`
	UserID         snowflake.ID      `gorm:"column:user_id" json:"user_id"`
	IdempotencyKey string            `gorm:"column:idempotency_key" json:"idempotency_key"`
	Dates          datatypes.JSON    `gorm:"column:dates" json:"dates"`
	Selection      datatypes.JSONMap `gorm:"column:selection" json:"selection"`
	Status         Status            `gorm:"column:status" json:"status"`
	CreatedAt      time.Time         `gorm:"column:created_at" json:"created_at"`
	UpdatedAt      time.Time         `gorm:"column:updated_at" json:"updated_at"`
}

func (Order) TableName() string { return "orders" }

// DateList decodes the stored day list.
func (o *Order) DateList() ([]scheduledomain.Date, error) {
	var dates []scheduledomain.Date
	if err := json.Unmarshal(o.Dates, &dates); err != nil {
		return nil, fmt.Errorf("%w: order %s dates: %v", scheduledomain.ErrMalformedConfig, o.ID, err)
	}
	return dates, nil
}

// ToRecord converts the order into the engine's record shape.
func (o *Order) ToRecord() (scheduledomain.OrderRecord, error) {
	dates, err := o.DateList()
	if err != nil {
		return scheduledomain.OrderRecord{}, err
	}
	return scheduledomain.OrderRecord{ID: o.ID.String(), Dates: dates}, nil
}

// EncodeDates serializes a day list for storage.
func EncodeDates(dates []scheduledomain.Date) (datatypes.JSON, error) {
	raw, err := json.Marshal(dates)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

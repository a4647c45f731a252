package domain

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"

	scheduledomain "github.com/athenajq/lunchline/internal/schedule/domain"
)

type UpsertRequest struct {
	OrderRule scheduledomain.OrderScheduleConfig `json:"order_rule"`
	LunchRule scheduledomain.LunchScheduleConfig `json:"lunch_rule"`
}

type Response struct {
	ID        string                             `json:"id"`
	OrgID     string                             `json:"organization_id"`
	OrderRule scheduledomain.OrderScheduleConfig `json:"order_rule"`
	LunchRule scheduledomain.LunchScheduleConfig `json:"lunch_rule"`
	CreatedAt time.Time                          `json:"created_at"`
}

type Service interface {
	// ActiveForOrg returns the organization's decoded scheduling config.
	ActiveForOrg(ctx context.Context, orgID snowflake.ID) (*DecodedConfig, error)
	// Get returns the active config for display.
	Get(ctx context.Context, orgID snowflake.ID) (*Response, error)
	// Upsert validates and replaces the organization's scheduling config.
	Upsert(ctx context.Context, orgID snowflake.ID, req UpsertRequest) (*Response, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrNotFound            = errors.New("schedule_config_not_found")
)

// MarshalRules encodes both rules for storage.
func MarshalRules(req UpsertRequest) (orderRule, lunchRule []byte, err error) {
	orderRule, err = json.Marshal(req.OrderRule)
	if err != nil {
		return nil, nil, err
	}
	lunchRule, err = json.Marshal(req.LunchRule)
	if err != nil {
		return nil, nil, err
	}
	return orderRule, lunchRule, nil
}

package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"

	scheduledomain "github.com/athenajq/lunchline/internal/schedule/domain"
)

type PlaceRequest struct {
	IdempotencyKey string                 `json:"idempotency_key"`
	Dates          []scheduledomain.Date  `json:"dates"`
	Selection      map[string]interface{} `json:"selection,omitempty"`
}

type UpdateRequest struct {
	Dates     []scheduledomain.Date  `json:"dates,omitempty"`
	Selection map[string]interface{} `json:"selection,omitempty"`
}

type Response struct {
	ID        string                 `json:"id"`
	OrgID     string                 `json:"organization_id"`
	UserID    string                 `json:"user_id"`
	Dates     []scheduledomain.Date  `json:"dates"`
	Selection map[string]interface{} `json:"selection,omitempty"`
	Status    Status                 `json:"status"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}

type Service interface {
	// Place creates an order claiming one open, unclaimed schedule group.
	Place(ctx context.Context, orgID, userID snowflake.ID, req PlaceRequest) (*Response, error)
	// Update replaces the dates and/or selection of an editable order.
	Update(ctx context.Context, orgID, userID, orderID snowflake.ID, req UpdateRequest) (*Response, error)
	// Cancel marks an editable order cancelled.
	Cancel(ctx context.Context, orgID, userID, orderID snowflake.ID) error
}

var (
	ErrInvalidOrganization   = errors.New("invalid_organization")
	ErrNotFound              = errors.New("order_not_found")
	ErrNotOwner              = errors.New("order_not_owned")
	ErrNotActive             = errors.New("order_not_active")
	ErrInvalidDates          = errors.New("invalid_order_dates")
	ErrGroupClaimed          = errors.New("group_already_claimed")
	ErrGroupClosed           = errors.New("group_closed")
	ErrMissingIdempotencyKey = errors.New("missing_idempotency_key")
)

package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// GroupView is one schedule group annotated for a specific member.
type GroupView struct {
	Ordinal           int       `json:"ordinal"`
	Dates             []Date    `json:"dates"`
	AvailabilityIndex int       `json:"availability_index"`
	Editable          bool      `json:"editable"`
	Claimed           bool      `json:"claimed"`
	ClosesAt          time.Time `json:"closes_at"`
	OwnOrderID        string    `json:"own_order_id,omitempty"`
}

// ScheduleView is the reconciled calendar a member sees for a date window.
type ScheduleView struct {
	OrgID    string      `json:"organization_id"`
	UserID   string      `json:"user_id"`
	Timezone string      `json:"timezone"`
	From     Date        `json:"from"`
	To       Date        `json:"to"`
	Groups   []GroupView `json:"groups"`
}

type Service interface {
	// View resolves, partitions, and reconciles the member's schedule for
	// the window.
	View(ctx context.Context, orgID, userID snowflake.ID, from, to Date) (*ScheduleView, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrNotMember           = errors.New("not_a_member")
)

package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type CreateRequest struct {
	Name      string     `json:"name"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

type Response struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	IsActive  bool       `json:"is_active"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	// Key carries the plaintext only in the create response.
	Key string `json:"key,omitempty"`
}

type Service interface {
	Create(ctx context.Context, orgID snowflake.ID, req CreateRequest) (*Response, error)
	List(ctx context.Context, orgID snowflake.ID) ([]Response, error)
	Revoke(ctx context.Context, orgID, keyID snowflake.ID) error
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidName         = errors.New("invalid_key_name")
	ErrNotFound            = errors.New("api_key_not_found")
)

package domain

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/bwmarrin/snowflake"
)

// APIKey authenticates an external caller as one organization. Only the
// sha256 hash of the key material is stored.
type APIKey struct {
	ID        snowflake.ID `gorm:"column:id;primaryKey" json:"id"`
	OrgID     snowflake.ID `gorm:"column:org_id" json:"org_id"`
	Name      string       `gorm:"column:name" json:"name"`
	KeyHash   string       `gorm:"column:key_hash" json:"-"`
	IsActive  bool         `gorm:"column:is_active" json:"is_active"`
	ExpiresAt *time.Time   `gorm:"column:expires_at" json:"expires_at,omitempty"`
	CreatedAt time.Time    `gorm:"column:created_at" json:"created_at"`
}

func (APIKey) TableName() string { return "api_keys" }

// HashAPIKey returns the stored-form hash of raw key material.
func HashAPIKey(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// GenerateAPIKey returns new key material and its hash. The plaintext is
// shown to the caller exactly once.
func GenerateAPIKey() (plain string, hash string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", err
	}
	plain = "llk_" + hex.EncodeToString(buf)
	return plain, HashAPIKey(plain), nil
}

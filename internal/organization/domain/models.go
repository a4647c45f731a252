package domain

import (
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Role grades what a member may do inside the organization.
type Role string

const (
	RoleOwner  Role = "OWNER"
	RoleAdmin  Role = "ADMIN"
	RoleMember Role = "MEMBER"
)

// CanManageSchedule reports whether the role may change schedule configs.
func (r Role) CanManageSchedule() bool {
	return r == RoleOwner || r == RoleAdmin
}

// Organization owns its lunch calendar, members, and orders.
type Organization struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	Name      string       `gorm:"type:text;not null"`
	Slug      string       `gorm:"type:text;not null;uniqueIndex"`
	CreatedAt time.Time    `gorm:"not null"`
	UpdatedAt time.Time    `gorm:"not null"`
}

// TableName sets the database table name.
func (Organization) TableName() string { return "organizations" }

// OrganizationMember links a user to an organization. Attributes carry the
// user-dependent scheduling keys (site, cohort) consumed by the lunch
// schedule selector.
type OrganizationMember struct {
	ID         snowflake.ID      `gorm:"primaryKey"`
	OrgID      snowflake.ID      `gorm:"not null;index;uniqueIndex:ux_org_member,priority:1"`
	UserID     snowflake.ID      `gorm:"not null;uniqueIndex:ux_org_member,priority:2"`
	Role       Role              `gorm:"type:text;not null;default:'MEMBER'"`
	Attributes datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'"`
	CreatedAt  time.Time         `gorm:"not null"`
}

// TableName sets the database table name.
func (OrganizationMember) TableName() string { return "organization_members" }

// AttributeValues flattens the member attributes into strings for schedule
// resolution.
func (m OrganizationMember) AttributeValues() map[string]string {
	attrs := make(map[string]string, len(m.Attributes))
	for key, value := range m.Attributes {
		switch typed := value.(type) {
		case string:
			attrs[key] = typed
		default:
			attrs[key] = fmt.Sprintf("%v", typed)
		}
	}
	return attrs
}

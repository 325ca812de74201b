package models

import "github.com/google/uuid"

type Organization struct {
	Base
	Name        string    `gorm:"not null" json:"name"`
	Description string    `json:"description,omitempty"`
	JoinCode    *string   `gorm:"uniqueIndex" json:"join_code,omitempty"` // nullable: legacy orgs may have rotated codes out
	CreatedBy   uuid.UUID `gorm:"type:uuid;not null" json:"created_by"`

	// Relationships
	Memberships  []Membership  `gorm:"foreignKey:OrganizationID" json:"-"`
	Invites      []Invite      `gorm:"foreignKey:OrganizationID" json:"-"`
	JoinRequests []JoinRequest `gorm:"foreignKey:OrganizationID" json:"-"`
}

func (Organization) TableName() string {
	return "organizations"
}

// Role values for organization and project memberships.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

type Membership struct {
	Base
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_memberships_org_user" json:"organization_id"`
	UserID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_memberships_org_user" json:"user_id"`
	Role           string    `gorm:"not null;default:'member'" json:"role"` // admin, member

	Organization *Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
	User         *User         `gorm:"foreignKey:UserID" json:"-"`
}

func (Membership) TableName() string {
	return "memberships"
}

package models

import "github.com/google/uuid"

// Invite is an admin-issued, email-targeted pre-authorization for
// membership. It is consumed exactly once: accepting materializes a
// Membership for the matching user and flips Accepted.
type Invite struct {
	Base
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;index" json:"organization_id"`
	Email          string    `gorm:"not null;index" json:"email"`
	Role           string    `gorm:"not null;default:'member'" json:"role"`
	Accepted       bool      `gorm:"default:false" json:"accepted"`

	Organization *Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
}

func (Invite) TableName() string {
	return "invites"
}

// JoinRequest statuses transition pending -> approved/rejected exactly
// once and are never re-opened.
const (
	JoinRequestPending  = "pending"
	JoinRequestApproved = "approved"
	JoinRequestRejected = "rejected"
)

type JoinRequest struct {
	Base
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;index" json:"organization_id"`
	UserID         uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Status         string    `gorm:"not null;default:'pending'" json:"status"`

	Organization *Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
	User         *User         `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (JoinRequest) TableName() string {
	return "join_requests"
}

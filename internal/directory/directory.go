// Package directory is the persistence and notification boundary for
// profiles, organizations, memberships, invites and join requests. The
// Directory interface is what the session store and the membership
// manager are written against; Store is the gorm-backed implementation.
package directory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/hugh/teamspace/internal/database/models"
)

var ErrNotFound = errors.New("not found")

type Directory interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.User, error)
	InsertOrganization(ctx context.Context, org *models.Organization) error
	FindOrganizationByJoinCode(ctx context.Context, code string) (*models.Organization, error)
	UpdateJoinCode(ctx context.Context, orgID uuid.UUID, code string) error

	InsertMembership(ctx context.Context, m *models.Membership) error
	FindMembership(ctx context.Context, orgID, userID uuid.UUID) (*models.Membership, error)
	ListMembershipsByUser(ctx context.Context, userID uuid.UUID) ([]models.Membership, error)
	CountMembershipsByUser(ctx context.Context, userID uuid.UUID) (int64, error)

	InsertInvite(ctx context.Context, inv *models.Invite) error
	ListInvitesByEmail(ctx context.Context, email string, accepted bool) ([]models.Invite, error)
	MarkInviteAccepted(ctx context.Context, id uuid.UUID) error

	InsertJoinRequest(ctx context.Context, jr *models.JoinRequest) error
	GetJoinRequest(ctx context.Context, id uuid.UUID) (*models.JoinRequest, error)
	FindPendingJoinRequest(ctx context.Context, orgID, userID uuid.UUID) (*models.JoinRequest, error)
	ListJoinRequestsByOrganization(ctx context.Context, orgID uuid.UUID, status string) ([]models.JoinRequest, error)
	ResolveJoinRequest(ctx context.Context, id uuid.UUID, status string) error

	// WithTx runs fn against a Directory whose operations share one
	// transaction; fn returning an error rolls everything back.
	WithTx(ctx context.Context, fn func(tx Directory) error) error
}

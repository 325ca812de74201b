// Package orgs implements the organization membership manager: creating
// organizations, join-code entry, invite reconciliation and join
// requests, all against the directory boundary.
package orgs

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/hugh/teamspace/internal/database/models"
	"github.com/hugh/teamspace/internal/directory"
)

var (
	ErrEmptyName      = errors.New("organization name is required")
	ErrInvalidCode    = errors.New("invalid join code")
	ErrCreationFailed = errors.New("organization creation failed")
	ErrForbidden      = errors.New("operation requires organization admin")
)

const (
	joinCodeLength   = 8
	joinCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// Collisions in a 36^8 space are rare; a handful of retries is enough
	// before giving up on the whole create.
	joinCodeAttempts = 5
)

type Service struct {
	dir    directory.Directory
	logger *slog.Logger
}

func NewService(dir directory.Directory, logger *slog.Logger) *Service {
	return &Service{dir: dir, logger: logger}
}

// CreateOrganization inserts the organization and the creator's admin
// membership in a single transaction, so a failed membership insert never
// leaves an orphaned organization behind.
func (s *Service) CreateOrganization(ctx context.Context, creatorID uuid.UUID, name, description string) (*models.Organization, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}

	code, err := s.uniqueJoinCode(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCreationFailed, err)
	}

	org := &models.Organization{
		Name:        name,
		Description: strings.TrimSpace(description),
		JoinCode:    &code,
		CreatedBy:   creatorID,
	}

	err = s.dir.WithTx(ctx, func(tx directory.Directory) error {
		if err := tx.InsertOrganization(ctx, org); err != nil {
			return err
		}
		return tx.InsertMembership(ctx, &models.Membership{
			OrganizationID: org.ID,
			UserID:         creatorID,
			Role:           models.RoleAdmin,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCreationFailed, err)
	}

	return org, nil
}

// JoinWithCode looks an organization up by exact join-code match and adds
// the caller as a member. Joining an organization the caller already
// belongs to succeeds without inserting a duplicate.
func (s *Service) JoinWithCode(ctx context.Context, userID uuid.UUID, code string) (*models.Organization, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrInvalidCode
	}

	org, err := s.dir.FindOrganizationByJoinCode(ctx, code)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return nil, ErrInvalidCode
		}
		return nil, err
	}

	if _, err := s.dir.FindMembership(ctx, org.ID, userID); err == nil {
		return org, nil // already a member
	} else if !errors.Is(err, directory.ErrNotFound) {
		return nil, err
	}

	err = s.dir.InsertMembership(ctx, &models.Membership{
		OrganizationID: org.ID,
		UserID:         userID,
		Role:           models.RoleMember,
	})
	if err != nil {
		return nil, err
	}

	return org, nil
}

// Memberships lists the user's memberships with their organizations
// embedded. Organizations with a rotated-out (null) join code are
// returned like any other.
func (s *Service) Memberships(ctx context.Context, userID uuid.UUID) ([]models.Membership, error) {
	return s.dir.ListMembershipsByUser(ctx, userID)
}

// HasMembership reports whether the user belongs to at least one
// organization; the route guard feeds this into the decision engine.
func (s *Service) HasMembership(ctx context.Context, userID uuid.UUID) (bool, error) {
	count, err := s.dir.CountMembershipsByUser(ctx, userID)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ReconcilePendingInvites consumes every un-accepted invite for the
// email. Invites are processed independently: one failure is logged and
// the loop continues, so a single bad invite cannot block the rest. A
// failed invite stays un-accepted and is retried on the next sign-in.
func (s *Service) ReconcilePendingInvites(ctx context.Context, userID uuid.UUID, email string) error {
	invites, err := s.dir.ListInvitesByEmail(ctx, email, false)
	if err != nil {
		return err
	}

	for _, inv := range invites {
		if err := s.acceptInvite(ctx, userID, inv); err != nil {
			s.logger.Warn("invite reconciliation failed",
				"invite_id", inv.ID,
				"organization_id", inv.OrganizationID,
				"error", err,
			)
		}
	}

	return nil
}

func (s *Service) acceptInvite(ctx context.Context, userID uuid.UUID, inv models.Invite) error {
	_, err := s.dir.FindMembership(ctx, inv.OrganizationID, userID)
	switch {
	case err == nil:
		// Membership already exists; just consume the invite.
	case errors.Is(err, directory.ErrNotFound):
		role := inv.Role
		if role == "" {
			role = models.RoleMember
		}
		if err := s.dir.InsertMembership(ctx, &models.Membership{
			OrganizationID: inv.OrganizationID,
			UserID:         userID,
			Role:           role,
		}); err != nil {
			return fmt.Errorf("inserting membership: %w", err)
		}
	default:
		return err
	}

	if err := s.dir.MarkInviteAccepted(ctx, inv.ID); err != nil {
		return fmt.Errorf("marking invite accepted: %w", err)
	}
	return nil
}

// CreateInvite records an admin-issued invite for an email address.
func (s *Service) CreateInvite(ctx context.Context, callerID, orgID uuid.UUID, email, role string) (*models.Invite, error) {
	if err := s.requireAdmin(ctx, orgID, callerID); err != nil {
		return nil, err
	}
	if role != models.RoleAdmin {
		role = models.RoleMember
	}

	inv := &models.Invite{
		OrganizationID: orgID,
		Email:          strings.TrimSpace(email),
		Role:           role,
	}
	if err := s.dir.InsertInvite(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// RegenerateJoinCode issues a fresh code for the organization. The old
// code stops matching the moment the update lands, so an in-flight join
// with the stale code fails with ErrInvalidCode.
func (s *Service) RegenerateJoinCode(ctx context.Context, callerID, orgID uuid.UUID) (string, error) {
	if err := s.requireAdmin(ctx, orgID, callerID); err != nil {
		return "", err
	}

	code, err := s.uniqueJoinCode(ctx)
	if err != nil {
		return "", err
	}

	if err := s.dir.UpdateJoinCode(ctx, orgID, code); err != nil {
		return "", err
	}
	return code, nil
}

// RequestToJoin records a join request for a listed organization when the
// user has no code. Requesting twice, or requesting an organization the
// user already belongs to, succeeds without creating another row.
func (s *Service) RequestToJoin(ctx context.Context, userID, orgID uuid.UUID) (*models.JoinRequest, error) {
	if _, err := s.dir.FindMembership(ctx, orgID, userID); err == nil {
		return nil, nil
	} else if !errors.Is(err, directory.ErrNotFound) {
		return nil, err
	}

	if existing, err := s.dir.FindPendingJoinRequest(ctx, orgID, userID); err == nil {
		return existing, nil
	} else if !errors.Is(err, directory.ErrNotFound) {
		return nil, err
	}

	jr := &models.JoinRequest{
		OrganizationID: orgID,
		UserID:         userID,
		Status:         models.JoinRequestPending,
	}
	if err := s.dir.InsertJoinRequest(ctx, jr); err != nil {
		return nil, err
	}
	return jr, nil
}

// ListJoinRequests returns the organization's join requests, optionally
// filtered by status. Admin-only.
func (s *Service) ListJoinRequests(ctx context.Context, callerID, orgID uuid.UUID, status string) ([]models.JoinRequest, error) {
	if err := s.requireAdmin(ctx, orgID, callerID); err != nil {
		return nil, err
	}
	return s.dir.ListJoinRequestsByOrganization(ctx, orgID, status)
}

// ApproveJoinRequest materializes a member membership and settles the
// request in one transaction; a request that is no longer pending cannot
// be approved again.
func (s *Service) ApproveJoinRequest(ctx context.Context, callerID uuid.UUID, jr *models.JoinRequest) error {
	if err := s.requireAdmin(ctx, jr.OrganizationID, callerID); err != nil {
		return err
	}

	return s.dir.WithTx(ctx, func(tx directory.Directory) error {
		if err := tx.ResolveJoinRequest(ctx, jr.ID, models.JoinRequestApproved); err != nil {
			return err
		}
		if _, err := tx.FindMembership(ctx, jr.OrganizationID, jr.UserID); err == nil {
			return nil
		} else if !errors.Is(err, directory.ErrNotFound) {
			return err
		}
		return tx.InsertMembership(ctx, &models.Membership{
			OrganizationID: jr.OrganizationID,
			UserID:         jr.UserID,
			Role:           models.RoleMember,
		})
	})
}

// RejectJoinRequest settles the request without creating a membership.
func (s *Service) RejectJoinRequest(ctx context.Context, callerID uuid.UUID, jr *models.JoinRequest) error {
	if err := s.requireAdmin(ctx, jr.OrganizationID, callerID); err != nil {
		return err
	}
	return s.dir.ResolveJoinRequest(ctx, jr.ID, models.JoinRequestRejected)
}

func (s *Service) requireAdmin(ctx context.Context, orgID, userID uuid.UUID) error {
	m, err := s.dir.FindMembership(ctx, orgID, userID)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return ErrForbidden
		}
		return err
	}
	if m.Role != models.RoleAdmin {
		return ErrForbidden
	}
	return nil
}

// uniqueJoinCode generates an 8-character uppercase base-36 code and
// retries on collision rather than silently accepting a duplicate.
func (s *Service) uniqueJoinCode(ctx context.Context) (string, error) {
	for i := 0; i < joinCodeAttempts; i++ {
		code, err := generateJoinCode()
		if err != nil {
			return "", err
		}
		_, err = s.dir.FindOrganizationByJoinCode(ctx, code)
		if errors.Is(err, directory.ErrNotFound) {
			return code, nil
		}
		if err != nil {
			return "", err
		}
		// Collision; try again.
	}
	return "", fmt.Errorf("exhausted join code attempts")
}

func generateJoinCode() (string, error) {
	buf := make([]byte, joinCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = joinCodeAlphabet[int(b)%len(joinCodeAlphabet)]
	}
	return string(buf), nil
}

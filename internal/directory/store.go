package directory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/hugh/teamspace/internal/database/models"
	"gorm.io/gorm"
)

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

var _ Directory = (*Store)(nil)

func (s *Store) GetProfile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *Store) InsertOrganization(ctx context.Context, org *models.Organization) error {
	return s.db.WithContext(ctx).Create(org).Error
}

func (s *Store) FindOrganizationByJoinCode(ctx context.Context, code string) (*models.Organization, error) {
	var org models.Organization
	if err := s.db.WithContext(ctx).Where("join_code = ?", code).First(&org).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &org, nil
}

func (s *Store) UpdateJoinCode(ctx context.Context, orgID uuid.UUID, code string) error {
	res := s.db.WithContext(ctx).Model(&models.Organization{}).
		Where("id = ?", orgID).
		Update("join_code", code)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) InsertMembership(ctx context.Context, m *models.Membership) error {
	return s.db.WithContext(ctx).Create(m).Error
}

func (s *Store) FindMembership(ctx context.Context, orgID, userID uuid.UUID) (*models.Membership, error) {
	var m models.Membership
	err := s.db.WithContext(ctx).
		Where("organization_id = ? AND user_id = ?", orgID, userID).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (s *Store) ListMembershipsByUser(ctx context.Context, userID uuid.UUID) ([]models.Membership, error) {
	var memberships []models.Membership
	err := s.db.WithContext(ctx).
		Preload("Organization").
		Where("user_id = ?", userID).
		Find(&memberships).Error
	if err != nil {
		return nil, err
	}
	return memberships, nil
}

func (s *Store) CountMembershipsByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Membership{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

func (s *Store) InsertInvite(ctx context.Context, inv *models.Invite) error {
	return s.db.WithContext(ctx).Create(inv).Error
}

func (s *Store) ListInvitesByEmail(ctx context.Context, email string, accepted bool) ([]models.Invite, error) {
	var invites []models.Invite
	err := s.db.WithContext(ctx).
		Where("email = ? AND accepted = ?", email, accepted).
		Find(&invites).Error
	if err != nil {
		return nil, err
	}
	return invites, nil
}

func (s *Store) MarkInviteAccepted(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Model(&models.Invite{}).
		Where("id = ? AND accepted = ?", id, false).
		Update("accepted", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) InsertJoinRequest(ctx context.Context, jr *models.JoinRequest) error {
	return s.db.WithContext(ctx).Create(jr).Error
}

func (s *Store) GetJoinRequest(ctx context.Context, id uuid.UUID) (*models.JoinRequest, error) {
	var jr models.JoinRequest
	if err := s.db.WithContext(ctx).First(&jr, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &jr, nil
}

func (s *Store) FindPendingJoinRequest(ctx context.Context, orgID, userID uuid.UUID) (*models.JoinRequest, error) {
	var jr models.JoinRequest
	err := s.db.WithContext(ctx).
		Where("organization_id = ? AND user_id = ? AND status = ?", orgID, userID, models.JoinRequestPending).
		First(&jr).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &jr, nil
}

func (s *Store) ListJoinRequestsByOrganization(ctx context.Context, orgID uuid.UUID, status string) ([]models.JoinRequest, error) {
	q := s.db.WithContext(ctx).
		Preload("User").
		Where("organization_id = ?", orgID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var requests []models.JoinRequest
	if err := q.Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

// ResolveJoinRequest transitions a pending request exactly once; a request
// already approved or rejected is never re-opened.
func (s *Store) ResolveJoinRequest(ctx context.Context, id uuid.UUID, status string) error {
	res := s.db.WithContext(ctx).Model(&models.JoinRequest{}).
		Where("id = ? AND status = ?", id, models.JoinRequestPending).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) WithTx(ctx context.Context, fn func(tx Directory) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/hugh/teamspace/internal/authz"
	"github.com/hugh/teamspace/internal/database/models"
	"github.com/hugh/teamspace/internal/directory"
	"github.com/hugh/teamspace/internal/tasks"
	"github.com/hugh/teamspace/pkg/config"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInactiveUser       = errors.New("user is inactive")
)

type Service struct {
	db     *gorm.DB
	jwt    *JWTService
	access config.AccessConfig
	bus    directory.EventBus
	queue  *asynq.Client
	logger *slog.Logger
}

func NewService(db *gorm.DB, jwt *JWTService, access config.AccessConfig, bus directory.EventBus, queue *asynq.Client, logger *slog.Logger) *Service {
	return &Service{
		db:     db,
		jwt:    jwt,
		access: access,
		bus:    bus,
		queue:  queue,
		logger: logger,
	}
}

type RegisterInput struct {
	Email    string
	Password string
	FullName string
}

type LoginInput struct {
	Email    string
	Password string
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Register creates the profile only. Organization bootstrap is the
// onboarding flow's job: by invite, by join code, or by creation.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*AuthResponse, error) {
	email := strings.TrimSpace(input.Email)

	var existing models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&existing).Error; err == nil {
		return nil, ErrUserExists
	}

	hash, err := HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Email:        email,
		PasswordHash: hash,
		FullName:     input.FullName,
		IsActive:     true,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, err
	}

	return s.establishSession(ctx, &user)
}

func (s *Service) Login(ctx context.Context, input LoginInput) (*AuthResponse, error) {
	var user models.User
	if err := s.db.WithContext(ctx).
		Where("email = ?", strings.TrimSpace(input.Email)).
		First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.IsActive {
		return nil, ErrInactiveUser
	}

	if !CheckPassword(input.Password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return s.establishSession(ctx, &user)
}

// establishSession issues the token with the admin and domain claims
// evaluated once, announces the sign-in, and queues the invite sweep.
func (s *Service) establishSession(ctx context.Context, user *models.User) (*AuthResponse, error) {
	isAdmin := authz.IsAdminEmail(user.Email, s.access.AdminEmails)
	domainValid := authz.DomainAllowed(user.Email, s.access.AllowedEmailDomains)

	token, err := s.jwt.GenerateToken(user.ID, user.Email, user.FullName, isAdmin, domainValid)
	if err != nil {
		return nil, err
	}

	if s.bus != nil {
		ev := directory.SessionEvent{
			Type:    directory.EventSignedIn,
			Session: &directory.Session{UserID: user.ID, Email: user.Email},
		}
		if err := s.bus.Publish(ctx, ev); err != nil {
			s.logger.Warn("failed to publish sign-in event", "error", err)
		}
	}

	if s.queue != nil {
		task, err := tasks.NewInviteSweepTask(tasks.InviteSweepPayload{
			UserID: user.ID,
			Email:  user.Email,
		})
		if err == nil {
			if _, err := s.queue.EnqueueContext(ctx, task); err != nil {
				s.logger.Warn("failed to enqueue invite sweep", "error", err)
			}
		}
	}

	return &AuthResponse{Token: token, User: user}, nil
}

// SignOut announces the sign-out so session stores clear their state.
// Token invalidation itself is cookie removal; sign-out never fails the
// request.
func (s *Service) SignOut(ctx context.Context, userID uuid.UUID, email string) {
	if s.bus == nil {
		return
	}
	ev := directory.SessionEvent{
		Type:    directory.EventSignedOut,
		Session: &directory.Session{UserID: userID, Email: email},
	}
	if err := s.bus.Publish(ctx, ev); err != nil {
		s.logger.Warn("failed to publish sign-out event", "user_id", userID, "error", err)
	}
}

func (s *Service) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// Package session holds the per-client session state fed by directory
// session-change events, and keeps it synchronized with the directory:
// profile fetch, membership fetch and invite reconciliation.
package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/hugh/teamspace/internal/authz"
	"github.com/hugh/teamspace/internal/database/models"
	"github.com/hugh/teamspace/internal/directory"
	"github.com/hugh/teamspace/internal/orgs"
	"github.com/hugh/teamspace/pkg/config"
)

// State is a snapshot of the session store, shaped to feed the decision
// engine directly.
type State struct {
	Principal        *authz.Principal
	Loading          bool
	Profile          *models.User
	Memberships      []models.Membership
	IsGlobalAdmin    bool
	EmailDomainValid bool
}

func (s State) HasMembership() bool {
	return len(s.Memberships) > 0
}

type Store struct {
	dir    directory.Directory
	orgs   *orgs.Service
	access config.AccessConfig
	logger *slog.Logger

	mu    sync.Mutex
	epoch uint64
	state State

	wg sync.WaitGroup
}

func NewStore(dir directory.Directory, orgService *orgs.Service, access config.AccessConfig, logger *slog.Logger) *Store {
	return &Store{
		dir:    dir,
		orgs:   orgService,
		access: access,
		logger: logger,
	}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe attaches the store to the event bus until ctx is canceled.
// The bus subscription is released deterministically on teardown, and no
// fetch started before teardown mutates state afterwards.
func (s *Store) Subscribe(ctx context.Context, bus directory.EventBus) error {
	events, unsubscribe, err := bus.Subscribe(ctx)
	if err != nil {
		return err
	}

	go func() {
		defer unsubscribe()
		for {
			select {
			case ev, ok := <-events:
				if !ok {
					return
				}
				s.Handle(ctx, ev)
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Handle applies one session-change event. Each event supersedes every
// fetch spawned by earlier events: fetches are tagged with the epoch that
// spawned them and discarded on completion if the epoch has moved on.
func (s *Store) Handle(ctx context.Context, ev directory.SessionEvent) {
	if ev.Type == directory.EventSignedOut || ev.Session == nil {
		s.mu.Lock()
		s.epoch++
		s.state = State{}
		s.mu.Unlock()
		return
	}

	principal := &authz.Principal{ID: ev.Session.UserID, Email: ev.Session.Email}

	s.mu.Lock()
	s.epoch++
	epoch := s.epoch
	s.state.Principal = principal
	s.state.Loading = true
	s.state.IsGlobalAdmin = authz.IsAdminEmail(principal.Email, s.access.AdminEmails)
	s.state.EmailDomainValid = authz.DomainAllowed(principal.Email, s.access.AllowedEmailDomains)
	s.mu.Unlock()

	// Profile and membership fetches run concurrently with each other.
	s.wg.Add(2)

	go func() {
		defer s.wg.Done()
		s.syncProfile(ctx, epoch, principal.ID)
	}()

	signedIn := ev.Type == directory.EventSignedIn
	go func() {
		defer s.wg.Done()
		s.syncMemberships(ctx, epoch, principal, signedIn)
	}()
}

// Wait blocks until in-flight fetches settle. Test hook.
func (s *Store) Wait() {
	s.wg.Wait()
}

// syncProfile lazily fetches the profile. Loading settles once the fetch
// completes, success or failure; on failure the prior profile is kept
// rather than cleared.
func (s *Store) syncProfile(ctx context.Context, epoch uint64, userID uuid.UUID) {
	profile, err := s.dir.GetProfile(ctx, userID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch || ctx.Err() != nil {
		return // superseded or torn down; discard
	}

	s.state.Loading = false
	if err != nil {
		s.logger.Warn("profile fetch failed", "user_id", userID, "error", err)
		return
	}
	s.state.Profile = profile
}

// syncMemberships refreshes the membership list. A SIGNED_IN event first
// reconciles pending invites so memberships materialized from invites are
// visible in the same refresh.
func (s *Store) syncMemberships(ctx context.Context, epoch uint64, principal *authz.Principal, signedIn bool) {
	if signedIn {
		if err := s.orgs.ReconcilePendingInvites(ctx, principal.ID, principal.Email); err != nil {
			s.logger.Warn("invite reconciliation failed", "user_id", principal.ID, "error", err)
		}
	}

	memberships, err := s.orgs.Memberships(ctx, principal.ID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch || ctx.Err() != nil {
		return // superseded or torn down; discard
	}

	if err != nil {
		s.logger.Warn("membership fetch failed", "user_id", principal.ID, "error", err)
		return // fail-safe: keep prior memberships
	}
	s.state.Memberships = memberships
}

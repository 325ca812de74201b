package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/hugh/teamspace/internal/directory"
	"github.com/hugh/teamspace/internal/orgs"
	"github.com/hugh/teamspace/pkg/config"
)

// Manager keeps one session store per signed-in user and routes bus
// events to them. The route guard consults it for loading state.
type Manager struct {
	dir    directory.Directory
	orgs   *orgs.Service
	access config.AccessConfig
	logger *slog.Logger

	mu     sync.Mutex
	stores map[uuid.UUID]*Store
}

func NewManager(dir directory.Directory, orgService *orgs.Service, access config.AccessConfig, logger *slog.Logger) *Manager {
	return &Manager{
		dir:    dir,
		orgs:   orgService,
		access: access,
		logger: logger,
		stores: make(map[uuid.UUID]*Store),
	}
}

// Run subscribes to the bus and dispatches events until ctx is canceled.
func (m *Manager) Run(ctx context.Context, bus directory.EventBus) error {
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
				m.dispatch(ctx, ev)
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

func (m *Manager) dispatch(ctx context.Context, ev directory.SessionEvent) {
	if ev.Session == nil {
		// Without a session identity there is no store to route to.
		m.logger.Debug("dropping unroutable session event", "type", ev.Type)
		return
	}

	userID := ev.Session.UserID

	if ev.Type == directory.EventSignedOut {
		m.mu.Lock()
		store, ok := m.stores[userID]
		delete(m.stores, userID)
		m.mu.Unlock()
		if ok {
			store.Handle(ctx, ev)
		}
		return
	}

	m.mu.Lock()
	store, ok := m.stores[userID]
	if !ok {
		store = NewStore(m.dir, m.orgs, m.access, m.logger)
		m.stores[userID] = store
	}
	m.mu.Unlock()

	store.Handle(ctx, ev)
}

// Loading reports whether a tracked session is still synchronizing. An
// untracked user is not loading; the guard falls back to a directory
// lookup for membership.
func (m *Manager) Loading(userID uuid.UUID) bool {
	m.mu.Lock()
	store, ok := m.stores[userID]
	m.mu.Unlock()
	if !ok {
		return false
	}
	return store.Snapshot().Loading
}

// Snapshot returns the tracked state for a user, if any.
func (m *Manager) Snapshot(userID uuid.UUID) (State, bool) {
	m.mu.Lock()
	store, ok := m.stores[userID]
	m.mu.Unlock()
	if !ok {
		return State{}, false
	}
	return store.Snapshot(), true
}

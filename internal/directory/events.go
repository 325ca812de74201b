package directory

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type EventType string

const (
	EventSignedIn       EventType = "SIGNED_IN"
	EventSignedOut      EventType = "SIGNED_OUT"
	EventTokenRefreshed EventType = "TOKEN_REFRESHED"
)

// Session identifies the authenticated principal behind a session event.
// Nil Session on an event means no session (signed out).
type Session struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
}

type SessionEvent struct {
	Type    EventType `json:"type"`
	Session *Session  `json:"session,omitempty"`
}

// EventBus delivers session-change notifications. Unsubscribe is
// idempotent and must release the subscription deterministically.
type EventBus interface {
	Publish(ctx context.Context, ev SessionEvent) error
	Subscribe(ctx context.Context) (<-chan SessionEvent, func(), error)
}

const sessionChannel = "teamspace:session_events"

// RedisBus fans session events out across server instances via redis
// pub/sub.
type RedisBus struct {
	client *redis.Client
	logger *slog.Logger
}

func NewRedisBus(client *redis.Client, logger *slog.Logger) *RedisBus {
	return &RedisBus{client: client, logger: logger}
}

var _ EventBus = (*RedisBus)(nil)

func (b *RedisBus) Publish(ctx context.Context, ev SessionEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, sessionChannel, data).Err()
}

func (b *RedisBus) Subscribe(ctx context.Context) (<-chan SessionEvent, func(), error) {
	sub := b.client.Subscribe(ctx, sessionChannel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, err
	}

	out := make(chan SessionEvent)
	done := make(chan struct{})

	go func() {
		defer close(out)
		ch := sub.Channel()
		for {
			select {
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev SessionEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					b.logger.Warn("dropping malformed session event", "error", err)
					continue
				}
				select {
				case out <- ev:
				case <-done:
					return
				case <-ctx.Done():
					return
				}
			case <-done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			close(done)
			_ = sub.Close()
		})
	}

	return out, unsubscribe, nil
}

// ChanBus is an in-process event bus used in tests and single-node
// deployments.
type ChanBus struct {
	mu   sync.Mutex
	subs map[chan SessionEvent]struct{}
}

func NewChanBus() *ChanBus {
	return &ChanBus{subs: make(map[chan SessionEvent]struct{})}
}

var _ EventBus = (*ChanBus)(nil)

func (b *ChanBus) Publish(ctx context.Context, ev SessionEvent) error {
	b.mu.Lock()
	targets := make([]chan SessionEvent, 0, len(b.subs))
	for ch := range b.subs {
		targets = append(targets, ch)
	}
	b.mu.Unlock()

	for _, ch := range targets {
		select {
		case ch <- ev:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (b *ChanBus) Subscribe(ctx context.Context) (<-chan SessionEvent, func(), error) {
	ch := make(chan SessionEvent, 16)

	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, ch)
			b.mu.Unlock()
		})
	}

	return ch, unsubscribe, nil
}

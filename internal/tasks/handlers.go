package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/hugh/teamspace/internal/database/models"
	"github.com/hugh/teamspace/internal/directory"
	"github.com/hugh/teamspace/internal/orgs"
	"gorm.io/gorm"
)

type Handler struct {
	db         *gorm.DB
	logger     *slog.Logger
	orgService *orgs.Service
	bus        directory.EventBus
	requestTTL time.Duration
}

func NewHandler(db *gorm.DB, logger *slog.Logger, bus directory.EventBus, requestTTL time.Duration) *Handler {
	return &Handler{
		db:         db,
		logger:     logger,
		orgService: orgs.NewService(directory.NewStore(db), logger),
		bus:        bus,
		requestTTL: requestTTL,
	}
}

func (h *Handler) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeInviteSweep, h.HandleInviteSweep)
	mux.HandleFunc(TypeJoinRequestExpiry, h.HandleJoinRequestExpiry)
}

// HandleInviteSweep reconciles the user's pending invites and then
// notifies session stores so memberships refresh once, not per invite.
func (h *Handler) HandleInviteSweep(ctx context.Context, t *asynq.Task) error {
	var payload InviteSweepPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	h.logger.Info("sweeping pending invites", "user_id", payload.UserID, "email", payload.Email)

	if err := h.orgService.ReconcilePendingInvites(ctx, payload.UserID, payload.Email); err != nil {
		return err
	}

	if h.bus != nil {
		ev := directory.SessionEvent{
			Type:    directory.EventTokenRefreshed,
			Session: &directory.Session{UserID: payload.UserID, Email: payload.Email},
		}
		if err := h.bus.Publish(ctx, ev); err != nil {
			h.logger.Warn("failed to publish refresh event", "error", err)
		}
	}

	return nil
}

// HandleJoinRequestExpiry rejects pending join requests older than the
// configured TTL.
func (h *Handler) HandleJoinRequestExpiry(ctx context.Context, t *asynq.Task) error {
	cutoff := time.Now().Add(-h.requestTTL)

	res := h.db.WithContext(ctx).Model(&models.JoinRequest{}).
		Where("status = ? AND created_at < ?", models.JoinRequestPending, cutoff).
		Update("status", models.JoinRequestRejected)
	if res.Error != nil {
		return res.Error
	}

	if res.RowsAffected > 0 {
		h.logger.Info("expired stale join requests", "count", res.RowsAffected)
	}
	return nil
}

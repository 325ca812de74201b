package tasks

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Task type names
const (
	TypeInviteSweep       = "onboarding:invite_sweep"
	TypeJoinRequestExpiry = "onboarding:join_request_expiry"
)

// InviteSweepPayload identifies the freshly signed-in user whose pending
// invites should be reconciled.
type InviteSweepPayload struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
}

func NewInviteSweepTask(payload InviteSweepPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeInviteSweep, data), nil
}

// JoinRequestExpiryPayload is empty - the sweep covers all organizations.
type JoinRequestExpiryPayload struct{}

func NewJoinRequestExpiryTask() *asynq.Task {
	return asynq.NewTask(TypeJoinRequestExpiry, nil)
}

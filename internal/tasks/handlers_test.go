package tasks_test

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/hugh/teamspace/internal/database/models"
	"github.com/hugh/teamspace/internal/directory"
	"github.com/hugh/teamspace/internal/tasks"
	"github.com/hugh/teamspace/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestNewHandler(t *testing.T) {
	setup := testutil.NewTestContext(t)
	defer setup.Cleanup()

	handler := tasks.NewHandler(setup.DB, testLogger(), nil, time.Hour)

	assert.NotNil(t, handler)
}

func TestHandleInviteSweep_InvalidPayload(t *testing.T) {
	setup := testutil.NewTestContext(t)
	defer setup.Cleanup()

	handler := tasks.NewHandler(setup.DB, testLogger(), nil, time.Hour)

	task := asynq.NewTask(tasks.TypeInviteSweep, []byte("invalid json"))

	err := handler.HandleInviteSweep(context.Background(), task)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal payload")
}

func TestHandleInviteSweep(t *testing.T) {
	setup := testutil.NewTestContext(t)
	defer setup.Cleanup()

	invitee := testutil.CreateTestUser(t, setup.DB)
	invite := &models.Invite{
		Base:           models.Base{ID: uuid.New()},
		OrganizationID: setup.Org.ID,
		Email:          invitee.Email,
		Role:           models.RoleMember,
	}
	require.NoError(t, setup.DB.Create(invite).Error)

	bus := directory.NewChanBus()
	events, unsubscribe, err := bus.Subscribe(context.Background())
	require.NoError(t, err)
	defer unsubscribe()

	handler := tasks.NewHandler(setup.DB, testLogger(), bus, time.Hour)

	task, err := tasks.NewInviteSweepTask(tasks.InviteSweepPayload{UserID: invitee.ID, Email: invitee.Email})
	require.NoError(t, err)

	require.NoError(t, handler.HandleInviteSweep(context.Background(), task))

	// Membership materialized from the invite.
	var m models.Membership
	err = setup.DB.Where("organization_id = ? AND user_id = ?", setup.Org.ID, invitee.ID).First(&m).Error
	require.NoError(t, err)
	assert.Equal(t, models.RoleMember, m.Role)

	// Invite consumed.
	var refreshed models.Invite
	require.NoError(t, setup.DB.Where("id = ?", invite.ID).First(&refreshed).Error)
	assert.True(t, refreshed.Accepted)

	// Session stores are told to refresh once.
	ev := <-events
	assert.Equal(t, directory.EventTokenRefreshed, ev.Type)
	require.NotNil(t, ev.Session)
	assert.Equal(t, invitee.ID, ev.Session.UserID)
}

func TestHandleJoinRequestExpiry(t *testing.T) {
	setup := testutil.NewTestContext(t)
	defer setup.Cleanup()

	requester := testutil.CreateTestUser(t, setup.DB)

	stale := &models.JoinRequest{
		Base:           models.Base{ID: uuid.New()},
		OrganizationID: setup.Org.ID,
		UserID:         requester.ID,
		Status:         models.JoinRequestPending,
	}
	require.NoError(t, setup.DB.Create(stale).Error)
	require.NoError(t, setup.DB.Model(stale).
		Update("created_at", time.Now().Add(-48*time.Hour)).Error)

	fresh := &models.JoinRequest{
		Base:           models.Base{ID: uuid.New()},
		OrganizationID: setup.Org.ID,
		UserID:         testutil.CreateTestUser(t, setup.DB).ID,
		Status:         models.JoinRequestPending,
	}
	require.NoError(t, setup.DB.Create(fresh).Error)

	handler := tasks.NewHandler(setup.DB, testLogger(), nil, 24*time.Hour)

	require.NoError(t, handler.HandleJoinRequestExpiry(context.Background(), tasks.NewJoinRequestExpiryTask()))

	var got models.JoinRequest
	require.NoError(t, setup.DB.Where("id = ?", stale.ID).First(&got).Error)
	assert.Equal(t, models.JoinRequestRejected, got.Status)

	require.NoError(t, setup.DB.Where("id = ?", fresh.ID).First(&got).Error)
	assert.Equal(t, models.JoinRequestPending, got.Status)
}

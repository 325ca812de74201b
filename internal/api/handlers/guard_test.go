package handlers_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hugh/teamspace/internal/api/handlers"
	"github.com/hugh/teamspace/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedMemberships bool

func (f fixedMemberships) HasMembership(ctx context.Context, userID uuid.UUID) (bool, error) {
	return bool(f), nil
}

type fixedSessions bool

func (f fixedSessions) Loading(userID uuid.UUID) bool {
	return bool(f)
}

func TestGuardHandler_Decision(t *testing.T) {
	jwt := auth.NewJWTService("test-secret", time.Hour)

	t.Run("missing path is rejected", func(t *testing.T) {
		h := handlers.NewGuardHandler(jwt, fixedMemberships(true), fixedSessions(false))

		req := httptest.NewRequest("GET", "/api/v1/guard/decision", nil)
		rr := httptest.NewRecorder()
		h.Decision(rr, req)

		assert.Equal(t, 400, rr.Code)
	})

	t.Run("anonymous caller is redirected to login", func(t *testing.T) {
		h := handlers.NewGuardHandler(jwt, fixedMemberships(false), fixedSessions(false))

		req := httptest.NewRequest("GET", "/api/v1/guard/decision?path=/dashboard", nil)
		rr := httptest.NewRecorder()
		h.Decision(rr, req)

		require.Equal(t, 200, rr.Code)

		var out handlers.GuardOutcome
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
		assert.Equal(t, "redirect", out.Action)
		assert.Equal(t, "/login", out.Path)
		assert.True(t, out.PreserveOrigin)
	})

	t.Run("member gets render for the asked path, not the request path", func(t *testing.T) {
		h := handlers.NewGuardHandler(jwt, fixedMemberships(true), fixedSessions(false))

		token, err := jwt.GenerateToken(uuid.New(), "user@corp.com", "User", false, true)
		require.NoError(t, err)

		req := httptest.NewRequest("GET", "/api/v1/guard/decision?path=/projects/123", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		h.Decision(rr, req)

		require.Equal(t, 200, rr.Code)

		var out handlers.GuardOutcome
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
		assert.Equal(t, "render", out.Action)
		assert.Empty(t, out.Path)
	})

	t.Run("loading session asks the client to wait", func(t *testing.T) {
		h := handlers.NewGuardHandler(jwt, fixedMemberships(true), fixedSessions(true))

		token, err := jwt.GenerateToken(uuid.New(), "user@corp.com", "User", false, true)
		require.NoError(t, err)

		req := httptest.NewRequest("GET", "/api/v1/guard/decision?path=/dashboard", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		h.Decision(rr, req)

		require.Equal(t, 200, rr.Code)

		var out handlers.GuardOutcome
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
		assert.Equal(t, "show_loading", out.Action)
	})
}

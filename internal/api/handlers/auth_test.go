package handlers_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hugh/teamspace/internal/api/dto"
	"github.com/hugh/teamspace/internal/api/handlers"
	"github.com/hugh/teamspace/internal/api/middleware"
	"github.com/hugh/teamspace/internal/auth"
	"github.com/hugh/teamspace/internal/directory"
	"github.com/hugh/teamspace/internal/testutil"
	"github.com/hugh/teamspace/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAuthTestRouter(t *testing.T) (*chi.Mux, *testutil.TestSetup, *directory.ChanBus) {
	tc := testutil.NewTestContext(t)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bus := directory.NewChanBus()
	access := config.AccessConfig{
		AllowedEmailDomains: nil, // empty list admits every domain
		AdminEmails:         []string{"root@example.com"},
	}
	authService := auth.NewService(tc.DB, tc.JWTService, access, bus, nil, logger)
	handler := handlers.NewAuthHandler(authService)

	r := chi.NewRouter()
	r.Post("/api/v1/auth/register", handler.Register)
	r.Post("/api/v1/auth/login", handler.Login)
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(tc.JWTService))
		r.Post("/api/v1/auth/logout", handler.Logout)
	})

	return r, tc, bus
}

func TestAuthHandler_Register(t *testing.T) {
	router, tc, _ := setupAuthTestRouter(t)
	defer tc.Cleanup()

	t.Run("successful registration", func(t *testing.T) {
		body := map[string]string{
			"email":     "newuser@example.com",
			"password":  "securepassword123",
			"full_name": "New User",
		}

		req := testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/register", body)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)

		var resp dto.AuthResponse
		err := json.Unmarshal(rr.Body.Bytes(), &resp)
		require.NoError(t, err)
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, "newuser@example.com", resp.User.Email)
		assert.Equal(t, "New User", resp.User.FullName)
	})

	t.Run("registration issues claims evaluated at issuance", func(t *testing.T) {
		body := map[string]string{
			"email":     "root@example.com",
			"password":  "securepassword123",
			"full_name": "Root",
		}

		req := testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/register", body)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusCreated, rr.Code)

		var resp dto.AuthResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))

		claims, err := tc.JWTService.ValidateToken(resp.Token)
		require.NoError(t, err)
		assert.True(t, claims.IsGlobalAdmin)
		assert.True(t, claims.DomainValid)
	})

	t.Run("duplicate email", func(t *testing.T) {
		body := map[string]string{
			"email":     tc.User.Email,
			"password":  "securepassword123",
			"full_name": "Duplicate",
		}

		req := testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/register", body)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("validation failure", func(t *testing.T) {
		body := map[string]string{
			"email":    "not-an-email",
			"password": "short",
		}

		req := testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/register", body)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)

		var resp dto.ErrorResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Contains(t, resp.Details, "email")
		assert.Contains(t, resp.Details, "password")
		assert.Contains(t, resp.Details, "full_name")
	})
}

func TestAuthHandler_Login(t *testing.T) {
	router, tc, bus := setupAuthTestRouter(t)
	defer tc.Cleanup()

	t.Run("successful login publishes sign-in event", func(t *testing.T) {
		events, unsubscribe, err := bus.Subscribe(context.Background())
		require.NoError(t, err)
		defer unsubscribe()

		body := map[string]string{
			"email":    tc.User.Email,
			"password": "testpassword123",
		}

		req := testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/login", body)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var resp dto.AuthResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.Token)

		ev := <-events
		assert.Equal(t, directory.EventSignedIn, ev.Type)
		require.NotNil(t, ev.Session)
		assert.Equal(t, tc.User.ID, ev.Session.UserID)
	})

	t.Run("wrong password", func(t *testing.T) {
		body := map[string]string{
			"email":    tc.User.Email,
			"password": "wrongpassword",
		}

		req := testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/login", body)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("unknown email", func(t *testing.T) {
		body := map[string]string{
			"email":    "nobody@example.com",
			"password": "testpassword123",
		}

		req := testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/login", body)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestAuthHandler_Logout(t *testing.T) {
	router, tc, bus := setupAuthTestRouter(t)
	defer tc.Cleanup()

	events, unsubscribe, err := bus.Subscribe(context.Background())
	require.NoError(t, err)
	defer unsubscribe()

	req := testutil.AuthenticatedRequest(t, "POST", "/api/v1/auth/logout", nil, tc.Token)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	ev := <-events
	assert.Equal(t, directory.EventSignedOut, ev.Type)
	require.NotNil(t, ev.Session)
	assert.Equal(t, tc.User.ID, ev.Session.UserID)

	// Cookie is cleared.
	found := false
	for _, c := range rr.Result().Cookies() {
		if c.Name == "token" {
			found = true
			assert.Empty(t, c.Value)
			assert.Less(t, c.MaxAge, 0)
		}
	}
	assert.True(t, found, "token cookie should be cleared")
}

package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hugh/teamspace/internal/api/middleware"
	"github.com/hugh/teamspace/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticMemberships struct {
	has bool
	err error
}

func (s staticMemberships) HasMembership(ctx context.Context, userID uuid.UUID) (bool, error) {
	return s.has, s.err
}

type staticSessions struct {
	loading bool
}

func (s staticSessions) Loading(userID uuid.UUID) bool {
	return s.loading
}

func guardedHandler(jwt *auth.JWTService, memberships middleware.MembershipChecker, sessions middleware.SessionStates) http.Handler {
	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return middleware.Guard(jwt, memberships, sessions)(okHandler)
}

func tokenFor(t *testing.T, jwt *auth.JWTService, admin, domainValid bool) string {
	t.Helper()
	token, err := jwt.GenerateToken(uuid.New(), "user@corp.com", "User", admin, domainValid)
	require.NoError(t, err)
	return token
}

func TestGuard(t *testing.T) {
	jwt := auth.NewJWTService("test-secret", time.Hour)

	t.Run("unauthenticated redirects to login with origin", func(t *testing.T) {
		h := guardedHandler(jwt, staticMemberships{}, staticSessions{})

		req := httptest.NewRequest("GET", "/dashboard/reports", nil)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusFound, rr.Code)
		assert.Equal(t, "/login?next=%2Fdashboard%2Freports", rr.Header().Get("Location"))
	})

	t.Run("member renders", func(t *testing.T) {
		h := guardedHandler(jwt, staticMemberships{has: true}, staticSessions{})

		req := httptest.NewRequest("GET", "/dashboard", nil)
		req.Header.Set("Authorization", "Bearer "+tokenFor(t, jwt, false, true))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("loading session answers 503 with retry hint", func(t *testing.T) {
		h := guardedHandler(jwt, staticMemberships{has: true}, staticSessions{loading: true})

		req := httptest.NewRequest("GET", "/dashboard", nil)
		req.Header.Set("Authorization", "Bearer "+tokenFor(t, jwt, false, true))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
		assert.Equal(t, "1", rr.Header().Get("Retry-After"))
	})

	t.Run("invalid domain redirects before anything else", func(t *testing.T) {
		// Even a global admin with memberships is locked out on domain.
		h := guardedHandler(jwt, staticMemberships{has: true}, staticSessions{})

		req := httptest.NewRequest("GET", "/dashboard", nil)
		req.Header.Set("Authorization", "Bearer "+tokenFor(t, jwt, true, false))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusFound, rr.Code)
		assert.Equal(t, "/domain-restricted", rr.Header().Get("Location"))
	})

	t.Run("global admin bypasses membership on dashboard", func(t *testing.T) {
		h := guardedHandler(jwt, staticMemberships{has: false}, staticSessions{})

		req := httptest.NewRequest("GET", "/dashboard", nil)
		req.Header.Set("Authorization", "Bearer "+tokenFor(t, jwt, true, true))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("no membership redirects to onboarding", func(t *testing.T) {
		h := guardedHandler(jwt, staticMemberships{has: false}, staticSessions{})

		req := httptest.NewRequest("GET", "/dashboard", nil)
		req.Header.Set("Authorization", "Bearer "+tokenFor(t, jwt, false, true))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusFound, rr.Code)
		assert.Equal(t, "/organization-onboarding", rr.Header().Get("Location"))
	})

	t.Run("member on onboarding page is sent to dashboard", func(t *testing.T) {
		h := guardedHandler(jwt, staticMemberships{has: true}, staticSessions{})

		req := httptest.NewRequest("GET", "/organization-onboarding", nil)
		req.Header.Set("Authorization", "Bearer "+tokenFor(t, jwt, false, true))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusFound, rr.Code)
		assert.Equal(t, "/dashboard", rr.Header().Get("Location"))
	})

	t.Run("membership check failure falls back to onboarding", func(t *testing.T) {
		h := guardedHandler(jwt, staticMemberships{err: assert.AnError}, staticSessions{})

		req := httptest.NewRequest("GET", "/dashboard", nil)
		req.Header.Set("Authorization", "Bearer "+tokenFor(t, jwt, false, true))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusFound, rr.Code)
		assert.Equal(t, "/organization-onboarding", rr.Header().Get("Location"))
	})
}

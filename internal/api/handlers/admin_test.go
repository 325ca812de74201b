package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hugh/teamspace/internal/api/handlers"
	"github.com/hugh/teamspace/internal/api/middleware"
	"github.com/hugh/teamspace/internal/database/models"
	"github.com/hugh/teamspace/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAdminTestRouter(t *testing.T) (*chi.Mux, *testutil.TestSetup) {
	tc := testutil.NewTestContext(t)

	handler := handlers.NewAdminHandler(tc.DB)

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(tc.JWTService))
		r.Route("/api/v1/admin", func(r chi.Router) {
			r.Use(middleware.RequireGlobalAdmin)
			r.Get("/organizations", handler.ListOrganizations)
			r.Get("/users", handler.ListUsers)
		})
	})

	return r, tc
}

func TestAdminHandler_RequiresGlobalAdmin(t *testing.T) {
	router, tc := setupAdminTestRouter(t)
	defer tc.Cleanup()

	// Default test token carries admin=false
	req := testutil.AuthenticatedRequest(t, "GET", "/api/v1/admin/organizations", nil, tc.Token)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestAdminHandler_ListOrganizations(t *testing.T) {
	router, tc := setupAdminTestRouter(t)
	defer tc.Cleanup()

	adminToken, err := tc.JWTService.GenerateToken(tc.User.ID, tc.User.Email, tc.User.FullName, true, true)
	require.NoError(t, err)

	req := testutil.AuthenticatedRequest(t, "GET", "/api/v1/admin/organizations", nil, adminToken)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var orgs []models.Organization
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &orgs))
	require.Len(t, orgs, 1)
	assert.Equal(t, tc.Org.ID, orgs[0].ID)
}

func TestAdminHandler_ListUsers(t *testing.T) {
	router, tc := setupAdminTestRouter(t)
	defer tc.Cleanup()

	adminToken, err := tc.JWTService.GenerateToken(tc.User.ID, tc.User.Email, tc.User.FullName, true, true)
	require.NoError(t, err)

	req := testutil.AuthenticatedRequest(t, "GET", "/api/v1/admin/users", nil, adminToken)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var users []models.User
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &users))
	require.Len(t, users, 1)
	assert.Equal(t, tc.User.Email, users[0].Email)
	assert.Empty(t, users[0].PasswordHash)
}

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

func setupProjectTestRouter(t *testing.T) (*chi.Mux, *testutil.TestSetup) {
	tc := testutil.NewTestContext(t)

	handler := handlers.NewProjectHandler(tc.DB)

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(tc.JWTService))
		r.Route("/api/v1/projects", func(r chi.Router) {
			r.Get("/", handler.List)
			r.Post("/", handler.Create)
			r.Get("/{id}", handler.Get)
			r.Put("/{id}", handler.Update)
			r.Delete("/{id}", handler.Delete)
		})
	})

	return r, tc
}

func TestProjectHandler_Create(t *testing.T) {
	router, tc := setupProjectTestRouter(t)
	defer tc.Cleanup()

	t.Run("creator becomes project admin", func(t *testing.T) {
		body := map[string]string{"name": "Launch", "description": "Q4 launch plan"}

		req := testutil.AuthenticatedRequest(t, "POST", "/api/v1/projects", body, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)

		var project models.Project
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &project))
		assert.Equal(t, "Launch", project.Name)
		assert.Equal(t, tc.Org.ID, project.OrganizationID)

		var member models.ProjectMember
		err := tc.DB.Where("project_id = ? AND user_id = ?", project.ID, tc.User.ID).
			First(&member).Error
		require.NoError(t, err)
		assert.Equal(t, models.RoleAdmin, member.Role)
	})

	t.Run("blank name rejected", func(t *testing.T) {
		body := map[string]string{"name": ""}

		req := testutil.AuthenticatedRequest(t, "POST", "/api/v1/projects", body, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("requires organization membership", func(t *testing.T) {
		outsider := testutil.CreateTestUser(t, tc.DB)
		token := testutil.GenerateTestToken(t, tc.JWTService, outsider)
		body := map[string]string{"name": "Orphan"}

		req := testutil.AuthenticatedRequest(t, "POST", "/api/v1/projects", body, token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})
}

func TestProjectHandler_List(t *testing.T) {
	router, tc := setupProjectTestRouter(t)
	defer tc.Cleanup()

	project := testutil.CreateTestProject(t, tc.DB, tc.Org, tc.User)

	t.Run("returns caller's projects with role", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "GET", "/api/v1/projects", nil, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var resp []map[string]interface{}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		require.Len(t, resp, 1)
		assert.Equal(t, project.Name, resp[0]["name"])
		assert.Equal(t, models.RoleAdmin, resp[0]["role"])
	})

	t.Run("non-member sees no projects", func(t *testing.T) {
		outsider := testutil.CreateTestUser(t, tc.DB)
		token := testutil.GenerateTestToken(t, tc.JWTService, outsider)

		req := testutil.AuthenticatedRequest(t, "GET", "/api/v1/projects", nil, token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var resp []map[string]interface{}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Empty(t, resp)
	})
}

func TestProjectHandler_MembershipEnforcement(t *testing.T) {
	router, tc := setupProjectTestRouter(t)
	defer tc.Cleanup()

	project := testutil.CreateTestProject(t, tc.DB, tc.Org, tc.User)

	outsider := testutil.CreateTestUser(t, tc.DB)
	outsiderToken := testutil.GenerateTestToken(t, tc.JWTService, outsider)

	member := testutil.CreateTestUser(t, tc.DB)
	memberToken := testutil.GenerateTestToken(t, tc.JWTService, member)
	require.NoError(t, tc.DB.Create(&models.ProjectMember{
		ProjectID: project.ID,
		UserID:    member.ID,
		Role:      models.RoleMember,
	}).Error)

	t.Run("non-member cannot read", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "GET", "/api/v1/projects/"+project.ID.String(), nil, outsiderToken)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("member can read", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "GET", "/api/v1/projects/"+project.ID.String(), nil, memberToken)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("member cannot update", func(t *testing.T) {
		body := map[string]string{"name": "Renamed"}

		req := testutil.AuthenticatedRequest(t, "PUT", "/api/v1/projects/"+project.ID.String(), body, memberToken)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("admin can update", func(t *testing.T) {
		body := map[string]string{"name": "Renamed"}

		req := testutil.AuthenticatedRequest(t, "PUT", "/api/v1/projects/"+project.ID.String(), body, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var updated models.Project
		require.NoError(t, tc.DB.Where("id = ?", project.ID).First(&updated).Error)
		assert.Equal(t, "Renamed", updated.Name)
	})

	t.Run("invalid project id", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "GET", "/api/v1/projects/not-a-uuid", nil, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

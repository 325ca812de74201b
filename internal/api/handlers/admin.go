package handlers

import (
	"net/http"

	"github.com/hugh/teamspace/internal/api/dto"
	"github.com/hugh/teamspace/internal/database/models"
	"gorm.io/gorm"
)

// AdminHandler serves the global-admin console endpoints. Callers reach
// these only through the RequireGlobalAdmin middleware.
type AdminHandler struct {
	db *gorm.DB
}

func NewAdminHandler(db *gorm.DB) *AdminHandler {
	return &AdminHandler{db: db}
}

// ListOrganizations handles GET /api/v1/admin/organizations
func (h *AdminHandler) ListOrganizations(w http.ResponseWriter, r *http.Request) {
	var orgs []models.Organization
	err := h.db.WithContext(r.Context()).
		Order("created_at DESC").
		Find(&orgs).Error
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to load organizations"})
		return
	}

	writeJSON(w, http.StatusOK, orgs)
}

// ListUsers handles GET /api/v1/admin/users
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	var users []models.User
	err := h.db.WithContext(r.Context()).
		Order("created_at DESC").
		Find(&users).Error
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to load users"})
		return
	}

	writeJSON(w, http.StatusOK, users)
}

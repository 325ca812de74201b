package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hugh/teamspace/internal/api/dto"
	"github.com/hugh/teamspace/internal/api/middleware"
	"github.com/hugh/teamspace/internal/database/models"
	"gorm.io/gorm"
)

type ProjectHandler struct {
	db *gorm.DB
}

func NewProjectHandler(db *gorm.DB) *ProjectHandler {
	return &ProjectHandler{db: db}
}

// List handles GET /api/v1/projects - projects the caller is a member of
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var members []models.ProjectMember
	err := h.db.WithContext(r.Context()).
		Where("user_id = ?", userID).
		Find(&members).Error
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to load projects"})
		return
	}

	ids := make([]uuid.UUID, 0, len(members))
	roles := make(map[uuid.UUID]string, len(members))
	for _, m := range members {
		ids = append(ids, m.ProjectID)
		roles[m.ProjectID] = m.Role
	}

	var projects []models.Project
	if len(ids) > 0 {
		if err := h.db.WithContext(r.Context()).Where("id IN ?", ids).Find(&projects).Error; err != nil {
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to load projects"})
			return
		}
	}

	type projectWithRole struct {
		models.Project
		Role string `json:"role"`
	}
	out := make([]projectWithRole, 0, len(projects))
	for _, p := range projects {
		out = append(out, projectWithRole{Project: p, Role: roles[p.ID]})
	}

	writeJSON(w, http.StatusOK, out)
}

// Create handles POST /api/v1/projects - creator becomes project admin
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	userID := middleware.GetUserID(r.Context())

	// The caller must belong to an organization; projects live inside one.
	var membership models.Membership
	err := h.db.WithContext(r.Context()).
		Where("user_id = ?", userID).
		First(&membership).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeJSON(w, http.StatusForbidden, dto.ErrorResponse{Error: "Organization membership required"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to create project"})
		return
	}

	project := models.Project{
		OrganizationID: membership.OrganizationID,
		Name:           req.Name,
		Description:    req.Description,
		CreatedBy:      userID,
	}

	// Project and creator membership land together or not at all.
	err = h.db.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&project).Error; err != nil {
			return err
		}
		return tx.Create(&models.ProjectMember{
			ProjectID: project.ID,
			UserID:    userID,
			Role:      models.RoleAdmin,
		}).Error
	})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to create project"})
		return
	}

	writeJSON(w, http.StatusCreated, project)
}

// Get handles GET /api/v1/projects/{id}
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	projectID, ok := h.requireMember(w, r, "")
	if !ok {
		return
	}

	var project models.Project
	err := h.db.WithContext(r.Context()).
		Preload("Members").
		Preload("Members.User").
		Where("id = ?", projectID).
		First(&project).Error
	if err != nil {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Project not found"})
		return
	}

	writeJSON(w, http.StatusOK, project)
}

// Update handles PUT /api/v1/projects/{id} - project admin only
func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	projectID, ok := h.requireMember(w, r, models.RoleAdmin)
	if !ok {
		return
	}

	var req dto.UpdateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if len(updates) == 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Nothing to update"})
		return
	}

	if err := h.db.WithContext(r.Context()).Model(&models.Project{}).
		Where("id = ?", projectID).
		Updates(updates).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to update project"})
		return
	}

	var project models.Project
	if err := h.db.WithContext(r.Context()).Where("id = ?", projectID).First(&project).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to load project"})
		return
	}
	writeJSON(w, http.StatusOK, project)
}

// Delete handles DELETE /api/v1/projects/{id} - project admin only
func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	projectID, ok := h.requireMember(w, r, models.RoleAdmin)
	if !ok {
		return
	}

	if err := h.db.WithContext(r.Context()).Where("id = ?", projectID).Delete(&models.Project{}).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to delete project"})
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Project deleted"})
}

// requireMember parses the project ID, checks the caller's project
// membership (and role, when one is required), and writes the error
// response itself when the check fails.
func (h *ProjectHandler) requireMember(w http.ResponseWriter, r *http.Request, role string) (uuid.UUID, bool) {
	return requireProjectMember(h.db, w, r, role)
}

func requireProjectMember(db *gorm.DB, w http.ResponseWriter, r *http.Request, role string) (uuid.UUID, bool) {
	projectID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid project ID"})
		return uuid.Nil, false
	}

	userID := middleware.GetUserID(r.Context())

	var member models.ProjectMember
	err = db.WithContext(r.Context()).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeJSON(w, http.StatusForbidden, dto.ErrorResponse{Error: "Project membership required"})
			return uuid.Nil, false
		}
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to check membership"})
		return uuid.Nil, false
	}

	if role != "" && member.Role != role {
		writeJSON(w, http.StatusForbidden, dto.ErrorResponse{Error: "Project admin required"})
		return uuid.Nil, false
	}

	return projectID, true
}

package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hugh/teamspace/internal/api/dto"
	"github.com/hugh/teamspace/internal/api/middleware"
	"github.com/hugh/teamspace/internal/database/models"
	"gorm.io/gorm"
)

type TaskHandler struct {
	db *gorm.DB
}

func NewTaskHandler(db *gorm.DB) *TaskHandler {
	return &TaskHandler{db: db}
}

var validTaskStatuses = map[string]bool{
	models.TaskStatusTodo:       true,
	models.TaskStatusInProgress: true,
	models.TaskStatusDone:       true,
	models.TaskStatusBlocked:    true,
}

var validTaskPriorities = map[string]bool{
	models.TaskPriorityLow:    true,
	models.TaskPriorityMedium: true,
	models.TaskPriorityHigh:   true,
}

// List handles GET /api/v1/projects/{id}/tasks
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	projectID, ok := requireProjectMember(h.db, w, r, "")
	if !ok {
		return
	}

	query := h.db.WithContext(r.Context()).
		Preload("Assignee").
		Preload("Tags").
		Where("project_id = ?", projectID)

	if status := r.URL.Query().Get("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var tasks []models.Task
	if err := query.Find(&tasks).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to load tasks"})
		return
	}

	writeJSON(w, http.StatusOK, tasks)
}

// Create handles POST /api/v1/projects/{id}/tasks
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	projectID, ok := requireProjectMember(h.db, w, r, "")
	if !ok {
		return
	}

	var req dto.CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}
	errs := req.Validate()
	if req.Status != "" && !validTaskStatuses[req.Status] {
		errs["status"] = "Invalid status"
	}
	if req.Priority != "" && !validTaskPriorities[req.Priority] {
		errs["priority"] = "Invalid priority"
	}
	if len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	task := models.Task{
		ProjectID:   projectID,
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		CreatedBy:   middleware.GetUserID(r.Context()),
	}
	if task.Status == "" {
		task.Status = models.TaskStatusTodo
	}
	if task.Priority == "" {
		task.Priority = models.TaskPriorityMedium
	}
	if req.AssigneeID != "" {
		id, err := uuid.Parse(req.AssigneeID)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid assignee ID"})
			return
		}
		task.AssigneeID = &id
	}
	if req.DueDate != "" {
		due, err := time.Parse(time.RFC3339, req.DueDate)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid due date"})
			return
		}
		task.DueDate = &due
	}

	err := h.db.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&task).Error; err != nil {
			return err
		}
		for _, tag := range req.Tags {
			if err := tx.Create(&models.TaskTag{TaskID: task.ID, Name: tag}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to create task"})
		return
	}

	writeJSON(w, http.StatusCreated, task)
}

// Get handles GET /api/v1/projects/{id}/tasks/{taskID}
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	projectID, ok := requireProjectMember(h.db, w, r, "")
	if !ok {
		return
	}

	task, ok := h.loadTask(w, r, projectID)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// Update handles PUT /api/v1/projects/{id}/tasks/{taskID}
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	projectID, ok := requireProjectMember(h.db, w, r, "")
	if !ok {
		return
	}

	task, ok := h.loadTask(w, r, projectID)
	if !ok {
		return
	}

	var req dto.UpdateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Status != nil {
		if !validTaskStatuses[*req.Status] {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid status"})
			return
		}
		updates["status"] = *req.Status
	}
	if req.Priority != nil {
		if !validTaskPriorities[*req.Priority] {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid priority"})
			return
		}
		updates["priority"] = *req.Priority
	}
	if req.AssigneeID != nil {
		if *req.AssigneeID == "" {
			updates["assignee_id"] = nil
		} else {
			id, err := uuid.Parse(*req.AssigneeID)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid assignee ID"})
				return
			}
			updates["assignee_id"] = id
		}
	}
	if req.DueDate != nil {
		if *req.DueDate == "" {
			updates["due_date"] = nil
		} else {
			due, err := time.Parse(time.RFC3339, *req.DueDate)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid due date"})
				return
			}
			updates["due_date"] = due
		}
	}

	err := h.db.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(&models.Task{}).Where("id = ?", task.ID).Updates(updates).Error; err != nil {
				return err
			}
		}
		// Tags use replace-on-update semantics.
		if req.Tags != nil {
			if err := tx.Where("task_id = ?", task.ID).Delete(&models.TaskTag{}).Error; err != nil {
				return err
			}
			for _, tag := range *req.Tags {
				if err := tx.Create(&models.TaskTag{TaskID: task.ID, Name: tag}).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to update task"})
		return
	}

	updated, ok := h.loadTask(w, r, projectID)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/v1/projects/{id}/tasks/{taskID}
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	projectID, ok := requireProjectMember(h.db, w, r, "")
	if !ok {
		return
	}

	task, ok := h.loadTask(w, r, projectID)
	if !ok {
		return
	}

	if err := h.db.WithContext(r.Context()).Delete(&models.Task{}, task.ID).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to delete task"})
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Task deleted"})
}

func (h *TaskHandler) loadTask(w http.ResponseWriter, r *http.Request, projectID uuid.UUID) (*models.Task, bool) {
	taskID, err := uuid.Parse(chi.URLParam(r, "taskID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid task ID"})
		return nil, false
	}

	var task models.Task
	err = h.db.WithContext(r.Context()).
		Preload("Assignee").
		Preload("Tags").
		Where("id = ? AND project_id = ?", taskID, projectID).
		First(&task).Error
	if err != nil {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Task not found"})
		return nil, false
	}

	return &task, true
}

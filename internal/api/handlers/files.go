package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hugh/teamspace/internal/api/dto"
	"github.com/hugh/teamspace/internal/api/middleware"
	"github.com/hugh/teamspace/internal/database/models"
	"github.com/hugh/teamspace/internal/storage"
	"gorm.io/gorm"
)

const maxUploadSize = 32 << 20 // 32 MiB

type FileHandler struct {
	db    *gorm.DB
	store storage.FileStore
}

func NewFileHandler(db *gorm.DB, store storage.FileStore) *FileHandler {
	return &FileHandler{db: db, store: store}
}

// List handles GET /api/v1/projects/{id}/files
func (h *FileHandler) List(w http.ResponseWriter, r *http.Request) {
	projectID, ok := requireProjectMember(h.db, w, r, "")
	if !ok {
		return
	}

	var files []models.File
	err := h.db.WithContext(r.Context()).
		Preload("Uploader").
		Where("project_id = ?", projectID).
		Order("created_at DESC").
		Find(&files).Error
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to load files"})
		return
	}

	writeJSON(w, http.StatusOK, files)
}

// Upload handles POST /api/v1/projects/{id}/files (multipart form, field "file")
func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	projectID, ok := requireProjectMember(h.db, w, r, "")
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid multipart form"})
		return
	}

	part, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Missing file"})
		return
	}
	defer part.Close()

	file := models.File{
		ProjectID:  projectID,
		Name:       header.Filename,
		Type:       header.Header.Get("Content-Type"),
		Size:       header.Size,
		Path:       storage.ObjectKey(projectID, header.Filename),
		UploadedBy: middleware.GetUserID(r.Context()),
	}

	if taskID := r.FormValue("task_id"); taskID != "" {
		id, err := uuid.Parse(taskID)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid task ID"})
			return
		}
		file.TaskID = &id
	}

	if err := h.store.Put(r.Context(), file.Path, file.Type, file.Size, part); err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to store file"})
		return
	}

	if err := h.db.WithContext(r.Context()).Create(&file).Error; err != nil {
		_ = h.store.Delete(r.Context(), file.Path)
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to record file"})
		return
	}

	writeJSON(w, http.StatusCreated, file)
}

// Download handles GET /api/v1/projects/{id}/files/{fileID} and returns a
// short-lived presigned URL instead of proxying the bytes.
func (h *FileHandler) Download(w http.ResponseWriter, r *http.Request) {
	projectID, ok := requireProjectMember(h.db, w, r, "")
	if !ok {
		return
	}

	file, ok := h.loadFile(w, r, projectID)
	if !ok {
		return
	}

	url, err := h.store.PresignGet(r.Context(), file.Path)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to generate download URL"})
		return
	}

	writeJSON(w, http.StatusOK, dto.FileResponse{
		ID:   file.ID.String(),
		Name: file.Name,
		Type: file.Type,
		Size: file.Size,
		URL:  url,
	})
}

// Delete handles DELETE /api/v1/projects/{id}/files/{fileID}
func (h *FileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	projectID, ok := requireProjectMember(h.db, w, r, "")
	if !ok {
		return
	}

	file, ok := h.loadFile(w, r, projectID)
	if !ok {
		return
	}

	if err := h.store.Delete(r.Context(), file.Path); err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to delete file"})
		return
	}

	if err := h.db.WithContext(r.Context()).Delete(&models.File{}, file.ID).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to delete file record"})
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "File deleted"})
}

func (h *FileHandler) loadFile(w http.ResponseWriter, r *http.Request, projectID uuid.UUID) (*models.File, bool) {
	fileID, err := uuid.Parse(chi.URLParam(r, "fileID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid file ID"})
		return nil, false
	}

	var file models.File
	err = h.db.WithContext(r.Context()).
		Where("id = ? AND project_id = ?", fileID, projectID).
		First(&file).Error
	if err != nil {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "File not found"})
		return nil, false
	}

	return &file, true
}

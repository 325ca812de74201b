package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hugh/teamspace/internal/api/dto"
	"github.com/hugh/teamspace/internal/api/middleware"
	"github.com/hugh/teamspace/internal/database/models"
	"gorm.io/gorm"
)

type MessageHandler struct {
	db *gorm.DB
}

func NewMessageHandler(db *gorm.DB) *MessageHandler {
	return &MessageHandler{db: db}
}

// List handles GET /api/v1/projects/{id}/messages
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	projectID, ok := requireProjectMember(h.db, w, r, "")
	if !ok {
		return
	}

	var messages []models.Message
	err := h.db.WithContext(r.Context()).
		Preload("Sender").
		Preload("Mentions").
		Preload("Mentions.User").
		Where("project_id = ?", projectID).
		Order("created_at ASC").
		Find(&messages).Error
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to load messages"})
		return
	}

	writeJSON(w, http.StatusOK, messages)
}

// Send handles POST /api/v1/projects/{id}/messages
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	projectID, ok := requireProjectMember(h.db, w, r, "")
	if !ok {
		return
	}

	var req dto.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	mentionIDs := make([]uuid.UUID, 0, len(req.Mentions))
	for _, m := range req.Mentions {
		id, err := uuid.Parse(m)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid mention ID"})
			return
		}
		mentionIDs = append(mentionIDs, id)
	}

	message := models.Message{
		ProjectID: projectID,
		SenderID:  middleware.GetUserID(r.Context()),
		Content:   req.Content,
	}

	err := h.db.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&message).Error; err != nil {
			return err
		}
		for _, id := range mentionIDs {
			if err := tx.Create(&models.MessageMention{MessageID: message.ID, UserID: id}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to send message"})
		return
	}

	writeJSON(w, http.StatusCreated, message)
}

// Delete handles DELETE /api/v1/projects/{id}/messages/{messageID}
func (h *MessageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	projectID, ok := requireProjectMember(h.db, w, r, "")
	if !ok {
		return
	}

	messageID, err := uuid.Parse(chi.URLParam(r, "messageID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid message ID"})
		return
	}

	var message models.Message
	err = h.db.WithContext(r.Context()).
		Where("id = ? AND project_id = ?", messageID, projectID).
		First(&message).Error
	if err != nil {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Message not found"})
		return
	}

	// Only the sender may delete their own message.
	if message.SenderID != middleware.GetUserID(r.Context()) {
		writeJSON(w, http.StatusForbidden, dto.ErrorResponse{Error: "Cannot delete another user's message"})
		return
	}

	err = h.db.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("message_id = ?", message.ID).Delete(&models.MessageMention{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Message{}, message.ID).Error
	})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to delete message"})
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Message deleted"})
}

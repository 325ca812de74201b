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
	"github.com/hugh/teamspace/internal/directory"
	"github.com/hugh/teamspace/internal/orgs"
)

type OrgHandler struct {
	orgService *orgs.Service
	dir        directory.Directory
}

func NewOrgHandler(orgService *orgs.Service, dir directory.Directory) *OrgHandler {
	return &OrgHandler{orgService: orgService, dir: dir}
}

// Create handles POST /api/v1/organizations
func (h *OrgHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateOrganizationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	userID := middleware.GetUserID(r.Context())
	org, err := h.orgService.CreateOrganization(r.Context(), userID, req.Name, req.Description)
	if err != nil {
		switch {
		case errors.Is(err, orgs.ErrEmptyName):
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Organization name is required"})
		default:
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		}
		return
	}

	writeJSON(w, http.StatusCreated, organizationDTO(org))
}

// JoinWithCode handles POST /api/v1/organizations/join
func (h *OrgHandler) JoinWithCode(w http.ResponseWriter, r *http.Request) {
	var req dto.JoinWithCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	userID := middleware.GetUserID(r.Context())
	org, err := h.orgService.JoinWithCode(r.Context(), userID, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, orgs.ErrInvalidCode):
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Invalid join code"})
		default:
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Join failed"})
		}
		return
	}

	writeJSON(w, http.StatusOK, organizationDTO(org))
}

// Memberships handles GET /api/v1/organizations/memberships
func (h *OrgHandler) Memberships(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	memberships, err := h.orgService.Memberships(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to load memberships"})
		return
	}

	out := make([]dto.MembershipDTO, 0, len(memberships))
	for i := range memberships {
		out = append(out, membershipDTO(&memberships[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

// RegenerateJoinCode handles POST /api/v1/organizations/{id}/join-code
func (h *OrgHandler) RegenerateJoinCode(w http.ResponseWriter, r *http.Request) {
	orgID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid organization ID"})
		return
	}

	userID := middleware.GetUserID(r.Context())
	code, err := h.orgService.RegenerateJoinCode(r.Context(), userID, orgID)
	if err != nil {
		switch {
		case errors.Is(err, orgs.ErrForbidden):
			writeJSON(w, http.StatusForbidden, dto.ErrorResponse{Error: "Organization admin required"})
		case errors.Is(err, directory.ErrNotFound):
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Organization not found"})
		default:
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to regenerate join code"})
		}
		return
	}

	writeJSON(w, http.StatusOK, dto.JoinCodeResponse{
		OrganizationID: orgID.String(),
		JoinCode:       code,
	})
}

// CreateInvite handles POST /api/v1/organizations/{id}/invites
func (h *OrgHandler) CreateInvite(w http.ResponseWriter, r *http.Request) {
	orgID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid organization ID"})
		return
	}

	var req dto.CreateInviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	userID := middleware.GetUserID(r.Context())
	inv, err := h.orgService.CreateInvite(r.Context(), userID, orgID, req.Email, req.Role)
	if err != nil {
		switch {
		case errors.Is(err, orgs.ErrForbidden):
			writeJSON(w, http.StatusForbidden, dto.ErrorResponse{Error: "Organization admin required"})
		default:
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to create invite"})
		}
		return
	}

	writeJSON(w, http.StatusCreated, inv)
}

// RequestToJoin handles POST /api/v1/organizations/{id}/join-requests
func (h *OrgHandler) RequestToJoin(w http.ResponseWriter, r *http.Request) {
	orgID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid organization ID"})
		return
	}

	userID := middleware.GetUserID(r.Context())
	jr, err := h.orgService.RequestToJoin(r.Context(), userID, orgID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to record join request"})
		return
	}

	if jr == nil {
		// Already a member; nothing to request.
		writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Already a member"})
		return
	}
	writeJSON(w, http.StatusCreated, jr)
}

// ListJoinRequests handles GET /api/v1/organizations/{id}/join-requests
func (h *OrgHandler) ListJoinRequests(w http.ResponseWriter, r *http.Request) {
	orgID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid organization ID"})
		return
	}

	userID := middleware.GetUserID(r.Context())
	requests, err := h.orgService.ListJoinRequests(r.Context(), userID, orgID, r.URL.Query().Get("status"))
	if err != nil {
		switch {
		case errors.Is(err, orgs.ErrForbidden):
			writeJSON(w, http.StatusForbidden, dto.ErrorResponse{Error: "Organization admin required"})
		default:
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to load join requests"})
		}
		return
	}

	writeJSON(w, http.StatusOK, requests)
}

// ResolveJoinRequest handles POST /api/v1/organizations/{id}/join-requests/{requestID}
func (h *OrgHandler) ResolveJoinRequest(w http.ResponseWriter, r *http.Request) {
	orgID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid organization ID"})
		return
	}
	requestID, err := uuid.Parse(chi.URLParam(r, "requestID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request ID"})
		return
	}

	var req dto.ResolveJoinRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	jr, err := h.dir.GetJoinRequest(r.Context(), requestID)
	if err != nil || jr.OrganizationID != orgID {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Join request not found"})
		return
	}

	userID := middleware.GetUserID(r.Context())
	if req.Approve {
		err = h.orgService.ApproveJoinRequest(r.Context(), userID, jr)
	} else {
		err = h.orgService.RejectJoinRequest(r.Context(), userID, jr)
	}
	if err != nil {
		switch {
		case errors.Is(err, orgs.ErrForbidden):
			writeJSON(w, http.StatusForbidden, dto.ErrorResponse{Error: "Organization admin required"})
		case errors.Is(err, directory.ErrNotFound):
			// The request was settled by someone else in the meantime.
			writeJSON(w, http.StatusConflict, dto.ErrorResponse{Error: "Join request already resolved"})
		default:
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to resolve join request"})
		}
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Join request resolved"})
}

func organizationDTO(org *models.Organization) dto.OrganizationDTO {
	out := dto.OrganizationDTO{
		ID:          org.ID.String(),
		Name:        org.Name,
		Description: org.Description,
	}
	if org.JoinCode != nil {
		out.JoinCode = *org.JoinCode
	}
	return out
}

func membershipDTO(m *models.Membership) dto.MembershipDTO {
	out := dto.MembershipDTO{
		ID:             m.ID.String(),
		OrganizationID: m.OrganizationID.String(),
		Role:           m.Role,
	}
	if m.Organization != nil {
		org := organizationDTO(m.Organization)
		out.Organization = &org
	}
	return out
}

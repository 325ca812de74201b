package handlers

import (
	"net/http"

	"github.com/hugh/teamspace/internal/api/dto"
	"github.com/hugh/teamspace/internal/api/middleware"
	"github.com/hugh/teamspace/internal/auth"
	"github.com/hugh/teamspace/internal/authz"
)

// GuardHandler exposes the decision engine to the SPA: before navigating
// it asks what to do with a path, and receives render, show_loading, or
// redirect with an optional preserved origin.
type GuardHandler struct {
	jwt         *auth.JWTService
	memberships middleware.MembershipChecker
	sessions    middleware.SessionStates
}

func NewGuardHandler(jwt *auth.JWTService, memberships middleware.MembershipChecker, sessions middleware.SessionStates) *GuardHandler {
	return &GuardHandler{jwt: jwt, memberships: memberships, sessions: sessions}
}

type GuardOutcome struct {
	Action         string `json:"action"` // render, show_loading, redirect
	Path           string `json:"path,omitempty"`
	PreserveOrigin bool   `json:"preserve_origin,omitempty"`
}

// Decision handles GET /api/v1/guard/decision?path=/dashboard
func (h *GuardHandler) Decision(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "path query parameter is required"})
		return
	}

	in := middleware.BuildInput(r, path, h.jwt, h.memberships, h.sessions)
	decision := authz.Decide(in)

	outcome := GuardOutcome{Action: string(decision.Kind)}
	if decision.Kind == authz.Redirect {
		outcome.Path = decision.Path
		outcome.PreserveOrigin = decision.PreserveOrigin
	}

	writeJSON(w, http.StatusOK, outcome)
}

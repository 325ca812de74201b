package middleware

import (
	"context"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"github.com/hugh/teamspace/internal/auth"
	"github.com/hugh/teamspace/internal/authz"
)

// MembershipChecker answers whether a user belongs to at least one
// organization. Satisfied by orgs.Service.
type MembershipChecker interface {
	HasMembership(ctx context.Context, userID uuid.UUID) (bool, error)
}

// SessionStates exposes per-user session store state to the guard.
// Satisfied by session.Manager; nil means no store is tracking the user.
type SessionStates interface {
	Loading(userID uuid.UUID) bool
}

// Guard evaluates the decision engine before a page route renders and
// acts on the outcome: render passes through, redirects become 302s
// (carrying the origin in ?next= when the engine asks for it), and a
// still-loading session answers 503 with a retry hint.
func Guard(jwtService *auth.JWTService, memberships MembershipChecker, sessions SessionStates) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision := decide(r, jwtService, memberships, sessions)

			switch decision.Kind {
			case authz.Render:
				next.ServeHTTP(w, r)
			case authz.ShowLoading:
				w.Header().Set("Retry-After", "1")
				http.Error(w, "Session loading", http.StatusServiceUnavailable)
			case authz.Redirect:
				target := decision.Path
				if decision.PreserveOrigin {
					target += "?next=" + url.QueryEscape(r.URL.Path)
				}
				http.Redirect(w, r, target, http.StatusFound)
			}
		})
	}
}

// BuildInput assembles the engine input for a request evaluated against
// the given path (which may differ from r.URL.Path when the SPA asks
// about a route it intends to navigate to). Domain validity and
// global-admin status come from the token claims, evaluated once at
// issuance; membership comes from the session store when one is tracking
// the user, falling back to a directory count.
func BuildInput(r *http.Request, path string, jwtService *auth.JWTService, memberships MembershipChecker, sessions SessionStates) authz.Input {
	return buildInput(r, path, jwtService, memberships, sessions)
}

func decide(r *http.Request, jwtService *auth.JWTService, memberships MembershipChecker, sessions SessionStates) authz.Decision {
	return authz.Decide(buildInput(r, r.URL.Path, jwtService, memberships, sessions))
}

func buildInput(r *http.Request, path string, jwtService *auth.JWTService, memberships MembershipChecker, sessions SessionStates) authz.Input {
	in := authz.Input{RequestedPath: path}

	claims, err := claimsFromRequest(jwtService, r)
	if err != nil {
		return in // principal stays nil
	}

	in.Principal = &authz.Principal{ID: claims.UserID, Email: claims.Email}
	in.IsGlobalAdmin = claims.IsGlobalAdmin
	in.EmailDomainValid = claims.DomainValid

	if sessions != nil && sessions.Loading(claims.UserID) {
		in.Loading = true
		return in
	}

	hasMembership, err := memberships.HasMembership(r.Context(), claims.UserID)
	if err != nil {
		// Directory unavailable: fail safe into the most restrictive
		// non-rendering state rather than rendering or erroring.
		in.HasMembership = false
		return in
	}
	in.HasMembership = hasMembership

	return in
}

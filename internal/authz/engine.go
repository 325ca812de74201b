// Package authz implements the authorization decision engine: a pure
// function from session and membership state to a navigation decision.
// It performs no I/O; enforcement is entirely by redirect, so the engine
// has no error path.
package authz

import "github.com/google/uuid"

// Well-known application paths the engine reasons about.
const (
	PathLogin            = "/login"
	PathDomainRestricted = "/domain-restricted"
	PathOnboarding       = "/organization-onboarding"
	PathDashboard        = "/dashboard"
	PathAdmin            = "/admin"
)

type Kind string

const (
	ShowLoading Kind = "show_loading"
	Redirect    Kind = "redirect"
	Render      Kind = "render"
)

// Decision is the single outcome of an authorization evaluation.
// PreserveOrigin signals that the originally requested path should be
// restored after a successful login.
type Decision struct {
	Kind           Kind           `json:"kind"`
	Path           string         `json:"path,omitempty"`
	PreserveOrigin bool           `json:"preserve_origin,omitempty"`
}

// Principal is an authenticated identity.
type Principal struct {
	ID    uuid.UUID
	Email string
}

// Input is the complete state the engine decides over.
type Input struct {
	Principal        *Principal
	Loading          bool
	EmailDomainValid bool
	HasMembership    bool
	IsGlobalAdmin    bool
	RequestedPath    string
}

func showLoading() Decision {
	return Decision{Kind: ShowLoading}
}

func redirectTo(path string, preserveOrigin bool) Decision {
	return Decision{Kind: Redirect, Path: path, PreserveOrigin: preserveOrigin}
}

func render() Decision {
	return Decision{Kind: Render}
}

// Decide evaluates the ordered rule set. Each rule short-circuits; the
// ordering is load-bearing: the domain check must run before the global
// admin bypass so a disallowed-domain account can never reach admin
// screens, and the admin bypass must run before the membership check so
// global admins without an organization are not funneled into onboarding.
func Decide(in Input) Decision {
	if in.Loading {
		return showLoading()
	}

	if in.Principal == nil {
		return redirectTo(PathLogin, true)
	}

	if !in.EmailDomainValid {
		return redirectTo(PathDomainRestricted, false)
	}

	if in.IsGlobalAdmin && isAdminBypassPath(in.RequestedPath) {
		return render()
	}

	if !in.HasMembership && !isOnboardingPath(in.RequestedPath) {
		return redirectTo(PathOnboarding, false)
	}

	if in.HasMembership && isOnboardingPath(in.RequestedPath) {
		return redirectTo(PathDashboard, false)
	}

	// An empty requested path is a contradictory input; resolve to the
	// most restrictive redirect rather than rendering.
	if in.RequestedPath == "" {
		return redirectTo(PathOnboarding, false)
	}

	return render()
}

// isAdminBypassPath reports whether the path belongs to the
// dashboard/admin family for which global admins bypass the organization
// requirement. The bypass deliberately excludes /projects and other
// member surfaces.
func isAdminBypassPath(path string) bool {
	return hasPathPrefix(path, PathDashboard) || hasPathPrefix(path, PathAdmin)
}

func isOnboardingPath(path string) bool {
	return hasPathPrefix(path, PathOnboarding)
}

// hasPathPrefix matches the prefix on segment boundaries, so /admin and
// /admin/users match but /administrator does not.
func hasPathPrefix(path, prefix string) bool {
	if len(path) < len(prefix) || path[:len(prefix)] != prefix {
		return false
	}
	return len(path) == len(prefix) || path[len(prefix)] == '/' || path[len(prefix)] == '?'
}

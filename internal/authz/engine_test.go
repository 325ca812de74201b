package authz

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func principal(email string) *Principal {
	return &Principal{ID: uuid.New(), Email: email}
}

func TestDecide_LoadingWinsOverEverything(t *testing.T) {
	// Loading must short-circuit regardless of every other field.
	for _, p := range []*Principal{nil, principal("a@corp.example")} {
		for _, domainValid := range []bool{true, false} {
			for _, hasMembership := range []bool{true, false} {
				for _, isAdmin := range []bool{true, false} {
					for _, path := range []string{PathDashboard, PathAdmin, PathOnboarding, "/projects", ""} {
						d := Decide(Input{
							Principal:        p,
							Loading:          true,
							EmailDomainValid: domainValid,
							HasMembership:    hasMembership,
							IsGlobalAdmin:    isAdmin,
							RequestedPath:    path,
						})
						assert.Equal(t, ShowLoading, d.Kind)
					}
				}
			}
		}
	}
}

func TestDecide_UnauthenticatedRedirectsToLogin(t *testing.T) {
	for _, path := range []string{PathDashboard, PathAdmin, "/projects", PathOnboarding, ""} {
		d := Decide(Input{Principal: nil, RequestedPath: path})
		assert.Equal(t, Redirect, d.Kind)
		assert.Equal(t, PathLogin, d.Path)
		assert.True(t, d.PreserveOrigin, "login redirect must carry the origin path")
	}
}

func TestDecide_DomainCheckPrecedesAdminBypass(t *testing.T) {
	// A disallowed-domain account matching the admin email must still be
	// rejected; reordering these rules is the historical bug.
	d := Decide(Input{
		Principal:        principal("admin@evil.example"),
		EmailDomainValid: false,
		IsGlobalAdmin:    true,
		HasMembership:    true,
		RequestedPath:    PathAdmin,
	})
	assert.Equal(t, Redirect, d.Kind)
	assert.Equal(t, PathDomainRestricted, d.Path)
	assert.False(t, d.PreserveOrigin)
}

func TestDecide_AdminBypassOverridesOnboarding(t *testing.T) {
	tests := []struct {
		path string
		want Kind
	}{
		{PathDashboard, Render},
		{PathDashboard + "/reports", Render},
		{PathAdmin, Render},
		{PathAdmin + "/users", Render},
		// Bypass is limited to the dashboard/admin family.
		{"/projects", Redirect},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			d := Decide(Input{
				Principal:        principal("admin@corp.example"),
				EmailDomainValid: true,
				IsGlobalAdmin:    true,
				HasMembership:    false,
				RequestedPath:    tt.path,
			})
			assert.Equal(t, tt.want, d.Kind)
			if tt.want == Redirect {
				assert.Equal(t, PathOnboarding, d.Path)
			}
		})
	}
}

func TestDecide_NoMembershipFunnelsToOnboarding(t *testing.T) {
	for _, path := range []string{PathDashboard, "/projects", "/projects/abc/tasks"} {
		d := Decide(Input{
			Principal:        principal("user@corp.example"),
			EmailDomainValid: true,
			HasMembership:    false,
			RequestedPath:    path,
		})
		assert.Equal(t, Redirect, d.Kind)
		assert.Equal(t, PathOnboarding, d.Path)
	}

	// The onboarding page itself renders.
	d := Decide(Input{
		Principal:        principal("user@corp.example"),
		EmailDomainValid: true,
		HasMembership:    false,
		RequestedPath:    PathOnboarding,
	})
	assert.Equal(t, Render, d.Kind)
}

func TestDecide_ProvisionedUserCannotReenterOnboarding(t *testing.T) {
	d := Decide(Input{
		Principal:        principal("user@corp.example"),
		EmailDomainValid: true,
		HasMembership:    true,
		RequestedPath:    PathOnboarding,
	})
	assert.Equal(t, Redirect, d.Kind)
	assert.Equal(t, PathDashboard, d.Path)
}

func TestDecide_MemberRenders(t *testing.T) {
	for _, path := range []string{PathDashboard, "/projects", "/projects/abc"} {
		d := Decide(Input{
			Principal:        principal("user@corp.example"),
			EmailDomainValid: true,
			HasMembership:    true,
			RequestedPath:    path,
		})
		assert.Equal(t, Render, d.Kind, "path %s", path)
	}
}

func TestDecide_EmptyPathResolvesRestrictive(t *testing.T) {
	// The empty path only ever replaces a render; the earlier rules
	// still decide first.
	d := Decide(Input{
		Principal:        principal("user@corp.example"),
		EmailDomainValid: true,
		HasMembership:    true,
		RequestedPath:    "",
	})
	assert.Equal(t, Redirect, d.Kind)
	assert.Equal(t, PathOnboarding, d.Path)

	d = Decide(Input{Loading: true, RequestedPath: ""})
	assert.Equal(t, ShowLoading, d.Kind)

	d = Decide(Input{Principal: nil, RequestedPath: ""})
	assert.Equal(t, Redirect, d.Kind)
	assert.Equal(t, PathLogin, d.Path)

	d = Decide(Input{
		Principal:        principal("user@other.example"),
		EmailDomainValid: false,
		RequestedPath:    "",
	})
	assert.Equal(t, Redirect, d.Kind)
	assert.Equal(t, PathDomainRestricted, d.Path)
}

func TestIsAdminBypassPath(t *testing.T) {
	assert.True(t, isAdminBypassPath("/dashboard"))
	assert.True(t, isAdminBypassPath("/admin/orgs"))
	assert.False(t, isAdminBypassPath("/administrator"))
	assert.False(t, isAdminBypassPath("/dashboards"))
	assert.False(t, isAdminBypassPath("/projects"))
}

func TestDomainAllowed(t *testing.T) {
	domains := []string{"corp.example"}

	assert.True(t, DomainAllowed("user@corp.example", domains))
	assert.False(t, DomainAllowed("user@other.example", domains))
	// Case-sensitive suffix match.
	assert.False(t, DomainAllowed("user@CORP.example", domains))
	// Suffix match is anchored at the @.
	assert.False(t, DomainAllowed("user@evilcorp.example", domains))
	// Empty allow-list permits everyone.
	assert.True(t, DomainAllowed("user@anywhere.example", nil))
}

func TestIsAdminEmail(t *testing.T) {
	admins := []string{"root@corp.example"}
	assert.True(t, IsAdminEmail("root@corp.example", admins))
	assert.False(t, IsAdminEmail("user@corp.example", admins))
	assert.False(t, IsAdminEmail("root@corp.example", nil))
}

package authz

import "strings"

// DomainAllowed reports whether the email's domain is on the allow-list.
// The test is a case-sensitive suffix match against "@{domain}"; an empty
// allow-list permits every domain. Validity depends only on the address
// string, never on admin status.
func DomainAllowed(email string, domains []string) bool {
	if len(domains) == 0 {
		return true
	}
	for _, d := range domains {
		if strings.HasSuffix(email, "@"+d) {
			return true
		}
	}
	return false
}

// IsAdminEmail reports whether the email is on the global-admin
// allow-list. Evaluated once at session establishment and carried as a
// token claim rather than recomputed per request.
func IsAdminEmail(email string, adminEmails []string) bool {
	for _, a := range adminEmails {
		if email == a {
			return true
		}
	}
	return false
}

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/hugh/teamspace/internal/auth"
)

type contextKey string

const claimsKey contextKey = "claims"

// Auth validates the bearer token (header or cookie) and places the
// claims in the request context. API requests get a 401; page requests
// are redirected to login.
func Auth(jwtService *auth.JWTService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := claimsFromRequest(jwtService, r)
			if err != nil {
				handleUnauthorized(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func claimsFromRequest(jwtService *auth.JWTService, r *http.Request) (*auth.Claims, error) {
	var token string

	// 1. Check Authorization header (API requests)
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		token = strings.TrimPrefix(authHeader, "Bearer ")
	}

	// 2. Check cookie (web client)
	if token == "" {
		if cookie, err := r.Cookie("token"); err == nil && cookie.Value != "" {
			token = cookie.Value
		}
	}

	if token == "" {
		return nil, auth.ErrInvalidToken
	}

	return jwtService.ValidateToken(token)
}

// handleUnauthorized returns appropriate response based on request type
func handleUnauthorized(w http.ResponseWriter, r *http.Request) {
	accept := r.Header.Get("Accept")
	isWebRequest := strings.Contains(accept, "text/html") && !strings.HasPrefix(r.URL.Path, "/api/")

	if isWebRequest {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	http.Error(w, "Unauthorized", http.StatusUnauthorized)
}

// GetClaims extracts the validated claims from the context, or nil.
func GetClaims(ctx context.Context) *auth.Claims {
	if claims, ok := ctx.Value(claimsKey).(*auth.Claims); ok {
		return claims
	}
	return nil
}

func GetUserID(ctx context.Context) uuid.UUID {
	if claims := GetClaims(ctx); claims != nil {
		return claims.UserID
	}
	return uuid.Nil
}

func GetUserEmail(ctx context.Context) string {
	if claims := GetClaims(ctx); claims != nil {
		return claims.Email
	}
	return ""
}

// RequireGlobalAdmin gates admin-only API surfaces on the token claim.
func RequireGlobalAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := GetClaims(r.Context())
		if claims == nil || !claims.IsGlobalAdmin {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/hugh/teamspace/internal/api/handlers"
	"github.com/hugh/teamspace/internal/api/middleware"
	"github.com/hugh/teamspace/internal/auth"
	"github.com/hugh/teamspace/internal/directory"
	"github.com/hugh/teamspace/internal/orgs"
	"github.com/hugh/teamspace/internal/storage"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Router struct {
	chi.Router
}

type RouterConfig struct {
	DB             *gorm.DB
	Redis          *redis.Client
	Logger         *slog.Logger
	JWTService     *auth.JWTService
	AuthService    *auth.Service
	OrgService     *orgs.Service
	Directory      directory.Directory
	Sessions       middleware.SessionStates
	Files          storage.FileStore
	AllowedOrigins []string // CORS allowed origins
	RateLimitReqs  int      // Rate limit requests per window
	RateLimitSecs  int      // Rate limit window in seconds
}

func NewRouter(cfg RouterConfig) *Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))

	// Rate limiting - applied globally to prevent abuse
	if cfg.RateLimitReqs > 0 {
		r.Use(middleware.RateLimit(cfg.RateLimitReqs, cfg.RateLimitSecs))
	}

	// CORS - restrict to configured origins, or allow all in development
	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		// Default to localhost for development - configure in production
		allowedOrigins = []string{"http://localhost:3000", "http://localhost:8080"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(cfg.DB, cfg.Redis)
	authHandler := handlers.NewAuthHandler(cfg.AuthService)
	guardHandler := handlers.NewGuardHandler(cfg.JWTService, cfg.OrgService, cfg.Sessions)
	orgHandler := handlers.NewOrgHandler(cfg.OrgService, cfg.Directory)
	projectHandler := handlers.NewProjectHandler(cfg.DB)
	taskHandler := handlers.NewTaskHandler(cfg.DB)
	messageHandler := handlers.NewMessageHandler(cfg.DB)
	fileHandler := handlers.NewFileHandler(cfg.DB, cfg.Files)
	adminHandler := handlers.NewAdminHandler(cfg.DB)

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public auth endpoints
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)

		// Guard decisions are evaluated for anonymous callers too: an
		// unauthenticated SPA still asks where to go.
		r.Get("/guard/decision", guardHandler.Decision)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWTService))

			r.Post("/auth/logout", authHandler.Logout)

			// User endpoints
			r.Get("/me", func(w http.ResponseWriter, r *http.Request) {
				userID := middleware.GetUserID(r.Context())
				user, err := cfg.AuthService.GetUserByID(r.Context(), userID)
				if err != nil {
					http.Error(w, "User not found", http.StatusNotFound)
					return
				}
				writeJSON(w, http.StatusOK, user)
			})

			// Organization endpoints
			r.Route("/organizations", func(r chi.Router) {
				r.Post("/", orgHandler.Create)
				r.Post("/join", orgHandler.JoinWithCode)
				r.Get("/memberships", orgHandler.Memberships)
				r.Post("/{id}/join-code", orgHandler.RegenerateJoinCode)
				r.Post("/{id}/invites", orgHandler.CreateInvite)
				r.Post("/{id}/join-requests", orgHandler.RequestToJoin)
				r.Get("/{id}/join-requests", orgHandler.ListJoinRequests)
				r.Post("/{id}/join-requests/{requestID}", orgHandler.ResolveJoinRequest)
			})

			// Projects endpoints
			r.Route("/projects", func(r chi.Router) {
				r.Get("/", projectHandler.List)
				r.Post("/", projectHandler.Create)
				r.Get("/{id}", projectHandler.Get)
				r.Put("/{id}", projectHandler.Update)
				r.Delete("/{id}", projectHandler.Delete)

				r.Route("/{id}/tasks", func(r chi.Router) {
					r.Get("/", taskHandler.List)
					r.Post("/", taskHandler.Create)
					r.Get("/{taskID}", taskHandler.Get)
					r.Put("/{taskID}", taskHandler.Update)
					r.Delete("/{taskID}", taskHandler.Delete)
				})

				r.Route("/{id}/messages", func(r chi.Router) {
					r.Get("/", messageHandler.List)
					r.Post("/", messageHandler.Send)
					r.Delete("/{messageID}", messageHandler.Delete)
				})

				r.Route("/{id}/files", func(r chi.Router) {
					r.Get("/", fileHandler.List)
					r.Post("/", fileHandler.Upload)
					r.Get("/{fileID}", fileHandler.Download)
					r.Delete("/{fileID}", fileHandler.Delete)
				})
			})

			// Global-admin console endpoints
			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireGlobalAdmin)
				r.Get("/organizations", adminHandler.ListOrganizations)
				r.Get("/users", adminHandler.ListUsers)
			})
		})
	})

	// Page routes: the guard decides whether the shell renders, redirects,
	// or waits for the session to settle.
	r.Get("/login", servePage)
	r.Get("/domain-restricted", servePage)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Guard(cfg.JWTService, cfg.OrgService, cfg.Sessions))
		r.Get("/", servePage)
		r.Get("/dashboard", servePage)
		r.Get("/dashboard/*", servePage)
		r.Get("/admin", servePage)
		r.Get("/admin/*", servePage)
		r.Get("/organization-onboarding", servePage)
		r.Get("/projects", servePage)
		r.Get("/projects/*", servePage)
	})

	return &Router{r}
}

// servePage returns the SPA shell; the client router takes over from there.
func servePage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(`<!doctype html><html><head><title>Teamspace</title></head><body><div id="root"></div><script src="/static/app.js"></script></body></html>`))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

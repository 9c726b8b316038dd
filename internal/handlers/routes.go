package handlers

import (
	"net/http"

	"github.com/vidfriends/appcore/internal/auth"
)

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{Checks: deps.HealthChecks}
	authHandler := NewAuthHandler(deps.Sessions, deps.State, deps.AuthLimiter)
	videos := VideoHandler{Content: deps.Content, Sessions: deps.Sessions, MaxUploadBytes: deps.MaxUploadBytes}
	files := FileHandler{Previews: deps.Previews}
	deletion := DeletionHandler{Flow: deps.Deletion, Sessions: deps.Sessions}

	mux.HandleFunc("/healthz", health.Handle)
	mux.HandleFunc("/api/v1/auth/signup", authHandler.SignUp)
	mux.HandleFunc("/api/v1/auth/login", authHandler.Login)
	mux.HandleFunc("/api/v1/auth/logout", authHandler.Logout)
	mux.HandleFunc("/api/v1/auth/me", authHandler.Me)
	mux.HandleFunc("/api/v1/videos", videos.Collection)
	mux.HandleFunc("/api/v1/videos/latest", videos.Latest)
	mux.HandleFunc("/api/v1/videos/search", videos.Search)
	mux.HandleFunc("/api/v1/files/preview", files.Preview)
	mux.HandleFunc("/api/v1/account/deletion", deletion.Handle)
}

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Sessions       SessionService
	State          *auth.State
	Content        ContentService
	Previews       PreviewResolver
	Deletion       DeletionFlow
	AuthLimiter    RateLimiter
	HealthChecks   map[string]HealthCheck
	MaxUploadBytes int64
}

package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/afisha/events/internal/auth"
	"github.com/afisha/events/internal/events"
	"github.com/afisha/events/internal/middleware"
	"github.com/afisha/events/internal/monitoring"
)

// Deps are the collaborators the router wires together.
type Deps struct {
	Auth        *auth.Handler
	Events      *events.Handler
	Sessions    middleware.SessionLookup
	Users       middleware.UserLookup
	CORSOrigins []string
	// Ready reports dependency health for /health; nil means always healthy.
	Ready func(r *http.Request) error
}

// NewRouter builds the /api surface.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(monitoring.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	requireAuth := middleware.RequireAuth(d.Sessions)
	requireAdmin := middleware.RequireAdmin(d.Users)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if d.Ready != nil {
			if err := d.Ready(r); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"status":"degraded"}`))
				return
			}
		}
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.Handler())

	// Auth routes
	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", d.Auth.Register)
		r.Post("/login", d.Auth.Login)
		r.With(requireAuth).Post("/logout", d.Auth.Logout)
		r.With(requireAuth).Get("/me", d.Auth.Me)
	})

	// Event routes: reads are public, mutations need a session
	r.Route("/api/events", func(r chi.Router) {
		r.Get("/", d.Events.List)
		r.Get("/images/*", d.Events.Image)
		r.Get("/{id}", d.Events.Get)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Patch("/{id}/attendance", d.Events.Attendance)
			r.Patch("/{id}/like", d.Events.Like)

			r.With(requireAdmin).Post("/", d.Events.Create)
			r.With(requireAdmin).Post("/images", d.Events.UploadImage)
		})
	})

	return r
}

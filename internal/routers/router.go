package routers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"postbox/internal/api"
	"postbox/internal/metrics"
	validation "postbox/internal/middleware"
	"postbox/internal/models"
)

// New wires every HTTP route. The WebSocket route sits outside the request
// timeout since its handler runs for the life of the connection.
func New(h *api.Handlers, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(metrics.Middleware)

	r.Get("/healthz", h.Health)
	r.Get("/readyz", h.Ready)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/post-box/{id}/ws", h.PostBoxWS)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))

			r.With(validation.ValidateRequest[models.CreateRoomRequest](validation.DefaultMaxBodyBytes)).Post("/post-box/create", h.CreateRoom)
			r.Get("/post-box", h.ListRooms)
			r.Get("/post-box/{id}", h.GetRoom)

			r.With(validation.ValidateRequest[models.CreateProfileRequest](validation.DefaultMaxBodyBytes)).Post("/addressee", h.CreateProfile)
			r.With(h.RequireSession).Get("/addressee/me", h.Me)
			r.With(h.RequireSession).Get("/addressee/{key}", h.GetProfile)

			r.Put("/session/{uuid}", h.Login)
			r.Delete("/session/logout", h.Logout)
		})
	})

	return r
}

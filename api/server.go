/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Request logging
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for frontend
  5. Identify:   X-User-ID -> Actor (API subtree only)

ROUTE GROUPS:
  /api/task-entries/*   Entry CRUD and submission
  /api/leave/*          Leave requests
  /api/clients/*        Client registry
  /api/task-masters/*   Task master catalog
  /api/admin/*          Approvals, users, calendar (admin only)
  /healthz              Liveness, no identity required

SEE ALSO:
  - handlers.go: Handler implementations
  - middleware.go: Identity resolution
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-User-ID"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(Identify(h.Registry))

		r.Route("/task-entries", func(r chi.Router) {
			r.Get("/", h.ListTaskEntries)
			r.Post("/", h.CreateTaskEntry)
			r.Get("/{id}", h.GetTaskEntry)
			r.Put("/{id}", h.UpdateTaskEntry)
			r.Delete("/{id}", h.DeleteTaskEntry)
			r.Post("/{id}/submit", h.SubmitTaskEntry)
		})

		r.Route("/leave", func(r chi.Router) {
			r.Get("/", h.ListLeave)
			r.Post("/", h.CreateLeave)
			r.Get("/{id}", h.GetLeave)
			r.Delete("/{id}", h.DeleteLeave)
			r.Post("/{id}/submit", h.SubmitLeave)
		})

		r.Route("/clients", func(r chi.Router) {
			r.Get("/", h.ListClients)
		})

		r.Route("/task-masters", func(r chi.Router) {
			r.Get("/", h.ListTaskMasters)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(RequireAdmin)

			r.Post("/task-entries/{id}/approve", h.ApproveTaskEntry)
			r.Post("/task-entries/{id}/reject", h.RejectTaskEntry)
			r.Post("/leave/{id}/approve", h.ApproveLeave)
			r.Post("/leave/{id}/reject", h.RejectLeave)

			r.Get("/users", h.ListUsers)
			r.Post("/users", h.CreateUser)
			r.Post("/clients", h.CreateClient)
			r.Post("/task-masters", h.CreateTaskMaster)
			r.Post("/holidays", h.AddHoliday)
			r.Post("/working-saturdays", h.AddWorkingSaturday)
		})
	})

	return r
}

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/starford/daybook/internal/service"
	"github.com/starford/daybook/internal/sync"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced; defaultUser
// is used when requests carry no X-User-ID header. sseHandler, if non-nil,
// is mounted at GET /events inside the auth group.
func NewRouter(svc *service.Service, orch *sync.Orchestrator, authEnabled bool, token, defaultUser string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc, orch)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))
	r.Use(UserMiddleware(defaultUser))

	// Journal CRUD.
	r.Get("/journal", h.ListJournal)
	r.Post("/journal", h.AddJournal)
	r.Patch("/journal/{id}", h.UpdateJournal)
	r.Delete("/journal/{id}", h.DeleteJournal)

	// Habit months and cells.
	r.Get("/habits/{monthKey}", h.GetHabitMonth)
	r.Put("/habits/{monthKey}/days/{day}/{habitID}", h.SetHabitCell)

	// Habit settings.
	r.Get("/settings/habits", h.GetHabitSettings)
	r.Put("/settings/habits", h.UpdateHabitSettings)

	// Daily moments.
	r.Get("/moments/{monthKey}", h.GetMomentsMonth)
	r.Put("/moments/{monthKey}/days/{day}", h.SaveMoment)

	// Trackers.
	r.Get("/trackers", h.ListTrackers)
	r.Get("/trackers/{trackerID}/{yearKey}", h.GetTrackerYear)
	r.Put("/trackers/{trackerID}/{yearKey}/cells", h.SetTrackerCell)

	// Sync.
	r.Get("/sync/status", h.SyncStatus)
	r.Post("/sync/check", h.SyncCheck)
	r.Post("/sync/refresh", h.SyncRefresh)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}

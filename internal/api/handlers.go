package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/starford/daybook/internal/apperr"
	"github.com/starford/daybook/internal/models"
	"github.com/starford/daybook/internal/service"
	"github.com/starford/daybook/internal/sync"
)

// Handler holds API route handlers.
type Handler struct {
	svc  *service.Service
	orch *sync.Orchestrator
}

// NewHandler creates a new Handler.
func NewHandler(svc *service.Service, orch *sync.Orchestrator) *Handler {
	return &Handler{svc: svc, orch: orch}
}

// writeErr maps domain errors onto HTTP statuses.
func writeErr(w http.ResponseWriter, err error, what string) {
	switch {
	case errors.Is(err, apperr.ErrNoUser):
		writeError(w, http.StatusBadRequest, "no user")
	case errors.Is(err, apperr.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, apperr.ErrUnavailable):
		writeError(w, http.StatusBadGateway, "remote unavailable")
	default:
		slog.Error(what+" failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// ListJournal handles GET /api/journal.
//
//	@Summary		List journal entries, newest first
//	@Tags			journal
//	@Produce		json
//	@Success		200	{object}	JournalListResponse
//	@Security		BearerAuth
//	@Router			/journal [get]
func (h *Handler) ListJournal(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.JournalEntries(r.Context(), requestUser(r))
	if err != nil {
		writeErr(w, err, "list journal")
		return
	}
	if entries == nil {
		entries = []models.JournalEntry{}
	}
	writeJSON(w, http.StatusOK, JournalListResponse{Entries: entries, Total: len(entries)})
}

// AddJournal handles POST /api/journal.
//
//	@Summary		Create a journal entry
//	@Tags			journal
//	@Accept			json
//	@Produce		json
//	@Param			body	body		AddJournalRequest	true	"Entry to create"
//	@Success		201		{object}	JournalEntry
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/journal [post]
func (h *Handler) AddJournal(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req AddJournalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Content == "" {
		writeError(w, http.StatusBadRequest, "content is required")
		return
	}
	var ts time.Time
	if req.Timestamp != nil {
		ts = *req.Timestamp
	}
	entry, err := h.svc.AddJournalEntry(r.Context(), requestUser(r), req.Content, ts)
	if err != nil {
		writeErr(w, err, "add journal")
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// UpdateJournal handles PATCH /api/journal/{id}.
//
//	@Summary		Edit a journal entry
//	@Tags			journal
//	@Accept			json
//	@Param			id		path	string					true	"Entry id"
//	@Param			body	body	UpdateJournalRequest	true	"Fields to change"
//	@Success		204		"Entry updated"
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/journal/{id} [patch]
func (h *Handler) UpdateJournal(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	id := chi.URLParam(r, "id")
	var req UpdateJournalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Content == nil && req.Timestamp == nil {
		writeError(w, http.StatusBadRequest, "nothing to update")
		return
	}
	upd := models.JournalUpdate{Content: req.Content, Timestamp: req.Timestamp}
	if err := h.svc.UpdateJournalEntry(r.Context(), requestUser(r), id, upd); err != nil {
		writeErr(w, err, "update journal")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteJournal handles DELETE /api/journal/{id}.
//
//	@Summary		Delete a journal entry
//	@Tags			journal
//	@Param			id	path	string	true	"Entry id"
//	@Success		204	"Entry deleted"
//	@Security		BearerAuth
//	@Router			/journal/{id} [delete]
func (h *Handler) DeleteJournal(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteJournalEntry(r.Context(), requestUser(r), chi.URLParam(r, "id")); err != nil {
		writeErr(w, err, "delete journal")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetHabitMonth handles GET /api/habits/{monthKey}.
//
//	@Summary		Get one habit month, seeding it on first access
//	@Tags			habits
//	@Produce		json
//	@Param			monthKey	path		string	true	"Month key (YYYY-MM)"
//	@Success		200			{object}	map[int]map[string]bool
//	@Failure		400			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/habits/{monthKey} [get]
func (h *Handler) GetHabitMonth(w http.ResponseWriter, r *http.Request) {
	monthKey := chi.URLParam(r, "monthKey")
	month, err := h.svc.HabitMonth(r.Context(), requestUser(r), monthKey)
	if err != nil {
		writeErr(w, err, "get habit month")
		return
	}
	writeJSON(w, http.StatusOK, month)
}

// SetHabitCell handles PUT /api/habits/{monthKey}/days/{day}/{habitID}.
//
//	@Summary		Toggle one habit on one day
//	@Tags			habits
//	@Accept			json
//	@Param			monthKey	path	string				true	"Month key (YYYY-MM)"
//	@Param			day			path	int					true	"Day of month"
//	@Param			habitID		path	string				true	"Habit id"
//	@Param			body		body	SetHabitCellRequest	true	"New cell state"
//	@Success		204			"Cell updated"
//	@Failure		400			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/habits/{monthKey}/days/{day}/{habitID} [put]
func (h *Handler) SetHabitCell(w http.ResponseWriter, r *http.Request) {
	monthKey := chi.URLParam(r, "monthKey")
	day, err := strconv.Atoi(chi.URLParam(r, "day"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid day")
		return
	}
	var req SetHabitCellRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	habitID := chi.URLParam(r, "habitID")
	if err := h.svc.SetHabitCell(r.Context(), requestUser(r), monthKey, day, habitID, req.Done); err != nil {
		writeErr(w, err, "set habit cell")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetHabitSettings handles GET /api/settings/habits.
//
//	@Summary		Get the habit settings rows
//	@Tags			settings
//	@Produce		json
//	@Success		200	{array}	models.HabitSetting
//	@Security		BearerAuth
//	@Router			/settings/habits [get]
func (h *Handler) GetHabitSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.svc.HabitSettings(r.Context(), requestUser(r))
	if err != nil {
		writeErr(w, err, "get habit settings")
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// UpdateHabitSettings handles PUT /api/settings/habits.
//
//	@Summary		Replace the habit settings rows
//	@Tags			settings
//	@Accept			json
//	@Success		204	"Settings updated"
//	@Failure		400	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/settings/habits [put]
func (h *Handler) UpdateHabitSettings(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var habits []models.HabitSetting
	if err := json.NewDecoder(r.Body).Decode(&habits); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := h.svc.UpdateHabitSettings(r.Context(), requestUser(r), habits); err != nil {
		if errors.Is(err, apperr.ErrNoUser) {
			writeErr(w, err, "update habit settings")
			return
		}
		// Validation failures read better as 400s.
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetMomentsMonth handles GET /api/moments/{monthKey}.
//
//	@Summary		Get one month of daily moments
//	@Tags			moments
//	@Produce		json
//	@Param			monthKey	path		string	true	"Month key (YYYY-M)"
//	@Success		200			{object}	map[int]string
//	@Security		BearerAuth
//	@Router			/moments/{monthKey} [get]
func (h *Handler) GetMomentsMonth(w http.ResponseWriter, r *http.Request) {
	month, err := h.svc.MomentsMonth(r.Context(), requestUser(r), chi.URLParam(r, "monthKey"))
	if err != nil {
		writeErr(w, err, "get moments")
		return
	}
	writeJSON(w, http.StatusOK, month)
}

// SaveMoment handles PUT /api/moments/{monthKey}/days/{day}.
//
//	@Summary		Save one day's moment text
//	@Tags			moments
//	@Accept			json
//	@Param			monthKey	path	string				true	"Month key (YYYY-M)"
//	@Param			day			path	int					true	"Day of month"
//	@Param			body		body	SaveMomentRequest	true	"Moment text"
//	@Success		204			"Moment saved"
//	@Failure		400			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/moments/{monthKey}/days/{day} [put]
func (h *Handler) SaveMoment(w http.ResponseWriter, r *http.Request) {
	monthKey := chi.URLParam(r, "monthKey")
	day, err := strconv.Atoi(chi.URLParam(r, "day"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid day")
		return
	}
	var req SaveMomentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := h.svc.SaveMoment(r.Context(), requestUser(r), monthKey, day, req.Moment); err != nil {
		writeErr(w, err, "save moment")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListTrackers handles GET /api/trackers.
//
//	@Summary		List the tracker descriptor table
//	@Tags			trackers
//	@Produce		json
//	@Success		200	{array}	trackers.Descriptor
//	@Security		BearerAuth
//	@Router			/trackers [get]
func (h *Handler) ListTrackers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Trackers())
}

// GetTrackerYear handles GET /api/trackers/{trackerID}/{yearKey}.
//
//	@Summary		Get one tracker year, seeding it on first access
//	@Tags			trackers
//	@Produce		json
//	@Param			trackerID	path		string	true	"Tracker id"
//	@Param			yearKey		path		string	true	"Year (YYYY)"
//	@Success		200			{object}	map[int][]models.TrackerCell
//	@Failure		404			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/trackers/{trackerID}/{yearKey} [get]
func (h *Handler) GetTrackerYear(w http.ResponseWriter, r *http.Request) {
	trackerID := chi.URLParam(r, "trackerID")
	yearKey := chi.URLParam(r, "yearKey")
	doc, err := h.svc.TrackerYear(r.Context(), requestUser(r), trackerID, yearKey)
	if err != nil {
		writeErr(w, err, "get tracker year")
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// SetTrackerCell handles PUT /api/trackers/{trackerID}/{yearKey}/cells.
//
//	@Summary		Write one tracker value for one day
//	@Tags			trackers
//	@Accept			json
//	@Param			trackerID	path	string					true	"Tracker id"
//	@Param			yearKey		path	string					true	"Year (YYYY)"
//	@Param			body		body	SetTrackerCellRequest	true	"Cell to write"
//	@Success		204			"Cell updated"
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/trackers/{trackerID}/{yearKey}/cells [put]
func (h *Handler) SetTrackerCell(w http.ResponseWriter, r *http.Request) {
	trackerID := chi.URLParam(r, "trackerID")
	yearKey := chi.URLParam(r, "yearKey")
	var req SetTrackerCellRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	err := h.svc.SetTrackerCell(r.Context(), requestUser(r), trackerID, yearKey, req.Month, req.DayIndex, req.Value)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) || errors.Is(err, apperr.ErrNoUser) {
			writeErr(w, err, "set tracker cell")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SyncStatus handles GET /api/sync/status.
//
//	@Summary		Get the user's sync bookkeeping
//	@Tags			sync
//	@Produce		json
//	@Success		200	{object}	SyncStatus
//	@Security		BearerAuth
//	@Router			/sync/status [get]
func (h *Handler) SyncStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.orch.Status(requestUser(r)))
}

// SyncCheck handles POST /api/sync/check.
//
//	@Summary		Run the check-and-sync decision now
//	@Tags			sync
//	@Produce		json
//	@Success		200	{object}	SyncStatus
//	@Security		BearerAuth
//	@Router			/sync/check [post]
func (h *Handler) SyncCheck(w http.ResponseWriter, r *http.Request) {
	status, err := h.orch.CheckAndSync(r.Context(), requestUser(r))
	if err != nil {
		writeErr(w, err, "sync check")
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// SyncRefresh handles POST /api/sync/refresh.
//
//	@Summary		Drop the cache and reload everything from remote
//	@Tags			sync
//	@Produce		json
//	@Success		200	{object}	SyncStatus
//	@Security		BearerAuth
//	@Router			/sync/refresh [post]
func (h *Handler) SyncRefresh(w http.ResponseWriter, r *http.Request) {
	status, err := h.orch.ForceRefresh(r.Context(), requestUser(r), nil)
	if err != nil {
		writeErr(w, err, "sync refresh")
		return
	}
	writeJSON(w, http.StatusOK, status)
}

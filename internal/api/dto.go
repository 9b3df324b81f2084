package api

import (
	"time"

	"github.com/starford/daybook/internal/models"
)

// AddJournalRequest is the request body for creating a journal entry.
type AddJournalRequest struct {
	Content   string     `json:"content" example:"Slept well, long walk." validate:"required"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// UpdateJournalRequest is the request body for editing a journal entry.
// Absent fields are left untouched.
type UpdateJournalRequest struct {
	Content   *string    `json:"content,omitempty"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// SetHabitCellRequest is the request body for toggling one habit cell.
type SetHabitCellRequest struct {
	Done bool `json:"done"`
}

// SaveMomentRequest is the request body for one day's moment text.
type SaveMomentRequest struct {
	Moment string `json:"moment" example:"Great coffee with Ana."`
}

// SetTrackerCellRequest is the request body for one tracker cell write.
type SetTrackerCellRequest struct {
	Month    int `json:"month" example:"8" validate:"required"`
	DayIndex int `json:"dayIndex" example:"29" validate:"required"`
	Value    any `json:"value"`
}

// JournalListResponse wraps the full journal listing.
type JournalListResponse struct {
	Entries []models.JournalEntry `json:"entries" validate:"required"`
	Total   int                   `json:"total" example:"42" validate:"required"`
}

// JournalEntry is the single-entry response type (aliased from the domain layer).
type JournalEntry = models.JournalEntry

// SyncStatus is the sync bookkeeping response (aliased from the domain layer).
type SyncStatus = models.SyncStatus

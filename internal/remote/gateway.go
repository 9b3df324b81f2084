// Package remote defines the hosted document store gateway.
//
// The store is opaque: per-user collections of JSON documents with
// get/set/update-field semantics plus one server-stamped "lastModified"
// watermark per user. Every mutating call stamps the watermark as a side
// effect; that stamp is what lets another device detect staleness.
package remote

import (
	"context"
	"time"

	"github.com/starford/daybook/internal/models"
)

// Gateway is the remote document store contract. All operations are keyed
// by userID. Fetches of absent documents return zero values without error;
// tracker year fetches carry an explicit found flag because the raw
// document shape is opaque.
type Gateway interface {
	// Journal entries.
	FetchJournalEntries(ctx context.Context, userID string) ([]models.JournalEntry, error)
	AddJournalEntry(ctx context.Context, userID string, entry models.JournalEntry) (id string, err error)
	UpdateJournalEntry(ctx context.Context, userID, id string, upd models.JournalUpdate) error
	DeleteJournalEntry(ctx context.Context, userID, id string) error

	// Habit tracker months. FetchHabitMonth returns nil for an absent month.
	FetchHabitMonth(ctx context.Context, userID, monthKey string) (models.HabitMonth, error)
	CreateHabitMonth(ctx context.Context, userID, monthKey string, habitIDs []string) (models.HabitMonth, error)
	UpdateHabitCell(ctx context.Context, userID, monthKey string, day int, habitID string, done bool) error

	// Daily moments. An absent month fetches as an empty map.
	FetchMomentsMonth(ctx context.Context, userID, monthKey string) (models.MomentsMonth, error)
	SaveMoment(ctx context.Context, userID, monthKey string, day int, moment string, date time.Time) error

	// Tracker years. The raw document is returned unnormalized; callers
	// run it through trackers.NormalizeYear.
	FetchTrackerYear(ctx context.Context, userID, trackerID, yearKey string) (raw any, found bool, err error)
	CreateTrackerYear(ctx context.Context, userID, trackerID, yearKey string, doc models.TrackerYear) error
	UpdateTrackerCell(ctx context.Context, userID, trackerID, yearKey string, month, dayIndex int, valueKey string, value any) error

	// Habit settings. FetchHabitSettings seeds the default template on
	// first access.
	FetchHabitSettings(ctx context.Context, userID string) ([]models.HabitSetting, error)
	UpdateHabitSettings(ctx context.Context, userID string, habits []models.HabitSetting) error

	// Sync watermark.
	LastModified(ctx context.Context, userID string) (*time.Time, error)
	TouchLastModified(ctx context.Context, userID string) (time.Time, error)
}

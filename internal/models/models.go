// Package models defines the domain types for Daybook.
package models

import (
	"time"
	"unicode/utf8"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// JournalEntry is one free-text journal entry. ID is assigned by the
// remote store on creation.
type JournalEntry struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// JournalUpdate carries the fields of a journal entry edit. Nil fields
// are left untouched on merge.
type JournalUpdate struct {
	Content   *string    `json:"content,omitempty"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// HabitMonth maps day-of-month (1..N) to habit completion by habit id.
// Once a month document exists every day in [1, daysInMonth] has an entry;
// habit ids missing within a day read as false.
type HabitMonth map[int]map[string]bool

// HabitSetting is one configurable habit column.
type HabitSetting struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

// MaxHabitNameLen is the longest habit name the UI renders cleanly.
const MaxHabitNameLen = 20

// Validate validates a habit setting.
func (h HabitSetting) Validate() error {
	return validation.ValidateStruct(&h,
		validation.Field(&h.ID, validation.Required),
		validation.Field(&h.Name, validation.Required, validation.By(maxRunes(MaxHabitNameLen))),
	)
}

func maxRunes(n int) validation.RuleFunc {
	return func(value interface{}) error {
		s, _ := value.(string)
		if utf8.RuneCountInString(s) > n {
			return validation.NewError("validation_max_runes", "the length must be no more than 20")
		}
		return nil
	}
}

// ValidateHabitSettings validates a full settings list.
func ValidateHabitSettings(habits []HabitSetting) error {
	for _, h := range habits {
		if err := h.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// DefaultHabitSettings returns the fixed template seeded for new users:
// ten habits, the first five enabled.
func DefaultHabitSettings() []HabitSetting {
	return []HabitSetting{
		{ID: "habit1", Name: "Habit 1", Enabled: true},
		{ID: "habit2", Name: "Habit 2", Enabled: true},
		{ID: "habit3", Name: "Habit 3", Enabled: true},
		{ID: "habit4", Name: "Habit 4", Enabled: true},
		{ID: "habit5", Name: "Habit 5", Enabled: true},
		{ID: "habit6", Name: "Habit 6", Enabled: false},
		{ID: "habit7", Name: "Habit 7", Enabled: false},
		{ID: "habit8", Name: "Habit 8", Enabled: false},
		{ID: "habit9", Name: "Habit 9", Enabled: false},
		{ID: "habit10", Name: "Habit 10", Enabled: false},
	}
}

// HabitIDs returns the ids of the given settings in order.
func HabitIDs(habits []HabitSetting) []string {
	ids := make([]string, len(habits))
	for i, h := range habits {
		ids[i] = h.ID
	}
	return ids
}

// MomentsMonth maps day-of-month to a short free-text "moment". Days
// without a moment have no entry.
type MomentsMonth map[int]string

// TrackerCell is one day's value for one tracker. It holds a single value
// key (e.g. "rating" or "screenTime") whose value is nil, a number, or a
// {rating, hex} object.
type TrackerCell map[string]any

// TrackerYear maps month (1..12) to a dense slice of day cells. A nil cell
// means "not recorded". The slice length for a month equals that month's
// day count for the year.
type TrackerYear map[int][]TrackerCell

// SyncStatus is a snapshot of a user's sync bookkeeping.
type SyncStatus struct {
	InitialLoadDone bool       `json:"initial_load_done"`
	NeedsTodayFetch bool       `json:"needs_today_fetch"`
	LastSync        *time.Time `json:"last_sync,omitempty"`
	LastModified    *time.Time `json:"last_modified,omitempty"`
}

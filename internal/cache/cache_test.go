package cache

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/starford/daybook/internal/cachestore"
	"github.com/starford/daybook/internal/models"
	"github.com/starford/daybook/internal/testutil"
)

func newCache(t *testing.T) *Cache {
	t.Helper()
	return New(cachestore.NewMemory(), slog.New(slog.DiscardHandler))
}

func ts(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestJournalEntriesMissIsNil(t *testing.T) {
	c := newCache(t)
	if got := c.JournalEntries("u1"); got != nil {
		t.Errorf("JournalEntries on empty cache = %v, want nil", got)
	}
}

func TestJournalEntriesSortedNewestFirst(t *testing.T) {
	c := newCache(t)
	c.SetJournalEntries("u1", []models.JournalEntry{
		{ID: "old", Timestamp: ts("2026-08-01T10:00:00Z")},
		{ID: "new", Timestamp: ts("2026-08-20T10:00:00Z")},
		{ID: "mid", Timestamp: ts("2026-08-10T10:00:00Z")},
	})

	got := c.JournalEntries("u1")
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for i, want := range []string{"new", "mid", "old"} {
		if got[i].ID != want {
			t.Errorf("entry %d = %q, want %q", i, got[i].ID, want)
		}
	}

	// Reading again returns the same result.
	again := c.JournalEntries("u1")
	if len(again) != 3 || again[0].ID != "new" {
		t.Errorf("second read diverged: %v", again)
	}
}

func TestJournalAddPrepends(t *testing.T) {
	c := newCache(t)
	c.SetJournalEntries("u1", []models.JournalEntry{{ID: "a", Timestamp: ts("2026-08-01T10:00:00Z")}})
	c.AddJournalEntry("u1", models.JournalEntry{ID: "b", Timestamp: ts("2026-08-02T10:00:00Z")})

	got := c.JournalEntries("u1")
	if len(got) != 2 || got[0].ID != "b" {
		t.Errorf("JournalEntries = %v", got)
	}
}

func TestJournalUpdateMergesFields(t *testing.T) {
	c := newCache(t)
	when := ts("2026-08-01T10:00:00Z")
	c.SetJournalEntries("u1", []models.JournalEntry{{ID: "a", Content: "draft", Timestamp: when}})

	content := "final"
	c.UpdateJournalEntry("u1", "a", models.JournalUpdate{Content: &content})

	got := c.JournalEntries("u1")
	if got[0].Content != "final" {
		t.Errorf("Content = %q, want %q", got[0].Content, "final")
	}
	if !got[0].Timestamp.Equal(when) {
		t.Errorf("Timestamp changed: %v", got[0].Timestamp)
	}

	// Unknown id is a no-op, not an error.
	c.UpdateJournalEntry("u1", "ghost", models.JournalUpdate{Content: &content})
	if len(c.JournalEntries("u1")) != 1 {
		t.Error("update of unknown id changed the list")
	}
}

func TestJournalDelete(t *testing.T) {
	c := newCache(t)
	c.SetJournalEntries("u1", []models.JournalEntry{
		{ID: "a", Timestamp: ts("2026-08-01T10:00:00Z")},
		{ID: "b", Timestamp: ts("2026-08-02T10:00:00Z")},
	})
	c.DeleteJournalEntry("u1", "a")

	got := c.JournalEntries("u1")
	if len(got) != 1 || got[0].ID != "b" {
		t.Errorf("JournalEntries after delete = %v", got)
	}
}

func TestSetHabitCellPreservesSiblings(t *testing.T) {
	c := newCache(t)
	c.SetHabitMonth("u1", "2026-08", models.HabitMonth{
		1: {"habit1": true, "habit2": false},
		2: {"habit1": false},
	})
	c.SetHabitMonth("u1", "2026-07", models.HabitMonth{1: {"habit1": true}})

	c.SetHabitCell("u1", "2026-08", 2, "habit2", true)

	month := c.HabitMonth("u1", "2026-08")
	if !month[2]["habit2"] {
		t.Error("written cell not set")
	}
	if !month[1]["habit1"] || month[1]["habit2"] {
		t.Errorf("day 1 siblings disturbed: %v", month[1])
	}
	if month[2]["habit1"] {
		t.Errorf("day 2 sibling disturbed: %v", month[2])
	}
	if other := c.HabitMonth("u1", "2026-07"); !other[1]["habit1"] {
		t.Error("sibling month disturbed")
	}
}

func TestSetHabitCellCreatesContainers(t *testing.T) {
	c := newCache(t)
	c.SetHabitCell("u1", "2026-08", 14, "habit3", true)

	month := c.HabitMonth("u1", "2026-08")
	if month == nil || !month[14]["habit3"] {
		t.Errorf("HabitMonth = %v", month)
	}
}

func TestSetMomentPreservesSiblings(t *testing.T) {
	c := newCache(t)
	c.SetMomentsMonth("u1", "2026-8", models.MomentsMonth{3: "beach"})
	c.SetMoment("u1", "2026-8", 15, "concert")
	c.SetMoment("u1", "2026-7", 1, "hike")

	month := c.MomentsMonth("u1", "2026-8")
	if month[3] != "beach" || month[15] != "concert" {
		t.Errorf("MomentsMonth = %v", month)
	}
	if other := c.MomentsMonth("u1", "2026-7"); other[1] != "hike" {
		t.Errorf("sibling month = %v", other)
	}
}

func TestSetTrackerCellSeedsYear(t *testing.T) {
	c := newCache(t)
	c.SetTrackerCell("u1", "mood", "2024", 2, 28, "rating", 7)

	year := c.TrackerYear("u1", "mood", "2024")
	if year == nil {
		t.Fatal("TrackerYear miss after cell write")
	}
	if len(year[2]) != 29 {
		t.Errorf("Feb 2024 has %d cells, want 29", len(year[2]))
	}
	if got := year[2][28]["rating"]; got != float64(7) && got != 7 {
		t.Errorf("cell = %v", year[2][28])
	}
	if year[2][0] != nil {
		t.Errorf("untouched cell = %v, want nil", year[2][0])
	}
}

func TestSetTrackerCellPreservesOtherCells(t *testing.T) {
	c := newCache(t)
	c.SetTrackerCell("u1", "sleep", "2026", 1, 0, "rating", 8)
	c.SetTrackerCell("u1", "sleep", "2026", 1, 1, "rating", 5)
	c.SetTrackerCell("u1", "screen", "2026", 1, 0, "screenTime", 3)

	year := c.TrackerYear("u1", "sleep", "2026")
	if got := year[1][0]["rating"]; got != float64(8) && got != 8 {
		t.Errorf("first cell = %v", year[1][0])
	}
	if got := year[1][1]["rating"]; got != float64(5) && got != 5 {
		t.Errorf("second cell = %v", year[1][1])
	}
	screen := c.TrackerYear("u1", "screen", "2026")
	if got := screen[1][0]["screenTime"]; got != float64(3) && got != 3 {
		t.Errorf("screen cell = %v", screen[1][0])
	}
}

func TestSetTrackerCellRejectsOutOfRange(t *testing.T) {
	c := newCache(t)
	c.SetTrackerCell("u1", "mood", "2026", 2, 28, "rating", 7) // Feb 2026 has 28 days
	c.SetTrackerCell("u1", "mood", "2026", 13, 0, "rating", 7)
	c.SetTrackerCell("u1", "mood", "20x6", 1, 0, "rating", 7)

	if year := c.TrackerYear("u1", "mood", "2026"); year != nil {
		t.Errorf("rejected writes still stored a year: %v", year[2])
	}
}

// flakyStore fails the next failReads Get calls, then behaves normally.
type flakyStore struct {
	*cachestore.Memory
	failReads int
}

func (s *flakyStore) Get(userID, slot string) ([]byte, error) {
	if s.failReads > 0 {
		s.failReads--
		return nil, errors.New("i/o error")
	}
	return s.Memory.Get(userID, slot)
}

func TestSetHabitCellSkipsWriteOnReadError(t *testing.T) {
	store := &flakyStore{Memory: cachestore.NewMemory()}
	c := New(store, slog.New(slog.DiscardHandler))
	c.SetHabitMonth("u1", "2026-08", models.HabitMonth{1: {"habit1": true}})
	c.SetHabitMonth("u1", "2026-07", models.HabitMonth{1: {"habit1": true}})

	store.failReads = 1
	c.SetHabitCell("u1", "2026-08", 2, "habit2", true)

	if month := c.HabitMonth("u1", "2026-08"); !month[1]["habit1"] {
		t.Error("day 1 siblings lost after a transient read error")
	}
	if month := c.HabitMonth("u1", "2026-07"); !month[1]["habit1"] {
		t.Error("sibling month lost after a transient read error")
	}
	if month := c.HabitMonth("u1", "2026-08"); month[2]["habit2"] {
		t.Error("cell write went through despite the failed read")
	}

	// The store recovered, so the next write lands normally.
	c.SetHabitCell("u1", "2026-08", 2, "habit2", true)
	if month := c.HabitMonth("u1", "2026-08"); !month[2]["habit2"] || !month[1]["habit1"] {
		t.Errorf("retry after recovery = %v", month)
	}
}

func TestDeleteJournalEntrySkipsWriteOnReadError(t *testing.T) {
	store := &flakyStore{Memory: cachestore.NewMemory()}
	c := New(store, slog.New(slog.DiscardHandler))
	c.SetJournalEntries("u1", []models.JournalEntry{
		{ID: "a", Timestamp: ts("2026-08-01T10:00:00Z")},
		{ID: "b", Timestamp: ts("2026-08-02T10:00:00Z")},
	})

	store.failReads = 1
	c.DeleteJournalEntry("u1", "a")

	if got := c.JournalEntries("u1"); len(got) != 2 {
		t.Fatalf("journal list after failed-read delete = %v", got)
	}
}

func TestSetMomentSkipsWriteOnReadError(t *testing.T) {
	store := &flakyStore{Memory: cachestore.NewMemory()}
	c := New(store, slog.New(slog.DiscardHandler))
	c.SetMoment("u1", "2026-7", 1, "hike")

	store.failReads = 1
	c.SetMoment("u1", "2026-8", 15, "concert")

	if month := c.MomentsMonth("u1", "2026-7"); month[1] != "hike" {
		t.Error("sibling month lost after a transient read error")
	}
	if month := c.MomentsMonth("u1", "2026-8"); month[15] != "" {
		t.Error("moment write went through despite the failed read")
	}
}

func TestSetTrackerCellSkipsWriteOnReadError(t *testing.T) {
	store := &flakyStore{Memory: cachestore.NewMemory()}
	c := New(store, slog.New(slog.DiscardHandler))
	c.SetTrackerCell("u1", "mood", "2026", 1, 0, "rating", 8)

	store.failReads = 1
	c.SetTrackerCell("u1", "mood", "2026", 1, 1, "rating", 5)

	year := c.TrackerYear("u1", "mood", "2026")
	if got := year[1][0]["rating"]; got != float64(8) {
		t.Errorf("existing cell lost after a transient read error: %v", year[1][0])
	}
	if year[1][1] != nil {
		t.Errorf("cell write went through despite the failed read: %v", year[1][1])
	}
}

func TestCorruptSlotIsMiss(t *testing.T) {
	store := cachestore.NewMemory()
	c := New(store, slog.New(slog.DiscardHandler))
	if err := store.Set("u1", "journalEntries", []byte("{not json")); err != nil {
		t.Fatal(err)
	}
	if got := c.JournalEntries("u1"); got != nil {
		t.Errorf("corrupt slot read = %v, want nil", got)
	}
}

func TestUsersAreIsolated(t *testing.T) {
	c := newCache(t)
	c.SetJournalEntries("alice", []models.JournalEntry{{ID: "a", Timestamp: ts("2026-08-01T10:00:00Z")}})
	if got := c.JournalEntries("bob"); got != nil {
		t.Errorf("bob sees alice's entries: %v", got)
	}
}

func TestSQLiteBackedCacheSurvivesReload(t *testing.T) {
	store := testutil.TestSQLite(t)
	c := New(store, slog.New(slog.DiscardHandler))
	c.SetMoment("u1", "2026-8", 30, "bike ride")

	// A second Cache over the same store sees the write.
	c2 := New(store, slog.New(slog.DiscardHandler))
	if got := c2.MomentsMonth("u1", "2026-8"); got[30] != "bike ride" {
		t.Errorf("MomentsMonth = %v", got)
	}
}

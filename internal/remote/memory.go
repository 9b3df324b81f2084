package remote

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/starford/daybook/internal/dates"
	"github.com/starford/daybook/internal/models"
)

// Memory is an in-process Gateway. Tests run against it, and
// `remote.mode: memory` runs the whole daemon against it for offline
// development. Documents live only as long as the process.
type Memory struct {
	mu sync.Mutex
	// Clock stamps watermarks; replaceable in tests.
	Clock func() time.Time
	// FailWith, when set, makes every operation return this error.
	FailWith error

	users map[string]*memoryUser
}

type memoryUser struct {
	journal      []models.JournalEntry
	habits       map[string]models.HabitMonth
	moments      map[string]models.MomentsMonth
	trackers     map[string]map[string]models.TrackerYear
	settings     []models.HabitSetting
	lastModified *time.Time
}

// NewMemory creates an empty in-process document store.
func NewMemory() *Memory {
	return &Memory{Clock: time.Now, users: make(map[string]*memoryUser)}
}

func (m *Memory) user(userID string) *memoryUser {
	u, ok := m.users[userID]
	if !ok {
		u = &memoryUser{
			habits:   make(map[string]models.HabitMonth),
			moments:  make(map[string]models.MomentsMonth),
			trackers: make(map[string]map[string]models.TrackerYear),
		}
		m.users[userID] = u
	}
	return u
}

func (m *Memory) touch(u *memoryUser) time.Time {
	now := m.Clock()
	u.lastModified = &now
	return now
}

// FetchJournalEntries returns a copy of the journal collection.
func (m *Memory) FetchJournalEntries(_ context.Context, userID string) ([]models.JournalEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	u := m.user(userID)
	out := make([]models.JournalEntry, len(u.journal))
	copy(out, u.journal)
	return out, nil
}

// AddJournalEntry stores the entry under a fresh id.
func (m *Memory) AddJournalEntry(_ context.Context, userID string, entry models.JournalEntry) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return "", m.FailWith
	}
	u := m.user(userID)
	entry.ID = uuid.NewString()
	u.journal = append([]models.JournalEntry{entry}, u.journal...)
	m.touch(u)
	return entry.ID, nil
}

// UpdateJournalEntry merges upd into the entry with the given id.
func (m *Memory) UpdateJournalEntry(_ context.Context, userID, id string, upd models.JournalUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return m.FailWith
	}
	u := m.user(userID)
	for i := range u.journal {
		if u.journal[i].ID != id {
			continue
		}
		if upd.Content != nil {
			u.journal[i].Content = *upd.Content
		}
		if upd.Timestamp != nil {
			u.journal[i].Timestamp = *upd.Timestamp
		}
		break
	}
	m.touch(u)
	return nil
}

// DeleteJournalEntry removes the entry with the given id.
func (m *Memory) DeleteJournalEntry(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return m.FailWith
	}
	u := m.user(userID)
	filtered := u.journal[:0]
	for _, e := range u.journal {
		if e.ID != id {
			filtered = append(filtered, e)
		}
	}
	u.journal = filtered
	m.touch(u)
	return nil
}

// FetchHabitMonth returns nil for an absent month.
func (m *Memory) FetchHabitMonth(_ context.Context, userID, monthKey string) (models.HabitMonth, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	return cloneHabitMonth(m.user(userID).habits[monthKey]), nil
}

// CreateHabitMonth seeds a month document: every day present, every habit
// false.
func (m *Memory) CreateHabitMonth(_ context.Context, userID, monthKey string, habitIDs []string) (models.HabitMonth, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	days, err := dates.DaysInMonthKey(monthKey)
	if err != nil {
		return nil, err
	}
	month := make(models.HabitMonth, days)
	for day := 1; day <= days; day++ {
		cells := make(map[string]bool, len(habitIDs))
		for _, id := range habitIDs {
			cells[id] = false
		}
		month[day] = cells
	}
	u := m.user(userID)
	u.habits[monthKey] = month
	m.touch(u)
	return cloneHabitMonth(month), nil
}

// UpdateHabitCell sets one day/habit flag.
func (m *Memory) UpdateHabitCell(_ context.Context, userID, monthKey string, day int, habitID string, done bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return m.FailWith
	}
	u := m.user(userID)
	month := u.habits[monthKey]
	if month == nil {
		month = models.HabitMonth{}
		u.habits[monthKey] = month
	}
	if month[day] == nil {
		month[day] = map[string]bool{}
	}
	month[day][habitID] = done
	m.touch(u)
	return nil
}

// FetchMomentsMonth returns the sparse month, empty when absent.
func (m *Memory) FetchMomentsMonth(_ context.Context, userID, monthKey string) (models.MomentsMonth, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	month := m.user(userID).moments[monthKey]
	out := make(models.MomentsMonth, len(month))
	for day, moment := range month {
		out[day] = moment
	}
	return out, nil
}

// SaveMoment writes one day's moment.
func (m *Memory) SaveMoment(_ context.Context, userID, monthKey string, day int, moment string, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return m.FailWith
	}
	u := m.user(userID)
	if u.moments[monthKey] == nil {
		u.moments[monthKey] = models.MomentsMonth{}
	}
	u.moments[monthKey][day] = moment
	m.touch(u)
	return nil
}

// FetchTrackerYear returns the raw year document.
func (m *Memory) FetchTrackerYear(_ context.Context, userID, trackerID, yearKey string) (any, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return nil, false, m.FailWith
	}
	years := m.user(userID).trackers[trackerID]
	doc, ok := years[yearKey]
	if !ok {
		return nil, false, nil
	}
	return cloneTrackerYear(doc), true, nil
}

// CreateTrackerYear stores a year document.
func (m *Memory) CreateTrackerYear(_ context.Context, userID, trackerID, yearKey string, doc models.TrackerYear) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return m.FailWith
	}
	u := m.user(userID)
	if u.trackers[trackerID] == nil {
		u.trackers[trackerID] = make(map[string]models.TrackerYear)
	}
	u.trackers[trackerID][yearKey] = cloneTrackerYear(doc)
	m.touch(u)
	return nil
}

// UpdateTrackerCell sets one value key on one day cell.
func (m *Memory) UpdateTrackerCell(_ context.Context, userID, trackerID, yearKey string, month, dayIndex int, valueKey string, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return m.FailWith
	}
	u := m.user(userID)
	doc := u.trackers[trackerID][yearKey]
	if doc == nil {
		return nil
	}
	cells := doc[month]
	if dayIndex < 0 || dayIndex >= len(cells) {
		return nil
	}
	if cells[dayIndex] == nil {
		cells[dayIndex] = models.TrackerCell{}
	}
	cells[dayIndex][valueKey] = value
	m.touch(u)
	return nil
}

// FetchHabitSettings seeds and returns the default template on first
// access.
func (m *Memory) FetchHabitSettings(_ context.Context, userID string) ([]models.HabitSetting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	u := m.user(userID)
	if u.settings == nil {
		u.settings = models.DefaultHabitSettings()
	}
	out := make([]models.HabitSetting, len(u.settings))
	copy(out, u.settings)
	return out, nil
}

// UpdateHabitSettings replaces the settings list.
func (m *Memory) UpdateHabitSettings(_ context.Context, userID string, habits []models.HabitSetting) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return m.FailWith
	}
	u := m.user(userID)
	u.settings = make([]models.HabitSetting, len(habits))
	copy(u.settings, habits)
	m.touch(u)
	return nil
}

// LastModified returns the watermark, nil when never stamped.
func (m *Memory) LastModified(_ context.Context, userID string) (*time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	u := m.user(userID)
	if u.lastModified == nil {
		return nil, nil
	}
	t := *u.lastModified
	return &t, nil
}

// TouchLastModified stamps a fresh watermark.
func (m *Memory) TouchLastModified(_ context.Context, userID string) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return time.Time{}, m.FailWith
	}
	return m.touch(m.user(userID)), nil
}

func cloneHabitMonth(month models.HabitMonth) models.HabitMonth {
	if month == nil {
		return nil
	}
	out := make(models.HabitMonth, len(month))
	for day, cells := range month {
		c := make(map[string]bool, len(cells))
		for id, done := range cells {
			c[id] = done
		}
		out[day] = c
	}
	return out
}

func cloneTrackerYear(doc models.TrackerYear) models.TrackerYear {
	if doc == nil {
		return nil
	}
	out := make(models.TrackerYear, len(doc))
	for month, cells := range doc {
		cs := make([]models.TrackerCell, len(cells))
		for i, cell := range cells {
			if cell == nil {
				continue
			}
			c := make(models.TrackerCell, len(cell))
			for k, v := range cell {
				c[k] = v
			}
			cs[i] = c
		}
		out[month] = cs
	}
	return out
}

var _ Gateway = (*Memory)(nil)

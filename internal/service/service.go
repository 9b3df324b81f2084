// Package service coordinates the local cache and the remote document
// store. Reads are cache-first: a hit never touches the network, a miss
// fetches from the gateway and caches the result. Writes land in the
// cache immediately and then go to the gateway; when the remote write
// fails the service broadcasts a reconcile event so the UI re-reads the
// document, and returns the error to the caller.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/starford/daybook/internal/apperr"
	"github.com/starford/daybook/internal/cache"
	"github.com/starford/daybook/internal/dates"
	"github.com/starford/daybook/internal/models"
	"github.com/starford/daybook/internal/remote"
	"github.com/starford/daybook/internal/sse"
	"github.com/starford/daybook/internal/trackers"
)

// Service is the domain service for journal entries, habit months, daily
// moments, and tracker years.
type Service struct {
	cache  *cache.Cache
	gw     remote.Gateway
	broker *sse.Broker
	logger *slog.Logger

	mu    sync.RWMutex
	table []trackers.Descriptor

	now func() time.Time
}

// New creates a new domain service.
func New(c *cache.Cache, gw remote.Gateway, broker *sse.Broker, table []trackers.Descriptor, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		cache:  c,
		gw:     gw,
		broker: broker,
		logger: logger,
		table:  table,
		now:    time.Now,
	}
}

// Trackers returns the current tracker descriptor table.
func (s *Service) Trackers() []trackers.Descriptor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]trackers.Descriptor, len(s.table))
	copy(out, s.table)
	return out
}

// SetTrackers swaps the descriptor table. Called by the config watcher on
// hot reload.
func (s *Service) SetTrackers(table []trackers.Descriptor) {
	s.mu.Lock()
	s.table = table
	s.mu.Unlock()
	s.broker.Publish(sse.Event{Type: "trackers.reloaded", Data: map[string]int{"count": len(table)}})
}

func (s *Service) tracker(id string) (trackers.Descriptor, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return trackers.ByID(s.table, id)
}

// JournalEntries returns all journal entries, newest first. On a cache
// miss the full list is fetched from the gateway and cached.
func (s *Service) JournalEntries(ctx context.Context, userID string) ([]models.JournalEntry, error) {
	if userID == "" {
		return nil, apperr.ErrNoUser
	}
	if entries := s.cache.JournalEntries(userID); entries != nil {
		return entries, nil
	}
	entries, err := s.gw.FetchJournalEntries(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch journal entries: %w", err)
	}
	s.cache.SetJournalEntries(userID, entries)
	return entries, nil
}

// AddJournalEntry writes a new entry. The gateway assigns the id, so this
// is the one write that goes remote first; the cache and subscribers are
// updated once the id is known.
func (s *Service) AddJournalEntry(ctx context.Context, userID, content string, timestamp time.Time) (models.JournalEntry, error) {
	if userID == "" {
		return models.JournalEntry{}, apperr.ErrNoUser
	}
	if timestamp.IsZero() {
		timestamp = s.now()
	}
	entry := models.JournalEntry{Content: content, Timestamp: timestamp}
	id, err := s.gw.AddJournalEntry(ctx, userID, entry)
	if err != nil {
		return models.JournalEntry{}, fmt.Errorf("add journal entry: %w", err)
	}
	entry.ID = id
	s.cache.AddJournalEntry(userID, entry)
	s.broker.PublishCacheEvent("updated", "journal", id)
	return entry, nil
}

// UpdateJournalEntry merges the given fields into the entry, cache first.
func (s *Service) UpdateJournalEntry(ctx context.Context, userID, id string, upd models.JournalUpdate) error {
	if userID == "" {
		return apperr.ErrNoUser
	}
	s.cache.UpdateJournalEntry(userID, id, upd)
	if err := s.gw.UpdateJournalEntry(ctx, userID, id, upd); err != nil {
		s.broker.PublishCacheEvent("reconcile", "journal", id)
		return fmt.Errorf("update journal entry %s: %w", id, err)
	}
	s.broker.PublishCacheEvent("updated", "journal", id)
	return nil
}

// DeleteJournalEntry removes the entry, cache first.
func (s *Service) DeleteJournalEntry(ctx context.Context, userID, id string) error {
	if userID == "" {
		return apperr.ErrNoUser
	}
	s.cache.DeleteJournalEntry(userID, id)
	if err := s.gw.DeleteJournalEntry(ctx, userID, id); err != nil {
		s.broker.PublishCacheEvent("reconcile", "journal", id)
		return fmt.Errorf("delete journal entry %s: %w", id, err)
	}
	s.broker.PublishCacheEvent("updated", "journal", id)
	return nil
}

// HabitMonth returns the habit month document, seeding a fresh one remote
// side when the month does not exist yet. The seeded month carries a row
// of false cells for every enabled habit on every day of the month.
func (s *Service) HabitMonth(ctx context.Context, userID, monthKey string) (models.HabitMonth, error) {
	if userID == "" {
		return nil, apperr.ErrNoUser
	}
	if _, err := dates.DaysInMonthKey(monthKey); err != nil {
		return nil, err
	}
	if month := s.cache.HabitMonth(userID, monthKey); month != nil {
		return month, nil
	}
	month, err := s.gw.FetchHabitMonth(ctx, userID, monthKey)
	if err != nil {
		return nil, fmt.Errorf("fetch habit month %s: %w", monthKey, err)
	}
	if month == nil {
		settings, err := s.HabitSettings(ctx, userID)
		if err != nil {
			return nil, err
		}
		month, err = s.gw.CreateHabitMonth(ctx, userID, monthKey, enabledHabitIDs(settings))
		if err != nil {
			return nil, fmt.Errorf("create habit month %s: %w", monthKey, err)
		}
	}
	s.cache.SetHabitMonth(userID, monthKey, month)
	return month, nil
}

// SetHabitCell toggles one habit on one day.
func (s *Service) SetHabitCell(ctx context.Context, userID, monthKey string, day int, habitID string, done bool) error {
	if userID == "" {
		return apperr.ErrNoUser
	}
	days, err := dates.DaysInMonthKey(monthKey)
	if err != nil {
		return err
	}
	if day < 1 || day > days {
		return fmt.Errorf("day %d out of range for %s", day, monthKey)
	}
	s.cache.SetHabitCell(userID, monthKey, day, habitID, done)
	if err := s.gw.UpdateHabitCell(ctx, userID, monthKey, day, habitID, done); err != nil {
		s.broker.PublishCacheEvent("reconcile", "habits", monthKey)
		return fmt.Errorf("update habit cell %s/%d/%s: %w", monthKey, day, habitID, err)
	}
	s.broker.PublishCacheEvent("updated", "habits", monthKey)
	return nil
}

// MomentsMonth returns the daily moments for a month. An absent month is
// an empty map, both remote and cached.
func (s *Service) MomentsMonth(ctx context.Context, userID, monthKey string) (models.MomentsMonth, error) {
	if userID == "" {
		return nil, apperr.ErrNoUser
	}
	if month := s.cache.MomentsMonth(userID, monthKey); month != nil {
		return month, nil
	}
	month, err := s.gw.FetchMomentsMonth(ctx, userID, monthKey)
	if err != nil {
		return nil, fmt.Errorf("fetch moments %s: %w", monthKey, err)
	}
	if month == nil {
		month = models.MomentsMonth{}
	}
	s.cache.SetMomentsMonth(userID, monthKey, month)
	return month, nil
}

// SaveMoment writes one day's moment text, cache first.
func (s *Service) SaveMoment(ctx context.Context, userID, monthKey string, day int, moment string) error {
	if userID == "" {
		return apperr.ErrNoUser
	}
	year, month, err := dates.ParseMonthKey(monthKey)
	if err != nil {
		return err
	}
	if day < 1 || day > dates.DaysInMonth(year, month) {
		return fmt.Errorf("day %d out of range for %s", day, monthKey)
	}
	s.cache.SetMoment(userID, monthKey, day, moment)
	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if err := s.gw.SaveMoment(ctx, userID, monthKey, day, moment, date); err != nil {
		s.broker.PublishCacheEvent("reconcile", "moments", monthKey)
		return fmt.Errorf("save moment %s/%d: %w", monthKey, day, err)
	}
	s.broker.PublishCacheEvent("updated", "moments", monthKey)
	return nil
}

// TrackerYear returns the normalized year document for one tracker,
// seeding an empty year remote side on first access.
func (s *Service) TrackerYear(ctx context.Context, userID, trackerID, yearKey string) (models.TrackerYear, error) {
	if userID == "" {
		return nil, apperr.ErrNoUser
	}
	if _, ok := s.tracker(trackerID); !ok {
		return nil, apperr.ErrNotFound
	}
	year, err := parseYear(yearKey)
	if err != nil {
		return nil, err
	}
	if doc := s.cache.TrackerYear(userID, trackerID, yearKey); doc != nil {
		return doc, nil
	}
	raw, found, err := s.gw.FetchTrackerYear(ctx, userID, trackerID, yearKey)
	if err != nil {
		return nil, fmt.Errorf("fetch tracker year %s/%s: %w", trackerID, yearKey, err)
	}
	var doc models.TrackerYear
	if found {
		doc = trackers.NormalizeYear(raw, year)
	} else {
		doc = trackers.EmptyYear(year)
		if err := s.gw.CreateTrackerYear(ctx, userID, trackerID, yearKey, doc); err != nil {
			return nil, fmt.Errorf("create tracker year %s/%s: %w", trackerID, yearKey, err)
		}
	}
	s.cache.SetTrackerYear(userID, trackerID, yearKey, doc)
	return doc, nil
}

// SetTrackerCell writes one tracker value for one day, cache first. The
// descriptor decides which value key the cell carries.
func (s *Service) SetTrackerCell(ctx context.Context, userID, trackerID, yearKey string, month, dayIndex int, value any) error {
	if userID == "" {
		return apperr.ErrNoUser
	}
	desc, ok := s.tracker(trackerID)
	if !ok {
		return apperr.ErrNotFound
	}
	year, err := parseYear(yearKey)
	if err != nil {
		return err
	}
	if month < 1 || month > 12 {
		return fmt.Errorf("month %d out of range", month)
	}
	if dayIndex < 0 || dayIndex >= dates.DaysInMonth(year, month) {
		return fmt.Errorf("day index %d out of range for %s-%d", dayIndex, yearKey, month)
	}
	// Make sure the year exists on both sides before the cell write.
	if _, err := s.TrackerYear(ctx, userID, trackerID, yearKey); err != nil {
		return err
	}
	s.cache.SetTrackerCell(userID, trackerID, yearKey, month, dayIndex, desc.ValueKey, value)
	if err := s.gw.UpdateTrackerCell(ctx, userID, trackerID, yearKey, month, dayIndex, desc.ValueKey, value); err != nil {
		s.broker.PublishCacheEvent("reconcile", "trackers", trackerID+"/"+yearKey)
		return fmt.Errorf("update tracker cell %s/%s: %w", trackerID, yearKey, err)
	}
	s.broker.PublishCacheEvent("updated", "trackers", trackerID+"/"+yearKey)
	return nil
}

// HabitSettings returns the habit settings rows, seeded with the default
// template on first access by the gateway.
func (s *Service) HabitSettings(ctx context.Context, userID string) ([]models.HabitSetting, error) {
	if userID == "" {
		return nil, apperr.ErrNoUser
	}
	settings, err := s.gw.FetchHabitSettings(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch habit settings: %w", err)
	}
	return settings, nil
}

// UpdateHabitSettings validates and saves the full settings list.
func (s *Service) UpdateHabitSettings(ctx context.Context, userID string, habits []models.HabitSetting) error {
	if userID == "" {
		return apperr.ErrNoUser
	}
	if err := models.ValidateHabitSettings(habits); err != nil {
		return err
	}
	if err := s.gw.UpdateHabitSettings(ctx, userID, habits); err != nil {
		return fmt.Errorf("update habit settings: %w", err)
	}
	s.broker.PublishCacheEvent("updated", "settings", "habits")
	return nil
}

func enabledHabitIDs(settings []models.HabitSetting) []string {
	ids := make([]string, 0, len(settings))
	for _, h := range settings {
		if h.Enabled {
			ids = append(ids, h.ID)
		}
	}
	return ids
}

func parseYear(yearKey string) (int, error) {
	var year int
	if _, err := fmt.Sscanf(yearKey, "%d", &year); err != nil || year < 1970 || year > 9999 {
		return 0, fmt.Errorf("invalid year key %q", yearKey)
	}
	return year, nil
}

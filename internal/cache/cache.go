// Package cache implements the per-user domain caches and the sync
// metadata record on top of a cachestore.Provider.
//
// Reads never fail loudly: a store error or a corrupt JSON document is
// treated as a cache miss. Writes are best-effort: failures are logged and
// counted, never returned, because the remote store stays the source of
// truth. Callers that need hard durability guarantees do not get them here.
package cache

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/starford/daybook/internal/cachestore"
)

// SchemaVersion is the on-disk cache layout version. Bumping it clears
// every user's slots on the next Initialize.
const SchemaVersion = "1"

// Slot names. Empty-user slots hold the app-level markers.
const (
	slotVersion     = "version"
	slotCurrentUser = "currentUser"

	slotInitialLoadDone = "initialLoadDone"
	slotLastSync        = "lastSync"
	slotLastModified    = "lastModified"
	slotJournalEntries  = "journalEntries"
	slotHabitTracker    = "habitTracker"
	slotDailyMoments    = "dailyMoments"
	slotTrackers        = "trackers"
)

// Cache mediates all domain and metadata slot access for every user.
type Cache struct {
	store  cachestore.Provider
	logger *slog.Logger
	now    func() time.Time
}

// New creates a cache over the given store.
func New(store cachestore.Provider, logger *slog.Logger) *Cache {
	return &Cache{store: store, logger: logger, now: time.Now}
}

// SetClock replaces the time source. Tests use this to simulate date
// rollovers; production code never calls it.
func (c *Cache) SetClock(now func() time.Time) {
	c.now = now
}

// readJSON loads (userID, slot) into v. found is false on a miss; a
// corrupt document is logged and treated as a miss. err is non-nil only
// for store read failures. Read-modify-write callers must not write back
// after a read failure, or the follow-up write would replace the whole
// slot and drop every sibling entry.
func (c *Cache) readJSON(userID, slot string, v any) (found bool, err error) {
	data, err := c.store.Get(userID, slot)
	if err != nil {
		c.logger.Warn("cache: read failed", slog.String("slot", slot), slog.String("error", err.Error()))
		readMisses.WithLabelValues(slot).Inc()
		return false, err
	}
	if data == nil {
		readMisses.WithLabelValues(slot).Inc()
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		c.logger.Warn("cache: corrupt entry", slog.String("slot", slot), slog.String("error", err.Error()))
		readMisses.WithLabelValues(slot).Inc()
		return false, nil
	}
	readHits.WithLabelValues(slot).Inc()
	return true, nil
}

// writeJSON stores v under (userID, slot). Failures are logged, never
// propagated.
func (c *Cache) writeJSON(userID, slot string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn("cache: marshal failed", slog.String("slot", slot), slog.String("error", err.Error()))
		writeFailures.WithLabelValues(slot).Inc()
		return
	}
	if err := c.store.Set(userID, slot, data); err != nil {
		c.logger.Warn("cache: write failed", slog.String("slot", slot), slog.String("error", err.Error()))
		writeFailures.WithLabelValues(slot).Inc()
	}
}

// readString loads a plain-string marker, "" on miss.
func (c *Cache) readString(userID, slot string) string {
	data, err := c.store.Get(userID, slot)
	if err != nil {
		c.logger.Warn("cache: read failed", slog.String("slot", slot), slog.String("error", err.Error()))
		return ""
	}
	return string(data)
}

// writeString stores a plain-string marker.
func (c *Cache) writeString(userID, slot, value string) {
	if err := c.store.Set(userID, slot, []byte(value)); err != nil {
		c.logger.Warn("cache: write failed", slog.String("slot", slot), slog.String("error", err.Error()))
		writeFailures.WithLabelValues(slot).Inc()
	}
}

// readTime loads an RFC 3339 timestamp marker, nil on miss or bad value.
func (c *Cache) readTime(userID, slot string) *time.Time {
	raw := c.readString(userID, slot)
	if raw == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		c.logger.Warn("cache: bad timestamp", slog.String("slot", slot), slog.String("value", raw))
		return nil
	}
	return &t
}

func (c *Cache) writeTime(userID, slot string, t time.Time) {
	c.writeString(userID, slot, t.Format(time.RFC3339Nano))
}

package cache

import (
	"log/slog"
	"time"

	"github.com/starford/daybook/internal/dates"
)

// Reasons reported by Initialize.
const (
	ReasonVersion   = "version"
	ReasonNewUser   = "newUser"
	ReasonFirstTime = "firstTime"
	ReasonCached    = "cached"
)

// Decision is the result of Initialize: whether a full remote load is
// required and why.
type Decision struct {
	NeedsFullLoad bool   `json:"needs_full_load"`
	Reason        string `json:"reason"`
}

// refreshSlack absorbs clock and precision noise when comparing the remote
// watermark against the cached one.
const refreshSlack = time.Second

// Initialize prepares the cache for userID and decides whether a full
// remote load is needed.
//
// A schema version mismatch clears every user's slots. A different active
// user clears that user's slots before switching. Matching version and
// user keeps the existing cache. An entirely fresh store is a first run,
// not a version mismatch: there is nothing to clear yet.
func (c *Cache) Initialize(userID string) Decision {
	version := c.readString("", slotVersion)
	current := c.readString("", slotCurrentUser)

	if version == "" && current == "" {
		c.writeString("", slotVersion, SchemaVersion)
		c.writeString("", slotCurrentUser, userID)
		return Decision{NeedsFullLoad: true, Reason: ReasonFirstTime}
	}

	if version != SchemaVersion {
		if err := c.store.ClearAll(); err != nil {
			c.logger.Warn("cache: clear all failed", slog.String("error", err.Error()))
		}
		c.writeString("", slotVersion, SchemaVersion)
		c.writeString("", slotCurrentUser, userID)
		return Decision{NeedsFullLoad: true, Reason: ReasonVersion}
	}

	if current != "" && current != userID {
		if err := c.store.ClearUser(current); err != nil {
			c.logger.Warn("cache: clear user failed", slog.String("user", current), slog.String("error", err.Error()))
		}
		c.writeString("", slotCurrentUser, userID)
		return Decision{NeedsFullLoad: true, Reason: ReasonNewUser}
	}

	if current == "" {
		c.writeString("", slotCurrentUser, userID)
		return Decision{NeedsFullLoad: true, Reason: ReasonFirstTime}
	}

	return Decision{NeedsFullLoad: false, Reason: ReasonCached}
}

// ResetUser drops every slot belonging to userID. App-level markers
// (schema version, active user) stay in place. Used by force refresh.
func (c *Cache) ResetUser(userID string) {
	if err := c.store.ClearUser(userID); err != nil {
		c.logger.Warn("cache: reset user failed", slog.String("user", userID), slog.String("error", err.Error()))
	}
}

// ActiveUser returns the user the cache currently belongs to, "" when unset.
func (c *Cache) ActiveUser() string {
	return c.readString("", slotCurrentUser)
}

// InitialLoadDone reports whether a full load has completed for userID.
func (c *Cache) InitialLoadDone(userID string) bool {
	return c.readString(userID, slotInitialLoadDone) == "true"
}

// SetInitialLoadDone marks the full load complete and stamps lastSync.
func (c *Cache) SetInitialLoadDone(userID string) {
	c.writeString(userID, slotInitialLoadDone, "true")
	c.TouchLastSync(userID)
}

// LastSync returns the time of the last local sync, nil when never synced.
func (c *Cache) LastSync(userID string) *time.Time {
	return c.readTime(userID, slotLastSync)
}

// TouchLastSync stamps lastSync with the current time. Called after every
// remote round-trip.
func (c *Cache) TouchLastSync(userID string) {
	c.writeTime(userID, slotLastSync, c.now())
}

// LastModified returns the locally cached copy of the server watermark,
// nil when none has been stored yet.
func (c *Cache) LastModified(userID string) *time.Time {
	return c.readTime(userID, slotLastModified)
}

// SetLastModified stores the server watermark locally.
func (c *Cache) SetLastModified(userID string, t time.Time) {
	c.writeTime(userID, slotLastModified, t)
}

// NeedsRefresh reports whether the remote watermark indicates another
// device has written since this cache was filled.
//
// An absent remote watermark never triggers a reload: there is nothing to
// compare against and the caller will create the watermark on its next
// write. An absent local watermark does trigger one. Otherwise the remote
// must lead the local copy by more than refreshSlack.
func (c *Cache) NeedsRefresh(userID string, remote *time.Time) bool {
	if remote == nil {
		return false
	}
	local := c.LastModified(userID)
	if local == nil {
		return true
	}
	return remote.Sub(*local) > refreshSlack
}

// NeedsTodayFetch reports whether the last sync happened on an earlier
// calendar date than today.
func (c *Cache) NeedsTodayFetch(userID string) bool {
	last := c.LastSync(userID)
	if last == nil {
		return true
	}
	return !dates.SameCalendarDay(c.now(), *last)
}

// Package sync decides when the local cache is trustworthy and refills it
// from the remote store when it is not.
//
// CheckAndSync is the single entry point the app calls on startup and on
// the background schedule: it initializes the cache for the user, runs a
// full load when the cache cannot be trusted (schema change, user change,
// first run, or a newer remote watermark), and otherwise takes the cached
// fast path, topping up today's documents when the calendar date rolled
// over since the last sync.
package sync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/starford/daybook/internal/apperr"
	"github.com/starford/daybook/internal/cache"
	"github.com/starford/daybook/internal/dates"
	"github.com/starford/daybook/internal/models"
	"github.com/starford/daybook/internal/remote"
	"github.com/starford/daybook/internal/sse"
	"github.com/starford/daybook/internal/trackers"
)

// Full load progress steps, reported in this order.
const (
	StepJournal  = "journal"
	StepHabits   = "habits"
	StepMoments  = "moments"
	StepTrackers = "trackers"
	StepCaching  = "caching"
	StepComplete = "complete"
)

// ProgressFunc receives full-load progress: the step that just started
// (StepComplete when done) and a 0..100 percentage.
type ProgressFunc func(step string, percent int)

// DefaultMonthsWindow is how many recent months of habit and moment
// documents a full load pulls.
const DefaultMonthsWindow = 12

// Orchestrator coordinates full loads and cached fast paths.
type Orchestrator struct {
	cache  *cache.Cache
	gw     remote.Gateway
	broker *sse.Broker
	table  func() []trackers.Descriptor
	months int
	logger *slog.Logger
	now    func() time.Time
}

// New creates an orchestrator. table supplies the current tracker
// descriptors so hot reloads are picked up between syncs; months is the
// bulk-load window (DefaultMonthsWindow when <= 0).
func New(c *cache.Cache, gw remote.Gateway, broker *sse.Broker, table func() []trackers.Descriptor, months int, logger *slog.Logger) *Orchestrator {
	if months <= 0 {
		months = DefaultMonthsWindow
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		cache:  c,
		gw:     gw,
		broker: broker,
		table:  table,
		months: months,
		logger: logger,
		now:    time.Now,
	}
}

// CheckAndSync runs the startup decision for userID and returns the
// resulting sync status.
//
// Remote metadata errors on the cached path are logged and swallowed: a
// reachable cache beats an unreachable network, and the next scheduled
// check will retry.
func (o *Orchestrator) CheckAndSync(ctx context.Context, userID string) (models.SyncStatus, error) {
	if userID == "" {
		return models.SyncStatus{}, apperr.ErrNoUser
	}
	checksTotal.Inc()

	decision := o.cache.Initialize(userID)
	if decision.NeedsFullLoad || !o.cache.InitialLoadDone(userID) {
		reason := decision.Reason
		if !decision.NeedsFullLoad {
			// Cache says cached but the last full load never finished.
			reason = cache.ReasonFirstTime
		}
		o.logger.Info("sync: full load",
			slog.String("user", userID),
			slog.String("reason", reason))
		return o.fullLoad(ctx, userID, reason, nil)
	}

	remoteLM, err := o.gw.LastModified(ctx, userID)
	if err != nil {
		o.logger.Warn("sync: watermark check failed, staying cached",
			slog.String("user", userID),
			slog.String("error", err.Error()))
		return o.Status(userID), nil
	}

	if remoteLM == nil {
		// Existing user without a watermark: create it once so later
		// devices have something to compare against.
		stamped, err := o.gw.TouchLastModified(ctx, userID)
		if err != nil {
			o.logger.Warn("sync: watermark backfill failed",
				slog.String("user", userID),
				slog.String("error", err.Error()))
		} else {
			o.cache.SetLastModified(userID, stamped)
		}
	} else if o.cache.NeedsRefresh(userID, remoteLM) {
		o.logger.Info("sync: remote watermark leads local, reloading",
			slog.String("user", userID),
			slog.Time("remote", *remoteLM))
		return o.fullLoad(ctx, userID, "stale", nil)
	}

	if o.cache.NeedsTodayFetch(userID) {
		o.fetchToday(ctx, userID)
	}
	o.cache.TouchLastSync(userID)
	return o.Status(userID), nil
}

// PerformInitialLoad runs a full remote load, reporting progress through
// the callback. The cache decision is re-run first so the metadata
// transitions (version clear, user switch) still apply.
func (o *Orchestrator) PerformInitialLoad(ctx context.Context, userID string, progress ProgressFunc) (models.SyncStatus, error) {
	if userID == "" {
		return models.SyncStatus{}, apperr.ErrNoUser
	}
	decision := o.cache.Initialize(userID)
	return o.fullLoad(ctx, userID, decision.Reason, progress)
}

// ForceRefresh drops the user's cached documents and reloads everything.
func (o *Orchestrator) ForceRefresh(ctx context.Context, userID string, progress ProgressFunc) (models.SyncStatus, error) {
	if userID == "" {
		return models.SyncStatus{}, apperr.ErrNoUser
	}
	o.cache.Initialize(userID)
	o.cache.ResetUser(userID)
	return o.fullLoad(ctx, userID, "forced", progress)
}

// Status returns the user's current sync bookkeeping.
func (o *Orchestrator) Status(userID string) models.SyncStatus {
	return models.SyncStatus{
		InitialLoadDone: o.cache.InitialLoadDone(userID),
		NeedsTodayFetch: o.cache.NeedsTodayFetch(userID),
		LastSync:        o.cache.LastSync(userID),
		LastModified:    o.cache.LastModified(userID),
	}
}

// fullLoad pulls every domain in a fixed order and marks the load done.
// There is no rollback: a failure partway leaves whatever was cached and
// keeps initialLoadDone unset, so the next check retries from the top.
func (o *Orchestrator) fullLoad(ctx context.Context, userID, reason string, progress ProgressFunc) (models.SyncStatus, error) {
	start := o.now()
	fullLoadsTotal.WithLabelValues(reason).Inc()
	o.broker.PublishSyncEvent("started", map[string]string{"user": userID, "reason": reason})

	report := func(step string, percent int) {
		if progress != nil {
			progress(step, percent)
		}
	}

	fail := func(err error) (models.SyncStatus, error) {
		failuresTotal.Inc()
		o.broker.PublishSyncEvent("failed", map[string]string{"user": userID, "error": err.Error()})
		return o.Status(userID), err
	}

	report(StepJournal, 10)
	entries, err := o.gw.FetchJournalEntries(ctx, userID)
	if err != nil {
		return fail(fmt.Errorf("sync: load journal: %w", err))
	}
	o.cache.SetJournalEntries(userID, entries)

	window := dates.RecentMonths(o.now(), o.months)

	report(StepHabits, 35)
	for _, m := range window {
		key := dates.HabitMonthKey(m)
		month, err := o.gw.FetchHabitMonth(ctx, userID, key)
		if err != nil {
			return fail(fmt.Errorf("sync: load habit month %s: %w", key, err))
		}
		if month != nil {
			o.cache.SetHabitMonth(userID, key, month)
		}
	}

	report(StepMoments, 60)
	for _, m := range window {
		key := dates.MomentsMonthKey(m)
		month, err := o.gw.FetchMomentsMonth(ctx, userID, key)
		if err != nil {
			return fail(fmt.Errorf("sync: load moments %s: %w", key, err))
		}
		if month == nil {
			month = models.MomentsMonth{}
		}
		o.cache.SetMomentsMonth(userID, key, month)
	}

	report(StepTrackers, 80)
	year := o.now().Year()
	yearKey := dates.YearKey(o.now())
	for _, desc := range o.table() {
		raw, found, err := o.gw.FetchTrackerYear(ctx, userID, desc.ID, yearKey)
		if err != nil {
			return fail(fmt.Errorf("sync: load tracker %s/%s: %w", desc.ID, yearKey, err))
		}
		if !found {
			continue
		}
		o.cache.SetTrackerYear(userID, desc.ID, yearKey, trackers.NormalizeYear(raw, year))
	}

	report(StepCaching, 95)
	remoteLM, err := o.gw.LastModified(ctx, userID)
	if err != nil {
		return fail(fmt.Errorf("sync: load watermark: %w", err))
	}
	if remoteLM == nil {
		stamped, err := o.gw.TouchLastModified(ctx, userID)
		if err != nil {
			return fail(fmt.Errorf("sync: create watermark: %w", err))
		}
		remoteLM = &stamped
	}
	o.cache.SetLastModified(userID, *remoteLM)
	o.cache.SetInitialLoadDone(userID)

	report(StepComplete, 100)
	elapsed := o.now().Sub(start)
	fullLoadSeconds.Observe(elapsed.Seconds())
	o.broker.PublishSyncEvent("completed", map[string]string{"user": userID, "reason": reason})
	o.logger.Info("sync: full load complete",
		slog.String("user", userID),
		slog.String("reason", reason),
		slog.Duration("elapsed", elapsed))
	return o.Status(userID), nil
}

// fetchToday refreshes the current habit month and moments month so the
// UI has rows for today after a date rollover. Failures keep yesterday's
// cache and log.
func (o *Orchestrator) fetchToday(ctx context.Context, userID string) {
	now := o.now()

	habitKey := dates.HabitMonthKey(now)
	if month, err := o.gw.FetchHabitMonth(ctx, userID, habitKey); err != nil {
		o.logger.Warn("sync: today habit fetch failed",
			slog.String("user", userID), slog.String("error", err.Error()))
	} else if month != nil {
		o.cache.SetHabitMonth(userID, habitKey, month)
	}

	momentsKey := dates.MomentsMonthKey(now)
	if month, err := o.gw.FetchMomentsMonth(ctx, userID, momentsKey); err != nil {
		o.logger.Warn("sync: today moments fetch failed",
			slog.String("user", userID), slog.String("error", err.Error()))
	} else {
		if month == nil {
			month = models.MomentsMonth{}
		}
		o.cache.SetMomentsMonth(userID, momentsKey, month)
	}
}

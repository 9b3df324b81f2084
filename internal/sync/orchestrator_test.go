package sync

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/starford/daybook/internal/cache"
	"github.com/starford/daybook/internal/cachestore"
	"github.com/starford/daybook/internal/models"
	"github.com/starford/daybook/internal/remote"
	"github.com/starford/daybook/internal/sse"
	"github.com/starford/daybook/internal/trackers"
)

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

// device is one simulated app instance: its own cache over its own store,
// sharing the remote gateway with other devices.
type device struct {
	orch  *Orchestrator
	cache *cache.Cache
}

func newDevice(t *testing.T, gw *remote.Memory, clock func() time.Time) *device {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(testWriter{t}, nil))
	c := cache.New(cachestore.NewMemory(), logger)
	broker := sse.NewBroker(time.Hour)
	t.Cleanup(broker.Close)
	o := New(c, gw, broker, trackers.Defaults, 3, logger)
	if clock != nil {
		o.now = clock
		c.SetClock(clock)
	}
	return &device{orch: o, cache: c}
}

func TestFirstTimeFullLoad(t *testing.T) {
	gw := remote.NewMemory()
	ctx := context.Background()

	if _, err := gw.AddJournalEntry(ctx, "u1", models.JournalEntry{Content: "hello", Timestamp: time.Now()}); err != nil {
		t.Fatal(err)
	}

	d := newDevice(t, gw, nil)
	var steps []string
	status, err := d.orch.PerformInitialLoad(ctx, "u1", func(step string, percent int) {
		steps = append(steps, step)
	})
	if err != nil {
		t.Fatalf("initial load: %v", err)
	}
	if !status.InitialLoadDone {
		t.Fatal("initial load should be marked done")
	}
	if status.LastSync == nil || status.LastModified == nil {
		t.Fatalf("expected watermarks stamped: %+v", status)
	}

	want := []string{StepJournal, StepHabits, StepMoments, StepTrackers, StepCaching, StepComplete}
	if len(steps) != len(want) {
		t.Fatalf("steps = %v, want %v", steps, want)
	}
	for i := range want {
		if steps[i] != want[i] {
			t.Fatalf("step %d = %s, want %s", i, steps[i], want[i])
		}
	}

	entries := d.cache.JournalEntries("u1")
	if len(entries) != 1 || entries[0].Content != "hello" {
		t.Fatalf("journal not cached: %+v", entries)
	}
}

func TestCheckAndSyncCachedFastPath(t *testing.T) {
	gw := remote.NewMemory()
	ctx := context.Background()
	d := newDevice(t, gw, nil)

	if _, err := d.orch.CheckAndSync(ctx, "u1"); err != nil {
		t.Fatalf("first check: %v", err)
	}

	// Second check must not need the network for documents: break the
	// gateway except for metadata by leaving it alone and verifying the
	// decision stays cached.
	status, err := d.orch.CheckAndSync(ctx, "u1")
	if err != nil {
		t.Fatalf("second check: %v", err)
	}
	if !status.InitialLoadDone {
		t.Fatal("expected cached fast path")
	}
}

func TestCheckAndSyncSwallowsMetadataErrors(t *testing.T) {
	gw := remote.NewMemory()
	ctx := context.Background()
	d := newDevice(t, gw, nil)

	if _, err := d.orch.CheckAndSync(ctx, "u1"); err != nil {
		t.Fatalf("first check: %v", err)
	}

	gw.FailWith = errors.New("network down")
	status, err := d.orch.CheckAndSync(ctx, "u1")
	if err != nil {
		t.Fatalf("cached path must survive a metadata error: %v", err)
	}
	if !status.InitialLoadDone {
		t.Fatal("cache should still be trusted")
	}
}

func TestCrossDeviceStalenessTriggersReload(t *testing.T) {
	current := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return current }

	gw := remote.NewMemory()
	gw.Clock = clock
	ctx := context.Background()

	a := newDevice(t, gw, clock)
	b := newDevice(t, gw, clock)

	if _, err := a.orch.CheckAndSync(ctx, "u1"); err != nil {
		t.Fatalf("device a: %v", err)
	}
	if _, err := b.orch.CheckAndSync(ctx, "u1"); err != nil {
		t.Fatalf("device b: %v", err)
	}

	// Device B writes an entry; the gateway stamps the watermark with a
	// later clock.
	current = current.Add(5 * time.Second)
	if _, err := gw.AddJournalEntry(ctx, "u1", models.JournalEntry{Content: "from b", Timestamp: current}); err != nil {
		t.Fatal(err)
	}

	status, err := a.orch.CheckAndSync(ctx, "u1")
	if err != nil {
		t.Fatalf("device a resync: %v", err)
	}
	if !status.InitialLoadDone {
		t.Fatal("reload should complete")
	}
	entries := a.cache.JournalEntries("u1")
	if len(entries) != 1 || entries[0].Content != "from b" {
		t.Fatalf("device a did not pick up b's write: %+v", entries)
	}
}

func TestWatermarkWithinSlackStaysCached(t *testing.T) {
	current := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return current }

	gw := remote.NewMemory()
	gw.Clock = clock
	ctx := context.Background()

	d := newDevice(t, gw, clock)
	if _, err := d.orch.CheckAndSync(ctx, "u1"); err != nil {
		t.Fatal(err)
	}

	// A write 500ms later is within the slack window.
	current = current.Add(500 * time.Millisecond)
	if _, err := gw.TouchLastModified(ctx, "u1"); err != nil {
		t.Fatal(err)
	}
	before := d.cache.JournalEntries("u1")
	d.cache.SetJournalEntries("u1", append(before, models.JournalEntry{ID: "localmark", Content: "sentinel"}))

	if _, err := d.orch.CheckAndSync(ctx, "u1"); err != nil {
		t.Fatal(err)
	}
	// A reload would have replaced the sentinel with the remote list.
	after := d.cache.JournalEntries("u1")
	found := false
	for _, e := range after {
		if e.ID == "localmark" {
			found = true
		}
	}
	if !found {
		t.Fatal("within-slack watermark must not trigger a reload")
	}
}

func TestUserSwitchClearsAndReloads(t *testing.T) {
	gw := remote.NewMemory()
	ctx := context.Background()
	d := newDevice(t, gw, nil)

	if _, err := gw.AddJournalEntry(ctx, "alice", models.JournalEntry{Content: "alice's", Timestamp: time.Now()}); err != nil {
		t.Fatal(err)
	}
	if _, err := d.orch.CheckAndSync(ctx, "alice"); err != nil {
		t.Fatal(err)
	}

	if _, err := d.orch.CheckAndSync(ctx, "bob"); err != nil {
		t.Fatal(err)
	}
	if got := d.cache.JournalEntries("alice"); len(got) != 0 {
		t.Fatalf("alice's slots should be gone after switch: %+v", got)
	}
	if got := d.cache.ActiveUser(); got != "bob" {
		t.Fatalf("active user = %q, want bob", got)
	}
}

func TestForceRefreshDropsLocalEdits(t *testing.T) {
	gw := remote.NewMemory()
	ctx := context.Background()
	d := newDevice(t, gw, nil)

	if _, err := d.orch.CheckAndSync(ctx, "u1"); err != nil {
		t.Fatal(err)
	}
	// Local-only garbage that never reached the gateway.
	d.cache.SetJournalEntries("u1", []models.JournalEntry{{ID: "ghost", Content: "never synced"}})

	status, err := d.orch.ForceRefresh(ctx, "u1", nil)
	if err != nil {
		t.Fatalf("force refresh: %v", err)
	}
	if !status.InitialLoadDone {
		t.Fatal("refresh should complete")
	}
	if got := d.cache.JournalEntries("u1"); len(got) != 0 {
		t.Fatalf("ghost entry survived refresh: %+v", got)
	}
}

func TestFullLoadFailureLeavesLoadIncomplete(t *testing.T) {
	gw := remote.NewMemory()
	gw.FailWith = errors.New("remote down")
	ctx := context.Background()
	d := newDevice(t, gw, nil)

	if _, err := d.orch.CheckAndSync(ctx, "u1"); err == nil {
		t.Fatal("expected full load to fail")
	}
	if d.cache.InitialLoadDone("u1") {
		t.Fatal("failed load must not mark initialLoadDone")
	}

	// Recovery: gateway comes back, next check retries the full load.
	gw.FailWith = nil
	status, err := d.orch.CheckAndSync(ctx, "u1")
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if !status.InitialLoadDone {
		t.Fatal("retry should complete the load")
	}
}

func TestTodayFetchAfterDateRollover(t *testing.T) {
	current := time.Date(2026, 8, 30, 23, 0, 0, 0, time.UTC)
	clock := func() time.Time { return current }

	gw := remote.NewMemory()
	gw.Clock = clock
	ctx := context.Background()
	d := newDevice(t, gw, clock)

	if _, err := d.orch.CheckAndSync(ctx, "u1"); err != nil {
		t.Fatal(err)
	}

	// Another device saves a moment for the 31st overnight.
	if err := gw.SaveMoment(ctx, "u1", "2026-8", 31, "midnight walk", time.Date(2026, 8, 31, 0, 30, 0, 0, time.UTC)); err != nil {
		t.Fatal(err)
	}

	// Within-slack watermark, but the calendar date rolled over; clear the
	// local watermark gap by re-stamping local to match remote.
	lm, _ := gw.LastModified(ctx, "u1")
	d.cache.SetLastModified("u1", *lm)

	current = time.Date(2026, 8, 31, 8, 0, 0, 0, time.UTC)
	if _, err := d.orch.CheckAndSync(ctx, "u1"); err != nil {
		t.Fatal(err)
	}
	month := d.cache.MomentsMonth("u1", "2026-8")
	if month[31] != "midnight walk" {
		t.Fatalf("today fetch missed the new moment: %+v", month)
	}

	status := d.orch.Status("u1")
	if status.NeedsTodayFetch {
		t.Fatal("lastSync should be stamped today after the check")
	}
}

func TestRunScheduleRejectsBadCron(t *testing.T) {
	gw := remote.NewMemory()
	d := newDevice(t, gw, nil)
	if err := d.orch.RunSchedule(context.Background(), "not a cron"); err == nil {
		t.Fatal("expected invalid cron error")
	}
}

func TestRunScheduleDisabledOnEmptyCron(t *testing.T) {
	gw := remote.NewMemory()
	d := newDevice(t, gw, nil)
	if err := d.orch.RunSchedule(context.Background(), ""); err != nil {
		t.Fatalf("empty cron should be a no-op: %v", err)
	}
}

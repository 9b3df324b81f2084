package cache

import (
	"log/slog"
	"strconv"

	"github.com/starford/daybook/internal/models"
	"github.com/starford/daybook/internal/trackers"
)

// trackersDoc is the stored shape: trackerID → yearKey → raw year
// document. Year documents are kept raw so legacy shapes survive until
// read, where normalization reconciles them.
type trackersDoc map[string]map[string]any

// TrackerYear returns the cached, normalized year document for
// (trackerID, yearKey), or nil on a miss.
func (c *Cache) TrackerYear(userID, trackerID, yearKey string) models.TrackerYear {
	year, ok := parseYearKey(c, yearKey)
	if !ok {
		return nil
	}
	doc := make(trackersDoc)
	if found, _ := c.readJSON(userID, slotTrackers, &doc); !found {
		return nil
	}
	raw, ok := doc[trackerID][yearKey]
	if !ok {
		return nil
	}
	return trackers.NormalizeYear(raw, year)
}

// SetTrackerYear replaces one (trackerID, yearKey) document, normalizing
// it on the way in.
func (c *Cache) SetTrackerYear(userID, trackerID, yearKey string, data models.TrackerYear) {
	year, ok := parseYearKey(c, yearKey)
	if !ok {
		return
	}
	doc := make(trackersDoc)
	if _, err := c.readJSON(userID, slotTrackers, &doc); err != nil {
		return
	}
	if doc[trackerID] == nil {
		doc[trackerID] = make(map[string]any)
	}
	doc[trackerID][yearKey] = trackers.NormalizeYear(data, year)
	c.writeJSON(userID, slotTrackers, doc)
}

// SetTrackerCell sets one value key on one day cell, seeding the year when
// absent and preserving every other cell.
func (c *Cache) SetTrackerCell(userID, trackerID, yearKey string, month, dayIndex int, valueKey string, value any) {
	year, ok := parseYearKey(c, yearKey)
	if !ok {
		return
	}
	if month < 1 || month > 12 {
		c.logger.Warn("cache: tracker month out of range", slog.Int("month", month))
		return
	}

	doc := make(trackersDoc)
	if _, err := c.readJSON(userID, slotTrackers, &doc); err != nil {
		return
	}

	var normalized models.TrackerYear
	if raw, ok := doc[trackerID][yearKey]; ok {
		normalized = trackers.NormalizeYear(raw, year)
	} else {
		normalized = trackers.EmptyYear(year)
	}

	cells := normalized[month]
	if dayIndex < 0 || dayIndex >= len(cells) {
		c.logger.Warn("cache: tracker day out of range",
			slog.String("tracker", trackerID), slog.Int("month", month), slog.Int("day_index", dayIndex))
		return
	}
	if cells[dayIndex] == nil {
		cells[dayIndex] = models.TrackerCell{}
	}
	cells[dayIndex][valueKey] = value

	if doc[trackerID] == nil {
		doc[trackerID] = make(map[string]any)
	}
	doc[trackerID][yearKey] = normalized
	c.writeJSON(userID, slotTrackers, doc)
}

func parseYearKey(c *Cache, yearKey string) (int, bool) {
	year, err := strconv.Atoi(yearKey)
	if err != nil {
		c.logger.Warn("cache: bad year key", slog.String("year_key", yearKey))
		return 0, false
	}
	return year, true
}

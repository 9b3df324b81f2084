package trackers

import (
	"strconv"

	"github.com/starford/daybook/internal/dates"
	"github.com/starford/daybook/internal/models"
)

// EmptyYear returns a year document with every month seeded to its
// leap-correct day count and every cell nil.
func EmptyYear(year int) models.TrackerYear {
	doc := make(models.TrackerYear, 12)
	for m := 1; m <= 12; m++ {
		doc[m] = make([]models.TrackerCell, dates.DaysInMonth(year, m))
	}
	return doc
}

// NormalizeYear reconciles a raw year document into the canonical dense
// form: months 1..12, each a slice of exactly that month's day count for
// the given year, each element either nil or a cell map.
//
// Earlier deployments stored months either as arrays or as objects keyed
// by stringified day index, and month lengths drifted when documents were
// seeded in a different year. Both shapes are accepted. Normalizing an
// already-canonical document returns an equal document.
func NormalizeYear(raw any, year int) models.TrackerYear {
	doc := make(models.TrackerYear, 12)
	for m := 1; m <= 12; m++ {
		doc[m] = normalizeMonth(monthValue(raw, m), dates.DaysInMonth(year, m))
	}
	return doc
}

// monthValue extracts month m from whichever container shape raw has.
func monthValue(raw any, m int) any {
	switch v := raw.(type) {
	case nil:
		return nil
	case models.TrackerYear:
		return v[m]
	case map[int][]models.TrackerCell:
		return v[m]
	case map[string]any:
		return v[strconv.Itoa(m)]
	default:
		return nil
	}
}

// normalizeMonth produces a dense cell slice of exactly days elements.
func normalizeMonth(raw any, days int) []models.TrackerCell {
	out := make([]models.TrackerCell, days)
	switch v := raw.(type) {
	case nil:
	case []models.TrackerCell:
		for i := 0; i < len(v) && i < days; i++ {
			out[i] = normalizeCell(v[i])
		}
	case []any:
		for i := 0; i < len(v) && i < days; i++ {
			out[i] = normalizeCell(v[i])
		}
	case map[string]any:
		// Legacy object-keyed-by-index shape.
		for k, cell := range v {
			i, err := strconv.Atoi(k)
			if err != nil || i < 0 || i >= days {
				continue
			}
			out[i] = normalizeCell(cell)
		}
	}
	return out
}

// normalizeCell keeps cell maps and drops anything else.
func normalizeCell(raw any) models.TrackerCell {
	switch v := raw.(type) {
	case models.TrackerCell:
		if len(v) == 0 {
			return nil
		}
		return v
	case map[string]any:
		if len(v) == 0 {
			return nil
		}
		return models.TrackerCell(v)
	default:
		return nil
	}
}

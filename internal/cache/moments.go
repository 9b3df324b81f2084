package cache

import "github.com/starford/daybook/internal/models"

// MomentsMonth returns the cached daily moments for monthKey, or nil on a
// miss. The month is sparse: days without a moment have no entry.
func (c *Cache) MomentsMonth(userID, monthKey string) models.MomentsMonth {
	months := make(map[string]models.MomentsMonth)
	if found, _ := c.readJSON(userID, slotDailyMoments, &months); !found {
		return nil
	}
	return months[monthKey]
}

// SetMomentsMonth replaces one month inside the daily moments document.
// A store read failure skips the write so sibling months survive.
func (c *Cache) SetMomentsMonth(userID, monthKey string, month models.MomentsMonth) {
	months := make(map[string]models.MomentsMonth)
	if _, err := c.readJSON(userID, slotDailyMoments, &months); err != nil {
		return
	}
	months[monthKey] = month
	c.writeJSON(userID, slotDailyMoments, months)
}

// SetMoment sets one day's moment, creating the month container when
// missing.
func (c *Cache) SetMoment(userID, monthKey string, day int, moment string) {
	months := make(map[string]models.MomentsMonth)
	if _, err := c.readJSON(userID, slotDailyMoments, &months); err != nil {
		return
	}
	month := months[monthKey]
	if month == nil {
		month = models.MomentsMonth{}
		months[monthKey] = month
	}
	month[day] = moment
	c.writeJSON(userID, slotDailyMoments, months)
}

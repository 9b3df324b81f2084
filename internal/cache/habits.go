package cache

import "github.com/starford/daybook/internal/models"

// HabitMonth returns the cached habit month for monthKey, or nil on a miss.
func (c *Cache) HabitMonth(userID, monthKey string) models.HabitMonth {
	months := make(map[string]models.HabitMonth)
	if found, _ := c.readJSON(userID, slotHabitTracker, &months); !found {
		return nil
	}
	return months[monthKey]
}

// SetHabitMonth replaces one month inside the habit tracker document,
// leaving other months untouched. A store read failure skips the write so
// sibling months are not replaced with an empty document.
func (c *Cache) SetHabitMonth(userID, monthKey string, month models.HabitMonth) {
	months := make(map[string]models.HabitMonth)
	if _, err := c.readJSON(userID, slotHabitTracker, &months); err != nil {
		return
	}
	months[monthKey] = month
	c.writeJSON(userID, slotHabitTracker, months)
}

// SetHabitCell sets one habit's completion for one day, creating the month
// and day containers when missing and preserving sibling entries.
func (c *Cache) SetHabitCell(userID, monthKey string, day int, habitID string, done bool) {
	months := make(map[string]models.HabitMonth)
	if _, err := c.readJSON(userID, slotHabitTracker, &months); err != nil {
		return
	}
	month := months[monthKey]
	if month == nil {
		month = models.HabitMonth{}
		months[monthKey] = month
	}
	if month[day] == nil {
		month[day] = map[string]bool{}
	}
	month[day][habitID] = done
	c.writeJSON(userID, slotHabitTracker, months)
}

package cache

import (
	"sort"

	"github.com/starford/daybook/internal/models"
)

// JournalEntries returns the cached journal list ordered newest first, or
// nil on a miss.
func (c *Cache) JournalEntries(userID string) []models.JournalEntry {
	var entries []models.JournalEntry
	if found, _ := c.readJSON(userID, slotJournalEntries, &entries); !found {
		return nil
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
	return entries
}

// SetJournalEntries replaces the cached journal list.
func (c *Cache) SetJournalEntries(userID string, entries []models.JournalEntry) {
	if entries == nil {
		entries = []models.JournalEntry{}
	}
	c.writeJSON(userID, slotJournalEntries, entries)
}

// AddJournalEntry prepends a new entry to the cached list. A store read
// failure skips the write so the existing list is not replaced.
func (c *Cache) AddJournalEntry(userID string, entry models.JournalEntry) {
	var entries []models.JournalEntry
	if _, err := c.readJSON(userID, slotJournalEntries, &entries); err != nil {
		return
	}
	entries = append([]models.JournalEntry{entry}, entries...)
	c.writeJSON(userID, slotJournalEntries, entries)
}

// UpdateJournalEntry merges upd into the entry with the given id. A
// missing id is a no-op.
func (c *Cache) UpdateJournalEntry(userID, id string, upd models.JournalUpdate) {
	var entries []models.JournalEntry
	if found, err := c.readJSON(userID, slotJournalEntries, &entries); !found || err != nil {
		return
	}
	for i := range entries {
		if entries[i].ID != id {
			continue
		}
		if upd.Content != nil {
			entries[i].Content = *upd.Content
		}
		if upd.Timestamp != nil {
			entries[i].Timestamp = *upd.Timestamp
		}
		c.writeJSON(userID, slotJournalEntries, entries)
		return
	}
}

// DeleteJournalEntry removes the entry with the given id from the cache.
func (c *Cache) DeleteJournalEntry(userID, id string) {
	var entries []models.JournalEntry
	if found, err := c.readJSON(userID, slotJournalEntries, &entries); !found || err != nil {
		return
	}
	filtered := entries[:0]
	for _, e := range entries {
		if e.ID != id {
			filtered = append(filtered, e)
		}
	}
	c.writeJSON(userID, slotJournalEntries, filtered)
}

// Package cachestore defines the durable keyed slot store that backs the
// per-user domain caches.
//
// Keys are namespaced as "daybook:<userID>:<slot>" so that a prefix scan
// can clear one user or the whole namespace. Values are opaque bytes; the
// cache layer above stores JSON documents in them. A missing key is not an
// error: Get returns (nil, nil).
package cachestore

import "strings"

// KeyPrefix namespaces every daybook key in the store.
const KeyPrefix = "daybook:"

// Provider is the interface for keyed slot persistence.
type Provider interface {
	// Get returns the value stored for (userID, slot), or nil when absent.
	Get(userID, slot string) ([]byte, error)
	// Set stores value under (userID, slot), replacing any previous value.
	Set(userID, slot string, value []byte) error
	// Delete removes (userID, slot). Deleting an absent key is not an error.
	Delete(userID, slot string) error
	// ClearUser removes every slot belonging to userID.
	ClearUser(userID string) error
	// ClearAll removes every daybook key, all users included.
	ClearAll() error
	Close() error
}

// Key builds the namespaced store key for (userID, slot). An empty userID
// addresses the app-level markers (schema version, active user).
func Key(userID, slot string) string {
	return KeyPrefix + userID + ":" + slot
}

// UserPrefix returns the key prefix covering every slot of userID.
func UserPrefix(userID string) string {
	return KeyPrefix + userID + ":"
}

// SplitKey returns the (userID, slot) encoded in a store key, with
// ok=false for keys outside the daybook namespace.
func SplitKey(key string) (userID, slot string, ok bool) {
	rest, found := strings.CutPrefix(key, KeyPrefix)
	if !found {
		return "", "", false
	}
	userID, slot, found = strings.Cut(rest, ":")
	if !found {
		return "", "", false
	}
	return userID, slot, true
}

package cachestore

import (
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
)

// Pebble implements Provider backed by a Pebble key-value store. Prefix
// range deletes make ClearUser and ClearAll cheap, which suits
// installations with many users or very large tracker histories.
type Pebble struct {
	db *pebble.DB
}

// OpenPebble opens (or creates) a Pebble database at path.
func OpenPebble(path string) (*Pebble, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("cachestore: open pebble: %w", err)
	}
	return &Pebble{db: db}, nil
}

// Get returns the value for (userID, slot), or nil when absent.
func (p *Pebble) Get(userID, slot string) ([]byte, error) {
	value, closer, err := p.db.Get([]byte(Key(userID, slot)))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cachestore: get: %w", err)
	}
	out := make([]byte, len(value))
	copy(out, value)
	if err := closer.Close(); err != nil {
		return nil, fmt.Errorf("cachestore: get close: %w", err)
	}
	return out, nil
}

// Set stores value under (userID, slot).
func (p *Pebble) Set(userID, slot string, value []byte) error {
	if err := p.db.Set([]byte(Key(userID, slot)), value, pebble.Sync); err != nil {
		return fmt.Errorf("cachestore: set: %w", err)
	}
	return nil
}

// Delete removes (userID, slot).
func (p *Pebble) Delete(userID, slot string) error {
	if err := p.db.Delete([]byte(Key(userID, slot)), pebble.Sync); err != nil {
		return fmt.Errorf("cachestore: delete: %w", err)
	}
	return nil
}

// ClearUser removes every slot belonging to userID.
func (p *Pebble) ClearUser(userID string) error {
	return p.clearPrefix([]byte(UserPrefix(userID)))
}

// ClearAll removes every daybook key.
func (p *Pebble) ClearAll() error {
	return p.clearPrefix([]byte(KeyPrefix))
}

func (p *Pebble) clearPrefix(prefix []byte) error {
	if err := p.db.DeleteRange(prefix, prefixUpperBound(prefix), pebble.Sync); err != nil {
		return fmt.Errorf("cachestore: clear %q: %w", prefix, err)
	}
	return nil
}

// prefixUpperBound returns the smallest key greater than every key with
// the given prefix.
func prefixUpperBound(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}

// Close closes the underlying database.
func (p *Pebble) Close() error {
	return p.db.Close()
}

var _ Provider = (*Pebble)(nil)

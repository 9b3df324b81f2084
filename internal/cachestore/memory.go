package cachestore

import (
	"strings"
	"sync"
)

// Memory implements Provider with an in-process map. Used by tests and
// throwaway dev runs; nothing survives a restart.
type Memory struct {
	mu    sync.RWMutex
	slots map[string][]byte
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{slots: make(map[string][]byte)}
}

// Get returns the value for (userID, slot), or nil when absent.
func (m *Memory) Get(userID, slot string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.slots[Key(userID, slot)]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

// Set stores value under (userID, slot).
func (m *Memory) Set(userID, slot string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := make([]byte, len(value))
	copy(stored, value)
	m.slots[Key(userID, slot)] = stored
	return nil
}

// Delete removes (userID, slot).
func (m *Memory) Delete(userID, slot string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.slots, Key(userID, slot))
	return nil
}

// ClearUser removes every slot belonging to userID.
func (m *Memory) ClearUser(userID string) error {
	return m.clearPrefix(UserPrefix(userID))
}

// ClearAll removes every daybook key.
func (m *Memory) ClearAll() error {
	return m.clearPrefix(KeyPrefix)
}

func (m *Memory) clearPrefix(prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.slots {
		if strings.HasPrefix(k, prefix) {
			delete(m.slots, k)
		}
	}
	return nil
}

// Close is a no-op.
func (m *Memory) Close() error {
	return nil
}

var _ Provider = (*Memory)(nil)

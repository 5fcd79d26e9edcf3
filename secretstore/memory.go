package secretstore

import (
	"context"
	"sync"
)

// Memory is an in-process Store. Values do not survive a restart.
type Memory struct {
	mu     sync.RWMutex
	values map[Slot]string
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{values: make(map[Slot]string)}
}

// Set stores value under slot.
func (m *Memory) Set(ctx context.Context, slot Slot, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[slot] = value
	return nil
}

// Get returns the value stored under slot.
func (m *Memory) Get(ctx context.Context, slot Slot) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.values[slot]
	return value, ok, nil
}

// Clear removes the given slots. Missing slots are ignored.
func (m *Memory) Clear(ctx context.Context, slots ...Slot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, slot := range slots {
		delete(m.values, slot)
	}
	return nil
}

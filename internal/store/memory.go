package store

import (
	"sync"

	"voxstream/internal/world"
)

// Memory keeps chunks in a map. Loads and saves copy the voxel slice, so
// callers never alias stored data.
type Memory struct {
	mu     sync.RWMutex
	chunks map[world.Region][]world.Material
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{chunks: make(map[world.Region][]world.Material)}
}

func (m *Memory) Load(r world.Region) ([]world.Material, bool, error) {
	m.mu.RLock()
	data, ok := m.chunks[r]
	m.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	dup := make([]world.Material, len(data))
	copy(dup, data)
	return dup, true, nil
}

func (m *Memory) Save(r world.Region, data []world.Material) error {
	dup := make([]world.Material, len(data))
	copy(dup, data)
	m.mu.Lock()
	m.chunks[r] = dup
	m.mu.Unlock()
	return nil
}

// Len returns the number of stored chunks.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.chunks)
}

func (m *Memory) Close() error {
	return nil
}

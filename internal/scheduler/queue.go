package scheduler

import (
	"sync"

	"voxstream/internal/meshing"
	"voxstream/internal/world"
)

// Item is a finished extraction waiting to be consumed.
type Item struct {
	Tile world.ChunkCoord
	Mesh *meshing.Mesh
}

// resultQueue is a FIFO of finished items guarded by its own lock, so a
// consumer popping results never waits on extraction work.
type resultQueue struct {
	mu    sync.RWMutex
	items []Item
	head  int
}

func (q *resultQueue) push(it Item) {
	q.mu.Lock()
	q.items = append(q.items, it)
	q.mu.Unlock()
}

func (q *resultQueue) pop() (Item, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.head == len(q.items) {
		return Item{}, false
	}
	it := q.items[q.head]
	q.items[q.head] = Item{}
	q.head++
	// Compact once the consumed prefix dominates.
	if q.head == len(q.items) {
		q.items, q.head = q.items[:0], 0
	} else if q.head > 64 && q.head*2 > len(q.items) {
		n := copy(q.items, q.items[q.head:])
		q.items, q.head = q.items[:n], 0
	}
	return it, true
}

func (q *resultQueue) len() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.items) - q.head
}

func (q *resultQueue) clear() {
	q.mu.Lock()
	q.items, q.head = nil, 0
	q.mu.Unlock()
}

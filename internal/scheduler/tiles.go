package scheduler

import (
	"sync"

	"voxstream/internal/world"

	"github.com/brentp/intintmap"
)

// TileState is the lifecycle stage of a scheduled tile. Tiles not present in
// the set are unscheduled.
type TileState uint8

const (
	TileUnscheduled TileState = iota
	TilePending
	TileExtracting
	TileReady
	TileConsumed
)

var tileStateNames = [...]string{"unscheduled", "pending", "extracting", "ready", "consumed"}

func (s TileState) String() string {
	if int(s) < len(tileStateNames) {
		return tileStateNames[s]
	}
	return "unknown"
}

// releaseOnPop marks an in-flight tile whose re-extraction was allowed before
// its result was popped.
const releaseOnPop = 0x80

const (
	tileBits = 21
	tileMask = 1<<tileBits - 1
	tileMin  = -(1 << (tileBits - 1))
	tileMax  = 1<<(tileBits-1) - 1
)

// packTile folds a tile coordinate into one int64 key. Each axis must fit in
// 21 signed bits.
func packTile(c world.ChunkCoord) (int64, bool) {
	for _, v := range [3]int{c.X, c.Y, c.Z} {
		if v < tileMin || v > tileMax {
			return 0, false
		}
	}
	return int64(c.X&tileMask)<<(2*tileBits) | int64(c.Y&tileMask)<<tileBits | int64(c.Z&tileMask), true
}

func unpackTile(k int64) world.ChunkCoord {
	axis := func(v int64) int {
		v &= tileMask
		if v > tileMax {
			v -= 1 << tileBits
		}
		return int(v)
	}
	return world.ChunkCoord{X: axis(k >> (2 * tileBits)), Y: axis(k >> tileBits), Z: axis(k)}
}

// tileSet is the dedup set of scheduled tiles. Its lock is never held while
// taking the world mutex.
type tileSet struct {
	mu sync.Mutex
	m  *intintmap.Map
}

func newTileSet() *tileSet {
	return &tileSet{m: intintmap.New(1024, 0.6)}
}

// insert adds key as pending. It returns false when key is already present.
func (s *tileSet) insert(key int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.m.Get(key); ok {
		return false
	}
	s.m.Put(key, int64(TilePending))
	return true
}

// advance moves a present key to state, keeping its release flag.
func (s *tileSet) advance(key int64, state TileState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.m.Get(key); ok {
		s.m.Put(key, v&releaseOnPop|int64(state))
	}
}

func (s *tileSet) state(key int64) TileState {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.m.Get(key)
	if !ok {
		return TileUnscheduled
	}
	return TileState(v &^ releaseOnPop)
}

// remove drops key, making the tile schedulable again. intintmap counts a
// delete of the free key 0 even when it is absent, so presence is checked.
func (s *tileSet) remove(key int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.m.Get(key); ok {
		s.m.Del(key)
	}
}

// popped records that the result of key left the queue.
func (s *tileSet) popped(key int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.m.Get(key)
	if !ok {
		return
	}
	if v&releaseOnPop != 0 {
		s.m.Del(key)
		return
	}
	s.m.Put(key, int64(TileConsumed))
}

// allow re-enables scheduling for key. Consumed tiles are dropped at once;
// tiles still in flight are dropped when their result is popped.
func (s *tileSet) allow(key int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.m.Get(key)
	if !ok {
		return false
	}
	if TileState(v&^releaseOnPop) == TileConsumed {
		s.m.Del(key)
		return true
	}
	s.m.Put(key, v|releaseOnPop)
	return true
}

func (s *tileSet) clear() {
	s.mu.Lock()
	s.m = intintmap.New(1024, 0.6)
	s.mu.Unlock()
}

// TileStatus is a snapshot entry of the dedup set.
type TileStatus struct {
	Tile  world.ChunkCoord
	State TileState
}

func (s *tileSet) snapshot() []TileStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]TileStatus, 0, s.m.Size())
	for kv := range s.m.Items() {
		out = append(out, TileStatus{Tile: unpackTile(kv[0]), State: TileState(kv[1] &^ releaseOnPop)})
	}
	return out
}

func (s *tileSet) counts() [len(tileStateNames)]int {
	var c [len(tileStateNames)]int
	s.mu.Lock()
	defer s.mu.Unlock()
	for kv := range s.m.Items() {
		if st := TileState(kv[1] &^ releaseOnPop); int(st) < len(c) {
			c[st]++
		}
	}
	return c
}

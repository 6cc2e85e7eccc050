// Package scheduler pages voxel chunks in and out of a bounded working set and
// extracts their meshes on a worker pool without blocking the caller.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"voxstream/internal/profiling"
	"voxstream/internal/terrain"
	"voxstream/internal/workers"
	"voxstream/internal/world"

	"golang.org/x/time/rate"
)

var (
	// ErrDestroyed is returned by operations on a destroyed Scheduler.
	ErrDestroyed = errors.New("scheduler: destroyed")
	// ErrOutOfRange is returned for tiles outside the addressable range.
	ErrOutOfRange = errors.New("scheduler: tile out of range")
)

type handle struct {
	tile world.ChunkCoord
	task workers.Task
}

// Scheduler owns a Volume of chunks and schedules asynchronous mesh
// extraction for its tiles. Results are handed back through Pop in the order
// they finished.
//
// The world mutex serialises every Volume access. The dedup set and the result
// queue have their own short-held locks and are never taken while holding the
// world mutex.
type Scheduler struct {
	conf Config
	log  *slog.Logger
	size int

	lock   *world.Mutex
	volume *world.Volume
	pager  *world.StoragePager

	genMu sync.RWMutex
	gen   *terrain.Generator
	wctx  terrain.WorldContext

	tiles   *tileSet
	results *resultQueue
	metrics *metrics
	warn    *rate.Limiter

	// life is held shared by scheduling and exclusively by Reset and Destroy,
	// so the pool cannot be swapped under a submission.
	life      sync.RWMutex
	pool      *workers.Pool
	cancelled atomic.Bool
	destroyed atomic.Bool

	handlesMu sync.Mutex
	handles   map[int64]handle

	lastMu     sync.Mutex
	lastTile   world.ChunkCoord
	hasLast    bool
	sinceEvict time.Duration
}

func (s *Scheduler) newPool() *workers.Pool {
	return workers.New(s.conf.Workers, s.conf.QueueSize)
}

// warnf logs a warning unless the rate limit for warnings is exhausted.
func (s *Scheduler) warnf(msg string, args ...any) {
	if s.warn.Allow() {
		s.log.Warn(msg, args...)
	}
}

// ChunkSize returns the edge length of chunks and tiles.
func (s *Scheduler) ChunkSize() int { return s.size }

// TileOf returns the tile coordinate holding pos.
func (s *Scheduler) TileOf(pos world.Pos) world.ChunkCoord { return world.TileOf(pos, s.size) }

// GridPos returns the lower corner of the tile holding pos.
func (s *Scheduler) GridPos(pos world.Pos) world.Pos { return world.GridPos(pos, s.size) }

// SetSeed replaces the generator with one for seed. Chunks already resident
// keep their content.
func (s *Scheduler) SetSeed(seed int64) {
	s.genMu.Lock()
	s.gen = terrain.NewLogged(seed, s.wctx, s.log)
	gen := s.gen
	s.genMu.Unlock()
	s.pager.SetGenerator(gen)
}

// SetContext replaces the generation parameters. Like SetSeed it only
// affects chunks generated afterwards.
func (s *Scheduler) SetContext(ctx terrain.WorldContext) {
	s.genMu.Lock()
	s.wctx = ctx
	if s.gen == nil {
		s.genMu.Unlock()
		return
	}
	s.gen = terrain.New(s.gen.Seed(), ctx)
	gen := s.gen
	s.genMu.Unlock()
	s.pager.SetGenerator(gen)
}

// Seed returns the current world seed, zero when none was set.
func (s *Scheduler) Seed() int64 {
	s.genMu.RLock()
	defer s.genMu.RUnlock()
	if s.gen == nil {
		return 0
	}
	return s.gen.Seed()
}

// Context returns the current generation parameters.
func (s *Scheduler) Context() terrain.WorldContext {
	s.genMu.RLock()
	defer s.genMu.RUnlock()
	return s.wctx
}

// IsCreated reports whether a world seed has been set.
func (s *Scheduler) IsCreated() bool {
	return s.Seed() != 0
}

// ScheduleMeshExtraction queues mesh extraction for the tile holding pos. It
// returns false when the tile is already scheduled and its result has not
// been released with AllowReExtraction, or when the scheduler is shutting
// down or its queue is full.
func (s *Scheduler) ScheduleMeshExtraction(pos world.Pos) bool {
	s.life.RLock()
	defer s.life.RUnlock()
	if s.cancelled.Load() || s.destroyed.Load() {
		return false
	}
	tile := world.TileOf(pos, s.size)
	key, ok := packTile(tile)
	if !ok {
		s.warnf("scheduler: tile out of range", "tile", tile.String())
		return false
	}
	if !s.tiles.insert(key) {
		s.metrics.duplicates.Inc()
		return false
	}
	s.setLastTile(tile)

	task := s.pool.Submit(func(ctx context.Context) error {
		return s.extract(ctx, tile, key)
	})
	select {
	case <-task.Done():
		if err := task.Wait(); workers.Rejected(err) {
			s.tiles.remove(key)
			s.metrics.failed.Inc()
			s.warnf("scheduler: extraction rejected", "tile", tile.String(), "err", err)
			return false
		}
	default:
		s.handlesMu.Lock()
		s.handles[key] = handle{tile: tile, task: task}
		s.handlesMu.Unlock()
	}
	s.metrics.scheduled.Inc()
	return true
}

// extract runs on a worker. Every exit path other than a published result
// releases the tile so it can be scheduled again.
func (s *Scheduler) extract(ctx context.Context, tile world.ChunkCoord, key int64) (err error) {
	defer profiling.Track("scheduler.extract")()
	defer func() {
		if r := recover(); r != nil {
			s.tiles.remove(key)
			s.metrics.failed.Inc()
			err = fmt.Errorf("extract %v: panic: %v", tile, r)
			s.log.Error("scheduler: extraction panicked", "tile", tile.String(), "panic", r)
		}
	}()
	if s.discard(ctx, key) {
		return nil
	}

	if err := s.lock.Lock(ctx); err != nil {
		s.tiles.remove(key)
		if errors.Is(err, world.ErrLockTimeout) {
			s.metrics.lockTimeouts.Inc()
			s.metrics.failed.Inc()
			s.warnf("scheduler: world lock timeout, tile released", "tile", tile.String(), "timeout", s.conf.LockTimeout)
			return fmt.Errorf("extract %v: %w", tile, err)
		}
		s.metrics.discarded.Inc()
		return nil
	}
	locked := true
	defer func() {
		if locked {
			s.lock.Unlock()
		}
	}()
	if s.discard(ctx, key) {
		return nil
	}

	s.tiles.advance(key, TileExtracting)
	start := time.Now()
	s.volume.Chunk(tile)
	mesh := s.conf.Extractor(peekSampler{s.volume}, world.RegionOf(tile, s.size))
	s.metrics.extractTime.Observe(time.Since(start).Seconds())
	s.lock.Unlock()
	locked = false

	if s.discard(ctx, key) {
		return nil
	}
	s.tiles.advance(key, TileReady)
	s.results.push(Item{Tile: tile, Mesh: mesh})
	s.metrics.completed.Inc()
	return nil
}

// discard reports whether the job was cancelled, releasing its tile if so.
func (s *Scheduler) discard(ctx context.Context, key int64) bool {
	if !s.cancelled.Load() && ctx.Err() == nil {
		return false
	}
	s.tiles.remove(key)
	s.metrics.discarded.Inc()
	return true
}

// AllowReExtraction lets the tile holding pos be scheduled again. A tile
// whose result was already popped is released at once; a tile still in
// flight is released when its result is popped. It returns false when the
// tile is not scheduled at all.
func (s *Scheduler) AllowReExtraction(pos world.Pos) bool {
	key, ok := packTile(world.TileOf(pos, s.size))
	if !ok {
		return false
	}
	return s.tiles.allow(key)
}

// Pop removes the oldest finished item from the result queue.
func (s *Scheduler) Pop() (Item, bool) {
	it, ok := s.results.pop()
	if !ok {
		return Item{}, false
	}
	if key, ok := packTile(it.Tile); ok {
		s.tiles.popped(key)
	}
	return it, true
}

// State returns the scheduling state of the tile holding pos.
func (s *Scheduler) State(pos world.Pos) TileState {
	key, ok := packTile(world.TileOf(pos, s.size))
	if !ok {
		return TileUnscheduled
	}
	return s.tiles.state(key)
}

// OnFrame does the per-frame housekeeping: it collects finished task
// handles, refreshes gauges and periodically evicts far chunks. It never
// blocks on the world mutex.
func (s *Scheduler) OnFrame(dt time.Duration) {
	defer profiling.Track("scheduler.OnFrame")()
	s.reap()

	counts := s.tiles.counts()
	s.metrics.queueDepth.Set(float64(s.results.len()))
	s.metrics.inFlight.Set(float64(counts[TilePending] + counts[TileExtracting]))
	s.metrics.chunks.Set(float64(s.volume.Len()))

	if s.conf.EvictRadius <= 0 {
		return
	}
	s.sinceEvict += dt
	if s.sinceEvict < s.conf.EvictInterval {
		return
	}
	center, ok := s.lastScheduled()
	if !ok || !s.lock.TryLock() {
		return
	}
	s.sinceEvict = 0
	n := s.volume.EvictFar(center, s.conf.EvictRadius)
	s.lock.Unlock()
	if n > 0 {
		s.log.Debug("scheduler: evicted chunks", "count", n, "center", center.String())
	}
}

// reap drops handles of finished tasks and logs their errors.
func (s *Scheduler) reap() {
	s.handlesMu.Lock()
	defer s.handlesMu.Unlock()
	for key, h := range s.handles {
		select {
		case <-h.task.Done():
		default:
			continue
		}
		delete(s.handles, key)
		err := h.task.Wait()
		if err == nil {
			continue
		}
		if workers.Rejected(err) {
			s.tiles.remove(key)
			s.metrics.failed.Inc()
		}
		s.warnf("scheduler: extraction failed", "tile", h.tile.String(), "err", err)
	}
}

func (s *Scheduler) setLastTile(t world.ChunkCoord) {
	s.lastMu.Lock()
	s.lastTile, s.hasLast = t, true
	s.lastMu.Unlock()
}

func (s *Scheduler) lastScheduled() (world.ChunkCoord, bool) {
	s.lastMu.Lock()
	defer s.lastMu.Unlock()
	return s.lastTile, s.hasLast
}

// Reset cancels and joins every extraction, flushes dirty chunks to storage
// and empties the volume, dedup set and result queue. The scheduler is usable
// again once Reset returns.
func (s *Scheduler) Reset() {
	s.life.Lock()
	defer s.life.Unlock()
	if s.destroyed.Load() {
		return
	}
	s.shutdown()
	s.pool = s.newPool()
	s.cancelled.Store(false)
}

// Destroy is Reset without restarting: the scheduler stays cancelled and a
// Storage implementing io.Closer is closed. Destroy is idempotent.
func (s *Scheduler) Destroy() {
	s.life.Lock()
	defer s.life.Unlock()
	if s.destroyed.Load() {
		return
	}
	s.shutdown()
	s.destroyed.Store(true)
	if c, ok := s.conf.Storage.(io.Closer); ok {
		if err := c.Close(); err != nil {
			s.log.Error("scheduler: close storage", "err", err)
		}
	}
}

// IsReset reports whether the scheduler is cancelled, which is the case while
// Reset runs and after Destroy.
func (s *Scheduler) IsReset() bool {
	return s.cancelled.Load()
}

// shutdown must run with life held exclusively.
func (s *Scheduler) shutdown() {
	defer profiling.Track("scheduler.shutdown")()
	s.cancelled.Store(true)
	s.pool.Shutdown()

	for {
		err := s.lock.Lock(context.Background())
		if err == nil {
			break
		}
		s.log.Warn("scheduler: waiting for world lock to flush", "err", err)
	}
	s.volume.Flush()
	s.volume.Clear()
	s.lock.Unlock()

	s.tiles.clear()
	s.results.clear()
	s.handlesMu.Lock()
	clear(s.handles)
	s.handlesMu.Unlock()
	s.lastMu.Lock()
	s.hasLast = false
	s.lastMu.Unlock()
}

// Stats is a point-in-time summary of the scheduler.
type Stats struct {
	Pending, Extracting, Ready, Consumed int
	Queued                               int
	Chunks                               int
	WaitingJobs                          uint64
	RunningJobs                          int64
}

// Stats returns current counters. It does not take the world mutex.
func (s *Scheduler) Stats() Stats {
	c := s.tiles.counts()
	s.life.RLock()
	waiting, running := s.pool.Waiting(), s.pool.Running()
	s.life.RUnlock()
	return Stats{
		Pending:     c[TilePending],
		Extracting:  c[TileExtracting],
		Ready:       c[TileReady],
		Consumed:    c[TileConsumed],
		Queued:      s.results.len(),
		Chunks:      s.volume.Len(),
		WaitingJobs: waiting,
		RunningJobs: running,
	}
}

// Tiles returns a snapshot of every scheduled tile and its state.
func (s *Scheduler) Tiles() []TileStatus {
	return s.tiles.snapshot()
}

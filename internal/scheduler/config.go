package scheduler

import (
	"log/slog"
	"time"

	"voxstream/internal/meshing"
	"voxstream/internal/terrain"
	"voxstream/internal/world"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"
)

// Config contains options for creating a Scheduler.
type Config struct {
	// Log is the Logger to use for warnings and errors. If nil, slog.Default()
	// is used.
	Log *slog.Logger
	// ChunkSize is the edge length of chunks and mesh tiles. Defaults to 32.
	ChunkSize int
	// Seed is the world seed. A zero seed leaves the world uncreated until
	// SetSeed is called; chunks then page in as air.
	Seed int64
	// Context holds the generation parameters. A zero value uses
	// terrain.DefaultWorldContext().
	Context terrain.WorldContext
	// Storage persists chunks between page-out and page-in. If nil, chunks
	// are regenerated every time they are paged in.
	Storage world.Storage
	// Extractor turns a tile into a mesh. Defaults to meshing.Cubic.
	Extractor meshing.Extractor
	// Workers is the number of extraction goroutines. Zero uses one per CPU.
	Workers int
	// QueueSize bounds the number of queued extractions. Scheduling into a
	// full queue fails and leaves the tile unscheduled. Zero is unbounded.
	QueueSize int
	// LockTimeout bounds every wait on the world mutex. Defaults to 5s.
	LockTimeout time.Duration
	// EvictRadius, if positive, drops chunks further than this many chunks
	// from the most recently scheduled tile. Eviction runs from OnFrame every
	// EvictInterval (default 2s).
	EvictRadius   int
	EvictInterval time.Duration
	// Registerer receives the scheduler metrics. If nil, metrics are
	// collected but not registered.
	Registerer prometheus.Registerer
}

// New creates a Scheduler using the options in conf. Fields left empty are
// filled with their defaults.
func (conf Config) New() *Scheduler {
	if conf.Log == nil {
		conf.Log = slog.Default()
	}
	if conf.ChunkSize <= 0 {
		conf.ChunkSize = 32
	}
	if conf.Context == (terrain.WorldContext{}) {
		conf.Context = terrain.DefaultWorldContext()
	}
	if conf.Extractor == nil {
		conf.Extractor = meshing.Cubic
	}
	if conf.LockTimeout <= 0 {
		conf.LockTimeout = 5 * time.Second
	}
	if conf.EvictInterval <= 0 {
		conf.EvictInterval = 2 * time.Second
	}

	s := &Scheduler{
		conf:    conf,
		log:     conf.Log,
		size:    conf.ChunkSize,
		lock:    world.NewMutex(conf.LockTimeout),
		tiles:   newTileSet(),
		results: &resultQueue{},
		metrics: newMetrics(conf.Registerer),
		warn:    rate.NewLimiter(rate.Every(time.Second), 5),
		handles: make(map[int64]handle),
	}
	s.pager = world.NewStoragePager(conf.Storage, nil, conf.Log)
	s.volume = world.NewVolume(conf.ChunkSize, s.pager)
	s.wctx = conf.Context
	if conf.Seed != 0 {
		s.SetSeed(conf.Seed)
	}
	s.pool = s.newPool()
	return s
}

// Command voxgen streams a square of tiles through the scheduler without a
// window, reports what it extracted and persists the chunks.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"voxstream/internal/config"
	"voxstream/internal/profiling"
	"voxstream/internal/scheduler"
	"voxstream/internal/world"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/xlab/closer"
)

func main() {
	var (
		configPath = flag.String("config", "voxstream.toml", "config file (.toml or .yaml), created with defaults if missing")
		seed       = flag.Int64("seed", 0, "world seed, overrides the config when non-zero")
		radius     = flag.Int("radius", 4, "tiles generated in every direction around the origin")
		layers     = flag.Int("layers", 4, "vertical tile layers starting at y=0")
		metrics    = flag.String("metrics", "", "serve Prometheus metrics on this address while running")
		timeout    = flag.Duration("timeout", 5*time.Minute, "give up after this long")
	)
	flag.Parse()

	uc, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *seed != 0 {
		uc.World.Seed = *seed
	}
	log, err := uc.Logger(os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	conf, err := uc.Config(log)
	if err != nil {
		log.Error("voxgen: config", "err", err)
		os.Exit(1)
	}
	// Streaming a fixed square; eviction would drop what we just built.
	conf.EvictRadius = 0
	reg := prometheus.NewRegistry()
	conf.Registerer = reg
	s := conf.New()
	closer.Bind(s.Destroy)

	if *metrics != "" {
		go serveMetrics(log, *metrics, reg)
	}
	closer.Bind(func() {
		log.Info("voxgen: profile", "top", profiling.TopN(6))
	})

	if err := run(log, s, *radius, *layers, *timeout); err != nil {
		log.Error("voxgen: run", "err", err)
		closer.Exit(1)
	}
	closer.Close()
}

func serveMetrics(log *slog.Logger, addr string, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Warn("voxgen: metrics server stopped", "err", err)
	}
}

// run schedules every tile, then drives frames until each one was popped.
func run(log *slog.Logger, s *scheduler.Scheduler, radius, layers int, timeout time.Duration) error {
	size := s.ChunkSize()
	var tiles []world.Pos
	for y := range layers {
		for x := -radius; x <= radius; x++ {
			for z := -radius; z <= radius; z++ {
				tiles = append(tiles, world.Pos{X: x * size, Y: y * size, Z: z * size})
			}
		}
	}
	log.Info("voxgen: streaming", "tiles", len(tiles), "seed", s.Seed(), "chunk_size", size)

	start := time.Now()
	deadline := start.Add(timeout)
	done := make(map[world.ChunkCoord]bool, len(tiles))
	var vertices, empty int
	last := time.Now()
	for len(done) < len(tiles) {
		if time.Now().After(deadline) {
			return fmt.Errorf("timed out with %d of %d tiles done", len(done), len(tiles))
		}
		// Unscheduled tiles were never accepted or failed; try them again.
		for _, p := range tiles {
			if !done[s.TileOf(p)] && s.State(p) == scheduler.TileUnscheduled {
				s.ScheduleMeshExtraction(p)
			}
		}

		for {
			it, ok := s.Pop()
			if !ok {
				break
			}
			done[it.Tile] = true
			if it.Mesh.IsEmpty() {
				empty++
			}
			vertices += len(it.Mesh.Vertices)
		}
		now := time.Now()
		s.OnFrame(now.Sub(last))
		last = now
		time.Sleep(time.Millisecond)
	}

	st := s.Stats()
	log.Info("voxgen: done",
		"tiles", len(done),
		"empty", empty,
		"vertices", vertices,
		"chunks", st.Chunks,
		"elapsed", time.Since(start).Round(time.Millisecond))
	return nil
}

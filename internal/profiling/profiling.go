package profiling

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"
)

// Lightweight per-frame CPU profiler. Worker goroutines and the frame loop
// both record into the same totals.

type entry struct {
	total time.Duration
	calls int
}

var (
	mu          sync.Mutex
	frameTotals = make(map[string]entry)
)

// Track returns a stop function that records the elapsed time under the given name.
// Usage: defer profiling.Track("subsystem.Operation")()
func Track(name string) func() {
	start := time.Now()
	return func() {
		d := time.Since(start)
		mu.Lock()
		e := frameTotals[name]
		e.total += d
		e.calls++
		frameTotals[name] = e
		mu.Unlock()
	}
}

// ResetFrame clears current per-frame totals. Call at the start of each frame.
func ResetFrame() {
	mu.Lock()
	clear(frameTotals)
	mu.Unlock()
}

// Snapshot returns a copy of current per-frame totals.
func Snapshot() map[string]time.Duration {
	mu.Lock()
	defer mu.Unlock()
	out := make(map[string]time.Duration, len(frameTotals))
	for k, e := range frameTotals {
		out[k] = e.total
	}
	return out
}

// Calls returns how often name was tracked since the last ResetFrame.
func Calls(name string) int {
	mu.Lock()
	defer mu.Unlock()
	return frameTotals[name].calls
}

// TopN formats top N durations from the current frame totals.
// Example: "scheduler.extract:4.2ms(3), world.EvictFar:0.1ms(1)"
func TopN(n int) string {
	mu.Lock()
	type pair struct {
		name string
		entry
	}
	list := make([]pair, 0, len(frameTotals))
	for k, e := range frameTotals {
		list = append(list, pair{name: k, entry: e})
	}
	mu.Unlock()

	slices.SortFunc(list, func(a, b pair) int {
		if a.total != b.total {
			return int(b.total - a.total)
		}
		return strings.Compare(a.name, b.name)
	})
	n = min(n, len(list))
	parts := make([]string, 0, n)
	for _, p := range list[:n] {
		ms := float64(p.total.Microseconds()) / 1000.0
		parts = append(parts, fmt.Sprintf("%s:%.1fms(%d)", p.name, ms, p.calls))
	}
	return strings.Join(parts, ", ")
}

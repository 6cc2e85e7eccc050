package scheduler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	scheduled    prometheus.Counter
	duplicates   prometheus.Counter
	completed    prometheus.Counter
	failed       prometheus.Counter
	discarded    prometheus.Counter
	lockTimeouts prometheus.Counter
	extractTime  prometheus.Histogram
	queueDepth   prometheus.Gauge
	inFlight     prometheus.Gauge
	chunks       prometheus.Gauge
}

// newMetrics builds the scheduler collectors. A nil registerer leaves them
// unregistered.
func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	counter := func(name, help string) prometheus.Counter {
		return f.NewCounter(prometheus.CounterOpts{Namespace: "voxstream", Subsystem: "scheduler", Name: name, Help: help})
	}
	gauge := func(name, help string) prometheus.Gauge {
		return f.NewGauge(prometheus.GaugeOpts{Namespace: "voxstream", Subsystem: "scheduler", Name: name, Help: help})
	}
	return &metrics{
		scheduled:    counter("scheduled_total", "Tiles accepted for extraction."),
		duplicates:   counter("duplicates_total", "Schedule requests rejected because the tile was already scheduled."),
		completed:    counter("completed_total", "Extractions that produced a result."),
		failed:       counter("failed_total", "Extractions that failed and released their tile."),
		discarded:    counter("discarded_total", "Extractions skipped because of cancellation."),
		lockTimeouts: counter("lock_timeouts_total", "World mutex acquisitions that timed out."),
		extractTime: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "voxstream",
			Subsystem: "scheduler",
			Name:      "extract_seconds",
			Help:      "Time spent paging in and extracting one tile.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}),
		queueDepth: gauge("result_queue_depth", "Results waiting to be popped."),
		inFlight:   gauge("in_flight_tiles", "Tiles pending or extracting."),
		chunks:     gauge("loaded_chunks", "Chunks resident in the volume."),
	}
}

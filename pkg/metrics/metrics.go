// Package metrics exposes pool activity as Prometheus metrics. It bridges
// the pools' point-in-time Stats snapshots onto monotonic counters and
// gauges, labeled per pool instance.
//
// # Basic Usage
//
//	p, _ := pool.New(policy)
//	collector := metrics.NewCollector("buffers", p.Stats)
//
//	// Periodically, or on scrape:
//	collector.Update()
//
// Counters only ever move forward: Update computes the delta against the
// previous snapshot and adds it, so calling it at any cadence is safe.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Yortw/PoolSharp/pkg/pool"
)

var (
	// Allocations tracks total factory invocations per pool.
	Allocations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poolsharp_allocations_total",
			Help: "Total number of new instances created by the pool factory",
		},
		[]string{"pool"},
	)

	// Reuses tracks gets served from the idle store per pool.
	Reuses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poolsharp_reuses_total",
			Help: "Total number of gets served from the idle store",
		},
		[]string{"pool"},
	)

	// Returns tracks values accepted back by the pool.
	Returns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poolsharp_returns_total",
			Help: "Total number of values accepted back for reuse",
		},
		[]string{"pool"},
	)

	// Discards tracks values dropped over capacity, as duplicates, or shed
	// from a full async queue.
	Discards = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poolsharp_discards_total",
			Help: "Total number of returned values dropped instead of stored",
		},
		[]string{"pool"},
	)

	// ReinitFailures tracks reinitializer errors; each one dropped a value.
	ReinitFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poolsharp_reinitialize_failures_total",
			Help: "Total number of reinitializer errors",
		},
		[]string{"pool"},
	)

	// IdleInstances tracks the approximate idle count per pool.
	IdleInstances = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "poolsharp_idle_instances",
			Help: "Approximate number of instances currently idle in the pool",
		},
		[]string{"pool"},
	)
)

// StatsSource yields a point-in-time stats snapshot; both pool variants'
// Stats methods satisfy it.
type StatsSource func() pool.Stats

// Collector feeds one pool's stats into the package metrics. Create one per
// pool instance and call Update on whatever cadence suits the scraper.
type Collector struct {
	name      string
	source    StatsSource
	startTime time.Time

	mu   sync.Mutex
	last pool.Stats
}

// NewCollector creates a collector for the named pool. The name becomes the
// "pool" label on every series.
func NewCollector(name string, source StatsSource) *Collector {
	return &Collector{
		name:      name,
		source:    source,
		startTime: time.Now(),
	}
}

// Update snapshots the pool stats and publishes the movement since the last
// call. Safe for concurrent use, though one caller on a timer is the
// intended shape.
func (c *Collector) Update() {
	s := c.source()

	c.mu.Lock()
	prev := c.last
	c.last = s
	c.mu.Unlock()

	Allocations.WithLabelValues(c.name).Add(nonNegative(s.Allocated - prev.Allocated))
	Reuses.WithLabelValues(c.name).Add(nonNegative(s.Reused - prev.Reused))
	Returns.WithLabelValues(c.name).Add(nonNegative(s.Returned - prev.Returned))
	Discards.WithLabelValues(c.name).Add(nonNegative(s.Discarded - prev.Discarded))
	ReinitFailures.WithLabelValues(c.name).Add(nonNegative(s.ReinitFailures - prev.ReinitFailures))
	IdleInstances.WithLabelValues(c.name).Set(float64(s.Idle))
}

// StartTime returns when the collector was created.
func (c *Collector) StartTime() time.Time {
	return c.startTime
}

// nonNegative clamps counter deltas; snapshots are taken without locking the
// pool, so individual counters can appear to step backwards across reads.
func nonNegative(d int64) float64 {
	if d < 0 {
		return 0
	}
	return float64(d)
}

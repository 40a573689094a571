// Package stats collects per-operation latency statistics that the server
// reports alongside the pool counters.
package stats

import (
	"math"
	"sync"
	"time"

	"github.com/samber/lo"
)

// Collector incrementally collects count, min, max, average, and standard
// deviation via Welford's algorithm.
// Reference: https://en.wikipedia.org/wiki/Algorithms_for_calculating_variance#Welford's_online_algorithm
type Collector struct {
	mu        sync.Mutex
	count     float64
	min       float64
	max       float64
	avg       float64
	meanDist2 float64
}

// New returns a new statistics collector.
func New() *Collector {
	return &Collector{
		min: math.Inf(1),
		max: math.Inf(-1),
	}
}

// Add accumulates x into the collected statistics.
func (p *Collector) Add(x float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.count += 1.0
	if x < p.min {
		p.min = x
	}
	if x > p.max {
		p.max = x
	}
	delta := x - p.avg
	p.avg += delta / p.count
	delta2 := x - p.avg
	p.meanDist2 += delta * delta2
}

// AddSince accumulates the seconds elapsed since start.
func (p *Collector) AddSince(start time.Time) {
	p.Add(time.Since(start).Seconds())
}

// Summary is a JSON-ready snapshot. Values are seconds when the collector
// tracks durations. An empty collector summarizes to all zeros rather than
// NaN or Inf, which JSON cannot carry.
type Summary struct {
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Avg    float64 `json:"avg"`
	StdDev float64 `json:"stddev"`
}

// Summary snapshots the collected statistics.
func (p *Collector) Summary() Summary {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.count == 0 {
		return Summary{}
	}
	return Summary{
		Count:  int(p.count),
		Min:    p.min,
		Max:    p.max,
		Avg:    p.avg,
		StdDev: math.Sqrt(p.meanDist2 / p.count),
	}
}

// Registry hands out one collector per operation name and snapshots them all
// at once for reporting.
type Registry struct {
	mu   sync.Mutex
	cols map[string]*Collector
}

func NewRegistry() *Registry {
	return &Registry{cols: map[string]*Collector{}}
}

// Get returns the collector for name, creating it on first use. The returned
// collector is safe to retain and share.
func (r *Registry) Get(name string) *Collector {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.cols[name]
	if !ok {
		c = New()
		r.cols[name] = c
	}
	return c
}

// SnapshotAll summarizes every registered collector keyed by operation name.
func (r *Registry) SnapshotAll() map[string]Summary {
	r.mu.Lock()
	defer r.mu.Unlock()

	return lo.MapValues(r.cols, func(c *Collector, _ string) Summary {
		return c.Summary()
	})
}

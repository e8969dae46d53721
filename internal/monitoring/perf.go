package monitoring

import (
	"math"
	"sort"
	"sync"
	"time"
)

const (
	defaultCapacity = 500
	recentLimit     = 20
)

// Sample is one handled HTTP request.
type Sample struct {
	Method     string    `json:"method"`
	Route      string    `json:"route"`
	Status     int       `json:"status"`
	DurationMs float64   `json:"durationMs"`
	At         time.Time `json:"at"`
}

// PerfSummary rolls up the buffered samples.
type PerfSummary struct {
	Count       int            `json:"count"`
	Capacity    int            `json:"capacity"`
	MinMs       float64        `json:"minMs"`
	MaxMs       float64        `json:"maxMs"`
	MeanMs      float64        `json:"meanMs"`
	P95Ms       float64        `json:"p95Ms"`
	RouteCounts map[string]int `json:"routeCounts"`
	Recent      []Sample       `json:"recent"`
}

// PerfBuffer keeps the most recent request samples in a bounded ring.
type PerfBuffer struct {
	mu       sync.RWMutex
	capacity int
	samples  []Sample
	next     int
	full     bool
}

// NewPerfBuffer constructs a buffer holding at most capacity samples.
func NewPerfBuffer(capacity int) *PerfBuffer {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &PerfBuffer{capacity: capacity, samples: make([]Sample, capacity)}
}

// Record stores s, overwriting the oldest sample when full.
func (b *PerfBuffer) Record(s Sample) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.samples[b.next] = s
	b.next = (b.next + 1) % b.capacity
	if b.next == 0 {
		b.full = true
	}
}

// Snapshot returns the buffered samples oldest first.
func (b *PerfBuffer) Snapshot() []Sample {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.snapshotLocked()
}

func (b *PerfBuffer) snapshotLocked() []Sample {
	if !b.full {
		out := make([]Sample, b.next)
		copy(out, b.samples[:b.next])
		return out
	}
	out := make([]Sample, 0, b.capacity)
	out = append(out, b.samples[b.next:]...)
	out = append(out, b.samples[:b.next]...)
	return out
}

// Summary computes roll-up statistics over a copy of the buffer.
func (b *PerfBuffer) Summary() PerfSummary {
	b.mu.RLock()
	samples := b.snapshotLocked()
	b.mu.RUnlock()

	res := PerfSummary{
		Count:       len(samples),
		Capacity:    b.capacity,
		RouteCounts: make(map[string]int),
		Recent:      []Sample{},
	}
	if len(samples) == 0 {
		return res
	}

	durations := make([]float64, 0, len(samples))
	res.MinMs = math.Inf(1)
	var sum float64
	for _, s := range samples {
		durations = append(durations, s.DurationMs)
		sum += s.DurationMs
		res.MinMs = math.Min(res.MinMs, s.DurationMs)
		res.MaxMs = math.Max(res.MaxMs, s.DurationMs)
		res.RouteCounts[s.Method+" "+s.Route]++
	}
	res.MeanMs = sum / float64(len(samples))

	sort.Float64s(durations)
	idx := int(math.Ceil(0.95*float64(len(durations)))) - 1
	if idx < 0 {
		idx = 0
	}
	res.P95Ms = durations[idx]

	start := len(samples) - recentLimit
	if start < 0 {
		start = 0
	}
	res.Recent = append(res.Recent, samples[start:]...)
	return res
}

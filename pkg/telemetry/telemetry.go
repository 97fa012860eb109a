// Package telemetry implements C8: a pluggable snapshot provider backing
// C10's manifest refresh pipeline. The only implementation wired today is
// a deterministic synthetic generator; Provider is the seam a real
// telemetry backend (Prometheus, CloudWatch, whatever C10's caller has)
// would implement without touching C10.
package telemetry

import (
	"hash/fnv"
	"sync"
	"time"
)

// Snapshot is the bounded-range telemetry read for one service, aggregated
// over the window [WindowStartUtc, WindowEndUtc].
type Snapshot struct {
	Service string `json:"service"`
	CPUUtilization float64 `json:"cpuUtilization"`
	MemoryUtilization float64 `json:"memoryUtilization"`
	P95LatencyMillis float64 `json:"p95LatencyMillis"`
	ErrorRate float64 `json:"errorRate"`
	RequestsPerMinute float64 `json:"requestsPerMinute"`
	CostPerMillionRequests float64 `json:"costPerMillionRequests"`
	WindowStartUtc time.Time `json:"windowStartUtc"`
	WindowEndUtc time.Time `json:"windowEndUtc"`
	CapturedAtUtc time.Time `json:"capturedAtUtc"`
}

// Provider is the seam C10 depends on.
type Provider interface {
	Snapshot(service string) Snapshot
}

// SyntheticProvider caches the last snapshot per service for
// cacheTTL, recomputing deterministically (seeded by service name) once
// it expires.
type SyntheticProvider struct {
	cacheTTL time.Duration

	mu sync.Mutex
	cache map[string]Snapshot
}

// NewSyntheticProvider builds C8's only current implementation.
func NewSyntheticProvider(cacheTTL time.Duration) *SyntheticProvider {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &SyntheticProvider{cacheTTL: cacheTTL, cache: make(map[string]Snapshot)}
}

// Snapshot returns a cached reading if still fresh, else computes and
// caches a new deterministic one.
func (p *SyntheticProvider) Snapshot(service string) Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	if cached, ok := p.cache[service]; ok && time.Since(cached.CapturedAtUtc) < p.cacheTTL {
		return cached
	}

	snap := synthesize(service, p.cacheTTL)
	p.cache[service] = snap
	return snap
}

// synthesize derives bounded-range readings from an FNV hash of the
// service name so repeated calls for the same service (after eviction)
// still land in a stable neighborhood rather than jumping randomly.
func synthesize(service string, window time.Duration) Snapshot {
	h := fnv.New32a()
	_, _ = h.Write([]byte(service))
	seed := h.Sum32()

	frac := func(shift uint32, lo, hi float64) float64 {
		v := float64((seed>>shift)%1000) / 1000.0
		return lo + v*(hi-lo)
	}

	capturedAt := time.Now().UTC()
	return Snapshot{
		Service: service,
		CPUUtilization: frac(0, 0.30, 0.92),
		MemoryUtilization: frac(3, 0.25, 0.88),
		P95LatencyMillis: frac(6, 80, 900),
		ErrorRate: frac(9, 0.001, 0.08),
		RequestsPerMinute: frac(12, 40, 2400),
		CostPerMillionRequests: frac(15, 8, 26),
		WindowStartUtc: capturedAt.Add(-window),
		WindowEndUtc: capturedAt,
		CapturedAtUtc: capturedAt,
	}
}

package manifest

import (
	"math"

	"github.com/jordigilh/intentrouter/internal/config"
	"github.com/jordigilh/intentrouter/pkg/telemetry"
)

// driftScore implements step 5: weighted combination of
// CPU headroom, p95 latency headroom, and error rate, clamped to [0,1]
// and rounded to 2 decimals.
func driftScore(snap telemetry.Snapshot) float64 {
	score := 0.4*math.Max(0, snap.CPUUtilization-0.6) +
		0.3*math.Max(0, snap.P95LatencyMillis/1000-0.5) +
		0.3*(snap.ErrorRate*2)
	if score > 1 {
		score = 1
	}
	if score < 0 {
		score = 0
	}
	return math.Round(score*100) / 100
}

// riskForDrift classifies drift against the configured thresholds: high
// at or above the critical threshold, medium at or above the warning
// threshold, else low.
func riskForDrift(drift float64, cfg config.ManifestConfig) string {
	switch {
	case drift >= cfg.DriftCriticalThreshold:
		return "high"
	case drift >= cfg.DriftWarningThreshold:
		return "medium"
	default:
		return "low"
	}
}

// confidenceForSnapshot implements step 6.
func confidenceForSnapshot(snap telemetry.Snapshot) float64 {
	c := 1 - snap.ErrorRate*4
	if c < 0.5 {
		c = 0.5
	}
	return c
}

package manifest

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"k8s.io/apimachinery/pkg/api/resource"

	"github.com/jordigilh/intentrouter/pkg/telemetry"
)

// ManifestChange is one recorded mutation from the enrichment pipeline.
type ManifestChange struct {
	Path string `json:"path"`
	Before string `json:"before"`
	After string `json:"after"`
	Rationale string `json:"rationale"`
	Impact string `json:"impact"`
}

const (
	impactIncrease = "increase"
	impactDecrease = "decrease"
	impactChange   = "change"
)

// enrich runs the scaling-annotation, resource-limit, and probe-hardening
// rules step 4 over m in place, returning the ordered
// list of changes made.
func enrich(m *Manifest, snap telemetry.Snapshot, profile string) []ManifestChange {
	var changes []ManifestChange
	changes = append(changes, enrichScaling(m, snap, profile)...)
	changes = append(changes, enrichResources(m, snap, profile)...)
	changes = append(changes, enrichProbes(m, snap)...)
	return changes
}

func enrichScaling(m *Manifest, snap telemetry.Snapshot, profile string) []ManifestChange {
	var changes []ManifestChange

	meta := &m.Spec.Template.Metadata
	if meta.Annotations == nil {
		meta.Annotations = map[string]string{}
	}
	ann := meta.Annotations

	const minKey = "autoscaling.knative.dev/minScale"
	const maxKey = "autoscaling.knative.dev/maxScale"

	minScale := parseIntAnnotation(ann, minKey, 0)
	maxScale := parseIntAnnotation(ann, maxKey, 1)
	originalMin := minScale

	if snap.CPUUtilization > 0.75 || snap.P95LatencyMillis > 600 {
		newMax := int(math.Ceil(float64(maxScale) * 1.3))
		if newMax != maxScale {
			changes = append(changes, change(
				"spec.template.metadata.annotations."+maxKey,
				strconv.Itoa(maxScale), strconv.Itoa(newMax), "headroom", impactIncrease))
			ann[maxKey] = strconv.Itoa(newMax)
			maxScale = newMax
		}
	}

	if snap.CPUUtilization < 0.35 && snap.RequestsPerMinute < 120 {
		newMin := int(math.Floor(float64(minScale) * 0.7))
		if newMin < 1 {
			newMin = 1
		}
		if newMin != minScale {
			changes = append(changes, change(
				"spec.template.metadata.annotations."+minKey,
				strconv.Itoa(minScale), strconv.Itoa(newMin), "idle cost", impactDecrease))
			ann[minKey] = strconv.Itoa(newMin)
			minScale = newMin
		}
	}

	if profile == "performance" {
		target := originalMin + 1
		if target > minScale {
			changes = append(changes, change(
				"spec.template.metadata.annotations."+minKey,
				strconv.Itoa(minScale), strconv.Itoa(target), "performance profile floor", impactIncrease))
			ann[minKey] = strconv.Itoa(target)
		}
	}

	return changes
}

func enrichResources(m *Manifest, snap telemetry.Snapshot, profile string) []ManifestChange {
	if len(m.Spec.Template.Spec.Containers) == 0 {
		return nil
	}
	var changes []ManifestChange
	c := &m.Spec.Template.Spec.Containers[0]
	if c.Resources.Limits == nil {
		c.Resources.Limits = map[string]string{}
	}
	if c.Resources.Requests == nil {
		c.Resources.Requests = map[string]string{}
	}

	priorCPURequestCores := parseCPUCores(c.Resources.Requests["cpu"], 0.1)

	if snap.CPUUtilization > 0.8 {
		before := c.Resources.Limits["cpu"]
		limitCores := parseCPUCores(before, 0.5)
		newLimitCores := math.Round(limitCores*1.2*100) / 100
		newLimit := formatCPUCores(newLimitCores)
		c.Resources.Limits["cpu"] = newLimit
		changes = append(changes, change("spec.template.spec.containers[0].resources.limits.cpu", before, newLimit, "sustained high CPU", impactIncrease))

		beforeReq := c.Resources.Requests["cpu"]
		newRequestCores := math.Max(newLimitCores*0.6, priorCPURequestCores)
		newRequest := formatCPUCores(newRequestCores)
		c.Resources.Requests["cpu"] = newRequest
		changes = append(changes, change("spec.template.spec.containers[0].resources.requests.cpu", beforeReq, newRequest, "keep request under new limit", impactIncrease))
	}

	if snap.MemoryUtilization > 0.75 {
		beforeLimit := c.Resources.Limits["memory"]
		limitMi := parseMemoryMi(beforeLimit, 256)
		newLimitMi := roundUpTo(limitMi*1.25, 256)
		newLimit := fmt.Sprintf("%dMi", newLimitMi)
		c.Resources.Limits["memory"] = newLimit
		changes = append(changes, change("spec.template.spec.containers[0].resources.limits.memory", beforeLimit, newLimit, "sustained high memory", impactIncrease))

		beforeRequest := c.Resources.Requests["memory"]
		requestMi := parseMemoryMi(beforeRequest, 128)
		newRequestMi := roundUpTo(requestMi*1.15, 128)
		newRequest := fmt.Sprintf("%dMi", newRequestMi)
		c.Resources.Requests["memory"] = newRequest
		changes = append(changes, change("spec.template.spec.containers[0].resources.requests.memory", beforeRequest, newRequest, "sustained high memory", impactIncrease))
	}

	if profile == "cost" && snap.CPUUtilization < 0.45 {
		before := c.Resources.Limits["cpu"]
		limitCores := parseCPUCores(before, 0.5)
		newLimitCores := math.Max(0.5, limitCores*0.8)
		newLimit := formatCPUCores(newLimitCores)
		if newLimit != before {
			c.Resources.Limits["cpu"] = newLimit
			changes = append(changes, change("spec.template.spec.containers[0].resources.limits.cpu", before, newLimit, "cost profile trim", impactDecrease))
		}
	}

	return changes
}

func enrichProbes(m *Manifest, snap telemetry.Snapshot) []ManifestChange {
	if len(m.Spec.Template.Spec.Containers) == 0 || snap.ErrorRate <= 0.04 {
		return nil
	}
	var changes []ManifestChange
	c := &m.Spec.Template.Spec.Containers[0]

	if c.ReadinessProbe == nil {
		c.ReadinessProbe = &Probe{
			HTTPGet: &HTTPGetAction{Path: "/ready", Port: 8080},
			InitialDelaySeconds: 5,
			PeriodSeconds: 5,
		}
		changes = append(changes, change("spec.template.spec.containers[0].readinessProbe", "none", "GET /ready:8080", "elevated error rate", impactChange))
	}
	if c.LivenessProbe == nil {
		c.LivenessProbe = &Probe{
			HTTPGet: &HTTPGetAction{Path: "/health", Port: 8080},
			InitialDelaySeconds: 10,
			PeriodSeconds: 10,
		}
		changes = append(changes, change("spec.template.spec.containers[0].livenessProbe", "none", "GET /health:8080", "elevated error rate", impactChange))
	}
	return changes
}

func change(path, before, after, rationale, impact string) ManifestChange {
	return ManifestChange{Path: path, Before: before, After: after, Rationale: rationale, Impact: impact}
}

func parseIntAnnotation(ann map[string]string, key string, fallback int) int {
	v, ok := ann[key]
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func parseCPUCores(v string, fallback float64) float64 {
	if v == "" {
		return fallback
	}
	q, err := resource.ParseQuantity(v)
	if err != nil {
		return fallback
	}
	return q.AsApproximateFloat64()
}

func formatCPUCores(cores float64) string {
	milli := int64(math.Round(cores * 1000))
	return resource.NewMilliQuantity(milli, resource.DecimalSI).String()
}

// parseMemoryMi returns a memory quantity string's value in Mi: Gi is
// scaled by 1024, Mi passes through, anything else falls back to the
// given default.
func parseMemoryMi(v string, fallback float64) float64 {
	trimmed := strings.TrimSpace(v)
	switch {
	case strings.HasSuffix(trimmed, "Gi"):
		n, err := strconv.ParseFloat(strings.TrimSuffix(trimmed, "Gi"), 64)
		if err != nil {
			return fallback
		}
		return n * 1024
	case strings.HasSuffix(trimmed, "Mi"):
		n, err := strconv.ParseFloat(strings.TrimSuffix(trimmed, "Mi"), 64)
		if err != nil {
			return fallback
		}
		return n
	default:
		return fallback
	}
}

func roundUpTo(value, nearest float64) int {
	return int(math.Ceil(value/nearest)) * int(nearest)
}

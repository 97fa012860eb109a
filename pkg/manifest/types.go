// Package manifest implements C9 (manifest repository) and C10 (manifest
// refresher): reading baseline Knative-Serving-style manifests, running
// a telemetry-driven enrichment pipeline over a copy, scoring drift and
// risk, and carrying the result through an approval/rollback job
// lifecycle.
package manifest

import "time"

// Manifest is a narrow, hand-typed projection of a Knative Service: only
// the fields the enrichment pipeline reads or mutates. YAML is mapped
// through the json tags below by sigs.k8s.io/yaml, so fields unknown to
// these structs are NOT preserved in a saved revision — acceptable here
// since baseline fixtures are expected to be exactly this shape.
type Manifest struct {
	APIVersion string `json:"apiVersion"`
	Kind string `json:"kind"`
	Metadata ObjectMeta `json:"metadata"`
	Spec ServiceSpec `json:"spec"`
}

// ObjectMeta mirrors the subset of Kubernetes ObjectMeta this service
// touches.
type ObjectMeta struct {
	Name string `json:"name"`
	Namespace string `json:"namespace,omitempty"`
	Annotations map[string]string `json:"annotations,omitempty"`
	Labels map[string]string `json:"labels,omitempty"`
}

// ServiceSpec is a Knative Service's spec.template wrapper.
type ServiceSpec struct {
	Template RevisionTemplate `json:"template"`
}

// RevisionTemplate is spec.template: its own metadata (where the
// autoscaling annotations live) and the pod spec.
type RevisionTemplate struct {
	Metadata ObjectMeta `json:"metadata"`
	Spec PodSpec `json:"spec"`
}

// PodSpec holds the containers the resource-limit and probe-hardening
// rules mutate.
type PodSpec struct {
	Containers []Container `json:"containers"`
}

// Container is the subset of corev1.Container the enrichment pipeline
// touches.
type Container struct {
	Name string `json:"name"`
	Image string `json:"image,omitempty"`
	Resources ResourceSpec `json:"resources,omitempty"`
	ReadinessProbe *Probe `json:"readinessProbe,omitempty"`
	LivenessProbe *Probe `json:"livenessProbe,omitempty"`
}

// ResourceSpec holds CPU/memory limits and requests as the raw quantity
// strings Kubernetes manifests use ("500m", "256Mi").
type ResourceSpec struct {
	Limits map[string]string `json:"limits,omitempty"`
	Requests map[string]string `json:"requests,omitempty"`
}

// Probe is a minimal HTTP readiness/liveness probe.
type Probe struct {
	HTTPGet *HTTPGetAction `json:"httpGet,omitempty"`
	InitialDelaySeconds int `json:"initialDelaySeconds,omitempty"`
	PeriodSeconds int `json:"periodSeconds,omitempty"`
}

// HTTPGetAction is a probe's HTTP target.
type HTTPGetAction struct {
	Path string `json:"path"`
	Port int `json:"port"`
}

// RevisionMetadata is the sidecar persisted alongside each generated
// revision in the history directory, recording how it came to exist.
type RevisionMetadata struct {
	JobID string `json:"jobId"`
	GeneratedAtUtc time.Time `json:"generatedAtUtc"`
	GeneratedBy string `json:"generatedBy"`
	Confidence float64 `json:"confidence"`
	Profile string `json:"profile"`
	Notes string `json:"notes,omitempty"`
}

// DeepCopy returns an independent copy so the enrichment pipeline never
// mutates the repository's cached baseline.
func (m Manifest) DeepCopy() Manifest {
	out := m
	out.Metadata = copyObjectMeta(m.Metadata)
	out.Spec.Template.Metadata = copyObjectMeta(m.Spec.Template.Metadata)
	out.Spec.Template.Spec.Containers = make([]Container, len(m.Spec.Template.Spec.Containers))
	for i, c := range m.Spec.Template.Spec.Containers {
		cc := c
		cc.Resources.Limits = copyStringMap(c.Resources.Limits)
		cc.Resources.Requests = copyStringMap(c.Resources.Requests)
		if c.ReadinessProbe != nil {
			p := *c.ReadinessProbe
			cc.ReadinessProbe = &p
		}
		if c.LivenessProbe != nil {
			p := *c.LivenessProbe
			cc.LivenessProbe = &p
		}
		out.Spec.Template.Spec.Containers[i] = cc
	}
	return out
}

func copyObjectMeta(m ObjectMeta) ObjectMeta {
	out := m
	out.Annotations = copyStringMap(m.Annotations)
	out.Labels = copyStringMap(m.Labels)
	return out
}

func copyStringMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

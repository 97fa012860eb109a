package manifest

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jordigilh/intentrouter/internal/config"
	apperrors "github.com/jordigilh/intentrouter/internal/errors"
	"github.com/jordigilh/intentrouter/pkg/telemetry"
)

const sampleManifest = `
apiVersion: serving.knative.dev/v1
kind: Service
metadata:
  name: user-authentication-service
spec:
  template:
    metadata:
      annotations:
        autoscaling.knative.dev/minScale: "1"
        autoscaling.knative.dev/maxScale: "5"
    spec:
      containers:
      - name: app
        image: example.com/user-authentication-service:latest
        resources:
          limits:
            cpu: "500m"
            memory: "512Mi"
          requests:
            cpu: "250m"
            memory: "256Mi"
`

type fixedProvider struct {
	snapshots map[string]telemetry.Snapshot
}

func (f fixedProvider) Snapshot(service string) telemetry.Snapshot {
	return f.snapshots[service]
}

func writeSampleManifest(t *testing.T, dir string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "user-authentication-service.yml"), []byte(sampleManifest), 0o644))
}

func TestRepositoryListAndGetManifest(t *testing.T) {
	dir := t.TempDir()
	writeSampleManifest(t, dir)
	repo := NewRepository(dir, filepath.Join(dir, "history"), zap.NewNop())

	list, err := repo.ListManifests()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "user-authentication-service", list[0].Service)

	rec, err := repo.GetManifest("user-authentication-service")
	require.NoError(t, err)
	assert.Equal(t, "baseline", rec.Source)
}

func TestRepositoryGetManifestNotFound(t *testing.T) {
	dir := t.TempDir()
	repo := NewRepository(dir, filepath.Join(dir, "history"), zap.NewNop())
	_, err := repo.GetManifest("missing-service")
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestRepositorySaveRevisionWritesFileAndUpdatesCache(t *testing.T) {
	dir := t.TempDir()
	writeSampleManifest(t, dir)
	historyDir := filepath.Join(dir, "history")
	repo := NewRepository(dir, historyDir, zap.NewNop())

	rec, err := repo.GetManifest("user-authentication-service")
	require.NoError(t, err)

	path, err := repo.SaveRevision("user-authentication-service", rec.Manifest, RevisionMetadata{
		JobID: "job-1",
		GeneratedAtUtc: time.Now(),
		GeneratedBy: "manifest-refresher",
		Confidence: 0.9,
		Profile: "balanced",
	})
	require.NoError(t, err)
	assert.FileExists(t, path)
	assert.FileExists(t, filepath.Join(historyDir, "user-authentication-service-job-1.meta.json"))

	updated, err := repo.GetManifest("user-authentication-service")
	require.NoError(t, err)
	assert.Equal(t, "generated", updated.Source)
}

func TestDriftScoreAndRisk(t *testing.T) {
	cfg := config.ManifestConfig{DriftWarningThreshold: 0.4, DriftCriticalThreshold: 0.7}

	low := driftScore(telemetry.Snapshot{CPUUtilization: 0.5, P95LatencyMillis: 200, ErrorRate: 0.001})
	assert.Equal(t, "low", riskForDrift(low, cfg))

	high := driftScore(telemetry.Snapshot{CPUUtilization: 0.95, P95LatencyMillis: 2500, ErrorRate: 0.08})
	assert.Equal(t, "high", riskForDrift(high, cfg))
	assert.LessOrEqual(t, high, 1.0)
}

func TestTriggerRefreshLowDriftAutoApplies(t *testing.T) {
	dir := t.TempDir()
	writeSampleManifest(t, dir)
	historyDir := filepath.Join(dir, "history")
	repo := NewRepository(dir, historyDir, zap.NewNop())

	provider := fixedProvider{snapshots: map[string]telemetry.Snapshot{
		"user-authentication-service": {CPUUtilization: 0.4, MemoryUtilization: 0.3, P95LatencyMillis: 150, ErrorRate: 0.001, RequestsPerMinute: 300},
	}}
	cfg := config.ManifestConfig{DriftWarningThreshold: 0.4, DriftCriticalThreshold: 0.7, AutoApplyLowRisk: true, RefreshProfile: "balanced"}
	refresher := NewRefresher(repo, provider, cfg, logr.Discard())

	job, err := refresher.TriggerRefresh("user-authentication-service", RefreshOptions{})
	require.NoError(t, err)
	assert.Equal(t, JobApplied, job.Status)
	assert.Equal(t, "low", job.Risk)
}

func TestTriggerRefreshHighDriftAwaitsApproval(t *testing.T) {
	dir := t.TempDir()
	writeSampleManifest(t, dir)
	repo := NewRepository(dir, filepath.Join(dir, "history"), zap.NewNop())

	provider := fixedProvider{snapshots: map[string]telemetry.Snapshot{
		"user-authentication-service": {CPUUtilization: 0.95, MemoryUtilization: 0.9, P95LatencyMillis: 2500, ErrorRate: 0.08, RequestsPerMinute: 2000},
	}}
	cfg := config.ManifestConfig{DriftWarningThreshold: 0.4, DriftCriticalThreshold: 0.7, AutoApplyLowRisk: true}
	refresher := NewRefresher(repo, provider, cfg, logr.Discard())

	job, err := refresher.TriggerRefresh("user-authentication-service", RefreshOptions{})
	require.NoError(t, err)
	assert.Equal(t, JobAwaitingApproval, job.Status)
	assert.Equal(t, "high", job.Risk)
	require.NotNil(t, job.ManifestPreview)
	assert.NotEmpty(t, job.DiffSummary)
}

func TestApproveRequiresAwaitingApproval(t *testing.T) {
	dir := t.TempDir()
	writeSampleManifest(t, dir)
	repo := NewRepository(dir, filepath.Join(dir, "history"), zap.NewNop())
	provider := fixedProvider{snapshots: map[string]telemetry.Snapshot{
		"user-authentication-service": {CPUUtilization: 0.95, P95LatencyMillis: 900, ErrorRate: 0.08},
	}}
	cfg := config.ManifestConfig{DriftWarningThreshold: 0.4, DriftCriticalThreshold: 0.7}
	refresher := NewRefresher(repo, provider, cfg, logr.Discard())

	job, err := refresher.TriggerRefresh("user-authentication-service", RefreshOptions{})
	require.NoError(t, err)

	approved, err := refresher.Approve(job.JobID)
	require.NoError(t, err)
	assert.Equal(t, JobApplied, approved.Status)

	_, err = refresher.Approve(job.JobID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindState))
}

func TestRollbackCannotLeaveTerminalState(t *testing.T) {
	dir := t.TempDir()
	writeSampleManifest(t, dir)
	repo := NewRepository(dir, filepath.Join(dir, "history"), zap.NewNop())
	provider := fixedProvider{snapshots: map[string]telemetry.Snapshot{
		"user-authentication-service": {CPUUtilization: 0.4, P95LatencyMillis: 150, ErrorRate: 0.001},
	}}
	cfg := config.ManifestConfig{DriftWarningThreshold: 0.4, DriftCriticalThreshold: 0.7, AutoApplyLowRisk: true}
	refresher := NewRefresher(repo, provider, cfg, logr.Discard())

	job, err := refresher.TriggerRefresh("user-authentication-service", RefreshOptions{})
	require.NoError(t, err)
	require.Equal(t, JobApplied, job.Status)

	_, err = refresher.Rollback(job.JobID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindState))
}

func TestEnrichScalingHeadroomIncreasesMaxScale(t *testing.T) {
	m := Manifest{
		Spec: ServiceSpec{Template: RevisionTemplate{
			Metadata: ObjectMeta{Annotations: map[string]string{
				"autoscaling.knative.dev/minScale": "1",
				"autoscaling.knative.dev/maxScale": "5",
			}},
			Spec: PodSpec{Containers: []Container{{Name: "app"}}},
		}},
	}
	changes := enrich(&m, telemetry.Snapshot{CPUUtilization: 0.9, P95LatencyMillis: 700}, "balanced")
	assert.Equal(t, "7", m.Spec.Template.Metadata.Annotations["autoscaling.knative.dev/maxScale"])
	assert.NotEmpty(t, changes)
}

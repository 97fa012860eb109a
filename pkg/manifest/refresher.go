package manifest

import (
	"sort"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/jordigilh/intentrouter/internal/config"
	apperrors "github.com/jordigilh/intentrouter/internal/errors"
	"github.com/jordigilh/intentrouter/pkg/telemetry"
)

// JobStatus is a manifest refresh job's lifecycle state.
type JobStatus string

const (
	JobGenerating JobStatus = "GENERATING"
	JobAwaitingApproval JobStatus = "AWAITING_APPROVAL"
	JobApplied JobStatus = "APPLIED"
	JobFailed JobStatus = "FAILED"
)

// Job is one manifest refresh run.
type Job struct {
	JobID string `json:"jobId"`
	Service string `json:"service"`
	Status JobStatus `json:"status"`
	Profile string `json:"profile"`
	CreatedAtUtc time.Time `json:"createdAtUtc"`
	UpdatedAtUtc time.Time `json:"updatedAtUtc"`
	ManifestPreview *Manifest `json:"manifestPreview,omitempty"`
	DiffSummary []ManifestChange `json:"diffSummary,omitempty"`
	DriftScore float64 `json:"driftScore"`
	Risk string `json:"risk,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
	Error string `json:"error,omitempty"`
	Notes string `json:"notes,omitempty"`
}

// RefreshOptions are the caller-supplied overrides for a refresh.
type RefreshOptions struct {
	Profile string
	Notes string
	AutoApply *bool
}

// Refresher is C10: it orchestrates C9 and C8 through the job state
// machine. The jobs table is guarded by a single lock; job
// bodies other than bookkeeping run outside the lock so independent jobs
// don't block each other.
type Refresher struct {
	repo *Repository
	telemetry telemetry.Provider
	cfg config.ManifestConfig
	log logr.Logger

	mu sync.Mutex
	jobs map[string]*Job
}

// NewRefresher builds C10 over an already-constructed C9 repository and a
// C8 telemetry provider.
func NewRefresher(repo *Repository, provider telemetry.Provider, cfg config.ManifestConfig, log logr.Logger) *Refresher {
	return &Refresher{
		repo: repo,
		telemetry: provider,
		cfg: cfg,
		log: log,
		jobs: make(map[string]*Job),
	}
}

// ListJobs returns every job, newest first.
func (r *Refresher) ListJobs() []*Job {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*Job, 0, len(r.jobs))
	for _, j := range r.jobs {
		out = append(out, j)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].CreatedAtUtc.After(out[k].CreatedAtUtc) })
	return out
}

// GetJob returns one job by id, or a NotFoundError.
func (r *Refresher) GetJob(jobID string) (*Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[jobID]
	if !ok {
		return nil, apperrors.NewNotFoundError("job " + jobID)
	}
	return j, nil
}

func (r *Refresher) putJob(j *Job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[j.JobID] = j
}

// TriggerRefresh runs the full pipeline for service.
func (r *Refresher) TriggerRefresh(service string, opts RefreshOptions) (*Job, error) {
	record, err := r.repo.GetManifest(service)
	if err != nil {
		return nil, err
	}

	profile := opts.Profile
	if profile == "" {
		profile = r.cfg.RefreshProfile
	}
	if profile == "" {
		profile = "balanced"
	}

	now := time.Now()
	job := &Job{
		JobID: uuid.NewString(),
		Service: service,
		Status: JobGenerating,
		Profile: profile,
		CreatedAtUtc: now,
		UpdatedAtUtc: now,
		Notes: opts.Notes,
	}
	r.putJob(job)

	working := record.Manifest.DeepCopy()
	snap := r.telemetry.Snapshot(service)

	changes := enrich(&working, snap, profile)
	drift := driftScore(snap)
	risk := riskForDrift(drift, r.cfg)
	confidence := confidenceForSnapshot(snap)

	job.ManifestPreview = &working
	job.DiffSummary = changes
	job.DriftScore = drift
	job.Risk = risk
	job.Confidence = confidence

	autoApply := r.cfg.AutoApplyLowRisk
	if opts.AutoApply != nil {
		autoApply = *opts.AutoApply
	}

	if autoApply && risk == "low" {
		meta := RevisionMetadata{
			JobID: job.JobID,
			GeneratedAtUtc: time.Now(),
			GeneratedBy: "manifest-refresher",
			Confidence: confidence,
			Profile: profile,
			Notes: opts.Notes,
		}
		if _, err := r.repo.SaveRevision(service, working, meta); err != nil {
			job.Status = JobFailed
			job.Error = err.Error()
			job.UpdatedAtUtc = time.Now()
			r.putJob(job)
			return job, nil
		}
		job.Status = JobApplied
	} else {
		job.Status = JobAwaitingApproval
	}
	job.UpdatedAtUtc = time.Now()
	r.putJob(job)

	return job, nil
}

// Approve transitions an AWAITING_APPROVAL job to APPLIED, persisting its
// preview via C9 ("AWAITING_APPROVAL requires non-null
// manifestPreview").
func (r *Refresher) Approve(jobID string) (*Job, error) {
	job, err := r.GetJob(jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != JobAwaitingApproval || job.ManifestPreview == nil {
		return nil, apperrors.NewStateError("job is not awaiting approval")
	}

	meta := RevisionMetadata{
		JobID: job.JobID,
		GeneratedAtUtc: time.Now(),
		GeneratedBy: "manifest-refresher",
		Confidence: job.Confidence,
		Profile: job.Profile,
		Notes: job.Notes,
	}
	if _, err := r.repo.SaveRevision(job.Service, *job.ManifestPreview, meta); err != nil {
		return nil, err
	}

	job.Status = JobApplied
	job.UpdatedAtUtc = time.Now()
	r.putJob(job)
	return job, nil
}

// Rollback marks a job FAILED with an explanatory error. There is no
// durable revision history to roll back to yet (Open
// Question, resolved as non-durable for now); APPLIED and FAILED are
// terminal and cannot be re-entered.
func (r *Refresher) Rollback(jobID string) (*Job, error) {
	job, err := r.GetJob(jobID)
	if err != nil {
		return nil, err
	}
	if job.Status == JobApplied || job.Status == JobFailed {
		return nil, apperrors.NewStateError("cannot roll back a job in terminal state " + string(job.Status))
	}

	job.Status = JobFailed
	job.Error = "rollback requested"
	job.UpdatedAtUtc = time.Now()
	r.putJob(job)
	return job, nil
}

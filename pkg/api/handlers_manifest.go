package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/jordigilh/intentrouter/internal/errors"
	"github.com/jordigilh/intentrouter/pkg/manifest"
)

type manifestSummary struct {
	Service         string    `json:"service"`
	LastModifiedUtc time.Time `json:"lastModified"`
	Source          string    `json:"source"`
	DriftScore      float64   `json:"driftScore"`
	LastJobStatus   string    `json:"lastJobStatus,omitempty"`
	LastJobAtUtc    time.Time `json:"lastJobAt,omitempty"`
}

// latestJobForService returns the newest job for service, or nil.
func latestJobForService(jobs []*manifest.Job, service string) *manifest.Job {
	for _, j := range jobs {
		if j.Service == service {
			return j
		}
	}
	return nil
}

// GET /manifests — list summaries across every known baseline manifest.
func (s *Server) handleManifestsList(w http.ResponseWriter, r *http.Request) {
	records, err := s.manifests.ListManifests()
	if err != nil {
		writeError(w, s.log, apperrors.Wrap(err, apperrors.KindInternal, "failed to list manifests"))
		return
	}
	jobs := s.refresher.ListJobs()

	out := make([]manifestSummary, 0, len(records))
	for _, rec := range records {
		summary := manifestSummary{
			Service:         rec.Service,
			LastModifiedUtc: rec.LastModifiedUtc,
			Source:          rec.Source,
		}
		if j := latestJobForService(jobs, rec.Service); j != nil {
			summary.DriftScore = j.DriftScore
			summary.LastJobStatus = string(j.Status)
			summary.LastJobAtUtc = j.UpdatedAtUtc
		}
		out = append(out, summary)
	}
	writeJSON(w, http.StatusOK, out)
}

// GET /manifests/{service} — the single record for service.
func (s *Server) handleManifestDetail(w http.ResponseWriter, r *http.Request) {
	service := chi.URLParam(r, "service")
	rec, err := s.manifests.GetManifest(service)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// POST /manifests/{service}/refresh — start a refresh job.
func (s *Server) handleManifestRefresh(w http.ResponseWriter, r *http.Request) {
	service := chi.URLParam(r, "service")

	var body struct {
		Profile   string `json:"profile,omitempty"`
		Notes     string `json:"notes,omitempty"`
		AutoApply *bool  `json:"autoApply,omitempty"`
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, s.log, apperrors.NewValidationError("malformed JSON body").WithDetails(err.Error()))
			return
		}
	}

	job, err := s.refresher.TriggerRefresh(service, manifest.RefreshOptions{
		Profile:   body.Profile,
		Notes:     body.Notes,
		AutoApply: body.AutoApply,
	})
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusAccepted, job)
}

// GET /manifests/jobs/history — every job, newest first.
func (s *Server) handleJobsHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.refresher.ListJobs())
}

// POST /manifests/jobs/{jobId}/approve
func (s *Server) handleJobApprove(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobId")
	job, err := s.refresher.Approve(jobID)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// POST /manifests/jobs/{jobId}/rollback
func (s *Server) handleJobRollback(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobId")
	job, err := s.refresher.Rollback(jobID)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

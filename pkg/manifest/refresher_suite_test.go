package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-logr/logr"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/jordigilh/intentrouter/internal/config"
	"github.com/jordigilh/intentrouter/pkg/telemetry"
)

func TestRefresherLifecycle(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Refresher Lifecycle Suite")
}

var _ = Describe("Refresher", func() {
	var (
		dir       string
		repo      *Repository
		refresher *Refresher
		provider  fixedProvider
		cfg       config.ManifestConfig
	)

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		Expect(os.WriteFile(filepath.Join(dir, "user-authentication-service.yml"), []byte(sampleManifest), 0o644)).To(Succeed())

		repo = NewRepository(dir, filepath.Join(dir, "history"), zap.NewNop())
		cfg = config.ManifestConfig{
			DriftWarningThreshold:  0.4,
			DriftCriticalThreshold: 0.7,
			RefreshProfile:         "balanced",
		}
	})

	Describe("a low-drift refresh", func() {
		BeforeEach(func() {
			provider = fixedProvider{snapshots: map[string]telemetry.Snapshot{
				"user-authentication-service": {
					CPUUtilization: 0.4, MemoryUtilization: 0.3,
					P95LatencyMillis: 150, ErrorRate: 0.001, RequestsPerMinute: 300,
				},
			}}
			cfg.AutoApplyLowRisk = true
			refresher = NewRefresher(repo, provider, cfg, logr.Discard())
		})

		It("auto-applies and persists a history revision", func() {
			job, err := refresher.TriggerRefresh("user-authentication-service", RefreshOptions{})
			Expect(err).NotTo(HaveOccurred())
			Expect(job.Status).To(Equal(JobApplied))
			Expect(job.Risk).To(Equal("low"))

			rec, err := repo.GetManifest("user-authentication-service")
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.Source).To(Equal("generated"))
		})
	})

	Describe("a high-drift refresh", func() {
		BeforeEach(func() {
			provider = fixedProvider{snapshots: map[string]telemetry.Snapshot{
				"user-authentication-service": {
					CPUUtilization: 0.95, MemoryUtilization: 0.9,
					P95LatencyMillis: 2500, ErrorRate: 0.08, RequestsPerMinute: 2000,
				},
			}}
			refresher = NewRefresher(repo, provider, cfg, logr.Discard())
		})

		It("waits for approval and refuses a second approval once applied", func() {
			job, err := refresher.TriggerRefresh("user-authentication-service", RefreshOptions{})
			Expect(err).NotTo(HaveOccurred())
			Expect(job.Status).To(Equal(JobAwaitingApproval))
			Expect(job.ManifestPreview).NotTo(BeNil())

			approved, err := refresher.Approve(job.JobID)
			Expect(err).NotTo(HaveOccurred())
			Expect(approved.Status).To(Equal(JobApplied))

			_, err = refresher.Approve(job.JobID)
			Expect(err).To(HaveOccurred())
		})

		It("cannot be rolled back once applied", func() {
			job, err := refresher.TriggerRefresh("user-authentication-service", RefreshOptions{})
			Expect(err).NotTo(HaveOccurred())

			_, err = refresher.Approve(job.JobID)
			Expect(err).NotTo(HaveOccurred())

			_, err = refresher.Rollback(job.JobID)
			Expect(err).To(HaveOccurred())
		})
	})
})

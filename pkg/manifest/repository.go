package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	fastererrors "github.com/go-faster/errors"
	"go.uber.org/zap"
	"sigs.k8s.io/yaml"

	apperrors "github.com/jordigilh/intentrouter/internal/errors"
)

// Record is the repository's memoized, per-service entry.
type Record struct {
	Service string
	Manifest Manifest
	Source string // "baseline" | "generated"
	LastModifiedUtc time.Time
	FilePath string
}

// Repository is C9: a read-through cache over the manifest directory,
// guarded by a single lock, first reader populates it.
type Repository struct {
	dir string
	historyDir string
	log *zap.Logger

	mu sync.Mutex
	loaded bool
	cache map[string]*Record
}

// NewRepository builds C9 over the given baseline and history directories.
func NewRepository(dir, historyDir string, log *zap.Logger) *Repository {
	return &Repository{
		dir: dir,
		historyDir: historyDir,
		log: log,
		cache: make(map[string]*Record),
	}
}

// ListManifests returns every memoized record, sorted by service name.
func (r *Repository) ListManifests() ([]*Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.ensureLoadedLocked(); err != nil {
		return nil, err
	}

	out := make([]*Record, 0, len(r.cache))
	for _, rec := range r.cache {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Service < out[j].Service })
	return out, nil
}

// GetManifest returns the record for service, or a NotFoundError.
func (r *Repository) GetManifest(service string) (*Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.ensureLoadedLocked(); err != nil {
		return nil, err
	}
	rec, ok := r.cache[service]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("manifest for service %q", service))
	}
	return rec, nil
}

func (r *Repository) ensureLoadedLocked() error {
	if r.loaded {
		return nil
	}

	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if os.IsNotExist(err) {
			r.loaded = true
			return nil
		}
		return fastererrors.Wrap(err, "read manifest dir")
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yml" && ext != ".yaml" {
			continue
		}

		path := filepath.Join(r.dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return fastererrors.Wrapf(err, "read manifest %s", path)
		}

		var m Manifest
		if err := yaml.Unmarshal(data, &m); err != nil {
			return fastererrors.Wrapf(err, "parse manifest %s", path)
		}

		service := m.Metadata.Name
		if service == "" {
			service = strings.TrimSuffix(entry.Name(), ext)
		}

		modTime := time.Now()
		if info, err := entry.Info(); err == nil {
			modTime = info.ModTime()
		}

		r.cache[service] = &Record{
			Service: service,
			Manifest: m,
			Source: "baseline",
			LastModifiedUtc: modTime,
			FilePath: path,
		}
	}

	r.loaded = true
	return nil
}

// SaveRevision writes <service>-<jobId>.yml plus a <service>-<jobId>.meta.json
// metadata sidecar to the history directory, and updates the in-memory
// record to reflect the new generated revision, returning the absolute
// path of the manifest written.
//
// Line width: sigs.k8s.io/yaml (like gopkg.in/yaml.v3) exposes no public
// line-width knob, so the 120-column cap is
// best-effort only — long scalar values (image references, long
// annotation values) may exceed it.
func (r *Repository) SaveRevision(service string, m Manifest, meta RevisionMetadata) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.MkdirAll(r.historyDir, 0o755); err != nil {
		return "", fastererrors.Wrap(err, "ensure history dir")
	}

	data, err := yaml.Marshal(m)
	if err != nil {
		return "", fastererrors.Wrap(err, "marshal manifest revision")
	}

	filename := fmt.Sprintf("%s-%s.yml", service, meta.JobID)
	path := filepath.Join(r.historyDir, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fastererrors.Wrapf(err, "write manifest revision %s", path)
	}

	metaData, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return "", fastererrors.Wrap(err, "marshal revision metadata")
	}
	metaFilename := fmt.Sprintf("%s-%s.meta.json", service, meta.JobID)
	metaPath := filepath.Join(r.historyDir, metaFilename)
	if err := os.WriteFile(metaPath, metaData, 0o644); err != nil {
		return "", fastererrors.Wrapf(err, "write revision metadata %s", metaPath)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	r.cache[service] = &Record{
		Service: service,
		Manifest: m,
		Source: "generated",
		LastModifiedUtc: time.Now(),
		FilePath: abs,
	}

	return abs, nil
}

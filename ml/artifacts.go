package ml

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
)

// ArtifactPaths names the three persisted objects a session needs: the
// fitted model, the ordered feature list defining its column order, and
// the per-feature historical means used as fallback values.
type ArtifactPaths struct {
	Model    string
	Features string
	Means    string
}

// Artifacts is the immutable artifact triple for one session. A model
// without its matching feature list and means is unsafe to use, so the
// three are only ever loaded and replaced together.
type Artifacts struct {
	Model    RegressionModel
	Features []string
	Means    map[string]float64
}

// LoadArtifacts reads the artifact triple from disk. Every missing or
// unreadable file is reported by name; nothing partial is returned.
func LoadArtifacts(paths ArtifactPaths) (*Artifacts, error) {
	var missing []string
	for _, p := range []struct{ name, path string }{
		{"model", paths.Model},
		{"features", paths.Features},
		{"means", paths.Means},
	} {
		if _, err := os.Stat(p.path); err != nil {
			missing = append(missing, fmt.Sprintf("%s (%s)", p.name, p.path))
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing artifacts: %s", strings.Join(missing, ", "))
	}

	model := &LinearModel{}
	if err := model.Load(paths.Model); err != nil {
		return nil, fmt.Errorf("load model artifact: %w", err)
	}

	features, err := loadFeatureList(paths.Features)
	if err != nil {
		return nil, fmt.Errorf("load features artifact: %w", err)
	}

	means, err := loadMeans(paths.Means)
	if err != nil {
		return nil, fmt.Errorf("load means artifact: %w", err)
	}

	if model.NumFeatures() != len(features) {
		return nil, fmt.Errorf("model expects %d features but feature list has %d", model.NumFeatures(), len(features))
	}

	return &Artifacts{
		Model:    model,
		Features: features,
		Means:    means,
	}, nil
}

func loadFeatureList(path string) ([]string, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var features []string
	if err := json.Unmarshal(payload, &features); err != nil {
		return nil, err
	}
	if len(features) == 0 {
		return nil, fmt.Errorf("feature list is empty")
	}
	seen := make(map[string]bool, len(features))
	for _, name := range features {
		if seen[name] {
			return nil, fmt.Errorf("duplicate feature %q", name)
		}
		seen[name] = true
	}
	return features, nil
}

func loadMeans(path string) (map[string]float64, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var means map[string]float64
	if err := json.Unmarshal(payload, &means); err != nil {
		return nil, err
	}
	return means, nil
}

// ArtifactStore holds the current artifact snapshot for the session.
// Handlers read a consistent snapshot; Reload swaps the whole triple
// atomically so readers never see a model paired with a stale feature
// list.
type ArtifactStore struct {
	mu      sync.RWMutex
	paths   ArtifactPaths
	current *Artifacts
	version uint64
}

// NewArtifactStore loads the artifacts eagerly and fails the session if
// any of them is absent.
func NewArtifactStore(paths ArtifactPaths) (*ArtifactStore, error) {
	artifacts, err := LoadArtifacts(paths)
	if err != nil {
		return nil, err
	}
	return &ArtifactStore{paths: paths, current: artifacts}, nil
}

// NewStaticArtifactStore wraps an already-built artifact triple. Useful
// when the artifacts come from somewhere other than the filesystem;
// Reload fails and leaves the snapshot in place.
func NewStaticArtifactStore(artifacts *Artifacts) *ArtifactStore {
	return &ArtifactStore{current: artifacts}
}

// Snapshot returns the current artifact triple.
func (s *ArtifactStore) Snapshot() *Artifacts {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// SnapshotVersion returns the current triple together with the version
// it was loaded under. Callers keying caches by version must use this
// instead of separate Snapshot and Version calls, which a concurrent
// reload could interleave.
func (s *ArtifactStore) SnapshotVersion() (*Artifacts, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.version
}

// Version counts reloads. Cached prediction results keyed by version
// become unreachable as soon as new artifacts land.
func (s *ArtifactStore) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Reload re-reads the artifacts from disk. On failure the previous
// snapshot stays in place.
func (s *ArtifactStore) Reload() error {
	artifacts, err := LoadArtifacts(s.paths)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.current = artifacts
	s.version++
	s.mu.Unlock()
	return nil
}

// Paths returns the artifact file locations the store was built from.
func (s *ArtifactStore) Paths() ArtifactPaths {
	return s.paths
}

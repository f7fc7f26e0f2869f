package ml

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeArtifacts(t *testing.T, dir, model, features, means string) ArtifactPaths {
	t.Helper()
	paths := ArtifactPaths{
		Model:    filepath.Join(dir, "model.json"),
		Features: filepath.Join(dir, "features.json"),
		Means:    filepath.Join(dir, "means.json"),
	}
	for _, f := range []struct{ path, payload string }{
		{paths.Model, model},
		{paths.Features, features},
		{paths.Means, means},
	} {
		if err := os.WriteFile(f.path, []byte(f.payload), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	return paths
}

func validPaths(t *testing.T, dir string) ArtifactPaths {
	return writeArtifacts(t, dir,
		`{"model_type":"linear_regression","intercept":1,"coefficients":[0.5,2]}`,
		`["Views","Subscribers"]`,
		`{"Views":1000,"Subscribers":50}`,
	)
}

func TestLoadArtifacts(t *testing.T) {
	paths := validPaths(t, t.TempDir())

	artifacts, err := LoadArtifacts(paths)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(artifacts.Features) != 2 {
		t.Fatalf("expected 2 features, got %d", len(artifacts.Features))
	}
	if artifacts.Means["Views"] != 1000 {
		t.Fatalf("unexpected means: %v", artifacts.Means)
	}

	got, err := artifacts.Model.Predict(MeansVector(artifacts.Features, artifacts.Means))
	if err != nil {
		t.Fatalf("predict failed: %v", err)
	}
	want := 1 + 0.5*1000 + 2*50
	if got != want {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestLoadArtifactsMissingFiles(t *testing.T) {
	paths := validPaths(t, t.TempDir())
	if err := os.Remove(paths.Means); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(paths.Model); err != nil {
		t.Fatal(err)
	}

	_, err := LoadArtifacts(paths)
	if err == nil {
		t.Fatal("expected error for missing artifacts")
	}
	if !strings.Contains(err.Error(), "model") || !strings.Contains(err.Error(), "means") {
		t.Fatalf("error should name every missing artifact: %v", err)
	}
	if strings.Contains(err.Error(), "features (") {
		t.Fatalf("error should not name present artifacts: %v", err)
	}
}

func TestLoadArtifactsFeatureCountMismatch(t *testing.T) {
	paths := writeArtifacts(t, t.TempDir(),
		`{"model_type":"linear_regression","intercept":0,"coefficients":[1,2,3]}`,
		`["Views","Subscribers"]`,
		`{"Views":1000}`,
	)

	if _, err := LoadArtifacts(paths); err == nil {
		t.Fatal("expected error for coefficient/feature count mismatch")
	}
}

func TestLoadArtifactsDuplicateFeature(t *testing.T) {
	paths := writeArtifacts(t, t.TempDir(),
		`{"model_type":"linear_regression","intercept":0,"coefficients":[1,2]}`,
		`["Views","Views"]`,
		`{"Views":1000}`,
	)

	if _, err := LoadArtifacts(paths); err == nil {
		t.Fatal("expected error for duplicate feature name")
	}
}

func TestArtifactStoreReload(t *testing.T) {
	dir := t.TempDir()
	paths := validPaths(t, dir)

	store, err := NewArtifactStore(paths)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.Version() != 0 {
		t.Fatalf("expected version 0, got %d", store.Version())
	}

	// New artifacts land, reload picks them up.
	writeArtifacts(t, dir,
		`{"model_type":"linear_regression","intercept":0,"coefficients":[1,1,1]}`,
		`["Views","Subscribers","Likes"]`,
		`{"Views":10,"Subscribers":20,"Likes":30}`,
	)
	if err := store.Reload(); err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if store.Version() != 1 {
		t.Fatalf("expected version 1, got %d", store.Version())
	}
	if len(store.Snapshot().Features) != 3 {
		t.Fatalf("snapshot not updated: %v", store.Snapshot().Features)
	}
}

func TestArtifactStoreSnapshotVersion(t *testing.T) {
	dir := t.TempDir()
	paths := validPaths(t, dir)

	store, err := NewArtifactStore(paths)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snapshot, version := store.SnapshotVersion()
	if version != 0 || len(snapshot.Features) != 2 {
		t.Fatalf("expected version 0 with 2 features, got %d with %v", version, snapshot.Features)
	}

	writeArtifacts(t, dir,
		`{"model_type":"linear_regression","intercept":0,"coefficients":[1,1,1]}`,
		`["Views","Subscribers","Likes"]`,
		`{"Views":10,"Subscribers":20,"Likes":30}`,
	)
	if err := store.Reload(); err != nil {
		t.Fatalf("reload failed: %v", err)
	}

	// One locked read returns the new triple and its version together.
	snapshot, version = store.SnapshotVersion()
	if version != 1 || len(snapshot.Features) != 3 {
		t.Fatalf("expected version 1 with 3 features, got %d with %v", version, snapshot.Features)
	}
}

func TestArtifactStoreReloadFailureKeepsSnapshot(t *testing.T) {
	dir := t.TempDir()
	paths := validPaths(t, dir)

	store, err := NewArtifactStore(paths)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := os.WriteFile(paths.Features, []byte("not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := store.Reload(); err == nil {
		t.Fatal("expected reload error")
	}
	if len(store.Snapshot().Features) != 2 {
		t.Fatal("failed reload should keep the previous snapshot")
	}
	if store.Version() != 0 {
		t.Fatalf("failed reload should not bump version, got %d", store.Version())
	}
}

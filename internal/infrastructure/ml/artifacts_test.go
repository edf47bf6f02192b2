package ml

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MoeApps/AcademIQ/internal/domain/features"
	"github.com/MoeApps/AcademIQ/internal/domain/risk"
)

func validArtifacts() *risk.Artifacts {
	scale := make([]float64, features.Count)
	for i := range scale {
		scale[i] = 1
	}
	centroid := func(v float64) []float64 {
		c := make([]float64, features.Count)
		c[0] = v
		return c
	}
	return &risk.Artifacts{
		FeatureOrder: features.Order(),
		Mean:         make([]float64, features.Count),
		Scale:        scale,
		Centroids:    [][]float64{centroid(0), centroid(10), centroid(20)},
		TrainedAt:    time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
	}
}

func TestArtifactStore_SaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model", "artifacts.json")
	store := NewArtifactStore(path)

	saved := validArtifacts()
	require.NoError(t, store.Save(saved))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, saved.FeatureOrder, loaded.FeatureOrder)
	assert.Equal(t, saved.Centroids, loaded.Centroids)
	assert.Equal(t, saved.Scale, loaded.Scale)
	assert.True(t, saved.TrainedAt.Equal(loaded.TrainedAt))
}

func TestArtifactStore_LoadMissingFile(t *testing.T) {
	store := NewArtifactStore(filepath.Join(t.TempDir(), "absent.json"))

	_, err := store.Load()
	assert.ErrorIs(t, err, ErrArtifactsNotFound)
}

func TestArtifactStore_LoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "artifacts.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := NewArtifactStore(path).Load()
	assert.ErrorIs(t, err, risk.ErrArtifactsInvalid)
}

func TestArtifactStore_LoadRejectsInvalidArtifacts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "artifacts.json")
	// Well-formed JSON that fails domain validation: no centroids.
	require.NoError(t, os.WriteFile(path, []byte(`{"feature_order":[],"mean":[],"scale":[],"centroids":[]}`), 0o644))

	_, err := NewArtifactStore(path).Load()
	assert.Error(t, err)
}

func TestArtifactStore_SaveRejectsInvalidArtifacts(t *testing.T) {
	store := NewArtifactStore(filepath.Join(t.TempDir(), "artifacts.json"))

	broken := validArtifacts()
	broken.Centroids = nil
	assert.Error(t, store.Save(broken))

	_, statErr := os.Stat(store.Path())
	assert.True(t, os.IsNotExist(statErr))
}

func TestArtifactStore_SaveReplacesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "artifacts.json")
	store := NewArtifactStore(path)

	first := validArtifacts()
	require.NoError(t, store.Save(first))

	second := validArtifacts()
	second.Centroids = second.Centroids[:2]
	require.NoError(t, store.Save(second))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Len(t, loaded.Centroids, 2)
}

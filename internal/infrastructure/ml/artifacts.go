// Package ml implements infrastructure around the trained risk model:
// artifact storage on disk and the cached classified population that
// explanation and recommendation reads are served from.
package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/MoeApps/AcademIQ/internal/domain/risk"
)

// ══════════════════════════════════════════════════════════════════════════════
// ARTIFACT STORE
// ══════════════════════════════════════════════════════════════════════════════

// ErrArtifactsNotFound is returned when the artifact file does not exist.
// A fresh deployment without a trained model is a normal state, not a
// failure: the API starts with scoring unavailable.
var ErrArtifactsNotFound = errors.New("ml: artifact file not found")

// ArtifactStore reads and writes trained model artifacts as a JSON file.
// The trainer writes, the API reads. The file is replaced atomically so
// a reader never observes a half-written artifact.
type ArtifactStore struct {
	path string
}

// NewArtifactStore creates an ArtifactStore for the given file path.
func NewArtifactStore(path string) *ArtifactStore {
	return &ArtifactStore{path: path}
}

// Path returns the artifact file path.
func (s *ArtifactStore) Path() string {
	return s.path
}

// Load reads and validates artifacts from disk.
func (s *ArtifactStore) Load() (*risk.Artifacts, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrArtifactsNotFound
		}
		return nil, fmt.Errorf("ml: failed to read artifacts: %w", err)
	}

	var artifacts risk.Artifacts
	if err := json.Unmarshal(data, &artifacts); err != nil {
		return nil, fmt.Errorf("%w: %v", risk.ErrArtifactsInvalid, err)
	}

	if err := artifacts.Validate(); err != nil {
		return nil, err
	}

	return &artifacts, nil
}

// Save validates and writes artifacts to disk.
// The write goes through a temp file plus rename.
func (s *ArtifactStore) Save(artifacts *risk.Artifacts) error {
	if err := artifacts.Validate(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(artifacts, "", "  ")
	if err != nil {
		return fmt.Errorf("ml: failed to marshal artifacts: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ml: failed to create artifact directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".artifacts-*.json")
	if err != nil {
		return fmt.Errorf("ml: failed to create temp artifact file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("ml: failed to write artifacts: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("ml: failed to close artifact file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("ml: failed to replace artifact file: %w", err)
	}

	return nil
}

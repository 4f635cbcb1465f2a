package index

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// ManifestFile is written next to every persisted index.
const ManifestFile = "index.json"

// Manifest describes a persisted index.
type Manifest struct {
	Backend    Backend   `json:"backend"`
	Model      string    `json:"model"`
	Dimensions int       `json:"dimensions"`
	Count      int       `json:"count"`
	CreatedAt  time.Time `json:"created_at"`
}

// WriteManifest writes m to location.
func WriteManifest(location string, m Manifest) error {
	if err := os.MkdirAll(location, 0o755); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(location, ManifestFile), data, 0o644); err != nil {
		return fmt.Errorf("failed to write index manifest: %w", err)
	}
	return nil
}

// ReadManifest reads the manifest at location and checks that it was
// written by backend and, when dimensions is set, with that vector size.
func ReadManifest(location string, backend Backend, dimensions int) (Manifest, error) {
	path := filepath.Join(location, ManifestFile)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Manifest{}, fmt.Errorf("%w: %s is missing", ErrNotBuilt, path)
	}
	if err != nil {
		return Manifest{}, fmt.Errorf("failed to read index manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("failed to parse index manifest: %w", err)
	}
	if m.Backend != backend {
		return Manifest{}, fmt.Errorf("index at %s was built with backend %q, not %q", location, m.Backend, backend)
	}
	if dimensions > 0 && m.Dimensions > 0 && m.Dimensions != dimensions {
		return Manifest{}, fmt.Errorf("index at %s has dimension %d, embedder has %d", location, m.Dimensions, dimensions)
	}
	return m, nil
}

func newManifest(opts Options, backend Backend, records []record) Manifest {
	dim := opts.Dimensions
	if len(records) > 0 {
		dim = len(records[0].Vector)
	}
	return Manifest{
		Backend:    backend,
		Model:      opts.Model,
		Dimensions: dim,
		Count:      len(records),
		CreatedAt:  time.Now().UTC(),
	}
}

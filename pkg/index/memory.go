package index

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/docgraph/docgraph/pkg/common"
	"github.com/docgraph/docgraph/pkg/logger"
)

// EmbeddingsFile holds the vectors of a memory index.
const EmbeddingsFile = "embeddings.json"

// MemoryIndex is a flat in-memory index searched by brute force. It is
// persisted as a JSON snapshot.
type MemoryIndex struct {
	opts Options

	mu      sync.RWMutex
	records []record
	built   bool
}

// NewMemoryIndex creates an empty memory index.
func NewMemoryIndex(opts Options) *MemoryIndex {
	return &MemoryIndex{opts: opts}
}

func (m *MemoryIndex) Index(ctx context.Context, fragments []common.Fragment) error {
	records, err := embedFragments(ctx, m.opts, fragments)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.records = records
	m.built = true
	m.mu.Unlock()

	logger.Info("[Index] Indexed fragments", "backend", BackendMemory, "count", len(records))
	return nil
}

func (m *MemoryIndex) Save(ctx context.Context, location string) error {
	m.mu.RLock()
	records := m.records
	m.mu.RUnlock()

	if err := os.MkdirAll(location, 0o755); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to encode embeddings: %w", err)
	}
	if err := os.WriteFile(filepath.Join(location, EmbeddingsFile), data, 0o644); err != nil {
		return fmt.Errorf("failed to write embeddings: %w", err)
	}
	return WriteManifest(location, newManifest(m.opts, BackendMemory, records))
}

func (m *MemoryIndex) Load(ctx context.Context, location string) error {
	if _, err := ReadManifest(location, BackendMemory, m.opts.Dimensions); err != nil {
		return err
	}

	path := filepath.Join(location, EmbeddingsFile)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s is missing", ErrNotBuilt, path)
	}
	if err != nil {
		return fmt.Errorf("failed to read embeddings: %w", err)
	}
	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("failed to parse embeddings: %w", err)
	}

	m.mu.Lock()
	m.records = records
	m.built = true
	m.mu.Unlock()
	return nil
}

func (m *MemoryIndex) Search(ctx context.Context, query string, limit int) ([]Hit, error) {
	m.mu.RLock()
	records, built := m.records, m.built
	m.mu.RUnlock()
	if !built {
		return nil, ErrNotBuilt
	}

	vec, err := embedQuery(ctx, m.opts, query)
	if err != nil {
		return nil, err
	}
	return searchRecords(records, vec, limit), nil
}

func (m *MemoryIndex) Close() error {
	return nil
}

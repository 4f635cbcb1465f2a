package index

import (
	"context"
	"errors"
	"fmt"

	"github.com/docgraph/docgraph/pkg/ai"
	"github.com/docgraph/docgraph/pkg/common"
)

var (
	// ErrNotBuilt is returned when an index is loaded from a location that
	// holds no manifest or searched before anything was indexed.
	ErrNotBuilt = errors.New("semantic index not built")
	// ErrUnknownBackend is returned by New for an unrecognized backend.
	ErrUnknownBackend = errors.New("unknown index backend")
)

// Backend names a SemanticIndex implementation.
type Backend string

const (
	BackendSQLite   Backend = "sqlite"
	BackendMemory   Backend = "memory"
	BackendPgvector Backend = "pgvector"
)

const (
	defaultBatchSize = 64
	defaultTable     = "fragment_embeddings"
)

// Hit is one search result.
type Hit struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
	Text  string  `json:"text"`
}

// SemanticIndex embeds fragment text and answers nearest-neighbour
// queries. Index replaces the previous contents. Save and Load persist the
// index at a location (a directory); Load of a location without a manifest
// fails with ErrNotBuilt.
type SemanticIndex interface {
	Index(ctx context.Context, fragments []common.Fragment) error
	Save(ctx context.Context, location string) error
	Load(ctx context.Context, location string) error
	Search(ctx context.Context, query string, limit int) ([]Hit, error)
	Close() error
}

// Options configures a SemanticIndex.
type Options struct {
	Backend  Backend
	Embedder ai.Embedder
	// Model is recorded in the manifest.
	Model string
	// Dimensions is checked against the manifest on Load when set.
	Dimensions int
	// BatchSize is the number of fragments per embedding request.
	BatchSize int
	// Parallel bounds concurrent requests for embedders without batching.
	Parallel int

	// DatabaseURL and Table configure the pgvector backend.
	DatabaseURL string
	Table       string
}

// New creates the SemanticIndex selected by opts.Backend. An empty backend
// selects sqlite.
func New(ctx context.Context, opts Options) (SemanticIndex, error) {
	if opts.Embedder == nil {
		return nil, fmt.Errorf("index requires an embedder")
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}

	switch opts.Backend {
	case BackendSQLite, "":
		return NewSQLiteIndex(opts), nil
	case BackendMemory:
		return NewMemoryIndex(opts), nil
	case BackendPgvector:
		return NewPgvectorIndex(ctx, opts)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
	}
}

type record struct {
	ID     string    `json:"id"`
	Text   string    `json:"text"`
	Vector []float32 `json:"vector"`
}

// embedFragments embeds the text of every fragment in order. Fragments
// sharing an ID are embedded once; the first occurrence wins.
func embedFragments(ctx context.Context, opts Options, fragments []common.Fragment) ([]record, error) {
	seen := make(map[string]struct{}, len(fragments))
	records := make([]record, 0, len(fragments))
	for _, f := range fragments {
		if _, ok := seen[f.ID]; ok {
			continue
		}
		seen[f.ID] = struct{}{}
		records = append(records, record{ID: f.ID, Text: f.Text})
	}

	inputs := make([][]byte, len(records))
	for i, r := range records {
		inputs[i] = []byte(r.Text)
	}
	vectors, err := ai.GenerateEmbeddings(ctx, opts.Embedder, inputs, opts.BatchSize, opts.Parallel)
	if err != nil {
		return nil, fmt.Errorf("failed to embed fragments: %w", err)
	}
	for i := range records {
		records[i].Vector = vectors[i]
	}
	return records, nil
}

func embedQuery(ctx context.Context, opts Options, query string) ([]float32, error) {
	vec, err := opts.Embedder.GenerateEmbedding(ctx, []byte(query))
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	return vec, nil
}

package file

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/docgraph/docgraph/pkg/common"
	"github.com/docgraph/docgraph/pkg/graph"
	"github.com/docgraph/docgraph/pkg/store"
)

const (
	GraphFile     = "graph.json"
	SummariesFile = "mapped.json"
	FragmentsFile = "hashmaps/chunk_map.json"
)

// FileGraphStorage stores the corpus artifacts as indented JSON files below
// a data directory.
type FileGraphStorage struct {
	dir string
}

// NewFileGraphStorage returns a storage rooted at dir.
func NewFileGraphStorage(dir string) *FileGraphStorage {
	return &FileGraphStorage{dir: dir}
}

// Path returns the location of the named artifact.
func (s *FileGraphStorage) Path(name string) string {
	return filepath.Join(s.dir, filepath.FromSlash(name))
}

func (s *FileGraphStorage) SaveGraph(ctx context.Context, g *graph.Graph) error {
	return s.write(GraphFile, g)
}

func (s *FileGraphStorage) LoadGraph(ctx context.Context) (*graph.Graph, error) {
	g := graph.New()
	if err := s.read(GraphFile, g); err != nil {
		return nil, err
	}
	return g, nil
}

func (s *FileGraphStorage) SaveSummaries(ctx context.Context, summaries []common.Summary) error {
	if summaries == nil {
		summaries = []common.Summary{}
	}
	return s.write(SummariesFile, summaries)
}

func (s *FileGraphStorage) LoadSummaries(ctx context.Context) ([]common.Summary, error) {
	var out []common.Summary
	if err := s.read(SummariesFile, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *FileGraphStorage) SaveFragments(ctx context.Context, fragments common.FragmentMap) error {
	if fragments == nil {
		fragments = common.FragmentMap{}
	}
	return s.write(FragmentsFile, fragments)
}

func (s *FileGraphStorage) LoadFragments(ctx context.Context) (common.FragmentMap, error) {
	out := common.FragmentMap{}
	if err := s.read(FragmentsFile, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// write encodes v and replaces the artifact atomically.
func (s *FileGraphStorage) write(name string, v any) error {
	path := s.Path(name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", name, err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", name, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", name, err)
	}
	return nil
}

func (s *FileGraphStorage) read(name string, v any) error {
	path := s.Path(name)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s is missing", store.ErrNotBuilt, path)
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

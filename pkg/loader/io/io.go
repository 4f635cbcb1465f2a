package io

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/docgraph/docgraph/pkg/loader"

	"golang.org/x/sync/singleflight"
)

// IOGraphFileLoader loads files directly from the local filesystem with
// caching. It also lists the PDFs of a directory as a GraphFileSource.
type IOGraphFileLoader struct {
	dir string

	cache   map[string][]byte
	cacheMu sync.RWMutex
	group   singleflight.Group
}

// NewIOGraphFileLoader creates a new filesystem-based file loader rooted at
// dir. dir is only used by ListFiles.
func NewIOGraphFileLoader(dir string) *IOGraphFileLoader {
	return &IOGraphFileLoader{
		dir:   dir,
		cache: make(map[string][]byte),
	}
}

// GetFileContent reads the file content from the filesystem. Results are cached.
func (l *IOGraphFileLoader) GetFileContent(ctx context.Context, file loader.GraphFile) ([]byte, error) {
	key := loader.CacheKey(file)

	l.cacheMu.RLock()
	if cached, ok := l.cache[key]; ok {
		l.cacheMu.RUnlock()
		return cached, nil
	}
	l.cacheMu.RUnlock()

	result, err, _ := l.group.Do(key, func() (any, error) {
		l.cacheMu.RLock()
		if cached, ok := l.cache[key]; ok {
			l.cacheMu.RUnlock()
			return cached, nil
		}
		l.cacheMu.RUnlock()

		result, err := os.ReadFile(file.FilePath)
		if err != nil {
			return nil, err
		}

		l.cacheMu.Lock()
		l.cache[key] = result
		l.cacheMu.Unlock()

		return result, nil
	})
	if err != nil {
		return nil, err
	}

	return result.([]byte), nil
}

// Release implements loader.Releaser.
func (l *IOGraphFileLoader) Release(file loader.GraphFile) {
	l.cacheMu.Lock()
	delete(l.cache, loader.CacheKey(file))
	l.cacheMu.Unlock()
}

// ListFiles returns every *.pdf file directly inside the loader directory,
// sorted by name. A missing directory yields no files.
func (l *IOGraphFileLoader) ListFiles(ctx context.Context, maxTokens int) ([]loader.GraphFile, error) {
	entries, err := os.ReadDir(l.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", l.dir, err)
	}

	files := make([]loader.GraphFile, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", entry.Name(), err)
		}
		path := filepath.Join(l.dir, entry.Name())
		files = append(files, loader.NewGraphDocumentFile(loader.NewGraphFileParams{
			ID:        path,
			FilePath:  path,
			Size:      info.Size(),
			MaxTokens: maxTokens,
			Loader:    l,
		}))
	}

	sort.Slice(files, func(i, j int) bool { return files[i].FilePath < files[j].FilePath })
	return files, nil
}

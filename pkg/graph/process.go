package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/docgraph/docgraph/pkg/common"
	"github.com/docgraph/docgraph/pkg/loader"
	"github.com/docgraph/docgraph/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// Corpus is the merged output of a corpus run.
type Corpus struct {
	Graph     *Graph
	Summaries []common.Summary
	// Fragments holds every fragment once, in document order.
	Fragments []common.Fragment
	// Failed lists the files that could not be built.
	Failed []string
}

// FragmentMap indexes the corpus fragments by ID.
func (c *Corpus) FragmentMap() common.FragmentMap {
	m := make(common.FragmentMap, len(c.Fragments))
	for _, f := range c.Fragments {
		m.Add(f)
	}
	return m
}

// ProcessCorpus builds every file and merges the results in the order of
// files. Documents are built in parallel; merging is serial. A document
// that fails to build is logged, recorded in Corpus.Failed and skipped.
// Only context cancellation aborts the run.
func (g *GraphClient) ProcessCorpus(ctx context.Context, files []loader.GraphFile) (*Corpus, error) {
	results := make([]*Result, len(files))

	eg, gCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.parallelFiles)

	logger.Info("[Graph] Processing", "total_files", len(files), "parallel", g.parallelFiles)
	start := time.Now()

	for i, file := range files {
		eg.Go(func() error {
			if gCtx.Err() != nil {
				return gCtx.Err()
			}

			logger.Debug("[Graph] Building document", "file", file.Name)
			result, err := g.builder.BuildDocument(gCtx, file)
			if err != nil {
				if gCtx.Err() != nil {
					return gCtx.Err()
				}
				logger.Error("[Graph] Failed to build document, skipping", "file", file.Name, "err", err)
				return nil
			}
			results[i] = result
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("failed to process files: %w", err)
	}

	corpus := &Corpus{
		Graph:     New(),
		Summaries: make([]common.Summary, 0, len(files)),
	}
	seen := make(map[string]struct{})
	for i, result := range results {
		if result == nil {
			corpus.Failed = append(corpus.Failed, files[i].Name)
			continue
		}
		corpus.Graph.Merge(result.Graph)
		corpus.Summaries = append(corpus.Summaries, result.Summary)
		for _, f := range result.Fragments {
			if _, ok := seen[f.ID]; ok {
				continue
			}
			seen[f.ID] = struct{}{}
			corpus.Fragments = append(corpus.Fragments, f)
		}
	}

	logger.Info("[Graph] Files processed",
		"documents", len(corpus.Summaries),
		"failed", len(corpus.Failed),
		"nodes", corpus.Graph.NodeCount(),
		"edges", corpus.Graph.EdgeCount(),
		"fragments", len(corpus.Fragments),
		"duration", time.Since(start).Round(time.Millisecond),
	)

	return corpus, nil
}

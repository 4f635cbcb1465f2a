package app

import (
	"context"
	"fmt"
	"time"

	"github.com/docgraph/docgraph/internal/config"
	"github.com/docgraph/docgraph/pkg/ai"
	"github.com/docgraph/docgraph/pkg/graph"
	"github.com/docgraph/docgraph/pkg/index"
	"github.com/docgraph/docgraph/pkg/loader"
	"github.com/docgraph/docgraph/pkg/logger"
	"github.com/docgraph/docgraph/pkg/store"
	"github.com/docgraph/docgraph/pkg/store/file"
)

// Pipeline turns a document source into the persisted graph, summaries,
// fragment map and semantic index.
type Pipeline struct {
	Source    loader.GraphFileSource
	Graph     *graph.GraphClient
	Storage   store.GraphStorage
	Index     index.SemanticIndex
	IndexDir  string
	MaxTokens int
}

// Report describes a finished indexing run.
type Report struct {
	Documents int      `json:"documents"`
	Failed    []string `json:"failed,omitempty"`
	Nodes     int      `json:"nodes"`
	Edges     int      `json:"edges"`
	Fragments int      `json:"fragments"`
	IndexDir  string   `json:"index_dir"`
}

// Run executes the pipeline. Artifacts are written only after every
// document has been built.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	start := time.Now()

	files, err := p.Source.ListFiles(ctx, p.MaxTokens)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	if len(files) == 0 {
		logger.Warn("[Index] No documents found")
	}

	corpus, err := p.Graph.ProcessCorpus(ctx, files)
	if err != nil {
		return nil, err
	}

	if err := p.Storage.SaveGraph(ctx, corpus.Graph); err != nil {
		return nil, fmt.Errorf("failed to save graph: %w", err)
	}
	if err := p.Storage.SaveSummaries(ctx, corpus.Summaries); err != nil {
		return nil, fmt.Errorf("failed to save summaries: %w", err)
	}
	if err := p.Storage.SaveFragments(ctx, corpus.FragmentMap()); err != nil {
		return nil, fmt.Errorf("failed to save fragments: %w", err)
	}

	logger.Info("[Index] Embedding fragments", "fragments", len(corpus.Fragments))
	if err := p.Index.Index(ctx, corpus.Fragments); err != nil {
		return nil, fmt.Errorf("failed to index fragments: %w", err)
	}
	if err := p.Index.Save(ctx, p.IndexDir); err != nil {
		return nil, fmt.Errorf("failed to save index: %w", err)
	}

	report := &Report{
		Documents: len(corpus.Summaries),
		Failed:    corpus.Failed,
		Nodes:     corpus.Graph.NodeCount(),
		Edges:     corpus.Graph.EdgeCount(),
		Fragments: len(corpus.Fragments),
		IndexDir:  p.IndexDir,
	}
	logger.Info("[Index] Done",
		"documents", report.Documents,
		"failed", len(report.Failed),
		"index", p.IndexDir,
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return report, nil
}

// RunIndex builds every component from cfg and runs the indexing pipeline.
func RunIndex(ctx context.Context, cfg *config.Config) (*Report, error) {
	source, err := NewSource(ctx, cfg)
	if err != nil {
		return nil, err
	}
	embedder, err := NewEmbedder(cfg)
	if err != nil {
		return nil, err
	}
	idx, err := index.New(ctx, IndexOptions(cfg, embedder))
	if err != nil {
		return nil, err
	}
	defer idx.Close()

	storage := NewStorage(cfg)
	p := &Pipeline{
		Source: source,
		Graph: graph.NewGraphClient(graph.NewGraphClientParams{
			Builder:       graph.NewBuilder(NewExtractor(cfg), nil),
			ParallelFiles: cfg.ParallelFiles,
		}),
		Storage:   storage,
		Index:     idx,
		IndexDir:  cfg.IndexDir,
		MaxTokens: cfg.MaxTokens,
	}

	report, err := p.Run(ctx)
	if err != nil {
		return nil, err
	}

	logger.Info("[Index] Artifacts written",
		"graph", storage.Path(file.GraphFile),
		"summaries", storage.Path(file.SummariesFile),
		"fragments", storage.Path(file.FragmentsFile),
		"index", cfg.IndexDir,
	)
	logMetrics(embedder)
	return report, nil
}

func logMetrics(embedder ai.Embedder) {
	client, ok := embedder.(ai.GraphAIClient)
	if !ok {
		return
	}
	m := client.GetMetrics()
	logger.Info("[Index] AI Metrics",
		"input_tokens", m.InputTokens,
		"total_tokens", m.TotalTokens,
		"duration", (time.Duration(m.DurationMs) * time.Millisecond).Round(time.Second),
	)
}

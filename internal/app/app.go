package app

import (
	"context"
	"fmt"

	"github.com/docgraph/docgraph/internal/config"
	"github.com/docgraph/docgraph/pkg/ai"
	"github.com/docgraph/docgraph/pkg/ai/local"
	oai "github.com/docgraph/docgraph/pkg/ai/ollama"
	gai "github.com/docgraph/docgraph/pkg/ai/openai"
	"github.com/docgraph/docgraph/pkg/index"
	"github.com/docgraph/docgraph/pkg/loader"
	lio "github.com/docgraph/docgraph/pkg/loader/io"
	"github.com/docgraph/docgraph/pkg/loader/pdf"
	ls3 "github.com/docgraph/docgraph/pkg/loader/s3"
	"github.com/docgraph/docgraph/pkg/logger"
	"github.com/docgraph/docgraph/pkg/logger/console"
	"github.com/docgraph/docgraph/pkg/query"
	"github.com/docgraph/docgraph/pkg/store"
	"github.com/docgraph/docgraph/pkg/store/file"
)

// InitLogger installs the console logger described by cfg.
func InitLogger(cfg *config.Config) {
	logger.Init(console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug:  cfg.Debug,
		Format: cfg.LogFormat,
	}))
}

// NewSource returns the document source selected by PDF_SOURCE.
func NewSource(ctx context.Context, cfg *config.Config) (loader.GraphFileSource, error) {
	switch cfg.PDFSource {
	case config.SourceS3:
		source, err := ls3.NewS3GraphFileLoader(ctx, ls3.NewS3GraphFileLoaderParams{
			Bucket:    cfg.S3.Bucket,
			Prefix:    cfg.S3.Prefix,
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
		})
		if err != nil {
			return nil, err
		}
		return source, nil
	case config.SourceLocal, "":
		return lio.NewIOGraphFileLoader(cfg.PDFDir), nil
	default:
		return nil, fmt.Errorf("%w: PDF_SOURCE=%q", config.ErrUnknownValue, cfg.PDFSource)
	}
}

// NewExtractor returns the PDF extractor.
func NewExtractor(cfg *config.Config) loader.DocumentExtractor {
	return pdf.NewPDFExtractor(pdf.NewPDFExtractorParams{
		MinParagraph: cfg.MinParagraph,
	})
}

// NewAIClient returns the chat client selected by AI_ADAPTER.
func NewAIClient(cfg *config.Config) (ai.GraphAIClient, error) {
	switch cfg.AI.Adapter {
	case config.AdapterOllama:
		client, err := oai.NewGraphOllamaClient(oai.NewGraphOllamaClientParams{
			EmbeddingModel: cfg.AI.EmbedModel,
			ChatModel:      cfg.AI.ChatModel,
			Dimensions:     cfg.AI.EmbedDim,

			BaseURL: cfg.AI.ChatURL,
			ApiKey:  cfg.AI.ChatKey,

			MaxConcurrentRequests: int64(cfg.AI.ParallelReq),
			Timeout:               cfg.QueryTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create ollama client: %w", err)
		}
		return client, nil
	case config.AdapterOpenAI:
		return gai.NewGraphOpenAIClient(gai.NewGraphOpenAIClientParams{
			EmbeddingModel: cfg.AI.EmbedModel,
			ChatModel:      cfg.AI.ChatModel,
			Dimensions:     cfg.AI.EmbedDim,

			EmbeddingURL: cfg.AI.EmbedURL,
			EmbeddingKey: cfg.AI.EmbedKey,
			ChatURL:      cfg.AI.ChatURL,
			ChatKey:      cfg.AI.ChatKey,

			MaxConcurrentRequests: int64(cfg.AI.ParallelReq),
			Timeout:               cfg.QueryTimeout,
		}), nil
	default:
		return nil, fmt.Errorf("%w: AI_ADAPTER=%q", config.ErrUnknownValue, cfg.AI.Adapter)
	}
}

// NewEmbedder returns the embedder selected by AI_EMBED_ADAPTER.
func NewEmbedder(cfg *config.Config) (ai.Embedder, error) {
	switch cfg.AI.EmbedAdapter {
	case config.AdapterLocal:
		dim := cfg.AI.EmbedDim
		if dim == 0 {
			dim = local.DefaultDimensions
		}
		embedder, err := local.NewLocalEmbedder(dim)
		if err != nil {
			return nil, err
		}
		return embedder, nil
	case config.AdapterOllama:
		client, err := oai.NewGraphOllamaClient(oai.NewGraphOllamaClientParams{
			EmbeddingModel:        cfg.AI.EmbedModel,
			Dimensions:            cfg.AI.EmbedDim,
			BaseURL:               cfg.AI.EmbedURL,
			ApiKey:                cfg.AI.EmbedKey,
			MaxConcurrentRequests: int64(cfg.AI.ParallelReq),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create ollama embedder: %w", err)
		}
		return client, nil
	case config.AdapterOpenAI:
		return gai.NewGraphOpenAIClient(gai.NewGraphOpenAIClientParams{
			EmbeddingModel:        cfg.AI.EmbedModel,
			Dimensions:            cfg.AI.EmbedDim,
			EmbeddingURL:          cfg.AI.EmbedURL,
			EmbeddingKey:          cfg.AI.EmbedKey,
			MaxConcurrentRequests: int64(cfg.AI.ParallelReq),
		}), nil
	default:
		return nil, fmt.Errorf("%w: AI_EMBED_ADAPTER=%q", config.ErrUnknownValue, cfg.AI.EmbedAdapter)
	}
}

// IndexOptions maps cfg onto the semantic index options.
func IndexOptions(cfg *config.Config, embedder ai.Embedder) index.Options {
	return index.Options{
		Backend:     index.Backend(cfg.Index.Backend),
		Embedder:    embedder,
		Model:       cfg.AI.EmbedModel,
		Dimensions:  cfg.AI.EmbedDim,
		Parallel:    cfg.AI.ParallelReq,
		DatabaseURL: cfg.Index.DatabaseURL,
		Table:       cfg.Index.Table,
	}
}

// NewStorage returns the artifact store rooted at DATA_DIR.
func NewStorage(cfg *config.Config) *file.FileGraphStorage {
	return file.NewFileGraphStorage(cfg.DataDir)
}

// NewSnapshotLoader reads the graph and fragment map from storage and opens
// a fresh index at indexDir on every call.
func NewSnapshotLoader(storage store.GraphStorage, opts index.Options, indexDir string) query.SnapshotLoader {
	return func(ctx context.Context) (*query.Snapshot, error) {
		g, err := storage.LoadGraph(ctx)
		if err != nil {
			return nil, err
		}
		fragments, err := storage.LoadFragments(ctx)
		if err != nil {
			return nil, err
		}

		idx, err := index.New(ctx, opts)
		if err != nil {
			return nil, err
		}
		if err := idx.Load(ctx, indexDir); err != nil {
			_ = idx.Close()
			return nil, err
		}

		return &query.Snapshot{Graph: g, Fragments: fragments, Index: idx}, nil
	}
}

// AnswerOptions returns the generation options of answer requests.
func AnswerOptions(cfg *config.Config) []ai.GenerateOption {
	opts := []ai.GenerateOption{ai.WithTemperature(cfg.AI.ChatTemperature)}
	if cfg.AI.ChatThinking != "" {
		opts = append(opts, ai.WithThinking(cfg.AI.ChatThinking))
	}
	return opts
}

// NewEngine wires the query engine for cfg. The snapshot is read lazily on
// the first question.
func NewEngine(cfg *config.Config) (*query.Engine, error) {
	client, err := NewAIClient(cfg)
	if err != nil {
		return nil, err
	}
	embedder, err := NewEmbedder(cfg)
	if err != nil {
		return nil, err
	}

	load := NewSnapshotLoader(NewStorage(cfg), IndexOptions(cfg, embedder), cfg.IndexDir)
	return query.NewEngine(load, query.NewLLMAnswerer(client, AnswerOptions(cfg)...), query.Options{
		Timeout:    cfg.QueryTimeout,
		MaxRetries: cfg.AI.MaxRetries,
	}), nil
}

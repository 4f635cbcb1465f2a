package ai

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// GenerateOptions holds configuration for AI generation requests.
type GenerateOptions struct {
	Model         string   // Model identifier to use for generation
	SystemPrompts []string // System prompts prepended to the request
	Temperature   float64  // Sampling temperature (0.0-2.0)
	Thinking      string   // Reasoning effort (low, medium, high); empty disables it
}

// ModelMetrics contains performance metrics from AI model operations.
type ModelMetrics struct {
	InputTokens    int     `json:"input_tokens"`
	OutputTokens   int     `json:"output_tokens"`
	TotalTokens    int     `json:"total_tokens"`
	DurationMs     int64   `json:"duration_ms"`
	TokenPerSecond float32 `json:"tokens_per_second"`
}

// GenerateOption is a functional option for configuring AI generation requests.
type GenerateOption func(*GenerateOptions)

// ResolveOptions applies opts on top of defaults.
func ResolveOptions(defaults GenerateOptions, opts ...GenerateOption) GenerateOptions {
	for _, o := range opts {
		o(&defaults)
	}
	return defaults
}

// WithSystemPrompts returns a GenerateOption that sets the system prompts
// to prepend to the generation request.
func WithSystemPrompts(prompts ...string) GenerateOption {
	return func(o *GenerateOptions) {
		o.SystemPrompts = prompts
	}
}

// WithTemperature returns a GenerateOption that sets the sampling temperature.
func WithTemperature(temp float64) GenerateOption {
	return func(o *GenerateOptions) {
		o.Temperature = temp
	}
}

// WithThinking returns a GenerateOption that sets the reasoning effort.
func WithThinking(thinking string) GenerateOption {
	return func(o *GenerateOptions) {
		o.Thinking = thinking
	}
}

// Embedder turns text into a fixed-size vector.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, input []byte) ([]float32, error)
}

// BatchEmbedder is implemented by embedders that can embed several inputs
// in one request.
type BatchEmbedder interface {
	Embedder
	GenerateEmbeddings(ctx context.Context, inputs [][]byte) ([][]float32, error)
}

// GraphAIClient defines the AI operations used to answer questions over the
// document graph and to embed fragments for the semantic index.
type GraphAIClient interface {
	Embedder

	GenerateCompletion(
		ctx context.Context,
		prompt string,
		opts ...GenerateOption,
	) (string, error)
	GenerateCompletionWithFormat(
		ctx context.Context,
		name string,
		description string,
		prompt string,
		out any,
		opts ...GenerateOption,
	) error

	ResetMetrics()
	GetMetrics() ModelMetrics
}

// ChunkRange calls fn for consecutive [start, end) windows of at most
// chunkSize covering total.
func ChunkRange(total, chunkSize int, fn func(start, end int) error) error {
	if total <= 0 {
		return nil
	}
	if chunkSize <= 0 {
		chunkSize = total
	}
	for start := 0; start < total; start += chunkSize {
		end := min(start+chunkSize, total)
		if err := fn(start, end); err != nil {
			return err
		}
	}
	return nil
}

// GenerateEmbeddings embeds inputs in order. Batch capable embedders are
// called once per batch of batchSize inputs; other embedders are called per
// input with at most parallel requests in flight.
func GenerateEmbeddings(
	ctx context.Context,
	embedder Embedder,
	inputs [][]byte,
	batchSize int,
	parallel int,
) ([][]float32, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder is nil")
	}
	if len(inputs) == 0 {
		return nil, nil
	}

	out := make([][]float32, len(inputs))
	if b, ok := embedder.(BatchEmbedder); ok {
		err := ChunkRange(len(inputs), batchSize, func(start, end int) error {
			res, err := b.GenerateEmbeddings(ctx, inputs[start:end])
			if err != nil {
				return err
			}
			if len(res) != end-start {
				return fmt.Errorf("embedding result size mismatch: got %d want %d", len(res), end-start)
			}
			copy(out[start:end], res)
			return nil
		})
		if err != nil {
			return nil, err
		}
		return out, nil
	}

	eg, ectx := errgroup.WithContext(ctx)
	if parallel > 0 {
		eg.SetLimit(parallel)
	}
	for i := range inputs {
		eg.Go(func() error {
			emb, err := embedder.GenerateEmbedding(ectx, inputs[i])
			if err != nil {
				return err
			}
			out[i] = emb
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

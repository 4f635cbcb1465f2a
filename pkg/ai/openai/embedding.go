package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/docgraph/docgraph/pkg/ai"

	"github.com/openai/openai-go/v3"
)

// GenerateEmbedding creates a vector embedding for the given input text
// using the configured embedding model.
func (c *GraphOpenAIClient) GenerateEmbedding(ctx context.Context, input []byte) ([]float32, error) {
	res, err := c.GenerateEmbeddings(ctx, [][]byte{input})
	if err != nil {
		return nil, err
	}
	if len(res) != 1 {
		return nil, fmt.Errorf("unexpected embedding result size: got %d want 1", len(res))
	}
	return res[0], nil
}

// GenerateEmbeddings creates embeddings for multiple inputs in a single
// request. Blank inputs get a zero vector without a request.
func (c *GraphOpenAIClient) GenerateEmbeddings(ctx context.Context, inputs [][]byte) ([][]float32, error) {
	if len(inputs) == 0 {
		return nil, nil
	}

	idxMap, stringsIn, out := normalizeEmbeddingInputs(inputs, c.dimensions)
	if len(stringsIn) == 0 {
		return out, nil
	}

	stringsOut, err := c.generateEmbeddingsForStrings(ctx, stringsIn)
	if err != nil {
		return nil, err
	}
	for i := range stringsOut {
		out[idxMap[i]] = stringsOut[i]
	}
	return out, nil
}

func normalizeEmbeddingInputs(inputs [][]byte, dim int) (idxMap []int, stringsIn []string, out [][]float32) {
	idxMap = make([]int, 0, len(inputs))
	stringsIn = make([]string, 0, len(inputs))
	out = make([][]float32, len(inputs))
	for i, in := range inputs {
		if len(strings.TrimSpace(string(in))) == 0 {
			out[i] = make([]float32, dim)
			continue
		}
		idxMap = append(idxMap, i)
		stringsIn = append(stringsIn, string(in))
	}
	return idxMap, stringsIn, out
}

// fitDimensions truncates or zero-pads vec to dim. A dim of zero keeps
// the model's native size.
func fitDimensions(vec []float64, dim int) []float32 {
	if dim <= 0 {
		dim = len(vec)
	}
	out := make([]float32, dim)
	for i := 0; i < dim && i < len(vec); i++ {
		out[i] = float32(vec[i])
	}
	return out
}

func (c *GraphOpenAIClient) generateEmbeddingsForStrings(ctx context.Context, inputs []string) ([][]float32, error) {
	if c.EmbeddingClient == nil {
		return nil, fmt.Errorf("embedding client is not configured")
	}

	rCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body := openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: inputs},
		Model: c.embeddingModel,
	}

	if err := c.reqLock.Acquire(rCtx, 1); err != nil {
		return nil, err
	}
	defer c.reqLock.Release(1)

	start := time.Now()
	response, err := c.EmbeddingClient.Embeddings.New(rCtx, body)
	if err != nil {
		return nil, err
	}

	c.modifyMetrics(ai.ModelMetrics{
		InputTokens: int(response.Usage.PromptTokens),
		TotalTokens: int(response.Usage.TotalTokens),
		DurationMs:  time.Since(start).Milliseconds(),
	})

	if len(response.Data) != len(inputs) {
		return nil, fmt.Errorf("embedding response size mismatch: got %d want %d", len(response.Data), len(inputs))
	}

	out := make([][]float32, len(inputs))
	for _, embedding := range response.Data {
		dataIdx := int(embedding.Index)
		if dataIdx < 0 || dataIdx >= len(inputs) {
			return nil, fmt.Errorf("embedding index out of range: %d", embedding.Index)
		}
		out[dataIdx] = fitDimensions(embedding.Embedding, c.dimensions)
	}
	for i := range out {
		if out[i] == nil {
			return nil, fmt.Errorf("missing embedding for index %d", i)
		}
	}
	return out, nil
}

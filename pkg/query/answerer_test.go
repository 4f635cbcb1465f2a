package query

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/docgraph/docgraph/pkg/ai"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAIClient struct {
	completion string
	formatted  string
	err        error

	prompts []string
	options []ai.GenerateOptions
}

func (c *fakeAIClient) GenerateEmbedding(context.Context, []byte) ([]float32, error) {
	return nil, errors.New("not used")
}

func (c *fakeAIClient) GenerateCompletion(_ context.Context, prompt string, opts ...ai.GenerateOption) (string, error) {
	c.prompts = append(c.prompts, prompt)
	c.options = append(c.options, ai.ResolveOptions(ai.GenerateOptions{}, opts...))
	return c.completion, c.err
}

func (c *fakeAIClient) GenerateCompletionWithFormat(_ context.Context, _, _, prompt string, out any, opts ...ai.GenerateOption) error {
	c.prompts = append(c.prompts, prompt)
	c.options = append(c.options, ai.ResolveOptions(ai.GenerateOptions{}, opts...))
	if c.err != nil {
		return c.err
	}
	return json.Unmarshal([]byte(c.formatted), out)
}

func (c *fakeAIClient) ResetMetrics()               {}
func (c *fakeAIClient) GetMetrics() ai.ModelMetrics { return ai.ModelMetrics{} }

func TestLLMAnswerer_Answer(t *testing.T) {
	client := &fakeAIClient{
		formatted: `{"answer":"Paving costs 12,500.00 [[TBL:1]] and the total is 15,500.00 [[PCH:9]] [[PCH:2]].","sources":["[[PCH:2]]","TBL:1","TBL:404"]}`,
	}
	items := []ContextItem{
		{ID: "TBL:1", Text: "Asphalt paving | 12,500.00"},
		{ID: "PCH:2", Text: "Grand Total: $15,500.00"},
	}

	ans, err := NewLLMAnswerer(client).Answer(context.Background(), "What is the total?", items)
	require.NoError(t, err)

	assert.Equal(t, "What is the total?", ans.Label)
	assert.True(t, strings.HasPrefix(ans.Text, "Paving costs"))
	assert.Equal(t, []string{"PCH:2", "TBL:1"}, ans.CitedIDs)

	require.Len(t, client.prompts, 1)
	assert.Contains(t, client.prompts[0], "[[TBL:1]] Asphalt paving | 12,500.00\n[[PCH:2]] Grand Total: $15,500.00")
	assert.Contains(t, client.prompts[0], "What is the total?")
	assert.Contains(t, client.prompts[0], "show the math and the units")
}

func TestLLMAnswerer_EmptyContext(t *testing.T) {
	client := &fakeAIClient{completion: " Nothing relevant was found. "}

	ans, err := NewLLMAnswerer(client).Answer(context.Background(), "Who is the vendor?", nil)
	require.NoError(t, err)

	assert.Equal(t, "Nothing relevant was found.", ans.Text)
	assert.NotNil(t, ans.CitedIDs)
	assert.Empty(t, ans.CitedIDs)
	require.Len(t, client.prompts, 1)
	assert.Contains(t, client.prompts[0], "User's question: Who is the vendor?")
}

func TestLLMAnswerer_Options(t *testing.T) {
	client := &fakeAIClient{formatted: `{"answer":"ok [[PCH:1]]","sources":[]}`, completion: "none"}
	a := NewLLMAnswerer(client, ai.WithTemperature(0), ai.WithThinking("low"))

	_, err := a.Answer(context.Background(), "q", []ContextItem{{ID: "PCH:1", Text: "t"}})
	require.NoError(t, err)
	_, err = a.Answer(context.Background(), "q", nil)
	require.NoError(t, err)

	require.Len(t, client.options, 2)
	for _, o := range client.options {
		assert.Equal(t, []string{ai.AnswerSystemPrompt}, o.SystemPrompts)
		assert.Equal(t, 0.0, o.Temperature)
		assert.Equal(t, "low", o.Thinking)
	}
}

func TestLLMAnswerer_Error(t *testing.T) {
	client := &fakeAIClient{err: errors.New("model down")}

	_, err := NewLLMAnswerer(client).Answer(context.Background(), "q", []ContextItem{{ID: "PCH:1", Text: "t"}})
	assert.ErrorContains(t, err, "model down")
}

func TestRenderContext(t *testing.T) {
	assert.Equal(t, "", RenderContext(nil))
	assert.Equal(t, "[[A]] a\n[[B]] b", RenderContext([]ContextItem{{ID: "A", Text: "a"}, {ID: "B", Text: "b"}}))
}

package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/docgraph/docgraph/pkg/ai"

	"github.com/ollama/ollama/api"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *GraphOllamaClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewGraphOllamaClient(NewGraphOllamaClientParams{
		EmbeddingModel: "embed",
		ChatModel:      "chat",
		Dimensions:     3,
		BaseURL:        srv.URL,
		ApiKey:         "secret",
	})
	require.NoError(t, err)
	// keep tests offline: skip loading the token encoding
	c.encOnce.Do(func() {})
	return c
}

func TestGenerateEmbeddings(t *testing.T) {
	var got struct {
		Model string   `json:"model"`
		Input []string `json:"input"`
	}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embed", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"embed","embeddings":[[1,2,3,4],[5]],"prompt_eval_count":7}`))
	})

	out, err := c.GenerateEmbeddings(context.Background(), [][]byte{[]byte("a"), []byte(" "), []byte("b")})
	require.NoError(t, err)

	assert.Equal(t, "embed", got.Model)
	assert.Equal(t, []string{"a", "b"}, got.Input)
	assert.Equal(t, [][]float32{{1, 2, 3}, {0, 0, 0}, {5, 0, 0}}, out)
	assert.Equal(t, 7, c.GetMetrics().InputTokens)

	c.ResetMetrics()
	assert.Equal(t, ai.ModelMetrics{}, c.GetMetrics())
}

func TestGenerateCompletionWithFormat(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "chat", req["model"])
		assert.NotNil(t, req["format"])
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"chat","message":{"role":"assistant","content":"{\"answer\":\"ok\",\"sources\":[\"PCH:1\"]}"},"done":true,"prompt_eval_count":3,"eval_count":2}`))
	})

	var out struct {
		Answer  string   `json:"answer"`
		Sources []string `json:"sources"`
	}
	err := c.GenerateCompletionWithFormat(context.Background(), "answer", "test", "question", &out)
	require.NoError(t, err)
	assert.Equal(t, "ok", out.Answer)
	assert.Equal(t, []string{"PCH:1"}, out.Sources)
	assert.Equal(t, 5, c.GetMetrics().TotalTokens)
}

func TestContextSize(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	msgs := []api.Message{{Role: "user", Content: strings.Repeat("a", 400)}}
	assert.Equal(t, 300, c.contextSize(msgs))
}

func TestGenerateCompletionWithFormat_NilOut(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})
	err := c.GenerateCompletionWithFormat(context.Background(), "n", "d", "p", nil)
	assert.Error(t, err)
}

func TestNewChatRequest_Options(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	options := ai.ResolveOptions(ai.GenerateOptions{Model: "chat", Temperature: 0.3},
		ai.WithSystemPrompts("cite sources"),
		ai.WithTemperature(0),
		ai.WithThinking("low"),
	)

	req := c.newChatRequest(options, "question")

	require.Len(t, req.Messages, 2)
	assert.Equal(t, "system", req.Messages[0].Role)
	assert.Equal(t, "cite sources", req.Messages[0].Content)
	assert.Equal(t, "user", req.Messages[1].Role)
	assert.Equal(t, 0.0, req.Options["temperature"])
	require.NotNil(t, req.Think)
	assert.Equal(t, "low", req.Think.Value)
}

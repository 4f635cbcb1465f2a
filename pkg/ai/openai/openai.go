package openai

import (
	"sync"
	"time"

	"github.com/docgraph/docgraph/pkg/ai"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"golang.org/x/sync/semaphore"
)

const defaultTimeout = 2 * time.Minute

// GraphOpenAIClient is a client for OpenAI compatible APIs. It manages
// separate clients for embeddings and chat completions, since the two are
// often served by different endpoints.
//
// A GraphOpenAIClient should be created using NewGraphOpenAIClient.
type GraphOpenAIClient struct {
	embeddingModel string
	chatModel      string
	dimensions     int

	chatURL string
	timeout time.Duration

	reqLock *semaphore.Weighted

	metricsLock sync.Mutex
	metrics     ai.ModelMetrics

	ChatClient      *openai.Client
	EmbeddingClient *openai.Client
}

// NewGraphOpenAIClientParams defines the configuration parameters for
// creating a new GraphOpenAIClient.
//
// Dimensions truncates or zero-pads every embedding to a fixed size.
// MaxConcurrentRequests bounds in-flight requests (default 1).
type NewGraphOpenAIClientParams struct {
	EmbeddingModel string
	ChatModel      string
	Dimensions     int

	EmbeddingURL string
	EmbeddingKey string
	ChatURL      string
	ChatKey      string

	MaxConcurrentRequests int64
	Timeout               time.Duration
}

// NewGraphOpenAIClient creates a client configured with the provided
// parameters.
//
// Example:
//
//	client := openai.NewGraphOpenAIClient(openai.NewGraphOpenAIClientParams{
//		EmbeddingModel: "text-embedding-3-small",
//		ChatModel:      "gpt-4o-mini",
//		Dimensions:     1536,
//		EmbeddingKey:   os.Getenv("AI_EMBED_KEY"),
//		ChatKey:        os.Getenv("AI_CHAT_KEY"),
//	})
func NewGraphOpenAIClient(
	params NewGraphOpenAIClientParams,
) *GraphOpenAIClient {
	maxReq := params.MaxConcurrentRequests
	if maxReq <= 0 {
		maxReq = 1
	}
	timeout := params.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &GraphOpenAIClient{
		embeddingModel: params.EmbeddingModel,
		chatModel:      params.ChatModel,
		dimensions:     params.Dimensions,

		chatURL: params.ChatURL,
		timeout: timeout,

		reqLock: semaphore.NewWeighted(maxReq),

		ChatClient:      newOpenaiClient(params.ChatURL, params.ChatKey),
		EmbeddingClient: newOpenaiClient(params.EmbeddingURL, params.EmbeddingKey),
	}
}

func newOpenaiClient(
	baseURL string,
	apiKey string,
) *openai.Client {
	if apiKey == "" {
		return nil
	}
	options := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}

	if baseURL != "" {
		options = append(options, option.WithBaseURL(baseURL))
	}

	client := openai.NewClient(options...)

	return &client
}

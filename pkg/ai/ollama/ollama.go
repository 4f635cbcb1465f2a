package ollama

import (
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/docgraph/docgraph/pkg/ai"

	"github.com/ollama/ollama/api"
	"github.com/pkoukk/tiktoken-go"
	"golang.org/x/sync/semaphore"
)

const (
	defaultTimeout = 2 * time.Minute
	defaultNumCtx  = 4096
)

// GraphOllamaClient implements the ai.GraphAIClient interface using Ollama as the backend.
type GraphOllamaClient struct {
	embeddingModel string
	chatModel      string
	dimensions     int
	timeout        time.Duration

	reqLock *semaphore.Weighted

	encOnce sync.Once
	encoder *tiktoken.Tiktoken

	metricsLock sync.Mutex
	metrics     ai.ModelMetrics

	Client *api.Client
}

// NewGraphOllamaClientParams contains configuration options for creating a new GraphOllamaClient.
type NewGraphOllamaClientParams struct {
	EmbeddingModel string
	ChatModel      string
	Dimensions     int

	BaseURL string
	ApiKey  string

	MaxConcurrentRequests int64
	Timeout               time.Duration
}

type headerTransport struct {
	headers map[string]string
	rt      http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// clone so original request isn't modified
	r := req.Clone(req.Context())
	for k, v := range t.headers {
		if r.Header.Get(k) == "" {
			r.Header.Set(k, v)
		}
	}
	return t.rt.RoundTrip(r)
}

// NewGraphOllamaClient creates a new Ollama-based AI client with the specified configuration.
// It connects to the Ollama server at the given BaseURL (or the default if empty).
func NewGraphOllamaClient(
	params NewGraphOllamaClientParams,
) (*GraphOllamaClient, error) {
	u, err := url.Parse("http://localhost:11434")
	if err != nil {
		return nil, err
	}
	if params.BaseURL != "" {
		u, err = url.Parse(params.BaseURL)
		if err != nil {
			return nil, err
		}
	}

	transport := http.DefaultTransport
	if params.ApiKey != "" {
		transport = &headerTransport{
			headers: map[string]string{
				"Authorization": "Bearer " + params.ApiKey,
			},
			rt: http.DefaultTransport,
		}
	}

	maxReq := params.MaxConcurrentRequests
	if maxReq <= 0 {
		maxReq = 1
	}
	timeout := params.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &GraphOllamaClient{
		embeddingModel: params.EmbeddingModel,
		chatModel:      params.ChatModel,
		dimensions:     params.Dimensions,
		timeout:        timeout,

		reqLock: semaphore.NewWeighted(maxReq),

		Client: api.NewClient(u, &http.Client{Transport: transport}),
	}, nil
}

package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"

	"github.com/docgraph/docgraph/pkg/ai"
	"github.com/docgraph/docgraph/pkg/logger"

	"github.com/ollama/ollama/api"
	"github.com/pkoukk/tiktoken-go"
)

// GenerateCompletion sends a single-turn prompt and returns assistant text.
func (c *GraphOllamaClient) GenerateCompletion(
	ctx context.Context,
	prompt string,
	opts ...ai.GenerateOption,
) (string, error) {
	options := ai.ResolveOptions(ai.GenerateOptions{
		Model:       c.chatModel,
		Temperature: 0.3,
	}, opts...)

	req := c.newChatRequest(options, prompt)
	return c.chat(ctx, req)
}

// GenerateCompletionWithFormat enforces a JSON schema and unmarshals into out.
func (c *GraphOllamaClient) GenerateCompletionWithFormat(
	ctx context.Context,
	name string,
	description string,
	prompt string,
	out any,
	opts ...ai.GenerateOption,
) error {
	if out == nil {
		return errors.New("out must be a non-nil pointer")
	}
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return errors.New("out must be a non-nil pointer")
	}

	formatBytes, err := json.Marshal(ai.GenerateSchema(out))
	if err != nil {
		return err
	}

	options := ai.ResolveOptions(ai.GenerateOptions{
		Model:       c.chatModel,
		Temperature: 0.1,
	}, opts...)

	req := c.newChatRequest(options, prompt)
	req.Format = json.RawMessage(formatBytes)

	content, err := c.chat(ctx, req)
	if err != nil {
		return err
	}
	return ai.UnmarshalModelObject(content, out)
}

func (c *GraphOllamaClient) newChatRequest(options ai.GenerateOptions, prompt string) *api.ChatRequest {
	msgs := make([]api.Message, 0, len(options.SystemPrompts)+1)
	for _, sp := range options.SystemPrompts {
		msgs = append(msgs, api.Message{Role: "system", Content: sp})
	}
	msgs = append(msgs, api.Message{Role: "user", Content: prompt})

	stream := false
	req := &api.ChatRequest{
		Model:    options.Model,
		Messages: msgs,
		Stream:   &stream,
		Options:  map[string]any{"temperature": options.Temperature},
	}

	if options.Thinking != "" {
		req.Think = &api.ThinkValue{
			Value: options.Thinking,
		}
	}

	if numCtx := c.contextSize(msgs); numCtx > defaultNumCtx {
		req.Options["num_ctx"] = numCtx
	}
	return req
}

// contextSize estimates the context window needed for msgs plus headroom
// for the reply.
func (c *GraphOllamaClient) contextSize(msgs []api.Message) int {
	tokens := 200
	for _, m := range msgs {
		tokens += c.countTokens(m.Content)
	}
	return tokens
}

// countTokens falls back to four bytes per token when the encoding cannot
// be loaded.
func (c *GraphOllamaClient) countTokens(s string) int {
	c.encOnce.Do(func() {
		enc, err := tiktoken.GetEncoding("o200k_base")
		if err != nil {
			logger.Warn("[AI] Failed to load token encoding, estimating context size", "err", err)
			return
		}
		c.encoder = enc
	})
	if c.encoder == nil {
		return len(s) / 4
	}
	return len(c.encoder.Encode(s, nil, nil))
}

func (c *GraphOllamaClient) chat(ctx context.Context, req *api.ChatRequest) (string, error) {
	rCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.reqLock.Acquire(rCtx, 1); err != nil {
		return "", err
	}
	defer c.reqLock.Release(1)

	var final api.ChatResponse
	if err := c.Client.Chat(rCtx, req, func(cr api.ChatResponse) error {
		final.Message.Content += cr.Message.Content
		if cr.Done {
			final.Done = true
			final.Metrics = cr.Metrics
		}
		return nil
	}); err != nil {
		return "", err
	}

	c.modifyMetrics(ai.ModelMetrics{
		InputTokens:  final.Metrics.PromptEvalCount,
		OutputTokens: final.Metrics.EvalCount,
		TotalTokens:  final.Metrics.PromptEvalCount + final.Metrics.EvalCount,
		DurationMs:   final.Metrics.TotalDuration.Milliseconds(),
	})

	return final.Message.Content, nil
}

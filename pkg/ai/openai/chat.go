package openai

import (
	"context"
	"fmt"
	"time"

	"github.com/docgraph/docgraph/pkg/ai"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/shared"
)

// GenerateCompletion sends a single-turn prompt to the chat model and
// returns the generated completion as plain text.
func (c *GraphOpenAIClient) GenerateCompletion(
	ctx context.Context,
	prompt string,
	opts ...ai.GenerateOption,
) (string, error) {
	options := ai.ResolveOptions(ai.GenerateOptions{
		Model:       c.chatModel,
		Temperature: 0.3,
	}, opts...)

	body := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(options.Model),
		Messages:    buildMessages(options, prompt),
		Temperature: openai.Float(options.Temperature),
	}
	c.applyThinking(&body, options)

	response, err := c.complete(ctx, body)
	if err != nil {
		return "", err
	}
	return response.Choices[0].Message.Content, nil
}

// GenerateCompletionWithFormat sends a prompt to the chat model and
// unmarshals the response into out, using a JSON schema derived from out
// to enforce structure.
//
// Example:
//
//	var out struct {
//		Answer  string   `json:"answer"`
//		Sources []string `json:"sources"`
//	}
//	err := client.GenerateCompletionWithFormat(ctx, "answer", "Cited answer", prompt, &out)
func (c *GraphOpenAIClient) GenerateCompletionWithFormat(
	ctx context.Context,
	name string,
	description string,
	prompt string,
	out any,
	opts ...ai.GenerateOption,
) error {
	schemaParam := openai.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:        name,
		Description: openai.String(description),
		Schema:      ai.GenerateSchema(out),
		Strict:      openai.Bool(true),
	}

	options := ai.ResolveOptions(ai.GenerateOptions{
		Model:       c.chatModel,
		Temperature: 0.1,
	}, opts...)

	body := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(options.Model),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: schemaParam,
			},
		},
		Messages:    buildMessages(options, prompt),
		Temperature: openai.Float(options.Temperature),
	}
	c.applyThinking(&body, options)

	response, err := c.complete(ctx, body)
	if err != nil {
		return err
	}

	message := response.Choices[0].Message.Content
	if message == "" {
		return fmt.Errorf("empty response from model (finish_reason: %s)", response.Choices[0].FinishReason)
	}
	return ai.UnmarshalModelObject(message, out)
}

func buildMessages(options ai.GenerateOptions, prompt string) []openai.ChatCompletionMessageParamUnion {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(options.SystemPrompts)+1)
	for _, sp := range options.SystemPrompts {
		msgs = append(msgs, openai.SystemMessage(sp))
	}
	return append(msgs, openai.UserMessage(prompt))
}

func (c *GraphOpenAIClient) applyThinking(body *openai.ChatCompletionNewParams, options ai.GenerateOptions) {
	if options.Thinking == "" {
		return
	}
	// reasoning models on the hosted API only accept temperature 1.0
	if c.chatURL == "" {
		body.Temperature = openai.Float(1.0)
	}
	body.ReasoningEffort = shared.ReasoningEffort(options.Thinking)
}

func (c *GraphOpenAIClient) complete(
	ctx context.Context,
	body openai.ChatCompletionNewParams,
) (*openai.ChatCompletion, error) {
	if c.ChatClient == nil {
		return nil, fmt.Errorf("chat client is not configured")
	}

	rCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.reqLock.Acquire(rCtx, 1); err != nil {
		return nil, err
	}
	defer c.reqLock.Release(1)

	start := time.Now()
	response, err := c.ChatClient.Chat.Completions.New(rCtx, body)
	if err != nil {
		return nil, err
	}
	duration := time.Since(start).Milliseconds()

	c.modifyMetrics(ai.ModelMetrics{
		InputTokens:  int(response.Usage.PromptTokens),
		OutputTokens: int(response.Usage.CompletionTokens),
		TotalTokens:  int(response.Usage.TotalTokens),
		DurationMs:   duration,
	})

	if len(response.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response from model")
	}
	return response, nil
}

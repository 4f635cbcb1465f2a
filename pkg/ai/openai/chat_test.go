package openai

import (
	"testing"

	"github.com/docgraph/docgraph/pkg/ai"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMessages(t *testing.T) {
	options := ai.ResolveOptions(ai.GenerateOptions{}, ai.WithSystemPrompts("cite sources"))

	msgs := buildMessages(options, "question")

	require.Len(t, msgs, 2)
	require.NotNil(t, msgs[0].OfSystem)
	require.NotNil(t, msgs[1].OfUser)
	assert.Equal(t, "question", msgs[1].OfUser.Content.OfString.Value)
}

func TestApplyThinking(t *testing.T) {
	options := ai.ResolveOptions(ai.GenerateOptions{Temperature: 0.1}, ai.WithThinking("low"))

	hosted := &GraphOpenAIClient{}
	body := openai.ChatCompletionNewParams{Temperature: openai.Float(options.Temperature)}
	hosted.applyThinking(&body, options)
	assert.Equal(t, shared.ReasoningEffort("low"), body.ReasoningEffort)
	assert.Equal(t, 1.0, body.Temperature.Value)

	selfHosted := &GraphOpenAIClient{chatURL: "http://localhost:8000/v1"}
	body = openai.ChatCompletionNewParams{Temperature: openai.Float(options.Temperature)}
	selfHosted.applyThinking(&body, options)
	assert.Equal(t, 0.1, body.Temperature.Value)

	body = openai.ChatCompletionNewParams{}
	hosted.applyThinking(&body, ai.GenerateOptions{})
	assert.Empty(t, body.ReasoningEffort)
}

package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/docgraph/docgraph/pkg/ai"
)

// Answer is what an Answerer returns. CitedIDs is a subset of the IDs of
// the context it was given.
type Answer struct {
	Label    string
	Text     string
	CitedIDs []string
}

// Answerer composes an answer from a question and retrieved context.
// Empty context must be accepted; declining to answer is up to the
// implementation.
type Answerer interface {
	Answer(ctx context.Context, question string, items []ContextItem) (Answer, error)
}

type citedAnswer struct {
	Answer  string   `json:"answer" jsonschema:"description=The answer with [[id]] citations after every statement"`
	Sources []string `json:"sources" jsonschema:"description=The ids of the context lines used in the answer"`
}

// LLMAnswerer answers with a chat model restricted to the given context.
type LLMAnswerer struct {
	client ai.GraphAIClient
	opts   []ai.GenerateOption
}

// NewLLMAnswerer creates an answerer. Every completion carries
// ai.AnswerSystemPrompt followed by opts.
func NewLLMAnswerer(client ai.GraphAIClient, opts ...ai.GenerateOption) *LLMAnswerer {
	all := append([]ai.GenerateOption{ai.WithSystemPrompts(ai.AnswerSystemPrompt)}, opts...)
	return &LLMAnswerer{client: client, opts: all}
}

// Answer implements Answerer. Without context the model only explains
// that nothing was found and no IDs are cited.
func (a *LLMAnswerer) Answer(ctx context.Context, question string, items []ContextItem) (Answer, error) {
	if len(items) == 0 {
		text, err := a.client.GenerateCompletion(ctx, fmt.Sprintf(ai.NoDataPrompt, question), a.opts...)
		if err != nil {
			return Answer{}, fmt.Errorf("failed to generate no-data answer: %w", err)
		}
		return Answer{Label: question, Text: strings.TrimSpace(text), CitedIDs: []string{}}, nil
	}

	prompt := fmt.Sprintf(ai.AnswerPrompt, RenderContext(items), question)
	var out citedAnswer
	if err := a.client.GenerateCompletionWithFormat(
		ctx,
		"cited_answer",
		"An answer to the question with the ids of the context lines it uses",
		prompt,
		&out,
		a.opts...,
	); err != nil {
		return Answer{}, fmt.Errorf("failed to generate answer: %w", err)
	}

	return Answer{
		Label:    question,
		Text:     strings.TrimSpace(out.Answer),
		CitedIDs: citedIDs(items, out.Sources, ExtractCitationIDs(out.Answer)),
	}, nil
}

// RenderContext formats items as "[[id]] text" lines.
func RenderContext(items []ContextItem) string {
	var b strings.Builder
	for i, item := range items {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "[[%s]] %s", item.ID, item.Text)
	}
	return b.String()
}

// citedIDs merges the ID lists in order, dropping duplicates and IDs that
// were not part of the context.
func citedIDs(items []ContextItem, lists ...[]string) []string {
	known := make(map[string]struct{}, len(items))
	for _, item := range items {
		known[item.ID] = struct{}{}
	}

	out := []string{}
	seen := map[string]struct{}{}
	for _, list := range lists {
		for _, id := range list {
			id = cleanID(id)
			if _, ok := known[id]; !ok {
				continue
			}
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

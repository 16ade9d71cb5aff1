// Package describe generates a short company blurb for the saved record
// using Groq's OpenAI-compatible chat endpoint. Strictly optional: saves
// proceed without a description when generation fails.
package describe

import (
	"context"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/pkg/errors"
)

// DefaultBaseURL points the OpenAI client at Groq.
const DefaultBaseURL = "https://api.groq.com/openai/v1"

// DefaultModel is the free-tier model used when none is configured.
const DefaultModel = "llama-3.1-70b-versatile"

const maxChars = 400

const systemPrompt = "You write one to two sentence descriptions of what a company does, " +
	"at most 400 characters. If you cannot confidently identify the company, say so " +
	"in one generic but honest sentence. Never fabricate facts."

// Generator produces company descriptions.
type Generator struct {
	client *openai.Client
	model  openai.ChatModel
}

// New creates a Generator against Groq (or any OpenAI-compatible baseURL).
func New(apiKey, model, baseURL string) *Generator {
	if model == "" {
		model = DefaultModel
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
	)
	return &Generator{client: client, model: openai.ChatModel(model)}
}

// Company returns a 1-2 sentence description of the named company,
// truncated to 400 characters.
func (g *Generator) Company(ctx context.Context, name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", errors.New("describe: empty company name")
	}

	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.F(g.model),
		Messages: openai.F([]openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage("Company: " + name),
		}),
	})
	if err != nil {
		return "", errors.Wrap(err, "describe: chat completion")
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("describe: empty completion")
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if r := []rune(text); len(r) > maxChars {
		text = string(r[:maxChars])
	}
	return text, nil
}

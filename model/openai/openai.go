// Package openai adapts the OpenAI Chat Completions API to model.Generator.
// The assembled prompt and system instructions are mapped onto a two-message
// chat exchange; the completion text is returned raw for interpretation.
package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"

	"github.com/toolbridge/toolbridge/model"
)

// Options configure the OpenAI generator adapter.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
}

// Generator wraps the OpenAI Chat Completions API behind model.Generator.
type Generator struct {
	client *openai.Client
	opts   Options
}

var _ model.Generator = (*Generator)(nil)

// New creates a new OpenAI generator using the official client, which reads
// its API key from the environment.
func New(optFns ...func(o *Options)) *Generator {
	client := openai.NewClient()
	return NewFromClient(&client, optFns...)
}

// NewFromClient creates a new OpenAI generator from an existing client.
func NewFromClient(client *openai.Client, optFns ...func(o *Options)) *Generator {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Generator{client: client, opts: opts}
}

// Generate implements model.Generator.
func (g *Generator) Generate(ctx context.Context, req model.Request) (*model.Response, error) {
	var messages []openai.ChatCompletionMessageParamUnion
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	params := openai.ChatCompletionNewParams{
		Messages:            messages,
		Model:               g.opts.Model,
		Temperature:         openai.Float(g.opts.Temperature),
		MaxCompletionTokens: openai.Int(g.opts.MaxCompletionTokens),
	}
	if req.Temperature != 0 {
		params.Temperature = openai.Float(req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(req.MaxTokens))
	}

	resp, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices returned")
	}
	return &model.Response{Text: resp.Choices[0].Message.Content, Model: g.opts.Model}, nil
}

// Info implements model.Generator.
func (g *Generator) Info() model.Info {
	return model.Info{Name: g.opts.Model, Provider: "openai"}
}

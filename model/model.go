package model

import (
	"context"
	"fmt"
	"strings"
)

// Request captures the normalized generation input produced by the
// orchestration layer. Temperature and MaxTokens are optional overrides; zero
// values defer to the backend's configured defaults.
type Request struct {
	Prompt      string  `json:"prompt"`
	System      string  `json:"system,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
}

// Response is the raw generation output. Text is handed verbatim to the
// interpretation pipeline.
type Response struct {
	Text  string `json:"text"`
	Model string `json:"model"`
}

// Info contains metadata about a generator implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "ollama", "openai", "anthropic", etc.
}

// Generator is the minimal interface required to drive generation. Calls are
// blocking; implementations enforce their own per-call timeouts and surface
// transport or HTTP failures as errors, which the pipeline treats as fatal
// for the request.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Response, error)

	// Info returns information about the generator implementation.
	Info() Info
}

// MockGenerator is a lightweight in-memory Generator useful for tests.
type MockGenerator struct {
	info      Info
	responses map[string]string
	requests  []Request
	err       error
}

// NewMockGenerator constructs a MockGenerator.
func NewMockGenerator(name, provider string) *MockGenerator {
	return &MockGenerator{
		info:      Info{Name: name, Provider: provider},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for a prompt. The
// match is by substring so callers can key on the user input embedded in a
// larger assembled prompt.
func (m *MockGenerator) AddResponse(promptFragment, response string) {
	m.responses[promptFragment] = response
}

// FailWith makes every Generate call return err.
func (m *MockGenerator) FailWith(err error) { m.err = err }

// Requests returns all requests seen so far, in order.
func (m *MockGenerator) Requests() []Request { return m.requests }

// Generate implements Generator.
func (m *MockGenerator) Generate(_ context.Context, req Request) (*Response, error) {
	m.requests = append(m.requests, req)
	if m.err != nil {
		return nil, m.err
	}
	for fragment, response := range m.responses {
		if fragment != "" && strings.Contains(req.Prompt, fragment) {
			return &Response{Text: response, Model: m.info.Name}, nil
		}
	}
	return nil, fmt.Errorf("no canned response for prompt: %.60s", req.Prompt)
}

// Info implements Generator.
func (m *MockGenerator) Info() Info { return m.info }

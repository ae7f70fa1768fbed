// Package ollama implements model.Generator against the Ollama generate API.
// It is the primary backend: a local Ollama instance serving the configured
// model. The connector tolerates malformed JSON response bodies by extracting
// the first balanced-brace object, since some models emit trailing garbage
// after the JSON envelope.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/toolbridge/toolbridge/logging"
	"github.com/toolbridge/toolbridge/model"
)

// DefaultBaseURL points at a local Ollama instance.
const DefaultBaseURL = "http://localhost:11434"

// Options configure the Ollama generator.
type Options struct {
	// BaseURL is the Ollama API root.
	BaseURL string
	// Model is the model name, which may include a version tag (gemma3:12b).
	Model string
	// Temperature controls randomness; applied when the request has none.
	Temperature float64
	// Timeout bounds each generation round trip. Generation can take tens of
	// seconds for large models.
	Timeout time.Duration
	// HTTPClient overrides the default client (tests).
	HTTPClient *http.Client
	// Logger receives connector diagnostics. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Generator wraps the Ollama generate endpoint behind model.Generator.
type Generator struct {
	baseURL     string
	model       string
	temperature float64
	httpClient  *http.Client
	logger      logging.Logger
}

var _ model.Generator = (*Generator)(nil)

// New constructs an Ollama generator.
func New(optFns ...func(o *Options)) *Generator {
	opts := Options{
		BaseURL:     DefaultBaseURL,
		Model:       "gemma3",
		Temperature: 0.7,
		Timeout:     120 * time.Second,
		Logger:      logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	return &Generator{
		baseURL:     opts.BaseURL,
		model:       opts.Model,
		temperature: opts.Temperature,
		httpClient:  client,
		logger:      opts.Logger,
	}
}

// generateRequest is the wire format of the generate endpoint.
type generateRequest struct {
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	Temperature float64 `json:"temperature"`
	Stream      bool    `json:"stream"`
	System      string  `json:"system,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
}

// generateResponse is the subset of the response body the pipeline consumes.
type generateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Generate implements model.Generator. HTTP and transport failures are
// returned as errors and propagate as fatal request failures upstream.
func (g *Generator) Generate(ctx context.Context, req model.Request) (*model.Response, error) {
	payload := generateRequest{
		Model:       g.model,
		Prompt:      req.Prompt,
		Temperature: g.temperature,
		Stream:      false,
		System:      req.System,
		MaxTokens:   req.MaxTokens,
	}
	if req.Temperature != 0 {
		payload.Temperature = req.Temperature
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/api/generate", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama API error %d: %s", resp.StatusCode, string(body))
	}

	var decoded generateResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		g.logger.Warn("malformed ollama response body, extracting first JSON object", "error", err.Error())
		recovered, ok := firstJSONObject(body)
		if !ok {
			return nil, fmt.Errorf("decode response: %w", err)
		}
		if err := json.Unmarshal(recovered, &decoded); err != nil {
			return nil, fmt.Errorf("decode recovered response: %w", err)
		}
	}

	g.logger.Debug("generation completed",
		"model", g.model, "duration", time.Since(start), "chars", len(decoded.Response))
	return &model.Response{Text: decoded.Response, Model: decoded.Model}, nil
}

// Info implements model.Generator.
func (g *Generator) Info() model.Info {
	return model.Info{Name: g.model, Provider: "ollama"}
}

// firstJSONObject extracts the first complete balanced-brace object from a
// body that failed to decode as a whole, e.g. when multiple JSON objects were
// concatenated into one response.
func firstJSONObject(body []byte) ([]byte, bool) {
	start := bytes.IndexByte(body, '{')
	if start < 0 {
		return nil, false
	}
	depth := 0
	for i := start; i < len(body); i++ {
		switch body[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return body[start : i+1], true
			}
		}
	}
	return nil, false
}

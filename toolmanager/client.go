package toolmanager

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/toolbridge/toolbridge/core"
	"github.com/toolbridge/toolbridge/logging"
)

// StatusError reports a non-2xx response from the tool manager.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("tool manager returned HTTP %d: %s", e.StatusCode, e.Body)
}

// Options configure a Client.
type Options struct {
	// Timeout bounds each round trip; discovery and execution are expected
	// to be much faster than generation.
	Timeout time.Duration
	// HTTPClient overrides the default client (tests).
	HTTPClient *http.Client
	// Logger receives client diagnostics. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Client talks to the tool manager's lookup and usage endpoints.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     logging.Logger
}

// New constructs a Client for the tool manager at baseURL.
func New(baseURL string, optFns ...func(o *Options)) *Client {
	opts := Options{
		Timeout: 30 * time.Second,
		Logger:  logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	return &Client{baseURL: baseURL, httpClient: client, logger: opts.Logger}
}

type lookupRequest struct {
	Prompt string `json:"prompt"`
	TopK   int    `json:"top_k"`
}

type lookupResponse struct {
	Tools []core.ToolDescriptor `json:"tools"`
}

// Lookup returns the tools ranked most relevant to prompt, capped at topK.
func (c *Client) Lookup(ctx context.Context, prompt string, topK int) ([]core.ToolDescriptor, error) {
	c.logger.Debug("fetching relevant tools", "top_k", topK)
	var resp lookupResponse
	if err := c.post(ctx, "/tool_lookup", lookupRequest{Prompt: prompt, TopK: topK}, &resp); err != nil {
		return nil, fmt.Errorf("tool lookup: %w", err)
	}
	c.logger.Debug("tool lookup completed", "found", len(resp.Tools))
	return resp.Tools, nil
}

type executeRequest struct {
	ToolCall core.ToolCallIntent `json:"tool_call"`
}

// Execute invokes the named tool and returns its outcome envelope. Transport
// and HTTP failures are returned as errors; an outcome with a non-nil Error
// field is a successful round trip reporting a tool-level failure.
func (c *Client) Execute(ctx context.Context, call core.ToolCallIntent) (core.ToolOutcome, error) {
	c.logger.Debug("executing tool call", "tool", call.Name)
	var outcome core.ToolOutcome
	if err := c.post(ctx, "/tool_usage", executeRequest{ToolCall: call}, &outcome); err != nil {
		return core.ToolOutcome{}, fmt.Errorf("tool execution: %w", err)
	}
	return outcome, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

package toolmanager

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toolbridge/toolbridge/core"
)

func TestLookup(t *testing.T) {
	var got lookupRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tool_lookup", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(lookupResponse{Tools: []core.ToolDescriptor{
			{Name: "get_weather", Description: "fetches weather", Parameters: map[string]any{"type": "object"}},
		}})
	}))
	defer srv.Close()

	c := New(srv.URL)
	tools, err := c.Lookup(context.Background(), "weather in Berlin", 3)
	require.NoError(t, err)

	assert.Equal(t, "weather in Berlin", got.Prompt)
	assert.Equal(t, 3, got.TopK)
	require.Len(t, tools, 1)
	assert.Equal(t, "get_weather", tools[0].Name)
}

func TestLookup_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "index rebuilding", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.Lookup(context.Background(), "anything", 3)
	require.Error(t, err)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
	assert.Contains(t, statusErr.Body, "index rebuilding")
}

func TestExecute(t *testing.T) {
	var got executeRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tool_usage", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(core.ToolOutcome{Result: map[string]any{"temp": 21.5}})
	}))
	defer srv.Close()

	c := New(srv.URL)
	outcome, err := c.Execute(context.Background(), core.ToolCallIntent{
		Name:       "get_weather",
		Parameters: map[string]any{"city": "Berlin"},
	})
	require.NoError(t, err)

	assert.Equal(t, "get_weather", got.ToolCall.Name)
	assert.Equal(t, map[string]any{"city": "Berlin"}, got.ToolCall.Parameters)
	assert.Equal(t, map[string]any{"temp": 21.5}, outcome.Result)
	assert.Nil(t, outcome.Error)
}

func TestExecute_ToolLevelError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// HTTP 200 carrying an error envelope is a tool failure, not a transport failure
		errText := "unknown tool"
		_ = json.NewEncoder(w).Encode(core.ToolOutcome{Error: &errText})
	}))
	defer srv.Close()

	c := New(srv.URL)
	outcome, err := c.Execute(context.Background(), core.ToolCallIntent{Name: "bogus"})
	require.NoError(t, err)
	require.NotNil(t, outcome.Error)
	assert.Equal(t, "unknown tool", *outcome.Error)
}

func TestExecute_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	c := New(srv.URL)
	_, err := c.Execute(context.Background(), core.ToolCallIntent{Name: "any"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tool execution")
}

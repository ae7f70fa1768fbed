package redis

import (
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/toolbridge/toolbridge/conversation"
	"github.com/toolbridge/toolbridge/core"
)

// Interface compliance (compile-time assertion)
var _ conversation.Store = (*Store)(nil)

// newTestStore connects to the Redis instance named by REDIS_ADDR, skipping
// the test when none is configured. Keys are namespaced per test run.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set, skipping Redis store integration test")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	return NewStore(client, func(o *Options) {
		o.KeyPrefix = fmt.Sprintf("toolbridge:test:%d:", time.Now().UnixNano())
		o.TTL = time.Minute
		o.MaxHistoryLength = 3
	})
}

func TestRedisStore_RoundTrip(t *testing.T) {
	s := newTestStore(t)

	if err := s.AppendMessage("c1", core.RoleUser, "hello"); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := s.AppendToolCall("c1", "sum", map[string]any{"a": 1}, 2, nil); err != nil {
		t.Fatalf("append tool call: %v", err)
	}

	conv, err := s.Get("c1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(conv.Messages) != 1 || conv.Messages[0].Content != "hello" {
		t.Fatalf("unexpected messages: %+v", conv.Messages)
	}
	if len(conv.ToolCalls) != 1 || conv.ToolCalls[0].ToolName != "sum" {
		t.Fatalf("unexpected tool calls: %+v", conv.ToolCalls)
	}
}

func TestRedisStore_HistoryTrim(t *testing.T) {
	s := newTestStore(t)
	for i := 0; i < 5; i++ {
		if err := s.AppendMessage("c1", core.RoleUser, fmt.Sprintf("m%d", i)); err != nil {
			t.Fatal(err)
		}
	}
	msgs, err := s.History("c1", true)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 3 || msgs[0].Content != "m2" {
		t.Fatalf("expected trimmed suffix starting at m2, got %+v", msgs)
	}
}

func TestRedisStore_UnknownIDs(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Get("missing"); !errors.Is(err, conversation.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	msgs, err := s.History("missing", true)
	if err != nil || len(msgs) != 0 {
		t.Fatalf("expected empty history, got %v / %v", msgs, err)
	}
	if err := s.Clear("missing"); err != nil {
		t.Fatalf("clear unknown must be a no-op, got %v", err)
	}
	if err := s.Delete("missing"); !errors.Is(err, conversation.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on delete, got %v", err)
	}
}

func TestRedisStore_ClearAndDelete(t *testing.T) {
	s := newTestStore(t)
	_ = s.AppendMessage("c1", core.RoleUser, "hi")
	_ = s.AppendToolCall("c1", "t", nil, nil, nil)

	if err := s.Clear("c1"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	conv, err := s.Get("c1")
	if err != nil {
		t.Fatalf("cleared conversation must still exist: %v", err)
	}
	if len(conv.Messages) != 0 || len(conv.ToolCalls) != 0 {
		t.Fatalf("expected empty conversation, got %+v", conv)
	}

	if err := s.Delete("c1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get("c1"); !errors.Is(err, conversation.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

package conversation

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/toolbridge/toolbridge/core"
)

// Interface compliance (compile-time assertion)
var _ Store = (*InMemoryStore)(nil)

func TestInMemoryStore_LazyCreation(t *testing.T) {
	s := NewInMemoryStore()
	if _, err := s.Get("c1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound before creation, got %v", err)
	}
	if err := s.AppendMessage("c1", core.RoleUser, "hello"); err != nil {
		t.Fatalf("append: %v", err)
	}
	conv, err := s.Get("c1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(conv.Messages) != 1 || conv.Messages[0].Content != "hello" {
		t.Fatalf("unexpected messages: %+v", conv.Messages)
	}
}

func TestInMemoryStore_HistoryTrim(t *testing.T) {
	s := NewInMemoryStore(func(o *Options) { o.MaxHistoryLength = 3 })
	for i := 0; i < 5; i++ {
		if err := s.AppendMessage("c1", core.RoleUser, fmt.Sprintf("m%d", i)); err != nil {
			t.Fatal(err)
		}
	}
	msgs, err := s.History("c1", true)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages after trim, got %d", len(msgs))
	}
	for i, want := range []string{"m2", "m3", "m4"} {
		if msgs[i].Content != want {
			t.Fatalf("message %d: expected %q, got %q", i, want, msgs[i].Content)
		}
	}
}

func TestInMemoryStore_HistoryFiltersSystem(t *testing.T) {
	s := NewInMemoryStore()
	_ = s.AppendMessage("c1", core.RoleSystem, "sys")
	_ = s.AppendMessage("c1", core.RoleUser, "hi")
	msgs, _ := s.History("c1", false)
	if len(msgs) != 1 || msgs[0].Role != core.RoleUser {
		t.Fatalf("expected system message filtered, got %+v", msgs)
	}
	all, _ := s.History("c1", true)
	if len(all) != 2 {
		t.Fatalf("expected 2 with system included, got %d", len(all))
	}
}

func TestInMemoryStore_HistoryUnknownIDIsEmpty(t *testing.T) {
	s := NewInMemoryStore()
	msgs, err := s.History("nope", true)
	if err != nil {
		t.Fatalf("expected nil error for unknown id, got %v", err)
	}
	if len(msgs) != 0 {
		t.Fatalf("expected empty history, got %d", len(msgs))
	}
}

func TestInMemoryStore_ToolCallLogUnbounded(t *testing.T) {
	s := NewInMemoryStore(func(o *Options) { o.MaxHistoryLength = 2 })
	for i := 0; i < 20; i++ {
		if err := s.AppendToolCall("c1", "t", map[string]any{"i": i}, "ok", nil); err != nil {
			t.Fatal(err)
		}
	}
	conv, err := s.Get("c1")
	if err != nil {
		t.Fatal(err)
	}
	if len(conv.ToolCalls) != 20 {
		t.Fatalf("tool call log must not be trimmed, got %d records", len(conv.ToolCalls))
	}
}

func TestInMemoryStore_RecentToolCallsSuffix(t *testing.T) {
	s := NewInMemoryStore()
	for i := 0; i < 8; i++ {
		_ = s.AppendToolCall("c1", fmt.Sprintf("t%d", i), nil, nil, nil)
	}
	calls, err := s.RecentToolCalls("c1", 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(calls) != 3 {
		t.Fatalf("expected 3 calls, got %d", len(calls))
	}
	// oldest first within the suffix
	for i, want := range []string{"t5", "t6", "t7"} {
		if calls[i].ToolName != want {
			t.Fatalf("call %d: expected %q, got %q", i, want, calls[i].ToolName)
		}
	}
}

func TestInMemoryStore_ClearKeepsKey(t *testing.T) {
	s := NewInMemoryStore()
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
	// clearing an unknown id is a no-op
	if err := s.Clear("unknown"); err != nil {
		t.Fatalf("clear unknown: %v", err)
	}
}

func TestInMemoryStore_Delete(t *testing.T) {
	s := NewInMemoryStore()
	_ = s.AppendMessage("c1", core.RoleUser, "hi")
	if err := s.Delete("c1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get("c1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := s.Delete("c1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for double delete, got %v", err)
	}
}

func TestInMemoryStore_GetReturnsSnapshot(t *testing.T) {
	s := NewInMemoryStore()
	_ = s.AppendMessage("c1", core.RoleUser, "original")
	conv, _ := s.Get("c1")
	conv.Messages[0].Content = "mutated"
	again, _ := s.Get("c1")
	if again.Messages[0].Content != "original" {
		t.Fatalf("expected snapshot isolation, got %q", again.Messages[0].Content)
	}
}

func TestInMemoryStore_Concurrency(t *testing.T) {
	s := NewInMemoryStore()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := fmt.Sprintf("c%d", i%5)
			if err := s.AppendMessage(id, core.RoleUser, "msg"); err != nil {
				t.Errorf("append: %v", err)
			}
			_ = s.AppendToolCall(id, "t", nil, nil, nil)
			_, _ = s.History(id, true)
			_, _ = s.RecentToolCalls(id, 5)
		}()
	}
	wg.Wait()
	for i := 0; i < 5; i++ {
		conv, err := s.Get(fmt.Sprintf("c%d", i))
		if err != nil {
			t.Fatal(err)
		}
		if len(conv.ToolCalls) != 20 {
			t.Fatalf("expected 20 tool call records, got %d", len(conv.ToolCalls))
		}
	}
}

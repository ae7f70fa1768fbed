package conversation

import (
	"sync"

	"github.com/toolbridge/toolbridge/core"
	"github.com/toolbridge/toolbridge/logging"
)

// Options configure an InMemoryStore.
type Options struct {
	// MaxHistoryLength caps the message history per conversation.
	MaxHistoryLength int
	// Logger receives store diagnostics. Defaults to NoOpLogger.
	Logger logging.Logger
}

// InMemoryStore is a volatile Store implementation holding conversations in a
// process-local map. A read-write mutex guards the map itself while each
// conversation carries its own mutex, so mutations for one id are serialized
// without blocking traffic on other ids. Returned snapshots are cloned to
// prevent external mutation of internal state.
type InMemoryStore struct {
	mu            sync.RWMutex
	conversations map[string]*entry
	maxHistory    int
	logger        logging.Logger
}

// entry pairs a conversation with its per-id mutex.
type entry struct {
	mu   sync.Mutex
	conv *core.Conversation
}

// NewInMemoryStore constructs an empty in-memory conversation store.
func NewInMemoryStore(optFns ...func(o *Options)) *InMemoryStore {
	opts := Options{
		MaxHistoryLength: DefaultMaxHistoryLength,
		Logger:           logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.MaxHistoryLength <= 0 {
		opts.MaxHistoryLength = DefaultMaxHistoryLength
	}
	return &InMemoryStore{
		conversations: make(map[string]*entry),
		maxHistory:    opts.MaxHistoryLength,
		logger:        opts.Logger,
	}
}

// Ensure creates the conversation if it does not exist yet.
func (s *InMemoryStore) Ensure(id string) error {
	s.ensure(id)
	return nil
}

// AppendMessage appends a message, creating the conversation if absent and
// evicting the oldest message once the history cap is exceeded.
func (s *InMemoryStore) AppendMessage(id string, role core.Role, content string) error {
	e := s.ensure(id)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.conv.Messages = append(e.conv.Messages, core.NewMessage(role, content))
	if len(e.conv.Messages) > s.maxHistory {
		e.conv.Messages = e.conv.Messages[len(e.conv.Messages)-s.maxHistory:]
	}
	s.logger.Debug("message appended", "conversation_id", id, "role", string(role))
	return nil
}

// AppendToolCall appends one record to the unbounded tool call log.
func (s *InMemoryStore) AppendToolCall(id, toolName string, params map[string]any, result any, errText *string) error {
	e := s.ensure(id)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.conv.ToolCalls = append(e.conv.ToolCalls, core.NewToolCallRecord(toolName, params, result, errText))
	s.logger.Debug("tool call appended", "conversation_id", id, "tool", toolName)
	return nil
}

// History returns the ordered message history, optionally filtering out
// system messages. Unknown ids yield an empty history.
func (s *InMemoryStore) History(id string, includeSystem bool) ([]core.Message, error) {
	e, ok := s.lookup(id)
	if !ok {
		s.logger.Warn("history requested for unknown conversation", "conversation_id", id)
		return []core.Message{}, nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]core.Message, 0, len(e.conv.Messages))
	for _, m := range e.conv.Messages {
		if !includeSystem && m.Role == core.RoleSystem {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

// RecentToolCalls returns the most recent suffix of the tool call log, oldest
// first. Unknown ids yield an empty slice.
func (s *InMemoryStore) RecentToolCalls(id string, limit int) ([]core.ToolCallRecord, error) {
	if limit <= 0 {
		limit = DefaultRecentToolCalls
	}
	e, ok := s.lookup(id)
	if !ok {
		return []core.ToolCallRecord{}, nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	calls := e.conv.ToolCalls
	if len(calls) > limit {
		calls = calls[len(calls)-limit:]
	}
	out := make([]core.ToolCallRecord, len(calls))
	copy(out, calls)
	return out, nil
}

// Get returns a snapshot clone of the full conversation or ErrNotFound.
func (s *InMemoryStore) Get(id string) (*core.Conversation, error) {
	e, ok := s.lookup(id)
	if !ok {
		return nil, ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.conv.Clone(), nil
}

// Clear resets the conversation to empty without removing the key. Clearing
// an unknown id is a logged no-op.
func (s *InMemoryStore) Clear(id string) error {
	e, ok := s.lookup(id)
	if !ok {
		s.logger.Warn("clear requested for unknown conversation", "conversation_id", id)
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.conv = core.NewConversation(id)
	return nil
}

// Delete removes the conversation entirely, returning ErrNotFound (after a
// diagnostic) when the id is unknown.
func (s *InMemoryStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.conversations[id]; !ok {
		s.logger.Warn("delete requested for unknown conversation", "conversation_id", id)
		return ErrNotFound
	}
	delete(s.conversations, id)
	s.logger.Info("conversation deleted", "conversation_id", id)
	return nil
}

// lookup fetches the entry for id without creating it.
func (s *InMemoryStore) lookup(id string) (*entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.conversations[id]
	return e, ok
}

// ensure fetches or lazily creates the entry for id.
func (s *InMemoryStore) ensure(id string) *entry {
	s.mu.RLock()
	e, ok := s.conversations[id]
	s.mu.RUnlock()
	if ok {
		return e
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok = s.conversations[id]; ok {
		return e
	}
	e = &entry{conv: core.NewConversation(id)}
	s.conversations[id] = e
	s.logger.Info("conversation created", "conversation_id", id)
	return e
}

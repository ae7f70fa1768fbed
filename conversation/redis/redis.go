// Package redis provides a Redis-backed conversation.Store for deployments
// where conversation state must survive process restarts or be shared across
// replicas behind a sticky router. Conversations are stored as JSON blobs
// under a key prefix; every operation is a read-modify-write cycle guarded by
// a process-local keyed mutex, so the per-id serialization contract holds
// within a single process.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/toolbridge/toolbridge/conversation"
	"github.com/toolbridge/toolbridge/core"
	"github.com/toolbridge/toolbridge/logging"
)

// DefaultKeyPrefix namespaces conversation keys in Redis.
const DefaultKeyPrefix = "toolbridge:conversation:"

// Options configure a Store.
type Options struct {
	// MaxHistoryLength caps the message history per conversation.
	MaxHistoryLength int
	// KeyPrefix namespaces conversation keys.
	KeyPrefix string
	// TTL expires idle conversations; zero keeps them indefinitely.
	TTL time.Duration
	// OpTimeout bounds each Redis round trip.
	OpTimeout time.Duration
	// Logger receives store diagnostics. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Store implements conversation.Store on top of a Redis client.
type Store struct {
	client     *redis.Client
	maxHistory int
	keyPrefix  string
	ttl        time.Duration
	opTimeout  time.Duration
	logger     logging.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

var _ conversation.Store = (*Store)(nil)

// NewStore constructs a Store around an existing Redis client.
func NewStore(client *redis.Client, optFns ...func(o *Options)) *Store {
	opts := Options{
		MaxHistoryLength: conversation.DefaultMaxHistoryLength,
		KeyPrefix:        DefaultKeyPrefix,
		OpTimeout:        5 * time.Second,
		Logger:           logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.MaxHistoryLength <= 0 {
		opts.MaxHistoryLength = conversation.DefaultMaxHistoryLength
	}
	return &Store{
		client:     client,
		maxHistory: opts.MaxHistoryLength,
		keyPrefix:  opts.KeyPrefix,
		ttl:        opts.TTL,
		opTimeout:  opts.OpTimeout,
		logger:     opts.Logger,
		locks:      map[string]*sync.Mutex{},
	}
}

// Ensure creates the conversation if it does not exist yet.
func (s *Store) Ensure(id string) error {
	return s.update(id, true, func(*core.Conversation) {})
}

// AppendMessage appends a message, creating the conversation if absent and
// trimming the history beyond the cap.
func (s *Store) AppendMessage(id string, role core.Role, content string) error {
	return s.update(id, true, func(c *core.Conversation) {
		c.Messages = append(c.Messages, core.NewMessage(role, content))
		if len(c.Messages) > s.maxHistory {
			c.Messages = c.Messages[len(c.Messages)-s.maxHistory:]
		}
	})
}

// AppendToolCall appends one record to the unbounded tool call log.
func (s *Store) AppendToolCall(id, toolName string, params map[string]any, result any, errText *string) error {
	return s.update(id, true, func(c *core.Conversation) {
		c.ToolCalls = append(c.ToolCalls, core.NewToolCallRecord(toolName, params, result, errText))
	})
}

// History returns the ordered message history. Unknown ids yield an empty history.
func (s *Store) History(id string, includeSystem bool) ([]core.Message, error) {
	conv, err := s.load(id)
	if err != nil {
		if errors.Is(err, conversation.ErrNotFound) {
			s.logger.Warn("history requested for unknown conversation", "conversation_id", id)
			return []core.Message{}, nil
		}
		return nil, err
	}
	out := make([]core.Message, 0, len(conv.Messages))
	for _, m := range conv.Messages {
		if !includeSystem && m.Role == core.RoleSystem {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

// RecentToolCalls returns the most recent suffix of the tool call log, oldest first.
func (s *Store) RecentToolCalls(id string, limit int) ([]core.ToolCallRecord, error) {
	if limit <= 0 {
		limit = conversation.DefaultRecentToolCalls
	}
	conv, err := s.load(id)
	if err != nil {
		if errors.Is(err, conversation.ErrNotFound) {
			return []core.ToolCallRecord{}, nil
		}
		return nil, err
	}
	calls := conv.ToolCalls
	if len(calls) > limit {
		calls = calls[len(calls)-limit:]
	}
	return calls, nil
}

// Get returns the full conversation or conversation.ErrNotFound.
func (s *Store) Get(id string) (*core.Conversation, error) {
	return s.load(id)
}

// Clear resets the conversation to empty without removing the key.
func (s *Store) Clear(id string) error {
	lock := s.lock(id)
	lock.Lock()
	defer lock.Unlock()
	if _, err := s.load(id); errors.Is(err, conversation.ErrNotFound) {
		s.logger.Warn("clear requested for unknown conversation", "conversation_id", id)
		return nil
	} else if err != nil {
		return err
	}
	return s.save(core.NewConversation(id))
}

// Delete removes the conversation entirely, returning
// conversation.ErrNotFound when the id is unknown.
func (s *Store) Delete(id string) error {
	lock := s.lock(id)
	lock.Lock()
	defer lock.Unlock()
	ctx, cancel := s.opCtx()
	defer cancel()
	n, err := s.client.Del(ctx, s.key(id)).Result()
	if err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	if n == 0 {
		s.logger.Warn("delete requested for unknown conversation", "conversation_id", id)
		return conversation.ErrNotFound
	}
	s.logger.Info("conversation deleted", "conversation_id", id)
	return nil
}

// update runs a read-modify-write cycle for id under its keyed mutex.
func (s *Store) update(id string, create bool, mutate func(c *core.Conversation)) error {
	lock := s.lock(id)
	lock.Lock()
	defer lock.Unlock()
	conv, err := s.load(id)
	if errors.Is(err, conversation.ErrNotFound) {
		if !create {
			return err
		}
		conv = core.NewConversation(id)
		s.logger.Info("conversation created", "conversation_id", id)
	} else if err != nil {
		return err
	}
	mutate(conv)
	return s.save(conv)
}

func (s *Store) load(id string) (*core.Conversation, error) {
	ctx, cancel := s.opCtx()
	defer cancel()
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, conversation.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}
	var conv core.Conversation
	if err := json.Unmarshal(data, &conv); err != nil {
		return nil, fmt.Errorf("decode conversation: %w", err)
	}
	return &conv, nil
}

func (s *Store) save(conv *core.Conversation) error {
	data, err := json.Marshal(conv)
	if err != nil {
		return fmt.Errorf("encode conversation: %w", err)
	}
	ctx, cancel := s.opCtx()
	defer cancel()
	if err := s.client.Set(ctx, s.key(conv.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save conversation: %w", err)
	}
	return nil
}

func (s *Store) key(id string) string { return s.keyPrefix + id }

func (s *Store) lock(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

func (s *Store) opCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.opTimeout)
}

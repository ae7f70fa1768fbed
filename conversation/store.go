package conversation

import (
	"errors"

	"github.com/toolbridge/toolbridge/core"
)

// DefaultMaxHistoryLength caps the message history per conversation. Insertion
// beyond the cap evicts the oldest message first, irrespective of role. The
// tool call log is never trimmed.
const DefaultMaxHistoryLength = 10

// DefaultRecentToolCalls is the default suffix length for RecentToolCalls.
const DefaultRecentToolCalls = 5

// ErrNotFound is returned when an operation references an unknown
// conversation id and the operation does not create conversations lazily.
var ErrNotFound = errors.New("conversation not found")

// Store persists per-conversation state. Implementations must serialize all
// mutations for a given conversation id while keeping different ids fully
// concurrent. A single operation is atomic; multi-step sequences are not
// linearized against concurrent callers.
type Store interface {
	// Ensure creates the conversation if it does not exist yet.
	Ensure(id string) error

	// AppendMessage appends a message, creating the conversation if absent
	// and evicting the oldest message beyond the history cap.
	AppendMessage(id string, role core.Role, content string) error

	// AppendToolCall appends one record to the unbounded tool call log,
	// creating the conversation if absent.
	AppendToolCall(id, toolName string, params map[string]any, result any, errText *string) error

	// History returns the ordered message history, optionally filtering out
	// system messages. Unknown ids yield an empty history.
	History(id string, includeSystem bool) ([]core.Message, error)

	// RecentToolCalls returns the most recent suffix of the tool call log,
	// oldest first. Unknown ids yield an empty slice.
	RecentToolCalls(id string, limit int) ([]core.ToolCallRecord, error)

	// Get returns a snapshot of the full conversation or ErrNotFound.
	Get(id string) (*core.Conversation, error)

	// Clear resets the conversation to empty without removing the key.
	Clear(id string) error

	// Delete removes the conversation entirely. Deleting an unknown id
	// returns ErrNotFound.
	Delete(id string) error
}

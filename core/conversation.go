package core

// Conversation groups a bounded message history with an unbounded tool call
// log under an opaque id. The struct itself carries no locking; concurrency
// control is the responsibility of the owning store, which serializes all
// mutations per conversation id.
type Conversation struct {
	ID        string           `json:"id"`
	Messages  []Message        `json:"messages"`
	ToolCalls []ToolCallRecord `json:"tool_calls"`
}

// NewConversation creates an empty conversation with the given id.
func NewConversation(id string) *Conversation {
	return &Conversation{ID: id, Messages: []Message{}, ToolCalls: []ToolCallRecord{}}
}

// Clone returns a deep copy safe for independent mutation. Parameter maps and
// results are shared because records are treated as immutable once appended.
func (c *Conversation) Clone() *Conversation {
	clone := &Conversation{
		ID:        c.ID,
		Messages:  make([]Message, len(c.Messages)),
		ToolCalls: make([]ToolCallRecord, len(c.ToolCalls)),
	}
	copy(clone.Messages, c.Messages)
	copy(clone.ToolCalls, c.ToolCalls)
	return clone
}

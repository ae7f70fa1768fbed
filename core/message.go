package core

import "time"

// Role identifies the author of a conversation message.
type Role string

const (
	// RoleUser marks messages authored by the end user.
	RoleUser Role = "user"
	// RoleAssistant marks messages authored by the model.
	RoleAssistant Role = "assistant"
	// RoleSystem marks instruction messages injected by the pipeline.
	RoleSystem Role = "system"
)

// Message is a single conversation turn. Messages are immutable once created
// and owned exclusively by their conversation.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage creates a message stamped with the current UTC time.
func NewMessage(role Role, content string) Message {
	return Message{Role: role, Content: content, Timestamp: time.Now().UTC()}
}

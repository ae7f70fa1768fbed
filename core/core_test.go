package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewID_Unique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := NewID()
		require.NotEmpty(t, id)
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestNewMessage(t *testing.T) {
	m := NewMessage(RoleUser, "hello")
	assert.Equal(t, RoleUser, m.Role)
	assert.Equal(t, "hello", m.Content)
	assert.False(t, m.Timestamp.IsZero())
	assert.Equal(t, "UTC", m.Timestamp.Location().String())
}

func TestNewToolCallRecord_DefaultsParameters(t *testing.T) {
	rec := NewToolCallRecord("sum", nil, nil, nil)
	assert.NotNil(t, rec.Parameters)
	assert.Empty(t, rec.Parameters)
	assert.False(t, rec.Timestamp.IsZero())
}

func TestConversationClone(t *testing.T) {
	conv := NewConversation("c1")
	conv.Messages = append(conv.Messages, NewMessage(RoleUser, "original"))
	conv.ToolCalls = append(conv.ToolCalls, NewToolCallRecord("t", nil, "r", nil))

	clone := conv.Clone()
	require.Equal(t, conv.ID, clone.ID)
	require.Len(t, clone.Messages, 1)
	require.Len(t, clone.ToolCalls, 1)

	clone.Messages[0].Content = "mutated"
	clone.ToolCalls = append(clone.ToolCalls, NewToolCallRecord("t2", nil, nil, nil))

	assert.Equal(t, "original", conv.Messages[0].Content)
	assert.Len(t, conv.ToolCalls, 1)
}

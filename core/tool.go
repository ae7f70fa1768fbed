package core

import "time"

// ToolDescriptor describes a callable tool as returned by the discovery
// service. Parameters holds a JSON-Schema-like object. Descriptors are
// read-only; the pipeline never mutates them.
type ToolDescriptor struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// ToolCallIntent is the structured request to invoke a tool, extracted from
// free-form model output. It is ephemeral and lives only within a single
// orchestration round.
type ToolCallIntent struct {
	Name       string         `json:"name"`
	Parameters map[string]any `json:"parameters"`
}

// ToolOutcome is the result envelope returned by the execution service.
// Exactly one of Result / Error is normally populated; a transport failure is
// represented as a nil Result with Error set.
type ToolOutcome struct {
	Result any     `json:"result"`
	Error  *string `json:"error"`
}

// ToolCallRecord is one entry in a conversation's append-only tool call log.
// A single logical invocation produces two records: a provisional one written
// before execution (Result and Error both unset) and a settled one carrying
// the outcome. The pair preserves a full audit trail instead of mutating the
// first record in place.
type ToolCallRecord struct {
	ToolName   string         `json:"tool_name"`
	Parameters map[string]any `json:"parameters"`
	Result     any            `json:"result"`
	Error      *string        `json:"error"`
	Timestamp  time.Time      `json:"timestamp"`
}

// NewToolCallRecord creates a record stamped with the current UTC time.
func NewToolCallRecord(name string, params map[string]any, result any, errText *string) ToolCallRecord {
	if params == nil {
		params = map[string]any{}
	}
	return ToolCallRecord{
		ToolName:   name,
		Parameters: params,
		Result:     result,
		Error:      errText,
		Timestamp:  time.Now().UTC(),
	}
}

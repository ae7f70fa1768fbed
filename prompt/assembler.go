package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/toolbridge/toolbridge/conversation"
	"github.com/toolbridge/toolbridge/core"
	"github.com/toolbridge/toolbridge/logging"
)

// SystemInstruction is the fixed instruction block attached to every
// generation call. It mandates that all model output be a JSON object with a
// "response" text field and a "tool_call" field that is either null or a
// {name, parameters} object, with a worked example of each shape.
const SystemInstruction = "You are a helpful AI assistant.\n\n" +
	"IMPORTANT: You MUST format ALL your responses as valid JSON objects with this structure:\n" +
	"```json\n" +
	"{\n" +
	"    \"response\": \"your helpful response text here\",\n" +
	"    \"tool_call\": null\n" +
	"}\n" +
	"```\n\n" +
	"When you need to use a tool, format your response as:\n" +
	"```json\n" +
	"{\n" +
	"    \"response\": \"your explanation of what you're doing\",\n" +
	"    \"tool_call\": {\n" +
	"        \"name\": \"name_of_tool\",\n" +
	"        \"parameters\": {\n" +
	"            \"param1\": \"value1\",\n" +
	"            \"param2\": \"value2\"\n" +
	"        }\n" +
	"    }\n" +
	"}\n" +
	"```\n\n" +
	"NEVER respond in plain text. ALWAYS use this JSON format."

// DefaultToolSystemMessage is used for generation calls that carry no
// assembled system message, such as the follow-up call after a tool run.
const DefaultToolSystemMessage = "You are an AI assistant with access to tools. " +
	"Use these tools when appropriate to fulfill user requests. " +
	"Always be helpful, accurate, and concise. " +
	"IMPORTANT: You must remember all previously shared information within the conversation. " +
	"If the user shares their name or preferences, remember this information for the duration of the conversation."

// FormattingInstructions restate the JSON envelope requirement. They are
// appended to every final system prompt regardless of which base system
// message is in effect.
const FormattingInstructions = "\nYou MUST format ALL your responses as valid JSON objects with this structure:\n" +
	"```json\n" +
	"{\n" +
	"    \"response\": \"your helpful response text here\",\n" +
	"    \"tool_call\": null\n" +
	"}\n" +
	"```\n" +
	"When using a tool, set tool_call to a valid object like:\n" +
	"```json\n" +
	"{\n" +
	"    \"response\": \"I'll check that for you\",\n" +
	"    \"tool_call\": {\n" +
	"        \"name\": \"tool_name\",\n" +
	"        \"parameters\": {\n" +
	"            \"param1\": \"value1\"\n" +
	"        }\n" +
	"    }\n" +
	"}\n" +
	"```\n" +
	"ALWAYS respond in this JSON format. NEVER respond in plain text."

// Context is the generation material produced by BuildContext.
type Context struct {
	// History is the trimmed conversation history rendered as
	// "<Role>: <content>" blocks, newest last.
	History string
	// SystemMessage is the fixed instruction block, extended with the recent
	// tool call log when that log is non-empty.
	SystemMessage string
	// CurrentInput echoes the user input recorded by this call.
	CurrentInput string
	// Tools is the tool catalog passed through untouched.
	Tools []core.ToolDescriptor
}

// Options configure an Assembler.
type Options struct {
	// RecentToolCalls bounds the tool call suffix rendered into the system message.
	RecentToolCalls int
	// Logger receives assembler diagnostics. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Assembler builds generation context from the conversation store.
type Assembler struct {
	store           conversation.Store
	recentToolCalls int
	logger          logging.Logger
}

// NewAssembler constructs an Assembler over the given store.
func NewAssembler(store conversation.Store, optFns ...func(o *Options)) *Assembler {
	opts := Options{
		RecentToolCalls: conversation.DefaultRecentToolCalls,
		Logger:          logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Assembler{store: store, recentToolCalls: opts.RecentToolCalls, logger: opts.Logger}
}

// BuildContext records userInput as a user message on the conversation and
// returns the assembled generation context. The write side effect is part of
// the contract: exactly one user-message insertion happens per call.
func (a *Assembler) BuildContext(id, userInput string, tools []core.ToolDescriptor) (Context, error) {
	if err := a.store.Ensure(id); err != nil {
		return Context{}, fmt.Errorf("ensure conversation: %w", err)
	}
	if err := a.store.AppendMessage(id, core.RoleUser, userInput); err != nil {
		return Context{}, fmt.Errorf("record user input: %w", err)
	}

	messages, err := a.store.History(id, true)
	if err != nil {
		return Context{}, fmt.Errorf("load history: %w", err)
	}
	calls, err := a.store.RecentToolCalls(id, a.recentToolCalls)
	if err != nil {
		return Context{}, fmt.Errorf("load tool calls: %w", err)
	}

	system := SystemInstruction
	if toolContext := RenderToolCalls(calls); toolContext != "" {
		system += "\n\n" + toolContext
	}

	return Context{
		History:       RenderHistory(messages),
		SystemMessage: system,
		CurrentInput:  userInput,
		Tools:         tools,
	}, nil
}

// RenderHistory renders messages as "<Role capitalized>: <content>" blocks
// separated by blank lines, newest last, with trailing whitespace stripped.
func RenderHistory(messages []core.Message) string {
	var b strings.Builder
	for _, m := range messages {
		b.WriteString(capitalize(string(m.Role)))
		b.WriteString(": ")
		b.WriteString(m.Content)
		b.WriteString("\n\n")
	}
	return strings.TrimSpace(b.String())
}

// RenderToolCalls renders the recent tool call block for the system message.
// An empty log renders as the empty string.
func RenderToolCalls(calls []core.ToolCallRecord) string {
	if len(calls) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Recent tool calls:\n")
	for _, call := range calls {
		fmt.Fprintf(&b, "- Tool: %s\n", call.ToolName)
		fmt.Fprintf(&b, "  Parameters: %s\n", compactJSON(call.Parameters))
		if call.Result != nil {
			fmt.Fprintf(&b, "  Result: %s\n", compactJSON(call.Result))
		} else if call.Error != nil {
			fmt.Fprintf(&b, "  Error: %s\n", *call.Error)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// RenderTools renders the tool catalog block injected into the system prompt.
func RenderTools(tools []core.ToolDescriptor) string {
	var b strings.Builder
	b.WriteString("Available tools:\n")
	for _, t := range tools {
		fmt.Fprintf(&b, "- %s: %s\n", t.Name, t.Description)
		fmt.Fprintf(&b, "  Parameters: %s\n\n", compactJSON(t.Parameters))
	}
	return b.String()
}

func compactJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

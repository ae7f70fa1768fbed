package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/toolbridge/toolbridge/conversation"
	"github.com/toolbridge/toolbridge/core"
	"github.com/toolbridge/toolbridge/interpret"
	"github.com/toolbridge/toolbridge/logging"
	"github.com/toolbridge/toolbridge/model"
	"github.com/toolbridge/toolbridge/prompt"
)

// DefaultTopK caps how many tool descriptors discovery returns per request.
const DefaultTopK = 3

// ToolDiscovery resolves the tools most relevant to a user prompt.
type ToolDiscovery interface {
	Lookup(ctx context.Context, prompt string, topK int) ([]core.ToolDescriptor, error)
}

// ToolExecutor invokes a tool call against the execution service.
type ToolExecutor interface {
	Execute(ctx context.Context, call core.ToolCallIntent) (core.ToolOutcome, error)
}

// Options configure an Agent.
type Options struct {
	// TopK caps the number of tools requested from discovery.
	TopK int
	// Assembler overrides the default prompt assembler built on the store.
	Assembler *prompt.Assembler
	// Interpreter overrides the default fallback-chain interpreter.
	Interpreter *interpret.Interpreter
	// Logger receives orchestration diagnostics. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Agent is the per-request orchestrator. A single shared instance serves all
// requests concurrently; the conversation store is the only shared mutable
// resource and serializes its own mutations per conversation id.
type Agent struct {
	generator   model.Generator
	discovery   ToolDiscovery
	executor    ToolExecutor
	store       conversation.Store
	assembler   *prompt.Assembler
	interpreter *interpret.Interpreter
	topK        int
	logger      logging.Logger
}

// New constructs an Agent around its collaborators.
func New(
	generator model.Generator,
	discovery ToolDiscovery,
	executor ToolExecutor,
	store conversation.Store,
	optFns ...func(o *Options),
) *Agent {
	opts := Options{
		TopK:   DefaultTopK,
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Assembler == nil {
		opts.Assembler = prompt.NewAssembler(store, func(o *prompt.Options) { o.Logger = opts.Logger })
	}
	if opts.Interpreter == nil {
		opts.Interpreter = interpret.New(func(o *interpret.Options) { o.Logger = opts.Logger })
	}
	return &Agent{
		generator:   generator,
		discovery:   discovery,
		executor:    executor,
		store:       store,
		assembler:   opts.Assembler,
		interpreter: opts.Interpreter,
		topK:        opts.TopK,
		logger:      opts.Logger,
	}
}

// Reply is the response envelope returned by Process.
type Reply struct {
	ConversationID string            `json:"conversation_id"`
	Response       string            `json:"response"`
	ToolUsed       *string           `json:"tool_used"`
	ToolParameters map[string]any    `json:"tool_parameters"`
	ToolResult     *core.ToolOutcome `json:"tool_result"`
	Debug          *DebugInfo        `json:"debug_info,omitempty"`
}

// DebugInfo carries the intermediate pipeline material attached to a Reply
// when debug mode is on.
type DebugInfo struct {
	SystemMessage       string                `json:"system_message"`
	History             string                `json:"conversation_history"`
	ToolNames           []string              `json:"tools"`
	Tools               []core.ToolDescriptor `json:"full_tools_info"`
	RawResponse         string                `json:"raw_llm_response"`
	FollowUpPrompt      string                `json:"follow_up_prompt,omitempty"`
	RawFollowUpResponse string                `json:"raw_follow_up_response,omitempty"`
}

// ProcessOptions configure a single Process call.
type ProcessOptions struct {
	// Debug attaches intermediate pipeline material to the reply.
	Debug bool
}

// WithDebug enables debug mode for one Process call.
func WithDebug() func(o *ProcessOptions) {
	return func(o *ProcessOptions) { o.Debug = true }
}

// Process runs one orchestration round for userInput. An empty conversationID
// mints a fresh conversation. Generation failures are returned as errors;
// discovery and execution failures degrade per the pipeline contract.
func (a *Agent) Process(ctx context.Context, userInput, conversationID string, optFns ...func(o *ProcessOptions)) (*Reply, error) {
	var popts ProcessOptions
	for _, fn := range optFns {
		fn(&popts)
	}

	if conversationID == "" {
		conversationID = core.NewID()
	}
	logger := a.logger
	logger.Info("processing input", "conversation_id", conversationID)

	// DISCOVER_TOOLS: any failure degrades to zero tools available.
	tools, err := a.discovery.Lookup(ctx, userInput, a.topK)
	if err != nil {
		logger.Error("tool discovery failed, continuing without tools",
			"conversation_id", conversationID, "error", err.Error())
		tools = nil
	}

	// BUILD_CONTEXT: records the user turn as a side effect.
	pctx, err := a.assembler.BuildContext(conversationID, userInput, tools)
	if err != nil {
		return nil, fmt.Errorf("build context: %w", err)
	}

	var debug *DebugInfo
	if popts.Debug {
		names := make([]string, len(tools))
		for i, t := range tools {
			names[i] = t.Name
		}
		debug = &DebugInfo{
			SystemMessage: pctx.SystemMessage,
			History:       pctx.History,
			ToolNames:     names,
			Tools:         tools,
		}
	}

	// GENERATE_INITIAL
	raw, err := a.generate(ctx, userInput, pctx.SystemMessage, pctx.History, tools)
	if err != nil {
		return nil, err
	}
	if debug != nil {
		debug.RawResponse = raw
	}

	// INTERPRET
	res := a.interpreter.Interpret(raw)
	responseText := res.Text

	var outcome *core.ToolOutcome
	if res.ToolCall != nil {
		call := *res.ToolCall
		logger.Info("tool call detected", "conversation_id", conversationID, "tool", call.Name)

		settled := a.executeTool(ctx, conversationID, call)
		outcome = &settled

		// FOLLOW_UP only on a non-nil result; an error outcome leaves the
		// interpreted text standing as the reply.
		if settled.Result != nil {
			followUpText, err := a.followUp(ctx, conversationID, userInput, call, settled, tools, debug)
			if err != nil {
				return nil, err
			}
			responseText = followUpText
		}
	}

	// FINALIZE
	if err := a.store.AppendMessage(conversationID, core.RoleAssistant, responseText); err != nil {
		return nil, fmt.Errorf("record assistant reply: %w", err)
	}

	reply := &Reply{
		ConversationID: conversationID,
		Response:       responseText,
		ToolResult:     outcome,
		Debug:          debug,
	}
	if res.ToolCall != nil {
		reply.ToolUsed = &res.ToolCall.Name
		reply.ToolParameters = res.ToolCall.Parameters
	}
	return reply, nil
}

// executeTool writes the provisional audit record, invokes the execution
// service and writes the settled record. A transport failure becomes an
// error-bearing outcome rather than a request failure.
func (a *Agent) executeTool(ctx context.Context, conversationID string, call core.ToolCallIntent) core.ToolOutcome {
	name := call.Name
	if name == "" {
		name = "unknown"
	}
	if err := a.store.AppendToolCall(conversationID, name, call.Parameters, nil, nil); err != nil {
		a.logger.Error("failed to record provisional tool call",
			"conversation_id", conversationID, "tool", name, "error", err.Error())
	}

	start := time.Now()
	outcome, err := a.executor.Execute(ctx, call)
	if err != nil {
		reason := err.Error()
		outcome = core.ToolOutcome{Error: &reason}
	}
	dur := time.Since(start)
	switch {
	case err != nil:
		a.logger.Error("tool execution failed", "tool", name, "duration", dur, "error", err.Error())
	case outcome.Error != nil:
		a.logger.Error("tool execution failed", "tool", name, "duration", dur, "error", *outcome.Error)
	default:
		a.logger.Info("tool execution completed", "tool", name, "duration", dur)
	}

	if err := a.store.AppendToolCall(conversationID, name, call.Parameters, outcome.Result, outcome.Error); err != nil {
		a.logger.Error("failed to record settled tool call",
			"conversation_id", conversationID, "tool", name, "error", err.Error())
	}
	return outcome
}

// followUp rebuilds context (which records the same user input again) and
// issues a second generation call grounded in the tool result. The follow-up's
// own tool call, if any, is discarded.
func (a *Agent) followUp(
	ctx context.Context,
	conversationID, userInput string,
	call core.ToolCallIntent,
	outcome core.ToolOutcome,
	tools []core.ToolDescriptor,
	debug *DebugInfo,
) (string, error) {
	updated, err := a.assembler.BuildContext(conversationID, userInput, tools)
	if err != nil {
		return "", fmt.Errorf("rebuild context: %w", err)
	}

	followUpPrompt := fmt.Sprintf(
		"I executed the tool %s with parameters %s and got the result: %s. "+
			"Please provide a helpful response based on this result.",
		call.Name, mustJSON(call.Parameters), mustJSON(outcome.Result),
	)

	raw, err := a.generate(ctx, followUpPrompt, "", updated.History, tools)
	if err != nil {
		return "", err
	}
	if debug != nil {
		debug.FollowUpPrompt = followUpPrompt
		debug.RawFollowUpResponse = raw
	}
	return a.interpreter.Interpret(raw).Text, nil
}

// generate composes the final prompt and system message, calls the generator
// and normalizes output that ignored the JSON formatting instructions: text
// that is not already a top-level JSON object is wrapped into the expected
// envelope before interpretation.
func (a *Agent) generate(ctx context.Context, promptText, system, history string, tools []core.ToolDescriptor) (string, error) {
	if system == "" {
		system = prompt.DefaultToolSystemMessage
	}
	finalSystem := system + "\n\n" + prompt.RenderTools(tools) + "\n" + prompt.FormattingInstructions

	finalPrompt := promptText
	if history != "" {
		finalPrompt = "Previous conversation:\n" + history + "\n\nCurrent user message: " + promptText
	}

	start := time.Now()
	resp, err := a.generator.Generate(ctx, model.Request{Prompt: finalPrompt, System: finalSystem})
	if err != nil {
		a.logger.Error("generation call failed",
			"model", a.generator.Info().Name, "duration", time.Since(start), "error", err.Error())
		return "", fmt.Errorf("generation failed: %w", err)
	}
	a.logger.Debug("generation call completed",
		"model", a.generator.Info().Name, "duration", time.Since(start))

	text := resp.Text
	if !strings.HasPrefix(text, "{") || !strings.HasSuffix(text, "}") {
		a.logger.Warn("generation output not in JSON format, wrapping it automatically")
		wrapped, err := json.Marshal(map[string]any{"response": text, "tool_call": nil})
		if err != nil {
			return "", fmt.Errorf("wrap generation output: %w", err)
		}
		text = string(wrapped)
	}
	return text, nil
}

// DeleteConversation removes a conversation entirely.
// Returns conversation.ErrNotFound for unknown ids.
func (a *Agent) DeleteConversation(id string) error {
	return a.store.Delete(id)
}

// GetConversation returns a snapshot of a conversation's messages and tool
// call log. Returns conversation.ErrNotFound for unknown ids.
func (a *Agent) GetConversation(id string) (*core.Conversation, error) {
	return a.store.Get(id)
}

// ClearConversation resets a conversation to empty without removing its id.
func (a *Agent) ClearConversation(id string) error {
	return a.store.Clear(id)
}

func mustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

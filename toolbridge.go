// Package toolbridge provides a high-level façade over the response
// interpretation and orchestration pipeline. Most applications interact with
// this package by:
//  1. Creating a ToolBridge via New() (optionally overriding the default
//     in-memory store, Ollama generator or tool manager client)
//  2. Calling Process for each user turn
//  3. Reading or deleting stored conversations as needed
//
// The façade delegates orchestration to agent.Agent while keeping setup
// ergonomics concise. All defaults are safe for local development; production
// deployments typically supply a durable store and a structured logger.
package toolbridge

import (
	"context"

	"github.com/toolbridge/toolbridge/agent"
	"github.com/toolbridge/toolbridge/conversation"
	"github.com/toolbridge/toolbridge/core"
	"github.com/toolbridge/toolbridge/logging"
	"github.com/toolbridge/toolbridge/model"
	"github.com/toolbridge/toolbridge/model/ollama"
	"github.com/toolbridge/toolbridge/toolmanager"
)

// Options configure a ToolBridge instance.
type Options struct {
	// ToolManagerURL locates the tool manager service when no explicit
	// discovery/executor client is supplied.
	ToolManagerURL string

	// Generator overrides the default local Ollama backend.
	Generator model.Generator

	// Store overrides the default in-memory conversation store.
	Store conversation.Store

	// TopK caps the number of tools requested from discovery per request.
	TopK int

	// Logger defaults to NoOpLogger if nil.
	Logger logging.Logger
}

// ToolBridge is the high-level façade aggregating the orchestrator and its
// collaborators.
type ToolBridge struct {
	agent *agent.Agent
	store conversation.Store
}

// New creates a ToolBridge with optional overrides. Any unset collaborator
// falls back to a sensible local default.
func New(optFns ...func(o *Options)) *ToolBridge {
	opts := Options{
		ToolManagerURL: "http://localhost:8000",
		TopK:           agent.DefaultTopK,
		Logger:         logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Store == nil {
		opts.Store = conversation.NewInMemoryStore(func(o *conversation.Options) { o.Logger = opts.Logger })
	}
	if opts.Generator == nil {
		opts.Generator = ollama.New(func(o *ollama.Options) { o.Logger = opts.Logger })
	}

	tm := toolmanager.New(opts.ToolManagerURL, func(o *toolmanager.Options) { o.Logger = opts.Logger })
	a := agent.New(opts.Generator, tm, tm, opts.Store, func(o *agent.Options) {
		o.TopK = opts.TopK
		o.Logger = opts.Logger
	})
	return &ToolBridge{agent: a, store: opts.Store}
}

// Process runs one orchestration round. An empty conversationID mints a new
// conversation; the returned reply carries the id to continue with.
func (tb *ToolBridge) Process(ctx context.Context, userInput, conversationID string, optFns ...func(o *agent.ProcessOptions)) (*agent.Reply, error) {
	return tb.agent.Process(ctx, userInput, conversationID, optFns...)
}

// GetConversation returns a snapshot of a stored conversation.
func (tb *ToolBridge) GetConversation(id string) (*core.Conversation, error) {
	return tb.agent.GetConversation(id)
}

// DeleteConversation removes a conversation entirely.
func (tb *ToolBridge) DeleteConversation(id string) error {
	return tb.agent.DeleteConversation(id)
}

// Agent exposes the underlying orchestrator for callers that wire their own
// transport.
func (tb *ToolBridge) Agent() *agent.Agent { return tb.agent }

// Package agent drives the per-request orchestration pipeline: discover
// candidate tools, assemble context, generate a response, interpret it, and,
// when a tool call intent is present, execute the tool and generate a grounded
// follow-up before recording the final reply.
//
// The states are visited linearly with no branching back:
//
//	START -> DISCOVER_TOOLS -> BUILD_CONTEXT -> GENERATE_INITIAL -> INTERPRET
//	      -> (EXECUTE_TOOL?) -> RECORD -> (FOLLOW_UP?) -> FINALIZE
//
// Discovery and execution failures degrade gracefully (empty tool list,
// error-bearing outcome) and never abort the request; generation failures
// propagate as a fatal failure of the whole request.
package agent

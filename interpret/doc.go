// Package interpret extracts a structured reply and optional tool call intent
// from raw model output. Model output is unreliable: it may be a clean JSON
// object, JSON wrapped in a markdown fence, JSON buried inside prose, or
// plain text. The interpreter applies an ordered chain of parsing strategies,
// cheapest and most confident first, and stops at the first strategy that
// succeeds. The ordering is a deliberate confidence ranking: the whole-text
// parse may succeed without finding a tool call, while the later strategies
// search specifically for one.
package interpret

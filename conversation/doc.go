// Package conversation houses the Store contract for per-conversation state
// (bounded message history plus an unbounded tool call log) and its in-memory
// implementation. Every mutation is serialized per conversation id so that
// concurrent requests against the same conversation cannot interleave their
// read-modify-write steps; different ids remain fully concurrent.
//
// Add additional backends (Redis, Postgres, ...) in sub-packages without
// changing any calling code; only the wiring layer decides which
// implementation to instantiate.
package conversation

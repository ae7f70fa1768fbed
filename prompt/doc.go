// Package prompt assembles the material handed to generation calls: the
// rendered conversation history, the system instruction mandating the JSON
// response envelope, the recent tool call block and the tool catalog. Building
// context is deliberately not a pure query: it records the inbound user turn
// as part of assembling the context, so callers must account for exactly one
// user-message insertion per BuildContext call.
package prompt

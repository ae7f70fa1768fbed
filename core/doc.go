// Package core defines the domain contracts shared by every toolbridge
// package: conversation messages, the append-only tool call log, the tool
// descriptors returned by the discovery service and the tool call intent
// extracted from model output. Keeping these types in one leaf package lets
// higher layers (prompt assembly, interpretation, orchestration, transport)
// depend on contracts without depending on each other.
package core

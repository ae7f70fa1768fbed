// Package toolmanager is the HTTP client for the external tool manager
// service, covering both collaborator contracts the pipeline consumes: ranked
// tool discovery for a natural-language prompt and typed tool execution. The
// client reports failures as errors; deciding how to degrade (empty tool
// list, error-bearing outcome) is the orchestrator's responsibility.
package toolmanager

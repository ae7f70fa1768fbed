// Package model defines the generation contract consumed by the
// orchestrator: a single blocking Generate call taking a prompt plus optional
// system instructions and returning raw text. The text may or may not be
// well-formed JSON; interpreting it is the job of the interpret package, not
// the providers. Concrete backends (Ollama, OpenAI, Anthropic) live in
// sub-packages behind the same Generator interface so the wiring layer can
// swap providers by configuration.
package model

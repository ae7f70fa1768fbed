package interpret

import (
	"strings"

	"github.com/toolbridge/toolbridge/core"
	"github.com/toolbridge/toolbridge/logging"
)

// Result is the interpreted form of one piece of model output. ToolCall is
// nil when the output carried no usable tool call intent.
type Result struct {
	Text     string
	ToolCall *core.ToolCallIntent
}

// Strategy attempts to extract a Result from raw model output. The boolean
// reports whether the strategy produced a definitive result; false hands the
// input to the next strategy in the chain.
type Strategy func(raw string) (Result, bool)

// Options configure an Interpreter.
type Options struct {
	// Strategies overrides the default fallback chain. Order matters.
	Strategies []Strategy
	// Logger receives interpreter diagnostics. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Interpreter runs the fallback chain over raw model output.
type Interpreter struct {
	strategies []Strategy
	logger     logging.Logger
}

// DefaultStrategies returns the standard chain in confidence order:
// whole-text JSON parse, fenced block extraction, balanced-brace scan and the
// last-resort single-object extraction.
func DefaultStrategies() []Strategy {
	return []Strategy{
		ParseWholeJSON,
		ParseFencedBlock,
		ScanBraceCandidates,
		ParseOutermostObject,
	}
}

// New constructs an Interpreter with the default strategy chain unless
// overridden via Options.
func New(optFns ...func(o *Options)) *Interpreter {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Strategies == nil {
		opts.Strategies = DefaultStrategies()
	}
	return &Interpreter{strategies: opts.Strategies, logger: opts.Logger}
}

// Interpret applies the strategy chain to raw in order and returns the first
// definitive result. If every strategy falls through, the whole text is the
// reply: whitespace-trimmed, with no tool call.
func (i *Interpreter) Interpret(raw string) Result {
	for idx, strategy := range i.strategies {
		if res, ok := strategy(raw); ok {
			i.logger.Debug("interpretation strategy succeeded",
				"strategy", idx, "has_tool_call", res.ToolCall != nil)
			return res
		}
	}
	i.logger.Debug("all interpretation strategies fell through")
	return Result{Text: strings.TrimSpace(raw)}
}

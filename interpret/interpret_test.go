package interpret

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWholeJSON_PlainEnvelope(t *testing.T) {
	res, ok := ParseWholeJSON(`{"response": "Hello there!", "tool_call": null}`)
	require.True(t, ok)
	assert.Equal(t, "Hello there!", res.Text)
	assert.Nil(t, res.ToolCall)
}

func TestParseWholeJSON_WithToolCall(t *testing.T) {
	raw := `{"response": "Checking the weather", "tool_call": {"name": "get_weather", "parameters": {"city": "Berlin"}}}`
	res, ok := ParseWholeJSON(raw)
	require.True(t, ok)
	assert.Equal(t, "Checking the weather", res.Text)
	require.NotNil(t, res.ToolCall)
	assert.Equal(t, "get_weather", res.ToolCall.Name)
	assert.Equal(t, map[string]any{"city": "Berlin"}, res.ToolCall.Parameters)
}

func TestParseWholeJSON_MissingResponseFallsBackToRaw(t *testing.T) {
	raw := `{"tool_call": null}`
	res, ok := ParseWholeJSON(raw)
	require.True(t, ok)
	assert.Equal(t, raw, res.Text)
}

func TestParseWholeJSON_RejectsNonObjects(t *testing.T) {
	for _, raw := range []string{`"just a string"`, `[1, 2, 3]`, `42`, "plain text", ""} {
		_, ok := ParseWholeJSON(raw)
		assert.False(t, ok, "input %q should not parse as object", raw)
	}
}

func TestParseFencedBlock(t *testing.T) {
	raw := "Here is my answer:\n```json\n{\"response\": \"Done\", \"tool_call\": {\"name\": \"format_text\", \"parameters\": {\"style\": \"bold\"}}}\n```\nHope that helps."
	res, ok := ParseFencedBlock(raw)
	require.True(t, ok)
	assert.Equal(t, "Done", res.Text)
	require.NotNil(t, res.ToolCall)
	assert.Equal(t, "format_text", res.ToolCall.Name)
}

func TestParseFencedBlock_UntaggedFence(t *testing.T) {
	raw := "```\n{\"response\": \"ok\", \"tool_call\": null}\n```"
	res, ok := ParseFencedBlock(raw)
	require.True(t, ok)
	assert.Equal(t, "ok", res.Text)
	assert.Nil(t, res.ToolCall)
}

func TestParseFencedBlock_MissingResponseYieldsEmptyText(t *testing.T) {
	raw := "```json\n{\"tool_call\": {\"name\": \"t\", \"parameters\": {}}}\n```"
	res, ok := ParseFencedBlock(raw)
	require.True(t, ok)
	assert.Equal(t, "", res.Text)
	require.NotNil(t, res.ToolCall)
}

func TestParseFencedBlock_NoFence(t *testing.T) {
	_, ok := ParseFencedBlock(`{"response": "no fence here", "tool_call": null}`)
	assert.False(t, ok)
}

func TestParseFencedBlock_FenceWithoutObject(t *testing.T) {
	_, ok := ParseFencedBlock("```json\nnot json at all\n```")
	assert.False(t, ok)
}

func TestScanBraceCandidates_SkipsObjectsWithoutKey(t *testing.T) {
	raw := `First {"other": 1} then {"response": "found it", "tool_call": null} done`
	res, ok := ScanBraceCandidates(raw)
	require.True(t, ok)
	assert.Equal(t, "found it", res.Text)
	assert.Nil(t, res.ToolCall)
}

func TestScanBraceCandidates_ExcisesCandidateWhenNoResponse(t *testing.T) {
	raw := `Sure thing. {"tool_call": null} Anything else?`
	res, ok := ScanBraceCandidates(raw)
	require.True(t, ok)
	assert.Equal(t, "Sure thing.  Anything else?", res.Text)
}

func TestScanBraceCandidates_OneNestingLevel(t *testing.T) {
	// The scan tolerates exactly one level of nested braces; a tool_call
	// object without a parameters object fits.
	raw := `noise {"response": "running", "tool_call": {"name": "sum"}} noise`
	res, ok := ScanBraceCandidates(raw)
	require.True(t, ok)
	assert.Equal(t, "running", res.Text)
	require.NotNil(t, res.ToolCall)
	assert.Equal(t, "sum", res.ToolCall.Name)
	assert.Empty(t, res.ToolCall.Parameters)
}

func TestInterpret_DeepNestingFallsToLastResort(t *testing.T) {
	// A parameters object nests too deep for the brace scan; the outermost
	// extraction picks it up instead.
	i := New()
	raw := `Model said {"response": "deep", "tool_call": {"name": "sum", "parameters": {"a": 1}}} there`
	res := i.Interpret(raw)
	assert.Equal(t, "deep", res.Text)
	require.NotNil(t, res.ToolCall)
	assert.Equal(t, "sum", res.ToolCall.Name)
	assert.Equal(t, map[string]any{"a": float64(1)}, res.ToolCall.Parameters)
}

func TestScanBraceCandidates_NoMatch(t *testing.T) {
	_, ok := ScanBraceCandidates("no braces at all")
	assert.False(t, ok)
}

func TestParseOutermostObject_SingleQuotes(t *testing.T) {
	raw := `The result is {'response': 'normalized', 'tool_call': null} as requested`
	res, ok := ParseOutermostObject(raw)
	require.True(t, ok)
	assert.Equal(t, "normalized", res.Text)
	assert.Nil(t, res.ToolCall)
}

func TestParseOutermostObject_RequiresToolCallKey(t *testing.T) {
	_, ok := ParseOutermostObject(`{"response": "no key"}`)
	assert.False(t, ok)
}

func TestParseOutermostObject_NoBraces(t *testing.T) {
	_, ok := ParseOutermostObject("nothing here")
	assert.False(t, ok)
}

func TestInterpret_WholeJSONShortCircuits(t *testing.T) {
	// A parseable envelope without a tool call must never reach the scanning
	// strategies, even though they would also match its substrings.
	i := New()
	res := i.Interpret(`{"response": "direct", "tool_call": null}`)
	assert.Equal(t, "direct", res.Text)
	assert.Nil(t, res.ToolCall)
}

func TestInterpret_FallsThroughToFence(t *testing.T) {
	i := New()
	raw := "Sure:\n```json\n{\"response\": \"from fence\", \"tool_call\": null}\n```"
	res := i.Interpret(raw)
	assert.Equal(t, "from fence", res.Text)
}

func TestInterpret_DefaultIsTrimmedRawText(t *testing.T) {
	i := New()
	res := i.Interpret("  The answer is 42.  \n")
	assert.Equal(t, "The answer is 42.", res.Text)
	assert.Nil(t, res.ToolCall)
}

func TestInterpret_DefaultIdempotent(t *testing.T) {
	i := New()
	first := i.Interpret("just some prose without JSON")
	second := i.Interpret(first.Text)
	assert.Equal(t, first.Text, second.Text)
	assert.Nil(t, second.ToolCall)
}

func TestInterpret_ChainOrder(t *testing.T) {
	// The same input matches both strategy 1 and strategy 3; strategy 1 wins.
	i := New()
	raw := `{"response": "whole", "tool_call": {"name": "t", "parameters": {}}}`
	res := i.Interpret(raw)
	assert.Equal(t, "whole", res.Text)
	require.NotNil(t, res.ToolCall)
}

func TestDecodeIntent_DefaultsParameters(t *testing.T) {
	intent := decodeIntent(map[string]any{"name": "bare"})
	require.NotNil(t, intent)
	assert.Equal(t, "bare", intent.Name)
	assert.NotNil(t, intent.Parameters)
	assert.Empty(t, intent.Parameters)
}

func TestDecodeIntent_NullAndMalformed(t *testing.T) {
	assert.Nil(t, decodeIntent(nil))
	assert.Nil(t, decodeIntent("get_weather"))
	assert.Nil(t, decodeIntent([]any{"a"}))
}

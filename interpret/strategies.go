package interpret

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/toolbridge/toolbridge/core"
)

var (
	// fencedRe matches the first markdown code fence, optionally tagged json.
	fencedRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

	// braceRe matches JSON-object-like substrings, tolerating one level of
	// nested braces. Deeper nesting is left to the last-resort strategy.
	braceRe = regexp.MustCompile(`\{(?:[^{}]|(?:\{[^{}]*\}))*\}`)
)

// ParseWholeJSON attempts to parse the entire text as a JSON object. On
// success it is definitive even when no tool call is present: a well-formed
// envelope with "tool_call": null never reaches the later strategies. The
// reply text is the "response" field, falling back to the raw text.
func ParseWholeJSON(raw string) (Result, bool) {
	obj, ok := parseObject(raw)
	if !ok {
		return Result{}, false
	}
	text := raw
	if s, ok := obj["response"].(string); ok {
		text = s
	}
	return Result{Text: strings.TrimSpace(text), ToolCall: decodeIntent(obj["tool_call"])}, true
}

// ParseFencedBlock extracts the first fenced code block and parses its
// contents as a JSON object. On success the object's fields are returned
// directly, with no defaulting: a missing "response" yields empty text.
func ParseFencedBlock(raw string) (Result, bool) {
	m := fencedRe.FindStringSubmatch(raw)
	if m == nil {
		return Result{}, false
	}
	obj, ok := parseObject(m[1])
	if !ok {
		return Result{}, false
	}
	text, _ := obj["response"].(string)
	return Result{Text: text, ToolCall: decodeIntent(obj["tool_call"])}, true
}

// ScanBraceCandidates scans for JSON-object-like substrings left to right and
// selects the first candidate that parses and contains a "tool_call" key.
// Candidates that fail to parse, or parse but lack the key, are skipped. The
// reply text is the candidate's "response" field when present, otherwise the
// raw text with the matched substring removed.
func ScanBraceCandidates(raw string) (Result, bool) {
	for _, loc := range braceRe.FindAllStringIndex(raw, -1) {
		candidate := raw[loc[0]:loc[1]]
		obj, ok := parseObject(candidate)
		if !ok {
			continue
		}
		callValue, present := obj["tool_call"]
		if !present {
			continue
		}
		text, ok := obj["response"].(string)
		if !ok {
			text = strings.ReplaceAll(raw, candidate, "")
		}
		return Result{Text: strings.TrimSpace(text), ToolCall: decodeIntent(callValue)}, true
	}
	return Result{}, false
}

// ParseOutermostObject is the last resort: take the substring from the first
// "{" to the last "}", normalize single quotes to double quotes, and parse.
// Only a parse that yields an object containing "tool_call" is definitive;
// every failure is swallowed so the chain can fall through to the default.
func ParseOutermostObject(raw string) (Result, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end < start {
		return Result{}, false
	}
	candidate := strings.ReplaceAll(raw[start:end+1], "'", "\"")
	obj, ok := parseObject(candidate)
	if !ok {
		return Result{}, false
	}
	callValue, present := obj["tool_call"]
	if !present {
		return Result{}, false
	}
	text, ok := obj["response"].(string)
	if !ok {
		text = raw[:start] + raw[end+1:]
	}
	return Result{Text: strings.TrimSpace(text), ToolCall: decodeIntent(callValue)}, true
}

// parseObject parses s as JSON and requires the value to be an object.
func parseObject(s string) (map[string]any, bool) {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, false
	}
	obj, ok := v.(map[string]any)
	return obj, ok
}

// decodeIntent converts a decoded "tool_call" value into an intent. Null or
// malformed values yield nil: presence of the key decides strategy selection,
// not usability of the value.
func decodeIntent(v any) *core.ToolCallIntent {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	name, _ := m["name"].(string)
	params, _ := m["parameters"].(map[string]any)
	if params == nil {
		params = map[string]any{}
	}
	return &core.ToolCallIntent{Name: name, Parameters: params}
}

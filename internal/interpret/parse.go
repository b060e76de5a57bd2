package interpret

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformed means the reply fits neither reply form and no JSON
// operation array could be recovered from it.
var ErrMalformed = errors.New("interpret: malformed model reply")

const (
	conversationPrefix = "CONVERSATION:"
	commandPrefix      = "COMMAND:"
)

// Reply is a parsed model reply: either conversation text or a list of
// raw operations still to be validated.
type Reply struct {
	Conversation string
	Ops          []json.RawMessage
	IsCommand    bool
}

// ParseReply extracts the reply form from raw model output. Strictly a
// pure string function: parsing the same reply twice gives the same
// result. Models drift from the format, so after the two labeled forms
// it falls back to a bare JSON array, then to the first balanced array
// embedded anywhere in the text.
func ParseReply(raw string) (Reply, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return Reply{}, fmt.Errorf("%w: empty", ErrMalformed)
	}

	if rest, ok := cutPrefixFold(text, conversationPrefix); ok {
		msg := strings.TrimSpace(rest)
		if msg == "" {
			return Reply{}, fmt.Errorf("%w: empty conversation", ErrMalformed)
		}
		return Reply{Conversation: msg}, nil
	}

	if idx := indexFold(text, commandPrefix); idx >= 0 {
		return parseOpsArray(text[idx+len(commandPrefix):])
	}

	// Bare array with no label.
	if strings.HasPrefix(text, "[") {
		return parseOpsArray(text)
	}

	// Last resort: an array buried in prose or a code fence.
	if arr, ok := extractBalancedArray(text); ok {
		return parseOpsArray(arr)
	}

	return Reply{}, fmt.Errorf("%w: no recognized form", ErrMalformed)
}

func parseOpsArray(s string) (Reply, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	arr, ok := extractBalancedArray(s)
	if !ok {
		return Reply{}, fmt.Errorf("%w: no operation array", ErrMalformed)
	}
	var ops []json.RawMessage
	if err := json.Unmarshal([]byte(arr), &ops); err != nil {
		return Reply{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return Reply{IsCommand: true, Ops: ops}, nil
}

// extractBalancedArray returns the first bracket-balanced JSON array in
// the text, respecting strings and escapes.
func extractBalancedArray(s string) (string, bool) {
	start := strings.IndexByte(s, '[')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '[':
			depth++
		case c == ']':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix) {
		return s[len(prefix):], true
	}
	return "", false
}

func indexFold(s, sub string) int {
	return strings.Index(strings.ToUpper(s), strings.ToUpper(sub))
}

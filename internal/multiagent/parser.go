package multiagent

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

const (
	reasonNoContent         = "No response content"
	reasonExplicitRejection = "Explicit rejection detected"
	reasonNoFormat          = "No valid continuity check format"
)

// decisionPattern finds a decision object anywhere in the text.
var decisionPattern = regexp.MustCompile(`(?is)\{\s*"should_handle"\s*:\s*(true|false)\s*,\s*"reason"\s*:\s*"((?:[^"\\]|\\.)*)"\s*\}`)

var rejectionPhrases = []string{
	"cannot handle",
	"can't handle",
	"not my domain",
	"not related to",
	"outside my expertise",
	`"should_handle": false`,
	`"should_handle":false`,
}

type rawDecision struct {
	ShouldHandle *bool  `json:"should_handle"`
	Reason       string `json:"reason"`
}

// ParseDecision turns raw continuity-check output into a decision. The
// model is expected to emit {"should_handle": bool, "reason": string},
// followed by the answer when should_handle is true.
//
// Ambiguous output always resolves to a declined decision so the caller
// reroutes; a handled decision always carries a non-empty Response.
func ParseDecision(raw string) AgentDecision {
	return parseDecision(raw, true)
}

// ParseVerdict parses output that carries only the decision object. A
// handled verdict is not downgraded for missing content.
func ParseVerdict(raw string) AgentDecision {
	return parseDecision(raw, false)
}

func parseDecision(raw string, wantAnswer bool) (dec AgentDecision) {
	defer func() {
		if r := recover(); r != nil {
			dec = decline(fmt.Sprintf("parse error: %v", r))
		}
	}()

	text, fenced := stripFence(strings.TrimSpace(raw))

	if strings.HasPrefix(text, "{") {
		if end := matchingBrace(text); end > 0 {
			var rd rawDecision
			if err := json.Unmarshal([]byte(text[:end+1]), &rd); err == nil && rd.ShouldHandle != nil {
				return finish(*rd.ShouldHandle, rd.Reason, text[end+1:], fenced, wantAnswer)
			}
		}
	}

	if loc := decisionPattern.FindStringSubmatchIndex(text); loc != nil {
		handle := strings.EqualFold(text[loc[2]:loc[3]], "true")
		reason := unquote(text[loc[4]:loc[5]])
		return finish(handle, reason, text[loc[1]:], fenced, wantAnswer)
	}

	lower := strings.ToLower(text)
	for _, phrase := range rejectionPhrases {
		if strings.Contains(lower, phrase) {
			return decline(reasonExplicitRejection)
		}
	}

	return decline(reasonNoFormat)
}

func finish(handle bool, reason, remainder string, fenced, wantAnswer bool) AgentDecision {
	if !handle {
		return decline(reason)
	}
	if !wantAnswer {
		return AgentDecision{ShouldHandle: true, Reason: reason}
	}
	answer := strings.TrimSpace(remainder)
	if fenced {
		answer = dropTrailingFence(dropClosingFence(answer))
	}
	if answer == "" {
		return decline(reasonNoContent)
	}
	return AgentDecision{ShouldHandle: true, Response: answer, Reason: reason}
}

// stripFence removes a leading markdown code-fence marker such as ```json
// and reports whether one was present.
func stripFence(s string) (string, bool) {
	if !strings.HasPrefix(s, "```") {
		return s, false
	}
	s = strings.TrimPrefix(s, "```")
	i := 0
	for i < len(s) && isTagChar(s[i]) {
		i++
	}
	return strings.TrimSpace(s[i:]), true
}

// dropClosingFence removes the bare ``` line that closes a fenced decision.
func dropClosingFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	line, rest, _ := strings.Cut(s, "\n")
	if strings.TrimSpace(strings.TrimPrefix(line, "```")) != "" {
		return s
	}
	return strings.TrimSpace(rest)
}

// dropTrailingFence removes a final ``` line left over when the decision and
// the answer share one fence. A fence that closes a code block inside the
// answer is kept.
func dropTrailingFence(s string) string {
	lines := strings.Split(s, "\n")
	last := len(lines) - 1
	if strings.TrimSpace(lines[last]) != "```" {
		return s
	}
	fences := 0
	for _, l := range lines {
		if strings.HasPrefix(strings.TrimSpace(l), "```") {
			fences++
		}
	}
	if fences%2 == 0 {
		return s
	}
	return strings.TrimSpace(strings.Join(lines[:last], "\n"))
}

func isTagChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

// matchingBrace returns the index of the brace closing the object that
// starts at s[0], or -1. Braces inside JSON strings are ignored.
func matchingBrace(s string) int {
	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func unquote(s string) string {
	var out string
	if err := json.Unmarshal([]byte(`"`+s+`"`), &out); err != nil {
		return s
	}
	return out
}

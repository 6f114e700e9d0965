package decision

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrUnparseable reports that model output survived neither the strict parse
// nor the single repair pass. Callers fall back to SafeDefault instead of
// showing the parser error to the user.
var ErrUnparseable = errors.New("unparseable decision payload")

// Apology is the stock reply of last resort.
const Apology = "I'm sorry, there was an error processing your request. Please try again."

var (
	fencedObject  = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")
	trailingComma = regexp.MustCompile(`,\s*([}\]])`)
)

// The bounded repair table. Rules run in order, once, followed by a single
// re-parse; there is no retry loop beyond that.
var repairRules = []func(string) string{
	stripJunkTokens,
	clampToBraces,
	dropTrailingCommas,
}

// ExtractStructured pulls a Decision out of raw model output. A fenced code
// block, when present, is the candidate payload; otherwise the whole text is.
// The candidate gets one strict parse and, on failure, one repaired parse.
func ExtractStructured(text string) (Decision, error) {
	candidate := text
	if m := fencedObject.FindStringSubmatch(text); m != nil {
		candidate = m[1]
	}

	payload, err := parseObject(candidate)
	if err != nil {
		for _, rule := range repairRules {
			candidate = rule(candidate)
		}
		if payload, err = parseObject(candidate); err != nil {
			return Decision{}, fmt.Errorf("%w: %v", ErrUnparseable, err)
		}
	}
	return FromMap(payload), nil
}

func parseObject(s string) (map[string]any, error) {
	var m map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(s)), &m); err != nil {
		return nil, err
	}
	return m, nil
}

func stripJunkTokens(s string) string {
	for _, junk := range []string{"\uFEFF", "​", "‌", "‍", "`"} {
		s = strings.ReplaceAll(s, junk, "")
	}
	s = strings.TrimSpace(s)
	// A bare language label left over from a mangled fence.
	if rest := strings.TrimPrefix(s, "json"); rest != s {
		s = strings.TrimSpace(rest)
	}
	return s
}

func clampToBraces(s string) string {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return s
	}
	return s[start : end+1]
}

func dropTrailingCommas(s string) string {
	return trailingComma.ReplaceAllString(s, "$1")
}

// SafeDefault is the decision used when extraction is exhausted: plain chat
// with an apologetic reply and no side effects.
func SafeDefault() Decision {
	return Decision{Intent: IntentChat, Response: Apology}
}

// ExtractCypher strips Markdown fences from a generated query. The model is
// asked to return the query in a code block; everything that is not a fence
// line survives.
func ExtractCypher(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	var kept []string
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

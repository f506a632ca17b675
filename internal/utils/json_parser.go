package utils

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var (
	fencedJSONRe  = regexp.MustCompile("(?s)```(?:json)?\\s*(.+?)\\s*```")
	trailingComma = regexp.MustCompile(`,\s*([}\]])`)
	bareKeyRe     = regexp.MustCompile(`([{,]\s*)(\w+)(\s*:)`)
	controlCharRe = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F]`)
)

// ParseAIJSON parses JSON out of model output, which in practice arrives as
// pure JSON, JSON inside a markdown code fence, JSON buried in prose, or
// JSON with minor syntax damage. Strategies are tried in that order.
func ParseAIJSON(input string, target interface{}) error {
	if strings.TrimSpace(input) == "" {
		return fmt.Errorf("empty input")
	}

	candidates := []string{input}
	if fenced := stripCodeFence(input); fenced != "" {
		candidates = append(candidates, fenced)
	}
	if embedded := firstJSONValue(input); embedded != "" {
		candidates = append(candidates, embedded)
	}

	for _, c := range candidates {
		if err := json.Unmarshal([]byte(c), target); err == nil {
			return nil
		}
		if err := json.Unmarshal([]byte(repairJSON(c)), target); err == nil {
			return nil
		}
	}

	preview := input
	if len(preview) > 100 {
		preview = preview[:100] + "..."
	}
	return fmt.Errorf("failed to parse JSON from input: %s", preview)
}

// stripCodeFence returns the body of the first markdown code fence when it
// looks like JSON, else "".
func stripCodeFence(input string) string {
	matches := fencedJSONRe.FindStringSubmatch(input)
	if len(matches) < 2 {
		return ""
	}
	body := strings.TrimSpace(matches[1])
	if strings.HasPrefix(body, "{") || strings.HasPrefix(body, "[") {
		return body
	}
	return ""
}

// firstJSONValue returns the first balanced JSON object or array embedded in
// the text, whichever starts earlier.
func firstJSONValue(input string) string {
	objStart := strings.Index(input, "{")
	arrStart := strings.Index(input, "[")

	if arrStart >= 0 && (objStart < 0 || arrStart < objStart) {
		if span := balancedSpan(input[arrStart:], '[', ']'); span != "" {
			return span
		}
	}
	if objStart >= 0 {
		if span := balancedSpan(input[objStart:], '{', '}'); span != "" {
			return span
		}
	}
	return ""
}

// balancedSpan returns the prefix of input spanning one balanced open/close
// pair, honoring string literals and escapes.
func balancedSpan(input string, open, close rune) string {
	depth := 0
	inString := false
	escape := false

	for i, ch := range input {
		if escape {
			escape = false
			continue
		}
		switch {
		case ch == '\\':
			escape = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == open:
			depth++
		case ch == close:
			depth--
			if depth == 0 {
				return input[:i+1]
			}
		}
	}
	return ""
}

// repairJSON fixes the syntax damage models most often produce: trailing
// commas, unquoted keys, and stray control characters.
func repairJSON(input string) string {
	s := strings.TrimSpace(input)
	s = strings.TrimPrefix(s, "\ufeff")
	s = trailingComma.ReplaceAllString(s, "$1")
	s = bareKeyRe.ReplaceAllString(s, `$1"$2"$3`)
	s = controlCharRe.ReplaceAllString(s, "")
	return s
}

package agent

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

var errNoJSON = errors.New("no valid JSON object found in response")

// codeFence matches markdown code blocks with an optional language tag.
var codeFence = regexp.MustCompile("(?s)```(\\w*)\\s*\\n(.+?)\\n```")

// ExtractJSON pulls a JSON object or array out of model text. Fenced json
// blocks win over raw objects found in prose.
func ExtractJSON(response string) (string, error) {
	for _, m := range codeFence.FindAllStringSubmatch(response, -1) {
		lang := strings.ToLower(m[1])
		if lang != "" && lang != "json" {
			continue
		}
		content := strings.TrimSpace(m[2])
		if json.Valid([]byte(content)) {
			return content, nil
		}
	}

	start := strings.IndexAny(response, "{[")
	if start < 0 {
		return "", errNoJSON
	}
	if candidate := matchBracket(response[start:]); candidate != "" && json.Valid([]byte(candidate)) {
		return candidate, nil
	}
	return "", errNoJSON
}

// matchBracket returns the prefix of s up to the bracket closing s[0],
// skipping brackets inside JSON strings.
func matchBracket(s string) string {
	open := s[0]
	closing := byte('}')
	if open == '[' {
		closing = ']'
	}

	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == open:
			depth++
		case c == closing:
			depth--
			if depth == 0 {
				return s[:i+1]
			}
		}
	}
	return ""
}

// Package jsonx extracts JSON objects from language-model output.
//
// Generative backends are prompted to answer with bare JSON but
// routinely wrap it in markdown code fences or surround it with prose.
// ExtractObject recovers the first complete object so the caller only
// deals with one failure mode: valid JSON or not.
package jsonx

import (
	"encoding/json"
	"errors"
	"strings"
)

var ErrNoObject = errors.New("no JSON object found")

// ExtractObject returns the first complete JSON object in text, after
// stripping any enclosing markdown code fence. The returned slice is
// guaranteed to unmarshal into a map.
func ExtractObject(text string) ([]byte, error) {
	cleaned := StripFences(text)

	start := strings.IndexByte(cleaned, '{')
	if start < 0 {
		return nil, ErrNoObject
	}

	// Walk to the matching close brace, honoring strings and escapes.
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(cleaned); i++ {
		c := cleaned[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				candidate := []byte(cleaned[start : i+1])
				if !json.Valid(candidate) {
					return nil, ErrNoObject
				}
				return candidate, nil
			}
		}
	}

	return nil, ErrNoObject
}

// StripFences removes an enclosing markdown code fence, with or without
// a language tag, leaving the inner text untouched.
func StripFences(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	var kept []string
	for _, line := range strings.Split(trimmed, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

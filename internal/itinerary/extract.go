// Package itinerary turns raw generative-AI text into validated trips: it
// extracts the JSON object, checks it against the trip schema, and derives the
// values the rest of the pipeline needs (prompt, price, image query).
package itinerary

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrExtraction    = errors.New("EXTRACTION_FAILED")
	ErrNoJSONObject  = fmt.Errorf("%w: no balanced JSON object found", ErrExtraction)
	ErrMalformedJSON = fmt.Errorf("%w: malformed JSON object", ErrExtraction)
)

// ExtractJSON returns the first well-formed JSON object embedded in text.
// Surrounding prose and code fences are ignored. Candidates start at each '{'
// in turn and end at the matching '}'; braces inside string literals do not
// count. An unbalanced candidate is skipped; one that balances but does not
// parse is skipped whole, so fragments nested inside it are never returned.
func ExtractJSON(text string) (map[string]interface{}, error) {
	var lastErr error = ErrNoJSONObject

	for from := 0; from < len(text); {
		offset := strings.IndexByte(text[from:], '{')
		if offset < 0 {
			break
		}
		start := from + offset
		from = start + 1

		raw, ok := balancedObject(text, start)
		if !ok {
			continue
		}

		var obj map[string]interface{}
		if err := json.Unmarshal([]byte(raw), &obj); err != nil {
			lastErr = fmt.Errorf("%w: %v", ErrMalformedJSON, err)
			from = start + len(raw)
			continue
		}
		return obj, nil
	}

	return nil, lastErr
}

// balancedObject returns the text from start up to the '}' that closes the
// '{' at start.
func balancedObject(text string, start int) (string, bool) {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		c := text[i]

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
				return text[start : i+1], true
			}
		}
	}

	return "", false
}

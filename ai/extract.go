package ai

import (
	"encoding/json"
	"fmt"
)

// ExtractCards isolates the first balanced JSON array in raw model output
// and decodes it. Brackets inside JSON strings do not count towards the
// balance, and prose or code fences around the array are ignored. Only the
// first array is considered: if it does not decode as cards the reply is
// malformed.
func ExtractCards(raw string) ([]CardDraft, error) {
	start, end := nextArray(raw)
	if start < 0 || end < 0 {
		return nil, ErrInvalidResponseFormat
	}

	var cards []CardDraft
	if err := json.Unmarshal([]byte(raw[start:end]), &cards); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return cards, nil
}

// nextArray returns the bounds of the first [...] in s.
// start is -1 when there is no '['; end is -1 when it never balances.
func nextArray(s string) (int, int) {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]

		if start < 0 {
			if c == '[' {
				start = i
				depth = 1
			}
			continue
		}

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
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return start, i + 1
			}
		}
	}

	return start, -1
}

package progress

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DistractorList is the normalized representation of a card's cached wrong
// answers. Stored payloads have accumulated three shapes over time:
//
//   - a native JSON array of strings
//   - a JSON string that itself encodes an array (double-encoded rows)
//   - a single scalar (oldest rows, one distractor stored bare)
//
// Normalization happens exactly once, at the storage boundary; everything
// above this package only ever sees an ordered []string.
type DistractorList []string

func (d *DistractorList) UnmarshalJSON(data []byte) error {
	var arr []string
	if err := json.Unmarshal(data, &arr); err == nil {
		*d = arr
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*d = fromScalar(s)
		return nil
	}

	// Non-string scalar (number, bool) from the oldest rows.
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("distractors: unrecognized payload %q: %w", data, err)
	}
	*d = DistractorList{fmt.Sprint(v)}
	return nil
}

// ParseDistractors normalizes a raw stored payload. Rows that predate JSON
// encoding hold the scalar text directly, so a failed JSON parse falls back
// to treating the whole payload as one distractor.
func ParseDistractors(raw string) DistractorList {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	var d DistractorList
	if err := json.Unmarshal([]byte(raw), &d); err == nil {
		return d
	}
	return DistractorList{raw}
}

// fromScalar handles a JSON string payload: it may be a double-encoded
// array, or just one bare distractor.
func fromScalar(s string) DistractorList {
	trimmed := strings.TrimSpace(s)
	if strings.HasPrefix(trimmed, "[") {
		var arr []string
		if err := json.Unmarshal([]byte(trimmed), &arr); err == nil {
			return arr
		}
	}
	if s == "" {
		return nil
	}
	return DistractorList{s}
}

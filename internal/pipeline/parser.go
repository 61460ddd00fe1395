package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrMalformedResponse means no JSON structure could be recovered from the
// completion text. It is distinct from a well-formed response that simply
// holds no records.
var ErrMalformedResponse = errors.New("pipeline: malformed completion response")

// Candidate is one untrusted extraction result. Any field may be missing or
// carry an unexpected JSON type; Coerce turns it into a typed record.
type Candidate struct {
	value gjson.Result
}

// NewCandidate wraps a raw JSON value.
func NewCandidate(raw string) Candidate {
	return Candidate{value: gjson.Parse(raw)}
}

// Field returns the named field, or a non-existent result when the candidate
// is not an object or lacks the field.
func (c Candidate) Field(name string) gjson.Result {
	if !c.value.IsObject() {
		return gjson.Result{}
	}
	return c.value.Get(name)
}

// Raw returns the candidate's JSON text.
func (c Candidate) Raw() string {
	return c.value.Raw
}

// Normalize recovers a list of candidates from raw completion text. Fences and
// surrounding commentary are stripped, then the array span is tried before the
// object span and the supported response shapes are flattened into one list.
func Normalize(rawText string) ([]Candidate, error) {
	clean := cleanModelJSON(rawText)

	arrStart, arrEnd := span(clean, '[', ']')
	objStart, objEnd := span(clean, '{', '}')

	var attempts []string
	if objStart != -1 && recordShaped(clean[objStart:objEnd+1]) {
		// A lone record may carry its own array fields, e.g. "tags":[].
		attempts = append(attempts, clean[objStart:objEnd+1])
	}
	if arrStart != -1 {
		attempts = append(attempts, clean[arrStart:arrEnd+1])
	}
	if objStart != -1 {
		attempts = append(attempts, clean[objStart:objEnd+1])
	}

	for _, text := range attempts {
		if !gjson.Valid(text) {
			continue
		}
		candidates, err := canonicalize(gjson.Parse(text))
		if err != nil {
			continue
		}
		return candidates, nil
	}

	return nil, fmt.Errorf("Normalize: no JSON array or object recovered: %w", ErrMalformedResponse)
}

// recordShaped reports whether text is a valid object with a top-level amount
// or isWin key.
func recordShaped(text string) bool {
	if !gjson.Valid(text) {
		return false
	}
	v := gjson.Parse(text)
	return v.IsObject() && (v.Get("amount").Exists() || v.Get("isWin").Exists())
}

// canonicalize flattens a parsed value into candidates.
func canonicalize(v gjson.Result) ([]Candidate, error) {
	switch {
	case v.IsArray():
		return elements(v), nil
	case v.IsObject():
		if v.Get("amount").Exists() || v.Get("isWin").Exists() {
			return []Candidate{{value: v}}, nil
		}
		if inner, ok := singleArrayValue(v); ok {
			return elements(inner), nil
		}
		return []Candidate{{value: v}}, nil
	default:
		return nil, ErrMalformedResponse
	}
}

// singleArrayValue returns the value of obj's only key when that value is an array.
func singleArrayValue(obj gjson.Result) (gjson.Result, bool) {
	var (
		count int
		only  gjson.Result
	)
	obj.ForEach(func(_, value gjson.Result) bool {
		count++
		only = value
		return count < 2
	})
	if count == 1 && only.IsArray() {
		return only, true
	}
	return gjson.Result{}, false
}

func elements(arr gjson.Result) []Candidate {
	items := arr.Array()
	out := make([]Candidate, 0, len(items))
	for _, item := range items {
		out = append(out, Candidate{value: item})
	}
	return out
}

// span returns the indexes of the first open and last close byte, or -1, -1.
func span(s string, open, close byte) (int, int) {
	start := strings.IndexByte(s, open)
	if start == -1 {
		return -1, -1
	}
	end := strings.LastIndexByte(s, close)
	if end <= start {
		return -1, -1
	}
	return start, end
}

// cleanModelJSON removes markdown code fences the model may wrap its output in.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	// Handle ```json ... ``` or ``` ... ``` wrappers.
	if strings.HasPrefix(s, "```") {
		// Drop the first line (``` or ```json).
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
	}

	// Fences can also appear mid-text after some commentary.
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")

	return strings.TrimSpace(s)
}

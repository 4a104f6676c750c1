package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedResponse marks model output that is not parseable JSON.
var ErrMalformedResponse = errors.New("malformed llm response")

// MalformedResponseError carries the raw model text that failed to parse.
type MalformedResponseError struct {
	Raw string
	Err error
}

func (e *MalformedResponseError) Error() string {
	if e.Err == nil {
		return ErrMalformedResponse.Error()
	}
	return fmt.Sprintf("%s: %v", ErrMalformedResponse, e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

func (e *MalformedResponseError) Is(target error) bool { return target == ErrMalformedResponse }

// StripFences removes one outer markdown code fence, preferring a json-tagged one.
// Any other language tag on the opening fence line is dropped.
func StripFences(raw string) string {
	text := strings.TrimSpace(raw)
	if _, after, ok := strings.Cut(text, "```json"); ok {
		return fenceBody(after, "json")
	}
	if _, after, ok := strings.Cut(text, "```"); ok {
		return fenceBody(after, "")
	}
	return text
}

// fenceBody returns the text up to the closing fence. prefix is the part of the
// opening tag already consumed.
func fenceBody(after, prefix string) string {
	body, _, _ := strings.Cut(after, "```")
	if tag, rest, ok := strings.Cut(body, "\n"); ok {
		if isLanguageTag(prefix + strings.TrimSpace(tag)) {
			body = rest
		}
	}
	return strings.TrimSpace(body)
}

func isLanguageTag(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && (r >= '0' && r <= '9' || r == '-' || r == '_' || r == '+' || r == '.'):
		default:
			return false
		}
	}
	return true
}

// Normalize turns raw model output into a decoded JSON value.
func Normalize(raw string) (any, error) {
	text := StripFences(raw)
	var out any
	if err := json.Unmarshal([]byte(text), &out); err == nil {
		return out, nil
	}
	text = strings.Trim(text, " \t\r\n\"'`")
	if text == "" {
		return nil, &MalformedResponseError{Raw: raw, Err: errors.New("empty body")}
	}
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return nil, &MalformedResponseError{Raw: raw, Err: err}
	}
	return out, nil
}

// NormalizeObject is Normalize restricted to JSON objects.
func NormalizeObject(raw string) (map[string]any, error) {
	val, err := Normalize(raw)
	if err != nil {
		return nil, err
	}
	obj, ok := val.(map[string]any)
	if !ok {
		return nil, &MalformedResponseError{Raw: raw, Err: fmt.Errorf("expected json object, got %T", val)}
	}
	return obj, nil
}

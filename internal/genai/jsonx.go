package genai

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/interview-iq/backend/internal/apperr"
)

var fencedBlockRE = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// ExtractJSON recovers a JSON document from raw model output. Models
// wrap JSON in prose or markdown fences often enough that three
// strategies are tried in order:
//
//  1. the whole trimmed text as JSON
//  2. the contents of the first fenced code block
//  3. the span from the first '{' or '[' to the last matching '}' or
//     ']', trying whichever opener appears first
//
// A failure of all three returns a parse error, which callers map to a
// fallback artifact rather than a request failure.
func ExtractJSON(raw string) (json.RawMessage, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, apperr.Parse("empty model response", nil)
	}

	if json.Valid([]byte(trimmed)) {
		return json.RawMessage(trimmed), nil
	}

	if m := fencedBlockRE.FindStringSubmatch(trimmed); m != nil {
		candidate := strings.TrimSpace(m[1])
		if json.Valid([]byte(candidate)) {
			return json.RawMessage(candidate), nil
		}
	}

	spans := [][2]string{{"{", "}"}, {"[", "]"}}
	objStart := strings.Index(trimmed, "{")
	arrStart := strings.Index(trimmed, "[")
	if arrStart >= 0 && (objStart < 0 || arrStart < objStart) {
		spans[0], spans[1] = spans[1], spans[0]
	}

	for _, span := range spans {
		start := strings.Index(trimmed, span[0])
		end := strings.LastIndex(trimmed, span[1])
		if start >= 0 && end > start {
			candidate := trimmed[start : end+1]
			if json.Valid([]byte(candidate)) {
				return json.RawMessage(candidate), nil
			}
		}
	}

	return nil, apperr.Parse("no valid JSON found in model response", nil)
}

// AsObject extracts and decodes the model output as a JSON object.
func AsObject(raw string) (map[string]any, error) {
	doc, err := ExtractJSON(raw)
	if err != nil {
		return nil, err
	}
	var obj map[string]any
	if err := json.Unmarshal(doc, &obj); err != nil {
		return nil, apperr.Parse("model response is not a JSON object", err)
	}
	return obj, nil
}

// AsInto extracts the model output and decodes it into v.
func AsInto(raw string, v any) error {
	doc, err := ExtractJSON(raw)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(doc, v); err != nil {
		return apperr.Parse("model response does not match expected shape", err)
	}
	return nil
}

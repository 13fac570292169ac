// Package coerce turns near-JSON model text into structured values.
package coerce

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"excellerator/internal/domain"
)

// ValueColumn names the single column used when the model returns bare values
// where rows were expected.
const ValueColumn = "Value"

var fenceMarker = regexp.MustCompile("```(?i:json)?")

// StripFences removes every markdown code-fence marker and trims whitespace.
func StripFences(text string) string {
	return strings.TrimSpace(fenceMarker.ReplaceAllString(text, ""))
}

// Decode strips fences and parses the text as JSON. When the text carries
// commentary around the JSON, the outermost object or array is tried next.
func Decode(text string) (json.RawMessage, error) {
	cleaned := StripFences(text)
	if raw, ok := parseRaw(cleaned); ok {
		return raw, nil
	}
	if candidate := extractJSONCandidate(cleaned); candidate != "" {
		if raw, ok := parseRaw(candidate); ok {
			return raw, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrMalformedModelOutput, truncate(cleaned, 200))
}

func parseRaw(s string) (json.RawMessage, bool) {
	if s == "" {
		return nil, false
	}
	var raw json.RawMessage
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return nil, false
	}
	return raw, true
}

func extractJSONCandidate(content string) string {
	objectStart := strings.Index(content, "{")
	arrayStart := strings.Index(content, "[")

	start := -1
	closeChar := ""
	switch {
	case objectStart >= 0 && (arrayStart < 0 || objectStart < arrayStart):
		start = objectStart
		closeChar = "}"
	case arrayStart >= 0:
		start = arrayStart
		closeChar = "]"
	default:
		return ""
	}

	end := strings.LastIndex(content, closeChar)
	if end < start {
		return ""
	}
	return strings.TrimSpace(content[start : end+1])
}

// ChatReply is the coerced result of an edit turn.
type ChatReply struct {
	Response string
	// UpdatedData is the complete replacement dataset; meaningful only when
	// HasUpdate is true.
	UpdatedData []domain.Row
	HasUpdate   bool
	// Degraded is set when the text could not be read as a reply object and
	// was passed through as the response.
	Degraded bool
}

// ChatReplyFromText never fails: text that is not a JSON object becomes a
// plain response carrying the trimmed original text.
func ChatReplyFromText(text string) ChatReply {
	fallback := ChatReply{Response: strings.TrimSpace(text), Degraded: true}

	raw, err := Decode(text)
	if err != nil || firstByte(raw) != '{' {
		return fallback
	}

	var obj struct {
		Response    json.RawMessage `json:"response"`
		UpdatedData json.RawMessage `json:"updatedData"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return fallback
	}

	reply := ChatReply{Response: responseText(obj.Response)}
	if len(obj.UpdatedData) == 0 || string(obj.UpdatedData) == "null" {
		return reply
	}
	rows, err := looseRows(obj.UpdatedData)
	if err != nil {
		return fallback
	}
	reply.UpdatedData = rows
	reply.HasUpdate = true
	return reply
}

func responseText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// ExtractionFromText reads an extraction reply. A "data" array becomes the
// rows, a "data" object a single row; without "data" the whole object is one
// row and a bare array is taken as the rows. Unparseable text is an error.
func ExtractionFromText(text string) ([]domain.Row, error) {
	raw, err := Decode(text)
	if err != nil {
		return nil, err
	}

	if firstByte(raw) == '{' {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrMalformedModelOutput, err)
		}
		if data, ok := fields["data"]; ok && string(data) != "null" {
			raw = data
		}
	}

	rows, err := looseRows(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedModelOutput, err)
	}
	return rows, nil
}

// looseRows accepts an array of objects, a single object, or bare values.
// Nested values are flattened to their JSON text so every cell is a scalar.
func looseRows(raw json.RawMessage) ([]domain.Row, error) {
	switch firstByte(raw) {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, err
		}
		rows := make([]domain.Row, 0, len(items))
		for _, item := range items {
			row, err := looseRow(item)
			if err != nil {
				return nil, err
			}
			rows = append(rows, row)
		}
		return rows, nil
	default:
		row, err := looseRow(raw)
		if err != nil {
			return nil, err
		}
		return []domain.Row{row}, nil
	}
}

func looseRow(raw json.RawMessage) (domain.Row, error) {
	if firstByte(raw) != '{' {
		v, err := decodeValue(raw)
		if err != nil {
			return domain.Row{}, err
		}
		return domain.NewRow(ValueColumn, flatten(v, raw)), nil
	}

	var row domain.Row
	if err := json.Unmarshal(raw, &row); err != nil {
		return domain.Row{}, err
	}
	for _, k := range row.Keys() {
		v, _ := row.Get(k)
		if !domain.IsScalar(v) {
			b, err := json.Marshal(v)
			if err != nil {
				return domain.Row{}, err
			}
			row.Set(k, string(b))
		}
	}
	return row, nil
}

func decodeValue(raw json.RawMessage) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

func flatten(v any, raw json.RawMessage) any {
	if domain.IsScalar(v) {
		return v
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

func firstByte(raw json.RawMessage) byte {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return 0
	}
	return trimmed[0]
}

// truncate cuts s to at most maxLen bytes without splitting a rune.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	for maxLen > 0 && !utf8.RuneStart(s[maxLen]) {
		maxLen--
	}
	return s[:maxLen] + "..."
}

// Package tableschema validates datasets submitted by clients before they
// are installed as a table or embedded in a prompt.
package tableschema

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"excellerator/internal/domain"
)

const rowsSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "items": {
    "type": "object",
    "additionalProperties": {"type": ["string", "number", "boolean", "null"]}
  }
}`

const historySchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["role", "content"],
    "properties": {
      "role": {"enum": ["user", "assistant"]},
      "content": {"type": "string"}
    }
  }
}`

var (
	rows    = jsonschema.MustCompileString("rows.json", rowsSchema)
	history = jsonschema.MustCompileString("history.json", historySchema)
)

// DecodeRows validates raw as an array of flat objects and decodes it with
// key order preserved. Empty input is an empty dataset.
func DecodeRows(raw json.RawMessage) ([]domain.Row, error) {
	if len(bytes.TrimSpace(raw)) == 0 || string(bytes.TrimSpace(raw)) == "null" {
		return []domain.Row{}, nil
	}
	if err := validate(rows, raw); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidDataset, err)
	}
	out, err := domain.DecodeRows(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidDataset, err)
	}
	return out, nil
}

// DecodeHistory validates and decodes a chat transcript.
func DecodeHistory(raw json.RawMessage) ([]domain.ChatMessage, error) {
	if len(bytes.TrimSpace(raw)) == 0 || string(bytes.TrimSpace(raw)) == "null" {
		return []domain.ChatMessage{}, nil
	}
	if err := validate(history, raw); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidDataset, err)
	}
	var out []domain.ChatMessage
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidDataset, err)
	}
	return out, nil
}

func validate(schema *jsonschema.Schema, raw json.RawMessage) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return err
	}
	return schema.Validate(doc)
}

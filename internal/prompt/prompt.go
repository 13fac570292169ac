package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"excellerator/internal/domain"
)

const extractionPreamble = `You are an expert data entry assistant. Extract the data in the attached document into structured JSON that converts cleanly into a spreadsheet.

RULES:
1. Analyze the document structure (tables, lists, forms).
2. If it is a table, return an array of objects whose keys are the column headers.
3. If it is a form, return a flat object of field names to values.
4. Read handwriting carefully. If something is illegible, use "[?]" or make a best guess.
5. Keep every value a string, number or boolean. Do not nest objects.
6. OUTPUT MUST BE PURE JSON. No markdown code fences, no explanatory text.
7. The root of the JSON must be an object with a "data" property holding the array of rows.
   Example: { "data": [ { "Column1": "Value1", "Column2": "Value2" } ] }
`

// BuildExtractionPrompt returns the prompt sent with an uploaded document.
// hint is embedded verbatim. When headers is non-empty the model is told to
// use exactly those keys, in that order.
func BuildExtractionPrompt(hint string, headers []string) string {
	var b strings.Builder
	b.WriteString(extractionPreamble)

	if len(headers) > 0 {
		quoted, _ := json.Marshal(headers)
		fmt.Fprintf(&b, "8. Every row object must use EXACTLY these keys, in this order: %s. Do not add any other keys and do not omit any of them; use \"\" when a value is missing.\n", quoted)
	}

	if hint = strings.TrimSpace(hint); hint != "" {
		fmt.Fprintf(&b, "\nADDITIONAL INSTRUCTIONS FROM THE USER: \"%s\"\n", hint)
	}
	return b.String()
}

type historyEntry struct {
	Role    domain.ChatRole `json:"role"`
	Content string          `json:"content"`
}

// BuildEditPrompt returns the prompt for one conversational turn. The full
// dataset is embedded on every call; the model must answer with either a
// plain response or a response plus the complete replacement dataset. A
// dataset or history that cannot be encoded is an error, never an empty list.
func BuildEditPrompt(rows []domain.Row, instruction string, history []domain.ChatMessage) (string, error) {
	if rows == nil {
		rows = []domain.Row{}
	}
	data, err := json.Marshal(rows)
	if err != nil {
		return "", fmt.Errorf("encoding current data: %w", err)
	}

	entries := make([]historyEntry, 0, len(history))
	for _, m := range history {
		entries = append(entries, historyEntry{Role: m.Role, Content: m.Content})
	}
	hist, err := json.Marshal(entries)
	if err != nil {
		return "", fmt.Errorf("encoding chat history: %w", err)
	}

	var b strings.Builder
	b.WriteString("You are an intelligent data assistant helping a user manage a spreadsheet-like dataset.\n\n")
	b.WriteString("CURRENT DATA:\n")
	b.Write(data)
	b.WriteString("\n\nUSER REQUEST: \"")
	b.WriteString(instruction)
	b.WriteString("\"\n\nCHAT HISTORY:\n")
	b.Write(hist)
	b.WriteString(`

INSTRUCTIONS:
1. Analyze the user's request.
2. If the user asks to modify the data (for example "Change row 1 price to 500" or "Fix the typo in Name"), perform the modification on the dataset.
3. If the user asks a question (for example "What is the total?"), answer it without changing the data.
4. Return a JSON object with this structure:
   {
     "response": "Your conversational reply to the user.",
     "updatedData": [ ... the complete modified dataset ... ]
   }
   Only include "updatedData" when you changed the data. Otherwise set it to null or omit it.
5. "updatedData" must be the COMPLETE dataset with the changes applied, never a partial list of rows.
6. OUTPUT MUST BE PURE JSON. No markdown code fences.
`)
	return b.String(), nil
}

package tableschema_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"excellerator/internal/domain"
	"excellerator/internal/tableschema"
)

func TestDecodeRows_Valid(t *testing.T) {
	rows, err := tableschema.DecodeRows(json.RawMessage(`[{"Name":"Jon","Price":10,"Paid":true,"Note":null}]`))

	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"Name", "Price", "Paid", "Note"}, rows[0].Keys())
}

func TestDecodeRows_EmptyInput(t *testing.T) {
	for _, raw := range []string{"", "null", "[]"} {
		rows, err := tableschema.DecodeRows(json.RawMessage(raw))
		require.NoError(t, err)
		assert.Empty(t, rows)
	}
}

func TestDecodeRows_Invalid(t *testing.T) {
	for _, raw := range []string{
		`{"Name":"Jon"}`,
		`[1,2,3]`,
		`[{"Name":{"first":"Jon"}}]`,
		`[{"Tags":["a"]}]`,
		`not json`,
	} {
		_, err := tableschema.DecodeRows(json.RawMessage(raw))
		assert.ErrorIs(t, err, domain.ErrInvalidDataset, raw)
	}
}

func TestDecodeHistory(t *testing.T) {
	msgs, err := tableschema.DecodeHistory(json.RawMessage(`[{"role":"user","content":"hi"},{"role":"assistant","content":"hello"}]`))

	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, domain.ChatRoleAssistant, msgs[1].Role)
}

func TestDecodeHistory_Invalid(t *testing.T) {
	_, err := tableschema.DecodeHistory(json.RawMessage(`[{"role":"system","content":"x"}]`))
	assert.ErrorIs(t, err, domain.ErrInvalidDataset)

	_, err = tableschema.DecodeHistory(json.RawMessage(`[{"role":"user"}]`))
	assert.ErrorIs(t, err, domain.ErrInvalidDataset)
}

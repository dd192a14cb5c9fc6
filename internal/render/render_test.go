package render

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/phonebook/internal/models"
	"github.com/hongminglow/phonebook/internal/phonebook"
	"github.com/hongminglow/phonebook/internal/storage"
)

func TestCodeFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, CodeOK},
		{phonebook.ErrInvalidPhone, CodeInvalid},
		{fmt.Errorf("add: %w", phonebook.ErrInvalidEmail), CodeInvalid},
		{fmt.Errorf("%w: %q", models.ErrUnknownField, "x"), CodeInvalid},
		{fmt.Errorf("phone x: %w", storage.ErrNotFound), CodeNotFound},
		{fmt.Errorf("open import file: %w", fs.ErrNotExist), CodeNotFound},
		{storage.ErrAlreadyExists, CodeConflict},
		{storage.ErrMalformed, CodeFailed},
		{errors.New("boom"), CodeFailed},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CodeFor(tc.err), "%v", tc.err)
	}
}

func TestJSONEnvelope(t *testing.T) {
	var buf bytes.Buffer
	contacts := []models.Contact{{FirstName: "Jane", LastName: "Doe", Phone: "(555) 123-4567"}}
	require.NoError(t, JSON(&buf, CodeOK, "1 contact(s)", contacts))

	var got struct {
		Code    int              `json:"code"`
		Message string           `json:"message"`
		Data    []models.Contact `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, CodeOK, got.Code)
	assert.Equal(t, "1 contact(s)", got.Message)
	assert.Equal(t, contacts, got.Data)
}

func TestErrorEnvelope(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Error(&buf, fmt.Errorf("phone x: %w", storage.ErrNotFound)))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, float64(CodeNotFound), got["code"])
	assert.Equal(t, "phone x: record not found", got["message"])
	assert.NotContains(t, got, "data")
}

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Table(&buf, []models.Contact{
		{FirstName: "Jane", LastName: "Doe", Phone: "(555) 123-4567", Email: "jane@example.com", Address: "1 Main St"},
	}))
	out := buf.String()
	for _, s := range []string{"First Name", "Phone Number", "Address", "Jane", "(555) 123-4567", "jane@example.com"} {
		assert.Contains(t, out, s)
	}

	buf.Reset()
	require.NoError(t, Table(&buf, nil))
	assert.Equal(t, "No contacts.", strings.TrimSpace(buf.String()))
}

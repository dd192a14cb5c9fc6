package render

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/hongminglow/phonebook/internal/models"
	"github.com/hongminglow/phonebook/internal/phonebook"
	"github.com/hongminglow/phonebook/internal/storage"
)

// Result codes shared by the JSON envelope and the process exit status.
const (
	CodeOK       = 0
	CodeFailed   = 1
	CodeInvalid  = 2
	CodeNotFound = 3
	CodeConflict = 4
)

// Envelope is the standard JSON output wrapper used across commands.
type Envelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// CodeFor maps an operation error to a result code.
func CodeFor(err error) int {
	switch {
	case err == nil:
		return CodeOK
	case phonebook.IsValidation(err), errors.Is(err, models.ErrUnknownField):
		return CodeInvalid
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		return CodeNotFound
	case errors.Is(err, storage.ErrAlreadyExists):
		return CodeConflict
	default:
		return CodeFailed
	}
}

// JSON writes a success or informational result using the common envelope.
func JSON(w io.Writer, code int, message string, data any) error {
	return write(w, Envelope{Code: code, Message: message, Data: data})
}

// Error writes an error result with the shared envelope structure.
func Error(w io.Writer, err error) error {
	return write(w, Envelope{Code: CodeFor(err), Message: err.Error()})
}

func write(w io.Writer, payload Envelope) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		return fmt.Errorf("render: encode payload failed: %w", err)
	}
	return nil
}

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

// Table writes contacts as a bordered table with the column headers used on disk.
func Table(w io.Writer, contacts []models.Contact) error {
	if len(contacts) == 0 {
		_, err := fmt.Fprintln(w, "No contacts.")
		return err
	}
	headers := make([]string, len(models.Columns))
	for i, f := range models.Columns {
		headers[i] = string(f)
	}
	rows := make([][]string, 0, len(contacts))
	for _, c := range contacts {
		rows = append(rows, c.Record())
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

package csvfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/hongminglow/phonebook/internal/models"
	"github.com/hongminglow/phonebook/internal/storage"
)

// Row is one data row of an import source.
type Row struct {
	Line    int
	Contact models.Contact
}

var requiredColumns = []models.Field{models.FieldFirstName, models.FieldLastName, models.FieldPhone}

// ImportReader streams a headered CSV whose columns are matched by name, in
// any order. Email Address and Address may be absent; short rows leave the
// missing fields empty. Unknown columns are ignored and stray quotes inside
// unquoted fields are kept as text.
type ImportReader struct {
	cr    *csv.Reader
	index map[models.Field]int
}

// NewImportReader reads the header row of r. An empty source yields a reader
// whose first Next returns io.EOF.
func NewImportReader(r io.Reader) (*ImportReader, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return &ImportReader{cr: cr}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: header: %w", storage.ErrMalformed, err)
	}

	index := make(map[models.Field]int, len(models.Columns))
	for i, h := range header {
		name := strings.TrimSpace(strings.TrimPrefix(h, bom))
		for _, f := range models.Columns {
			if name == string(f) {
				index[f] = i
			}
		}
	}
	for _, f := range requiredColumns {
		if _, ok := index[f]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", storage.ErrMalformed, f)
		}
	}
	return &ImportReader{cr: cr, index: index}, nil
}

// Next returns the next data row, or io.EOF after the last one.
func (ir *ImportReader) Next() (Row, error) {
	if ir.index == nil {
		return Row{}, io.EOF
	}
	rec, err := ir.cr.Read()
	if errors.Is(err, io.EOF) {
		return Row{}, io.EOF
	}
	if err != nil {
		return Row{}, fmt.Errorf("%w: %w", storage.ErrMalformed, err)
	}
	line, _ := ir.cr.FieldPos(0)
	var c models.Contact
	for f, i := range ir.index {
		if i < len(rec) {
			c.Set(f, rec[i])
		}
	}
	return Row{Line: line, Contact: c}, nil
}

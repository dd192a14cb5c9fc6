package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownField indicates a column name that is not part of a contact.
var ErrUnknownField = errors.New("unknown contact field")

// Field names one contact column. The value is the header used on disk.
type Field string

const (
	FieldFirstName Field = "First Name"
	FieldLastName  Field = "Last Name"
	FieldPhone     Field = "Phone Number"
	FieldEmail     Field = "Email Address"
	FieldAddress   Field = "Address"
)

// Columns lists every contact field in persistence order.
var Columns = []Field{FieldFirstName, FieldLastName, FieldPhone, FieldEmail, FieldAddress}

var fieldAliases = map[string]Field{
	"first":      FieldFirstName,
	"firstname":  FieldFirstName,
	"first_name": FieldFirstName,
	"last":       FieldLastName,
	"lastname":   FieldLastName,
	"last_name":  FieldLastName,
	"phone":      FieldPhone,
	"email":      FieldEmail,
	"address":    FieldAddress,
}

// ParseField accepts either a column header ("Last Name") or a short alias
// ("last", "last_name"), case-insensitively.
func ParseField(name string) (Field, error) {
	trimmed := strings.TrimSpace(name)
	for _, f := range Columns {
		if strings.EqualFold(trimmed, string(f)) {
			return f, nil
		}
	}
	if f, ok := fieldAliases[strings.ToLower(trimmed)]; ok {
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownField, name)
}

// Valid reports whether f is one of Columns.
func (f Field) Valid() bool {
	for _, c := range Columns {
		if f == c {
			return true
		}
	}
	return false
}

// Contact is a single phonebook entry. Every field is stored as text.
type Contact struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Address   string `json:"address"`
}

// Get returns the value stored under f, or "" for an unknown field.
func (c Contact) Get(f Field) string {
	switch f {
	case FieldFirstName:
		return c.FirstName
	case FieldLastName:
		return c.LastName
	case FieldPhone:
		return c.Phone
	case FieldEmail:
		return c.Email
	case FieldAddress:
		return c.Address
	}
	return ""
}

// Set stores v under f. Unknown fields are ignored.
func (c *Contact) Set(f Field, v string) {
	switch f {
	case FieldFirstName:
		c.FirstName = v
	case FieldLastName:
		c.LastName = v
	case FieldPhone:
		c.Phone = v
	case FieldEmail:
		c.Email = v
	case FieldAddress:
		c.Address = v
	}
}

// Record flattens the contact in Columns order.
func (c Contact) Record() []string {
	out := make([]string, len(Columns))
	for i, f := range Columns {
		out[i] = c.Get(f)
	}
	return out
}

// FromRecord builds a contact from values in Columns order. Missing trailing
// values are left empty.
func FromRecord(rec []string) Contact {
	var c Contact
	for i, f := range Columns {
		if i < len(rec) {
			c.Set(f, rec[i])
		}
	}
	return c
}

// FullName joins first and last name with a single space.
func (c Contact) FullName() string {
	return c.FirstName + " " + c.LastName
}

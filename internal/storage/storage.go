package storage

import (
	"context"
	"errors"

	"github.com/hongminglow/phonebook/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// ErrMalformed indicates a contacts source with unexpected headers or columns.
var ErrMalformed = errors.New("malformed contacts data")

// ContactStore captures the snapshot persistence the phonebook needs. Save
// replaces the whole stored set with contacts, in order.
type ContactStore interface {
	Load(ctx context.Context) ([]models.Contact, error)
	Save(ctx context.Context, contacts []models.Contact) error
	Close() error
}

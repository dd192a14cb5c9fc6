// Package phonebook holds the in-memory contact sequence and applies every
// change to it: validate, mutate, persist the whole set, then audit.
package phonebook

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/hongminglow/phonebook/internal/models"
	"github.com/hongminglow/phonebook/internal/models/dto"
	"github.com/hongminglow/phonebook/internal/storage"
	"github.com/hongminglow/phonebook/internal/storage/csvfile"
)

// Recorder receives one entry per successful change.
type Recorder interface {
	Added(first, last string) error
	Deleted(phone string) error
	Updated(phone string) error
}

// Observer is told about every operation outcome and the resulting size.
type Observer interface {
	RecordOperation(op, outcome string)
	RecordContacts(n int)
}

// Operation outcomes passed to Observer.
const (
	OutcomeOK       = "ok"
	OutcomeInvalid  = "invalid"
	OutcomeNotFound = "not_found"
	OutcomeConflict = "conflict"
	OutcomeError    = "error"
)

// Book owns the ordered contact sequence for one process run.
type Book struct {
	store    storage.ContactStore
	audit    Recorder
	observer Observer
	logger   *zap.Logger
	unique   bool

	mu       sync.Mutex
	contacts []models.Contact
}

// Option configures a Book.
type Option func(*Book)

// WithLogger sets the operational logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(b *Book) { b.logger = logger }
}

// WithObserver reports operation outcomes, typically to metrics.
func WithObserver(o Observer) Option {
	return func(b *Book) { b.observer = o }
}

// WithUniquePhones makes Add and Update reject a phone number that is already
// taken by another contact.
func WithUniquePhones(on bool) Option {
	return func(b *Book) { b.unique = on }
}

// New returns an empty book backed by store. Call Load to populate it.
func New(store storage.ContactStore, audit Recorder, opts ...Option) *Book {
	b := &Book{store: store, audit: audit, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Load replaces the in-memory sequence with what the store holds.
func (b *Book) Load(ctx context.Context) error {
	contacts, err := b.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load contacts: %w", err)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.contacts = contacts
	b.logger.Debug("contacts loaded", zap.Int("count", len(contacts)))
	b.observeSize()
	return nil
}

// persist must be called with b.mu held.
func (b *Book) persist(ctx context.Context) error {
	if err := b.store.Save(ctx, b.contacts); err != nil {
		return fmt.Errorf("save contacts: %w", err)
	}
	b.observeSize()
	return nil
}

// Add validates and appends a contact, then persists and audits it.
func (b *Book) Add(ctx context.Context, c models.Contact) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.add(ctx, c)
}

func (b *Book) add(ctx context.Context, c models.Contact) error {
	c = trimContact(c)
	if err := validateContact(c); err != nil {
		b.observe("add", OutcomeInvalid)
		return err
	}
	if b.unique && b.indexOf(c.Phone) >= 0 {
		b.observe("add", OutcomeConflict)
		return fmt.Errorf("phone %s: %w", c.Phone, storage.ErrAlreadyExists)
	}

	b.contacts = append(b.contacts, c)
	if err := b.persist(ctx); err != nil {
		b.contacts = b.contacts[:len(b.contacts)-1]
		b.observe("add", OutcomeError)
		return err
	}
	if err := b.audit.Added(c.FirstName, c.LastName); err != nil {
		b.observe("add", OutcomeError)
		return err
	}
	b.logger.Info("contact added", zap.String("phone", c.Phone))
	b.observe("add", OutcomeOK)
	return nil
}

// Delete removes every contact whose phone equals phone exactly and returns
// how many were removed. The file is rewritten and the delete audited even
// when nothing matched.
func (b *Book) Delete(ctx context.Context, phone string) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	prev := slices.Clone(b.contacts)
	b.contacts = slices.DeleteFunc(b.contacts, func(c models.Contact) bool {
		return c.Phone == phone
	})
	removed := len(prev) - len(b.contacts)

	if err := b.persist(ctx); err != nil {
		b.contacts = prev
		b.observe("delete", OutcomeError)
		return 0, err
	}
	if err := b.audit.Deleted(phone); err != nil {
		b.observe("delete", OutcomeError)
		return removed, err
	}
	b.logger.Info("contacts deleted", zap.String("phone", phone), zap.Int("removed", removed))
	b.observe("delete", OutcomeOK)
	return removed, nil
}

// Update applies the non-blank fields of u to the first contact whose phone
// equals phone and returns the updated contact. It returns
// storage.ErrNotFound without writing anything when no contact matches. When
// only the audit entry fails, the saved contact is returned with the error.
func (b *Book) Update(ctx context.Context, phone string, u dto.ContactUpdate) (models.Contact, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.indexOf(phone)
	if i < 0 {
		b.observe("update", OutcomeNotFound)
		return models.Contact{}, fmt.Errorf("phone %s: %w", phone, storage.ErrNotFound)
	}

	current := b.contacts[i]
	updated := current
	for f, v := range u.Fields() {
		if v = strings.TrimSpace(v); v != "" {
			updated.Set(f, v)
		}
	}
	if err := validateChanges(current, updated); err != nil {
		b.observe("update", OutcomeInvalid)
		return models.Contact{}, err
	}
	if b.unique && updated.Phone != phone && b.indexOf(updated.Phone) >= 0 {
		b.observe("update", OutcomeConflict)
		return models.Contact{}, fmt.Errorf("phone %s: %w", updated.Phone, storage.ErrAlreadyExists)
	}

	b.contacts[i] = updated
	if err := b.persist(ctx); err != nil {
		b.contacts[i] = current
		b.observe("update", OutcomeError)
		return models.Contact{}, err
	}
	if err := b.audit.Updated(phone); err != nil {
		b.observe("update", OutcomeError)
		return updated, err
	}
	b.logger.Info("contact updated", zap.String("phone", phone))
	b.observe("update", OutcomeOK)
	return updated, nil
}

// Search returns, in order, the contacts whose first name, last name and
// phone concatenated contain query, ignoring case.
func (b *Book) Search(query string) []models.Contact {
	b.mu.Lock()
	defer b.mu.Unlock()

	q := strings.ToLower(query)
	var out []models.Contact
	for _, c := range b.contacts {
		if strings.Contains(strings.ToLower(c.FirstName+c.LastName+c.Phone), q) {
			out = append(out, c)
		}
	}
	return out
}

// List returns a copy of every contact in current order.
func (b *Book) List() []models.Contact {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.contacts)
}

// Len returns the number of contacts held in memory.
func (b *Book) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.contacts)
}

// Sort orders the in-memory sequence ascending by field, Last Name when field
// is empty. Ties keep their relative order. Sort does not write to the store;
// the next change persists whatever order is current.
func (b *Book) Sort(field models.Field) error {
	if field == "" {
		field = models.FieldLastName
	}
	if !field.Valid() {
		return fmt.Errorf("%w: %q", models.ErrUnknownField, field)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	slices.SortStableFunc(b.contacts, func(x, y models.Contact) int {
		return strings.Compare(x.Get(field), y.Get(field))
	})
	return nil
}

// Import adds every row of the CSV file at path.
func (b *Book) Import(ctx context.Context, path string) (dto.ImportReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return dto.ImportReport{}, fmt.Errorf("open import file: %w", err)
	}
	defer f.Close()
	return b.ImportFrom(ctx, f)
}

// ImportFrom runs Add once per row of r, reading rows as it goes. Rows
// failing validation (or the uniqueness check) are reported and skipped. A
// row that cannot be parsed or a store failure stops the import; rows added
// before it stay saved.
func (b *Book) ImportFrom(ctx context.Context, r io.Reader) (dto.ImportReport, error) {
	ir, err := csvfile.NewImportReader(r)
	if err != nil {
		return dto.ImportReport{}, fmt.Errorf("read import: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	var report dto.ImportReport
	for {
		row, err := ir.Next()
		if errors.Is(err, io.EOF) {
			return report, nil
		}
		if err != nil {
			return report, fmt.Errorf("read import: %w", err)
		}

		err = b.add(ctx, row.Contact)
		switch {
		case err == nil:
			report.Added++
		case IsValidation(err), errors.Is(err, storage.ErrAlreadyExists):
			b.logger.Warn("import row rejected", zap.Int("line", row.Line), zap.Error(err))
			report.Rejected = append(report.Rejected, dto.RejectedRow{
				Line:    row.Line,
				Contact: row.Contact,
				Reason:  err.Error(),
			})
		default:
			return report, err
		}
	}
}

// indexOf must be called with b.mu held.
func (b *Book) indexOf(phone string) int {
	return slices.IndexFunc(b.contacts, func(c models.Contact) bool {
		return c.Phone == phone
	})
}

func (b *Book) observe(op, outcome string) {
	if b.observer != nil {
		b.observer.RecordOperation(op, outcome)
	}
}

func (b *Book) observeSize() {
	if b.observer != nil {
		b.observer.RecordContacts(len(b.contacts))
	}
}

func trimContact(c models.Contact) models.Contact {
	for _, f := range models.Columns {
		c.Set(f, strings.TrimSpace(c.Get(f)))
	}
	return c
}

func validateContact(c models.Contact) error {
	if err := ValidatePhone(c.Phone); err != nil {
		return err
	}
	return ValidateEmail(c.Email)
}

// validateChanges checks only the fields an update replaced, so records loaded
// from older files can still be edited.
func validateChanges(current, updated models.Contact) error {
	if updated.Phone != current.Phone {
		if err := ValidatePhone(updated.Phone); err != nil {
			return err
		}
	}
	if updated.Email != current.Email {
		return ValidateEmail(updated.Email)
	}
	return nil
}

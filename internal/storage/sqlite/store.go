package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/hongminglow/phonebook/internal/models"
	"github.com/hongminglow/phonebook/internal/storage"
)

// Ensure Store satisfies the storage.ContactStore interface at compile time.
var _ storage.ContactStore = (*Store)(nil)

// Store provides SQLite-backed persistence for contacts. Each Save replaces
// the table contents inside one transaction.
type Store struct {
	db *sql.DB
}

// NewContactStore opens (or creates) the database at path and ensures the schema.
func NewContactStore(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		path = "contacts.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases database resources.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS contacts (
			position INTEGER PRIMARY KEY,
			first_name TEXT NOT NULL DEFAULT '',
			last_name TEXT NOT NULL DEFAULT '',
			phone TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL DEFAULT '',
			address TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE INDEX IF NOT EXISTS contacts_phone_idx ON contacts (phone);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
	}
	return nil
}

// Load returns every stored contact in saved order.
func (s *Store) Load(ctx context.Context) ([]models.Contact, error) {
	const query = `
	SELECT first_name, last_name, phone, email, address
	FROM contacts
	ORDER BY position;
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("select contacts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var contacts []models.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contacts: %w", err)
	}
	return contacts, nil
}

// Save replaces the stored contacts with the given sequence.
func (s *Store) Save(ctx context.Context, contacts []models.Contact) (retErr error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM contacts;`); err != nil {
		return fmt.Errorf("clear contacts: %w", err)
	}
	const insert = `
	INSERT INTO contacts (position, first_name, last_name, phone, email, address)
	VALUES (?, ?, ?, ?, ?, ?);
	`
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()
	for i, c := range contacts {
		if _, err := stmt.ExecContext(ctx, i, c.FirstName, c.LastName, c.Phone, c.Email, c.Address); err != nil {
			return fmt.Errorf("insert contact: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func scanContact(rows *sql.Rows) (models.Contact, error) {
	var c models.Contact
	if err := rows.Scan(&c.FirstName, &c.LastName, &c.Phone, &c.Email, &c.Address); err != nil {
		return models.Contact{}, fmt.Errorf("scan contact: %w", err)
	}
	return c, nil
}

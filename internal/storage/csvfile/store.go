package csvfile

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/hongminglow/phonebook/internal/models"
	"github.com/hongminglow/phonebook/internal/storage"
)

// Ensure Store satisfies the storage.ContactStore interface at compile time.
var _ storage.ContactStore = (*Store)(nil)

const bom = "\ufeff"

// Store keeps contacts in a headered CSV file. Every Save rewrites the whole
// file through a temp file and a rename, so readers never see a truncated
// file. Nothing coordinates two processes saving to the same path; the last
// rename wins.
type Store struct {
	path string

	mu  sync.Mutex
	sum [sha256.Size]byte
}

// New returns a store for the CSV file at path. The file does not need to exist.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the file the store reads and writes.
func (s *Store) Path() string { return s.path }

// Load reads every contact in file order. A missing or empty file yields no
// contacts and no error.
func (s *Store) Load(_ context.Context) ([]models.Contact, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.remember(nil)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read contacts file: %w", err)
	}
	contacts, err := decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}
	s.remember(data)
	return contacts, nil
}

// Save replaces the file with a header row followed by one row per contact.
func (s *Store) Save(_ context.Context, contacts []models.Contact) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.UseCRLF = true
	header := make([]string, len(models.Columns))
	for i, f := range models.Columns {
		header[i] = string(f)
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}
	for _, c := range contacts {
		if err := w.Write(c.Record()); err != nil {
			return fmt.Errorf("encode contact: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("encode contacts: %w", err)
	}
	// Remember first: a watcher may compare as soon as the rename lands.
	prev := s.remember(buf.Bytes())
	if err := writeAtomic(s.path, buf.Bytes()); err != nil {
		s.restore(prev)
		return err
	}
	return nil
}

// Close is a no-op; the file is never held open between calls.
func (s *Store) Close() error { return nil }

// Changed reports whether the file on disk differs from what this store last
// loaded or saved.
func (s *Store) Changed() (bool, error) {
	data, err := os.ReadFile(s.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false, err
	}
	sum := sha256.Sum256(data)
	s.mu.Lock()
	defer s.mu.Unlock()
	return sum != s.sum, nil
}

func (s *Store) remember(data []byte) (prev [sha256.Size]byte) {
	sum := sha256.Sum256(data)
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, s.sum = s.sum, sum
	return prev
}

func (s *Store) restore(sum [sha256.Size]byte) {
	s.mu.Lock()
	s.sum = sum
	s.mu.Unlock()
}

func decode(r io.Reader) ([]models.Contact, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(models.Columns)
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: header: %w", storage.ErrMalformed, err)
	}
	header[0] = strings.TrimPrefix(header[0], bom)
	for i, f := range models.Columns {
		if header[i] != string(f) {
			return nil, fmt.Errorf("%w: column %d is %q, want %q", storage.ErrMalformed, i+1, header[i], f)
		}
	}

	var contacts []models.Contact
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return contacts, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", storage.ErrMalformed, err)
		}
		contacts = append(contacts, models.FromRecord(rec))
	}
}

// writeAtomic replaces path with data. An existing file keeps its permission
// bits; a new one gets 0644.
func writeAtomic(path string, data []byte) (err error) {
	perm := fs.FileMode(0o644)
	if info, statErr := os.Stat(path); statErr == nil {
		perm = info.Mode().Perm()
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dirs: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".contacts-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()
	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err = os.Chmod(tmp.Name(), perm); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace contacts file: %w", err)
	}
	return nil
}

package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/phonebook/internal/models"
)

func newTestStore(t *testing.T, path string) *Store {
	t.Helper()
	s, err := NewContactStore(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data", "contacts.db")
	s := newTestStore(t, path)

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	want := []models.Contact{
		{FirstName: "Jane", LastName: "Doe", Phone: "(555) 123-4567", Email: "jane@example.com", Address: "1 Main St"},
		{FirstName: "John", LastName: "Roe", Phone: "(555) 999-0000"},
		{FirstName: "Jane", LastName: "Twin", Phone: "(555) 123-4567"},
	}
	require.NoError(t, s.Save(ctx, want))

	got, err = s.Load(ctx)
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("contacts mismatch (-want +got):\n%s", diff)
	}
}

func TestStoreSaveReplaces(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "contacts.db")
	s := newTestStore(t, path)

	first := []models.Contact{
		{FirstName: "Jane", LastName: "Doe", Phone: "(555) 123-4567"},
		{FirstName: "John", LastName: "Roe", Phone: "(555) 999-0000"},
	}
	require.NoError(t, s.Save(ctx, first))
	require.NoError(t, s.Save(ctx, first[1:]))
	require.NoError(t, s.Close())

	reopened := newTestStore(t, path)
	got, err := reopened.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, first[1:], got)

	require.NoError(t, reopened.Save(ctx, nil))
	got, err = reopened.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

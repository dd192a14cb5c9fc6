package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/hongminglow/phonebook/internal/models"
	"github.com/hongminglow/phonebook/internal/storage/csvfile"
)

var jane = models.Contact{FirstName: "Jane", LastName: "Doe", Phone: "(555) 123-4567"}

func startWatcher(t *testing.T, store *csvfile.Store, calls *atomic.Int32) {
	t.Helper()
	w := New(store.Path(), store.Changed, func() { calls.Add(1) }, zaptest.NewLogger(t))
	require.NoError(t, w.Start(context.Background()))
	t.Cleanup(w.Stop)
}

func TestForeignWriteNotifiesOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contacts.csv")
	store := csvfile.New(path)
	require.NoError(t, store.Save(context.Background(), []models.Contact{jane}))

	var calls atomic.Int32
	startWatcher(t, store, &calls)

	require.NoError(t, os.WriteFile(path, []byte("First Name,Last Name,Phone Number,Email Address,Address\r\n"), 0o644))
	assert.Eventually(t, func() bool { return calls.Load() == 1 }, 2*time.Second, 10*time.Millisecond)

	// Further foreign writes while still out of sync do not repeat the notice.
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("A,B,(555) 000-0000,,\r\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestOwnSaveIsIgnored(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contacts.csv")
	store := csvfile.New(path)
	_, err := store.Load(context.Background())
	require.NoError(t, err)

	var calls atomic.Int32
	startWatcher(t, store, &calls)

	require.NoError(t, store.Save(context.Background(), []models.Contact{jane}))
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())
}

func TestOtherFilesAreIgnored(t *testing.T) {
	dir := t.TempDir()
	store := csvfile.New(filepath.Join(dir, "contacts.csv"))
	_, err := store.Load(context.Background())
	require.NoError(t, err)

	var calls atomic.Int32
	startWatcher(t, store, &calls)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "log.txt"), []byte("entry\n"), 0o644))
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())
}

func TestStartTwiceAndStopTwice(t *testing.T) {
	store := csvfile.New(filepath.Join(t.TempDir(), "contacts.csv"))
	w := New(store.Path(), store.Changed, func() {}, nil)
	require.NoError(t, w.Start(context.Background()))
	require.NoError(t, w.Start(context.Background()))
	w.Stop()
	w.Stop()
}

func TestStartMissingDir(t *testing.T) {
	store := csvfile.New(filepath.Join(t.TempDir(), "missing", "contacts.csv"))
	w := New(store.Path(), store.Changed, func() {}, nil)
	assert.Error(t, w.Start(context.Background()))
}

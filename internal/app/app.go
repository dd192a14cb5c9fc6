package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/hongminglow/phonebook/internal/audit"
	"github.com/hongminglow/phonebook/internal/config"
	"github.com/hongminglow/phonebook/internal/metrics"
	"github.com/hongminglow/phonebook/internal/phonebook"
	"github.com/hongminglow/phonebook/internal/storage"
	"github.com/hongminglow/phonebook/internal/storage/csvfile"
	"github.com/hongminglow/phonebook/internal/storage/sqlite"
	"github.com/hongminglow/phonebook/internal/watch"
)

// App wraps a loaded phonebook with its configured backend and metrics.
type App struct {
	Book *phonebook.Book

	cfg     config.Config
	store   storage.ContactStore
	metrics *metrics.Collector
	logger  *zap.Logger
}

// New wires up storage, the audit log and metrics, and returns an app whose
// book is already loaded. A malformed contacts file is returned as an error.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var store storage.ContactStore
	switch cfg.Backend {
	case config.BackendSQLite:
		s, err := sqlite.NewContactStore(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("init sqlite store: %w", err)
		}
		store = s
	default:
		store = csvfile.New(cfg.ContactsPath)
	}

	collector := metrics.NewCollector()
	book := phonebook.New(store, audit.New(cfg.AuditLogPath),
		phonebook.WithLogger(logger.Named("phonebook")),
		phonebook.WithObserver(collector),
		phonebook.WithUniquePhones(cfg.UniquePhones),
	)
	if err := book.Load(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}

	return &App{Book: book, cfg: cfg, store: store, metrics: collector, logger: logger}, nil
}

// Watch starts reporting foreign writes to the contacts file. Only the csv
// backend supports it; other backends return a watcher-less stop func.
func (a *App) Watch(ctx context.Context, onChange func()) (stop func(), err error) {
	cs, ok := a.store.(*csvfile.Store)
	if !ok {
		return func() {}, nil
	}
	w := watch.New(cs.Path(), cs.Changed, onChange, a.logger.Named("watch"))
	if err := w.Start(ctx); err != nil {
		return nil, err
	}
	return w.Stop, nil
}

// Close flushes metrics (when configured) and releases the backend.
func (a *App) Close() error {
	var errs []error
	if a.cfg.MetricsFile != "" {
		errs = append(errs, a.metrics.WriteTextfile(a.cfg.MetricsFile))
	}
	errs = append(errs, a.store.Close())
	return errors.Join(errs...)
}

// Package apptest provides an in-memory transaction for service tests.
package apptest

import (
	"context"
	"database/sql"
	"errors"
	"github.com/burenotti/hacktrack/internal/adapter/storage"
	"github.com/burenotti/hacktrack/internal/domain"
	"io"
	"log/slog"
	"sync"
)

var errNoSQL = errors.New("apptest: sql is not available")

// Tx records whether it was committed. It never touches a database.
type Tx struct {
	mu        sync.Mutex
	Committed bool
}

func (t *Tx) Begin(ctx context.Context) (storage.DBContext, error) {
	return t, nil
}

func (t *Tx) Commit() error {
	t.mu.Lock()
	t.Committed = true
	t.mu.Unlock()
	return nil
}

func (t *Tx) Rollback() error {
	return nil
}

func (t *Tx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return nil, errNoSQL
}

func (t *Tx) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return nil, errNoSQL
}

func (t *Tx) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return nil
}

// DB hands out a fresh Tx on every Begin and remembers the last one.
type DB struct {
	mu   sync.Mutex
	Last *Tx
}

func (d *DB) Begin(ctx context.Context) (storage.DBContext, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Last = &Tx{}
	return d.Last, nil
}

// Bus records published events.
type Bus struct {
	mu     sync.Mutex
	Events []string
}

func (b *Bus) PublishEvents(events ...domain.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, e := range events {
		b.Events = append(b.Events, e.Type())
	}
	return nil
}

func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

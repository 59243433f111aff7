package unitofwork

import (
	"context"
	"database/sql"
	"errors"
	"github.com/burenotti/hacktrack/internal/adapter/storage"
	"github.com/burenotti/hacktrack/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"io"
	"log/slog"
	"testing"
	"time"
)

type fakeTx struct {
	committed  bool
	rolledBack bool
}

func (f *fakeTx) Begin(ctx context.Context) (storage.DBContext, error) { return f, nil }
func (f *fakeTx) Commit() error                                       { f.committed = true; return nil }
func (f *fakeTx) Rollback() error {
	if !f.committed {
		f.rolledBack = true
	}
	return nil
}
func (f *fakeTx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return nil, nil
}
func (f *fakeTx) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return nil, nil
}
func (f *fakeTx) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return nil
}

type fakeDB struct {
	tx  *fakeTx
	err error
}

func (f *fakeDB) Begin(ctx context.Context) (storage.DBContext, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tx = &fakeTx{}
	return f.tx, nil
}

type event struct{}

func (event) Type() string           { return "test.happened" }
func (event) PublishedAt() time.Time { return time.Time{} }

type fakeContext struct {
	ctx    context.Context
	tx     storage.DBContext
	closed bool
	events []domain.Event
}

func (f *fakeContext) Context() context.Context      { return f.ctx }
func (f *fakeContext) Commit() error                 { return f.tx.Commit() }
func (f *fakeContext) Close() error                  { f.closed = true; return nil }
func (f *fakeContext) CollectEvents() []domain.Event { return f.events }

type fakeBus struct {
	published []domain.Event
}

func (f *fakeBus) PublishEvents(events ...domain.Event) error {
	f.published = append(f.published, events...)
	return nil
}

func setup() (*fakeDB, *fakeBus, *fakeContext, *UnitOfWork[*fakeContext]) {
	db := &fakeDB{}
	bus := &fakeBus{}
	atomicCtx := &fakeContext{events: []domain.Event{event{}}}
	uow := New(db, func(ctx context.Context, tx storage.DBContext) (*fakeContext, error) {
		atomicCtx.ctx, atomicCtx.tx = ctx, tx
		return atomicCtx, nil
	}, bus, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return db, bus, atomicCtx, uow
}

func TestUnitOfWork_Atomic_Commit(t *testing.T) {
	db, bus, atomicCtx, uow := setup()

	err := uow.Atomic(context.Background(), func(ctx *fakeContext) error {
		return ctx.Commit()
	})

	require.NoError(t, err)
	assert.True(t, db.tx.committed)
	assert.False(t, db.tx.rolledBack)
	assert.True(t, atomicCtx.closed)
	assert.Len(t, bus.published, 1)
}

func TestUnitOfWork_Atomic_Rollback(t *testing.T) {
	db, bus, atomicCtx, uow := setup()
	cause := errors.New("boom")

	err := uow.Atomic(context.Background(), func(ctx *fakeContext) error {
		return cause
	})

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrRollback)
	assert.True(t, db.tx.rolledBack)
	assert.True(t, atomicCtx.closed)
	assert.Empty(t, bus.published)
}

func TestUnitOfWork_Atomic_BeginFails(t *testing.T) {
	db, _, _, uow := setup()
	db.err = errors.New("no connection")

	called := false
	err := uow.Atomic(context.Background(), func(ctx *fakeContext) error {
		called = true
		return nil
	})

	assert.ErrorIs(t, err, ErrRollback)
	assert.False(t, called)
}

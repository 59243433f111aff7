package unitofwork

import (
	"context"
	"errors"
	"fmt"
	"github.com/burenotti/hacktrack/internal/adapter/storage"
	"github.com/burenotti/hacktrack/internal/domain"
	"log/slog"
)

var (
	ErrRollback = errors.New("rollback")
)

type AtomicContext interface {
	Context() context.Context
	Commit() error
	Close() error
	CollectEvents() []domain.Event
}

type MessageBus interface {
	PublishEvents(events ...domain.Event) error
}

type Beginner interface {
	Begin(ctx context.Context) (storage.DBContext, error)
}

type UnitOfWork[T AtomicContext] struct {
	db         Beginner
	newContext func(context.Context, storage.DBContext) (T, error)
	msgBus     MessageBus
	logger     *slog.Logger
}

func New[T AtomicContext](
	db Beginner,
	newCtx func(context.Context, storage.DBContext) (T, error),
	msgBus MessageBus,
	logger *slog.Logger,
) *UnitOfWork[T] {
	return &UnitOfWork[T]{
		db:         db,
		newContext: newCtx,
		msgBus:     msgBus,
		logger:     logger,
	}
}

// Atomic runs do inside a transaction. do is expected to call Commit on
// success; whatever it leaves uncommitted is rolled back. Events collected
// from the storages are published only when do succeeds.
func (uow *UnitOfWork[T]) Atomic(
	ctx context.Context,
	do func(T) error,
) (err error) {
	tx, err := uow.db.Begin(ctx)
	if err != nil {
		return stateRollbackError(err)
	}

	txCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	atomicCtx, err := uow.newContext(txCtx, tx)
	if err != nil {
		uow.rollback(tx)
		return stateRollbackError(err)
	}

	defer func() {
		if closeErr := atomicCtx.Close(); closeErr != nil {
			uow.logger.Error("failed to close atomic context", "error", closeErr)
		}
	}()

	defer func() {
		if r := recover(); r != nil {
			uow.rollback(tx)
			panic(r)
		}
	}()

	if err := do(atomicCtx); err != nil {
		uow.rollback(tx)
		return stateRollbackError(err)
	}
	uow.rollback(tx)

	if err := uow.msgBus.PublishEvents(atomicCtx.CollectEvents()...); err != nil {
		uow.logger.Error("failed to publish events", "error", err)
		return err
	}

	return nil
}

func (uow *UnitOfWork[T]) rollback(tx storage.DBContext) {
	if err := tx.Rollback(); err != nil {
		uow.logger.Error("failed to rollback transaction", "error", err)
	}
}

func stateRollbackError(err error) error {
	return errors.Join(fmt.Errorf("state rollback: %w", err), ErrRollback)
}

package pgutil

import (
	"database/sql"
	"errors"
	"github.com/burenotti/hacktrack/internal/adapter/storage"
	"github.com/burenotti/hacktrack/internal/domain"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/leporo/sqlf"
	"github.com/r3labs/diff"
	"sync"
)

// BasePostgresStorage remembers every aggregate a storage touched so that
// their events can be collected once the unit of work succeeds.
type BasePostgresStorage struct {
	DB     storage.DBContext
	seenMu sync.Mutex
	seen   []domain.EventSource
}

func NewBasePostgresStorage(db storage.DBContext) *BasePostgresStorage {
	return &BasePostgresStorage{
		DB: db,
	}
}

func (s *BasePostgresStorage) CollectEvents() []domain.Event {
	s.seenMu.Lock()
	defer s.seenMu.Unlock()

	var events []domain.Event
	for _, src := range s.seen {
		events = append(events, src.PopEvents()...)
	}
	s.seen = nil
	return events
}

func (s *BasePostgresStorage) Close() {
	s.seenMu.Lock()
	s.seen = nil
	s.seenMu.Unlock()
}

func (s *BasePostgresStorage) MarkSeen(src domain.EventSource) {
	s.seenMu.Lock()
	s.seen = append(s.seen, src)
	s.seenMu.Unlock()
}

func ViolatesConstraint(err error, constraintName string) bool {
	var pgErr *pgconn.PgError

	return errors.As(err, &pgErr) &&
		pgerrcode.IsIntegrityConstraintViolation(pgErr.Code) &&
		pgErr.ConstraintName == constraintName
}

// First returns the first item or notFoundErr for an empty slice.
func First[V any](items []V, err, notFoundErr error) (V, error) {
	if err != nil {
		return *new(V), err
	}
	if len(items) == 0 {
		return *new(V), notFoundErr
	}
	return items[0], nil
}

// MakeUpdateQuery adds a SET clause for every change in updates.
// Changes must come from diff.Diff(stored, changed) on flat structs.
// Pointer fields going from nil to a value and back are written as is.
func MakeUpdateQuery(stmt *sqlf.Stmt, updates diff.Changelog) *sqlf.Stmt {
	for _, upd := range updates {
		if len(upd.Path) > 1 {
			panic("cannot process updates in nested structures")
		}

		switch upd.Type {
		case diff.UPDATE, diff.CREATE:
			stmt = stmt.Set(upd.Path[0], upd.To)
		case diff.DELETE:
			stmt = stmt.Set(upd.Path[0], nil)
		default:
			panic("invalid update type " + upd.Type)
		}
	}
	return stmt
}

func AssertUpdated(res sql.Result, err error, notUpdatedError error) error {
	if err != nil {
		return storage.InternalError(err)
	}

	affected, err := res.RowsAffected()

	if err != nil {
		return storage.InternalError(err)
	}

	if affected == 0 {
		return notUpdatedError
	}
	return nil
}

package userstorage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"github.com/burenotti/hacktrack/internal/adapter/storage"
	"github.com/burenotti/hacktrack/internal/adapter/storage/pgutil"
	"github.com/burenotti/hacktrack/internal/domain"
	"github.com/burenotti/hacktrack/internal/domain/user"
	"github.com/leporo/sqlf"
	"github.com/r3labs/diff"
	"log/slog"
)

type PostgresStorage struct {
	base   *pgutil.BasePostgresStorage
	logger *slog.Logger
}

func NewPostgresStorage(db storage.DBContext, logger *slog.Logger) *PostgresStorage {
	return &PostgresStorage{
		base:   pgutil.NewBasePostgresStorage(db),
		logger: logger,
	}
}

func (s *PostgresStorage) Add(ctx context.Context, u *user.User) error {
	q := sqlf.InsertInto("users").
		Set("user_id", u.UserID).
		Set("name", u.Name).
		Set("pin_hash", u.PinHash).
		Set("color", u.Color).
		Set("role", u.Role).
		Set("created_at", u.CreatedAt).
		Set("updated_at", u.UpdatedAt)

	if _, err := q.ExecAndClose(ctx, s.base.DB); err != nil {
		if pgutil.ViolatesConstraint(err, "users_name_key") || pgutil.ViolatesConstraint(err, "users_pkey") {
			return errors.Join(fmt.Errorf("user exists: %w", err), user.ErrUserExists)
		}
		return storage.InternalError(err)
	}

	s.base.MarkSeen(u)
	return nil
}

func (s *PostgresStorage) get(
	ctx context.Context,
	whereClause string,
	whereArgs ...any,
) ([]*user.User, error) {
	var tmp user.User

	q := sqlf.From("users u").
		Where(whereClause, whereArgs...).
		Select("u.user_id").To(&tmp.UserID).
		Select("u.name").To(&tmp.Name).
		Select("u.pin_hash").To(&tmp.PinHash).
		Select("u.color").To(&tmp.Color).
		Select("u.role").To(&tmp.Role).
		Select("u.created_at").To(&tmp.CreatedAt).
		Select("u.updated_at").To(&tmp.UpdatedAt)

	var users []*user.User
	err := q.QueryAndClose(ctx, s.base.DB, func(rows *sql.Rows) {
		users = append(users, &user.User{
			UserID:    tmp.UserID,
			Name:      tmp.Name,
			PinHash:   tmp.PinHash,
			Color:     tmp.Color,
			Role:      tmp.Role,
			CreatedAt: tmp.CreatedAt,
			UpdatedAt: tmp.UpdatedAt,
		})
	})

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, storage.InternalError(err)
	}

	return users, nil
}

func (s *PostgresStorage) GetByID(ctx context.Context, userID string) (*user.User, error) {
	users, err := s.get(ctx, "u.user_id = ?", userID)
	return pgutil.First(users, err, user.ErrUserNotFound)
}

func (s *PostgresStorage) GetByName(ctx context.Context, name string) (*user.User, error) {
	users, err := s.get(ctx, "u.name = ?", name)
	return pgutil.First(users, err, user.ErrUserNotFound)
}

func (s *PostgresStorage) Persist(ctx context.Context, u *user.User) error {
	dbState, err := s.GetByID(ctx, u.UserID)
	if err != nil {
		return err
	}

	changes, err := diff.Diff(dbState, u)
	if err != nil {
		return storage.InternalError(err)
	}

	if len(changes) != 0 {
		q := sqlf.Update("users").Where("user_id = ?", u.UserID)
		q = pgutil.MakeUpdateQuery(q, changes)

		res, err := q.ExecAndClose(ctx, s.base.DB)
		if pgutil.ViolatesConstraint(err, "users_name_key") {
			return errors.Join(fmt.Errorf("user exists: %w", err), user.ErrUserExists)
		}
		if err := pgutil.AssertUpdated(res, err, user.ErrUserNotFound); err != nil {
			return err
		}
	}

	s.base.MarkSeen(u)
	return nil
}

func (s *PostgresStorage) CollectEvents() []domain.Event {
	return s.base.CollectEvents()
}

func (s *PostgresStorage) Close() error {
	s.base.Close()
	return nil
}

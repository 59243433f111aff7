package authapp

import (
	"context"
	"errors"
	"fmt"
	"github.com/burenotti/hacktrack/internal/adapter/storage"
	teamstorage "github.com/burenotti/hacktrack/internal/adapter/storage/teams"
	"github.com/burenotti/hacktrack/internal/adapter/storage/userstorage"
	"github.com/burenotti/hacktrack/internal/domain"
	"github.com/burenotti/hacktrack/internal/domain/team"
	"github.com/burenotti/hacktrack/internal/domain/user"
)

type UserStorage interface {
	Add(ctx context.Context, u *user.User) error
	GetByID(ctx context.Context, userID string) (*user.User, error)
	GetByName(ctx context.Context, name string) (*user.User, error)
	Persist(ctx context.Context, u *user.User) error
	CollectEvents() []domain.Event
	Close() error
}

type MembershipStorage interface {
	Latest(ctx context.Context, userID string) (*team.Membership, string, error)
	CollectEvents() []domain.Event
	Close() error
}

type AtomicContext struct {
	ctx context.Context
	storage.DBContext
	UserStorage       UserStorage
	MembershipStorage MembershipStorage
}

func (a *AtomicContext) Context() context.Context {
	return a.ctx
}

func (a *AtomicContext) Commit() error {
	return a.DBContext.Commit()
}

func (a *AtomicContext) Close() (err error) {
	if closeErr := a.UserStorage.Close(); closeErr != nil {
		err = errors.Join(err, closeErr)
	}

	if closeErr := a.MembershipStorage.Close(); closeErr != nil {
		err = errors.Join(err, closeErr)
	}

	if err != nil {
		err = errors.Join(fmt.Errorf("failed to close storage"), err)
	}

	return err
}

func (a *AtomicContext) CollectEvents() []domain.Event {
	return append(a.UserStorage.CollectEvents(), a.MembershipStorage.CollectEvents()...)
}

func NewAtomicContext(ctx context.Context, dbContext storage.DBContext) (*AtomicContext, error) {
	return &AtomicContext{
		ctx:               ctx,
		DBContext:         dbContext,
		UserStorage:       userstorage.NewPostgresStorage(dbContext, nil),
		MembershipStorage: teamstorage.NewPostgresStorage(dbContext, nil),
	}, nil
}

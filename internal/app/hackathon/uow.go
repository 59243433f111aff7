package hackathonservice

import (
	"context"
	"errors"
	"fmt"
	"github.com/burenotti/hacktrack/internal/adapter/storage"
	hackathonstorage "github.com/burenotti/hacktrack/internal/adapter/storage/hackathons"
	metricstorage "github.com/burenotti/hacktrack/internal/adapter/storage/metrics"
	teamstorage "github.com/burenotti/hacktrack/internal/adapter/storage/teams"
	"github.com/burenotti/hacktrack/internal/adapter/storage/userstorage"
	"github.com/burenotti/hacktrack/internal/domain"
	"github.com/burenotti/hacktrack/internal/domain/hackathon"
	"github.com/burenotti/hacktrack/internal/domain/metric"
	"github.com/burenotti/hacktrack/internal/domain/team"
	"github.com/burenotti/hacktrack/internal/domain/user"
)

type HackathonStorage interface {
	Add(ctx context.Context, h *hackathon.Hackathon) error
	GetByID(ctx context.Context, hackathonID string) (*hackathon.Hackathon, error)
	GetActive(ctx context.Context) (*hackathon.Hackathon, error)
	ListAll(ctx context.Context) ([]hackathon.Summary, error)
	ListByMember(ctx context.Context, userID string) ([]hackathon.Summary, error)
	Persist(ctx context.Context, h *hackathon.Hackathon) error
	CollectEvents() []domain.Event
	Close() error
}

type TeamStorage interface {
	Add(ctx context.Context, t *team.Team) error
	InviteCodeExists(ctx context.Context, code string) (bool, error)
	ListByHackathon(ctx context.Context, hackathonID string) ([]team.Summary, error)
	CollectEvents() []domain.Event
	Close() error
}

type DefinitionStorage interface {
	AddDefinition(ctx context.Context, d *metric.Definition) error
	ListDefinitions(ctx context.Context, hackathonID *string) ([]*metric.Definition, error)
	CountDefinitions(ctx context.Context, hackathonID string) (int, error)
	CollectEvents() []domain.Event
	Close() error
}

type UserStorage interface {
	GetByID(ctx context.Context, userID string) (*user.User, error)
	Close() error
}

type AtomicContext struct {
	ctx context.Context
	storage.DBContext
	HackathonStorage  HackathonStorage
	TeamStorage       TeamStorage
	DefinitionStorage DefinitionStorage
	UserStorage       UserStorage
}

func (a *AtomicContext) Context() context.Context {
	return a.ctx
}

func (a *AtomicContext) Commit() error {
	return a.DBContext.Commit()
}

func (a *AtomicContext) Close() (err error) {
	closers := []interface{ Close() error }{
		a.HackathonStorage,
		a.TeamStorage,
		a.DefinitionStorage,
		a.UserStorage,
	}
	for _, c := range closers {
		if closeErr := c.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
	}

	if err != nil {
		err = errors.Join(fmt.Errorf("failed to close storage"), err)
	}

	return err
}

func (a *AtomicContext) CollectEvents() []domain.Event {
	hackathonEvents := a.HackathonStorage.CollectEvents()
	teamEvents := a.TeamStorage.CollectEvents()
	definitionEvents := a.DefinitionStorage.CollectEvents()

	events := make([]domain.Event, 0, len(hackathonEvents)+len(teamEvents)+len(definitionEvents))
	events = append(events, hackathonEvents...)
	events = append(events, teamEvents...)
	events = append(events, definitionEvents...)
	return events
}

func NewAtomicContext(ctx context.Context, dbContext storage.DBContext) (*AtomicContext, error) {
	return &AtomicContext{
		ctx:               ctx,
		DBContext:         dbContext,
		HackathonStorage:  hackathonstorage.NewPostgresStorage(dbContext, nil),
		TeamStorage:       teamstorage.NewPostgresStorage(dbContext, nil),
		DefinitionStorage: metricstorage.NewPostgresStorage(dbContext, nil),
		UserStorage:       userstorage.NewPostgresStorage(dbContext, nil),
	}, nil
}

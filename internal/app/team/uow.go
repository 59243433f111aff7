package teamservice

import (
	"context"
	"errors"
	"fmt"
	"github.com/burenotti/hacktrack/internal/adapter/storage"
	hackathonstorage "github.com/burenotti/hacktrack/internal/adapter/storage/hackathons"
	metricstorage "github.com/burenotti/hacktrack/internal/adapter/storage/metrics"
	teamstorage "github.com/burenotti/hacktrack/internal/adapter/storage/teams"
	"github.com/burenotti/hacktrack/internal/domain"
	"github.com/burenotti/hacktrack/internal/domain/hackathon"
	"github.com/burenotti/hacktrack/internal/domain/metric"
	"github.com/burenotti/hacktrack/internal/domain/team"
)

type TeamStorage interface {
	GetByInviteCode(ctx context.Context, code string) (*team.Summary, error)
	ListMemberships(ctx context.Context, userID, hackathonID string) ([]team.Membership, error)
	AddMembership(ctx context.Context, m *team.Membership) error
	Rosters(ctx context.Context, hackathonID string) ([]team.Roster, error)
	CollectEvents() []domain.Event
	Close() error
}

type HackathonStorage interface {
	GetByID(ctx context.Context, hackathonID string) (*hackathon.Hackathon, error)
	Close() error
}

type MetricStorage interface {
	ListDefinitions(ctx context.Context, hackathonID *string) ([]*metric.Definition, error)
	ListByHackathon(ctx context.Context, hackathonID string) ([]*metric.Event, error)
	Close() error
}

type AtomicContext struct {
	ctx context.Context
	storage.DBContext
	TeamStorage      TeamStorage
	HackathonStorage HackathonStorage
	MetricStorage    MetricStorage
}

func (a *AtomicContext) Context() context.Context {
	return a.ctx
}

func (a *AtomicContext) Commit() error {
	return a.DBContext.Commit()
}

func (a *AtomicContext) Close() (err error) {
	if closeErr := a.TeamStorage.Close(); closeErr != nil {
		err = errors.Join(err, closeErr)
	}

	if closeErr := a.HackathonStorage.Close(); closeErr != nil {
		err = errors.Join(err, closeErr)
	}

	if closeErr := a.MetricStorage.Close(); closeErr != nil {
		err = errors.Join(err, closeErr)
	}

	if err != nil {
		err = errors.Join(fmt.Errorf("failed to close storage"), err)
	}

	return err
}

func (a *AtomicContext) CollectEvents() []domain.Event {
	return a.TeamStorage.CollectEvents()
}

func NewAtomicContext(ctx context.Context, dbContext storage.DBContext) (*AtomicContext, error) {
	return &AtomicContext{
		ctx:              ctx,
		DBContext:        dbContext,
		TeamStorage:      teamstorage.NewPostgresStorage(dbContext, nil),
		HackathonStorage: hackathonstorage.NewPostgresStorage(dbContext, nil),
		MetricStorage:    metricstorage.NewPostgresStorage(dbContext, nil),
	}, nil
}

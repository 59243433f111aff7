package liveservice

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

type HackathonStorage interface {
	GetByID(ctx context.Context, hackathonID string) (*hackathon.Hackathon, error)
	Close() error
}

type TeamStorage interface {
	Rosters(ctx context.Context, hackathonID string) ([]team.Roster, error)
	Close() error
}

type MetricStorage interface {
	ListDefinitions(ctx context.Context, hackathonID *string) ([]*metric.Definition, error)
	ListAttributedToHackathon(ctx context.Context, hackathonID string) ([]*metric.Event, error)
	Close() error
}

type AtomicContext struct {
	ctx context.Context
	storage.DBContext
	HackathonStorage HackathonStorage
	TeamStorage      TeamStorage
	MetricStorage    MetricStorage
}

func (a *AtomicContext) Context() context.Context {
	return a.ctx
}

func (a *AtomicContext) Commit() error {
	return a.DBContext.Commit()
}

func (a *AtomicContext) Close() (err error) {
	if closeErr := a.HackathonStorage.Close(); closeErr != nil {
		err = errors.Join(err, closeErr)
	}

	if closeErr := a.TeamStorage.Close(); closeErr != nil {
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

// CollectEvents returns nothing: the live view only reads.
func (a *AtomicContext) CollectEvents() []domain.Event {
	return nil
}

func NewAtomicContext(ctx context.Context, dbContext storage.DBContext) (*AtomicContext, error) {
	return &AtomicContext{
		ctx:              ctx,
		DBContext:        dbContext,
		HackathonStorage: hackathonstorage.NewPostgresStorage(dbContext, nil),
		TeamStorage:      teamstorage.NewPostgresStorage(dbContext, nil),
		MetricStorage:    metricstorage.NewPostgresStorage(dbContext, nil),
	}, nil
}

package proposalservice

import (
	"context"
	"errors"
	"fmt"
	"github.com/burenotti/hacktrack/internal/adapter/storage"
	hackathonstorage "github.com/burenotti/hacktrack/internal/adapter/storage/hackathons"
	metricstorage "github.com/burenotti/hacktrack/internal/adapter/storage/metrics"
	proposalstorage "github.com/burenotti/hacktrack/internal/adapter/storage/proposals"
	"github.com/burenotti/hacktrack/internal/domain"
	"github.com/burenotti/hacktrack/internal/domain/hackathon"
	"github.com/burenotti/hacktrack/internal/domain/metric"
	"github.com/burenotti/hacktrack/internal/domain/proposal"
)

type ProposalStorage interface {
	Add(ctx context.Context, p *proposal.Proposal) error
	GetByID(ctx context.Context, proposalID string) (*proposal.Proposal, error)
	List(ctx context.Context, hackathonID string, f proposalstorage.Filter) ([]proposalstorage.Listed, error)
	HasPending(ctx context.Context, hackathonID, userID, slug string) (bool, error)
	Persist(ctx context.Context, p *proposal.Proposal) error
	CollectEvents() []domain.Event
	Close() error
}

type DefinitionStorage interface {
	AddDefinition(ctx context.Context, d *metric.Definition) error
	GetDefinitionBySlug(ctx context.Context, hackathonID *string, slug string) (*metric.Definition, error)
	CollectEvents() []domain.Event
	Close() error
}

type HackathonStorage interface {
	GetActive(ctx context.Context) (*hackathon.Hackathon, error)
	Close() error
}

type AtomicContext struct {
	ctx context.Context
	storage.DBContext
	ProposalStorage   ProposalStorage
	DefinitionStorage DefinitionStorage
	HackathonStorage  HackathonStorage
}

func (a *AtomicContext) Context() context.Context {
	return a.ctx
}

func (a *AtomicContext) Commit() error {
	return a.DBContext.Commit()
}

func (a *AtomicContext) Close() (err error) {
	if closeErr := a.ProposalStorage.Close(); closeErr != nil {
		err = errors.Join(err, closeErr)
	}

	if closeErr := a.DefinitionStorage.Close(); closeErr != nil {
		err = errors.Join(err, closeErr)
	}

	if closeErr := a.HackathonStorage.Close(); closeErr != nil {
		err = errors.Join(err, closeErr)
	}

	if err != nil {
		err = errors.Join(fmt.Errorf("failed to close storage"), err)
	}

	return err
}

func (a *AtomicContext) CollectEvents() []domain.Event {
	return append(a.ProposalStorage.CollectEvents(), a.DefinitionStorage.CollectEvents()...)
}

func NewAtomicContext(ctx context.Context, dbContext storage.DBContext) (*AtomicContext, error) {
	return &AtomicContext{
		ctx:               ctx,
		DBContext:         dbContext,
		ProposalStorage:   proposalstorage.NewPostgresStorage(dbContext, nil),
		DefinitionStorage: metricstorage.NewPostgresStorage(dbContext, nil),
		HackathonStorage:  hackathonstorage.NewPostgresStorage(dbContext, nil),
	}, nil
}

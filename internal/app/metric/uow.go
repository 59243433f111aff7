package metricservice

import (
	"context"
	"errors"
	"fmt"
	"github.com/burenotti/hacktrack/internal/adapter/storage"
	metricstorage "github.com/burenotti/hacktrack/internal/adapter/storage/metrics"
	"github.com/burenotti/hacktrack/internal/domain"
	"github.com/burenotti/hacktrack/internal/domain/metric"
	"time"
)

type MetricStorage interface {
	AddDefinition(ctx context.Context, d *metric.Definition) error
	ListDefinitions(ctx context.Context, hackathonID *string) ([]*metric.Definition, error)
	GetDefinitionBySlug(ctx context.Context, hackathonID *string, slug string) (*metric.Definition, error)
	GetDefinitionByID(ctx context.Context, definitionID string) (*metric.Definition, error)
	DeleteDefinition(ctx context.Context, d *metric.Definition) error
	AddEvent(ctx context.Context, e *metric.Event) error
	ListByUser(ctx context.Context, userID string) ([]*metric.Event, error)
	ListByUserSince(ctx context.Context, userID string, since time.Time) ([]*metric.Event, error)
	CollectEvents() []domain.Event
	Close() error
}

type AtomicContext struct {
	ctx           context.Context
	db            storage.DBContext
	MetricStorage MetricStorage
}

func (a *AtomicContext) Context() context.Context {
	return a.ctx
}

func (a *AtomicContext) Commit() error {
	return a.db.Commit()
}

func (a *AtomicContext) Close() (err error) {
	if closeErr := a.MetricStorage.Close(); closeErr != nil {
		err = errors.Join(err, closeErr)
	}

	if err != nil {
		err = errors.Join(fmt.Errorf("failed to close storage"), err)
	}

	return err
}

func (a *AtomicContext) CollectEvents() []domain.Event {
	return a.MetricStorage.CollectEvents()
}

func NewAtomicContext(ctx context.Context, dbContext storage.DBContext) (*AtomicContext, error) {
	return &AtomicContext{
		ctx:           ctx,
		db:            dbContext,
		MetricStorage: metricstorage.NewPostgresStorage(dbContext, nil),
	}, nil
}

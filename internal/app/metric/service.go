package metricservice

import (
	"context"
	"errors"
	"fmt"
	"github.com/burenotti/hacktrack/internal/app/unitofwork"
	"github.com/burenotti/hacktrack/internal/domain/metric"
	"github.com/burenotti/hacktrack/internal/domain/user"
	"log/slog"
	"strings"
	"time"
)

const RecentLimit = 50

type Service struct {
	logger   *slog.Logger
	location *time.Location
	// Now is replaceable in tests.
	Now func() time.Time
}

// New creates the service. Timeline buckets are aligned to loc; nil means UTC.
func New(loc *time.Location, logger *slog.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		logger:   logger,
		location: loc,
		Now:      time.Now,
	}
}

// Author identifies who logs a metric and where the event is attributed.
type Author struct {
	UserID      string
	TeamID      *string
	HackathonID *string
}

func (s *Service) Log(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	author Author,
	eventID, slug string,
	value float64,
) (e *metric.Event, err error) {
	err = uow.Atomic(ctx, func(ctx *AtomicContext) error {
		slug = strings.ToUpper(strings.TrimSpace(slug))
		def, err := ctx.MetricStorage.GetDefinitionBySlug(ctx.Context(), author.HackathonID, slug)
		if errors.Is(err, metric.ErrDefinitionNotFound) {
			return fmt.Errorf("%w: %s", metric.ErrUnknownType, slug)
		}
		if err != nil {
			return err
		}

		if e, err = metric.Log(eventID, author.UserID, author.TeamID, author.HackathonID, def, value); err != nil {
			return err
		}

		if err := ctx.MetricStorage.AddEvent(ctx.Context(), e); err != nil {
			return err
		}

		return ctx.Commit()
	})
	return
}

type Dashboard struct {
	Definitions []*metric.Definition
	Totals      metric.Totals
	Recent      []*metric.Event
	Timeline    *metric.Timeline
}

// Dashboard returns all-time totals, the latest events and an hourly
// timeline for the user within the definitions of the scope.
func (s *Service) Dashboard(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	userID string,
	hackathonID *string,
) (d Dashboard, err error) {
	err = uow.Atomic(ctx, func(ctx *AtomicContext) error {
		if d.Definitions, err = ctx.MetricStorage.ListDefinitions(ctx.Context(), hackathonID); err != nil {
			return err
		}

		events, err := ctx.MetricStorage.ListByUser(ctx.Context(), userID)
		if err != nil {
			return err
		}

		slugs := metric.Slugs(d.Definitions)
		d.Totals = metric.Aggregate(events, slugs)
		d.Recent = metric.Recent(events, RecentLimit)
		d.Timeline = metric.BuildTimeline(events, slugs, metric.Hourly, metric.HourlyBuckets, s.Now(), s.location)
		return nil
	})
	return
}

type History struct {
	Definitions []*metric.Definition
	Totals      metric.Totals
	Timeline    *metric.Timeline
}

// History returns a daily timeline of the user's events together with
// the totals over the same window.
func (s *Service) History(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	userID string,
	hackathonID *string,
) (h History, err error) {
	now := s.Now()
	// One extra day covers the partial first bucket in any location.
	since := now.AddDate(0, 0, -(metric.DailyBuckets + 1))

	err = uow.Atomic(ctx, func(ctx *AtomicContext) error {
		if h.Definitions, err = ctx.MetricStorage.ListDefinitions(ctx.Context(), hackathonID); err != nil {
			return err
		}

		events, err := ctx.MetricStorage.ListByUserSince(ctx.Context(), userID, since)
		if err != nil {
			return err
		}

		slugs := metric.Slugs(h.Definitions)
		h.Timeline = metric.BuildTimeline(events, slugs, metric.Daily, metric.DailyBuckets, now, s.location)
		h.Totals = metric.AggregateWithin(events, slugs, h.Timeline.Window)
		return nil
	})
	return
}

func (s *Service) Definitions(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	hackathonID *string,
) (defs []*metric.Definition, err error) {
	err = uow.Atomic(ctx, func(ctx *AtomicContext) error {
		defs, err = ctx.MetricStorage.ListDefinitions(ctx.Context(), hackathonID)
		return err
	})
	return
}

// DefinitionInput carries the fields of a new definition.
type DefinitionInput struct {
	Slug      string
	Name      string
	Icon      string
	Color     string
	InputType metric.InputType
	Unit      string
}

func (s *Service) CreateDefinition(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	role user.Role,
	userID string,
	hackathonID *string,
	definitionID string,
	in DefinitionInput,
) (d *metric.Definition, err error) {
	if !role.IsOrganizer() {
		return nil, user.ErrForbidden
	}

	err = uow.Atomic(ctx, func(ctx *AtomicContext) error {
		d, err = metric.NewDefinition(definitionID, hackathonID, in.Slug, in.Name, in.Icon, in.Color, in.InputType, in.Unit, &userID)
		if err != nil {
			return err
		}

		if err := ctx.MetricStorage.AddDefinition(ctx.Context(), d); err != nil {
			return err
		}

		return ctx.Commit()
	})
	return
}

// DeleteDefinition removes a definition of the caller's scope together with
// the events logged against it.
func (s *Service) DeleteDefinition(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	role user.Role,
	hackathonID *string,
	definitionID string,
) error {
	if !role.IsOrganizer() {
		return user.ErrForbidden
	}

	return uow.Atomic(ctx, func(ctx *AtomicContext) error {
		d, err := ctx.MetricStorage.GetDefinitionByID(ctx.Context(), definitionID)
		if err != nil {
			return err
		}

		if !sameScope(d.HackathonID, hackathonID) {
			return metric.ErrDefinitionNotFound
		}

		if err := ctx.MetricStorage.DeleteDefinition(ctx.Context(), d); err != nil {
			return err
		}

		s.logger.Info("metric definition deleted", "slug", d.Slug, "definition_id", d.DefinitionID)
		return ctx.Commit()
	})
}

func sameScope(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

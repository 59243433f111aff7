package liveservice

import (
	"context"
	"encoding/json"
	"errors"
	"github.com/burenotti/hacktrack/internal/app/unitofwork"
	"github.com/burenotti/hacktrack/internal/domain"
	"github.com/burenotti/hacktrack/internal/domain/hackathon"
	"github.com/burenotti/hacktrack/internal/domain/leaderboard"
	"github.com/burenotti/hacktrack/internal/domain/metric"
	"github.com/burenotti/hacktrack/internal/domain/team"
	"log/slog"
	"time"
)

// Cache keeps encoded snapshots. Get reports a miss with an error.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

type Service struct {
	logger *slog.Logger
	policy leaderboard.Policy
	cache  Cache
}

func New(policy leaderboard.Policy, cache Cache, logger *slog.Logger) *Service {
	return &Service{
		logger: logger,
		policy: policy,
		cache:  cache,
	}
}

// Snapshot is the public state of a hackathon at one moment.
type Snapshot struct {
	Hackathon   *hackathon.Hackathon
	Definitions []*metric.Definition
	Teams       []leaderboard.TeamEntry
	GeneratedAt time.Time
}

func cacheKey(hackathonID string) string {
	return "live:" + hackathonID
}

// Snapshot returns the team leaderboard of the hackathon, served from the
// cache when a fresh copy exists.
func (s *Service) Snapshot(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	hackathonID string,
) (*Snapshot, error) {
	if cached, err := s.cache.Get(ctx, cacheKey(hackathonID)); err == nil {
		var snap Snapshot
		if err := json.Unmarshal(cached, &snap); err == nil {
			return &snap, nil
		}
		s.logger.Warn("dropping undecodable live snapshot", "hackathon_id", hackathonID)
	}

	snap, err := s.build(ctx, uow, hackathonID)
	if err != nil {
		return nil, err
	}

	if encoded, err := json.Marshal(snap); err == nil {
		if err := s.cache.Set(ctx, cacheKey(hackathonID), encoded); err != nil {
			s.logger.Warn("failed to cache live snapshot", "hackathon_id", hackathonID, "error", err)
		}
	}
	return snap, nil
}

func (s *Service) build(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	hackathonID string,
) (snap *Snapshot, err error) {
	err = uow.Atomic(ctx, func(ctx *AtomicContext) error {
		h, err := ctx.HackathonStorage.GetByID(ctx.Context(), hackathonID)
		if err != nil {
			return err
		}

		defs, err := ctx.MetricStorage.ListDefinitions(ctx.Context(), &hackathonID)
		if err != nil {
			return err
		}

		rosters, err := ctx.TeamStorage.Rosters(ctx.Context(), hackathonID)
		if err != nil {
			return err
		}

		events, err := ctx.MetricStorage.ListAttributedToHackathon(ctx.Context(), hackathonID)
		if err != nil {
			return err
		}

		snap = &Snapshot{
			Hackathon:   h,
			Definitions: defs,
			Teams:       leaderboard.Teams(leaderboard.FromRosters(rosters), events, metric.Slugs(defs), s.policy),
			GeneratedAt: time.Now().UTC(),
		}
		return nil
	})
	return
}

func (s *Service) Invalidate(ctx context.Context, hackathonID string) error {
	return s.cache.Delete(ctx, cacheKey(hackathonID))
}

// InvalidateOn drops the cached snapshot of the hackathon an event belongs to.
// Events without a hackathon are ignored.
func (s *Service) InvalidateOn(event domain.Event) error {
	var hackathonID string
	switch e := event.(type) {
	case metric.LoggedEvent:
		if e.HackathonID != nil {
			hackathonID = *e.HackathonID
		}
	case metric.DefinitionsChangedEvent:
		if e.HackathonID != nil {
			hackathonID = *e.HackathonID
		}
	case team.MemberJoinedEvent:
		hackathonID = e.HackathonID
	case hackathon.ActivatedEvent:
		hackathonID = e.HackathonID
	case hackathon.EndedEvent:
		hackathonID = e.HackathonID
	default:
		return errors.New("unexpected event " + event.Type())
	}

	if hackathonID == "" {
		return nil
	}
	return s.Invalidate(context.Background(), hackathonID)
}

// InvalidatingEvents lists the event types InvalidateOn handles.
var InvalidatingEvents = []string{
	metric.EventLogged,
	metric.EventDefinitionsChanged,
	team.EventMemberJoined,
	hackathon.EventActivated,
	hackathon.EventEnded,
}

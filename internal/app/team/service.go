package teamservice

import (
	"context"
	"errors"
	"github.com/burenotti/hacktrack/internal/app/unitofwork"
	"github.com/burenotti/hacktrack/internal/domain/hackathon"
	"github.com/burenotti/hacktrack/internal/domain/leaderboard"
	"github.com/burenotti/hacktrack/internal/domain/metric"
	"github.com/burenotti/hacktrack/internal/domain/team"
	"log/slog"
)

var (
	ErrNoHackathon = errors.New("join a team first")
)

type Service struct {
	logger *slog.Logger
	policy leaderboard.Policy
}

func New(policy leaderboard.Policy, logger *slog.Logger) *Service {
	return &Service{
		logger: logger,
		policy: policy,
	}
}

// Preview describes the team behind an invite code.
type Preview struct {
	Team      *team.Summary
	Hackathon *hackathon.Hackathon
}

func (s *Service) InvitePreview(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	code string,
) (p Preview, err error) {
	err = uow.Atomic(ctx, func(ctx *AtomicContext) error {
		if p.Team, err = ctx.TeamStorage.GetByInviteCode(ctx.Context(), team.NormalizeInviteCode(code)); err != nil {
			return err
		}

		p.Hackathon, err = ctx.HackathonStorage.GetByID(ctx.Context(), p.Team.Team.HackathonID)
		return err
	})
	return
}

// Join adds the user to the team behind code. currentTeamID is the team
// carried by the caller's session.
func (s *Service) Join(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	userID string,
	currentTeamID *string,
	code string,
) (p Preview, err error) {
	err = uow.Atomic(ctx, func(ctx *AtomicContext) error {
		if p.Team, err = ctx.TeamStorage.GetByInviteCode(ctx.Context(), team.NormalizeInviteCode(code)); err != nil {
			return err
		}
		t := p.Team.Team

		if p.Hackathon, err = ctx.HackathonStorage.GetByID(ctx.Context(), t.HackathonID); err != nil {
			return err
		}

		existing, err := ctx.TeamStorage.ListMemberships(ctx.Context(), userID, t.HackathonID)
		if err != nil {
			return err
		}

		var current string
		if currentTeamID != nil {
			current = *currentTeamID
		}

		m, err := t.Admit(userID, current, p.Hackathon.Status, existing)
		if err != nil {
			return err
		}

		if err := ctx.TeamStorage.AddMembership(ctx.Context(), m); err != nil {
			return err
		}
		p.Team.MemberCount++

		s.logger.Info("user joined team", "user_id", userID, "team_id", t.TeamID, "hackathon_id", t.HackathonID)
		return ctx.Commit()
	})
	return
}

// Leaderboard ranks every member of the hackathon over the events they
// logged in it.
func (s *Service) Leaderboard(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	hackathonID *string,
) (entries []leaderboard.Entry, defs []*metric.Definition, err error) {
	if hackathonID == nil {
		return nil, nil, ErrNoHackathon
	}

	err = uow.Atomic(ctx, func(ctx *AtomicContext) error {
		rosters, err := ctx.TeamStorage.Rosters(ctx.Context(), *hackathonID)
		if err != nil {
			return err
		}

		if defs, err = ctx.MetricStorage.ListDefinitions(ctx.Context(), hackathonID); err != nil {
			return err
		}

		events, err := ctx.MetricStorage.ListByHackathon(ctx.Context(), *hackathonID)
		if err != nil {
			return err
		}

		byUser := leaderboard.GroupByUser(events)
		subjects := leaderboard.Subjects(leaderboard.FromRosters(rosters))
		entries = leaderboard.Users(subjects, func(sub leaderboard.Subject) []*metric.Event {
			return byUser[sub.ID]
		}, metric.Slugs(defs), s.policy)
		return nil
	})
	return
}

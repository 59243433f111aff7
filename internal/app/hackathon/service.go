package hackathonservice

import (
	"context"
	"errors"
	"github.com/burenotti/hacktrack/internal/app/unitofwork"
	"github.com/burenotti/hacktrack/internal/domain/hackathon"
	"github.com/burenotti/hacktrack/internal/domain/metric"
	"github.com/burenotti/hacktrack/internal/domain/team"
	"github.com/burenotti/hacktrack/internal/domain/user"
	"github.com/google/uuid"
	"log/slog"
	"time"
)

type Service struct {
	logger *slog.Logger
	// InviteCode is replaceable in tests.
	InviteCode func() (string, error)
}

func New(logger *slog.Logger) *Service {
	return &Service{
		logger:     logger,
		InviteCode: team.GenerateInviteCode,
	}
}

// Actor is the caller of an operation.
type Actor struct {
	UserID string
	Role   user.Role
}

// List returns every hackathon to organizers and only the hackathons the
// member has a team in to everybody else.
func (s *Service) List(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	actor Actor,
) (res []hackathon.Summary, err error) {
	err = uow.Atomic(ctx, func(ctx *AtomicContext) error {
		if actor.Role.IsOrganizer() {
			res, err = ctx.HackathonStorage.ListAll(ctx.Context())
		} else {
			res, err = ctx.HackathonStorage.ListByMember(ctx.Context(), actor.UserID)
		}
		return err
	})
	return
}

func (s *Service) Create(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	actor Actor,
	hackathonID, name string,
	description *string,
	startAt, endAt time.Time,
) (h *hackathon.Hackathon, err error) {
	if !actor.Role.IsOrganizer() {
		return nil, user.ErrForbidden
	}

	err = uow.Atomic(ctx, func(ctx *AtomicContext) error {
		h, err = hackathon.New(hackathonID, name, description, startAt, endAt, actor.UserID)
		if err != nil {
			return err
		}

		if err := ctx.HackathonStorage.Add(ctx.Context(), h); err != nil {
			return err
		}

		return ctx.Commit()
	})
	return
}

// Active returns the active hackathon or nil when there is none.
func (s *Service) Active(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
) (h *hackathon.Hackathon, err error) {
	err = uow.Atomic(ctx, func(ctx *AtomicContext) error {
		h, err = ctx.HackathonStorage.GetActive(ctx.Context())
		if errors.Is(err, hackathon.ErrHackathonNotFound) {
			h, err = nil, nil
		}
		return err
	})
	return
}

type Detail struct {
	Hackathon   *hackathon.Hackathon
	Organizer   *user.User
	Teams       []team.Summary
	Definitions []*metric.Definition
}

func (s *Service) Detail(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	hackathonID string,
) (d Detail, err error) {
	err = uow.Atomic(ctx, func(ctx *AtomicContext) error {
		if d.Hackathon, err = ctx.HackathonStorage.GetByID(ctx.Context(), hackathonID); err != nil {
			return err
		}

		d.Organizer, err = ctx.UserStorage.GetByID(ctx.Context(), d.Hackathon.OrganizerID)
		if err != nil && !errors.Is(err, user.ErrUserNotFound) {
			return err
		}

		if d.Teams, err = ctx.TeamStorage.ListByHackathon(ctx.Context(), hackathonID); err != nil {
			return err
		}

		d.Definitions, err = ctx.DefinitionStorage.ListDefinitions(ctx.Context(), &hackathonID)
		return err
	})
	return
}

// Update applies changes on behalf of the owner or a superadmin. Activating
// a hackathon that has no definitions yet seeds the default templates.
func (s *Service) Update(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	actor Actor,
	hackathonID string,
	update hackathon.Update,
) (h *hackathon.Hackathon, err error) {
	err = uow.Atomic(ctx, func(ctx *AtomicContext) error {
		if h, err = ctx.HackathonStorage.GetByID(ctx.Context(), hackathonID); err != nil {
			return err
		}

		if !h.CanEdit(actor.UserID, actor.Role == user.RoleSuperadmin) {
			return hackathon.ErrForbidden
		}

		activates := h.Activates(update)
		if activates {
			active, err := ctx.HackathonStorage.GetActive(ctx.Context())
			switch {
			case err == nil && active.HackathonID != h.HackathonID:
				return hackathon.ErrAlreadyActive
			case err != nil && !errors.Is(err, hackathon.ErrHackathonNotFound):
				return err
			}
		}

		if err := h.Apply(update); err != nil {
			return err
		}

		if err := ctx.HackathonStorage.Persist(ctx.Context(), h); err != nil {
			return err
		}

		if activates {
			if err := s.seedDefinitions(ctx, h.HackathonID, actor.UserID); err != nil {
				return err
			}
		}

		return ctx.Commit()
	})
	return
}

func (s *Service) seedDefinitions(ctx *AtomicContext, hackathonID, createdBy string) error {
	count, err := ctx.DefinitionStorage.CountDefinitions(ctx.Context(), hackathonID)
	if err != nil || count != 0 {
		return err
	}

	now := time.Now().UTC()
	for _, t := range metric.DefaultTemplates {
		d := metric.FromTemplate(uuid.NewString(), hackathonID, t, &createdBy, now)
		if err := ctx.DefinitionStorage.AddDefinition(ctx.Context(), d); err != nil {
			return err
		}
	}

	s.logger.Info("seeded default metric definitions", "hackathon_id", hackathonID, "count", len(metric.DefaultTemplates))
	return nil
}

// CreateTeam adds a team with a fresh invite code to the hackathon.
func (s *Service) CreateTeam(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	actor Actor,
	hackathonID, teamID, name, color string,
) (t *team.Team, err error) {
	if !actor.Role.IsOrganizer() {
		return nil, user.ErrForbidden
	}

	err = uow.Atomic(ctx, func(ctx *AtomicContext) error {
		if _, err := ctx.HackathonStorage.GetByID(ctx.Context(), hackathonID); err != nil {
			return err
		}

		code, err := s.allocateInviteCode(ctx)
		if err != nil {
			return err
		}

		if t, err = team.New(teamID, hackathonID, name, color, code); err != nil {
			return err
		}

		if err := ctx.TeamStorage.Add(ctx.Context(), t); err != nil {
			return err
		}

		return ctx.Commit()
	})
	return
}

func (s *Service) allocateInviteCode(ctx *AtomicContext) (string, error) {
	for range team.InviteCodeMaxAttempts {
		code, err := s.InviteCode()
		if err != nil {
			return "", err
		}

		exists, err := ctx.TeamStorage.InviteCodeExists(ctx.Context(), code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", team.ErrInviteCodeExhausted
}

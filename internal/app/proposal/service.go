package proposalservice

import (
	"context"
	"errors"
	proposalstorage "github.com/burenotti/hacktrack/internal/adapter/storage/proposals"
	"github.com/burenotti/hacktrack/internal/app/unitofwork"
	"github.com/burenotti/hacktrack/internal/domain/hackathon"
	"github.com/burenotti/hacktrack/internal/domain/metric"
	"github.com/burenotti/hacktrack/internal/domain/proposal"
	"github.com/burenotti/hacktrack/internal/domain/user"
	"github.com/google/uuid"
	"log/slog"
)

type Service struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Service {
	return &Service{logger: logger}
}

type Input struct {
	Name      string
	Icon      string
	InputType metric.InputType
	Unit      string
}

func (s *Service) Propose(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	userID string,
	hackathonID *string,
	proposalID string,
	in Input,
) (p *proposal.Proposal, err error) {
	if hackathonID == nil {
		return nil, proposal.ErrNoHackathon
	}

	err = uow.Atomic(ctx, func(ctx *AtomicContext) error {
		p, err = proposal.New(proposalID, *hackathonID, userID, in.Name, in.Icon, in.InputType, in.Unit)
		if err != nil {
			return err
		}

		_, err := ctx.DefinitionStorage.GetDefinitionBySlug(ctx.Context(), hackathonID, p.Slug)
		switch {
		case err == nil:
			return proposal.ErrDefinitionExists
		case !errors.Is(err, metric.ErrDefinitionNotFound):
			return err
		}

		pending, err := ctx.ProposalStorage.HasPending(ctx.Context(), *hackathonID, userID, p.Slug)
		if err != nil {
			return err
		}
		if pending {
			return proposal.ErrDuplicatePending
		}

		if err := ctx.ProposalStorage.Add(ctx.Context(), p); err != nil {
			return err
		}

		return ctx.Commit()
	})
	return
}

// List returns the proposals of the caller's hackathon. Organizers without a
// team fall back to the active hackathon and see every proposal, members see
// only their own.
func (s *Service) List(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	role user.Role,
	userID string,
	hackathonID *string,
	status *proposal.Status,
) (res []proposalstorage.Listed, err error) {
	err = uow.Atomic(ctx, func(ctx *AtomicContext) error {
		scope := hackathonID
		if scope == nil && role.IsOrganizer() {
			active, err := ctx.HackathonStorage.GetActive(ctx.Context())
			switch {
			case err == nil:
				scope = &active.HackathonID
			case !errors.Is(err, hackathon.ErrHackathonNotFound):
				return err
			}
		}
		if scope == nil {
			return nil
		}

		f := proposalstorage.Filter{Status: status}
		if !role.IsOrganizer() {
			f.ProposedBy = &userID
		}

		res, err = ctx.ProposalStorage.List(ctx.Context(), *scope, f)
		return err
	})
	return
}

// Resolve approves or rejects a pending proposal. Approval creates the
// metric definition in the proposal's hackathon.
func (s *Service) Resolve(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	role user.Role,
	userID string,
	proposalID string,
	status proposal.Status,
	reason string,
) (p *proposal.Proposal, err error) {
	if !role.IsOrganizer() {
		return nil, user.ErrForbidden
	}

	err = uow.Atomic(ctx, func(ctx *AtomicContext) error {
		if p, err = ctx.ProposalStorage.GetByID(ctx.Context(), proposalID); err != nil {
			return err
		}

		switch status {
		case proposal.StatusApproved:
			def, err := p.Approve(uuid.NewString(), userID)
			if err != nil {
				return err
			}
			if err := ctx.DefinitionStorage.AddDefinition(ctx.Context(), def); err != nil {
				if errors.Is(err, metric.ErrDefinitionExists) {
					return proposal.ErrDefinitionExists
				}
				return err
			}
		case proposal.StatusRejected:
			if err := p.Reject(reason); err != nil {
				return err
			}
		default:
			return proposal.ErrInvalidStatus
		}

		if err := ctx.ProposalStorage.Persist(ctx.Context(), p); err != nil {
			return err
		}

		s.logger.Info("proposal resolved", "proposal_id", p.ProposalID, "status", p.Status)
		return ctx.Commit()
	})
	return
}

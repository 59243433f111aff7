package proposalstorage

import (
	"context"
	"database/sql"
	"errors"
	"github.com/burenotti/hacktrack/internal/adapter/storage"
	"github.com/burenotti/hacktrack/internal/adapter/storage/pgutil"
	"github.com/burenotti/hacktrack/internal/domain"
	"github.com/burenotti/hacktrack/internal/domain/proposal"
	"github.com/leporo/sqlf"
	"github.com/r3labs/diff"
	"log/slog"
)

// Listed is a proposal joined with the public profile of its author.
type Listed struct {
	Proposal  *proposal.Proposal
	UserName  string
	UserColor string
}

// Filter narrows List. Nil fields match everything.
type Filter struct {
	ProposedBy *string
	Status     *proposal.Status
}

type PostgresStorage struct {
	base   *pgutil.BasePostgresStorage
	logger *slog.Logger
}

func NewPostgresStorage(db storage.DBContext, logger *slog.Logger) *PostgresStorage {
	return &PostgresStorage{
		base:   pgutil.NewBasePostgresStorage(db),
		logger: logger,
	}
}

func (s *PostgresStorage) Add(ctx context.Context, p *proposal.Proposal) error {
	q := sqlf.InsertInto("metric_proposals").
		Set("proposal_id", p.ProposalID).
		Set("hackathon_id", p.HackathonID).
		Set("proposed_by", p.ProposedBy).
		Set("name", p.Name).
		Set("slug", p.Slug).
		Set("icon", p.Icon).
		Set("input_type", p.InputType).
		Set("unit", p.Unit).
		Set("status", p.Status).
		Set("reason", p.Reason).
		Set("definition_id", p.DefinitionID).
		Set("created_at", p.CreatedAt).
		Set("resolved_at", p.ResolvedAt)

	if _, err := q.ExecAndClose(ctx, s.base.DB); err != nil {
		return storage.InternalError(err)
	}

	s.base.MarkSeen(p)
	return nil
}

func (s *PostgresStorage) get(
	ctx context.Context,
	modify func(stmt *sqlf.Stmt) *sqlf.Stmt,
) ([]Listed, error) {
	var tmp proposal.Proposal
	var userName, userColor string

	q := sqlf.From("metric_proposals p").
		Join("users u", "u.user_id = p.proposed_by").
		Select("p.proposal_id").To(&tmp.ProposalID).
		Select("p.hackathon_id").To(&tmp.HackathonID).
		Select("p.proposed_by").To(&tmp.ProposedBy).
		Select("p.name").To(&tmp.Name).
		Select("p.slug").To(&tmp.Slug).
		Select("p.icon").To(&tmp.Icon).
		Select("p.input_type").To(&tmp.InputType).
		Select("p.unit").To(&tmp.Unit).
		Select("p.status").To(&tmp.Status).
		Select("p.reason").To(&tmp.Reason).
		Select("p.definition_id").To(&tmp.DefinitionID).
		Select("p.created_at").To(&tmp.CreatedAt).
		Select("p.resolved_at").To(&tmp.ResolvedAt).
		Select("u.name").To(&userName).
		Select("u.color").To(&userColor)

	q = modify(q)

	var result []Listed
	err := q.QueryAndClose(ctx, s.base.DB, func(rows *sql.Rows) {
		result = append(result, Listed{
			Proposal: &proposal.Proposal{
				ProposalID:   tmp.ProposalID,
				HackathonID:  tmp.HackathonID,
				ProposedBy:   tmp.ProposedBy,
				Name:         tmp.Name,
				Slug:         tmp.Slug,
				Icon:         tmp.Icon,
				InputType:    tmp.InputType,
				Unit:         tmp.Unit,
				Status:       tmp.Status,
				Reason:       tmp.Reason,
				DefinitionID: tmp.DefinitionID,
				CreatedAt:    tmp.CreatedAt,
				ResolvedAt:   tmp.ResolvedAt,
			},
			UserName:  userName,
			UserColor: userColor,
		})
	})

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, storage.InternalError(err)
	}
	return result, nil
}

func (s *PostgresStorage) GetByID(ctx context.Context, proposalID string) (*proposal.Proposal, error) {
	res, err := s.get(ctx, func(stmt *sqlf.Stmt) *sqlf.Stmt {
		return stmt.Where("p.proposal_id = ?", proposalID)
	})
	listed, err := pgutil.First(res, err, proposal.ErrProposalNotFound)
	if err != nil {
		return nil, err
	}
	return listed.Proposal, nil
}

// List returns proposals of the hackathon, newest first.
func (s *PostgresStorage) List(ctx context.Context, hackathonID string, f Filter) ([]Listed, error) {
	return s.get(ctx, func(stmt *sqlf.Stmt) *sqlf.Stmt {
		stmt = stmt.Where("p.hackathon_id = ?", hackathonID)
		if f.ProposedBy != nil {
			stmt = stmt.Where("p.proposed_by = ?", *f.ProposedBy)
		}
		if f.Status != nil {
			stmt = stmt.Where("p.status = ?", *f.Status)
		}
		return stmt.OrderBy("p.created_at DESC")
	})
}

// HasPending reports whether the user already proposed slug in the hackathon
// and the proposal is still waiting for review.
func (s *PostgresStorage) HasPending(ctx context.Context, hackathonID, userID, slug string) (bool, error) {
	var exists bool
	q := sqlf.Select(`EXISTS (
		SELECT 1 FROM metric_proposals
		WHERE hackathon_id = ? AND proposed_by = ? AND slug = ? AND status = ?)`,
		hackathonID, userID, slug, proposal.StatusPending,
	).To(&exists)

	if err := q.QueryRowAndClose(ctx, s.base.DB); err != nil {
		return false, storage.InternalError(err)
	}
	return exists, nil
}

func (s *PostgresStorage) Persist(ctx context.Context, p *proposal.Proposal) error {
	dbState, err := s.GetByID(ctx, p.ProposalID)
	if err != nil {
		return err
	}

	changes, err := diff.Diff(dbState, p)
	if err != nil {
		return storage.InternalError(err)
	}

	if len(changes) != 0 {
		q := sqlf.Update("metric_proposals").Where("proposal_id = ?", p.ProposalID)
		q = pgutil.MakeUpdateQuery(q, changes)

		res, err := q.ExecAndClose(ctx, s.base.DB)
		if err := pgutil.AssertUpdated(res, err, proposal.ErrProposalNotFound); err != nil {
			return err
		}
	}

	s.base.MarkSeen(p)
	return nil
}

func (s *PostgresStorage) CollectEvents() []domain.Event {
	return s.base.CollectEvents()
}

func (s *PostgresStorage) Close() error {
	s.base.Close()
	return nil
}

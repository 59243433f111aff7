package hackathonstorage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"github.com/burenotti/hacktrack/internal/adapter/storage"
	"github.com/burenotti/hacktrack/internal/adapter/storage/pgutil"
	"github.com/burenotti/hacktrack/internal/domain"
	"github.com/burenotti/hacktrack/internal/domain/hackathon"
	"github.com/leporo/sqlf"
	"github.com/r3labs/diff"
	"log/slog"
)

const singleActiveConstraint = "hackathons_single_active_idx"

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

func (s *PostgresStorage) Add(ctx context.Context, h *hackathon.Hackathon) error {
	q := sqlf.InsertInto("hackathons").
		Set("hackathon_id", h.HackathonID).
		Set("name", h.Name).
		Set("description", h.Description).
		Set("status", h.Status).
		Set("start_at", h.StartAt).
		Set("end_at", h.EndAt).
		Set("organizer_id", h.OrganizerID).
		Set("created_at", h.CreatedAt).
		Set("updated_at", h.UpdatedAt)

	if _, err := q.ExecAndClose(ctx, s.base.DB); err != nil {
		if pgutil.ViolatesConstraint(err, singleActiveConstraint) {
			return hackathon.ErrAlreadyActive
		}
		return storage.InternalError(err)
	}

	s.base.MarkSeen(h)
	return nil
}

func (s *PostgresStorage) get(
	ctx context.Context,
	modify func(stmt *sqlf.Stmt) *sqlf.Stmt,
) ([]hackathon.Summary, error) {
	var tmp hackathon.Hackathon
	var teamCount int

	q := sqlf.From("hackathons h").
		Select("h.hackathon_id").To(&tmp.HackathonID).
		Select("h.name").To(&tmp.Name).
		Select("h.description").To(&tmp.Description).
		Select("h.status").To(&tmp.Status).
		Select("h.start_at").To(&tmp.StartAt).
		Select("h.end_at").To(&tmp.EndAt).
		Select("h.organizer_id").To(&tmp.OrganizerID).
		Select("h.created_at").To(&tmp.CreatedAt).
		Select("h.updated_at").To(&tmp.UpdatedAt).
		Select("(SELECT COUNT(*) FROM teams t WHERE t.hackathon_id = h.hackathon_id)").To(&teamCount)

	q = modify(q)

	var result []hackathon.Summary
	err := q.QueryAndClose(ctx, s.base.DB, func(rows *sql.Rows) {
		result = append(result, hackathon.Summary{
			Hackathon: &hackathon.Hackathon{
				HackathonID: tmp.HackathonID,
				Name:        tmp.Name,
				Description: tmp.Description,
				Status:      tmp.Status,
				StartAt:     tmp.StartAt,
				EndAt:       tmp.EndAt,
				OrganizerID: tmp.OrganizerID,
				CreatedAt:   tmp.CreatedAt,
				UpdatedAt:   tmp.UpdatedAt,
			},
			TeamCount: teamCount,
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

func (s *PostgresStorage) GetByID(ctx context.Context, hackathonID string) (*hackathon.Hackathon, error) {
	res, err := s.get(ctx, func(stmt *sqlf.Stmt) *sqlf.Stmt {
		return stmt.Where("h.hackathon_id = ?", hackathonID)
	})
	summary, err := pgutil.First(res, err, hackathon.ErrHackathonNotFound)
	if err != nil {
		return nil, err
	}
	return summary.Hackathon, nil
}

// GetActive returns the active hackathon or hackathon.ErrHackathonNotFound.
func (s *PostgresStorage) GetActive(ctx context.Context) (*hackathon.Hackathon, error) {
	res, err := s.get(ctx, func(stmt *sqlf.Stmt) *sqlf.Stmt {
		return stmt.Where("h.status = ?", hackathon.StatusActive).Limit(1)
	})
	summary, err := pgutil.First(res, err, hackathon.ErrHackathonNotFound)
	if err != nil {
		return nil, err
	}
	return summary.Hackathon, nil
}

func (s *PostgresStorage) ListAll(ctx context.Context) ([]hackathon.Summary, error) {
	return s.get(ctx, func(stmt *sqlf.Stmt) *sqlf.Stmt {
		return stmt.OrderBy("h.created_at DESC")
	})
}

// ListByMember returns hackathons where the user belongs to a team.
func (s *PostgresStorage) ListByMember(ctx context.Context, userID string) ([]hackathon.Summary, error) {
	return s.get(ctx, func(stmt *sqlf.Stmt) *sqlf.Stmt {
		return stmt.
			Where(`EXISTS (
				SELECT 1 FROM teams t
				JOIN team_memberships tm ON tm.team_id = t.team_id
				WHERE t.hackathon_id = h.hackathon_id AND tm.user_id = ?)`, userID).
			OrderBy("h.created_at DESC")
	})
}

func (s *PostgresStorage) Persist(ctx context.Context, h *hackathon.Hackathon) error {
	dbState, err := s.GetByID(ctx, h.HackathonID)
	if err != nil {
		return err
	}

	changes, err := diff.Diff(dbState, h)
	if err != nil {
		return storage.InternalError(err)
	}

	if len(changes) != 0 {
		q := sqlf.Update("hackathons").Where("hackathon_id = ?", h.HackathonID)
		q = pgutil.MakeUpdateQuery(q, changes)

		res, err := q.ExecAndClose(ctx, s.base.DB)
		if pgutil.ViolatesConstraint(err, singleActiveConstraint) {
			return fmt.Errorf("%w: %s", hackathon.ErrAlreadyActive, h.Name)
		}
		if err := pgutil.AssertUpdated(res, err, hackathon.ErrHackathonNotFound); err != nil {
			return err
		}
	}

	s.base.MarkSeen(h)
	return nil
}

func (s *PostgresStorage) CollectEvents() []domain.Event {
	return s.base.CollectEvents()
}

func (s *PostgresStorage) Close() error {
	s.base.Close()
	return nil
}

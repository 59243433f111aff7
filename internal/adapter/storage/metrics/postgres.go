package metricstorage

import (
	"context"
	"database/sql"
	"errors"
	"github.com/burenotti/hacktrack/internal/adapter/storage"
	"github.com/burenotti/hacktrack/internal/adapter/storage/pgutil"
	"github.com/burenotti/hacktrack/internal/domain"
	"github.com/burenotti/hacktrack/internal/domain/metric"
	"github.com/leporo/sqlf"
	"log/slog"
	"time"
)

const slugConstraint = "metric_definitions_slug_key"

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

// scoped restricts column to a hackathon, or to global rows for a nil scope.
func scoped(stmt *sqlf.Stmt, column string, hackathonID *string) *sqlf.Stmt {
	if hackathonID == nil {
		return stmt.Where(column + " IS NULL")
	}
	return stmt.Where(column+" = ?", *hackathonID)
}

func (s *PostgresStorage) AddDefinition(ctx context.Context, d *metric.Definition) error {
	q := sqlf.InsertInto("metric_definitions").
		Set("definition_id", d.DefinitionID).
		Set("hackathon_id", d.HackathonID).
		Set("slug", d.Slug).
		Set("name", d.Name).
		Set("icon", d.Icon).
		Set("color", d.Color).
		Set("input_type", d.InputType).
		Set("unit", d.Unit).
		Set("is_default", d.IsDefault).
		Set("created_by", d.CreatedBy).
		Set("created_at", d.CreatedAt)

	if _, err := q.ExecAndClose(ctx, s.base.DB); err != nil {
		if pgutil.ViolatesConstraint(err, slugConstraint) {
			return metric.ErrDefinitionExists
		}
		return storage.InternalError(err)
	}

	s.base.MarkSeen(metric.ChangeScope(d.HackathonID))
	return nil
}

func (s *PostgresStorage) definitions(
	ctx context.Context,
	modify func(stmt *sqlf.Stmt) *sqlf.Stmt,
) ([]*metric.Definition, error) {
	var tmp metric.Definition

	q := sqlf.From("metric_definitions d").
		Select("d.definition_id").To(&tmp.DefinitionID).
		Select("d.hackathon_id").To(&tmp.HackathonID).
		Select("d.slug").To(&tmp.Slug).
		Select("d.name").To(&tmp.Name).
		Select("d.icon").To(&tmp.Icon).
		Select("d.color").To(&tmp.Color).
		Select("d.input_type").To(&tmp.InputType).
		Select("d.unit").To(&tmp.Unit).
		Select("d.is_default").To(&tmp.IsDefault).
		Select("d.created_by").To(&tmp.CreatedBy).
		Select("d.created_at").To(&tmp.CreatedAt)

	q = modify(q)

	var result []*metric.Definition
	err := q.QueryAndClose(ctx, s.base.DB, func(rows *sql.Rows) {
		d := tmp
		result = append(result, &d)
	})

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, storage.InternalError(err)
	}
	return result, nil
}

// ListDefinitions returns the definitions of a scope, defaults first, then by creation.
func (s *PostgresStorage) ListDefinitions(ctx context.Context, hackathonID *string) ([]*metric.Definition, error) {
	return s.definitions(ctx, func(stmt *sqlf.Stmt) *sqlf.Stmt {
		return scoped(stmt, "d.hackathon_id", hackathonID).OrderBy("d.is_default DESC", "d.created_at ASC")
	})
}

func (s *PostgresStorage) GetDefinitionBySlug(ctx context.Context, hackathonID *string, slug string) (*metric.Definition, error) {
	defs, err := s.definitions(ctx, func(stmt *sqlf.Stmt) *sqlf.Stmt {
		return scoped(stmt.Where("d.slug = ?", slug), "d.hackathon_id", hackathonID)
	})
	return pgutil.First(defs, err, metric.ErrDefinitionNotFound)
}

func (s *PostgresStorage) GetDefinitionByID(ctx context.Context, definitionID string) (*metric.Definition, error) {
	defs, err := s.definitions(ctx, func(stmt *sqlf.Stmt) *sqlf.Stmt {
		return stmt.Where("d.definition_id = ?", definitionID)
	})
	return pgutil.First(defs, err, metric.ErrDefinitionNotFound)
}

func (s *PostgresStorage) CountDefinitions(ctx context.Context, hackathonID string) (int, error) {
	var count int
	q := sqlf.From("metric_definitions").
		Where("hackathon_id = ?", hackathonID).
		Select("COUNT(*)").To(&count)

	if err := q.QueryRowAndClose(ctx, s.base.DB); err != nil {
		return 0, storage.InternalError(err)
	}
	return count, nil
}

// DeleteDefinition removes the definition and every event of its slug in the same scope.
func (s *PostgresStorage) DeleteDefinition(ctx context.Context, d *metric.Definition) error {
	events := scoped(sqlf.DeleteFrom("metric_events").Where("type = ?", d.Slug), "hackathon_id", d.HackathonID)
	if _, err := events.ExecAndClose(ctx, s.base.DB); err != nil {
		return storage.InternalError(err)
	}

	q := sqlf.DeleteFrom("metric_definitions").Where("definition_id = ?", d.DefinitionID)
	res, err := q.ExecAndClose(ctx, s.base.DB)
	if err := pgutil.AssertUpdated(res, err, metric.ErrDefinitionNotFound); err != nil {
		return err
	}

	s.base.MarkSeen(metric.ChangeScope(d.HackathonID))
	return nil
}

func (s *PostgresStorage) AddEvent(ctx context.Context, e *metric.Event) error {
	q := sqlf.InsertInto("metric_events").
		Set("event_id", e.EventID).
		Set("user_id", e.UserID).
		Set("team_id", e.TeamID).
		Set("hackathon_id", e.HackathonID).
		Set("type", e.Type).
		Set("value", e.Value).
		Set("created_at", e.CreatedAt)

	if _, err := q.ExecAndClose(ctx, s.base.DB); err != nil {
		return storage.InternalError(err)
	}

	s.base.MarkSeen(e)
	return nil
}

func (s *PostgresStorage) events(
	ctx context.Context,
	modify func(stmt *sqlf.Stmt) *sqlf.Stmt,
) ([]*metric.Event, error) {
	var tmp struct {
		EventID     string
		UserID      string
		TeamID      *string
		HackathonID *string
		Type        string
		Value       float64
		CreatedAt   time.Time
	}

	q := sqlf.From("metric_events e").
		Select("e.event_id").To(&tmp.EventID).
		Select("e.user_id").To(&tmp.UserID).
		Select("e.team_id").To(&tmp.TeamID).
		Select("e.hackathon_id").To(&tmp.HackathonID).
		Select("e.type").To(&tmp.Type).
		Select("e.value").To(&tmp.Value).
		Select("e.created_at").To(&tmp.CreatedAt)

	q = modify(q)

	var result []*metric.Event
	err := q.QueryAndClose(ctx, s.base.DB, func(rows *sql.Rows) {
		result = append(result, &metric.Event{
			EventID:     tmp.EventID,
			UserID:      tmp.UserID,
			TeamID:      tmp.TeamID,
			HackathonID: tmp.HackathonID,
			Type:        tmp.Type,
			Value:       tmp.Value,
			CreatedAt:   tmp.CreatedAt,
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

// ListByUser returns every event of the user, newest first.
func (s *PostgresStorage) ListByUser(ctx context.Context, userID string) ([]*metric.Event, error) {
	return s.events(ctx, func(stmt *sqlf.Stmt) *sqlf.Stmt {
		return stmt.Where("e.user_id = ?", userID).OrderBy("e.created_at DESC")
	})
}

// ListByUserSince returns the user's events created at or after since.
func (s *PostgresStorage) ListByUserSince(ctx context.Context, userID string, since time.Time) ([]*metric.Event, error) {
	return s.events(ctx, func(stmt *sqlf.Stmt) *sqlf.Stmt {
		return stmt.Where("e.user_id = ?", userID).Where("e.created_at >= ?", since).OrderBy("e.created_at DESC")
	})
}

// ListByHackathon returns events logged in the context of the hackathon.
func (s *PostgresStorage) ListByHackathon(ctx context.Context, hackathonID string) ([]*metric.Event, error) {
	return s.events(ctx, func(stmt *sqlf.Stmt) *sqlf.Stmt {
		return stmt.Where("e.hackathon_id = ?", hackathonID)
	})
}

// ListAttributedToHackathon returns events attributed to any team of the hackathon.
func (s *PostgresStorage) ListAttributedToHackathon(ctx context.Context, hackathonID string) ([]*metric.Event, error) {
	return s.events(ctx, func(stmt *sqlf.Stmt) *sqlf.Stmt {
		return stmt.Where("e.team_id IN (SELECT t.team_id FROM teams t WHERE t.hackathon_id = ?)", hackathonID)
	})
}

func (s *PostgresStorage) CollectEvents() []domain.Event {
	return s.base.CollectEvents()
}

func (s *PostgresStorage) Close() error {
	s.base.Close()
	return nil
}

package teamstorage

import (
	"context"
	"database/sql"
	"errors"
	"github.com/burenotti/hacktrack/internal/adapter/storage"
	"github.com/burenotti/hacktrack/internal/adapter/storage/pgutil"
	"github.com/burenotti/hacktrack/internal/domain"
	"github.com/burenotti/hacktrack/internal/domain/team"
	"github.com/leporo/sqlf"
	"log/slog"
	"time"
)

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

func (s *PostgresStorage) Add(ctx context.Context, t *team.Team) error {
	q := sqlf.InsertInto("teams").
		Set("team_id", t.TeamID).
		Set("hackathon_id", t.HackathonID).
		Set("name", t.Name).
		Set("color", t.Color).
		Set("invite_code", t.InviteCode).
		Set("created_at", t.CreatedAt)

	if _, err := q.ExecAndClose(ctx, s.base.DB); err != nil {
		if pgutil.ViolatesConstraint(err, "teams_invite_code_key") {
			return team.ErrInviteCodeExhausted
		}
		return storage.InternalError(err)
	}

	s.base.MarkSeen(t)
	return nil
}

func (s *PostgresStorage) InviteCodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	q := sqlf.Select("EXISTS (SELECT 1 FROM teams WHERE invite_code = ?)", code).To(&exists)

	if err := q.QueryRowAndClose(ctx, s.base.DB); err != nil {
		return false, storage.InternalError(err)
	}
	return exists, nil
}

func (s *PostgresStorage) get(
	ctx context.Context,
	modify func(stmt *sqlf.Stmt) *sqlf.Stmt,
) ([]team.Summary, error) {
	var tmp team.Team
	var memberCount int

	q := sqlf.From("teams t").
		Select("t.team_id").To(&tmp.TeamID).
		Select("t.hackathon_id").To(&tmp.HackathonID).
		Select("t.name").To(&tmp.Name).
		Select("t.color").To(&tmp.Color).
		Select("t.invite_code").To(&tmp.InviteCode).
		Select("t.created_at").To(&tmp.CreatedAt).
		Select("(SELECT COUNT(*) FROM team_memberships tm WHERE tm.team_id = t.team_id)").To(&memberCount)

	q = modify(q)

	var result []team.Summary
	err := q.QueryAndClose(ctx, s.base.DB, func(rows *sql.Rows) {
		result = append(result, team.Summary{
			Team: &team.Team{
				TeamID:      tmp.TeamID,
				HackathonID: tmp.HackathonID,
				Name:        tmp.Name,
				Color:       tmp.Color,
				InviteCode:  tmp.InviteCode,
				CreatedAt:   tmp.CreatedAt,
			},
			MemberCount: memberCount,
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

func (s *PostgresStorage) GetByID(ctx context.Context, teamID string) (*team.Summary, error) {
	res, err := s.get(ctx, func(stmt *sqlf.Stmt) *sqlf.Stmt {
		return stmt.Where("t.team_id = ?", teamID)
	})
	summary, err := pgutil.First(res, err, team.ErrTeamNotFound)
	if err != nil {
		return nil, err
	}
	s.base.MarkSeen(summary.Team)
	return &summary, nil
}

func (s *PostgresStorage) GetByInviteCode(ctx context.Context, code string) (*team.Summary, error) {
	res, err := s.get(ctx, func(stmt *sqlf.Stmt) *sqlf.Stmt {
		return stmt.Where("t.invite_code = ?", code)
	})
	summary, err := pgutil.First(res, err, team.ErrInvalidInviteCode)
	if err != nil {
		return nil, err
	}
	s.base.MarkSeen(summary.Team)
	return &summary, nil
}

func (s *PostgresStorage) ListByHackathon(ctx context.Context, hackathonID string) ([]team.Summary, error) {
	return s.get(ctx, func(stmt *sqlf.Stmt) *sqlf.Stmt {
		return stmt.Where("t.hackathon_id = ?", hackathonID).OrderBy("t.created_at ASC")
	})
}

func (s *PostgresStorage) AddMembership(ctx context.Context, m *team.Membership) error {
	q := sqlf.InsertInto("team_memberships").
		Set("user_id", m.UserID).
		Set("team_id", m.TeamID).
		Set("is_admin", m.IsAdmin).
		Set("joined_at", m.JoinedAt)

	if _, err := q.ExecAndClose(ctx, s.base.DB); err != nil {
		if pgutil.ViolatesConstraint(err, "team_memberships_pkey") {
			return team.ErrAlreadyMember
		}
		return storage.InternalError(err)
	}
	return nil
}

func (s *PostgresStorage) memberships(
	ctx context.Context,
	modify func(stmt *sqlf.Stmt) *sqlf.Stmt,
) ([]team.Membership, string, error) {
	var tmp team.Membership
	var hackathonID string

	q := sqlf.From("team_memberships tm").
		Join("teams t", "t.team_id = tm.team_id").
		Select("tm.user_id").To(&tmp.UserID).
		Select("tm.team_id").To(&tmp.TeamID).
		Select("tm.is_admin").To(&tmp.IsAdmin).
		Select("tm.joined_at").To(&tmp.JoinedAt).
		Select("t.hackathon_id").To(&hackathonID)

	q = modify(q)

	var result []team.Membership
	var lastHackathon string
	err := q.QueryAndClose(ctx, s.base.DB, func(rows *sql.Rows) {
		if len(result) == 0 {
			lastHackathon = hackathonID
		}
		result = append(result, tmp)
	})

	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, "", storage.InternalError(err)
	}
	return result, lastHackathon, nil
}

// ListMemberships returns the user's memberships in teams of the hackathon.
func (s *PostgresStorage) ListMemberships(ctx context.Context, userID, hackathonID string) ([]team.Membership, error) {
	res, _, err := s.memberships(ctx, func(stmt *sqlf.Stmt) *sqlf.Stmt {
		return stmt.Where("tm.user_id = ?", userID).Where("t.hackathon_id = ?", hackathonID)
	})
	return res, err
}

// Latest returns the most recently joined membership of the user and the
// hackathon of that team.
func (s *PostgresStorage) Latest(ctx context.Context, userID string) (*team.Membership, string, error) {
	res, hackathonID, err := s.memberships(ctx, func(stmt *sqlf.Stmt) *sqlf.Stmt {
		return stmt.Where("tm.user_id = ?", userID).OrderBy("tm.joined_at DESC").Limit(1)
	})
	m, err := pgutil.First(res, err, team.ErrTeamNotFound)
	if err != nil {
		return nil, "", err
	}
	return &m, hackathonID, nil
}

// Rosters returns every team of the hackathon with its members, oldest team first.
func (s *PostgresStorage) Rosters(ctx context.Context, hackathonID string) ([]team.Roster, error) {
	teams, err := s.ListByHackathon(ctx, hackathonID)
	if err != nil {
		return nil, err
	}

	var tmp struct {
		TeamID   string
		UserID   string
		Name     string
		Color    string
		IsAdmin  bool
		JoinedAt time.Time
	}

	q := sqlf.From("team_memberships tm").
		Join("teams t", "t.team_id = tm.team_id").
		Join("users u", "u.user_id = tm.user_id").
		Where("t.hackathon_id = ?", hackathonID).
		OrderBy("tm.joined_at ASC").
		Select("tm.team_id").To(&tmp.TeamID).
		Select("u.user_id").To(&tmp.UserID).
		Select("u.name").To(&tmp.Name).
		Select("u.color").To(&tmp.Color).
		Select("tm.is_admin").To(&tmp.IsAdmin).
		Select("tm.joined_at").To(&tmp.JoinedAt)

	members := make(map[string][]team.Member)
	err = q.QueryAndClose(ctx, s.base.DB, func(rows *sql.Rows) {
		members[tmp.TeamID] = append(members[tmp.TeamID], team.Member{
			UserID:   tmp.UserID,
			Name:     tmp.Name,
			Color:    tmp.Color,
			IsAdmin:  tmp.IsAdmin,
			JoinedAt: tmp.JoinedAt,
		})
	})
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, storage.InternalError(err)
	}

	rosters := make([]team.Roster, 0, len(teams))
	for _, t := range teams {
		rosters = append(rosters, team.Roster{Team: t.Team, Members: members[t.Team.TeamID]})
	}
	return rosters, nil
}

func (s *PostgresStorage) CollectEvents() []domain.Event {
	return s.base.CollectEvents()
}

func (s *PostgresStorage) Close() error {
	s.base.Close()
	return nil
}

package authapp

import (
	"context"
	"crypto/subtle"
	"errors"
	"github.com/burenotti/hacktrack/internal/app/unitofwork"
	"github.com/burenotti/hacktrack/internal/domain/team"
	"github.com/burenotti/hacktrack/internal/domain/user"
	"log/slog"
)

var (
	ErrInvalidOrganizerSecret = errors.New("invalid organizer secret")
)

type Service struct {
	logger          *slog.Logger
	Authorizer      *Authorizer
	organizerSecret string
}

func NewService(auth *Authorizer, organizerSecret string, logger *slog.Logger) *Service {
	return &Service{
		logger:          logger,
		Authorizer:      auth,
		organizerSecret: organizerSecret,
	}
}

// Result is a user together with a freshly signed session.
type Result struct {
	User    *user.User
	Session Session
	Token   string
}

func (s *Service) issue(u *user.User, teamID, hackathonID *string) (Result, error) {
	sess := NewSession(u, teamID, hackathonID)
	token, err := s.Authorizer.IssueToken(sess)
	if err != nil {
		return Result{}, err
	}
	return Result{User: u, Session: sess, Token: token}, nil
}

func (s *Service) Register(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	userID, name, pin, color string,
) (Result, error) {
	return s.register(ctx, uow, userID, name, pin, color, user.RoleMember)
}

// RegisterOrganizer creates an organizer account. It is disabled while no
// organizer secret is configured.
func (s *Service) RegisterOrganizer(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	userID, name, pin, color, secret string,
) (Result, error) {
	if s.organizerSecret == "" ||
		subtle.ConstantTimeCompare([]byte(s.organizerSecret), []byte(secret)) != 1 {
		return Result{}, ErrInvalidOrganizerSecret
	}
	return s.register(ctx, uow, userID, name, pin, color, user.RoleOrganizer)
}

func (s *Service) register(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	userID, name, pin, color string,
	role user.Role,
) (res Result, err error) {
	err = uow.Atomic(ctx, func(ctx *AtomicContext) error {
		u, err := user.New(userID, name, pin, color, role, s.Authorizer)
		if err != nil {
			return err
		}

		if err := ctx.UserStorage.Add(ctx.Context(), u); err != nil {
			return err
		}

		if res, err = s.issue(u, nil, nil); err != nil {
			return err
		}
		return ctx.Commit()
	})
	return
}

// Login checks the pin and restores the team context of the most recently
// joined team.
func (s *Service) Login(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	name, pin string,
) (res Result, err error) {
	err = uow.Atomic(ctx, func(ctx *AtomicContext) error {
		normalized, err := user.NormalizeName(name)
		if err != nil {
			return user.ErrInvalidCredentials
		}

		u, err := ctx.UserStorage.GetByName(ctx.Context(), normalized)
		if errors.Is(err, user.ErrUserNotFound) {
			return user.ErrInvalidCredentials
		}
		if err != nil {
			return err
		}

		if err := u.CheckPin(s.Authorizer, pin); err != nil {
			return err
		}

		var teamID, hackathonID *string
		m, hID, err := ctx.MembershipStorage.Latest(ctx.Context(), u.UserID)
		switch {
		case err == nil:
			teamID, hackathonID = &m.TeamID, &hID
		case !errors.Is(err, team.ErrTeamNotFound):
			return err
		}

		res, err = s.issue(u, teamID, hackathonID)
		return err
	})
	return
}

func (s *Service) Profile(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	userID string,
) (u *user.User, err error) {
	err = uow.Atomic(ctx, func(ctx *AtomicContext) error {
		u, err = ctx.UserStorage.GetByID(ctx.Context(), userID)
		return err
	})
	return
}

// UpdateProfile applies the update and re-issues the session, keeping its
// team context.
func (s *Service) UpdateProfile(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	sess Session,
	update user.ProfileUpdate,
) (res Result, err error) {
	err = uow.Atomic(ctx, func(ctx *AtomicContext) error {
		u, err := ctx.UserStorage.GetByID(ctx.Context(), sess.UserID)
		if err != nil {
			return err
		}

		if err := u.Update(update, s.Authorizer); err != nil {
			return err
		}

		if err := ctx.UserStorage.Persist(ctx.Context(), u); err != nil {
			return err
		}

		if res, err = s.issue(u, sess.TeamID, sess.HackathonID); err != nil {
			return err
		}
		return ctx.Commit()
	})
	return
}

// Reissue signs a new token for an updated session.
func (s *Service) Reissue(sess Session) (string, error) {
	return s.Authorizer.IssueToken(sess)
}

package api

import (
	"github.com/burenotti/hacktrack/internal/app/authapp"
	"github.com/burenotti/hacktrack/internal/app/unitofwork"
	"github.com/burenotti/hacktrack/internal/domain/user"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/mileusna/useragent"
	"net/http"
	"time"
)

func (s *Server) MountAuth() {
	sessionRequired := s.sessionRequired()

	authRoutes := s.handler.Group("/auth")

	authRoutes.POST("/register", s.Register)
	authRoutes.POST("/register-organizer", s.RegisterOrganizer)
	authRoutes.POST("/login", s.Login)
	authRoutes.POST("/logout", s.Logout)
	authRoutes.GET("/profile", s.GetProfile, sessionRequired)
	authRoutes.PUT("/profile", s.UpdateProfile, sessionRequired)
}

func (s *Server) getAuthUoW() *unitofwork.UnitOfWork[*authapp.AtomicContext] {
	return unitofwork.New[*authapp.AtomicContext](
		s.db,
		authapp.NewAtomicContext,
		s.msgBus,
		s.logger,
	)
}

type UserResponse struct {
	UserID    string    `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	Role      user.Role `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func userResponse(u *user.User) UserResponse {
	return UserResponse{
		UserID:    u.UserID,
		Name:      u.Name,
		Color:     u.Color,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

type SessionResponse struct {
	Token       string       `json:"token"`
	User        UserResponse `json:"user"`
	TeamID      *string      `json:"team_id"`
	HackathonID *string      `json:"hackathon_id"`
}

func (s *Server) respondSession(c echo.Context, status int, res authapp.Result) error {
	s.setSessionCookie(c, res.Token)
	return c.JSON(status, SessionResponse{
		Token:       res.Token,
		User:        userResponse(res.User),
		TeamID:      res.Session.TeamID,
		HackathonID: res.Session.HackathonID,
	})
}

type registerReq struct {
	Name  string `json:"name" validate:"required"`
	Pin   string `json:"pin" validate:"required"`
	Color string `json:"color"`
}

func (s *Server) Register(c echo.Context) error {
	var b registerReq
	if err := s.bind(c, &b); err != nil {
		return JsonError(c, http.StatusBadRequest, err)
	}

	res, err := s.authService.Register(c.Request().Context(), s.getAuthUoW(), uuid.NewString(), b.Name, b.Pin, b.Color)
	if err != nil {
		return s.fail(c, err)
	}
	return s.respondSession(c, http.StatusCreated, res)
}

type registerOrganizerReq struct {
	Name            string `json:"name" validate:"required"`
	Pin             string `json:"pin" validate:"required"`
	Color           string `json:"color"`
	OrganizerSecret string `json:"organizer_secret" validate:"required"`
}

func (s *Server) RegisterOrganizer(c echo.Context) error {
	var b registerOrganizerReq
	if err := s.bind(c, &b); err != nil {
		return JsonError(c, http.StatusBadRequest, err)
	}

	res, err := s.authService.RegisterOrganizer(
		c.Request().Context(),
		s.getAuthUoW(),
		uuid.NewString(),
		b.Name,
		b.Pin,
		b.Color,
		b.OrganizerSecret,
	)
	if err != nil {
		return s.fail(c, err)
	}
	return s.respondSession(c, http.StatusCreated, res)
}

type loginReq struct {
	Name string `json:"name" validate:"required"`
	Pin  string `json:"pin" validate:"required"`
}

func (s *Server) Login(c echo.Context) error {
	var b loginReq
	if err := s.bind(c, &b); err != nil {
		return JsonError(c, http.StatusBadRequest, err)
	}

	res, err := s.authService.Login(c.Request().Context(), s.getAuthUoW(), b.Name, b.Pin)
	if err != nil {
		return s.fail(c, err)
	}

	agent := useragent.Parse(c.Request().UserAgent())
	s.logger.InfoContext(c.Request().Context(), "user logged in",
		"user_id", res.User.UserID,
		"browser", agent.Name,
		"os", agent.OS,
		"device", agent.Device,
		"ip", c.RealIP(),
	)

	return s.respondSession(c, http.StatusOK, res)
}

func (s *Server) Logout(c echo.Context) error {
	s.clearSessionCookie(c)
	return c.NoContent(http.StatusNoContent)
}

type ProfileResponse struct {
	UserResponse
	TeamID      *string `json:"team_id"`
	HackathonID *string `json:"hackathon_id"`
}

func (s *Server) GetProfile(c echo.Context) error {
	sess := currentSession(c)

	u, err := s.authService.Profile(c.Request().Context(), s.getAuthUoW(), sess.UserID)
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(http.StatusOK, ProfileResponse{
		UserResponse: userResponse(u),
		TeamID:       sess.TeamID,
		HackathonID:  sess.HackathonID,
	})
}

type updateProfileReq struct {
	Name  *string `json:"name"`
	Color *string `json:"color"`
	Pin   *string `json:"pin"`
}

func (s *Server) UpdateProfile(c echo.Context) error {
	var b updateProfileReq
	if err := s.bind(c, &b); err != nil {
		return JsonError(c, http.StatusBadRequest, err)
	}

	update := user.ProfileUpdate{Name: b.Name, Color: b.Color, Pin: b.Pin}
	res, err := s.authService.UpdateProfile(c.Request().Context(), s.getAuthUoW(), *currentSession(c), update)
	if err != nil {
		return s.fail(c, err)
	}
	return s.respondSession(c, http.StatusOK, res)
}

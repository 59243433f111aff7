package api

import (
	teamservice "github.com/burenotti/hacktrack/internal/app/team"
	"github.com/burenotti/hacktrack/internal/app/unitofwork"
	"github.com/burenotti/hacktrack/internal/domain/hackathon"
	"github.com/burenotti/hacktrack/internal/domain/leaderboard"
	"github.com/burenotti/hacktrack/internal/domain/metric"
	"github.com/labstack/echo/v4"
	"github.com/samber/lo"
	"net/http"
)

func (s *Server) MountTeams() {
	teams := s.handler.Group("/teams", s.sessionRequired())

	teams.GET("/invite/:code", s.InvitePreview)
	teams.POST("/join", s.JoinTeam)
	teams.GET("/leaderboard", s.Leaderboard)
}

func (s *Server) getTeamUoW() *unitofwork.UnitOfWork[*teamservice.AtomicContext] {
	return unitofwork.New[*teamservice.AtomicContext](
		s.db,
		teamservice.NewAtomicContext,
		s.msgBus,
		s.logger,
	)
}

type PreviewHackathon struct {
	HackathonID string           `json:"id"`
	Name        string           `json:"name"`
	Status      hackathon.Status `json:"status"`
}

type PreviewResponse struct {
	Team      TeamResponse     `json:"team"`
	Hackathon PreviewHackathon `json:"hackathon"`
}

func previewResponse(p teamservice.Preview) PreviewResponse {
	return PreviewResponse{
		Team: teamResponse(p.Team.Team, p.Team.MemberCount, false),
		Hackathon: PreviewHackathon{
			HackathonID: p.Hackathon.HackathonID,
			Name:        p.Hackathon.Name,
			Status:      p.Hackathon.Status,
		},
	}
}

type invitePreviewReq struct {
	Code string `param:"code" validate:"required"`
}

func (s *Server) InvitePreview(c echo.Context) error {
	var req invitePreviewReq
	if err := s.bind(c, &req); err != nil {
		return JsonError(c, http.StatusBadRequest, err)
	}

	p, err := s.teamService.InvitePreview(c.Request().Context(), s.getTeamUoW(), req.Code)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, previewResponse(p))
}

type joinReq struct {
	InviteCode string `json:"invite_code" validate:"required"`
}

type JoinResponse struct {
	PreviewResponse
	Token string `json:"token"`
}

// JoinTeam re-issues the session bound to the joined team.
func (s *Server) JoinTeam(c echo.Context) error {
	var req joinReq
	if err := s.bind(c, &req); err != nil {
		return JsonError(c, http.StatusBadRequest, err)
	}
	sess := currentSession(c)

	p, err := s.teamService.Join(c.Request().Context(), s.getTeamUoW(), sess.UserID, sess.TeamID, req.InviteCode)
	if err != nil {
		return s.fail(c, err)
	}

	token, err := s.authService.Reissue(sess.WithTeam(p.Team.Team.TeamID, p.Hackathon.HackathonID))
	if err != nil {
		return s.fail(c, err)
	}
	s.setSessionCookie(c, token)

	return c.JSON(http.StatusOK, JoinResponse{
		PreviewResponse: previewResponse(p),
		Token:           token,
	})
}

type EntryResponse struct {
	ID      string        `json:"id"`
	Name    string        `json:"name"`
	Color   string        `json:"color"`
	Metrics metric.Totals `json:"metrics"`
	Score   float64       `json:"total_score"`
}

func entryResponse(e leaderboard.Entry) EntryResponse {
	return EntryResponse{
		ID:      e.ID,
		Name:    e.Name,
		Color:   e.Color,
		Metrics: e.Metrics,
		Score:   e.Score,
	}
}

type LeaderboardResponse struct {
	Definitions []DefinitionResponse `json:"definitions"`
	Entries     []EntryResponse      `json:"entries"`
}

func (s *Server) Leaderboard(c echo.Context) error {
	entries, defs, err := s.teamService.Leaderboard(c.Request().Context(), s.getTeamUoW(), currentSession(c).HackathonID)
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(http.StatusOK, LeaderboardResponse{
		Definitions: lo.Map(defs, func(d *metric.Definition, _ int) DefinitionResponse {
			return definitionResponse(d)
		}),
		Entries: lo.Map(entries, func(e leaderboard.Entry, _ int) EntryResponse {
			return entryResponse(e)
		}),
	})
}

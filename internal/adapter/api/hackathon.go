package api

import (
	hackathonservice "github.com/burenotti/hacktrack/internal/app/hackathon"
	"github.com/burenotti/hacktrack/internal/app/unitofwork"
	"github.com/burenotti/hacktrack/internal/domain/hackathon"
	"github.com/burenotti/hacktrack/internal/domain/metric"
	"github.com/burenotti/hacktrack/internal/domain/team"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/samber/lo"
	"net/http"
	"time"
)

func (s *Server) MountHackathons() {
	hackathons := s.handler.Group("/hackathons", s.sessionRequired())

	hackathons.GET("", s.ListHackathons)
	hackathons.POST("", s.CreateHackathon, OrganizerRequired)
	hackathons.GET("/active", s.GetActiveHackathon)
	hackathons.GET("/:hackathon_id", s.GetHackathon)
	hackathons.PUT("/:hackathon_id", s.UpdateHackathon, OrganizerRequired)
	hackathons.POST("/:hackathon_id/teams", s.CreateTeam, OrganizerRequired)
}

func (s *Server) getHackathonUoW() *unitofwork.UnitOfWork[*hackathonservice.AtomicContext] {
	return unitofwork.New[*hackathonservice.AtomicContext](
		s.db,
		hackathonservice.NewAtomicContext,
		s.msgBus,
		s.logger,
	)
}

func actorOf(c echo.Context) hackathonservice.Actor {
	sess := currentSession(c)
	return hackathonservice.Actor{UserID: sess.UserID, Role: sess.Role}
}

type HackathonResponse struct {
	HackathonID string           `json:"id"`
	Name        string           `json:"name"`
	Description *string          `json:"description"`
	Status      hackathon.Status `json:"status"`
	StartAt     time.Time        `json:"start_at"`
	EndAt       time.Time        `json:"end_at"`
	OrganizerID string           `json:"organizer_id"`
	CreatedAt   time.Time        `json:"created_at"`
}

func hackathonResponse(h *hackathon.Hackathon) HackathonResponse {
	return HackathonResponse{
		HackathonID: h.HackathonID,
		Name:        h.Name,
		Description: h.Description,
		Status:      h.Status,
		StartAt:     h.StartAt,
		EndAt:       h.EndAt,
		OrganizerID: h.OrganizerID,
		CreatedAt:   h.CreatedAt,
	}
}

type TeamResponse struct {
	TeamID      string    `json:"id"`
	HackathonID string    `json:"hackathon_id"`
	Name        string    `json:"name"`
	Color       string    `json:"color"`
	InviteCode  string    `json:"invite_code,omitempty"`
	MemberCount int       `json:"member_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// teamResponse hides the invite code unless withCode is set.
func teamResponse(t *team.Team, memberCount int, withCode bool) TeamResponse {
	res := TeamResponse{
		TeamID:      t.TeamID,
		HackathonID: t.HackathonID,
		Name:        t.Name,
		Color:       t.Color,
		MemberCount: memberCount,
		CreatedAt:   t.CreatedAt,
	}
	if withCode {
		res.InviteCode = t.InviteCode
	}
	return res
}

type HackathonSummaryResponse struct {
	HackathonResponse
	TeamCount int `json:"team_count"`
}

type ListHackathonsResponse struct {
	Hackathons []HackathonSummaryResponse `json:"hackathons"`
}

func (s *Server) ListHackathons(c echo.Context) error {
	lst, err := s.hackathonService.List(c.Request().Context(), s.getHackathonUoW(), actorOf(c))
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(http.StatusOK, ListHackathonsResponse{
		Hackathons: lo.Map(lst, func(h hackathon.Summary, _ int) HackathonSummaryResponse {
			return HackathonSummaryResponse{
				HackathonResponse: hackathonResponse(h.Hackathon),
				TeamCount:         h.TeamCount,
			}
		}),
	})
}

type createHackathonReq struct {
	Name        string    `json:"name" validate:"required"`
	Description *string   `json:"description"`
	StartAt     time.Time `json:"start_at" validate:"required"`
	EndAt       time.Time `json:"end_at" validate:"required"`
}

func (s *Server) CreateHackathon(c echo.Context) error {
	var req createHackathonReq
	if err := s.bind(c, &req); err != nil {
		return JsonError(c, http.StatusBadRequest, err)
	}

	h, err := s.hackathonService.Create(
		c.Request().Context(),
		s.getHackathonUoW(),
		actorOf(c),
		uuid.NewString(),
		req.Name,
		req.Description,
		req.StartAt,
		req.EndAt,
	)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusCreated, hackathonResponse(h))
}

type ActiveHackathonResponse struct {
	Hackathon *HackathonResponse `json:"hackathon"`
}

func (s *Server) GetActiveHackathon(c echo.Context) error {
	h, err := s.hackathonService.Active(c.Request().Context(), s.getHackathonUoW())
	if err != nil {
		return s.fail(c, err)
	}

	var res ActiveHackathonResponse
	if h != nil {
		res.Hackathon = lo.ToPtr(hackathonResponse(h))
	}
	return c.JSON(http.StatusOK, res)
}

type hackathonReq struct {
	HackathonID string `param:"hackathon_id" validate:"required,uuid"`
}

type OrganizerResponse struct {
	UserID string `json:"id"`
	Name   string `json:"name"`
	Color  string `json:"color"`
}

type HackathonDetailResponse struct {
	HackathonResponse
	Organizer   *OrganizerResponse   `json:"organizer"`
	Teams       []TeamResponse       `json:"teams"`
	Definitions []DefinitionResponse `json:"definitions"`
}

func (s *Server) GetHackathon(c echo.Context) error {
	var req hackathonReq
	if err := s.bind(c, &req); err != nil {
		return JsonError(c, http.StatusBadRequest, err)
	}
	organizer := currentSession(c).IsOrganizer()

	d, err := s.hackathonService.Detail(c.Request().Context(), s.getHackathonUoW(), req.HackathonID)
	if err != nil {
		return s.fail(c, err)
	}

	res := HackathonDetailResponse{
		HackathonResponse: hackathonResponse(d.Hackathon),
		Teams: lo.Map(d.Teams, func(t team.Summary, _ int) TeamResponse {
			return teamResponse(t.Team, t.MemberCount, organizer)
		}),
		Definitions: lo.Map(d.Definitions, func(def *metric.Definition, _ int) DefinitionResponse {
			return definitionResponse(def)
		}),
	}
	if d.Organizer != nil {
		res.Organizer = &OrganizerResponse{
			UserID: d.Organizer.UserID,
			Name:   d.Organizer.Name,
			Color:  d.Organizer.Color,
		}
	}
	return c.JSON(http.StatusOK, res)
}

type updateHackathonReq struct {
	HackathonID string     `param:"hackathon_id" validate:"required,uuid"`
	Name        *string    `json:"name"`
	Description *string    `json:"description"`
	StartAt     *time.Time `json:"start_at"`
	EndAt       *time.Time `json:"end_at"`
	Status      *string    `json:"status"`
}

func (s *Server) UpdateHackathon(c echo.Context) error {
	var req updateHackathonReq
	if err := s.bind(c, &req); err != nil {
		return JsonError(c, http.StatusBadRequest, err)
	}

	update := hackathon.Update{
		Name:        req.Name,
		Description: req.Description,
		StartAt:     req.StartAt,
		EndAt:       req.EndAt,
	}
	if req.Status != nil {
		status, err := hackathon.ParseStatus(*req.Status)
		if err != nil {
			return s.fail(c, err)
		}
		update.Status = &status
	}

	h, err := s.hackathonService.Update(c.Request().Context(), s.getHackathonUoW(), actorOf(c), req.HackathonID, update)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, hackathonResponse(h))
}

type createTeamReq struct {
	HackathonID string `param:"hackathon_id" validate:"required,uuid"`
	Name        string `json:"name" validate:"required"`
	Color       string `json:"color"`
}

func (s *Server) CreateTeam(c echo.Context) error {
	var req createTeamReq
	if err := s.bind(c, &req); err != nil {
		return JsonError(c, http.StatusBadRequest, err)
	}

	t, err := s.hackathonService.CreateTeam(
		c.Request().Context(),
		s.getHackathonUoW(),
		actorOf(c),
		req.HackathonID,
		uuid.NewString(),
		req.Name,
		req.Color,
	)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusCreated, teamResponse(t, 0, true))
}

package api

import (
	liveservice "github.com/burenotti/hacktrack/internal/app/live"
	"github.com/burenotti/hacktrack/internal/app/unitofwork"
	"github.com/burenotti/hacktrack/internal/domain/leaderboard"
	"github.com/labstack/echo/v4"
	"github.com/samber/lo"
	"net/http"
	"time"
)

// MountLive registers the public scoreboard. It needs no session.
func (s *Server) MountLive() {
	s.handler.GET("/live/:hackathon_id", s.GetLive)
}

func (s *Server) getLiveUoW() *unitofwork.UnitOfWork[*liveservice.AtomicContext] {
	return unitofwork.New[*liveservice.AtomicContext](
		s.db,
		liveservice.NewAtomicContext,
		s.msgBus,
		s.logger,
	)
}

type LiveMemberResponse struct {
	EntryResponse
	IsAdmin bool `json:"is_admin"`
}

type LiveTeamResponse struct {
	EntryResponse
	Members []LiveMemberResponse `json:"members"`
}

type LiveResponse struct {
	Hackathon   HackathonResponse    `json:"hackathon"`
	Definitions []DefinitionResponse `json:"definitions"`
	Teams       []LiveTeamResponse   `json:"teams"`
	GeneratedAt time.Time            `json:"generated_at"`
}

func (s *Server) GetLive(c echo.Context) error {
	var req hackathonReq
	if err := s.bind(c, &req); err != nil {
		return JsonError(c, http.StatusBadRequest, err)
	}

	snap, err := s.liveService.Snapshot(c.Request().Context(), s.getLiveUoW(), req.HackathonID)
	if err != nil {
		return s.fail(c, err)
	}

	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return c.JSON(http.StatusOK, LiveResponse{
		Hackathon:   hackathonResponse(snap.Hackathon),
		Definitions: definitionResponses(snap.Definitions),
		Teams: lo.Map(snap.Teams, func(t leaderboard.TeamEntry, _ int) LiveTeamResponse {
			return LiveTeamResponse{
				EntryResponse: entryResponse(t.Entry),
				Members: lo.Map(t.Members, func(m leaderboard.MemberEntry, _ int) LiveMemberResponse {
					return LiveMemberResponse{
						EntryResponse: entryResponse(m.Entry),
						IsAdmin:       m.IsAdmin,
					}
				}),
			}
		}),
		GeneratedAt: snap.GeneratedAt,
	})
}

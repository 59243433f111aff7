package api

import (
	"encoding/json"
	"github.com/burenotti/hacktrack/internal/app/authapp"
	metricservice "github.com/burenotti/hacktrack/internal/app/metric"
	"github.com/burenotti/hacktrack/internal/app/unitofwork"
	"github.com/burenotti/hacktrack/internal/domain/metric"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/samber/lo"
	"net/http"
	"strconv"
	"strings"
	"time"
)

func (s *Server) MountMetrics() {
	sessionRequired := s.sessionRequired()

	s.handler.POST("/metrics", s.LogMetric, sessionRequired)
	s.handler.GET("/metrics", s.GetDashboard, sessionRequired)
	s.handler.GET("/metrics/history", s.GetHistory, sessionRequired)

	definitions := s.handler.Group("/definitions", sessionRequired)
	definitions.GET("", s.ListDefinitions)
	definitions.POST("", s.CreateDefinition, OrganizerRequired)
	definitions.DELETE("/:definition_id", s.DeleteDefinition, OrganizerRequired)
}

func (s *Server) getMetricsUoW() *unitofwork.UnitOfWork[*metricservice.AtomicContext] {
	return unitofwork.New[*metricservice.AtomicContext](
		s.db,
		metricservice.NewAtomicContext,
		s.msgBus,
		s.logger,
	)
}

// scopeOf picks the hackathon a definition request works on. Organizers
// usually have no team, so they may name the hackathon explicitly.
func scopeOf(sess *authapp.Session, requested string) *string {
	if requested != "" && sess.IsOrganizer() {
		return &requested
	}
	return sess.HackathonID
}

type DefinitionResponse struct {
	DefinitionID string           `json:"id"`
	HackathonID  *string          `json:"hackathon_id"`
	Slug         string           `json:"slug"`
	Name         string           `json:"name"`
	Icon         string           `json:"icon"`
	Color        string           `json:"color"`
	InputType    metric.InputType `json:"input_type"`
	Unit         string           `json:"unit"`
	IsDefault    bool             `json:"is_default"`
}

func definitionResponse(d *metric.Definition) DefinitionResponse {
	return DefinitionResponse{
		DefinitionID: d.DefinitionID,
		HackathonID:  d.HackathonID,
		Slug:         d.Slug,
		Name:         d.Name,
		Icon:         d.Icon,
		Color:        d.Color,
		InputType:    d.InputType,
		Unit:         d.Unit,
		IsDefault:    d.IsDefault,
	}
}

func definitionResponses(defs []*metric.Definition) []DefinitionResponse {
	return lo.Map(defs, func(d *metric.Definition, _ int) DefinitionResponse {
		return definitionResponse(d)
	})
}

type EventResponse struct {
	EventID   string    `json:"id"`
	Type      string    `json:"type"`
	Value     float64   `json:"value"`
	TeamID    *string   `json:"team_id"`
	CreatedAt time.Time `json:"created_at"`
}

func eventResponse(e *metric.Event) EventResponse {
	return EventResponse{
		EventID:   e.EventID,
		Type:      e.Type,
		Value:     e.Value,
		TeamID:    e.TeamID,
		CreatedAt: e.CreatedAt,
	}
}

type logMetricReq struct {
	Type  string          `json:"type" validate:"required"`
	Value json.RawMessage `json:"value"`
}

// parseValue accepts a JSON number or a string holding one.
func parseValue(raw json.RawMessage) (float64, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, metric.ErrNotNumeric
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err == nil {
		return v, nil
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		if v, err := strconv.ParseFloat(strings.TrimSpace(str), 64); err == nil {
			return v, nil
		}
	}
	return 0, metric.ErrNotNumeric
}

func (s *Server) LogMetric(c echo.Context) error {
	var req logMetricReq
	if err := s.bind(c, &req); err != nil {
		return JsonError(c, http.StatusBadRequest, err)
	}
	value, err := parseValue(req.Value)
	if err != nil {
		return JsonError(c, http.StatusBadRequest, err)
	}
	sess := currentSession(c)

	author := metricservice.Author{
		UserID:      sess.UserID,
		TeamID:      sess.TeamID,
		HackathonID: sess.HackathonID,
	}
	e, err := s.metricService.Log(c.Request().Context(), s.getMetricsUoW(), author, uuid.NewString(), req.Type, value)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusCreated, eventResponse(e))
}

type DashboardResponse struct {
	Totals      metric.Totals        `json:"totals"`
	Recent      []EventResponse      `json:"recent"`
	Timeline    []metric.Point       `json:"timeline"`
	Definitions []DefinitionResponse `json:"definitions"`
}

func (s *Server) GetDashboard(c echo.Context) error {
	sess := currentSession(c)

	d, err := s.metricService.Dashboard(c.Request().Context(), s.getMetricsUoW(), sess.UserID, sess.HackathonID)
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(http.StatusOK, DashboardResponse{
		Totals: d.Totals,
		Recent: lo.Map(d.Recent, func(e *metric.Event, _ int) EventResponse {
			return eventResponse(e)
		}),
		Timeline:    d.Timeline.Points,
		Definitions: definitionResponses(d.Definitions),
	})
}

type HistoryResponse struct {
	Timeline    []metric.Point       `json:"timeline"`
	Totals      metric.Totals        `json:"totals"`
	Definitions []DefinitionResponse `json:"definitions"`
}

func (s *Server) GetHistory(c echo.Context) error {
	sess := currentSession(c)

	h, err := s.metricService.History(c.Request().Context(), s.getMetricsUoW(), sess.UserID, sess.HackathonID)
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(http.StatusOK, HistoryResponse{
		Timeline:    h.Timeline.Points,
		Totals:      h.Totals,
		Definitions: definitionResponses(h.Definitions),
	})
}

type listDefinitionsReq struct {
	HackathonID string `query:"hackathon_id" validate:"omitempty,uuid"`
}

type ListDefinitionsResponse struct {
	Definitions []DefinitionResponse `json:"definitions"`
}

func (s *Server) ListDefinitions(c echo.Context) error {
	var req listDefinitionsReq
	if err := s.bind(c, &req); err != nil {
		return JsonError(c, http.StatusBadRequest, err)
	}

	defs, err := s.metricService.Definitions(c.Request().Context(), s.getMetricsUoW(), scopeOf(currentSession(c), req.HackathonID))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, ListDefinitionsResponse{Definitions: definitionResponses(defs)})
}

type createDefinitionReq struct {
	HackathonID string `json:"hackathon_id" validate:"omitempty,uuid"`
	Slug        string `json:"slug" validate:"required"`
	Name        string `json:"name" validate:"required"`
	Icon        string `json:"icon"`
	Color       string `json:"color"`
	InputType   string `json:"input_type"`
	Unit        string `json:"unit"`
}

func (s *Server) CreateDefinition(c echo.Context) error {
	var req createDefinitionReq
	if err := s.bind(c, &req); err != nil {
		return JsonError(c, http.StatusBadRequest, err)
	}
	sess := currentSession(c)

	in := metricservice.DefinitionInput{
		Slug:      req.Slug,
		Name:      req.Name,
		Icon:      req.Icon,
		Color:     req.Color,
		InputType: metric.ParseInputType(req.InputType),
		Unit:      req.Unit,
	}
	d, err := s.metricService.CreateDefinition(
		c.Request().Context(),
		s.getMetricsUoW(),
		sess.Role,
		sess.UserID,
		scopeOf(sess, req.HackathonID),
		uuid.NewString(),
		in,
	)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusCreated, definitionResponse(d))
}

type deleteDefinitionReq struct {
	DefinitionID string `param:"definition_id" validate:"required,uuid"`
	HackathonID  string `query:"hackathon_id" validate:"omitempty,uuid"`
}

func (s *Server) DeleteDefinition(c echo.Context) error {
	var req deleteDefinitionReq
	if err := s.bind(c, &req); err != nil {
		return JsonError(c, http.StatusBadRequest, err)
	}
	sess := currentSession(c)

	err := s.metricService.DeleteDefinition(
		c.Request().Context(),
		s.getMetricsUoW(),
		sess.Role,
		scopeOf(sess, req.HackathonID),
		req.DefinitionID,
	)
	if err != nil {
		return s.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

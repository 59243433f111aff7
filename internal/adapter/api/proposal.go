package api

import (
	proposalstorage "github.com/burenotti/hacktrack/internal/adapter/storage/proposals"
	proposalservice "github.com/burenotti/hacktrack/internal/app/proposal"
	"github.com/burenotti/hacktrack/internal/app/unitofwork"
	"github.com/burenotti/hacktrack/internal/domain/metric"
	"github.com/burenotti/hacktrack/internal/domain/proposal"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/samber/lo"
	"net/http"
	"time"
)

func (s *Server) MountProposals() {
	proposals := s.handler.Group("/proposals", s.sessionRequired())

	proposals.POST("", s.Propose)
	proposals.GET("", s.ListProposals)
	proposals.PUT("/:proposal_id", s.ResolveProposal, OrganizerRequired)
}

func (s *Server) getProposalUoW() *unitofwork.UnitOfWork[*proposalservice.AtomicContext] {
	return unitofwork.New[*proposalservice.AtomicContext](
		s.db,
		proposalservice.NewAtomicContext,
		s.msgBus,
		s.logger,
	)
}

type ProposerResponse struct {
	UserID string `json:"id"`
	Name   string `json:"name"`
	Color  string `json:"color"`
}

type ProposalResponse struct {
	ProposalID   string            `json:"id"`
	HackathonID  string            `json:"hackathon_id"`
	Name         string            `json:"name"`
	Slug         string            `json:"slug"`
	Icon         string            `json:"icon"`
	InputType    metric.InputType  `json:"input_type"`
	Unit         string            `json:"unit"`
	Status       proposal.Status   `json:"status"`
	Reason       *string           `json:"reason"`
	DefinitionID *string           `json:"definition_id"`
	ProposedBy   *ProposerResponse `json:"proposed_by,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	ResolvedAt   *time.Time        `json:"resolved_at"`
}

func proposalResponse(p *proposal.Proposal) ProposalResponse {
	return ProposalResponse{
		ProposalID:   p.ProposalID,
		HackathonID:  p.HackathonID,
		Name:         p.Name,
		Slug:         p.Slug,
		Icon:         p.Icon,
		InputType:    p.InputType,
		Unit:         p.Unit,
		Status:       p.Status,
		Reason:       p.Reason,
		DefinitionID: p.DefinitionID,
		CreatedAt:    p.CreatedAt,
		ResolvedAt:   p.ResolvedAt,
	}
}

type proposeReq struct {
	Name      string `json:"name" validate:"required"`
	Icon      string `json:"icon"`
	InputType string `json:"input_type"`
	Unit      string `json:"unit"`
}

func (s *Server) Propose(c echo.Context) error {
	var req proposeReq
	if err := s.bind(c, &req); err != nil {
		return JsonError(c, http.StatusBadRequest, err)
	}
	sess := currentSession(c)

	in := proposalservice.Input{
		Name:      req.Name,
		Icon:      req.Icon,
		InputType: metric.ParseInputType(req.InputType),
		Unit:      req.Unit,
	}
	p, err := s.proposalService.Propose(c.Request().Context(), s.getProposalUoW(), sess.UserID, sess.HackathonID, uuid.NewString(), in)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusCreated, proposalResponse(p))
}

type listProposalsReq struct {
	Status string `query:"status"`
}

type ListProposalsResponse struct {
	Proposals []ProposalResponse `json:"proposals"`
}

func (s *Server) ListProposals(c echo.Context) error {
	var req listProposalsReq
	if err := s.bind(c, &req); err != nil {
		return JsonError(c, http.StatusBadRequest, err)
	}
	sess := currentSession(c)

	var status *proposal.Status
	if req.Status != "" {
		st, err := proposal.ParseStatus(req.Status)
		if err != nil {
			return s.fail(c, err)
		}
		status = &st
	}

	lst, err := s.proposalService.List(c.Request().Context(), s.getProposalUoW(), sess.Role, sess.UserID, sess.HackathonID, status)
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(http.StatusOK, ListProposalsResponse{
		Proposals: lo.Map(lst, func(l proposalstorage.Listed, _ int) ProposalResponse {
			res := proposalResponse(l.Proposal)
			res.ProposedBy = &ProposerResponse{
				UserID: l.Proposal.ProposedBy,
				Name:   l.UserName,
				Color:  l.UserColor,
			}
			return res
		}),
	})
}

type resolveProposalReq struct {
	ProposalID string `param:"proposal_id" validate:"required,uuid"`
	Status     string `json:"status" validate:"required"`
	Reason     string `json:"reason"`
}

func (s *Server) ResolveProposal(c echo.Context) error {
	var req resolveProposalReq
	if err := s.bind(c, &req); err != nil {
		return JsonError(c, http.StatusBadRequest, err)
	}
	sess := currentSession(c)

	status, err := proposal.ParseResolution(req.Status)
	if err != nil {
		return s.fail(c, err)
	}

	p, err := s.proposalService.Resolve(c.Request().Context(), s.getProposalUoW(), sess.Role, sess.UserID, req.ProposalID, status, req.Reason)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, proposalResponse(p))
}

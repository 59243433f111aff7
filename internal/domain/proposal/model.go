package proposal

import (
	"errors"
	"fmt"
	"github.com/burenotti/hacktrack/internal/domain"
	"github.com/burenotti/hacktrack/internal/domain/metric"
	"strings"
	"time"
)

var (
	ErrProposalNotFound = errors.New("proposal not found")
	ErrNoHackathon      = errors.New("no active hackathon, join a team first")
	ErrDuplicatePending = errors.New("you already have a pending proposal for this metric")
	ErrDefinitionExists = errors.New("a metric with this name already exists")
	ErrAlreadyResolved  = errors.New("proposal already resolved")
	ErrInvalidStatus    = errors.New("status must be APPROVED or REJECTED")
)

const (
	EventResolved = "proposal.resolved"
)

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToUpper(strings.TrimSpace(s))); st {
	case StatusPending, StatusApproved, StatusRejected:
		return st, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
}

// ParseResolution accepts only the terminal statuses.
func ParseResolution(s string) (Status, error) {
	st, err := ParseStatus(s)
	if err != nil || st == StatusPending {
		return "", ErrInvalidStatus
	}
	return st, nil
}

type Proposal struct {
	domain.Aggregate `diff:"-"`
	ProposalID       string           `diff:"-"`
	HackathonID      string           `diff:"-"`
	ProposedBy       string           `diff:"-"`
	Name             string           `diff:"-"`
	Slug             string           `diff:"-"`
	Icon             string           `diff:"-"`
	InputType        metric.InputType `diff:"-"`
	Unit             string           `diff:"-"`
	Status           Status           `diff:"status"`
	Reason           *string          `diff:"reason"`
	DefinitionID     *string          `diff:"definition_id"`
	CreatedAt        time.Time        `diff:"-"`
	ResolvedAt       *time.Time       `diff:"resolved_at"`
}

func New(proposalID, hackathonID, proposedBy, name, icon string, inputType metric.InputType, unit string) (*Proposal, error) {
	if hackathonID == "" {
		return nil, ErrNoHackathon
	}
	n, err := metric.NormalizeName(name)
	if err != nil {
		return nil, err
	}
	if icon == "" {
		icon = metric.DefaultIcon
	}
	if inputType != metric.InputNumber {
		inputType = metric.InputCounter
	}

	return &Proposal{
		ProposalID:  proposalID,
		HackathonID: hackathonID,
		ProposedBy:  proposedBy,
		Name:        n,
		Slug:        metric.SlugFromName(n),
		Icon:        icon,
		InputType:   inputType,
		Unit:        metric.NormalizeUnit(unit),
		Status:      StatusPending,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// Approve resolves the proposal and returns the definition to create.
func (p *Proposal) Approve(definitionID, approvedBy string) (*metric.Definition, error) {
	if p.Status != StatusPending {
		return nil, ErrAlreadyResolved
	}

	now := time.Now().UTC()
	hackathonID := p.HackathonID
	def := &metric.Definition{
		DefinitionID: definitionID,
		HackathonID:  &hackathonID,
		Slug:         p.Slug,
		Name:         p.Name,
		Icon:         p.Icon,
		Color:        metric.DefaultColor,
		InputType:    p.InputType,
		Unit:         p.Unit,
		IsDefault:    false,
		CreatedBy:    &approvedBy,
		CreatedAt:    now,
	}

	p.Status = StatusApproved
	p.DefinitionID = &definitionID
	p.ResolvedAt = &now
	p.PushEvent(ResolvedEvent{At: now, ProposalID: p.ProposalID, HackathonID: p.HackathonID, Status: p.Status})
	return def, nil
}

func (p *Proposal) Reject(reason string) error {
	if p.Status != StatusPending {
		return ErrAlreadyResolved
	}

	now := time.Now().UTC()
	p.Status = StatusRejected
	if r := strings.TrimSpace(reason); r != "" {
		p.Reason = &r
	}
	p.ResolvedAt = &now
	p.PushEvent(ResolvedEvent{At: now, ProposalID: p.ProposalID, HackathonID: p.HackathonID, Status: p.Status})
	return nil
}

type ResolvedEvent struct {
	At          time.Time
	ProposalID  string
	HackathonID string
	Status      Status
}

func (e ResolvedEvent) Type() string {
	return EventResolved
}

func (e ResolvedEvent) PublishedAt() time.Time {
	return e.At
}

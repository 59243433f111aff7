package hackathon

import (
	"errors"
	"fmt"
	"github.com/burenotti/hacktrack/internal/domain"
	"strings"
	"time"
	"unicode/utf8"
)

var (
	ErrHackathonNotFound = errors.New("hackathon not found")
	ErrInvalidName       = errors.New("hackathon name is required")
	ErrInvalidDates      = errors.New("end must be after start")
	ErrInvalidStatus     = errors.New("invalid status")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrAlreadyActive     = errors.New("another hackathon is already active")
	ErrNotActive         = errors.New("hackathon is not active")
	ErrForbidden         = errors.New("only the owner can edit the hackathon")
)

const (
	EventCreated   = "hackathon.created"
	EventActivated = "hackathon.activated"
	EventEnded     = "hackathon.ended"
)

const maxNameLength = 60

type Status string

const (
	StatusDraft  Status = "DRAFT"
	StatusActive Status = "ACTIVE"
	StatusEnded  Status = "ENDED"
)

func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToUpper(strings.TrimSpace(s))); st {
	case StatusDraft, StatusActive, StatusEnded:
		return st, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
}

// CanTransition reports whether a hackathon may move from one status to another.
// Staying in the same status is always allowed.
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	switch from {
	case StatusDraft:
		return to == StatusActive || to == StatusEnded
	case StatusActive:
		return to == StatusEnded
	default:
		return false
	}
}

type Hackathon struct {
	domain.Aggregate `diff:"-"`
	HackathonID      string    `diff:"-"`
	Name             string    `diff:"name"`
	Description      *string   `diff:"description"`
	Status           Status    `diff:"status"`
	StartAt          time.Time `diff:"start_at"`
	EndAt            time.Time `diff:"end_at"`
	OrganizerID      string    `diff:"-"`
	CreatedAt        time.Time `diff:"-"`
	UpdatedAt        time.Time `diff:"updated_at"`
}

func NormalizeName(name string) (string, error) {
	n := strings.ToUpper(strings.TrimSpace(name))
	if n == "" {
		return "", ErrInvalidName
	}
	if utf8.RuneCountInString(n) > maxNameLength {
		n = string([]rune(n)[:maxNameLength])
	}
	return n, nil
}

func normalizeDescription(d *string) *string {
	if d == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*d)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func New(hackathonID, name string, description *string, startAt, endAt time.Time, organizerID string) (*Hackathon, error) {
	n, err := NormalizeName(name)
	if err != nil {
		return nil, err
	}
	if !endAt.After(startAt) {
		return nil, ErrInvalidDates
	}

	now := time.Now().UTC()
	h := &Hackathon{
		HackathonID: hackathonID,
		Name:        n,
		Description: normalizeDescription(description),
		Status:      StatusDraft,
		StartAt:     startAt.UTC(),
		EndAt:       endAt.UTC(),
		OrganizerID: organizerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	h.PushEvent(CreatedEvent{At: now, HackathonID: hackathonID, OrganizerID: organizerID})
	return h, nil
}

func (h *Hackathon) IsActive() bool {
	return h.Status == StatusActive
}

// CanEdit reports whether the user may change this hackathon.
func (h *Hackathon) CanEdit(userID string, superadmin bool) bool {
	return superadmin || h.OrganizerID == userID
}

// Summary is a hackathon together with the number of its teams.
type Summary struct {
	Hackathon *Hackathon
	TeamCount int
}

// Update carries optional changes; nil fields are left untouched.
type Update struct {
	Name        *string
	Description *string
	StartAt     *time.Time
	EndAt       *time.Time
	Status      *Status
}

// Apply validates and applies u. The single-active rule spans hackathons
// and is enforced by the caller before activation.
func (h *Hackathon) Apply(u Update) error {
	name, desc := h.Name, h.Description
	start, end := h.StartAt, h.EndAt
	status := h.Status

	if u.Name != nil {
		n, err := NormalizeName(*u.Name)
		if err != nil {
			return err
		}
		name = n
	}
	if u.Description != nil {
		desc = normalizeDescription(u.Description)
	}
	if u.StartAt != nil {
		start = u.StartAt.UTC()
	}
	if u.EndAt != nil {
		end = u.EndAt.UTC()
	}
	if !end.After(start) {
		return ErrInvalidDates
	}
	if u.Status != nil {
		if !CanTransition(h.Status, *u.Status) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, h.Status, *u.Status)
		}
		status = *u.Status
	}

	now := time.Now().UTC()
	if status != h.Status {
		switch status {
		case StatusActive:
			h.PushEvent(ActivatedEvent{At: now, HackathonID: h.HackathonID})
		case StatusEnded:
			h.PushEvent(EndedEvent{At: now, HackathonID: h.HackathonID})
		}
	}

	h.Name, h.Description = name, desc
	h.StartAt, h.EndAt = start, end
	h.Status = status
	h.UpdatedAt = now
	return nil
}

// Activates reports whether applying u moves h into the active status.
func (h *Hackathon) Activates(u Update) bool {
	return u.Status != nil && *u.Status == StatusActive && h.Status != StatusActive
}

type CreatedEvent struct {
	At          time.Time
	HackathonID string
	OrganizerID string
}

func (e CreatedEvent) Type() string {
	return EventCreated
}

func (e CreatedEvent) PublishedAt() time.Time {
	return e.At
}

type ActivatedEvent struct {
	At          time.Time
	HackathonID string
}

func (e ActivatedEvent) Type() string {
	return EventActivated
}

func (e ActivatedEvent) PublishedAt() time.Time {
	return e.At
}

type EndedEvent struct {
	At          time.Time
	HackathonID string
}

func (e EndedEvent) Type() string {
	return EventEnded
}

func (e EndedEvent) PublishedAt() time.Time {
	return e.At
}

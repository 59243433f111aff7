package metric

import (
	"errors"
	"fmt"
	"github.com/burenotti/hacktrack/internal/domain"
	"math"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

var (
	ErrDefinitionNotFound = errors.New("metric definition not found")
	ErrDefinitionExists   = errors.New("slug already exists")
	ErrInvalidSlug        = errors.New("slug must be 2-30 chars")
	ErrInvalidName        = errors.New("slug and name required")
	ErrUnknownType        = errors.New("invalid metric type")
	ErrInvalidValue       = errors.New("invalid metric value")
	ErrZeroValue          = fmt.Errorf("%w: value must be non-zero", ErrInvalidValue)
	ErrNotNumeric         = fmt.Errorf("%w: value must be a number", ErrInvalidValue)
	ErrNotInteger         = fmt.Errorf("%w: counter value must be a whole number", ErrInvalidValue)
	ErrOutOfRange         = fmt.Errorf("%w: value must be within [%g, %g]", ErrInvalidValue, MinNumber, MaxNumber)
)

const (
	EventLogged             = "metric.logged"
	EventDefinitionsChanged = "metric.definitions_changed"
)

const (
	DefaultIcon  = "///"
	DefaultColor = "#00ff41"

	MinNumber = 0.1
	MaxNumber = 999.0

	minSlugLength = 2
	maxSlugLength = 30
	maxNameLength = 30
	maxUnitLength = 10
)

type InputType string

const (
	InputCounter InputType = "COUNTER"
	InputNumber  InputType = "NUMBER"
)

// ParseInputType maps anything but NUMBER to COUNTER.
func ParseInputType(s string) InputType {
	if InputType(strings.ToUpper(strings.TrimSpace(s))) == InputNumber {
		return InputNumber
	}
	return InputCounter
}

type Definition struct {
	DefinitionID string
	HackathonID  *string
	Slug         string
	Name         string
	Icon         string
	Color        string
	InputType    InputType
	Unit         string
	IsDefault    bool
	CreatedBy    *string
	CreatedAt    time.Time
}

// Template is a definition blueprint seeded into hackathons on activation.
type Template struct {
	Slug      string
	Name      string
	Icon      string
	Color     string
	InputType InputType
	Unit      string
}

var DefaultTemplates = []Template{
	{Slug: "RED_BULL", Name: "RED BULL", Icon: DefaultIcon, Color: "#f87171", InputType: InputCounter, Unit: "cans"},
	{Slug: "COFFEE", Name: "COFFEE", Icon: DefaultIcon, Color: "#facc15", InputType: InputCounter, Unit: "cups"},
	{Slug: "SLEEP", Name: "SLEEP", Icon: DefaultIcon, Color: "#a855f7", InputType: InputNumber, Unit: "hrs"},
	{Slug: "COMMITS", Name: "COMMITS", Icon: DefaultIcon, Color: "#00ff41", InputType: InputCounter, Unit: ""},
}

var (
	slugReplacer     = regexp.MustCompile(`[^A-Z0-9_]`)
	proposalReplacer = regexp.MustCompile(`[^A-Z0-9]`)
)

// NormalizeSlug upper-cases s and replaces everything outside [A-Z0-9_] with '_'.
func NormalizeSlug(s string) (string, error) {
	slug := slugReplacer.ReplaceAllString(strings.ToUpper(strings.TrimSpace(s)), "_")
	if l := len(slug); l < minSlugLength || l > maxSlugLength {
		return "", ErrInvalidSlug
	}
	return slug, nil
}

// SlugFromName derives a slug from an already normalized display name.
func SlugFromName(name string) string {
	return proposalReplacer.ReplaceAllString(name, "_")
}

// NormalizeName trims and upper-cases a display name, cutting it to 30 runes.
func NormalizeName(name string) (string, error) {
	n := strings.ToUpper(strings.TrimSpace(name))
	if n == "" {
		return "", ErrInvalidName
	}
	return truncate(n, maxNameLength), nil
}

func NormalizeUnit(unit string) string {
	return truncate(strings.TrimSpace(unit), maxUnitLength)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func NewDefinition(
	definitionID string,
	hackathonID *string,
	slug, name, icon, color string,
	inputType InputType,
	unit string,
	createdBy *string,
) (*Definition, error) {
	normalized, err := NormalizeSlug(slug)
	if err != nil {
		return nil, err
	}
	n, err := NormalizeName(name)
	if err != nil {
		return nil, err
	}
	if icon == "" {
		icon = DefaultIcon
	}
	if color == "" {
		color = DefaultColor
	}
	if inputType != InputNumber {
		inputType = InputCounter
	}

	return &Definition{
		DefinitionID: definitionID,
		HackathonID:  hackathonID,
		Slug:         normalized,
		Name:         n,
		Icon:         icon,
		Color:        color,
		InputType:    inputType,
		Unit:         NormalizeUnit(unit),
		IsDefault:    false,
		CreatedBy:    createdBy,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// FromTemplate builds a default definition for the hackathon.
func FromTemplate(definitionID, hackathonID string, t Template, createdBy *string, createdAt time.Time) *Definition {
	return &Definition{
		DefinitionID: definitionID,
		HackathonID:  &hackathonID,
		Slug:         t.Slug,
		Name:         t.Name,
		Icon:         t.Icon,
		Color:        t.Color,
		InputType:    t.InputType,
		Unit:         t.Unit,
		IsDefault:    true,
		CreatedBy:    createdBy,
		CreatedAt:    createdAt,
	}
}

// ValidateValue rejects values the definition does not accept.
func (d *Definition) ValidateValue(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ErrNotNumeric
	}
	if v == 0 {
		return ErrZeroValue
	}
	switch d.InputType {
	case InputCounter:
		if v != math.Trunc(v) {
			return ErrNotInteger
		}
	case InputNumber:
		if abs := math.Abs(v); abs < MinNumber || abs > MaxNumber {
			return ErrOutOfRange
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnknownType, d.InputType)
	}
	return nil
}

// Slugs returns the slugs of defs keeping their order.
func Slugs(defs []*Definition) []string {
	slugs := make([]string, 0, len(defs))
	for _, d := range defs {
		slugs = append(slugs, d.Slug)
	}
	return slugs
}

// Event is one logged occurrence of a metric. TeamID is copied from the
// author's session when the event is written and never recomputed.
type Event struct {
	domain.Aggregate
	EventID     string
	UserID      string
	TeamID      *string
	HackathonID *string
	Type        string
	Value       float64
	CreatedAt   time.Time
}

// Log validates value against def and creates a new event.
func Log(eventID, userID string, teamID, hackathonID *string, def *Definition, value float64) (*Event, error) {
	if def == nil {
		return nil, ErrUnknownType
	}
	if err := def.ValidateValue(value); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	e := &Event{
		EventID:     eventID,
		UserID:      userID,
		TeamID:      teamID,
		HackathonID: hackathonID,
		Type:        def.Slug,
		Value:       value,
		CreatedAt:   now,
	}
	e.PushEvent(LoggedEvent{
		At:          now,
		EventID:     eventID,
		UserID:      userID,
		HackathonID: hackathonID,
		Slug:        def.Slug,
		Value:       value,
	})
	return e, nil
}

func (e *Event) AttributedTo(teamID string) bool {
	return e.TeamID != nil && *e.TeamID == teamID
}

type LoggedEvent struct {
	At          time.Time
	EventID     string
	UserID      string
	HackathonID *string
	Slug        string
	Value       float64
}

func (e LoggedEvent) Type() string {
	return EventLogged
}

func (e LoggedEvent) PublishedAt() time.Time {
	return e.At
}

// DefinitionsChangedEvent is raised when the definition set of a scope changes.
type DefinitionsChangedEvent struct {
	At          time.Time
	HackathonID *string
}

func (e DefinitionsChangedEvent) Type() string {
	return EventDefinitionsChanged
}

func (e DefinitionsChangedEvent) PublishedAt() time.Time {
	return e.At
}

// ScopeChange carries a DefinitionsChangedEvent for the scope of a
// definition that was created or removed.
type ScopeChange struct {
	domain.Aggregate
}

func ChangeScope(hackathonID *string) *ScopeChange {
	c := &ScopeChange{}
	c.PushEvent(DefinitionsChangedEvent{At: time.Now().UTC(), HackathonID: hackathonID})
	return c
}

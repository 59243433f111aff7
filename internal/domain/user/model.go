package user

import (
	"errors"
	"fmt"
	"github.com/burenotti/hacktrack/internal/domain"
	"slices"
	"strings"
	"time"
	"unicode/utf8"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("handle already taken")
	ErrInvalidName        = errors.New("name must be 2-20 characters")
	ErrInvalidPin         = errors.New("pin must be 4 digits")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNoChanges          = errors.New("no changes")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
)

const (
	EventCreated = "user.created"
	EventUpdated = "user.updated"
)

type Role string

const (
	RoleMember     Role = "MEMBER"
	RoleOrganizer  Role = "ORGANIZER"
	RoleSuperadmin Role = "SUPERADMIN"
)

func (r Role) IsOrganizer() bool {
	return r == RoleOrganizer || r == RoleSuperadmin
}

const (
	DefaultMemberColor    = "#00ff41"
	DefaultOrganizerColor = "#ff8800"

	minNameLength = 2
	maxNameLength = 20
	pinLength     = 4
)

var NeonColors = []string{
	"#00ff41",
	"#00ffff",
	"#ff00ff",
	"#ffff00",
	"#ff8800",
	"#ff0040",
	"#8800ff",
	"#00ff88",
}

func IsNeonColor(c string) bool {
	return slices.Contains(NeonColors, c)
}

// Hasher turns a pin into a storable hash and checks it back.
type Hasher interface {
	Hash(pin string) string
	Compare(hash, pin string) error
}

type User struct {
	domain.Aggregate `diff:"-"`
	UserID           string    `diff:"-"`
	Name             string    `diff:"name"`
	PinHash          string    `diff:"pin_hash"`
	Color            string    `diff:"color"`
	Role             Role      `diff:"role"`
	CreatedAt        time.Time `diff:"-"`
	UpdatedAt        time.Time `diff:"updated_at"`
}

func NormalizeName(name string) (string, error) {
	n := strings.ToUpper(strings.TrimSpace(name))
	if l := utf8.RuneCountInString(n); l < minNameLength || l > maxNameLength {
		return "", ErrInvalidName
	}
	return n, nil
}

func ValidatePin(pin string) error {
	if len(pin) != pinLength {
		return ErrInvalidPin
	}
	for _, c := range pin {
		if c < '0' || c > '9' {
			return ErrInvalidPin
		}
	}
	return nil
}

func New(userID, name, pin, color string, role Role, hasher Hasher) (*User, error) {
	normalized, err := NormalizeName(name)
	if err != nil {
		return nil, err
	}
	if err := ValidatePin(pin); err != nil {
		return nil, err
	}

	if !IsNeonColor(color) {
		color = DefaultMemberColor
		if role.IsOrganizer() {
			color = DefaultOrganizerColor
		}
	}

	now := time.Now().UTC()
	u := &User{
		UserID:    userID,
		Name:      normalized,
		PinHash:   hasher.Hash(pin),
		Color:     color,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	u.PushEvent(CreatedEvent{At: now, UserID: userID, Name: normalized, Role: role})
	return u, nil
}

func (u *User) CheckPin(hasher Hasher, pin string) error {
	if err := hasher.Compare(u.PinHash, pin); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// ProfileUpdate carries optional changes; nil fields are left untouched.
type ProfileUpdate struct {
	Name  *string
	Color *string
	Pin   *string
}

func (p ProfileUpdate) Empty() bool {
	return p.Name == nil && p.Color == nil && p.Pin == nil
}

// Update applies p. Uniqueness of the new name is checked by storage.
func (u *User) Update(p ProfileUpdate, hasher Hasher) error {
	if p.Empty() {
		return ErrNoChanges
	}

	if p.Name != nil {
		n, err := NormalizeName(*p.Name)
		if err != nil {
			return err
		}
		u.Name = n
	}

	if p.Color != nil && IsNeonColor(*p.Color) {
		u.Color = *p.Color
	}

	if p.Pin != nil {
		if err := ValidatePin(*p.Pin); err != nil {
			return err
		}
		u.PinHash = hasher.Hash(*p.Pin)
	}

	u.UpdatedAt = time.Now().UTC()
	u.PushEvent(UpdatedEvent{At: u.UpdatedAt, UserID: u.UserID})
	return nil
}

type CreatedEvent struct {
	At     time.Time
	UserID string
	Name   string
	Role   Role
}

func (e CreatedEvent) Type() string {
	return EventCreated
}

func (e CreatedEvent) PublishedAt() time.Time {
	return e.At
}

type UpdatedEvent struct {
	At     time.Time
	UserID string
}

func (e UpdatedEvent) Type() string {
	return EventUpdated
}

func (e UpdatedEvent) PublishedAt() time.Time {
	return e.At
}

func (e UpdatedEvent) String() string {
	return fmt.Sprintf("%s(%s)", EventUpdated, e.UserID)
}

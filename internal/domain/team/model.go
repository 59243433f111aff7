package team

import (
	"crypto/rand"
	"errors"
	"github.com/burenotti/hacktrack/internal/domain"
	"github.com/burenotti/hacktrack/internal/domain/hackathon"
	"math/big"
	"strings"
	"time"
	"unicode/utf8"
)

var (
	ErrTeamNotFound        = errors.New("team not found")
	ErrInvalidName         = errors.New("team name is required")
	ErrInvalidInviteCode   = errors.New("invalid invite code")
	ErrInviteCodeExhausted = errors.New("could not allocate a unique invite code")
	ErrAlreadyMember       = errors.New("already a member of this team")
	ErrAlreadyInHackathon  = errors.New("already in a team for this hackathon")
)

const (
	EventMemberJoined = "team.member_joined"
)

const (
	DefaultColor = "#00ff41"

	InviteCodeAlphabet    = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	InviteCodeLength      = 4
	InviteCodeMaxAttempts = 10

	maxNameLength = 40
)

type Team struct {
	domain.Aggregate
	TeamID      string
	HackathonID string
	Name        string
	Color       string
	InviteCode  string
	CreatedAt   time.Time
}

type Membership struct {
	UserID   string
	TeamID   string
	IsAdmin  bool
	JoinedAt time.Time
}

// Member is a membership joined with the member's public profile.
type Member struct {
	UserID   string
	Name     string
	Color    string
	IsAdmin  bool
	JoinedAt time.Time
}

// Summary is a team together with the number of its members.
type Summary struct {
	Team        *Team
	MemberCount int
}

// Roster is a team with its current members.
type Roster struct {
	Team    *Team
	Members []Member
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

func NormalizeInviteCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// GenerateInviteCode draws a code from InviteCodeAlphabet using crypto/rand.
// The alphabet leaves out characters that are easy to misread.
func GenerateInviteCode() (string, error) {
	alphabetLen := big.NewInt(int64(len(InviteCodeAlphabet)))
	var sb strings.Builder
	for range InviteCodeLength {
		n, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			return "", err
		}
		sb.WriteByte(InviteCodeAlphabet[n.Int64()])
	}
	return sb.String(), nil
}

func New(teamID, hackathonID, name, color, inviteCode string) (*Team, error) {
	n, err := NormalizeName(name)
	if err != nil {
		return nil, err
	}
	color = strings.TrimSpace(color)
	if color == "" {
		color = DefaultColor
	}
	return &Team{
		TeamID:      teamID,
		HackathonID: hackathonID,
		Name:        n,
		Color:       color,
		InviteCode:  inviteCode,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// Admit checks the join rules and returns the new membership.
// currentTeamID is the team carried by the caller's session, and
// existing holds the caller's memberships within the team's hackathon.
func (t *Team) Admit(
	userID string,
	currentTeamID string,
	status hackathon.Status,
	existing []Membership,
) (*Membership, error) {
	if status != hackathon.StatusActive {
		return nil, hackathon.ErrNotActive
	}
	if currentTeamID == t.TeamID {
		return nil, ErrAlreadyMember
	}
	for _, m := range existing {
		if m.TeamID == t.TeamID {
			return nil, ErrAlreadyMember
		}
	}
	if len(existing) != 0 {
		return nil, ErrAlreadyInHackathon
	}

	now := time.Now().UTC()
	m := &Membership{
		UserID:   userID,
		TeamID:   t.TeamID,
		IsAdmin:  false,
		JoinedAt: now,
	}
	t.PushEvent(MemberJoinedEvent{At: now, TeamID: t.TeamID, HackathonID: t.HackathonID, UserID: userID})
	return m, nil
}

type MemberJoinedEvent struct {
	At          time.Time
	TeamID      string
	HackathonID string
	UserID      string
}

func (e MemberJoinedEvent) Type() string {
	return EventMemberJoined
}

func (e MemberJoinedEvent) PublishedAt() time.Time {
	return e.At
}

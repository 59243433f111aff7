package authapp

import (
	"encoding/hex"
	"errors"
	"fmt"
	"github.com/burenotti/hacktrack/internal/domain/user"
	"github.com/golang-jwt/jwt"
	"golang.org/x/crypto/bcrypt"
	"time"
)

var (
	ErrSessionInvalid = errors.New("invalid session")
	ErrSessionExpired = fmt.Errorf("%w: session expired", ErrSessionInvalid)
)

const DefaultSessionTTL = 7 * 24 * time.Hour

// Session is the identity carried by a signed token. Handlers trust it
// without going back to storage.
type Session struct {
	UserID      string
	Name        string
	Color       string
	Role        user.Role
	TeamID      *string
	HackathonID *string
}

func NewSession(u *user.User, teamID, hackathonID *string) Session {
	return Session{
		UserID:      u.UserID,
		Name:        u.Name,
		Color:       u.Color,
		Role:        u.Role,
		TeamID:      teamID,
		HackathonID: hackathonID,
	}
}

func (s Session) IsOrganizer() bool {
	return s.Role.IsOrganizer()
}

// WithTeam returns a copy of the session bound to a team of a hackathon.
func (s Session) WithTeam(teamID, hackathonID string) Session {
	s.TeamID = &teamID
	s.HackathonID = &hackathonID
	return s
}

// Authorizer hashes pins and signs session tokens.
type Authorizer struct {
	Cost       int
	Secret     string
	SessionTTL time.Duration
}

func (a *Authorizer) Hash(pin string) string {
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), a.Cost)
	if err != nil {
		panic(err)
	}
	return hex.EncodeToString(hash)
}

func (a *Authorizer) Compare(hash, pin string) error {
	hashBytes, err := hex.DecodeString(hash)
	if err != nil {
		return err
	}
	return bcrypt.CompareHashAndPassword(hashBytes, []byte(pin))
}

// TTL is the lifetime of issued sessions.
func (a *Authorizer) TTL() time.Duration {
	if a.SessionTTL <= 0 {
		return DefaultSessionTTL
	}
	return a.SessionTTL
}

func (a *Authorizer) IssueToken(s Session) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   s.UserID,
		"name":  s.Name,
		"color": s.Color,
		"role":  string(s.Role),
		"exp":   now.Add(a.TTL()).Unix(),
		"iat":   now.Unix(),
	}
	if s.TeamID != nil {
		claims["team_id"] = *s.TeamID
	}
	if s.HackathonID != nil {
		claims["hackathon_id"] = *s.HackathonID
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(a.Secret))
}

func (a *Authorizer) ParseToken(token string) (*Session, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(a.Secret), nil
	})

	if err != nil {
		var validationErr *jwt.ValidationError
		if errors.As(err, &validationErr) && validationErr.Errors&jwt.ValidationErrorExpired != 0 {
			return nil, ErrSessionExpired
		}
		return nil, ErrSessionInvalid
	}

	userID, _ := claims["sub"].(string)
	if userID == "" {
		return nil, ErrSessionInvalid
	}

	s := &Session{
		UserID:      userID,
		Name:        stringClaim(claims, "name"),
		Color:       stringClaim(claims, "color"),
		Role:        user.Role(stringClaim(claims, "role")),
		TeamID:      optionalClaim(claims, "team_id"),
		HackathonID: optionalClaim(claims, "hackathon_id"),
	}
	return s, nil
}

func stringClaim(claims jwt.MapClaims, key string) string {
	v, _ := claims[key].(string)
	return v
}

func optionalClaim(claims jwt.MapClaims, key string) *string {
	v, ok := claims[key].(string)
	if !ok || v == "" {
		return nil
	}
	return &v
}

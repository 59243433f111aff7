package api

import (
	"errors"
	"github.com/burenotti/hacktrack/internal/app/authapp"
	"github.com/labstack/echo/v4"
	"net/http"
	"strings"
)

const KeyCurrentSession = "current_session"

// SessionRequired accepts a token from the Authorization header or from the
// session cookie. The header wins when both are present.
func SessionRequired(authorizer *authapp.Authorizer, cookieName string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, err := sessionToken(c, cookieName)
			if err != nil {
				return JsonError(c, http.StatusUnauthorized, err)
			}

			sess, err := authorizer.ParseToken(token)
			if err != nil {
				return JsonError(c, http.StatusUnauthorized, err)
			}
			c.Set(KeyCurrentSession, sess)
			return next(c)
		}
	}
}

var errNoSession = errors.New("unauthorized")

func sessionToken(c echo.Context, cookieName string) (string, error) {
	if header := c.Request().Header.Get(echo.HeaderAuthorization); header != "" {
		parts := strings.Split(header, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return "", errors.New("invalid Authorization header")
		}
		return parts[1], nil
	}

	cookie, err := c.Cookie(cookieName)
	if err != nil || cookie.Value == "" {
		return "", errNoSession
	}
	return cookie.Value, nil
}

// OrganizerRequired must run after SessionRequired.
func OrganizerRequired(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !currentSession(c).IsOrganizer() {
			return JsonError(c, http.StatusForbidden, "organizer access required")
		}
		return next(c)
	}
}

func currentSession(c echo.Context) *authapp.Session {
	return c.Get(KeyCurrentSession).(*authapp.Session)
}

package api

import (
	"errors"
	"fmt"
	"github.com/burenotti/hacktrack/internal/app/authapp"
	teamservice "github.com/burenotti/hacktrack/internal/app/team"
	"github.com/burenotti/hacktrack/internal/domain/hackathon"
	"github.com/burenotti/hacktrack/internal/domain/metric"
	"github.com/burenotti/hacktrack/internal/domain/proposal"
	"github.com/burenotti/hacktrack/internal/domain/team"
	"github.com/burenotti/hacktrack/internal/domain/user"
	"github.com/labstack/echo/v4"
	"net/http"
)

type JsonErrorModel struct {
	Message string `json:"message"`
}

func JsonError(c echo.Context, status int, content any) error {
	data := &JsonErrorModel{Message: fmt.Sprintf("%v", content)}
	return c.JSON(status, data)
}

var errorStatuses = []struct {
	err    error
	status int
}{
	{user.ErrInvalidCredentials, http.StatusUnauthorized},
	{user.ErrUnauthorized, http.StatusUnauthorized},
	{authapp.ErrSessionInvalid, http.StatusUnauthorized},

	{user.ErrForbidden, http.StatusForbidden},
	{hackathon.ErrForbidden, http.StatusForbidden},
	{authapp.ErrInvalidOrganizerSecret, http.StatusForbidden},

	{user.ErrUserNotFound, http.StatusNotFound},
	{hackathon.ErrHackathonNotFound, http.StatusNotFound},
	{team.ErrTeamNotFound, http.StatusNotFound},
	{team.ErrInvalidInviteCode, http.StatusNotFound},
	{metric.ErrDefinitionNotFound, http.StatusNotFound},
	{proposal.ErrProposalNotFound, http.StatusNotFound},

	{user.ErrUserExists, http.StatusConflict},
	{hackathon.ErrAlreadyActive, http.StatusConflict},
	{team.ErrAlreadyMember, http.StatusConflict},
	{team.ErrAlreadyInHackathon, http.StatusConflict},
	{metric.ErrDefinitionExists, http.StatusConflict},
	{proposal.ErrDuplicatePending, http.StatusConflict},
	{proposal.ErrDefinitionExists, http.StatusConflict},
	{proposal.ErrAlreadyResolved, http.StatusConflict},

	{user.ErrInvalidName, http.StatusBadRequest},
	{user.ErrInvalidPin, http.StatusBadRequest},
	{user.ErrNoChanges, http.StatusBadRequest},
	{hackathon.ErrInvalidName, http.StatusBadRequest},
	{hackathon.ErrInvalidDates, http.StatusBadRequest},
	{hackathon.ErrInvalidStatus, http.StatusBadRequest},
	{hackathon.ErrInvalidTransition, http.StatusBadRequest},
	{hackathon.ErrNotActive, http.StatusBadRequest},
	{team.ErrInvalidName, http.StatusBadRequest},
	{metric.ErrInvalidSlug, http.StatusBadRequest},
	{metric.ErrInvalidName, http.StatusBadRequest},
	{metric.ErrUnknownType, http.StatusBadRequest},
	{metric.ErrInvalidValue, http.StatusBadRequest},
	{proposal.ErrNoHackathon, http.StatusBadRequest},
	{proposal.ErrInvalidStatus, http.StatusBadRequest},
	{teamservice.ErrNoHackathon, http.StatusBadRequest},
}

// statusOf maps a service error to an HTTP status. Unknown errors are 500.
func statusOf(err error) int {
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	return http.StatusInternalServerError
}

// fail answers with the status of err. Internal errors are logged and their
// text is not sent to the client.
func (s *Server) fail(c echo.Context, err error) error {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		s.logger.ErrorContext(c.Request().Context(), "request failed",
			"method", c.Request().Method,
			"path", c.Path(),
			"error", err,
		)
		return JsonError(c, status, "internal error")
	}
	return JsonError(c, status, err)
}

package errors

import (
	stderrors "errors"
	"net/http"

	"github.com/fireteam-lab/fireteam/internal/activity"
	"github.com/fireteam-lab/fireteam/internal/event"
	"github.com/fireteam-lab/fireteam/internal/eventmgr"
	"github.com/fireteam-lab/fireteam/internal/eventstore"
	"github.com/fireteam-lab/fireteam/internal/guild"
)

const (
	HttpInternalError          = "internal_error"
	HttpInvalidRequestError    = "invalid_request"
	HttpNotFoundError          = "not_found"
	HttpGuildNotFoundError     = "guild_not_found"
	HttpAlreadyInEventError    = "already_in_event"
	HttpNotInEventError        = "not_in_event"
	HttpIDSpaceExhaustedError  = "id_space_exhausted"
	HttpPersistenceFailedError = "persistence_failed"
	HttpUnavailableError       = "unavailable"
)

// ErrorResponse is the error response body of the LFG API.
type ErrorResponse struct {
	ErrorType string      `json:"error_type"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
}

// Classify maps a domain error to its HTTP status and error type.
// Unrecognized errors are internal errors.
func Classify(err error) (int, string) {
	switch {
	case stderrors.Is(err, guild.ErrNotFound):
		return http.StatusNotFound, HttpGuildNotFoundError
	case stderrors.Is(err, event.ErrNotFound):
		return http.StatusNotFound, HttpNotFoundError
	case stderrors.Is(err, event.ErrAlreadyInEvent):
		return http.StatusConflict, HttpAlreadyInEventError
	case stderrors.Is(err, event.ErrNotInEvent):
		return http.StatusConflict, HttpNotInEventError
	case stderrors.Is(err, event.ErrIDSpaceExhausted):
		return http.StatusInternalServerError, HttpIDSpaceExhaustedError
	case stderrors.Is(err, eventstore.ErrPersistence):
		return http.StatusInternalServerError, HttpPersistenceFailedError
	case stderrors.Is(err, event.ErrInvalidID),
		stderrors.Is(err, event.ErrInvalidGroupSize),
		stderrors.Is(err, activity.ErrUnknown):
		return http.StatusBadRequest, HttpInvalidRequestError
	case stderrors.Is(err, eventmgr.ErrClosed):
		return http.StatusServiceUnavailable, HttpUnavailableError
	default:
		return http.StatusInternalServerError, HttpInternalError
	}
}

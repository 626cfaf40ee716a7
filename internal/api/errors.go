package api

import (
	"errors"
	"net/http"

	"github.com/lockstep/watch-party/internal/account"
	"github.com/lockstep/watch-party/internal/room"
	"github.com/lockstep/watch-party/internal/session"
)

// Sentinel errors for conditions the stores don't already name. Handlers map
// every error through statusFor; anything unrecognized becomes a 500 with a
// generic body so internals never leak to clients.
var (
	ErrBadRequest   = errors.New("api: bad request")
	ErrUnauthorized = errors.New("api: not authorized")
	ErrNotFound     = errors.New("api: not found")
)

// statusFor maps an error to its HTTP status code.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, room.ErrEmptyMessage):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, session.ErrNotFound),
		errors.Is(err, account.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, account.ErrDuplicate):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

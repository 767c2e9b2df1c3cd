package exchange

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Errors returned by the proposal lifecycle. All of them are caller
// mistakes or races lost against another caller; none leave partial state.
var (
	ErrNotFound          = errors.New("listing or proposal not found")
	ErrNotOwner          = errors.New("you can only offer your own listings")
	ErrSelfExchange      = errors.New("you cannot propose an exchange with yourself")
	ErrInactiveListing   = errors.New("one of the listings is no longer active")
	ErrDuplicateProposal = errors.New("this exchange has already been proposed")
	ErrNotReceiver       = errors.New("only the receiver can answer this proposal")
	ErrNotPending        = errors.New("this proposal has already been answered")
	ErrInvalidComment    = errors.New("comment must be at least 10 characters")
	ErrRateLimited       = errors.New("too many proposals, try again later")
)

// RateLimitError is returned when the sender is over the proposal limit.
// It matches ErrRateLimited with errors.Is.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s (retry in %s)", ErrRateLimited, e.RetryAfter.Round(time.Second))
}

func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}

// HTTPStatus maps a lifecycle error to the status both the API and the web
// site answer with. Unknown errors are internal.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrNotOwner), errors.Is(err, ErrNotReceiver):
		return http.StatusForbidden
	case errors.Is(err, ErrSelfExchange), errors.Is(err, ErrInactiveListing), errors.Is(err, ErrInvalidComment):
		return http.StatusBadRequest
	case errors.Is(err, ErrDuplicateProposal), errors.Is(err, ErrNotPending):
		return http.StatusConflict
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the user-facing text for err, hiding internal details.
func Message(err error) string {
	if HTTPStatus(err) == http.StatusInternalServerError {
		return "internal error"
	}
	return err.Error()
}

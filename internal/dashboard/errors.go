package dashboard

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/setu/internal/analytics"
	"github.com/JaimeStill/setu/internal/filters"
	"github.com/JaimeStill/setu/internal/sessions"
	"github.com/JaimeStill/setu/pkg/backend"
)

var (
	// ErrStale indicates a refresh finished after a newer Apply and was discarded.
	ErrStale = errors.New("refresh superseded by a newer selection")
	// ErrInvalidBody indicates a filter request body could not be decoded.
	ErrInvalidBody = errors.New("invalid request body")
)

// MapHTTPStatus maps dashboard errors to HTTP status codes, deferring to
// the filters, analytics, and backend mappings for their errors.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrStale), errors.Is(err, sessions.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidBody):
		return http.StatusBadRequest
	case errors.Is(err, sessions.ErrNoSession):
		return http.StatusInternalServerError
	case errors.Is(err, analytics.ErrRefreshFailed), errors.Is(err, analytics.ErrNothingToExport):
		return analytics.MapHTTPStatus(err)
	}
	if status := filters.MapHTTPStatus(err); status != http.StatusInternalServerError {
		return status
	}
	return backend.MapHTTPStatus(err)
}

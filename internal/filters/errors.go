package filters

import (
	"errors"
	"net/http"
)

// Domain errors for filter transitions.
var (
	ErrNoOrganization    = errors.New("select an organization first")
	ErrNoBranch          = errors.New("select a branch first")
	ErrInvalidDepartment = errors.New("invalid department")
	ErrInvalidDateRange  = errors.New("invalid date range")
	ErrInvalidPeriod     = errors.New("invalid period")
	ErrUnknownAction     = errors.New("unknown filter action")
)

// MapHTTPStatus maps filter errors to HTTP status codes. Every rejected
// transition is a client error.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNoOrganization),
		errors.Is(err, ErrNoBranch):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidDepartment),
		errors.Is(err, ErrInvalidDateRange),
		errors.Is(err, ErrInvalidPeriod),
		errors.Is(err, ErrUnknownAction):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

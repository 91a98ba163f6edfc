package analytics

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/setu/pkg/backend"
)

// Domain errors for analytics operations.
var (
	ErrRefreshFailed   = errors.New("analytics refresh failed")
	ErrNothingToExport = errors.New("no category data to export")
)

// MapHTTPStatus maps analytics errors to HTTP status codes. Refresh
// failures take the status of the backend error that caused them.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNothingToExport) {
		return http.StatusNoContent
	}
	if errors.Is(err, ErrRefreshFailed) {
		return backend.MapHTTPStatus(err)
	}
	return http.StatusInternalServerError
}

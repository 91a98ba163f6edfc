package directory

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/setu/pkg/backend"
	"github.com/JaimeStill/setu/pkg/validation"
)

// ErrInvalidBody is returned when a request body cannot be decoded.
var ErrInvalidBody = errors.New("invalid request body")

// MapHTTPStatus maps directory errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrInvalidBody) || errors.Is(err, validation.ErrInvalid) {
		return http.StatusBadRequest
	}
	return backend.MapHTTPStatus(err)
}

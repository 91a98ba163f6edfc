package emissions

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/setu/pkg/backend"
	"github.com/JaimeStill/setu/pkg/validation"
)

// Domain errors for emission logging.
var (
	ErrInvalidBody  = errors.New("invalid request body")
	ErrInvalidCSV   = errors.New("invalid csv file")
	ErrFileTooLarge = errors.New("file exceeds maximum upload size")
)

// MapHTTPStatus maps emission logging errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrInvalidBody),
		errors.Is(err, ErrInvalidCSV),
		errors.Is(err, validation.ErrInvalid):
		return http.StatusBadRequest
	}
	return backend.MapHTTPStatus(err)
}

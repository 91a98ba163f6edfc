package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrUnavailable indicates the backend could not be reached.
	ErrUnavailable = errors.New("emissions backend unavailable")
	// ErrDecode indicates a 2xx response whose body did not match the envelope.
	ErrDecode = errors.New("malformed backend response")
)

// APIError is a non-2xx response from the backend. Detail carries the
// backend's {"detail": ...} message when present, otherwise the status text.
type APIError struct {
	Endpoint   string
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: backend returned %d: %s", e.Endpoint, e.StatusCode, e.Detail)
}

// MapHTTPStatus maps backend errors to the status setu answers with.
// Client errors pass through; upstream failures become 502 or 503.
func MapHTTPStatus(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
			return apiErr.StatusCode
		}
		return http.StatusBadGateway
	}
	if errors.Is(err, ErrUnavailable) {
		return http.StatusServiceUnavailable
	}
	if errors.Is(err, ErrDecode) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// Detail returns the user-facing message for err: the backend detail for
// API errors, the error text otherwise.
func Detail(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Detail
	}
	return err.Error()
}

type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

// FastAPI validation failures encode detail as a list of {loc, msg, type}.
type validationDetail struct {
	Loc []any  `json:"loc"`
	Msg string `json:"msg"`
}

func newAPIError(endpoint string, status int, body []byte) *APIError {
	return &APIError{
		Endpoint:   endpoint,
		StatusCode: status,
		Detail:     parseDetail(status, body),
	}
}

func parseDetail(status int, body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil && len(eb.Detail) > 0 {
		var s string
		if err := json.Unmarshal(eb.Detail, &s); err == nil && s != "" {
			return s
		}

		var items []validationDetail
		if err := json.Unmarshal(eb.Detail, &items); err == nil && len(items) > 0 {
			msgs := make([]string, 0, len(items))
			for _, item := range items {
				if field := lastLoc(item.Loc); field != "" {
					msgs = append(msgs, field+": "+item.Msg)
					continue
				}
				msgs = append(msgs, item.Msg)
			}
			return strings.Join(msgs, "; ")
		}
	}

	if text := http.StatusText(status); text != "" {
		return text
	}
	return fmt.Sprintf("status %d", status)
}

func lastLoc(loc []any) string {
	if len(loc) == 0 {
		return ""
	}
	if s, ok := loc[len(loc)-1].(string); ok {
		return s
	}
	return ""
}

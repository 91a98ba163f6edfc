package emissions

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/JaimeStill/setu/pkg/backend"
	"github.com/JaimeStill/setu/pkg/handlers"
	"github.com/JaimeStill/setu/pkg/routes"
)

// Handler provides HTTP endpoints for emission logging.
type Handler struct {
	sys    System
	logger *slog.Logger
}

// NewHandler creates a Handler with the given system and logger.
func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "emissions"),
	}
}

// Routes returns the route group definition for logging endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/logs",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "/manual", Handler: h.Manual},
			{Method: "POST", Pattern: "/csv", Handler: h.CSV},
		},
	}
}

// Manual records a single activity from a JSON body.
func (h *Handler) Manual(w http.ResponseWriter, r *http.Request) {
	var cmd backend.ManualLog
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidBody)
		return
	}

	res, err := h.sys.LogManual(r.Context(), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, res)
}

// CSV uploads a multipart form containing dept_id and file fields.
func (h *Handler) CSV(w http.ResponseWriter, r *http.Request) {
	upload, err := ReadUpload(w, r, h.sys.MaxUploadSize())
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	res, err := h.sys.LogCSV(r.Context(), *upload)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, res)
}

// ReadUpload parses a multipart CSV upload from r. The request body is
// capped at maxUploadSize plus a margin for the form envelope.
func ReadUpload(w http.ResponseWriter, r *http.Request, maxUploadSize int64) (*CSVUpload, error) {
	if maxUploadSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+64<<10)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, ErrFileTooLarge
		}
		return nil, ErrInvalidBody
	}

	// a missing or malformed dept_id fails validation as zero
	deptID, _ := strconv.Atoi(r.FormValue("dept_id"))

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, ErrInvalidCSV
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, ErrInvalidCSV
	}

	return &CSVUpload{
		DeptID:   deptID,
		Filename: header.Filename,
		Data:     data,
	}, nil
}

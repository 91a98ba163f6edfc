// Package emissions records activity data against departments, either one
// entry at a time or as a CSV batch.
package emissions

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/JaimeStill/setu/pkg/backend"
	"github.com/JaimeStill/setu/pkg/formatting"
	"github.com/JaimeStill/setu/pkg/validation"
)

// Source is the subset of the backend client used for logging.
type Source interface {
	LogManual(ctx context.Context, cmd backend.ManualLog) (*backend.ManualLogResult, error)
	LogCSV(ctx context.Context, deptID int, filename string, data []byte) (*backend.CSVLogResult, error)
}

// CSVUpload is a CSV batch for one department.
type CSVUpload struct {
	DeptID   int    `json:"dept_id" validate:"gt=0"`
	Filename string `json:"filename" validate:"required,csvfile"`
	Data     []byte `json:"-"`
}

// System defines the public contract for emission logging.
type System interface {
	Handler() *Handler
	MaxUploadSize() int64

	LogManual(ctx context.Context, cmd backend.ManualLog) (*backend.ManualLogResult, error)
	LogCSV(ctx context.Context, upload CSVUpload) (*backend.CSVLogResult, error)
}

type system struct {
	source        Source
	maxUploadSize int64
	logger        *slog.Logger
}

// New creates the emissions system. Uploads larger than maxUploadSize are rejected.
func New(source Source, maxUploadSize int64, logger *slog.Logger) System {
	return &system{
		source:        source,
		maxUploadSize: maxUploadSize,
		logger:        logger.With("system", "emissions"),
	}
}

func (s *system) Handler() *Handler {
	return NewHandler(s, s.logger)
}

func (s *system) MaxUploadSize() int64 {
	return s.maxUploadSize
}

func (s *system) LogManual(ctx context.Context, cmd backend.ManualLog) (*backend.ManualLogResult, error) {
	cmd.Category = strings.TrimSpace(cmd.Category)
	cmd.Activity = strings.TrimSpace(cmd.Activity)
	cmd.Unit = strings.TrimSpace(cmd.Unit)

	if err := validation.Struct(cmd); err != nil {
		return nil, err
	}

	res, err := s.source.LogManual(ctx, cmd)
	if err != nil {
		return nil, fmt.Errorf("log manual: %w", err)
	}

	s.logger.InfoContext(
		ctx, "manual log recorded",
		"dept_id", cmd.DeptID,
		"category", cmd.Category,
		"activity", cmd.Activity,
		"co2e_kg", res.CO2eKg,
	)
	return res, nil
}

func (s *system) LogCSV(ctx context.Context, upload CSVUpload) (*backend.CSVLogResult, error) {
	if err := validation.Struct(upload); err != nil {
		return nil, err
	}

	if s.maxUploadSize > 0 && int64(len(upload.Data)) > s.maxUploadSize {
		return nil, fmt.Errorf(
			"%w: %s is larger than %s",
			ErrFileTooLarge,
			formatting.FormatBytes(int64(len(upload.Data))),
			formatting.FormatBytes(s.maxUploadSize),
		)
	}

	rows, err := InspectCSV(upload.Data)
	if err != nil {
		return nil, err
	}

	res, err := s.source.LogCSV(ctx, upload.DeptID, upload.Filename, upload.Data)
	if err != nil {
		return nil, fmt.Errorf("log csv: %w", err)
	}

	s.logger.InfoContext(
		ctx, "csv log uploaded",
		"dept_id", upload.DeptID,
		"filename", upload.Filename,
		"rows", rows,
		"rows_processed", res.RowsProcessed,
	)
	return res, nil
}

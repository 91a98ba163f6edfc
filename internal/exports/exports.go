// Package exports archives CSV dashboard exports to blob storage and
// serves the archive back. With storage disabled every operation except
// Enabled reports storage.ErrDisabled.
package exports

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/setu/internal/analytics"
	"github.com/JaimeStill/setu/pkg/storage"
)

// System defines the public contract for the export archive.
type System interface {
	Handler() *Handler

	Enabled() bool
	Archive(ctx context.Context, report *analytics.Report) (string, error)
	List(ctx context.Context, prefix, marker string, maxResults int32) (*storage.BlobList, error)
	Download(ctx context.Context, key string) (*storage.Blob, error)
	MaxListSize() int32
}

type system struct {
	store       storage.System
	maxListSize int32
	logger      *slog.Logger
	now         func() time.Time
}

// New creates the export archive. store may be nil when storage is disabled.
func New(store storage.System, maxListSize int32, logger *slog.Logger) System {
	return &system{
		store:       store,
		maxListSize: maxListSize,
		logger:      logger.With("system", "exports"),
		now:         time.Now,
	}
}

func (s *system) Handler() *Handler {
	return NewHandler(s, s.logger)
}

func (s *system) Enabled() bool {
	return s.store != nil
}

func (s *system) MaxListSize() int32 {
	return s.maxListSize
}

// Key returns the archive key for filename taken at now. Keys are grouped
// by day so a prefix of "2025/03/" lists one month.
func Key(now time.Time, id uuid.UUID, filename string) string {
	return path.Join(now.UTC().Format("2006/01/02"), id.String(), filename)
}

func (s *system) Archive(ctx context.Context, report *analytics.Report) (string, error) {
	if s.store == nil {
		return "", storage.ErrDisabled
	}

	key := Key(s.now(), uuid.New(), report.Filename)
	if err := s.store.Upload(ctx, key, bytes.NewReader(report.Data), analytics.ContentType); err != nil {
		return "", fmt.Errorf("archive export: %w", err)
	}

	s.logger.InfoContext(ctx, "export stored", "key", key, "bytes", len(report.Data))
	return key, nil
}

func (s *system) List(ctx context.Context, prefix, marker string, maxResults int32) (*storage.BlobList, error) {
	if s.store == nil {
		return nil, storage.ErrDisabled
	}
	return s.store.List(ctx, prefix, marker, maxResults)
}

func (s *system) Download(ctx context.Context, key string) (*storage.Blob, error) {
	if s.store == nil {
		return nil, storage.ErrDisabled
	}
	return s.store.Download(ctx, key)
}

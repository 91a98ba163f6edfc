// Package analytics turns an applied filter selection into a dashboard. A
// refresh fans out the four analytics reads concurrently and reshapes the
// responses into chart view models. Any failed read fails the whole refresh.
package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/setu/internal/filters"
	"github.com/JaimeStill/setu/pkg/backend"
)

// Source is the subset of the backend client a refresh reads from.
type Source interface {
	Total(ctx context.Context, scope backend.Scope) (backend.Totals, error)
	ByCategory(ctx context.Context, scope backend.Scope) ([]backend.CategoryRow, error)
	ByDepartment(ctx context.Context, scope backend.Scope) ([]backend.DepartmentRow, error)
	ByTime(ctx context.Context, scope backend.Scope, q backend.TimeQuery) ([]backend.TimeRow, error)
}

// System defines the public contract for analytics operations.
type System interface {
	Refresh(ctx context.Context, applied filters.Selection, generation uint64) (*Dashboard, error)
	Export(d *Dashboard) (*Report, error)
}

type system struct {
	source Source
	period string
	logger *slog.Logger
	now    func() time.Time
}

// New creates the analytics system. period is the trend bucket used when
// the selection does not name one.
func New(source Source, period string, logger *slog.Logger) System {
	if period == "" {
		period = filters.DefaultPeriod
	}
	return &system{
		source: source,
		period: period,
		logger: logger.With("system", "analytics"),
		now:    time.Now,
	}
}

type results struct {
	totals      backend.Totals
	categories  []backend.CategoryRow
	departments []backend.DepartmentRow
	trend       []backend.TimeRow
}

func (s *system) Refresh(ctx context.Context, applied filters.Selection, generation uint64) (*Dashboard, error) {
	scope, ok := applied.Scope()
	if !ok {
		return EmptyDashboard(generation), nil
	}

	q := applied.TimeQuery(s.period)
	start := time.Now()

	var r results
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		if r.totals, err = s.source.Total(gctx, scope); err != nil {
			return fmt.Errorf("total: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		var err error
		if r.categories, err = s.source.ByCategory(gctx, scope); err != nil {
			return fmt.Errorf("by-category: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		var err error
		if r.departments, err = s.source.ByDepartment(gctx, scope); err != nil {
			return fmt.Errorf("by-department: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		var err error
		r.trend, err = s.source.ByTime(gctx, scope, q)
		switch {
		case err == nil:
			return nil
		case scope.Level == backend.LevelDepartment && backend.IsNotFound(err):
			// Backends without a department time series answer 404;
			// the department view then shows no trend.
			s.logger.DebugContext(ctx, "department trend unavailable", "scope", scope.String())
			r.trend = nil
			return nil
		default:
			return fmt.Errorf("by-time: %w", err)
		}
	})

	if err := g.Wait(); err != nil {
		s.logger.ErrorContext(
			ctx, "refresh failed",
			"scope", scope.String(),
			"generation", generation,
			"error", err,
		)
		return nil, fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}

	d := shape(applied, scope, q.Period, r)
	d.Generation = generation
	d.GeneratedAt = s.now().UTC()

	s.logger.InfoContext(
		ctx, "refresh complete",
		"scope", scope.String(),
		"generation", generation,
		"categories", len(d.Categories),
		"trend_points", len(d.Trend),
		"duration", time.Since(start),
	)

	return d, nil
}

func (s *system) Export(d *Dashboard) (*Report, error) {
	return Export(d, s.now())
}

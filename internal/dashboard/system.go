// Package dashboard binds the filter reducer, the analytics and
// recommendation orchestrators, and the session store into the per-browser
// dashboard. Every filter change is a reducer dispatch saved atomically to
// the session; every refresh is keyed on the applied snapshot and guarded
// by its generation.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/JaimeStill/setu/internal/analytics"
	"github.com/JaimeStill/setu/internal/directory"
	"github.com/JaimeStill/setu/internal/filters"
	"github.com/JaimeStill/setu/internal/recommendations"
	"github.com/JaimeStill/setu/internal/sessions"
)

// Archive stores a copy of each CSV export. It returns the archive key.
type Archive interface {
	Archive(ctx context.Context, report *analytics.Report) (string, error)
}

// System defines the public contract for session-scoped dashboard operations.
type System interface {
	Handler() *Handler

	// Session returns the stored session, or a fresh one for an unknown id.
	Session(ctx context.Context, id string) (*sessions.Session, error)
	// Dispatch applies actions to the session's filter state. Either every
	// action applies or the state is unchanged.
	Dispatch(ctx context.Context, id string, actions ...filters.Action) (filters.State, error)
	// Refresh rebuilds the dashboard for the applied snapshot. On failure
	// the previously stored dashboard is returned with the error and stays
	// stored. A refresh overtaken by a newer Apply returns ErrStale and is
	// not stored.
	Refresh(ctx context.Context, id string) (*analytics.Dashboard, error)
	// Recommendations loads recommendations for the applied snapshot.
	Recommendations(ctx context.Context, id string) (*recommendations.View, error)
	// Options returns the cascading select options for the live selection.
	Options(ctx context.Context, id string) (directory.Options, error)
	// Export renders the stored dashboard as CSV and archives it when an
	// archive is configured.
	Export(ctx context.Context, id string) (*analytics.Report, error)

	SetFlash(ctx context.Context, id string, kind sessions.FlashKind, message string) error
	TakeFlash(ctx context.Context, id string) (*sessions.Flash, error)
}

type system struct {
	store           sessions.Store
	analytics       analytics.System
	recommendations recommendations.System
	directory       directory.System
	archive         Archive
	logger          *slog.Logger
}

// New creates the dashboard system. archive may be nil.
func New(
	store sessions.Store,
	analyticsSys analytics.System,
	recsSys recommendations.System,
	dirSys directory.System,
	archive Archive,
	logger *slog.Logger,
) System {
	return &system{
		store:           store,
		analytics:       analyticsSys,
		recommendations: recsSys,
		directory:       dirSys,
		archive:         archive,
		logger:          logger.With("system", "dashboard"),
	}
}

func (s *system) Handler() *Handler {
	return NewHandler(s, s.logger)
}

func (s *system) Session(ctx context.Context, id string) (*sessions.Session, error) {
	return s.store.Load(ctx, id)
}

func (s *system) Dispatch(ctx context.Context, id string, actions ...filters.Action) (filters.State, error) {
	sess, err := s.store.Update(ctx, id, func(sess *sessions.Session) error {
		next, err := filters.Dispatch(sess.Filters, actions...)
		if err != nil {
			return err
		}
		sess.Filters = next
		return nil
	})
	if err != nil {
		return filters.State{}, err
	}

	s.logger.DebugContext(ctx, "filters updated",
		"session", id,
		"actions", len(actions),
		"generation", sess.Filters.Generation,
	)
	return sess.Filters, nil
}

func (s *system) Refresh(ctx context.Context, id string) (*analytics.Dashboard, error) {
	sess, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	generation := sess.Filters.Generation
	d, err := s.analytics.Refresh(ctx, sess.Filters.Applied, generation)
	if err != nil {
		return sess.Dashboard, err
	}

	_, err = s.store.Update(ctx, id, func(current *sessions.Session) error {
		if current.Filters.Generation != generation {
			return ErrStale
		}
		current.Dashboard = d
		return nil
	})
	if errors.Is(err, ErrStale) {
		s.logger.InfoContext(ctx, "discarding stale refresh", "session", id, "generation", generation)
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("store dashboard: %w", err)
	}

	return d, nil
}

func (s *system) Recommendations(ctx context.Context, id string) (*recommendations.View, error) {
	sess, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.recommendations.Load(ctx, sess.Filters.Applied)
}

func (s *system) Options(ctx context.Context, id string) (directory.Options, error) {
	sess, err := s.store.Load(ctx, id)
	if err != nil {
		return directory.Options{}, err
	}
	sel := sess.Filters.Selection
	return s.directory.Cascade(ctx, sel.OrganizationID, sel.BranchID), nil
}

func (s *system) Export(ctx context.Context, id string) (*analytics.Report, error) {
	sess, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	report, err := s.analytics.Export(sess.Dashboard)
	if err != nil {
		return nil, err
	}

	if s.archive != nil {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		defer cancel()

		if key, err := s.archive.Archive(ctx, report); err != nil {
			s.logger.WarnContext(ctx, "export archive failed", "filename", report.Filename, "error", err)
		} else {
			s.logger.InfoContext(ctx, "export archived", "key", key)
		}
	}

	return report, nil
}

func (s *system) SetFlash(ctx context.Context, id string, kind sessions.FlashKind, message string) error {
	_, err := s.store.Update(ctx, id, func(sess *sessions.Session) error {
		sess.Flash = &sessions.Flash{Kind: kind, Message: message}
		return nil
	})
	return err
}

func (s *system) TakeFlash(ctx context.Context, id string) (*sessions.Flash, error) {
	sess, err := s.store.Load(ctx, id)
	if err != nil || sess.Flash == nil {
		return nil, err
	}

	var flash *sessions.Flash
	_, err = s.store.Update(ctx, id, func(sess *sessions.Session) error {
		flash = sess.Flash
		sess.Flash = nil
		return nil
	})
	if err != nil {
		return nil, err
	}
	return flash, nil
}

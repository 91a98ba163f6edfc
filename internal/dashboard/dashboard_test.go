package dashboard_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/setu/internal/analytics"
	"github.com/JaimeStill/setu/internal/dashboard"
	"github.com/JaimeStill/setu/internal/directory"
	"github.com/JaimeStill/setu/internal/filters"
	"github.com/JaimeStill/setu/internal/recommendations"
	"github.com/JaimeStill/setu/internal/sessions"
	"github.com/JaimeStill/setu/pkg/backend"
	"github.com/JaimeStill/setu/pkg/routes"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func num(v float64) *backend.Number {
	n := backend.Number(v)
	return &n
}

// fakeBackend serves every read the dashboard performs. Nil hooks return
// a small fixed dataset.
type fakeBackend struct {
	calls atomic.Int32

	categories func(ctx context.Context) ([]backend.CategoryRow, error)
	recs       []backend.Recommendation
}

func (f *fakeBackend) Total(context.Context, backend.Scope) (backend.Totals, error) {
	f.calls.Add(1)
	return backend.Totals{Emissions: 1500, Present: true}, nil
}

func (f *fakeBackend) ByCategory(ctx context.Context, _ backend.Scope) ([]backend.CategoryRow, error) {
	f.calls.Add(1)
	if f.categories != nil {
		return f.categories(ctx)
	}
	return []backend.CategoryRow{
		{Category: "Electricity", TotalEmissions: num(900)},
		{Category: "Transport", TotalEmissions: num(600)},
	}, nil
}

func (f *fakeBackend) ByDepartment(context.Context, backend.Scope) ([]backend.DepartmentRow, error) {
	f.calls.Add(1)
	return []backend.DepartmentRow{{Department: "Operations", TotalEmissions: num(1500)}}, nil
}

func (f *fakeBackend) ByTime(context.Context, backend.Scope, backend.TimeQuery) ([]backend.TimeRow, error) {
	f.calls.Add(1)
	return []backend.TimeRow{
		{Period: "2025-01", TotalEmissions: num(700)},
		{Period: "2025-02", TotalEmissions: num(800)},
	}, nil
}

func (f *fakeBackend) Recommendations(context.Context, backend.RecommendationQuery) ([]backend.Recommendation, error) {
	return f.recs, nil
}

func (f *fakeBackend) Organizations(context.Context) ([]backend.Organization, error) {
	return []backend.Organization{{ID: "o1", Name: "Acme"}}, nil
}

func (f *fakeBackend) Branches(_ context.Context, orgID string) ([]backend.Branch, error) {
	return []backend.Branch{{ID: "b1", OrgID: backend.ID(orgID), Name: "North"}}, nil
}

func (f *fakeBackend) Departments(_ context.Context, branchID string) ([]backend.Department, error) {
	return []backend.Department{{ID: "3", BranchID: backend.ID(branchID), Name: "Operations"}}, nil
}

func (f *fakeBackend) CreateOrganization(context.Context, backend.CreateOrganization) (*backend.Organization, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeBackend) CreateBranch(context.Context, backend.CreateBranch) (*backend.Branch, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeBackend) CreateDepartment(context.Context, backend.CreateDepartment) (*backend.Department, error) {
	return nil, errors.New("not implemented")
}

type fakeArchive struct {
	mu      sync.Mutex
	reports []*analytics.Report
	err     error
}

func (a *fakeArchive) Archive(_ context.Context, r *analytics.Report) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.reports = append(a.reports, r)
	return "exports/" + r.Filename, a.err
}

func newSystem(src *fakeBackend, archive dashboard.Archive) (dashboard.System, sessions.Store) {
	store := sessions.NewMemoryStore(time.Hour, discard)
	sys := dashboard.New(
		store,
		analytics.New(src, "month", discard),
		recommendations.New(src, discard),
		directory.New(src, discard),
		archive,
		discard,
	)
	return sys, store
}

func TestDispatchPersistsCascade(t *testing.T) {
	sys, _ := newSystem(&fakeBackend{}, nil)
	ctx := context.Background()

	_, err := sys.Dispatch(ctx, "s1",
		filters.SetOrganization("o1"),
		filters.SetBranch("b1"),
		filters.SetDepartment(3),
	)
	require.NoError(t, err)

	state, err := sys.Dispatch(ctx, "s1", filters.SetOrganization("o2"))
	require.NoError(t, err)
	assert.Equal(t, "o2", state.Selection.OrganizationID)
	assert.Empty(t, state.Selection.BranchID)
	assert.Zero(t, state.Selection.DepartmentID)

	sess, err := sys.Session(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, state, sess.Filters)
}

func TestDispatchRejectionLeavesSession(t *testing.T) {
	sys, _ := newSystem(&fakeBackend{}, nil)
	ctx := context.Background()

	_, err := sys.Dispatch(ctx, "s1", filters.SetBranch("b1"))
	require.ErrorIs(t, err, filters.ErrNoOrganization)
	assert.Equal(t, http.StatusConflict, dashboard.MapHTTPStatus(err))

	sess, err := sys.Session(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, filters.State{}, sess.Filters)
}

func TestRefreshWithoutOrganizationFetchesNothing(t *testing.T) {
	src := &fakeBackend{}
	sys, _ := newSystem(src, nil)
	ctx := context.Background()

	_, err := sys.Dispatch(ctx, "s1", filters.Apply())
	require.NoError(t, err)

	d, err := sys.Refresh(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, d.Empty)
	assert.Zero(t, src.calls.Load())
}

func TestRefreshFailureKeepsPreviousDashboard(t *testing.T) {
	src := &fakeBackend{}
	sys, _ := newSystem(src, nil)
	ctx := context.Background()

	_, err := sys.Dispatch(ctx, "s1", filters.SetOrganization("o1"), filters.Apply())
	require.NoError(t, err)

	first, err := sys.Refresh(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, first.Trend, 2)

	src.categories = func(context.Context) ([]backend.CategoryRow, error) {
		return nil, &backend.APIError{Endpoint: "analytics.by-category", StatusCode: 500, Detail: "boom"}
	}
	_, err = sys.Dispatch(ctx, "s1", filters.SetBranch("b1"), filters.Apply())
	require.NoError(t, err)

	prior, err := sys.Refresh(ctx, "s1")
	require.ErrorIs(t, err, analytics.ErrRefreshFailed)
	assert.Equal(t, http.StatusBadGateway, dashboard.MapHTTPStatus(err))
	require.NotNil(t, prior)
	assert.Equal(t, first.Generation, prior.Generation)

	sess, err := sys.Session(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, sess.Dashboard)
	assert.Equal(t, backend.LevelOrganization, sess.Dashboard.Scope.Level)
	assert.Equal(t, first.Trend, sess.Dashboard.Trend)
	assert.Equal(t, "60.0%", sess.Dashboard.KPIs[2].Detail)
}

func TestStaleRefreshIsDiscarded(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once

	src := &fakeBackend{}
	src.categories = func(ctx context.Context) ([]backend.CategoryRow, error) {
		once.Do(func() {
			close(entered)
			<-release
		})
		return []backend.CategoryRow{{Category: "Electricity", TotalEmissions: num(900)}}, nil
	}

	sys, _ := newSystem(src, nil)
	ctx := context.Background()

	_, err := sys.Dispatch(ctx, "s1", filters.SetOrganization("o1"), filters.Apply())
	require.NoError(t, err)

	type result struct {
		d   *analytics.Dashboard
		err error
	}
	done := make(chan result, 1)
	go func() {
		d, err := sys.Refresh(ctx, "s1")
		done <- result{d, err}
	}()

	<-entered
	state, err := sys.Dispatch(ctx, "s1", filters.SetOrganization("o2"), filters.Apply())
	require.NoError(t, err)
	require.Equal(t, uint64(2), state.Generation)
	close(release)

	res := <-done
	require.ErrorIs(t, res.err, dashboard.ErrStale)
	assert.Equal(t, http.StatusConflict, dashboard.MapHTTPStatus(res.err))

	sess, err := sys.Session(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, sess.Dashboard)

	d, err := sys.Refresh(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), d.Generation)
	assert.Equal(t, "o2", d.Scope.ID)
}

func TestExport(t *testing.T) {
	archive := &fakeArchive{}
	sys, _ := newSystem(&fakeBackend{}, archive)
	ctx := context.Background()

	_, err := sys.Export(ctx, "s1")
	require.ErrorIs(t, err, analytics.ErrNothingToExport)
	assert.Empty(t, archive.reports)

	_, err = sys.Dispatch(ctx, "s1", filters.SetOrganization("o1"), filters.Apply())
	require.NoError(t, err)
	_, err = sys.Refresh(ctx, "s1")
	require.NoError(t, err)

	report, err := sys.Export(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(report.Filename, "emissions-org-o1-"))
	assert.Contains(t, string(report.Data), "category,Electricity,,900.00,60.0")
	require.Len(t, archive.reports, 1)
	assert.Equal(t, report.Filename, archive.reports[0].Filename)
}

func TestExportSurvivesArchiveFailure(t *testing.T) {
	archive := &fakeArchive{err: errors.New("container missing")}
	sys, _ := newSystem(&fakeBackend{}, archive)
	ctx := context.Background()

	_, err := sys.Dispatch(ctx, "s1", filters.SetOrganization("o1"), filters.Apply())
	require.NoError(t, err)
	_, err = sys.Refresh(ctx, "s1")
	require.NoError(t, err)

	report, err := sys.Export(ctx, "s1")
	require.NoError(t, err)
	assert.NotEmpty(t, report.Data)
}

func TestOptionsFollowSelection(t *testing.T) {
	sys, _ := newSystem(&fakeBackend{}, nil)
	ctx := context.Background()

	opts, err := sys.Options(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, opts.Organizations, 1)
	assert.Empty(t, opts.Branches)
	assert.Empty(t, opts.Departments)

	_, err = sys.Dispatch(ctx, "s1", filters.SetOrganization("o1"), filters.SetBranch("b1"))
	require.NoError(t, err)

	opts, err = sys.Options(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, opts.Branches, 1)
	assert.Len(t, opts.Departments, 1)
}

func TestRecommendationsUseAppliedSnapshot(t *testing.T) {
	sys, _ := newSystem(&fakeBackend{recs: []backend.Recommendation{{Action: "LED retrofit", Difficulty: "Low"}}}, nil)
	ctx := context.Background()

	_, err := sys.Dispatch(ctx, "s1", filters.SetOrganization("o1"))
	require.NoError(t, err)

	view, err := sys.Recommendations(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, view.Empty, "live selection must not drive queries before Apply")

	_, err = sys.Dispatch(ctx, "s1", filters.Apply())
	require.NoError(t, err)

	view, err = sys.Recommendations(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
}

func TestFlashIsConsumedOnce(t *testing.T) {
	sys, _ := newSystem(&fakeBackend{}, nil)
	ctx := context.Background()

	flash, err := sys.TakeFlash(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, flash)

	require.NoError(t, sys.SetFlash(ctx, "s1", sessions.FlashSuccess, "Branch created"))

	flash, err = sys.TakeFlash(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, flash)
	assert.Equal(t, "Branch created", flash.Message)

	flash, err = sys.TakeFlash(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, flash)
}

func newServer(sys dashboard.System) http.Handler {
	mux := http.NewServeMux()
	routes.Register(mux, sys.Handler().Routes())

	cfg := &sessions.Config{}
	if err := cfg.Finalize(nil); err != nil {
		panic(err)
	}
	return sessions.Middleware(cfg)(mux)
}

func TestHandlerFlow(t *testing.T) {
	sys, _ := newSystem(&fakeBackend{}, nil)
	srv := newServer(sys)

	var cookie *http.Cookie
	do := func(method, target, body string) *httptest.ResponseRecorder {
		var r io.Reader
		if body != "" {
			r = strings.NewReader(body)
		}
		req := httptest.NewRequest(method, target, r)
		if cookie != nil {
			req.AddCookie(cookie)
		}
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		if cookies := rec.Result().Cookies(); len(cookies) > 0 {
			cookie = cookies[0]
		}
		return rec
	}

	rec := do(http.MethodPost, "/filters/branch", `{"id":"b1"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(http.MethodGet, "/analytics/export", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Header().Get("Content-Disposition"))

	rec = do(http.MethodPost, "/filters/organization", `{"id":"o1"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(http.MethodPost, "/filters/date-range", `{"from":"2025-03-01","to":"2025-01-01"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(http.MethodPost, "/filters/apply", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var state filters.State
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&state))
	assert.Equal(t, "o1", state.Applied.OrganizationID)
	assert.Equal(t, uint64(1), state.Generation)

	rec = do(http.MethodGet, "/analytics", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var d analytics.Dashboard
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&d))
	assert.Equal(t, 1500.0, d.Total)

	rec = do(http.MethodGet, "/analytics/export", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, analytics.ContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename="emissions-org-o1-`)

	rec = do(http.MethodPost, "/filters/organization", `{"id":null}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var cleared filters.State
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&cleared))
	assert.Empty(t, cleared.Selection.OrganizationID)
	assert.Equal(t, "o1", cleared.Applied.OrganizationID)
	assert.True(t, cleared.Pending())
}

func TestHandlerRejectsBadBody(t *testing.T) {
	sys, _ := newSystem(&fakeBackend{}, nil)
	srv := newServer(sys)

	req := httptest.NewRequest(http.MethodPost, "/filters/department", bytes.NewBufferString(`{"id":"x"}`))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), dashboard.ErrInvalidBody.Error())
}

func TestHandlerWithoutSession(t *testing.T) {
	sys, _ := newSystem(&fakeBackend{}, nil)
	mux := http.NewServeMux()
	routes.Register(mux, sys.Handler().Routes())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/filters", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

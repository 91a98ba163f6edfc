package app

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/JaimeStill/setu/internal/analytics"
	"github.com/JaimeStill/setu/internal/dashboard"
	"github.com/JaimeStill/setu/internal/directory"
	"github.com/JaimeStill/setu/internal/emissions"
	"github.com/JaimeStill/setu/internal/filters"
	"github.com/JaimeStill/setu/internal/recommendations"
	"github.com/JaimeStill/setu/internal/sessions"
	"github.com/JaimeStill/setu/pkg/backend"
	"github.com/JaimeStill/setu/pkg/formatting"
	"github.com/JaimeStill/setu/pkg/handlers"
	"github.com/JaimeStill/setu/pkg/routes"
	"github.com/JaimeStill/setu/pkg/web"
)

// AnalyticsError replaces refresh failure detail on the analytics page.
const AnalyticsError = "Failed to load analytics data. Please ensure the backend is running."

type handler struct {
	ts        *web.TemplateSet
	dashboard dashboard.System
	directory directory.System
	emissions emissions.System
	logger    *slog.Logger
}

func newHandler(ts *web.TemplateSet, sys Systems, logger *slog.Logger) *handler {
	return &handler{
		ts:        ts,
		dashboard: sys.Dashboard,
		directory: sys.Directory,
		emissions: sys.Emissions,
		logger:    logger.With("handler", "app"),
	}
}

func (h *handler) routes() routes.Group {
	return routes.Group{
		Routes: []routes.Route{
			{Method: "GET", Pattern: analyticsView.Route, Handler: h.analytics},
			{Method: "GET", Pattern: "/analytics/export", Handler: h.export},
			{Method: "GET", Pattern: recommendationsView.Route, Handler: h.recommendations},
			{Method: "GET", Pattern: dataView.Route, Handler: h.data},
			{Method: "POST", Pattern: "/filters", Handler: h.filters},
		},
		Children: []routes.Group{
			{
				Prefix: "/data",
				Routes: []routes.Route{
					{Method: "POST", Pattern: "/organizations", Handler: h.createOrganization},
					{Method: "POST", Pattern: "/branches", Handler: h.createBranch},
					{Method: "POST", Pattern: "/departments", Handler: h.createDepartment},
					{Method: "POST", Pattern: "/logs/manual", Handler: h.logManual},
					{Method: "POST", Pattern: "/logs/csv", Handler: h.logCSV},
				},
			},
		},
	}
}

// filterBar is the model for the shared filter form.
type filterBar struct {
	State   filters.State
	Options directory.Options
	Periods []string
	Return  string
}

type analyticsPage struct {
	Filters   filterBar
	Dashboard *analytics.Dashboard
	Error     string
}

type recommendationsPage struct {
	Filters filterBar
	View    *recommendations.View
}

type dataPage struct {
	dataLocation
	Tabs       []string
	Options    directory.Options
	Categories []string
	Today      string
	MaxUpload  string
}

func (h *handler) analytics(w http.ResponseWriter, r *http.Request) {
	id, ok := sessions.FromContext(r.Context())
	if !ok {
		h.fail(w, sessions.ErrNoSession)
		return
	}

	bar, sess, err := h.filterBar(r, id, analyticsView.Route)
	if err != nil {
		h.fail(w, err)
		return
	}

	page := analyticsPage{Filters: bar, Dashboard: sess.Dashboard}

	if page.Dashboard == nil || page.Dashboard.Generation != sess.Filters.Generation {
		d, err := h.dashboard.Refresh(r.Context(), id)
		switch {
		case errors.Is(err, dashboard.ErrStale):
			// a newer Apply landed mid-refresh; show what that one stored
			if latest, err := h.dashboard.Session(r.Context(), id); err == nil {
				page.Dashboard = latest.Dashboard
			}
		case err != nil:
			h.logger.WarnContext(r.Context(), "analytics refresh failed", "session", id, "error", err)
			page.Dashboard = d
			page.Error = AnalyticsError
		default:
			page.Dashboard = d
		}
	}
	if page.Dashboard == nil {
		page.Dashboard = analytics.EmptyDashboard(sess.Filters.Generation)
	}

	h.render(w, r, id, analyticsView, page)
}

func (h *handler) export(w http.ResponseWriter, r *http.Request) {
	id, ok := sessions.FromContext(r.Context())
	if !ok {
		h.fail(w, sessions.ErrNoSession)
		return
	}

	report, err := h.dashboard.Export(r.Context(), id)
	if errors.Is(err, analytics.ErrNothingToExport) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		handlers.RespondError(w, h.logger, dashboard.MapHTTPStatus(err), err)
		return
	}
	handlers.RespondAttachment(w, analytics.ContentType, report.Filename, report.Data)
}

func (h *handler) recommendations(w http.ResponseWriter, r *http.Request) {
	id, ok := sessions.FromContext(r.Context())
	if !ok {
		h.fail(w, sessions.ErrNoSession)
		return
	}

	bar, _, err := h.filterBar(r, id, recommendationsView.Route)
	if err != nil {
		h.fail(w, err)
		return
	}

	view, err := h.dashboard.Recommendations(r.Context(), id)
	if view == nil {
		h.fail(w, err)
		return
	}
	if err != nil {
		h.logger.WarnContext(r.Context(), "recommendations load failed", "session", id, "error", err)
	}

	h.render(w, r, id, recommendationsView, recommendationsPage{Filters: bar, View: view})
}

func (h *handler) data(w http.ResponseWriter, r *http.Request) {
	id, ok := sessions.FromContext(r.Context())
	if !ok {
		h.fail(w, sessions.ErrNoSession)
		return
	}

	loc := dataLocationForm(r, tabOrganization)
	page := dataPage{
		dataLocation: loc,
		Tabs:         tabs,
		Options:      h.directory.Cascade(r.Context(), loc.OrgID, loc.BranchID),
		Categories:   categories,
		Today:        time.Now().Format("2006-01-02"),
		MaxUpload:    formatting.FormatBytes(h.emissions.MaxUploadSize()),
	}

	h.render(w, r, id, dataView, page)
}

// filters applies a filter bar submission. Changed levels are reconciled
// through the reducer so the cascade holds, then the selection is applied
// or reset when the submit button asks for it.
func (h *handler) filters(w http.ResponseWriter, r *http.Request) {
	id, ok := sessions.FromContext(r.Context())
	if !ok {
		h.fail(w, sessions.ErrNoSession)
		return
	}

	target := web.JoinPath(h.ts.BasePath(), returnRoute(r))

	var actions []filters.Action
	switch r.FormValue("action") {
	case actionReset:
		actions = append(actions, filters.Reset())
	default:
		sess, err := h.dashboard.Session(r.Context(), id)
		if err != nil {
			h.fail(w, err)
			return
		}
		actions = filters.Reconcile(sess.Filters.Selection, selectionForm(r))
		if r.FormValue("action") == actionApply {
			actions = append(actions, filters.Apply())
		}
	}

	if len(actions) > 0 {
		if _, err := h.dashboard.Dispatch(r.Context(), id, actions...); err != nil {
			h.flash(r, id, sessions.FlashError, message(err))
		}
	}

	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (h *handler) createOrganization(w http.ResponseWriter, r *http.Request) {
	loc := dataLocationForm(r, tabOrganization)
	org, err := h.directory.CreateOrganization(r.Context(), organizationForm(r))
	if err == nil {
		loc.OrgID = string(org.ID)
		loc.BranchID = ""
	}
	h.afterSubmit(w, r, loc, err, func() string {
		return fmt.Sprintf("Organization %q created.", org.Name)
	})
}

func (h *handler) createBranch(w http.ResponseWriter, r *http.Request) {
	loc := dataLocationForm(r, tabBranch)
	branch, err := h.directory.CreateBranch(r.Context(), branchForm(r))
	if err == nil && branch.OrgID != "" {
		loc.OrgID = string(branch.OrgID)
		loc.BranchID = string(branch.ID)
	}
	h.afterSubmit(w, r, loc, err, func() string {
		return fmt.Sprintf("Branch %q created.", branch.Name)
	})
}

func (h *handler) createDepartment(w http.ResponseWriter, r *http.Request) {
	loc := dataLocationForm(r, tabDepartment)
	dept, err := h.directory.CreateDepartment(r.Context(), departmentForm(r))
	h.afterSubmit(w, r, loc, err, func() string {
		return fmt.Sprintf("Department %q created.", dept.Name)
	})
}

func (h *handler) logManual(w http.ResponseWriter, r *http.Request) {
	loc := dataLocationForm(r, tabLogs)
	res, err := h.emissions.LogManual(r.Context(), manualLogForm(r))
	h.afterSubmit(w, r, loc, err, func() string {
		return fmt.Sprintf("Emission logged: %s CO₂e.", formatting.FormatEmissions(res.CO2eKg))
	})
}

func (h *handler) logCSV(w http.ResponseWriter, r *http.Request) {
	upload, err := emissions.ReadUpload(w, r, h.emissions.MaxUploadSize())
	loc := dataLocationForm(r, tabLogs)

	var res *backend.CSVLogResult
	if err == nil {
		res, err = h.emissions.LogCSV(r.Context(), *upload)
	}
	h.afterSubmit(w, r, loc, err, func() string {
		return fmt.Sprintf("Processed %d rows from %s.", res.RowsProcessed, upload.Filename)
	})
}

// afterSubmit flashes the outcome of a data form and redirects back to the
// tab it came from. success is only called when err is nil.
func (h *handler) afterSubmit(w http.ResponseWriter, r *http.Request, loc dataLocation, err error, success func() string) {
	id, ok := sessions.FromContext(r.Context())
	if !ok {
		h.fail(w, sessions.ErrNoSession)
		return
	}

	if err != nil {
		h.logger.InfoContext(r.Context(), "form submission rejected", "tab", loc.Tab, "error", err)
		h.flash(r, id, sessions.FlashError, message(err))
	} else {
		h.flash(r, id, sessions.FlashSuccess, success())
	}

	http.Redirect(w, r, web.JoinPath(h.ts.BasePath(), dataView.Route)+"?"+loc.query(), http.StatusSeeOther)
}

func (h *handler) flash(r *http.Request, id string, kind sessions.FlashKind, msg string) {
	if err := h.dashboard.SetFlash(r.Context(), id, kind, msg); err != nil {
		h.logger.WarnContext(r.Context(), "set flash failed", "session", id, "error", err)
	}
}

func (h *handler) filterBar(r *http.Request, id, route string) (filterBar, *sessions.Session, error) {
	sess, err := h.dashboard.Session(r.Context(), id)
	if err != nil {
		return filterBar{}, nil, err
	}

	sel := sess.Filters.Selection
	return filterBar{
		State:   sess.Filters,
		Options: h.directory.Cascade(r.Context(), sel.OrganizationID, sel.BranchID),
		Periods: backend.Periods,
		Return:  route,
	}, sess, nil
}

func (h *handler) render(w http.ResponseWriter, r *http.Request, id string, view web.ViewDef, data any) {
	vd := h.ts.Data(view, data)

	flash, err := h.dashboard.TakeFlash(r.Context(), id)
	if err != nil {
		h.logger.WarnContext(r.Context(), "take flash failed", "session", id, "error", err)
	}
	if flash != nil {
		vd.Notice = &web.Notice{Kind: string(flash.Kind), Message: flash.Message}
	}

	if err := h.ts.Render(w, http.StatusOK, layout, view.Template, vd); err != nil {
		h.logger.ErrorContext(r.Context(), "render failed", "template", view.Template, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *handler) fail(w http.ResponseWriter, err error) {
	h.logger.Error("page failed", "error", err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// message is the flash text for a failed submission: the backend detail
// for upstream rejections, the error text otherwise.
func message(err error) string {
	return backend.Detail(err)
}

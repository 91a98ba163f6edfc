package dashboard

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/JaimeStill/setu/internal/analytics"
	"github.com/JaimeStill/setu/internal/filters"
	"github.com/JaimeStill/setu/internal/sessions"
	"github.com/JaimeStill/setu/pkg/handlers"
	"github.com/JaimeStill/setu/pkg/routes"
)

// Handler provides the session-scoped JSON endpoints: filter transitions,
// the analytics dashboard and its export, and recommendations. Requests
// must pass through sessions.Middleware.
type Handler struct {
	sys    System
	logger *slog.Logger
}

// NewHandler creates a Handler with the given system and logger.
func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "dashboard"),
	}
}

// Routes returns the route groups for filter, analytics, and recommendation endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Children: []routes.Group{
			{
				Prefix: "/filters",
				Routes: []routes.Route{
					{Method: "GET", Pattern: "", Handler: h.State},
					{Method: "GET", Pattern: "/options", Handler: h.Options},
					{Method: "POST", Pattern: "/organization", Handler: h.SetOrganization},
					{Method: "POST", Pattern: "/branch", Handler: h.SetBranch},
					{Method: "POST", Pattern: "/department", Handler: h.SetDepartment},
					{Method: "POST", Pattern: "/date-range", Handler: h.SetDateRange},
					{Method: "POST", Pattern: "/period", Handler: h.SetPeriod},
					{Method: "POST", Pattern: "/apply", Handler: h.Apply},
					{Method: "POST", Pattern: "/reset", Handler: h.Reset},
				},
			},
			{
				Prefix: "/analytics",
				Routes: []routes.Route{
					{Method: "GET", Pattern: "", Handler: h.Analytics},
					{Method: "GET", Pattern: "/export", Handler: h.Export},
				},
			},
			{
				Prefix: "/recommendations",
				Routes: []routes.Route{
					{Method: "GET", Pattern: "", Handler: h.Recommendations},
				},
			},
		},
	}
}

type idRequest[T any] struct {
	ID *T `json:"id"`
}

type dateRangeRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type periodRequest struct {
	Period string `json:"period"`
}

func sessionID(r *http.Request) (string, error) {
	id, ok := sessions.FromContext(r.Context())
	if !ok {
		return "", sessions.ErrNoSession
	}
	return id, nil
}

func decode[T any](r *http.Request) (T, error) {
	var v T
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		return v, ErrInvalidBody
	}
	return v, nil
}

func (h *Handler) State(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	sess, err := h.sys.Session(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, sess.Filters)
}

func (h *Handler) Options(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	opts, err := h.sys.Options(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, opts)
}

func (h *Handler) SetOrganization(w http.ResponseWriter, r *http.Request) {
	req, err := decode[idRequest[string]](r)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	action := filters.ClearOrganization()
	if req.ID != nil && *req.ID != "" {
		action = filters.SetOrganization(*req.ID)
	}
	h.dispatch(w, r, action)
}

func (h *Handler) SetBranch(w http.ResponseWriter, r *http.Request) {
	req, err := decode[idRequest[string]](r)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	action := filters.ClearBranch()
	if req.ID != nil && *req.ID != "" {
		action = filters.SetBranch(*req.ID)
	}
	h.dispatch(w, r, action)
}

func (h *Handler) SetDepartment(w http.ResponseWriter, r *http.Request) {
	req, err := decode[idRequest[int]](r)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	action := filters.ClearDepartment()
	if req.ID != nil {
		action = filters.SetDepartment(*req.ID)
	}
	h.dispatch(w, r, action)
}

func (h *Handler) SetDateRange(w http.ResponseWriter, r *http.Request) {
	req, err := decode[dateRangeRequest](r)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	action := filters.ClearDateRange()
	if req.From != "" || req.To != "" {
		action = filters.SetDateRange(req.From, req.To)
	}
	h.dispatch(w, r, action)
}

func (h *Handler) SetPeriod(w http.ResponseWriter, r *http.Request) {
	req, err := decode[periodRequest](r)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	h.dispatch(w, r, filters.SetPeriod(req.Period))
}

func (h *Handler) Apply(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, filters.Apply())
}

func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, filters.Reset())
}

func (h *Handler) dispatch(w http.ResponseWriter, r *http.Request, actions ...filters.Action) {
	id, err := sessionID(r)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	state, err := h.sys.Dispatch(r.Context(), id, actions...)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, state)
}

// Analytics refreshes and returns the dashboard for the applied snapshot.
func (h *Handler) Analytics(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	d, err := h.sys.Refresh(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, d)
}

// Export downloads the stored dashboard as CSV. It answers 204 when there
// is no category data to export.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	report, err := h.sys.Export(r.Context(), id)
	if errors.Is(err, analytics.ErrNothingToExport) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondAttachment(w, analytics.ContentType, report.Filename, report.Data)
}

func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	view, err := h.sys.Recommendations(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, view)
}

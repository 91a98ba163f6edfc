package directory

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/JaimeStill/setu/pkg/backend"
	"github.com/JaimeStill/setu/pkg/handlers"
	"github.com/JaimeStill/setu/pkg/routes"
)

// Handler provides HTTP endpoints for the organization hierarchy.
type Handler struct {
	sys    System
	logger *slog.Logger
}

// NewHandler creates a Handler with the given system and logger.
func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "directory"),
	}
}

// Routes returns the route group definition for directory endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/organizations", Handler: h.ListOrganizations},
			{Method: "POST", Pattern: "/organizations", Handler: h.CreateOrganization},
			{Method: "GET", Pattern: "/organizations/{id}/branches", Handler: h.ListBranches},
			{Method: "POST", Pattern: "/branches", Handler: h.CreateBranch},
			{Method: "GET", Pattern: "/branches/{id}/departments", Handler: h.ListDepartments},
			{Method: "POST", Pattern: "/departments", Handler: h.CreateDepartment},
			{Method: "GET", Pattern: "/cascade", Handler: h.Cascade},
		},
	}
}

func (h *Handler) ListOrganizations(w http.ResponseWriter, r *http.Request) {
	orgs, err := h.sys.Organizations(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, orgs)
}

func (h *Handler) ListBranches(w http.ResponseWriter, r *http.Request) {
	branches, err := h.sys.Branches(r.Context(), r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, branches)
}

func (h *Handler) ListDepartments(w http.ResponseWriter, r *http.Request) {
	depts, err := h.sys.Departments(r.Context(), r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, depts)
}

// Cascade returns the select options for the org_id and branch_id query parameters.
func (h *Handler) Cascade(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	handlers.RespondJSON(w, http.StatusOK, h.sys.Cascade(r.Context(), q.Get("org_id"), q.Get("branch_id")))
}

func (h *Handler) CreateOrganization(w http.ResponseWriter, r *http.Request) {
	var cmd backend.CreateOrganization
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidBody)
		return
	}

	org, err := h.sys.CreateOrganization(r.Context(), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusCreated, org)
}

func (h *Handler) CreateBranch(w http.ResponseWriter, r *http.Request) {
	var cmd backend.CreateBranch
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidBody)
		return
	}

	branch, err := h.sys.CreateBranch(r.Context(), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusCreated, branch)
}

func (h *Handler) CreateDepartment(w http.ResponseWriter, r *http.Request) {
	var cmd backend.CreateDepartment
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidBody)
		return
	}

	dept, err := h.sys.CreateDepartment(r.Context(), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusCreated, dept)
}

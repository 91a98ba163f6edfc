// Package filters implements the cascading organization, branch, and
// department selection that drives every analytics and recommendation query.
//
// All transitions go through Reduce, which enforces the cascade in one
// place: choosing a new organization clears branch and department, choosing
// a new branch clears department. Queries are keyed off the Applied
// snapshot, which only changes on an explicit Apply action.
package filters

import (
	"strconv"

	"github.com/JaimeStill/setu/pkg/backend"
)

// DateRange bounds trend and recommendation queries. Dates use YYYY-MM-DD.
type DateRange struct {
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
}

// IsZero reports whether neither bound is set.
func (r DateRange) IsZero() bool {
	return r.From == "" && r.To == ""
}

// Selection is one set of filter values. Empty strings and a zero
// DepartmentID mean "not selected".
type Selection struct {
	OrganizationID string    `json:"organization_id,omitempty"`
	BranchID       string    `json:"branch_id,omitempty"`
	DepartmentID   int       `json:"department_id,omitempty"`
	DateRange      DateRange `json:"date_range"`
	Period         string    `json:"period,omitempty"`
}

// HasOrganization reports whether an organization is selected.
func (s Selection) HasOrganization() bool {
	return s.OrganizationID != ""
}

// Scope resolves the deepest selected level: department, then branch, then
// organization. It returns false when no organization is selected.
func (s Selection) Scope() (backend.Scope, bool) {
	switch {
	case s.OrganizationID == "":
		return backend.Scope{}, false
	case s.DepartmentID > 0:
		return backend.Scope{
			Level: backend.LevelDepartment,
			ID:    strconv.Itoa(s.DepartmentID),
		}, true
	case s.BranchID != "":
		return backend.Scope{Level: backend.LevelBranch, ID: s.BranchID}, true
	default:
		return backend.Scope{Level: backend.LevelOrganization, ID: s.OrganizationID}, true
	}
}

// TimeQuery builds the by-time parameters, using fallback when no period is selected.
func (s Selection) TimeQuery(fallback string) backend.TimeQuery {
	period := s.Period
	if period == "" {
		period = fallback
	}
	return backend.TimeQuery{
		Period:    period,
		StartDate: s.DateRange.From,
		EndDate:   s.DateRange.To,
	}
}

// RecommendationQuery builds the recommendation parameters for the selection.
func (s Selection) RecommendationQuery() backend.RecommendationQuery {
	return backend.RecommendationQuery{
		OrgID:     s.OrganizationID,
		BranchID:  s.BranchID,
		DeptID:    s.DepartmentID,
		StartDate: s.DateRange.From,
		EndDate:   s.DateRange.To,
	}
}

// State holds the live selection, the applied snapshot, and a generation
// counter that increments on every Apply.
type State struct {
	Selection  Selection `json:"selection"`
	Applied    Selection `json:"applied"`
	Generation uint64    `json:"generation"`
}

// Pending reports whether the live selection differs from the applied snapshot.
func (s State) Pending() bool {
	return s.Selection != s.Applied
}

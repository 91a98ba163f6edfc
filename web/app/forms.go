package app

import (
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/JaimeStill/setu/internal/filters"
	"github.com/JaimeStill/setu/pkg/backend"
)

// Tabs on the data management page.
const (
	tabOrganization = "organization"
	tabBranch       = "branch"
	tabDepartment   = "department"
	tabLogs         = "logs"
)

var tabs = []string{tabOrganization, tabBranch, tabDepartment, tabLogs}

// Categories offered by the manual log form.
var categories = []string{"Electricity", "Transport", "Waste", "Water", "Heating", "Travel"}

// Filter form submit actions.
const (
	actionUpdate = "update"
	actionApply  = "apply"
	actionReset  = "reset"
)

func formInt(r *http.Request, key string) int {
	n, err := strconv.Atoi(strings.TrimSpace(r.FormValue(key)))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func formFloat(r *http.Request, key string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(r.FormValue(key)), 64)
	if err != nil {
		return 0
	}
	return f
}

func formString(r *http.Request, key string) string {
	return strings.TrimSpace(r.FormValue(key))
}

// selectionForm reads a filter bar submission.
func selectionForm(r *http.Request) filters.Selection {
	return filters.Selection{
		OrganizationID: formString(r, "org_id"),
		BranchID:       formString(r, "branch_id"),
		DepartmentID:   formInt(r, "dept_id"),
		DateRange: filters.DateRange{
			From: formString(r, "from"),
			To:   formString(r, "to"),
		},
		Period: formString(r, "period"),
	}
}

// returnRoute resolves the page a filter submission goes back to.
func returnRoute(r *http.Request) string {
	switch r.FormValue("return") {
	case recommendationsView.Route:
		return recommendationsView.Route
	default:
		return analyticsView.Route
	}
}

// dataLocation is the position on the data page a form submits from.
type dataLocation struct {
	Tab      string
	OrgID    string
	BranchID string
}

func dataLocationForm(r *http.Request, fallbackTab string) dataLocation {
	loc := dataLocation{
		Tab:      formString(r, "tab"),
		OrgID:    formString(r, "org_id"),
		BranchID: formString(r, "branch_id"),
	}
	if !validTab(loc.Tab) {
		loc.Tab = fallbackTab
	}
	if loc.OrgID == "" {
		loc.BranchID = ""
	}
	return loc
}

func (l dataLocation) query() string {
	q := url.Values{}
	q.Set("tab", l.Tab)
	if l.OrgID != "" {
		q.Set("org_id", l.OrgID)
	}
	if l.BranchID != "" {
		q.Set("branch_id", l.BranchID)
	}
	return q.Encode()
}

func validTab(tab string) bool {
	return slices.Contains(tabs, tab)
}

func organizationForm(r *http.Request) backend.CreateOrganization {
	return backend.CreateOrganization{
		Name:        formString(r, "name"),
		Description: formString(r, "description"),
	}
}

func branchForm(r *http.Request) backend.CreateBranch {
	return backend.CreateBranch{
		OrgID:    formString(r, "org_id"),
		Name:     formString(r, "name"),
		Location: formString(r, "location"),
	}
}

func departmentForm(r *http.Request) backend.CreateDepartment {
	return backend.CreateDepartment{
		BranchID: formString(r, "branch_id"),
		Name:     formString(r, "name"),
	}
}

func manualLogForm(r *http.Request) backend.ManualLog {
	return backend.ManualLog{
		DeptID:       formInt(r, "dept_id"),
		Category:     formString(r, "category"),
		Activity:     formString(r, "activity"),
		Value:        formFloat(r, "value"),
		Unit:         formString(r, "unit"),
		ActivityDate: formString(r, "activity_date"),
	}
}

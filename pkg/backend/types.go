package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ID is an identifier the backend may encode as either a JSON string or number.
type ID string

// UnmarshalJSON accepts string, number, and null encodings.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string {
	return string(id)
}

// Int parses the identifier as an integer, returning 0 when it is not numeric.
func (id ID) Int() int {
	n, err := strconv.Atoi(string(id))
	if err != nil {
		return 0
	}
	return n
}

// Number is an emissions quantity. Postgres numeric columns surface through
// the backend as JSON strings, so both encodings are accepted.
type Number float64

// UnmarshalJSON accepts number, numeric string, and null encodings.
func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*n = 0
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("number: %w", err)
		}
		*n = Number(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("number: %w", err)
	}
	*n = Number(f)
	return nil
}

// Level is the hierarchy level an analytics query is scoped to.
type Level string

const (
	LevelOrganization Level = "org"
	LevelBranch       Level = "branch"
	LevelDepartment   Level = "department"
)

// Scope addresses the analytics endpoints for one entity.
type Scope struct {
	Level Level  `json:"level"`
	ID    string `json:"id"`
}

func (s Scope) path(metric string) string {
	return "analytics/" + string(s.Level) + "/" + url.PathEscape(s.ID) + "/" + metric
}

func (s Scope) String() string {
	return string(s.Level) + ":" + s.ID
}

// Organization is the top level of the reporting hierarchy.
type Organization struct {
	ID          ID     `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// Branch belongs to an organization.
type Branch struct {
	ID        ID     `json:"id"`
	OrgID     ID     `json:"org_id"`
	Name      string `json:"name"`
	Location  string `json:"location,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// Department belongs to a branch and is the unit emission logs attach to.
type Department struct {
	ID        ID     `json:"id"`
	BranchID  ID     `json:"branch_id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at,omitempty"`
}

// EmissionLog is a recorded activity value with its CO2-equivalent.
type EmissionLog struct {
	ID           ID     `json:"id"`
	DeptID       ID     `json:"dept_id"`
	FactorID     ID     `json:"factor_id,omitempty"`
	Value        Number `json:"value"`
	CO2eKg       Number `json:"co2e_kg"`
	EntryType    string `json:"entry_type,omitempty"`
	ActivityDate string `json:"activity_date,omitempty"`
}

// ManualLogResult is the outcome of a manual log submission.
type ManualLogResult struct {
	Log    EmissionLog `json:"log"`
	CO2eKg float64     `json:"co2e_kg"`
}

// CSVLogResult is the outcome of a CSV log upload.
type CSVLogResult struct {
	RowsProcessed int `json:"rows_processed"`
}

// Recommendation is a reduction action proposed by the backend.
type Recommendation struct {
	ID           string `json:"id,omitempty"`
	Action       string `json:"action"`
	Description  string `json:"description"`
	Impact       string `json:"impact"`
	Difficulty   string `json:"difficulty"`
	Category     string `json:"category,omitempty"`
	CostEstimate string `json:"cost_estimate,omitempty"`
}

// Totals is the total-emissions response. The backend returns either a list
// of rows, a single row, or a bare number depending on the aggregation used.
type Totals struct {
	Emissions float64 `json:"emissions"`
	Present   bool    `json:"present"`
}

type totalRow struct {
	TotalEmissions *Number `json:"total_emissions"`
	TotalCO2eKg    *Number `json:"total_co2e_kg"`
}

func (r totalRow) value() (float64, bool) {
	if r.TotalEmissions != nil {
		return float64(*r.TotalEmissions), true
	}
	if r.TotalCO2eKg != nil {
		return float64(*r.TotalCO2eKg), true
	}
	return 0, false
}

// UnmarshalJSON normalizes the heterogeneous total encodings.
func (t *Totals) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*t = Totals{}

	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	switch data[0] {
	case '[':
		var rows []json.RawMessage
		if err := json.Unmarshal(data, &rows); err != nil {
			return fmt.Errorf("totals: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		return t.UnmarshalJSON(rows[0])
	case '{':
		var row totalRow
		if err := json.Unmarshal(data, &row); err != nil {
			return fmt.Errorf("totals: %w", err)
		}
		t.Emissions, t.Present = row.value()
		return nil
	default:
		var n Number
		if err := n.UnmarshalJSON(data); err != nil {
			return fmt.Errorf("totals: %w", err)
		}
		t.Emissions, t.Present = float64(n), true
		return nil
	}
}

// CategoryRow is one entry of a by-category breakdown.
type CategoryRow struct {
	Category       string  `json:"category,omitempty"`
	CategoryName   string  `json:"category_name,omitempty"`
	TotalEmissions *Number `json:"total_emissions,omitempty"`
	TotalCO2eKg    *Number `json:"total_co2e_kg,omitempty"`
}

// Emissions returns the row value, preferring total_emissions.
func (r CategoryRow) Emissions() float64 {
	return pick(r.TotalEmissions, r.TotalCO2eKg)
}

// DepartmentRow is one entry of a by-department breakdown.
type DepartmentRow struct {
	DeptID         ID      `json:"dept_id,omitempty"`
	Department     string  `json:"department,omitempty"`
	DepartmentName string  `json:"department_name,omitempty"`
	DeptName       string  `json:"dept_name,omitempty"`
	Name           string  `json:"name,omitempty"`
	Category       string  `json:"category,omitempty"`
	TotalEmissions *Number `json:"total_emissions,omitempty"`
	TotalCO2eKg    *Number `json:"total_co2e_kg,omitempty"`
}

// Emissions returns the row value, preferring total_emissions.
func (r DepartmentRow) Emissions() float64 {
	return pick(r.TotalEmissions, r.TotalCO2eKg)
}

// TimeRow is one bucket of a by-time breakdown.
type TimeRow struct {
	Period         string  `json:"period,omitempty"`
	Label          string  `json:"label,omitempty"`
	TotalEmissions *Number `json:"total_emissions,omitempty"`
	TotalCO2eKg    *Number `json:"total_co2e_kg,omitempty"`
}

// Emissions returns the bucket value, preferring total_emissions.
func (r TimeRow) Emissions() float64 {
	return pick(r.TotalEmissions, r.TotalCO2eKg)
}

func pick(primary, fallback *Number) float64 {
	if primary != nil {
		return float64(*primary)
	}
	if fallback != nil {
		return float64(*fallback)
	}
	return 0
}

// TimeQuery carries the optional by-time parameters.
type TimeQuery struct {
	Period    string
	StartDate string
	EndDate   string
}

func (q TimeQuery) values() url.Values {
	v := url.Values{}
	if q.Period != "" {
		v.Set("period", q.Period)
	}
	if q.StartDate != "" {
		v.Set("start_date", q.StartDate)
	}
	if q.EndDate != "" {
		v.Set("end_date", q.EndDate)
	}
	return v
}

// RecommendationQuery scopes a recommendations request. Zero values are omitted.
type RecommendationQuery struct {
	OrgID     string
	BranchID  string
	DeptID    int
	StartDate string
	EndDate   string
}

func (q RecommendationQuery) values() url.Values {
	v := url.Values{}
	if q.OrgID != "" {
		v.Set("org_id", q.OrgID)
	}
	if q.BranchID != "" {
		v.Set("branch_id", q.BranchID)
	}
	if q.DeptID > 0 {
		v.Set("dept_id", strconv.Itoa(q.DeptID))
	}
	if q.StartDate != "" {
		v.Set("start_date", q.StartDate)
	}
	if q.EndDate != "" {
		v.Set("end_date", q.EndDate)
	}
	return v
}

// CreateOrganization is the payload for POST organizations.
type CreateOrganization struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description,omitempty" validate:"max=500"`
}

// CreateBranch is the payload for POST branches.
type CreateBranch struct {
	OrgID    string `json:"org_id" validate:"required"`
	Name     string `json:"name" validate:"required,max=200"`
	Location string `json:"location,omitempty" validate:"max=200"`
}

// CreateDepartment is the payload for POST departments.
type CreateDepartment struct {
	BranchID string `json:"branch_id" validate:"required"`
	Name     string `json:"name" validate:"required,max=200"`
}

// ManualLog is the payload for POST log/manual.
type ManualLog struct {
	DeptID       int     `json:"dept_id" validate:"gt=0"`
	Category     string  `json:"category" validate:"required"`
	Activity     string  `json:"activity" validate:"required"`
	Value        float64 `json:"value" validate:"gt=0"`
	Unit         string  `json:"unit,omitempty"`
	ActivityDate string  `json:"activity_date" validate:"required,datetime=2006-01-02"`
}

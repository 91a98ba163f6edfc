package filters

import (
	"fmt"
	"slices"
	"time"

	"github.com/JaimeStill/setu/pkg/backend"
)

// DefaultPeriod is used when no trend period has been selected.
const DefaultPeriod = "month"

const dateLayout = "2006-01-02"

// Kind identifies a filter transition.
type Kind string

const (
	KindSetOrganization Kind = "set_organization"
	KindSetBranch       Kind = "set_branch"
	KindSetDepartment   Kind = "set_department"
	KindSetDateRange    Kind = "set_date_range"
	KindSetPeriod       Kind = "set_period"
	KindApply           Kind = "apply"
	KindReset           Kind = "reset"
)

// Action is one filter transition. Only the field matching Kind is read.
type Action struct {
	Kind           Kind
	OrganizationID string
	BranchID       string
	DepartmentID   int
	DateRange      DateRange
	Period         string
}

func SetOrganization(id string) Action {
	return Action{Kind: KindSetOrganization, OrganizationID: id}
}

func ClearOrganization() Action {
	return SetOrganization("")
}

func SetBranch(id string) Action {
	return Action{Kind: KindSetBranch, BranchID: id}
}

func ClearBranch() Action {
	return SetBranch("")
}

func SetDepartment(id int) Action {
	return Action{Kind: KindSetDepartment, DepartmentID: id}
}

func ClearDepartment() Action {
	return SetDepartment(0)
}

func SetDateRange(from, to string) Action {
	return Action{Kind: KindSetDateRange, DateRange: DateRange{From: from, To: to}}
}

func ClearDateRange() Action {
	return SetDateRange("", "")
}

func SetPeriod(period string) Action {
	return Action{Kind: KindSetPeriod, Period: period}
}

// Apply snapshots the live selection into the applied selection.
func Apply() Action {
	return Action{Kind: KindApply}
}

// Reset clears the live selection. The applied snapshot is kept.
func Reset() Action {
	return Action{Kind: KindReset}
}

// Reduce returns the state that results from applying a to s. On error the
// returned state is s unchanged.
func Reduce(s State, a Action) (State, error) {
	next := s

	switch a.Kind {
	case KindSetOrganization:
		if a.OrganizationID == s.Selection.OrganizationID {
			return s, nil
		}
		next.Selection.OrganizationID = a.OrganizationID
		next.Selection.BranchID = ""
		next.Selection.DepartmentID = 0

	case KindSetBranch:
		if a.BranchID == s.Selection.BranchID {
			return s, nil
		}
		if a.BranchID != "" && s.Selection.OrganizationID == "" {
			return s, ErrNoOrganization
		}
		next.Selection.BranchID = a.BranchID
		next.Selection.DepartmentID = 0

	case KindSetDepartment:
		if a.DepartmentID < 0 {
			return s, fmt.Errorf("%w: %d", ErrInvalidDepartment, a.DepartmentID)
		}
		if a.DepartmentID == s.Selection.DepartmentID {
			return s, nil
		}
		if a.DepartmentID > 0 && s.Selection.BranchID == "" {
			return s, ErrNoBranch
		}
		next.Selection.DepartmentID = a.DepartmentID

	case KindSetDateRange:
		if err := validateRange(a.DateRange); err != nil {
			return s, err
		}
		next.Selection.DateRange = a.DateRange

	case KindSetPeriod:
		if a.Period != "" && !slices.Contains(backend.Periods, a.Period) {
			return s, fmt.Errorf("%w: %q", ErrInvalidPeriod, a.Period)
		}
		next.Selection.Period = a.Period

	case KindApply:
		next.Applied = s.Selection
		next.Generation = s.Generation + 1

	case KindReset:
		next.Selection = Selection{}

	default:
		return s, fmt.Errorf("%w: %q", ErrUnknownAction, a.Kind)
	}

	return next, nil
}

// Dispatch reduces actions in order, stopping at the first error. On error
// the original state is returned.
func Dispatch(s State, actions ...Action) (State, error) {
	next := s
	for _, a := range actions {
		var err error
		if next, err = Reduce(next, a); err != nil {
			return s, err
		}
	}
	return next, nil
}

func validateRange(r DateRange) error {
	var from, to time.Time
	var err error

	if r.From != "" {
		if from, err = time.Parse(dateLayout, r.From); err != nil {
			return fmt.Errorf("%w: from %q", ErrInvalidDateRange, r.From)
		}
	}
	if r.To != "" {
		if to, err = time.Parse(dateLayout, r.To); err != nil {
			return fmt.Errorf("%w: to %q", ErrInvalidDateRange, r.To)
		}
	}
	if r.From != "" && r.To != "" && from.After(to) {
		return fmt.Errorf("%w: %s is after %s", ErrInvalidDateRange, r.From, r.To)
	}
	return nil
}

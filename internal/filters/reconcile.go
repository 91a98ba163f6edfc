package filters

// Reconcile returns the actions that move current toward a submitted
// selection, such as a filter form posted with every field at once.
// Dependents of a level that changed are dropped from the submission
// because they were chosen under the old parent: a new organization
// discards the submitted branch and department, a new branch discards the
// submitted department. Date range and period always apply; a blank
// period returns to the default.
func Reconcile(current, submitted Selection) []Action {
	var actions []Action

	switch {
	case submitted.OrganizationID != current.OrganizationID:
		if submitted.OrganizationID == "" {
			actions = append(actions, ClearOrganization())
		} else {
			actions = append(actions, SetOrganization(submitted.OrganizationID))
		}

	case submitted.BranchID != current.BranchID:
		if submitted.BranchID == "" {
			actions = append(actions, ClearBranch())
		} else {
			actions = append(actions, SetBranch(submitted.BranchID))
		}

	case submitted.DepartmentID != current.DepartmentID:
		if submitted.DepartmentID == 0 {
			actions = append(actions, ClearDepartment())
		} else {
			actions = append(actions, SetDepartment(submitted.DepartmentID))
		}
	}

	if submitted.DateRange != current.DateRange {
		if submitted.DateRange.IsZero() {
			actions = append(actions, ClearDateRange())
		} else {
			actions = append(actions, SetDateRange(submitted.DateRange.From, submitted.DateRange.To))
		}
	}

	if submitted.Period != current.Period {
		actions = append(actions, SetPeriod(submitted.Period))
	}

	return actions
}

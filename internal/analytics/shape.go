package analytics

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"

	"github.com/JaimeStill/setu/internal/filters"
	"github.com/JaimeStill/setu/pkg/backend"
	"github.com/JaimeStill/setu/pkg/formatting"
)

const unknown = "Unknown"

func shape(applied filters.Selection, scope backend.Scope, period string, r results) *Dashboard {
	d := &Dashboard{
		Scope:     scope,
		Period:    period,
		DateRange: applied.DateRange,
		Total:     r.totals.Emissions,
	}

	denominator := d.Total
	if denominator <= 0 {
		for _, c := range r.categories {
			denominator += c.Emissions()
		}
	}

	d.Categories = categorySlices(r.categories, denominator)
	d.Trend = trendPoints(r.trend)
	d.Departments = departmentBars(r.departments)
	d.TopEmitters = topEmitters(applied, r, denominator)
	d.KPIs = kpis(d, denominator)

	return d
}

// CategoryName resolves a category label: category, category_name, then Unknown.
func CategoryName(row backend.CategoryRow) string {
	return firstNonEmpty(row.Category, row.CategoryName)
}

// DepartmentName resolves a department label: department, department_name,
// dept_name, name, then Unknown.
func DepartmentName(row backend.DepartmentRow) string {
	return firstNonEmpty(row.Department, row.DepartmentName, row.DeptName, row.Name)
}

// TrendLabel resolves a trend bucket label: period, then label.
func TrendLabel(row backend.TimeRow) string {
	if row.Period != "" {
		return row.Period
	}
	return row.Label
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return unknown
}

func categorySlices(rows []backend.CategoryRow, denominator float64) []Slice {
	out := make([]Slice, 0, len(rows))
	for i, row := range rows {
		pct := formatting.Percent(row.Emissions(), denominator)
		out = append(out, Slice{
			Name:    CategoryName(row),
			Value:   row.Emissions(),
			Percent: pct,
			Share:   formatting.FormatPercent(pct),
			Color:   Palette[i%len(Palette)],
		})
	}
	return out
}

func trendPoints(rows []backend.TimeRow) []Point {
	points := make([]Point, 0, len(rows))
	for _, row := range rows {
		points = append(points, Point{Label: TrendLabel(row), Value: row.Emissions()})
	}
	return points
}

// departmentBars sums rows per department, since by-department responses
// may split each department by category.
func departmentBars(rows []backend.DepartmentRow) []Bar {
	bars := make([]Bar, 0, len(rows))
	index := make(map[string]int, len(rows))

	for _, row := range rows {
		name := DepartmentName(row)
		if i, ok := index[name]; ok {
			bars[i].Value += row.Emissions()
			continue
		}
		index[name] = len(bars)
		bars = append(bars, Bar{Name: name, Value: row.Emissions()})
	}

	slices.SortStableFunc(bars, func(a, b Bar) int {
		return cmp.Compare(b.Value, a.Value)
	})
	return bars
}

// topEmitters builds the top-emitter rows. With a department applied the
// rows are that department's categories. Otherwise they are the
// by-department rows, falling back to categories when that breakdown is empty.
func topEmitters(applied filters.Selection, r results, denominator float64) []Emitter {
	var rows []Emitter

	switch {
	case applied.DepartmentID > 0:
		dept := "Department " + strconv.Itoa(applied.DepartmentID)
		if len(r.departments) > 0 {
			if name := DepartmentName(r.departments[0]); name != unknown {
				dept = name
			}
		}
		for _, c := range r.categories {
			rows = append(rows, Emitter{Department: dept, Category: CategoryName(c), Value: c.Emissions()})
		}

	case len(r.departments) > 0:
		for _, d := range r.departments {
			category := d.Category
			if category == "" {
				category = "All categories"
			}
			rows = append(rows, Emitter{Department: DepartmentName(d), Category: category, Value: d.Emissions()})
		}

	default:
		for _, c := range r.categories {
			rows = append(rows, Emitter{Department: "All departments", Category: CategoryName(c), Value: c.Emissions()})
		}
	}

	slices.SortStableFunc(rows, func(a, b Emitter) int {
		return cmp.Compare(b.Value, a.Value)
	})
	if len(rows) > MaxTopEmitters {
		rows = rows[:MaxTopEmitters]
	}

	for i := range rows {
		rows[i].Percent = formatting.Percent(rows[i].Value, denominator)
		rows[i].Share = formatting.FormatPercent(rows[i].Percent)
	}
	return rows
}

func kpis(d *Dashboard, denominator float64) []KPI {
	cards := []KPI{
		{
			Title:       "Total CO₂e",
			Value:       formatting.FormatEmissions(d.Total),
			Description: "for the selected scope",
		},
	}

	avg := d.Total
	if n := len(d.Trend); n > 0 {
		avg = d.Total / float64(n)
	}
	cards = append(cards, KPI{
		Title:       "Avg. per " + d.Period,
		Value:       formatting.FormatEmissions(avg),
		Description: fmt.Sprintf("over %d %s buckets", len(d.Trend), d.Period),
	})

	top := KPI{Title: "Top Category", Value: "n/a", Description: "of total emissions"}
	if len(d.Categories) > 0 {
		best := slices.MaxFunc(d.Categories, func(a, b Slice) int {
			return cmp.Compare(a.Value, b.Value)
		})
		top.Value = best.Name
		top.Detail = formatting.FormatPercent(formatting.Percent(best.Value, denominator))
	}
	cards = append(cards, top)

	dept := KPI{Title: "Highest Emitting Dept", Value: "n/a", Description: "contribution"}
	if len(d.Departments) > 0 {
		dept.Value = d.Departments[0].Name
		dept.Detail = formatting.FormatEmissions(d.Departments[0].Value)
	}
	cards = append(cards, dept)

	return cards
}

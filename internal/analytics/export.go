package analytics

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ContentType is the media type of exported reports.
const ContentType = "text/csv; charset=utf-8"

var exportHeader = []string{"section", "label", "detail", "co2e_kg", "percent"}

// Report is a rendered CSV export of a dashboard.
type Report struct {
	Filename string
	Data     []byte
}

// Export renders the summary, category, trend, and top-emitter sections of
// d as CSV. It returns ErrNothingToExport when d has no category data.
func Export(d *Dashboard, now time.Time) (*Report, error) {
	if d == nil || d.Empty || len(d.Categories) == 0 {
		return nil, ErrNothingToExport
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	records := [][]string{exportHeader}

	records = append(records,
		[]string{"summary", "scope", d.Scope.String(), "", ""},
		[]string{"summary", "total", "", kg(d.Total), ""},
		[]string{"summary", "period", d.Period, "", ""},
	)
	if !d.DateRange.IsZero() {
		records = append(records,
			[]string{"summary", "date_range", d.DateRange.From + ".." + d.DateRange.To, "", ""},
		)
	}
	if !d.GeneratedAt.IsZero() {
		records = append(records,
			[]string{"summary", "generated_at", d.GeneratedAt.Format(time.RFC3339), "", ""},
		)
	}

	for _, c := range d.Categories {
		records = append(records, []string{"category", c.Name, "", kg(c.Value), pct(c.Percent)})
	}
	for _, p := range d.Trend {
		records = append(records, []string{"trend", p.Label, d.Period, kg(p.Value), ""})
	}
	for _, e := range d.TopEmitters {
		records = append(records, []string{"top_emitter", e.Department, e.Category, kg(e.Value), pct(e.Percent)})
	}

	if err := w.WriteAll(records); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}

	return &Report{
		Filename: Filename(d, now),
		Data:     buf.Bytes(),
	}, nil
}

// Filename returns the download name for an export of d taken at now,
// e.g. "emissions-branch-b1-2025-03-01.csv".
func Filename(d *Dashboard, now time.Time) string {
	parts := []string{"emissions"}
	if d.Scope.Level != "" {
		parts = append(parts, string(d.Scope.Level))
	}
	if id := sanitize(d.Scope.ID); id != "" {
		parts = append(parts, id)
	}
	parts = append(parts, now.Format("2006-01-02"))
	return strings.Join(parts, "-") + ".csv"
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		case r == '-', r == '.', r == ' ':
			return '_'
		}
		return -1
	}, s)
}

func kg(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func pct(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

package analytics

import (
	"time"

	"github.com/JaimeStill/setu/internal/filters"
	"github.com/JaimeStill/setu/pkg/backend"
)

// EmptyPrompt is shown when no organization has been applied.
const EmptyPrompt = "Select an organization and click Show"

// MaxTopEmitters caps the top-emitter table.
const MaxTopEmitters = 6

// Palette assigns category slice colours in order, wrapping when exhausted.
var Palette = []string{
	"#10b981", "#3b82f6", "#f59e0b", "#ef4444",
	"#8b5cf6", "#ec4899", "#14b8a6", "#64748b",
}

// Dashboard is the chart-ready view model for one applied selection.
type Dashboard struct {
	Generation  uint64            `json:"generation"`
	Empty       bool              `json:"empty"`
	Prompt      string            `json:"prompt,omitempty"`
	Scope       backend.Scope     `json:"scope"`
	Period      string            `json:"period,omitempty"`
	DateRange   filters.DateRange `json:"date_range"`
	Total       float64           `json:"total"`
	KPIs        []KPI             `json:"kpis"`
	Categories  []Slice           `json:"categories"`
	Trend       []Point           `json:"trend"`
	Departments []Bar             `json:"departments"`
	TopEmitters []Emitter         `json:"top_emitters"`
	GeneratedAt time.Time         `json:"generated_at"`
}

// KPI is one summary card.
type KPI struct {
	Title       string `json:"title"`
	Value       string `json:"value"`
	Detail      string `json:"detail,omitempty"`
	Description string `json:"description,omitempty"`
}

// Slice is one segment of the category donut.
type Slice struct {
	Name    string  `json:"name"`
	Value   float64 `json:"value"`
	Percent float64 `json:"percent"`
	Share   string  `json:"share"`
	Color   string  `json:"color"`
}

// Point is one bucket of the trend line.
type Point struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Bar is one department in the department breakdown.
type Bar struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Emitter is one row of the top-emitter table.
type Emitter struct {
	Department string  `json:"department"`
	Category   string  `json:"category"`
	Value      float64 `json:"value"`
	Percent    float64 `json:"percent"`
	Share      string  `json:"share"`
}

// EmptyDashboard is the view shown before an organization is applied.
func EmptyDashboard(generation uint64) *Dashboard {
	return &Dashboard{
		Generation: generation,
		Empty:      true,
		Prompt:     EmptyPrompt,
	}
}

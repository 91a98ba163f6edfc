// Package recommendations loads reduction recommendations for the applied
// filter selection and prepares them for display.
package recommendations

import (
	"context"
	"log/slog"

	"github.com/JaimeStill/setu/internal/filters"
	"github.com/JaimeStill/setu/pkg/backend"
)

const (
	// EmptyPrompt is shown when no organization has been applied.
	EmptyPrompt = `Please select an organization and click "Show" to view tailored carbon reduction recommendations.`
	// LoadError replaces backend failure detail on the recommendations page.
	LoadError = "Failed to load recommendations. Please ensure the backend is running."
	// NoneFound is shown when the backend returns an empty list.
	NoneFound = "No specific recommendations found for this selection. Great job!"
)

// Tone is the badge colour for a difficulty level.
type Tone string

const (
	ToneGreen  Tone = "green"
	ToneYellow Tone = "yellow"
	ToneRed    Tone = "red"
)

// DifficultyTone maps Low to green, Medium to yellow, and anything else to red.
func DifficultyTone(difficulty string) Tone {
	switch difficulty {
	case "Low":
		return ToneGreen
	case "Medium":
		return ToneYellow
	default:
		return ToneRed
	}
}

// Item is a recommendation with its display tone.
type Item struct {
	backend.Recommendation
	Tone Tone `json:"tone"`
}

// View is the recommendations page model. Exactly one of Empty, Error,
// or Items describes the content.
type View struct {
	Empty  bool   `json:"empty"`
	Prompt string `json:"prompt,omitempty"`
	Error  string `json:"error,omitempty"`
	Items  []Item `json:"items"`
}

// None reports whether a successful load returned no recommendations.
func (v *View) None() bool {
	return !v.Empty && v.Error == "" && len(v.Items) == 0
}

// Source is the subset of the backend client recommendations read from.
type Source interface {
	Recommendations(ctx context.Context, q backend.RecommendationQuery) ([]backend.Recommendation, error)
}

// System defines the public contract for recommendation operations.
type System interface {
	Load(ctx context.Context, applied filters.Selection) (*View, error)
}

type system struct {
	source Source
	logger *slog.Logger
}

// New creates the recommendations system.
func New(source Source, logger *slog.Logger) System {
	return &system{
		source: source,
		logger: logger.With("system", "recommendations"),
	}
}

// Load fetches recommendations for applied. Without an organization it
// returns the empty view and fetches nothing. On failure it returns a view
// carrying LoadError together with the underlying error.
func (s *system) Load(ctx context.Context, applied filters.Selection) (*View, error) {
	if !applied.HasOrganization() {
		return &View{Empty: true, Prompt: EmptyPrompt}, nil
	}

	recs, err := s.source.Recommendations(ctx, applied.RecommendationQuery())
	if err != nil {
		s.logger.ErrorContext(ctx, "load failed", "org_id", applied.OrganizationID, "error", err)
		return &View{Error: LoadError}, err
	}

	items := make([]Item, 0, len(recs))
	for _, r := range recs {
		items = append(items, Item{Recommendation: r, Tone: DifficultyTone(r.Difficulty)})
	}

	s.logger.InfoContext(ctx, "recommendations loaded", "org_id", applied.OrganizationID, "count", len(items))
	return &View{Items: items}, nil
}

package formatting

import (
	"math"
	"strconv"

	"github.com/dustin/go-humanize"
)

// FormatEmissions renders a kilogram CO2e value with thousands separators
// and at most two decimals, e.g. "1,234.5 kg".
func FormatEmissions(kg float64) string {
	return humanize.CommafWithDigits(round(kg, 2), 2) + " kg"
}

// FormatTonnes renders a kilogram value as tonnes, e.g. "1.25 t".
func FormatTonnes(kg float64) string {
	return humanize.CommafWithDigits(round(kg/1000, 2), 2) + " t"
}

// Percent returns part as a share of whole in the range [0, 100]. A
// non-positive whole yields 0.
func Percent(part, whole float64) float64 {
	if whole <= 0 || part <= 0 {
		return 0
	}
	p := part / whole * 100
	if p > 100 {
		return 100
	}
	return p
}

// FormatPercent renders p with exactly one decimal, e.g. "60.0%".
func FormatPercent(p float64) string {
	return strconv.FormatFloat(p, 'f', 1, 64) + "%"
}

func round(v float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	return math.Round(v*pow) / pow
}

// Package heatmap derives a per-module risk heatmap from warm-up signals.
package heatmap

import (
	"github.com/mixingo/mixingo/internal/curriculum"
	"github.com/mixingo/mixingo/internal/signals"
)

// Severity is a three-level risk indicator.
type Severity int

const (
	SeverityLow    Severity = iota // few or no errors
	SeverityMedium                 // some errors, needs practice
	SeverityHigh                   // many errors, address first
)

// Error-count thresholds for each tier.
const (
	mediumMinErrors = 1
	highMinErrors   = 3
)

// SeverityFor maps an area's error count to a severity: 0 → low,
// 1–2 → medium, 3 or more → high.
//
// Zero counts never reach this from Compute, which omits error-free
// categories. The low tier is kept for sources that report explicit zeros.
func SeverityFor(count int) Severity {
	switch {
	case count >= highMinErrors:
		return SeverityHigh
	case count >= mediumMinErrors:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// Label returns the display band for a severity.
func (s Severity) Label() string {
	switch s {
	case SeverityLow:
		return "strong foundation"
	case SeverityMedium:
		return "refinement zone"
	case SeverityHigh:
		return "growth opportunity"
	default:
		return "unknown"
	}
}

// Color returns the traffic-light color used by the frontend.
func (s Severity) Color() string {
	switch s {
	case SeverityLow:
		return "green"
	case SeverityMedium:
		return "yellow"
	case SeverityHigh:
		return "red"
	default:
		return "gray"
	}
}

// Item is the heatmap cell for one catalog module.
type Item struct {
	ModuleID string          `json:"module_id"`
	Area     curriculum.Area `json:"area"`
	Severity Severity        `json:"severity"`
}

// Band returns the display label for the item's severity.
func (i Item) Band() string { return i.Severity.Label() }

// Derive returns one item per catalog module, in catalog order. A module
// whose area has no entry in the error distribution gets SeverityLow.
// Categories that match no module area are ignored.
func Derive(catalog *curriculum.Catalog, summary signals.Summary) []Item {
	byArea := make(map[curriculum.Area]Severity, len(summary.ErrorDistribution))
	for category, count := range summary.ErrorDistribution {
		byArea[curriculum.Area(category)] = SeverityFor(count)
	}

	modules := catalog.Modules()
	items := make([]Item, len(modules))
	for i, m := range modules {
		items[i] = Item{
			ModuleID: m.ID,
			Area:     m.Area,
			Severity: byArea[m.Area],
		}
	}
	return items
}

// Counts tallies items per severity.
func Counts(items []Item) map[Severity]int {
	out := make(map[Severity]int, 3)
	for _, it := range items {
		out[it.Severity]++
	}
	return out
}

package heatmap

import (
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/mixingo/mixingo/internal/curriculum"
	"github.com/mixingo/mixingo/internal/signals"
)

// distribution builds an error distribution from parallel generated slices.
func distribution(areas []int, counts []int) map[string]int {
	all := curriculum.AllAreas()
	out := make(map[string]int)
	for i := range min(len(areas), len(counts)) {
		out[string(all[areas[i]])] = counts[i]
	}
	return out
}

func TestDerive_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	catalog := curriculum.Default()
	areaGen := gen.SliceOf(gen.IntRange(0, len(curriculum.AllAreas())-1))
	countGen := gen.SliceOf(gen.IntRange(1, 50))

	properties.Property("one item per module, catalog order, matching areas", prop.ForAll(
		func(areas, counts []int) bool {
			items := Derive(catalog, signals.Summary{ErrorDistribution: distribution(areas, counts)})
			modules := catalog.Modules()
			if len(items) != len(modules) {
				return false
			}
			for i, m := range modules {
				if items[i].ModuleID != m.ID || items[i].Area != m.Area {
					return false
				}
			}
			return true
		},
		areaGen, countGen,
	))

	properties.Property("severity is always within 0..2", prop.ForAll(
		func(areas, counts []int) bool {
			for _, it := range Derive(catalog, signals.Summary{ErrorDistribution: distribution(areas, counts)}) {
				if it.Severity < SeverityLow || it.Severity > SeverityHigh {
					return false
				}
			}
			return true
		},
		areaGen, countGen,
	))

	properties.Property("derive is deterministic", prop.ForAll(
		func(areas, counts []int) bool {
			s := signals.Summary{ErrorDistribution: distribution(areas, counts)}
			return reflect.DeepEqual(Derive(catalog, s), Derive(catalog, s))
		},
		areaGen, countGen,
	))

	properties.Property("severity is monotone in error count", prop.ForAll(
		func(a, b int) bool {
			if a > b {
				a, b = b, a
			}
			return SeverityFor(a) <= SeverityFor(b)
		},
		gen.IntRange(0, 1000), gen.IntRange(0, 1000),
	))

	properties.TestingRun(t)
}

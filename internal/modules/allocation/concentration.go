package allocation

import (
	"github.com/aristath/folio/internal/domain"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ConcentrationMetrics describes how concentrated the allocation is
type ConcentrationMetrics struct {
	Countries          int     `json:"countries"`
	Herfindahl         float64 `json:"herfindahl"`          // Sum of squared weights, 1 = single country
	EffectiveCountries float64 `json:"effective_countries"` // 1 / Herfindahl
	Entropy            float64 `json:"entropy"`             // Shannon entropy of weights, in nats
	LargestCountry     string  `json:"largest_country,omitempty"`
	LargestWeight      float64 `json:"largest_weight"`
}

// Concentration computes metrics over allocation weights. Allocations with
// no value contribute nothing.
func Concentration(allocations []domain.GeographicalAllocation) ConcentrationMetrics {
	values := make([]float64, 0, len(allocations))
	names := make([]string, 0, len(allocations))
	for _, a := range allocations {
		v, _ := a.Value.Float64()
		if v > 0 {
			values = append(values, v)
			names = append(names, a.Country)
		}
	}

	m := ConcentrationMetrics{Countries: len(values)}
	total := floats.Sum(values)
	if total <= 0 {
		return m
	}

	weights := make([]float64, len(values))
	floats.ScaleTo(weights, 1/total, values)

	m.Herfindahl = floats.Dot(weights, weights)
	m.EffectiveCountries = 1 / m.Herfindahl
	m.Entropy = stat.Entropy(weights)

	largest := floats.MaxIdx(weights)
	m.LargestCountry = names[largest]
	m.LargestWeight = weights[largest]
	return m
}

package dataset

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ColumnSummary holds the descriptive statistics of one numeric column.
// Std is the sample standard deviation (n-1 denominator) and the quartiles
// interpolate linearly between order statistics.
type ColumnSummary struct {
	Name  string  `yaml:"name"`
	Count int     `yaml:"count"`
	Mean  float64 `yaml:"mean"`
	Std   float64 `yaml:"std"`
	Min   float64 `yaml:"min"`
	Q25   float64 `yaml:"q25"`
	Q50   float64 `yaml:"median"`
	Q75   float64 `yaml:"q75"`
	Max   float64 `yaml:"max"`
}

// Describe summarises every numeric column in header order.
func Describe(t *Table) []ColumnSummary {
	out := make([]ColumnSummary, 0, len(t.columns))
	for _, name := range t.columns {
		col, ok := t.numeric[name]
		if !ok {
			continue
		}
		out = append(out, Summarize(name, col))
	}
	return out
}

// Summarize computes a ColumnSummary for values.
func Summarize(name string, values []float64) ColumnSummary {
	s := ColumnSummary{Name: name, Count: len(values)}
	if len(values) == 0 {
		nan := math.NaN()
		s.Mean, s.Std, s.Min, s.Q25, s.Q50, s.Q75, s.Max = nan, nan, nan, nan, nan, nan, nan
		return s
	}

	s.Mean = stat.Mean(values, nil)
	if len(values) > 1 {
		s.Std = stat.StdDev(values, nil)
	} else {
		s.Std = math.NaN()
	}
	s.Min = floats.Min(values)
	s.Max = floats.Max(values)

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	s.Q25 = quantile(sorted, 0.25)
	s.Q50 = quantile(sorted, 0.5)
	s.Q75 = quantile(sorted, 0.75)
	return s
}

// quantile interpolates between the order statistics at position p·(n-1).
func quantile(sorted []float64, p float64) float64 {
	pos := p * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

package analysis

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	scigoErrors "github.com/ezoic/bikedemand/pkg/errors"
	"github.com/ezoic/bikedemand/trainer"
)

// Overfitting grades, by train R² minus test R².
const (
	MildOverfitBelow     = 0.05
	ModerateOverfitBelow = 0.15
)

// Grade classifies a train/test R² gap.
type Grade int

const (
	GradeUndefined Grade = iota
	GradeMild
	GradeModerate
	GradeSevere
)

func (g Grade) String() string {
	switch g {
	case GradeMild:
		return "mild"
	case GradeModerate:
		return "moderate"
	case GradeSevere:
		return "severe"
	default:
		return "undefined"
	}
}

// MarshalYAML writes the grade name.
func (g Grade) MarshalYAML() (interface{}, error) { return g.String(), nil }

// OverfitReport is the train/test R² gap of one model.
type OverfitReport struct {
	Gap   float64 `yaml:"gap"`
	Grade Grade   `yaml:"grade"`
}

// Overfitting grades r. The grade is undefined when either R² is.
func Overfitting(r *trainer.EvaluationResult) OverfitReport {
	if !r.Train.R2Defined || !r.Test.R2Defined {
		return OverfitReport{Gap: math.NaN(), Grade: GradeUndefined}
	}
	gap := r.Train.R2 - r.Test.R2
	switch {
	case gap < MildOverfitBelow:
		return OverfitReport{Gap: gap, Grade: GradeMild}
	case gap < ModerateOverfitBelow:
		return OverfitReport{Gap: gap, Grade: GradeModerate}
	default:
		return OverfitReport{Gap: gap, Grade: GradeSevere}
	}
}

// ErrorSummary describes the absolute prediction errors |y - ŷ|.
type ErrorSummary struct {
	Mean   float64 `yaml:"mean"`
	Median float64 `yaml:"median"`
	Max    float64 `yaml:"max"`
	Std    float64 `yaml:"std"`

	// MeanRelativePct is the mean of |y - ŷ| / (y + 1) · 100.
	MeanRelativePct float64 `yaml:"mean_relative_pct"`
}

// ErrorStats summarises the absolute errors of yPred against yTrue. Std is
// the population standard deviation.
func ErrorStats(yTrue, yPred []float64) (ErrorSummary, error) {
	abs, err := absErrors("ErrorStats", yTrue, yPred)
	if err != nil {
		return ErrorSummary{}, err
	}
	rel := make([]float64, len(abs))
	for i, e := range abs {
		rel[i] = e / (yTrue[i] + 1) * 100
	}
	mean, std := stat.PopMeanStdDev(abs, nil)
	return ErrorSummary{
		Mean:            mean,
		Median:          median(abs),
		Max:             floats.Max(abs),
		Std:             std,
		MeanRelativePct: stat.Mean(rel, nil),
	}, nil
}

func absErrors(op string, yTrue, yPred []float64) ([]float64, error) {
	if len(yTrue) == 0 {
		return nil, scigoErrors.NewValueError(op, "no predictions to analyse")
	}
	if len(yTrue) != len(yPred) {
		return nil, scigoErrors.NewDimensionError(op, len(yTrue), len(yPred), 0)
	}
	abs := make([]float64, len(yTrue))
	for i := range yTrue {
		abs[i] = math.Abs(yTrue[i] - yPred[i])
	}
	return abs, nil
}

// median averages the two middle values of an even-length sample.
func median(x []float64) float64 {
	s := slices.Clone(x)
	slices.Sort(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

// Band is a half-open demand range [Min, Max).
type Band struct {
	Label string  `yaml:"label"`
	Min   float64 `yaml:"min"`
	Max   float64 `yaml:"max"`
}

// DefaultBands splits daily demand at 2000, 4000 and 6000 rentals.
func DefaultBands() []Band {
	return []Band{
		{Label: "low (0-2000)", Min: 0, Max: 2000},
		{Label: "mid-low (2000-4000)", Min: 2000, Max: 4000},
		{Label: "mid-high (4000-6000)", Min: 4000, Max: 6000},
		{Label: "high (6000+)", Min: 6000, Max: math.Inf(1)},
	}
}

// BandStats is the error of one model within one demand band.
type BandStats struct {
	Band  Band    `yaml:"band"`
	MAE   float64 `yaml:"mae"`
	MAPE  float64 `yaml:"mape_pct"`
	Count int     `yaml:"count"`
}

// DemandBands computes MAE and MAPE per band, assigning rows by their true
// value. MAPE uses y + 1 in the denominator. Bands without rows are omitted.
func DemandBands(yTrue, yPred []float64, bands []Band) ([]BandStats, error) {
	abs, err := absErrors("DemandBands", yTrue, yPred)
	if err != nil {
		return nil, err
	}
	for _, b := range bands {
		if !(b.Min < b.Max) {
			return nil, scigoErrors.NewInvalidParameterError("DemandBands", "bands",
				fmt.Sprintf("band %q has min %v >= max %v", b.Label, b.Min, b.Max), b)
		}
	}

	var out []BandStats
	for _, b := range bands {
		var sumAbs, sumPct float64
		count := 0
		for i, y := range yTrue {
			if y >= b.Min && y < b.Max {
				sumAbs += abs[i]
				sumPct += abs[i] / (y + 1) * 100
				count++
			}
		}
		if count == 0 {
			continue
		}
		out = append(out, BandStats{
			Band:  b,
			MAE:   sumAbs / float64(count),
			MAPE:  sumPct / float64(count),
			Count: count,
		})
	}
	return out, nil
}

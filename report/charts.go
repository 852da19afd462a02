package report

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"slices"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/ezoic/bikedemand/analysis"
	scigoErrors "github.com/ezoic/bikedemand/pkg/errors"
	"github.com/ezoic/bikedemand/trainer"
)

const (
	chartWidth  = 8 * vg.Inch
	chartHeight = 6 * vg.Inch

	// ResidualBins is the bin count of the residual histogram.
	ResidualBins = 30
)

var (
	pointColor = color.RGBA{R: 20, G: 80, B: 200, A: 160}
	idealColor = color.RGBA{R: 200, G: 30, B: 30, A: 255}
	barColor   = color.RGBA{R: 60, G: 140, B: 90, A: 255}
)

// PredictionChart draws predicted against actual demand with the y = x line.
func PredictionChart(path, model string, yTrue, yPred []float64) error {
	if err := checkPairs("PredictionChart", yTrue, yPred); err != nil {
		return err
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s: predicted vs actual", model)
	p.X.Label.Text = "actual"
	p.Y.Label.Text = "predicted"
	p.Add(plotter.NewGrid())

	pts := make(plotter.XYs, len(yTrue))
	for i := range yTrue {
		pts[i] = plotter.XY{X: yTrue[i], Y: yPred[i]}
	}
	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return scigoErrors.Wrap(err, "prediction scatter")
	}
	scatter.GlyphStyle.Color = pointColor
	scatter.GlyphStyle.Radius = vg.Points(2)
	p.Add(scatter)
	p.Legend.Add("test rows", scatter)

	lo := min(slices.Min(yTrue), slices.Min(yPred))
	hi := max(slices.Max(yTrue), slices.Max(yPred))
	ideal, err := plotter.NewLine(plotter.XYs{{X: lo, Y: lo}, {X: hi, Y: hi}})
	if err != nil {
		return scigoErrors.Wrap(err, "ideal line")
	}
	ideal.Color = idealColor
	ideal.Width = vg.Points(1.5)
	ideal.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
	p.Add(ideal)
	p.Legend.Add("ideal", ideal)
	p.Legend.Top = true
	p.Legend.Left = true

	return save(p, path)
}

// ResidualChart draws residuals (actual minus predicted) against the
// prediction next to a histogram of the residuals.
func ResidualChart(path, model string, yTrue, yPred []float64) error {
	if err := checkPairs("ResidualChart", yTrue, yPred); err != nil {
		return err
	}

	residuals := make(plotter.Values, len(yTrue))
	pts := make(plotter.XYs, len(yTrue))
	for i := range yTrue {
		residuals[i] = yTrue[i] - yPred[i]
		pts[i] = plotter.XY{X: yPred[i], Y: residuals[i]}
	}

	left := plot.New()
	left.Title.Text = fmt.Sprintf("%s: residuals", model)
	left.X.Label.Text = "predicted"
	left.Y.Label.Text = "residual"
	left.Add(plotter.NewGrid())
	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return scigoErrors.Wrap(err, "residual scatter")
	}
	scatter.GlyphStyle.Color = pointColor
	scatter.GlyphStyle.Radius = vg.Points(2)
	left.Add(scatter)
	zero := plotter.NewFunction(func(float64) float64 { return 0 })
	zero.Color = idealColor
	zero.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
	left.Add(zero)

	right := plot.New()
	right.Title.Text = "residual distribution"
	right.X.Label.Text = "residual"
	right.Y.Label.Text = "count"
	hist, err := plotter.NewHist(residuals, ResidualBins)
	if err != nil {
		return scigoErrors.Wrap(err, "residual histogram")
	}
	hist.FillColor = barColor
	right.Add(hist)

	return saveTiled(path, 14*vg.Inch, 6*vg.Inch, left, right)
}

// ImportanceChart draws the topN importance scores as horizontal bars, the
// highest at the top.
func ImportanceChart(path string, imp trainer.Importance, topN int) error {
	top := imp.Top(topN)
	if len(top) == 0 {
		return scigoErrors.NewValueError("ImportanceChart", "no importance scores")
	}
	slices.Reverse(top)

	values := make(plotter.Values, len(top))
	names := make([]string, len(top))
	for i, s := range top {
		values[i] = s.Score
		names[i] = s.Feature
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Feature importance: %s", imp.Model)
	p.X.Label.Text = "importance"
	if !imp.Normalized {
		p.X.Label.Text = "|coefficient|"
	}
	bars, err := plotter.NewBarChart(values, vg.Points(14))
	if err != nil {
		return scigoErrors.Wrap(err, "importance bars")
	}
	bars.Horizontal = true
	bars.Color = barColor
	bars.LineStyle.Width = 0
	p.Add(bars)
	p.NominalY(names...)

	return save(p, path)
}

// ComparisonChart draws test R², RMSE and MAE side by side for every model.
// An undefined R² is drawn as zero.
func ComparisonChart(path string, cmp analysis.Comparison) error {
	if len(cmp.Models) == 0 {
		return scigoErrors.NewValueError("ComparisonChart", "no models to compare")
	}

	names := make([]string, len(cmp.Models))
	r2 := make(plotter.Values, len(cmp.Models))
	rmse := make(plotter.Values, len(cmp.Models))
	mae := make(plotter.Values, len(cmp.Models))
	for i, m := range cmp.Models {
		names[i] = m.Name
		r2[i] = finiteOrZero(m.TestR2)
		rmse[i] = m.TestRMSE
		mae[i] = m.TestMAE
	}

	panels := make([]*plot.Plot, 0, 3)
	for _, panel := range []struct {
		title  string
		values plotter.Values
	}{
		{"test R²", r2},
		{"test RMSE", rmse},
		{"test MAE", mae},
	} {
		p := plot.New()
		p.Title.Text = panel.title
		bars, err := plotter.NewBarChart(panel.values, vg.Points(30))
		if err != nil {
			return scigoErrors.Wrapf(err, "%s bars", panel.title)
		}
		bars.Color = barColor
		bars.LineStyle.Width = 0
		p.Add(bars)
		p.NominalX(names...)
		panels = append(panels, p)
	}

	return saveTiled(path, 15*vg.Inch, 5*vg.Inch, panels...)
}

func checkPairs(op string, yTrue, yPred []float64) error {
	if len(yTrue) == 0 {
		return scigoErrors.NewValueError(op, "no predictions to draw")
	}
	if len(yTrue) != len(yPred) {
		return scigoErrors.NewDimensionError(op, len(yTrue), len(yPred), 0)
	}
	return nil
}

func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func save(p *plot.Plot, path string) error {
	if err := p.Save(chartWidth, chartHeight, path); err != nil {
		return scigoErrors.Wrapf(err, "save chart %s", path)
	}
	return nil
}

// saveTiled lays plots out in one row and writes a PNG.
func saveTiled(path string, width, height vg.Length, plots ...*plot.Plot) (err error) {
	img := vgimg.New(width, height)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows:      1,
		Cols:      len(plots),
		PadX:      vg.Millimeter * 6,
		PadTop:    vg.Millimeter * 2,
		PadBottom: vg.Millimeter * 2,
		PadLeft:   vg.Millimeter * 2,
		PadRight:  vg.Millimeter * 2,
	}
	canvases := plot.Align([][]*plot.Plot{plots}, tiles, dc)
	for j, p := range plots {
		p.Draw(canvases[0][j])
	}

	f, err := os.Create(path)
	if err != nil {
		return scigoErrors.Wrapf(err, "create %s", path)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = scigoErrors.Wrapf(cerr, "close %s", path)
		}
	}()
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(f); err != nil {
		return scigoErrors.Wrapf(err, "write chart %s", path)
	}
	return nil
}

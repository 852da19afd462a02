package preprocessing_test

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/bikedemand/preprocessing"
)

const epsilon = 1e-10

func TestStandardScaler_BasicFunctionality(t *testing.T) {
	// Feature 1: [1, 2, 3] -> mean=2, population std=0.816
	// Feature 2: [4, 5, 6] -> mean=5, population std=0.816
	X := mat.NewDense(3, 2, []float64{
		1.0, 4.0,
		2.0, 5.0,
		3.0, 6.0,
	})

	scaler := preprocessing.NewStandardScalerDefault()
	if err := scaler.Fit(X); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	expectedMean := []float64{2.0, 5.0}
	expectedStd := []float64{0.816496580927726, 0.816496580927726}
	for i, expected := range expectedMean {
		if math.Abs(scaler.Mean[i]-expected) > epsilon {
			t.Errorf("Mean[%d]: expected %f, got %f", i, expected, scaler.Mean[i])
		}
	}
	for i, expected := range expectedStd {
		if math.Abs(scaler.Scale[i]-expected) > epsilon {
			t.Errorf("Scale[%d]: expected %f, got %f", i, expected, scaler.Scale[i])
		}
	}

	XScaled, err := scaler.Transform(X)
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}

	expectedScaled := []float64{
		-1.224744871391589, -1.224744871391589,
		0.0, 0.0,
		1.224744871391589, 1.224744871391589,
	}
	r, c := XScaled.Dims()
	if r != 3 || c != 2 {
		t.Fatalf("Expected 3x2 matrix, got %dx%d", r, c)
	}
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if got, want := XScaled.At(i, j), expectedScaled[i*c+j]; math.Abs(got-want) > epsilon {
				t.Errorf("XScaled[%d][%d]: expected %f, got %f", i, j, want, got)
			}
		}
	}
}

func TestStandardScaler_InverseTransform(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{
		1.0, 10.0,
		2.0, 20.0,
		3.0, 30.0,
		4.0, 40.0,
	})

	scaler := preprocessing.NewStandardScalerDefault()
	XScaled, err := scaler.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}
	XRecovered, err := scaler.InverseTransform(XScaled)
	if err != nil {
		t.Fatalf("InverseTransform failed: %v", err)
	}

	r, c := X.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if math.Abs(X.At(i, j)-XRecovered.At(i, j)) > epsilon {
				t.Errorf("InverseTransform failed at [%d][%d]: expected %f, got %f", i, j, X.At(i, j), XRecovered.At(i, j))
			}
		}
	}
}

func TestStandardScaler_WithStdFalse(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{
		1.0, 10.0,
		2.0, 20.0,
		3.0, 30.0,
	})

	scaler := preprocessing.NewStandardScaler(true, false)
	XScaled, err := scaler.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}
	for i, scale := range scaler.Scale {
		if scale != 1.0 {
			t.Errorf("Scale[%d] should be 1.0 when with_std=false, got %f", i, scale)
		}
	}

	expected := []float64{-1, -10, 0, 0, 1, 10}
	for i := 0; i < 3; i++ {
		for j := 0; j < 2; j++ {
			if math.Abs(XScaled.At(i, j)-expected[i*2+j]) > epsilon {
				t.Errorf("XScaled[%d][%d]: expected %f, got %f", i, j, expected[i*2+j], XScaled.At(i, j))
			}
		}
	}
}

func TestStandardScaler_WithMeanFalse(t *testing.T) {
	X := mat.NewDense(3, 1, []float64{1, 2, 3})

	scaler := preprocessing.NewStandardScaler(false, true)
	XScaled, err := scaler.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}
	if scaler.Mean[0] != 0 {
		t.Errorf("Mean should be 0 when with_mean=false, got %f", scaler.Mean[0])
	}
	want := 1.0 / math.Sqrt(2.0/3.0)
	if math.Abs(XScaled.At(0, 0)-want) > epsilon {
		t.Errorf("expected %f, got %f", want, XScaled.At(0, 0))
	}
}

func TestStandardScaler_ErrorCases(t *testing.T) {
	scaler := preprocessing.NewStandardScalerDefault()
	X := mat.NewDense(1, 2, []float64{1.0, 2.0})

	if _, err := scaler.Transform(X); err == nil {
		t.Error("Expected error for unfitted scaler, got nil")
	}
	if _, err := scaler.InverseTransform(X); err == nil {
		t.Error("Expected error for unfitted scaler, got nil")
	}

	_ = scaler.Fit(X)
	if _, err := scaler.Transform(mat.NewDense(1, 3, []float64{1, 2, 3})); err == nil {
		t.Error("Expected error for dimension mismatch, got nil")
	}
}

type mockMatrix struct {
	rows, cols int
}

func (m *mockMatrix) Dims() (int, int)    { return m.rows, m.cols }
func (m *mockMatrix) At(i, j int) float64 { return 0 }
func (m *mockMatrix) T() mat.Matrix       { return m }

func TestStandardScaler_EmptyDataError(t *testing.T) {
	scaler := preprocessing.NewStandardScalerDefault()
	if err := scaler.Fit(&mockMatrix{}); err == nil {
		t.Error("Expected error for empty data, got nil")
	}
}

func TestStandardScaler_ConstantFeature(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{
		5.0, 1.0,
		5.0, 2.0,
		5.0, 3.0,
	})

	scaler := preprocessing.NewStandardScalerDefault()
	XScaled, err := scaler.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}
	if scaler.Scale[0] != 1.0 {
		t.Errorf("Scale[0] should be 1.0 for constant feature, got %f", scaler.Scale[0])
	}
	for i := 0; i < 3; i++ {
		if v := XScaled.At(i, 0); v != 0 || math.IsNaN(v) {
			t.Errorf("Constant feature should be 0 after scaling, got %f at row %d", v, i)
		}
	}
}

func TestStandardScaler_String(t *testing.T) {
	scaler := preprocessing.NewStandardScaler(true, false)
	if got, want := scaler.String(), "StandardScaler(with_mean=true, with_std=false)"; got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}

	_ = scaler.Fit(mat.NewDense(2, 2, []float64{1, 2, 3, 4}))
	if got, want := scaler.String(), "StandardScaler(with_mean=true, with_std=false, n_features=2)"; got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}

	params := scaler.GetParams()
	if params["with_mean"] != true || params["with_std"] != false {
		t.Errorf("unexpected params %v", params)
	}
}

package estimation

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/san-kum/repressilator/internal/dataset"
)

func TestNewParameterSpec(t *testing.T) {
	good := Range{Lower: 0, Initial: 1, Upper: 2}
	tests := []struct {
		name   string
		names  []string
		ranges map[string]Range
		ok     bool
	}{
		{"valid", []string{"b", "a"}, map[string]Range{"a": good, "b": good}, true},
		{"pinned", []string{"a"}, map[string]Range{"a": {Lower: 1, Initial: 1, Upper: 1}}, true},
		{"empty", nil, nil, false},
		{"missing range", []string{"a", "b"}, map[string]Range{"a": good}, false},
		{"unlisted range", []string{"a"}, map[string]Range{"a": good, "c": good}, false},
		{"duplicate", []string{"a", "a"}, map[string]Range{"a": good}, false},
		{"inverted", []string{"a"}, map[string]Range{"a": {Lower: 2, Initial: 1, Upper: 0}}, false},
		{"initial outside", []string{"a"}, map[string]Range{"a": {Lower: 0, Initial: 3, Upper: 2}}, false},
		{"nan", []string{"a"}, map[string]Range{"a": {Lower: math.NaN(), Initial: 1, Upper: 2}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewParameterSpec(tt.names, tt.ranges)
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidSpec) {
				t.Errorf("expected ErrInvalidSpec, got %v", err)
			}
		})
	}
}

func TestParameterSpecOrder(t *testing.T) {
	spec, err := NewParameterSpec([]string{"n", "KM", "tau_prot"}, map[string]Range{
		"tau_prot": {Lower: 5, Initial: 10, Upper: 20},
		"KM":       {Lower: 10, Initial: 40, Upper: 80},
		"n":        {Lower: 1, Initial: 2, Upper: 4},
	})
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff([]string{"n", "KM", "tau_prot"}, spec.Names()); diff != "" {
		t.Errorf("names (-want +got):\n%s", diff)
	}
	b := spec.Bounds()
	if diff := cmp.Diff([]float64{1, 10, 5}, b.Lower); diff != "" {
		t.Errorf("lower (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{2, 40, 10}, spec.Initial().Slice()); diff != "" {
		t.Errorf("initial (-want +got):\n%s", diff)
	}

	v, err := spec.Values([]float64{3, 50, 12})
	if err != nil {
		t.Fatal(err)
	}
	if km, ok := v.Get("KM"); !ok || km != 50 {
		t.Errorf("Get(KM) = %g, %v", km, ok)
	}
	if diff := cmp.Diff(map[string]float64{"n": 3, "KM": 50, "tau_prot": 12}, v.Map()); diff != "" {
		t.Errorf("map (-want +got):\n%s", diff)
	}
	if _, err := spec.Values([]float64{1}); !errors.Is(err, ErrInvalidSpec) {
		t.Errorf("short values: got %v", err)
	}
}

func TestResample(t *testing.T) {
	pred := dataset.New([]string{"PX", "PY"}, []float64{0, 1, 2, 3})
	for i := range pred.Values {
		pred.Values[i][0] = float64(i)
		pred.Values[i][1] = 10
	}
	res := &Matrix{Species: []string{"PX", "PY"}, Data: [][]float64{{0.5, 0.5}, {0.5, 0.5}, {0.5, 0.5}, {0.5, 0.5}}}

	out, err := Resample(rand.New(rand.NewPCG(1, 2)), pred, res)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(pred.Times, out.Times); diff != "" {
		t.Errorf("times changed:\n%s", diff)
	}
	for i := range out.Values {
		for j := range out.Values[i] {
			if got, want := out.Values[i][j], pred.Values[i][j]+0.5; got != want {
				t.Errorf("cell (%d,%d) = %g, want %g", i, j, got, want)
			}
		}
	}
	if pred.Values[0][0] != 0 {
		t.Error("Resample modified the prediction")
	}

	zero := &Matrix{Species: []string{"PX", "PY"}, Data: [][]float64{{0, 0}, {0, 0}, {0, 0}, {0, 0}}}
	out, err = Resample(rand.New(rand.NewPCG(1, 2)), pred, zero)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(pred, out); diff != "" {
		t.Errorf("zero residuals changed data:\n%s", diff)
	}

	bad := []struct {
		name string
		res  *Matrix
	}{
		{"empty", &Matrix{}},
		{"too few rows", &Matrix{Species: []string{"PX"}, Data: [][]float64{{1}}}},
		{"too few columns", &Matrix{Species: []string{"PX"}, Data: [][]float64{{1}, {1}, {1}, {1}}}},
		{"short row", &Matrix{Species: []string{"PX", "PY"}, Data: [][]float64{{1, 1}, {}, {1, 1}, {1, 1}}}},
		{"empty row", &Matrix{Species: []string{"PX"}, Data: [][]float64{{}}}},
	}
	for _, tt := range bad {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Resample(rand.New(rand.NewPCG(1, 2)), pred, tt.res); !errors.Is(err, dataset.ErrShape) {
				t.Errorf("got %v", err)
			}
		})
	}
}

func TestSampleGridRejectsIrregularTimes(t *testing.T) {
	table := dataset.New([]string{"A"}, []float64{0, 1, 3})
	if _, err := sampleGrid(table); !errors.Is(err, ErrIrregularGrid) {
		t.Errorf("got %v", err)
	}
}

func TestIsOscillatory(t *testing.T) {
	tests := []struct {
		eigs []complex128
		want bool
	}{
		{nil, false},
		{[]complex128{-1, -2}, false},
		{[]complex128{complex(-1, 1e-12)}, false},
		{[]complex128{-1, complex(0.1, 0.5), complex(0.1, -0.5)}, true},
	}
	for _, tt := range tests {
		if got := IsOscillatory(tt.eigs, 1e-8); got != tt.want {
			t.Errorf("IsOscillatory(%v) = %v, want %v", tt.eigs, got, tt.want)
		}
	}
}

func TestTable(t *testing.T) {
	tab, err := NewTable([]string{"a", "b"}, [][]float64{{1, 2}, {3, 4}})
	if err != nil {
		t.Fatal(err)
	}
	col, err := tab.Column("b")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]float64{2, 4}, col); diff != "" {
		t.Errorf("column b:\n%s", diff)
	}
	if _, err := tab.Column("z"); !errors.Is(err, dataset.ErrUnknownColumn) {
		t.Errorf("unknown column: got %v", err)
	}
	if v, _ := tab.Row(1).Get("a"); v != 3 {
		t.Errorf("Row(1).a = %g", v)
	}
	if _, err := NewTable([]string{"a"}, [][]float64{{1, 2}}); !errors.Is(err, dataset.ErrShape) {
		t.Errorf("ragged rows: got %v", err)
	}
}

package narr

import (
	"errors"
	"math"
	"testing"
)

func TestWindSpeed(t *testing.T) {
	u := &Field{Name: "uwnd", Rows: 1, Cols: 3, Values: []float64{3, 0, math.NaN()}}
	v := &Field{Name: "vwnd", Rows: 1, Cols: 3, Values: []float64{4, -2, 1}}
	s, err := WindSpeed(u, v)
	if err != nil {
		t.Fatalf("WindSpeed: %v", err)
	}
	if math.Abs(s.Values[0]-5) > 1e-9 {
		t.Errorf("speed(3, 4): got %v, want 5", s.Values[0])
	}
	if s.Values[1] != 2 {
		t.Errorf("speed(0, -2): got %v, want 2", s.Values[1])
	}
	if !math.IsNaN(s.Values[2]) {
		t.Errorf("speed(NaN, 1): got %v, want NaN", s.Values[2])
	}
}

func TestWindSpeedShapeMismatch(t *testing.T) {
	u := &Field{Name: "uwnd", Rows: 1, Cols: 2, Values: []float64{1, 2}}
	v := &Field{Name: "vwnd", Rows: 2, Cols: 1, Values: []float64{1, 2}}
	_, err := WindSpeed(u, v)
	var se *ShapeMismatchError
	if !errors.As(err, &se) {
		t.Fatalf("unexpected error: got %v, want *ShapeMismatchError", err)
	}
}

func TestConversions(t *testing.T) {
	f := &Field{Name: "dpt", Units: "K", Rows: 1, Cols: 2, Values: []float64{273.15, math.NaN()}}
	c := Celsius(f)
	if c.Values[0] != 0 || !math.IsNaN(c.Values[1]) || c.Units != "degC" {
		t.Errorf("unexpected Celsius result: %+v", c)
	}
	if f.Values[0] != 273.15 {
		t.Errorf("input was modified: %v", f.Values)
	}
	k := Knots(&Field{Rows: 1, Cols: 1, Values: []float64{MetersPerSecondPerKnot * 10}})
	if math.Abs(k.Values[0]-10) > 1e-9 {
		t.Errorf("knots: got %v, want 10", k.Values[0])
	}
}

func TestGridCheck(t *testing.T) {
	g := Grid{Rows: 277, Cols: 350, Lat: make([]float64, 277*350), Lon: make([]float64, 277*350)}
	f := &Field{Name: "hgt", Rows: 277, Cols: 349, Values: make([]float64, 277*349)}
	err := g.Check(f)
	var se *ShapeMismatchError
	if !errors.As(err, &se) {
		t.Fatalf("unexpected error: got %v, want *ShapeMismatchError", err)
	}
	if se.Want != [2]int{277, 350} || se.Got != [2]int{277, 349} {
		t.Errorf("unexpected shapes: %+v", se)
	}
}

func TestLookupErrorMessage(t *testing.T) {
	e := &LookupError{Axis: "level", Requested: "700", Available: []string{"1000", "850", "500"}}
	want := "level 700 not found; available (3): 1000, 850, 500"
	if e.Error() != want {
		t.Errorf("unexpected message:\ngot  %q\nwant %q", e.Error(), want)
	}
	long := make([]string, 12)
	for i := range long {
		long[i] = string(rune('a' + i))
	}
	if got, want := abbreviate(long, 2), "a, b, ..., k, l"; got != want {
		t.Errorf("abbreviate: got %q, want %q", got, want)
	}
}

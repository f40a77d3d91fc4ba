package narr

import (
	"math"
	"time"
)

// MetersPerSecondPerKnot converts wind speeds between m/s and knots.
const MetersPerSecondPerKnot = 0.514444

// Field is a 2-D grid of values of a single variable taken at a given time
// and, for pressure-level variables, at a given level. Values are stored in
// row-major order: rows follow latitude, columns follow longitude.
type Field struct {
	Name  string
	Units string
	Time  time.Time

	// Level is the pressure level in hPa. It is meaningful only if HasLevel
	// is set.
	Level    float64
	HasLevel bool

	Rows   int
	Cols   int
	Values []float64
}

// At returns the value at row r and column c. Missing cells are NaN.
func (f *Field) At(r, c int) float64 {
	return f.Values[r*f.Cols+c]
}

// Shape returns the number of rows and columns of the field.
func (f *Field) Shape() [2]int {
	return [2]int{f.Rows, f.Cols}
}

// Map returns a copy of the field with fn applied to every value. NaN values
// are kept as they are.
func (f *Field) Map(name, units string, fn func(float64) float64) *Field {
	out := *f
	out.Name = name
	out.Units = units
	out.Values = make([]float64, len(f.Values))
	for i, v := range f.Values {
		if math.IsNaN(v) {
			out.Values[i] = v
			continue
		}
		out.Values[i] = fn(v)
	}
	return &out
}

// WindSpeed derives the wind speed sqrt(u²+v²) from its eastward and
// northward components.
func WindSpeed(u, v *Field) (*Field, error) {
	if u.Shape() != v.Shape() {
		return nil, &ShapeMismatchError{What: v.Name, Want: u.Shape(), Got: v.Shape()}
	}
	out := *u
	out.Name = "wspd"
	out.Values = make([]float64, len(u.Values))
	for i := range u.Values {
		out.Values[i] = math.Hypot(u.Values[i], v.Values[i])
	}
	return &out, nil
}

// Knots converts a wind component or speed field from m/s to knots.
func Knots(f *Field) *Field {
	return f.Map(f.Name, "kt", func(v float64) float64 { return v / MetersPerSecondPerKnot })
}

// Celsius converts a temperature field from Kelvin to degrees Celsius.
func Celsius(f *Field) *Field {
	return f.Map(f.Name, "degC", func(v float64) float64 { return v - 273.15 })
}

// Grid holds the latitude and longitude of every cell of the fields read
// from a dataset.
type Grid struct {
	Rows int
	Cols int
	Lat  []float64
	Lon  []float64
}

// Shape returns the number of rows and columns of the grid.
func (g Grid) Shape() [2]int {
	return [2]int{g.Rows, g.Cols}
}

// Check verifies that the field has the same shape as the grid.
func (g Grid) Check(f *Field) error {
	if f.Shape() != g.Shape() || len(f.Values) != g.Rows*g.Cols {
		return &ShapeMismatchError{What: f.Name, Want: g.Shape(), Got: f.Shape()}
	}
	return nil
}

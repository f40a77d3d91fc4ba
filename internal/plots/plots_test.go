package plots

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rtm0/narr/internal/narr"
	"github.com/rtm0/narr/internal/narr/narrtest"
	"github.com/rtm0/narr/internal/render"
)

func openDataset(t *testing.T, files []string) *narr.Dataset {
	t.Helper()
	ds, err := narr.Open(files...)
	if err != nil {
		t.Fatalf("cannot open dataset: %v", err)
	}
	t.Cleanup(ds.Close)
	return ds
}

func TestLevelWindHeightAllPairs(t *testing.T) {
	ds := openDataset(t, narrtest.PressureFiles(t, t.TempDir()))
	for _, ts := range ds.Times() {
		for _, level := range ds.Levels() {
			fig, err := LevelWindHeight(ds, ts, level, Request{})
			if err != nil {
				t.Fatalf("LevelWindHeight(%v, %v): %v", ts, level, err)
			}
			f := fig.Field()
			if f.Name != "hgt" || f.Level != level || !f.Time.Equal(ts) {
				t.Errorf("unexpected field %s at %v %v", f.Name, f.Level, f.Time)
			}
		}
	}
}

func TestLevelWindHeightMissingLevel(t *testing.T) {
	ds := openDataset(t, narrtest.PressureFiles(t, t.TempDir()))
	out := filepath.Join(t.TempDir(), "hgt700.png")
	_, err := LevelWindHeight(ds, narrtest.Times[0], 700, Request{Output: out})
	var le *narr.LookupError
	if !errors.As(err, &le) {
		t.Fatalf("unexpected error: got %v, want *narr.LookupError", err)
	}
	if le.Requested != "700" || strings.Join(le.Available, ",") != "1000,850,500" {
		t.Errorf("unexpected lookup error: %+v", le)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Errorf("a figure was written despite the error")
	}
}

func TestLevelWindHeightSaveIdempotent(t *testing.T) {
	ds := openDataset(t, narrtest.PressureFiles(t, t.TempDir()))
	dir := t.TempDir()
	var images [][]byte
	for _, name := range []string{"a.png", "b.png"} {
		out := filepath.Join(dir, name)
		req := Request{Output: out, Colormap: "Blues", Extent: []float64{-90, -85, 30, 34}}
		if _, err := LevelWindHeight(ds, narrtest.Times[1], 500, req); err != nil {
			t.Fatalf("LevelWindHeight: %v", err)
		}
		data, err := os.ReadFile(out)
		if err != nil {
			t.Fatalf("cannot read figure: %v", err)
		}
		images = append(images, data)
	}
	if len(images[0]) == 0 || !bytes.Equal(images[0], images[1]) {
		t.Fatalf("identical requests produced different images")
	}
}

func TestSurfaceWindDewpoint(t *testing.T) {
	ds := openDataset(t, narrtest.SurfaceFiles(t, t.TempDir()))
	fig, err := SurfaceWindDewpoint(ds, narrtest.Times[0], Request{BarbColor: "red"})
	if err != nil {
		t.Fatalf("SurfaceWindDewpoint: %v", err)
	}
	f := fig.Field()
	if f.Units != "degC" {
		t.Errorf("unexpected units %q", f.Units)
	}
	for r := 0; r < f.Rows; r++ {
		for c := 0; c < f.Cols; c++ {
			v := f.At(r, c)
			if r == narrtest.MissingCell[0] && c == narrtest.MissingCell[1] {
				if !math.IsNaN(v) {
					t.Errorf("missing cell: got %v, want NaN", v)
				}
				continue
			}
			if math.Abs(v-20) > 1e-3 {
				t.Errorf("dpt[%d][%d]: got %v, want 20", r, c, v)
			}
		}
	}

	_, err = SurfaceWindDewpoint(ds, time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC), Request{})
	var le *narr.LookupError
	if !errors.As(err, &le) || le.Axis != "time" {
		t.Fatalf("unexpected error: got %v, want a time *narr.LookupError", err)
	}
}

// skewedSource returns fields one column narrower than its grid.
type skewedSource struct {
	reads int
}

func (s *skewedSource) field(name string) *narr.Field {
	s.reads++
	return &narr.Field{Name: name, Rows: 277, Cols: 349, Values: make([]float64, 277*349)}
}

func (s *skewedSource) Field(name string, _ time.Time) (*narr.Field, error) {
	return s.field(name), nil
}

func (s *skewedSource) LevelField(name string, _ time.Time, _ float64) (*narr.Field, error) {
	return s.field(name), nil
}

func (s *skewedSource) Grid() narr.Grid {
	n := 277 * 350
	return narr.Grid{Rows: 277, Cols: 350, Lat: make([]float64, n), Lon: make([]float64, n)}
}

func TestPlotShapeMismatch(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.png")
	_, err := Plot(&skewedSource{}, Recipes["hgt"], Request{Level: 500, Output: out})
	var se *narr.ShapeMismatchError
	if !errors.As(err, &se) {
		t.Fatalf("unexpected error: got %v, want *narr.ShapeMismatchError", err)
	}
	var re *render.RenderError
	if errors.As(err, &re) {
		t.Errorf("shape mismatch reported as a render error: %v", err)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Errorf("a figure was written despite the error")
	}
}

func TestRecipes(t *testing.T) {
	hgt := Recipes["hgt"]
	if !hgt.PressureLevel || hgt.Scalar != "hgt" {
		t.Errorf("unexpected hgt recipe: %+v", hgt)
	}
	if got := hgt.Label(Request{Level: 500}); got != "500 mb Geopotential Height (meters)" {
		t.Errorf("unexpected hgt label %q", got)
	}
	dpt := Recipes["dpt"]
	if dpt.PressureLevel || dpt.Convert == nil {
		t.Errorf("unexpected dpt recipe: %+v", dpt)
	}
}

package narr_test

import (
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rtm0/narr/internal/narr"
	"github.com/rtm0/narr/internal/narr/narrtest"
)

func openPressure(t *testing.T) *narr.Dataset {
	t.Helper()
	ds, err := narr.Open(narrtest.PressureFiles(t, t.TempDir())...)
	if err != nil {
		t.Fatalf("cannot open dataset: %v", err)
	}
	t.Cleanup(ds.Close)
	return ds
}

func openSurface(t *testing.T) *narr.Dataset {
	t.Helper()
	ds, err := narr.Open(narrtest.SurfaceFiles(t, t.TempDir())...)
	if err != nil {
		t.Fatalf("cannot open dataset: %v", err)
	}
	t.Cleanup(ds.Close)
	return ds
}

func TestOpenAxes(t *testing.T) {
	ds := openPressure(t)

	times := ds.Times()
	if len(times) != len(narrtest.Times) {
		t.Fatalf("unexpected time count: got %d, want %d", len(times), len(narrtest.Times))
	}
	for i, want := range narrtest.Times {
		if !times[i].Equal(want) {
			t.Errorf("unexpected time[%d]: got %v, want %v", i, times[i], want)
		}
	}

	levels := ds.Levels()
	if len(levels) != len(narrtest.Levels) {
		t.Fatalf("unexpected level count: got %d, want %d", len(levels), len(narrtest.Levels))
	}
	for i, want := range narrtest.Levels {
		if levels[i] != float64(want) {
			t.Errorf("unexpected level[%d]: got %v, want %v", i, levels[i], want)
		}
	}

	g := ds.Grid()
	if g.Rows != narrtest.Rows || g.Cols != narrtest.Cols {
		t.Fatalf("unexpected grid shape: got %dx%d", g.Rows, g.Cols)
	}
	if got, want := g.Lat[1*g.Cols+3], float64(narrtest.Lat(1, 3)); got != want {
		t.Errorf("unexpected lat: got %v, want %v", got, want)
	}
	if got, want := g.Lon[2*g.Cols+4], float64(narrtest.Lon(2, 4)); got != want {
		t.Errorf("unexpected lon: got %v, want %v", got, want)
	}

	vars := strings.Join(ds.Variables(), ",")
	if vars != "hgt,uwnd,vwnd" {
		t.Errorf("unexpected variables: %s", vars)
	}
}

func TestOpenMissingFile(t *testing.T) {
	_, err := narr.Open(filepath.Join(t.TempDir(), "uwnd.199901.nc"))
	if !errors.Is(err, narr.ErrDataAccess) {
		t.Fatalf("unexpected error: got %v, want ErrDataAccess", err)
	}
}

func TestOpenDuplicateVariable(t *testing.T) {
	files := narrtest.PressureFiles(t, t.TempDir())
	_, err := narr.Open(files[0], files[0])
	if !errors.Is(err, narr.ErrDataAccess) {
		t.Fatalf("unexpected error: got %v, want ErrDataAccess", err)
	}
}

func TestLevelField(t *testing.T) {
	ds := openPressure(t)
	for ti, ts := range narrtest.Times {
		for li, level := range narrtest.Levels {
			f, err := ds.LevelField("hgt", ts, float64(level))
			if err != nil {
				t.Fatalf("LevelField(%v, %v): %v", ts, level, err)
			}
			if !f.HasLevel || f.Level != float64(level) {
				t.Errorf("unexpected level: got %v (has=%v), want %v", f.Level, f.HasLevel, level)
			}
			if f.Units != "m" {
				t.Errorf("unexpected units: %q", f.Units)
			}
			for r := 0; r < narrtest.Rows; r++ {
				for c := 0; c < narrtest.Cols; c++ {
					want := float64(narrtest.Height(ti, li, r, c))
					if got := f.At(r, c); got != want {
						t.Fatalf("hgt[%d][%d][%d][%d]: got %v, want %v", ti, li, r, c, got, want)
					}
				}
			}
		}
	}
}

func TestLevelFieldMissingLevel(t *testing.T) {
	ds := openPressure(t)
	_, err := ds.LevelField("hgt", narrtest.Times[0], 700)
	var le *narr.LookupError
	if !errors.As(err, &le) {
		t.Fatalf("unexpected error: got %v, want *LookupError", err)
	}
	if le.Axis != "level" || le.Requested != "700" {
		t.Errorf("unexpected lookup error: %+v", le)
	}
	msg := err.Error()
	for _, want := range []string{"700", "1000", "850", "500"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error %q does not mention %s", msg, want)
		}
	}
}

func TestFieldMissingTime(t *testing.T) {
	ds := openSurface(t)
	_, err := ds.Field("dpt", time.Date(2020, 7, 19, 19, 0, 0, 0, time.UTC))
	var le *narr.LookupError
	if !errors.As(err, &le) {
		t.Fatalf("unexpected error: got %v, want *LookupError", err)
	}
	if le.Axis != "time" || le.Requested != "2020-07-19 19:00:00" || len(le.Available) != len(narrtest.Times) {
		t.Errorf("unexpected lookup error: %+v", le)
	}
}

func TestFieldUnpacksAndMasks(t *testing.T) {
	ds := openSurface(t)
	if len(ds.Levels()) != 0 {
		t.Fatalf("monolevel dataset has levels: %v", ds.Levels())
	}
	f, err := ds.Field("dpt", narrtest.Times[1])
	if err != nil {
		t.Fatalf("Field: %v", err)
	}
	for r := 0; r < narrtest.Rows; r++ {
		for c := 0; c < narrtest.Cols; c++ {
			v := f.At(r, c)
			if r == narrtest.MissingCell[0] && c == narrtest.MissingCell[1] {
				if !math.IsNaN(v) {
					t.Errorf("missing cell: got %v, want NaN", v)
				}
				continue
			}
			if math.Abs(v-293.15) > 1e-3 {
				t.Errorf("dpt[%d][%d]: got %v, want 293.15", r, c, v)
			}
		}
	}
	u, err := ds.Field("uwnd", narrtest.Times[1])
	if err != nil {
		t.Fatalf("Field: %v", err)
	}
	if math.Abs(u.At(0, 0)-3) > 1e-6 {
		t.Errorf("uwnd: got %v, want 3", u.At(0, 0))
	}
}

func TestFieldWrongDimensions(t *testing.T) {
	ds := openPressure(t)
	_, err := ds.Field("hgt", narrtest.Times[0])
	if !errors.Is(err, narr.ErrDataAccess) {
		t.Fatalf("unexpected error: got %v, want ErrDataAccess", err)
	}
	_, err = ds.LevelField("rhum", narrtest.Times[0], 500)
	if !errors.Is(err, narr.ErrDataAccess) {
		t.Fatalf("unexpected error: got %v, want ErrDataAccess", err)
	}
}

func TestFieldGridMismatch(t *testing.T) {
	dir := t.TempDir()
	files := append(narrtest.SurfaceFiles(t, dir), narrtest.WideFile(t, dir))
	ds, err := narr.Open(files...)
	if err != nil {
		t.Fatalf("cannot open dataset: %v", err)
	}
	defer ds.Close()

	_, err = ds.Field("rhum", narrtest.Times[0])
	var se *narr.ShapeMismatchError
	if !errors.As(err, &se) {
		t.Fatalf("unexpected error: got %v, want *ShapeMismatchError", err)
	}
	want := [2]int{narrtest.Rows, narrtest.Cols}
	if se.What != "rhum" || se.Want != want || se.Got != [2]int{narrtest.Rows, narrtest.Cols + 1} {
		t.Errorf("unexpected shape mismatch: %+v", se)
	}
	if _, err := ds.Field("dpt", narrtest.Times[0]); err != nil {
		t.Errorf("well-shaped variable of the same dataset: %v", err)
	}
}

func TestWriteField(t *testing.T) {
	ds := openPressure(t)
	f, err := ds.LevelField("hgt", narrtest.Times[0], 500)
	if err != nil {
		t.Fatalf("LevelField: %v", err)
	}
	f.Values[3] = math.NaN()
	path := filepath.Join(t.TempDir(), "hgt500.nc")
	if err := narr.WriteField(path, f, ds.Grid()); err != nil {
		t.Fatalf("WriteField: %v", err)
	}

	out, err := narr.Open(path)
	if err != nil {
		t.Fatalf("cannot reopen: %v", err)
	}
	defer out.Close()
	if out.Grid().Shape() != ds.Grid().Shape() {
		t.Fatalf("unexpected grid shape: %v", out.Grid().Shape())
	}
	if got, want := strings.Join(out.Variables(), ","), "hgt"; got != want {
		t.Errorf("unexpected variables: got %s, want %s", got, want)
	}
	back, err := out.Field("hgt", narrtest.Times[0])
	if err != nil {
		t.Fatalf("cannot read back: %v", err)
	}
	if !math.IsNaN(back.Values[3]) {
		t.Errorf("missing cell: got %v, want NaN", back.Values[3])
	}
	if back.Values[0] != f.Values[0] || back.Units != "m" {
		t.Errorf("unexpected value read back: got %v %q, want %v m", back.Values[0], back.Units, f.Values[0])
	}
}

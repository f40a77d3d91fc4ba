// Package narrtest writes small NARR-like NetCDF files for tests.
package narrtest

import (
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"github.com/batchatco/go-native-netcdf/netcdf/cdf"
	"github.com/batchatco/go-native-netcdf/netcdf/util"
)

// Fixture dimensions.
const (
	Rows = 4
	Cols = 5
)

// Fixture axes.
var (
	Times = []time.Time{
		time.Date(2020, 7, 19, 15, 0, 0, 0, time.UTC),
		time.Date(2020, 7, 19, 18, 0, 0, 0, time.UTC),
	}
	Levels = []float32{1000, 850, 500}
)

// MissingCell is the (row, col) of the cell stored as missing in the
// surface dewpoint fixture.
var MissingCell = [2]int{1, 2}

const missingRaw int16 = 32766

var epoch1800 = time.Date(1800, 1, 1, 0, 0, 0, 0, time.UTC)

// Lat returns the latitude of the fixture cell (r, c).
func Lat(r, c int) float32 { return 30 + float32(r) + 0.1*float32(c) }

// Lon returns the longitude of the fixture cell (r, c).
func Lon(r, c int) float32 { return -90 + float32(c) + 0.05*float32(r) }

// Height returns the geopotential height stored at time index ti, level
// index li and cell (r, c).
func Height(ti, li, r, c int) float32 {
	return 100 + 2500*float32(li) + 10*float32(r) + float32(c) + float32(ti)
}

// PressureFiles writes uwnd, vwnd and hgt pressure-level files into dir and
// returns their paths. Wind components are u=3(li+1), v=4(li+1) m/s.
func PressureFiles(t testing.TB, dir string) []string {
	t.Helper()
	u := make([][][][]float32, len(Times))
	v := make([][][][]float32, len(Times))
	h := make([][][][]float32, len(Times))
	for ti := range Times {
		u[ti] = make([][][]float32, len(Levels))
		v[ti] = make([][][]float32, len(Levels))
		h[ti] = make([][][]float32, len(Levels))
		for li := range Levels {
			u[ti][li] = grid(func(r, c int) float32 { return 3 * float32(li+1) })
			v[ti][li] = grid(func(r, c int) float32 { return 4 * float32(li+1) })
			h[ti][li] = grid(func(r, c int) float32 { return Height(ti, li, r, c) })
		}
	}
	dims := []string{"time", "level", "y", "x"}
	return []string{
		write(t, filepath.Join(dir, "uwnd.202007.nc"), true, "uwnd", dataVar(u, dims, "m/s", nil)),
		write(t, filepath.Join(dir, "vwnd.202007.nc"), true, "vwnd", dataVar(v, dims, "m/s", nil)),
		write(t, filepath.Join(dir, "hgt.202007.nc"), true, "hgt", dataVar(h, dims, "m", nil)),
	}
}

// SurfaceFiles writes packed 10 m wind and 2 m dewpoint files into dir and
// returns their paths. Wind components unpack to u=3, v=4 m/s and the
// dewpoint to 293.15 K, except for MissingCell.
func SurfaceFiles(t testing.TB, dir string) []string {
	t.Helper()
	u := make([][][]int16, len(Times))
	v := make([][][]int16, len(Times))
	d := make([][][]int16, len(Times))
	for ti := range Times {
		u[ti] = rawGrid(func(r, c int) int16 { return 300 })
		v[ti] = rawGrid(func(r, c int) int16 { return 400 })
		d[ti] = rawGrid(func(r, c int) int16 {
			if r == MissingCell[0] && c == MissingCell[1] {
				return missingRaw
			}
			return 2000
		})
	}
	dims := []string{"time", "y", "x"}
	windPacking := map[string]any{"scale_factor": float32(0.01), "add_offset": float32(0), "missing_value": missingRaw}
	dewPacking := map[string]any{"scale_factor": float32(0.01), "add_offset": float32(273.15), "missing_value": missingRaw}
	return []string{
		write(t, filepath.Join(dir, "uwnd.10m.2020.nc"), false, "uwnd", dataVar(u, dims, "m/s", windPacking)),
		write(t, filepath.Join(dir, "vwnd.10m.2020.nc"), false, "vwnd", dataVar(v, dims, "m/s", windPacking)),
		write(t, filepath.Join(dir, "dpt.2m.2020.nc"), false, "dpt", dataVar(d, dims, "K", dewPacking)),
	}
}

func grid(fn func(r, c int) float32) [][]float32 {
	g := make([][]float32, Rows)
	for r := range g {
		g[r] = make([]float32, Cols)
		for c := range g[r] {
			g[r][c] = fn(r, c)
		}
	}
	return g
}

func rawGrid(fn func(r, c int) int16) [][]int16 {
	g := make([][]int16, Rows)
	for r := range g {
		g[r] = make([]int16, Cols)
		for c := range g[r] {
			g[r][c] = fn(r, c)
		}
	}
	return g
}

var packingKeys = []string{"units", "scale_factor", "add_offset", "missing_value"}

func dataVar(vals any, dims []string, units string, packing map[string]any) api.Variable {
	attrs := map[string]any{"units": units}
	for k, v := range packing {
		attrs[k] = v
	}
	var keys []string
	for _, k := range packingKeys {
		if _, ok := attrs[k]; ok {
			keys = append(keys, k)
		}
	}
	return api.Variable{Values: vals, Dimensions: dims, Attributes: orderedMap(keys, attrs)}
}

func orderedMap(keys []string, vals map[string]any) api.AttributeMap {
	m, err := util.NewOrderedMap(keys, vals)
	if err != nil {
		panic(err)
	}
	return m
}

func write(t testing.TB, path string, withLevel bool, name string, data api.Variable) string {
	t.Helper()
	cw, err := cdf.OpenWriter(path)
	if err != nil {
		t.Fatalf("cannot create %s: %v", path, err)
	}
	hours := make([]float64, len(Times))
	for i, ts := range Times {
		hours[i] = math.Round(ts.Sub(epoch1800).Hours())
	}
	vars := []struct {
		name string
		v    api.Variable
	}{
		{"time", api.Variable{
			Values:     hours,
			Dimensions: []string{"time"},
			Attributes: orderedMap([]string{"units"}, map[string]any{"units": "hours since 1800-01-01 00:00:0.0"}),
		}},
		{"lat", api.Variable{
			Values:     grid(Lat),
			Dimensions: []string{"y", "x"},
			Attributes: orderedMap([]string{"units"}, map[string]any{"units": "degrees_north"}),
		}},
		{"lon", api.Variable{
			Values:     grid(Lon),
			Dimensions: []string{"y", "x"},
			Attributes: orderedMap([]string{"units"}, map[string]any{"units": "degrees_east"}),
		}},
	}
	if withLevel {
		vars = append(vars, struct {
			name string
			v    api.Variable
		}{"level", api.Variable{
			Values:     Levels,
			Dimensions: []string{"level"},
			Attributes: orderedMap([]string{"units"}, map[string]any{"units": "millibar"}),
		}})
	}
	vars = append(vars, struct {
		name string
		v    api.Variable
	}{name, data})
	for _, v := range vars {
		if err := cw.AddVar(v.name, v.v); err != nil {
			cw.Close()
			t.Fatalf("cannot add %q to %s: %v", v.name, path, err)
		}
	}
	if err := cw.Close(); err != nil {
		t.Fatalf("cannot close %s: %v", path, err)
	}
	return path
}

// WideFile writes a monolevel file whose rhum variable is one column wider
// than the lat/lon grid and returns its path.
func WideFile(t testing.TB, dir string) string {
	t.Helper()
	rh := make([][][]float32, len(Times))
	for ti := range Times {
		rh[ti] = make([][]float32, Rows)
		for r := range rh[ti] {
			rh[ti][r] = make([]float32, Cols+1)
		}
	}
	v := dataVar(rh, []string{"time", "y", "x_wide"}, "%", nil)
	return write(t, filepath.Join(dir, "rhum.2m.2020.nc"), false, "rhum", v)
}

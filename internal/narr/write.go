package narr

import (
	"fmt"

	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"github.com/batchatco/go-native-netcdf/netcdf/cdf"
	"github.com/batchatco/go-native-netcdf/netcdf/util"
)

// WriteField writes the field and its coordinates to a NetCDF classic file
// laid out like a NARR monolevel file with a single time step, so that it
// can be read back with Open and Dataset.Field. Missing cells are written as
// NaN.
func WriteField(path string, f *Field, g Grid) error {
	if err := g.Check(f); err != nil {
		return err
	}
	cw, err := cdf.OpenWriter(path)
	if err != nil {
		return fmt.Errorf("%w: create %s: %w", ErrDataAccess, path, err)
	}
	hours := float64(f.Time.Unix()-unixSecs1800) / 3600
	vars := []struct {
		name  string
		vals  any
		dims  []string
		attrs map[string]any
	}{
		{"time", []float64{hours}, []string{"time"}, map[string]any{"units": "hours since 1800-01-01 00:00:0.0"}},
		{"lat", to2D(g.Lat, g.Rows, g.Cols), []string{"y", "x"}, map[string]any{"units": "degrees_north"}},
		{"lon", to2D(g.Lon, g.Rows, g.Cols), []string{"y", "x"}, map[string]any{"units": "degrees_east"}},
		{f.Name, [][][]float32{to2D(f.Values, g.Rows, g.Cols)}, []string{"time", "y", "x"}, fieldAttrs(f)},
	}
	for _, v := range vars {
		var keys []string
		vals := make(map[string]any)
		for _, k := range []string{"units", "valid_time", "level"} {
			a, ok := v.attrs[k]
			if !ok || a == "" {
				continue
			}
			keys = append(keys, k)
			vals[k] = a
		}
		attrs, err := util.NewOrderedMap(keys, vals)
		if err != nil {
			cw.Close()
			return err
		}
		err = cw.AddVar(v.name, api.Variable{
			Values:     v.vals,
			Dimensions: v.dims,
			Attributes: attrs,
		})
		if err != nil {
			cw.Close()
			return fmt.Errorf("%w: write %q to %s: %w", ErrDataAccess, v.name, path, err)
		}
	}
	if err := cw.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %w", ErrDataAccess, path, err)
	}
	return nil
}

func fieldAttrs(f *Field) map[string]any {
	attrs := map[string]any{
		"units":      f.Units,
		"valid_time": f.Time.Format(TimeLayout),
	}
	if f.HasLevel {
		attrs["level"] = f.Level
	}
	return attrs
}

func to2D(vals []float64, rows, cols int) [][]float32 {
	out := make([][]float32, rows)
	for r := range out {
		out[r] = make([]float32, cols)
		for c := range out[r] {
			out[r][c] = float32(vals[r*cols+c])
		}
	}
	return out
}

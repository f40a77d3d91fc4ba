package narr

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"
)

// coordVars are the variables every NARR file repeats next to its data
// variable. They may appear in several files of the same dataset.
var coordVars = map[string]bool{
	"time":              true,
	"time_bnds":         true,
	"level":             true,
	"lat":               true,
	"lon":               true,
	"latitude":          true,
	"longitude":         true,
	"x":                 true,
	"y":                 true,
	"Lambert_Conformal": true,
}

// Dataset provides access to the fields stored in one or more NARR files
// sharing the same grid and time axis, for example uwnd.202007.nc,
// vwnd.202007.nc and hgt.202007.nc.
//
// Dataset is safe for concurrent use; reads are serialized.
type Dataset struct {
	mu     sync.Mutex
	files  []api.Group
	vars   map[string]api.VarGetter
	names  []string
	ts     []time.Time
	levels []float64
	grid   Grid
}

// Open opens the NetCDF files at paths as a single dataset.
func Open(paths ...string) (*Dataset, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no files given", ErrDataAccess)
	}
	d := &Dataset{vars: make(map[string]api.VarGetter)}
	for _, path := range paths {
		if err := d.add(path); err != nil {
			d.Close()
			return nil, err
		}
	}
	if err := d.readCoords(); err != nil {
		d.Close()
		return nil, err
	}
	slices.Sort(d.names)
	return d, nil
}

func (d *Dataset) add(path string) error {
	nc, err := netcdf.Open(path)
	if err != nil {
		return fmt.Errorf("%w: open %s: %w", ErrDataAccess, path, err)
	}
	d.files = append(d.files, nc)
	for _, name := range nc.ListVariables() {
		if _, ok := d.vars[name]; ok {
			if coordVars[name] {
				continue
			}
			return fmt.Errorf("%w: variable %q found in more than one file (again in %s)", ErrDataAccess, name, path)
		}
		vg, err := nc.GetVarGetter(name)
		if err != nil {
			return fmt.Errorf("%w: %s: variable %q: %w", ErrDataAccess, path, name, err)
		}
		d.vars[name] = vg
		if !coordVars[name] {
			d.names = append(d.names, name)
		}
	}
	return nil
}

func (d *Dataset) readCoords() error {
	lat, latShape, err := d.coordValues("lat", "latitude")
	if err != nil {
		return err
	}
	lon, lonShape, err := d.coordValues("lon", "longitude")
	if err != nil {
		return err
	}
	switch {
	case len(latShape) == 2 && slices.Equal(latShape, lonShape):
		d.grid = Grid{Rows: latShape[0], Cols: latShape[1], Lat: lat, Lon: lon}
	case len(latShape) == 1 && len(lonShape) == 1:
		// Regular lat/lon grid: expand both axes to 2-D arrays.
		g := Grid{Rows: len(lat), Cols: len(lon)}
		g.Lat = make([]float64, 0, g.Rows*g.Cols)
		g.Lon = make([]float64, 0, g.Rows*g.Cols)
		for _, la := range lat {
			for _, lo := range lon {
				g.Lat = append(g.Lat, la)
				g.Lon = append(g.Lon, lo)
			}
		}
		d.grid = g
	default:
		return &ShapeMismatchError{
			What: "lon",
			Want: shape2(latShape),
			Got:  shape2(lonShape),
		}
	}

	hours, _, err := d.coordValues("time")
	if err != nil {
		return err
	}
	ta, err := parseTimeUnits(stringAttr(d.vars["time"].Attributes(), "units"))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDataAccess, err)
	}
	d.ts = make([]time.Time, len(hours))
	for i, h := range hours {
		d.ts[i] = ta.at(h)
	}

	// Monolevel files have no level axis.
	if _, ok := d.vars["level"]; ok {
		d.levels, _, err = d.coordValues("level")
		if err != nil {
			return err
		}
	}
	return nil
}

func shape2(shape []int) [2]int {
	var s [2]int
	copy(s[:], shape)
	return s
}

// coordValues reads the first of the named variables present in the
// dataset.
func (d *Dataset) coordValues(names ...string) ([]float64, []int, error) {
	for _, name := range names {
		vg, ok := d.vars[name]
		if !ok {
			continue
		}
		v, err := vg.Values()
		if err != nil {
			return nil, nil, fmt.Errorf("%w: read %q: %w", ErrDataAccess, name, err)
		}
		vals, shape, err := flatten(v)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: read %q: %w", ErrDataAccess, name, err)
		}
		packingOf(vg.Attributes()).unpack(vals)
		return vals, shape, nil
	}
	return nil, nil, fmt.Errorf("%w: coordinate variable %q not found", ErrDataAccess, names[0])
}

// Close closes all files of the dataset.
func (d *Dataset) Close() {
	for _, nc := range d.files {
		nc.Close()
	}
	d.files = nil
}

// Summary returns the summary information about the dataset suitable for
// logging.
func (d *Dataset) Summary() []any {
	attrs := []any{
		"files", len(d.files),
		"vars", d.names,
		"timeCnt", len(d.ts),
		"levelCnt", len(d.levels),
		"rows", d.grid.Rows,
		"cols", d.grid.Cols,
	}
	if len(d.ts) > 0 {
		attrs = append(attrs,
			"first", d.ts[0].Format(TimeLayout),
			"last", d.ts[len(d.ts)-1].Format(TimeLayout))
	}
	return attrs
}

// Variables returns the sorted names of the data variables of the dataset.
func (d *Dataset) Variables() []string {
	return slices.Clone(d.names)
}

// Times returns the time axis of the dataset.
func (d *Dataset) Times() []time.Time {
	return slices.Clone(d.ts)
}

// Levels returns the pressure levels (hPa) of the dataset. It is empty for
// monolevel datasets.
func (d *Dataset) Levels() []float64 {
	return slices.Clone(d.levels)
}

// Grid returns the coordinate grid shared by all fields of the dataset.
func (d *Dataset) Grid() Grid {
	return d.grid
}

// TimeIndex returns the position of ts on the time axis.
func (d *Dataset) TimeIndex(ts time.Time) (int, error) {
	for i, t := range d.ts {
		if t.Equal(ts) {
			return i, nil
		}
	}
	avail := make([]string, len(d.ts))
	for i, t := range d.ts {
		avail[i] = t.Format(TimeLayout)
	}
	return 0, &LookupError{Axis: "time", Requested: ts.UTC().Format(TimeLayout), Available: avail}
}

// LevelIndex returns the position of level on the level axis.
func (d *Dataset) LevelIndex(level float64) (int, error) {
	for i, l := range d.levels {
		if math.Abs(l-level) < 1e-6 {
			return i, nil
		}
	}
	avail := make([]string, len(d.levels))
	for i, l := range d.levels {
		avail[i] = formatLevel(l)
	}
	return 0, &LookupError{Axis: "level", Requested: formatLevel(level), Available: avail}
}

func formatLevel(l float64) string {
	return strconv.FormatFloat(l, 'f', -1, 64)
}

// Field reads the surface or monolevel variable name, stored with the
// (time, y, x) dimensions, at time ts.
func (d *Dataset) Field(name string, ts time.Time) (*Field, error) {
	ti, err := d.TimeIndex(ts)
	if err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	vals, attrs, err := d.slice(name, ti, 3)
	if err != nil {
		return nil, err
	}
	return d.newField(name, attrs, ts, vals)
}

// LevelField reads the pressure-level variable name, stored with the
// (time, level, y, x) dimensions, at time ts and the given level in hPa.
func (d *Dataset) LevelField(name string, ts time.Time, level float64) (*Field, error) {
	ti, err := d.TimeIndex(ts)
	if err != nil {
		return nil, err
	}
	li, err := d.LevelIndex(level)
	if err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	vals, attrs, err := d.slice(name, ti, 4)
	if err != nil {
		return nil, err
	}
	n := d.grid.Rows * d.grid.Cols
	if len(vals) < (li+1)*n {
		return nil, fmt.Errorf("%w: variable %q holds %d values per time step, want %d levels of %d",
			ErrDataAccess, name, len(vals), len(d.levels), n)
	}
	f, err := d.newField(name, attrs, ts, slices.Clone(vals[li*n:(li+1)*n]))
	if err != nil {
		return nil, err
	}
	f.Level = d.levels[li]
	f.HasLevel = true
	return f, nil
}

// slice reads one time step of a variable with the given number of
// dimensions and unpacks it.
func (d *Dataset) slice(name string, ti, ndims int) ([]float64, api.AttributeMap, error) {
	vg, ok := d.vars[name]
	if !ok || coordVars[name] {
		return nil, nil, fmt.Errorf("%w: variable %q not found; dataset has %v", ErrDataAccess, name, d.names)
	}
	if dims := vg.Dimensions(); len(dims) != ndims {
		return nil, nil, fmt.Errorf("%w: variable %q has dimensions %v, want %d dimensions",
			ErrDataAccess, name, dims, ndims)
	}
	begin := int64(ti)
	limit := begin + 1
	v, err := vg.GetSlice(begin, limit)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: read %q: %w", ErrDataAccess, name, err)
	}
	vals, shape, err := flatten(v)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: read %q: %w", ErrDataAccess, name, err)
	}
	if len(shape) != ndims {
		return nil, nil, fmt.Errorf("%w: variable %q has shape %v, want %d dimensions",
			ErrDataAccess, name, shape, ndims)
	}
	got := [2]int{shape[ndims-2], shape[ndims-1]}
	if got != d.grid.Shape() {
		return nil, nil, &ShapeMismatchError{What: name, Want: d.grid.Shape(), Got: got}
	}
	attrs := vg.Attributes()
	packingOf(attrs).unpack(vals)
	return vals, attrs, nil
}

func (d *Dataset) newField(name string, attrs api.AttributeMap, ts time.Time, vals []float64) (*Field, error) {
	f := &Field{
		Name:   name,
		Units:  stringAttr(attrs, "units"),
		Time:   ts,
		Rows:   d.grid.Rows,
		Cols:   d.grid.Cols,
		Values: vals,
	}
	if err := d.grid.Check(f); err != nil {
		return nil, err
	}
	return f, nil
}

// Package render draws gridded fields on maps.
package render

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/ctessum/geom"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/rtm0/narr/internal/narr"
)

// RenderError is returned when a figure cannot be built or encoded.
type RenderError struct {
	Op  string
	Err error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render: %s: %v", e.Op, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// Options control the appearance of a figure. The zero value is usable.
type Options struct {
	Title string
	// Label is the colorbar label.
	Label string
	// Colormap is a ColorBrewer palette name. Default "Reds".
	Colormap string
	// BarbColor is an SVG color name or "#rrggbb". Default "darkblue".
	BarbColor string
	// Levels are the contour levels of the scalar field. If empty, about
	// NumLevels round levels spanning the data are used.
	Levels    []float64
	NumLevels int
	// BarbStride draws a barb every BarbStride grid points. Default 2.
	BarbStride int
	// Extent is [west, east, south, north] in degrees. Default: the grid.
	Extent     []float64
	Projection Projection
	Basemap    *Basemap
	// Width and Height of the map. Default 8 inches square.
	Width  vg.Length
	Height vg.Length
}

func (o *Options) defaults() {
	if o.Colormap == "" {
		o.Colormap = "Reds"
	}
	if o.BarbColor == "" {
		o.BarbColor = "darkblue"
	}
	if o.NumLevels <= 0 {
		o.NumLevels = DefaultNumLevels
	}
	if o.BarbStride <= 0 {
		o.BarbStride = 2
	}
	if o.Width <= 0 {
		o.Width = 8 * vg.Inch
	}
	if o.Height <= 0 {
		o.Height = 8 * vg.Inch
	}
}

// Figure is a rendered map with its colorbar.
type Figure struct {
	Map      *plot.Plot
	Colorbar *plot.Plot

	mapWidth vg.Length
	height   vg.Length
	field    *narr.Field
}

// colorbarWidth is the width of the strip right of the map.
const colorbarWidth = 1.2 * vg.Inch

// barbDisplacement is the step, in degrees, used to orient barbs.
const barbDisplacement = 0.1

// New renders the scalar field as filled contour intervals overlaid with
// wind barbs from the u and v components (in knots) and the basemap. All
// fields must have the shape of the grid.
func New(scalar, u, v *narr.Field, grid narr.Grid, opts Options) (*Figure, error) {
	for _, f := range []*narr.Field{scalar, u, v} {
		if err := grid.Check(f); err != nil {
			return nil, err
		}
	}
	if n := grid.Rows * grid.Cols; len(grid.Lat) != n || len(grid.Lon) != n {
		return nil, &narr.ShapeMismatchError{
			What: "coordinates",
			Want: grid.Shape(),
			Got:  [2]int{len(grid.Lat) / max(grid.Cols, 1), grid.Cols},
		}
	}
	opts.defaults()

	pr := opts.Projection
	xs := make([]float64, len(grid.Lat))
	ys := make([]float64, len(grid.Lat))
	for i := range grid.Lat {
		x, y, err := pr.Forward(grid.Lon[i], grid.Lat[i])
		if err != nil {
			return nil, &RenderError{Op: "project grid", Err: err}
		}
		xs[i], ys[i] = x, y
	}

	levels := opts.Levels
	if len(levels) == 0 {
		var err error
		levels, err = autoLevels(scalar.Values, opts.NumLevels)
		if err != nil {
			return nil, &RenderError{Op: "levels", Err: err}
		}
	}
	scale, err := newLevelScale(levels, opts.Colormap)
	if err != nil {
		return nil, &RenderError{Op: "colormap", Err: err}
	}
	barbColor, err := parseColor(opts.BarbColor)
	if err != nil {
		return nil, &RenderError{Op: "barb color", Err: err}
	}

	speed, err := narr.WindSpeed(u, v)
	if err != nil {
		return nil, err
	}
	ws, err := windBarbs(u, v, speed, grid, pr, opts.BarbStride)
	if err != nil {
		return nil, &RenderError{Op: "project barbs", Err: err}
	}

	// Without an extent the map shows the projected grid. The lon/lat box
	// of the grid then only culls basemap lines.
	extent := gridExtent(grid)
	var view *geom.Bounds
	if len(opts.Extent) > 0 {
		if len(opts.Extent) != 4 || opts.Extent[0] >= opts.Extent[1] || opts.Extent[2] >= opts.Extent[3] {
			return nil, &RenderError{Op: "extent", Err: fmt.Errorf("want [west, east, south, north], got %v", opts.Extent)}
		}
		extent = &geom.Bounds{
			Min: geom.Point{X: opts.Extent[0], Y: opts.Extent[2]},
			Max: geom.Point{X: opts.Extent[1], Y: opts.Extent[3]},
		}
		if view, err = projectBounds(pr, extent); err != nil {
			return nil, &RenderError{Op: "project extent", Err: err}
		}
	} else if view, err = pointBounds(xs, ys); err != nil {
		return nil, &RenderError{Op: "grid extent", Err: err}
	}

	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text, p.Y.Label.Text = pr.axisLabels()
	p.Add(&mesh{cells: meshCells(xs, ys, scalar.Values, grid.Rows, grid.Cols, pr.maxCellWidth()), scale: scale})
	if opts.Basemap != nil {
		lines, err := opts.Basemap.project(pr, extent)
		if err != nil {
			return nil, &RenderError{Op: "project basemap", Err: err}
		}
		p.Add(&basemapLines{lines: lines, style: draw.LineStyle{Color: color.Black, Width: vg.Points(0.75)}})
	}
	p.Add(&barbs{
		barbs: ws,
		style: draw.LineStyle{Color: barbColor, Width: vg.Points(1.5)},
		fill:  barbColor,
		size:  vg.Points(18),
	})
	p.X.Min, p.X.Max = view.Min.X, view.Max.X
	p.Y.Min, p.Y.Max = view.Min.Y, view.Max.Y

	label := opts.Label
	if label == "" {
		label = scalar.Name
		if scalar.Units != "" {
			label += " (" + scalar.Units + ")"
		}
	}
	return &Figure{
		Map:      p,
		Colorbar: newColorbarPlot(scale, label),
		mapWidth: opts.Width,
		height:   opts.Height,
		field:    scalar,
	}, nil
}

// windBarbs samples the wind every stride grid points, skipping missing
// cells. The components give the direction and speed the magnitude.
func windBarbs(u, v, speed *narr.Field, grid narr.Grid, pr Projection, stride int) ([]barb, error) {
	var out []barb
	for r := 0; r < grid.Rows; r += stride {
		for c := 0; c < grid.Cols; c += stride {
			i := r*grid.Cols + c
			uu, vv, ss := u.Values[i], v.Values[i], speed.Values[i]
			if math.IsNaN(uu) || math.IsNaN(vv) || math.IsNaN(ss) {
				continue
			}
			lon, lat := grid.Lon[i], grid.Lat[i]
			x, y, err := pr.Forward(lon, lat)
			if err != nil {
				return nil, err
			}
			b := barb{x: x, y: y, ex: x, ey: y, speed: ss}
			if b.speed > 0 {
				dlon := barbDisplacement * uu / b.speed / math.Max(math.Cos(lat*math.Pi/180), 1e-6)
				dlat := barbDisplacement * vv / b.speed
				b.ex, b.ey, err = pr.Forward(lon+dlon, lat+dlat)
				if err != nil {
					return nil, err
				}
			}
			out = append(out, b)
		}
	}
	return out, nil
}

func gridExtent(grid narr.Grid) *geom.Bounds {
	b := &geom.Bounds{
		Min: geom.Point{X: math.Inf(1), Y: math.Inf(1)},
		Max: geom.Point{X: math.Inf(-1), Y: math.Inf(-1)},
	}
	for i := range grid.Lat {
		if math.IsNaN(grid.Lat[i]) || math.IsNaN(grid.Lon[i]) {
			continue
		}
		b.Min.X = math.Min(b.Min.X, grid.Lon[i])
		b.Max.X = math.Max(b.Max.X, grid.Lon[i])
		b.Min.Y = math.Min(b.Min.Y, grid.Lat[i])
		b.Max.Y = math.Max(b.Max.Y, grid.Lat[i])
	}
	return b
}

// pointBounds returns the bounds of the finite points (xs[i], ys[i]).
func pointBounds(xs, ys []float64) (*geom.Bounds, error) {
	b := &geom.Bounds{
		Min: geom.Point{X: math.Inf(1), Y: math.Inf(1)},
		Max: geom.Point{X: math.Inf(-1), Y: math.Inf(-1)},
	}
	for i := range xs {
		if math.IsNaN(xs[i]) || math.IsNaN(ys[i]) {
			continue
		}
		b.Min.X, b.Max.X = math.Min(b.Min.X, xs[i]), math.Max(b.Max.X, xs[i])
		b.Min.Y, b.Max.Y = math.Min(b.Min.Y, ys[i]), math.Max(b.Max.Y, ys[i])
	}
	if math.IsInf(b.Min.X, 0) || b.Min.X == b.Max.X || b.Min.Y == b.Max.Y {
		return nil, fmt.Errorf("grid of %d points covers no area", len(xs))
	}
	return b, nil
}

// projectBounds returns the bounds, in map coordinates, of the edges of a
// longitude/latitude box.
func projectBounds(pr Projection, b *geom.Bounds) (*geom.Bounds, error) {
	const steps = 32
	out := &geom.Bounds{
		Min: geom.Point{X: math.Inf(1), Y: math.Inf(1)},
		Max: geom.Point{X: math.Inf(-1), Y: math.Inf(-1)},
	}
	add := func(lon, lat float64) error {
		x, y, err := pr.Forward(lon, lat)
		if err != nil {
			return err
		}
		out.Min.X, out.Max.X = math.Min(out.Min.X, x), math.Max(out.Max.X, x)
		out.Min.Y, out.Max.Y = math.Min(out.Min.Y, y), math.Max(out.Max.Y, y)
		return nil
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / steps
		lon := b.Min.X + t*(b.Max.X-b.Min.X)
		lat := b.Min.Y + t*(b.Max.Y-b.Min.Y)
		for _, pt := range [][2]float64{{lon, b.Min.Y}, {lon, b.Max.Y}, {b.Min.X, lat}, {b.Max.X, lat}} {
			if err := add(pt[0], pt[1]); err != nil {
				return nil, err
			}
		}
	}
	if math.IsInf(out.Min.X, 0) || out.Min.X == out.Max.X || out.Min.Y == out.Max.Y {
		return nil, fmt.Errorf("empty extent %v", *b)
	}
	return out, nil
}

// Field returns the scalar field drawn on the map.
func (f *Figure) Field() *narr.Field {
	return f.field
}

// Encode writes the figure in the given format: png, jpg, pdf, svg, eps or
// tif.
func (f *Figure) Encode(w io.Writer, format string) error {
	c, err := f.draw(format)
	if err != nil {
		return err
	}
	if _, err := c.WriteTo(w); err != nil {
		return &RenderError{Op: "encode " + format, Err: err}
	}
	return nil
}

func (f *Figure) draw(format string) (vg.CanvasWriterTo, error) {
	c, err := draw.NewFormattedCanvas(f.mapWidth+colorbarWidth, f.height, strings.ToLower(format))
	if err != nil {
		return nil, &RenderError{Op: "canvas", Err: err}
	}
	dc := draw.New(c)
	f.Map.Draw(draw.Crop(dc, 0, -colorbarWidth, 0, 0))
	// The colorbar spans 70% of the figure height.
	margin := f.height * 0.15
	f.Colorbar.Draw(draw.Crop(dc, f.mapWidth, 0, margin, -margin))
	return c, nil
}

// Save writes the figure to path, in the format given by its extension.
// The image is written to a temporary file next to path and renamed, so a
// failed save leaves no file behind.
func (f *Figure) Save(path string) (err error) {
	format := strings.TrimPrefix(filepath.Ext(path), ".")
	if format == "" {
		return &RenderError{Op: "save", Err: fmt.Errorf("no file extension in %q", path)}
	}
	c, err := f.draw(format)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".narr-*")
	if err != nil {
		return &RenderError{Op: "save", Err: err}
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()
	if _, err := c.WriteTo(tmp); err != nil {
		return &RenderError{Op: "encode " + format, Err: err}
	}
	if err := tmp.Chmod(0o644); err != nil {
		return &RenderError{Op: "save", Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &RenderError{Op: "save", Err: err}
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return &RenderError{Op: "save", Err: err}
	}
	return nil
}

package render

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/geojson"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Basemap holds the coastline and border lines drawn under the data, in
// longitude/latitude degrees.
type Basemap struct {
	lines []geom.LineString
}

// geoJSON is the envelope of FeatureCollection, Feature and
// GeometryCollection objects. Geometries are decoded by the geojson package.
type geoJSON struct {
	Type       string            `json:"type"`
	Features   []geoJSON         `json:"features"`
	Geometry   json.RawMessage   `json:"geometry"`
	Geometries []json.RawMessage `json:"geometries"`
}

// LoadBasemap reads GeoJSON files, such as the Natural Earth coastline and
// admin-0 boundary lines. Line and polygon geometries are kept; polygons are
// drawn as their outlines.
func LoadBasemap(paths ...string) (*Basemap, error) {
	b := &Basemap{}
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := b.add(data); err != nil {
			return nil, fmt.Errorf("cannot parse %s: %w", path, err)
		}
	}
	return b, nil
}

func (b *Basemap) add(data []byte) error {
	var obj geoJSON
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	switch obj.Type {
	case "FeatureCollection":
		for _, f := range obj.Features {
			if err := b.addFeature(f); err != nil {
				return err
			}
		}
		return nil
	case "Feature":
		return b.addFeature(obj)
	case "GeometryCollection":
		for _, g := range obj.Geometries {
			if err := b.add(g); err != nil {
				return err
			}
		}
		return nil
	case "Point", "MultiPoint":
		return nil
	}
	g, err := geojson.Decode(data)
	if err != nil {
		return err
	}
	switch g := g.(type) {
	case geom.LineString:
		b.lines = append(b.lines, g)
	case geom.MultiLineString:
		b.lines = append(b.lines, g...)
	case geom.Polygon:
		b.addRings(g)
	case geom.MultiPolygon:
		for _, poly := range g {
			b.addRings(poly)
		}
	default:
		return fmt.Errorf("unsupported geometry %T", g)
	}
	return nil
}

func (b *Basemap) addFeature(f geoJSON) error {
	if f.Type != "Feature" {
		return fmt.Errorf("unexpected %q in feature collection", f.Type)
	}
	if len(f.Geometry) == 0 || string(f.Geometry) == "null" {
		return nil
	}
	return b.add(f.Geometry)
}

func (b *Basemap) addRings(poly geom.Polygon) {
	for _, ring := range poly {
		b.lines = append(b.lines, geom.LineString(ring))
	}
}

// project returns the lines overlapping the extent, in map coordinates.
func (b *Basemap) project(pr Projection, extent *geom.Bounds) ([][]geom.Point, error) {
	var out [][]geom.Point
	for _, l := range b.lines {
		if len(l) < 2 || !l.Bounds().Overlaps(extent) {
			continue
		}
		pts := make([]geom.Point, len(l))
		for i, p := range l {
			x, y, err := pr.Forward(p.X, p.Y)
			if err != nil {
				return nil, err
			}
			pts[i] = geom.Point{X: x, Y: y}
		}
		out = append(out, pts)
	}
	return out, nil
}

// basemapLines strokes projected basemap lines.
type basemapLines struct {
	lines [][]geom.Point
	style draw.LineStyle
}

// Plot implements the plot.Plotter interface.
func (bl *basemapLines) Plot(c draw.Canvas, p *plot.Plot) {
	trX, trY := p.Transforms(&c)
	for _, l := range bl.lines {
		pts := make([]vg.Point, len(l))
		for i, pt := range l {
			pts[i] = vg.Point{X: trX(pt.X), Y: trY(pt.Y)}
		}
		c.StrokeLines(bl.style, c.ClipLinesXY(pts)...)
	}
}

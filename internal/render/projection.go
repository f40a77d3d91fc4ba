package render

import (
	"fmt"
	"math"
	"strings"

	"github.com/ctessum/geom/proj"
)

// narrLCC is the native Lambert conformal projection of the NARR 32 km grid.
const narrLCC = "+proj=lcc +lat_1=50 +lat_2=50 +lat_0=50 +lon_0=-107 " +
	"+x_0=5632642.22547 +y_0=4612545.65137 +a=6371200 +b=6371200 +units=m +no_defs"

const lonLat = "+proj=longlat +a=6371200 +b=6371200 +no_defs"

// Projection maps longitude and latitude in degrees to map coordinates.
// The zero value is the equirectangular (plate carrée) projection, which
// leaves coordinates unchanged.
type Projection struct {
	name  string
	scale float64
	tr    proj.Transformer
}

// PlateCarree returns the equirectangular projection.
func PlateCarree() Projection {
	return Projection{}
}

// LambertConformal returns the NARR native projection. Map coordinates are
// in kilometers.
func LambertConformal() (Projection, error) {
	src, err := proj.Parse(lonLat)
	if err != nil {
		return Projection{}, err
	}
	dst, err := proj.Parse(narrLCC)
	if err != nil {
		return Projection{}, err
	}
	tr, err := src.NewTransform(dst)
	if err != nil {
		return Projection{}, err
	}
	return Projection{name: "lambert", scale: 1e-3, tr: tr}, nil
}

// ParseProjection returns the projection with the given name: "platecarree"
// (or "latlon") or "lambert".
func ParseProjection(name string) (Projection, error) {
	switch strings.ToLower(name) {
	case "", "platecarree", "latlon":
		return PlateCarree(), nil
	case "lambert", "lcc":
		return LambertConformal()
	}
	return Projection{}, fmt.Errorf("unknown projection %q; want platecarree or lambert", name)
}

// Name returns the name of the projection.
func (p Projection) Name() string {
	if p.name == "" {
		return "platecarree"
	}
	return p.name
}

// Forward projects a longitude/latitude pair.
func (p Projection) Forward(lon, lat float64) (float64, float64, error) {
	if p.tr == nil {
		return lon, lat, nil
	}
	x, y, err := p.tr(lon, lat)
	if err != nil {
		return 0, 0, err
	}
	return x * p.scale, y * p.scale, nil
}

func (p Projection) axisLabels() (string, string) {
	if p.tr == nil {
		return "Longitude (°)", "Latitude (°)"
	}
	return "x (km)", "y (km)"
}

// maxCellWidth is the widest x extent of a grid cell that can be drawn as a
// quadrilateral. Longitudes wrap at the antimeridian, so a plate carrée cell
// wider than 180 degrees straddles it.
func (p Projection) maxCellWidth() float64 {
	if p.tr == nil {
		return 180
	}
	return math.Inf(1)
}

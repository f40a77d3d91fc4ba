// Package plots renders NARR maps: wind and geopotential height on a
// pressure level, and 10 m wind with 2 m dewpoint at the surface.
package plots

import (
	"fmt"
	"time"

	"github.com/rtm0/narr/internal/narr"
	"github.com/rtm0/narr/internal/render"
)

// Source provides the fields of a dataset. *narr.Dataset implements it.
type Source interface {
	Field(name string, ts time.Time) (*narr.Field, error)
	LevelField(name string, ts time.Time, level float64) (*narr.Field, error)
	Grid() narr.Grid
}

// Request selects the time, level and appearance of one figure.
type Request struct {
	Time time.Time
	// Level in hPa, for pressure-level recipes only.
	Level float64
	// Output is the path the figure is saved to, if set.
	Output string

	Colormap   string
	BarbColor  string
	Levels     []float64
	BarbStride int
	Extent     []float64
	Projection render.Projection
	Basemap    *render.Basemap
}

// Recipe describes which variables a plot combines and how they are shown.
type Recipe struct {
	Name string
	// U and V are the eastward and northward wind components in m/s.
	U, V string
	// Scalar is drawn as filled contours.
	Scalar string
	// PressureLevel is set for variables with a level axis.
	PressureLevel bool
	// Convert optionally changes the units of the scalar field.
	Convert func(*narr.Field) *narr.Field
	Label   func(Request) string
	Title   func(Request) string

	Colormap  string
	BarbColor string
}

// Recipes are the available plots by name.
var Recipes = map[string]*Recipe{
	"hgt": {
		Name:          "hgt",
		U:             "uwnd",
		V:             "vwnd",
		Scalar:        "hgt",
		PressureLevel: true,
		Label: func(req Request) string {
			return fmt.Sprintf("%g mb Geopotential Height (meters)", req.Level)
		},
		Title: func(req Request) string {
			return fmt.Sprintf("%g mb Geopotential Height and Wind (kt)\n%s UTC", req.Level, req.Time.Format(narr.TimeLayout))
		},
		Colormap:  "Reds",
		BarbColor: "darkblue",
	},
	"dpt": {
		Name:    "dpt",
		U:       "uwnd",
		V:       "vwnd",
		Scalar:  "dpt",
		Convert: narr.Celsius,
		Label: func(Request) string {
			return "2-Meter Dewpoint (Celsius)"
		},
		Title: func(req Request) string {
			return fmt.Sprintf("2-Meter Dewpoint and 10-Meter Wind (kt)\n%s UTC", req.Time.Format(narr.TimeLayout))
		},
		Colormap:  "Greens",
		BarbColor: "blue",
	},
}

// LevelWindHeight plots the geopotential height and the wind at a pressure
// level. The dataset must hold uwnd, vwnd and hgt on pressure levels.
func LevelWindHeight(src Source, ts time.Time, level float64, req Request) (*render.Figure, error) {
	req.Time = ts
	req.Level = level
	return Plot(src, Recipes["hgt"], req)
}

// SurfaceWindDewpoint plots the 2 m dewpoint and the 10 m wind. The dataset
// must hold the monolevel uwnd, vwnd (10 m) and dpt (2 m) variables.
func SurfaceWindDewpoint(src Source, ts time.Time, req Request) (*render.Figure, error) {
	req.Time = ts
	return Plot(src, Recipes["dpt"], req)
}

// Plot renders the recipe for the request. If req.Output is set the figure
// is also saved there.
func Plot(src Source, r *Recipe, req Request) (*render.Figure, error) {
	read := func(name string) (*narr.Field, error) {
		if r.PressureLevel {
			return src.LevelField(name, req.Time, req.Level)
		}
		return src.Field(name, req.Time)
	}
	scalar, err := read(r.Scalar)
	if err != nil {
		return nil, err
	}
	u, err := read(r.U)
	if err != nil {
		return nil, err
	}
	v, err := read(r.V)
	if err != nil {
		return nil, err
	}
	if r.Convert != nil {
		scalar = r.Convert(scalar)
	}

	opts := render.Options{
		Colormap:   firstNonEmpty(req.Colormap, r.Colormap),
		BarbColor:  firstNonEmpty(req.BarbColor, r.BarbColor),
		Levels:     req.Levels,
		BarbStride: req.BarbStride,
		Extent:     req.Extent,
		Projection: req.Projection,
		Basemap:    req.Basemap,
	}
	if r.Label != nil {
		opts.Label = r.Label(req)
	}
	if r.Title != nil {
		opts.Title = r.Title(req)
	}
	fig, err := render.New(scalar, narr.Knots(u), narr.Knots(v), src.Grid(), opts)
	if err != nil {
		return nil, err
	}
	if req.Output != "" {
		if err := fig.Save(req.Output); err != nil {
			return nil, err
		}
	}
	return fig, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

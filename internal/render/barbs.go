package render

import (
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// barb is a wind observation in map coordinates. (ex, ey) is a point a
// short distance downwind of (x, y), used to orient the barb on the canvas
// whatever the projection.
type barb struct {
	x, y   float64
	ex, ey float64
	speed  float64 // knots
}

// barbCounts splits a speed in knots, rounded to 5 kt, into pennants
// (50 kt), full barbs (10 kt) and half barbs (5 kt).
func barbCounts(speed float64) (flags, full, half int) {
	s := int(math.Round(speed/5)) * 5
	flags = s / 50
	s -= flags * 50
	full = s / 10
	s -= full * 10
	half = s / 5
	return flags, full, half
}

// barbs draws wind barbs: the shaft points into the wind and the feathers
// sit at its upwind end.
type barbs struct {
	barbs []barb
	style draw.LineStyle
	fill  color.Color
	size  vg.Length
}

// Plot implements the plot.Plotter interface.
func (b *barbs) Plot(c draw.Canvas, p *plot.Plot) {
	trX, trY := p.Transforms(&c)
	for _, w := range b.barbs {
		base := vg.Point{X: trX(w.x), Y: trY(w.y)}
		if base.X < c.Min.X || base.X > c.Max.X || base.Y < c.Min.Y || base.Y > c.Max.Y {
			continue
		}
		flags, full, half := barbCounts(w.speed)
		if flags+full+half == 0 {
			b.calm(c, base)
			continue
		}
		down := vg.Point{X: trX(w.ex), Y: trY(w.ey)}.Sub(base)
		n := math.Hypot(float64(down.X), float64(down.Y))
		if n == 0 {
			continue
		}
		// Unit vector from the tip of the shaft towards its base.
		dir := down.Scale(vg.Length(1 / n))
		perp := vg.Point{X: dir.Y, Y: -dir.X}
		tip := base.Sub(dir.Scale(b.size))
		c.StrokeLine2(b.style, base.X, base.Y, tip.X, tip.Y)

		spacing := b.size * 0.15
		feather := b.size * 0.4
		slant := perp.Scale(feather).Sub(dir.Scale(feather * 0.25))
		pos := tip
		for i := 0; i < flags; i++ {
			width := spacing * 1.5
			c.FillPolygon(b.fill, []vg.Point{pos, pos.Add(perp.Scale(feather)), pos.Add(dir.Scale(width))})
			pos = pos.Add(dir.Scale(width + spacing*0.5))
		}
		for i := 0; i < full; i++ {
			c.StrokeLines(b.style, []vg.Point{pos, pos.Add(slant)})
			pos = pos.Add(dir.Scale(spacing))
		}
		if half > 0 {
			if flags+full == 0 {
				pos = pos.Add(dir.Scale(spacing))
			}
			c.StrokeLines(b.style, []vg.Point{pos, pos.Add(slant.Scale(0.5))})
		}
	}
}

// calm draws the circle used for winds under 2.5 kt.
func (b *barbs) calm(c draw.Canvas, center vg.Point) {
	const n = 16
	r := b.size * 0.12
	pts := make([]vg.Point, n+1)
	for i := range pts {
		a := 2 * math.Pi * float64(i) / n
		pts[i] = center.Add(vg.Point{X: r * vg.Length(math.Cos(a)), Y: r * vg.Length(math.Sin(a))})
	}
	c.StrokeLines(b.style, pts)
}

package render

import (
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

const maxColorbarTicks = 12

// colorbar draws one box per contour interval.
type colorbar struct {
	scale *levelScale
}

// Plot implements the plot.Plotter interface.
func (cb *colorbar) Plot(c draw.Canvas, p *plot.Plot) {
	trX, trY := p.Transforms(&c)
	lv := cb.scale.levels
	for i, clr := range cb.scale.colors {
		x0, x1 := trX(0), trX(1)
		y0, y1 := trY(lv[i]), trY(lv[i+1])
		c.FillPolygon(clr, []vg.Point{{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}})
	}
}

// newColorbarPlot returns the plot holding the colorbar of the scale.
func newColorbarPlot(scale *levelScale, label string) *plot.Plot {
	p := plot.New()
	p.Add(&colorbar{scale: scale})
	p.HideX()
	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = scale.levels[0], scale.levels[len(scale.levels)-1]
	p.Y.Label.Text = label
	p.Y.Tick.Marker = colorbarTicks(scale.levels)
	return p
}

// colorbarTicks labels the level boundaries, skipping some when there are
// too many of them.
func colorbarTicks(levels []float64) plot.ConstantTicks {
	every := (len(levels) + maxColorbarTicks - 1) / maxColorbarTicks
	ticks := make(plot.ConstantTicks, 0, len(levels))
	for i, l := range levels {
		t := plot.Tick{Value: l}
		if i%every == 0 {
			t.Label = strconv.FormatFloat(l, 'g', 6, 64)
		}
		ticks = append(ticks, t)
	}
	return ticks
}

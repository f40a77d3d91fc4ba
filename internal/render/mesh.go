package render

import (
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// quad is a grid cell in map coordinates, corners in drawing order.
type quad struct {
	x, y  [4]float64
	value float64
}

// meshCells builds the cells of a curvilinear grid whose nodes have the map
// coordinates xs, ys and the values vals, all row-major with the given
// number of columns. A cell takes the mean value of its four corners; cells
// with a missing corner are left out so that gaps in the data stay gaps on
// the map. Cells wider than maxWidth in x are left out too.
func meshCells(xs, ys, vals []float64, rows, cols int, maxWidth float64) []quad {
	var cells []quad
	for r := 0; r+1 < rows; r++ {
		for c := 0; c+1 < cols; c++ {
			idx := [4]int{r*cols + c, r*cols + c + 1, (r+1)*cols + c + 1, (r+1)*cols + c}
			var q quad
			ok := true
			for k, i := range idx {
				if math.IsNaN(vals[i]) || math.IsNaN(xs[i]) || math.IsNaN(ys[i]) {
					ok = false
					break
				}
				q.x[k] = xs[i]
				q.y[k] = ys[i]
				q.value += vals[i] / 4
			}
			if ok && width(q.x) <= maxWidth {
				cells = append(cells, q)
			}
		}
	}
	return cells
}

// mesh fills grid cells with the color of their contour interval.
type mesh struct {
	cells []quad
	scale *levelScale
}

// Plot implements the plot.Plotter interface.
func (m *mesh) Plot(c draw.Canvas, p *plot.Plot) {
	trX, trY := p.Transforms(&c)
	pts := make([]vg.Point, 4)
	for _, q := range m.cells {
		clr, ok := m.scale.color(q.value)
		if !ok {
			continue
		}
		for k := range pts {
			pts[k] = vg.Point{X: trX(q.x[k]), Y: trY(q.y[k])}
		}
		if clipped := c.ClipPolygonXY(pts); len(clipped) > 2 {
			c.FillPolygon(clr, clipped)
		}
	}
}

func width(xs [4]float64) float64 {
	lo, hi := xs[0], xs[0]
	for _, x := range xs[1:] {
		lo, hi = math.Min(lo, x), math.Max(hi, x)
	}
	return hi - lo
}

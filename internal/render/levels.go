package render

import (
	"fmt"
	"image/color"
	"math"
	"sort"
	"strings"

	"golang.org/x/image/colornames"
	"gonum.org/v1/plot/palette/brewer"
)

// DefaultNumLevels is the number of contour intervals used when no levels
// are given.
const DefaultNumLevels = 10

// autoLevels returns evenly spaced contour levels with a round step,
// spanning the finite values of vals with about n intervals.
func autoLevels(vals []float64, n int) ([]float64, error) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if math.IsInf(lo, 1) {
		return nil, fmt.Errorf("field has no finite values")
	}
	if n < 1 {
		n = DefaultNumLevels
	}
	if hi == lo {
		lo -= 0.5
		hi += 0.5
	}
	step := niceStep((hi - lo) / float64(n))
	first := math.Floor(lo/step) * step
	cnt := int(math.Ceil((hi-first)/step-1e-9)) + 1
	if cnt < 2 {
		cnt = 2
	}
	levels := make([]float64, cnt)
	for i := range levels {
		levels[i] = roundTo(first+float64(i)*step, step)
	}
	return levels, nil
}

// niceStep rounds raw up to 1, 2, 2.5 or 5 times a power of ten.
func niceStep(raw float64) float64 {
	exp := math.Floor(math.Log10(raw))
	base := math.Pow(10, exp)
	f := raw / base
	switch {
	case f <= 1:
		f = 1
	case f <= 2:
		f = 2
	case f <= 2.5:
		f = 2.5
	case f <= 5:
		f = 5
	default:
		f = 10
	}
	return f * base
}

// roundTo removes the floating point noise accumulated by multiplying the
// step.
func roundTo(v, step float64) float64 {
	digits := math.Max(0, -math.Floor(math.Log10(step))+2)
	p := math.Pow(10, digits)
	return math.Round(v*p) / p
}

// levelScale assigns a color to every interval between consecutive contour
// levels.
type levelScale struct {
	levels []float64
	colors []color.Color
}

func newLevelScale(levels []float64, cmap string) (*levelScale, error) {
	if len(levels) < 2 {
		return nil, fmt.Errorf("need at least 2 contour levels, got %d", len(levels))
	}
	if !sort.Float64sAreSorted(levels) {
		return nil, fmt.Errorf("contour levels %v are not increasing", levels)
	}
	pal, err := brewerColors(cmap)
	if err != nil {
		return nil, err
	}
	bins := len(levels) - 1
	s := &levelScale{levels: levels, colors: make([]color.Color, bins)}
	for i := range s.colors {
		t := 0.5
		if bins > 1 {
			t = float64(i) / float64(bins-1)
		}
		s.colors[i] = interpolate(pal, t)
	}
	return s, nil
}

// bin returns the index of the interval containing v, or -1 if v is NaN or
// out of range.
func (s *levelScale) bin(v float64) int {
	if math.IsNaN(v) || v < s.levels[0] || v > s.levels[len(s.levels)-1] {
		return -1
	}
	i := sort.SearchFloat64s(s.levels, v)
	if i == 0 {
		return 0
	}
	return i - 1
}

func (s *levelScale) color(v float64) (color.Color, bool) {
	b := s.bin(v)
	if b < 0 {
		return nil, false
	}
	return s.colors[b], true
}

// brewerColors returns the largest ColorBrewer palette with the given name,
// for example "Reds", "Greens", "Blues" or "YlOrRd".
func brewerColors(name string) ([]color.Color, error) {
	for n := 11; n >= 3; n-- {
		p, err := brewer.GetPalette(brewer.TypeAny, name, n)
		if err == nil {
			return p.Colors(), nil
		}
	}
	return nil, fmt.Errorf("unknown colormap %q", name)
}

// interpolate returns the color at position t in [0, 1] along the palette.
func interpolate(pal []color.Color, t float64) color.Color {
	if len(pal) == 1 {
		return pal[0]
	}
	pos := t * float64(len(pal)-1)
	i := int(math.Floor(pos))
	if i >= len(pal)-1 {
		return pal[len(pal)-1]
	}
	frac := pos - float64(i)
	a := color.NRGBAModel.Convert(pal[i]).(color.NRGBA)
	b := color.NRGBAModel.Convert(pal[i+1]).(color.NRGBA)
	mix := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x)*(1-frac) + float64(y)*frac))
	}
	return color.NRGBA{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: mix(a.A, b.A)}
}

// parseColor returns the SVG named color, such as "darkblue", or a
// "#rrggbb" hex color.
func parseColor(s string) (color.Color, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := colornames.Map[s]; ok {
		return c, nil
	}
	var r, g, b uint8
	if n, err := fmt.Sscanf(s, "#%02x%02x%02x", &r, &g, &b); err == nil && n == 3 && len(s) == 7 {
		return color.NRGBA{R: r, G: g, B: b, A: 0xff}, nil
	}
	return nil, fmt.Errorf("unknown color %q", s)
}

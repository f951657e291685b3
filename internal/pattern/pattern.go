// Package pattern maps named logo layouts to paste coordinates on a canvas.
package pattern

import (
	"fmt"
	"image"
	"strings"
)

// Pattern names a logo layout.
type Pattern string

const (
	TopLeft      Pattern = "Top-Left"
	TopMiddle    Pattern = "Top-Middle"
	TopRight     Pattern = "Top-Right"
	CenterLeft   Pattern = "Center-Left"
	Center       Pattern = "Center"
	CenterRight  Pattern = "Center-Right"
	BottomLeft   Pattern = "Bottom-Left"
	BottomMiddle Pattern = "Bottom-Middle"
	BottomRight  Pattern = "Bottom-Right"
	Full3x3      Pattern = "3x3full"
	Ring3x3      Pattern = "3x3ring"
	CenterMax    Pattern = "Center-MAX"
	CenterHalf   Pattern = "Center-HALF"
	Corners      Pattern = "Corners"
	Full4x4      Pattern = "4x4full"
	Ring4x4      Pattern = "4x4ring"
)

// Default is the pattern used when none is configured.
const Default = TopLeft

var all = []Pattern{
	TopLeft, TopMiddle, TopRight, CenterLeft, Center, CenterRight,
	BottomLeft, BottomMiddle, BottomRight, Full3x3, Ring3x3,
	CenterMax, CenterHalf, Corners, Full4x4, Ring4x4,
}

// composites lists patterns that are the union of other patterns, in emission order.
var composites = map[Pattern][]Pattern{
	Ring3x3: {TopLeft, TopMiddle, TopRight, CenterLeft, CenterRight, BottomLeft, BottomMiddle, BottomRight},
	Full3x3: {Ring3x3, Center},
	Corners: {TopLeft, TopRight, BottomLeft, BottomRight},
}

var defaultRatios = buildRatios()

func buildRatios() map[Pattern]float64 {
	ratios := make(map[Pattern]float64, len(all))
	for _, p := range all {
		switch p {
		case CenterMax:
			ratios[p] = 1.0
		case CenterHalf:
			ratios[p] = 0.5
		case Full4x4, Ring4x4, TopLeft:
			ratios[p] = 0.25
		default:
			ratios[p] = 0.33
		}
	}
	return ratios
}

// All returns every known pattern in menu order.
func All() []Pattern {
	out := make([]Pattern, len(all))
	copy(out, all)
	return out
}

// Parse resolves a pattern name, ignoring case.
func Parse(name string) (Pattern, error) {
	name = strings.TrimSpace(name)
	for _, p := range all {
		if strings.EqualFold(string(p), name) {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown pattern %q", name)
}

// Valid reports whether p is one of the known patterns.
func (p Pattern) Valid() bool {
	_, ok := defaultRatios[p]
	return ok
}

// IsComposite reports whether p places more than one logo.
func (p Pattern) IsComposite() bool {
	if _, ok := composites[p]; ok {
		return true
	}
	return p == Full4x4 || p == Ring4x4
}

func (p Pattern) String() string { return string(p) }

// DefaultRatio returns the fraction of the max-fit size used for p.
// Unknown patterns get the standard 0.33.
func DefaultRatio(p Pattern) float64 {
	if r, ok := defaultRatios[p]; ok {
		return r
	}
	return 0.33
}

// Coordinates returns the top-left paste points for a logo of size logo on a
// canvas of size canvas. Points may be negative when the logo is larger than
// the canvas.
func Coordinates(p Pattern, logo, canvas image.Point) []image.Point {
	if parts, ok := composites[p]; ok {
		var pts []image.Point
		for _, part := range parts {
			pts = append(pts, Coordinates(part, logo, canvas)...)
		}
		return pts
	}

	midX := canvas.X/2 - logo.X/2
	midY := canvas.Y/2 - logo.Y/2
	right := canvas.X - logo.X
	bottom := canvas.Y - logo.Y

	switch p {
	case TopLeft:
		return []image.Point{{0, 0}}
	case TopMiddle:
		return []image.Point{{midX, 0}}
	case TopRight:
		return []image.Point{{right, 0}}
	case CenterLeft:
		return []image.Point{{0, midY}}
	case Center, CenterMax, CenterHalf:
		return []image.Point{{midX, midY}}
	case CenterRight:
		return []image.Point{{right, midY}}
	case BottomLeft:
		return []image.Point{{0, bottom}}
	case BottomMiddle:
		return []image.Point{{midX, bottom}}
	case BottomRight:
		return []image.Point{{right, bottom}}
	case Full4x4:
		return grid(gridLine(logo.X, canvas.X), interior(gridLine(logo.Y, canvas.Y)))
	case Ring4x4:
		xs := gridLine(logo.X, canvas.X)
		ys := gridLine(logo.Y, canvas.Y)
		pts := grid(xs, []int{ys[0], ys[3]})
		return append(pts, grid([]int{xs[0], xs[3]}, interior(ys))...)
	}
	return nil
}

// gridLine returns the four positions along one axis of the 4x4 grid: both
// edges plus two interior positions splitting the slack into thirds.
func gridLine(size, span int) []int {
	slack := float64(span-4*size) / 3
	return []int{
		0,
		int(float64(size) + slack),
		int(float64(span-2*size) - slack),
		span - size,
	}
}

func interior(line []int) []int {
	return line[1:3]
}

// grid emits every (x, y) pair with x as the outer loop.
func grid(xs, ys []int) []image.Point {
	pts := make([]image.Point, 0, len(xs)*len(ys))
	for _, x := range xs {
		for _, y := range ys {
			pts = append(pts, image.Point{X: x, Y: y})
		}
	}
	return pts
}

package simulation

import (
	"image/color"

	"github.com/lao-tseu-is-alive/go-flock-quadtree/pkg/geometry"
)

// Viewport maps world coordinates (Y up, origin at the center of Bounds) to
// screen coordinates (Y down, origin at the top left corner of a W x H area).
type Viewport struct {
	Bounds geometry.Rectangle
	W, H   float64
}

// ToScreen returns the screen position of p.
func (v Viewport) ToScreen(p geometry.Vector2D) (x, y float64) {
	lo, hi := v.Bounds.Min(), v.Bounds.Max()
	x = (p.X - lo.X) / (hi.X - lo.X) * v.W
	y = (hi.Y - p.Y) / (hi.Y - lo.Y) * v.H
	return x, y
}

// Scale is the number of screen units per world unit along X.
func (v Viewport) Scale() float64 {
	return v.W / (2 * v.Bounds.Size.X)
}

// ToScreenRect returns the top left corner and the size on screen of r.
func (v Viewport) ToScreenRect(r geometry.Rectangle) (x, y, w, h float64) {
	lo, hi := r.Min(), r.Max()
	x0, y0 := v.ToScreen(geometry.Vector2D{X: lo.X, Y: hi.Y})
	x1, y1 := v.ToScreen(geometry.Vector2D{X: hi.X, Y: lo.Y})
	return x0, y0, x1 - x0, y1 - y0
}

// Mesa 9, from the shallow root (amber) to the deepest leaves (night blue)
var depthColors = [...]color.RGBA{
	{R: 240, G: 161, B: 1, A: 255},
	{R: 241, G: 123, B: 51, A: 255},
	{R: 226, G: 92, B: 77, A: 255},
	{R: 197, G: 70, B: 96, A: 255},
	{R: 158, G: 60, B: 106, A: 255},
	{R: 114, G: 55, B: 105, A: 255},
	{R: 71, G: 49, B: 92, A: 255},
	{R: 35, G: 39, B: 69, A: 255},
	{R: 12, G: 26, B: 42, A: 255},
}

// DepthColor is the colour of a tree node at depth; deeper nodes reuse the
// last colour.
func DepthColor(depth int) color.RGBA {
	return depthColors[min(max(depth, 0), len(depthColors)-1)]
}

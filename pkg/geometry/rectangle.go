package geometry

import (
	"errors"
	"fmt"
	"math"
)

// ErrNegativeSize is returned when a rectangle is built with a negative half size.
var ErrNegativeSize = errors.New("rectangle size must not be negative")

// Quadrant identifies one of the four children of a region, Y pointing up.
type Quadrant int

const (
	NW Quadrant = iota
	NE
	SW
	SE
)

func (q Quadrant) String() string {
	switch q {
	case NW:
		return "NW"
	case NE:
		return "NE"
	case SW:
		return "SW"
	case SE:
		return "SE"
	}
	return fmt.Sprintf("Quadrant(%d)", int(q))
}

// Rectangle is an axis-aligned box stored as a center and a half size.
//
// Edges are half-open: a point p is inside when Min() <= p < Max() on both
// axes. Quadrant uses the same convention (the center belongs to the east
// and north halves), so the four children of a rectangle partition it with
// no gap and no overlap.
type Rectangle struct {
	Center Vector2D `json:"center"`
	Size   Vector2D `json:"size"`
}

// NewRectangle validates the half size and returns the rectangle.
func NewRectangle(center, size Vector2D) (Rectangle, error) {
	if size.X < 0 || size.Y < 0 || math.IsNaN(size.X) || math.IsNaN(size.Y) {
		return Rectangle{}, fmt.Errorf("%w: got %s", ErrNegativeSize, size)
	}
	return Rectangle{Center: center, Size: size}, nil
}

// Min returns the lower-left corner.
func (r Rectangle) Min() Vector2D {
	return r.Center.Sub(r.Size)
}

// Max returns the upper-right corner, which is itself outside the rectangle.
func (r Rectangle) Max() Vector2D {
	return r.Center.Add(r.Size)
}

// Empty reports whether the rectangle cannot contain any point.
func (r Rectangle) Empty() bool {
	return r.Size.X <= 0 || r.Size.Y <= 0
}

// Contains tests min <= p < max on both axes.
func (r Rectangle) Contains(p Vector2D) bool {
	return p.X >= r.Center.X-r.Size.X && p.X < r.Center.X+r.Size.X &&
		p.Y >= r.Center.Y-r.Size.Y && p.Y < r.Center.Y+r.Size.Y
}

// NoIntersectionWith is true when the centers are further apart than the sum
// of the half sizes on some axis. Touching edges count as intersecting.
func (r Rectangle) NoIntersectionWith(other Rectangle) bool {
	return math.Abs(r.Center.X-other.Center.X) > r.Size.X+other.Size.X ||
		math.Abs(r.Center.Y-other.Center.Y) > r.Size.Y+other.Size.Y
}

// Intersects is the negation of NoIntersectionWith.
func (r Rectangle) Intersects(other Rectangle) bool {
	return !r.NoIntersectionWith(other)
}

// Quadrant classifies p against the center, each axis on its own.
// Points on a center line go east and/or north.
func (r Rectangle) Quadrant(p Vector2D) Quadrant {
	east := p.X >= r.Center.X
	north := p.Y >= r.Center.Y
	switch {
	case north && !east:
		return NW
	case north && east:
		return NE
	case !east:
		return SW
	default:
		return SE
	}
}

// Child returns the region of quadrant q: half the size, centered at the
// parent center plus or minus a quarter of the full extent.
func (r Rectangle) Child(q Quadrant) Rectangle {
	half := r.Size.Mul(0.5)
	c := r.Center
	switch q {
	case NW:
		c = Vector2D{c.X - half.X, c.Y + half.Y}
	case NE:
		c = Vector2D{c.X + half.X, c.Y + half.Y}
	case SW:
		c = Vector2D{c.X - half.X, c.Y - half.Y}
	case SE:
		c = Vector2D{c.X + half.X, c.Y - half.Y}
	default:
		panic(fmt.Sprintf("geometry: invalid quadrant %d", int(q)))
	}
	return Rectangle{Center: c, Size: half}
}

// Scale multiplies the size only; the center stays fixed.
func (r Rectangle) Scale(f float64) Rectangle {
	return Rectangle{Center: r.Center, Size: r.Size.Mul(f)}
}

// Clamp returns the closest point to p for which Contains is true.
// The rectangle must not be empty.
func (r Rectangle) Clamp(p Vector2D) Vector2D {
	lo, hi := r.Min(), r.Max()
	return Vector2D{
		X: clampHalfOpen(p.X, lo.X, hi.X),
		Y: clampHalfOpen(p.Y, lo.Y, hi.Y),
	}
}

func clampHalfOpen(v, lo, hi float64) float64 {
	if v < lo || math.IsNaN(v) {
		return lo
	}
	if v >= hi {
		return math.Nextafter(hi, lo)
	}
	return v
}

func (r Rectangle) String() string {
	return fmt.Sprintf("Rectangle{center: %s, size: %s}", r.Center, r.Size)
}

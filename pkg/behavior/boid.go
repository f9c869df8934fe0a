// Package behavior holds the boid state and the flocking rules.
//
// Boids is an artificial life program, developed by Craig Reynolds in 1986,
// which simulates the flocking behaviour of birds. The name "boid" is a
// shortened version of "bird-oid object". https://en.wikipedia.org/wiki/Boids
package behavior

import (
	"math"

	"github.com/lao-tseu-is-alive/go-flock-quadtree/pkg/geometry"
)

// Boid is one agent of the flock. It has no identity beyond its index in
// the flock buffer.
type Boid struct {
	Position     geometry.Vector2D `json:"position"`
	Velocity     geometry.Vector2D `json:"velocity"`
	Acceleration geometry.Vector2D `json:"acceleration"`
}

// Params controls the physics constants of the flock.
type Params struct {
	Scale    float64 `json:"scale"`    // Body radius used by the boundary test
	MaxSpeed float64 `json:"maxSpeed"` // Units per second
	MaxForce float64 `json:"maxForce"` // Max velocity change per step

	DisruptiveRadius float64 `json:"disruptiveRadius"` // Separation range
	CohesiveRadius   float64 `json:"cohesiveRadius"`   // Alignment and cohesion range

	BoundaryWeight   float64 `json:"boundaryWeight"`
	SpeedWeight      float64 `json:"speedWeight"`
	SeparationWeight float64 `json:"separationWeight"`
	AlignmentWeight  float64 `json:"alignmentWeight"`
	CohesionWeight   float64 `json:"cohesionWeight"`
}

// DefaultParams returns the tuning used by the viewers.
func DefaultParams() Params {
	return Params{
		Scale:            5,
		MaxSpeed:         25,
		MaxForce:         0.8,
		DisruptiveRadius: 15,
		CohesiveRadius:   40,
		BoundaryWeight:   4,
		SpeedWeight:      0.2,
		SeparationWeight: 1.6,
		AlignmentWeight:  1,
		CohesionWeight:   0.8,
	}
}

// Steer turns a desired direction into a steering force: desired scaled to
// MaxSpeed minus the current velocity, clamped to MaxForce.
// A zero desired vector has no direction and yields no force.
func (b *Boid) Steer(desired geometry.Vector2D, p *Params) geometry.Vector2D {
	if desired.IsZero() {
		return geometry.Vector2D{}
	}
	return desired.WithLen(p.MaxSpeed).Sub(b.Velocity).Limit(p.MaxForce)
}

// Ring lays out n boids evenly on a circle of the given radius, moving
// outward and slightly sideways at full speed.
func Ring(n int, radius, maxSpeed float64) []Boid {
	boids := make([]Boid, n)
	if n == 0 {
		return boids
	}
	step := 2 * math.Pi / float64(n)
	for i := range boids {
		angle := float64(i) * step
		offset := geometry.NewVectorPolar(1, angle)
		boids[i] = Boid{
			Position: offset.Mul(radius),
			Velocity: offset.Mul(10).Add(geometry.Vector2D{X: angle, Y: angle}).WithLen(maxSpeed),
		}
	}
	return boids
}

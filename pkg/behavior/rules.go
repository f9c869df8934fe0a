package behavior

import "github.com/lao-tseu-is-alive/go-flock-quadtree/pkg/geometry"

// Forces is the breakdown of the steering applied to one boid in one step.
// Total is the weighted sum after clamping to MaxForce.
type Forces struct {
	Boundary   geometry.Vector2D
	Speed      geometry.Vector2D
	Separation geometry.Vector2D
	Alignment  geometry.Vector2D
	Cohesion   geometry.Vector2D
	Total      geometry.Vector2D
}

// Rules applies the flocking behaviours inside a world rectangle.
type Rules struct {
	Params Params
	Bounds geometry.Rectangle
}

// Forces computes the steering of boid i. disruptive and cohesive list the
// indices of the candidates found within DisruptiveRadius and
// CohesiveRadius; i itself is skipped if present and the distance is checked
// again against the positions in current.
// Only current is read, so any number of boids may be processed in parallel.
func (r *Rules) Forces(current []Boid, i int, disruptive, cohesive []int) Forces {
	p := &r.Params
	self := &current[i]
	var f Forces

	lo, hi := r.Bounds.Min(), r.Bounds.Max()
	pos := self.Position
	if pos.X-p.Scale <= lo.X || pos.X+p.Scale >= hi.X ||
		pos.Y-p.Scale <= lo.Y || pos.Y+p.Scale >= hi.Y {
		f.Boundary = self.Steer(r.Bounds.Center.Sub(pos), p)
	}

	// Keeps the boid cruising when nothing else pulls on it.
	f.Speed = self.Steer(self.Velocity, p)

	disruptiveSq := p.DisruptiveRadius * p.DisruptiveRadius
	var separation geometry.Vector2D
	separated := 0
	for _, j := range disruptive {
		if j == i {
			continue
		}
		d2 := pos.DistanceSquaredTo(current[j].Position)
		if d2 <= 0 || d2 > disruptiveSq {
			continue
		}
		separation = separation.Add(pos.Sub(current[j].Position).Mul(1 / d2))
		separated++
	}
	if separated > 0 {
		f.Separation = self.Steer(separation.Mul(1/float64(separated)), p)
	}

	cohesiveSq := p.CohesiveRadius * p.CohesiveRadius
	var velocitySum, positionSum geometry.Vector2D
	flockmates := 0
	for _, j := range cohesive {
		if j == i {
			continue
		}
		other := &current[j]
		if pos.DistanceSquaredTo(other.Position) > cohesiveSq {
			continue
		}
		velocitySum = velocitySum.Add(other.Velocity)
		positionSum = positionSum.Add(other.Position)
		flockmates++
	}
	if flockmates > 0 {
		inv := 1 / float64(flockmates)
		f.Alignment = self.Steer(velocitySum.Mul(inv), p)
		f.Cohesion = self.Steer(positionSum.Mul(inv).Sub(pos), p)
	}

	f.Total = self.Acceleration.
		Add(f.Boundary.Mul(p.BoundaryWeight)).
		Add(f.Speed.Mul(p.SpeedWeight)).
		Add(f.Separation.Mul(p.SeparationWeight)).
		Add(f.Alignment.Mul(p.AlignmentWeight)).
		Add(f.Cohesion.Mul(p.CohesionWeight)).
		Limit(p.MaxForce)
	return f
}

// Next returns the state of boid i after one step of dt seconds.
func (r *Rules) Next(current []Boid, i int, disruptive, cohesive []int, dt float64) Boid {
	f := r.Forces(current, i, disruptive, cohesive)
	b := current[i]
	b.Velocity = b.Velocity.Add(f.Total).Limit(r.Params.MaxSpeed)
	b.Position = b.Position.Add(b.Velocity.Mul(dt))
	b.Acceleration = geometry.Vector2D{}
	return b
}

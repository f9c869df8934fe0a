package behavior

import (
	"math"
	"testing"

	"github.com/lao-tseu-is-alive/go-flock-quadtree/pkg/geometry"
)

var testBounds = geometry.Rectangle{Size: geometry.Vector2D{X: 400, Y: 300}}

func testRules() *Rules {
	return &Rules{Params: DefaultParams(), Bounds: testBounds}
}

func TestBoid_Steer(t *testing.T) {
	p := DefaultParams()
	p.MaxSpeed = 10
	p.MaxForce = 100

	b := Boid{Velocity: geometry.Vector2D{X: 0, Y: 2}}
	got := b.Steer(geometry.Vector2D{X: 3, Y: 0}, &p)
	if want := (geometry.Vector2D{X: 10, Y: -2}); got.DistanceTo(want) > geometry.Epsilon {
		t.Errorf("Steer = %v; want %v", got, want)
	}

	p.MaxForce = 1
	if got := b.Steer(geometry.Vector2D{X: 3, Y: 0}, &p); got.Len() > 1+geometry.Epsilon {
		t.Errorf("Steer length %v exceeds MaxForce 1", got.Len())
	}

	if got := b.Steer(geometry.Vector2D{}, &p); got != (geometry.Vector2D{}) {
		t.Errorf("Steer(zero) = %v; want zero vector", got)
	}
}

func TestRing(t *testing.T) {
	boids := Ring(16, 50, 25)
	if len(boids) != 16 {
		t.Fatalf("Ring returned %d boids; want 16", len(boids))
	}
	for i, b := range boids {
		if math.Abs(b.Position.Len()-50) > 1e-9 {
			t.Errorf("boid %d at distance %v from origin; want 50", i, b.Position.Len())
		}
		if math.Abs(b.Velocity.Len()-25) > 1e-9 {
			t.Errorf("boid %d speed %v; want 25", i, b.Velocity.Len())
		}
		if b.Acceleration != (geometry.Vector2D{}) {
			t.Errorf("boid %d starts with acceleration %v", i, b.Acceleration)
		}
	}
	if got := Ring(0, 50, 25); len(got) != 0 {
		t.Errorf("Ring(0) returned %d boids", len(got))
	}
}

func TestRules_Separation(t *testing.T) {
	// Me at 0,0 moving up, friend at 1,0: separation pushes towards negative X.
	r := testRules()
	flock := []Boid{
		{Velocity: geometry.Vector2D{Y: 1}},
		{Position: geometry.Vector2D{X: 1}},
	}
	f := r.Forces(flock, 0, []int{1}, nil)
	if f.Separation.X >= 0 {
		t.Errorf("expected negative separation X, got %v", f.Separation)
	}
	if f.Alignment != (geometry.Vector2D{}) || f.Cohesion != (geometry.Vector2D{}) {
		t.Errorf("no cohesive neighbours, got alignment %v cohesion %v", f.Alignment, f.Cohesion)
	}
}

func TestRules_CohesionAndAlignment(t *testing.T) {
	r := testRules()
	flock := []Boid{
		{},
		{Position: geometry.Vector2D{X: 10}, Velocity: geometry.Vector2D{X: 0, Y: 5}},
	}
	f := r.Forces(flock, 0, nil, []int{1})
	if f.Cohesion.X <= 0 {
		t.Errorf("expected cohesion towards positive X, got %v", f.Cohesion)
	}
	if f.Alignment.Y <= 0 {
		t.Errorf("expected alignment towards positive Y, got %v", f.Alignment)
	}
}

func TestRules_CoincidentBoidsStayFinite(t *testing.T) {
	r := testRules()
	flock := []Boid{
		{Position: geometry.Vector2D{X: 3, Y: 3}, Velocity: geometry.Vector2D{X: 1}},
		{Position: geometry.Vector2D{X: 3, Y: 3}, Velocity: geometry.Vector2D{X: 1}},
	}
	f := r.Forces(flock, 0, []int{0, 1}, []int{0, 1})
	if f.Separation != (geometry.Vector2D{}) {
		t.Errorf("coincident neighbour produced separation %v", f.Separation)
	}
	next := r.Next(flock, 0, []int{0, 1}, []int{0, 1}, 1.0/60)
	if !next.Position.IsFinite() || !next.Velocity.IsFinite() {
		t.Errorf("coincident boids produced non finite state %+v", next)
	}
}

func TestRules_SelfIsNotANeighbour(t *testing.T) {
	r := testRules()
	flock := []Boid{{Velocity: geometry.Vector2D{X: 3}}}
	f := r.Forces(flock, 0, []int{0}, []int{0})
	if f.Separation != (geometry.Vector2D{}) || f.Alignment != (geometry.Vector2D{}) || f.Cohesion != (geometry.Vector2D{}) {
		t.Errorf("self counted as neighbour: %+v", f)
	}
}

func TestRules_LoneBoidOnlyCruises(t *testing.T) {
	r := testRules()
	flock := []Boid{{Velocity: geometry.Vector2D{X: 2}}}
	f := r.Forces(flock, 0, nil, nil)
	if f.Separation != (geometry.Vector2D{}) || f.Alignment != (geometry.Vector2D{}) || f.Cohesion != (geometry.Vector2D{}) {
		t.Errorf("lone boid got flock forces: %+v", f)
	}
	if f.Boundary != (geometry.Vector2D{}) {
		t.Errorf("boid at the center got boundary force %v", f.Boundary)
	}
	if f.Speed.X <= 0 {
		t.Errorf("slow boid should speed up along its heading, got %v", f.Speed)
	}
}

func TestRules_BoundaryTriggersOnEdge(t *testing.T) {
	r := testRules()
	lo, hi := testBounds.Min(), testBounds.Max()
	tests := []struct {
		name string
		pos  geometry.Vector2D
		vel  geometry.Vector2D
		// want is the sign of the boundary force along the tested axis
		want geometry.Vector2D
	}{
		{"within scale of max x", geometry.Vector2D{X: hi.X - r.Params.Scale}, geometry.Vector2D{Y: 1}, geometry.Vector2D{X: -1}},
		{"exactly on max x", geometry.Vector2D{X: hi.X}, geometry.Vector2D{Y: 1}, geometry.Vector2D{X: -1}},
		{"exactly on min x", geometry.Vector2D{X: lo.X}, geometry.Vector2D{Y: 1}, geometry.Vector2D{X: 1}},
		{"exactly on max y", geometry.Vector2D{Y: hi.Y}, geometry.Vector2D{X: 1}, geometry.Vector2D{Y: -1}},
		{"exactly on min y", geometry.Vector2D{Y: lo.Y}, geometry.Vector2D{X: 1}, geometry.Vector2D{Y: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flock := []Boid{{Position: tt.pos, Velocity: tt.vel}}
			along := func(v geometry.Vector2D) float64 { return v.X*tt.want.X + v.Y*tt.want.Y }

			f := r.Forces(flock, 0, nil, nil)
			if along(f.Boundary) <= 0 {
				t.Fatalf("boundary force at %v = %v; want it along %v", tt.pos, f.Boundary, tt.want)
			}
			next := r.Next(flock, 0, nil, nil, 1.0/60)
			if along(next.Velocity) <= 0 {
				t.Errorf("velocity after step %v; want it to head back along %v", next.Velocity, tt.want)
			}
		})
	}
}

func TestRules_NextKeepsInvariants(t *testing.T) {
	r := testRules()
	flock := Ring(64, 20, r.Params.MaxSpeed)
	all := make([]int, len(flock))
	for i := range all {
		all[i] = i
	}
	for i := range flock {
		f := r.Forces(flock, i, all, all)
		if f.Total.Len() > r.Params.MaxForce+geometry.Epsilon {
			t.Errorf("boid %d acceleration %v exceeds MaxForce", i, f.Total.Len())
		}
		next := r.Next(flock, i, all, all, 1.0/60)
		if next.Velocity.Len() > r.Params.MaxSpeed+geometry.Epsilon {
			t.Errorf("boid %d speed %v exceeds MaxSpeed", i, next.Velocity.Len())
		}
		if next.Acceleration != (geometry.Vector2D{}) {
			t.Errorf("boid %d acceleration not reset: %v", i, next.Acceleration)
		}
	}
}

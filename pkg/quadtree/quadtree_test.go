package quadtree

import (
	"errors"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/lao-tseu-is-alive/go-flock-quadtree/pkg/geometry"
)

// world is a power of two so child regions are computed without rounding.
var world = geometry.Rectangle{Center: geometry.Vector2D{}, Size: geometry.Vector2D{X: 512, Y: 256}}

func newTree(t testing.TB, opts ...Option) *Tree {
	t.Helper()
	tree, err := New(world, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return tree
}

func randomPoints(rng *rand.Rand, n int) []geometry.Vector2D {
	lo := world.Min()
	pts := make([]geometry.Vector2D, n)
	for i := range pts {
		pts[i] = geometry.Vector2D{
			X: lo.X + rng.Float64()*world.Size.X*2,
			Y: lo.Y + rng.Float64()*world.Size.Y*2,
		}
	}
	return pts
}

func indices(items []Item) []int {
	out := make([]int, len(items))
	for i, it := range items {
		out[i] = it.Index
	}
	slices.Sort(out)
	return out
}

func bruteForce(pts []geometry.Vector2D, keep func(geometry.Vector2D) bool) []int {
	var out []int
	for i, p := range pts {
		if keep(p) {
			out = append(out, i)
		}
	}
	return out
}

func TestNew_InvalidConfiguration(t *testing.T) {
	tests := []struct {
		name   string
		bounds geometry.Rectangle
		opts   []Option
		want   error
	}{
		{"empty bounds", geometry.Rectangle{}, nil, ErrInvalidBounds},
		{"flat bounds", geometry.Rectangle{Size: geometry.Vector2D{X: 1}}, nil, ErrInvalidBounds},
		{"zero bucket", world, []Option{WithBucketSize(0)}, ErrInvalidBucketSize},
		{"negative depth", world, []Option{WithMaxDepth(-1)}, ErrInvalidMaxDepth},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.bounds, tt.opts...); !errors.Is(err, tt.want) {
				t.Errorf("New() error = %v; want %v", err, tt.want)
			}
		})
	}
}

func TestTree_SplitsWhenBucketFull(t *testing.T) {
	tree := newTree(t, WithBucketSize(4))
	pts := []geometry.Vector2D{{X: -10, Y: 10}, {X: 10, Y: 10}, {X: -10, Y: -10}, {X: 10, Y: -10}}
	for i, p := range pts {
		tree.Insert(i, p)
	}
	if tree.Size() != 1 {
		t.Fatalf("Size() = %d before overflow; want 1", tree.Size())
	}

	tree.Insert(4, geometry.Vector2D{X: 20, Y: 20})
	if tree.Size() != 5 {
		t.Fatalf("Size() = %d after overflow; want 5", tree.Size())
	}
	nodes := tree.AppendNodes(nil)
	if nodes[0].Leaf {
		t.Errorf("root still a leaf after split")
	}
	want := []int{1, 2, 1, 1} // NW, NE, SW, SE
	for q, n := range nodes[1:] {
		if !n.Leaf || n.Depth != 1 || n.Items != want[q] {
			t.Errorf("child %v = %+v; want leaf depth 1 with %d items", geometry.Quadrant(q), n, want[q])
		}
	}
	if err := tree.Validate(); err != nil {
		t.Error(err)
	}
}

func TestTree_QueryMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 7))
	pts := randomPoints(rng, 3000)
	tree := newTree(t)
	for i, p := range pts {
		tree.Insert(i, p)
	}
	if err := tree.Validate(); err != nil {
		t.Fatal(err)
	}

	var buf []Item
	for q := 0; q < 300; q++ {
		center := geometry.Vector2D{X: (rng.Float64() - 0.5) * 1200, Y: (rng.Float64() - 0.5) * 600}
		size := geometry.Vector2D{X: rng.Float64() * 100, Y: rng.Float64() * 100}
		rect := geometry.Rectangle{Center: center, Size: size}

		buf = tree.Query(rect, buf[:0])
		if got, want := indices(buf), bruteForce(pts, rect.Contains); !slices.Equal(got, want) {
			t.Fatalf("Query(%v) returned %d items; brute force found %d", rect, len(got), len(want))
		}

		radius := size.X
		buf = tree.QueryRadius(center, radius, buf[:0])
		inCircle := func(p geometry.Vector2D) bool { return p.DistanceSquaredTo(center) <= radius*radius }
		if got, want := indices(buf), bruteForce(pts, inCircle); !slices.Equal(got, want) {
			t.Fatalf("QueryRadius(%v, %v) returned %d items; brute force found %d", center, radius, len(got), len(want))
		}
	}
}

func TestTree_DegenerateDistributions(t *testing.T) {
	tests := []struct {
		name string
		pts  func() []geometry.Vector2D
	}{
		{"all coincident", func() []geometry.Vector2D {
			pts := make([]geometry.Vector2D, 200)
			for i := range pts {
				pts[i] = geometry.Vector2D{X: 3, Y: -7}
			}
			return pts
		}},
		{"on center lines", func() []geometry.Vector2D {
			var pts []geometry.Vector2D
			for i := -64; i < 64; i++ {
				pts = append(pts, geometry.Vector2D{X: 0, Y: float64(i) * 4}, geometry.Vector2D{X: float64(i) * 8, Y: 0})
			}
			return pts
		}},
		{"on region boundaries", func() []geometry.Vector2D {
			var pts []geometry.Vector2D
			lo := world.Min()
			for i := 0; i < 64; i++ {
				f := float64(i)
				pts = append(pts,
					geometry.Vector2D{X: lo.X, Y: lo.Y + f*8},
					geometry.Vector2D{X: lo.X + f*16, Y: lo.Y},
					geometry.Vector2D{X: 256, Y: -128 + f},
					geometry.Vector2D{X: -256 + f*4, Y: 128},
				)
			}
			return pts
		}},
	}

	queries := []geometry.Rectangle{
		world,
		{Center: geometry.Vector2D{X: 3, Y: -7}, Size: geometry.Vector2D{X: 1, Y: 1}},
		{Center: geometry.Vector2D{X: 0, Y: 0}, Size: geometry.Vector2D{X: 32, Y: 32}},
		{Center: geometry.Vector2D{X: -256, Y: 0}, Size: geometry.Vector2D{X: 256, Y: 256}},
		{Center: geometry.Vector2D{X: 256, Y: -128}, Size: geometry.Vector2D{X: 0.5, Y: 64}},
		{Center: geometry.Vector2D{X: -512, Y: -256}, Size: geometry.Vector2D{X: 16, Y: 16}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pts := tt.pts()
			tree := newTree(t, WithBucketSize(4), WithMaxDepth(6))
			for i, p := range pts {
				tree.Insert(i, p)
			}
			if err := tree.Validate(); err != nil {
				t.Fatal(err)
			}
			if tree.Depth() > tree.MaxDepth() {
				t.Errorf("Depth() = %d exceeds MaxDepth %d", tree.Depth(), tree.MaxDepth())
			}
			for _, rect := range queries {
				got := indices(tree.Query(rect, nil))
				if want := bruteForce(pts, rect.Contains); !slices.Equal(got, want) {
					t.Errorf("Query(%v) = %d items; want %d", rect, len(got), len(want))
				}
			}
		})
	}
}

func TestTree_NeverLosesItems(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 9))
	pts := randomPoints(rng, 500)
	// Duplicates and coincident points on top of the random cloud.
	for i := 0; i < 100; i++ {
		pts = append(pts, pts[i], geometry.Vector2D{X: 1, Y: 1})
	}

	tree := newTree(t)
	for i, p := range pts {
		tree.Insert(i, p)
	}
	if tree.Len() != len(pts) {
		t.Fatalf("Len() = %d; want %d", tree.Len(), len(pts))
	}
	got := indices(tree.AppendItems(nil))
	for i := range pts {
		if got[i] != i {
			t.Fatalf("traversal item %d = %d; every index must appear exactly once", i, got[i])
		}
	}
}

func TestTree_RespectsMaxDepth(t *testing.T) {
	tree := newTree(t, WithBucketSize(2), WithMaxDepth(3))
	for i := 0; i < 50; i++ {
		tree.Insert(i, geometry.Vector2D{X: 100, Y: 100})
	}
	var overflowing bool
	for _, n := range tree.AppendNodes(nil) {
		if n.Depth > 3 {
			t.Fatalf("node at depth %d; max depth is 3", n.Depth)
		}
		if n.Leaf && n.Items > 2 {
			if n.Depth != 3 {
				t.Errorf("leaf above max depth holds %d items", n.Items)
			}
			overflowing = true
		}
	}
	if !overflowing {
		t.Error("expected an overflowing leaf at max depth")
	}
	if err := tree.Validate(); err != nil {
		t.Error(err)
	}
}

func TestTree_ZeroMaxDepthIsSingleLeaf(t *testing.T) {
	tree := newTree(t, WithMaxDepth(0), WithBucketSize(1))
	for i := 0; i < 10; i++ {
		tree.Insert(i, geometry.Vector2D{X: float64(i), Y: 0})
	}
	if tree.Size() != 1 || tree.Len() != 10 {
		t.Errorf("Size()=%d Len()=%d; want 1 node holding 10 items", tree.Size(), tree.Len())
	}
}

func TestTree_Clear(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 5))
	tree := newTree(t)
	for frame := 0; frame < 3; frame++ {
		tree.Clear()
		pts := randomPoints(rng, 400)
		for i, p := range pts {
			tree.Insert(i, p)
		}
		if err := tree.Validate(); err != nil {
			t.Fatalf("frame %d: %v", frame, err)
		}
		got := indices(tree.Query(world, nil))
		if len(got) != len(pts) {
			t.Fatalf("frame %d: Query(world) = %d items; want %d", frame, len(got), len(pts))
		}
	}

	tree.Clear()
	if tree.Size() != 1 || tree.Len() != 0 {
		t.Errorf("after Clear Size()=%d Len()=%d; want 1 and 0", tree.Size(), tree.Len())
	}
	root := tree.AppendNodes(nil)[0]
	if !root.Leaf || root.Region != world || root.Items != 0 {
		t.Errorf("root after Clear = %+v", root)
	}
}

func TestTree_InsertOutsideBoundsPanics(t *testing.T) {
	tree := newTree(t)
	defer func() {
		if recover() == nil {
			t.Error("Insert outside bounds did not panic")
		}
	}()
	tree.Insert(0, world.Max())
}

func TestTree_QueryDoesNotAllocate(t *testing.T) {
	rng := rand.New(rand.NewPCG(8, 8))
	tree := newTree(t)
	for i, p := range randomPoints(rng, 2000) {
		tree.Insert(i, p)
	}
	buf := make([]Item, 0, 2000)
	allocs := testing.AllocsPerRun(100, func() {
		buf = tree.QueryRadius(geometry.Vector2D{X: 10, Y: 10}, 60, buf[:0])
		buf = tree.Query(geometry.Rectangle{Size: geometry.Vector2D{X: 40, Y: 40}}, buf[:0])
	})
	if allocs != 0 {
		t.Errorf("queries allocated %v times per run; want 0", allocs)
	}
}

func TestTree_RebuildReusesArena(t *testing.T) {
	rng := rand.New(rand.NewPCG(11, 2))
	pts := randomPoints(rng, 1000)
	tree := newTree(t)
	build := func() {
		tree.Clear()
		for i, p := range pts {
			tree.Insert(i, p)
		}
	}
	build()
	if allocs := testing.AllocsPerRun(20, build); allocs != 0 {
		t.Errorf("rebuild with identical input allocated %v times; want 0", allocs)
	}
}

func BenchmarkTree_Rebuild(b *testing.B) {
	rng := rand.New(rand.NewPCG(1, 1))
	pts := randomPoints(rng, 5000)
	tree := newTree(b)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tree.Clear()
		for j, p := range pts {
			tree.Insert(j, p)
		}
	}
}

func BenchmarkTree_QueryRadius(b *testing.B) {
	rng := rand.New(rand.NewPCG(1, 1))
	pts := randomPoints(rng, 5000)
	tree := newTree(b)
	for j, p := range pts {
		tree.Insert(j, p)
	}
	buf := make([]Item, 0, 256)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		buf = tree.QueryRadius(pts[i%len(pts)], 40, buf[:0])
	}
}

func BenchmarkBruteForce_Radius(b *testing.B) {
	rng := rand.New(rand.NewPCG(1, 1))
	pts := randomPoints(rng, 5000)
	buf := make([]int, 0, 256)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		center := pts[i%len(pts)]
		buf = buf[:0]
		for j, p := range pts {
			if p.DistanceSquaredTo(center) <= 40*40 {
				buf = append(buf, j)
			}
		}
	}
}

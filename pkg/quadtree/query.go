package quadtree

import "github.com/lao-tseu-is-alive/go-flock-quadtree/pkg/geometry"

// shape is the range of a query: a rectangle used for pruning, and either
// the rectangle itself or a circle inscribed in it as the exact predicate.
type shape struct {
	bounds   geometry.Rectangle
	round    bool
	center   geometry.Vector2D
	radiusSq float64
}

func (s *shape) match(p geometry.Vector2D) bool {
	if s.round {
		return p.DistanceSquaredTo(s.center) <= s.radiusSq
	}
	return s.bounds.Contains(p)
}

// Query appends to out every item whose position satisfies rng.Contains.
// Pass a reused buffer (out[:0]) to keep the frame loop allocation free.
func (t *Tree) Query(rng geometry.Rectangle, out []Item) []Item {
	s := shape{bounds: rng}
	return t.query(rootIndex, &s, out)
}

// QueryRadius appends to out every item within radius of center, boundary
// included. The tree is pruned with the square of half size radius.
func (t *Tree) QueryRadius(center geometry.Vector2D, radius float64, out []Item) []Item {
	if radius < 0 {
		return out
	}
	s := shape{
		bounds:   geometry.Rectangle{Center: center, Size: geometry.Vector2D{X: radius, Y: radius}},
		round:    true,
		center:   center,
		radiusSq: radius * radius,
	}
	return t.query(rootIndex, &s, out)
}

func (t *Tree) query(at int32, s *shape, out []Item) []Item {
	n := &t.nodes[at]
	if n.region.NoIntersectionWith(s.bounds) {
		return out
	}
	if n.kind == leafNode {
		for _, it := range n.items {
			if s.match(it.Pos) {
				out = append(out, it)
			}
		}
		return out
	}
	for _, c := range n.children {
		out = t.query(c, s, out)
	}
	return out
}

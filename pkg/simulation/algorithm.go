package simulation

import (
	"errors"
	"fmt"

	"github.com/lao-tseu-is-alive/go-flock-quadtree/pkg/behavior"
	"github.com/lao-tseu-is-alive/go-flock-quadtree/pkg/geometry"
	"github.com/lao-tseu-is-alive/go-flock-quadtree/pkg/quadtree"
)

const (
	AlgorithmQuadtree = "quadtree"
	AlgorithmDirect   = "direct"
	AlgorithmGrid     = "grid"
)

var ErrUnknownAlgorithm = errors.New("unknown algorithm")

// Algorithm indexes a flock buffer once per frame and answers the neighbour
// queries of the step.
type Algorithm interface {
	Name() string
	// Prepare indexes current. Searchers of the algorithm may run concurrently
	// until the next call to Prepare.
	Prepare(current []behavior.Boid)
	NewSearcher() Searcher
}

// Searcher holds the scratch memory of one worker. It is not safe for
// concurrent use; give every worker its own.
type Searcher interface {
	// Neighbors appends to out the index of every boid other than i whose
	// distance to boid i is at most radius.
	Neighbors(i int, radius float64, out []int) []int
}

// NewAlgorithm builds the neighbour search named by name.
func NewAlgorithm(name string, cfg *Config) (Algorithm, error) {
	switch name {
	case AlgorithmQuadtree:
		return NewQuadtreeAlgorithm(cfg)
	case AlgorithmDirect:
		return &DirectLoop{}, nil
	case AlgorithmGrid:
		return NewGridAlgorithm(cfg), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
	}
}

// DirectLoop compares every pair of boids. O(n²), kept as the reference the
// other searches are measured against.
type DirectLoop struct {
	current []behavior.Boid
}

func (d *DirectLoop) Name() string { return AlgorithmDirect }

func (d *DirectLoop) Prepare(current []behavior.Boid) { d.current = current }

func (d *DirectLoop) NewSearcher() Searcher { return directSearcher{d} }

type directSearcher struct{ d *DirectLoop }

func (s directSearcher) Neighbors(i int, radius float64, out []int) []int {
	if radius < 0 {
		return out
	}
	current := s.d.current
	pos := current[i].Position
	radiusSq := radius * radius
	for j := range current {
		if j != i && pos.DistanceSquaredTo(current[j].Position) <= radiusSq {
			out = append(out, j)
		}
	}
	return out
}

// QuadtreeAlgorithm rebuilds a region quadtree over the flock every frame.
// The tree covers the world bounds scaled by TreePadding; a boid that
// drifted further out is indexed at the nearest point of the tree region
// and still matched on its real position.
type QuadtreeAlgorithm struct {
	tree    *quadtree.Tree
	current []behavior.Boid
}

func NewQuadtreeAlgorithm(cfg *Config) (*QuadtreeAlgorithm, error) {
	tree, err := quadtree.New(
		cfg.Bounds().Scale(cfg.TreePadding),
		quadtree.WithBucketSize(cfg.BucketSize),
		quadtree.WithMaxDepth(cfg.MaxDepth),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build quadtree: %w", err)
	}
	return &QuadtreeAlgorithm{tree: tree}, nil
}

func (q *QuadtreeAlgorithm) Name() string { return AlgorithmQuadtree }

// Tree exposes the index built by the last Prepare. Read only.
func (q *QuadtreeAlgorithm) Tree() *quadtree.Tree { return q.tree }

func (q *QuadtreeAlgorithm) Prepare(current []behavior.Boid) {
	q.current = current
	q.tree.Clear()
	region := q.tree.Bounds()
	for i := range current {
		q.tree.Insert(i, region.Clamp(current[i].Position))
	}
}

func (q *QuadtreeAlgorithm) NewSearcher() Searcher {
	return &treeSearcher{q: q, items: make([]quadtree.Item, 0, 64)}
}

type treeSearcher struct {
	q     *QuadtreeAlgorithm
	items []quadtree.Item
}

// Neighbors queries around the clamped position of boid i. Clamping never
// increases a distance, so the tree returns a superset of the neighbours,
// filtered here on the real positions.
func (s *treeSearcher) Neighbors(i int, radius float64, out []int) []int {
	if radius < 0 {
		return out
	}
	current := s.q.current
	pos := current[i].Position
	s.items = s.q.tree.QueryRadius(s.q.tree.Bounds().Clamp(pos), radius, s.items[:0])
	radiusSq := radius * radius
	for _, it := range s.items {
		if it.Index != i && pos.DistanceSquaredTo(current[it.Index].Position) <= radiusSq {
			out = append(out, it.Index)
		}
	}
	return out
}

type gridKey struct {
	x, y int
}

// GridAlgorithm hashes boids into square cells at least as wide as the
// largest vision radius, so a query only scans a handful of cells.
type GridAlgorithm struct {
	cellSize float64
	grid     map[gridKey][]int
	current  []behavior.Boid
}

func NewGridAlgorithm(cfg *Config) *GridAlgorithm {
	// Clamp to a minimum of 10 to avoid tiny grids or div by zero
	cellSize := max(cfg.Boids.DisruptiveRadius, cfg.Boids.CohesiveRadius, 10)
	return &GridAlgorithm{
		cellSize: cellSize,
		grid:     make(map[gridKey][]int),
	}
}

func (g *GridAlgorithm) Name() string { return AlgorithmGrid }

func (g *GridAlgorithm) cell(p geometry.Vector2D) gridKey {
	return gridKey{x: floorDiv(p.X, g.cellSize), y: floorDiv(p.Y, g.cellSize)}
}

func floorDiv(v, size float64) int {
	q := int(v / size)
	if v < 0 && float64(q)*size != v {
		q--
	}
	return q
}

// Prepare resets the cells to length 0 but keeps their capacity, so the
// steady state reuses the same backing arrays frame after frame.
func (g *GridAlgorithm) Prepare(current []behavior.Boid) {
	g.current = current
	for k := range g.grid {
		g.grid[k] = g.grid[k][:0]
	}
	for i := range current {
		key := g.cell(current[i].Position)
		g.grid[key] = append(g.grid[key], i)
	}
}

func (g *GridAlgorithm) NewSearcher() Searcher { return gridSearcher{g} }

type gridSearcher struct{ g *GridAlgorithm }

func (s gridSearcher) Neighbors(i int, radius float64, out []int) []int {
	if radius < 0 {
		return out
	}
	g := s.g
	pos := g.current[i].Position
	radiusSq := radius * radius
	lo := g.cell(geometry.Vector2D{X: pos.X - radius, Y: pos.Y - radius})
	hi := g.cell(geometry.Vector2D{X: pos.X + radius, Y: pos.Y + radius})
	for gx := lo.x; gx <= hi.x; gx++ {
		for gy := lo.y; gy <= hi.y; gy++ {
			for _, j := range g.grid[gridKey{x: gx, y: gy}] {
				if j != i && pos.DistanceSquaredTo(g.current[j].Position) <= radiusSq {
					out = append(out, j)
				}
			}
		}
	}
	return out
}

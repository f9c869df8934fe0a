// Package quadtree implements a bounded-depth region quadtree with bucketed
// leaves, rebuilt from scratch every frame and queried by range.
//
// Nodes live in an arena and refer to their children by index, so Clear only
// truncates the arena and the next rebuild reuses the node storage, item
// slices included. A built tree may be queried from many goroutines at once;
// Insert and Clear must not run concurrently with anything else.
package quadtree

import (
	"errors"
	"fmt"

	"github.com/lao-tseu-is-alive/go-flock-quadtree/pkg/geometry"
)

const (
	// DefaultBucketSize is the number of items a leaf holds before it splits.
	DefaultBucketSize = 8
	// DefaultMaxDepth caps the depth of the tree; leaves at this depth never split.
	DefaultMaxDepth = 8
)

var (
	ErrInvalidBounds     = errors.New("quadtree bounds must have a positive size")
	ErrInvalidBucketSize = errors.New("quadtree bucket size must be positive")
	ErrInvalidMaxDepth   = errors.New("quadtree max depth must not be negative")
)

// Item is a reference to an agent stored in a leaf.
type Item struct {
	Index int
	Pos   geometry.Vector2D
}

// Option configures a Tree.
type Option func(*Tree)

// WithBucketSize sets the leaf capacity.
func WithBucketSize(n int) Option {
	return func(t *Tree) { t.bucketSize = n }
}

// WithMaxDepth sets the depth at which leaves stop splitting.
func WithMaxDepth(d int) Option {
	return func(t *Tree) { t.maxDepth = d }
}

// Tree is the quadtree. The zero value is not usable, build one with New.
type Tree struct {
	bounds     geometry.Rectangle
	bucketSize int
	maxDepth   int
	nodes      []node
	items      int
}

// New creates an empty tree covering bounds.
func New(bounds geometry.Rectangle, opts ...Option) (*Tree, error) {
	t := &Tree{
		bounds:     bounds,
		bucketSize: DefaultBucketSize,
		maxDepth:   DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(t)
	}
	if bounds.Empty() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidBounds, bounds)
	}
	if t.bucketSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBucketSize, t.bucketSize)
	}
	if t.maxDepth < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMaxDepth, t.maxDepth)
	}
	t.nodes = make([]node, 1, 64)
	t.nodes[rootIndex].reset(bounds, 0)
	return t, nil
}

// Bounds returns the root region.
func (t *Tree) Bounds() geometry.Rectangle { return t.bounds }

// BucketSize returns the leaf capacity.
func (t *Tree) BucketSize() int { return t.bucketSize }

// MaxDepth returns the depth limit.
func (t *Tree) MaxDepth() int { return t.maxDepth }

// Len returns the number of inserted items.
func (t *Tree) Len() int { return t.items }

// Size returns the number of nodes, leaves and internal nodes together.
func (t *Tree) Size() int { return len(t.nodes) }

// Clear resets the tree to a single empty leaf covering the root bounds.
func (t *Tree) Clear() {
	t.nodes = t.nodes[:1]
	t.nodes[rootIndex].reset(t.bounds, 0)
	t.items = 0
}

// Insert adds an item. pos must lie inside Bounds(); callers clamp or pad
// beforehand. An out of bounds position is a programming error and panics.
func (t *Tree) Insert(index int, pos geometry.Vector2D) {
	if !t.bounds.Contains(pos) {
		panic(fmt.Sprintf("quadtree: insert of item %d at %s outside %s", index, pos, t.bounds))
	}
	it := Item{Index: index, Pos: pos}
	at := int32(rootIndex)
	for {
		n := &t.nodes[at]
		switch n.kind {
		case internalNode:
			at = n.children[n.region.Quadrant(pos)]
		case leafNode:
			if len(n.items) < t.bucketSize || n.depth >= t.maxDepth {
				n.items = append(n.items, it)
				t.items++
				return
			}
			t.split(at)
		default:
			panic(fmt.Sprintf("quadtree: node %d has unknown kind %d", at, n.kind))
		}
	}
}

// split turns the full leaf at index at into an internal node and moves each
// of its items into the child its position falls in.
func (t *Tree) split(at int32) {
	region, depth := t.nodes[at].region, t.nodes[at].depth
	if depth >= t.maxDepth {
		panic(fmt.Sprintf("quadtree: split of node %d at max depth %d", at, depth))
	}
	first := t.grow(4)
	for q := geometry.NW; q <= geometry.SE; q++ {
		t.nodes[first+int32(q)].reset(region.Child(q), depth+1)
	}

	// grow may have moved the arena, take the pointer afterwards.
	n := &t.nodes[at]
	items := n.items
	n.kind = internalNode
	for q := range n.children {
		n.children[q] = first + int32(q)
	}
	for _, it := range items {
		child := &t.nodes[first+int32(region.Quadrant(it.Pos))]
		child.items = append(child.items, it)
	}
	n.items = items[:0]
}

// grow extends the arena by n nodes and returns the index of the first one.
// Nodes left over from a previous frame are reused with their item storage.
func (t *Tree) grow(n int) int32 {
	first := len(t.nodes)
	if first+n <= cap(t.nodes) {
		t.nodes = t.nodes[:first+n]
	} else {
		t.nodes = append(t.nodes, make([]node, n)...)
	}
	return int32(first)
}

// Depth returns the depth of the deepest node.
func (t *Tree) Depth() int {
	deepest := 0
	for i := range t.nodes {
		if t.nodes[i].depth > deepest {
			deepest = t.nodes[i].depth
		}
	}
	return deepest
}

// AppendItems appends every stored item to dst, in tree order.
func (t *Tree) AppendItems(dst []Item) []Item {
	return t.appendItems(rootIndex, dst)
}

func (t *Tree) appendItems(at int32, dst []Item) []Item {
	n := &t.nodes[at]
	if n.kind == leafNode {
		return append(dst, n.items...)
	}
	for _, c := range n.children {
		dst = t.appendItems(c, dst)
	}
	return dst
}

package quadtree

import (
	"fmt"

	"github.com/lao-tseu-is-alive/go-flock-quadtree/pkg/geometry"
)

const rootIndex = 0

type nodeKind uint8

const (
	leafNode nodeKind = iota
	internalNode
)

// node is either a leaf (items in use) or an internal node (children in use).
// The unused field is kept empty or stale, never read.
type node struct {
	kind     nodeKind
	depth    int
	region   geometry.Rectangle
	children [4]int32 // NW, NE, SW, SE
	items    []Item
}

func (n *node) reset(region geometry.Rectangle, depth int) {
	n.kind = leafNode
	n.depth = depth
	n.region = region
	n.children = [4]int32{}
	n.items = n.items[:0]
}

// NodeInfo is the read-only view of a node handed to visualization.
type NodeInfo struct {
	Region geometry.Rectangle `json:"region"`
	Depth  int                `json:"depth"`
	Leaf   bool               `json:"leaf"`
	Items  int                `json:"items"`
}

// AppendNodes appends a NodeInfo for every node, in arena order (root first).
func (t *Tree) AppendNodes(dst []NodeInfo) []NodeInfo {
	for i := range t.nodes {
		n := &t.nodes[i]
		dst = append(dst, NodeInfo{
			Region: n.region,
			Depth:  n.depth,
			Leaf:   n.kind == leafNode,
			Items:  len(n.items),
		})
	}
	return dst
}

// Validate walks the tree and reports the first broken structural invariant.
// It is meant for tests and debugging, not for the frame loop.
func (t *Tree) Validate() error {
	count, err := t.validate(rootIndex, 0)
	if err != nil {
		return err
	}
	if count != t.items {
		return fmt.Errorf("quadtree: reachable items %d, inserted %d", count, t.items)
	}
	reachable := t.countNodes(rootIndex)
	if reachable != len(t.nodes) {
		return fmt.Errorf("quadtree: reachable nodes %d, arena holds %d", reachable, len(t.nodes))
	}
	return nil
}

func (t *Tree) validate(at int32, depth int) (int, error) {
	n := &t.nodes[at]
	if n.depth != depth {
		return 0, fmt.Errorf("quadtree: node %d depth %d, expected %d", at, n.depth, depth)
	}
	if n.depth > t.maxDepth {
		return 0, fmt.Errorf("quadtree: node %d depth %d exceeds max depth %d", at, n.depth, t.maxDepth)
	}
	switch n.kind {
	case leafNode:
		if len(n.items) > t.bucketSize && n.depth < t.maxDepth {
			return 0, fmt.Errorf("quadtree: leaf %d holds %d items above depth limit", at, len(n.items))
		}
		for _, it := range n.items {
			if leaf := t.route(it.Pos); leaf != at {
				return 0, fmt.Errorf("quadtree: item %d at %s stored in node %d, routes to %d", it.Index, it.Pos, at, leaf)
			}
		}
		return len(n.items), nil
	case internalNode:
		if len(n.items) != 0 {
			return 0, fmt.Errorf("quadtree: internal node %d holds %d items", at, len(n.items))
		}
		total := 0
		for q, c := range n.children {
			if c <= at || int(c) >= len(t.nodes) {
				return 0, fmt.Errorf("quadtree: node %d has invalid child index %d", at, c)
			}
			if t.nodes[c].region != n.region.Child(geometry.Quadrant(q)) {
				return 0, fmt.Errorf("quadtree: child %d of node %d has region %s", q, at, t.nodes[c].region)
			}
			sub, err := t.validate(c, depth+1)
			if err != nil {
				return 0, err
			}
			total += sub
		}
		return total, nil
	}
	return 0, fmt.Errorf("quadtree: node %d has unknown kind %d", at, n.kind)
}

// route returns the leaf an insert at p would descend to.
func (t *Tree) route(p geometry.Vector2D) int32 {
	at := int32(rootIndex)
	for t.nodes[at].kind == internalNode {
		at = t.nodes[at].children[t.nodes[at].region.Quadrant(p)]
	}
	return at
}

func (t *Tree) countNodes(at int32) int {
	n := &t.nodes[at]
	if n.kind == leafNode {
		return 1
	}
	total := 1
	for _, c := range n.children {
		total += t.countNodes(c)
	}
	return total
}

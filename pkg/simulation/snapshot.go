package simulation

import (
	"time"

	"github.com/lao-tseu-is-alive/go-flock-quadtree/pkg/behavior"
	"github.com/lao-tseu-is-alive/go-flock-quadtree/pkg/geometry"
	"github.com/lao-tseu-is-alive/go-flock-quadtree/pkg/quadtree"
)

// Snapshot is a copy of the world handed to viewers after a step.
// It shares no memory with the flock buffers.
type Snapshot struct {
	Frame     uint64             `json:"frame"`
	Paused    bool               `json:"paused"`
	Algorithm string             `json:"algorithm"`
	Bounds    geometry.Rectangle `json:"bounds"`
	Params    behavior.Params    `json:"params"`
	Boids     []behavior.Boid    `json:"boids"`

	// Filled by the quadtree algorithm only
	Nodes     []quadtree.NodeInfo `json:"nodes,omitempty"`
	TreeDepth int                 `json:"treeDepth"`

	StepTime time.Duration `json:"stepTime"`
}

// Leaves counts the leaf nodes of the snapshot tree.
func (s *Snapshot) Leaves() int {
	n := 0
	for i := range s.Nodes {
		if s.Nodes[i].Leaf {
			n++
		}
	}
	return n
}

func newSnapshot(f *Flock, alg Algorithm, paused bool, step time.Duration) *Snapshot {
	rules := f.Rules()
	s := &Snapshot{
		Frame:     f.Frame(),
		Paused:    paused,
		Algorithm: alg.Name(),
		Bounds:    rules.Bounds,
		Params:    rules.Params,
		Boids:     append([]behavior.Boid(nil), f.Current()...),
		StepTime:  step,
	}
	if q, ok := alg.(*QuadtreeAlgorithm); ok {
		t := q.Tree()
		s.Nodes = t.AppendNodes(make([]quadtree.NodeInfo, 0, t.Size()))
		s.TreeDepth = t.Depth()
	}
	return s
}

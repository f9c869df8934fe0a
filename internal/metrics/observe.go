package metrics

import (
	"github.com/lao-tseu-is-alive/go-flock-quadtree/pkg/simulation"
)

// Observe records one snapshot of the world.
func Observe(s *simulation.Snapshot) {
	if s == nil {
		return
	}
	FramesTotal.Inc()
	FlockSize.Set(float64(len(s.Boids)))
	if s.Paused {
		Paused.Set(1)
	} else {
		Paused.Set(0)
		StepDuration.WithLabelValues(s.Algorithm).Observe(s.StepTime.Seconds())
	}
	TreeNodes.Set(float64(len(s.Nodes)))
	TreeDepth.Set(float64(s.TreeDepth))
}

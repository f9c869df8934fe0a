package simulation

import (
	"context"
	"errors"
	"fmt"

	"github.com/lao-tseu-is-alive/go-flock-quadtree/pkg/behavior"
	"golang.org/x/sync/errgroup"
)

// ErrDiverged reports a boid whose state stopped being finite. It means a
// broken invariant in the rules, never an expected condition.
var ErrDiverged = errors.New("boid state is not finite")

// Flock owns the two boid buffers. One is read by the step while the other
// is written, then they swap roles; boid data is never copied on swap.
type Flock struct {
	buffers [2][]behavior.Boid
	current int
	frame   uint64

	rules       behavior.Rules
	spawnRadius float64

	workers []worker
	bound   Algorithm
}

type worker struct {
	search     Searcher
	disruptive []int
	cohesive   []int
}

// NewFlock lays size boids out on the spawn ring of cfg.
func NewFlock(size int, cfg *Config) (*Flock, error) {
	if err := checkFlockSize(size); err != nil {
		return nil, err
	}
	bounds := cfg.Bounds()
	if bounds.Empty() {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBounds, bounds)
	}
	f := &Flock{
		rules:       behavior.Rules{Params: cfg.Boids, Bounds: bounds},
		spawnRadius: cfg.SpawnRadius,
		workers:     make([]worker, max(cfg.WorkerCount(), 1)),
	}
	f.fill(size)
	return f, nil
}

func (f *Flock) fill(size int) {
	f.buffers[0] = behavior.Ring(size, f.spawnRadius, f.rules.Params.MaxSpeed)
	f.buffers[1] = make([]behavior.Boid, size)
	f.current = 0
}

// Current is the buffer produced by the last step. Callers must not modify
// it and must not keep it across a call to Step.
func (f *Flock) Current() []behavior.Boid { return f.buffers[f.current] }

func (f *Flock) Len() int { return len(f.buffers[f.current]) }

// Frame counts the completed steps.
func (f *Flock) Frame() uint64 { return f.frame }

func (f *Flock) Rules() behavior.Rules { return f.rules }

// Resize replaces both buffers with a fresh ring of n boids.
func (f *Flock) Resize(n int) error {
	if err := checkFlockSize(n); err != nil {
		return err
	}
	f.fill(n)
	return nil
}

// bind hands every worker a searcher of alg the first time alg is used.
func (f *Flock) bind(alg Algorithm) {
	if f.bound == alg {
		return
	}
	for w := range f.workers {
		f.workers[w].search = alg.NewSearcher()
	}
	f.bound = alg
}

// Step advances the flock by dt seconds. alg indexes the current buffer, then
// the boids are split into contiguous chunks, one per worker. Each worker only
// writes its own slots of the next buffer, so the result does not depend on
// the number of workers.
func (f *Flock) Step(ctx context.Context, alg Algorithm, dt float64) error {
	cur := f.buffers[f.current]
	next := f.buffers[1-f.current]
	n := len(cur)

	alg.Prepare(cur)
	f.bind(alg)

	chunk := (n + len(f.workers) - 1) / len(f.workers)
	if chunk == n {
		if err := f.workers[0].run(ctx, &f.rules, cur, next, 0, n, dt); err != nil {
			return err
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(len(f.workers))
		for w := range f.workers {
			lo := w * chunk
			if lo >= n {
				break
			}
			hi := min(lo+chunk, n)
			wk := &f.workers[w]
			g.Go(func() error {
				return wk.run(gctx, &f.rules, cur, next, lo, hi, dt)
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}

	f.current = 1 - f.current
	f.frame++
	return nil
}

// cancelCheck is how many boids a worker processes between context checks.
const cancelCheck = 256

func (wk *worker) run(ctx context.Context, rules *behavior.Rules, cur, next []behavior.Boid, lo, hi int, dt float64) error {
	p := &rules.Params
	for i := lo; i < hi; i++ {
		if (i-lo)%cancelCheck == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		wk.disruptive = wk.search.Neighbors(i, p.DisruptiveRadius, wk.disruptive[:0])
		wk.cohesive = wk.search.Neighbors(i, p.CohesiveRadius, wk.cohesive[:0])
		b := rules.Next(cur, i, wk.disruptive, wk.cohesive, dt)
		if !b.Position.IsFinite() || !b.Velocity.IsFinite() {
			return fmt.Errorf("%w: boid %d, was at %v", ErrDiverged, i, cur[i].Position)
		}
		next[i] = b
	}
	return nil
}

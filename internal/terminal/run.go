package terminal

import (
	"context"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/lao-tseu-is-alive/go-flock-quadtree/pkg/simulation"
)

// Controller is the part of simulation.Engine the terminal drives.
type Controller interface {
	Snapshots() <-chan *simulation.Snapshot
	Tick(ctx context.Context, dt time.Duration) error
	SetPaused(ctx context.Context, paused bool) error
	SetAlgorithm(ctx context.Context, name string) error
}

var algorithms = []string{simulation.AlgorithmQuadtree, simulation.AlgorithmGrid, simulation.AlgorithmDirect}

// nextAlgorithm cycles through the neighbour searches.
func nextAlgorithm(name string) string {
	for i, a := range algorithms {
		if a == name {
			return algorithms[(i+1)%len(algorithms)]
		}
	}
	return algorithms[0]
}

// Run ticks the engine tickRate times per second and draws every snapshot
// until ctx is done or the user quits. The screen must be initialised.
func Run(ctx context.Context, screen tcell.Screen, engine Controller, tickRate int) error {
	view := NewView(screen)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				// screen finalized
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	ticker := time.NewTicker(time.Second / time.Duration(max(tickRate, 1)))
	defer ticker.Stop()

	var (
		last     = &simulation.Snapshot{Algorithm: simulation.AlgorithmQuadtree}
		paused   bool
		lastTick = time.Now()
	)
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				switch view.HandleKey(ev) {
				case ActionQuit:
					return nil
				case ActionPause:
					paused = !paused
					if err := engine.SetPaused(ctx, paused); err != nil {
						return err
					}
				case ActionNextAlgorithm:
					if err := engine.SetAlgorithm(ctx, nextAlgorithm(last.Algorithm)); err != nil {
						return err
					}
				case ActionToggleTree:
					view.Draw(last)
				}
			case *tcell.EventResize:
				screen.Sync()
				view.Draw(last)
			}

		case now := <-ticker.C:
			if err := engine.Tick(ctx, now.Sub(lastTick)); err != nil {
				return err
			}
			lastTick = now

		case s := <-engine.Snapshots():
			last = s
			view.Draw(s)
		}
	}
}

package simulation

import (
	"context"
	"fmt"
	"time"

	"github.com/tochemey/goakt/v3/actor"
	golog "github.com/tochemey/goakt/v3/log"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Engine runs the world actor inside its own actor system. Hosts drive it
// with Tick and read the results from Snapshots.
type Engine struct {
	System     actor.ActorSystem
	worldPID   *actor.PID
	snapshotCh chan *Snapshot
}

// NewEngine validates cfg, starts the actor system and spawns the world.
func NewEngine(ctx context.Context, cfg *Config, logger golog.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = golog.DiscardLogger
	}

	system, err := actor.NewActorSystem("FlockWorld",
		actor.WithLogger(logger),
		actor.WithActorInitMaxRetries(3))
	if err != nil {
		return nil, fmt.Errorf("failed to create actor system: %w", err)
	}
	if err := system.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start actor system: %w", err)
	}

	// Buffer to avoid blocking
	snapshotCh := make(chan *Snapshot, 10)
	// The world may sit idle while paused; it must never be passivated.
	worldPID, err := system.Spawn(ctx, "world", NewWorldActor(snapshotCh, cfg), actor.WithLongLived())
	if err != nil {
		_ = system.Stop(ctx)
		return nil, fmt.Errorf("failed to spawn world: %w", err)
	}

	return &Engine{
		System:     system,
		worldPID:   worldPID,
		snapshotCh: snapshotCh,
	}, nil
}

// Snapshots delivers the world after every tick. Frames are dropped while
// the channel is full.
func (e *Engine) Snapshots() <-chan *Snapshot { return e.snapshotCh }

// Tick asks the world to advance by dt.
func (e *Engine) Tick(ctx context.Context, dt time.Duration) error {
	return actor.Tell(ctx, e.worldPID, durationpb.New(dt))
}

func (e *Engine) SetPaused(ctx context.Context, paused bool) error {
	return actor.Tell(ctx, e.worldPID, wrapperspb.Bool(paused))
}

// Resize replaces the flock with n boids laid out on the spawn ring.
func (e *Engine) Resize(ctx context.Context, n int) error {
	if err := checkFlockSize(n); err != nil {
		return err
	}
	return actor.Tell(ctx, e.worldPID, wrapperspb.UInt32(uint32(n)))
}

// SetAlgorithm switches the neighbour search used from the next tick on.
func (e *Engine) SetAlgorithm(ctx context.Context, name string) error {
	switch name {
	case AlgorithmQuadtree, AlgorithmDirect, AlgorithmGrid:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
	}
	return actor.Tell(ctx, e.worldPID, wrapperspb.String(name))
}

func (e *Engine) Stop(ctx context.Context) error {
	return e.System.Stop(ctx)
}

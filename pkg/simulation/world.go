package simulation

import (
	"time"

	"github.com/tochemey/goakt/v3/actor"
	"github.com/tochemey/goakt/v3/goaktpb"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// maxStep caps the delta of one tick so a stalled host loop does not make the
// flock jump across the world.
const maxStep = 100 * time.Millisecond

// WorldActor owns the flock and its neighbour search. Every mutation goes
// through its mailbox, so the step never races with a resize or an algorithm
// switch.
//
// Messages:
//   - *durationpb.Duration: advance one frame by that delta
//   - *wrapperspb.BoolValue: pause (true) or resume (false)
//   - *wrapperspb.UInt32Value: replace the flock with that many boids
//   - *wrapperspb.StringValue: switch the neighbour search by name
type WorldActor struct {
	cfg        *Config
	flock      *Flock
	alg        Algorithm
	algorithms map[string]Algorithm
	paused     bool
	// Communication with UI
	snapshotCh chan<- *Snapshot

	// --- Benchmark Stats ---
	frames      int
	stepTotal   time.Duration
	lastLogTime time.Time
}

// NewWorldActor creates the world logic unit
func NewWorldActor(snapshotCh chan<- *Snapshot, cfg *Config) *WorldActor {
	return &WorldActor{
		cfg:         cfg,
		algorithms:  make(map[string]Algorithm),
		snapshotCh:  snapshotCh,
		lastLogTime: time.Now(),
	}
}

func (w *WorldActor) PreStart(ctx *actor.Context) error {
	flock, err := NewFlock(w.cfg.FlockSize, w.cfg)
	if err != nil {
		return err
	}
	alg, err := w.algorithm(w.cfg.Algorithm)
	if err != nil {
		return err
	}
	w.flock = flock
	w.alg = alg
	return nil
}

func (w *WorldActor) Receive(ctx *actor.ReceiveContext) {
	switch msg := ctx.Message().(type) {
	case *goaktpb.PostStart:
		ctx.Logger().Infof("World started: %d boids, %s search, bounds %v",
			w.flock.Len(), w.alg.Name(), w.flock.Rules().Bounds)
		w.pushSnapshot(0)

	case *durationpb.Duration:
		if w.paused {
			w.pushSnapshot(0)
			return
		}
		dt := min(msg.AsDuration(), maxStep)
		if dt <= 0 {
			dt = time.Second / time.Duration(w.cfg.TickRate)
		}
		start := time.Now()
		if err := w.flock.Step(ctx.Context(), w.alg, dt.Seconds()); err != nil {
			ctx.Logger().Errorf("Step %d failed, pausing the world: %v", w.flock.Frame(), err)
			w.paused = true
			return
		}
		elapsed := time.Since(start)
		w.logBenchmarks(ctx, elapsed)
		w.pushSnapshot(elapsed)

	case *wrapperspb.BoolValue:
		if w.paused != msg.GetValue() {
			ctx.Logger().Infof("World paused: %t", msg.GetValue())
		}
		w.paused = msg.GetValue()
		w.pushSnapshot(0)

	case *wrapperspb.UInt32Value:
		if err := w.flock.Resize(int(msg.GetValue())); err != nil {
			ctx.Logger().Warnf("Resize rejected: %v", err)
			return
		}
		ctx.Logger().Infof("Flock resized to %d boids", w.flock.Len())
		w.pushSnapshot(0)

	case *wrapperspb.StringValue:
		alg, err := w.algorithm(msg.GetValue())
		if err != nil {
			ctx.Logger().Warnf("Algorithm switch rejected: %v", err)
			return
		}
		ctx.Logger().Infof("Neighbour search switched from %s to %s", w.alg.Name(), alg.Name())
		w.alg = alg

	default:
		ctx.Unhandled()
	}
}

// algorithm returns the cached search for name, building it on first use.
func (w *WorldActor) algorithm(name string) (Algorithm, error) {
	if alg, ok := w.algorithms[name]; ok {
		return alg, nil
	}
	alg, err := NewAlgorithm(name, w.cfg)
	if err != nil {
		return nil, err
	}
	w.algorithms[name] = alg
	return alg, nil
}

func (w *WorldActor) logBenchmarks(ctx *actor.ReceiveContext, step time.Duration) {
	w.frames++
	w.stepTotal += step
	if time.Since(w.lastLogTime) >= time.Second {
		ctx.Logger().Infof("📊 FRAME RATE: %d/sec | avg step %.3fms | Boids: %d | Search: %s",
			w.frames, float64(w.stepTotal.Microseconds())/1000/float64(w.frames), w.flock.Len(), w.alg.Name())
		w.frames = 0
		w.stepTotal = 0
		w.lastLogTime = time.Now()
	}
}

// pushSnapshot never blocks the actor: when the viewer lags behind, the
// frame is dropped.
func (w *WorldActor) pushSnapshot(step time.Duration) {
	if w.snapshotCh == nil || len(w.snapshotCh) == cap(w.snapshotCh) {
		return
	}
	select {
	case w.snapshotCh <- newSnapshot(w.flock, w.alg, w.paused, step):
	default:
		// UI busy, skip frame
	}
}

func (w *WorldActor) PostStop(ctx *actor.Context) error {
	ctx.ActorSystem().Logger().Info("World is shutdown...")
	return nil
}

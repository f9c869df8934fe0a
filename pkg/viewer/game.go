// Package viewer is the ebiten desktop front end of the flock engine.
package viewer

import (
	"context"
	"fmt"
	"image/color"
	"math"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/lao-tseu-is-alive/go-flock-quadtree/pkg/behavior"
	"github.com/lao-tseu-is-alive/go-flock-quadtree/pkg/simulation"
	"github.com/lao-tseu-is-alive/go-flock-quadtree/pkg/ui"
	golog "github.com/tochemey/goakt/v3/log"
)

var (
	whiteImage      = ebiten.NewImage(3, 3)
	backgroundColor = color.RGBA{R: 10, G: 10, B: 30, A: 255}
	visionColor     = color.RGBA{R: 90, G: 160, B: 255, A: 40}
	disruptColor    = color.RGBA{R: 255, G: 90, B: 90, A: 60}
)

func init() {
	whiteImage.Fill(color.RGBA{R: 100, G: 200, B: 255, A: 255})
}

// Game is the ebiten host loop of the desktop viewer. It ticks the engine
// once per Update and draws the latest snapshot.
type Game struct {
	ctx       context.Context
	engine    *simulation.Engine
	logger    golog.Logger
	cfg       *simulation.Config
	lastState *simulation.Snapshot
	lastTick  time.Time
	paused    bool

	// UI Controls
	panel *ui.Panel

	widgetFlockSize  *ui.Slider
	widgetAlgorithm  *ui.ButtonGroup
	widgetShowBoids  *ui.Checkbox
	widgetShowVision *ui.Checkbox
	widgetShowTree   *ui.Checkbox
	widgetShowPanel  bool

	// Timing instrumentation
	updateAvg float64 // Rolling average in ms
	drawAvg   float64 // Rolling average in ms
}

// NewGame builds the viewer around a running engine.
func NewGame(ctx context.Context, cfg *simulation.Config, engine *simulation.Engine, logger golog.Logger) *Game {
	if logger == nil {
		logger = golog.DiscardLogger
	}
	g := &Game{
		ctx:             ctx,
		engine:          engine,
		logger:          logger,
		cfg:             cfg,
		lastState:       &simulation.Snapshot{}, // Avoid nil pointer
		widgetShowPanel: true,
	}

	panel := ui.NewPanel(10, 10, 220, float64(cfg.Height)-20)
	panel.Title = "Flock (H hides)"

	population := panel.Section("Population")
	g.widgetFlockSize = population.Slider("Boids", 1, 8192, float64(cfg.FlockSize))
	g.widgetFlockSize.Format = "%.0f"
	population.Button("Respawn", func() {
		g.send(g.engine.Resize(g.ctx, int(g.widgetFlockSize.Value)))
	})

	algorithms := []string{simulation.AlgorithmQuadtree, simulation.AlgorithmGrid, simulation.AlgorithmDirect}
	g.widgetAlgorithm = panel.Section("Neighbour Search").Choice(algorithms, cfg.Algorithm, func(name string) {
		g.send(g.engine.SetAlgorithm(g.ctx, name))
	})

	visualization := panel.Section("Visualization")
	g.widgetShowBoids = visualization.Checkbox("Boids (B)", true)
	g.widgetShowVision = visualization.Checkbox("Vision (V)", false)
	g.widgetShowTree = visualization.Checkbox("Quadtree (Q)", true)

	g.panel = panel
	return g
}

func (g *Game) send(err error) {
	if err != nil {
		g.logger.Warnf("World message not sent: %v", err)
	}
}

func (g *Game) Update() error {
	start := time.Now()
	defer func() {
		// Rolling average (exponential moving average)
		g.updateAvg = g.updateAvg*0.95 + float64(time.Since(start).Microseconds())/1000.0*0.05
	}()

	g.handleKeys()
	if g.widgetShowPanel {
		g.panel.Update()
	}

	// Retrieve Latest State (Non-blocking)
	for done := false; !done; {
		select {
		case snap := <-g.engine.Snapshots():
			g.lastState = snap
			g.widgetAlgorithm.Sync(snap.Algorithm)
		default:
			done = true
		}
	}

	now := time.Now()
	dt := time.Second / time.Duration(ebiten.TPS())
	if !g.lastTick.IsZero() {
		dt = now.Sub(g.lastTick)
	}
	g.lastTick = now
	g.send(g.engine.Tick(g.ctx, dt))
	return nil
}

func (g *Game) handleKeys() {
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.paused = !g.paused
		g.send(g.engine.SetPaused(g.ctx, g.paused))
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyB) {
		g.widgetShowBoids.Value = !g.widgetShowBoids.Value
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyV) {
		g.widgetShowVision.Value = !g.widgetShowVision.Value
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyQ) {
		g.widgetShowTree.Value = !g.widgetShowTree.Value
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyH) {
		g.widgetShowPanel = !g.widgetShowPanel
	}
}

func (g *Game) viewport() simulation.Viewport {
	bounds := g.lastState.Bounds
	if bounds.Empty() {
		bounds = g.cfg.Bounds()
	}
	return simulation.Viewport{Bounds: bounds, W: float64(g.cfg.Width), H: float64(g.cfg.Height)}
}

func (g *Game) Draw(screen *ebiten.Image) {
	start := time.Now()
	defer func() {
		g.drawAvg = g.drawAvg*0.95 + float64(time.Since(start).Microseconds())/1000.0*0.05
	}()

	screen.Fill(backgroundColor)
	vp := g.viewport()
	s := g.lastState

	if g.widgetShowTree.Value {
		for i := range s.Nodes {
			n := &s.Nodes[i]
			if !n.Leaf {
				continue
			}
			x, y, w, h := vp.ToScreenRect(n.Region)
			vector.StrokeRect(screen, float32(x), float32(y), float32(w), float32(h), 1, simulation.DepthColor(n.Depth), false)
		}
	}

	if g.widgetShowVision.Value {
		scale := vp.Scale()
		for i := range s.Boids {
			x, y := vp.ToScreen(s.Boids[i].Position)
			vector.StrokeCircle(screen, float32(x), float32(y), float32(s.Params.CohesiveRadius*scale), 1, visionColor, true)
			vector.StrokeCircle(screen, float32(x), float32(y), float32(s.Params.DisruptiveRadius*scale), 1, disruptColor, true)
		}
	}

	if g.widgetShowBoids.Value {
		for i := range s.Boids {
			drawBoid(screen, vp, &s.Boids[i])
		}
	}

	if g.widgetShowPanel {
		g.panel.Draw(screen)
	}

	state := "running"
	if s.Paused {
		state = "paused"
	}
	msg := fmt.Sprintf("FPS: %.2f\nTPS: %.2f\n\nFrame:  %d (%s)\nBoids:  %d\nSearch: %s\nNodes:  %d depth %d\n\nStep:   %.2fms\nUpdate: %.2fms\nDraw:   %.2fms",
		ebiten.ActualFPS(),
		ebiten.ActualTPS(),
		s.Frame, state,
		len(s.Boids),
		s.Algorithm,
		len(s.Nodes), s.TreeDepth,
		float64(s.StepTime.Microseconds())/1000.0,
		g.updateAvg,
		g.drawAvg)
	// Print stats on the right side
	ebitenutil.DebugPrintAt(screen, msg, g.cfg.Width-170, 10)
}

// drawBoid draws a triangle pointing along the velocity. Screen Y points
// down, hence the negated angle.
func drawBoid(screen *ebiten.Image, vp simulation.Viewport, b *behavior.Boid) {
	x, y := vp.ToScreen(b.Position)
	angle := -b.Velocity.Angle()

	tipX := x + math.Cos(angle)*6
	tipY := y + math.Sin(angle)*6
	rightX := x + math.Cos(angle+2.5)*5
	rightY := y + math.Sin(angle+2.5)*5
	leftX := x + math.Cos(angle-2.5)*5
	leftY := y + math.Sin(angle-2.5)*5

	vertices := []ebiten.Vertex{
		{DstX: float32(tipX), DstY: float32(tipY), SrcX: 1, SrcY: 1, ColorR: 1, ColorG: 1, ColorB: 1, ColorA: 1},
		{DstX: float32(rightX), DstY: float32(rightY), SrcX: 1, SrcY: 1, ColorR: 1, ColorG: 1, ColorB: 1, ColorA: 1},
		{DstX: float32(leftX), DstY: float32(leftY), SrcX: 1, SrcY: 1, ColorR: 1, ColorG: 1, ColorB: 1, ColorA: 1},
	}
	indices := []uint16{0, 1, 2}

	screen.DrawTriangles(vertices, indices, whiteImage, &ebiten.DrawTrianglesOptions{})
}

func (g *Game) Layout(w, h int) (int, int) { return g.cfg.Width, g.cfg.Height }

// Package terminal renders a running flock in a text terminal.
package terminal

import (
	"fmt"
	"math"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/lao-tseu-is-alive/go-flock-quadtree/pkg/geometry"
	"github.com/lao-tseu-is-alive/go-flock-quadtree/pkg/simulation"
)

// Action is what a key press asks the host loop to do.
type Action int

const (
	ActionNone Action = iota
	ActionQuit
	ActionPause
	ActionToggleTree
	ActionNextAlgorithm
)

// One glyph per octant, counter clockwise from east
var arrows = [8]rune{'→', '↗', '↑', '↖', '←', '↙', '↓', '↘'}

var (
	boidStyle   = tcell.StyleDefault.Foreground(tcell.NewRGBColor(100, 200, 255))
	statusStyle = tcell.StyleDefault.Reverse(true)
)

// directionGlyph is the arrow closest to the heading of v, Y up.
func directionGlyph(v geometry.Vector2D) rune {
	if v.IsZero() {
		return '•'
	}
	octant := int(math.Round(v.Angle() / (math.Pi / 4)))
	return arrows[(octant%8+8)%8]
}

// View draws snapshots on a tcell screen. The last row holds the status line.
type View struct {
	screen   tcell.Screen
	ShowTree bool
}

func NewView(screen tcell.Screen) *View {
	return &View{screen: screen, ShowTree: true}
}

// HandleKey maps a key press to an action.
func (v *View) HandleKey(ev *tcell.EventKey) Action {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return ActionQuit
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q':
			return ActionQuit
		case ' ':
			return ActionPause
		case 't':
			v.ShowTree = !v.ShowTree
			return ActionToggleTree
		case 'a':
			return ActionNextAlgorithm
		}
	}
	return ActionNone
}

// Draw renders s and shows the screen.
func (v *View) Draw(s *simulation.Snapshot) {
	v.screen.Clear()
	w, h := v.screen.Size()
	if w <= 0 || h <= 1 || s.Bounds.Empty() {
		v.screen.Show()
		return
	}
	vp := simulation.Viewport{Bounds: s.Bounds, W: float64(w), H: float64(h - 1)}

	if v.ShowTree {
		for _, n := range s.Nodes {
			if n.Leaf {
				v.drawBorder(vp, n.Region, n.Depth, w, h-1)
			}
		}
	}

	for _, b := range s.Boids {
		x, y := vp.ToScreen(b.Position)
		cx, cy := int(math.Floor(x)), int(math.Floor(y))
		if cx < 0 || cy < 0 || cx >= w || cy >= h-1 {
			continue
		}
		v.screen.SetContent(cx, cy, directionGlyph(b.Velocity), nil, boidStyle)
	}

	v.drawStatus(s, w, h-1)
	v.screen.Show()
}

func (v *View) drawBorder(vp simulation.Viewport, r geometry.Rectangle, depth, w, h int) {
	c := simulation.DepthColor(depth)
	style := tcell.StyleDefault.Foreground(tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B)))

	fx, fy, fw, fh := vp.ToScreenRect(r)
	x0, y0 := int(math.Floor(fx)), int(math.Floor(fy))
	x1, y1 := int(math.Floor(fx+fw)), int(math.Floor(fy+fh))
	put := func(x, y int) {
		if x >= 0 && y >= 0 && x < w && y < h {
			v.screen.SetContent(x, y, '·', nil, style)
		}
	}
	for x := x0; x <= x1; x++ {
		put(x, y0)
		put(x, y1)
	}
	for y := y0 + 1; y < y1; y++ {
		put(x0, y)
		put(x1, y)
	}
}

func (v *View) drawStatus(s *simulation.Snapshot, w, row int) {
	state := "running"
	if s.Paused {
		state = "paused"
	}
	line := fmt.Sprintf(" frame %d | %d boids | %s | %s | step %v | leaves %d depth %d | [space] pause [t] tree [a] search [q] quit",
		s.Frame, len(s.Boids), s.Algorithm, state, s.StepTime.Round(time.Microsecond), s.Leaves(), s.TreeDepth)
	x := 0
	for _, r := range line {
		if x >= w {
			break
		}
		v.screen.SetContent(x, row, r, nil, statusStyle)
		x++
	}
	for ; x < w; x++ {
		v.screen.SetContent(x, row, ' ', nil, statusStyle)
	}
}

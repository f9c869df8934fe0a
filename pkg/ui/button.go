package ui

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// Button is a clickable UI button
type Button struct {
	Label   string
	X, Y    float64
	Width   float64
	Height  float64
	clicked bool   // Track if already clicked this frame
	OnClick func() // Callback function
	// Active buttons are drawn in ActiveColor, see ButtonGroup
	Active bool

	// Styling
	BGColor     color.RGBA
	HoverColor  color.RGBA
	ActiveColor color.RGBA
	TextColor   color.RGBA
}

// NewButton creates a new button instance
func NewButton(x, y, width, height float64, label string, onClick func()) *Button {
	return &Button{
		Label:      label,
		X:          x,
		Y:          y,
		Width:      width,
		Height:     height,
		OnClick:    onClick,
		BGColor:     color.RGBA{R: 80, G: 120, B: 180, A: 255},
		HoverColor:  color.RGBA{R: 100, G: 150, B: 220, A: 255},
		ActiveColor: color.RGBA{R: 70, G: 170, B: 110, A: 255},
		TextColor:   color.RGBA{R: 255, G: 255, B: 255, A: 255},
	}
}

// Update checks for mouse interaction
func (b *Button) Update() {
	mx, my := ebiten.CursorPosition()

	isOver := b.contains(mx, my)

	// Handle click
	if isOver && ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		if !b.clicked && b.OnClick != nil {
			b.OnClick()
			b.clicked = true
		}
	} else {
		b.clicked = false
	}
}

// Draw renders the button
func (b *Button) Draw(screen *ebiten.Image) {
	isOver := b.contains(ebiten.CursorPosition())

	// Choose color based on hover state
	bgColor := b.BGColor
	switch {
	case b.Active:
		bgColor = b.ActiveColor
	case isOver:
		bgColor = b.HoverColor
	}

	// Draw button background
	vector.FillRect(screen,
		float32(b.X), float32(b.Y),
		float32(b.Width), float32(b.Height),
		bgColor, true)

	// Draw border
	vector.StrokeRect(screen,
		float32(b.X), float32(b.Y),
		float32(b.Width), float32(b.Height),
		2, color.RGBA{R: 200, G: 200, B: 200, A: 255}, true)

	// Debug font glyphs are 6x16
	tx := b.X + (b.Width-float64(len(b.Label)*6))/2
	ebitenutil.DebugPrintAt(screen, b.Label, int(tx), int(b.Y+b.Height/2-8))
}

// contains reports whether the cursor at (mx, my) is over the button
func (b *Button) contains(mx, my int) bool {
	return float64(mx) >= b.X && float64(mx) <= b.X+b.Width &&
		float64(my) >= b.Y && float64(my) <= b.Y+b.Height
}

func (b *Button) place(x, y, w float64) { b.X, b.Y, b.Width = x, y, w }

func (b *Button) height() float64 { return b.Height + 5 }

// ButtonGroup lays buttons side by side and keeps exactly one of them active.
type ButtonGroup struct {
	Buttons  []*Button
	Selected int
	// OnSelect receives the label of a button the user clicked
	OnSelect func(label string)
}

// NewButtonGroup builds one button per label, selected being active.
func NewButtonGroup(labels []string, selected string, onSelect func(string)) *ButtonGroup {
	g := &ButtonGroup{OnSelect: onSelect}
	for i, label := range labels {
		g.Buttons = append(g.Buttons, NewButton(0, 0, 0, 20, label, func() { g.click(i) }))
	}
	g.Sync(selected)
	return g
}

func (g *ButtonGroup) click(i int) {
	g.activate(i)
	if g.OnSelect != nil {
		g.OnSelect(g.Buttons[i].Label)
	}
}

func (g *ButtonGroup) activate(i int) {
	g.Selected = i
	for j, b := range g.Buttons {
		b.Active = j == i
	}
}

// Sync activates the button labelled label without calling OnSelect.
// Unknown labels leave the group unchanged.
func (g *ButtonGroup) Sync(label string) {
	for i, b := range g.Buttons {
		if b.Label == label {
			g.activate(i)
			return
		}
	}
}

func (g *ButtonGroup) Update() {
	for _, b := range g.Buttons {
		b.Update()
	}
}

func (g *ButtonGroup) Draw(screen *ebiten.Image) {
	for _, b := range g.Buttons {
		b.Draw(screen)
	}
}

const groupGap = 4

func (g *ButtonGroup) place(x, y, w float64) {
	n := float64(len(g.Buttons))
	if n == 0 {
		return
	}
	bw := (w - groupGap*(n-1)) / n
	for i, b := range g.Buttons {
		b.place(x+float64(i)*(bw+groupGap), y, bw)
	}
}

func (g *ButtonGroup) height() float64 {
	h := 0.0
	for _, b := range g.Buttons {
		h = max(h, b.height())
	}
	return h
}

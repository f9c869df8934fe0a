package ui

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// Slider is a horizontal bar mapping the cursor position to [Min, Max]
type Slider struct {
	Label    string
	Value    float64
	Min, Max float64
	X, Y     float64
	W, H     float64
	// Format of the value printed at the right end, "%.0f" for counts
	Format string
}

// NewSlider creates a slider of default height
func NewSlider(x, y, w float64, label string, min, max, value float64) *Slider {
	s := &Slider{
		Label:  label,
		Min:    min,
		Max:    max,
		X:      x,
		Y:      y,
		W:      w,
		H:      10,
		Format: "%.2f",
	}
	s.Set(value)
	return s
}

// Set assigns v clamped to [Min, Max]
func (s *Slider) Set(v float64) {
	s.Value = min(max(v, s.Min), s.Max)
}

// valueAt maps a cursor abscissa to a slider value
func (s *Slider) valueAt(mx float64) float64 {
	if s.W <= 0 {
		return s.Min
	}
	p := (mx - s.X) / s.W
	return s.Min + p*(s.Max-s.Min)
}

func (s *Slider) ratio() float64 {
	if s.Max == s.Min {
		return 0
	}
	return (s.Value - s.Min) / (s.Max - s.Min)
}

// Update checks for mouse interaction
func (s *Slider) Update() {
	mx, my := ebiten.CursorPosition()
	// Check if mouse is clicking inside the slider area
	if ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		if float64(mx) >= s.X && float64(mx) <= s.X+s.W &&
			float64(my) >= s.Y && float64(my) <= s.Y+s.H {
			s.Set(s.valueAt(float64(mx)))
		}
	}
}

// Draw renders the slider
func (s *Slider) Draw(screen *ebiten.Image) {
	// Draw Background (Dark Gray)
	vector.FillRect(screen, float32(s.X), float32(s.Y), float32(s.W), float32(s.H), color.RGBA{R: 80, G: 80, B: 80, A: 255}, true)

	// Draw Value Bar (Light Gray/White)
	vector.FillRect(screen, float32(s.X), float32(s.Y), float32(s.W*s.ratio()), float32(s.H), color.RGBA{R: 200, G: 200, B: 200, A: 255}, true)

	ebitenutil.DebugPrintAt(screen, s.Label, int(s.X), int(s.Y)-labelHeight)
	txt := fmt.Sprintf(s.Format, s.Value)
	ebitenutil.DebugPrintAt(screen, txt, int(s.X+s.W)-len(txt)*6, int(s.Y)-labelHeight)
}

// labelHeight is the room kept above the bar for the label and the value.
const labelHeight = 15

func (s *Slider) place(x, y, w float64) {
	s.X, s.Y, s.W = x, y+labelHeight, w
}

func (s *Slider) height() float64 { return labelHeight + s.H + 10 }

package ui

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

const (
	padding      = 10
	titleHeight  = 30
	headerHeight = 25
	scrollStep   = 20
)

// Widget is one row of a Panel section.
type Widget interface {
	Update()
	Draw(screen *ebiten.Image)
	// place moves the row to (x, y) and stretches it to w
	place(x, y, w float64)
	height() float64
}

// Section is a titled group of rows.
type Section struct {
	Title string
	rows  []Widget
}

func (s *Section) add(w Widget) { s.rows = append(s.rows, w) }

// Slider appends a labelled slider row.
func (s *Section) Slider(label string, min, max, value float64) *Slider {
	w := NewSlider(0, 0, 0, label, min, max, value)
	s.add(w)
	return w
}

// Checkbox appends a labelled checkbox row.
func (s *Section) Checkbox(label string, value bool) *Checkbox {
	w := NewCheckbox(0, 0, label, value)
	s.add(w)
	return w
}

// Button appends a full width button row.
func (s *Section) Button(label string, onClick func()) *Button {
	w := NewButton(0, 0, 0, 20, label, onClick)
	s.add(w)
	return w
}

// Choice appends a row of buttons of which exactly one is active.
func (s *Section) Choice(labels []string, selected string, onSelect func(string)) *ButtonGroup {
	w := NewButtonGroup(labels, selected, onSelect)
	s.add(w)
	return w
}

// Panel stacks sections in a scrollable box. Rows scrolled out of the box
// are neither drawn nor updated.
type Panel struct {
	Title         string
	X, Y          float64
	Width, Height float64
	Scroll        float64

	BGColor     color.RGBA
	BorderColor color.RGBA
	HeaderColor color.RGBA

	sections []*Section
}

func NewPanel(x, y, width, height float64) *Panel {
	return &Panel{
		Title:       "Configuration",
		X:           x,
		Y:           y,
		Width:       width,
		Height:      height,
		BGColor:     color.RGBA{R: 40, G: 40, B: 45, A: 230},
		BorderColor: color.RGBA{R: 100, G: 100, B: 110, A: 255},
		HeaderColor: color.RGBA{R: 60, G: 60, B: 70, A: 255},
	}
}

// Section opens a new section below the existing ones.
func (p *Panel) Section(title string) *Section {
	s := &Section{Title: title}
	p.sections = append(p.sections, s)
	return s
}

// contentHeight is the height of everything below the title.
func (p *Panel) contentHeight() float64 {
	h := 0.0
	for _, s := range p.sections {
		h += headerHeight
		for _, w := range s.rows {
			h += w.height()
		}
	}
	return h
}

// scrollBy moves the content by dy, keeping the last row reachable.
func (p *Panel) scrollBy(dy float64) {
	maxScroll := max(p.contentHeight()-(p.Height-titleHeight), 0)
	p.Scroll = min(max(p.Scroll+dy, 0), maxScroll)
}

// layout places every row for the current scroll offset.
func (p *Panel) layout() {
	y := p.Y + titleHeight - p.Scroll
	for _, s := range p.sections {
		y += headerHeight
		for _, w := range s.rows {
			w.place(p.X+padding, y, p.Width-2*padding)
			y += w.height()
		}
	}
}

// visible reports whether a row starting at y fits in the box.
func (p *Panel) visible(y, h float64) bool {
	return y >= p.Y+titleHeight && y+h <= p.Y+p.Height
}

// each calls fn for every row with its top edge, header rows excluded.
func (p *Panel) each(fn func(w Widget, y float64)) {
	y := p.Y + titleHeight - p.Scroll
	for _, s := range p.sections {
		y += headerHeight
		for _, w := range s.rows {
			fn(w, y)
			y += w.height()
		}
	}
}

func (p *Panel) Update() {
	if _, dy := ebiten.Wheel(); dy != 0 {
		p.scrollBy(-dy * scrollStep)
	}
	p.layout()
	p.each(func(w Widget, y float64) {
		if p.visible(y, w.height()) {
			w.Update()
		}
	})
}

func (p *Panel) Draw(screen *ebiten.Image) {
	vector.FillRect(screen, float32(p.X), float32(p.Y), float32(p.Width), float32(p.Height), p.BGColor, true)
	vector.StrokeRect(screen, float32(p.X), float32(p.Y), float32(p.Width), float32(p.Height), 2, p.BorderColor, true)
	ebitenutil.DebugPrintAt(screen, p.Title, int(p.X+padding), int(p.Y+5))

	p.layout()
	y := p.Y + titleHeight - p.Scroll
	for _, s := range p.sections {
		if p.visible(y, headerHeight) {
			vector.FillRect(screen, float32(p.X+5), float32(y), float32(p.Width-10), headerHeight-5, p.HeaderColor, true)
			ebitenutil.DebugPrintAt(screen, s.Title, int(p.X+padding), int(y+2))
		}
		y += headerHeight
		for _, w := range s.rows {
			if p.visible(y, w.height()) {
				w.Draw(screen)
			}
			y += w.height()
		}
	}
}

// Package backend wraps the tcell terminal screen used by the demo
// renderer.
package backend

import (
	"sync"

	"github.com/gdamore/tcell/v2"
	runewidth "github.com/mattn/go-runewidth"

	"github.com/dshills/treelight/internal/renderer/core"
)

// Screen is a terminal drawing surface.
type Screen struct {
	mu     sync.Mutex
	screen tcell.Screen
}

// NewTerminal creates a screen backed by the real terminal.
func NewTerminal() (*Screen, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	return &Screen{screen: screen}, nil
}

// NewSimulation creates a screen backed by an in-memory simulation of the
// given size, for tests.
func NewSimulation(width, height int) *Screen {
	sim := tcell.NewSimulationScreen("UTF-8")
	sim.SetSize(width, height)
	return &Screen{screen: sim}
}

// Init initializes the underlying screen. Must be called before drawing.
func (s *Screen) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.screen.Init()
}

// Fini restores the terminal state.
func (s *Screen) Fini() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.screen.Fini()
}

// Size returns the current screen dimensions.
func (s *Screen) Size() (width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.screen.Size()
}

// SetDefaultStyle sets the style used for cleared cells.
func (s *Screen) SetDefaultStyle(style core.Style) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.screen.SetStyle(convertStyle(style))
}

// Clear erases the screen with the default style.
func (s *Screen) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.screen.Clear()
}

// SetText draws text starting at (x, y) and returns the column after the
// last cell drawn. Wide runes advance by their display width.
func (s *Screen) SetText(x, y int, text string, style core.Style) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := convertStyle(style)
	for _, r := range text {
		w := runewidth.RuneWidth(r)
		if w == 0 {
			continue
		}
		s.screen.SetContent(x, y, r, nil, ts)
		x += w
	}
	return x
}

// Content returns the rune and style at (x, y).
func (s *Screen) Content(x, y int) (rune, core.Style) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, _, style, _ := s.screen.GetContent(x, y)
	return r, convertBack(style)
}

// Show flushes pending drawing to the display.
func (s *Screen) Show() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.screen.Show()
}

// PollEvent blocks until the next terminal event.
func (s *Screen) PollEvent() tcell.Event {
	return s.screen.PollEvent()
}

// convertStyle converts a core.Style to a tcell.Style.
func convertStyle(s core.Style) tcell.Style {
	style := tcell.StyleDefault

	if !s.Foreground.IsDefault() {
		style = style.Foreground(convertColor(s.Foreground))
	}
	if !s.Background.IsDefault() {
		style = style.Background(convertColor(s.Background))
	}

	if s.Attributes.Has(core.AttrBold) {
		style = style.Bold(true)
	}
	if s.Attributes.Has(core.AttrDim) {
		style = style.Dim(true)
	}
	if s.Attributes.Has(core.AttrItalic) {
		style = style.Italic(true)
	}
	if s.Attributes.Has(core.AttrUnderline) {
		style = style.Underline(true)
	}
	if s.Attributes.Has(core.AttrReverse) {
		style = style.Reverse(true)
	}
	if s.Attributes.Has(core.AttrStrikethrough) {
		style = style.StrikeThrough(true)
	}
	return style
}

func convertColor(c core.Color) tcell.Color {
	if c.Indexed {
		return tcell.PaletteColor(int(c.R))
	}
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}

// convertBack converts a tcell.Style to a core.Style.
func convertBack(ts tcell.Style) core.Style {
	fg, bg, attrs := ts.Decompose()
	s := core.Style{
		Foreground: convertColorBack(fg),
		Background: convertColorBack(bg),
	}
	if attrs&tcell.AttrBold != 0 {
		s.Attributes |= core.AttrBold
	}
	if attrs&tcell.AttrDim != 0 {
		s.Attributes |= core.AttrDim
	}
	if attrs&tcell.AttrItalic != 0 {
		s.Attributes |= core.AttrItalic
	}
	if attrs&tcell.AttrUnderline != 0 {
		s.Attributes |= core.AttrUnderline
	}
	if attrs&tcell.AttrReverse != 0 {
		s.Attributes |= core.AttrReverse
	}
	if attrs&tcell.AttrStrikeThrough != 0 {
		s.Attributes |= core.AttrStrikethrough
	}
	return s
}

func convertColorBack(tc tcell.Color) core.Color {
	if tc == tcell.ColorDefault {
		return core.ColorDefault
	}
	if tc >= tcell.ColorValid && tc < tcell.ColorIsRGB {
		return core.ColorFromIndex(uint8(tc - tcell.ColorValid))
	}
	r, g, b := tc.RGB()
	return core.ColorFromRGB(uint8(r), uint8(g), uint8(b))
}

// Package highlight maps the capture names produced by syntax queries to
// terminal styles through a theme.
package highlight

import (
	"sort"
	"strings"

	"github.com/dshills/treelight/internal/renderer/core"
)

// Theme maps highlight scopes ("keyword", "string.special") to styles.
type Theme struct {
	// Name is the display name of the theme.
	Name string

	// Background is the editor background color.
	Background core.Color

	// Foreground is the default text color.
	Foreground core.Color

	styles map[string]core.Style
}

// NewTheme creates an empty theme with default colors.
func NewTheme(name string) *Theme {
	return &Theme{
		Name:       name,
		Background: core.ColorDefault,
		Foreground: core.ColorDefault,
		styles:     make(map[string]core.Style),
	}
}

// Set assigns the style for a scope.
func (t *Theme) Set(scope string, style core.Style) {
	t.styles[scope] = style
}

// Style resolves a scope to a style. A dotted scope with no exact entry
// falls back to its parent scopes: "keyword.control.import" tries
// "keyword.control", then "keyword". The second return is false when no
// entry matched at any level.
func (t *Theme) Style(scope string) (core.Style, bool) {
	for {
		if style, ok := t.styles[scope]; ok {
			return style, true
		}
		dot := strings.LastIndexByte(scope, '.')
		if dot < 0 {
			return core.DefaultStyle(), false
		}
		scope = scope[:dot]
	}
}

// Scopes returns the scopes with an explicit style, sorted.
func (t *Theme) Scopes() []string {
	scopes := make([]string, 0, len(t.styles))
	for scope := range t.styles {
		scopes = append(scopes, scope)
	}
	sort.Strings(scopes)
	return scopes
}

func rgb(r, g, b uint8) core.Color { return core.ColorFromRGB(r, g, b) }

// DefaultDark returns the built-in dark theme.
func DefaultDark() *Theme {
	t := NewTheme("default-dark")
	t.Background = rgb(30, 30, 30)
	t.Foreground = rgb(212, 212, 212)

	keyword := rgb(86, 156, 214)
	str := rgb(206, 145, 120)
	number := rgb(181, 206, 168)
	comment := rgb(106, 153, 85)
	function := rgb(220, 220, 170)
	typ := rgb(78, 201, 176)
	variable := rgb(156, 220, 254)
	constant := rgb(79, 193, 255)
	operator := rgb(212, 212, 212)

	t.Set("keyword", core.NewStyle(keyword))
	t.Set("keyword.function", core.NewStyle(keyword))
	t.Set("string", core.NewStyle(str))
	t.Set("string.special", core.NewStyle(rgb(215, 186, 125)))
	t.Set("number", core.NewStyle(number))
	t.Set("comment", core.NewStyle(comment).Italic())
	t.Set("function", core.NewStyle(function))
	t.Set("type", core.NewStyle(typ))
	t.Set("variable", core.NewStyle(variable))
	t.Set("constant", core.NewStyle(constant))
	t.Set("constant.builtin", core.NewStyle(keyword))
	t.Set("operator", core.NewStyle(operator))
	t.Set("punctuation", core.NewStyle(operator))
	t.Set("property", core.NewStyle(variable))
	t.Set("search", core.DefaultStyle().WithBackground(rgb(90, 90, 0)))
	return t
}

// DefaultLight returns the built-in light theme.
func DefaultLight() *Theme {
	t := NewTheme("default-light")
	t.Background = rgb(255, 255, 255)
	t.Foreground = rgb(0, 0, 0)

	t.Set("keyword", core.NewStyle(rgb(0, 0, 255)))
	t.Set("string", core.NewStyle(rgb(163, 21, 21)))
	t.Set("number", core.NewStyle(rgb(9, 134, 88)))
	t.Set("comment", core.NewStyle(rgb(0, 128, 0)).Italic())
	t.Set("function", core.NewStyle(rgb(121, 94, 38)))
	t.Set("type", core.NewStyle(rgb(38, 127, 153)))
	t.Set("variable", core.NewStyle(rgb(0, 16, 128)))
	t.Set("constant", core.NewStyle(rgb(0, 112, 193)))
	t.Set("operator", core.NewStyle(rgb(0, 0, 0)))
	t.Set("punctuation", core.NewStyle(rgb(0, 0, 0)))
	t.Set("property", core.NewStyle(rgb(0, 16, 128)))
	t.Set("search", core.DefaultStyle().WithBackground(rgb(255, 235, 140)))
	return t
}

// Registry holds the available themes.
type Registry struct {
	themes map[string]*Theme
}

// NewRegistry creates a registry seeded with the built-in themes.
func NewRegistry() *Registry {
	r := &Registry{themes: make(map[string]*Theme)}
	r.Register(DefaultDark())
	r.Register(DefaultLight())
	return r
}

// Register adds a theme, replacing any theme with the same name.
func (r *Registry) Register(theme *Theme) {
	r.themes[theme.Name] = theme
}

// Get returns a theme by name.
func (r *Registry) Get(name string) (*Theme, bool) {
	t, ok := r.themes[name]
	return t, ok
}

// Names returns all registered theme names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.themes))
	for name := range r.themes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

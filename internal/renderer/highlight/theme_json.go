package highlight

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/dshills/treelight/internal/renderer/core"
)

// LoadTheme parses a JSON theme document:
//
//	{
//	  "name": "mytheme",
//	  "background": "#1e1e1e",
//	  "foreground": "#d4d4d4",
//	  "palette": {"blue": "#569cd6"},
//	  "scopes": {
//	    "keyword": "blue",
//	    "comment": {"fg": "#6a9955", "modifiers": ["italic"]}
//	  }
//	}
//
// A scope value is either a color (palette name or hex) used as the
// foreground, or an object with "fg", "bg", and "modifiers" keys. Colors
// resolve through the palette first, then as hex.
func LoadTheme(data []byte) (*Theme, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New("theme: not valid JSON")
	}
	doc := gjson.ParseBytes(data)

	name := doc.Get("name").String()
	if name == "" {
		return nil, errors.New("theme: missing name")
	}
	theme := NewTheme(name)

	palette := make(map[string]core.Color)
	var loadErr error
	doc.Get("palette").ForEach(func(key, value gjson.Result) bool {
		c, err := core.ColorFromHex(value.String())
		if err != nil {
			loadErr = fmt.Errorf("theme %s: palette entry %s: %w", name, key.String(), err)
			return false
		}
		palette[key.String()] = c
		return true
	})
	if loadErr != nil {
		return nil, loadErr
	}

	resolve := func(s string) (core.Color, error) {
		if c, ok := palette[s]; ok {
			return c, nil
		}
		return core.ColorFromHex(s)
	}

	if bg := doc.Get("background"); bg.Exists() {
		c, err := resolve(bg.String())
		if err != nil {
			return nil, fmt.Errorf("theme %s: background: %w", name, err)
		}
		theme.Background = c
	}
	if fg := doc.Get("foreground"); fg.Exists() {
		c, err := resolve(fg.String())
		if err != nil {
			return nil, fmt.Errorf("theme %s: foreground: %w", name, err)
		}
		theme.Foreground = c
	}

	doc.Get("scopes").ForEach(func(key, value gjson.Result) bool {
		style, err := parseScopeStyle(value, resolve)
		if err != nil {
			loadErr = fmt.Errorf("theme %s: scope %s: %w", name, key.String(), err)
			return false
		}
		theme.Set(key.String(), style)
		return true
	})
	if loadErr != nil {
		return nil, loadErr
	}
	return theme, nil
}

func parseScopeStyle(value gjson.Result, resolve func(string) (core.Color, error)) (core.Style, error) {
	style := core.DefaultStyle()

	if value.Type == gjson.String {
		fg, err := resolve(value.String())
		if err != nil {
			return style, err
		}
		return core.NewStyle(fg), nil
	}

	if fg := value.Get("fg"); fg.Exists() {
		c, err := resolve(fg.String())
		if err != nil {
			return style, err
		}
		style.Foreground = c
	}
	if bg := value.Get("bg"); bg.Exists() {
		c, err := resolve(bg.String())
		if err != nil {
			return style, err
		}
		style.Background = c
	}

	var modErr error
	value.Get("modifiers").ForEach(func(_, mod gjson.Result) bool {
		switch mod.String() {
		case "bold":
			style = style.Bold()
		case "dim":
			style = style.Dim()
		case "italic":
			style = style.Italic()
		case "underlined":
			style = style.Underline()
		case "reversed":
			style = style.Reverse()
		case "crossed_out":
			style = style.Strikethrough()
		default:
			modErr = fmt.Errorf("unknown modifier %q", mod.String())
			return false
		}
		return true
	})
	return style, modErr
}

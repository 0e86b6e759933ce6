package styles

import (
	"maps"
	"slices"

	"github.com/charmbracelet/lipgloss"
)

// Theme is a Base16 palette. Base00-07 run from background to foreground,
// Base08-0F are the accent hues.
type Theme struct {
	Name string

	Base00, Base01, Base02, Base03 lipgloss.Color
	Base04, Base05, Base06, Base07 lipgloss.Color
	Base08, Base09, Base0A, Base0B lipgloss.Color // red, orange, yellow, green
	Base0C, Base0D, Base0E, Base0F lipgloss.Color // cyan, blue, magenta, brown
}

const defaultThemeSlug = "solarized-dark"

// DefaultTheme is used when no theme or an unknown one is configured.
var DefaultTheme = Themes[defaultThemeSlug]

// GetThemeByName returns a theme by its slug, or nil if not found.
func GetThemeByName(name string) *Theme {
	if t, ok := Themes[name]; ok {
		return &t
	}
	return nil
}

// Resolve returns the named theme, falling back to DefaultTheme.
func Resolve(name string) Theme {
	if t := GetThemeByName(name); t != nil {
		return *t
	}
	return DefaultTheme
}

// ListThemes returns the theme slugs in sorted order.
func ListThemes() []string {
	return slices.Sorted(maps.Keys(Themes))
}

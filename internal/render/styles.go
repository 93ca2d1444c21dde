package render

import "slices"

// Glamour's built-in style names
const (
	StyleTokyoNight = "tokyo-night"
	StyleDark       = "dark"
	StyleLight      = "light"
	StyleDracula    = "dracula"
	StylePink       = "pink"
	StyleASCII      = "ascii"
	StyleNoTTY      = "notty"
)

var builtinStyles = []string{
	StyleTokyoNight,
	StyleDark,
	StyleLight,
	StyleDracula,
	StylePink,
	StyleASCII,
	StyleNoTTY,
}

// StyleNames lists the built-in markdown styles
func StyleNames() []string {
	return slices.Clone(builtinStyles)
}

// IsBuiltinStyle reports whether style names a built-in style rather than
// a JSON file
func IsBuiltinStyle(style string) bool {
	return slices.Contains(builtinStyles, style)
}

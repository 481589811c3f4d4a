// Package palette is the static registry of color palettes the visual
// modes cycle through. Palettes are immutable; index 0 is treated as the
// background-like color and the remaining entries as foreground colors.
package palette

import (
	"image/color"
	"strconv"
	"strings"
)

// Palette is an ordered list of colors with a stable id.
type Palette struct {
	ID     string
	Name   string
	Colors []color.RGBA
}

// Pick returns the i-th color, wrapping around the palette length.
func (p Palette) Pick(i int) color.RGBA {
	if len(p.Colors) == 0 {
		return color.RGBA{A: 0xFF}
	}
	if i < 0 {
		i = -i
	}
	return p.Colors[i%len(p.Colors)]
}

// Foreground cycles through the foreground colors (indices 1..len-1) by i.
func (p Palette) Foreground(i int) color.RGBA {
	if len(p.Colors) < 2 {
		return p.Pick(i)
	}
	if i < 0 {
		i = -i
	}
	return p.Colors[1+i%(len(p.Colors)-1)]
}

func pal(id, name string, hex ...string) Palette {
	colors := make([]color.RGBA, len(hex))
	for i, h := range hex {
		colors[i] = ParseHex(h)
	}
	return Palette{ID: id, Name: name, Colors: colors}
}

// ParseHex parses "#RRGGBB" (or "RRGGBB") into an opaque RGBA.
// Malformed input yields opaque black rather than an error; palette data is
// static and per-frame callers must never fail on a color.
func ParseHex(s string) color.RGBA {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return color.RGBA{A: 0xFF}
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{A: 0xFF}
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xFF}
}

// Palettes lists every registered palette. The first entry is the default
// used whenever an id does not resolve.
var Palettes = []Palette{
	pal("blue-ocean", "Blue Ocean", "#001122", "#003366", "#0066CC", "#3399FF", "#66CCFF", "#CCEEFF"),
	pal("blue-deep", "Deep Blue", "#000811", "#001122", "#002244", "#004488", "#0088FF", "#44AAFF"),
	pal("blue-ice", "Ice Blue", "#0A0F14", "#1A2332", "#2A4A66", "#4A8ACC", "#8AC4FF", "#E6F3FF"),
	pal("green-forest", "Forest Green", "#0A1408", "#1A2E0F", "#2A4A1A", "#4A8A2A", "#6ACC3A", "#CCFFAA"),
	pal("green-mint", "Mint Green", "#0A140F", "#1A2E1F", "#2A4A3A", "#4A8A6A", "#6ACC9A", "#CCFFEE"),
	pal("green-lime", "Lime Green", "#141408", "#2E2E0F", "#4A4A1A", "#8A8A2A", "#CCCC3A", "#FFFFAA"),
	pal("red-fire", "Fire Red", "#140808", "#2E0F0F", "#4A1A1A", "#8A2A2A", "#CC3A3A", "#FFAAAA"),
	pal("red-rose", "Rose Red", "#140A0F", "#2E1A1F", "#4A2A3A", "#8A4A6A", "#CC6A9A", "#FFAAEE"),
	pal("red-crimson", "Crimson", "#140808", "#2E0F0F", "#4A1A1A", "#8A2A2A", "#CC3A3A", "#FFAAAA"),
	pal("purple-royal", "Royal Purple", "#140A14", "#2E1A2E", "#4A2A4A", "#8A4A8A", "#CC6ACC", "#FFAAFF"),
	pal("purple-violet", "Violet", "#0F0A14", "#1F1A2E", "#3A2A4A", "#6A4A8A", "#9A6ACC", "#EEAAFF"),
	pal("purple-indigo", "Indigo", "#0A0A14", "#1A1A2E", "#2A2A4A", "#4A4A8A", "#6A6ACC", "#AAAAFF"),
	pal("orange-sunset", "Sunset Orange", "#140A08", "#2E1A0F", "#4A2A1A", "#8A4A2A", "#CC6A3A", "#FFAAAA"),
	pal("orange-amber", "Amber", "#141008", "#2E1F0F", "#4A3A1A", "#8A6A2A", "#CC9A3A", "#FFEEAA"),
	pal("orange-peach", "Peach", "#140F0A", "#2E1F1A", "#4A3A2A", "#8A6A4A", "#CC9A6A", "#FFEEAA"),
	pal("yellow-gold", "Gold", "#141208", "#2E1F0F", "#4A3A1A", "#8A6A2A", "#CC9A3A", "#FFEEAA"),
	pal("yellow-lemon", "Lemon", "#141408", "#2E2E0F", "#4A4A1A", "#8A8A2A", "#CCCC3A", "#FFFFAA"),
	pal("yellow-cream", "Cream", "#14140F", "#2E2E1F", "#4A4A3A", "#8A8A6A", "#CCCC9A", "#FFFFEE"),
	pal("mono-dark", "Dark Mono", "#000000", "#1A1A1A", "#333333", "#4D4D4D", "#666666", "#808080"),
	pal("mono-light", "Light Mono", "#333333", "#4D4D4D", "#666666", "#808080", "#999999", "#CCCCCC"),
	pal("mono-gray", "Gray Scale", "#0A0A0A", "#1A1A1A", "#2A2A2A", "#4A4A4A", "#6A6A6A", "#AAAAAA"),
	pal("cyan-aqua", "Aqua Cyan", "#0A1414", "#1A2E2E", "#2A4A4A", "#4A8A8A", "#6ACCCC", "#AAFFFF"),
	pal("cyan-teal", "Teal", "#0A1412", "#1A2E28", "#2A4A3A", "#4A8A6A", "#6ACC9A", "#AAFFEE"),
	pal("pink-rose", "Rose Pink", "#140A0F", "#2E1A1F", "#4A2A3A", "#8A4A6A", "#CC6A9A", "#FFAAEE"),
	pal("pink-magenta", "Magenta", "#140A14", "#2E1A2E", "#4A2A4A", "#8A4A8A", "#CC6ACC", "#FFAAFF"),
	pal("classic-blue", "Classic Blue", "#000033", "#000066", "#000099", "#0033CC", "#0066FF", "#3399FF"),
	pal("classic-green", "Classic Green", "#003300", "#006600", "#009900", "#00CC00", "#00FF00", "#33FF33"),
	pal("classic-red", "Classic Red", "#330000", "#660000", "#990000", "#CC0000", "#FF0000", "#FF3333"),
}

var byID = func() map[string]Palette {
	m := make(map[string]Palette, len(Palettes))
	for _, p := range Palettes {
		m[p.ID] = p
	}
	return m
}()

// Get resolves a palette id, falling back to the first registered palette
// when the id is unknown.
func Get(id string) Palette {
	if p, ok := byID[id]; ok {
		return p
	}
	return Palettes[0]
}

// Default returns the fallback palette.
func Default() Palette {
	return Palettes[0]
}

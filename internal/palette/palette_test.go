package palette

import (
	"image/color"
	"testing"
)

func TestParseHex(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want color.RGBA
	}{
		{"with hash", "#3399FF", color.RGBA{R: 0x33, G: 0x99, B: 0xFF, A: 0xFF}},
		{"without hash", "07140e", color.RGBA{R: 0x07, G: 0x14, B: 0x0E, A: 0xFF}},
		{"malformed", "not-a-color", color.RGBA{A: 0xFF}},
		{"too short", "#123", color.RGBA{A: 0xFF}},
		{"empty", "", color.RGBA{A: 0xFF}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseHex(tt.in); got != tt.want {
				t.Errorf("ParseHex(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestGetFallsBackToDefault(t *testing.T) {
	p := Get("no-such-palette")
	if p.ID != Palettes[0].ID {
		t.Errorf("unknown id resolved to %q, want default %q", p.ID, Palettes[0].ID)
	}

	known := Get("green-forest")
	if known.ID != "green-forest" {
		t.Errorf("known id resolved to %q", known.ID)
	}
}

func TestForegroundSkipsBackground(t *testing.T) {
	p := Get("blue-ocean")
	n := len(p.Colors)
	for i := 0; i < 3*n; i++ {
		c := p.Foreground(i)
		if c == p.Colors[0] {
			t.Fatalf("Foreground(%d) returned the background color", i)
		}
	}
	// Cycle wraps: index n-1 foregrounds repeat.
	if p.Foreground(0) != p.Foreground(n-1) {
		t.Error("foreground cycle does not wrap over the foreground count")
	}
}

func TestPickWraps(t *testing.T) {
	p := Get("blue-ocean")
	n := len(p.Colors)
	if p.Pick(0) != p.Pick(n) {
		t.Error("Pick does not wrap at the palette length")
	}
}

func TestAllPalettesUsable(t *testing.T) {
	seen := make(map[string]bool)
	for _, p := range Palettes {
		if p.ID == "" {
			t.Error("palette with empty id")
		}
		if seen[p.ID] {
			t.Errorf("duplicate palette id %q", p.ID)
		}
		seen[p.ID] = true
		if len(p.Colors) < 2 {
			t.Errorf("palette %q has %d colors, need at least 2", p.ID, len(p.Colors))
		}
		for i, c := range p.Colors {
			if c.A != 0xFF {
				t.Errorf("palette %q color %d is not opaque", p.ID, i)
			}
		}
	}
}

package render

import (
	"math/rand"
	"testing"

	"github.com/vixalabs/vixa/internal/palette"
	"github.com/vixalabs/vixa/internal/store"
	"github.com/vixalabs/vixa/internal/types"
)

// diffPixels counts pixels where the two frames disagree on any channel.
func diffPixels(t *testing.T, a, b []uint8) int {
	t.Helper()
	if len(a) != len(b) {
		t.Fatalf("frame sizes differ: %d vs %d", len(a), len(b))
	}
	var n int
	for i := 0; i < len(a); i += 4 {
		if a[i] != b[i] || a[i+1] != b[i+1] || a[i+2] != b[i+2] || a[i+3] != b[i+3] {
			n++
		}
	}
	return n
}

// A rising spectrum is maximally asymmetric input, so any left/right
// asymmetry in the mirrored bands shows up as mismatched pixel pairs.
func TestMirrorEQLeftRightSymmetric(t *testing.T) {
	audio := loudAudio()
	st := store.Empty()
	addLayer(st, types.ModeMirrorEQ)

	const w, h = 320, 180
	frame := New(w, h, 60, st, audio).RenderFrame()

	for y := 0; y < h; y++ {
		for x := 0; x < w/2; x++ {
			li := frame.PixOffset(x, y)
			ri := frame.PixOffset(w-1-x, y)
			for c := 0; c < 4; c++ {
				if frame.Pix[li+c] != frame.Pix[ri+c] {
					t.Fatalf("pixel (%d,%d) is not the mirror of (%d,%d)", x, y, w-1-x, y)
				}
			}
		}
	}

	base := New(w, h, 60, store.Empty(), audio).RenderFrame()
	if diffPixels(t, base.Pix, frame.Pix) == 0 {
		t.Fatal("mirrored bands drew nothing with a loud spectrum")
	}
}

// Sectors are filled from the center out, so a loud spectrum must cover a
// solid disc rather than a sparse set of stroked lines.
func TestRadialFillsSectors(t *testing.T) {
	audio := loudAudio()
	st := store.Empty()
	addLayer(st, types.ModeRadial)

	base := New(320, 180, 60, store.Empty(), audio).RenderFrame()
	frame := New(320, 180, 60, st, audio).RenderFrame()

	if n := diffPixels(t, base.Pix, frame.Pix); n < 2000 {
		t.Errorf("radial sectors covered %d pixels, want a filled disc (>= 2000)", n)
	}
}

// At 512px wide the bar slots are exactly 4px, so the 1px gutter between
// bars lands on integer columns and must stay background-colored.
func TestBarsLeaveGutterColumns(t *testing.T) {
	freq := make([]byte, 512)
	wave := make([]byte, 1024)
	for i := range freq {
		freq[i] = 255
	}
	for i := range wave {
		wave[i] = 128
	}
	audio := &stubAudio{frame: types.AudioFrame{Freq: freq, Wave: wave, RMS: 0.9}}

	st := store.Empty()
	addLayer(st, types.ModeBars)

	const w, h = 512, 180
	base := New(w, h, 60, store.Empty(), audio).RenderFrame()
	frame := New(w, h, 60, st, audio).RenderFrame()

	const y = 120 // inside every bar: full bars span 0.6h from the bottom
	for _, x := range []int{3, 7, 255, 511} {
		i := frame.PixOffset(x, y)
		for c := 0; c < 4; c++ {
			if frame.Pix[i+c] != base.Pix[i+c] {
				t.Fatalf("gutter column %d was painted over", x)
			}
		}
	}
	bar := frame.PixOffset(1, y)
	bg := base.PixOffset(1, y)
	if frame.Pix[bar] == base.Pix[bg] && frame.Pix[bar+1] == base.Pix[bg+1] && frame.Pix[bar+2] == base.Pix[bg+2] {
		t.Fatal("bar column 1 matches the background")
	}
}

func TestWaveformStrokeColor(t *testing.T) {
	audio := silentAudio() // flat line through the vertical center
	st := store.Empty()
	addLayer(st, types.ModeWaveform)

	const w, h = 256, 256
	frame := New(w, h, 60, st, audio).RenderFrame()

	want := palette.Get("blue-ocean").Pick(2)
	i := frame.PixOffset(w/2, h/2)
	if frame.Pix[i] != want.R || frame.Pix[i+1] != want.G || frame.Pix[i+2] != want.B {
		t.Errorf("waveform stroke = #%02X%02X%02X, want #%02X%02X%02X",
			frame.Pix[i], frame.Pix[i+1], frame.Pix[i+2], want.R, want.G, want.B)
	}
}

// The phase-shifted Y index wraps modulo the window, so the trailing quarter
// of samples still produces points instead of being cut off.
func TestLissajousWrapsPhaseShift(t *testing.T) {
	freq := make([]byte, 512)
	wave := make([]byte, 1024)
	for i := range wave {
		if i < 256 {
			wave[i] = 255
		} else {
			wave[i] = 128
		}
	}
	audio := &stubAudio{frame: types.AudioFrame{Freq: freq, Wave: wave, RMS: 0.5}}

	st := store.Empty()
	addLayer(st, types.ModeLissajous)

	const w, h = 200, 200
	base := New(w, h, 60, store.Empty(), audio).RenderFrame()
	frame := New(w, h, 60, st, audio).RenderFrame()

	// Only the wrapped trailing samples land below the center: x stays at
	// the midline while y swings down by the full scale.
	found := false
	for y := 148; y <= 164 && !found; y++ {
		for x := 92; x <= 108; x++ {
			i := frame.PixOffset(x, y)
			if frame.Pix[i] != base.Pix[i] || frame.Pix[i+1] != base.Pix[i+1] || frame.Pix[i+2] != base.Pix[i+2] {
				found = true
				break
			}
		}
	}
	if !found {
		t.Error("no trace below the center line; trailing quarter of the window was dropped")
	}
}

func TestSnakeCellsNeverRepeat(t *testing.T) {
	frame := loudAudio().frame
	frame.RMS = 0.9

	for _, tsec := range []float64{0, 0.73, 1.37, 4.2, 9.81} {
		e := &drawEnv{
			w:       320,
			h:       180,
			t:       tsec,
			rng:     rand.New(rand.NewSource(7)),
			audio:   &frame,
			pal:     palette.Default(),
			opacity: 1,
		}
		const cols, rows = 10, 6
		cells := snakeCells(e, cols, rows)
		if len(cells) == 0 {
			t.Fatalf("t=%v: no cells picked with a loud frame", tsec)
		}
		seen := make(map[int]bool, len(cells))
		for _, c := range cells {
			key := c.row*cols + c.col
			if seen[key] {
				t.Fatalf("t=%v: cell (%d,%d) picked twice", tsec, c.col, c.row)
			}
			seen[key] = true
		}
	}
}

// Coverage of the smoke field is uniform per frame: bass picks one alpha
// for the whole field and only the color blend follows the noise.
func TestSmokeAlphaUniformPerFrame(t *testing.T) {
	freq := make([]byte, 512)
	freq[2] = 128
	audio := &types.AudioFrame{Freq: freq, Wave: make([]byte, 1024)}

	c := newSmokeCache(320, 180)
	c.recompute(audio, palette.Get("blue-ocean"), 1.0)

	density := 0.55 + 0.45*float64(128)/255
	want := uint8(density * 255)
	for i := 3; i < len(c.img.Pix); i += 4 {
		if c.img.Pix[i] != want {
			t.Fatalf("alpha at byte %d = %d, want uniform %d", i, c.img.Pix[i], want)
		}
	}
}

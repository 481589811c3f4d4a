package render

import (
	"image"
	"math"

	xdraw "golang.org/x/image/draw"
	"github.com/vixalabs/vixa/internal/palette"
	"github.com/vixalabs/vixa/internal/types"
)

// smokeCache is the per-layer backing store for the smoke mode: a
// quarter-resolution noise field that is recomputed every other frame and
// upscaled every frame. Caches are keyed by layer id in the compositor and
// dropped when the layer goes away.
type smokeCache struct {
	w, h int
	img  *image.RGBA // premultiplied, full alpha math done at low res
	up   *image.RGBA // full-resolution upscale target
}

// smokeRes picks the low-res field size: a quarter of the surface, never
// below 160x90 so small surfaces still get a usable field.
func smokeRes(w, h int) (int, int) {
	lw := w / 4
	lh := h / 4
	if lw < 160 {
		lw = 160
	}
	if lh < 90 {
		lh = 90
	}
	return lw, lh
}

func newSmokeCache(w, h int) *smokeCache {
	lw, lh := smokeRes(w, h)
	return &smokeCache{
		w:   lw,
		h:   lh,
		img: image.NewRGBA(image.Rect(0, 0, lw, lh)),
		up:  image.NewRGBA(image.Rect(0, 0, w, h)),
	}
}

// hash21 is the classic sine-fract hash over a 2D lattice point.
func hash21(x, y, seed float64) float64 {
	v := math.Sin(127.1*x+311.7*y+seed) * 43758.5453
	return v - math.Floor(v)
}

// valueNoise is smoothstep-interpolated lattice noise.
func valueNoise(x, y, seed float64) float64 {
	xi, yi := math.Floor(x), math.Floor(y)
	xf, yf := x-xi, y-yi
	ux := xf * xf * (3 - 2*xf)
	uy := yf * yf * (3 - 2*yf)

	a := hash21(xi, yi, seed)
	b := hash21(xi+1, yi, seed)
	c := hash21(xi, yi+1, seed)
	d := hash21(xi+1, yi+1, seed)

	top := a + (b-a)*ux
	bot := c + (d-c)*ux
	return top + (bot-top)*uy
}

// fbm sums three octaves of value noise.
func fbm(x, y, seed float64) float64 {
	var sum float64
	amp := 0.5
	freq := 1.0
	for i := 0; i < 3; i++ {
		sum += amp * valueNoise(x*freq, y*freq, seed)
		amp *= 0.5
		freq *= 2
	}
	return sum
}

// recompute fills the low-res field from the current audio frame. The three
// sampled bins track bass body, mid detail and high-frequency swirl.
func (s *smokeCache) recompute(audio *types.AudioFrame, pal palette.Palette, t float64) {
	freqAt := func(i int) float64 {
		if i >= len(audio.Freq) {
			return 0
		}
		return float64(audio.Freq[i]) / 255
	}
	bass := freqAt(2)
	mids := freqAt(32)
	highs := freqAt(96)

	density := 0.55 + 0.45*bass
	baseScale := 0.008 + 0.004*mids
	flow := t * (0.5 + 1.2*bass)
	swirlX := 0.8 + 1.2*highs
	swirlY := 0.6 + 1.0*highs
	seed := math.Sin(0.15*t) * 10000

	c1 := pal.Pick(1)
	c2 := pal.Pick(3)

	// Alpha is uniform across the field; only the color blend follows the
	// noise. Bass drives coverage for the whole frame at once.
	alpha := uint8(density * 255)

	// Noise coordinates live in full-resolution space so the pattern scale
	// does not depend on the cache resolution.
	sx := float64(s.up.Rect.Dx()) / float64(s.w)
	sy := float64(s.up.Rect.Dy()) / float64(s.h)

	for py := 0; py < s.h; py++ {
		y := float64(py) * sy
		row := s.img.Pix[py*s.img.Stride:]
		for px := 0; px < s.w; px++ {
			x := float64(px) * sx

			yy := y + math.Cos((y+60*flow)*0.01)*8*swirlY
			xx := x + math.Sin((x-50*flow)*0.01)*10*swirlX

			v := fbm(xx*baseScale, yy*baseScale, seed)
			v = math.Pow(v, 1.35) * (0.7 + 0.5*mids)
			if v < 0 {
				v = 0
			} else if v > 1 {
				v = 1
			}

			r := float64(c1.R) + (float64(c2.R)-float64(c1.R))*v
			g := float64(c1.G) + (float64(c2.G)-float64(c1.G))*v
			b := float64(c1.B) + (float64(c2.B)-float64(c1.B))*v

			i := px * 4
			row[i] = uint8(r * density)
			row[i+1] = uint8(g * density)
			row[i+2] = uint8(b * density)
			row[i+3] = alpha
		}
	}
}

// render produces the full-resolution premultiplied layer image: bilinear
// upscale of the cached field, softened with a small blur, with the layer
// opacity folded into every channel.
func (s *smokeCache) render(opacity float64) *image.RGBA {
	xdraw.BiLinear.Scale(s.up, s.up.Rect, s.img, s.img.Rect, xdraw.Src, nil)
	boxBlur(s.up, 2)
	if opacity < 1 {
		for i, p := range s.up.Pix {
			s.up.Pix[i] = uint8(float64(p) * opacity)
		}
	}
	return s.up
}

// boxBlur applies a separable box blur of the given radius in place.
func boxBlur(img *image.RGBA, radius int) {
	if radius <= 0 {
		return
	}
	w := img.Rect.Dx()
	h := img.Rect.Dy()
	tmp := make([]uint8, len(img.Pix))
	win := 2*radius + 1

	// Horizontal pass into tmp.
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride:]
		out := tmp[y*img.Stride:]
		for x := 0; x < w; x++ {
			var sum [4]int
			for k := -radius; k <= radius; k++ {
				xx := x + k
				if xx < 0 {
					xx = 0
				} else if xx >= w {
					xx = w - 1
				}
				for c := 0; c < 4; c++ {
					sum[c] += int(row[xx*4+c])
				}
			}
			for c := 0; c < 4; c++ {
				out[x*4+c] = uint8(sum[c] / win)
			}
		}
	}

	// Vertical pass back into the image.
	for y := 0; y < h; y++ {
		out := img.Pix[y*img.Stride:]
		for x := 0; x < w; x++ {
			var sum [4]int
			for k := -radius; k <= radius; k++ {
				yy := y + k
				if yy < 0 {
					yy = 0
				} else if yy >= h {
					yy = h - 1
				}
				for c := 0; c < 4; c++ {
					sum[c] += int(tmp[yy*img.Stride+x*4+c])
				}
			}
			for c := 0; c < 4; c++ {
				out[x*4+c] = uint8(sum[c] / win)
			}
		}
	}
}

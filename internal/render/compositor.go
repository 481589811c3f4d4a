// Package render turns audio analysis frames and session state into
// composited RGBA video frames: one draw pass per layer, blended bottom to
// top over the background, with the logo painted last.
package render

import (
	"image"
	"math/rand"
	"sync"
	"time"

	"github.com/fogleman/gg"
	xdraw "golang.org/x/image/draw"
	"github.com/vixalabs/vixa/internal/frameloop"
	"github.com/vixalabs/vixa/internal/logger"
	"github.com/vixalabs/vixa/internal/palette"
	"github.com/vixalabs/vixa/internal/store"
	"github.com/vixalabs/vixa/internal/types"
)

// AudioSource supplies the most recent analysis frame.
type AudioSource interface {
	Data() *types.AudioFrame
}

// Compositor renders the session to a fixed-size RGBA surface at a fixed
// cadence. All exported methods are safe for concurrent use.
type Compositor struct {
	w, h  int
	store *store.Store
	audio AudioSource

	mu      sync.Mutex
	main    *image.RGBA
	scratch *image.RGBA
	gc      *gg.Context
	smoke   map[string]*smokeCache
	rng     *rand.Rand
	start   time.Time
	frame   uint64
	paused  bool

	onFrame []func(*image.RGBA)

	bgSrc    image.Image
	bgFit    types.FitMode
	bgScaled *image.RGBA

	logoSrc    image.Image
	logoW      int
	logoScaled *image.RGBA

	loop *frameloop.Loop
}

// New creates a compositor for the given surface size and frame rate.
func New(w, h, fps int, st *store.Store, audio AudioSource) *Compositor {
	if fps <= 0 {
		fps = 60
	}
	scratch := image.NewRGBA(image.Rect(0, 0, w, h))
	c := &Compositor{
		w:       w,
		h:       h,
		store:   st,
		audio:   audio,
		main:    image.NewRGBA(image.Rect(0, 0, w, h)),
		scratch: scratch,
		gc:      gg.NewContextForRGBA(scratch),
		smoke:   make(map[string]*smokeCache),
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		start:   time.Now(),
	}
	c.loop = frameloop.New(time.Second/time.Duration(fps), c.tick)
	return c
}

// Start begins the render loop. Idempotent.
func (c *Compositor) Start() {
	c.loop.Start()
	logger.Infof("Render loop started at %dx%d", c.w, c.h)
}

// Stop halts the render loop. Idempotent.
func (c *Compositor) Stop() {
	c.loop.Stop()
}

// Pause freezes the surface on its last rendered frame; the loop keeps
// ticking so Resume picks up without restart cost.
func (c *Compositor) Pause() {
	c.mu.Lock()
	c.paused = true
	c.mu.Unlock()
}

// Resume continues rendering after Pause.
func (c *Compositor) Resume() {
	c.mu.Lock()
	c.paused = false
	c.mu.Unlock()
}

// OnFrame registers a callback invoked with the surface after every
// rendered frame. The image is owned by the compositor; callbacks copy what
// they keep and return quickly.
func (c *Compositor) OnFrame(fn func(*image.RGBA)) {
	c.mu.Lock()
	c.onFrame = append(c.onFrame, fn)
	c.mu.Unlock()
}

// Snapshot returns a copy of the last rendered frame.
func (c *Compositor) Snapshot() *image.RGBA {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := image.NewRGBA(c.main.Rect)
	copy(out.Pix, c.main.Pix)
	return out
}

// Size returns the surface dimensions.
func (c *Compositor) Size() (int, int) {
	return c.w, c.h
}

func (c *Compositor) tick() {
	c.mu.Lock()
	if c.paused {
		c.mu.Unlock()
		return
	}
	c.renderLocked()
	callbacks := c.onFrame
	frame := c.main
	c.mu.Unlock()

	for _, fn := range callbacks {
		fn(frame)
	}
}

// RenderFrame renders a single frame synchronously, outside the loop.
func (c *Compositor) RenderFrame() *image.RGBA {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.renderLocked()
	out := image.NewRGBA(c.main.Rect)
	copy(out.Pix, c.main.Pix)
	return out
}

func (c *Compositor) renderLocked() {
	snap := c.store.Snapshot()
	audio := c.audio.Data()
	t := time.Since(c.start).Seconds()
	c.frame++

	// 1. Background fill.
	bg := palette.ParseHex(snap.Background.Color)
	if snap.Background.Color == "" {
		bg = palette.Default().Pick(0)
	}
	for i := 0; i < len(c.main.Pix); i += 4 {
		c.main.Pix[i] = bg.R
		c.main.Pix[i+1] = bg.G
		c.main.Pix[i+2] = bg.B
		c.main.Pix[i+3] = 0xFF
	}

	// 2. Background image, scaled by fit mode, at its own opacity.
	if snap.Background.Image != nil {
		c.drawBackgroundImage(snap.Background)
	}

	// 3. Layers, bottom to top.
	for _, layer := range snap.Layers {
		if !layer.Visible || layer.Opacity <= 0 {
			continue
		}
		pal := palette.Get(layer.PaletteID)
		opacity := layer.Opacity
		if opacity > 1 {
			opacity = 1
		}

		var src *image.RGBA
		if layer.Mode == types.ModeSmoke {
			cache, ok := c.smoke[layer.ID]
			if !ok {
				cache = newSmokeCache(c.w, c.h)
				c.smoke[layer.ID] = cache
			}
			// The noise field only moves on even frames; the upscale and
			// composite still run every frame so opacity edits stay live.
			if !ok || c.frame%2 == 0 {
				cache.recompute(audio, pal, t)
			}
			src = cache.render(opacity)
		} else {
			fn, ok := modeFuncs[layer.Mode]
			if !ok {
				continue
			}
			clearRGBA(c.scratch)
			fn(&drawEnv{
				gc:      c.gc,
				w:       c.w,
				h:       c.h,
				t:       t,
				frame:   c.frame,
				rng:     c.rng,
				audio:   audio,
				pal:     pal,
				opacity: opacity,
			})
			src = c.scratch
		}
		compositeLayer(c.main, src, layer.Blend, layer.Mirrored, layer.MirroredVertical)
	}

	// Drop smoke caches for layers that no longer exist.
	if len(c.smoke) > 0 {
		live := make(map[string]bool, len(snap.Layers))
		for _, l := range snap.Layers {
			live[l.ID] = true
		}
		for id := range c.smoke {
			if !live[id] {
				delete(c.smoke, id)
			}
		}
	}

	// 4. Logo, always in normal composite on top of everything.
	if snap.Logo.Image != nil && snap.Logo.Opacity > 0 {
		c.drawLogo(snap.Logo)
	}
}

func (c *Compositor) drawBackgroundImage(bg types.BackgroundState) {
	if c.bgScaled == nil || c.bgSrc != bg.Image || c.bgFit != bg.Fit {
		c.bgSrc = bg.Image
		c.bgFit = bg.Fit
		c.bgScaled = image.NewRGBA(image.Rect(0, 0, c.w, c.h))
		clearRGBA(c.bgScaled)

		ib := bg.Image.Bounds()
		iw, ih := float64(ib.Dx()), float64(ib.Dy())
		if iw <= 0 || ih <= 0 {
			return
		}
		var tw, th float64
		switch bg.Fit {
		case types.FitStretch:
			tw, th = float64(c.w), float64(c.h)
		case types.FitContain:
			s := min2(float64(c.w)/iw, float64(c.h)/ih)
			tw, th = iw*s, ih*s
		default: // cover
			s := max2(float64(c.w)/iw, float64(c.h)/ih)
			tw, th = iw*s, ih*s
		}
		ox := (float64(c.w) - tw) / 2
		oy := (float64(c.h) - th) / 2
		dst := image.Rect(int(ox), int(oy), int(ox+tw), int(oy+th))
		xdraw.BiLinear.Scale(c.bgScaled, dst, bg.Image, ib, xdraw.Src, nil)
	}

	opacity := clamp01(bg.Opacity)
	overlayAt(c.main, c.bgScaled, 0, 0, opacity)
}

func (c *Compositor) drawLogo(logo types.LogoState) {
	scale := logo.Scale
	if scale < 0.1 {
		scale = 0.1
	} else if scale > 2 {
		scale = 2
	}
	iw := int(min2(float64(c.w), float64(c.h)) * 0.25 * scale)
	if iw < 1 {
		return
	}
	ib := logo.Image.Bounds()
	if ib.Dx() <= 0 || ib.Dy() <= 0 {
		return
	}
	ih := iw * ib.Dy() / ib.Dx()
	if ih < 1 {
		ih = 1
	}

	if c.logoScaled == nil || c.logoSrc != logo.Image || c.logoW != iw {
		c.logoSrc = logo.Image
		c.logoW = iw
		c.logoScaled = image.NewRGBA(image.Rect(0, 0, iw, ih))
		xdraw.BiLinear.Scale(c.logoScaled, c.logoScaled.Rect, logo.Image, ib, xdraw.Src, nil)
	}

	x := int(clamp01(logo.X) * float64(c.w-iw))
	y := int(clamp01(logo.Y) * float64(c.h-ih))
	overlayAt(c.main, c.logoScaled, x, y, clamp01(logo.Opacity))
}

// overlayAt source-over composites src onto dst at the given offset, with
// an extra opacity multiplier. src is premultiplied RGBA.
func overlayAt(dst, src *image.RGBA, ox, oy int, opacity float64) {
	if opacity <= 0 {
		return
	}
	sw, sh := src.Rect.Dx(), src.Rect.Dy()
	dw, dh := dst.Rect.Dx(), dst.Rect.Dy()
	for y := 0; y < sh; y++ {
		dy := oy + y
		if dy < 0 || dy >= dh {
			continue
		}
		srow := src.Pix[y*src.Stride:]
		drow := dst.Pix[dy*dst.Stride:]
		for x := 0; x < sw; x++ {
			dx := ox + x
			if dx < 0 || dx >= dw {
				continue
			}
			si := x * 4
			a := uint32(float64(srow[si+3]) * opacity)
			if a == 0 {
				continue
			}
			di := dx * 4
			sr := uint32(float64(srow[si]) * opacity)
			sg := uint32(float64(srow[si+1]) * opacity)
			sb := uint32(float64(srow[si+2]) * opacity)
			drow[di] = uint8(sr + uint32(drow[di])*(255-a)/255)
			drow[di+1] = uint8(sg + uint32(drow[di+1])*(255-a)/255)
			drow[di+2] = uint8(sb + uint32(drow[di+2])*(255-a)/255)
			drow[di+3] = 0xFF
		}
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func min2(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func max2(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

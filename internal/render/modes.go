package render

import (
	"image/color"
	"math"
	"math/rand"

	"github.com/fogleman/gg"
	"github.com/vixalabs/vixa/internal/palette"
	"github.com/vixalabs/vixa/internal/types"
)

// drawEnv carries everything a mode needs for one frame of one layer.
type drawEnv struct {
	gc      *gg.Context
	w, h    int
	t       float64 // seconds since the compositor started
	frame   uint64
	rng     *rand.Rand
	audio   *types.AudioFrame
	pal     palette.Palette
	opacity float64
}

type drawFunc func(*drawEnv)

// modeFuncs maps each vector mode to its draw routine. Smoke is handled
// separately because it keeps per-layer pixel caches.
var modeFuncs = map[types.VisualMode]drawFunc{
	types.ModeBars:      drawBars,
	types.ModeWaveform:  drawWaveform,
	types.ModeRadial:    drawRadial,
	types.ModeMirrorEQ:  drawMirrorEQ,
	types.ModePeakBars:  drawPeakBars,
	types.ModeSparkline: drawSparkline,
	types.ModeRings:     drawRings,
	types.ModeLissajous: drawLissajous,
	types.ModeGrid:      drawGrid,
	types.ModeSnake:     drawSnake,
	types.ModeRadar:     drawRadar,
	types.ModeCityEQ:    drawCityEQ,
	types.ModeLEDMatrix: drawLEDMatrix,
	types.ModeBlob:      drawBlob,
}

// freqAt returns the normalized magnitude of bin i; out-of-range reads are
// silent rather than a panic.
func (e *drawEnv) freqAt(i int) float64 {
	if i < 0 || i >= len(e.audio.Freq) {
		return 0
	}
	return float64(e.audio.Freq[i]) / 255
}

// waveAt returns the time-domain sample i in -1..1; out-of-range reads are
// the center line.
func (e *drawEnv) waveAt(i int) float64 {
	if i < 0 || i >= len(e.audio.Wave) {
		return 0
	}
	return (float64(e.audio.Wave[i]) - 128) / 128
}

// band samples the spectrum for slot i of count, spreading slots evenly
// across the available bins.
func (e *drawEnv) band(i, count int) float64 {
	if count <= 0 {
		return 0
	}
	return e.freqAt(i * len(e.audio.Freq) / count)
}

// aspectPick chooses a per-mode density constant by surface aspect ratio:
// wide (>1.5), tall (<0.8) or roughly square.
func (e *drawEnv) aspectPick(wide, tall, square float64) float64 {
	aspect := float64(e.w) / float64(e.h)
	switch {
	case aspect > 1.5:
		return wide
	case aspect < 0.8:
		return tall
	default:
		return square
	}
}

func (e *drawEnv) minDim() float64 {
	return math.Min(float64(e.w), float64(e.h))
}

// setColor applies a palette color with an explicit alpha on the scratch.
func (e *drawEnv) setColor(c color.RGBA, alpha float64) {
	if alpha < 0 {
		alpha = 0
	} else if alpha > 1 {
		alpha = 1
	}
	e.gc.SetRGBA(float64(c.R)/255, float64(c.G)/255, float64(c.B)/255, alpha)
}

// barWidth is the painted width of one bar slot: the slot minus a 1px
// gutter, floored so very dense layouts stay visible.
func barWidth(colW float64) float64 {
	bw := colW - 1
	if bw < 1 {
		bw = 1
	}
	return bw
}

func drawBars(e *drawEnv) {
	count := int(e.aspectPick(128, 64, 96))
	colW := float64(e.w) / float64(count)
	maxH := 0.6 * float64(e.h)
	for i := 0; i < count; i++ {
		v := e.band(i, count)
		if v <= 0 {
			continue
		}
		bh := v * maxH
		e.setColor(e.pal.Foreground(i), e.opacity)
		e.gc.DrawRectangle(float64(i)*colW, float64(e.h)-bh, barWidth(colW), bh)
		e.gc.Fill()
	}
}

func drawWaveform(e *drawEnv) {
	mid := float64(e.h) / 2
	amp := 0.4 * float64(e.h)
	n := len(e.audio.Wave)
	if n < 2 {
		return
	}
	e.setColor(e.pal.Pick(2), e.opacity)
	e.gc.SetLineWidth(e.aspectPick(3, 1.5, 2))
	for i := 0; i < n; i++ {
		x := float64(i) / float64(n-1) * float64(e.w)
		y := mid + e.waveAt(i)*amp
		if i == 0 {
			e.gc.MoveTo(x, y)
		} else {
			e.gc.LineTo(x, y)
		}
	}
	e.gc.Stroke()
}

func drawRadial(e *drawEnv) {
	count := int(e.aspectPick(160, 80, 120))
	base := e.aspectPick(0.25, 0.45, 0.35) * e.minDim()
	cx, cy := float64(e.w)/2, float64(e.h)/2
	for i := 0; i < count; i++ {
		v := e.band(i, count)
		a0 := float64(i) / float64(count) * 2 * math.Pi
		a1 := float64(i+1) / float64(count) * 2 * math.Pi
		r := base * (0.4 + 0.9*v)
		e.setColor(e.pal.Foreground(i), e.opacity)
		e.gc.MoveTo(cx, cy)
		e.gc.DrawArc(cx, cy, r, a0, a1)
		e.gc.ClosePath()
		e.gc.Fill()
	}
}

func drawMirrorEQ(e *drawEnv) {
	count := int(e.aspectPick(80, 40, 64))
	cx := float64(e.w) / 2
	colW := cx / float64(count)
	mid := float64(e.h) / 2
	maxH := 0.45 * float64(e.h)
	bw := barWidth(colW)
	for i := 0; i < count; i++ {
		v := e.band(i, count)
		if v <= 0 {
			continue
		}
		bh := v * maxH
		e.setColor(e.pal.Foreground(i), e.opacity)
		// Each band once per side, reflected about the vertical center line.
		e.gc.DrawRectangle(cx+float64(i)*colW, mid-bh, bw, bh*2)
		e.gc.DrawRectangle(cx-float64(i)*colW-bw, mid-bh, bw, bh*2)
		e.gc.Fill()
	}
}

func drawPeakBars(e *drawEnv) {
	count := int(e.aspectPick(128, 64, 96))
	colW := float64(e.w) / float64(count)
	maxH := 0.6 * float64(e.h)
	bins := len(e.audio.Freq)
	for i := 0; i < count; i++ {
		// Peak of the slice of bins this bar covers, not a single sample.
		lo := i * bins / count
		hi := (i + 1) * bins / count
		var peak float64
		for k := lo; k < hi; k++ {
			if v := e.freqAt(k); v > peak {
				peak = v
			}
		}
		if peak <= 0 {
			continue
		}
		bh := peak * maxH
		e.setColor(e.pal.Foreground(i), e.opacity)
		e.gc.DrawRectangle(float64(i)*colW, float64(e.h)-bh, barWidth(colW), bh)
		e.gc.Fill()
	}
}

func drawSparkline(e *drawEnv) {
	bw := math.Min(240, 0.3*float64(e.w))
	bh := math.Min(80, 0.2*float64(e.h))
	const inset = 12.0
	alpha := e.opacity * 0.9

	e.setColor(e.pal.Pick(2), alpha)
	e.gc.SetLineWidth(1)
	e.gc.DrawRectangle(inset, inset, bw, bh)
	e.gc.Stroke()

	n := len(e.audio.Wave)
	if n < 2 {
		return
	}
	e.setColor(e.pal.Pick(2), alpha)
	e.gc.SetLineWidth(1.5)
	for i := 0; i < n; i++ {
		x := inset + float64(i)/float64(n-1)*bw
		y := inset + bh/2 + e.waveAt(i)*bh/2
		if i == 0 {
			e.gc.MoveTo(x, y)
		} else {
			e.gc.LineTo(x, y)
		}
	}
	e.gc.Stroke()
}

func drawRings(e *drawEnv) {
	count := int(e.aspectPick(8, 4, 6))
	cx, cy := float64(e.w)/2, float64(e.h)/2
	step := 0.12 * e.minDim()
	e.gc.SetLineWidth(2)
	for i := 0; i < count; i++ {
		v := e.band(i, count)
		r := step * float64(i+1) * (0.8 + 0.6*v)
		e.setColor(e.pal.Pick(1+i), e.opacity)
		e.gc.DrawCircle(cx, cy, r)
		e.gc.Stroke()
	}
}

func drawLissajous(e *drawEnv) {
	n := len(e.audio.Wave)
	if n < 4 {
		return
	}
	cx, cy := float64(e.w)/2, float64(e.h)/2
	scale := e.aspectPick(0.25, 0.45, 0.35) * e.minDim() * 0.8
	quarter := n / 4

	e.setColor(e.pal.Pick(2), e.opacity*0.85)
	e.gc.SetLineWidth(1.5)
	for i := 0; i < n; i++ {
		x := cx + e.waveAt(i)*scale
		y := cy + e.waveAt((i+quarter)%n)*scale
		if i == 0 {
			e.gc.MoveTo(x, y)
		} else {
			e.gc.LineTo(x, y)
		}
	}
	e.gc.Stroke()
}

func drawGrid(e *drawEnv) {
	const cell = 24.0
	cols := int(math.Ceil(float64(e.w) / cell))
	rows := int(math.Ceil(float64(e.h) / cell))
	palLen := len(e.pal.Colors)

	// Faint grid lines regardless of level.
	e.setColor(e.pal.Pick(0), e.opacity*0.1)
	e.gc.SetLineWidth(1)
	for c := 0; c <= cols; c++ {
		e.gc.MoveTo(float64(c)*cell, 0)
		e.gc.LineTo(float64(c)*cell, float64(e.h))
	}
	for r := 0; r <= rows; r++ {
		e.gc.MoveTo(0, float64(r)*cell)
		e.gc.LineTo(float64(e.w), float64(r)*cell)
	}
	e.gc.Stroke()

	// Cells only light up once the overall level clears the gate.
	if e.audio.RMS < 0.15 {
		return
	}
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			intensity := e.band(row*cols+col, rows*cols)
			flash := intensity > 0.2 ||
				(e.audio.RMS > 0.3 && e.rng.Float64() < 0.4) ||
				math.Mod(4*e.t+float64(row)+float64(col), 1) < 0.1
			if !flash {
				continue
			}
			ci := 1 + (col+row+int(5*intensity))%(palLen-1)
			e.setColor(e.pal.Pick(ci), e.opacity*(0.8+0.2*intensity))
			e.gc.DrawRectangle(float64(col)*cell+1, float64(row)*cell+1, cell-2, cell-2)
			e.gc.Fill()
		}
	}
}

func drawSnake(e *drawEnv) {
	const cell = 32.0
	cols := int(math.Ceil(float64(e.w) / cell))
	rows := int(math.Ceil(float64(e.h) / cell))
	palLen := len(e.pal.Colors)

	e.setColor(e.pal.Pick(0), e.opacity*0.15)
	e.gc.SetLineWidth(1)
	for c := 0; c <= cols; c++ {
		e.gc.MoveTo(float64(c)*cell, 0)
		e.gc.LineTo(float64(c)*cell, float64(e.h))
	}
	for r := 0; r <= rows; r++ {
		e.gc.MoveTo(0, float64(r)*cell)
		e.gc.LineTo(float64(e.w), float64(r)*cell)
	}
	e.gc.Stroke()

	for _, sc := range snakeCells(e, cols, rows) {
		size := cell * (0.7 + 0.3*sc.intensity)
		x := float64(sc.col)*cell + (cell-size)/2
		y := float64(sc.row)*cell + (cell-size)/2
		ci := 1 + (sc.col+sc.row+int(10*sc.intensity))%(palLen-1)
		e.setColor(e.pal.Pick(ci), e.opacity*(0.6+0.4*sc.intensity))
		e.gc.DrawRectangle(x, y, size, size)
		e.gc.Fill()
	}
}

type snakeCell struct {
	col, row  int
	intensity float64
}

// snakeCells picks the cells that light up this frame: deterministic seeded
// placement with a bounded retry loop so no cell is chosen twice.
func snakeCells(e *drawEnv, cols, rows int) []snakeCell {
	maxActive := int(math.Min(50, e.audio.RMS*float64(cols)*float64(rows)*0.4))
	used := make(map[int]bool, maxActive)
	cells := make([]snakeCell, 0, maxActive)
	for i := 0; i < maxActive; i++ {
		for attempts := 0; attempts < 10; attempts++ {
			fx := (math.Sin(2*e.t+0.1*float64(i)+0.01*float64(attempts)) + 1) / 2
			fy := (math.Cos(1.5*e.t+0.07*float64(i)+0.015*float64(attempts)) + 1) / 2
			col := int(fx * float64(cols))
			row := int(fy * float64(rows))
			if col >= cols {
				col = cols - 1
			}
			if row >= rows {
				row = rows - 1
			}
			key := row*cols + col
			if used[key] {
				continue
			}
			used[key] = true
			intensity := e.band(key, rows*cols)
			if intensity > 0.05 || (e.audio.RMS > 0.1 && e.rng.Float64() < 0.3) {
				cells = append(cells, snakeCell{col: col, row: row, intensity: intensity})
			}
			break
		}
	}
	return cells
}

func drawRadar(e *drawEnv) {
	cx, cy := float64(e.w)/2, float64(e.h)/2
	r := 0.45 * e.minDim()
	ringColor := e.pal.Pick(3)

	e.setColor(ringColor, e.opacity)
	e.gc.SetLineWidth(2)
	e.gc.DrawCircle(cx, cy, r)
	e.gc.Stroke()

	// Sweep wedge with a radial falloff from the hub outward.
	angle := math.Mod(e.t, 2*math.Pi)
	const half = math.Pi / 12
	grad := gg.NewRadialGradient(cx, cy, 0.2*r, cx, cy, r)
	grad.AddColorStop(0, color.NRGBA{R: ringColor.R, G: ringColor.G, B: ringColor.B, A: 0})
	grad.AddColorStop(1, color.NRGBA{R: ringColor.R, G: ringColor.G, B: ringColor.B,
		A: uint8(0x88 * e.opacity)})
	e.gc.SetFillStyle(grad)
	e.gc.MoveTo(cx, cy)
	e.gc.DrawArc(cx, cy, r, angle-half, angle+half)
	e.gc.ClosePath()
	e.gc.Fill()
}

func drawCityEQ(e *drawEnv) {
	const count = 72
	colW := float64(e.w) / count
	bw := math.Max(2, 0.6*colW)
	maxH := 0.8 * float64(e.h)
	for i := 0; i < count; i++ {
		v := e.band(i, count)
		if v <= 0 {
			continue
		}
		bh := v * maxH
		x := float64(i)*colW + (colW-bw)/2
		e.setColor(e.pal.Foreground(i), e.opacity)
		e.gc.DrawRectangle(x, float64(e.h)-bh, bw, bh)
		e.gc.Fill()
	}
}

func drawLEDMatrix(e *drawEnv) {
	const gx, gy = 64, 36
	cw := float64(e.w) / gx
	rh := float64(e.h) / gy
	maxR := math.Min(cw, rh)
	palLen := len(e.pal.Colors)
	for y := 0; y < gy; y++ {
		for x := 0; x < gx; x++ {
			v := e.band(y*gx+x, gx*gy)
			if v < 0.1 {
				continue
			}
			r := maxR * v * 0.9 / 2
			ci := 1 + (x+y)%(palLen-1)
			e.setColor(e.pal.Pick(ci), e.opacity)
			e.gc.DrawCircle(float64(x)*cw+cw/2, float64(y)*rh+rh/2, r)
			e.gc.Fill()
		}
	}
}

func drawBlob(e *drawEnv) {
	const points = 180
	cx, cy := float64(e.w)/2, float64(e.h)/2
	base := 0.28 * e.minDim()
	for i := 0; i <= points; i++ {
		k := i % points
		v := e.band(k, points)
		angle := float64(k) / points * 2 * math.Pi
		r := base * (1 + 0.6*v)
		x := cx + math.Cos(angle)*r
		y := cy + math.Sin(angle)*r
		if i == 0 {
			e.gc.MoveTo(x, y)
		} else {
			e.gc.LineTo(x, y)
		}
	}
	e.gc.ClosePath()
	e.setColor(e.pal.Pick(2), e.opacity*0.75)
	e.gc.Fill()
}

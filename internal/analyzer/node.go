package analyzer

import (
	"math"
	"sync"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
	"github.com/vixalabs/vixa/internal/types"
)

// Analysis node geometry. FFTSize/2 frequency bins, matching the fixed
// transform size the rest of the pipeline is allocated against.
const (
	FFTSize  = 1024
	FreqBins = FFTSize / 2

	// smoothingTimeConstant: exponential averaging of successive magnitude
	// spectra, applied identically for every source.
	smoothing = 0.8

	minDecibels = -100.0
	maxDecibels = -30.0
)

// analyserNode keeps a rolling window of mono samples and converts it to
// byte-scaled frequency and time-domain views on demand. Writers feed it
// from whichever source is active; the pull loop drains it once per tick.
type analyserNode struct {
	mu       sync.Mutex
	ring     []float64 // FFTSize most recent mono samples
	pos      int
	smoothed []float64 // per-bin magnitudes after time averaging
	scratch  []float64
	windowed []float64 // Hann-weighted copy of scratch, reused across pulls
}

func newAnalyserNode() *analyserNode {
	return &analyserNode{
		ring:     make([]float64, FFTSize),
		smoothed: make([]float64, FreqBins),
		scratch:  make([]float64, FFTSize),
		windowed: make([]float64, FFTSize),
	}
}

// WriteS16LE feeds interleaved signed 16-bit little-endian PCM into the
// rolling window, mixing channels down to mono.
func (n *analyserNode) WriteS16LE(p []byte, channels int) {
	if channels <= 0 {
		channels = 1
	}
	frameBytes := 2 * channels
	n.mu.Lock()
	for i := 0; i+frameBytes <= len(p); i += frameBytes {
		var sum float64
		for c := 0; c < channels; c++ {
			s := int16(p[i+2*c]) | int16(p[i+2*c+1])<<8
			sum += float64(s) / 32768.0
		}
		n.ring[n.pos] = sum / float64(channels)
		n.pos = (n.pos + 1) % FFTSize
	}
	n.mu.Unlock()
}

// Reset zeroes the rolling window and the smoothed spectrum, returning the
// node to the flat no-input state. Buffer sizes never change.
func (n *analyserNode) Reset() {
	n.mu.Lock()
	for i := range n.ring {
		n.ring[i] = 0
	}
	for i := range n.smoothed {
		n.smoothed[i] = 0
	}
	n.pos = 0
	n.mu.Unlock()
}

// Pull refreshes dst's buffers in place from the current window. dst's
// slices must be FreqBins and FFTSize long; they are never reallocated.
func (n *analyserNode) Pull(dst *types.AudioFrame) {
	n.mu.Lock()
	// Unroll the ring so scratch holds oldest..newest.
	for i := 0; i < FFTSize; i++ {
		n.scratch[i] = n.ring[(n.pos+i)%FFTSize]
	}

	// Time domain view, centered at 128.
	var sumSquares float64
	for i, s := range n.scratch {
		sumSquares += s * s
		v := 128 + s*128
		if v < 0 {
			v = 0
		} else if v > 255 {
			v = 255
		}
		dst.Wave[i] = byte(v)
	}
	dst.RMS = math.Sqrt(sumSquares / FFTSize)

	// Frequency domain view: windowed FFT, magnitude smoothing, dB mapping.
	copy(n.windowed, n.scratch)
	window.Apply(n.windowed, window.Hann)
	spectrum := fft.FFTReal(n.windowed)
	for k := 0; k < FreqBins; k++ {
		mag := cmplxAbs(spectrum[k]) / FFTSize
		n.smoothed[k] = smoothing*n.smoothed[k] + (1-smoothing)*mag
		dst.Freq[k] = magToByte(n.smoothed[k])
	}
	n.mu.Unlock()
}

func cmplxAbs(c complex128) float64 {
	return math.Hypot(real(c), imag(c))
}

// magToByte maps a linear magnitude onto the unsigned byte scale between
// minDecibels and maxDecibels. Zero magnitude maps to 0.
func magToByte(mag float64) byte {
	if mag <= 0 {
		return 0
	}
	db := 20 * math.Log10(mag)
	v := 255 * (db - minDecibels) / (maxDecibels - minDecibels)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}

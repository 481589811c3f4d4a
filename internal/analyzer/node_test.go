package analyzer

import (
	"math"
	"testing"

	"github.com/vixalabs/vixa/internal/types"
)

func newFrame() *types.AudioFrame {
	return &types.AudioFrame{
		Freq: make([]byte, FreqBins),
		Wave: make([]byte, FFTSize),
	}
}

func TestPullSilence(t *testing.T) {
	node := newAnalyserNode()
	frame := newFrame()
	node.Pull(frame)

	if frame.RMS != 0 {
		t.Errorf("RMS = %f, want 0 for silence", frame.RMS)
	}
	for i, v := range frame.Wave {
		if v != 128 {
			t.Fatalf("Wave[%d] = %d, want 128 for silence", i, v)
		}
	}
	for i, v := range frame.Freq {
		if v != 0 {
			t.Fatalf("Freq[%d] = %d, want 0 for silence", i, v)
		}
	}
}

func TestPullSineWave(t *testing.T) {
	node := newAnalyserNode()

	// One full window of a 440Hz tone at half amplitude.
	pcm := make([]byte, FFTSize*4)
	for i := 0; i < FFTSize; i++ {
		s := int16(0.5 * 32767 * math.Sin(2*math.Pi*440*float64(i)/TapSampleRate))
		pcm[i*4] = byte(uint16(s))
		pcm[i*4+1] = byte(uint16(s) >> 8)
		pcm[i*4+2] = byte(uint16(s))
		pcm[i*4+3] = byte(uint16(s) >> 8)
	}
	node.WriteS16LE(pcm, 2)

	frame := newFrame()
	node.Pull(frame)

	if frame.RMS < 0.1 {
		t.Errorf("RMS = %f, want a clearly nonzero level for a half-amplitude tone", frame.RMS)
	}

	var peak byte
	for _, v := range frame.Freq {
		if v > peak {
			peak = v
		}
	}
	if peak == 0 {
		t.Error("frequency data is all zero for a pure tone")
	}

	var minW, maxW byte = 255, 0
	for _, v := range frame.Wave {
		if v < minW {
			minW = v
		}
		if v > maxW {
			maxW = v
		}
	}
	if minW >= 128 || maxW <= 128 {
		t.Errorf("waveform does not swing around center: min=%d max=%d", minW, maxW)
	}
}

func TestPullSmoothingDecays(t *testing.T) {
	node := newAnalyserNode()

	pcm := make([]byte, FFTSize*4)
	for i := 0; i < FFTSize; i++ {
		s := int16(0.8 * 32767 * math.Sin(2*math.Pi*1000*float64(i)/TapSampleRate))
		pcm[i*4] = byte(uint16(s))
		pcm[i*4+1] = byte(uint16(s) >> 8)
		pcm[i*4+2] = byte(uint16(s))
		pcm[i*4+3] = byte(uint16(s) >> 8)
	}
	node.WriteS16LE(pcm, 2)
	frame := newFrame()
	node.Pull(frame)

	loud := maxByte(frame.Freq)

	// Feed silence: smoothing should decay the spectrum, not zero it at once.
	node.WriteS16LE(make([]byte, FFTSize*4), 2)
	node.Pull(frame)
	after := maxByte(frame.Freq)

	if after == 0 {
		t.Error("spectrum dropped to zero immediately, expected smoothed decay")
	}
	if after >= loud {
		t.Errorf("spectrum did not decay: before=%d after=%d", loud, after)
	}
}

func TestPullReusesWindowBuffer(t *testing.T) {
	node := newAnalyserNode()
	if len(node.windowed) != FFTSize {
		t.Fatalf("window buffer length = %d, want %d", len(node.windowed), FFTSize)
	}
	frame := newFrame()
	node.Pull(frame)
	buf := &node.windowed[0]
	for i := 0; i < 4; i++ {
		node.Pull(frame)
	}
	if &node.windowed[0] != buf {
		t.Error("window buffer was reallocated between pulls")
	}
}

func TestResetClearsState(t *testing.T) {
	node := newAnalyserNode()
	pcm := make([]byte, FFTSize*4)
	for i := range pcm {
		pcm[i] = 0x40
	}
	node.WriteS16LE(pcm, 2)
	node.Reset()

	frame := newFrame()
	node.Pull(frame)
	if frame.RMS != 0 {
		t.Errorf("RMS = %f after Reset, want 0", frame.RMS)
	}
	if maxByte(frame.Freq) != 0 {
		t.Error("frequency data nonzero after Reset")
	}
}

func TestMagToByte(t *testing.T) {
	tests := []struct {
		name string
		mag  float64
		want byte
	}{
		{"zero magnitude", 0, 0},
		{"below floor", 1e-7, 0},
		{"above ceiling", 1.0, 255},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := magToByte(tt.mag); got != tt.want {
				t.Errorf("magToByte(%g) = %d, want %d", tt.mag, got, tt.want)
			}
		})
	}

	// -65dB sits midway between the -100/-30 bounds.
	mid := magToByte(math.Pow(10, -65.0/20))
	if mid < 120 || mid > 135 {
		t.Errorf("midpoint magnitude mapped to %d, want ~127", mid)
	}
}

func TestResampleS16LE(t *testing.T) {
	// 100 stereo frames at 22050 should roughly double at 44100.
	in := make([]byte, 100*4)
	out := resampleS16LE(in, 2, 22050, 44100)
	if got := len(out) / 4; got < 195 || got > 205 {
		t.Errorf("upsampled frame count = %d, want ~200", got)
	}

	same := resampleS16LE(in, 2, 44100, 44100)
	if len(same) != len(in) {
		t.Errorf("identity resample changed length: %d -> %d", len(in), len(same))
	}
}

func maxByte(p []byte) byte {
	var m byte
	for _, v := range p {
		if v > m {
			m = v
		}
	}
	return m
}

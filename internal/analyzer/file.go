package analyzer

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-audio/wav"
	mp3 "github.com/hajimehoshi/go-mp3"
	"github.com/vixalabs/vixa/internal/logger"
)

const (
	// maxFileSize caps input files at 50MB to keep decoded PCM bounded.
	maxFileSize = 50 * 1024 * 1024

	// loadTimeout bounds the decode of a single file. A decode that neither
	// succeeds nor fails inside this window is treated as a hard failure.
	loadTimeout = 10 * time.Second
)

var ErrFileTooLarge = errors.New("audio file exceeds the 50MB limit")

// validateAudioFile runs the pre-flight checks that must pass before any
// audio resource is acquired: existence, size cap and content type.
func validateAudioFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to access audio file: %w", err)
	}
	if info.Size() > maxFileSize {
		return fmt.Errorf("%w: %.1fMB", ErrFileTooLarge, float64(info.Size())/1024/1024)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open audio file: %w", err)
	}
	defer f.Close()

	head := make([]byte, 512)
	nr, _ := io.ReadFull(f, head)
	mime := http.DetectContentType(head[:nr])

	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case strings.HasPrefix(mime, "audio/"):
		return nil
	case ext == ".mp3" || ext == ".wav":
		// Sniffing misses some valid mp3 framings; trust the extension.
		return nil
	default:
		return fmt.Errorf("invalid file type: %s. Please select an audio file", mime)
	}
}

// decodeAudioFile decodes an mp3 or wav file into interleaved s16le PCM at
// the tap format. The decode is bounded by loadTimeout.
func decodeAudioFile(path string) ([]byte, error) {
	type result struct {
		pcm []byte
		err error
	}
	ch := make(chan result, 1)

	go func() {
		pcm, err := decodeBlocking(path)
		ch <- result{pcm, err}
	}()

	select {
	case r := <-ch:
		return r.pcm, r.err
	case <-time.After(loadTimeout):
		return nil, fmt.Errorf("audio loading timeout after %s - file may be corrupted or unsupported", loadTimeout)
	}
}

func decodeBlocking(path string) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return decodeWAV(path)
	default:
		return decodeMP3(path)
	}
}

func decodeMP3(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer f.Close()

	dec, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode mp3: %w", err)
	}

	// go-mp3 always emits 16-bit stereo at the source sample rate.
	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("failed to read mp3 stream: %w", err)
	}
	return resampleS16LE(raw, 2, dec.SampleRate(), TapSampleRate), nil
}

func decodeWAV(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to decode wav: %w", err)
	}
	if buf == nil || buf.Format == nil || len(buf.Data) == 0 {
		return nil, errors.New("failed to decode wav: empty PCM buffer")
	}

	channels := buf.Format.NumChannels
	if channels < 1 {
		channels = 1
	}
	shift := uint(0)
	if buf.SourceBitDepth > 16 {
		shift = uint(buf.SourceBitDepth - 16)
	}

	frames := len(buf.Data) / channels
	out := make([]byte, frames*4)
	for i := 0; i < frames; i++ {
		var l, r int
		l = buf.Data[i*channels] >> shift
		if channels > 1 {
			r = buf.Data[i*channels+1] >> shift
		} else {
			r = l
		}
		if buf.SourceBitDepth == 8 {
			// 8-bit wav is unsigned; recenter and widen.
			l = (l - 128) << 8
			r = (r - 128) << 8
		}
		out[i*4] = byte(uint16(int16(clampS16(l))))
		out[i*4+1] = byte(uint16(int16(clampS16(l))) >> 8)
		out[i*4+2] = byte(uint16(int16(clampS16(r))))
		out[i*4+3] = byte(uint16(int16(clampS16(r))) >> 8)
	}
	return resampleS16LE(out, 2, int(dec.SampleRate), TapSampleRate), nil
}

func clampS16(v int) int {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return v
}

// resampleS16LE linearly interpolates interleaved s16le PCM from one sample
// rate to another. Identity rates return the input unchanged.
func resampleS16LE(in []byte, channels, from, to int) []byte {
	if from == to || from <= 0 || to <= 0 {
		return in
	}
	frameBytes := 2 * channels
	frames := len(in) / frameBytes
	if frames < 2 {
		return in
	}
	outFrames := int(float64(frames) * float64(to) / float64(from))
	out := make([]byte, outFrames*frameBytes)
	ratio := float64(from) / float64(to)
	for i := 0; i < outFrames; i++ {
		srcPos := float64(i) * ratio
		i0 := int(srcPos)
		if i0 >= frames-1 {
			i0 = frames - 2
		}
		frac := srcPos - float64(i0)
		for c := 0; c < channels; c++ {
			o0 := i0*frameBytes + 2*c
			o1 := (i0+1)*frameBytes + 2*c
			s0 := float64(int16(in[o0]) | int16(in[o0+1])<<8)
			s1 := float64(int16(in[o1]) | int16(in[o1+1])<<8)
			s := int16(s0 + (s1-s0)*frac)
			out[i*frameBytes+2*c] = byte(uint16(s))
			out[i*frameBytes+2*c+1] = byte(uint16(s) >> 8)
		}
	}
	return out
}

// fileStream serves decoded PCM to the speaker while mirroring every chunk
// it hands out to the analysis node and the recording tap. The speaker's
// pull drives the pacing, so analysis stays in step with what is audible.
type fileStream struct {
	pcm  []byte
	pos  int
	node *analyserNode
	tap  *Tap
}

func (s *fileStream) Read(p []byte) (int, error) {
	if s.pos >= len(s.pcm) {
		logger.Debug("Audio file playback reached end of stream")
		return 0, io.EOF
	}
	n := copy(p, s.pcm[s.pos:])
	s.pos += n
	s.node.WriteS16LE(p[:n], TapChannels)
	s.tap.Write(p[:n]) //nolint:errcheck
	return n, nil
}

// Package recorder captures the composited surface and the audio tap into
// an encoded clip. Video is piped frame-by-frame into ffmpeg while
// recording; audio PCM is buffered and muxed in at stop time.
package recorder

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"sync"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	ffmpeg "github.com/u2takey/ffmpeg-go"
	"github.com/vixalabs/vixa/internal/analyzer"
	"github.com/vixalabs/vixa/internal/frameloop"
	"github.com/vixalabs/vixa/internal/logger"
	"github.com/vixalabs/vixa/internal/types"
)

func init() {
	ffmpeg.LogCompiledCommand = false
}

var (
	ErrAlreadyRecording = errors.New("a recording is already in progress")
	ErrNotRecording     = errors.New("no recording is in progress")
)

// FrameSource provides composited frames and their dimensions.
type FrameSource interface {
	Snapshot() *image.RGBA
	Size() (int, int)
}

// AudioTap is the attach point for the live PCM stream.
type AudioTap interface {
	Attach(io.Writer)
	Detach(io.Writer)
}

// Recording is a finished clip ready for preview or export.
type Recording struct {
	Bytes    []byte
	MimeType string
	Ext      string
	Duration time.Duration
}

// lockedBuffer is an io.Writer safe to hand to the audio tap.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Bytes()
}

// Recorder drives one capture at a time over a frame source and audio tap.
type Recorder struct {
	frames FrameSource
	tap    AudioTap
	cfg    types.RecordingConfig

	mu        sync.Mutex
	recording bool
	format    format
	loop      *frameloop.Loop
	stdin     io.WriteCloser
	videoBuf  *bytes.Buffer
	audioBuf  *lockedBuffer
	encodeErr chan error
	startedAt time.Time
}

// New creates a recorder. Nothing is probed or spawned until Start.
func New(frames FrameSource, tap AudioTap, cfg types.RecordingConfig) *Recorder {
	return &Recorder{frames: frames, tap: tap, cfg: cfg}
}

// Recording reports whether a capture is in progress.
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

// Start negotiates an output format and begins capturing frames and audio.
func (r *Recorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.recording {
		return ErrAlreadyRecording
	}
	if err := checkFFmpegInstalled(); err != nil {
		return err
	}

	supported, err := probeEncoders()
	if err != nil {
		logger.Warnf("Encoder probe failed, assuming default webm support: %v", err)
		supported = map[string]bool{}
	}
	r.format = pickFormat(supported, r.cfg.PreferMP4)

	fps := r.cfg.FPS
	if fps < 1 {
		fps = 1
	} else if fps > 120 {
		fps = 120
	}
	w, h := r.frames.Size()

	pr, pw := io.Pipe()
	r.stdin = pw
	r.videoBuf = &bytes.Buffer{}
	r.audioBuf = &lockedBuffer{}
	r.encodeErr = make(chan error, 1)

	outArgs := ffmpeg.KwArgs{
		"loglevel": "quiet",
		"c:v":      r.format.VideoCodec,
		"b:v":      r.cfg.VideoBitrate,
		"f":        r.format.Container,
		"threads":  "auto",
	}
	if r.format.Container == "mp4" {
		// Plain mp4 cannot be written to a pipe; fragment it.
		outArgs["movflags"] = "frag_keyframe+empty_moov"
	}

	go func() {
		err := ffmpeg.Input("pipe:0", ffmpeg.KwArgs{
			"format":    "rawvideo",
			"pix_fmt":   "rgba",
			"s":         fmt.Sprintf("%dx%d", w, h),
			"framerate": fps,
		}).
			Output("pipe:1", outArgs).
			WithInput(pr).
			WithOutput(r.videoBuf).
			Run()
		r.encodeErr <- err
	}()

	r.loop = frameloop.New(time.Second/time.Duration(fps), r.pumpFrame)
	r.loop.Start()
	r.tap.Attach(r.audioBuf)

	r.recording = true
	r.startedAt = time.Now()
	logger.Infof("Recording started: %s %dx%d@%dfps", r.format.MimeType, w, h, fps)
	return nil
}

func (r *Recorder) pumpFrame() {
	r.mu.Lock()
	stdin := r.stdin
	r.mu.Unlock()
	if stdin == nil {
		return
	}
	frame := r.frames.Snapshot()
	if _, err := stdin.Write(frame.Pix); err != nil {
		logger.Debugf("Frame pipe closed: %v", err)
	}
}

// Stop finalizes the capture and returns the finished clip. The audio tap
// is always detached, even on encode failure. If muxing audio fails the
// video-only clip is returned rather than an error.
func (r *Recorder) Stop() (*Recording, error) {
	r.mu.Lock()
	if !r.recording {
		r.mu.Unlock()
		return nil, ErrNotRecording
	}
	r.recording = false
	loop := r.loop
	stdin := r.stdin
	r.stdin = nil
	r.mu.Unlock()

	loop.Stop()
	r.tap.Detach(r.audioBuf)
	stdin.Close()

	select {
	case err := <-r.encodeErr:
		if err != nil {
			return nil, fmt.Errorf("video encoding failed: %w", err)
		}
	case <-time.After(30 * time.Second):
		return nil, errors.New("video encoder did not finish in time")
	}

	video := r.videoBuf.Bytes()
	duration := time.Since(r.startedAt)

	rec := &Recording{
		Bytes:    video,
		MimeType: r.format.MimeType,
		Ext:      r.format.Ext,
		Duration: duration,
	}
	if mime, ext, ok := sniffContainer(video); ok && ext != r.format.Ext {
		logger.Warnf("Encoder produced %s despite negotiating %s", ext, r.format.Ext)
		rec.MimeType = mime
		rec.Ext = ext
	}

	pcm := r.audioBuf.bytes()
	if len(pcm) == 0 {
		logger.Info("No audio captured, keeping video-only clip")
		return rec, nil
	}
	muxed, err := r.muxAudio(video, pcm)
	if err != nil {
		logger.Warnf("Audio mux failed, keeping video-only clip: %v", err)
		return rec, nil
	}
	rec.Bytes = muxed
	logger.Infof("Recording stopped: %.1fs, %d bytes", duration.Seconds(), len(muxed))
	return rec, nil
}

// muxAudio writes the captured PCM to a temporary wav and runs a second
// ffmpeg pass combining it with the already-encoded video.
func (r *Recorder) muxAudio(video, pcm []byte) ([]byte, error) {
	videoFile, err := os.CreateTemp("", "capture-*."+r.format.Ext)
	if err != nil {
		return nil, err
	}
	defer os.Remove(videoFile.Name())
	if _, err := videoFile.Write(video); err != nil {
		videoFile.Close()
		return nil, err
	}
	videoFile.Close()

	wavPath, err := writeWAV(pcm)
	if err != nil {
		return nil, err
	}
	defer os.Remove(wavPath)

	outFile, err := os.CreateTemp("", "clip-*."+r.format.Ext)
	if err != nil {
		return nil, err
	}
	outPath := outFile.Name()
	outFile.Close()
	defer os.Remove(outPath)

	err = ffmpeg.Output(
		[]*ffmpeg.Stream{ffmpeg.Input(videoFile.Name()), ffmpeg.Input(wavPath)},
		outPath,
		ffmpeg.KwArgs{
			"loglevel": "quiet",
			"c:v":      "copy",
			"c:a":      r.format.AudioCodec,
			"b:a":      r.cfg.AudioBitrate,
			"shortest": "",
		}).
		OverWriteOutput().
		Run()
	if err != nil {
		return nil, fmt.Errorf("failed to mux audio: %w", err)
	}
	return os.ReadFile(outPath)
}

// writeWAV dumps interleaved s16le PCM at the tap format into a temp file.
func writeWAV(pcm []byte) (string, error) {
	f, err := os.CreateTemp("", "audio-*.wav")
	if err != nil {
		return "", err
	}
	defer f.Close()

	enc := wav.NewEncoder(f, analyzer.TapSampleRate, 16, analyzer.TapChannels, 1)
	samples := make([]int, len(pcm)/2)
	for i := range samples {
		samples[i] = int(int16(pcm[i*2]) | int16(pcm[i*2+1])<<8)
	}
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: analyzer.TapChannels, SampleRate: analyzer.TapSampleRate},
		Data:           samples,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	if err := enc.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

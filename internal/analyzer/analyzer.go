// Package analyzer owns the audio side of the mixer: one active source at a
// time (file playback or microphone capture), a fixed-size analysis node
// producing frequency/time-domain frames, and a tap that mirrors the audible
// stream to recording sinks.
package analyzer

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	oto "github.com/hajimehoshi/oto/v2"
	"github.com/vixalabs/vixa/internal/logger"
	"github.com/vixalabs/vixa/internal/types"
)

// Engine manages playback, capture and analysis. All methods are safe for
// concurrent use; source switches are serialized internally.
type Engine struct {
	mu sync.Mutex

	ctx     *oto.Context
	ctxOnce sync.Once
	ctxErr  error

	node *analyserNode
	tap  *Tap

	player oto.Player
	mic    *micStream
	paused bool

	frame types.AudioFrame
}

// New creates an engine with an empty analysis window. No audio device is
// touched until the first source starts.
func New() *Engine {
	return &Engine{
		node: newAnalyserNode(),
		tap:  newTap(),
		frame: types.AudioFrame{
			Freq: make([]byte, FreqBins),
			Wave: make([]byte, FFTSize),
		},
	}
}

// ensureContext lazily creates the speaker context. The underlying device
// context can only be created once per process, so the first successful or
// failed attempt is sticky.
func (e *Engine) ensureContext() (*oto.Context, error) {
	e.ctxOnce.Do(func() {
		ctx, ready, err := oto.NewContext(TapSampleRate, TapChannels, 2)
		if err != nil {
			e.ctxErr = fmt.Errorf("failed to open audio output: %w", err)
			return
		}
		select {
		case <-ready:
		case <-time.After(5 * time.Second):
			e.ctxErr = fmt.Errorf("audio output did not become ready")
			return
		}
		e.ctx = ctx
	})
	return e.ctx, e.ctxErr
}

// PlayFile validates, decodes and starts playback of an audio file,
// replacing whatever source is active. Validation runs before any audio
// resource is acquired, so a rejected file leaves the engine untouched.
func (e *Engine) PlayFile(path string) error {
	if err := validateAudioFile(path); err != nil {
		return err
	}

	pcm, err := decodeAudioFile(path)
	if err != nil {
		return err
	}

	ctx, err := e.ensureContext()
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopCurrentLocked()

	stream := &fileStream{pcm: pcm, node: e.node, tap: e.tap}
	e.player = ctx.NewPlayer(stream)
	e.player.Play()
	e.paused = false

	logger.Infof("Playing %s (%.1fs)", filepath.Base(path),
		float64(len(pcm))/float64(TapSampleRate*TapChannels*2))
	return nil
}

// PlayMic starts microphone capture as the active source, monitoring it
// through the speaker so the tap carries exactly what is heard.
func (e *Engine) PlayMic() error {
	ctx, err := e.ensureContext()
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopCurrentLocked()

	mic, err := newMicStream(e.node, e.tap)
	if err != nil {
		return err
	}
	e.mic = mic
	e.player = ctx.NewPlayer(mic)
	e.player.Play()
	e.paused = false
	return nil
}

// Pause suspends the active source. Pausing an idle or already paused
// engine is a no-op.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.player == nil || e.paused {
		return
	}
	e.player.Pause()
	e.paused = true
	logger.Debug("Playback paused")
}

// Resume continues a paused source. A no-op when nothing is paused.
func (e *Engine) Resume() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.player == nil || !e.paused {
		return
	}
	e.player.Play()
	e.paused = false
	logger.Debug("Playback resumed")
}

// Stop tears down the active source and clears the analysis window so the
// visuals settle back to the silent state.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopCurrentLocked()
}

func (e *Engine) stopCurrentLocked() {
	if e.player != nil {
		e.player.Pause()
		if closer, ok := e.player.(interface{ Close() error }); ok {
			_ = closer.Close()
		}
		e.player = nil
	}
	if e.mic != nil {
		e.mic.Close()
		e.mic = nil
	}
	e.paused = false
	e.node.Reset()
}

// Playing reports whether a source is active and not paused.
func (e *Engine) Playing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.player != nil && !e.paused
}

// Data refreshes and returns the engine's analysis frame. The returned
// frame's slices are reused across calls; callers consume them before the
// next call or copy what they keep.
func (e *Engine) Data() *types.AudioFrame {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.node.Pull(&e.frame)
	return &e.frame
}

// OutputTap exposes the recording fan-out point.
func (e *Engine) OutputTap() *Tap {
	return e.tap
}

// Close stops any source. The speaker context itself stays open for the
// life of the process.
func (e *Engine) Close() {
	e.Stop()
}

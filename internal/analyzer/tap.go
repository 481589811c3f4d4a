package analyzer

import (
	"io"
	"sync"
)

// Tap PCM format. Every source is normalized to this before reaching the
// tap, so recordings always carry the same stream regardless of input.
const (
	TapSampleRate = 44100
	TapChannels   = 2
)

// Tap is the recording sink: a fan-out point parallel to the speaker
// output. Whatever PCM the active source produces is mirrored to every
// attached writer, so a recording matches what is heard.
type Tap struct {
	mu    sync.Mutex
	sinks map[io.Writer]struct{}
}

func newTap() *Tap {
	return &Tap{sinks: make(map[io.Writer]struct{})}
}

// Attach registers a writer to receive the live PCM stream.
func (t *Tap) Attach(w io.Writer) {
	t.mu.Lock()
	t.sinks[w] = struct{}{}
	t.mu.Unlock()
}

// Detach removes a previously attached writer. Unknown writers are a no-op.
func (t *Tap) Detach(w io.Writer) {
	t.mu.Lock()
	delete(t.sinks, w)
	t.mu.Unlock()
}

// Write fans the chunk out to all attached sinks. Individual sink errors
// are swallowed: a broken recorder must not disturb playback.
func (t *Tap) Write(p []byte) (int, error) {
	t.mu.Lock()
	for w := range t.sinks {
		w.Write(p) //nolint:errcheck
	}
	t.mu.Unlock()
	return len(p), nil
}

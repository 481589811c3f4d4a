package analyzer

import (
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"
	"github.com/vixalabs/vixa/internal/logger"
)

// micStream captures the default input device and feeds the analysis node
// and recording tap from the device callback. It also keeps a small monitor
// buffer so the capture can be routed to the speaker like any other source.
type micStream struct {
	ctx    *malgo.AllocatedContext
	device *malgo.Device

	mu  sync.Mutex
	buf []byte
}

func newMicStream(node *analyserNode, tap *Tap) (*micStream, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		logger.Debugf("malgo: %s", message)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize audio context: %w", err)
	}

	m := &micStream{ctx: ctx}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = TapChannels
	deviceConfig.SampleRate = TapSampleRate
	deviceConfig.Alsa.NoMMap = 1

	onRecv := func(_, pSample []byte, _ uint32) {
		node.WriteS16LE(pSample, TapChannels)
		tap.Write(pSample) //nolint:errcheck
		m.push(pSample)
	}

	device, err := malgo.InitDevice(ctx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: onRecv,
	})
	if err != nil {
		_ = ctx.Uninit()
		ctx.Free()
		return nil, fmt.Errorf("failed to initialize capture device: %w", err)
	}
	m.device = device

	if err := device.Start(); err != nil {
		device.Uninit()
		_ = ctx.Uninit()
		ctx.Free()
		return nil, fmt.Errorf("failed to start capture device: %w", err)
	}

	logger.Info("Microphone capture started")
	return m, nil
}

// push appends captured PCM to the monitor buffer, dropping the oldest data
// beyond roughly one second so a stalled reader cannot grow it unbounded.
func (m *micStream) push(p []byte) {
	const maxBuffered = TapSampleRate * TapChannels * 2
	m.mu.Lock()
	m.buf = append(m.buf, p...)
	if len(m.buf) > maxBuffered {
		m.buf = m.buf[len(m.buf)-maxBuffered:]
	}
	m.mu.Unlock()
}

// Read serves the monitor buffer to the speaker, padding with silence when
// the capture callback has not produced enough data yet.
func (m *micStream) Read(p []byte) (int, error) {
	m.mu.Lock()
	n := copy(p, m.buf)
	m.buf = m.buf[n:]
	m.mu.Unlock()
	for i := n; i < len(p); i++ {
		p[i] = 0
	}
	return len(p), nil
}

func (m *micStream) Close() {
	if m.device != nil {
		m.device.Uninit()
		m.device = nil
	}
	if m.ctx != nil {
		_ = m.ctx.Uninit()
		m.ctx.Free()
		m.ctx = nil
	}
	logger.Info("Microphone capture stopped")
}

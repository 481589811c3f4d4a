package types

import "image"

// BlendMode is the pixel-combination rule used when a layer is painted
// over the content below it.
type BlendMode string

const (
	BlendNormal   BlendMode = "normal"
	BlendAdd      BlendMode = "add"
	BlendMultiply BlendMode = "multiply"
	BlendScreen   BlendMode = "screen"
)

// VisualMode selects the draw algorithm of a layer.
type VisualMode string

const (
	ModeBars      VisualMode = "bars"
	ModeWaveform  VisualMode = "waveform"
	ModeRadial    VisualMode = "radial"
	ModeMirrorEQ  VisualMode = "mirror-eq"
	ModePeakBars  VisualMode = "peak-bars"
	ModeSparkline VisualMode = "sparkline"
	ModeRings     VisualMode = "rings"
	ModeLissajous VisualMode = "lissajous"
	ModeGrid      VisualMode = "grid"
	ModeSnake     VisualMode = "snake"
	ModeRadar     VisualMode = "radar"
	ModeCityEQ    VisualMode = "city-eq"
	ModeLEDMatrix VisualMode = "led-matrix"
	ModeBlob      VisualMode = "blob"
	ModeSmoke     VisualMode = "smoke"
)

// VisualModes lists every mode in menu order.
var VisualModes = []VisualMode{
	ModeBars, ModeWaveform, ModeRadial, ModeMirrorEQ, ModePeakBars,
	ModeSparkline, ModeRings, ModeLissajous, ModeGrid, ModeSnake,
	ModeRadar, ModeCityEQ, ModeLEDMatrix, ModeBlob, ModeSmoke,
}

// Layer is one configured visual algorithm instance. Layers are composited
// in list order: later layers paint over earlier ones, subject to Blend.
type Layer struct {
	ID               string     `yaml:"id"`
	Name             string     `yaml:"name"`
	Mode             VisualMode `yaml:"mode"`
	PaletteID        string     `yaml:"palette"`
	Opacity          float64    `yaml:"opacity"` // 0..1
	Blend            BlendMode  `yaml:"blend"`
	Visible          bool       `yaml:"visible"`
	Mirrored         bool       `yaml:"mirrored"`          // horizontal flip
	MirroredVertical bool       `yaml:"mirrored_vertical"` // vertical flip
}

// FitMode controls how a background image is scaled to the surface.
type FitMode string

const (
	FitCover   FitMode = "cover"
	FitContain FitMode = "contain"
	FitStretch FitMode = "stretch"
)

// LogoState positions an optional overlay image in normalized coordinates.
type LogoState struct {
	Image   image.Image
	X       float64 // 0..1
	Y       float64 // 0..1
	Scale   float64 // 0.1..2
	Opacity float64 // 0..1
}

// BackgroundState is the base fill drawn before any layer.
type BackgroundState struct {
	Color   string // hex, e.g. "#07140e"
	Image   image.Image
	Fit     FitMode
	Opacity float64 // 0..1, applies to the image overlay only
}

// AudioFrame holds the most recent analysis window. The analyzer overwrites
// the slices in place every tick; consumers must treat them as read-only.
type AudioFrame struct {
	Freq []byte  // magnitude per frequency bin
	Wave []byte  // time-domain samples centered at 128
	RMS  float64 // 0..1
}

// Config is the persisted application configuration.
type Config struct {
	LogLevel  string          `yaml:"log_level"`
	Render    RenderConfig    `yaml:"render"`
	Recording RecordingConfig `yaml:"recording"`
	Preview   PreviewConfig   `yaml:"preview"`
	Converter ConverterConfig `yaml:"converter"`
}

type RenderConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	FPS    int `yaml:"fps"`
}

type RecordingConfig struct {
	FPS          int    `yaml:"fps"`
	VideoBitrate string `yaml:"video_bitrate"`
	AudioBitrate string `yaml:"audio_bitrate"`
	// PreferMP4 records straight to mp4 when the encoder supports it,
	// instead of webm plus a post-conversion step.
	PreferMP4 bool `yaml:"prefer_mp4"`
}

type PreviewConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

type ConverterConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
}

// DefaultConfig returns the configuration used when no file exists yet.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Render:   RenderConfig{Width: 1280, Height: 720, FPS: 60},
		Recording: RecordingConfig{
			FPS:          30,
			VideoBitrate: "8M",
			AudioBitrate: "192k",
		},
		Preview:   PreviewConfig{Enabled: true, Addr: "127.0.0.1:8765"},
		Converter: ConverterConfig{},
	}
}

package recorder

import (
	"testing"

	"github.com/vixalabs/vixa/internal/types"
)

func defaultRecCfg() types.RecordingConfig {
	return types.RecordingConfig{FPS: 30, VideoBitrate: "8M", AudioBitrate: "192k"}
}

func TestSniffContainer(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		wantExt string
		wantOK  bool
	}{
		{
			name:    "webm EBML header",
			data:    []byte{0x1A, 0x45, 0xDF, 0xA3, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08},
			wantExt: "webm",
			wantOK:  true,
		},
		{
			name:    "mp4 ftyp box",
			data:    append([]byte{0x00, 0x00, 0x00, 0x20}, []byte("ftypisom....")...),
			wantExt: "mp4",
			wantOK:  true,
		},
		{
			name:   "unknown bytes",
			data:   []byte("certainly not a video"),
			wantOK: false,
		},
		{
			name:   "too short",
			data:   []byte{0x1A, 0x45},
			wantOK: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ext, ok := sniffContainer(tt.data)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && ext != tt.wantExt {
				t.Errorf("ext = %q, want %q", ext, tt.wantExt)
			}
		})
	}
}

func TestPickFormat(t *testing.T) {
	all := map[string]bool{
		"libvpx-vp9": true, "libvpx": true, "libx264": true,
		"aac": true, "libopus": true, "libvorbis": true,
	}
	tests := []struct {
		name      string
		supported map[string]bool
		preferMP4 bool
		wantVideo string
		wantExt   string
	}{
		{"vp9 preferred for webm", all, false, "libvpx-vp9", "webm"},
		{"mp4 leads when preferred", all, true, "libx264", "mp4"},
		{
			"vp8 fallback without vp9",
			map[string]bool{"libvpx": true, "libopus": true, "libvorbis": true},
			false, "libvpx", "webm",
		},
		{
			"mp4 preference falls back to webm without x264",
			map[string]bool{"libvpx-vp9": true, "libopus": true},
			true, "libvpx-vp9", "webm",
		},
		{"empty support set still yields webm", map[string]bool{}, false, "libvpx", "webm"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := pickFormat(tt.supported, tt.preferMP4)
			if f.VideoCodec != tt.wantVideo {
				t.Errorf("video codec = %q, want %q", f.VideoCodec, tt.wantVideo)
			}
			if f.Ext != tt.wantExt {
				t.Errorf("ext = %q, want %q", f.Ext, tt.wantExt)
			}
		})
	}
}

func TestParseEncoders(t *testing.T) {
	out := []byte(`Encoders:
 V..... = Video
 A..... = Audio
 ------
 V....D libx264              libx264 H.264 / AVC / MPEG-4 AVC
 V....D libvpx-vp9           libvpx VP9 (codec vp9)
 A....D aac                  AAC (Advanced Audio Coding)
`)
	supported := parseEncoders(out)
	for _, name := range []string{"libx264", "libvpx-vp9", "aac"} {
		if !supported[name] {
			t.Errorf("%s not detected", name)
		}
	}
	if supported["Video"] || supported["="] {
		t.Error("legend lines leaked into the encoder set")
	}
}

func TestStopWithoutStart(t *testing.T) {
	r := New(nil, nil, defaultRecCfg())
	if _, err := r.Stop(); err != ErrNotRecording {
		t.Errorf("Stop on idle recorder = %v, want ErrNotRecording", err)
	}
}

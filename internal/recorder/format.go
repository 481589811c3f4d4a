package recorder

import (
	"bufio"
	"bytes"
	"fmt"
	"os/exec"
	"strings"
)

var ErrFFmpegNotInstalled = fmt.Errorf("FFmpeg is not installed. Please install FFmpeg to use recording functionality")

func checkFFmpegInstalled() error {
	cmd := exec.Command("ffmpeg", "-version")
	if err := cmd.Run(); err != nil {
		return ErrFFmpegNotInstalled
	}
	return nil
}

// format is a negotiated recording output: container plus codecs.
type format struct {
	Container  string // "webm" or "mp4"
	VideoCodec string // ffmpeg encoder name
	AudioCodec string
	MimeType   string
	Ext        string
}

// formatPreference is the negotiation order. MP4 leads only when the caller
// prefers recording straight to mp4; otherwise webm variants are tried from
// best to most compatible.
func formatPreference(preferMP4 bool) []format {
	webm := []format{
		{Container: "webm", VideoCodec: "libvpx-vp9", AudioCodec: "libopus", MimeType: "video/webm;codecs=vp9,opus", Ext: "webm"},
		{Container: "webm", VideoCodec: "libvpx", AudioCodec: "libopus", MimeType: "video/webm;codecs=vp8,opus", Ext: "webm"},
		{Container: "webm", VideoCodec: "libvpx", AudioCodec: "libvorbis", MimeType: "video/webm", Ext: "webm"},
	}
	if !preferMP4 {
		return webm
	}
	mp4 := format{Container: "mp4", VideoCodec: "libx264", AudioCodec: "aac", MimeType: "video/mp4", Ext: "mp4"}
	return append([]format{mp4}, webm...)
}

// pickFormat returns the first preference whose encoders are all available.
// An empty support set falls through to the last webm entry so recording is
// still attempted with whatever the local build carries.
func pickFormat(supported map[string]bool, preferMP4 bool) format {
	prefs := formatPreference(preferMP4)
	for _, f := range prefs {
		if supported[f.VideoCodec] && supported[f.AudioCodec] {
			return f
		}
	}
	return prefs[len(prefs)-1]
}

// probeEncoders asks the local ffmpeg which encoders it was built with.
func probeEncoders() (map[string]bool, error) {
	out, err := exec.Command("ffmpeg", "-hide_banner", "-encoders").Output()
	if err != nil {
		return nil, fmt.Errorf("failed to probe ffmpeg encoders: %w", err)
	}
	return parseEncoders(out), nil
}

// parseEncoders extracts encoder names from `ffmpeg -encoders` output. Lines
// look like " V....D libvpx-vp9           libvpx VP9 ...".
func parseEncoders(out []byte) map[string]bool {
	supported := make(map[string]bool)
	sc := bufio.NewScanner(bytes.NewReader(out))
	started := false
	for sc.Scan() {
		line := sc.Text()
		if !started {
			if strings.HasPrefix(strings.TrimSpace(line), "---") {
				started = true
			}
			continue
		}
		fields := strings.Fields(line)
		if len(fields) >= 2 {
			supported[fields[1]] = true
		}
	}
	return supported
}

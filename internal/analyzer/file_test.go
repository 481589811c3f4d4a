package analyzer

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestValidateAudioFileRejectsNonAudio(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "page.html")
	if err := os.WriteFile(path, []byte("<html><body>not audio</body></html>"), 0o644); err != nil {
		t.Fatal(err)
	}

	err := validateAudioFile(path)
	if err == nil {
		t.Fatal("expected validation error for an HTML file")
	}
	if !strings.Contains(err.Error(), "text/html") {
		t.Errorf("error should name the detected type, got: %v", err)
	}
}

func TestValidateAudioFileSizeCap(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "big.mp3")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.Truncate(maxFileSize + 1); err != nil {
		t.Fatal(err)
	}
	f.Close()

	err = validateAudioFile(path)
	if !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("expected ErrFileTooLarge, got: %v", err)
	}
}

func TestValidateAudioFileMissing(t *testing.T) {
	if err := validateAudioFile(filepath.Join(t.TempDir(), "nope.mp3")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestValidateAudioFileAcceptsByExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clip.mp3")
	// A bare mp3 frame header that DetectContentType does not classify.
	if err := os.WriteFile(path, []byte{0xFF, 0xFB, 0x90, 0x00, 0x00, 0x00}, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := validateAudioFile(path); err != nil {
		t.Errorf("mp3 by extension rejected: %v", err)
	}
}

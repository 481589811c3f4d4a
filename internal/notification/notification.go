package notification

import (
	"runtime"

	"github.com/vixalabs/vixa/internal/logger"
)

// Notifier defines the interface for system notifications
type Notifier interface {
	NotifyRecordingStarted() error
	NotifyRecordingStopped() error
	NotifyExportComplete(filename string) error
	Notify(title, message string) error
}

// SilentNotifier is a no-op implementation for headless runs
type SilentNotifier struct{}

func NewSilent() Notifier {
	return &SilentNotifier{}
}

func (s *SilentNotifier) NotifyRecordingStarted() error              { return nil }
func (s *SilentNotifier) NotifyRecordingStopped() error              { return nil }
func (s *SilentNotifier) NotifyExportComplete(filename string) error { return nil }
func (s *SilentNotifier) Notify(title, message string) error         { return nil }

type baseNotifier struct {
	platform platformNotifier
}

type platformNotifier interface {
	send(title, message string) error
}

// New creates a new platform-specific notification service
func New() Notifier {
	logger.Debug("Initializing notification system")
	var platform platformNotifier
	switch runtime.GOOS {
	case "darwin":
		logger.Debug("Using Darwin (macOS) notifier")
		platform = newDarwinNotifier()
	default:
		logger.Debug("Using Linux notifier")
		platform = newLinuxNotifier()
	}
	return &baseNotifier{platform: platform}
}

func (n *baseNotifier) NotifyRecordingStarted() error {
	logger.Debug("Sending recording started notification")
	return n.Notify("Vixa", "Recording in progress...")
}

func (n *baseNotifier) NotifyRecordingStopped() error {
	return n.Notify("Vixa", "Recording stopped")
}

func (n *baseNotifier) NotifyExportComplete(filename string) error {
	return n.Notify("Vixa", "Exported "+filename)
}

func (n *baseNotifier) Notify(title, message string) error {
	return n.platform.send(title, message)
}

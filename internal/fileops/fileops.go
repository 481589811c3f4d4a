package fileops

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/vixalabs/vixa/internal/logger"
)

// ErrConfigNotFound is returned when a configuration file does not exist
var ErrConfigNotFound = errors.New("configuration file not found")

// ErrProcessAlreadyRunning is returned when another vixa process is running
var ErrProcessAlreadyRunning = errors.New("vixa process is already running")

// FileOps defines operations for managing files in the vixa config directory
type FileOps interface {
	// GetConfigDir returns the full path to the vixa config directory
	GetConfigDir() string

	// GetRecordingsDir returns the full path to the recordings directory
	GetRecordingsDir() string

	// GetExportsDir returns the full path to the exports directory
	GetExportsDir() string

	// SaveConfig saves data to a file in the config directory
	SaveConfig(filename string, data []byte) error

	// LoadConfig loads data from a file in the config directory
	LoadConfig(filename string) ([]byte, error)

	// SaveRecording saves recording data to the recordings directory
	SaveRecording(filename string, data []byte) error

	// SaveExport saves an exported file to the exports directory
	SaveExport(filename string, data []byte) error

	// ListRecordings returns a list of recordings in the recordings directory
	ListRecordings() ([]string, error)

	// DeleteRecording deletes a recording from the recordings directory
	DeleteRecording(filename string) error

	// EnsureDirectories creates necessary directories if they don't exist
	EnsureDirectories() error

	// SavePID saves the current process ID to a file
	SavePID() error

	// CheckPID checks if another instance is running
	// Returns ErrProcessAlreadyRunning if another instance is running
	CheckPID() error

	// CleanupPID removes the PID file
	CleanupPID() error
}

// DefaultFileOps implements FileOps under ~/.config/vixa
type DefaultFileOps struct {
	configDir string
}

// NewDefaultFileOps creates a new DefaultFileOps instance
func NewDefaultFileOps() (*DefaultFileOps, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	return &DefaultFileOps{
		configDir: filepath.Join(homeDir, ".config", "vixa"),
	}, nil
}

func (f *DefaultFileOps) GetConfigDir() string {
	return f.configDir
}

func (f *DefaultFileOps) GetRecordingsDir() string {
	return filepath.Join(f.configDir, "recordings")
}

func (f *DefaultFileOps) GetExportsDir() string {
	return filepath.Join(f.configDir, "exports")
}

func (f *DefaultFileOps) SaveConfig(filename string, data []byte) error {
	path := filepath.Join(f.configDir, filename)
	return os.WriteFile(path, data, 0o644)
}

func (f *DefaultFileOps) LoadConfig(filename string) ([]byte, error) {
	path := filepath.Join(f.configDir, filename)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, ErrConfigNotFound
	}
	return os.ReadFile(path)
}

func (f *DefaultFileOps) SaveRecording(filename string, data []byte) error {
	path := filepath.Join(f.GetRecordingsDir(), filename)
	return os.WriteFile(path, data, 0o644)
}

func (f *DefaultFileOps) SaveExport(filename string, data []byte) error {
	path := filepath.Join(f.GetExportsDir(), filename)
	return os.WriteFile(path, data, 0o644)
}

func (f *DefaultFileOps) ListRecordings() ([]string, error) {
	files, err := os.ReadDir(f.GetRecordingsDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read recordings directory: %w", err)
	}

	names := make([]string, 0, len(files))
	for _, file := range files {
		if !file.IsDir() {
			names = append(names, file.Name())
		}
	}
	return names, nil
}

func (f *DefaultFileOps) DeleteRecording(filename string) error {
	path := filepath.Join(f.GetRecordingsDir(), filename)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete recording: %w", err)
	}
	return nil
}

func (f *DefaultFileOps) EnsureDirectories() error {
	dirs := []string{
		f.GetConfigDir(),
		f.GetRecordingsDir(),
		f.GetExportsDir(),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

func (f *DefaultFileOps) pidFile() string {
	return filepath.Join(f.configDir, "vixa.pid")
}

func (f *DefaultFileOps) SavePID() error {
	pid := os.Getpid()
	return os.WriteFile(f.pidFile(), []byte(strconv.Itoa(pid)), 0o644)
}

func (f *DefaultFileOps) CheckPID() error {
	data, err := os.ReadFile(f.pidFile())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read PID file: %w", err)
	}

	pid, err := strconv.Atoi(string(data))
	if err != nil {
		logger.Debugf("Stale PID file with invalid content, ignoring")
		return nil
	}

	// Signal 0 probes whether the process exists without affecting it.
	process, err := os.FindProcess(pid)
	if err != nil {
		return nil
	}
	if err := process.Signal(syscall.Signal(0)); err == nil {
		return ErrProcessAlreadyRunning
	}
	return nil
}

func (f *DefaultFileOps) CleanupPID() error {
	if err := os.Remove(f.pidFile()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove PID file: %w", err)
	}
	return nil
}

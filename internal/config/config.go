package config

import (
	"fmt"

	"github.com/vixalabs/vixa/internal/fileops"
	"github.com/vixalabs/vixa/internal/logger"
	"github.com/vixalabs/vixa/internal/types"
	"gopkg.in/yaml.v3"
)

const (
	configFilename = "vixa.yaml"
)

// LoadConfig reads the YAML config from the vixa config directory.
// Returns (nil, nil) when no config file exists yet.
func LoadConfig() (*types.Config, error) {
	fileOps, err := fileops.NewDefaultFileOps()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize file operations: %w", err)
	}

	if err := fileOps.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to create directories: %w", err)
	}

	data, err := fileOps.LoadConfig(configFilename)
	if err != nil {
		if err == fileops.ErrConfigNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := types.DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	normalize(config)

	return config, nil
}

// SaveConfig merges the given settings over any existing config file and
// writes the result back.
func SaveConfig(config *types.Config) error {
	fileOps, err := fileops.NewDefaultFileOps()
	if err != nil {
		return fmt.Errorf("failed to initialize file operations: %w", err)
	}

	existingConfig, err := LoadConfig()
	if err != nil {
		logger.Warnf("Failed to load existing config: %v", err)
	} else if existingConfig != nil {
		mergeConfigs(existingConfig, config)
		config = existingConfig
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := fileOps.SaveConfig(configFilename, data); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	return nil
}

// mergeConfigs merges sourceConfig into targetConfig, keeping existing values
// in targetConfig that are not explicitly set in sourceConfig.
func mergeConfigs(targetConfig, sourceConfig *types.Config) {
	if sourceConfig.LogLevel != "" {
		targetConfig.LogLevel = sourceConfig.LogLevel
	}

	if sourceConfig.Render.Width != 0 {
		targetConfig.Render.Width = sourceConfig.Render.Width
	}
	if sourceConfig.Render.Height != 0 {
		targetConfig.Render.Height = sourceConfig.Render.Height
	}
	if sourceConfig.Render.FPS != 0 {
		targetConfig.Render.FPS = sourceConfig.Render.FPS
	}

	if sourceConfig.Recording.FPS != 0 {
		targetConfig.Recording.FPS = sourceConfig.Recording.FPS
	}
	if sourceConfig.Recording.VideoBitrate != "" {
		targetConfig.Recording.VideoBitrate = sourceConfig.Recording.VideoBitrate
	}
	if sourceConfig.Recording.AudioBitrate != "" {
		targetConfig.Recording.AudioBitrate = sourceConfig.Recording.AudioBitrate
	}
	targetConfig.Recording.PreferMP4 = sourceConfig.Recording.PreferMP4

	if sourceConfig.Preview.Addr != "" {
		targetConfig.Preview.Addr = sourceConfig.Preview.Addr
	}
	targetConfig.Preview.Enabled = sourceConfig.Preview.Enabled

	if sourceConfig.Converter.URL != "" {
		targetConfig.Converter.URL = sourceConfig.Converter.URL
	}
	targetConfig.Converter.Enabled = sourceConfig.Converter.Enabled
}

// normalize clamps values a hand-edited config file could carry out of range.
func normalize(c *types.Config) {
	if c.Render.Width <= 0 {
		c.Render.Width = 1280
	}
	if c.Render.Height <= 0 {
		c.Render.Height = 720
	}
	if c.Render.FPS <= 0 {
		c.Render.FPS = 60
	}
	if c.Recording.FPS < 1 {
		c.Recording.FPS = 30
	}
	if c.Recording.FPS > 120 {
		c.Recording.FPS = 120
	}
}

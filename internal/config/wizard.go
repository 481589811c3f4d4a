package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/vixalabs/vixa/internal/logger"
	"github.com/vixalabs/vixa/internal/types"
)

// RunWizard interactively builds a config file and saves it.
func RunWizard() error {
	bold := color.New(color.Bold)
	cyan := color.New(color.FgCyan)
	green := color.New(color.FgGreen)

	bold.Println("\n🎛️  Welcome to the Vixa Configuration Wizard!")
	fmt.Println("\nThis wizard sets up rendering, preview and export defaults.")
	fmt.Println("Press Enter to accept the value in brackets.")

	reader := bufio.NewReader(os.Stdin)
	cfg := types.DefaultConfig()

	cyan.Println("\nRender surface")
	cfg.Render.Width = askInt(reader, "Width", cfg.Render.Width)
	cfg.Render.Height = askInt(reader, "Height", cfg.Render.Height)
	cfg.Render.FPS = askInt(reader, "Frame rate", cfg.Render.FPS)

	cyan.Println("\nRecording")
	cfg.Recording.FPS = askInt(reader, "Capture frame rate", cfg.Recording.FPS)
	cfg.Recording.PreferMP4 = askBool(reader, "Prefer MP4 container when supported", cfg.Recording.PreferMP4)

	cyan.Println("\nLive preview")
	cfg.Preview.Enabled = askBool(reader, "Enable browser preview", cfg.Preview.Enabled)
	if cfg.Preview.Enabled {
		cfg.Preview.Addr = askString(reader, "Listen address", cfg.Preview.Addr)
	}

	cyan.Println("\nConversion service")
	cfg.Converter.URL = askString(reader, "Service URL (empty to disable)", cfg.Converter.URL)
	cfg.Converter.Enabled = cfg.Converter.URL != ""

	if err := SaveConfig(cfg); err != nil {
		logger.Error("Failed to save configuration", err)
		return err
	}

	green.Println("\n✅ Configuration saved.")
	return nil
}

func askString(reader *bufio.Reader, prompt, def string) string {
	fmt.Printf("%s [%s]: ", prompt, def)
	line, err := reader.ReadString('\n')
	if err != nil {
		return def
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return def
	}
	return line
}

func askInt(reader *bufio.Reader, prompt string, def int) int {
	for {
		raw := askString(reader, prompt, strconv.Itoa(def))
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			fmt.Println("Please enter a positive number.")
			continue
		}
		return v
	}
}

func askBool(reader *bufio.Reader, prompt string, def bool) bool {
	defLabel := "y/N"
	if def {
		defLabel = "Y/n"
	}
	fmt.Printf("%s [%s]: ", prompt, defLabel)
	line, err := reader.ReadString('\n')
	if err != nil {
		return def
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	case "n", "no":
		return false
	default:
		return def
	}
}

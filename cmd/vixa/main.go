package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vixalabs/vixa/internal/analyzer"
	"github.com/vixalabs/vixa/internal/config"
	"github.com/vixalabs/vixa/internal/converter"
	"github.com/vixalabs/vixa/internal/fileops"
	"github.com/vixalabs/vixa/internal/logger"
	"github.com/vixalabs/vixa/internal/notification"
	"github.com/vixalabs/vixa/internal/preview"
	"github.com/vixalabs/vixa/internal/recorder"
	"github.com/vixalabs/vixa/internal/render"
	"github.com/vixalabs/vixa/internal/state"
	"github.com/vixalabs/vixa/internal/store"
	"github.com/vixalabs/vixa/internal/types"
)

func init() {
	// Set custom usage message to show -- prefix
	flag.Usage = func() {
		out := flag.CommandLine.Output()
		fmt.Fprintf(out, "Usage of %s:\n", os.Args[0])
		flag.VisitAll(func(f *flag.Flag) {
			fmt.Fprintf(out, "  --%s", f.Name)
			name, usage := flag.UnquoteUsage(f)
			if len(name) > 0 {
				fmt.Fprintf(out, " %s", name)
			}
			fmt.Fprintf(out, "\n    \t%s", usage)
			if f.DefValue != "" && f.DefValue != "false" {
				fmt.Fprintf(out, " (default %q)", f.DefValue)
			}
			fmt.Fprintf(out, "\n")
		})
	}
}

func main() {
	runWizard := flag.Bool("wizard", false, "Run the configuration wizard")
	logLevel := flag.String("log-level", "info", "Set log level (debug|info|warn|error)")
	logFilename := flag.String("log-filename", "", "Log to file instead of stdout")
	inputFile := flag.String("input", "", "Audio file to play and visualize")
	useMic := flag.Bool("mic", false, "Visualize the default microphone instead of a file")
	recordFor := flag.Duration("record", 0, "Record a clip of this duration, then export it")
	outputName := flag.String("output", "", "Export filename (without extension)")
	convert := flag.Bool("convert", false, "Convert the exported clip to mp4 via the configured service")
	listRecordings := flag.Bool("list-recordings", false, "List saved clips and exit")
	deleteRecording := flag.String("delete-recording", "", "Delete a saved clip and exit")

	flag.Parse()

	logger.SetLevel(*logLevel)
	if *logFilename != "" {
		if err := logger.SetOutputFile(*logFilename); err != nil {
			fmt.Printf("Error setting log file: %v\n", err)
			os.Exit(1)
		}
		defer logger.CloseLogFile()
	}

	var cfg *types.Config
	var err error

	if *runWizard {
		if err := config.RunWizard(); err != nil {
			logger.Error("Error running wizard", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	cfg, err = config.LoadConfig()
	if err != nil {
		logger.Error("Error loading config", err)
		os.Exit(1)
	}
	if cfg == nil {
		logger.Info("No configuration found. Running setup wizard...")
		if err := config.RunWizard(); err != nil {
			logger.Error("Error running wizard", err)
			os.Exit(1)
		}
		cfg, err = config.LoadConfig()
		if err != nil || cfg == nil {
			logger.Error("Error loading config after wizard", err)
			os.Exit(1)
		}
	}

	state.Init(cfg)

	fileOps, err := fileops.NewDefaultFileOps()
	if err != nil {
		logger.Error("Failed to initialize file operations", err)
		os.Exit(1)
	}
	if err := fileOps.EnsureDirectories(); err != nil {
		logger.Error("Failed to create necessary directories", err)
		os.Exit(1)
	}

	if *listRecordings {
		names, err := fileOps.ListRecordings()
		if err != nil {
			logger.Error("Failed to list recordings", err)
			os.Exit(1)
		}
		if len(names) == 0 {
			fmt.Println("No recordings yet.")
			return
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return
	}
	if *deleteRecording != "" {
		if err := fileOps.DeleteRecording(*deleteRecording); err != nil {
			logger.Error("Failed to delete recording", err)
			os.Exit(1)
		}
		logger.Infof("Deleted %s", *deleteRecording)
		return
	}

	if err := fileOps.CheckPID(); err != nil {
		if errors.Is(err, fileops.ErrProcessAlreadyRunning) {
			logger.Error("Another instance of Vixa is already running", err)
			os.Exit(1)
		}
	}
	if err := fileOps.SavePID(); err != nil {
		logger.Error("Failed to save PID file", err)
		os.Exit(1)
	}

	notifier := notification.New()

	// Session wiring: audio engine feeds the compositor, the compositor
	// feeds the preview and, while recording, the recorder.
	engine := analyzer.New()
	sess := store.New()
	w, h := state.Get().RenderSize()
	comp := render.New(w, h, state.Get().RenderFPS(), sess, engine)

	var pv *preview.Server
	if cfg.Preview.Enabled {
		pv = preview.New(cfg.Preview.Addr)
		pv.Start()
		comp.OnFrame(pv.Push)
	}

	comp.Start()
	defer comp.Stop()

	switch {
	case *inputFile != "":
		if err := engine.PlayFile(*inputFile); err != nil {
			logger.Error("Failed to play audio file", err)
			cleanup(fileOps, engine, comp, pv)
			os.Exit(1)
		}
	case *useMic:
		if err := engine.PlayMic(); err != nil {
			logger.Error("Failed to start microphone capture", err)
			cleanup(fileOps, engine, comp, pv)
			os.Exit(1)
		}
	default:
		logger.Info("No audio source selected; rendering the silent session")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if *recordFor > 0 {
		if err := runRecording(cfg, fileOps, notifier, engine, comp, *recordFor, *outputName, *convert, sigChan); err != nil {
			logger.Error("Recording failed", err)
			cleanup(fileOps, engine, comp, pv)
			os.Exit(1)
		}
		cleanup(fileOps, engine, comp, pv)
		return
	}

	logger.Info("Session running. Press Ctrl+C to stop.")
	sig := <-sigChan
	logger.Infof("Received signal %v, shutting down...", sig)
	cleanup(fileOps, engine, comp, pv)
}

// runRecording captures for the requested duration (or until interrupted)
// and exports the clip, converting it first when asked to.
func runRecording(
	cfg *types.Config,
	fileOps fileops.FileOps,
	notifier notification.Notifier,
	engine *analyzer.Engine,
	comp *render.Compositor,
	duration time.Duration,
	outputName string,
	convert bool,
	sigChan chan os.Signal,
) error {
	rec := recorder.New(comp, engine.OutputTap(), cfg.Recording)
	if err := rec.Start(); err != nil {
		return err
	}
	if err := notifier.NotifyRecordingStarted(); err != nil {
		logger.Warn("Could not send notification")
	}

	select {
	case <-time.After(duration):
	case sig := <-sigChan:
		logger.Infof("Received signal %v, stopping recording early", sig)
	}

	clip, err := rec.Stop()
	if err != nil {
		return err
	}
	if err := notifier.NotifyRecordingStopped(); err != nil {
		logger.Warn("Could not send notification")
	}

	name := outputName
	if name == "" {
		name = "vixa-" + time.Now().Format("2006-01-02-150405")
	}

	// Keep the raw clip alongside the export so a bad conversion can be
	// redone from the source material.
	if err := fileOps.SaveRecording(name+"."+clip.Ext, clip.Bytes); err != nil {
		logger.Warnf("Failed to keep raw recording: %v", err)
	}

	data, ext := clip.Bytes, clip.Ext
	if convert {
		if cfg.Converter.URL == "" {
			logger.Warn("No converter service configured, exporting unconverted")
		} else {
			client := converter.New(cfg.Converter.URL)
			w, h := comp.Size()
			res := client.Convert(context.Background(), data, w, h, ext)
			data, ext = res.Bytes, res.Ext
		}
	}

	filename := name + "." + ext
	if err := fileOps.SaveExport(filename, data); err != nil {
		return fmt.Errorf("failed to save export: %w", err)
	}
	if err := notifier.NotifyExportComplete(filename); err != nil {
		logger.Warn("Could not send notification")
	}
	logger.Infof("Exported %s (%d bytes)", filename, len(data))
	return nil
}

func cleanup(fileOps fileops.FileOps, engine *analyzer.Engine, comp *render.Compositor, pv *preview.Server) {
	engine.Close()
	comp.Stop()
	if pv != nil {
		pv.Stop()
	}
	if err := fileOps.CleanupPID(); err != nil {
		logger.Error("Failed to cleanup PID file", err)
	}
}

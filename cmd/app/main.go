// Lens Overlay - live camera compositor with lens distortion and an
// inverse-luminance overlay mask.

package main

import (
	"flag"
	"os"

	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/theme"
	"github.com/sirupsen/logrus"

	"lens-overlay/internal/config"
	"lens-overlay/internal/gui"
)

const (
	AppName    = "Lens Overlay"
	AppID      = "com.lensoverlay.app"
	AppVersion = "1.0.0"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML configuration file")
	debugMode := flag.Bool("debug", false, "Enable debug mode with verbose logging")
	cameraID := flag.Int("camera", -1, "Camera device index (overrides config)")
	fps := flag.Int("fps", 0, "Target frame rate (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		initLogger(*debugMode).WithError(err).Fatal("Failed to load configuration")
	}
	applyFlags(cfg, *debugMode, *cameraID, *fps)
	if err := config.Validate(cfg); err != nil {
		initLogger(cfg.Debug).WithError(err).Fatal("Invalid command line overrides")
	}

	logger := initLogger(cfg.Debug)
	logger.WithFields(logrus.Fields{
		"version":    AppVersion,
		"debug_mode": cfg.Debug,
		"camera":     cfg.Camera.DeviceID,
		"fps":        cfg.Render.FPS,
		"workers":    cfg.Render.Workers,
	}).Info("Starting " + AppName)

	myApp := app.NewWithID(AppID)
	myApp.SetIcon(theme.MediaVideoIcon())
	myApp.Settings().SetTheme(theme.DefaultTheme())

	mainApp, err := gui.NewApplication(myApp, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialise application")
	}
	if cfg.Overlay.Path != "" {
		if err := mainApp.LoadOverlayFromPath(cfg.Overlay.Path); err != nil {
			logger.WithError(err).WithField("path", cfg.Overlay.Path).Warn("Startup overlay not loaded")
		}
	}
	mainApp.ShowAndRun()

	logger.Info("Application shutting down gracefully")
	os.Exit(0)
}

func applyFlags(cfg *config.Config, debug bool, cameraID, fps int) {
	if debug {
		cfg.Debug = true
	}
	if cameraID >= 0 {
		cfg.Camera.DeviceID = cameraID
	}
	if fps > 0 {
		cfg.Render.FPS = fps
	}
}

// initLogger initializes the logger with appropriate level
func initLogger(debugMode bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	if debugMode {
		logger.SetLevel(logrus.DebugLevel)
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   true,
		})
		logger.Debug("Debug logging enabled")
	} else {
		logger.SetLevel(logrus.InfoLevel)
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	return logger
}

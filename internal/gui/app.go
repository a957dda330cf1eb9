// Main application window wiring the session to the UI
package gui

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"

	"lens-overlay/internal/config"
	"lens-overlay/internal/core"
	"lens-overlay/internal/io"
	"lens-overlay/internal/session"
)

const (
	// previewDelay coalesces bursts of parameter changes into one preview render.
	previewDelay = 80 * time.Millisecond
	// previewMaxDimension bounds the still preview rendered without a camera.
	previewMaxDimension = 1024
)

// Application is the main window and everything it owns.
type Application struct {
	app    fyne.App
	window fyne.Window
	logger *logrus.Logger
	cfg    *config.Config

	ctx    context.Context
	cancel context.CancelFunc

	// Core components
	session *session.Session
	loader  *io.ImageLoader
	camera  *io.Camera

	// GUI components
	liveView     *LiveView
	controls     *ControlPanel
	metricsPanel *MetricsPanel
	menuHandler  *MenuHandler
	statusCard   *widget.Card

	previewMu     sync.Mutex
	previewTimer  *time.Timer
	previewCancel context.CancelFunc
}

// NewApplication builds the window. A session that cannot be created is a
// setup failure and is returned to the caller.
func NewApplication(app fyne.App, cfg *config.Config, logger *logrus.Logger) (*Application, error) {
	window := app.NewWindow("Lens Overlay")
	window.Resize(fyne.NewSize(cfg.Window.Width, cfg.Window.Height))
	window.CenterOnScreen()

	ctx, cancel := context.WithCancel(context.Background())
	a := &Application{
		app:    app,
		window: window,
		logger: logger,
		cfg:    cfg,
		ctx:    ctx,
		cancel: cancel,
	}

	a.liveView = NewLiveView(logger)
	if err := a.initializeCore(); err != nil {
		cancel()
		return nil, err
	}
	a.initializeGUI()
	a.setupLayout()
	a.setupCallbacks()

	return a, nil
}

func (a *Application) initializeCore() error {
	s, err := session.New(a.cfg, a.liveView, a.logger)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	a.session = s
	a.loader = io.NewImageLoader(a.cfg.Overlay.MaxDimension, a.logger)
	return nil
}

func (a *Application) initializeGUI() {
	a.controls = NewControlPanel(a.session.Params, a.logger)
	a.metricsPanel = NewMetricsPanel()
	a.menuHandler = NewMenuHandler(a.window, a.loader, a.logger)
	a.statusCard = widget.NewCard("Status", "", widget.NewLabel("Load an overlay or start the camera"))
}

func (a *Application) setupLayout() {
	right := container.NewVBox(
		a.controls.GetContainer(),
		a.statusCard,
		a.metricsPanel.GetContainer(),
	)

	split := container.NewHSplit(a.liveView.GetContainer(), container.NewScroll(right))
	split.SetOffset(0.75)

	a.window.SetMainMenu(a.menuHandler.GetMainMenu())
	a.window.SetContent(split)
}

func (a *Application) setupCallbacks() {
	a.controls.SetCallbacks(a.startCamera, a.menuHandler.OpenOverlay)
	a.menuHandler.SetCallbacks(a.overlayLoaded, a.startCamera)

	// Without a running camera, parameter changes re-render the overlay preview.
	a.session.Params.OnChange(func(core.RenderParameters) {
		if !a.session.Running() {
			a.schedulePreview()
		}
	})
	a.session.OnSourceEnded(func() {
		fyne.Do(a.cameraEnded)
	})

	a.metricsPanel.Watch(a.ctx, 500*time.Millisecond, a.session.Scheduler.Stats)
}

// LoadOverlayFromPath loads an overlay given on the command line or config.
func (a *Application) LoadOverlayFromPath(filepath string) error {
	overlay, err := a.loader.LoadOverlay(filepath)
	if err != nil {
		return err
	}
	a.overlayLoaded(overlay, filepath)
	return nil
}

func (a *Application) overlayLoaded(overlay *core.Surface, source string) {
	if err := a.session.LoadOverlay(overlay); err != nil {
		a.showError("Failed to Load Overlay", err)
		return
	}
	// MarkOverlayLoaded notifies the OnChange listener, which refreshes the preview.
	a.updateStatusMessage(fmt.Sprintf("Overlay: %s (%dx%d)", source, overlay.Width(), overlay.Height()))
}

// schedulePreview restarts the preview timer; only the last request in a burst renders.
func (a *Application) schedulePreview() {
	if a.session.Frames.CurrentOverlayImage() == nil {
		return
	}

	a.previewMu.Lock()
	defer a.previewMu.Unlock()
	if a.previewTimer != nil {
		a.previewTimer.Stop()
	}
	a.previewTimer = time.AfterFunc(previewDelay, a.renderPreview)
}

// renderPreview runs on the timer goroutine. A newer preview cancels one still rendering.
func (a *Application) renderPreview() {
	if a.session.Running() {
		return
	}

	a.previewMu.Lock()
	if a.previewCancel != nil {
		a.previewCancel()
	}
	ctx, cancel := context.WithCancel(a.ctx)
	a.previewCancel = cancel
	a.previewMu.Unlock()
	defer cancel()

	start := time.Now()
	still, err := a.session.RenderStill(ctx, previewMaxDimension)
	if err != nil {
		if ctx.Err() == nil {
			a.logger.WithError(err).Warn("Overlay preview failed")
		}
		return
	}
	if ctx.Err() != nil || a.session.Running() {
		return
	}
	a.logger.WithFields(logrus.Fields{
		"width":       still.Width(),
		"height":      still.Height(),
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("Overlay preview rendered")
	a.liveView.ShowStill(still)
}

func (a *Application) stopPreview() {
	a.previewMu.Lock()
	defer a.previewMu.Unlock()
	if a.previewTimer != nil {
		a.previewTimer.Stop()
	}
	if a.previewCancel != nil {
		a.previewCancel()
	}
}

// cameraEnded runs on the UI thread after the render loop went idle because
// the camera stopped delivering frames.
func (a *Application) cameraEnded() {
	a.logger.Warn("Camera source ended")
	if a.camera != nil {
		if err := a.camera.Close(); err != nil {
			a.logger.WithError(err).Warn("Closing camera failed")
		}
		a.camera = nil
	}
	a.controls.SetCameraRunning(false)
	a.updateStatusMessage("Camera disconnected, press Start Camera to retry")
	a.schedulePreview()
}

func (a *Application) startCamera() {
	if a.session.Running() {
		return
	}
	a.stopPreview()
	a.controls.SetCameraRunning(true)

	if a.camera == nil {
		camera, err := io.OpenCamera(a.cfg.Camera, a.logger)
		if err != nil {
			a.controls.SetCameraRunning(false)
			if a.session.Frames.CurrentOverlayImage() == nil {
				a.liveView.Clear()
			}
			a.showError("Camera Error", errors.New("an error occurred accessing the camera, check the device and permissions"))
			a.logger.WithError(err).Error("Opening camera failed")
			return
		}
		a.camera = camera
	}

	if err := a.session.Start(a.ctx, a.camera); err != nil {
		a.controls.SetCameraRunning(false)
		a.showError("Camera Error", err)
		return
	}
	a.updateStatusMessage(fmt.Sprintf("Camera %d running", a.cfg.Camera.DeviceID))
}

func (a *Application) updateStatusMessage(message string) {
	if a.statusCard != nil {
		a.statusCard.SetContent(widget.NewLabel(message))
	}
}

func (a *Application) ShowAndRun() {
	a.logger.Info("Showing main application window")

	a.window.SetCloseIntercept(func() {
		a.cleanup()
		a.app.Quit()
	})

	a.window.ShowAndRun()
}

func (a *Application) cleanup() {
	a.logger.Info("Cleaning up application resources")
	a.stopPreview()
	a.session.Stop()
	a.cancel()
	if a.camera != nil {
		if err := a.camera.Close(); err != nil {
			a.logger.WithError(err).Warn("Closing camera failed")
		}
	}
}

func (a *Application) showError(title string, err error) {
	a.logger.WithError(err).Error(title)
	dialog.ShowError(err, a.window)
	a.updateStatusMessage(fmt.Sprintf("Error: %s", err.Error()))
}

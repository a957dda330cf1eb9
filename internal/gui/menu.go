// Menu handler for application actions
package gui

import (
	goio "io"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"

	"lens-overlay/internal/core"
	"lens-overlay/internal/io"
)

// MenuHandler handles menu actions
type MenuHandler struct {
	window fyne.Window
	loader *io.ImageLoader
	logger logrus.FieldLogger

	onOverlayLoaded func(overlay *core.Surface, source string)
	onStartCamera   func()
}

func NewMenuHandler(window fyne.Window, loader *io.ImageLoader, logger logrus.FieldLogger) *MenuHandler {
	return &MenuHandler{
		window: window,
		loader: loader,
		logger: logger,
	}
}

func (mh *MenuHandler) GetMainMenu() *fyne.MainMenu {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Load Overlay...", mh.OpenOverlay),
		fyne.NewMenuItem("Start Camera", func() {
			if mh.onStartCamera != nil {
				mh.onStartCamera()
			}
		}),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Exit", func() {
			mh.window.Close()
		}),
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mh.showAbout),
	)

	return fyne.NewMainMenu(fileMenu, helpMenu)
}

// OpenOverlay shows a file dialog and decodes the chosen image.
func (mh *MenuHandler) OpenOverlay() {
	mh.logger.Info("Opening file dialog for overlay selection")

	fileDialog := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			mh.showError("File Dialog Error", err)
			return
		}
		if reader == nil {
			return
		}
		defer reader.Close()

		name := reader.URI().Name()
		mh.logger.WithField("uri", reader.URI().String()).Info("Loading selected overlay")

		data, err := goio.ReadAll(reader)
		if err != nil {
			mh.showError("Failed to Read Overlay", err)
			return
		}
		overlay, err := mh.loader.DecodeOverlay(data, name)
		if err != nil {
			mh.showError("Failed to Load Overlay", err)
			return
		}

		if mh.onOverlayLoaded != nil {
			mh.onOverlayLoaded(overlay, name)
		}
	}, mh.window)

	fileDialog.SetFilter(storage.NewExtensionFileFilter(io.SupportedExtensions()))
	fileDialog.Show()
}

func (mh *MenuHandler) showAbout() {
	content := container.NewVBox(
		widget.NewLabel("Lens Overlay"),
		widget.NewSeparator(),
		widget.NewLabel("Blends an image or its luminance mask"),
		widget.NewLabel("over a live, lens-distorted camera feed."),
		widget.NewSeparator(),
		widget.NewLabel("Built with Go, Fyne v2.6, and OpenCV"),
	)

	aboutDialog := dialog.NewCustom("About", "Close", content, mh.window)
	aboutDialog.Resize(fyne.NewSize(360, 220))
	aboutDialog.Show()
}

func (mh *MenuHandler) showError(title string, err error) {
	mh.logger.WithError(err).Error(title)
	dialog.ShowError(err, mh.window)
}

func (mh *MenuHandler) SetCallbacks(onOverlayLoaded func(*core.Surface, string), onStartCamera func()) {
	mh.onOverlayLoaded = onOverlayLoaded
	mh.onStartCamera = onStartCamera
}

// Blend controls: sliders and toggles feeding the parameter store
package gui

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"

	"lens-overlay/internal/core"
)

// ControlPanel exposes the render parameters to the user.
type ControlPanel struct {
	params *core.ParameterStore
	logger logrus.FieldLogger

	container *fyne.Container

	distortionSlider   *widget.Slider
	distortionLabel    *widget.Label
	transparencySlider *widget.Slider
	transparencyLabel  *widget.Label
	alphaMaskCheck     *widget.Check
	invertCheck        *widget.Check
	startCameraButton  *widget.Button
	openOverlayButton  *widget.Button

	onStartCamera func()
	onOpenOverlay func()
}

func NewControlPanel(params *core.ParameterStore, logger logrus.FieldLogger) *ControlPanel {
	cp := &ControlPanel{
		params: params,
		logger: logger,
	}
	cp.initializeUI()
	return cp
}

func (cp *ControlPanel) initializeUI() {
	current := cp.params.Snapshot()
	bound := cp.params.DistortionBound()

	cp.distortionLabel = widget.NewLabel(fmt.Sprintf("%.2f", current.Distortion))
	cp.distortionSlider = widget.NewSlider(-bound, bound)
	cp.distortionSlider.Step = bound / 100
	cp.distortionSlider.SetValue(current.Distortion)
	cp.distortionSlider.OnChanged = func(value float64) {
		cp.distortionLabel.SetText(fmt.Sprintf("%.2f", value))
		if err := cp.params.SetDistortion(value); err != nil {
			cp.logger.WithError(err).Warn("Distortion rejected")
		}
	}

	cp.transparencyLabel = widget.NewLabel(fmt.Sprintf("%.2f", current.Transparency))
	cp.transparencySlider = widget.NewSlider(0, 1)
	cp.transparencySlider.Step = 0.01
	cp.transparencySlider.SetValue(current.Transparency)
	cp.transparencySlider.OnChanged = func(value float64) {
		cp.transparencyLabel.SetText(fmt.Sprintf("%.2f", value))
		if err := cp.params.SetTransparency(value); err != nil {
			cp.logger.WithError(err).Warn("Transparency rejected")
		}
	}

	cp.alphaMaskCheck = widget.NewCheck("Alpha mask from luminance", func(checked bool) {
		cp.params.SetApplyAlphaMask(checked)
	})
	cp.alphaMaskCheck.SetChecked(current.ApplyAlphaMask)

	cp.invertCheck = widget.NewCheck("Invert colors", func(checked bool) {
		cp.params.SetInvert(checked)
	})
	cp.invertCheck.SetChecked(current.Invert)

	cp.startCameraButton = widget.NewButton("Start Camera", func() {
		if cp.onStartCamera != nil {
			cp.onStartCamera()
		}
	})
	cp.openOverlayButton = widget.NewButton("Load Overlay...", func() {
		if cp.onOpenOverlay != nil {
			cp.onOpenOverlay()
		}
	})

	cp.container = container.NewVBox(
		widget.NewCard("Source", "", container.NewVBox(
			cp.startCameraButton,
			cp.openOverlayButton,
		)),
		widget.NewCard("Blend", "", container.NewVBox(
			widget.NewLabel("Lens distortion"),
			container.NewBorder(nil, nil, nil, cp.distortionLabel, cp.distortionSlider),
			widget.NewLabel("Transparency"),
			container.NewBorder(nil, nil, nil, cp.transparencyLabel, cp.transparencySlider),
			cp.alphaMaskCheck,
			cp.invertCheck,
		)),
	)
}

func (cp *ControlPanel) GetContainer() fyne.CanvasObject {
	return cp.container
}

func (cp *ControlPanel) SetCallbacks(onStartCamera, onOpenOverlay func()) {
	cp.onStartCamera = onStartCamera
	cp.onOpenOverlay = onOpenOverlay
}

// SetCameraRunning disables the start button while the camera is live.
func (cp *ControlPanel) SetCameraRunning(running bool) {
	if running {
		cp.startCameraButton.Disable()
		cp.startCameraButton.SetText("Camera Running")
		return
	}
	cp.startCameraButton.Enable()
	cp.startCameraButton.SetText("Start Camera")
}

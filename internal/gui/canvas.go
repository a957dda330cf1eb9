// Live composite view
package gui

import (
	"fmt"
	"image"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"

	"lens-overlay/internal/core"
)

// LiveView shows composited frames. It implements scheduler.Presenter.
type LiveView struct {
	logger logrus.FieldLogger

	card        *widget.Card
	image       *canvas.Image
	placeholder *image.NRGBA
	sizeLabel   *widget.Label
	content     *fyne.Container
}

func NewLiveView(logger logrus.FieldLogger) *LiveView {
	lv := &LiveView{logger: logger}
	lv.initializeUI()
	return lv
}

func (lv *LiveView) initializeUI() {
	placeholder := image.NewNRGBA(image.Rect(0, 0, 320, 240))
	for i := 0; i < len(placeholder.Pix); i += 4 {
		placeholder.Pix[i+0] = 32
		placeholder.Pix[i+1] = 32
		placeholder.Pix[i+2] = 32
		placeholder.Pix[i+3] = 255
	}

	lv.placeholder = placeholder
	lv.image = canvas.NewImageFromImage(placeholder)
	// Contain keeps the output aspect ratio tied to the video frame.
	lv.image.FillMode = canvas.ImageFillContain
	lv.image.ScaleMode = canvas.ImageScaleFastest
	lv.image.SetMinSize(fyne.NewSize(320, 240))

	lv.sizeLabel = widget.NewLabel("No video")
	lv.card = widget.NewCard("Live", "", lv.image)
	lv.content = container.NewBorder(nil, lv.sizeLabel, nil, nil, lv.card)
}

func (lv *LiveView) GetContainer() fyne.CanvasObject {
	return lv.content
}

// Present copies the frame and hands the copy to the UI thread, so the
// renderer may reuse its buffer as soon as Present returns. The copy is made
// opaque; masked blends carry alpha below 1, which fyne would otherwise show
// the window background through.
func (lv *LiveView) Present(frame *core.Surface) error {
	if frame == nil {
		return fmt.Errorf("nil frame")
	}
	snapshot := frame.CloneOpaque().Image()

	fyne.Do(func() {
		lv.image.Image = snapshot
		lv.image.Refresh()
	})
	return nil
}

// Resize reports a new output size.
func (lv *LiveView) Resize(width, height int) {
	lv.logger.WithFields(logrus.Fields{"width": width, "height": height}).Debug("Live view resized")
	fyne.Do(func() {
		lv.sizeLabel.SetText(fmt.Sprintf("Output %dx%d", width, height))
	})
}

// ShowStill displays a one-off frame when the camera is not running.
func (lv *LiveView) ShowStill(frame *core.Surface) {
	if frame == nil {
		return
	}
	img := frame.CloneOpaque().Image()
	fyne.Do(func() {
		lv.image.Image = img
		lv.image.Refresh()
		lv.sizeLabel.SetText(fmt.Sprintf("Overlay preview %dx%d", img.Rect.Dx(), img.Rect.Dy()))
	})
}

// Clear shows the placeholder again.
func (lv *LiveView) Clear() {
	fyne.Do(func() {
		lv.image.Image = lv.placeholder
		lv.image.Refresh()
		lv.sizeLabel.SetText("No video")
	})
}

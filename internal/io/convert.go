package io

import (
	"fmt"

	"gocv.io/x/gocv"

	"lens-overlay/internal/core"
)

// MatToSurface converts an 8 bit OpenCV image (gray, BGR or BGRA) into a
// non-premultiplied RGBA surface.
func MatToSurface(mat gocv.Mat) (*core.Surface, error) {
	if mat.Empty() {
		return nil, fmt.Errorf("image is empty")
	}

	var code gocv.ColorConversionCode
	switch mat.Channels() {
	case 1:
		code = gocv.ColorGrayToBGRA
	case 3:
		code = gocv.ColorBGRToRGBA
	case 4:
		code = gocv.ColorBGRAToRGBA
	default:
		return nil, fmt.Errorf("unsupported channel count: %d", mat.Channels())
	}

	src := mat
	switch mat.Type() & 0x7 {
	case gocv.MatTypeCV8U:
	case gocv.MatTypeCV16U:
		// 16 bit PNG/TIFF: bring into 8 bit range first.
		converted := gocv.NewMat()
		defer converted.Close()
		mat.ConvertToWithParams(&converted, gocv.MatTypeCV8U, 1.0/257, 0)
		src = converted
	default:
		return nil, fmt.Errorf("unsupported pixel depth: %v", mat.Type())
	}

	rgba := gocv.NewMat()
	defer rgba.Close()
	gocv.CvtColor(src, &rgba, code)

	surface, err := core.NewSurface(rgba.Cols(), rgba.Rows())
	if err != nil {
		return nil, err
	}
	data, err := rgba.DataPtrUint8()
	if err != nil {
		return nil, err
	}
	copy(surface.Image().Pix, data)
	return surface, nil
}

// Overlay image loading backed by OpenCV
package io

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"lens-overlay/internal/core"
)

// ImageLoader decodes overlay images into surfaces.
type ImageLoader struct {
	logger       logrus.FieldLogger
	maxDimension int
}

func NewImageLoader(maxDimension int, logger logrus.FieldLogger) *ImageLoader {
	return &ImageLoader{
		logger:       logger,
		maxDimension: maxDimension,
	}
}

// LoadOverlay reads an image file, keeping its alpha channel when present.
func (il *ImageLoader) LoadOverlay(filepath string) (*core.Surface, error) {
	il.logger.WithField("filepath", filepath).Debug("Loading overlay")

	if !IsSupportedImageFormat(filepath) {
		return nil, fmt.Errorf("%w: unsupported image format: %s", core.ErrOverlayLoad, filepath)
	}

	mat := gocv.IMRead(filepath, gocv.IMReadUnchanged)
	defer mat.Close()
	if mat.Empty() {
		return nil, fmt.Errorf("%w: failed to load image: %s", core.ErrOverlayLoad, filepath)
	}

	return il.finish(mat, filepath)
}

// DecodeOverlay decodes an in-memory encoded image.
func (il *ImageLoader) DecodeOverlay(data []byte, name string) (*core.Surface, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty image data", core.ErrOverlayLoad)
	}

	mat, err := gocv.IMDecode(data, gocv.IMReadUnchanged)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrOverlayLoad, err)
	}
	defer mat.Close()
	if mat.Empty() {
		return nil, fmt.Errorf("%w: failed to decode image: %s", core.ErrOverlayLoad, name)
	}

	return il.finish(mat, name)
}

func (il *ImageLoader) finish(mat gocv.Mat, name string) (*core.Surface, error) {
	surface, err := MatToSurface(mat)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrOverlayLoad, err)
	}

	scaled := surface.ScaleToFit(il.maxDimension)
	il.logger.WithFields(logrus.Fields{
		"source":   name,
		"width":    mat.Cols(),
		"height":   mat.Rows(),
		"channels": mat.Channels(),
		"scaled":   scaled != surface,
	}).Info("Overlay decoded")

	return scaled, nil
}

// IsSupportedImageFormat reports whether the extension is one we decode.
func IsSupportedImageFormat(filepath string) bool {
	ext := strings.ToLower(getFileExtension(filepath))
	for _, format := range SupportedExtensions() {
		if ext == format {
			return true
		}
	}
	return false
}

// SupportedExtensions lists accepted file extensions for file dialogs.
func SupportedExtensions() []string {
	return []string{".jpg", ".jpeg", ".png", ".tiff", ".tif", ".bmp", ".webp"}
}

func getFileExtension(filepath string) string {
	for i := len(filepath) - 1; i >= 0; i-- {
		if filepath[i] == '.' {
			return filepath[i:]
		}
		if filepath[i] == '/' || filepath[i] == '\\' {
			break
		}
	}
	return ""
}

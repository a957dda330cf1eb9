package io

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"lens-overlay/internal/config"
	"lens-overlay/internal/core"
)

// Camera is a core.VideoSource backed by an OpenCV capture device.
type Camera struct {
	mu      sync.Mutex
	capture *gocv.VideoCapture
	frame   gocv.Mat
	closed  bool
	logger  logrus.FieldLogger
}

// OpenCamera opens the configured capture device. Failure is a setup error.
func OpenCamera(cfg config.CameraConfig, logger logrus.FieldLogger) (*Camera, error) {
	logger = logger.WithField("device_id", cfg.DeviceID)
	logger.Info("Opening camera")

	capture, err := gocv.OpenVideoCapture(cfg.DeviceID)
	if err != nil {
		return nil, fmt.Errorf("%w: open camera %d: %v", core.ErrSetup, cfg.DeviceID, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("%w: camera %d is not available", core.ErrSetup, cfg.DeviceID)
	}

	if cfg.Width > 0 {
		capture.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	}
	if cfg.Height > 0 {
		capture.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	}

	logger.WithFields(logrus.Fields{
		"width":  capture.Get(gocv.VideoCaptureFrameWidth),
		"height": capture.Get(gocv.VideoCaptureFrameHeight),
		"fps":    capture.Get(gocv.VideoCaptureFPS),
	}).Info("Camera opened")

	return &Camera{
		capture: capture,
		frame:   gocv.NewMat(),
		logger:  logger,
	}, nil
}

// Read grabs the next frame. Each call returns a fresh surface that the
// caller owns.
func (c *Camera) Read(ctx context.Context) (*core.Surface, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, core.ErrSourceEnded
	}
	if ok := c.capture.Read(&c.frame); !ok {
		if !c.capture.IsOpened() {
			return nil, fmt.Errorf("%w: camera disconnected", core.ErrSourceEnded)
		}
		return nil, fmt.Errorf("%w: camera read returned no frame", core.ErrSourceUnavailable)
	}
	if c.frame.Empty() {
		return nil, fmt.Errorf("%w: empty camera frame", core.ErrSourceUnavailable)
	}

	return MatToSurface(c.frame)
}

// Close releases the device. Subsequent reads report ErrSourceEnded.
func (c *Camera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	c.frame.Close()
	c.logger.Info("Camera closed")
	return c.capture.Close()
}

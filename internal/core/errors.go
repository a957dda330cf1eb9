package core

import "errors"

var (
	// ErrSourceUnavailable means the video source has no frame ready yet.
	// Render cycles that hit it are skipped and retried on the next tick.
	ErrSourceUnavailable = errors.New("video source unavailable")

	// ErrSourceEnded means the video source stopped producing frames for good.
	ErrSourceEnded = errors.New("video source ended")

	// ErrOverlayLoad is returned when an overlay image cannot be decoded or is unusable.
	ErrOverlayLoad = errors.New("overlay load failed")

	// ErrInvalidParameter is returned by the parameter store for non-finite input.
	ErrInvalidParameter = errors.New("invalid render parameter")

	// ErrSetup marks failures that prevent the compositing session from starting.
	ErrSetup = errors.New("compositor setup failed")
)

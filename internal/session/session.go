// Package session owns everything one compositing run needs: the frame
// source, render parameters, compositor and render loop.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"lens-overlay/internal/compositor"
	"lens-overlay/internal/config"
	"lens-overlay/internal/core"
	"lens-overlay/internal/scheduler"
)

// retryDelay spaces out reads from a source that is not ready or failing.
const retryDelay = 10 * time.Millisecond

// Session wires the frame source, parameter store and scheduler together.
type Session struct {
	ID        uuid.UUID
	Params    *core.ParameterStore
	Frames    *core.FrameSource
	Engine    *compositor.Engine
	Scheduler *scheduler.Scheduler

	logger logrus.FieldLogger

	mu         sync.Mutex
	pumpCancel context.CancelFunc
	pumpDone   chan struct{}
}

// New builds a session from configuration. Every failure is a setup failure.
func New(cfg *config.Config, presenter scheduler.Presenter, logger logrus.FieldLogger) (*Session, error) {
	id := uuid.New()
	logger = logger.WithField("session", id.String())

	params, err := core.NewParameterStore(core.RenderParameters{
		Distortion:     cfg.Render.Distortion,
		Transparency:   cfg.Render.Transparency,
		ApplyAlphaMask: cfg.Render.ApplyAlphaMask,
		Invert:         cfg.Render.Invert,
	}, cfg.Render.DistortionBound)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrSetup, err)
	}

	accent := core.Color{A: 1}
	if len(cfg.Render.Accent) == 3 {
		accent.R, accent.G, accent.B = cfg.Render.Accent[0], cfg.Render.Accent[1], cfg.Render.Accent[2]
	} else {
		accent = compositor.DefaultAccent
	}

	frames := core.NewFrameSource()
	engine := compositor.New(compositor.Options{Accent: accent, Workers: cfg.Render.Workers})

	sched, err := scheduler.New(frames, params, engine, presenter, scheduler.Options{FPS: cfg.Render.FPS}, logger)
	if err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"fps":              cfg.Render.FPS,
		"workers":          cfg.Render.Workers,
		"distortion_bound": cfg.Render.DistortionBound,
	}).Info("Session created")

	return &Session{
		ID:        id,
		Params:    params,
		Frames:    frames,
		Engine:    engine,
		Scheduler: sched,
		logger:    logger,
	}, nil
}

// LoadOverlay replaces the overlay image. On failure HasOverlay is left as it was.
func (s *Session) LoadOverlay(overlay *core.Surface) error {
	if err := s.Frames.SetOverlay(overlay); err != nil {
		s.logger.WithError(err).Warn("Overlay rejected")
		return err
	}
	s.Params.MarkOverlayLoaded()
	s.logger.WithFields(logrus.Fields{
		"width":  overlay.Width(),
		"height": overlay.Height(),
	}).Info("Overlay loaded")
	return nil
}

// OnSourceEnded registers fn to run once each time the video source ends on
// its own. fn runs on the render loop goroutine after the session has gone
// idle; it must not block on the UI thread.
func (s *Session) OnSourceEnded(fn func()) {
	s.Scheduler.OnSourceEnded(fn)
}

// Start begins pumping frames from video and starts the render loop.
func (s *Session) Start(ctx context.Context, video core.VideoSource) error {
	if video == nil {
		return fmt.Errorf("%w: nil video source", core.ErrSetup)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pumpCancel != nil {
		if s.Running() {
			return scheduler.ErrAlreadyRunning
		}
		// previous source ended on its own
		s.pumpCancel()
		<-s.pumpDone
		s.pumpCancel, s.pumpDone = nil, nil
	}

	s.Frames.ResetVideo()
	pumpCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go s.pump(pumpCtx, video, done)

	if err := s.Scheduler.Start(ctx); err != nil {
		cancel()
		<-done
		return err
	}

	s.pumpCancel, s.pumpDone = cancel, done
	return nil
}

// Stop halts rendering first, then the frame pump. It is safe to call twice.
func (s *Session) Stop() {
	s.Scheduler.Stop()

	s.mu.Lock()
	cancel, done := s.pumpCancel, s.pumpDone
	s.pumpCancel, s.pumpDone = nil, nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// Running reports whether the render loop is active.
func (s *Session) Running() bool {
	return s.Scheduler.State() == scheduler.Running
}

// RenderStill composites the overlay over a black frame with the overlay's
// aspect ratio, no larger than maxDim on either side (maxDim <= 0 keeps the
// overlay's own size). It is used to preview an overlay before the camera starts.
func (s *Session) RenderStill(ctx context.Context, maxDim int) (*core.Surface, error) {
	overlay := s.Frames.CurrentOverlayImage()
	if overlay == nil {
		return nil, fmt.Errorf("%w: no overlay loaded", core.ErrOverlayLoad)
	}

	width, height := core.FitSize(overlay.Width(), overlay.Height(), maxDim)
	background, err := core.NewSurface(width, height)
	if err != nil {
		return nil, err
	}
	background.Fill(core.Black)

	dst, err := core.NewSurface(width, height)
	if err != nil {
		return nil, err
	}
	if err := s.Engine.Render(ctx, dst, s.Params.Snapshot(), background, overlay); err != nil {
		return nil, err
	}
	return dst, nil
}

func (s *Session) pump(ctx context.Context, video core.VideoSource, done chan struct{}) {
	defer close(done)

	for ctx.Err() == nil {
		frame, err := video.Read(ctx)
		switch {
		case err == nil:
			s.Frames.PublishVideo(frame)
			s.Scheduler.Recorder().SetSourceDrops(s.Frames.Drops())
			continue
		case ctx.Err() != nil:
			return
		case errors.Is(err, core.ErrSourceEnded):
			s.logger.Info("Video source ended")
			s.Frames.EndVideo()
			return
		case errors.Is(err, core.ErrSourceUnavailable):
			s.logger.Debug("Video source not ready")
		default:
			s.logger.WithError(err).Warn("Reading video source failed")
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(retryDelay):
		}
	}
}

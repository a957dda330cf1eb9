// Package scheduler drives one composite-and-present cycle per display tick
// while the video source is active.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"lens-overlay/internal/core"
	"lens-overlay/internal/metrics"
)

// State of the scheduler.
type State int32

const (
	Idle State = iota
	Running
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	default:
		return "unknown"
	}
}

// ErrAlreadyRunning is returned by Start when a loop is active.
var ErrAlreadyRunning = errors.New("scheduler already running")

// FrameProvider exposes the surfaces borrowed for one cycle.
type FrameProvider interface {
	CurrentVideoFrame() (*core.Surface, uint64, error)
	CurrentOverlayImage() *core.Surface
}

// ParamsReader yields the render parameters for one cycle.
type ParamsReader interface {
	Snapshot() core.RenderParameters
}

// Renderer composites video and overlay into dst.
type Renderer interface {
	Render(ctx context.Context, dst *core.Surface, params core.RenderParameters, video, overlay *core.Surface) error
}

// Presenter receives finished frames. Present must not retain frame after it
// returns; the buffer is reused two cycles later. Frame alpha is the blended
// alpha, which is below 1 wherever a partially transparent overlay was mixed
// in; presenters drawing onto a background decide how to flatten it.
type Presenter interface {
	Present(frame *core.Surface) error
	Resize(width, height int)
}

// Options configure the loop.
type Options struct {
	FPS int
}

type ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct{ *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.Ticker.C }

// Scheduler runs the render loop. It is safe to call Start and Stop from any
// goroutine.
type Scheduler struct {
	frames    FrameProvider
	params    ParamsReader
	renderer  Renderer
	presenter Presenter
	stats     *metrics.Recorder
	logger    logrus.FieldLogger
	interval  time.Duration

	newTicker func(time.Duration) ticker

	mu      sync.Mutex
	state   atomic.Int32
	cancel  context.CancelFunc
	done    chan struct{}
	onEnded func()

	// owned by the loop goroutine
	width, height int
	buffers       [2]*core.Surface
	next          int
}

// New validates the options and returns an idle scheduler.
func New(frames FrameProvider, params ParamsReader, renderer Renderer, presenter Presenter, opts Options, logger logrus.FieldLogger) (*Scheduler, error) {
	if frames == nil || params == nil || renderer == nil || presenter == nil {
		return nil, fmt.Errorf("%w: scheduler collaborators must not be nil", core.ErrSetup)
	}
	if opts.FPS <= 0 {
		return nil, fmt.Errorf("%w: fps must be > 0, got %d", core.ErrSetup, opts.FPS)
	}

	return &Scheduler{
		frames:    frames,
		params:    params,
		renderer:  renderer,
		presenter: presenter,
		stats:     metrics.NewRecorder(),
		logger:    logger,
		interval:  time.Second / time.Duration(opts.FPS),
		newTicker: func(d time.Duration) ticker { return timeTicker{time.NewTicker(d)} },
	}, nil
}

// State reports whether the loop is running.
func (s *Scheduler) State() State {
	return State(s.state.Load())
}

// Stats returns the frame statistics recorded so far.
func (s *Scheduler) Stats() metrics.Stats {
	return s.stats.Snapshot()
}

// Recorder exposes the recorder so collaborators can add their own counters.
func (s *Scheduler) Recorder() *metrics.Recorder {
	return s.stats
}

// OnSourceEnded registers fn to run once each time the loop goes idle because
// the source reported ErrSourceEnded. fn runs on the loop goroutine after the
// loop has fully exited, so it may call Start or Stop.
func (s *Scheduler) OnSourceEnded(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onEnded = fn
}

// Start transitions Idle to Running. The loop stops when ctx is done, Stop is
// called, or the source reports ErrSourceEnded.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.State() == Running {
		return ErrAlreadyRunning
	}
	if s.cancel != nil {
		s.cancel()
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.state.Store(int32(Running))

	s.logger.WithField("interval", s.interval).Info("Render loop started")
	go s.loop(runCtx, s.done)
	return nil
}

// Stop cancels the loop and waits for the in-flight cycle to finish. No cycle
// runs after Stop returns.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.logger.Info("Render loop stopped")
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	ended := false
	defer func() {
		s.state.Store(int32(Idle))
		close(done)
		if !ended {
			return
		}
		s.mu.Lock()
		fn := s.onEnded
		s.mu.Unlock()
		if fn != nil {
			fn()
		}
	}()

	t := s.newTicker(s.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C():
		}
		if ctx.Err() != nil {
			return
		}

		if err := s.cycle(ctx); errors.Is(err, core.ErrSourceEnded) {
			s.logger.Info("Video source ended, render loop going idle")
			ended = true
			return
		}
	}
}

// cycle renders and presents one frame. Only ErrSourceEnded is returned; every
// other failure skips the frame and leaves the loop scheduled.
func (s *Scheduler) cycle(ctx context.Context) error {
	params := s.params.Snapshot()

	video, seq, err := s.frames.CurrentVideoFrame()
	switch {
	case errors.Is(err, core.ErrSourceEnded):
		return err
	case errors.Is(err, core.ErrSourceUnavailable):
		s.stats.RecordSkipped()
		s.logger.Debug("No video frame ready, skipping cycle")
		return nil
	case err != nil:
		s.stats.RecordFailed()
		s.logger.WithError(err).Warn("Reading video frame failed")
		return nil
	}

	if err := s.ensureBuffers(video.Width(), video.Height()); err != nil {
		s.stats.RecordFailed()
		s.logger.WithError(err).Error("Allocating output buffers failed")
		return nil
	}

	dst := s.buffers[s.next]
	s.next ^= 1

	start := time.Now()
	if err := s.renderer.Render(ctx, dst, params, video, s.frames.CurrentOverlayImage()); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		s.stats.RecordFailed()
		s.logger.WithError(err).WithField("seq", seq).Warn("Render failed, skipping frame")
		return nil
	}
	elapsed := time.Since(start)

	if err := s.presenter.Present(dst); err != nil {
		s.stats.RecordFailed()
		s.logger.WithError(err).WithField("seq", seq).Warn("Present failed, skipping frame")
		return nil
	}
	s.stats.RecordRendered(elapsed)
	return nil
}

// ensureBuffers sizes the output pair to the video frame, reporting changes.
func (s *Scheduler) ensureBuffers(width, height int) error {
	if width == s.width && height == s.height && s.buffers[0] != nil {
		return nil
	}

	for i := range s.buffers {
		b, err := core.NewSurface(width, height)
		if err != nil {
			return err
		}
		s.buffers[i] = b
	}

	s.logger.WithFields(logrus.Fields{
		"old_width":  s.width,
		"old_height": s.height,
		"width":      width,
		"height":     height,
	}).Info("Output resized to video dimensions")

	s.width, s.height = width, height
	s.next = 0
	s.stats.RecordResize()
	s.presenter.Resize(width, height)
	return nil
}

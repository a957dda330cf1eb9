package session

import (
	"context"
	"image/color"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lens-overlay/internal/config"
	"lens-overlay/internal/core"
)

// loopVideo returns the same frame forever, or fails with err when set.
type loopVideo struct {
	mu    sync.Mutex
	frame *core.Surface
	err   error
}

func (v *loopVideo) Read(ctx context.Context) (*core.Surface, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(time.Millisecond):
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.err != nil {
		return nil, v.err
	}
	return v.frame, nil
}

func (v *loopVideo) setErr(err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.err = err
}

type capturePresenter struct {
	mu    sync.Mutex
	last  *core.Surface
	count int
}

func (p *capturePresenter) Present(frame *core.Surface) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.last = frame.Clone()
	p.count++
	return nil
}

func (p *capturePresenter) Resize(int, int) {}

func (p *capturePresenter) lastFrame() *core.Surface {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Render.FPS = 200
	cfg.Render.Workers = 2
	require.NoError(t, config.Validate(cfg))
	return cfg
}

func uniform(t *testing.T, w, h int, c core.Color) *core.Surface {
	t.Helper()
	s, err := core.NewSurface(w, h)
	require.NoError(t, err)
	s.Fill(c)
	return s
}

func waitForFrame(t *testing.T, p *capturePresenter) *core.Surface {
	t.Helper()
	var frame *core.Surface
	require.Eventually(t, func() bool {
		frame = p.lastFrame()
		return frame != nil
	}, 2*time.Second, 5*time.Millisecond)
	return frame
}

func TestNewRejectsBadConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Render.FPS = 0
	_, err := New(cfg, &capturePresenter{}, quietLogger())
	assert.ErrorIs(t, err, core.ErrSetup)

	cfg = testConfig(t)
	cfg.Render.DistortionBound = -1
	_, err = New(cfg, &capturePresenter{}, quietLogger())
	assert.ErrorIs(t, err, core.ErrSetup)
}

func TestRedFrameWithoutOverlay(t *testing.T) {
	presenter := &capturePresenter{}
	s, err := New(testConfig(t), presenter, quietLogger())
	require.NoError(t, err)

	require.NoError(t, s.Params.SetDistortion(0.15))
	require.NoError(t, s.Params.SetTransparency(0.8))
	s.Params.SetApplyAlphaMask(true)

	video := &loopVideo{frame: uniform(t, 32, 24, core.Color{R: 1, A: 1})}
	require.NoError(t, s.Start(context.Background(), video))
	defer s.Stop()

	frame := waitForFrame(t, presenter)
	for y := 0; y < frame.Height(); y++ {
		for x := 0; x < frame.Width(); x++ {
			require.Equal(t, color.NRGBA{R: 255, A: 255}, frame.Image().NRGBAAt(x, y))
		}
	}
}

func TestPillarboxedOverlayScenario(t *testing.T) {
	presenter := &capturePresenter{}
	s, err := New(testConfig(t), presenter, quietLogger())
	require.NoError(t, err)

	require.NoError(t, s.LoadOverlay(uniform(t, 100, 100, core.Black)))
	s.Params.SetApplyAlphaMask(true)
	require.NoError(t, s.Params.SetTransparency(1))
	require.NoError(t, s.Params.SetDistortion(0))

	video := &loopVideo{frame: uniform(t, 200, 100, core.Color{B: 1, A: 1})}
	require.NoError(t, s.Start(context.Background(), video))
	defer s.Stop()

	frame := waitForFrame(t, presenter)
	accent := color.NRGBA{R: 6, G: 57, B: 112, A: 255}
	blue := color.NRGBA{B: 255, A: 255}
	for x := 0; x < 200; x++ {
		want := blue
		if x >= 50 && x < 150 {
			want = accent
		}
		for _, y := range []int{0, 50, 99} {
			require.Equal(t, want, frame.Image().NRGBAAt(x, y), "pixel %d,%d", x, y)
		}
	}
}

func TestLoadOverlayFailureLeavesFlag(t *testing.T) {
	s, err := New(testConfig(t), &capturePresenter{}, quietLogger())
	require.NoError(t, err)

	assert.ErrorIs(t, s.LoadOverlay(nil), core.ErrOverlayLoad)
	assert.False(t, s.Params.Snapshot().HasOverlay)

	require.NoError(t, s.LoadOverlay(uniform(t, 4, 4, core.Black)))
	assert.ErrorIs(t, s.LoadOverlay(nil), core.ErrOverlayLoad)
	assert.True(t, s.Params.Snapshot().HasOverlay)
}

func TestStartStopLifecycle(t *testing.T) {
	s, err := New(testConfig(t), &capturePresenter{}, quietLogger())
	require.NoError(t, err)

	assert.ErrorIs(t, s.Start(context.Background(), nil), core.ErrSetup)

	video := &loopVideo{frame: uniform(t, 4, 4, core.Black)}
	require.NoError(t, s.Start(context.Background(), video))
	assert.True(t, s.Running())
	assert.Error(t, s.Start(context.Background(), video))

	s.Stop()
	assert.False(t, s.Running())
	s.Stop()
}

func TestSourceEndThenRestart(t *testing.T) {
	presenter := &capturePresenter{}
	s, err := New(testConfig(t), presenter, quietLogger())
	require.NoError(t, err)
	defer s.Stop()

	video := &loopVideo{frame: uniform(t, 4, 4, core.Black)}
	video.setErr(core.ErrSourceEnded)
	require.NoError(t, s.Start(context.Background(), video))
	require.Eventually(t, func() bool { return !s.Running() }, 2*time.Second, 5*time.Millisecond)

	video.setErr(nil)
	require.NoError(t, s.Start(context.Background(), video))
	waitForFrame(t, presenter)
}

func TestUnavailableSourceIsSilentlySkipped(t *testing.T) {
	s, err := New(testConfig(t), &capturePresenter{}, quietLogger())
	require.NoError(t, err)

	video := &loopVideo{err: core.ErrSourceUnavailable}
	require.NoError(t, s.Start(context.Background(), video))
	defer s.Stop()

	require.Eventually(t, func() bool { return s.Scheduler.Stats().Skipped > 0 }, 2*time.Second, 5*time.Millisecond)
	assert.True(t, s.Running())
	assert.Equal(t, uint64(0), s.Scheduler.Stats().Rendered)
}

func TestRenderStill(t *testing.T) {
	s, err := New(testConfig(t), &capturePresenter{}, quietLogger())
	require.NoError(t, err)

	_, err = s.RenderStill(context.Background(), 0)
	assert.ErrorIs(t, err, core.ErrOverlayLoad)

	require.NoError(t, s.LoadOverlay(uniform(t, 8, 4, core.Color{R: 1, A: 1})))
	require.NoError(t, s.Params.SetTransparency(0.5))

	still, err := s.RenderStill(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 8, still.Width())
	assert.Equal(t, 4, still.Height())
	assert.Equal(t, color.NRGBA{R: 128, A: 255}, still.Image().NRGBAAt(3, 2))
}

func TestOnSourceEndedFiresOnce(t *testing.T) {
	presenter := &capturePresenter{}
	s, err := New(testConfig(t), presenter, quietLogger())
	require.NoError(t, err)
	defer s.Stop()

	var mu sync.Mutex
	calls := 0
	running := true
	s.OnSourceEnded(func() {
		mu.Lock()
		defer mu.Unlock()
		calls++
		running = s.Running()
	})
	count := func() int {
		mu.Lock()
		defer mu.Unlock()
		return calls
	}

	video := &loopVideo{frame: uniform(t, 4, 4, core.Black)}
	require.NoError(t, s.Start(context.Background(), video))
	waitForFrame(t, presenter)
	video.setErr(core.ErrSourceEnded)

	require.Eventually(t, func() bool { return count() == 1 }, 2*time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, count())
	mu.Lock()
	assert.False(t, running, "session is idle when the callback runs")
	mu.Unlock()

	// The session restarts from the ended state and a later Stop does not report an end.
	video.setErr(nil)
	require.NoError(t, s.Start(context.Background(), video))
	assert.True(t, s.Running())
	s.Stop()
	assert.Equal(t, 1, count())
}

func TestRenderStillBoundedPreview(t *testing.T) {
	s, err := New(testConfig(t), &capturePresenter{}, quietLogger())
	require.NoError(t, err)
	require.NoError(t, s.LoadOverlay(uniform(t, 400, 100, core.Color{R: 1, A: 1})))
	require.NoError(t, s.Params.SetTransparency(1))

	still, err := s.RenderStill(context.Background(), 64)
	require.NoError(t, err)
	assert.Equal(t, 64, still.Width())
	assert.Equal(t, 16, still.Height())
	assert.Equal(t, color.NRGBA{R: 255, A: 255}, still.Image().NRGBAAt(32, 8))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.RenderStill(ctx, 64)
	assert.ErrorIs(t, err, context.Canceled)
}

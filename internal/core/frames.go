package core

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// VideoSource produces camera frames. Read blocks until a frame is available,
// the context is done, or the source fails. A source that is not ready yet
// returns an error wrapping ErrSourceUnavailable; a finished source returns
// one wrapping ErrSourceEnded.
type VideoSource interface {
	Read(ctx context.Context) (*Surface, error)
}

// FrameSource owns the current video frame and overlay image. Published
// surfaces are treated as immutable, so the compositor may borrow them for
// one render cycle without copying.
type FrameSource struct {
	mu       sync.Mutex
	video    *Surface
	consumed bool
	ended    bool
	drops    uint64
	seq      uint64

	overlay atomic.Pointer[Surface]
}

// NewFrameSource returns an empty frame source.
func NewFrameSource() *FrameSource {
	return &FrameSource{}
}

// PublishVideo replaces the current video frame. A frame that was never
// read by CurrentVideoFrame counts as dropped.
func (fs *FrameSource) PublishVideo(frame *Surface) {
	if frame == nil {
		return
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if fs.video != nil && !fs.consumed {
		fs.drops++
	}
	fs.video = frame
	fs.consumed = false
	fs.seq++
}

// EndVideo marks the video source as finished.
func (fs *FrameSource) EndVideo() {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.ended = true
}

// ResetVideo clears the video slot so a new source can start publishing.
func (fs *FrameSource) ResetVideo() {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.video = nil
	fs.consumed = false
	fs.ended = false
}

// CurrentVideoFrame returns the most recent frame and its sequence number.
func (fs *FrameSource) CurrentVideoFrame() (*Surface, uint64, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if fs.ended {
		return nil, fs.seq, ErrSourceEnded
	}
	if fs.video == nil {
		return nil, 0, ErrSourceUnavailable
	}
	fs.consumed = true
	return fs.video, fs.seq, nil
}

// Drops returns how many published frames were overwritten unread.
func (fs *FrameSource) Drops() uint64 {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.drops
}

// SetOverlay swaps in a new overlay image. The previous overlay stays valid
// for any render cycle that already borrowed it.
func (fs *FrameSource) SetOverlay(overlay *Surface) error {
	if overlay == nil || overlay.Width() <= 0 || overlay.Height() <= 0 {
		return fmt.Errorf("%w: empty overlay surface", ErrOverlayLoad)
	}
	fs.overlay.Store(overlay)
	return nil
}

// CurrentOverlayImage returns the loaded overlay or nil.
func (fs *FrameSource) CurrentOverlayImage() *Surface {
	return fs.overlay.Load()
}

// OverlayResolution reports the overlay size, or the (1,1) placeholder when
// nothing is loaded.
func (fs *FrameSource) OverlayResolution() (int, int) {
	o := fs.overlay.Load()
	if o == nil {
		return 1, 1
	}
	return o.Width(), o.Height()
}

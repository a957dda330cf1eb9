// Frame timing statistics for the render loop
package metrics

import (
	"sync"
	"time"
)

// ewmaWeight is the smoothing factor for the average render duration.
const ewmaWeight = 0.1

// Stats is a point-in-time copy of the recorder state.
type Stats struct {
	Rendered      uint64
	Skipped       uint64
	Failed        uint64
	Resizes       uint64
	SourceDrops   uint64
	LastRender    time.Duration
	AverageRender time.Duration
	FPS           float64
}

// Map flattens the stats into named values for display.
func (s Stats) Map() map[string]float64 {
	return map[string]float64{
		"rendered":          float64(s.Rendered),
		"skipped":           float64(s.Skipped),
		"failed":            float64(s.Failed),
		"resizes":           float64(s.Resizes),
		"source_drops":      float64(s.SourceDrops),
		"last_render_ms":    float64(s.LastRender.Microseconds()) / 1000,
		"average_render_ms": float64(s.AverageRender.Microseconds()) / 1000,
		"fps":               s.FPS,
	}
}

// Recorder accumulates per-cycle outcomes. Safe for concurrent use.
type Recorder struct {
	mu    sync.Mutex
	now   func() time.Time
	stats Stats

	windowStart  time.Time
	windowFrames int
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{now: time.Now}
}

// RecordRendered counts a presented frame that took d to composite.
func (r *Recorder) RecordRendered(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stats.Rendered++
	r.stats.LastRender = d
	if r.stats.AverageRender == 0 {
		r.stats.AverageRender = d
	} else {
		avg := float64(r.stats.AverageRender)*(1-ewmaWeight) + float64(d)*ewmaWeight
		r.stats.AverageRender = time.Duration(avg)
	}

	now := r.now()
	if r.windowStart.IsZero() {
		r.windowStart = now
	}
	r.windowFrames++
	if elapsed := now.Sub(r.windowStart); elapsed >= time.Second {
		r.stats.FPS = float64(r.windowFrames) / elapsed.Seconds()
		r.windowStart = now
		r.windowFrames = 0
	}
}

// RecordSkipped counts a cycle skipped because no frame was ready.
func (r *Recorder) RecordSkipped() {
	r.mu.Lock()
	r.stats.Skipped++
	r.mu.Unlock()
}

// RecordFailed counts a cycle whose render or present returned an error.
func (r *Recorder) RecordFailed() {
	r.mu.Lock()
	r.stats.Failed++
	r.mu.Unlock()
}

// RecordResize counts an output dimension change.
func (r *Recorder) RecordResize() {
	r.mu.Lock()
	r.stats.Resizes++
	r.mu.Unlock()
}

// SetSourceDrops stores the latest drop count reported by the frame source.
func (r *Recorder) SetSourceDrops(n uint64) {
	r.mu.Lock()
	r.stats.SourceDrops = n
	r.mu.Unlock()
}

// Snapshot returns a copy of the current stats.
func (r *Recorder) Snapshot() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

// Reset clears all counters.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats = Stats{}
	r.windowStart = time.Time{}
	r.windowFrames = 0
}

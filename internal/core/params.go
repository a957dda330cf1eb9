package core

import (
	"fmt"
	"math"
	"sync"
)

// DefaultDistortionBound is the symmetric limit applied to distortion input.
const DefaultDistortionBound = 2.0

// RenderParameters is the blend configuration read once per rendered frame.
type RenderParameters struct {
	Distortion     float64 // radial coefficient k in centered*(1+k*r²)
	Transparency   float64 // overlay weight in [0,1]
	ApplyAlphaMask bool    // derive overlay alpha from inverse luminance
	HasOverlay     bool    // set once an overlay has loaded, never cleared
	Invert         bool    // invert output RGB after blending
}

// ParameterStore holds the current RenderParameters. Setters are called from
// the UI goroutine while the scheduler reads snapshots, so every access is
// guarded.
type ParameterStore struct {
	mu              sync.RWMutex
	params          RenderParameters
	distortionBound float64
	listeners       []func(RenderParameters)
}

// NewParameterStore creates a store seeded with initial values. Initial values
// go through the same validation as the setters.
func NewParameterStore(initial RenderParameters, distortionBound float64) (*ParameterStore, error) {
	if math.IsNaN(distortionBound) || math.IsInf(distortionBound, 0) || distortionBound <= 0 {
		return nil, fmt.Errorf("%w: distortion bound %v", ErrInvalidParameter, distortionBound)
	}

	ps := &ParameterStore{distortionBound: distortionBound}
	if err := ps.SetDistortion(initial.Distortion); err != nil {
		return nil, err
	}
	if err := ps.SetTransparency(initial.Transparency); err != nil {
		return nil, err
	}
	ps.params.ApplyAlphaMask = initial.ApplyAlphaMask
	ps.params.Invert = initial.Invert
	ps.params.HasOverlay = initial.HasOverlay
	return ps, nil
}

// DistortionBound returns the configured symmetric distortion limit.
func (ps *ParameterStore) DistortionBound() float64 {
	return ps.distortionBound
}

// SetDistortion stores k clamped to [-bound, bound]. Non-finite input is rejected.
func (ps *ParameterStore) SetDistortion(k float64) error {
	if !isFinite(k) {
		return fmt.Errorf("%w: distortion %v", ErrInvalidParameter, k)
	}
	k = clampFloat(k, -ps.distortionBound, ps.distortionBound)
	ps.update(func(p *RenderParameters) { p.Distortion = k })
	return nil
}

// SetTransparency stores t clamped to [0,1]. Non-finite input is rejected.
func (ps *ParameterStore) SetTransparency(t float64) error {
	if !isFinite(t) {
		return fmt.Errorf("%w: transparency %v", ErrInvalidParameter, t)
	}
	t = clampFloat(t, 0, 1)
	ps.update(func(p *RenderParameters) { p.Transparency = t })
	return nil
}

func (ps *ParameterStore) SetApplyAlphaMask(on bool) {
	ps.update(func(p *RenderParameters) { p.ApplyAlphaMask = on })
}

func (ps *ParameterStore) SetInvert(on bool) {
	ps.update(func(p *RenderParameters) { p.Invert = on })
}

// MarkOverlayLoaded flips HasOverlay to true. There is no way back.
func (ps *ParameterStore) MarkOverlayLoaded() {
	ps.update(func(p *RenderParameters) { p.HasOverlay = true })
}

// Snapshot returns a consistent copy of the current parameters.
func (ps *ParameterStore) Snapshot() RenderParameters {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return ps.params
}

// OnChange registers fn to run after every update with the new snapshot.
// Listeners run on the goroutine that made the change.
func (ps *ParameterStore) OnChange(fn func(RenderParameters)) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.listeners = append(ps.listeners, fn)
}

func (ps *ParameterStore) update(mutate func(*RenderParameters)) {
	ps.mu.Lock()
	mutate(&ps.params)
	snapshot := ps.params
	listeners := append([]func(RenderParameters){}, ps.listeners...)
	ps.mu.Unlock()

	for _, fn := range listeners {
		fn(snapshot)
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

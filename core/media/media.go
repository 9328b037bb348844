// Package media executes track-level operations with ffmpeg. The rest of
// the system talks to it through small interfaces so the reconciliation
// engine, compositor and pipeline can be tested without a media toolchain.
package media

import (
	"segstitch/model"
)

// Prober reads a track's intrinsic duration and frame size.
type Prober interface {
	Probe(path string, role model.Role) (model.Track, error)
}

// Adjuster produces duration-adjusted copies of tracks. Implementations
// never mutate the input track; they write a new clip and return a new
// Track value referencing it.
type Adjuster interface {
	// FreezeExtend holds the last frame until the track reaches target
	// seconds. A track already at or beyond the target is clipped to it.
	FreezeExtend(t model.Track, target float64) (model.Track, error)
	// TimeStretch re-times playback so total duration becomes target
	// seconds (speed factor = original / target).
	TimeStretch(t model.Track, target float64) (model.Track, error)
}

// Layer is one positioned, resized overlay ready for composition.
type Layer struct {
	Track model.Track
	X, Y  int
	// Width/Height are the resized dimensions; Height is always derived
	// from the overlay's aspect ratio upstream.
	Width, Height int
}

// Overlayer stacks layers over a base track and returns the composite.
type Overlayer interface {
	Overlay(base model.Track, layers []Layer) (model.Track, error)
}

// OutputSpec describes the final rendered file.
type OutputSpec struct {
	Path    string
	Width   int
	Height  int
	Rescale bool // true when any part's frame size differs from Width x Height
}

// Joiner concatenates composited segment clips into the final output.
type Joiner interface {
	Concat(parts []model.Track, spec OutputSpec) (model.Track, error)
}

// EncodeSettings are the uniform encode parameters applied to every
// intermediate and to the final output, so concatenation never has to
// reconcile codec differences.
type EncodeSettings struct {
	Codec  string
	Preset string
	PixFmt string
	CRF    int
	FPS    int
}

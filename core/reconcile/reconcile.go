// Package reconcile adjusts every track of a segment to one shared target
// duration. The target is always the longest intrinsic duration among the
// segment's tracks; the primary yields by freezing its last frame, overlays
// follow their declared policy (fill = time-stretch, normal = freeze).
package reconcile

import (
	"fmt"
	"math"

	"segstitch/core/media"
	"segstitch/logger"
	"segstitch/model"
)

const (
	// EqualityTolerance bounds how far a reconciled track may sit from the
	// target duration.
	EqualityTolerance = 0.5
	// NoopTolerance is the band inside which a track counts as already at
	// the target and must not be touched, regardless of policy.
	NoopTolerance = 0.01
	// MinStretchDelta guards against a stretch that silently did nothing:
	// a stretched track whose duration moved less than this is reported.
	MinStretchDelta = 0.1
)

// Engine reconciles segment durations.
type Engine struct {
	prober   media.Prober
	adjuster media.Adjuster
}

// New creates an engine. The prober is used for the read-after-write
// verification of time-stretches.
func New(prober media.Prober, adjuster media.Adjuster) *Engine {
	return &Engine{prober: prober, adjuster: adjuster}
}

// Reconcile replaces every track of seg with a duration-adjusted copy
// matching the segment target. The segment is updated in place; the tracks
// themselves are new values, never mutations. Any adjuster failure is fatal
// for the segment and propagated.
func (e *Engine) Reconcile(seg *model.Segment) error {
	target := seg.MaxDuration()
	seg.TargetDuration = target

	logger.Debug("reconciling segment",
		logger.Int("segment", seg.Config.ID),
		logger.Float64("target", target),
		logger.Int("overlays", len(seg.Overlays)))

	// The primary has no configurable policy: it always yields to the
	// longest overlay by freezing its last frame.
	if math.Abs(seg.Primary.Duration-target) > NoopTolerance {
		adjusted, err := e.adjuster.FreezeExtend(seg.Primary, target)
		if err != nil {
			return fmt.Errorf("segment %d: primary: %w", seg.Config.ID, err)
		}
		seg.Primary = adjusted
	}

	for i := range seg.Overlays {
		policy := model.PolicyNormal
		if i < len(seg.Config.Overlays) {
			policy = seg.Config.Overlays[i].Placement.Policy
		}

		original := seg.Overlays[i]
		if math.Abs(original.Duration-target) <= NoopTolerance {
			continue
		}

		switch policy {
		case model.PolicyFill:
			adjusted, err := e.adjuster.TimeStretch(original, target)
			if err != nil {
				return fmt.Errorf("segment %d: overlay %s: %w", seg.Config.ID, original.Path, err)
			}
			seg.Overlays[i] = e.verifyStretch(seg.Config.ID, original, adjusted, target)
		default:
			adjusted, err := e.adjuster.FreezeExtend(original, target)
			if err != nil {
				return fmt.Errorf("segment %d: overlay %s: %w", seg.Config.ID, original.Path, err)
			}
			seg.Overlays[i] = adjusted
		}
	}

	return nil
}

// verifyStretch re-probes a stretched track and checks that (a) the stretch
// actually changed the duration and (b) the result landed near the target.
// Failures are logged as data-quality errors, never fatal: one bad track
// must not take down a long batch run. The best-effort track is used either
// way.
func (e *Engine) verifyStretch(segID int, original, adjusted model.Track, target float64) model.Track {
	probed, err := e.prober.Probe(adjusted.Path, adjusted.Role)
	if err != nil {
		logger.Error("cannot verify time-stretch result",
			logger.Int("segment", segID),
			logger.String("track", adjusted.Path),
			logger.ErrorField(err))
		return adjusted
	}

	if math.Abs(probed.Duration-original.Duration) <= MinStretchDelta {
		logger.Error("time-stretch appears to have had no effect",
			logger.Int("segment", segID),
			logger.String("track", adjusted.Path),
			logger.Float64("original", original.Duration),
			logger.Float64("actual", probed.Duration))
	}
	if math.Abs(probed.Duration-target) > EqualityTolerance {
		logger.Error("time-stretch missed the target duration",
			logger.Int("segment", segID),
			logger.String("track", adjusted.Path),
			logger.Float64("target", target),
			logger.Float64("actual", probed.Duration))
	}

	adjusted.Duration = probed.Duration
	return adjusted
}

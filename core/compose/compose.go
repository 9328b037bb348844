// Package compose turns reconciled segments into composited clips and joins
// those clips into the final timeline.
package compose

import (
	"fmt"

	"segstitch/core/media"
	"segstitch/logger"
	"segstitch/model"
)

// Compositor positions each overlay over the primary frame and delegates
// the actual layering to an Overlayer.
type Compositor struct {
	overlayer media.Overlayer
	policy    model.PlacementPolicy
}

// NewCompositor creates a compositor. The placement policy supplies the
// named default positions used when a placement has no explicit
// coordinates.
func NewCompositor(overlayer media.Overlayer, policy model.PlacementPolicy) *Compositor {
	return &Compositor{overlayer: overlayer, policy: policy}
}

// Compose produces one composited clip for a segment whose tracks have
// already been duration-reconciled. A segment with no overlays still runs
// through the overlayer with zero layers: every part handed to
// concatenation must carry the uniform encode parameters, including a
// primary that needed no duration adjustment.
func (c *Compositor) Compose(seg *model.Segment) (model.Track, error) {
	layers := make([]media.Layer, 0, len(seg.Overlays))
	for i, overlay := range seg.Overlays {
		placement := model.OverlayPlacement{}
		if i < len(seg.Config.Overlays) {
			placement = seg.Config.Overlays[i].Placement
		}
		layers = append(layers, PlaceLayer(seg.Primary, overlay, placement, i, c.policy))
	}

	composite, err := c.overlayer.Overlay(seg.Primary, layers)
	if err != nil {
		return model.Track{}, fmt.Errorf("segment %d: %w", seg.Config.ID, err)
	}

	logger.Info("composited segment",
		logger.Int("segment", seg.Config.ID),
		logger.Int("overlays", len(layers)),
		logger.Float64("duration", seg.TargetDuration))

	return composite, nil
}

// PlaceLayer resolves an overlay's final geometry. Width comes from the
// placement (0 keeps the overlay's intrinsic width); height always derives
// from the overlay's own aspect ratio. Coordinates come from the placement
// when explicit, otherwise from the named fallback position for the i-th
// overlay: centered first, bottom-right (inset by the policy margin) second.
func PlaceLayer(primary, overlay model.Track, placement model.OverlayPlacement, index int, policy model.PlacementPolicy) media.Layer {
	width := placement.Width
	if width <= 0 {
		width = overlay.Width
	}
	height := overlay.ScaledHeight(width)

	layer := media.Layer{Track: overlay, Width: width, Height: height}

	position := placement.Position
	switch position {
	case model.PositionExplicit:
		layer.X = placement.X
		layer.Y = placement.Y
		return layer
	case model.PositionCenter, model.PositionBottomRight:
		// already named
	default:
		position = policy.Fallback(index)
	}

	if position == model.PositionCenter {
		layer.X = (primary.Width - width) / 2
		layer.Y = (primary.Height - height) / 2
	} else {
		layer.X = primary.Width - width - policy.Margin
		layer.Y = primary.Height - height - policy.Margin
	}
	return layer
}

package model

// DurationPolicy governs how an overlay's duration is reconciled to the
// segment target.
type DurationPolicy string

const (
	// PolicyFill stretches or compresses playback speed so the track's
	// duration exactly equals the target.
	PolicyFill DurationPolicy = "fill"
	// PolicyNormal plays at original speed and holds the last frame for
	// any remainder.
	PolicyNormal DurationPolicy = "normal"
)

// NamedPosition is a fallback position used when a placement carries no
// explicit coordinates.
type NamedPosition string

const (
	PositionExplicit    NamedPosition = ""
	PositionCenter      NamedPosition = "center"
	PositionBottomRight NamedPosition = "bottom-right"
)

// OverlayPlacement positions one overlay over the primary frame.
// Coordinates are in output pixel space with the origin at the top-left
// corner of the primary frame. Height is always derived from the overlay's
// aspect ratio; Width is the only sizing input (0 keeps the intrinsic width).
type OverlayPlacement struct {
	X        int
	Y        int
	Width    int
	Policy   DurationPolicy
	Position NamedPosition
}

// OverlayRef is one overlay declared for a segment, in declaration order.
type OverlayRef struct {
	Path      string
	Role      Role
	Placement OverlayPlacement
}

// SegmentConfig is the parsed, filesystem-agnostic description of one
// segment: where its tracks come from and how overlays are placed.
type SegmentConfig struct {
	ID          int
	PrimaryPath string
	Overlays    []OverlayRef
}

// PlacementPolicy supplies the default geometry used when a segment was
// synthesized from the naming convention rather than a plan: the first
// overlay is centered, the second sits bottom-right inset by Margin.
type PlacementPolicy struct {
	Margin    int
	Fallbacks []NamedPosition
}

// DefaultPlacementPolicy mirrors the historical layout: center, then
// bottom-right with a 20 pixel margin.
func DefaultPlacementPolicy() PlacementPolicy {
	return PlacementPolicy{
		Margin:    20,
		Fallbacks: []NamedPosition{PositionCenter, PositionBottomRight},
	}
}

// Fallback returns the named position for the i-th overlay of a segment.
func (p PlacementPolicy) Fallback(i int) NamedPosition {
	if i < len(p.Fallbacks) {
		return p.Fallbacks[i]
	}
	return PositionBottomRight
}

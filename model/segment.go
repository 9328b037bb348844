package model

// Segment is the runtime unit of composition: a primary track plus zero or
// more overlays, all sharing one reconciled duration.
type Segment struct {
	Config   SegmentConfig
	Primary  Track
	Overlays []Track

	// TargetDuration is the longest intrinsic duration among the member
	// tracks. Zero until reconciliation has run.
	TargetDuration float64
}

// Tracks returns the primary followed by the overlays in declaration order.
func (s *Segment) Tracks() []Track {
	out := make([]Track, 0, len(s.Overlays)+1)
	out = append(out, s.Primary)
	out = append(out, s.Overlays...)
	return out
}

// MaxDuration returns the longest intrinsic duration among the segment's
// tracks. The reconciliation target is always this value, independent of
// which track is primary.
func (s *Segment) MaxDuration() float64 {
	max := s.Primary.Duration
	for _, o := range s.Overlays {
		if o.Duration > max {
			max = o.Duration
		}
	}
	return max
}

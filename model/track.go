package model

// Role tags what a track is used for inside a segment.
type Role string

const (
	RolePrimary Role = "primary"
	RolePip     Role = "pip"
	RoleComment Role = "comment"
)

// Track is a single decodable media clip. Tracks are immutable values:
// every adjustment (freeze-extend, time-stretch, resize) produces a new
// Track pointing at a new file, never a mutation.
type Track struct {
	Path     string
	Role     Role
	Duration float64 // seconds
	Width    int
	Height   int
}

// ScaledHeight derives the height the track would have at the given width,
// preserving the track's own aspect ratio. Width is the only authoritative
// sizing input.
func (t Track) ScaledHeight(width int) int {
	if t.Width == 0 {
		return 0
	}
	return width * t.Height / t.Width
}

// WithDuration returns a copy of the track referencing a new file with a
// new duration.
func (t Track) WithDuration(path string, duration float64) Track {
	t.Path = path
	t.Duration = duration
	return t
}

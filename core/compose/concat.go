package compose

import (
	"fmt"

	"segstitch/core/media"
	"segstitch/logger"
	"segstitch/model"
)

// Concatenator joins composited segment clips, in ordinal order, into one
// output timeline.
type Concatenator struct {
	joiner media.Joiner
}

// NewConcatenator creates a concatenator.
func NewConcatenator(joiner media.Joiner) *Concatenator {
	return &Concatenator{joiner: joiner}
}

// Join renders the ordered parts into spec.Path. The whole timeline is
// rescaled to spec.Width x spec.Height only when some part's frame size
// differs from it (uniform resize, aspect ratio not enforced). The returned
// track's duration is the sum of the part durations.
func (c *Concatenator) Join(parts []model.Track, spec media.OutputSpec) (model.Track, error) {
	if len(parts) == 0 {
		return model.Track{}, fmt.Errorf("nothing to concatenate")
	}

	spec.Rescale = false
	var total float64
	for _, part := range parts {
		total += part.Duration
		if part.Width != spec.Width || part.Height != spec.Height {
			spec.Rescale = true
		}
	}

	out, err := c.joiner.Concat(parts, spec)
	if err != nil {
		return model.Track{}, fmt.Errorf("concatenating %d segments: %w", len(parts), err)
	}

	logger.Info("timeline rendered",
		logger.String("output", out.Path),
		logger.Int("segments", len(parts)),
		logger.Float64("duration", total),
		logger.Bool("rescaled", spec.Rescale))

	return out, nil
}

package compose

import (
	"math"
	"testing"

	"segstitch/core/media"
	"segstitch/model"
)

// fakeJoiner records the concat request and reports the summed duration.
type fakeJoiner struct {
	parts []model.Track
	spec  media.OutputSpec
}

func (f *fakeJoiner) Concat(parts []model.Track, spec media.OutputSpec) (model.Track, error) {
	f.parts = parts
	f.spec = spec
	var total float64
	for _, p := range parts {
		total += p.Duration
	}
	return model.Track{Path: spec.Path, Duration: total, Width: spec.Width, Height: spec.Height}, nil
}

func part(path string, duration float64, w, h int) model.Track {
	return model.Track{Path: path, Duration: duration, Width: w, Height: h}
}

func TestJoinSumsDurationsAndPreservesOrder(t *testing.T) {
	// Three segments of 5.0s, 7.0s, 4.5s concatenate to 16.5s.
	parts := []model.Track{
		part("s1.mp4", 5.0, 1920, 1080),
		part("s2.mp4", 7.0, 1920, 1080),
		part("s3.mp4", 4.5, 1920, 1080),
	}

	j := &fakeJoiner{}
	out, err := NewConcatenator(j).Join(parts, media.OutputSpec{Path: "out.mp4", Width: 1920, Height: 1080})
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if math.Abs(out.Duration-16.5) > 0.001 {
		t.Errorf("duration = %v, want 16.5", out.Duration)
	}
	for i, want := range []string{"s1.mp4", "s2.mp4", "s3.mp4"} {
		if j.parts[i].Path != want {
			t.Errorf("part %d = %q, want %q", i, j.parts[i].Path, want)
		}
	}
	if j.spec.Rescale {
		t.Error("no rescale expected when every part matches the output size")
	}
}

func TestJoinRescalesOnSizeMismatch(t *testing.T) {
	parts := []model.Track{
		part("s1.mp4", 5.0, 1920, 1080),
		part("s2.mp4", 7.0, 1280, 720),
	}
	j := &fakeJoiner{}
	if _, err := NewConcatenator(j).Join(parts, media.OutputSpec{Path: "out.mp4", Width: 1920, Height: 1080}); err != nil {
		t.Fatalf("Join: %v", err)
	}
	if !j.spec.Rescale {
		t.Error("expected rescale when a part's frame size differs")
	}
}

func TestJoinEmptyIsError(t *testing.T) {
	if _, err := NewConcatenator(&fakeJoiner{}).Join(nil, media.OutputSpec{Path: "out.mp4"}); err == nil {
		t.Fatal("expected error for empty part list")
	}
}

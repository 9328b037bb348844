package pipeline

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"testing"

	"segstitch/core/compose"
	"segstitch/core/media"
	"segstitch/core/reconcile"
	"segstitch/model"
)

// mediaStub fakes every media interface so the pipeline runs without an
// ffmpeg toolchain. Adjusted files are registered so the verification
// re-probe finds them.
type mediaStub struct {
	mu        sync.Mutex
	durations map[string]float64
	parts     []model.Track
}

func newStub(durations map[string]float64) *mediaStub {
	return &mediaStub{durations: durations}
}

func (s *mediaStub) Probe(path string, role model.Role) (model.Track, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.durations[path]
	if !ok {
		return model.Track{}, fmt.Errorf("unreadable track %s", path)
	}
	return model.Track{Path: path, Role: role, Duration: d, Width: 1920, Height: 1080}, nil
}

func (s *mediaStub) adjust(t model.Track, target float64, op string) (model.Track, error) {
	out := t.Path + "." + op
	s.mu.Lock()
	s.durations[out] = target
	s.mu.Unlock()
	return t.WithDuration(out, target), nil
}

func (s *mediaStub) FreezeExtend(t model.Track, target float64) (model.Track, error) {
	return s.adjust(t, target, "freeze")
}

func (s *mediaStub) TimeStretch(t model.Track, target float64) (model.Track, error) {
	return s.adjust(t, target, "stretch")
}

func (s *mediaStub) Overlay(base model.Track, layers []media.Layer) (model.Track, error) {
	out := base
	out.Path = base.Path + ".composite"
	return out, nil
}

func (s *mediaStub) Concat(parts []model.Track, spec media.OutputSpec) (model.Track, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.parts = parts
	var total float64
	for _, p := range parts {
		total += p.Duration
	}
	return model.Track{Path: spec.Path, Duration: total, Width: spec.Width, Height: spec.Height}, nil
}

func newPipeline(stub *mediaStub, opts Options) *Pipeline {
	engine := reconcile.New(stub, stub)
	compositor := compose.NewCompositor(stub, model.DefaultPlacementPolicy())
	concatenator := compose.NewConcatenator(stub)
	return New(stub, engine, compositor, concatenator, opts)
}

func segConfig(id int, primary string, overlays ...string) model.SegmentConfig {
	cfg := model.SegmentConfig{ID: id, PrimaryPath: primary}
	for _, o := range overlays {
		cfg.Overlays = append(cfg.Overlays, model.OverlayRef{
			Path:      o,
			Role:      model.RolePip,
			Placement: model.OverlayPlacement{X: 10, Y: 10, Width: 480, Policy: model.PolicyNormal},
		})
	}
	return cfg
}

func TestRunPreservesSegmentOrder(t *testing.T) {
	stub := newStub(map[string]float64{
		"p1.mp4": 5.0, "o1.mp4": 2.0,
		"p2.mp4": 3.0, "o2.mp4": 7.0,
		"p3.mp4": 4.5,
	})
	configs := []model.SegmentConfig{
		segConfig(1, "p1.mp4", "o1.mp4"),
		segConfig(2, "p2.mp4", "o2.mp4"),
		segConfig(3, "p3.mp4"),
	}

	pipe := newPipeline(stub, Options{Workers: 4})
	out, err := pipe.Run(configs, media.OutputSpec{Path: "out.mp4", Width: 1920, Height: 1080})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// 5.0 + 7.0 + 4.5 regardless of worker completion order.
	if math.Abs(out.Duration-16.5) > 0.001 {
		t.Errorf("duration = %v, want 16.5", out.Duration)
	}
	if len(stub.parts) != 3 {
		t.Fatalf("parts = %d", len(stub.parts))
	}
	for i, wantPrefix := range []string{"p1.mp4", "p2.mp4", "p3.mp4"} {
		if !strings.HasPrefix(stub.parts[i].Path, wantPrefix) {
			t.Errorf("part %d = %q, want prefix %q", i, stub.parts[i].Path, wantPrefix)
		}
	}
}

func TestRunUnreadableTrackAborts(t *testing.T) {
	stub := newStub(map[string]float64{
		"p1.mp4": 5.0,
		// p2.mp4 missing: duration unreadable
	})
	configs := []model.SegmentConfig{
		segConfig(1, "p1.mp4"),
		segConfig(2, "p2.mp4"),
	}

	pipe := newPipeline(stub, Options{Workers: 1})
	_, err := pipe.Run(configs, media.OutputSpec{Path: "out.mp4", Width: 1920, Height: 1080})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "segment 2") {
		t.Errorf("error should name the failing segment: %v", err)
	}
}

func TestRunContinueOnErrorSkipsSegment(t *testing.T) {
	stub := newStub(map[string]float64{
		"p1.mp4": 5.0,
		"p3.mp4": 4.5,
	})
	configs := []model.SegmentConfig{
		segConfig(1, "p1.mp4"),
		segConfig(2, "p2.mp4"), // unreadable
		segConfig(3, "p3.mp4"),
	}

	pipe := newPipeline(stub, Options{Workers: 2, ContinueOnError: true})
	out, err := pipe.Run(configs, media.OutputSpec{Path: "out.mp4", Width: 1920, Height: 1080})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(stub.parts) != 2 {
		t.Fatalf("parts = %d, want 2", len(stub.parts))
	}
	if math.Abs(out.Duration-9.5) > 0.001 {
		t.Errorf("duration = %v, want 9.5", out.Duration)
	}
}

func TestRunNoSegmentsIsError(t *testing.T) {
	pipe := newPipeline(newStub(nil), Options{})
	if _, err := pipe.Run(nil, media.OutputSpec{Path: "out.mp4"}); err == nil {
		t.Fatal("expected error")
	}
}
